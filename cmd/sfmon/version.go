package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show ShapeFlow Monitor version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("ShapeFlow Monitor %s\n", Version)
	},
}
