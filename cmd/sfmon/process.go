package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shapeflow/monitor/internal/monitor/config"
	"github.com/shapeflow/monitor/internal/monitor/session"
)

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Run one processing pass and print the results",
	Long:  "Load a log source, run normalization and the alert detectors once, and print the outcome without serving HTTP.",
	RunE:  runProcess,
}

var (
	flagLog  string
	flagJSON bool
)

func init() {
	processCmd.Flags().StringVar(&flagLog, "log", "", "log source to process (default: the default log)")
	processCmd.Flags().BoolVar(&flagJSON, "json", false, "print the full snapshot as JSON")
}

func runProcess(cmd *cobra.Command, args []string) error {
	cfg := config.Get()

	st, err := newStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	sess, err := session.New(cmd.Context(), st, cfg)
	if err != nil {
		return fmt.Errorf("load default log source: %w", err)
	}

	if flagLog != "" {
		if err := sess.SwitchLog(cmd.Context(), flagLog); err != nil {
			return fmt.Errorf("switch to %q: %w", flagLog, err)
		}
	}

	snap := sess.Snapshot()
	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	}

	fmt.Printf("Log source:  %s\n", snap.SelectedLog)
	fmt.Printf("Events:      %d\n", len(snap.Table))
	fmt.Printf("Date range:  %s .. %s\n", snap.MinDate, snap.MaxDate)
	fmt.Printf("Documents:   %d\n", len(snap.Filters.Documents))
	fmt.Printf("Users:       %d\n", len(snap.Filters.Users))
	fmt.Printf("Alerts:      %d (%d unread)\n", len(snap.Alerts), snap.Alerts.UnreadCount())
	for _, a := range snap.Alerts {
		fmt.Printf("  %s - %s - %s - %s\n", a.Time, a.User, a.Description, a.Document)
	}
	return nil
}
