package seedr

import (
	"fmt"

	"github.com/brianvoe/gofakeit/v7"
)

// Shared lists for synthetic Onshape activity-log generation.

// randomDocument returns a random document name from DocumentNames
func RandomDocument() string {
	return DocumentNames[gofakeit.Number(0, len(DocumentNames)-1)]
}

var DocumentNames = []string{
	"Gearbox Housing", "Bracket Assembly", "Chassis Frame", "Drone Arm",
	"Mounting Plate", "Rocker Arm", "Pump Casing", "Valve Block",
	"Robot Gripper", "Spur Gear Train", "Bearing Mount", "Camera Gimbal",
	"Suspension Upright", "Heat Sink", "Enclosure Lid", "Steering Knuckle",
	"Battery Tray", "Propeller Hub", "Linear Rail Cart", "Pulley Wheel",
}

// randomTab returns a random tab name from TabNames
func RandomTab() string {
	return TabNames[gofakeit.Number(0, len(TabNames)-1)]
}

var TabNames = []string{
	"Part Studio 1", "Part Studio 2", "Part Studio 3",
	"Assembly 1", "Assembly 2",
	"Drawing 1", "Drawing 2",
	"Variable Studio 1",
}

// randomFeature returns a random sketch or feature label
func RandomFeature() string {
	kind := FeatureKinds[gofakeit.Number(0, len(FeatureKinds)-1)]
	return fmt.Sprintf("%s %d", kind, gofakeit.Number(1, 12))
}

var FeatureKinds = []string{
	"Sketch", "Extrude", "Revolve", "Fillet", "Chamfer", "Shell",
	"Sweep", "Loft", "Plane", "Mirror", "Pattern", "Hole",
}

// randomActivity returns a random routine action description. The
// phrasing mimics Onshape audit-trail entries; none of it matches the
// undo, redo or cancel keywords, so burst injection stays the only
// source of alerts.
func RandomActivity() string {
	if gofakeit.Number(0, 2) == 0 {
		tpl := FeatureActivities[gofakeit.Number(0, len(FeatureActivities)-1)]
		return fmt.Sprintf(tpl, RandomFeature())
	}
	return PlainActivities[gofakeit.Number(0, len(PlainActivities)-1)]
}

var PlainActivities = []string{
	"Open document",
	"Close document",
	"Start edit of part studio feature",
	"Commit add or edit of part studio feature",
	"Add or modify a sketch",
	"Create version",
	"Update version",
}

var FeatureActivities = []string{
	"Insert feature : %s",
	"Edit : %s",
	"Add part studio feature : %s",
	"Export tab : %s",
	"Move tab : %s",
}
