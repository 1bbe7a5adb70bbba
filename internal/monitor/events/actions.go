package events

import "strings"

// Action type classes.
const (
	ActionTypeAdvanced = "Advanced"
	ActionTypeBasic    = "Basic"
)

// actionKeywords maps description keywords to action categories.
// Evaluation order is fixed; the first matching keyword wins.
var actionKeywords = []struct {
	Keyword  string
	Category string
}{
	{"undo", "Undo"},
	{"redo", "Redo"},
	{"insert", "Insert"},
	{"export", "Export"},
	{"edit", "Edit"},
	{"commit", "Commit"},
	{"add", "Add"},
	{"close", "Close"},
	{"move", "Move"},
	{"open", "Open"},
}

// advancedActions are the categories classed as Advanced; everything
// else is Basic. Create and Delete never come out of the keyword list
// but are honored for rows categorized upstream.
var advancedActions = map[string]bool{
	"Edit":   true,
	"Create": true,
	"Delete": true,
	"Add":    true,
}

// CategorizeAction classifies a free-text description into an action
// category by case-insensitive substring match, default "Other".
func CategorizeAction(description string) string {
	d := strings.ToLower(description)
	for _, kw := range actionKeywords {
		if strings.Contains(d, kw.Keyword) {
			return kw.Category
		}
	}
	return "Other"
}

// ActionTypeFor maps an action category to its coarse class.
func ActionTypeFor(action string) string {
	if advancedActions[action] {
		return ActionTypeAdvanced
	}
	return ActionTypeBasic
}
