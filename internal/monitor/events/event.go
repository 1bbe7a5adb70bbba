package events

import "time"

// Event is one normalized activity-log row. Action, ActionType, and Date
// are derived during normalization; Time is always parseable (rows that
// fail time parsing never make it into a Table).
type Event struct {
	Time        time.Time `json:"time"`
	User        string    `json:"user"`
	Document    string    `json:"document"`
	Tab         string    `json:"tab"`
	Description string    `json:"description"`
	Action      string    `json:"action"`
	ActionType  string    `json:"action_type"`
	Date        string    `json:"date"` // YYYY-MM-DD, daily grouping only
}

// Table is the normalized event table for one active log source.
type Table []Event

// Clone returns a copy safe to hand to callers.
func (t Table) Clone() Table {
	if t == nil {
		return nil
	}
	out := make(Table, len(t))
	copy(out, t)
	return out
}

// TimeBounds returns the min and max event times. ok is false for an
// empty table.
func (t Table) TimeBounds() (min, max time.Time, ok bool) {
	if len(t) == 0 {
		return time.Time{}, time.Time{}, false
	}
	min, max = t[0].Time, t[0].Time
	for _, ev := range t[1:] {
		if ev.Time.Before(min) {
			min = ev.Time
		}
		if ev.Time.After(max) {
			max = ev.Time
		}
	}
	return min, max, true
}
