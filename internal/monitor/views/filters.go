package views

import (
	"github.com/shapeflow/monitor/internal/monitor/events"
)

// SupportedGraphs is the fixed set of graph types the dashboard offers,
// in display order.
var SupportedGraphs = []string{
	"Action Sequence by User",
	"Work Patterns Over Time",
	"Project Time Distribution",
	"Repeated Actions By User",
	"Advanced vs. Basic Actions",
}

// FilterIndex holds the distinct values the dashboard filter dropdowns
// are populated from, rebuilt on every processing pass.
type FilterIndex struct {
	Documents    []string `json:"documents"`
	Users        []string `json:"users"`
	Descriptions []string `json:"descriptions"`
	UploadedLogs []string `json:"uploaded_logs"`
	Graphs       []string `json:"graphs"`
}

// BuildFilterIndex derives the filter dropdown contents from the active
// event table and the known uploaded log names. The synthetic default
// log label leads the log list except when the default collection is
// absent from the store.
func BuildFilterIndex(table events.Table, uploadedNames []string, missingDefault bool) FilterIndex {
	idx := FilterIndex{
		Documents:    distinct(table, func(ev events.Event) string { return ev.Document }),
		Users:        distinct(table, func(ev events.Event) string { return ev.User }),
		Descriptions: distinct(table, func(ev events.Event) string { return ev.Description }),
		Graphs:       append([]string(nil), SupportedGraphs...),
	}

	logs := make([]string, 0, len(uploadedNames)+1)
	if !missingDefault {
		logs = append(logs, events.DefaultLogLabel)
	}
	logs = append(logs, uploadedNames...)
	idx.UploadedLogs = logs

	return idx
}

// Clone returns an independent copy of the index.
func (f FilterIndex) Clone() FilterIndex {
	return FilterIndex{
		Documents:    append([]string(nil), f.Documents...),
		Users:        append([]string(nil), f.Users...),
		Descriptions: append([]string(nil), f.Descriptions...),
		UploadedLogs: append([]string(nil), f.UploadedLogs...),
		Graphs:       append([]string(nil), f.Graphs...),
	}
}

// distinct collects unique column values in first-appearance order.
func distinct(table events.Table, pick func(events.Event) string) []string {
	seen := make(map[string]struct{}, len(table))
	out := []string{}
	for _, ev := range table {
		v := pick(ev)
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
