package events

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/araddon/dateparse"

	"github.com/shapeflow/monitor/internal/monitor/store"
)

// ErrSkipRow indicates a raw record that should be dropped without
// failing the load (missing required field, unparseable time).
var ErrSkipRow = errors.New("skip row")

// DefaultLogLabel is the synthetic display name shown for the primary
// log source when a payload carries no matching file-name tag.
const DefaultLogLabel = "Default Log"

// DefaultSourceName is the reserved file name of the primary log
// source. Loads under this name always go to the store, never the
// cache.
const DefaultSourceName = "default.json"

// requiredFields every raw record must carry to survive normalization.
var requiredFields = []string{"Time", "User", "Document", "Tab", "Description"}

// Select picks the payload entry to materialize: the entry whose file
// name tag equals name, else (payload non-empty) the first entry in
// sorted key order treated as the implicit default log. The returned
// string is the display name the selection resolves to; ok is false
// when the payload holds nothing to select.
func Select(payload map[string]store.Entry, name string) (store.Entry, string, bool) {
	for _, key := range sortedKeys(payload) {
		if payload[key].FileName == name {
			return payload[key], name, true
		}
	}
	if keys := sortedKeys(payload); len(keys) > 0 {
		return payload[keys[0]], DefaultLogLabel, true
	}
	return store.Entry{}, "", false
}

func sortedKeys(payload map[string]store.Entry) []string {
	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Normalize flattens an entry's raw rows into the canonical Table,
// dropping rows that fail normalization. The returned count is how many
// rows were dropped.
func Normalize(entry store.Entry) (Table, int) {
	table := make(Table, 0, len(entry.Data))
	dropped := 0
	for _, rec := range entry.Data {
		ev, err := normalizeRecord(rec)
		if err != nil {
			dropped++
			continue
		}
		table = append(table, ev)
	}
	return table, dropped
}

// normalizeRecord converts one raw row into an Event, deriving Action,
// ActionType, and Date.
func normalizeRecord(rec store.Record) (Event, error) {
	fields := make(map[string]string, len(requiredFields))
	for _, name := range requiredFields {
		v, ok := stringField(rec, name)
		if !ok {
			return Event{}, fmt.Errorf("%w: missing %s", ErrSkipRow, name)
		}
		fields[name] = v
	}

	ts, err := dateparse.ParseAny(fields["Time"])
	if err != nil {
		return Event{}, fmt.Errorf("%w: bad time %q", ErrSkipRow, fields["Time"])
	}

	action := CategorizeAction(fields["Description"])
	return Event{
		Time:        ts,
		User:        fields["User"],
		Document:    fields["Document"],
		Tab:         fields["Tab"],
		Description: fields["Description"],
		Action:      action,
		ActionType:  ActionTypeFor(action),
		Date:        ts.Format("2006-01-02"),
	}, nil
}

// stringField extracts a record value as a string, tolerating non-string
// scalars the way heterogeneous JSON exports require. Absent or nil
// values report ok=false.
func stringField(rec store.Record, key string) (string, bool) {
	v, ok := rec[key]
	if !ok || v == nil {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return t, true
	default:
		return strings.TrimSpace(fmt.Sprint(t)), true
	}
}
