// Package session owns the per-process dashboard state: the active
// event table, the raw payload cache, and everything derived from the
// table (filter index, alerts, date bounds). All mutation goes through
// one mutex; handlers read consistent snapshots.
package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shapeflow/monitor/internal/monitor/alerts"
	"github.com/shapeflow/monitor/internal/monitor/config"
	"github.com/shapeflow/monitor/internal/monitor/events"
	"github.com/shapeflow/monitor/internal/monitor/logger"
	"github.com/shapeflow/monitor/internal/monitor/store"
	"github.com/shapeflow/monitor/internal/monitor/views"
)

// ErrUnknownGraph is returned for a graph type outside the supported
// set.
var ErrUnknownGraph = errors.New("session: unknown graph type")

// ErrInvalidUpload marks upload rejections the caller can fix (bad
// name, no rows) as opposed to store failures.
var ErrInvalidUpload = errors.New("invalid upload")

// boundLayout is the display format for the table's min/max dates.
const boundLayout = "2006-01-02T15:04"

// Session is the per-process context object. One instance serves all
// requests; mu serializes every operation that touches the active
// table or its derived state.
type Session struct {
	store    store.Store
	detector *alerts.Detector
	log      *zap.SugaredLogger

	defaultCollection  string
	uploadedCollection string
	defaultMinDate     string

	mu             sync.Mutex
	cache          map[string]map[string]store.Entry
	table          events.Table
	filters        views.FilterIndex
	alerts         alerts.Table
	selectedLog    string
	missingDefault bool
	minDate        string
	maxDate        string
}

// Snapshot is a consistent copy of the session's derived state.
type Snapshot struct {
	Table          events.Table      `json:"table"`
	Filters        views.FilterIndex `json:"filters"`
	Alerts         alerts.Table      `json:"alerts"`
	SelectedLog    string            `json:"selected_log"`
	MissingDefault bool              `json:"missing_default"`
	MinDate        string            `json:"min_date"`
	MaxDate        string            `json:"max_date"`
}

// New builds the session and performs the initial load of the default
// log source. A store failure here is fatal; a merely absent default
// collection is not, it just flags the session as running without a
// default log.
func New(ctx context.Context, st store.Store, cfg *config.Config) (*Session, error) {
	if cfg == nil {
		return nil, fmt.Errorf("session: config is required")
	}

	s := &Session{
		store: st,
		detector: alerts.NewDetector(alerts.Settings{
			UndoRedoWindow:         cfg.Alerts.UndoRedo.Window,
			UndoRedoThreshold:      cfg.Alerts.UndoRedo.Threshold,
			ContextSwitchWindow:    cfg.Alerts.ContextSwitch.Window,
			ContextSwitchThreshold: cfg.Alerts.ContextSwitch.Threshold,
			CancellationWindow:     cfg.Alerts.Cancellation.Window,
			CancellationThreshold:  cfg.Alerts.Cancellation.Threshold,
		}.Resolve()),
		log:                logger.Named("session"),
		defaultCollection:  cfg.Store.DefaultCollection,
		uploadedCollection: cfg.Store.UploadedCollection,
		defaultMinDate:     cfg.Dates.DefaultMin,
		cache:              make(map[string]map[string]store.Entry),
		selectedLog:        events.DefaultLogLabel,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadSource(ctx, events.DefaultSourceName); err != nil {
		return nil, fmt.Errorf("initial load: %w", err)
	}
	return s, nil
}

// SwitchLog makes the named log source the active one and reruns the
// full processing pass. The default labels map to the default
// collection, everything else to the uploaded collection. On failure
// the previous state stays in place.
func (s *Session) SwitchLog(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadSource(ctx, name); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.log.Errorw("Switch failed, keeping current state", "file", name, "error", err)
		}
		return err
	}
	return nil
}

// UploadLog stores a new log under the uploaded collection, or under
// the default collection when the reserved default name is given (the
// old default is cleared first so only one remains). The upload becomes
// the active source when it replaces the default or when nothing is
// loaded yet.
func (s *Session) UploadLog(ctx context.Context, fileName string, rows []store.Record) error {
	if strings.TrimSpace(fileName) == "" {
		return fmt.Errorf("%w: file name is required", ErrInvalidUpload)
	}
	if rows == nil {
		return fmt.Errorf("%w: data rows are required", ErrInvalidUpload)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	collection := s.uploadedCollection
	display := fileName
	if isDefaultName(fileName) {
		collection = s.defaultCollection
		display = events.DefaultSourceName
		if err := s.store.Clear(ctx, collection); err != nil {
			s.log.Errorw("Could not clear default collection", "collection", collection, "error", err)
			return err
		}
	}

	entry := store.Entry{FileName: display, Data: rows}
	key := uuid.NewString()
	if err := s.store.Write(ctx, collection, key, entry); err != nil {
		s.log.Errorw("Upload write failed", "file", display, "collection", collection, "error", err)
		return err
	}
	s.log.Infow("Uploaded log stored",
		"file", display, "collection", collection, "rows", len(rows))

	// Reprocess only when the upload replaced the default source or
	// nothing has been loaded yet.
	if collection == s.defaultCollection || len(s.table) == 0 {
		if err := s.loadSource(ctx, display); err != nil {
			s.log.Errorw("Error updating with new data", "file", display, "error", err)
		}
	}
	return nil
}

// Snapshot returns copies of the derived state for handlers.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Table:          s.table.Clone(),
		Filters:        s.filters.Clone(),
		Alerts:         s.alerts.Clone(),
		SelectedLog:    s.selectedLog,
		MissingDefault: s.missingDefault,
		MinDate:        s.minDate,
		MaxDate:        s.maxDate,
	}
}

// AcknowledgeAlerts marks every alert in the current table read.
func (s *Session) AcknowledgeAlerts() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts.AcknowledgeAll()
	s.log.Debugw("Alerts acknowledged", "count", len(s.alerts))
}

// UnreadAlerts reports the number of unread alerts.
func (s *Session) UnreadAlerts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alerts.UnreadCount()
}

// GraphData shapes the active table for one graph type, applying the
// filter first.
func (s *Session) GraphData(graphType string, f views.Filter) (interface{}, error) {
	s.mu.Lock()
	table := s.table.Clone()
	s.mu.Unlock()

	filtered := views.FilterTable(table, f)
	switch graphType {
	case "activity_over_time":
		return views.ActivityOverTime(filtered), nil
	case "document_usage":
		return views.DocumentUsage(filtered), nil
	case "user_activity":
		return views.UserActivity(filtered), nil
	case "project_time_distribution":
		return views.ProjectTimeDistribution(filtered), nil
	case "advanced_basic_actions":
		return views.AdvancedBasicActions(filtered), nil
	case "work_patterns":
		return views.WorkPatterns(filtered), nil
	case "repeated_actions":
		return views.RepeatedActions(filtered), nil
	case "working_hours":
		return views.WorkingHours(filtered), nil
	case "action_sequence":
		return views.ActionSequence(filtered, f.Start, f.End), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownGraph, graphType)
}

// loadSource resolves a display name to its collection, fetches the
// payload (cache first for uploaded names), and rebuilds the derived
// state. Callers hold mu.
func (s *Session) loadSource(ctx context.Context, name string) error {
	display := name
	collection := s.uploadedCollection
	if isDefaultName(name) {
		display = events.DefaultSourceName
		collection = s.defaultCollection
	}

	var payload map[string]store.Entry
	if display != events.DefaultSourceName {
		if cached, ok := s.cache[display]; ok {
			payload = cached
			s.log.Infow("Loaded log from cache", "file", display)
		}
	}
	if payload == nil {
		data, err := s.store.Read(ctx, collection)
		switch {
		case err == nil:
			payload = data
			if display != events.DefaultSourceName {
				s.cache[display] = data
				s.log.Infow("Loaded log from store and cached it", "file", display)
			} else {
				s.missingDefault = false
			}
		case errors.Is(err, store.ErrNotFound):
			if collection == s.uploadedCollection {
				s.log.Errorw("No data found for log", "file", display, "collection", collection)
				return err
			}
			s.log.Warnw("No default source log data found", "collection", collection)
			s.missingDefault = true
			payload = map[string]store.Entry{}
		default:
			return err
		}
	}

	s.rebuild(ctx, payload, display)
	return nil
}

// rebuild runs the full processing pass over a payload: select and
// normalize the entry, refresh uploaded names, rebuild the filter
// index, rerun the detectors, recompute date bounds. Callers hold mu.
func (s *Session) rebuild(ctx context.Context, payload map[string]store.Entry, requested string) {
	uploadedNames := s.uploadedLogNames(ctx)

	var table events.Table
	if entry, selected, ok := events.Select(payload, requested); ok {
		var dropped int
		table, dropped = events.Normalize(entry)
		s.selectedLog = selected
		if dropped > 0 {
			s.log.Warnw("Dropped malformed rows", "file", selected, "count", dropped)
		}
	}

	s.table = table
	s.filters = views.BuildFilterIndex(table, uploadedNames, s.missingDefault)
	s.alerts = s.detector.Detect(table)
	s.setDateBounds()
	s.log.Infow("Processed log source",
		"file", s.selectedLog, "rows", len(table), "alerts", len(s.alerts))
}

// uploadedLogNames lists the file names present in the uploaded
// collection, sorted. An absent collection simply yields no names.
func (s *Session) uploadedLogNames(ctx context.Context) []string {
	data, err := s.store.Read(ctx, s.uploadedCollection)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.log.Warnw("Could not list uploaded logs", "error", err)
		}
		return nil
	}
	names := make([]string, 0, len(data))
	for _, entry := range data {
		if entry.FileName == "" {
			continue
		}
		names = append(names, entry.FileName)
	}
	sort.Strings(names)
	return names
}

// setDateBounds derives the picker bounds from the table, falling back
// to the configured minimum and today's date when the table is empty.
func (s *Session) setDateBounds() {
	if min, max, ok := s.table.TimeBounds(); ok {
		s.minDate = min.Format(boundLayout)
		s.maxDate = max.Format(boundLayout)
		return
	}

	min, err := time.Parse("02-01-2006", s.defaultMinDate)
	if err != nil {
		min = time.Date(2021, time.April, 21, 0, 0, 0, 0, time.UTC)
	}
	now := time.Now()
	s.minDate = min.Format(boundLayout)
	s.maxDate = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).Format(boundLayout)
}

func isDefaultName(name string) bool {
	return name == "" || name == events.DefaultSourceName || name == events.DefaultLogLabel
}
