package alerts

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/shapeflow/monitor/internal/monitor/events"
	"github.com/shapeflow/monitor/internal/monitor/logger"
)

// What each detector's hit suggests about the user's session.
const (
	IndicationUndoRedo      = "difficulty dealing with a challenge"
	IndicationContextSwitch = "multitasking or distraction"
	IndicationCancellation  = "indecisiveness or encountering problems while working"
)

// Settings is the string-typed detector tuning as it arrives from the
// config layer. Windows are in ParseWindow form; invalid or absent
// values fall back to the stock tuning during Resolve.
type Settings struct {
	UndoRedoWindow         string
	UndoRedoThreshold      int
	ContextSwitchWindow    string
	ContextSwitchThreshold int
	CancellationWindow     string
	CancellationThreshold  int
}

// Config is the resolved detector tuning.
type Config struct {
	UndoRedoWindow         time.Duration
	UndoRedoThreshold      int
	ContextSwitchWindow    time.Duration
	ContextSwitchThreshold int
	CancellationWindow     time.Duration
	CancellationThreshold  int
}

// DefaultConfig returns the stock tuning: undo/redo bursts over an hour,
// context switches and cancellations over half an hour.
func DefaultConfig() Config {
	return Config{
		UndoRedoWindow:         time.Hour,
		UndoRedoThreshold:      15,
		ContextSwitchWindow:    30 * time.Minute,
		ContextSwitchThreshold: 5,
		CancellationWindow:     30 * time.Minute,
		CancellationThreshold:  3,
	}
}

// Resolve parses the settings into a Config, substituting the default
// for any window that does not parse and any threshold that is not
// positive.
func (s Settings) Resolve() Config {
	cfg := DefaultConfig()
	log := logger.Named("alerts")

	cfg.UndoRedoWindow = resolveWindow(log, "undo_redo", s.UndoRedoWindow, cfg.UndoRedoWindow)
	cfg.ContextSwitchWindow = resolveWindow(log, "context_switch", s.ContextSwitchWindow, cfg.ContextSwitchWindow)
	cfg.CancellationWindow = resolveWindow(log, "cancellation", s.CancellationWindow, cfg.CancellationWindow)

	if s.UndoRedoThreshold > 0 {
		cfg.UndoRedoThreshold = s.UndoRedoThreshold
	}
	if s.ContextSwitchThreshold > 0 {
		cfg.ContextSwitchThreshold = s.ContextSwitchThreshold
	}
	if s.CancellationThreshold > 0 {
		cfg.CancellationThreshold = s.CancellationThreshold
	}
	return cfg
}

func resolveWindow(log *zap.SugaredLogger, name, raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	window, err := ParseWindow(raw)
	if err != nil {
		log.Warnw("Invalid detector window, using default",
			"detector", name, "window", raw, "default", fallback, "error", err)
		return fallback
	}
	return window
}

// Detector runs the behavioral detectors over an event table.
type Detector struct {
	cfg Config
	log *zap.SugaredLogger
}

// NewDetector creates a detector with the given tuning.
func NewDetector(cfg Config) *Detector {
	return &Detector{cfg: cfg, log: logger.Named("alerts")}
}

// Detect runs every detector over the table and returns their combined
// alerts, undo/redo bursts first, then context switches, then
// cancellations. All alerts start unread. Running Detect again on the
// same table yields the same result.
func (d *Detector) Detect(table events.Table) Table {
	detectors := []struct {
		name string
		run  func(events.Table) Table
	}{
		{"undo_redo_burst", d.undoRedoBursts},
		{"context_switch", d.contextSwitches},
		{"cancellation_burst", d.cancellationBursts},
	}

	out := Table{}
	for _, det := range detectors {
		found := det.run(table)
		if len(found) > 0 {
			d.log.Debugw("Detector found alerts", "detector", det.name, "count", len(found))
		}
		out = append(out, found...)
	}
	return out
}

func (d *Detector) undoRedoBursts(table events.Table) Table {
	return d.windowedBursts(table, burstSpec{
		keywords:  []string{"undo", "redo"},
		window:    d.cfg.UndoRedoWindow,
		threshold: d.cfg.UndoRedoThreshold,
		strict:    true,
		describe: func(count, threshold, minutes int) string {
			return fmt.Sprintf("Excessive undo/redo activity: %d actions within %d minutes, exceeding threshold of %d",
				count, minutes, threshold)
		},
		indication: IndicationUndoRedo,
	})
}

func (d *Detector) cancellationBursts(table events.Table) Table {
	return d.windowedBursts(table, burstSpec{
		keywords:  []string{"cancel"},
		window:    d.cfg.CancellationWindow,
		threshold: d.cfg.CancellationThreshold,
		strict:    false,
		describe: func(count, threshold, minutes int) string {
			return fmt.Sprintf("Repeated cancellations: %d cancel actions within %d minutes, reaching threshold of %d",
				count, minutes, threshold)
		},
		indication: IndicationCancellation,
	})
}

// burstSpec parameterizes the two floor-and-count detectors. strict
// requires the count to exceed the threshold; otherwise reaching it is
// enough.
type burstSpec struct {
	keywords   []string
	window     time.Duration
	threshold  int
	strict     bool
	describe   func(count, threshold, minutes int) string
	indication string
}

type burstKey struct {
	user     string
	document string
	window   time.Time
}

// windowedBursts floors each matching event's timestamp into its window
// bucket, counts events per (user, document, bucket), and emits one
// alert per group that trips the threshold. Alerts come out ordered by
// user, document, then bucket.
func (d *Detector) windowedBursts(table events.Table, spec burstSpec) Table {
	if spec.window <= 0 || len(table) == 0 {
		return nil
	}

	counts := make(map[burstKey]int)
	for _, ev := range table {
		desc := strings.ToLower(ev.Description)
		matched := false
		for _, kw := range spec.keywords {
			if strings.Contains(desc, kw) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}
		key := burstKey{
			user:     ev.User,
			document: ev.Document,
			window:   FloorTime(ev.Time, spec.window),
		}
		counts[key]++
	}

	keys := make([]burstKey, 0, len(counts))
	for key := range counts {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].user != keys[j].user {
			return keys[i].user < keys[j].user
		}
		if keys[i].document != keys[j].document {
			return keys[i].document < keys[j].document
		}
		return keys[i].window.Before(keys[j].window)
	})

	var out Table
	for _, key := range keys {
		count := counts[key]
		if spec.strict && count <= spec.threshold {
			continue
		}
		if !spec.strict && count < spec.threshold {
			continue
		}
		out = append(out, Alert{
			Time:        key.window.Format(TimeLayout),
			User:        key.user,
			Document:    key.document,
			Description: spec.describe(count, spec.threshold, windowMinutes(spec.window)),
			Indication:  spec.indication,
			Status:      StatusUnread,
		})
	}
	return out
}

// contextSwitches walks each user's events in time order and counts
// document/tab changes. When a user racks up the threshold number of
// switches before the window elapses, one alert is emitted for that
// user and the rest of their events are skipped. A run that times out
// before reaching the threshold resets silently.
func (d *Detector) contextSwitches(table events.Table) Table {
	if d.cfg.ContextSwitchWindow <= 0 || d.cfg.ContextSwitchThreshold <= 0 || len(table) == 0 {
		return nil
	}

	byUser := make(map[string]events.Table)
	for _, ev := range table {
		byUser[ev.User] = append(byUser[ev.User], ev)
	}
	users := make([]string, 0, len(byUser))
	for user := range byUser {
		users = append(users, user)
	}
	sort.Strings(users)

	var out Table
	for _, user := range users {
		evs := byUser[user]
		sort.SliceStable(evs, func(i, j int) bool {
			return evs[i].Time.Before(evs[j].Time)
		})

		var (
			count    int
			runStart time.Time
			prevDoc  string
			prevTab  string
			havePrev bool
		)
		for _, ev := range evs {
			if !havePrev {
				havePrev = true
				prevDoc, prevTab = ev.Document, ev.Tab
				continue
			}
			if ev.Document == prevDoc && ev.Tab == prevTab {
				continue
			}
			prevDoc, prevTab = ev.Document, ev.Tab

			if count > 0 && ev.Time.Sub(runStart) > d.cfg.ContextSwitchWindow {
				count = 0
			}
			if count == 0 {
				runStart = ev.Time
			}
			count++

			if count >= d.cfg.ContextSwitchThreshold {
				out = append(out, Alert{
					Time:     runStart.Format(TimeLayout),
					User:     user,
					Document: DocumentNA,
					Description: fmt.Sprintf("Rapid context switching: %d document/tab switches between %s and %s, reaching threshold of %d within %d minutes",
						count, runStart.Format(TimeLayout), ev.Time.Format(TimeLayout),
						d.cfg.ContextSwitchThreshold, windowMinutes(d.cfg.ContextSwitchWindow)),
					Indication: IndicationContextSwitch,
					Status:     StatusUnread,
				})
				break
			}
		}
	}
	return out
}
