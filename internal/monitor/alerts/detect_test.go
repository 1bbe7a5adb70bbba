package alerts

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shapeflow/monitor/internal/monitor/events"
)

func mkEvent(t *testing.T, ts, user, document, tab, description string) events.Event {
	t.Helper()
	parsed, err := time.Parse("2006-01-02 15:04:05", ts)
	require.NoError(t, err)
	return events.Event{
		Time:        parsed,
		User:        user,
		Document:    document,
		Tab:         tab,
		Description: description,
	}
}

// undoBurst produces n undo/redo events for one user in one document,
// one minute apart starting at 10:00.
func undoBurst(t *testing.T, user, document string, n int) events.Table {
	t.Helper()
	var table events.Table
	for i := 0; i < n; i++ {
		ts := fmt.Sprintf("2024-05-01 10:%02d:00", i)
		desc := "Undo Sketch 1"
		if i%2 == 1 {
			desc = "Redo Sketch 1"
		}
		table = append(table, mkEvent(t, ts, user, document, "Tab 1", desc))
	}
	return table
}

func TestDetect_UndoRedoBurst(t *testing.T) {
	det := NewDetector(DefaultConfig())

	out := det.Detect(undoBurst(t, "alice", "Bracket", 16))

	require.Len(t, out, 1)
	alert := out[0]
	assert.Equal(t, "10:00:00 01-05-2024", alert.Time)
	assert.Equal(t, "alice", alert.User)
	assert.Equal(t, "Bracket", alert.Document)
	assert.Equal(t, "Excessive undo/redo activity: 16 actions within 60 minutes, exceeding threshold of 15", alert.Description)
	assert.Equal(t, IndicationUndoRedo, alert.Indication)
	assert.Equal(t, StatusUnread, alert.Status)
}

func TestDetect_UndoRedoAtThresholdIsQuiet(t *testing.T) {
	det := NewDetector(DefaultConfig())

	// Exactly the threshold does not trip the detector, only exceeding it.
	out := det.Detect(undoBurst(t, "alice", "Bracket", 15))

	assert.Empty(t, out)
}

func TestDetect_UndoRedoGroupsByUserAndDocument(t *testing.T) {
	det := NewDetector(DefaultConfig())

	// 16 undos for one user split across two documents never exceed the
	// threshold in either group.
	table := append(undoBurst(t, "alice", "Bracket", 8), undoBurst(t, "alice", "Gearbox", 8)...)
	assert.Empty(t, det.Detect(table))

	// Two users each over the threshold emit alphabetically.
	table = append(undoBurst(t, "bob", "Bracket", 16), undoBurst(t, "alice", "Bracket", 16)...)
	out := det.Detect(table)
	require.Len(t, out, 2)
	assert.Equal(t, "alice", out[0].User)
	assert.Equal(t, "bob", out[1].User)
}

func TestDetect_UndoRedoSplitAcrossWindows(t *testing.T) {
	det := NewDetector(DefaultConfig())

	// 16 undos straddling an hour boundary, neither bucket exceeds 15.
	var table events.Table
	for i := 0; i < 8; i++ {
		ts := fmt.Sprintf("2024-05-01 10:%02d:00", 52+i)
		table = append(table, mkEvent(t, ts, "alice", "Bracket", "Tab 1", "Undo Sketch 1"))
	}
	for i := 0; i < 8; i++ {
		ts := fmt.Sprintf("2024-05-01 11:%02d:00", i)
		table = append(table, mkEvent(t, ts, "alice", "Bracket", "Tab 1", "Undo Sketch 1"))
	}

	assert.Empty(t, det.Detect(table))
}

func TestDetect_UndoRedoMatchesCaseInsensitive(t *testing.T) {
	det := NewDetector(DefaultConfig())

	var table events.Table
	for i := 0; i < 16; i++ {
		ts := fmt.Sprintf("2024-05-01 10:%02d:00", i)
		table = append(table, mkEvent(t, ts, "alice", "Bracket", "Tab 1", "UNDO feature"))
	}

	require.Len(t, det.Detect(table), 1)
}

func TestDetect_CancellationAtThresholdFires(t *testing.T) {
	det := NewDetector(DefaultConfig())

	table := events.Table{
		mkEvent(t, "2024-05-01 10:00:00", "alice", "Bracket", "Tab 1", "Cancel Operation"),
		mkEvent(t, "2024-05-01 10:05:00", "alice", "Bracket", "Tab 1", "Cancel Operation"),
		mkEvent(t, "2024-05-01 10:10:00", "alice", "Bracket", "Tab 1", "Cancel Operation"),
	}

	out := det.Detect(table)
	require.Len(t, out, 1)
	alert := out[0]
	assert.Equal(t, "10:00:00 01-05-2024", alert.Time)
	assert.Equal(t, "Repeated cancellations: 3 cancel actions within 30 minutes, reaching threshold of 3", alert.Description)
	assert.Equal(t, IndicationCancellation, alert.Indication)
}

func TestDetect_CancellationBelowThresholdIsQuiet(t *testing.T) {
	det := NewDetector(DefaultConfig())

	table := events.Table{
		mkEvent(t, "2024-05-01 10:00:00", "alice", "Bracket", "Tab 1", "Cancel Operation"),
		mkEvent(t, "2024-05-01 10:05:00", "alice", "Bracket", "Tab 1", "Cancel Operation"),
	}

	assert.Empty(t, det.Detect(table))
}

func TestDetect_ContextSwitchBurst(t *testing.T) {
	det := NewDetector(DefaultConfig())

	table := events.Table{
		mkEvent(t, "2024-05-01 10:00:00", "alice", "Bracket", "Part Studio 1", "Open document"),
		mkEvent(t, "2024-05-01 10:01:00", "alice", "Bracket", "Assembly 1", "Open tab"),
		mkEvent(t, "2024-05-01 10:02:00", "alice", "Gearbox", "Assembly 1", "Open document"),
		mkEvent(t, "2024-05-01 10:03:00", "alice", "Gearbox", "Part Studio 2", "Open tab"),
		mkEvent(t, "2024-05-01 10:04:00", "alice", "Housing", "Part Studio 2", "Open document"),
		mkEvent(t, "2024-05-01 10:05:00", "alice", "Bracket", "Part Studio 1", "Open document"),
	}

	out := det.Detect(table)
	require.Len(t, out, 1)
	alert := out[0]
	assert.Equal(t, "10:01:00 01-05-2024", alert.Time)
	assert.Equal(t, "alice", alert.User)
	assert.Equal(t, DocumentNA, alert.Document)
	assert.Equal(t, IndicationContextSwitch, alert.Indication)
	assert.Contains(t, alert.Description, "5 document/tab switches")
}

func TestDetect_ContextSwitchBelowThreshold(t *testing.T) {
	det := NewDetector(DefaultConfig())

	table := events.Table{
		mkEvent(t, "2024-05-01 10:00:00", "alice", "Bracket", "Part Studio 1", "Open document"),
		mkEvent(t, "2024-05-01 10:01:00", "alice", "Bracket", "Assembly 1", "Open tab"),
		mkEvent(t, "2024-05-01 10:02:00", "alice", "Gearbox", "Assembly 1", "Open document"),
		mkEvent(t, "2024-05-01 10:03:00", "alice", "Gearbox", "Part Studio 2", "Open tab"),
		mkEvent(t, "2024-05-01 10:04:00", "alice", "Housing", "Part Studio 2", "Open document"),
	}

	assert.Empty(t, det.Detect(table))
}

func TestDetect_ContextSwitchRepeatedPairDoesNotCount(t *testing.T) {
	det := NewDetector(DefaultConfig())

	// Staying on the same document and tab is not a switch no matter how
	// many events arrive.
	var table events.Table
	for i := 0; i < 10; i++ {
		ts := fmt.Sprintf("2024-05-01 10:%02d:00", i)
		table = append(table, mkEvent(t, ts, "alice", "Bracket", "Part Studio 1", "Edit feature"))
	}

	assert.Empty(t, det.Detect(table))
}

func TestDetect_ContextSwitchWindowReset(t *testing.T) {
	det := NewDetector(DefaultConfig())

	// Three quick switches, then a long pause, then three more. The pause
	// exceeds the 30 minute window so the count restarts and the
	// threshold of five is never reached inside one window.
	table := events.Table{
		mkEvent(t, "2024-05-01 10:00:00", "alice", "Bracket", "Part Studio 1", "Open document"),
		mkEvent(t, "2024-05-01 10:01:00", "alice", "Bracket", "Assembly 1", "Open tab"),
		mkEvent(t, "2024-05-01 10:02:00", "alice", "Gearbox", "Assembly 1", "Open document"),
		mkEvent(t, "2024-05-01 10:03:00", "alice", "Housing", "Assembly 1", "Open document"),
		mkEvent(t, "2024-05-01 11:00:00", "alice", "Bracket", "Part Studio 1", "Open document"),
		mkEvent(t, "2024-05-01 11:01:00", "alice", "Gearbox", "Part Studio 1", "Open document"),
		mkEvent(t, "2024-05-01 11:02:00", "alice", "Housing", "Part Studio 1", "Open document"),
	}

	assert.Empty(t, det.Detect(table))
}

func TestDetect_ContextSwitchSingleAlertPerUser(t *testing.T) {
	det := NewDetector(DefaultConfig())

	// Twelve rapid switches would cover the threshold twice over, but
	// each user contributes at most one alert per pass.
	var table events.Table
	docs := []string{"Bracket", "Gearbox", "Housing"}
	for i := 0; i < 13; i++ {
		ts := fmt.Sprintf("2024-05-01 10:%02d:00", i)
		table = append(table, mkEvent(t, ts, "alice", docs[i%3], "Part Studio 1", "Open document"))
	}

	out := det.Detect(table)
	require.Len(t, out, 1)
	assert.Equal(t, "alice", out[0].User)
}

func TestDetect_CombinedOrder(t *testing.T) {
	det := NewDetector(DefaultConfig())

	table := undoBurst(t, "alice", "Bracket", 16)
	docs := []string{"Bracket", "Gearbox", "Housing"}
	for i := 0; i < 7; i++ {
		ts := fmt.Sprintf("2024-05-01 12:%02d:00", i)
		table = append(table, mkEvent(t, ts, "bob", docs[i%3], "Part Studio 1", "Open document"))
	}
	for i := 0; i < 3; i++ {
		ts := fmt.Sprintf("2024-05-01 14:%02d:00", i)
		table = append(table, mkEvent(t, ts, "carol", "Housing", "Part Studio 1", "Cancel Operation"))
	}

	out := det.Detect(table)
	require.Len(t, out, 3)
	assert.Equal(t, IndicationUndoRedo, out[0].Indication)
	assert.Equal(t, IndicationContextSwitch, out[1].Indication)
	assert.Equal(t, IndicationCancellation, out[2].Indication)
}

func TestDetect_EmptyTable(t *testing.T) {
	det := NewDetector(DefaultConfig())

	assert.Empty(t, det.Detect(nil))
	assert.Empty(t, det.Detect(events.Table{}))
}

func TestDetect_Idempotent(t *testing.T) {
	det := NewDetector(DefaultConfig())
	table := undoBurst(t, "alice", "Bracket", 16)

	first := det.Detect(table)
	second := det.Detect(table)

	assert.Equal(t, first, second)
}

func TestSettingsResolve(t *testing.T) {
	t.Run("empty settings keep defaults", func(t *testing.T) {
		cfg := Settings{}.Resolve()
		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("valid settings override", func(t *testing.T) {
		cfg := Settings{
			UndoRedoWindow:         "0.5h",
			UndoRedoThreshold:      20,
			ContextSwitchWindow:    "10",
			ContextSwitchThreshold: 3,
			CancellationWindow:     "15min",
			CancellationThreshold:  2,
		}.Resolve()

		assert.Equal(t, 30*time.Minute, cfg.UndoRedoWindow)
		assert.Equal(t, 20, cfg.UndoRedoThreshold)
		assert.Equal(t, 10*time.Minute, cfg.ContextSwitchWindow)
		assert.Equal(t, 3, cfg.ContextSwitchThreshold)
		assert.Equal(t, 15*time.Minute, cfg.CancellationWindow)
		assert.Equal(t, 2, cfg.CancellationThreshold)
	})

	t.Run("invalid window falls back to default", func(t *testing.T) {
		cfg := Settings{UndoRedoWindow: "whenever"}.Resolve()
		assert.Equal(t, time.Hour, cfg.UndoRedoWindow)
	})

	t.Run("non-positive thresholds fall back to defaults", func(t *testing.T) {
		cfg := Settings{UndoRedoThreshold: -1, CancellationThreshold: 0}.Resolve()
		assert.Equal(t, 15, cfg.UndoRedoThreshold)
		assert.Equal(t, 3, cfg.CancellationThreshold)
	})
}

func TestAlertTable(t *testing.T) {
	table := Table{
		{User: "alice", Status: StatusUnread},
		{User: "bob", Status: StatusUnread},
		{User: "carol", Status: StatusRead},
	}

	assert.Equal(t, 2, table.UnreadCount())

	table.AcknowledgeAll()
	assert.Equal(t, 0, table.UnreadCount())
	for _, a := range table {
		assert.Equal(t, StatusRead, a.Status)
	}

	// Acknowledging twice changes nothing.
	table.AcknowledgeAll()
	assert.Equal(t, 0, table.UnreadCount())

	clone := table.Clone()
	clone[0].Status = StatusUnread
	assert.Equal(t, StatusRead, table[0].Status)
}
