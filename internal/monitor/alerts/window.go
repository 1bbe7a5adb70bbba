package alerts

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ParseWindow converts a detector window spec into a duration. Accepted
// forms: "1h", fractional hours like "0.5h", "60min", "45m", or a bare
// minute count like "30". Fractional values round to whole minutes, the
// granularity the window floor works at.
func ParseWindow(s string) (time.Duration, error) {
	raw := strings.TrimSpace(strings.ToLower(s))
	if raw == "" {
		return 0, fmt.Errorf("empty window")
	}

	var minutes float64
	var err error
	switch {
	case strings.HasSuffix(raw, "min"):
		minutes, err = strconv.ParseFloat(strings.TrimSuffix(raw, "min"), 64)
	case strings.HasSuffix(raw, "h"):
		var hours float64
		hours, err = strconv.ParseFloat(strings.TrimSuffix(raw, "h"), 64)
		minutes = hours * 60
	case strings.HasSuffix(raw, "m"):
		minutes, err = strconv.ParseFloat(strings.TrimSuffix(raw, "m"), 64)
	default:
		minutes, err = strconv.ParseFloat(raw, 64)
	}
	if err != nil {
		return 0, fmt.Errorf("invalid window %q: %w", s, err)
	}

	rounded := math.Round(minutes)
	if rounded < 1 {
		return 0, fmt.Errorf("window %q must be at least one minute", s)
	}
	return time.Duration(rounded) * time.Minute, nil
}

// FloorTime truncates a timestamp down to the start of its containing
// window bucket (calendar floor, so 10:37 floors to 10:00 for a 1h
// window).
func FloorTime(t time.Time, window time.Duration) time.Time {
	return t.Truncate(window)
}

// windowMinutes reports a window's length in whole minutes for alert
// description text.
func windowMinutes(window time.Duration) int {
	return int(window / time.Minute)
}
