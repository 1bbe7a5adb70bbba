package views

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/shapeflow/monitor/internal/monitor/events"
)

// Row shapes for the graph endpoints. Each shaper takes the (already
// filtered) event table and returns plot-ready rows.

type DateCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type DocumentCount struct {
	Document string `json:"document"`
	Count    int    `json:"count"`
}

type UserCount struct {
	User  string `json:"user"`
	Count int    `json:"count"`
}

type TabTime struct {
	Tab     string  `json:"tab"`
	Seconds float64 `json:"seconds"`
	Hours   float64 `json:"hours"`
}

type UserActionTypeCount struct {
	User       string `json:"user"`
	ActionType string `json:"action_type"`
	Count      int    `json:"count"`
}

type DayHourCount struct {
	Day      string `json:"day"`
	Hour     int    `json:"hour"`
	Interval string `json:"interval"`
	Count    int    `json:"count"`
}

type RepeatedAction struct {
	Action      string `json:"action"`
	User        string `json:"user"`
	Description string `json:"description"`
	Count       int    `json:"count"`
}

type UserHourCount struct {
	User  string `json:"user"`
	Hour  int    `json:"hour"`
	Count int    `json:"count"`
}

// ActivityOverTime counts events per calendar date, ordered by date.
func ActivityOverTime(table events.Table) []DateCount {
	counts := make(map[string]int)
	for _, ev := range table {
		counts[ev.Date]++
	}
	dates := sortedKeys(counts)
	out := make([]DateCount, 0, len(dates))
	for _, date := range dates {
		out = append(out, DateCount{Date: date, Count: counts[date]})
	}
	return out
}

// DocumentUsage counts events per document, most used first.
func DocumentUsage(table events.Table) []DocumentCount {
	counts := make(map[string]int)
	for _, ev := range table {
		counts[ev.Document]++
	}
	out := make([]DocumentCount, 0, len(counts))
	for document, count := range counts {
		out = append(out, DocumentCount{Document: document, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Document < out[j].Document
	})
	return out
}

// UserActivity counts events per user, most active first.
func UserActivity(table events.Table) []UserCount {
	counts := make(map[string]int)
	for _, ev := range table {
		counts[ev.User]++
	}
	out := make([]UserCount, 0, len(counts))
	for user, count := range counts {
		out = append(out, UserCount{User: user, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].User < out[j].User
	})
	return out
}

// ProjectTimeDistribution estimates time spent per tab. Events are
// ordered by tab and time, the gap to the previous event on the same
// tab counts as work on that tab when it is positive and at most half
// an hour, and the kept gaps are summed. Hours are rounded to two
// decimals.
func ProjectTimeDistribution(table events.Table) []TabTime {
	if len(table) == 0 {
		return nil
	}

	sorted := table.Clone()
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Tab != sorted[j].Tab {
			return sorted[i].Tab < sorted[j].Tab
		}
		return sorted[i].Time.Before(sorted[j].Time)
	})

	const maxGapSeconds = 1800
	seconds := make(map[string]float64)
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Tab != sorted[i-1].Tab {
			continue
		}
		gap := sorted[i].Time.Sub(sorted[i-1].Time).Seconds()
		if gap <= 0 || gap > maxGapSeconds {
			continue
		}
		seconds[sorted[i].Tab] += gap
	}
	if len(seconds) == 0 {
		return nil
	}

	tabs := make([]string, 0, len(seconds))
	for tab := range seconds {
		tabs = append(tabs, tab)
	}
	sort.Strings(tabs)

	out := make([]TabTime, 0, len(tabs))
	for _, tab := range tabs {
		total := seconds[tab]
		out = append(out, TabTime{
			Tab:     tab,
			Seconds: total,
			Hours:   math.Round(total/3600*100) / 100,
		})
	}
	return out
}

// AdvancedBasicActions counts events per user and action type.
func AdvancedBasicActions(table events.Table) []UserActionTypeCount {
	type key struct {
		user       string
		actionType string
	}
	counts := make(map[key]int)
	for _, ev := range table {
		counts[key{ev.User, ev.ActionType}]++
	}
	keys := make([]key, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].user != keys[j].user {
			return keys[i].user < keys[j].user
		}
		return keys[i].actionType < keys[j].actionType
	})
	out := make([]UserActionTypeCount, 0, len(keys))
	for _, k := range keys {
		out = append(out, UserActionTypeCount{User: k.user, ActionType: k.actionType, Count: counts[k]})
	}
	return out
}

// WorkPatterns counts events per weekday name and hour of day, with a
// display interval like "9:00 - 10:00" on each row.
func WorkPatterns(table events.Table) []DayHourCount {
	type key struct {
		day  string
		hour int
	}
	counts := make(map[key]int)
	for _, ev := range table {
		counts[key{ev.Time.Weekday().String(), ev.Time.Hour()}]++
	}
	keys := make([]key, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].day != keys[j].day {
			return keys[i].day < keys[j].day
		}
		return keys[i].hour < keys[j].hour
	})
	out := make([]DayHourCount, 0, len(keys))
	for _, k := range keys {
		out = append(out, DayHourCount{
			Day:      k.day,
			Hour:     k.hour,
			Interval: fmt.Sprintf("%d:00 - %d:00", k.hour, k.hour+1),
			Count:    counts[k],
		})
	}
	return out
}

// RepeatedActions counts identical (action, user, description) rows to
// surface the operations users perform over and over.
func RepeatedActions(table events.Table) []RepeatedAction {
	type key struct {
		action      string
		user        string
		description string
	}
	counts := make(map[key]int)
	for _, ev := range table {
		counts[key{ev.Action, ev.User, ev.Description}]++
	}
	keys := make([]key, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].action != keys[j].action {
			return keys[i].action < keys[j].action
		}
		if keys[i].user != keys[j].user {
			return keys[i].user < keys[j].user
		}
		return keys[i].description < keys[j].description
	})
	out := make([]RepeatedAction, 0, len(keys))
	for _, k := range keys {
		out = append(out, RepeatedAction{
			Action:      k.action,
			User:        k.user,
			Description: k.description,
			Count:       counts[k],
		})
	}
	return out
}

// WorkingHours counts events per user and hour of day, the raw material
// for the working-hours distribution graph.
func WorkingHours(table events.Table) []UserHourCount {
	type key struct {
		user string
		hour int
	}
	counts := make(map[key]int)
	for _, ev := range table {
		counts[key{ev.User, ev.Time.Hour()}]++
	}
	keys := make([]key, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].user != keys[j].user {
			return keys[i].user < keys[j].user
		}
		return keys[i].hour < keys[j].hour
	})
	out := make([]UserHourCount, 0, len(keys))
	for _, k := range keys {
		out = append(out, UserHourCount{User: k.user, Hour: k.hour, Count: counts[k]})
	}
	return out
}

// ActionSequence returns the events inside the inclusive time range,
// preserving table order. Zero bounds leave that side open.
func ActionSequence(table events.Table, start, end time.Time) events.Table {
	out := events.Table{}
	for _, ev := range table {
		if !start.IsZero() && ev.Time.Before(start) {
			continue
		}
		if !end.IsZero() && ev.Time.After(end) {
			continue
		}
		out = append(out, ev)
	}
	return out
}

// Filter narrows a table to the selected documents, users,
// descriptions, and inclusive time range. Empty selections and zero
// bounds are skipped.
type Filter struct {
	Documents    []string
	Users        []string
	Descriptions []string
	Start        time.Time
	End          time.Time
}

// FilterTable applies a Filter to the table and returns the surviving
// rows in order.
func FilterTable(table events.Table, f Filter) events.Table {
	documents := toSet(f.Documents)
	users := toSet(f.Users)
	descriptions := toSet(f.Descriptions)

	out := events.Table{}
	for _, ev := range table {
		if len(documents) > 0 {
			if _, ok := documents[ev.Document]; !ok {
				continue
			}
		}
		if len(users) > 0 {
			if _, ok := users[ev.User]; !ok {
				continue
			}
		}
		if len(descriptions) > 0 {
			if _, ok := descriptions[ev.Description]; !ok {
				continue
			}
		}
		if !f.Start.IsZero() && ev.Time.Before(f.Start) {
			continue
		}
		if !f.End.IsZero() && ev.Time.After(f.End) {
			continue
		}
		out = append(out, ev)
	}
	return out
}

func toSet(values []string) map[string]struct{} {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
