package seedr

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"gopkg.in/yaml.v3"
)

// rowTimeLayout is lexicographically sortable, so rows can be ordered
// by their formatted Time values directly.
const rowTimeLayout = "2006-01-02 15:04:05"

// ------------------- Config -------------------

// GenerateConfig describes one synthetic activity-log file parsed from YAML
type GenerateConfig struct {
	Output   string  `yaml:"output"`
	FileName string  `yaml:"fileName"`
	Seed     int64   `yaml:"seed"`
	Log      LogSpec `yaml:"log"`
}

// LogSpec sizes one synthetic log: baseline traffic plus bursts dense
// enough to cross the monitor's default alert thresholds.
type LogSpec struct {
	Start     string `yaml:"start"`
	Days      int    `yaml:"days"`
	Users     int    `yaml:"users"`
	Documents int    `yaml:"documents"`
	Events    int    `yaml:"events"`

	UndoRedoBursts      int `yaml:"undoRedoBursts"`
	ContextSwitchBursts int `yaml:"contextSwitchBursts"`
	CancellationBursts  int `yaml:"cancellationBursts"`
}

func readGenerateConfig(path string) (GenerateConfig, error) {
	log.Printf("[DEBUG] Loading config from %s\n", path)
	var cfg GenerateConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyLogDefaults(spec *LogSpec) {
	if spec.Start == "" {
		spec.Start = "2024-05-01"
	}
	if spec.Days <= 0 {
		spec.Days = 14
	}
	if spec.Users <= 0 {
		spec.Users = 6
	}
	if spec.Documents <= 0 {
		spec.Documents = 8
	}
	if spec.Events <= 0 {
		spec.Events = 400
	}
}

// ------------------- Entry Point -------------------

func Generate(configPath *string) {
	cfg, err := readGenerateConfig(*configPath)
	if err != nil {
		log.Fatalf("[FATAL] Error loading config: %v", err)
	}

	// deterministic data if seed provided
	gofakeit.Seed(cfg.Seed)

	spec := cfg.Log
	applyLogDefaults(&spec)
	rows := buildRows(spec)

	fileName := cfg.FileName
	if fileName == "" {
		fileName = filepath.Base(cfg.Output)
	}

	payload := struct {
		FileName string              `json:"fileName"`
		Data     []map[string]string `json:"data"`
	}{FileName: fileName, Data: rows}

	f, err := os.Create(cfg.Output)
	if err != nil {
		log.Fatalf("[FATAL] cannot create output file: %v", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(payload); err != nil {
		log.Fatalf("[FATAL] cannot write output file: %v", err)
	}

	log.Printf("[INFO] Generation complete: events=%d undoRedoBursts=%d contextSwitchBursts=%d cancellationBursts=%d",
		len(rows), spec.UndoRedoBursts, spec.ContextSwitchBursts, spec.CancellationBursts)

	fmt.Printf("✅ JSON log generated: %s\n", cfg.Output)
}

// ------------------- Row generation -------------------

// buildRows produces the full event list for one log: baseline rows
// first, then injected bursts, all sorted by timestamp.
func buildRows(spec LogSpec) []map[string]string {
	start, err := time.Parse("2006-01-02", spec.Start)
	if err != nil {
		log.Fatalf("[FATAL] Bad start date %q: %v", spec.Start, err)
	}

	users := make([]string, spec.Users)
	for i := range users {
		users[i] = fmt.Sprintf("%s.%s",
			strings.ToLower(gofakeit.FirstName()), strings.ToLower(gofakeit.LastName()))
	}

	n := spec.Documents
	if n > len(DocumentNames) {
		n = len(DocumentNames)
	}
	docs := DocumentNames[:n]

	rows := make([]map[string]string, 0, spec.Events)
	spanSeconds := spec.Days * 24 * 3600
	for i := 0; i < spec.Events; i++ {
		ts := start.Add(time.Duration(gofakeit.Number(0, spanSeconds-1)) * time.Second)
		user := users[gofakeit.Number(0, len(users)-1)]
		doc := docs[gofakeit.Number(0, len(docs)-1)]
		rows = append(rows, row(ts, user, doc, RandomTab(), RandomActivity()))
	}

	rows = appendUndoRedoBursts(rows, spec, start, users, docs)
	rows = appendContextSwitchBursts(rows, spec, start, users, docs)
	rows = appendCancellationBursts(rows, spec, start, users, docs)

	sort.Slice(rows, func(i, j int) bool { return rows[i]["Time"] < rows[j]["Time"] })
	return rows
}

func row(ts time.Time, user, document, tab, description string) map[string]string {
	return map[string]string{
		"Time":        ts.Format(rowTimeLayout),
		"User":        user,
		"Document":    document,
		"Tab":         tab,
		"Description": description,
	}
}

// burstBase picks a working-hours start aligned to the hour, which
// keeps every burst inside a single detection window.
func burstBase(spec LogSpec, start time.Time) time.Time {
	day := gofakeit.Number(0, spec.Days-1)
	hour := gofakeit.Number(8, 16)
	return start.AddDate(0, 0, day).Add(time.Duration(hour) * time.Hour)
}

// appendUndoRedoBursts plants 18 undo/redo actions in under an hour,
// past the default threshold of 15 per hour.
func appendUndoRedoBursts(rows []map[string]string, spec LogSpec, start time.Time, users, docs []string) []map[string]string {
	for b := 0; b < spec.UndoRedoBursts; b++ {
		user := users[gofakeit.Number(0, len(users)-1)]
		doc := docs[gofakeit.Number(0, len(docs)-1)]
		tab := RandomTab()
		feature := RandomFeature()
		base := burstBase(spec, start)
		for i := 0; i < 18; i++ {
			desc := fmt.Sprintf("Undo %s", feature)
			if i%2 == 1 {
				desc = fmt.Sprintf("Redo %s", feature)
			}
			rows = append(rows, row(base.Add(time.Duration(i*3)*time.Minute), user, doc, tab, desc))
		}
	}
	return rows
}

// appendContextSwitchBursts plants 7 rapid tab flips a minute apart,
// past the default threshold of 5 switches per half hour.
func appendContextSwitchBursts(rows []map[string]string, spec LogSpec, start time.Time, users, docs []string) []map[string]string {
	tabs := [2]string{"Part Studio 1", "Assembly 1"}
	for b := 0; b < spec.ContextSwitchBursts; b++ {
		user := users[gofakeit.Number(0, len(users)-1)]
		doc := docs[gofakeit.Number(0, len(docs)-1)]
		base := burstBase(spec, start)
		for i := 0; i < 7; i++ {
			rows = append(rows, row(base.Add(time.Duration(i)*time.Minute), user, doc, tabs[i%2], RandomActivity()))
		}
	}
	return rows
}

// appendCancellationBursts plants 4 cancels in a quarter hour, past
// the default threshold of 3 per half hour.
func appendCancellationBursts(rows []map[string]string, spec LogSpec, start time.Time, users, docs []string) []map[string]string {
	for b := 0; b < spec.CancellationBursts; b++ {
		user := users[gofakeit.Number(0, len(users)-1)]
		doc := docs[gofakeit.Number(0, len(docs)-1)]
		tab := RandomTab()
		base := burstBase(spec, start)
		for i := 0; i < 4; i++ {
			rows = append(rows, row(base.Add(time.Duration(i*5)*time.Minute), user, doc, tab, "Cancel Operation"))
		}
	}
	return rows
}
