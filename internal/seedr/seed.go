package seedr

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gopkg.in/yaml.v3"

	"github.com/shapeflow/monitor/internal/monitor/store"
)

// ------------------- Config -------------------

// SeedConfig describes a store-seeding run parsed from YAML
type SeedConfig struct {
	Backend string `yaml:"backend"`
	Seed    int64  `yaml:"seed"`

	SQL struct {
		Driver   string `yaml:"driver"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Database string `yaml:"database"`
		SSLMode  string `yaml:"sslmode"`
		Path     string `yaml:"path"`
	} `yaml:"sql"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	DefaultCollection  string `yaml:"defaultCollection"`
	UploadedCollection string `yaml:"uploadedCollection"`

	Default LogSpec `yaml:"default"`
	Uploads []struct {
		FileName string  `yaml:"fileName"`
		Log      LogSpec `yaml:"log"`
	} `yaml:"uploads"`
}

func readSeedConfig(path string) (SeedConfig, error) {
	log.Printf("[DEBUG] Loading config from %s\n", path)
	var cfg SeedConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ------------------- Entry Point -------------------

// Seed writes a synthetic default log and any configured uploaded logs
// straight into a monitor store backend, replacing the default log.
func Seed(configPath *string) {
	cfg, err := readSeedConfig(*configPath)
	if err != nil {
		log.Fatalf("[FATAL] Error loading config: %v", err)
	}

	if cfg.DefaultCollection == "" {
		cfg.DefaultCollection = "/onShapeLogs"
	}
	if cfg.UploadedCollection == "" {
		cfg.UploadedCollection = "/uploaded-jsons"
	}

	// deterministic data if seed provided
	gofakeit.Seed(cfg.Seed)

	st, err := openStore(cfg)
	if err != nil {
		log.Fatalf("[FATAL] cannot open store: %v", err)
	}
	defer st.Close()

	ctx := context.Background()

	spec := cfg.Default
	applyLogDefaults(&spec)
	rows := buildRows(spec)
	if err := st.Clear(ctx, cfg.DefaultCollection); err != nil {
		log.Fatalf("[FATAL] cannot clear default collection: %v", err)
	}
	entry := store.Entry{FileName: "default.json", Data: toRecords(rows)}
	if err := st.Write(ctx, cfg.DefaultCollection, uuid.NewString(), entry); err != nil {
		log.Fatalf("[FATAL] cannot write default log: %v", err)
	}
	log.Printf("[INFO] Seeded default log: events=%d", len(rows))
	total := len(rows)

	for _, up := range cfg.Uploads {
		spec := up.Log
		applyLogDefaults(&spec)
		rows := buildRows(spec)
		entry := store.Entry{FileName: up.FileName, Data: toRecords(rows)}
		if err := st.Write(ctx, cfg.UploadedCollection, uuid.NewString(), entry); err != nil {
			log.Fatalf("[FATAL] cannot write uploaded log %s: %v", up.FileName, err)
		}
		log.Printf("[INFO] Seeded uploaded log %s: events=%d", up.FileName, len(rows))
		total += len(rows)
	}

	log.Printf("[INFO] Seeding complete: logs=%d events=%d backend=%s",
		1+len(cfg.Uploads), total, cfg.Backend)

	fmt.Printf("✅ Store seeded with %d logs\n", 1+len(cfg.Uploads))
}

// ------------------- Store wiring -------------------

func openStore(cfg SeedConfig) (store.Store, error) {
	switch cfg.Backend {
	case "sql":
		return store.NewSQLStore(store.SQLOptions{
			Driver:   cfg.SQL.Driver,
			Host:     cfg.SQL.Host,
			Port:     cfg.SQL.Port,
			User:     cfg.SQL.User,
			Password: cfg.SQL.Password,
			DBName:   cfg.SQL.Database,
			SSLMode:  cfg.SQL.SSLMode,
			Path:     cfg.SQL.Path,
		})
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(context.Background()).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		return store.NewRedisStore(client), nil
	case "", "memory":
		return nil, fmt.Errorf("backend %q does not outlive the process; use sql or redis", cfg.Backend)
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

func toRecords(rows []map[string]string) []store.Record {
	out := make([]store.Record, len(rows))
	for i, r := range rows {
		rec := make(store.Record, len(r))
		for k, v := range r {
			rec[k] = v
		}
		out[i] = rec
	}
	return out
}
