package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type LoggingCfg struct {
	Level string `mapstructure:"level"`
}

type ServerCfg struct {
	Listen string `mapstructure:"listen"`
}

type SQLCfg struct {
	Driver   string `mapstructure:"driver"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	Path     string `mapstructure:"path"`
}

type RedisCfg struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type StoreCfg struct {
	Backend            string   `mapstructure:"backend"`
	DefaultCollection  string   `mapstructure:"default_collection"`
	UploadedCollection string   `mapstructure:"uploaded_collection"`
	SQL                SQLCfg   `mapstructure:"sql"`
	Redis              RedisCfg `mapstructure:"redis"`
}

// DetectorCfg tunes one alert detector. Window accepts "1h", "60min",
// fractional hours ("0.5h"), or a bare minute count ("30").
type DetectorCfg struct {
	Window    string `mapstructure:"window"`
	Threshold int    `mapstructure:"threshold"`
}

type AlertsCfg struct {
	UndoRedo      DetectorCfg `mapstructure:"undo_redo"`
	ContextSwitch DetectorCfg `mapstructure:"context_switch"`
	Cancellation  DetectorCfg `mapstructure:"cancellation"`
}

type DatesCfg struct {
	DefaultMin string `mapstructure:"default_min"`
}

type Config struct {
	Version string     `mapstructure:"version"`
	Server  ServerCfg  `mapstructure:"server"`
	Store   StoreCfg   `mapstructure:"store"`
	Alerts  AlertsCfg  `mapstructure:"alerts"`
	Dates   DatesCfg   `mapstructure:"dates"`
	Logging LoggingCfg `mapstructure:"logging"`
}

// Environment variables recognized for detector tuning. These override
// config-file values when set.
var detectorEnvKeys = map[string]string{
	"alerts.undo_redo.window":         "ALERT_TIMEWINDOW",
	"alerts.undo_redo.threshold":      "UNDO_REDO_THRESHOLD",
	"alerts.context_switch.window":    "CONTEXT_SWITCH_TIMEWINDOW",
	"alerts.context_switch.threshold": "CONTEXT_SWITCH_THRESHOLD",
	"alerts.cancellation.window":      "CANCELLATION_TIMEWINDOW",
	"alerts.cancellation.threshold":   "CANCELLATION_THRESHOLD",
}

var cfg *Config

// Load populates global config from a viper instance
func Load(v *viper.Viper) error {
	// set defaults
	v.SetDefault("version", "0.1")
	v.SetDefault("server.listen", ":8050")
	v.SetDefault("store.backend", "memory")
	v.SetDefault("store.default_collection", "/onShapeLogs")
	v.SetDefault("store.uploaded_collection", "/uploaded-jsons")
	v.SetDefault("store.sql.driver", "postgres")
	v.SetDefault("store.sql.sslmode", "disable")
	v.SetDefault("store.redis.addr", "localhost:6379")
	v.SetDefault("alerts.undo_redo.window", "1h")
	v.SetDefault("alerts.undo_redo.threshold", 15)
	v.SetDefault("alerts.context_switch.window", "30")
	v.SetDefault("alerts.context_switch.threshold", 5)
	v.SetDefault("alerts.cancellation.window", "30min")
	v.SetDefault("alerts.cancellation.threshold", 3)
	v.SetDefault("dates.default_min", "21-04-2021")
	v.SetDefault("logging.level", "info")

	for key, env := range detectorEnvKeys {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("bind env %s: %w", env, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	cfg = &c
	return nil
}

func Get() *Config {
	if cfg == nil {
		cfg = &Config{}
	}
	return cfg
}
