// Package config loads the service configuration from a YAML file
// with environment overrides. Every knob has a default so the binary
// runs with no file at all.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Addr string `yaml:"addr"`
	Port int    `yaml:"port"`
	// StatusAddr, when set, binds a lightweight probe-only listener
	// next to the main API server.
	StatusAddr string `yaml:"status_addr"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type AuthConfig struct {
	// APIKeys are bearer keys accepted on /v1 routes; empty disables
	// authentication.
	APIKeys     []string `yaml:"api_keys"`
	CORSOrigins []string `yaml:"cors_origins"`
	RatePerSec  float64  `yaml:"rate_per_sec"`
	RateBurst   int      `yaml:"rate_burst"`
}

type SweepConfig struct {
	// PresenceCron drives expiry of typing and send-action entries.
	PresenceCron string `yaml:"presence_cron"`
	// SnapshotCron drives periodic snapshot flushes to the store.
	SnapshotCron string `yaml:"snapshot_cron"`
}

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	DBPath  string        `yaml:"db_path"`
	Logging LoggingConfig `yaml:"logging"`
	Auth    AuthConfig    `yaml:"auth"`
	Sweep   SweepConfig   `yaml:"sweep"`
	// SelfID is the account the service tracks timelines for; used to
	// mark outgoing messages and suppress own send actions.
	SelfID int64 `yaml:"self_id"`
}

func defaults() *Config {
	cfg := &Config{}
	cfg.Server.Addr = "0.0.0.0"
	cfg.Server.Port = 8080
	cfg.DBPath = "./data/timelined"
	cfg.Logging.Level = "info"
	cfg.Logging.Format = "text"
	cfg.Auth.RatePerSec = 50
	cfg.Auth.RateBurst = 100
	cfg.Sweep.PresenceCron = "* * * * *"
	cfg.Sweep.SnapshotCron = "*/5 * * * *"
	return cfg
}

// Load reads path (optional when empty or missing) and applies
// TIMELINED_* environment overrides on top.
func Load(path string) (*Config, error) {
	cfg := defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	applyEnv(cfg)
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return nil, fmt.Errorf("invalid port %d", cfg.Server.Port)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("TIMELINED_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("TIMELINED_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = p
		}
	}
	if v := os.Getenv("TIMELINED_STATUS_ADDR"); v != "" {
		cfg.Server.StatusAddr = v
	}
	if v := os.Getenv("TIMELINED_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("TIMELINED_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("TIMELINED_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("TIMELINED_API_KEYS"); v != "" {
		cfg.Auth.APIKeys = splitList(v)
	}
	if v := os.Getenv("TIMELINED_CORS_ORIGINS"); v != "" {
		cfg.Auth.CORSOrigins = splitList(v)
	}
	if v := os.Getenv("TIMELINED_SELF_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.SelfID = id
		}
	}
	if v := os.Getenv("TIMELINED_PRESENCE_CRON"); v != "" {
		cfg.Sweep.PresenceCron = v
	}
	if v := os.Getenv("TIMELINED_SNAPSHOT_CRON"); v != "" {
		cfg.Sweep.SnapshotCron = v
	}
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Listen returns the addr:port the HTTP server binds.
func (c *Config) Listen() string {
	return fmt.Sprintf("%s:%d", c.Server.Addr, c.Server.Port)
}
