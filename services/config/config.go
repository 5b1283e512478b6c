// Package config resolves runtime configuration from the environment, with
// optional .env loading for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type ClickHouse struct {
	Addr     string
	Database string
	Table    string
	User     string
	Password string
}

type Server struct {
	Port         int
	AllowOrigins []string
}

type Config struct {
	ClickHouse ClickHouse
	Server     Server
	Timezone   string // exchange-local zone the EOD rules run in
	Workers    int    // parallel symbols in suite runs, 0 = GOMAXPROCS
}

// Load reads .env if present, then the environment with defaults.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ClickHouse: ClickHouse{
			Addr:     env("CLICKHOUSE_ADDR", "localhost:9000"),
			Database: env("CH_DATABASE", "backtest"),
			Table:    env("CH_TABLE", "bars_2m"),
			User:     env("CH_USER", "default"),
			Password: env("CH_PASSWORD", ""),
		},
		Server: Server{
			AllowOrigins: splitList(env("HTTP_ALLOW_ORIGINS", "*")),
		},
		Timezone: env("BACKTEST_TZ", "America/Chicago"),
	}

	var err error
	if cfg.Server.Port, err = envInt("HTTP_PORT", 8080); err != nil {
		return nil, err
	}
	if cfg.Workers, err = envInt("BACKTEST_WORKERS", 0); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Location resolves the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func env(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s=%q: %w", key, v, err)
	}
	return n, nil
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
