// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Plan   PlanConfig   `toml:"plan"`
	Policy PolicyConfig `toml:"policy"`
	Store  StoreConfig  `toml:"store"`
	Log    LogConfig    `toml:"log"`
}

// PlanConfig holds defaults for new plans.
type PlanConfig struct {
	PagesPerDay *float64 `toml:"pages-per-day"`
	OffDays     *string  `toml:"off-days"`
	Review      *bool    `toml:"review"`
	ReviewRatio *int     `toml:"review-ratio"`
	Method      *string  `toml:"method"`
	City        *string  `toml:"city"`
	Country     *string  `toml:"country"`
}

// PolicyConfig tunes the backlog heuristics.
type PolicyConfig struct {
	BacklogSpreadDays *float64 `toml:"backlog-spread-days"`
	MinSurcharge      *float64 `toml:"min-surcharge"`
}

// StoreConfig selects where data lives.
type StoreConfig struct {
	Path        *string `toml:"path"`
	ReviewFlags *string `toml:"review-flags"`
	RedisURL    *string `toml:"redis-url"`
}

// LogConfig maps logging settings.
type LogConfig struct {
	Level *string `toml:"level"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}
