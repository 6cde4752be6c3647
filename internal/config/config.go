// Package config loads application settings for t2048.
//
// Values come, in increasing priority, from a YAML file, T2048_* environment
// variables (optionally seeded from a .env file) and command-line flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Config is the complete application configuration.
type Config struct {
	TickRate int    `yaml:"tick_rate" env:"TICK_RATE"`
	Seed     int64  `yaml:"seed" env:"SEED"`
	DBPath   string `yaml:"db_path" env:"DB_PATH"`

	Log   LogConfig   `yaml:"log" envPrefix:"LOG_"`
	Input InputConfig `yaml:"input" envPrefix:"INPUT_"`
	SSH   SSHConfig   `yaml:"ssh" envPrefix:"SSH_"`
	Web   WebConfig   `yaml:"web" envPrefix:"WEB_"`
}

// LogConfig controls the structured logger.
type LogConfig struct {
	Level string `yaml:"level" env:"LEVEL"` // debug, info, warn or error
	// File receives log output while the full-screen UI owns the terminal.
	File string `yaml:"file" env:"FILE"`
}

// InputConfig controls swipe interpretation.
type InputConfig struct {
	SwipeThreshold int `yaml:"swipe_threshold" env:"SWIPE_THRESHOLD"`
	UnitsPerColumn int `yaml:"units_per_column" env:"UNITS_PER_COLUMN"`
	UnitsPerRow    int `yaml:"units_per_row" env:"UNITS_PER_ROW"`
}

// SSHConfig controls the SSH server.
type SSHConfig struct {
	Address     string        `yaml:"address" env:"ADDRESS"`
	HostKey     string        `yaml:"host_key" env:"HOST_KEY"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env:"IDLE_TIMEOUT"`
}

// WebConfig controls the HTTP and websocket server.
type WebConfig struct {
	Address string `yaml:"address" env:"ADDRESS"`
	// StaticDir, when set, is served at / next to the API.
	StaticDir string `yaml:"static_dir" env:"STATIC_DIR"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		TickRate: 60,
		DBPath:   "~/.t2048/scores.db",
		Log: LogConfig{
			Level: "info",
			File:  "~/.t2048/t2048.log",
		},
		Input: InputConfig{
			SwipeThreshold: 30,
			UnitsPerColumn: 4,
			UnitsPerRow:    8,
		},
		SSH: SSHConfig{
			Address:     ":23234",
			IdleTimeout: 30 * time.Minute,
		},
		Web: WebConfig{
			Address: ":8080",
		},
	}
}

var validLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	var errs []error
	if c.TickRate <= 0 || c.TickRate > 240 {
		errs = append(errs, fmt.Errorf("tick_rate must be in 1..240, got %d", c.TickRate))
	}
	if c.DBPath == "" {
		errs = append(errs, errors.New("db_path must not be empty"))
	}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, fmt.Errorf("log.level must be one of debug, info, warn, error; got %q", c.Log.Level))
	}
	if c.Input.SwipeThreshold <= 0 {
		errs = append(errs, fmt.Errorf("input.swipe_threshold must be positive, got %d", c.Input.SwipeThreshold))
	}
	if c.Input.UnitsPerColumn <= 0 || c.Input.UnitsPerRow <= 0 {
		errs = append(errs, errors.New("input.units_per_column and input.units_per_row must be positive"))
	}
	if c.SSH.IdleTimeout < 0 {
		errs = append(errs, errors.New("ssh.idle_timeout must not be negative"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
