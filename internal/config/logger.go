package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
)

// NewLogger builds a structured logger writing to w at the configured level.
func NewLogger(cfg LogConfig, w io.Writer, prefix string) (*log.Logger, error) {
	level, err := log.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return nil, fmt.Errorf("config: log level: %w", err)
	}

	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Prefix:          prefix,
		Level:           level,
	}), nil
}

// OpenLogFile opens path for appending, creating parent directories.
// A leading ~ is expanded.
func OpenLogFile(path string) (*os.File, error) {
	path = ExpandHome(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("config: cannot create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("config: cannot open log file: %w", err)
	}
	return f, nil
}
