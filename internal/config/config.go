package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Backend connection
	BackendURL  string
	HTTPTimeout time.Duration

	// Search debounce quiescence window
	DebounceWindow time.Duration

	// Where exported/downloaded files land
	ExportDir string

	// Upload limits (client-side preflight)
	MaxUploadBytes int64

	// Web view
	ListenAddr string

	// TUI log destination; empty disables logging in TUI mode
	LogFile string
}

func Load() Config {
	cfg := Config{
		BackendURL:     envOr("BACKEND_URL", "http://localhost:8000"),
		HTTPTimeout:    envDuration("HTTP_TIMEOUT", 30*time.Second),
		DebounceWindow: envDuration("DEBOUNCE_WINDOW", 200*time.Millisecond),
		ExportDir:      envOr("EXPORT_DIR", "."),
		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB
		ListenAddr:     envOr("LISTEN_ADDR", ":8090"),
		LogFile:        os.Getenv("TABLESCOPE_LOG"),
	}

	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 30 * time.Second
	}
	if cfg.DebounceWindow <= 0 {
		cfg.DebounceWindow = 200 * time.Millisecond
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}

	return cfg
}

func (c Config) Validate() error {
	if c.BackendURL == "" {
		return fmt.Errorf("BACKEND_URL is required")
	}
	if !strings.HasPrefix(c.BackendURL, "http://") && !strings.HasPrefix(c.BackendURL, "https://") {
		return fmt.Errorf("BACKEND_URL must be an http(s) URL, got %q", c.BackendURL)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
