package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	// EnvVerseHome is the environment variable to override the default verse home directory
	EnvVerseHome = "VERSE_HOME"

	// EnvAPITimeout is the environment variable to configure API request timeout
	EnvAPITimeout = "VERSE_API_TIMEOUT"

	// EnvResultTTL is the environment variable to configure how long computed results are cached
	EnvResultTTL = "VERSE_RESULT_TTL"

	// EnvRefreshConcurrency is the environment variable to configure parallel refreshes
	EnvRefreshConcurrency = "VERSE_REFRESH_CONCURRENCY"

	// DefaultAPITimeout is the default timeout for API requests (30 seconds)
	DefaultAPITimeout = 30 * time.Second

	// DefaultResultTTL is the default TTL for cached results (1 hour)
	DefaultResultTTL = 1 * time.Hour

	// DefaultRefreshConcurrency is the default number of projects refreshed at once
	DefaultRefreshConcurrency = 4

	// DefaultListenAddr is the default address for `verse serve`
	DefaultListenAddr = "127.0.0.1:8080"
)

// GetAPITimeout returns the configured API timeout from VERSE_API_TIMEOUT.
// If not set or invalid, returns DefaultAPITimeout (30 seconds).
// Accepts duration strings like "30s", "1m", "2m30s".
func GetAPITimeout() time.Duration {
	return durationFromEnv(EnvAPITimeout, DefaultAPITimeout, 1*time.Second, 10*time.Minute)
}

// GetResultTTL returns the configured result cache TTL from VERSE_RESULT_TTL.
// If not set or invalid, returns DefaultResultTTL (1 hour).
func GetResultTTL() time.Duration {
	return durationFromEnv(EnvResultTTL, DefaultResultTTL, 1*time.Minute, 7*24*time.Hour)
}

// GetRefreshConcurrency returns the configured refresh parallelism from
// VERSE_REFRESH_CONCURRENCY, clamped to 1..32.
func GetRefreshConcurrency() int {
	envValue := os.Getenv(EnvRefreshConcurrency)
	if envValue == "" {
		return DefaultRefreshConcurrency
	}

	n, err := strconv.Atoi(envValue)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: invalid %s value %q, using default %d\n",
			EnvRefreshConcurrency, envValue, DefaultRefreshConcurrency)
		return DefaultRefreshConcurrency
	}
	if n < 1 {
		fmt.Fprintf(os.Stderr, "Warning: %s too low (%d), using minimum 1\n", EnvRefreshConcurrency, n)
		return 1
	}
	if n > 32 {
		fmt.Fprintf(os.Stderr, "Warning: %s too high (%d), using maximum 32\n", EnvRefreshConcurrency, n)
		return 32
	}
	return n
}

// durationFromEnv reads a duration from name and clamps it to [lo, hi],
// warning on stderr about invalid or out-of-range values.
func durationFromEnv(name string, def, lo, hi time.Duration) time.Duration {
	envValue := os.Getenv(name)
	if envValue == "" {
		return def
	}

	duration, err := time.ParseDuration(envValue)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: invalid %s value %q, using default %v\n",
			name, envValue, def)
		return def
	}

	if duration < lo {
		fmt.Fprintf(os.Stderr, "Warning: %s too low (%v), using minimum %v\n",
			name, duration, lo)
		return lo
	}
	if duration > hi {
		fmt.Fprintf(os.Stderr, "Warning: %s too high (%v), using maximum %v\n",
			name, duration, hi)
		return hi
	}

	return duration
}

// DefaultHomeOverride can be set by the binary's main package to change the
// default home directory. VERSE_HOME still takes precedence.
var DefaultHomeOverride string

// Config holds verse filesystem layout
type Config struct {
	HomeDir      string // $VERSE_HOME
	DatabaseFile string // $VERSE_HOME/results.db
	ConfigFile   string // $VERSE_HOME/config.toml
	CatalogFile  string // $VERSE_HOME/projects.toml
}

// DefaultConfig returns the default configuration
func DefaultConfig() (*Config, error) {
	home := os.Getenv(EnvVerseHome)
	if home == "" {
		if DefaultHomeOverride != "" {
			home = DefaultHomeOverride
		} else {
			userHome, err := os.UserHomeDir()
			if err != nil {
				return nil, fmt.Errorf("failed to get user home directory: %w", err)
			}
			home = filepath.Join(userHome, ".verse")
		}
	}

	return &Config{
		HomeDir:      home,
		DatabaseFile: filepath.Join(home, "results.db"),
		ConfigFile:   filepath.Join(home, "config.toml"),
		CatalogFile:  filepath.Join(home, "projects.toml"),
	}, nil
}

// EnsureDirectories creates the home directory
func (c *Config) EnsureDirectories() error {
	if err := os.MkdirAll(c.HomeDir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", c.HomeDir, err)
	}
	return nil
}
