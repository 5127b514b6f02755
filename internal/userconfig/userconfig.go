// Package userconfig provides user configuration management for verse.
// Configuration is stored in $VERSE_HOME/config.toml and can be modified
// via the `verse config` command.
package userconfig

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/tsukumogami/verse/internal/config"
)

// Config represents user-configurable settings.
type Config struct {
	// ListenAddr is the default address for `verse serve`.
	ListenAddr string `toml:"listen_addr,omitempty"`

	// ResultTTL overrides how long computed results are cached, as a
	// duration string. VERSE_RESULT_TTL wins when both are set.
	ResultTTL string `toml:"result_ttl,omitempty"`

	// Catalog is the path of an extra project catalog merged into the
	// built-in one.
	Catalog string `toml:"catalog,omitempty"`

	// Secrets holds API tokens by secret name, addressed as
	// "secrets.<name>" by Get and Set. Environment variables take
	// precedence.
	Secrets map[string]string `toml:"secrets,omitempty"`
}

// secretPrefix addresses entries of the [secrets] table.
const secretPrefix = "secrets."

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		ListenAddr: config.DefaultListenAddr,
	}
}

// Load reads the config file and returns the configuration.
// Returns default values if the file doesn't exist.
// Returns an error only for file parsing issues, not missing files.
func Load() (*Config, error) {
	cfg, err := config.DefaultConfig()
	if err != nil {
		return DefaultConfig(), nil // Silently use defaults
	}

	return loadFromPath(cfg.ConfigFile)
}

// loadFromPath reads config from a specific file path (for testing).
func loadFromPath(path string) (*Config, error) {
	userCfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return userCfg, nil // File doesn't exist, use defaults
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if _, err := toml.Decode(string(data), userCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return userCfg, nil
}

// Save writes the configuration to the config file.
func (c *Config) Save() error {
	cfg, err := config.DefaultConfig()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}

	return c.saveToPath(cfg.ConfigFile)
}

// saveToPath writes config atomically: the TOML goes to a 0600 temp file
// in the same directory, which is then renamed over path.
func (c *Config) saveToPath(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set config permissions: %w", err)
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write config file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace config file: %w", err)
	}
	return nil
}

// Get returns the value of a config key as a string.
// Returns empty string and false if the key doesn't exist.
func (c *Config) Get(key string) (string, bool) {
	key = strings.ToLower(key)
	if name, ok := strings.CutPrefix(key, secretPrefix); ok && name != "" {
		return c.Secrets[name], true
	}
	switch key {
	case "listen_addr":
		return c.ListenAddr, true
	case "result_ttl":
		return c.ResultTTL, true
	case "catalog":
		return c.Catalog, true
	default:
		return "", false
	}
}

// Set updates a config value from a string.
// Returns an error if the key doesn't exist or the value is invalid.
func (c *Config) Set(key, value string) error {
	key = strings.ToLower(key)
	if name, ok := strings.CutPrefix(key, secretPrefix); ok && name != "" {
		if value == "" {
			delete(c.Secrets, name)
			return nil
		}
		if c.Secrets == nil {
			c.Secrets = make(map[string]string)
		}
		c.Secrets[name] = value
		return nil
	}
	switch key {
	case "listen_addr":
		if value == "" {
			return fmt.Errorf("invalid value for listen_addr: must not be empty")
		}
		c.ListenAddr = value
		return nil
	case "result_ttl":
		if value != "" {
			d, err := time.ParseDuration(value)
			if err != nil || d <= 0 {
				return fmt.Errorf("invalid value for result_ttl: must be a positive duration like 30m or 2h")
			}
		}
		c.ResultTTL = value
		return nil
	case "catalog":
		c.Catalog = value
		return nil
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
}

// TTL returns the configured result TTL, or zero when unset or invalid.
func (c *Config) TTL() time.Duration {
	if c.ResultTTL == "" {
		return 0
	}
	d, err := time.ParseDuration(c.ResultTTL)
	if err != nil || d <= 0 {
		return 0
	}
	return d
}

// IsSecretKey reports whether key addresses the [secrets] table.
func IsSecretKey(key string) bool {
	name, ok := strings.CutPrefix(strings.ToLower(key), secretPrefix)
	return ok && name != ""
}

// AvailableKeys returns the plain configurable keys with descriptions.
// Secrets are addressed separately as "secrets.<name>".
func AvailableKeys() map[string]string {
	return map[string]string{
		"listen_addr": "Default address for `verse serve` (host:port)",
		"result_ttl":  "How long computed versions are cached (e.g. 30m, 2h)",
		"catalog":     "Path to a TOML file with extra [[project]] entries",
	}
}

// SortedKeys returns the configurable keys in alphabetical order.
func SortedKeys() []string {
	keys := make([]string, 0, len(AvailableKeys()))
	for k := range AvailableKeys() {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
