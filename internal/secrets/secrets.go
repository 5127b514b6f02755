// Package secrets resolves API tokens.
//
// Environment variables are checked first, then the [secrets] table of
// $VERSE_HOME/config.toml. The known secrets and their environment
// aliases are listed in specs.go; asking for any other name is an error.
package secrets

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/tsukumogami/verse/internal/userconfig"
)

// KeyInfo describes a registered secret.
type KeyInfo struct {
	Name    string
	EnvVars []string
	Desc    string
}

var (
	configOnce  sync.Once
	cachedCfg   *userconfig.Config
	configError error
)

func getConfig() (*userconfig.Config, error) {
	configOnce.Do(func() {
		cachedCfg, configError = userconfig.Load()
	})
	return cachedCfg, configError
}

// ResetConfig drops the cached config so the next lookup rereads it.
// Tests only.
func ResetConfig() {
	configOnce = sync.Once{}
	cachedCfg = nil
	configError = nil
}

// Source reports where a secret was found: the environment variable name,
// "config.toml", or empty when unset.
func Source(name string) string {
	spec, ok := knownKeys[name]
	if !ok {
		return ""
	}
	for _, env := range spec.EnvVars {
		if os.Getenv(env) != "" {
			return env
		}
	}
	if cfg, err := getConfig(); err == nil && cfg != nil && cfg.Secrets[name] != "" {
		return "config.toml"
	}
	return ""
}

// Get resolves a secret by name. It fails for unknown names and, with
// guidance on how to set it, when no source has a value.
func Get(name string) (string, error) {
	spec, ok := knownKeys[name]
	if !ok {
		return "", fmt.Errorf("unknown secret key: %q", name)
	}

	for _, env := range spec.EnvVars {
		if val := os.Getenv(env); val != "" {
			return val, nil
		}
	}

	cfg, err := getConfig()
	if err == nil && cfg != nil {
		if val := cfg.Secrets[name]; val != "" {
			return val, nil
		}
	}

	return "", fmt.Errorf(
		"%s not configured. Set the %s environment variable, or run 'verse config set secrets.%s <value>'",
		name, strings.Join(spec.EnvVars, " or "), name,
	)
}

// Lookup returns the secret or an empty string.
func Lookup(name string) string {
	val, _ := Get(name)
	return val
}

// IsSet reports whether a secret is available without returning it.
func IsSet(name string) bool {
	return Source(name) != ""
}

// IsKnown reports whether name is a registered secret.
func IsKnown(name string) bool {
	_, ok := knownKeys[name]
	return ok
}

// KnownKeys returns all registered secrets sorted by name.
func KnownKeys() []KeyInfo {
	keys := make([]KeyInfo, 0, len(knownKeys))
	for name, spec := range knownKeys {
		keys = append(keys, KeyInfo{Name: name, EnvVars: spec.EnvVars, Desc: spec.Desc})
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].Name < keys[j].Name
	})
	return keys
}
