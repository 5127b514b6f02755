package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tsukumogami/verse/internal/secrets"
	"github.com/tsukumogami/verse/internal/userconfig"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage verse configuration",
	Long: `Manage verse configuration settings.

Configuration is stored in $VERSE_HOME/config.toml (~/.verse by default).

` + keysHelp() + `
Examples:
  verse config get listen_addr
  verse config set result_ttl 2h
  verse config set catalog ~/projects.toml
  verse config set secrets.github_token ghp_...`,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Args:  usageArgs(cobra.ExactArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := userconfig.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		if err := checkSecretKey(args[0]); err != nil {
			return err
		}
		value, ok := cfg.Get(args[0])
		if !ok {
			printAvailableKeys()
			return usageError{fmt.Errorf("unknown config key: %s", args[0])}
		}
		fmt.Println(value)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value. An empty value resets result_ttl and catalog.

` + keysHelp(),
	Args: usageArgs(cobra.ExactArgs(2)),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		cfg, err := userconfig.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if err := checkSecretKey(key); err != nil {
			return err
		}
		if err := cfg.Set(key, value); err != nil {
			printAvailableKeys()
			return usageError{err}
		}
		if err := cfg.Save(); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}

		if userconfig.IsSecretKey(key) {
			value = maskSecret(value)
		}
		printInfof("%s = %s\n", key, value)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show all configuration values",
	Args:  usageArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := userconfig.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		t := &table{header: []string{"KEY", "VALUE"}}
		for _, k := range userconfig.SortedKeys() {
			v, _ := cfg.Get(k)
			t.add(k, v)
		}
		for _, info := range secrets.KnownKeys() {
			key := "secrets." + info.Name
			v, _ := cfg.Get(key)
			if src := secrets.Source(info.Name); src != "" && src != "config.toml" {
				v = "(from $" + src + ")"
			} else {
				v = maskSecret(v)
			}
			t.add(key, v)
		}
		t.print()
		return nil
	},
}

func keysHelp() string {
	var sb strings.Builder
	sb.WriteString("Available keys:\n")
	keys := userconfig.AvailableKeys()
	for _, k := range userconfig.SortedKeys() {
		fmt.Fprintf(&sb, "  %-22s %s\n", k, keys[k])
	}
	for _, info := range secrets.KnownKeys() {
		fmt.Fprintf(&sb, "  %-22s %s\n", "secrets."+info.Name, info.Desc)
	}
	return sb.String()
}

// checkSecretKey rejects secrets.<name> keys for unregistered names.
func checkSecretKey(key string) error {
	if !userconfig.IsSecretKey(key) {
		return nil
	}
	name := strings.ToLower(key)[len("secrets."):]
	if !secrets.IsKnown(name) {
		printAvailableKeys()
		return usageError{fmt.Errorf("unknown secret: %s", name)}
	}
	return nil
}

// maskSecret keeps the last four characters of long values.
func maskSecret(v string) string {
	switch {
	case v == "":
		return ""
	case len(v) <= 8:
		return "****"
	default:
		return "****" + v[len(v)-4:]
	}
}

func printAvailableKeys() {
	fmt.Fprintf(os.Stderr, "\n%s\n", keysHelp())
}

func init() {
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configListCmd)
}
