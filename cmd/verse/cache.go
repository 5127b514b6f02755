package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the result cache",
	Long:  `Manage the cache of computed versions kept in $VERSE_HOME/results.db.`,
}

var cacheInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show cache location and size",
	Args:  usageArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(true)
		if err != nil {
			return err
		}
		defer a.Close()

		n, err := a.store.Count(cmd.Context())
		if err != nil {
			return err
		}

		jsonOutput, _ := cmd.Flags().GetBool("json")
		if jsonOutput {
			printJSON(struct {
				Path    string `json:"path"`
				Entries int    `json:"entries"`
				TTL     string `json:"ttl"`
			}{a.cfg.DatabaseFile, n, resultTTL(a.user).String()})
			return nil
		}

		fmt.Printf("Path:    %s\n", a.cfg.DatabaseFile)
		fmt.Printf("Entries: %d\n", n)
		fmt.Printf("TTL:     %s\n", resultTTL(a.user))
		return nil
	},
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Remove expired results",
	Args:  usageArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(true)
		if err != nil {
			return err
		}
		defer a.Close()

		n, err := a.store.Purge(cmd.Context())
		if err != nil {
			return err
		}
		printInfof("Removed %d expired results\n", n)
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached results",
	Long: `Remove all cached results, forcing fresh lookups against GitHub on
next use.`,
	Args: usageArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(true)
		if err != nil {
			return err
		}
		defer a.Close()

		n, err := a.store.Clear(cmd.Context())
		if err != nil {
			return err
		}
		printInfof("Removed %d cached results\n", n)
		return nil
	},
}

func init() {
	cacheInfoCmd.Flags().Bool("json", false, "Output in JSON format")
	cacheCmd.AddCommand(cacheInfoCmd)
	cacheCmd.AddCommand(cachePurgeCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}
