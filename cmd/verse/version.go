package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tsukumogami/verse/internal/buildinfo"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the verse version",
	Args:  usageArgs(cobra.NoArgs),
	Run: func(cmd *cobra.Command, args []string) {
		info := buildinfo.Read()

		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			printJSON(info)
			return
		}

		fmt.Printf("verse %s (%s)\n", info.Version, info.GoVersion)
		if info.Revision != "" {
			fmt.Printf("commit %s", info.Revision)
			if !info.BuildTime.IsZero() {
				fmt.Printf(" built %s", info.BuildTime.Format("2006-01-02"))
			}
			fmt.Println()
		}
	},
}

func init() {
	versionCmd.Flags().Bool("json", false, "Output in JSON format")
}
