package main

import (
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalog projects",
	Long: `List every project in the catalog: the built-in projects plus any from
$VERSE_HOME/projects.toml and the catalog set with 'verse config set catalog'.`,
	Args: usageArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonOutput, _ := cmd.Flags().GetBool("json")

		a, err := openApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		defs := a.tracker.Projects()

		if jsonOutput {
			type projectJSON struct {
				Name       string `json:"name"`
				Slug       string `json:"slug"`
				Homepage   string `json:"homepage"`
				Repository string `json:"repository"`
			}
			out := make([]projectJSON, 0, len(defs))
			for _, def := range defs {
				out = append(out, projectJSON{def.Name, def.Slug, def.Homepage, def.Repository})
			}
			printJSON(out)
			return nil
		}

		if len(defs) == 0 {
			printInfo("No projects in the catalog.")
			return nil
		}

		t := &table{header: []string{"SLUG", "NAME", "REPOSITORY"}}
		for _, def := range defs {
			t.add(def.Slug, def.Name, def.Repository)
		}
		t.print()
		return nil
	},
}

func init() {
	listCmd.Flags().Bool("json", false, "Output in JSON format")
}
