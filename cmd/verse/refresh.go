package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tsukumogami/verse/internal/errmsg"
	"github.com/tsukumogami/verse/internal/progress"
	"github.com/tsukumogami/verse/internal/service"
)

var refreshCmd = &cobra.Command{
	Use:   "refresh [project]...",
	Short: "Recompute and cache versions",
	Long: `Fetch tags from GitHub and recompute the latest, per-major and per-minor
versions of the given projects, or of every catalog project, storing the
results in the cache.

Projects are refreshed in parallel (VERSE_REFRESH_CONCURRENCY, or
--concurrency). A failing project does not stop the others; the command
exits with code 7 if any project failed.

Examples:
  verse refresh
  verse refresh nginx docker --concurrency 2`,
	RunE: func(cmd *cobra.Command, args []string) error {
		concurrency, _ := cmd.Flags().GetInt("concurrency")
		jsonOutput, _ := cmd.Flags().GetBool("json")

		var counter *progress.Counter
		var opts []service.Option
		if !jsonOutput && !quietFlag {
			opts = append(opts, service.WithRefreshProgress(func(r service.RefreshResult) {
				counter.Done(r.Slug, r.Err)
			}))
		}

		a, err := openApp(true, opts...)
		if err != nil {
			return err
		}
		defer a.Close()

		if len(opts) > 0 {
			total := len(args)
			if total == 0 {
				total = len(a.tracker.Projects())
			}
			counter = progress.NewCounter(os.Stderr, "Refreshing", total)
			counter.Start()
		}

		results, err := a.tracker.Refresh(cmd.Context(), args, concurrency)
		if counter != nil {
			counter.Finish()
		}
		if err != nil {
			return err
		}

		if jsonOutput {
			printJSON(refreshJSON(results))
		} else {
			printRefresh(results)
		}

		for _, r := range results {
			if r.Err != nil {
				return errPartialRefresh
			}
		}
		return nil
	},
}

type refreshEntry struct {
	Project    string            `json:"project"`
	Latest     string            `json:"latest,omitempty"`
	Major      map[string]string `json:"major,omitempty"`
	Minor      map[string]string `json:"minor,omitempty"`
	DurationMS int64             `json:"duration_ms"`
	Error      string            `json:"error,omitempty"`
}

func refreshJSON(results []service.RefreshResult) []refreshEntry {
	out := make([]refreshEntry, len(results))
	for i, r := range results {
		out[i] = refreshEntry{
			Project:    r.Slug,
			Latest:     r.Latest,
			Major:      r.Major,
			Minor:      r.Minor,
			DurationMS: r.Duration.Milliseconds(),
		}
		if r.Err != nil {
			out[i].Error = r.Err.Error()
		}
	}
	return out
}

func printRefresh(results []service.RefreshResult) {
	t := &table{header: []string{"PROJECT", "LATEST", "MAJORS", "MINORS", "TIME"}}
	var failed []service.RefreshResult
	for _, r := range results {
		if r.Err != nil {
			failed = append(failed, r)
			t.add(r.Slug, "error", "-", "-", r.Duration.Round(time.Millisecond).String())
			continue
		}
		t.add(r.Slug, r.Latest, fmt.Sprint(len(r.Major)), fmt.Sprint(len(r.Minor)), r.Duration.Round(time.Millisecond).String())
	}
	t.print()

	for _, r := range failed {
		fmt.Fprintln(os.Stderr)
		errmsg.FprintContext(os.Stderr, fmt.Errorf("%s: %w", r.Slug, r.Err), &errmsg.ErrorContext{Project: r.Slug})
	}
	if len(failed) > 0 {
		printInfof("\n%d of %d projects failed\n", len(failed), len(results))
	}
}

func init() {
	refreshCmd.Flags().Int("concurrency", 0, "Projects refreshed at once (default from VERSE_REFRESH_CONCURRENCY)")
	refreshCmd.Flags().Bool("json", false, "Output in JSON format")
}
