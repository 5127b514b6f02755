package main

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tsukumogami/verse/internal/errmsg"
	"github.com/tsukumogami/verse/internal/pep440"
	"github.com/tsukumogami/verse/internal/service"
	"github.com/tsukumogami/verse/internal/version"
)

// lookup answers one view for a catalog slug or an owner/repo argument.
// cached serves catalog projects through the result store; direct runs the
// checker against GitHub.
type lookup[T any] struct {
	cached func(*service.Tracker, context.Context, string) (T, error)
	direct func(*version.Checker, context.Context) (T, error)
}

type lookupFlags struct {
	json       bool
	prerelease bool
	constraint string
	noCache    bool
}

func (f *lookupFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.json, "json", false, "Output in JSON format")
	cmd.Flags().BoolVar(&f.prerelease, "prerelease", false, "Include pre-releases and dev releases")
	cmd.Flags().StringVar(&f.constraint, "constraint", "", "Only consider versions matching a semver constraint (e.g. '>= 1.2, < 2')")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "Skip the result cache")
}

// uncached reports whether the query must bypass the store: the cache only
// holds the default view of catalog projects.
func (f *lookupFlags) uncached() bool {
	return f.noCache || f.prerelease || f.constraint != ""
}

func (l lookup[T]) run(ctx context.Context, arg string, flags *lookupFlags) (T, error) {
	var zero T
	errorContext = &errmsg.ErrorContext{Project: arg}

	a, err := openApp(!flags.uncached())
	if err != nil {
		return zero, err
	}
	defer a.Close()

	owner, repo, isRepo := strings.Cut(arg, "/")
	if !isRepo && !flags.uncached() {
		return l.cached(a.tracker, ctx, arg)
	}

	var c *version.Checker
	if isRepo {
		c, err = a.tracker.GitHub(owner, repo)
	} else {
		c, err = a.tracker.Checker(arg)
	}
	if err != nil {
		return zero, err
	}
	c.IncludePrereleases = flags.prerelease
	if c.Constraint, err = version.ParseConstraint(flags.constraint); err != nil {
		return zero, err
	}
	return l.direct(c, ctx)
}

var latestFlags lookupFlags

var latestCmd = &cobra.Command{
	Use:   "latest <project|owner/repo>",
	Short: "Show the latest released version",
	Long: `Show the latest released version of a catalog project or of any GitHub
repository given as owner/repo.

Pre-releases are ignored unless --prerelease is set.

Examples:
  verse latest nginx
  verse latest docker --json
  verse latest hashicorp/terraform --constraint '< 2'`,
	Args: usageArgs(cobra.ExactArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		q := lookup[string]{cached: (*service.Tracker).Latest, direct: (*version.Checker).Latest}
		latest, err := q.run(cmd.Context(), args[0], &latestFlags)
		if err != nil {
			return err
		}

		if latestFlags.json {
			printJSON(struct {
				Project string `json:"project"`
				Latest  string `json:"latest"`
			}{args[0], latest})
			return nil
		}
		fmt.Println(latest)
		return nil
	},
}

var majorFlags, minorFlags lookupFlags

var majorCmd = &cobra.Command{
	Use:   "major <project|owner/repo>",
	Short: "Show the latest version of every major line",
	Long: `Show the latest version of every major release line, newest first.

Examples:
  verse major django
  verse major nodejs/node --json`,
	Args: usageArgs(cobra.ExactArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		q := lookup[map[string]string]{cached: (*service.Tracker).LatestByMajor, direct: (*version.Checker).LatestByMajor}
		return runGrouped(cmd.Context(), args[0], "MAJOR", q, &majorFlags)
	},
}

var minorCmd = &cobra.Command{
	Use:   "minor <project|owner/repo>",
	Short: "Show the latest version of every minor line",
	Long: `Show the latest version of every minor release line, newest first.

Examples:
  verse minor python
  verse minor kubernetes --constraint '>= 1.28'`,
	Args: usageArgs(cobra.ExactArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		q := lookup[map[string]string]{cached: (*service.Tracker).LatestByMinor, direct: (*version.Checker).LatestByMinor}
		return runGrouped(cmd.Context(), args[0], "MINOR", q, &minorFlags)
	},
}

func runGrouped(ctx context.Context, arg, keyHeader string, q lookup[map[string]string], flags *lookupFlags) error {
	grouped, err := q.run(ctx, arg, flags)
	if err != nil {
		return err
	}
	if flags.json {
		printJSON(grouped)
		return nil
	}

	t := &table{header: []string{keyHeader, "LATEST"}}
	for _, key := range groupOrder(grouped) {
		t.add(key, grouped[key])
	}
	t.print()
	return nil
}

// groupOrder returns the keys of grouped ordered by their version, newest
// first. Values that fail to parse sort last, by key.
func groupOrder(grouped map[string]string) []string {
	type entry struct {
		key string
		v   pep440.Version
		ok  bool
	}
	entries := make([]entry, 0, len(grouped))
	for k, s := range grouped {
		v, err := pep440.Parse(s)
		entries = append(entries, entry{key: k, v: v, ok: err == nil})
	}
	slices.SortFunc(entries, func(a, b entry) int {
		switch {
		case a.ok && b.ok:
			if c := pep440.Compare(b.v, a.v); c != 0 {
				return c
			}
		case a.ok:
			return -1
		case b.ok:
			return 1
		}
		return strings.Compare(a.key, b.key)
	})

	keys := make([]string, len(entries))
	for i, e := range entries {
		keys[i] = e.key
	}
	return keys
}

func init() {
	latestFlags.register(latestCmd)
	majorFlags.register(majorCmd)
	minorFlags.register(minorCmd)
}
