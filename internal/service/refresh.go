package service

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tsukumogami/verse/internal/config"
	"github.com/tsukumogami/verse/internal/store"
	"github.com/tsukumogami/verse/internal/version"
)

// RefreshResult is the outcome of recomputing one project.
type RefreshResult struct {
	Slug     string
	Latest   string
	Major    map[string]string
	Minor    map[string]string
	Duration time.Duration
	Err      error
}

// Refresh recomputes the latest, per-major and per-minor views of slugs,
// or of every registered project when slugs is empty, and stores them.
//
// Projects run concurrently, at most concurrency at a time (the configured
// default when concurrency is not positive). A failing project is reported
// in its result and does not stop the others. The returned error is
// non-nil for unknown slugs, detected before any work starts, and for a
// canceled ctx, in which case the partial results are returned with it.
func (t *Tracker) Refresh(ctx context.Context, slugs []string, concurrency int) ([]RefreshResult, error) {
	if len(slugs) == 0 {
		for _, def := range t.registry.All() {
			slugs = append(slugs, def.Slug)
		}
	}

	checkers := make([]*version.Checker, len(slugs))
	for i, slug := range slugs {
		c, err := t.Checker(slug)
		if err != nil {
			return nil, err
		}
		checkers[i] = c
	}

	if concurrency <= 0 {
		concurrency = config.GetRefreshConcurrency()
	}

	results := make([]RefreshResult, len(slugs))
	var g errgroup.Group
	g.SetLimit(concurrency)

	for i, c := range checkers {
		g.Go(func() error {
			results[i] = t.refreshOne(ctx, c)
			if t.onRefreshed != nil {
				t.onRefreshed(results[i])
			}
			return ctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// refreshOne fetches the versions once and derives all three views from
// that single fetch.
func (t *Tracker) refreshOne(ctx context.Context, c *version.Checker) RefreshResult {
	start := time.Now()
	res := RefreshResult{Slug: c.Slug}
	logger := t.logger.With("project", c.Slug)

	versions, err := c.GetVersions(ctx)
	if err != nil {
		res.Err = err
		res.Duration = time.Since(start)
		logger.Warn("refresh failed", "error", err)
		return res
	}

	snapshot := &version.Checker{
		Project:            c.Project,
		Source:             version.StaticSource(versions),
		IncludePrereleases: c.IncludePrereleases,
		Constraint:         c.Constraint,
	}

	if res.Latest, err = snapshot.Latest(ctx); err == nil {
		if res.Major, err = snapshot.LatestByMajor(ctx); err == nil {
			res.Minor, err = snapshot.LatestByMinor(ctx)
		}
	}
	res.Duration = time.Since(start)
	if err != nil {
		res.Err = err
		logger.Warn("refresh failed", "error", err)
		return res
	}

	t.storeViews(ctx, res)
	logger.Info("refreshed", "latest", res.Latest, "versions", len(versions), "duration", res.Duration)
	return res
}

func (t *Tracker) storeViews(ctx context.Context, res RefreshResult) {
	if key, err := store.LatestVersionKey(res.Slug); err == nil {
		t.put(ctx, key, res.Latest)
	}
	if key, err := store.LatestMajorVersionsKey(res.Slug); err == nil {
		t.put(ctx, key, res.Major)
	}
	if key, err := store.LatestMinorVersionsKey(res.Slug); err == nil {
		t.put(ctx, key, res.Minor)
	}
}
