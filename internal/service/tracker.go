// Package service ties the project registry, the GitHub tag source and the
// result store together. The CLI and the HTTP server both go through a
// Tracker.
package service

import (
	"context"
	"fmt"
	"maps"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/tsukumogami/verse/internal/config"
	"github.com/tsukumogami/verse/internal/log"
	"github.com/tsukumogami/verse/internal/projects"
	"github.com/tsukumogami/verse/internal/store"
	"github.com/tsukumogami/verse/internal/version"
)

// ErrUnknownProject is returned for slugs missing from the registry.
var ErrUnknownProject = projects.ErrUnknownProject

// Tracker answers version queries for registered projects and ad-hoc
// GitHub repositories.
type Tracker struct {
	registry *projects.Registry
	tags     *version.TagSource
	store    *store.Store
	ttl      time.Duration
	logger   log.Logger
	group    singleflight.Group

	onRefreshed func(RefreshResult)
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithStore enables read-through caching in s.
func WithStore(s *store.Store) Option {
	return func(t *Tracker) {
		t.store = s
	}
}

// WithTTL sets how long computed results stay cached.
func WithTTL(ttl time.Duration) Option {
	return func(t *Tracker) {
		if ttl > 0 {
			t.ttl = ttl
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(t *Tracker) {
		t.logger = l
	}
}

// WithRefreshProgress calls fn as each project finishes refreshing. fn may
// be called from several goroutines at once.
func WithRefreshProgress(fn func(RefreshResult)) Option {
	return func(t *Tracker) {
		t.onRefreshed = fn
	}
}

// New creates a Tracker over registry, reading tags through tags.
func New(registry *projects.Registry, tags *version.TagSource, opts ...Option) *Tracker {
	t := &Tracker{
		registry: registry,
		tags:     tags,
		ttl:      config.GetResultTTL(),
		logger:   log.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Projects returns the registered projects sorted by slug.
func (t *Tracker) Projects() []projects.Definition {
	return t.registry.All()
}

// Lookup returns the registered project for slug.
func (t *Tracker) Lookup(slug string) (projects.Definition, error) {
	def, ok := t.registry.Lookup(slug)
	if !ok {
		return projects.Definition{}, fmt.Errorf("%w: %s", ErrUnknownProject, slug)
	}
	return def, nil
}

// Latest returns the latest stable version of a registered project.
func (t *Tracker) Latest(ctx context.Context, slug string) (string, error) {
	return readThrough(ctx, t, slug, store.LatestVersionKey, (*version.Checker).Latest)
}

// LatestByMajor returns the latest version per major line.
func (t *Tracker) LatestByMajor(ctx context.Context, slug string) (map[string]string, error) {
	return readThrough(ctx, t, slug, store.LatestMajorVersionsKey, (*version.Checker).LatestByMajor)
}

// LatestByMinor returns the latest version per minor line.
func (t *Tracker) LatestByMinor(ctx context.Context, slug string) (map[string]string, error) {
	return readThrough(ctx, t, slug, store.LatestMinorVersionsKey, (*version.Checker).LatestByMinor)
}

// Checker builds a checker for a registered project.
func (t *Tracker) Checker(slug string) (*version.Checker, error) {
	return t.registry.Checker(slug, t.tags)
}

// GitHub returns an uncached checker for an arbitrary GitHub repository.
// Tags are parsed as-is.
func (t *Tracker) GitHub(owner, repo string) (*version.Checker, error) {
	repository := version.RepositoryURL(owner, repo)
	if _, _, err := version.ParseRepositoryURL(repository); err != nil {
		return nil, err
	}
	return version.NewGitHubChecker(version.Project{
		Name:       owner + "/" + repo,
		Repository: repository,
	}, t.tags, version.Identity), nil
}

// readThrough serves a cached result when the store has one, and otherwise
// computes it once for all concurrent callers and stores it. Store failures
// are logged and never fail the query.
//
// The shared computation is detached from any one caller's context and
// bounded by the API timeout instead. Each caller stops waiting when its
// own ctx is done.
func readThrough[T any](
	ctx context.Context,
	t *Tracker,
	slug string,
	keyFn func(string) (string, error),
	compute func(*version.Checker, context.Context) (T, error),
) (T, error) {
	var zero T

	c, err := t.Checker(slug)
	if err != nil {
		return zero, err
	}
	key, err := keyFn(slug)
	if err != nil {
		return zero, err
	}

	if t.store != nil {
		var cached T
		ok, err := t.store.Get(ctx, key, &cached)
		if err != nil {
			t.logger.Warn("result cache read failed", "key", key, "error", err)
		} else if ok {
			t.logger.Debug("result cache hit", "key", key)
			return cached, nil
		}
	}

	ch := t.group.DoChan(key, func() (any, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), config.GetAPITimeout())
		defer cancel()

		result, err := compute(c, ctx)
		if err != nil {
			return nil, err
		}
		t.put(ctx, key, result)
		return result, nil
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		if res.Shared {
			t.logger.Debug("joined in-flight computation", "key", key)
		}
		return cloneResult(res.Val.(T)), nil
	}
}

// cloneResult copies grouped maps so callers sharing a computation never
// share a map.
func cloneResult[T any](v T) T {
	if m, ok := any(v).(map[string]string); ok {
		return any(maps.Clone(m)).(T)
	}
	return v
}

func (t *Tracker) put(ctx context.Context, key string, value any) {
	if t.store == nil {
		return
	}
	if err := t.store.Put(ctx, key, value, t.ttl); err != nil {
		t.logger.Warn("result cache write failed", "key", key, "error", err)
	}
}
