package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsukumogami/verse/internal/log"
	"github.com/tsukumogami/verse/internal/projects"
	"github.com/tsukumogami/verse/internal/store"
	"github.com/tsukumogami/verse/internal/version"
)

// fakeGitHub serves /repos/{owner}/{repo}/tags from a fixed table.
// When gate is set, each request signals arrived and then blocks until
// gate is closed.
type fakeGitHub struct {
	repos   map[string][]string
	hits    atomic.Int32
	gate    chan struct{}
	arrived chan struct{}
}

func (f *fakeGitHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.hits.Add(1)
	if f.gate != nil {
		f.arrived <- struct{}{}
		<-f.gate
	}
	path := strings.TrimPrefix(r.URL.Path, "/repos/")
	repo := strings.TrimSuffix(path, "/tags")
	tags, ok := f.repos[repo]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message": "Not Found"}`))
		return
	}

	body := make([]map[string]string, 0, len(tags))
	for _, name := range tags {
		body = append(body, map[string]string{"name": name})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}

func newTestTracker(t *testing.T, repos map[string][]string, opts ...Option) (*Tracker, *fakeGitHub) {
	t.Helper()
	gh := &fakeGitHub{repos: repos}
	return newTrackerFor(t, gh, opts...), gh
}

func newTrackerFor(t *testing.T, gh *fakeGitHub, opts ...Option) *Tracker {
	t.Helper()
	srv := httptest.NewServer(gh)
	t.Cleanup(srv.Close)

	reg, err := projects.NewRegistry(
		projects.Definition{
			Project: version.Project{
				Name:       "Nginx",
				Slug:       "nginx",
				Homepage:   "http://nginx.org/",
				Repository: "https://github.com/nginx/nginx",
			},
			Normalize: version.StripPrefix("release-"),
		},
		projects.Definition{
			Project: version.Project{
				Name:       "Docker",
				Slug:       "docker",
				Homepage:   "https://www.docker.com/",
				Repository: "https://github.com/docker/docker",
			},
			Normalize: version.Remove("-ce"),
		},
		projects.Definition{
			Project: version.Project{
				Name:       "Ghost",
				Slug:       "ghost",
				Repository: "https://github.com/acme/ghost",
			},
		},
	)
	require.NoError(t, err)

	tags := version.NewTagSource(
		version.WithHTTPClient(srv.Client()),
		version.WithBaseURL(srv.URL),
		version.WithLogger(log.NewNoop()),
	)
	opts = append([]Option{WithLogger(log.NewNoop())}, opts...)
	return New(reg, tags, opts...)
}

var testRepos = map[string][]string{
	"nginx/nginx": {"release-1.13.1", "release-1.13.0", "release-1.12.0", "release-1.11.13", "release-0.8.55"},
	"docker/docker": {
		"v17.03.2-ce-rc1", "v17.03.1-ce", "v17.03.0-ce", "v1.13.1", "v1.13.0", "v1.12.6",
	},
	"acme/widget": {"v2.0.0", "v1.4.0", "v1.3.9"},
}

func TestTracker_Projects(t *testing.T) {
	tr, _ := newTestTracker(t, testRepos)

	defs := tr.Projects()
	require.Len(t, defs, 3)
	assert.Equal(t, "docker", defs[0].Slug)
	assert.Equal(t, "ghost", defs[1].Slug)
	assert.Equal(t, "nginx", defs[2].Slug)
}

func TestTracker_Views(t *testing.T) {
	tr, _ := newTestTracker(t, testRepos)
	ctx := context.Background()

	latest, err := tr.Latest(ctx, "docker")
	require.NoError(t, err)
	assert.Equal(t, "17.3.1", latest)

	major, err := tr.LatestByMajor(ctx, "nginx")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"1": "1.13.1", "0": "0.8.55"}, major)

	minor, err := tr.LatestByMinor(ctx, "docker")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"17.3": "17.3.1", "1.13": "1.13.1", "1.12": "1.12.6"}, minor)
}

func TestTracker_UnknownProject(t *testing.T) {
	tr, gh := newTestTracker(t, testRepos)

	_, err := tr.Latest(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrUnknownProject)
	assert.Zero(t, gh.hits.Load())

	_, err = tr.Lookup("nope")
	assert.ErrorIs(t, err, ErrUnknownProject)
}

func TestTracker_UpstreamNotFound(t *testing.T) {
	tr, _ := newTestTracker(t, testRepos)

	_, err := tr.Latest(context.Background(), "ghost")
	var re *version.ResolverError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, version.ErrTypeNotFound, re.Type)
}

func TestTracker_ReadThrough(t *testing.T) {
	s, err := store.Open(filepath.Join(t.TempDir(), "results.db"))
	require.NoError(t, err)
	defer s.Close()

	tr, gh := newTestTracker(t, testRepos, WithStore(s), WithTTL(time.Hour))
	ctx := context.Background()

	first, err := tr.Latest(ctx, "nginx")
	require.NoError(t, err)
	second, err := tr.Latest(ctx, "nginx")
	require.NoError(t, err)

	assert.Equal(t, "1.13.1", first)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), gh.hits.Load(), "second call should be served from the store")

	var cached string
	ok, err := s.Get(ctx, "nginx_latest_version", &cached)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "1.13.1", cached)
}

func TestTracker_GitHub(t *testing.T) {
	tr, _ := newTestTracker(t, testRepos)

	c, err := tr.GitHub("acme", "widget")
	require.NoError(t, err)

	latest, err := c.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2.0.0", latest)

	_, err = tr.GitHub("acme", "bad/name")
	assert.ErrorIs(t, err, version.ErrInvalidRepository)

	_, err = tr.GitHub("acme", "..")
	assert.ErrorIs(t, err, version.ErrInvalidRepository)
}

func TestTracker_Refresh(t *testing.T) {
	s, err := store.Open(filepath.Join(t.TempDir(), "results.db"))
	require.NoError(t, err)
	defer s.Close()

	tr, _ := newTestTracker(t, testRepos, WithStore(s))
	ctx := context.Background()

	results, err := tr.Refresh(ctx, nil, 2)
	require.NoError(t, err)
	require.Len(t, results, 3)

	bySlug := make(map[string]RefreshResult)
	for _, r := range results {
		bySlug[r.Slug] = r
	}

	assert.NoError(t, bySlug["docker"].Err)
	assert.Equal(t, "17.3.1", bySlug["docker"].Latest)
	assert.Equal(t, map[string]string{"17": "17.3.1", "1": "1.13.1"}, bySlug["docker"].Major)

	assert.NoError(t, bySlug["nginx"].Err)
	assert.Equal(t, "1.13.1", bySlug["nginx"].Latest)

	assert.Error(t, bySlug["ghost"].Err, "a failing project is reported, not fatal")

	var minor map[string]string
	ok, err := s.Get(ctx, "nginx_latest_minor_versions", &minor)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "1.11.13", minor["1.11"])
}

func TestTracker_RefreshCanceled(t *testing.T) {
	tr, _ := newTestTracker(t, testRepos)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := tr.Refresh(ctx, nil, 2)
	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, results, 3)
	for _, r := range results {
		assert.Error(t, r.Err, r.Slug)
	}
}

func TestTracker_RefreshUnknown(t *testing.T) {
	tr, gh := newTestTracker(t, testRepos)

	_, err := tr.Refresh(context.Background(), []string{"nginx", "nope"}, 1)
	assert.ErrorIs(t, err, ErrUnknownProject)
	assert.Zero(t, gh.hits.Load())
}

func TestTracker_RefreshProgress(t *testing.T) {
	var done atomic.Int32
	var failed atomic.Int32
	tr, _ := newTestTracker(t, testRepos, WithRefreshProgress(func(r RefreshResult) {
		done.Add(1)
		if r.Err != nil {
			failed.Add(1)
		}
	}))

	_, err := tr.Refresh(context.Background(), nil, 3)
	require.NoError(t, err)
	assert.EqualValues(t, 3, done.Load())
	assert.EqualValues(t, 1, failed.Load())
}

// newHeldTracker returns a tracker whose upstream blocks every request
// until release runs.
func newHeldTracker(t *testing.T) (tr *Tracker, gh *fakeGitHub, release func()) {
	t.Helper()
	gh = &fakeGitHub{
		repos:   testRepos,
		gate:    make(chan struct{}),
		arrived: make(chan struct{}, 8),
	}
	tr = newTrackerFor(t, gh)
	var once sync.Once
	release = func() { once.Do(func() { close(gh.gate) }) }
	// Registered after the server so it runs first and unblocks handlers.
	t.Cleanup(release)
	return tr, gh, release
}

type viewResult struct {
	versions map[string]string
	err      error
}

func TestTracker_CanceledCallerDoesNotFailOthers(t *testing.T) {
	tr, gh, release := newHeldTracker(t)

	ctxA, cancelA := context.WithCancel(context.Background())
	doneA := make(chan error, 1)
	go func() {
		_, err := tr.LatestByMajor(ctxA, "nginx")
		doneA <- err
	}()
	<-gh.arrived

	doneB := make(chan viewResult, 1)
	go func() {
		m, err := tr.LatestByMajor(context.Background(), "nginx")
		doneB <- viewResult{m, err}
	}()
	time.Sleep(50 * time.Millisecond)

	cancelA()
	select {
	case err := <-doneA:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("canceled caller did not return")
	}

	release()
	select {
	case res := <-doneB:
		require.NoError(t, res.err)
		assert.Equal(t, map[string]string{"1": "1.13.1", "0": "0.8.55"}, res.versions)
	case <-time.After(5 * time.Second):
		t.Fatal("waiting caller did not return")
	}
}

func TestTracker_SharedResultsAreCopies(t *testing.T) {
	tr, gh, release := newHeldTracker(t)

	results := make(chan viewResult, 2)
	for range 2 {
		go func() {
			m, err := tr.LatestByMinor(context.Background(), "nginx")
			results <- viewResult{m, err}
		}()
	}
	<-gh.arrived
	time.Sleep(50 * time.Millisecond)
	release()

	first, second := <-results, <-results
	require.NoError(t, first.err)
	require.NoError(t, second.err)
	assert.Equal(t, int32(1), gh.hits.Load(), "concurrent callers should share one fetch")

	first.versions["1.13"] = "changed"
	assert.Equal(t, "1.13.1", second.versions["1.13"])
}
