package version

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tsukumogami/verse/internal/log"
	"github.com/tsukumogami/verse/internal/pep440"
)

// newTagServer serves tags for /repos/acme/widget/tags in pages of perPage,
// linking pages the way the GitHub API does.
func newTagServer(t *testing.T, tags []string, perPage int, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		if r.URL.Path != "/repos/acme/widget/tags" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message": "Not Found"}`))
			return
		}

		page := 1
		if p := r.URL.Query().Get("page"); p != "" {
			page, _ = strconv.Atoi(p)
		}
		start := min((page-1)*perPage, len(tags))
		end := min(start+perPage, len(tags))

		if end < len(tags) {
			next := fmt.Sprintf("%s/repos/acme/widget/tags?per_page=%d&page=%d", srv.URL, perPage, page+1)
			w.Header().Set("Link", fmt.Sprintf(`<%s>; rel="next"`, next))
		}

		body := make([]map[string]string, 0, end-start)
		for _, name := range tags[start:end] {
			body = append(body, map[string]string{"name": name})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestTagSource(srv *httptest.Server, perPage int) *TagSource {
	return NewTagSource(
		WithHTTPClient(srv.Client()),
		WithBaseURL(srv.URL),
		WithPerPage(perPage),
		WithLogger(log.NewNoop()),
	)
}

func TestParseRepositoryURL(t *testing.T) {
	tests := []struct {
		input string
		owner string
		repo  string
	}{
		{"https://github.com/nginx/nginx", "nginx", "nginx"},
		{"https://github.com/golang/go/", "golang", "go"},
		{"https://github.com/docker/docker-ce.git", "docker", "docker-ce"},
		{"https://github.com/pallets/flask.ext", "pallets", "flask.ext"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			owner, repo, err := ParseRepositoryURL(tt.input)
			if err != nil {
				t.Fatalf("ParseRepositoryURL(%q) failed: %v", tt.input, err)
			}
			if owner != tt.owner || repo != tt.repo {
				t.Errorf("ParseRepositoryURL(%q) = %q, %q; want %q, %q", tt.input, owner, repo, tt.owner, tt.repo)
			}
		})
	}
}

func TestParseRepositoryURL_Invalid(t *testing.T) {
	inputs := []string{
		"",
		"http://example.com",
		"http://github.com/nginx/nginx",
		"https://gitlab.com/nginx/nginx",
		"https://github.com/nginx",
		"https://github.com/nginx/nginx/tree/master",
		"github.com/nginx/nginx",
		"https://github.com/nginx/.",
		"https://github.com/nginx/..",
		"https://github.com/nginx/...git",
		"https://github.com/nginx/../",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			_, _, err := ParseRepositoryURL(input)
			if !errors.Is(err, ErrInvalidRepository) {
				t.Fatalf("ParseRepositoryURL(%q) error = %v, want ErrInvalidRepository", input, err)
			}
			var re *ResolverError
			if !errors.As(err, &re) || re.Type != ErrTypeValidation {
				t.Errorf("ParseRepositoryURL(%q) error = %#v, want validation ResolverError", input, err)
			}
		})
	}
}

func TestFetchTags_InvalidURLMakesNoRequest(t *testing.T) {
	var hits atomic.Int32
	srv := newTagServer(t, []string{"1.0"}, 10, &hits)
	src := newTestTagSource(srv, 10)

	seq, err := src.FetchTags(context.Background(), "http://example.com", nil)
	if !errors.Is(err, ErrInvalidRepository) {
		t.Fatalf("FetchTags() error = %v, want ErrInvalidRepository", err)
	}
	if seq != nil {
		t.Error("FetchTags() returned a sequence alongside an error")
	}
	if n := hits.Load(); n != 0 {
		t.Errorf("server received %d requests, want 0", n)
	}
}

func TestFetchTags_EndToEnd(t *testing.T) {
	raw := []string{
		"17.03.2-rc1", "17.03.1", "2.1-foobar", "2.0.1", "2", "v1.2",
		"v1.1", "v1", "v0.2.1", "v0.2", "0.1.0", "not a version",
	}
	srv := newTagServer(t, raw, 5, nil)
	src := newTestTagSource(srv, 5)

	got, err := src.Versions(context.Background(), "https://github.com/acme/widget", Identity)
	if err != nil {
		t.Fatalf("Versions() failed: %v", err)
	}

	want := parseAll(t, "17.3.2rc1", "17.3.1", "2.0.1", "2.0", "1.2", "1.1", "1.0", "0.2.1", "0.2", "0.1.0")
	if len(got) != len(want) {
		t.Fatalf("Versions() returned %d versions %v, want %d", len(got), Strings(got), len(want))
	}
	for _, w := range want {
		found := false
		for _, g := range got {
			if g.Equal(w) {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Versions() missing %s in %v", w, Strings(got))
		}
	}
}

func TestFetchTags_Normalize(t *testing.T) {
	srv := newTagServer(t, []string{"release-1.13.1", "release-1.12.0", "stable-1.0"}, 10, nil)
	src := newTestTagSource(srv, 10)

	got, err := src.Versions(context.Background(), "https://github.com/acme/widget", StripPrefix("release-"))
	if err != nil {
		t.Fatalf("Versions() failed: %v", err)
	}
	want := []string{"1.13.1", "1.12.0"}
	if s := Strings(got); fmt.Sprint(s) != fmt.Sprint(want) {
		t.Errorf("Versions() = %v, want %v", s, want)
	}
}

func TestFetchTags_Lazy(t *testing.T) {
	var hits atomic.Int32
	tags := []string{"1.5", "1.4", "1.3", "1.2", "1.1", "1.0"}
	srv := newTagServer(t, tags, 2, &hits)
	src := newTestTagSource(srv, 2)

	seq, err := src.FetchTags(context.Background(), "https://github.com/acme/widget", nil)
	if err != nil {
		t.Fatalf("FetchTags() failed: %v", err)
	}
	if n := hits.Load(); n != 0 {
		t.Fatalf("FetchTags() made %d requests before iteration, want 0", n)
	}

	var first []pep440.Version
	for v, err := range seq {
		if err != nil {
			t.Fatalf("iteration failed: %v", err)
		}
		first = append(first, v)
		if len(first) == 3 {
			break
		}
	}

	if n := hits.Load(); n != 2 {
		t.Errorf("server received %d requests for 3 versions, want 2", n)
	}
	if got := Strings(first); fmt.Sprint(got) != "[1.5 1.4 1.3]" {
		t.Errorf("first versions = %v, want [1.5 1.4 1.3]", got)
	}
}

func TestFetchTags_NotFound(t *testing.T) {
	srv := newTagServer(t, nil, 10, nil)
	src := newTestTagSource(srv, 10)

	_, err := src.Versions(context.Background(), "https://github.com/acme/missing", nil)
	var re *ResolverError
	if !errors.As(err, &re) {
		t.Fatalf("Versions() error = %v, want *ResolverError", err)
	}
	if re.Type != ErrTypeNotFound {
		t.Errorf("error type = %v, want ErrTypeNotFound", re.Type)
	}
}

func TestFetchTags_RateLimited(t *testing.T) {
	reset := time.Now().Add(30 * time.Minute).Unix()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Limit", "60")
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(reset, 10))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message": "API rate limit exceeded for 203.0.113.7."}`))
	}))
	defer srv.Close()
	src := newTestTagSource(srv, 10)

	_, err := src.Versions(context.Background(), "https://github.com/acme/widget", nil)
	var rle *GitHubRateLimitError
	if !errors.As(err, &rle) {
		t.Fatalf("Versions() error = %v, want *GitHubRateLimitError", err)
	}
	if rle.Limit != 60 || rle.Remaining != 0 {
		t.Errorf("rate = %d/%d, want 0/60", rle.Remaining, rle.Limit)
	}
	if rle.Authenticated {
		t.Error("Authenticated = true for a client without a token")
	}
	if rle.RetryAfter(time.Now()) <= 0 {
		t.Error("RetryAfter() should be positive before the reset time")
	}
}

func TestFetchTags_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()
	src := newTestTagSource(srv, 10)

	_, err := src.Versions(context.Background(), "https://github.com/acme/widget", nil)
	var re *ResolverError
	if !errors.As(err, &re) {
		t.Fatalf("Versions() error = %v, want *ResolverError", err)
	}
	if re.Source != "github" {
		t.Errorf("Source = %q, want github", re.Source)
	}
}

func TestNewGitHubChecker(t *testing.T) {
	srv := newTagServer(t, []string{"v17.03.0-ce", "v17.03.1-ce", "v17.03.2-ce-rc1", "v1.13.1"}, 10, nil)
	src := newTestTagSource(srv, 10)

	c := NewGitHubChecker(Project{
		Name:       "Widget",
		Slug:       "widget",
		Repository: "https://github.com/acme/widget",
	}, src, Remove("-ce"))

	latest, err := c.Latest(context.Background())
	if err != nil {
		t.Fatalf("Latest() failed: %v", err)
	}
	if latest != "17.3.1" {
		t.Errorf("Latest() = %q, want %q", latest, "17.3.1")
	}
}

func TestIsAuthenticated(t *testing.T) {
	if isAuthenticated(NewHTTPClient("")) {
		t.Error("client without token reported as authenticated")
	}
	if !isAuthenticated(NewHTTPClient("ghp_example")) {
		t.Error("client with token reported as unauthenticated")
	}
}
