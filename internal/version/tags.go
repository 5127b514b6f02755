package version

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/google/go-github/v57/github"

	"github.com/tsukumogami/verse/internal/log"
	"github.com/tsukumogami/verse/internal/pep440"
	"github.com/tsukumogami/verse/internal/secrets"
)

// githubRepoURL matches https://github.com/<owner>/<repo>, optionally
// followed by ".git" or a trailing slash.
var githubRepoURL = regexp.MustCompile(`^https://github\.com/([A-Za-z0-9][-A-Za-z0-9_.]*)/([-A-Za-z0-9_.]+?)(?:\.git)?/?$`)

// ParseRepositoryURL extracts owner and repository from a GitHub URL.
// Any other shape fails with a validation *ResolverError wrapping
// ErrInvalidRepository.
func ParseRepositoryURL(repository string) (owner, repo string, err error) {
	m := githubRepoURL.FindStringSubmatch(repository)
	if m == nil || strings.Trim(m[1], ".") == "" || strings.Trim(m[2], ".") == "" {
		return "", "", invalidRepository(repository)
	}
	return m[1], m[2], nil
}

// RepositoryURL builds the canonical GitHub URL for owner/repo.
func RepositoryURL(owner, repo string) string {
	return fmt.Sprintf("https://github.com/%s/%s", owner, repo)
}

// TagSource streams tag names from the GitHub API and turns them into
// versions. It is safe for concurrent use.
type TagSource struct {
	client        *github.Client
	httpClient    *http.Client
	token         string
	baseURL       string
	perPage       int
	authenticated bool
	logger        log.Logger
}

// NewTagSource creates a tag source. Without options it talks to
// api.github.com, authenticated when a GitHub token is configured
// (GITHUB_TOKEN, GH_TOKEN or secrets.github_token in config.toml).
func NewTagSource(opts ...Option) *TagSource {
	s := &TagSource{
		token:   secrets.Lookup(secrets.GitHubToken),
		perPage: 100,
		logger:  log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.httpClient == nil {
		s.httpClient = NewHTTPClient(s.token)
	}
	s.authenticated = isAuthenticated(s.httpClient)

	s.client = github.NewClient(s.httpClient)
	if s.baseURL != "" {
		base := s.baseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		if u, err := url.Parse(base); err == nil {
			s.client.BaseURL = u
		}
	}

	return s
}

// FetchTags validates repository and returns a lazy sequence of the
// versions found in its tags, in the order GitHub lists them.
//
// The repository URL is checked before any request is made. Pages are
// requested only as the consumer advances, and breaking out of the loop
// stops further requests. Each tag name goes through normalize and then
// the version parser; tags that still don't parse are skipped. A request
// failure is yielded once as a typed error and ends the sequence.
func (s *TagSource) FetchTags(ctx context.Context, repository string, normalize NormalizeFunc) (iter.Seq2[pep440.Version, error], error) {
	owner, repo, err := ParseRepositoryURL(repository)
	if err != nil {
		return nil, err
	}
	if normalize == nil {
		normalize = Identity
	}
	logger := s.logger.With("repo", owner+"/"+repo)

	return func(yield func(pep440.Version, error) bool) {
		opts := &github.ListOptions{PerPage: s.perPage}
		for {
			tags, resp, err := s.client.Repositories.ListTags(ctx, owner, repo, opts)
			if err != nil {
				yield(pep440.Version{}, s.wrapError(err, owner, repo))
				return
			}
			logger.Debug("listed tags", "page", opts.Page, "count", len(tags))

			for _, tag := range tags {
				name := tag.GetName()
				v, err := pep440.Parse(normalize(name))
				if err != nil {
					logger.Debug("skipping tag", "tag", name, "error", err)
					continue
				}
				if !yield(v, nil) {
					return
				}
			}

			if resp == nil || resp.NextPage == 0 {
				return
			}
			opts.Page = resp.NextPage
		}
	}, nil
}

// Versions collects every version FetchTags yields.
func (s *TagSource) Versions(ctx context.Context, repository string, normalize NormalizeFunc) ([]pep440.Version, error) {
	seq, err := s.FetchTags(ctx, repository, normalize)
	if err != nil {
		return nil, err
	}

	var versions []pep440.Version
	for v, err := range seq {
		if err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, nil
}

// GitHubSource returns a Source reading repository's tags through tags.
func GitHubSource(tags *TagSource, repository string, normalize NormalizeFunc) Source {
	return SourceFunc(func(ctx context.Context) ([]pep440.Version, error) {
		return tags.Versions(ctx, repository, normalize)
	})
}

// NewGitHubChecker builds a Checker whose versions come from project's
// repository tags.
func NewGitHubChecker(project Project, tags *TagSource, normalize NormalizeFunc) *Checker {
	return &Checker{
		Project: project,
		Source:  GitHubSource(tags, project.Repository, normalize),
	}
}

// wrapError converts go-github failures into the package's typed errors.
func (s *TagSource) wrapError(err error, owner, repo string) error {
	var rateLimitErr *github.RateLimitError
	if errors.As(err, &rateLimitErr) {
		return &GitHubRateLimitError{
			Limit:         rateLimitErr.Rate.Limit,
			Remaining:     rateLimitErr.Rate.Remaining,
			ResetTime:     rateLimitErr.Rate.Reset.Time,
			Authenticated: s.authenticated,
			Err:           err,
		}
	}

	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return &ResolverError{
			Type:    ErrTypeRateLimit,
			Source:  "github",
			Message: fmt.Sprintf("secondary rate limit while listing tags for %s/%s", owner, repo),
			Err:     err,
		}
	}

	var respErr *github.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil && respErr.Response.StatusCode == http.StatusNotFound {
		return &ResolverError{
			Type:    ErrTypeNotFound,
			Source:  "github",
			Message: fmt.Sprintf("repository %s/%s not found", owner, repo),
			Err:     err,
		}
	}

	return WrapNetworkError(err, "github", fmt.Sprintf("failed to list tags for %s/%s", owner, repo))
}
