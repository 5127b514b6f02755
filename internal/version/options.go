package version

import (
	"net/http"

	"github.com/tsukumogami/verse/internal/log"
)

// Option configures a TagSource.
type Option func(*TagSource)

// WithHTTPClient sets the HTTP client used for GitHub requests.
// It takes precedence over WithToken.
func WithHTTPClient(client *http.Client) Option {
	return func(s *TagSource) {
		s.httpClient = client
	}
}

// WithToken authenticates GitHub requests with token.
func WithToken(token string) Option {
	return func(s *TagSource) {
		s.token = token
	}
}

// WithBaseURL sets a custom GitHub API URL for testing.
func WithBaseURL(url string) Option {
	return func(s *TagSource) {
		s.baseURL = url
	}
}

// WithPerPage sets the page size used when listing tags (1-100).
func WithPerPage(n int) Option {
	return func(s *TagSource) {
		if n > 0 && n <= 100 {
			s.perPage = n
		}
	}
}

// WithLogger sets the logger for skipped tags and fetch diagnostics.
func WithLogger(l log.Logger) Option {
	return func(s *TagSource) {
		s.logger = l
	}
}
