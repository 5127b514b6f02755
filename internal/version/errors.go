package version

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"
)

var (
	// ErrNotImplemented is returned when a Checker has no version source bound.
	// It signals a missing concrete implementation, never a runtime condition.
	ErrNotImplemented = errors.New("version source not implemented")

	// ErrNoVersions is returned when no selectable version could be resolved.
	ErrNoVersions = errors.New("no versions found")

	// ErrInvalidRepository is returned for repository URLs that are not of the
	// form https://github.com/<owner>/<repo>.
	ErrInvalidRepository = errors.New("invalid repository url")

	// ErrOrderingViolation is wrapped by OrderingError.
	ErrOrderingViolation = errors.New("version ordering violation")
)

// ErrorType classifies tag source errors for better handling
type ErrorType int

const (
	// ErrTypeNetwork indicates a generic network-related error (fallback when specific type is unknown)
	ErrTypeNetwork ErrorType = iota
	// ErrTypeNotFound indicates the repository was not found (HTTP 404)
	ErrTypeNotFound
	// ErrTypeValidation indicates invalid input, such as a malformed repository URL
	ErrTypeValidation
	// ErrTypeRateLimit indicates API rate limit exceeded
	ErrTypeRateLimit
	// ErrTypeTimeout indicates a request timeout
	ErrTypeTimeout
	// ErrTypeDNS indicates DNS resolution failure
	ErrTypeDNS
	// ErrTypeConnection indicates connection refused or reset
	ErrTypeConnection
	// ErrTypeTLS indicates TLS/SSL certificate errors
	ErrTypeTLS
)

// ResolverError provides structured error information for tag retrieval failures
type ResolverError struct {
	Type    ErrorType
	Source  string // Provider name (e.g., "github")
	Message string // Human-readable error message
	Err     error  // Underlying error (if any)
}

// Error implements the error interface
func (e *ResolverError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Source, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Source, e.Message)
}

// Unwrap returns the underlying error for error chain support
func (e *ResolverError) Unwrap() error {
	return e.Err
}

// Suggestion returns an actionable suggestion for the user based on the error type.
// Returns an empty string if no specific suggestion is available.
func (e *ResolverError) Suggestion() string {
	switch e.Type {
	case ErrTypeRateLimit:
		return "Wait a few minutes before trying again, or set GITHUB_TOKEN"
	case ErrTypeTimeout:
		return "Check your internet connection and try again"
	case ErrTypeDNS:
		return "Check your DNS settings and internet connection"
	case ErrTypeConnection:
		return "The service may be down or blocked. Check if you can access it in a browser"
	case ErrTypeTLS:
		return "There may be a certificate issue. Check your system time is correct"
	case ErrTypeNotFound:
		return "Verify the repository exists and is public"
	case ErrTypeValidation:
		return "Repository URLs must look like https://github.com/<owner>/<repo>"
	case ErrTypeNetwork:
		return "Check your internet connection and try again"
	default:
		return ""
	}
}

// ClassifyError examines an error and returns the most specific ErrorType.
// This function uses Go's error unwrapping to detect specific network error types.
func ClassifyError(err error) ErrorType {
	if err == nil {
		return ErrTypeNetwork
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTypeTimeout
	}

	// User interrupt
	if errors.Is(err, context.Canceled) {
		return ErrTypeNetwork
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsTimeout {
			return ErrTypeTimeout
		}
		return ErrTypeDNS
	}

	var certErr *tls.CertificateVerificationError
	if errors.As(err, &certErr) {
		return ErrTypeTLS
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Timeout() {
			return ErrTypeTimeout
		}
		var innerDNS *net.DNSError
		if errors.As(opErr.Err, &innerDNS) {
			return ErrTypeDNS
		}
		// Connection refused, reset, etc.
		return ErrTypeConnection
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return ErrTypeTimeout
		}
		msg := urlErr.Err.Error()
		if strings.Contains(msg, "certificate") ||
			strings.Contains(msg, "tls") ||
			strings.Contains(msg, "x509") {
			return ErrTypeTLS
		}
		return ClassifyError(urlErr.Err)
	}

	return ErrTypeNetwork
}

// WrapNetworkError wraps an error with the appropriate error type based on classification.
func WrapNetworkError(err error, source, message string) *ResolverError {
	return &ResolverError{
		Type:    ClassifyError(err),
		Source:  source,
		Message: message,
		Err:     err,
	}
}

// invalidRepository builds the validation error returned before any I/O.
func invalidRepository(repository string) *ResolverError {
	return &ResolverError{
		Type:    ErrTypeValidation,
		Source:  "github",
		Message: fmt.Sprintf("%q is not a GitHub repository url", repository),
		Err:     ErrInvalidRepository,
	}
}

// GitHubRateLimitError indicates the GitHub API rate limit was exceeded while
// listing tags.
type GitHubRateLimitError struct {
	Limit         int
	Remaining     int
	ResetTime     time.Time
	Authenticated bool
	Err           error
}

// Error implements the error interface.
func (e *GitHubRateLimitError) Error() string {
	auth := "unauthenticated"
	if e.Authenticated {
		auth = "authenticated"
	}
	return fmt.Sprintf("GitHub API rate limit exceeded (%d/%d requests used, %s) while listing tags; resets at %s",
		e.Limit-e.Remaining, e.Limit, auth, e.ResetTime.Format(time.Kitchen))
}

// Unwrap returns the underlying error.
func (e *GitHubRateLimitError) Unwrap() error {
	return e.Err
}

// RetryAfter returns the time left until the limit resets, never negative.
func (e *GitHubRateLimitError) RetryAfter(now time.Time) time.Duration {
	if d := e.ResetTime.Sub(now); d > 0 {
		return d
	}
	return 0
}

// Suggestion returns actionable steps for the user.
func (e *GitHubRateLimitError) Suggestion() string {
	minutes := int(e.RetryAfter(time.Now()).Minutes())
	if minutes < 1 {
		minutes = 1
	}
	suggestion := fmt.Sprintf("Try again in: %d minutes", minutes)
	if !e.Authenticated {
		suggestion += "\nOr set GITHUB_TOKEN for higher limits (5000 req/hour)"
	}
	return suggestion
}

// OrderingError reports that the grouping scan observed versions out of
// descending order after sorting them itself, which means the comparator
// is not a consistent total order. It is an internal invariant failure.
type OrderingError struct {
	Group    string // group key, empty for an adjacency violation
	Previous string
	Current  string
}

func (e *OrderingError) Error() string {
	if e.Group != "" {
		return fmt.Sprintf("%v: %s follows %s in finalized group %q", ErrOrderingViolation, e.Current, e.Previous, e.Group)
	}
	return fmt.Sprintf("%v: %s sorted after smaller %s", ErrOrderingViolation, e.Current, e.Previous)
}

// Unwrap returns ErrOrderingViolation.
func (e *OrderingError) Unwrap() error {
	return ErrOrderingViolation
}
