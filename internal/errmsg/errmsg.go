// Package errmsg formats verse errors with possible causes and actionable
// suggestions for the command line.
package errmsg

import (
	"errors"
	"fmt"
	"io"
	"net"
	"strings"

	"github.com/tsukumogami/verse/internal/projects"
	"github.com/tsukumogami/verse/internal/version"
)

// ErrorContext provides additional context for error formatting
type ErrorContext struct {
	Project string // The project slug or owner/repo being checked
}

func (c *ErrorContext) project() string {
	if c == nil || c.Project == "" {
		return "<project>"
	}
	return c.Project
}

// Fprint writes the formatted error to w.
func Fprint(w io.Writer, err error) {
	FprintContext(w, err, nil)
}

// FprintContext writes the formatted error to w, prefixed with "Error: ".
func FprintContext(w io.Writer, err error, ctx *ErrorContext) {
	if err == nil {
		return
	}
	msg := Format(err, ctx)
	fmt.Fprintf(w, "Error: %s", msg)
	if !strings.HasSuffix(msg, "\n") {
		fmt.Fprintln(w)
	}
}

// Format returns a formatted error message with possible causes and suggestions.
// The context parameter is optional - pass nil for generic formatting.
func Format(err error, ctx *ErrorContext) string {
	if err == nil {
		return ""
	}

	errMsg := err.Error()

	var rateLimitErr *version.GitHubRateLimitError
	if errors.As(err, &rateLimitErr) {
		return formatGitHubRateLimit(rateLimitErr)
	}

	var orderingErr *version.OrderingError
	if errors.As(err, &orderingErr) {
		return formatOrderingError(orderingErr)
	}

	if errors.Is(err, projects.ErrUnknownProject) {
		return formatUnknownProject(errMsg, ctx)
	}

	if errors.Is(err, version.ErrNoVersions) {
		return formatNoVersions(errMsg, ctx)
	}

	var resolverErr *version.ResolverError
	if errors.As(err, &resolverErr) {
		return formatResolverError(resolverErr, ctx)
	}

	if isRateLimitError(errMsg) {
		return formatRateLimitError(errMsg)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return formatNetworkError(netErr)
	}

	if isNetworkError(errMsg) {
		return formatGenericNetworkError(errMsg)
	}

	if isPermissionError(errMsg) {
		return formatPermissionError(errMsg)
	}

	return errMsg
}

type report struct {
	sb strings.Builder
}

func newReport(msg string) *report {
	r := &report{}
	r.sb.WriteString(msg)
	r.sb.WriteString("\n")
	return r
}

func (r *report) section(title string, lines ...string) {
	if len(lines) == 0 {
		return
	}
	r.sb.WriteString("\n" + title + ":\n")
	for _, l := range lines {
		r.sb.WriteString("  - " + l + "\n")
	}
}

func (r *report) String() string { return r.sb.String() }

func formatResolverError(err *version.ResolverError, ctx *ErrorContext) string {
	r := newReport(err.Error())

	switch err.Type {
	case version.ErrTypeNotFound:
		r.section("Possible causes",
			"The repository does not exist or was renamed",
			"The repository is private",
		)
		r.section("Suggestions",
			"Check the repository URL in the project catalog",
			"Set GITHUB_TOKEN if the repository is private",
		)

	case version.ErrTypeValidation:
		r.section("Possible causes",
			"The repository URL is not of the form https://github.com/<owner>/<repo>",
			"The version constraint could not be parsed",
		)
		r.section("Suggestions",
			fmt.Sprintf("Run 'verse list' to see how %s is configured", ctx.project()),
			"Use constraints like '>= 1.2, < 2'",
		)

	case version.ErrTypeRateLimit:
		r.section("Possible causes",
			"Too many requests to the GitHub API",
		)
		r.section("Suggestions",
			"Wait a few minutes before retrying",
			"Set GITHUB_TOKEN to increase the rate limit",
		)

	case version.ErrTypeTimeout, version.ErrTypeDNS, version.ErrTypeConnection, version.ErrTypeTLS, version.ErrTypeNetwork:
		r.section("Possible causes",
			"Network connectivity issue",
			"GitHub API temporarily unavailable",
			"Firewall or proxy blocking the connection",
		)
		suggestions := []string{"Check your internet connection"}
		if s := err.Suggestion(); s != "" {
			suggestions = append(suggestions, s)
		}
		suggestions = append(suggestions, "Try again in a few minutes")
		r.section("Suggestions", suggestions...)

	default:
		r.section("Suggestions", "Try again in a few minutes")
	}

	return r.String()
}

func formatGitHubRateLimit(err *version.GitHubRateLimitError) string {
	r := newReport(err.Error())
	causes := []string{"Too many requests to the GitHub API"}
	if !err.Authenticated {
		causes = append(causes, "Unauthenticated requests have lower limits")
	}
	r.section("Possible causes", causes...)
	r.section("Suggestions", strings.Split(strings.TrimSpace(err.Suggestion()), "\n")...)
	return r.String()
}

func formatOrderingError(err *version.OrderingError) string {
	r := newReport(err.Error())
	r.section("Possible causes",
		"The version comparator is not a total order over this input",
	)
	r.section("Suggestions",
		"Report the tags that triggered this so the ordering can be fixed",
	)
	return r.String()
}

func formatUnknownProject(errMsg string, ctx *ErrorContext) string {
	r := newReport(errMsg)
	r.section("Possible causes",
		"The project is not in the catalog",
		"Typo in the project slug",
	)
	r.section("Suggestions",
		"Run 'verse list' to see tracked projects",
		fmt.Sprintf("Use an owner/repo argument to check any GitHub repository, e.g. 'verse latest owner/%s'", ctx.project()),
		"Add a [[project]] entry to the catalog file set with 'verse config set catalog <path>'",
	)
	return r.String()
}

func formatNoVersions(errMsg string, ctx *ErrorContext) string {
	r := newReport(errMsg)
	r.section("Possible causes",
		"The repository has no tags that parse as versions",
		"Every tag is a pre-release",
		"The constraint excludes every version",
	)
	r.section("Suggestions",
		fmt.Sprintf("Run 'verse latest %s --prerelease' to include pre-releases", ctx.project()),
		"Check the project's normalization rules in the catalog",
	)
	return r.String()
}

func formatRateLimitError(errMsg string) string {
	r := newReport(errMsg)
	r.section("Possible causes",
		"Too many requests to the API",
		"Unauthenticated requests have lower limits",
	)
	r.section("Suggestions",
		"Set GITHUB_TOKEN environment variable to increase rate limit",
		"Wait a few minutes before retrying",
	)
	return r.String()
}

func formatNetworkError(err net.Error) string {
	r := newReport(err.Error())
	if err.Timeout() {
		r.section("Possible causes",
			"Request timed out",
			"Slow or unstable network connection",
			"Firewall or proxy blocking the connection",
		)
		r.section("Suggestions",
			"Check your internet connection",
			"Raise VERSE_API_TIMEOUT",
		)
		return r.String()
	}
	r.section("Possible causes",
		"Network connectivity issue",
		"DNS resolution failure",
		"Firewall or proxy blocking the connection",
	)
	r.section("Suggestions",
		"Check your internet connection",
		"Try again in a few minutes",
	)
	return r.String()
}

func formatGenericNetworkError(errMsg string) string {
	r := newReport(errMsg)
	r.section("Possible causes",
		"Network connectivity issue",
		"DNS resolution failure",
		"Service temporarily unavailable",
	)
	r.section("Suggestions",
		"Check your internet connection",
		"Try again in a few minutes",
	)
	return r.String()
}

func formatPermissionError(errMsg string) string {
	r := newReport(errMsg)
	r.section("Possible causes",
		"Insufficient permissions on the $VERSE_HOME directory",
		"File or directory owned by a different user",
	)
	r.section("Suggestions",
		"Check permissions on ~/.verse: ls -la ~/.verse",
		"Point VERSE_HOME at a writable directory",
	)
	return r.String()
}

// isRateLimitError checks if the error message indicates a rate limit
func isRateLimitError(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "rate limit") ||
		strings.Contains(lower, "rate-limit") ||
		strings.Contains(lower, "too many requests")
}

// isNetworkError checks if the error message indicates a network issue
func isNetworkError(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "connection refused") ||
		strings.Contains(lower, "connection reset") ||
		strings.Contains(lower, "no such host") ||
		strings.Contains(lower, "network is unreachable") ||
		strings.Contains(lower, "dial tcp") ||
		strings.Contains(lower, "timeout")
}

func isPermissionError(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "permission denied") ||
		strings.Contains(lower, "access denied") ||
		strings.Contains(lower, "operation not permitted")
}
