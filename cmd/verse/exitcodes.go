package main

import (
	"context"
	"errors"
	"os"

	"github.com/tsukumogami/verse/internal/projects"
	"github.com/tsukumogami/verse/internal/version"
)

// Exit codes for different error types.
// These enable scripts to distinguish between failure modes.
const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0

	// ExitGeneral indicates a general error
	ExitGeneral = 1

	// ExitUsage indicates invalid arguments or usage error
	ExitUsage = 2

	// ExitProjectNotFound indicates the slug is not in the catalog or the
	// repository does not exist
	ExitProjectNotFound = 3

	// ExitNoVersions indicates no selectable version was found
	ExitNoVersions = 4

	// ExitNetwork indicates a network error talking to GitHub
	ExitNetwork = 5

	// ExitRateLimited indicates the GitHub API rate limit was hit
	ExitRateLimited = 6

	// ExitPartialFailure indicates some projects failed during refresh
	ExitPartialFailure = 7

	// ExitInterrupted indicates the command was cancelled by a signal
	ExitInterrupted = 130
)

// exitCodeFor maps an error returned by a command onto an exit code.
func exitCodeFor(err error) int {
	var rateLimit *version.GitHubRateLimitError
	var resolver *version.ResolverError

	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, context.Canceled):
		return ExitInterrupted
	case errors.Is(err, projects.ErrUnknownProject):
		return ExitProjectNotFound
	case errors.Is(err, version.ErrNoVersions):
		return ExitNoVersions
	case errors.As(err, &rateLimit):
		return ExitRateLimited
	case errors.As(err, &resolver):
		switch resolver.Type {
		case version.ErrTypeNotFound:
			return ExitProjectNotFound
		case version.ErrTypeValidation:
			return ExitUsage
		case version.ErrTypeRateLimit:
			return ExitRateLimited
		}
		return ExitNetwork
	case errors.Is(err, errPartialRefresh):
		return ExitPartialFailure
	case isUsageError(err):
		return ExitUsage
	}
	return ExitGeneral
}

// exitWithCode exits with the specified exit code
func exitWithCode(code int) {
	os.Exit(code)
}
