package secrets

// KeySpec defines how a secret is resolved.
type KeySpec struct {
	// EnvVars lists environment variables to check, in priority order.
	EnvVars []string

	// Desc is shown by `verse config list` and in error messages.
	Desc string
}

// GitHubToken is the secret used to authenticate GitHub API requests.
const GitHubToken = "github_token"

var knownKeys = map[string]KeySpec{
	GitHubToken: {
		EnvVars: []string{"GITHUB_TOKEN", "GH_TOKEN"},
		Desc:    "GitHub token for tag listing (raises the rate limit to 5000 req/hour)",
	},
}
