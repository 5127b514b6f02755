package version

import (
	"net/http"

	"golang.org/x/oauth2"

	"github.com/tsukumogami/verse/internal/buildinfo"
	"github.com/tsukumogami/verse/internal/config"
	"github.com/tsukumogami/verse/internal/httputil"
)

// NewHTTPClient creates the HTTP client used for GitHub API requests.
// The timeout is configurable via VERSE_API_TIMEOUT (default: 30s).
// When token is non-empty, requests are authenticated with it.
func NewHTTPClient(token string) *http.Client {
	client := httputil.NewSecureClient(httputil.ClientOptions{
		Timeout:   config.GetAPITimeout(),
		UserAgent: "verse/" + buildinfo.Version(),
	})
	if token == "" {
		return client
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	client.Transport = &oauth2.Transport{
		Source: ts,
		Base:   client.Transport,
	}
	return client
}

// isAuthenticated reports whether client sends an OAuth token.
func isAuthenticated(client *http.Client) bool {
	_, ok := client.Transport.(*oauth2.Transport)
	return ok
}
