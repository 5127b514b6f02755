package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tsukumogami/verse/internal/buildinfo"
	"github.com/tsukumogami/verse/internal/service"
	"github.com/tsukumogami/verse/internal/version"
)

// ProjectInfo is one entry of the project listing.
type ProjectInfo struct {
	Name       string       `json:"name"`
	Slug       string       `json:"slug"`
	Homepage   string       `json:"homepage"`
	Repository string       `json:"repository"`
	Links      ProjectLinks `json:"links"`
}

// ProjectLinks points at the per-project endpoints.
type ProjectLinks struct {
	Latest string `json:"latest"`
	Major  string `json:"major"`
	Minor  string `json:"minor"`
}

// LatestResponse is the body of the latest-version endpoints.
type LatestResponse struct {
	Latest string `json:"latest"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"version":  buildinfo.Version(),
		"projects": len(s.tracker.Projects()),
	})
}

func (s *Server) handleListProjects(w http.ResponseWriter, _ *http.Request) {
	defs := s.tracker.Projects()
	infos := make([]ProjectInfo, len(defs))
	for i, def := range defs {
		base := "/projects/" + def.Slug + "/"
		infos[i] = ProjectInfo{
			Name:       def.Name,
			Slug:       def.Slug,
			Homepage:   def.Homepage,
			Repository: def.Repository,
			Links: ProjectLinks{
				Latest: base,
				Major:  base + "major/",
				Minor:  base + "minor/",
			},
		}
	}
	writeJSON(w, http.StatusOK, infos)
}

func (s *Server) handleProjectLatest(w http.ResponseWriter, r *http.Request) {
	latest, err := s.tracker.Latest(r.Context(), r.PathValue("project"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, LatestResponse{Latest: latest})
}

func (s *Server) handleProjectMajor(w http.ResponseWriter, r *http.Request) {
	s.writeGrouped(w, r, s.tracker.LatestByMajor)
}

func (s *Server) handleProjectMinor(w http.ResponseWriter, r *http.Request) {
	s.writeGrouped(w, r, s.tracker.LatestByMinor)
}

func (s *Server) writeGrouped(w http.ResponseWriter, r *http.Request, fn func(context.Context, string) (map[string]string, error)) {
	grouped, err := fn(r.Context(), r.PathValue("project"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, grouped)
}

// githubChecker builds the ad-hoc checker for a /gh/ request, applying the
// optional constraint query.
func (s *Server) githubChecker(r *http.Request) (*version.Checker, error) {
	c, err := s.tracker.GitHub(r.PathValue("owner"), r.PathValue("repo"))
	if err != nil {
		return nil, err
	}
	if c.Constraint, err = version.ParseConstraint(r.URL.Query().Get("constraint")); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Server) handleGitHubLatest(w http.ResponseWriter, r *http.Request) {
	c, err := s.githubChecker(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	latest, err := c.Latest(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, LatestResponse{Latest: latest})
}

func (s *Server) handleGitHubMajor(w http.ResponseWriter, r *http.Request) {
	c, err := s.githubChecker(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	grouped, err := c.LatestByMajor(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, grouped)
}

func (s *Server) handleGitHubMinor(w http.ResponseWriter, r *http.Request) {
	c, err := s.githubChecker(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	grouped, err := c.LatestByMinor(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, grouped)
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	var rateLimit *version.GitHubRateLimitError
	var resolver *version.ResolverError

	switch {
	case errors.Is(err, service.ErrUnknownProject), errors.Is(err, version.ErrNoVersions):
		return http.StatusNotFound
	case errors.Is(err, version.ErrOrderingViolation), errors.Is(err, version.ErrNotImplemented):
		return http.StatusInternalServerError
	case errors.As(err, &rateLimit):
		return http.StatusTooManyRequests
	case errors.As(err, &resolver):
		switch resolver.Type {
		case version.ErrTypeValidation:
			return http.StatusBadRequest
		case version.ErrTypeNotFound:
			return http.StatusNotFound
		case version.ErrTypeRateLimit:
			return http.StatusTooManyRequests
		case version.ErrTypeTimeout:
			return http.StatusGatewayTimeout
		}
		return http.StatusBadGateway
	case errors.Is(err, context.Canceled):
		// Client went away; nobody reads this status.
		return 499
	default:
		return http.StatusBadGateway
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "status", status, "error", err)
	} else {
		s.logger.Debug("request rejected", "path", r.URL.Path, "status", status, "error", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
