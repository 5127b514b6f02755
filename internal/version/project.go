package version

import (
	"fmt"
	"regexp"
)

var validSlug = regexp.MustCompile(`^[-_a-z0-9]+$`)

// Project is the static identity of a tracked project.
type Project struct {
	Name       string `json:"name"`
	Slug       string `json:"slug"`
	Homepage   string `json:"homepage"`
	Repository string `json:"repository"`
}

// Validate checks that the identity can be registered and routed.
func (p Project) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("project %q: name is required", p.Slug)
	}
	if !validSlug.MatchString(p.Slug) {
		return fmt.Errorf("project %q: slug %q must match %s", p.Name, p.Slug, validSlug)
	}
	return nil
}
