// Package projects holds the catalog of tracked projects and the registry
// that maps slugs to version checkers.
package projects

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/tsukumogami/verse/internal/version"
)

var (
	// ErrDuplicateSlug is returned when two definitions share a slug.
	ErrDuplicateSlug = errors.New("duplicate project slug")

	// ErrUnknownProject is returned when a slug is not registered.
	ErrUnknownProject = errors.New("unknown project")
)

// Definition is a catalog entry: a project identity plus the normalizer
// its tags need before parsing.
type Definition struct {
	version.Project
	Normalize version.NormalizeFunc
}

// Registry maps slugs to definitions. It is immutable once built, so it
// can be read from any number of goroutines.
type Registry struct {
	defs map[string]Definition
}

// NewRegistry validates defs and indexes them by slug.
func NewRegistry(defs ...Definition) (*Registry, error) {
	r := &Registry{defs: make(map[string]Definition, len(defs))}
	for _, def := range defs {
		if err := r.add(def); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) add(def Definition) error {
	if err := def.Validate(); err != nil {
		return err
	}
	if _, _, err := version.ParseRepositoryURL(def.Repository); err != nil {
		return fmt.Errorf("project %q: %w", def.Slug, err)
	}
	if _, exists := r.defs[def.Slug]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateSlug, def.Slug)
	}
	if def.Normalize == nil {
		def.Normalize = version.Identity
	}
	r.defs[def.Slug] = def
	return nil
}

var (
	defaultRegistry *Registry
	defaultOnce     sync.Once
)

// Default returns the registry of built-in projects.
func Default() *Registry {
	defaultOnce.Do(func() {
		reg, err := NewRegistry(Builtin()...)
		if err != nil {
			panic(fmt.Sprintf("builtin catalog: %v", err))
		}
		defaultRegistry = reg
	})
	return defaultRegistry
}

// Lookup returns the definition registered under slug.
func (r *Registry) Lookup(slug string) (Definition, bool) {
	def, ok := r.defs[slug]
	return def, ok
}

// All returns every definition sorted by slug.
func (r *Registry) All() []Definition {
	defs := make([]Definition, 0, len(r.defs))
	for _, def := range r.defs {
		defs = append(defs, def)
	}
	slices.SortFunc(defs, func(a, b Definition) int {
		return strings.Compare(a.Slug, b.Slug)
	})
	return defs
}

// Len returns the number of registered projects.
func (r *Registry) Len() int {
	return len(r.defs)
}

// Checker builds a fresh checker for slug reading tags through tags.
func (r *Registry) Checker(slug string, tags *version.TagSource) (*version.Checker, error) {
	def, ok := r.Lookup(slug)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProject, slug)
	}
	return version.NewGitHubChecker(def.Project, tags, def.Normalize), nil
}

// Merge returns a new registry holding r's definitions plus defs. The
// receiver is left untouched. Slugs must stay unique.
func (r *Registry) Merge(defs ...Definition) (*Registry, error) {
	merged := &Registry{defs: make(map[string]Definition, len(r.defs)+len(defs))}
	for slug, def := range r.defs {
		merged.defs[slug] = def
	}
	for _, def := range defs {
		if err := merged.add(def); err != nil {
			return nil, err
		}
	}
	return merged, nil
}
