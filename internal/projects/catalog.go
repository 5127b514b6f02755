package projects

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/tsukumogami/verse/internal/version"
)

//go:embed catalog.toml
var builtinCatalog []byte

// catalogFile is the TOML layout shared by the built-in catalog and
// user catalogs.
type catalogFile struct {
	Projects []catalogEntry `toml:"project"`
}

type catalogEntry struct {
	Name        string   `toml:"name"`
	Slug        string   `toml:"slug"`
	Homepage    string   `toml:"homepage"`
	Repository  string   `toml:"repository"`
	StripPrefix string   `toml:"strip_prefix"`
	Remove      string   `toml:"remove"`
	Replace     []string `toml:"replace"`
}

// definition converts the entry, building its normalizer from the
// strip_prefix, remove and replace fields in that order.
func (e catalogEntry) definition() (Definition, error) {
	var steps []version.NormalizeFunc
	if e.StripPrefix != "" {
		steps = append(steps, version.StripPrefix(e.StripPrefix))
	}
	if e.Remove != "" {
		steps = append(steps, version.Remove(e.Remove))
	}
	if len(e.Replace) > 0 {
		if len(e.Replace) != 2 {
			return Definition{}, fmt.Errorf("project %q: replace must be [old, new], got %d values", e.Slug, len(e.Replace))
		}
		steps = append(steps, version.ReplaceAll(e.Replace[0], e.Replace[1]))
	}

	def := Definition{
		Project: version.Project{
			Name:       e.Name,
			Slug:       e.Slug,
			Homepage:   e.Homepage,
			Repository: e.Repository,
		},
		Normalize: version.Identity,
	}
	switch len(steps) {
	case 0:
	case 1:
		def.Normalize = steps[0]
	default:
		def.Normalize = version.Chain(steps...)
	}
	return def, nil
}

// ParseCatalog decodes catalog TOML into definitions. Unknown keys are
// rejected so typos don't silently drop a normalizer.
func ParseCatalog(data []byte) ([]Definition, error) {
	var file catalogFile
	md, err := toml.Decode(string(data), &file)
	if err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown catalog key %q", undecoded[0].String())
	}

	defs := make([]Definition, 0, len(file.Projects))
	for _, entry := range file.Projects {
		def, err := entry.definition()
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// LoadCatalog reads user-defined projects from a TOML file.
func LoadCatalog(path string) ([]Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	defs, err := ParseCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return defs, nil
}

// Builtin returns the definitions compiled into the binary.
func Builtin() []Definition {
	defs, err := ParseCatalog(builtinCatalog)
	if err != nil {
		panic(fmt.Sprintf("builtin catalog: %v", err))
	}
	return defs
}
