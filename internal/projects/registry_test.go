package projects

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tsukumogami/verse/internal/log"
	"github.com/tsukumogami/verse/internal/version"
)

func TestDefault_SlugsUnique(t *testing.T) {
	defs := Builtin()
	seen := make(map[string]bool, len(defs))
	for _, def := range defs {
		if seen[def.Slug] {
			t.Errorf("slug %q registered twice", def.Slug)
		}
		seen[def.Slug] = true
	}

	if got := Default().Len(); got != len(defs) {
		t.Errorf("Default().Len() = %d, want %d", got, len(defs))
	}
}

func TestDefault_Entries(t *testing.T) {
	tests := []struct {
		slug       string
		name       string
		homepage   string
		repository string
	}{
		{"apache-httpd", "Apache HTTP Server", "http://httpd.apache.org/", "https://github.com/apache/httpd"},
		{"nginx", "Nginx", "http://nginx.org/", "https://github.com/nginx/nginx"},
		{"go", "Go", "https://golang.org/", "https://github.com/golang/go"},
		{"docker", "Docker", "https://www.docker.com/", "https://github.com/docker/docker"},
		{"gogs", "Gogs", "https://gogs.io/", "https://github.com/gogits/gogs"},
	}

	reg := Default()
	for _, tt := range tests {
		t.Run(tt.slug, func(t *testing.T) {
			def, ok := reg.Lookup(tt.slug)
			if !ok {
				t.Fatalf("Lookup(%q) not found", tt.slug)
			}
			if def.Name != tt.name || def.Homepage != tt.homepage || def.Repository != tt.repository {
				t.Errorf("Lookup(%q) = %+v", tt.slug, def.Project)
			}
		})
	}
}

func TestDefault_Normalizers(t *testing.T) {
	tests := []struct {
		slug     string
		input    string
		expected string
	}{
		{"nginx", "release-1.11.9", "1.11.9"},
		{"nginx", "1.11.9", "1.11.9"},
		{"go", "go1.8", "1.8"},
		{"docker", "v17.03.0-ce", "v17.03.0"},
		{"ruby", "v2_4_1", "v2.4.1"},
		{"kubernetes", "v1.6.4", "v1.6.4"},
	}

	reg := Default()
	for _, tt := range tests {
		t.Run(tt.slug+"/"+tt.input, func(t *testing.T) {
			def, ok := reg.Lookup(tt.slug)
			if !ok {
				t.Fatalf("Lookup(%q) not found", tt.slug)
			}
			if got := def.Normalize(tt.input); got != tt.expected {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestAll_SortedBySlug(t *testing.T) {
	all := Default().All()
	for i := 1; i < len(all); i++ {
		if all[i-1].Slug >= all[i].Slug {
			t.Errorf("All() not sorted: %q before %q", all[i-1].Slug, all[i].Slug)
		}
	}
}

func TestNewRegistry_Errors(t *testing.T) {
	valid := Definition{Project: version.Project{
		Name: "Widget", Slug: "widget", Repository: "https://github.com/acme/widget",
	}}

	tests := []struct {
		name    string
		defs    []Definition
		wantErr error
	}{
		{
			name:    "duplicate slug",
			defs:    []Definition{valid, valid},
			wantErr: ErrDuplicateSlug,
		},
		{
			name: "bad repository",
			defs: []Definition{{Project: version.Project{
				Name: "Widget", Slug: "widget", Repository: "http://example.com",
			}}},
			wantErr: version.ErrInvalidRepository,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry(tt.defs...)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("NewRegistry() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	_, err := NewRegistry(Definition{Project: version.Project{
		Name: "Widget", Slug: "Bad Slug", Repository: "https://github.com/acme/widget",
	}})
	if err == nil {
		t.Error("NewRegistry() accepted an invalid slug")
	}
}

func TestRegistry_NilNormalizeDefaults(t *testing.T) {
	reg, err := NewRegistry(Definition{Project: version.Project{
		Name: "Widget", Slug: "widget", Repository: "https://github.com/acme/widget",
	}})
	if err != nil {
		t.Fatalf("NewRegistry() failed: %v", err)
	}
	def, _ := reg.Lookup("widget")
	if def.Normalize == nil || def.Normalize("v1.0") != "v1.0" {
		t.Error("nil Normalize should default to identity")
	}
}

func TestRegistry_Checker(t *testing.T) {
	tags := version.NewTagSource(version.WithLogger(log.NewNoop()))

	c, err := Default().Checker("nginx", tags)
	if err != nil {
		t.Fatalf("Checker() failed: %v", err)
	}
	if c.Slug != "nginx" || c.Source == nil {
		t.Errorf("Checker() = %+v, want bound nginx checker", c)
	}

	if _, err := Default().Checker("nope", tags); !errors.Is(err, ErrUnknownProject) {
		t.Errorf("Checker(nope) error = %v, want ErrUnknownProject", err)
	}
}

func TestRegistry_Merge(t *testing.T) {
	base := Default()
	extra := Definition{Project: version.Project{
		Name: "Widget", Slug: "widget", Repository: "https://github.com/acme/widget",
	}}

	merged, err := base.Merge(extra)
	if err != nil {
		t.Fatalf("Merge() failed: %v", err)
	}
	if merged.Len() != base.Len()+1 {
		t.Errorf("merged.Len() = %d, want %d", merged.Len(), base.Len()+1)
	}
	if _, ok := base.Lookup("widget"); ok {
		t.Error("Merge() modified the receiver")
	}

	clash := Definition{Project: version.Project{
		Name: "Other Nginx", Slug: "nginx", Repository: "https://github.com/acme/nginx",
	}}
	if _, err := base.Merge(clash); !errors.Is(err, ErrDuplicateSlug) {
		t.Errorf("Merge() error = %v, want ErrDuplicateSlug", err)
	}
}

func TestLoadCatalog(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "projects.toml")
	content := `
[[project]]
name = "Widget"
slug = "widget"
homepage = "https://widget.example/"
repository = "https://github.com/acme/widget"
strip_prefix = "widget-"
remove = "-final"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	defs, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("LoadCatalog() failed: %v", err)
	}
	if len(defs) != 1 {
		t.Fatalf("LoadCatalog() returned %d definitions, want 1", len(defs))
	}
	if got := defs[0].Normalize("widget-2.1.0-final"); got != "2.1.0" {
		t.Errorf("Normalize() = %q, want %q", got, "2.1.0")
	}
}

func TestParseCatalog_Errors(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		contains string
	}{
		{"malformed", `[[project]`, "failed to parse catalog"},
		{"unknown key", "[[project]]\nname = \"x\"\nstrip = \"v\"\n", "unknown catalog key"},
		{"bad replace", "[[project]]\nslug = \"x\"\nreplace = [\"_\"]\n", "replace must be"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(tt.content))
			if err == nil || !strings.Contains(err.Error(), tt.contains) {
				t.Errorf("ParseCatalog() error = %v, want it to contain %q", err, tt.contains)
			}
		})
	}
}

func TestLoadCatalog_Missing(t *testing.T) {
	if _, err := LoadCatalog(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("LoadCatalog() on a missing file should fail")
	}
}
