// Package driver ties the toolchain together for the command line: it
// reads sour.yml manifests, checks whole projects and runs programs.
package driver

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ManifestName is the file name of a project manifest.
const ManifestName = "sour.yml"

// Manifest represents the parsed contents of sour.yml. Relative paths are
// resolved against Dir.
type Manifest struct {
	Path        string
	Dir         string
	Name        string
	Entry       string
	Definitions []string
	Ignore      []string
	Color       string
}

type manifestFile struct {
	Name        string   `yaml:"name"`
	Entry       string   `yaml:"entry"`
	Definitions []string `yaml:"definitions"`
	Ignore      []string `yaml:"ignore"`
	Color       string   `yaml:"color"`
}

// ValidationError aggregates manifest validation failures.
type ValidationError struct {
	Path   string
	Issues []string
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "manifest: invalid configuration"
	}
	var b strings.Builder
	b.WriteString("manifest validation failed")
	if e.Path != "" {
		b.WriteString(" for ")
		b.WriteString(e.Path)
	}
	b.WriteByte(':')
	for _, issue := range e.Issues {
		b.WriteString("\n- ")
		b.WriteString(issue)
	}
	return b.String()
}

// LoadManifest parses sour.yml from disk, returning a validated manifest.
func LoadManifest(path string) (*Manifest, error) {
	if path == "" {
		return nil, fmt.Errorf("manifest: empty path")
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: resolve %s: %w", path, err)
	}
	file, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("manifest: open %s: %w", absPath, err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)

	var raw manifestFile
	if err := decoder.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("manifest: %s is empty", absPath)
		}
		return nil, fmt.Errorf("manifest: parse %s: %w", absPath, err)
	}

	m := &Manifest{
		Path:        absPath,
		Dir:         filepath.Dir(absPath),
		Name:        strings.TrimSpace(raw.Name),
		Entry:       strings.TrimSpace(raw.Entry),
		Definitions: raw.Definitions,
		Ignore:      raw.Ignore,
		Color:       strings.TrimSpace(raw.Color),
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// FindManifest looks for sour.yml in dir and its ancestors. It returns ""
// when there is none.
func FindManifest(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("manifest: resolve %s: %w", dir, err)
	}
	for {
		candidate := filepath.Join(abs, ManifestName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
		parent := filepath.Dir(abs)
		if parent == abs {
			return "", nil
		}
		abs = parent
	}
}

func (m *Manifest) validate() error {
	errs := ValidationError{Path: m.Path}
	if m.Name == "" {
		errs.Issues = append(errs.Issues, "name must be provided")
	}
	if m.Entry != "" && filepath.Ext(m.Entry) != ".sour" {
		errs.Issues = append(errs.Issues, fmt.Sprintf("entry %q must be a .sour file", m.Entry))
	}
	for i, def := range m.Definitions {
		if strings.TrimSpace(def) == "" {
			errs.Issues = append(errs.Issues, fmt.Sprintf("definitions[%d] must be a non-empty path", i))
		}
	}
	for i, pattern := range m.Ignore {
		if strings.TrimSpace(pattern) == "" {
			errs.Issues = append(errs.Issues, fmt.Sprintf("ignore[%d] must be a non-empty pattern", i))
		}
	}
	switch m.Color {
	case "", "auto", "always", "never":
	default:
		errs.Issues = append(errs.Issues, fmt.Sprintf("color must be auto, always or never, not %q", m.Color))
	}
	if len(errs.Issues) > 0 {
		return &errs
	}
	return nil
}

// EntryPath returns the absolute path of the entry file, or "".
func (m *Manifest) EntryPath() string {
	if m.Entry == "" {
		return ""
	}
	return m.resolve(m.Entry)
}

// DefinitionPaths returns the absolute paths of the extra definition files.
func (m *Manifest) DefinitionPaths() []string {
	paths := make([]string, len(m.Definitions))
	for i, def := range m.Definitions {
		paths[i] = m.resolve(def)
	}
	return paths
}

func (m *Manifest) resolve(p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(m.Dir, p)
}
