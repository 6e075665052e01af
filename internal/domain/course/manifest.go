package course

import (
	"strings"

	"github.com/felixgeelhaar/courseboot/internal/ports"
)

// Requirement is a single package requirement line from the manifest.
type Requirement struct {
	// Raw is the requirement exactly as written, e.g. "numpy>=1.26".
	Raw string
	// Name is the bare distribution name, e.g. "numpy".
	Name string
}

// Manifest is the ordered list of package requirements installed into the
// environment. Order is preserved from the file.
type Manifest struct {
	path         string
	requirements []Requirement
}

// LoadManifest reads a requirements file. Blank lines and # comments are
// skipped; inline comments are stripped.
func LoadManifest(fs ports.FileSystem, path string) (*Manifest, error) {
	if !fs.Exists(path) {
		return nil, NewUserError(ErrCodeManifestNotFound, "requirements file not found").
			WithContext(path).
			WithSuggestion("create requirements.txt next to courseboot.toml, or pass --requirements")
	}

	data, err := fs.ReadFile(path)
	if err != nil {
		return nil, NewUserError(ErrCodeManifestNotFound, "requirements file could not be read").
			WithContext(path).
			WithUnderlying(err)
	}

	m := &Manifest{path: path}
	for _, line := range strings.Split(string(data), "\n") {
		if idx := strings.Index(line, "#"); idx >= 0 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		m.requirements = append(m.requirements, Requirement{
			Raw:  line,
			Name: requirementName(line),
		})
	}

	return m, nil
}

// Path returns the manifest file location.
func (m *Manifest) Path() string {
	return m.path
}

// Requirements returns the requirements in file order.
func (m *Manifest) Requirements() []Requirement {
	return m.requirements
}

// Len returns the number of requirements.
func (m *Manifest) Len() int {
	return len(m.requirements)
}

// Names returns the bare distribution names in file order.
func (m *Manifest) Names() []string {
	names := make([]string, len(m.requirements))
	for i, r := range m.requirements {
		names[i] = r.Name
	}
	return names
}

// requirementName strips version specifiers, extras, and environment markers
// from a requirement line.
func requirementName(raw string) string {
	name := raw
	for _, sep := range []string{";", "==", ">=", "<=", "!=", "~=", ">", "<", "["} {
		if idx := strings.Index(name, sep); idx >= 0 {
			name = name[:idx]
		}
	}
	return strings.TrimSpace(name)
}
