// Package course loads and validates the course environment description:
// the courseboot.toml configuration, the legacy Make-style config, and the
// requirements manifest. Everything is read once at startup and immutable
// thereafter.
package course

import (
	"fmt"
	"regexp"

	"github.com/pelletier/go-toml/v2"

	"github.com/felixgeelhaar/courseboot/internal/ports"
)

// envNamePattern matches environment names conda accepts; the same characters
// are legal inside step identifiers. No spaces, slashes, or colons.
var envNamePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_.-]*$`)

// Info describes the course itself; purely informational metadata.
type Info struct {
	Name         string `toml:"name"`
	Semester     string `toml:"semester"`
	Organization string `toml:"organization"`
}

// Environment is the target conda environment descriptor.
type Environment struct {
	// Name is the conda environment name, e.g. "course".
	Name string `toml:"name"`
	// Python is the interpreter version to pin, e.g. "3.11".
	Python string `toml:"python"`
}

// Channels describes the expected package-channel preference file.
type Channels struct {
	// Priority is the channel_priority value, normally "strict".
	Priority string `toml:"priority"`
	// List is the ordered channel list, highest priority first.
	List []string `toml:"list"`
}

// Pip holds optional pip configuration written to pip.conf.
type Pip struct {
	// IndexURL overrides the package index, e.g. a campus mirror.
	// Empty means the default index; no pip.conf is written.
	IndexURL string `toml:"index_url"`
}

// Browser controls the optional headless-browser step used for exporting
// notebooks to PDF.
type Browser struct {
	Install bool `toml:"install"`
}

// Config is the full courseboot configuration, loaded once per invocation.
type Config struct {
	Course      Info        `toml:"course"`
	Environment Environment `toml:"environment"`
	Channels    Channels    `toml:"channels"`
	Pip         Pip         `toml:"pip"`
	Browser     Browser     `toml:"browser"`
}

// DefaultConfig returns the configuration defaults applied before the file
// is read.
func DefaultConfig() Config {
	return Config{
		Environment: Environment{
			Name:   "course",
			Python: "3.11",
		},
		Channels: Channels{
			Priority: "strict",
			List:     []string{"conda-forge"},
		},
		Browser: Browser{
			Install: true,
		},
	}
}

// LoadConfig reads and validates courseboot.toml.
func LoadConfig(fs ports.FileSystem, path string) (Config, error) {
	if !fs.Exists(path) {
		return Config{}, NewUserError(ErrCodeConfigNotFound, "configuration file not found").
			WithContext(path).
			WithSuggestion("create courseboot.toml, or point --config at an existing file")
	}

	data, err := fs.ReadFile(path)
	if err != nil {
		return Config{}, NewUserError(ErrCodeConfigNotFound, "configuration file could not be read").
			WithContext(path).
			WithUnderlying(err)
	}

	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, NewUserError(ErrCodeConfigParse, "configuration file is not valid TOML").
			WithContext(path).
			WithSuggestion("check the syntax; see the repository README for a sample").
			WithUnderlying(err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks that required fields are present and well-formed.
func (c Config) Validate() error {
	if c.Environment.Name == "" {
		return NewUserError(ErrCodeConfigInvalid, "environment.name must not be empty").
			WithSuggestion(`set [environment] name = "course"`)
	}
	if !envNamePattern.MatchString(c.Environment.Name) {
		return NewUserError(ErrCodeConfigInvalid,
			fmt.Sprintf("environment.name %q is not a valid conda environment name", c.Environment.Name)).
			WithSuggestion("use letters, digits, hyphens, underscores, or dots, with no spaces")
	}
	if c.Environment.Python == "" {
		return NewUserError(ErrCodeConfigInvalid, "environment.python must not be empty").
			WithSuggestion(`set [environment] python = "3.11"`)
	}
	if len(c.Channels.List) == 0 {
		return NewUserError(ErrCodeConfigInvalid, "channels.list must name at least one channel").
			WithSuggestion(`set [channels] list = ["conda-forge"]`)
	}
	switch c.Channels.Priority {
	case "strict", "flexible", "disabled":
	default:
		return NewUserError(ErrCodeConfigInvalid,
			fmt.Sprintf("channels.priority %q is not one of strict, flexible, disabled", c.Channels.Priority))
	}
	return nil
}
