package course

import (
	"errors"
	"strings"
	"testing"

	"github.com/felixgeelhaar/courseboot/internal/testutil/mocks"
)

const sampleConfig = `
[course]
name = "Introduction to Data Science"
semester = "2026 Fall"
organization = "example-university"

[environment]
name = "ds101"
python = "3.12"

[channels]
priority = "strict"
list = ["conda-forge", "defaults"]

[pip]
index_url = "https://mirror.example.edu/pypi/simple"

[browser]
install = false
`

func TestLoadConfig(t *testing.T) {
	fs := mocks.NewFileSystem()
	if err := fs.WriteFile("courseboot.toml", []byte(sampleConfig), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(fs, "courseboot.toml")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Environment.Name != "ds101" {
		t.Errorf("Environment.Name = %q, want %q", cfg.Environment.Name, "ds101")
	}
	if cfg.Environment.Python != "3.12" {
		t.Errorf("Environment.Python = %q, want %q", cfg.Environment.Python, "3.12")
	}
	if cfg.Course.Organization != "example-university" {
		t.Errorf("Course.Organization = %q, want %q", cfg.Course.Organization, "example-university")
	}
	if len(cfg.Channels.List) != 2 || cfg.Channels.List[0] != "conda-forge" {
		t.Errorf("Channels.List = %v, want [conda-forge defaults]", cfg.Channels.List)
	}
	if cfg.Pip.IndexURL == "" {
		t.Error("Pip.IndexURL should be set")
	}
	if cfg.Browser.Install {
		t.Error("Browser.Install should be false")
	}
}

func TestLoadConfig_DefaultsApplied(t *testing.T) {
	fs := mocks.NewFileSystem()
	if err := fs.WriteFile("courseboot.toml", []byte("[course]\nname = \"X\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(fs, "courseboot.toml")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Environment.Name != "course" {
		t.Errorf("default env name = %q, want %q", cfg.Environment.Name, "course")
	}
	if cfg.Channels.Priority != "strict" {
		t.Errorf("default priority = %q, want strict", cfg.Channels.Priority)
	}
	if !cfg.Browser.Install {
		t.Error("browser install should default to true")
	}
}

func TestLoadConfig_NotFound(t *testing.T) {
	fs := mocks.NewFileSystem()

	_, err := LoadConfig(fs, "missing.toml")
	if err == nil {
		t.Fatal("LoadConfig() should fail for missing file")
	}

	var userErr *UserError
	if !errors.As(err, &userErr) {
		t.Fatalf("error should be *UserError, got %T", err)
	}
	if userErr.Code != ErrCodeConfigNotFound {
		t.Errorf("Code = %q, want %q", userErr.Code, ErrCodeConfigNotFound)
	}
	if userErr.Suggestion == "" {
		t.Error("missing-config error should carry a suggestion")
	}
}

func TestLoadConfig_ParseError(t *testing.T) {
	fs := mocks.NewFileSystem()
	if err := fs.WriteFile("courseboot.toml", []byte("not [valid toml"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadConfig(fs, "courseboot.toml")
	var userErr *UserError
	if !errors.As(err, &userErr) {
		t.Fatalf("error should be *UserError, got %T", err)
	}
	if userErr.Code != ErrCodeConfigParse {
		t.Errorf("Code = %q, want %q", userErr.Code, ErrCodeConfigParse)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty env name", func(c *Config) { c.Environment.Name = "" }},
		{"env name with space", func(c *Config) { c.Environment.Name = "my course" }},
		{"env name with slash", func(c *Config) { c.Environment.Name = "course/2026" }},
		{"env name with colon", func(c *Config) { c.Environment.Name = "course:a" }},
		{"env name leading dot", func(c *Config) { c.Environment.Name = ".course" }},
		{"empty python", func(c *Config) { c.Environment.Python = "" }},
		{"no channels", func(c *Config) { c.Channels.List = nil }},
		{"bad priority", func(c *Config) { c.Channels.Priority = "sometimes" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() should fail")
			}
		})
	}

	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("default config should validate, got %v", err)
	}

	for _, name := range []string{"course", "ds101", "course-2026", "py3.11_lab"} {
		cfg := DefaultConfig()
		cfg.Environment.Name = name
		if err := cfg.Validate(); err != nil {
			t.Errorf("Validate() rejected name %q: %v", name, err)
		}
	}
}

func TestLoadConfig_EnvNameWithSpace(t *testing.T) {
	fs := mocks.NewFileSystem()
	toml := "[environment]\nname = \"my course\"\npython = \"3.11\"\n"
	if err := fs.WriteFile("courseboot.toml", []byte(toml), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadConfig(fs, "courseboot.toml")
	var userErr *UserError
	if !errors.As(err, &userErr) {
		t.Fatalf("error should be *UserError, got %T", err)
	}
	if userErr.Code != ErrCodeConfigInvalid {
		t.Errorf("Code = %q, want %q", userErr.Code, ErrCodeConfigInvalid)
	}
	if userErr.Suggestion == "" {
		t.Error("invalid-name error should carry a suggestion")
	}
}

func TestUserError_Format(t *testing.T) {
	err := NewUserError(ErrCodeConfigInvalid, "bad value").
		WithContext("courseboot.toml").
		WithSuggestion("fix it")

	formatted := err.Format()
	for _, want := range []string{ErrCodeConfigInvalid, "bad value", "courseboot.toml", "fix it"} {
		if !strings.Contains(formatted, want) {
			t.Errorf("Format() = %q, missing %q", formatted, want)
		}
	}
}
