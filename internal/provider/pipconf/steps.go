// Package pipconf manages the optional pip index configuration in
// ~/.config/pip/pip.conf. The step only exists when the course configures a
// custom index URL (e.g. a campus mirror).
package pipconf

import (
	"bytes"
	"fmt"
	"path/filepath"

	"gopkg.in/ini.v1"

	"github.com/felixgeelhaar/courseboot/internal/domain/step"
	"github.com/felixgeelhaar/courseboot/internal/ports"
)

// Path returns the pip.conf location for the given home directory.
func Path(homeDir string) string {
	return filepath.Join(homeDir, ".config", "pip", "pip.conf")
}

// IndexURLStep sets [global] index-url in pip.conf. Other sections and keys
// in the file are preserved.
type IndexURLStep struct {
	id       step.ID
	indexURL string
	fs       ports.FileSystem
}

// NewIndexURLStep creates the pip index configuration step.
func NewIndexURLStep(indexURL string, fs ports.FileSystem) *IndexURLStep {
	return &IndexURLStep{
		id:       step.MustNewID("pipconf:index-url:set"),
		indexURL: indexURL,
		fs:       fs,
	}
}

// ID returns the step identifier.
func (s *IndexURLStep) ID() step.ID {
	return s.id
}

// Optional reports that a failed index configuration downgrades to a
// warning; pip falls back to the default index.
func (s *IndexURLStep) Optional() bool {
	return true
}

// Probe checks whether pip.conf already carries the expected index URL.
func (s *IndexURLStep) Probe(ctx step.RunContext) (step.Status, error) {
	path := Path(ctx.Tools().HomeDir)
	if !s.fs.Exists(path) {
		return step.StatusNeedsApply, nil
	}

	data, err := s.fs.ReadFile(path)
	if err != nil {
		return step.StatusUnknown, err
	}

	cfg, err := ini.Load(data)
	if err != nil {
		return step.StatusNeedsApply, nil
	}
	if cfg.Section("global").Key("index-url").String() == s.indexURL {
		return step.StatusSatisfied, nil
	}
	return step.StatusNeedsApply, nil
}

// Describe returns what Apply would do.
func (s *IndexURLStep) Describe() string {
	return fmt.Sprintf("Set pip index-url to %s", s.indexURL)
}

// Apply writes the index URL into pip.conf, creating the directory and file
// when absent.
func (s *IndexURLStep) Apply(ctx step.RunContext) error {
	path := Path(ctx.Tools().HomeDir)

	cfg := ini.Empty()
	if s.fs.Exists(path) {
		data, err := s.fs.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		if loaded, err := ini.Load(data); err == nil {
			cfg = loaded
		}
	}

	cfg.Section("global").Key("index-url").SetValue(s.indexURL)

	var buf bytes.Buffer
	if _, err := cfg.WriteTo(&buf); err != nil {
		return fmt.Errorf("encoding pip.conf: %w", err)
	}
	if err := s.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating pip config dir: %w", err)
	}
	if err := s.fs.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
