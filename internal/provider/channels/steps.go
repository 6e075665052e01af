// Package channels manages the conda channel preference file (~/.condarc):
// the ordered channel list and the channel_priority setting.
package channels

import (
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/courseboot/internal/domain/course"
	"github.com/felixgeelhaar/courseboot/internal/domain/step"
	"github.com/felixgeelhaar/courseboot/internal/ports"
)

// FileName is the preference file name under the home directory.
const FileName = ".condarc"

// Path returns the condarc location for the given home directory.
func Path(homeDir string) string {
	return filepath.Join(homeDir, FileName)
}

// CondarcStep writes the expected channel configuration. Unrelated keys
// already present in the file are preserved.
type CondarcStep struct {
	id       step.ID
	expected course.Channels
	fs       ports.FileSystem
}

// NewCondarcStep creates the channel preference step.
func NewCondarcStep(expected course.Channels, fs ports.FileSystem) *CondarcStep {
	return &CondarcStep{
		id:       step.MustNewID("channels:condarc:write"),
		expected: expected,
		fs:       fs,
	}
}

// ID returns the step identifier.
func (s *CondarcStep) ID() step.ID {
	return s.id
}

// Optional reports that channel configuration is required.
func (s *CondarcStep) Optional() bool {
	return false
}

// Probe compares the existing condarc against the expected channels and
// priority.
func (s *CondarcStep) Probe(ctx step.RunContext) (step.Status, error) {
	path := Path(ctx.Tools().HomeDir)
	if !s.fs.Exists(path) {
		return step.StatusNeedsApply, nil
	}

	data, err := s.fs.ReadFile(path)
	if err != nil {
		return step.StatusUnknown, err
	}

	var current struct {
		Channels        []string `yaml:"channels"`
		ChannelPriority string   `yaml:"channel_priority"`
	}
	if err := yaml.Unmarshal(data, &current); err != nil {
		// An unparseable file gets rewritten rather than failing the run.
		return step.StatusNeedsApply, nil
	}

	if current.ChannelPriority != s.expected.Priority {
		return step.StatusNeedsApply, nil
	}
	if len(current.Channels) != len(s.expected.List) {
		return step.StatusNeedsApply, nil
	}
	for i, ch := range s.expected.List {
		if current.Channels[i] != ch {
			return step.StatusNeedsApply, nil
		}
	}
	return step.StatusSatisfied, nil
}

// Describe returns what Apply would do.
func (s *CondarcStep) Describe() string {
	return fmt.Sprintf("Write ~/%s with channels [%s], priority %s",
		FileName, strings.Join(s.expected.List, ", "), s.expected.Priority)
}

// Apply merges the expected keys into the existing file and writes it back.
func (s *CondarcStep) Apply(ctx step.RunContext) error {
	path := Path(ctx.Tools().HomeDir)

	doc := map[string]any{}
	if s.fs.Exists(path) {
		data, err := s.fs.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &doc); err != nil {
			// Corrupt file: start over with just our keys.
			doc = map[string]any{}
		}
	}

	doc["channels"] = s.expected.List
	doc["channel_priority"] = s.expected.Priority

	out, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding condarc: %w", err)
	}
	if err := s.fs.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
