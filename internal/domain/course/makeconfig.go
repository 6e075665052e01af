package course

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/felixgeelhaar/courseboot/internal/ports"
)

// Assignment is one variable assignment from a Make-style config file,
// order preserved.
type Assignment struct {
	Name  string
	Value string
}

// assignmentPattern matches Make simple assignments (VAR := value).
var assignmentPattern = regexp.MustCompile(`^([A-Z_]+)\s*:=\s*(.*)$`)

// makeVarPattern matches Make variable references $(VAR).
var makeVarPattern = regexp.MustCompile(`\$\(([^)]+)\)`)

// ParseMakeConfig reads a Make-style configuration file (config.mk) and
// returns its variable assignments in file order. Comments and blank lines
// are skipped; Make variable references $(VAR) are rewritten to the shell
// form ${VAR}.
func ParseMakeConfig(fs ports.FileSystem, path string) ([]Assignment, error) {
	if !fs.Exists(path) {
		return nil, NewUserError(ErrCodeConfigNotFound, "Make configuration file not found").
			WithContext(path)
	}

	data, err := fs.ReadFile(path)
	if err != nil {
		return nil, NewUserError(ErrCodeConfigNotFound, "Make configuration file could not be read").
			WithContext(path).
			WithUnderlying(err)
	}

	assignments := make([]Assignment, 0)
	for _, line := range strings.Split(string(data), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		match := assignmentPattern.FindStringSubmatch(trimmed)
		if match == nil {
			continue
		}

		assignments = append(assignments, Assignment{
			Name:  match[1],
			Value: makeVarPattern.ReplaceAllString(match[2], "$${$1}"),
		})
	}

	return assignments, nil
}

// RenderEnvFile renders assignments as bash-compatible VAR=value lines,
// suitable for sourcing as config.env.
func RenderEnvFile(assignments []Assignment) string {
	var b strings.Builder
	b.WriteString("# Generated from config.mk - DO NOT EDIT DIRECTLY\n")
	b.WriteString("# Edit config.mk instead and re-run 'courseboot envfile'\n")
	b.WriteString("\n")
	for _, a := range assignments {
		fmt.Fprintf(&b, "%s=%s\n", a.Name, a.Value)
	}
	return b.String()
}

// Variable names recognized when importing a legacy config.mk.
const (
	makeVarEnvName       = "ENV_NAME"
	makeVarPythonVersion = "PYTHON_VERSION"
	makeVarCourseName    = "COURSE_NAME"
	makeVarSemester      = "SEMESTER"
	makeVarGithubOrg     = "GITHUB_ORG"
)

// ConfigFromMake builds a Config from legacy config.mk assignments, applying
// the usual defaults for anything the file does not set.
func ConfigFromMake(assignments []Assignment) (Config, error) {
	cfg := DefaultConfig()

	for _, a := range assignments {
		switch a.Name {
		case makeVarEnvName:
			cfg.Environment.Name = a.Value
		case makeVarPythonVersion:
			cfg.Environment.Python = a.Value
		case makeVarCourseName:
			cfg.Course.Name = a.Value
		case makeVarSemester:
			cfg.Course.Semester = a.Value
		case makeVarGithubOrg:
			cfg.Course.Organization = a.Value
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
