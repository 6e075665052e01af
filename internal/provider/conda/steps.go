package conda

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/felixgeelhaar/courseboot/internal/domain/course"
	"github.com/felixgeelhaar/courseboot/internal/domain/platform"
	"github.com/felixgeelhaar/courseboot/internal/domain/step"
	"github.com/felixgeelhaar/courseboot/internal/ports"
)

// InstallStep installs the Miniconda runtime into the configured prefix.
type InstallStep struct {
	id       step.ID
	platform *platform.Platform
	runner   ports.CommandRunner
	fs       ports.FileSystem
}

// NewInstallStep creates the Miniconda installation step.
func NewInstallStep(p *platform.Platform, runner ports.CommandRunner, fs ports.FileSystem) *InstallStep {
	return &InstallStep{
		id:       step.MustNewID("conda:install:miniconda"),
		platform: p,
		runner:   runner,
		fs:       fs,
	}
}

// ID returns the step identifier.
func (s *InstallStep) ID() step.ID {
	return s.id
}

// Optional reports that a missing runtime aborts the sequence.
func (s *InstallStep) Optional() bool {
	return false
}

// Probe checks whether a conda binary is already reachable, either on PATH
// or under the install prefix.
func (s *InstallStep) Probe(ctx step.RunContext) (step.Status, error) {
	tools := ctx.Tools()
	if tools.CondaBin != "" && s.fs.Exists(tools.CondaBin) {
		return step.StatusSatisfied, nil
	}
	if s.fs.Exists(filepath.Join(tools.CondaPrefix, "bin", "conda")) {
		return step.StatusSatisfied, nil
	}
	return step.StatusNeedsApply, nil
}

// Describe returns what Apply would do.
func (s *InstallStep) Describe() string {
	return "Download and install Miniconda"
}

// Apply downloads the installer script and runs it in batch mode.
func (s *InstallStep) Apply(ctx step.RunContext) error {
	url := InstallerURL(s.platform)
	if url == "" {
		return fmt.Errorf("no Miniconda installer for platform %s", s.platform)
	}

	installer := filepath.Join(ctx.Tools().HomeDir, ".cache", "courseboot", "miniconda.sh")
	if err := s.fs.MkdirAll(filepath.Dir(installer), 0o755); err != nil {
		return fmt.Errorf("creating installer cache dir: %w", err)
	}

	result, err := s.runner.Run(ctx.Context(), "curl", "-fsSL", "-o", installer, url)
	if err != nil {
		return err
	}
	if !result.Success() {
		return fmt.Errorf("downloading Miniconda installer failed: %s", result.Stderr)
	}

	result, err = s.runner.Run(ctx.Context(), "bash", installer, "-b", "-p", ctx.Tools().CondaPrefix)
	if err != nil {
		return err
	}
	if !result.Success() {
		return fmt.Errorf("Miniconda installer failed: %s", result.Stderr)
	}

	// Installer script is single-use; leftover copies go stale.
	_ = s.fs.Remove(installer)
	return nil
}

// EnvStep creates the named conda environment with the pinned interpreter.
type EnvStep struct {
	id     step.ID
	env    course.Environment
	runner ports.CommandRunner
}

// NewEnvStep creates the environment creation step.
func NewEnvStep(env course.Environment, runner ports.CommandRunner) *EnvStep {
	return &EnvStep{
		id:     step.MustNewID("conda:create:" + env.Name),
		env:    env,
		runner: runner,
	}
}

// ID returns the step identifier.
func (s *EnvStep) ID() step.ID {
	return s.id
}

// Optional reports that the environment is required.
func (s *EnvStep) Optional() bool {
	return false
}

// Probe checks whether the environment already exists. A host without a
// conda runtime has no environments, so an unreachable conda means the step
// must run, not that probing failed.
func (s *EnvStep) Probe(ctx step.RunContext) (step.Status, error) {
	result, err := s.runner.Run(ctx.Context(), Bin(ctx.Tools()), "env", "list", "--json")
	if err != nil || !result.Success() {
		return step.StatusNeedsApply, nil
	}

	names, err := ParseEnvList(result.Stdout)
	if err != nil {
		return step.StatusUnknown, err
	}
	for _, name := range names {
		if name == s.env.Name {
			return step.StatusSatisfied, nil
		}
	}
	return step.StatusNeedsApply, nil
}

// Describe returns what Apply would do.
func (s *EnvStep) Describe() string {
	return fmt.Sprintf("Create conda environment %q with Python %s", s.env.Name, s.env.Python)
}

// Apply creates the environment.
func (s *EnvStep) Apply(ctx step.RunContext) error {
	result, err := s.runner.Run(ctx.Context(), Bin(ctx.Tools()),
		"create", "-n", s.env.Name, "python="+s.env.Python, "-y")
	if err != nil {
		return err
	}
	if !result.Success() {
		return fmt.Errorf("conda create %s failed: %s", s.env.Name, result.Stderr)
	}
	return nil
}

// PackagesStep installs the requirements manifest into the environment.
type PackagesStep struct {
	id       step.ID
	envName  string
	manifest *course.Manifest
	runner   ports.CommandRunner
}

// NewPackagesStep creates the manifest installation step.
func NewPackagesStep(envName string, manifest *course.Manifest, runner ports.CommandRunner) *PackagesStep {
	return &PackagesStep{
		id:       step.MustNewID("conda:packages:" + envName),
		envName:  envName,
		manifest: manifest,
		runner:   runner,
	}
}

// ID returns the step identifier.
func (s *PackagesStep) ID() step.ID {
	return s.id
}

// Optional reports that the course packages are required.
func (s *PackagesStep) Optional() bool {
	return false
}

// Probe compares the manifest against the packages installed in the
// environment. Any missing distribution means the step must run; version
// pins are left to pip's resolver.
func (s *PackagesStep) Probe(ctx step.RunContext) (step.Status, error) {
	result, err := s.runner.Run(ctx.Context(), Bin(ctx.Tools()),
		"run", "-n", s.envName, "pip", "list", "--format=json")
	if err != nil || !result.Success() {
		// Runtime or environment not created yet; earlier steps run first.
		return step.StatusNeedsApply, nil
	}

	installed, err := ParsePipList(result.Stdout)
	if err != nil {
		return step.StatusUnknown, err
	}
	for _, name := range s.manifest.Names() {
		if _, ok := installed[NormalizeName(name)]; !ok {
			return step.StatusNeedsApply, nil
		}
	}
	return step.StatusSatisfied, nil
}

// Describe returns what Apply would do.
func (s *PackagesStep) Describe() string {
	return fmt.Sprintf("Install %d packages from %s into %q",
		s.manifest.Len(), filepath.Base(s.manifest.Path()), s.envName)
}

// Apply installs the manifest with pip inside the environment.
func (s *PackagesStep) Apply(ctx step.RunContext) error {
	result, err := s.runner.Run(ctx.Context(), Bin(ctx.Tools()),
		"run", "-n", s.envName, "pip", "install", "-r", s.manifest.Path())
	if err != nil {
		return err
	}
	if !result.Success() {
		return fmt.Errorf("pip install -r %s failed: %s",
			s.manifest.Path(), firstLine(result.Stderr))
	}
	return nil
}

// firstLine trims a multi-line stderr down to its first informative line.
func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}
