// Package verify runs the read-only post-install checks: it confirms the
// runtime, environment, packages, channel file, kernel, and browser are in
// the state the course expects. Verification never mutates the system and
// runs its real probes in every execution mode, dry-run included.
package verify

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/felixgeelhaar/courseboot/internal/domain/course"
	"github.com/felixgeelhaar/courseboot/internal/domain/step"
	"github.com/felixgeelhaar/courseboot/internal/ports"
	"github.com/felixgeelhaar/courseboot/internal/provider/browser"
	"github.com/felixgeelhaar/courseboot/internal/provider/channels"
	"github.com/felixgeelhaar/courseboot/internal/provider/conda"
	"github.com/felixgeelhaar/courseboot/internal/provider/kernel"
)

// Check is one verified capability.
type Check struct {
	// Name identifies the capability, e.g. "conda runtime".
	Name string
	// OK reports whether the capability holds.
	OK bool
	// Detail is a short human-readable finding ("conda 24.1.2", "missing: numpy").
	Detail string
	// Optional marks capabilities whose failure is a warning, not an error.
	Optional bool
}

// Report is the outcome of a full verification pass.
type Report struct {
	Checks []Check
}

// Passed reports whether every required capability holds.
func (r Report) Passed() bool {
	for _, c := range r.Checks {
		if !c.OK && !c.Optional {
			return false
		}
	}
	return true
}

// Warnings counts failed optional capabilities.
func (r Report) Warnings() int {
	n := 0
	for _, c := range r.Checks {
		if !c.OK && c.Optional {
			n++
		}
	}
	return n
}

// Checker runs the verification pass.
type Checker struct {
	runner   ports.CommandRunner
	fs       ports.FileSystem
	cfg      course.Config
	manifest *course.Manifest
	tools    step.Toolchain
}

// NewChecker creates a Checker for the given course.
func NewChecker(runner ports.CommandRunner, fs ports.FileSystem, cfg course.Config, manifest *course.Manifest, tools step.Toolchain) *Checker {
	return &Checker{
		runner:   runner,
		fs:       fs,
		cfg:      cfg,
		manifest: manifest,
		tools:    tools,
	}
}

// Check runs all capability probes and returns the report. Individual probe
// failures become failed checks; the pass itself never errors.
func (c *Checker) Check(ctx context.Context) Report {
	var report Report
	report.Checks = append(report.Checks, c.checkRuntime(ctx))
	report.Checks = append(report.Checks, c.checkInterpreter(ctx))
	report.Checks = append(report.Checks, c.checkPackages(ctx))
	report.Checks = append(report.Checks, c.checkChannels(ctx))
	report.Checks = append(report.Checks, c.checkKernel(ctx))
	if c.cfg.Browser.Install {
		report.Checks = append(report.Checks, c.checkBrowser())
	}
	return report
}

// checkRuntime confirms the conda binary responds and reports its version.
func (c *Checker) checkRuntime(ctx context.Context) Check {
	check := Check{Name: "conda runtime"}

	result, err := c.runner.Run(ctx, conda.Bin(c.tools), "--version")
	if err != nil {
		check.Detail = "conda is not reachable: " + err.Error()
		return check
	}
	if !result.Success() {
		check.Detail = "conda --version failed: " + strings.TrimSpace(result.Stderr)
		return check
	}

	check.OK = true
	check.Detail = strings.TrimSpace(result.Stdout)
	return check
}

// checkInterpreter confirms the environment exists and its Python matches the
// requested version.
func (c *Checker) checkInterpreter(ctx context.Context) Check {
	envName := c.cfg.Environment.Name
	check := Check{Name: fmt.Sprintf("environment %q interpreter", envName)}

	result, err := c.runner.Run(ctx, conda.Bin(c.tools), "run", "-n", envName, "python", "--version")
	if err != nil {
		check.Detail = "python is not reachable: " + err.Error()
		return check
	}
	if !result.Success() {
		check.Detail = fmt.Sprintf("environment %q has no working python (expected %s)",
			envName, PythonPath(c.tools.CondaPrefix, envName))
		return check
	}

	actual := parsePythonVersion(result.Stdout + result.Stderr)
	if actual == "" {
		check.Detail = "could not parse python version from: " + strings.TrimSpace(result.Stdout)
		return check
	}
	if !VersionMatches(c.cfg.Environment.Python, actual) {
		check.Detail = fmt.Sprintf("python %s installed, %s requested", actual, c.cfg.Environment.Python)
		return check
	}

	check.OK = true
	check.Detail = "Python " + actual
	return check
}

// checkPackages confirms every manifest distribution is installed.
func (c *Checker) checkPackages(ctx context.Context) Check {
	envName := c.cfg.Environment.Name
	check := Check{Name: "course packages"}

	result, err := c.runner.Run(ctx, conda.Bin(c.tools), "run", "-n", envName, "pip", "list", "--format=json")
	if err != nil || !result.Success() {
		check.Detail = "pip is not reachable in environment " + envName
		return check
	}

	installed, err := conda.ParsePipList(result.Stdout)
	if err != nil {
		check.Detail = err.Error()
		return check
	}

	var missing []string
	for _, name := range c.manifest.Names() {
		if _, ok := installed[conda.NormalizeName(name)]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		check.Detail = "missing: " + strings.Join(missing, ", ")
		return check
	}

	check.OK = true
	check.Detail = fmt.Sprintf("%d packages present", c.manifest.Len())
	return check
}

// checkChannels confirms ~/.condarc matches the expected channel config,
// reusing the channel step's read-only probe.
func (c *Checker) checkChannels(ctx context.Context) Check {
	check := Check{Name: "channel preferences"}

	probe := channels.NewCondarcStep(c.cfg.Channels, c.fs)
	status, err := probe.Probe(step.NewRunContext(ctx).WithTools(c.tools))
	if err != nil {
		check.Detail = err.Error()
		return check
	}
	if status != step.StatusSatisfied {
		check.Detail = fmt.Sprintf("~/%s does not match the expected channels", channels.FileName)
		return check
	}

	check.OK = true
	check.Detail = fmt.Sprintf("channels [%s], priority %s",
		strings.Join(c.cfg.Channels.List, ", "), c.cfg.Channels.Priority)
	return check
}

// checkKernel confirms the Jupyter kernelspec is registered.
func (c *Checker) checkKernel(ctx context.Context) Check {
	envName := c.cfg.Environment.Name
	check := Check{Name: "jupyter kernel"}

	result, err := c.runner.Run(ctx, conda.Bin(c.tools), "run", "-n", envName, "jupyter", "kernelspec", "list", "--json")
	if err != nil || !result.Success() {
		check.Detail = "jupyter is not reachable in environment " + envName
		return check
	}

	names, err := kernel.ParseKernelspecs(result.Stdout)
	if err != nil {
		check.Detail = err.Error()
		return check
	}
	for _, name := range names {
		if name == envName {
			check.OK = true
			check.Detail = "kernelspec " + envName
			return check
		}
	}

	check.Detail = fmt.Sprintf("kernelspec %q not registered", envName)
	return check
}

// checkBrowser confirms the Playwright browser cache is populated. Optional.
func (c *Checker) checkBrowser() Check {
	check := Check{Name: "headless browser", Optional: true}

	if c.fs.IsDir(browser.CacheDir(c.tools.HomeDir)) {
		check.OK = true
		check.Detail = "chromium cache present"
		return check
	}
	check.Detail = "chromium not installed; PDF export unavailable"
	return check
}

// parsePythonVersion extracts the version number from `python --version`
// output ("Python 3.11.8").
func parsePythonVersion(out string) string {
	fields := strings.Fields(strings.TrimSpace(out))
	for i, f := range fields {
		if f == "Python" && i+1 < len(fields) {
			return fields[i+1]
		}
	}
	return ""
}

// VersionMatches reports whether an installed interpreter version satisfies
// the requested one. A major.minor request matches any patch level; a full
// version pin must match exactly.
func VersionMatches(requested, actual string) bool {
	req := "v" + requested
	act := "v" + actual
	if !semver.IsValid(req) || !semver.IsValid(act) {
		return requested == actual
	}
	if strings.Count(requested, ".") >= 2 {
		return semver.Compare(semver.Canonical(req), semver.Canonical(act)) == 0
	}
	return semver.MajorMinor(req) == semver.MajorMinor(act)
}

// PythonPath returns where the environment's interpreter is expected to live.
func PythonPath(prefix, envName string) string {
	return filepath.Join(prefix, "envs", envName, "bin", "python")
}
