// Package conda provides the steps that install the Miniconda runtime,
// create the course environment, and install the package manifest into it.
package conda

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/felixgeelhaar/courseboot/internal/domain/platform"
	"github.com/felixgeelhaar/courseboot/internal/domain/step"
)

// DefaultPrefix is the Miniconda install prefix relative to the home
// directory.
const DefaultPrefix = "miniconda3"

// installerBase is where Miniconda installer scripts are downloaded from.
const installerBase = "https://repo.anaconda.com/miniconda"

// InstallerURL returns the Miniconda installer script URL for the host.
func InstallerURL(p *platform.Platform) string {
	arch := p.Arch()
	switch p.Family() {
	case platform.FamilyMacOS:
		if arch == "arm64" {
			return installerBase + "/Miniconda3-latest-MacOSX-arm64.sh"
		}
		return installerBase + "/Miniconda3-latest-MacOSX-x86_64.sh"
	case platform.FamilyDebian:
		if arch == "arm64" {
			return installerBase + "/Miniconda3-latest-Linux-aarch64.sh"
		}
		return installerBase + "/Miniconda3-latest-Linux-x86_64.sh"
	default:
		return ""
	}
}

// Bin resolves the conda executable from the toolchain: the PATH-resolved
// binary when one was found at startup, the install prefix otherwise (the
// install step's postcondition guarantees it exists there).
func Bin(tools step.Toolchain) string {
	if tools.CondaBin != "" {
		return tools.CondaBin
	}
	return filepath.Join(tools.CondaPrefix, "bin", "conda")
}

// envList is the JSON shape of `conda env list --json`.
type envList struct {
	Envs []string `json:"envs"`
}

// ParseEnvList extracts environment names from `conda env list --json`
// output. Environment names are the base names of the returned prefixes.
func ParseEnvList(stdout string) ([]string, error) {
	var parsed envList
	if err := json.Unmarshal([]byte(stdout), &parsed); err != nil {
		return nil, fmt.Errorf("unexpected conda env list output: %w", err)
	}
	names := make([]string, 0, len(parsed.Envs))
	for _, prefix := range parsed.Envs {
		names = append(names, filepath.Base(prefix))
	}
	return names, nil
}

// pipPackage is one entry of `pip list --format=json`.
type pipPackage struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// ParsePipList extracts installed distributions from `pip list --format=json`
// output, keyed by normalized name.
func ParsePipList(stdout string) (map[string]string, error) {
	var parsed []pipPackage
	if err := json.Unmarshal([]byte(stdout), &parsed); err != nil {
		return nil, fmt.Errorf("unexpected pip list output: %w", err)
	}
	installed := make(map[string]string, len(parsed))
	for _, pkg := range parsed {
		installed[NormalizeName(pkg.Name)] = pkg.Version
	}
	return installed, nil
}

// NormalizeName normalizes a distribution name the way pip does: lowercase,
// with runs of -, _ and . collapsed to a single dash.
func NormalizeName(name string) string {
	lower := strings.ToLower(name)
	for _, r := range []string{"_", "."} {
		lower = strings.ReplaceAll(lower, r, "-")
	}
	for strings.Contains(lower, "--") {
		lower = strings.ReplaceAll(lower, "--", "-")
	}
	return lower
}
