// Package platform detects which supported host family courseboot runs on.
// Detection happens once at startup; the rest of the program dispatches on
// the detected variant instead of re-probing the OS inline.
package platform

import (
	"os"
	"os/exec"
	"runtime"
	"strings"
	"sync"
)

// Family is the supported host variant.
type Family string

const (
	// FamilyMacOS is macOS with Homebrew as the system package manager.
	FamilyMacOS Family = "macos"
	// FamilyDebian is a Debian-family Linux (Debian, Ubuntu, Mint) with apt.
	FamilyDebian Family = "debian"
	// FamilyUnsupported is any host courseboot cannot bootstrap.
	FamilyUnsupported Family = "unsupported"
)

// String returns the string representation of the family.
func (f Family) String() string {
	return string(f)
}

// Platform contains detected host information.
type Platform struct {
	family Family
	arch   string
	distro string
}

var (
	detected     *Platform
	detectOnce   sync.Once
	testPlatform *Platform // For testing
)

// Detect returns the current platform information.
// Results are cached after the first call.
func Detect() *Platform {
	if testPlatform != nil {
		return testPlatform
	}

	detectOnce.Do(func() {
		detected = detect()
	})
	return detected
}

// SetTestPlatform sets a mock platform for testing.
// Pass nil to reset to actual detection.
func SetTestPlatform(p *Platform) {
	testPlatform = p
}

func detect() *Platform {
	p := &Platform{
		arch:   runtime.GOARCH,
		family: FamilyUnsupported,
	}

	switch runtime.GOOS {
	case "darwin":
		p.family = FamilyMacOS
	case "linux":
		if distro, ok := debianDistro(); ok {
			p.family = FamilyDebian
			p.distro = distro
		}
	}

	return p
}

// debianDistro reports whether /etc/os-release identifies a Debian-family
// distribution, and which one.
func debianDistro() (string, bool) {
	data, err := os.ReadFile("/etc/os-release")
	if err != nil {
		return "", false
	}

	var id, idLike string
	for _, line := range strings.Split(string(data), "\n") {
		switch {
		case strings.HasPrefix(line, "ID="):
			id = strings.Trim(strings.TrimPrefix(line, "ID="), "\"")
		case strings.HasPrefix(line, "ID_LIKE="):
			idLike = strings.Trim(strings.TrimPrefix(line, "ID_LIKE="), "\"")
		}
	}

	if id == "debian" || strings.Contains(idLike, "debian") {
		return id, true
	}
	return "", false
}

// Family returns the detected host family.
func (p *Platform) Family() Family {
	return p.family
}

// Arch returns the architecture.
func (p *Platform) Arch() string {
	return p.arch
}

// Distro returns the Linux distribution ID (empty on macOS).
func (p *Platform) Distro() string {
	return p.distro
}

// IsMacOS returns true on macOS.
func (p *Platform) IsMacOS() bool {
	return p.family == FamilyMacOS
}

// IsDebian returns true on a Debian-family Linux.
func (p *Platform) IsDebian() bool {
	return p.family == FamilyDebian
}

// IsSupported returns true if courseboot can bootstrap this host.
func (p *Platform) IsSupported() bool {
	return p.family != FamilyUnsupported
}

// HasCommand checks if a command is available in PATH.
func (p *Platform) HasCommand(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// String returns a human-readable description.
func (p *Platform) String() string {
	parts := []string{string(p.family), p.arch}
	if p.distro != "" {
		parts = append(parts, p.distro)
	}
	return strings.Join(parts, "/")
}

// New creates a Platform with specified values (for testing).
func New(family Family, arch, distro string) *Platform {
	return &Platform{
		family: family,
		arch:   arch,
		distro: distro,
	}
}
