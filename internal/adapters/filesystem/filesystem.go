// Package filesystem provides the real FileSystem adapter.
package filesystem

import (
	"os"

	"github.com/felixgeelhaar/courseboot/internal/ports"
)

// RealFileSystem implements ports.FileSystem against the host file system.
type RealFileSystem struct{}

// NewRealFileSystem creates a new RealFileSystem.
func NewRealFileSystem() *RealFileSystem {
	return &RealFileSystem{}
}

// ReadFile reads the named file.
func (f *RealFileSystem) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(ports.ExpandPath(path))
}

// WriteFile writes data to the named file, creating it if necessary.
func (f *RealFileSystem) WriteFile(path string, data []byte, perm os.FileMode) error {
	return os.WriteFile(ports.ExpandPath(path), data, perm)
}

// Exists reports whether the path exists.
func (f *RealFileSystem) Exists(path string) bool {
	_, err := os.Stat(ports.ExpandPath(path))
	return err == nil
}

// IsDir reports whether the path exists and is a directory.
func (f *RealFileSystem) IsDir(path string) bool {
	info, err := os.Stat(ports.ExpandPath(path))
	return err == nil && info.IsDir()
}

// MkdirAll creates the directory and any missing parents.
func (f *RealFileSystem) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(ports.ExpandPath(path), perm)
}

// Remove removes the named file or empty directory.
func (f *RealFileSystem) Remove(path string) error {
	return os.Remove(ports.ExpandPath(path))
}

// Ensure RealFileSystem implements ports.FileSystem.
var _ ports.FileSystem = (*RealFileSystem)(nil)
