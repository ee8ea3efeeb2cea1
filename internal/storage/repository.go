// Package storage provides the file repository every pipeline stage reads and
// writes through. Plugin sources and generated output live as loose files; the
// Repository interface keeps loading, validation and generation testable
// against an in-memory fake.
package storage

import "errors"

// ErrNotExist is returned when a path is missing from the repository
var ErrNotExist = errors.New("path does not exist")

// Entry describes one directory entry
type Entry struct {
	Name  string
	IsDir bool
	Size  int64
}

// Repository defines the narrow file contract used by the loader, healer,
// validator and adapters
type Repository interface {
	// ReadFile returns the content of a file
	ReadFile(path string) ([]byte, error)
	// WriteFile writes a file, creating parent directories as needed
	WriteFile(path string, data []byte) error
	// Exists reports whether a file or directory exists
	Exists(path string) bool
	// IsDir reports whether path is an existing directory
	IsDir(path string) bool
	// ReadDir lists a directory sorted by name
	ReadDir(path string) ([]Entry, error)
	// MkdirAll creates a directory and its parents
	MkdirAll(path string) error
	// Rename moves a file; it fails if the target already exists
	Rename(oldPath, newPath string) error
}
