package storage

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"
	"sync"
)

// MemoryRepository implements Repository in memory. Directories are implied by
// the files beneath them and may also be created explicitly.
type MemoryRepository struct {
	mu    sync.RWMutex
	files map[string][]byte
	dirs  map[string]bool
}

// NewMemoryRepository creates an empty in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		files: make(map[string][]byte),
		dirs:  make(map[string]bool),
	}
}

// ReadFile returns a copy of the file content
func (r *MemoryRepository) ReadFile(path string) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	data, ok := r.files[filepath.Clean(path)]
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, ErrNotExist)
	}
	return slices.Clone(data), nil
}

// WriteFile stores a copy of data and records every parent directory
func (r *MemoryRepository) WriteFile(path string, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	path = filepath.Clean(path)
	if r.dirs[path] {
		return fmt.Errorf("%s is a directory", path)
	}
	r.mkdirLocked(filepath.Dir(path))
	r.files[path] = slices.Clone(data)
	return nil
}

// Exists reports whether a file or directory exists
func (r *MemoryRepository) Exists(path string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	path = filepath.Clean(path)
	_, isFile := r.files[path]
	return isFile || r.dirs[path]
}

// IsDir reports whether path is an existing directory
func (r *MemoryRepository) IsDir(path string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.dirs[filepath.Clean(path)]
}

// ReadDir lists the immediate children of a directory sorted by name
func (r *MemoryRepository) ReadDir(path string) ([]Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	path = filepath.Clean(path)
	if !r.dirs[path] {
		return nil, fmt.Errorf("%s: %w", path, ErrNotExist)
	}

	var entries []Entry
	for dir := range r.dirs {
		if dir != path && filepath.Dir(dir) == path {
			entries = append(entries, Entry{Name: filepath.Base(dir), IsDir: true})
		}
	}
	for file, data := range r.files {
		if filepath.Dir(file) == path {
			entries = append(entries, Entry{Name: filepath.Base(file), Size: int64(len(data))})
		}
	}

	slices.SortFunc(entries, func(a, b Entry) int { return strings.Compare(a.Name, b.Name) })
	return entries, nil
}

// MkdirAll records a directory and its parents
func (r *MemoryRepository) MkdirAll(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	path = filepath.Clean(path)
	if _, isFile := r.files[path]; isFile {
		return fmt.Errorf("%s is a file", path)
	}
	r.mkdirLocked(path)
	return nil
}

// Rename moves a file; it fails if the target already exists
func (r *MemoryRepository) Rename(oldPath, newPath string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	oldPath, newPath = filepath.Clean(oldPath), filepath.Clean(newPath)
	data, ok := r.files[oldPath]
	if !ok {
		return fmt.Errorf("%s: %w", oldPath, ErrNotExist)
	}
	if _, exists := r.files[newPath]; exists || r.dirs[newPath] {
		return fmt.Errorf("rename target %s: %w", newPath, fs.ErrExist)
	}

	r.mkdirLocked(filepath.Dir(newPath))
	r.files[newPath] = data
	delete(r.files, oldPath)
	return nil
}

// Files returns every stored file path in sorted order
func (r *MemoryRepository) Files() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	paths := make([]string, 0, len(r.files))
	for p := range r.files {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	return paths
}

// Remove deletes a file. It exists for tests simulating external changes.
func (r *MemoryRepository) Remove(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.files, filepath.Clean(path))
}

func (r *MemoryRepository) mkdirLocked(path string) {
	for {
		if r.dirs[path] {
			return
		}
		r.dirs[path] = true
		parent := filepath.Dir(path)
		if parent == path {
			return
		}
		path = parent
	}
}
