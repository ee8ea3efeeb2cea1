package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func repositories(t *testing.T) map[string]struct {
	repo Repository
	root string
} {
	return map[string]struct {
		repo Repository
		root string
	}{
		"disk":   {repo: NewDiskRepository(), root: t.TempDir()},
		"memory": {repo: NewMemoryRepository(), root: "/plugin"},
	}
}

func TestRepository_WriteAndRead(t *testing.T) {
	for name, tc := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(tc.root, "nested", "dir", "file.txt")
			require.NoError(t, tc.repo.WriteFile(path, []byte("hello")))

			data, err := tc.repo.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, "hello", string(data))

			assert.True(t, tc.repo.Exists(path))
			assert.True(t, tc.repo.IsDir(filepath.Join(tc.root, "nested", "dir")))
			assert.False(t, tc.repo.IsDir(path))
		})
	}
}

func TestRepository_ReadMissing(t *testing.T) {
	for name, tc := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			_, err := tc.repo.ReadFile(filepath.Join(tc.root, "missing.txt"))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrNotExist))

			_, err = tc.repo.ReadDir(filepath.Join(tc.root, "missing"))
			assert.True(t, errors.Is(err, ErrNotExist))
		})
	}
}

func TestRepository_ReadDirSortedWithSizes(t *testing.T) {
	for name, tc := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, tc.repo.WriteFile(filepath.Join(tc.root, "b.md"), []byte("bb")))
			require.NoError(t, tc.repo.WriteFile(filepath.Join(tc.root, "a.md"), nil))
			require.NoError(t, tc.repo.MkdirAll(filepath.Join(tc.root, "c")))

			entries, err := tc.repo.ReadDir(tc.root)
			require.NoError(t, err)
			require.Len(t, entries, 3)

			assert.Equal(t, Entry{Name: "a.md", Size: 0}, entries[0])
			assert.Equal(t, Entry{Name: "b.md", Size: 2}, entries[1])
			assert.Equal(t, "c", entries[2].Name)
			assert.True(t, entries[2].IsDir)
		})
	}
}

func TestRepository_RenameRefusesOverwrite(t *testing.T) {
	for name, tc := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			oldPath := filepath.Join(tc.root, "old.js")
			newPath := filepath.Join(tc.root, "new.js")
			require.NoError(t, tc.repo.WriteFile(oldPath, []byte("old")))
			require.NoError(t, tc.repo.WriteFile(newPath, []byte("new")))

			assert.Error(t, tc.repo.Rename(oldPath, newPath))

			data, err := tc.repo.ReadFile(newPath)
			require.NoError(t, err)
			assert.Equal(t, "new", string(data))
			assert.True(t, tc.repo.Exists(oldPath))
		})
	}
}

func TestRepository_Rename(t *testing.T) {
	for name, tc := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			oldPath := filepath.Join(tc.root, "old.js")
			newPath := filepath.Join(tc.root, "new.js")
			require.NoError(t, tc.repo.WriteFile(oldPath, []byte("content")))

			require.NoError(t, tc.repo.Rename(oldPath, newPath))
			assert.False(t, tc.repo.Exists(oldPath))

			data, err := tc.repo.ReadFile(newPath)
			require.NoError(t, err)
			assert.Equal(t, "content", string(data))
		})
	}
}

func TestDiskRepository_ShebangIsExecutable(t *testing.T) {
	dir := t.TempDir()
	repo := NewDiskRepository()

	script := filepath.Join(dir, "stop-hook.js")
	require.NoError(t, repo.WriteFile(script, []byte("#!/usr/bin/env node\n")))
	plain := filepath.Join(dir, "README.md")
	require.NoError(t, repo.WriteFile(plain, []byte("# readme\n")))

	info, err := os.Stat(script)
	require.NoError(t, err)
	assert.NotZero(t, info.Mode().Perm()&0100)

	info, err = os.Stat(plain)
	require.NoError(t, err)
	assert.Zero(t, info.Mode().Perm()&0100)
}

func TestDiskRepository_NoTempFilesLeft(t *testing.T) {
	dir := t.TempDir()
	repo := NewDiskRepository()

	require.NoError(t, repo.WriteFile(filepath.Join(dir, "a.json"), []byte("{}")))

	entries, err := repo.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a.json", entries[0].Name)
}

func TestMemoryRepository_CopiesData(t *testing.T) {
	repo := NewMemoryRepository()
	data := []byte("abc")
	require.NoError(t, repo.WriteFile("/x/y.txt", data))
	data[0] = 'z'

	stored, err := repo.ReadFile("/x/y.txt")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(stored))

	assert.Equal(t, []string{"/x/y.txt"}, repo.Files())
}
