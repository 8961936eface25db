package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ChunkStore stages uploaded video fragments on disk until a merge request
// consumes them. Fragments are keyed by (target file name, index); the same
// key always maps to the same staging path, so a resent fragment simply
// overwrites the previous copy.
type ChunkStore struct {
	tempDir string
}

func NewChunkStore(tempDir string) *ChunkStore {
	return &ChunkStore{tempDir: tempDir}
}

// FragmentPath returns the staging path for a fragment.
func (s *ChunkStore) FragmentPath(targetFileName string, index int) string {
	return filepath.Join(s.tempDir, fmt.Sprintf("%s.part%d", targetFileName, index))
}

// StoreFragment writes the fragment bytes to the staging area, overwriting
// any previous fragment with the same key.
func (s *ChunkStore) StoreFragment(targetFileName string, index int, src io.Reader) error {
	if err := os.MkdirAll(s.tempDir, 0o755); err != nil {
		return fmt.Errorf("failed to create temp directory: %w", err)
	}

	dst, err := os.Create(s.FragmentPath(targetFileName, index))
	if err != nil {
		return fmt.Errorf("failed to create fragment file: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return fmt.Errorf("failed to write fragment: %w", err)
	}
	return dst.Close()
}

// FragmentExists reports whether a fragment is staged under the given key.
func (s *ChunkStore) FragmentExists(targetFileName string, index int) bool {
	info, err := os.Stat(s.FragmentPath(targetFileName, index))
	return err == nil && !info.IsDir()
}

// DeleteFragment removes a staged fragment. Removing a fragment that is
// already gone is not an error.
func (s *ChunkStore) DeleteFragment(targetFileName string, index int) error {
	err := os.Remove(s.FragmentPath(targetFileName, index))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete fragment: %w", err)
	}
	return nil
}

// Resolve finds a staged fragment under any of the candidate file names,
// tried in priority order. Older clients staged fragments under the
// client-declared file name instead of the lecture-derived one, so lookups
// accept both.
func (s *ChunkStore) Resolve(candidates []string, index int) (string, bool) {
	for _, name := range candidates {
		if name == "" {
			continue
		}
		if s.FragmentExists(name, index) {
			return name, true
		}
	}
	return "", false
}
