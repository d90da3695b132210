package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileStore provides simple file-based persistence for JSON documents.
// Every named document lives as one file under the data directory.
type FileStore struct {
	dataDir string
	mu      sync.RWMutex
}

// NewFileStore creates a new file store rooted at dataDir
func NewFileStore(dataDir string) *FileStore {
	if dataDir == "" {
		dataDir = "docs"
	}

	// Create data directory if it doesn't exist
	os.MkdirAll(dataDir, 0755)

	return &FileStore{
		dataDir: dataDir,
	}
}

// Path returns the full path of a named document
func (s *FileStore) Path(name string) string {
	return filepath.Join(s.dataDir, name)
}

// Exists reports whether a named document exists on disk
func (s *FileStore) Exists(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, err := os.Stat(s.Path(name))
	return err == nil
}

// ModTime returns the last modification time of a named document
func (s *FileStore) ModTime(name string) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info, err := os.Stat(s.Path(name))
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

// LoadJSON reads a named document and unmarshals it into v
func (s *FileStore) LoadJSON(name string, v interface{}) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.Path(name))
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("corrupted document %s: %w", name, err)
	}
	return nil
}

// SaveJSON marshals v and writes it to the named document atomically.
// A temp file and rename keep readers from seeing partial writes.
func (s *FileStore) SaveJSON(name string, v interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal document %s: %w", name, err)
	}

	target := s.Path(name)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, target)
}

// CopyBackup writes a timestamped backup copy of a named document
func (s *FileStore) CopyBackup(name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.Path(name))
	if err != nil {
		return "", err
	}

	backup := fmt.Sprintf("%s.%s.bak", s.Path(name), time.Now().UTC().Format("20060102T150405Z"))
	if err := os.WriteFile(backup, data, 0644); err != nil {
		return "", err
	}
	return backup, nil
}

// Delete removes a named document
func (s *FileStore) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return os.Remove(s.Path(name))
}
