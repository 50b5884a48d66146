// Package localcache provides the local snapshot store: JSON blobs under
// flat string keys, mirroring the remote document store for offline reads.
package localcache

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
)

// Cache is a flat key-value store of JSON snapshots. Keys follow the
// historical local storage convention: "appSettings", "calendarPosts",
// "client_auth_{clientId}".
type Cache interface {
	// Get returns the snapshot for key and whether one exists.
	Get(key string) ([]byte, bool)
	// Set stores the snapshot for key, replacing any previous value.
	Set(key string, value []byte) error
	// Delete removes the snapshot for key. Missing keys are not an error.
	Delete(key string) error
}

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// FileCache implements Cache as one JSON file per key inside a directory.
// Writes are atomic (temp file + rename) so a crash mid-write never leaves a
// truncated snapshot behind.
type FileCache struct {
	mu  sync.Mutex
	dir string
}

// NewFileCache creates the cache directory if needed and returns a FileCache.
func NewFileCache(dir string) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir %s: %w", dir, err)
	}
	return &FileCache{dir: dir}, nil
}

func (c *FileCache) path(key string) (string, error) {
	if !keyPattern.MatchString(key) {
		return "", fmt.Errorf("invalid cache key %q", key)
	}
	return filepath.Join(c.dir, key+".json"), nil
}

func (c *FileCache) Get(key string) ([]byte, bool) {
	p, err := c.path(key)
	if err != nil {
		return nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	b, err := os.ReadFile(p)
	if err != nil {
		return nil, false
	}
	return b, true
}

func (c *FileCache) Set(key string, value []byte) error {
	p, err := c.path(key)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	tmp, err := os.CreateTemp(c.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp snapshot for %s: %w", key, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write snapshot for %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close snapshot for %s: %w", key, err)
	}
	if err := os.Rename(tmpName, p); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("commit snapshot for %s: %w", key, err)
	}
	return nil
}

func (c *FileCache) Delete(key string) error {
	p, err := c.path(key)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
