// SPDX-License-Identifier: Apache-2.0

package store

import (
	"os"
	"sync"
)

// fileCacheKey identifies a concrete on-disk file state. Two reads of the
// same path with equal modification time and size are assumed identical.
type fileCacheKey struct {
	modTimeNano int64
	size        int64
}

type fileCacheEntry[T any] struct {
	key  fileCacheKey
	data T
}

// FileCache is a thread-safe single-file content cache keyed by the file's
// (mtime, size) pair. It avoids re-parsing configuration files on every
// request while still picking up edits immediately.
type FileCache[T any] struct {
	mu      sync.Mutex
	entries map[string]fileCacheEntry[T]
}

// NewFileCache returns an empty cache.
func NewFileCache[T any]() *FileCache[T] {
	return &FileCache[T]{
		entries: make(map[string]fileCacheEntry[T]),
	}
}

// Get returns the cached content for path, invoking loader only when the
// file changed since the last call. A missing file yields the zero value
// with ok=false and no loader invocation. Loader errors are returned as-is
// and nothing is cached.
func (c *FileCache[T]) Get(path string, loader func(string) (T, error)) (T, bool, error) {
	var zero T

	info, err := os.Stat(path)
	if err != nil {
		return zero, false, nil
	}

	key := fileCacheKey{
		modTimeNano: info.ModTime().UnixNano(),
		size:        info.Size(),
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.entries[path]; ok && entry.key == key {
		return entry.data, true, nil
	}

	data, err := loader(path)
	if err != nil {
		return zero, false, err
	}

	c.entries[path] = fileCacheEntry[T]{key: key, data: data}
	return data, true, nil
}

// Invalidate drops the cache entry for path.
func (c *FileCache[T]) Invalidate(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, path)
}

// Clear drops every cache entry.
func (c *FileCache[T]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]fileCacheEntry[T])
}
