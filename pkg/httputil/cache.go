package httputil

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"time"
)

// ErrExpired is returned by [Cache.Get] when a cached entry exists but has
// exceeded its time-to-live. The stale bytes still exist on disk; callers
// should refetch and refresh the entry with [Cache.Set].
var ErrExpired = errors.New("cache entry expired")

// Cache is a file-based byte cache keyed by arbitrary strings, typically
// image URLs. Filenames are SHA-256 hashes of the key, so keys of any
// length and content are safe.
//
// Cache operations are not goroutine-safe on a single entry, but writes are
// whole-file and reads never mutate, so concurrent use across distinct keys
// is fine. Entries expire by file modification time; a TTL of 0 never
// expires.
type Cache struct {
	dir    string
	ttl    time.Duration
	prefix string
}

// NewCache creates a Cache that stores entries in dir with the given TTL.
// An empty dir means ~/.cache/beautycanvas/. The directory is created if it
// does not exist.
func NewCache(dir string, ttl time.Duration) (*Cache, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(home, ".cache", "beautycanvas")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Cache{dir: dir, ttl: ttl, prefix: ""}, nil
}

// Dir returns the absolute path to the cache directory.
func (c *Cache) Dir() string { return c.dir }

// TTL returns the time-to-live for cache entries. 0 means never expire.
func (c *Cache) TTL() time.Duration { return c.ttl }

// Get retrieves the cached bytes for key.
//
// Outcomes:
//   - (data, true, nil): hit, entry is fresh
//   - (nil, false, nil): miss, no entry for this key
//   - (nil, false, ErrExpired): entry exists but exceeded its TTL
//   - (nil, false, other error): I/O failure
func (c *Cache) Get(key string) ([]byte, bool, error) {
	path := c.keyPath(c.prefix + key)
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if c.ttl > 0 && time.Since(info.ModTime()) > c.ttl {
		return nil, false, ErrExpired
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Set stores data under key, overwriting any existing entry and resetting
// its TTL.
func (c *Cache) Set(key string, data []byte) error {
	return os.WriteFile(c.keyPath(c.prefix+key), data, 0o644)
}

// Namespace returns a view of the cache that prefixes every key, keeping
// different sources from colliding:
//
//	slots := cache.Namespace("slot:")
//	outputs := cache.Namespace("enhanced:")
//
// The returned Cache shares the parent's directory and TTL. Calls can be
// chained for hierarchical key spaces.
func (c *Cache) Namespace(prefix string) *Cache {
	return &Cache{
		dir:    c.dir,
		ttl:    c.ttl,
		prefix: c.prefix + prefix,
	}
}

func (c *Cache) keyPath(key string) string {
	h := sha256.Sum256([]byte(key))
	return filepath.Join(c.dir, hex.EncodeToString(h[:]))
}
