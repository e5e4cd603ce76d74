package mcpserver

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/TechnologyAdvice/Vers/internal/options"
	"github.com/TechnologyAdvice/Vers/migration"
)

// migrationInput represents the two ways a migration document can be provided
// to a tool. Exactly one of File or Content must be set.
type migrationInput struct {
	File    string `json:"file,omitempty"    jsonschema:"Path to a migration document on disk"`
	Content string `json:"content,omitempty" jsonschema:"Inline migration document content (YAML or JSON)"`
}

// cacheEntry holds a loaded document and engine with LRU ordering and TTL expiry.
type cacheEntry struct {
	result    *migration.LoadResult
	insertAt  time.Time
	expiresAt time.Time
}

// engineCacheStore is a session-scoped cache of loaded migration documents.
// File inputs are keyed by (absolutePath, modTime) and content inputs by a
// SHA-256 hash. A background sweeper removes expired entries.
type engineCacheStore struct {
	mu             sync.Mutex
	entries        map[string]*cacheEntry
	maxSize        int
	sweeperStarted atomic.Bool
}

var engineCache = &engineCacheStore{
	entries: make(map[string]*cacheEntry),
	maxSize: cfg.CacheMaxSize,
}

// get returns a cached result or nil. Expired entries are lazily removed.
func (c *engineCacheStore) get(key string) *migration.LoadResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil
	}
	if time.Now().After(e.expiresAt) {
		delete(c.entries, key)
		return nil
	}
	e.insertAt = time.Now()
	return e.result
}

// putWithTTL stores a result, evicting the least recently used entry when full.
func (c *engineCacheStore) putWithTTL(key string, result *migration.LoadResult, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	entry := &cacheEntry{result: result, insertAt: now, expiresAt: now.Add(ttl)}

	if _, ok := c.entries[key]; ok {
		c.entries[key] = entry
		return
	}

	if c.maxSize > 0 && len(c.entries) >= c.maxSize {
		var oldestKey string
		var oldestTime time.Time
		for k, e := range c.entries {
			if oldestKey == "" || e.insertAt.Before(oldestTime) {
				oldestKey = k
				oldestTime = e.insertAt
			}
		}
		delete(c.entries, oldestKey)
	}

	c.entries[key] = entry
}

// sweep removes all expired entries.
func (c *engineCacheStore) sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
		}
	}
}

// startSweeper launches a goroutine that periodically calls sweep until ctx
// is cancelled. Only the first call spawns a sweeper.
func (c *engineCacheStore) startSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	if !c.sweeperStarted.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer c.sweeperStarted.Store(false)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.sweep()
			}
		}
	}()
}

// reset clears all cached entries. Used in tests.
func (c *engineCacheStore) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*cacheEntry)
}

func (c *engineCacheStore) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// cacheKey returns the key for m, or "" when the input cannot be cached.
// Strict and lenient engines are cached separately.
func (m migrationInput) cacheKey(strict bool) string {
	suffix := ":lenient"
	if strict {
		suffix = ":strict"
	}
	switch {
	case m.File != "":
		absPath, err := filepath.Abs(m.File)
		if err != nil {
			return ""
		}
		info, err := os.Stat(absPath)
		if err != nil {
			return ""
		}
		return fmt.Sprintf("file:%s:%d%s", absPath, info.ModTime().UnixNano(), suffix)
	case m.Content != "":
		h := sha256.Sum256([]byte(m.Content))
		return "content:" + hex.EncodeToString(h[:]) + suffix
	default:
		return ""
	}
}

// resolve loads the document and builds its engine, using the cache when enabled.
func (m migrationInput) resolve(strict bool) (*migration.LoadResult, error) {
	if err := options.ValidateSingleInputSource(
		"exactly one of file or content must be provided (got 0)",
		"exactly one of file or content must be provided (got 2)",
		m.File != "", m.Content != "",
	); err != nil {
		return nil, err
	}

	if m.Content != "" && int64(len(m.Content)) > cfg.MaxInlineSize {
		return nil, fmt.Errorf("inline content size %d bytes exceeds maximum %d bytes; use file input instead, or set VERS_MAX_INLINE_SIZE to increase",
			len(m.Content), cfg.MaxInlineSize)
	}

	var key string
	if cfg.CacheEnabled {
		key = m.cacheKey(strict)
	}
	if key != "" {
		if cached := engineCache.get(key); cached != nil {
			return cached, nil
		}
	}

	opts := []migration.Option{migration.WithStrictTargets(strict)}
	if m.File != "" {
		opts = append(opts, migration.WithFilePath(m.File))
	} else {
		opts = append(opts, migration.WithBytes([]byte(m.Content)))
	}
	result, err := migration.LoadWithOptions(opts...)
	if err != nil {
		return nil, err
	}

	if key != "" {
		engineCache.putWithTTL(key, result, cfg.CacheTTL)
	}
	return result, nil
}
