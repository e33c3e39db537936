// Package cache persists the last good catalog document per source so a
// failed reload can still serve recent data.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

type Entry struct {
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
	TTL       time.Duration   `json:"ttl"`
}

func (e Entry) expired(now time.Time) bool {
	return e.TTL > 0 && now.Sub(e.Timestamp) > e.TTL
}

// Cache is a JSON file of keyed entries with per-entry TTL.
type Cache struct {
	path    string
	entries map[string]Entry
	mu      sync.RWMutex
	saveMu  sync.Mutex
}

func New(path string) (*Cache, error) {
	c := &Cache{
		path:    path,
		entries: make(map[string]Entry),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, fmt.Errorf("read cache: %w", err)
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &c.entries); err != nil {
			// Ignore corrupt cache, start fresh
			c.entries = make(map[string]Entry)
		}
	}

	return c, nil
}

// Get decodes the entry for key into target. Expired entries are dropped and
// reported as missing.
func (c *Cache) Get(key string, target interface{}) (bool, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return false, nil
	}

	if entry.expired(time.Now()) {
		c.mu.Lock()
		if e, exists := c.entries[key]; exists && e.expired(time.Now()) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return false, nil
	}

	if err := json.Unmarshal(entry.Data, target); err != nil {
		return false, fmt.Errorf("unmarshal cache entry: %w", err)
	}
	return true, nil
}

// GetRaw returns the stored bytes for key and when they were written.
func (c *Cache) GetRaw(key string) ([]byte, time.Time, bool) {
	var raw json.RawMessage
	found, err := c.Get(key, &raw)
	if err != nil || !found {
		return nil, time.Time{}, false
	}

	c.mu.RLock()
	stamp := c.entries[key].Timestamp
	c.mu.RUnlock()
	return raw, stamp, true
}

func (c *Cache) Put(key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal value: %w", err)
	}

	c.mu.Lock()
	c.entries[key] = Entry{
		Data:      data,
		Timestamp: time.Now(),
		TTL:       ttl,
	}
	c.mu.Unlock()

	return c.save()
}

// PutRaw stores an already encoded JSON document.
func (c *Cache) PutRaw(key string, raw []byte, ttl time.Duration) error {
	if !json.Valid(raw) {
		return fmt.Errorf("cache %s: value is not valid JSON", key)
	}
	return c.Put(key, json.RawMessage(raw), ttl)
}

func (c *Cache) save() error {
	c.saveMu.Lock()
	defer c.saveMu.Unlock()

	if dir := filepath.Dir(c.path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create cache dir: %w", err)
		}
	}

	c.mu.RLock()
	data, err := json.MarshalIndent(c.entries, "", "  ")
	c.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("marshal cache: %w", err)
	}

	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write cache: %w", err)
	}
	return os.Rename(tmp, c.path)
}

// Remove evicts key and persists the change. Missing keys are a no-op.
func (c *Cache) Remove(key string) error {
	c.mu.Lock()
	_, ok := c.entries[key]
	delete(c.entries, key)
	c.mu.Unlock()
	if !ok {
		return nil
	}
	return c.save()
}

// CatalogKey is the key of the last good document fetched from sourceURL.
func CatalogKey(sourceURL string) string {
	return strings.Join([]string{"catalog", "v1", sourceURL}, "|")
}
