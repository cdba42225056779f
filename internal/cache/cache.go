package cache

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"

	"marquee/internal/domain"
)

var bucketListings = []byte("listings")

// entry is the stored value for one cache key. Checksum records the
// reload token the listing was resolved under.
type entry struct {
	Checksum string         `json:"checksum"`
	Items    []*domain.Item `json:"items"`
	StoredAt int64          `json:"storedAt"`
}

// Cache maps a request-shaped key plus invalidation token to a resolved
// item list. Entries never expire on their own; freshness is driven
// entirely by the caller-supplied checksum. Backed by BoltDB with an
// in-memory promote layer for hot keys.
type Cache struct {
	db     *bolt.DB
	logger *slog.Logger

	mu  sync.RWMutex
	mem map[string][]byte
}

// New opens (or creates) the cache database at path. An empty path gives
// a memory-only cache.
func New(path string, logger *slog.Logger) (*Cache, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if path == "" {
		return &Cache{logger: logger, mem: make(map[string][]byte)}, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open cache db: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketListings)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Cache{db: db, logger: logger, mem: make(map[string][]byte)}, nil
}

func (c *Cache) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Get returns the stored listing for key. With an empty checksum any
// stored entry is accepted (startup fast path); otherwise the entry is
// only returned when it was stored under the same checksum.
func (c *Cache) Get(key, checksum string) ([]*domain.Item, bool) {
	data, ok := c.load(key)
	if !ok {
		return nil, false
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		c.logger.Warn("dropping undecodable cache entry", "key", key, "error", err)
		return nil, false
	}
	if checksum != "" && e.Checksum != checksum {
		c.logger.Debug("cache checksum mismatch", "key", key, "want", checksum, "have", e.Checksum)
		return nil, false
	}
	return e.Items, true
}

// Set stores the listing for key under the given checksum, overwriting
// any prior entry regardless of its token.
func (c *Cache) Set(key, checksum string, items []*domain.Item) error {
	data, err := json.Marshal(entry{
		Checksum: checksum,
		Items:    items,
		StoredAt: time.Now().Unix(),
	})
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.mem[key] = data
	c.mu.Unlock()

	if c.db == nil {
		return nil
	}
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketListings).Put([]byte(key), data)
	})
}

func (c *Cache) load(key string) ([]byte, bool) {
	c.mu.RLock()
	if data, ok := c.mem[key]; ok {
		c.mu.RUnlock()
		return data, true
	}
	c.mu.RUnlock()

	if c.db == nil {
		return nil, false
	}

	var data []byte
	c.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(bucketListings).Get([]byte(key)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})
	if data == nil {
		return nil, false
	}

	// Promote to the memory layer
	c.mu.Lock()
	c.mem[key] = data
	c.mu.Unlock()

	return data, true
}
