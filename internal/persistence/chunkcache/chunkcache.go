// Package chunkcache keeps generated chunks in LevelDB so restarts do not
// regenerate terrain.
package chunkcache

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync/atomic"

	"github.com/df-mc/goleveldb/leveldb"

	"skyvox.io/internal/sim/stream"
	"skyvox.io/internal/sim/terrain"
)

// Cache wraps a generator. Lookups and stores are safe from any worker.
type Cache struct {
	db     *leveldb.DB
	inner  stream.Generator
	seed   int64
	logger *log.Logger

	hits   atomic.Uint64
	misses atomic.Uint64
}

func Open(dir string, seed int64, inner stream.Generator, logger *log.Logger) (*Cache, error) {
	if inner == nil {
		return nil, errors.New("chunkcache: nil generator")
	}
	db, err := leveldb.OpenFile(dir, nil)
	if err != nil {
		return nil, fmt.Errorf("open chunk cache: %w", err)
	}
	return &Cache{db: db, inner: inner, seed: seed, logger: logger}, nil
}

func (c *Cache) key(k terrain.Key) []byte {
	b := make([]byte, 16)
	binary.BigEndian.PutUint64(b[0:8], uint64(c.seed))
	binary.BigEndian.PutUint32(b[8:12], uint32(k.X))
	binary.BigEndian.PutUint32(b[12:16], uint32(k.Y))
	return b
}

func (c *Cache) logf(format string, args ...any) {
	if c.logger != nil {
		c.logger.Printf(format, args...)
	}
}

// Load returns the cached chunk at k, if any.
func (c *Cache) Load(k terrain.Key) (*terrain.Chunk, bool) {
	raw, err := c.db.Get(c.key(k), nil)
	if err != nil {
		if !errors.Is(err, leveldb.ErrNotFound) {
			c.logf("chunk cache read %v: %v", k, err)
		}
		return nil, false
	}
	var p terrain.Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		c.logf("chunk cache decode %v: %v", k, err)
		return nil, false
	}
	ch, err := terrain.DecodePayload(p)
	if err != nil {
		c.logf("chunk cache decode %v: %v", k, err)
		return nil, false
	}
	return ch, true
}

func (c *Cache) Store(k terrain.Key, ch *terrain.Chunk) error {
	raw, err := json.Marshal(ch.Payload())
	if err != nil {
		return err
	}
	return c.db.Put(c.key(k), raw, nil)
}

// GenerateChunk serves from the cache, falling back to the wrapped
// generator and storing its result.
func (c *Cache) GenerateChunk(k terrain.Key) *terrain.Chunk {
	if ch, ok := c.Load(k); ok {
		c.hits.Add(1)
		return ch
	}
	c.misses.Add(1)
	ch := c.inner.GenerateChunk(k)
	if ch != nil {
		if err := c.Store(k, ch); err != nil {
			c.logf("chunk cache write %v: %v", k, err)
		}
	}
	return ch
}

func (c *Cache) Hits() uint64   { return c.hits.Load() }
func (c *Cache) Misses() uint64 { return c.misses.Load() }

func (c *Cache) Close() error { return c.db.Close() }
