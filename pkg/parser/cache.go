package parser

import (
	"bytes"
	"context"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/go-redis/redis/v8"

	"github.com/dativebase/old/pkg/artifacts"
)

// DefaultCacheSize bounds the in-memory LRU tier's entry count.
const DefaultCacheSize = 1000

// DefaultCacheTTL bounds how long a shared Redis-tier entry survives.
const DefaultCacheTTL = 24 * time.Hour

// Cache is a two-tier parse cache: an in-process LRU tier for hot
// lookups, optionally backed by Redis so parses survive a process
// restart and are shared across replicas. Entries are keyed by
// (parser id, compile attempt, transcription); a parser's compile
// attempt changes on every successful recompile, so stale entries
// simply fall out of use rather than requiring explicit invalidation.
type Cache struct {
	lru   *lru.Cache[string, ParseResult]
	redis *redis.Client
	ttl   time.Duration
}

// NewCache builds a Cache. redisClient may be nil, in which case the
// cache runs purely in-memory.
func NewCache(size int, redisClient *redis.Client, ttl time.Duration) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	l, err := lru.New[string, ParseResult](size)
	if err != nil {
		return nil, fmt.Errorf("creating parse cache: %w", err)
	}
	return &Cache{lru: l, redis: redisClient, ttl: ttl}, nil
}

func cacheKey(parserID int64, compileAttempt, transcription string) string {
	return fmt.Sprintf("%d:%s:%s", parserID, compileAttempt, transcription)
}

// Get returns a cached ParseResult, checking the LRU tier first and
// falling back to Redis (populating the LRU tier on a Redis hit).
func (c *Cache) Get(ctx context.Context, parserID int64, compileAttempt, transcription string) (ParseResult, bool) {
	key := cacheKey(parserID, compileAttempt, transcription)
	if v, ok := c.lru.Get(key); ok {
		return v, true
	}
	if c.redis == nil {
		return ParseResult{}, false
	}
	raw, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		return ParseResult{}, false
	}
	var result ParseResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return ParseResult{}, false
	}
	c.lru.Add(key, result)
	return result, true
}

// Set writes a ParseResult to both cache tiers.
func (c *Cache) Set(ctx context.Context, parserID int64, compileAttempt, transcription string, result ParseResult) {
	key := cacheKey(parserID, compileAttempt, transcription)
	c.lru.Add(key, result)
	if c.redis == nil {
		return
	}
	payload, err := json.Marshal(result)
	if err != nil {
		return
	}
	c.redis.Set(ctx, key, payload, c.ttl)
}

// Clear purges the in-memory tier. When persist is true it first
// snapshots the tier's current contents to path (the parser's
// cache.pickle equivalent), so the bundle an export produces reflects
// parses computed under the compile attempt that just ended.
func (c *Cache) Clear(persist bool, path string) error {
	if persist {
		if err := c.Export(path); err != nil {
			return err
		}
	}
	c.lru.Purge()
	return nil
}

// Export gob-encodes the LRU tier's current entries to path.
func (c *Cache) Export(path string) error {
	entries := make(map[string]ParseResult, c.lru.Len())
	for _, key := range c.lru.Keys() {
		if v, ok := c.lru.Peek(key); ok {
			entries[key] = v
		}
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(entries); err != nil {
		return fmt.Errorf("encoding parse cache: %w", err)
	}
	return artifacts.WriteFile(path, buf.Bytes())
}

// Load restores previously-exported entries into the LRU tier.
func (c *Cache) Load(path string) error {
	data, err := artifacts.ReadFile(path)
	if err != nil {
		return err
	}
	var entries map[string]ParseResult
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&entries); err != nil {
		return fmt.Errorf("decoding parse cache: %w", err)
	}
	for k, v := range entries {
		c.lru.Add(k, v)
	}
	return nil
}
