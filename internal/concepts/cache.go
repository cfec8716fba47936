package concepts

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the default extraction cache capacity.
const DefaultCacheSize = 1024

// CachedExtractor wraps an Extractor with an LRU cache keyed by the SHA-256
// of the text. Extraction is deterministic per text, so cached results never
// go stale.
type CachedExtractor struct {
	inner Extractor
	cache *lru.Cache[string, []string]
}

// NewCachedExtractor wraps inner with a cache of the given capacity.
// Zero or negative capacity means DefaultCacheSize.
func NewCachedExtractor(inner Extractor, capacity int) (*CachedExtractor, error) {
	if capacity <= 0 {
		capacity = DefaultCacheSize
	}
	cache, err := lru.New[string, []string](capacity)
	if err != nil {
		return nil, err
	}
	return &CachedExtractor{inner: inner, cache: cache}, nil
}

// Extract returns the cached concepts for the text, calling the inner
// extractor on a miss. Returned slices are copies; callers may mutate them.
func (c *CachedExtractor) Extract(ctx context.Context, text string) ([]string, error) {
	key := hashKey(text)
	if cached, ok := c.cache.Get(key); ok {
		return append([]string(nil), cached...), nil
	}
	concepts, err := c.inner.Extract(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, append([]string(nil), concepts...))
	return concepts, nil
}

// Len returns the number of cached entries.
func (c *CachedExtractor) Len() int {
	return c.cache.Len()
}

func hashKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
