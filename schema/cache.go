package schema

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CachingResolver remembers successfully fetched documents for the life of
// the process. Failures are never cached.
type CachingResolver struct {
	next  Resolver
	cache *lru.Cache[string, []byte]
}

// NewCachingResolver caches up to size documents resolved by next.
func NewCachingResolver(next Resolver, size int) (*CachingResolver, error) {
	cache, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, fmt.Errorf("schema cache: %w", err)
	}
	return &CachingResolver{next: next, cache: cache}, nil
}

func (c *CachingResolver) Resolve(ctx context.Context, uri string) ([]byte, error) {
	if doc, ok := c.cache.Get(uri); ok {
		return doc, nil
	}
	doc, err := c.next.Resolve(ctx, uri)
	if err != nil {
		return nil, err
	}
	c.cache.Add(uri, doc)
	return doc, nil
}
