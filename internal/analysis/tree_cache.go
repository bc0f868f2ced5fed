package analysis

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"

	"github.com/standardbeagle/disposeflow/internal/parser"
	"github.com/standardbeagle/disposeflow/internal/syntax"
)

// TreeCache keeps the last syntax tree of each path keyed by an xxhash of its
// content. Trees are immutable after parsing, so one tree can be bound into
// any number of compilations.
type TreeCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry

	hits   atomic.Int64
	misses atomic.Int64
}

type cacheEntry struct {
	hash uint64
	tree *syntax.Tree
	err  error
}

func NewTreeCache() *TreeCache {
	return &TreeCache{entries: make(map[string]cacheEntry)}
}

// Parse returns the cached tree for path when content is unchanged, parsing
// and caching it otherwise. Syntax errors are cached with the tree;
// cancellation is not cached.
func (c *TreeCache) Parse(ctx context.Context, path string, content []byte) (*syntax.Tree, error) {
	hash := xxhash.Sum64(content)

	c.mu.Lock()
	e, ok := c.entries[path]
	c.mu.Unlock()
	if ok && e.hash == hash {
		c.hits.Add(1)
		return e.tree, e.err
	}
	c.misses.Add(1)

	tree, err := parser.Parse(ctx, path, content)
	if tree == nil {
		return nil, err
	}
	c.mu.Lock()
	c.entries[path] = cacheEntry{hash: hash, tree: tree, err: err}
	c.mu.Unlock()
	return tree, err
}

// Retain drops every entry whose path is not in paths
func (c *TreeCache) Retain(paths []string) {
	keep := make(map[string]bool, len(paths))
	for _, p := range paths {
		keep[p] = true
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for p := range c.entries {
		if !keep[p] {
			delete(c.entries, p)
		}
	}
}

// Len returns the number of cached trees
func (c *TreeCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns the hit and miss counts
func (c *TreeCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}
