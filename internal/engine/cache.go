package engine

import (
	"context"
	"encoding/json"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"pivotd/internal/metrics"
	"pivotd/internal/pivot"
)

// Cache memoizes Query results per selection. It is safe for concurrent use.
type Cache struct {
	entries *lru.Cache[string, []pivot.DataRow]
}

func NewCache(size int) (*Cache, error) {
	entries, err := lru.New[string, []pivot.DataRow](size)
	if err != nil {
		return nil, err
	}
	return &Cache{entries: entries}, nil
}

// Query returns the cached rows for sel or runs it against cs. Entries are
// keyed by store as well as selection, so rows computed from a replaced store
// are never served for its successor. Errors are not cached.
func (c *Cache) Query(ctx context.Context, cs *ColumnStore, sel pivot.Selection) ([]pivot.DataRow, error) {
	key := cacheKey(cs, sel)
	if rows, ok := c.entries.Get(key); ok {
		metrics.CacheLookups.WithLabelValues("hit").Inc()
		return rows, nil
	}
	metrics.CacheLookups.WithLabelValues("miss").Inc()
	rows, err := cs.Query(ctx, sel)
	if err != nil {
		return nil, err
	}
	c.entries.Add(key, rows)
	return rows, nil
}

// Purge drops every entry; called when the dataset is replaced.
func (c *Cache) Purge() {
	c.entries.Purge()
}

func (c *Cache) Len() int {
	return c.entries.Len()
}

func cacheKey(cs *ColumnStore, sel pivot.Selection) string {
	// Selection only holds strings, so Marshal cannot fail.
	b, _ := json.Marshal(sel)
	return fmt.Sprintf("%d|%s", cs.id, b)
}
