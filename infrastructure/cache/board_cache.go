// Package cache keeps built boards in memory so sessions on the same
// definition share one read-only graph.
package cache

import (
	"fmt"

	"warrantboard/application/ports"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

// BoardCache is a bounded LRU of built boards.
type BoardCache struct {
	boards *lru.Cache[string, *ports.BuiltBoard]
	logger *zap.Logger
}

// NewBoardCache creates a cache holding at most size boards.
func NewBoardCache(size int, logger *zap.Logger) (*BoardCache, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	boards, err := lru.NewWithEvict[string, *ports.BuiltBoard](size, func(key string, _ *ports.BuiltBoard) {
		logger.Debug("Evicted built board", zap.String("key", key))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create board cache: %w", err)
	}
	return &BoardCache{boards: boards, logger: logger}, nil
}

// Get returns the board built for key.
func (c *BoardCache) Get(key string) (*ports.BuiltBoard, bool) {
	return c.boards.Get(key)
}

// Add stores b under key, evicting the least recently used board if full.
func (c *BoardCache) Add(key string, b *ports.BuiltBoard) {
	c.boards.Add(key, b)
}

// Purge drops every board, typically after the definition changed.
func (c *BoardCache) Purge() {
	c.boards.Purge()
}

// Len is the number of cached boards.
func (c *BoardCache) Len() int {
	return c.boards.Len()
}
