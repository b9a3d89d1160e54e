package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/crosswars/api/internal/model"
)

const latestPuzzleKey = "crossword:latest"

// SetLatest stores the most recently generated puzzle. The TTL is set to
// the end of the puzzle day so stale puzzles age out on their own.
func (c *Client) SetLatest(ctx context.Context, p *model.Puzzle, ttl time.Duration) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal puzzle: %w", err)
	}
	if err := c.rdb.Set(ctx, latestPuzzleKey, data, ttl).Err(); err != nil {
		return fmt.Errorf("set latest puzzle: %w", err)
	}
	return nil
}

// GetLatest returns the cached puzzle, or nil when none is stored.
func (c *Client) GetLatest(ctx context.Context) (*model.Puzzle, error) {
	data, err := c.rdb.Get(ctx, latestPuzzleKey).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get latest puzzle: %w", err)
	}
	var p model.Puzzle
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("unmarshal puzzle: %w", err)
	}
	return &p, nil
}
