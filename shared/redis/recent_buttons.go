package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// RecentButtons remembers the button sets a user published with, newest
// first, as a JSON list under buttons:<user id>.
type RecentButtons struct {
	r     *RedisClient
	ttl   time.Duration
	limit int
}

// NewRecentButtons keeps up to limit sets per user for ttl after the last push
func NewRecentButtons(r *RedisClient, ttl time.Duration, limit int) *RecentButtons {
	if limit <= 0 {
		limit = 3
	}
	return &RecentButtons{r: r, ttl: ttl, limit: limit}
}

func recentKey(userID string) string {
	return "buttons:" + userID
}

// List returns the remembered sets of userID, newest first
func (b *RecentButtons) List(ctx context.Context, userID string) ([]string, error) {
	raw, err := b.r.Get(ctx, recentKey(userID))
	if IsNil(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load recent buttons: %w", err)
	}
	var sets []string
	if err := json.Unmarshal([]byte(raw), &sets); err != nil {
		return nil, fmt.Errorf("decode recent buttons: %w", err)
	}
	return sets, nil
}

// Push moves set to the front of the list of userID
func (b *RecentButtons) Push(ctx context.Context, userID, set string) error {
	sets, err := b.List(ctx, userID)
	if err != nil {
		return err
	}

	out := make([]string, 0, len(sets)+1)
	out = append(out, set)
	for _, s := range sets {
		if s != set && len(out) < b.limit {
			out = append(out, s)
		}
	}

	raw, err := json.Marshal(out)
	if err != nil {
		return err
	}
	if err := b.r.Set(ctx, recentKey(userID), raw, b.ttl); err != nil {
		return fmt.Errorf("store recent buttons: %w", err)
	}
	return nil
}
