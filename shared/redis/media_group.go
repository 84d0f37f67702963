package redis

import (
	"context"
	"time"
)

// MediaGroups remembers which albums were already seen so only the first
// message of an album is treated as the album.
type MediaGroups struct {
	r   *RedisClient
	ttl time.Duration
}

// NewMediaGroups creates a tracker whose marks expire after ttl
func NewMediaGroups(r *RedisClient, ttl time.Duration) *MediaGroups {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &MediaGroups{r: r, ttl: ttl}
}

// MarkFirst records groupID and reports whether this call saw it first
func (m *MediaGroups) MarkFirst(ctx context.Context, groupID string) (bool, error) {
	var first bool
	err := m.r.guard(ctx, func(ctx context.Context) error {
		var err error
		first, err = m.r.client.SetNX(ctx, "media_group:"+groupID, 1, m.ttl).Result()
		return err
	})
	return first, err
}
