package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Dialog states of the private chat with the bot.
const (
	// StateReaction marks a user who opened the vote link of an inline post and
	// is expected to answer with an emoji.
	StateReaction = "reaction"
	// StateCreateStart waits for the message the user wants to publish.
	StateCreateStart = "create_start"
	// StateCreateButtons waits for the buttons of the stored draft.
	StateCreateButtons = "create_buttons"
	// StateCreateEnd waits for the draft to be picked in inline mode.
	StateCreateEnd = "create_end"
)

const (
	fieldState      = "state"
	fieldMessageKey = "message_id"
	fieldDraft      = "draft"
)

// ErrNoSession is returned when a user has no pending dialog.
var ErrNoSession = errors.New("no pending session")

// Session is the pending dialog of one user.
type Session struct {
	State      string
	MessageKey string
	// Draft is the opaque payload of a post being prepared for publishing
	Draft []byte
}

// SessionStore keeps one Session per user in a hash under state:<user id>.
// Every write refreshes the TTL.
type SessionStore struct {
	r   *RedisClient
	ttl time.Duration
}

// NewSessionStore creates a store whose sessions expire after ttl
func NewSessionStore(r *RedisClient, ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &SessionStore{r: r, ttl: ttl}
}

func sessionKey(userID string) string {
	return "state:" + userID
}

// Set replaces the session of userID
func (s *SessionStore) Set(ctx context.Context, userID string, sess Session) error {
	key := sessionKey(userID)
	err := s.r.guard(ctx, func(ctx context.Context) error {
		_, err := s.r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			values := []interface{}{fieldState, sess.State, fieldMessageKey, sess.MessageKey}
			if len(sess.Draft) > 0 {
				values = append(values, fieldDraft, string(sess.Draft))
			}
			pipe.HSet(ctx, key, values...)
			pipe.Expire(ctx, key, s.ttl)
			return nil
		})
		return err
	})
	if err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

// Get returns the session of userID or ErrNoSession
func (s *SessionStore) Get(ctx context.Context, userID string) (*Session, error) {
	var values map[string]string
	err := s.r.guard(ctx, func(ctx context.Context) error {
		var err error
		values, err = s.r.client.HGetAll(ctx, sessionKey(userID)).Result()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if len(values) == 0 || values[fieldState] == "" {
		return nil, ErrNoSession
	}
	sess := &Session{State: values[fieldState], MessageKey: values[fieldMessageKey]}
	if draft := values[fieldDraft]; draft != "" {
		sess.Draft = []byte(draft)
	}
	return sess, nil
}

// Clear drops the session of userID
func (s *SessionStore) Clear(ctx context.Context, userID string) error {
	return s.r.Del(ctx, sessionKey(userID))
}
