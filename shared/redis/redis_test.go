package redis

import (
	"context"
	"testing"
	"time"

	"reactor/backend/pkg/logger"
	"reactor/backend/pkg/resilience"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*RedisClient, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := NewRedisClient("redis://" + mr.Addr() + "/0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func TestRedisClientBasics(t *testing.T) {
	ctx := context.Background()
	client, _ := newTestClient(t)

	require.NoError(t, client.Ping(ctx))
	require.NoError(t, client.Set(ctx, "k", "v", time.Minute))

	v, err := client.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)

	require.NoError(t, client.Del(ctx, "k"))
	_, err = client.Get(ctx, "k")
	assert.True(t, IsNil(err))
}

func TestNewRedisClientRejectsBadURL(t *testing.T) {
	_, err := NewRedisClient("http://nope")
	assert.Error(t, err)
}

func TestSessionStore(t *testing.T) {
	ctx := context.Background()
	client, mr := newTestClient(t)
	store := NewSessionStore(client, time.Hour)

	_, err := store.Get(ctx, "42")
	assert.ErrorIs(t, err, ErrNoSession)

	require.NoError(t, store.Set(ctx, "42", Session{State: StateReaction, MessageKey: "inline"}))
	sess, err := store.Get(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, &Session{State: StateReaction, MessageKey: "inline"}, sess)
	assert.Equal(t, time.Hour, mr.TTL("state:42"))

	require.NoError(t, store.Set(ctx, "42", Session{State: StateReaction, MessageKey: "other"}))
	sess, err = store.Get(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, "other", sess.MessageKey)

	require.NoError(t, store.Clear(ctx, "42"))
	_, err = store.Get(ctx, "42")
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestSessionExpires(t *testing.T) {
	ctx := context.Background()
	client, mr := newTestClient(t)
	store := NewSessionStore(client, time.Minute)

	require.NoError(t, store.Set(ctx, "7", Session{State: StateReaction, MessageKey: "m"}))
	mr.FastForward(2 * time.Minute)

	_, err := store.Get(ctx, "7")
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestMediaGroupsMarkFirst(t *testing.T) {
	ctx := context.Background()
	client, mr := newTestClient(t)
	groups := NewMediaGroups(client, time.Minute)

	first, err := groups.MarkFirst(ctx, "g1")
	require.NoError(t, err)
	assert.True(t, first)

	first, err = groups.MarkFirst(ctx, "g1")
	require.NoError(t, err)
	assert.False(t, first)

	mr.FastForward(time.Minute + time.Second)
	first, err = groups.MarkFirst(ctx, "g1")
	require.NoError(t, err)
	assert.True(t, first)
}

func TestSessionKeepsDraft(t *testing.T) {
	ctx := context.Background()
	client, _ := newTestClient(t)
	store := NewSessionStore(client, time.Hour)

	draft := []byte(`{"id":"d1","buttons":["👍"]}`)
	require.NoError(t, store.Set(ctx, "42", Session{State: StateCreateEnd, Draft: draft}))

	sess, err := store.Get(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, StateCreateEnd, sess.State)
	assert.JSONEq(t, string(draft), string(sess.Draft))

	// a later state without a draft drops the old one
	require.NoError(t, store.Set(ctx, "42", Session{State: StateCreateStart}))
	sess, err = store.Get(ctx, "42")
	require.NoError(t, err)
	assert.Nil(t, sess.Draft)
}

func TestRecentButtons(t *testing.T) {
	ctx := context.Background()
	client, mr := newTestClient(t)
	recent := NewRecentButtons(client, 24*time.Hour, 2)

	sets, err := recent.List(ctx, "42")
	require.NoError(t, err)
	assert.Empty(t, sets)

	require.NoError(t, recent.Push(ctx, "42", "👍 👎"))
	require.NoError(t, recent.Push(ctx, "42", "🔥"))
	require.NoError(t, recent.Push(ctx, "42", "👍 👎"))
	require.NoError(t, recent.Push(ctx, "42", "✅"))

	sets, err = recent.List(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, []string{"✅", "👍 👎"}, sets)
	assert.Equal(t, 24*time.Hour, mr.TTL("buttons:42"))
}

func TestMissingKeyDoesNotTripBreaker(t *testing.T) {
	ctx := context.Background()
	client, _ := newTestClient(t)
	breaker := resilience.New(resilience.Config{Name: "redis", FailureThreshold: 1, RetryTimeout: time.Minute}, logger.Discard())
	client.WithBreaker(breaker)

	for i := 0; i < 3; i++ {
		_, err := client.Get(ctx, "absent")
		assert.True(t, IsNil(err))
	}
	assert.Equal(t, resilience.StateClosed, breaker.State())
}

func TestBreakerGuardsSessionCalls(t *testing.T) {
	ctx := context.Background()
	client, mr := newTestClient(t)
	breaker := resilience.New(resilience.Config{Name: "redis", FailureThreshold: 2, RetryTimeout: time.Minute}, logger.Discard())
	store := NewSessionStore(client.WithBreaker(breaker), time.Hour)

	mr.SetError("LOADING")
	for i := 0; i < 2; i++ {
		_, err := store.Get(ctx, "42")
		require.Error(t, err)
		assert.NotErrorIs(t, err, resilience.ErrOpen)
	}

	mr.SetError("")
	_, err := store.Get(ctx, "42")
	assert.ErrorIs(t, err, resilience.ErrOpen)
	assert.NoError(t, client.Ping(ctx), "ping bypasses the breaker")

	_, err = NewMediaGroups(client, time.Minute).MarkFirst(ctx, "g")
	assert.ErrorIs(t, err, resilience.ErrOpen)
}
