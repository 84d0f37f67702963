package service_test

import (
	"context"
	"testing"

	"reactor/backend/internal/keyboard"
	"reactor/backend/internal/ledger"
	"reactor/backend/internal/repository"
	"reactor/backend/internal/service"
	apperrors "reactor/backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chatPost(t *testing.T, e *env) string {
	t.Helper()
	return e.register(t, service.Registration{ChatID: "-100", MessageID: "20", From: ann}).Key
}

func click(chatID, messageID string, user ledger.UserIdentity, label string) service.Click {
	return service.Click{
		ChatID:    chatID,
		MessageID: messageID,
		User:      user,
		Action:    keyboard.ButtonAction(label),
	}
}

func TestClickTogglesReaction(t *testing.T) {
	e := newEnv(t, ledger.DefaultLimits())
	ctx := context.Background()
	chatPost(t, e)

	res, err := e.clicks.Click(ctx, click("-100", "20", bob, "👍"))
	require.NoError(t, err)
	assert.Equal(t, "You reacted with 👍.", res.Reply)
	assert.True(t, res.Active)
	assert.Equal(t, [][]string{{"by Ann"}, {"👍 1", "👎"}}, res.Markup.Texts())

	res, err = e.clicks.Click(ctx, click("-100", "20", bob, "👎"))
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"by Ann"}, {"👍", "👎 1"}}, res.Markup.Texts())

	res, err = e.clicks.Click(ctx, click("-100", "20", bob, "👎"))
	require.NoError(t, err)
	assert.Equal(t, "You took your reaction back.", res.Reply)
	assert.False(t, res.Active)
	assert.Equal(t, [][]string{{"by Ann"}, {"👍", "👎"}}, res.Markup.Texts())
}

func TestClickInlineMessage(t *testing.T) {
	e := newEnv(t, ledger.DefaultLimits())
	key := e.register(t, service.Registration{InlineMessageID: "tok", From: ann}).Key

	res, err := e.clicks.Click(context.Background(), service.Click{
		InlineMessageID: key,
		User:            bob,
		Action:          keyboard.ButtonAction("👍"),
	})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"👍 1", "👎", keyboard.VoteText}}, res.Markup.Texts())
}

func TestClickInertAndInvalid(t *testing.T) {
	e := newEnv(t, ledger.DefaultLimits())
	ctx := context.Background()

	res, err := e.clicks.Click(ctx, service.Click{User: bob, Action: keyboard.InertAction})
	require.NoError(t, err)
	assert.Empty(t, res.Reply)
	assert.Nil(t, res.Markup)

	_, err = e.clicks.Click(ctx, service.Click{ChatID: "-100", MessageID: "1", User: bob, Action: "vote"})
	assert.Equal(t, apperrors.CodeBadRequest, apperrors.GetErrorCode(err))

	res, err = e.clicks.Click(ctx, click("-100", "404", bob, "👍"))
	require.NoError(t, err)
	assert.Equal(t, "-100~404", res.Key)
	assert.Empty(t, res.Reply)
	assert.Nil(t, res.Markup)

	_, err = e.ledger.Message(ctx, "-100~404")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestClickRejectedWhenFull(t *testing.T) {
	e := newEnv(t, ledger.Limits{MaxButtons: 2, MaxLabelLen: 20})
	chatPost(t, e)

	res, err := e.clicks.Click(context.Background(), click("-100", "20", bob, "🔥"))
	require.NoError(t, err)
	assert.Equal(t, service.TextTooManyReactions, res.Reply)
	assert.False(t, res.Active)
}

func reply(user ledger.UserIdentity, text string) service.Reply {
	return service.Reply{ChatID: "-100", MessageID: "20", User: user, Text: text}
}

func TestReplyReactAddsButton(t *testing.T) {
	e := newEnv(t, ledger.DefaultLimits())
	chatPost(t, e)

	res, err := e.replies.React(context.Background(), reply(bob, "+wow"))
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.True(t, res.DeleteReply)
	assert.Equal(t, [][]string{{"by Ann"}, {"👍", "👎", "wow 1"}}, res.Markup.Texts())
}

func TestReplyReactPolicy(t *testing.T) {
	ctx := context.Background()

	t.Run("malformed", func(t *testing.T) {
		e := newEnv(t, ledger.DefaultLimits())
		chatPost(t, e)
		_, err := e.replies.React(ctx, reply(bob, "+ "))
		assert.Equal(t, apperrors.CodeBadRequest, apperrors.GetErrorCode(err))
	})

	t.Run("disabled", func(t *testing.T) {
		e := newEnv(t, ledger.DefaultLimits())
		chatPost(t, e)
		e.updateChat(t, "-100", map[string]any{"allow_reactions": false})
		_, err := e.replies.React(ctx, reply(bob, "+wow"))
		assert.Equal(t, apperrors.CodeReactionsDisabled, apperrors.GetErrorCode(err))
		assert.True(t, apperrors.IsSoft(err))
	})

	t.Run("emoji only", func(t *testing.T) {
		e := newEnv(t, ledger.DefaultLimits())
		chatPost(t, e)
		e.updateChat(t, "-100", map[string]any{"force_emojis": true})

		_, err := e.replies.React(ctx, reply(bob, "+wow"))
		assert.Equal(t, apperrors.CodeEmojiOnly, apperrors.GetErrorCode(err))

		_, err = e.replies.React(ctx, reply(bob, "+🔥"))
		assert.NoError(t, err)
	})

	t.Run("too many", func(t *testing.T) {
		e := newEnv(t, ledger.Limits{MaxButtons: 2, MaxLabelLen: 20})
		chatPost(t, e)
		_, err := e.replies.React(ctx, reply(bob, "+wow"))
		assert.Equal(t, apperrors.CodeTooManyButtons, apperrors.GetErrorCode(err))
		assert.Contains(t, err.Error(), service.TextTooManyReactions)
	})

	t.Run("too long", func(t *testing.T) {
		e := newEnv(t, ledger.Limits{MaxButtons: 5, MaxLabelLen: 3})
		chatPost(t, e)
		_, err := e.replies.React(ctx, reply(bob, "+toolong"))
		assert.Equal(t, apperrors.CodeLabelTooLong, apperrors.GetErrorCode(err))
	})

	t.Run("unknown message", func(t *testing.T) {
		e := newEnv(t, ledger.DefaultLimits())
		_, err := e.replies.React(ctx, reply(bob, "+wow"))
		assert.Equal(t, apperrors.CodeMessageNotFound, apperrors.GetErrorCode(err))
	})
}

func TestReplyDirective(t *testing.T) {
	e := newEnv(t, ledger.DefaultLimits())
	ctx := context.Background()
	chatPost(t, e)

	_, err := e.clicks.Click(ctx, click("-100", "20", bob, "👍"))
	require.NoError(t, err)

	res, err := e.replies.Directive(ctx, reply(ann, ".~"))
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, [][]string{{"👍 1", "👎"}}, res.Markup.Texts())

	res, err = e.replies.Directive(ctx, reply(ann, ".~`x 👎`"))
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"by Ann"}, {"x", "👎", "👍 1"}}, res.Markup.Texts())

	_, err = e.replies.Directive(ctx, reply(bob, ".~"))
	assert.Equal(t, apperrors.CodeNotAuthor, apperrors.GetErrorCode(err))

	res, err = e.replies.Directive(ctx, reply(ann, ".+"))
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Nil(t, res.Markup)
}

func TestSessionFlow(t *testing.T) {
	e := newEnv(t, ledger.DefaultLimits())
	ctx := context.Background()
	key := e.register(t, service.Registration{InlineMessageID: "tok", From: ann}).Key

	_, err := e.sessions.Respond(ctx, service.RespondRequest{User: bob, Text: "👍"})
	assert.Equal(t, apperrors.CodeNoSession, apperrors.GetErrorCode(err))

	_, err = e.sessions.Start(ctx, service.StartRequest{User: bob, Token: "missing"})
	assert.Equal(t, apperrors.CodeMessageNotFound, apperrors.GetErrorCode(err))

	started, err := e.sessions.Start(ctx, service.StartRequest{User: bob, Token: key})
	require.NoError(t, err)
	assert.Contains(t, started.Reply, "send me your reaction")
	assert.True(t, e.redis.Exists("state:"+bob.ID))

	_, err = e.sessions.Respond(ctx, service.RespondRequest{User: bob, Text: "hello"})
	assert.Equal(t, apperrors.CodeEmojiOnly, apperrors.GetErrorCode(err))
	assert.True(t, e.redis.Exists("state:"+bob.ID), "a wrong answer keeps the dialog open")

	res, err := e.sessions.Respond(ctx, service.RespondRequest{User: bob, Text: "🔥"})
	require.NoError(t, err)
	assert.Equal(t, "Reacted with 🔥", res.Reply)
	assert.Equal(t, key, res.Key)
	assert.Equal(t, [][]string{{"👍", "👎", "🔥 1", keyboard.VoteText}}, res.Markup.Texts())
	assert.False(t, e.redis.Exists("state:"+bob.ID))
}

func TestSessionStaleMessage(t *testing.T) {
	e := newEnv(t, ledger.DefaultLimits())
	ctx := context.Background()
	key := e.register(t, service.Registration{InlineMessageID: "tok", From: ann}).Key

	_, err := e.sessions.Start(ctx, service.StartRequest{User: bob, Token: key})
	require.NoError(t, err)
	require.NoError(t, e.posts.Delete(ctx, key))

	_, err = e.sessions.Respond(ctx, service.RespondRequest{User: bob, Text: "🔥"})
	assert.Equal(t, apperrors.CodeMessageNotFound, apperrors.GetErrorCode(err))
	assert.False(t, e.redis.Exists("state:"+bob.ID))
}
