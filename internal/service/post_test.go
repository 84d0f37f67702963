package service_test

import (
	"context"
	"testing"
	"time"

	"reactor/backend/internal/keyboard"
	"reactor/backend/internal/ledger"
	"reactor/backend/internal/models"
	"reactor/backend/internal/service"
	apperrors "reactor/backend/pkg/errors"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func photo(text string) service.Inbound {
	return service.Inbound{
		ChatID:    "-100",
		MessageID: "10",
		From:      ann,
		Caption:   text,
		Content:   service.Content{Kinds: []models.MessageKind{models.KindPhoto}},
	}
}

func textMessage(text string) service.Inbound {
	return service.Inbound{
		ChatID:    "-100",
		MessageID: "11",
		From:      ann,
		Text:      text,
		Content:   service.Content{Kinds: []models.MessageKind{models.KindText}},
	}
}

func TestPlanRepostsAllowedPhoto(t *testing.T) {
	e := newEnv(t, ledger.DefaultLimits())

	plan, err := e.posts.Plan(context.Background(), photo("look"))
	require.NoError(t, err)

	assert.Equal(t, service.ActionRepost, plan.Action)
	assert.Equal(t, models.KindPhoto, plan.Kind)
	assert.Equal(t, "look", plan.Text)
	assert.Equal(t, []string{"👍", "👎"}, plan.Buttons)

	want := keyboard.Grid{
		{{Text: "by Ann", URL: "https://t.me/ann"}},
		{{Text: "👍", Action: "button:👍"}, {Text: "👎", Action: "button:👎"}},
	}
	if diff := cmp.Diff(want, plan.Markup); diff != "" {
		t.Errorf("markup mismatch (-want +got):\n%s", diff)
	}
}

func TestPlanIgnores(t *testing.T) {
	tests := []struct {
		name   string
		in     service.Inbound
		reason string
	}{
		{"skip mark", textMessage(".-hello"), "skip"},
		{"control only", textMessage(".+"), "skip"},
		{"text not allowed", textMessage("hello"), "type not allowed"},
		{"empty message", service.Inbound{ChatID: "-100", MessageID: "1", From: ann}, "unsupported"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t, ledger.DefaultLimits())
			plan, err := e.posts.Plan(context.Background(), tt.in)
			require.NoError(t, err)
			assert.Equal(t, service.ActionIgnore, plan.Action)
			assert.Equal(t, tt.reason, plan.Reason)
			assert.Nil(t, plan.Markup)
		})
	}
}

func TestPlanForceAndOverride(t *testing.T) {
	e := newEnv(t, ledger.DefaultLimits())

	plan, err := e.posts.Plan(context.Background(), textMessage(".+`a b a`hello"))
	require.NoError(t, err)
	assert.Equal(t, service.ActionRepost, plan.Action)
	assert.Equal(t, 1, plan.Force)
	assert.Equal(t, "hello", plan.Text)
	assert.Equal(t, []string{"a", "b"}, plan.Buttons)
}

func TestPlanRepliesWhenChatDoesNotRepost(t *testing.T) {
	e := newEnv(t, ledger.DefaultLimits())
	e.updateChat(t, "-100", map[string]any{"repost": false})

	plan, err := e.posts.Plan(context.Background(), photo(""))
	require.NoError(t, err)
	assert.Equal(t, service.ActionReply, plan.Action)
	assert.Equal(t, service.ReplyText, plan.Text)
	assert.Equal(t, [][]string{{"👍", "👎"}}, plan.Markup.Texts(), "no credits without repost")

	plan, err = e.posts.Plan(context.Background(), photo(".++"))
	require.NoError(t, err)
	assert.Equal(t, service.ActionRepost, plan.Action)
	assert.False(t, plan.HasText)
}

func TestPlanAnonymousHidesCredits(t *testing.T) {
	e := newEnv(t, ledger.DefaultLimits())

	plan, err := e.posts.Plan(context.Background(), photo(".~"))
	require.NoError(t, err)
	assert.True(t, plan.Anonymous)
	assert.Equal(t, [][]string{{"👍", "👎"}}, plan.Markup.Texts())
}

func TestPlanAlbumRepliesOnce(t *testing.T) {
	e := newEnv(t, ledger.DefaultLimits())
	e.updateChat(t, "-100", map[string]any{"allowed_types": models.StringList{"album"}})

	in := photo("")
	in.MediaGroupID = "g1"

	plan, err := e.posts.Plan(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, models.KindAlbum, plan.Kind)
	assert.Equal(t, service.ActionReply, plan.Action)

	plan, err = e.posts.Plan(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, service.ActionIgnore, plan.Action)
}

func TestPlanForwardAllowed(t *testing.T) {
	e := newEnv(t, ledger.DefaultLimits())

	in := textMessage("news")
	in.Forward = &service.Forward{From: &bob}
	plan, err := e.posts.Plan(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, service.ActionRepost, plan.Action)
	assert.Equal(t, "by Ann, from Bob", plan.Markup[0][0].Text)
}

func TestRegisterChatMessage(t *testing.T) {
	e := newEnv(t, ledger.DefaultLimits())
	ctx := context.Background()

	out := e.register(t, service.Registration{
		ChatID:            "-100",
		MessageID:         "20",
		OriginalMessageID: "10",
		From:              ann,
		Forward:           &service.Forward{ChatName: "Channel", ChatUsername: "chan", MessageID: "5"},
		Date:              time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC),
	})
	assert.Equal(t, "-100~20", out.Key)

	want := keyboard.Grid{
		{
			{Text: "by Ann", URL: "https://t.me/ann"},
			{Text: "from Channel", URL: "https://t.me/chan/5"},
		},
		{{Text: "👍", Action: "button:👍"}, {Text: "👎", Action: "button:👎"}},
	}
	if diff := cmp.Diff(want, out.Markup); diff != "" {
		t.Errorf("markup mismatch (-want +got):\n%s", diff)
	}

	msg, err := e.ledger.Message(ctx, out.Key)
	require.NoError(t, err)
	assert.False(t, msg.Inline())
	assert.Equal(t, "10", msg.OriginalMessageID)
}

func TestRegisterInlineMessage(t *testing.T) {
	e := newEnv(t, ledger.DefaultLimits())

	out := e.register(t, service.Registration{
		InlineMessageID: "AAQtoken",
		From:            ann,
		Buttons:         []string{"a", "b", "c", "d"},
	})
	assert.Equal(t, "AAQtoken", out.Key)

	want := keyboard.Grid{{
		{Text: "a", Action: "button:a"},
		{Text: "b", Action: "button:b"},
		{Text: "c", Action: "button:c"},
		{Text: "d", Action: "button:d"},
		{Text: keyboard.VoteText, URL: "https://t.me/" + bot + "?start=AAQtoken"},
	}}
	if diff := cmp.Diff(want, out.Markup); diff != "" {
		t.Errorf("markup mismatch (-want +got):\n%s", diff)
	}
}

func TestRegisterRequiresAddress(t *testing.T) {
	e := newEnv(t, ledger.DefaultLimits())

	_, err := e.posts.Register(context.Background(), service.Registration{ChatID: "-100", From: ann})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeBadRequest, apperrors.GetErrorCode(err))
}

func TestDeleteMessage(t *testing.T) {
	e := newEnv(t, ledger.DefaultLimits())
	ctx := context.Background()
	out := e.register(t, service.Registration{ChatID: "-100", MessageID: "1", From: ann})

	require.NoError(t, e.posts.Delete(ctx, out.Key))
	err := e.posts.Delete(ctx, out.Key)
	assert.Equal(t, apperrors.CodeMessageNotFound, apperrors.GetErrorCode(err))
}

func TestInlinePreviewIsInert(t *testing.T) {
	e := newEnv(t, ledger.DefaultLimits())
	grid := e.markups.InlinePreview([]string{"x", "y"})
	require.Len(t, grid, 1)
	for _, c := range grid[0] {
		assert.Equal(t, keyboard.InertAction, c.Action)
	}
}
