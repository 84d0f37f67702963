package service_test

import (
	"context"
	"testing"

	"reactor/backend/internal/ledger"
	"reactor/backend/internal/models"
	"reactor/backend/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsEmoji(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"👍", true},
		{"🔥", true},
		{"❤️", true},
		{"❤", true},
		{" 😂 ", true},
		{"", false},
		{"wow", false},
		{"👍👍", false},
		{"+1", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, service.IsEmoji(tt.in), "IsEmoji(%q)", tt.in)
	}
}

type groups map[string]bool

func (g groups) MarkFirst(_ context.Context, id string) (bool, error) {
	if g[id] {
		return false, nil
	}
	g[id] = true
	return true, nil
}

func TestClassify(t *testing.T) {
	c := service.NewClassifier(groups{})
	ctx := context.Background()

	tests := []struct {
		name    string
		content service.Content
		want    models.MessageKind
	}{
		{"nothing", service.Content{}, models.KindNone},
		{"text", service.Content{Kinds: []models.MessageKind{models.KindText}}, models.KindText},
		{"link wins", service.Content{Kinds: []models.MessageKind{models.KindText}, HasURL: true}, models.KindLink},
		{"priority order", service.Content{Kinds: []models.MessageKind{models.KindVideo, models.KindPhoto}}, models.KindPhoto},
		{"album first", service.Content{MediaGroupID: "g", Kinds: []models.MessageKind{models.KindPhoto}}, models.KindAlbum},
		{"album rest", service.Content{MediaGroupID: "g", Kinds: []models.MessageKind{models.KindPhoto}}, models.KindNone},
	}
	for _, tt := range tests {
		got, err := c.Classify(ctx, tt.content)
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.want, got, tt.name)
	}
}

func TestChatSettingsCaches(t *testing.T) {
	e := newEnv(t, ledger.DefaultLimits())
	ctx := context.Background()

	first, err := e.settings.Get(ctx, "-5")
	require.NoError(t, err)
	assert.Equal(t, models.StringList{"👍", "👎"}, first.Buttons)

	require.NoError(t, e.db.Model(&models.Chat{}).Where("id = ?", "-5").Update("columns", 7).Error)
	cached, err := e.settings.Get(ctx, "-5")
	require.NoError(t, err)
	assert.Equal(t, 4, cached.Columns)

	e.settings.Invalidate("-5")
	fresh, err := e.settings.Get(ctx, "-5")
	require.NoError(t, err)
	assert.Equal(t, 7, fresh.Columns)
}
