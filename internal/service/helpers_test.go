package service_test

import (
	"context"
	"testing"
	"time"

	"reactor/backend/internal/ledger"
	"reactor/backend/internal/models"
	"reactor/backend/internal/repository"
	"reactor/backend/internal/service"
	"reactor/backend/internal/testutil"
	"reactor/backend/pkg/cache"
	"reactor/backend/pkg/logger"
	sessions "reactor/backend/shared/redis"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const bot = "reactorbot"

type env struct {
	db       *gorm.DB
	store    *repository.GormStore
	ledger   *ledger.Ledger
	settings *service.ChatSettings
	markups  *service.MarkupService
	posts    *service.PostService
	clicks   *service.ReactionService
	replies  *service.ReplyService
	sessions *service.SessionService
	recent   *sessions.RecentButtons
	redis    *miniredis.Miniredis
}

func newEnv(t *testing.T, limits ledger.Limits) *env {
	t.Helper()

	db := testutil.NewSQLiteDB(t)
	store := repository.NewGormStore(db)
	l, err := ledger.New(store, limits)
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	rc, err := sessions.NewRedisClient("redis://" + mr.Addr() + "/0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = rc.Close() })

	chats := cache.New[*models.Chat](cache.Options{TTL: time.Minute})
	t.Cleanup(chats.Stop)

	log := logger.Discard()
	settings := service.NewChatSettings(store, chats, models.ChatDefaults{
		Buttons:      []string{"👍", "👎"},
		Columns:      4,
		AllowedTypes: []string{"photo", "video", "animation", "link", "forward"},
	})
	markups := service.NewMarkupService(l, settings, bot)
	classifier := service.NewClassifier(sessions.NewMediaGroups(rc, time.Minute))
	recent := sessions.NewRecentButtons(rc, 24*time.Hour, 3)

	return &env{
		db:       db,
		store:    store,
		ledger:   l,
		settings: settings,
		markups:  markups,
		posts:    service.NewPostService(l, settings, markups, classifier, log),
		clicks:   service.NewReactionService(l, markups, log),
		replies:  service.NewReplyService(l, settings, markups, log),
		sessions: service.NewSessionService(
			l,
			markups,
			sessions.NewSessionStore(rc, time.Hour),
			recent,
			log,
		),
		recent: recent,
		redis:  mr,
	}
}

// updateChat edits stored settings the way the settings surface would.
func (e *env) updateChat(t *testing.T, chatID string, fields map[string]any) {
	t.Helper()
	_, err := e.settings.Get(context.Background(), chatID)
	require.NoError(t, err)
	require.NoError(t, e.db.Model(&models.Chat{}).Where("id = ?", chatID).Updates(fields).Error)
	e.settings.Invalidate(chatID)
}

func (e *env) register(t *testing.T, reg service.Registration) *service.Registered {
	t.Helper()
	out, err := e.posts.Register(context.Background(), reg)
	require.NoError(t, err)
	return out
}

var (
	ann = ledger.UserIdentity{ID: "1", Name: "Ann", Username: "ann"}
	bob = ledger.UserIdentity{ID: "2", Name: "Bob"}
)
