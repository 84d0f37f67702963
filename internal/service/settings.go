package service

import (
	"context"
	"fmt"

	"reactor/backend/internal/models"
	"reactor/backend/internal/repository"
	"reactor/backend/pkg/cache"
)

// ChatSettings reads chat configuration, creating missing chats with defaults.
// Rows are cached; the settings surface calls Invalidate after edits.
type ChatSettings struct {
	store    repository.Store
	cache    *cache.Cache[*models.Chat]
	defaults models.ChatDefaults
}

// NewChatSettings creates the settings reader. A nil cache disables caching.
func NewChatSettings(store repository.Store, c *cache.Cache[*models.Chat], defaults models.ChatDefaults) *ChatSettings {
	return &ChatSettings{store: store, cache: c, defaults: defaults}
}

// Defaults returns the settings new chats start with
func (s *ChatSettings) Defaults() models.ChatDefaults {
	return s.defaults
}

// Get returns the settings of chatID. The returned chat must not be modified.
func (s *ChatSettings) Get(ctx context.Context, chatID string) (*models.Chat, error) {
	if s.cache != nil {
		if chat, ok := s.cache.Get(chatID); ok {
			return chat, nil
		}
	}

	chat, err := s.store.GetOrCreateChat(ctx, models.NewChat(chatID, s.defaults))
	if err != nil {
		return nil, fmt.Errorf("load chat %s: %w", chatID, err)
	}

	if s.cache != nil {
		s.cache.Set(chatID, chat)
	}
	return chat, nil
}

// Invalidate drops the cached settings of chatID
func (s *ChatSettings) Invalidate(chatID string) {
	if s.cache != nil {
		s.cache.Delete(chatID)
	}
}
