package service

import (
	"context"
	"errors"
	"fmt"

	"reactor/backend/internal/keyboard"
	"reactor/backend/internal/ledger"
	"reactor/backend/internal/repository"
	apperrors "reactor/backend/pkg/errors"
	"reactor/backend/pkg/logger"
	sessions "reactor/backend/shared/redis"
)

// SessionStore keeps the pending dialog of each user.
type SessionStore interface {
	Set(ctx context.Context, userID string, sess sessions.Session) error
	Get(ctx context.Context, userID string) (*sessions.Session, error)
	Clear(ctx context.Context, userID string) error
}

// RecentButtonStore remembers the button sets a user published with.
type RecentButtonStore interface {
	List(ctx context.Context, userID string) ([]string, error)
	Push(ctx context.Context, userID, set string) error
}

// StartRequest opens the vote dialog for an inline post.
type StartRequest struct {
	User  ledger.UserIdentity `json:"user" binding:"required"`
	Token string              `json:"token" binding:"required"`
}

// RespondRequest is a private message of the user to the bot. Which fields
// matter depends on the pending dialog.
type RespondRequest struct {
	User ledger.UserIdentity `json:"user" binding:"required"`
	Text string              `json:"text"`
	// StickerEmoji is the emoji attached to a sticker the user sent
	StickerEmoji string `json:"sticker_emoji,omitempty"`
	// Message is the full message, needed when it becomes a draft
	Message *DraftMessage `json:"message,omitempty"`
}

func (r RespondRequest) emoji() string {
	if r.Text != "" {
		return r.Text
	}
	return r.StickerEmoji
}

// SessionResult tells the client what to answer and which post to update.
type SessionResult struct {
	Reply string `json:"reply"`
	// Key and Markup are set when an inline post must be edited
	Key    string        `json:"key,omitempty"`
	Markup keyboard.Grid `json:"markup,omitempty"`
	// Suggestions are offered as a one-time reply keyboard
	Suggestions []string `json:"suggestions,omitempty"`
	// Draft is set when the prepared post must be sent back with Markup
	Draft *Draft `json:"draft,omitempty"`
}

// SessionService runs the private dialogs with the bot: the vote dialog behind
// the "add reaction" link of inline posts and the publishing dialog.
type SessionService struct {
	ledger   *ledger.Ledger
	markups  *MarkupService
	sessions SessionStore
	recent   RecentButtonStore
	log      *logger.Logger
}

// NewSessionService creates a session service
func NewSessionService(
	l *ledger.Ledger,
	markups *MarkupService,
	store SessionStore,
	recent RecentButtonStore,
	log *logger.Logger,
) *SessionService {
	return &SessionService{ledger: l, markups: markups, sessions: store, recent: recent, log: log}
}

// Start remembers which post the user wants to react to
func (s *SessionService) Start(ctx context.Context, req StartRequest) (*SessionResult, error) {
	if _, err := s.ledger.Message(ctx, req.Token); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFoundError(apperrors.CodeMessageNotFound, TextInvalidTarget)
		}
		return nil, err
	}

	sess := sessions.Session{State: sessions.StateReaction, MessageKey: req.Token}
	if err := s.sessions.Set(ctx, req.User.ID, sess); err != nil {
		return nil, translate(err)
	}
	if err := s.ledger.EnsureUser(ctx, req.User); err != nil {
		return nil, fmt.Errorf("store user: %w", err)
	}

	return &SessionResult{Reply: "Now send me your reaction. It can be a single emoji or a sticker."}, nil
}

// Respond handles a private message according to the pending dialog
func (s *SessionService) Respond(ctx context.Context, req RespondRequest) (*SessionResult, error) {
	sess, err := s.sessions.Get(ctx, req.User.ID)
	if errors.Is(err, sessions.ErrNoSession) {
		return nil, apperrors.NewNotFoundError(apperrors.CodeNoSession, TextNoSession)
	}
	if err != nil {
		return nil, translate(err)
	}

	switch sess.State {
	case sessions.StateReaction:
		return s.react(ctx, req, sess)
	case sessions.StateCreateStart:
		return s.saveDraft(ctx, req)
	case sessions.StateCreateButtons:
		return s.pickButtons(ctx, req, sess)
	case sessions.StateCreateEnd:
		return nil, apperrors.NewNotFoundError(apperrors.CodeNoSession, TextPressPublish)
	}
	return nil, apperrors.NewNotFoundError(apperrors.CodeNoSession, TextNoSession)
}

// react applies the emoji the user sent to the remembered post
func (s *SessionService) react(ctx context.Context, req RespondRequest, sess *sessions.Session) (*SessionResult, error) {
	emoji := req.emoji()
	if !IsEmoji(emoji) {
		return nil, apperrors.NewSoftError(apperrors.CodeEmojiOnly, TextEmojiOnly)
	}

	out, err := s.ledger.Toggle(ctx, req.User, sess.MessageKey, emoji)
	if errors.Is(err, repository.ErrNotFound) {
		_ = s.sessions.Clear(ctx, req.User.ID)
		return nil, apperrors.NewNotFoundError(apperrors.CodeMessageNotFound, TextStaleSession)
	}
	if err != nil {
		return nil, translate(err)
	}
	if out.Rejected() {
		return nil, errTooManyReactions()
	}

	if err := s.sessions.Clear(ctx, req.User.ID); err != nil {
		s.log.LogError(err, "Failed to clear session", "user_id", req.User.ID)
	}

	markup, err := s.markups.ForMessage(ctx, sess.MessageKey)
	if err != nil {
		return nil, err
	}

	reply := "Reacted with " + emoji
	if out.Retracted() {
		reply = "You took your reaction back."
	}
	return &SessionResult{Reply: reply, Key: sess.MessageKey, Markup: markup}, nil
}
