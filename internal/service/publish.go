package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"reactor/backend/internal/identity"
	"reactor/backend/internal/keyboard"
	"reactor/backend/internal/ledger"
	"reactor/backend/internal/models"
	apperrors "reactor/backend/pkg/errors"
	sessions "reactor/backend/shared/redis"

	"github.com/google/uuid"
)

// NoButtons is the answer that publishes a post without reaction buttons.
const NoButtons = "none"

// defaultSuggestions complete the user's recent button sets.
var defaultSuggestions = []string{"👍 👎", "✅ ❌"}

const maxSuggestions = 3

// DraftMessage is the private message a user wants to publish. The client
// sends it back as an inline result once the user picks a chat.
type DraftMessage struct {
	MessageID string `json:"message_id"`
	Text      string `json:"text,omitempty"`
	Caption   string `json:"caption,omitempty"`
	// FileID identifies the photo, video or animation to resend
	FileID string `json:"file_id,omitempty"`
	Content
}

// Draft is a post being prepared in the publishing dialog.
type Draft struct {
	ID      string             `json:"id"`
	Kind    models.MessageKind `json:"kind"`
	Message DraftMessage       `json:"message"`
	Buttons []string           `json:"buttons"`
}

// CreateRequest opens the publishing dialog.
type CreateRequest struct {
	User ledger.UserIdentity `json:"user" binding:"required"`
}

// PublishQuery asks for the inline result of a draft. Query is the draft id
// the publish cell put into the inline query.
type PublishQuery struct {
	User  ledger.UserIdentity `json:"user" binding:"required"`
	Query string              `json:"query" binding:"required"`
}

// PublishOption is the single inline result offered for a draft.
type PublishOption struct {
	Draft  Draft         `json:"draft"`
	Markup keyboard.Grid `json:"markup"`
}

// PublishRequest reports that the user sent the inline result of a draft.
type PublishRequest struct {
	User            ledger.UserIdentity `json:"user" binding:"required"`
	Query           string              `json:"query" binding:"required"`
	InlineMessageID string              `json:"inline_message_id" binding:"required"`
}

// Create starts the publishing dialog
func (s *SessionService) Create(ctx context.Context, req CreateRequest) (*SessionResult, error) {
	if err := s.sessions.Set(ctx, req.User.ID, sessions.Session{State: sessions.StateCreateStart}); err != nil {
		return nil, translate(err)
	}
	return &SessionResult{Reply: TextSendDraft}, nil
}

// saveDraft stores the message to publish and asks for its buttons
func (s *SessionService) saveDraft(ctx context.Context, req RespondRequest) (*SessionResult, error) {
	if req.Message == nil {
		return nil, apperrors.NewBadRequestError(apperrors.CodeBadRequest, TextSendDraft)
	}

	kind := models.KindAlbum
	if req.Message.MediaGroupID == "" {
		kind = kindOf(req.Message.Content)
	}
	if !kind.Publishable() {
		return nil, apperrors.NewSoftError(apperrors.CodeNotPublishable, TextNotPublishable)
	}

	draft := Draft{ID: uuid.NewString(), Kind: kind, Message: *req.Message}
	if err := s.storeDraft(ctx, req.User.ID, sessions.StateCreateButtons, draft); err != nil {
		return nil, err
	}

	return &SessionResult{
		Reply:       TextPickButtons,
		Suggestions: s.suggestions(ctx, req.User.ID),
	}, nil
}

// suggestions lists the user's recent sets followed by the defaults, always
// ending with the no-buttons answer
func (s *SessionService) suggestions(ctx context.Context, userID string) []string {
	recent, err := s.recent.List(ctx, userID)
	if err != nil {
		s.log.LogError(err, "Failed to load recent buttons", "user_id", userID)
	}

	seen := make(map[string]bool)
	out := make([]string, 0, maxSuggestions+1)
	for _, set := range append(recent, defaultSuggestions...) {
		if seen[set] || len(out) == maxSuggestions {
			continue
		}
		seen[set] = true
		out = append(out, set)
	}
	return append(out, NoButtons)
}

// pickButtons attaches emoji buttons to the draft and returns the preview to send
func (s *SessionService) pickButtons(ctx context.Context, req RespondRequest, sess *sessions.Session) (*SessionResult, error) {
	draft, err := decodeDraft(sess)
	if err != nil {
		return nil, err
	}

	text := strings.TrimSpace(req.Text)
	buttons := []string{}
	if text != NoButtons {
		limits := s.ledger.Limits()
		var ok bool
		buttons, ok = CleanEmojiLabels(strings.Fields(text), limits.MaxLabelLen)
		if !ok {
			return nil, apperrors.NewSoftError(apperrors.CodeEmojiOnly, TextButtonsEmojiOnly)
		}
		if len(buttons) > limits.MaxButtons {
			return nil, apperrors.NewSoftError(apperrors.CodeTooManyButtons, TextTooManyButtons)
		}
		if err := s.recent.Push(ctx, req.User.ID, strings.Join(buttons, " ")); err != nil {
			s.log.LogError(err, "Failed to remember buttons", "user_id", req.User.ID)
		}
	}

	draft.Buttons = buttons
	if err := s.storeDraft(ctx, req.User.ID, sessions.StateCreateEnd, draft); err != nil {
		return nil, err
	}

	return &SessionResult{
		Reply:  TextPressPublish,
		Draft:  &draft,
		Markup: s.markups.PublishPreview(draft.ID, draft.Buttons),
	}, nil
}

// PublishOptions returns the inline result for the draft named by the query
func (s *SessionService) PublishOptions(ctx context.Context, q PublishQuery) (*PublishOption, error) {
	draft, err := s.loadDraft(ctx, q.User.ID, q.Query)
	if err != nil {
		return nil, err
	}

	labels := draft.Buttons
	if len(labels) == 0 {
		labels = []string{"-"}
	}
	return &PublishOption{Draft: *draft, Markup: s.markups.InlinePreview(labels)}, nil
}

// Publish stores the inline message created from a draft and ends the dialog
func (s *SessionService) Publish(ctx context.Context, req PublishRequest) (*Registered, error) {
	draft, err := s.loadDraft(ctx, req.User.ID, req.Query)
	if err != nil {
		return nil, err
	}

	key := identity.Resolve("", "", req.InlineMessageID)
	if _, err := s.ledger.CreateMessage(ctx, ledger.NewMessage{
		Key:     key,
		Author:  req.User,
		Buttons: draft.Buttons,
	}); err != nil {
		return nil, translate(err)
	}

	if err := s.sessions.Clear(ctx, req.User.ID); err != nil {
		s.log.LogError(err, "Failed to clear session", "user_id", req.User.ID)
	}

	markup, err := s.markups.ForMessage(ctx, key)
	if err != nil {
		return nil, err
	}
	s.log.WithMessageKey(key).Info("Draft published", "user_id", req.User.ID, "draft_id", draft.ID)
	return &Registered{Key: key, Markup: markup}, nil
}

func (s *SessionService) storeDraft(ctx context.Context, userID, state string, draft Draft) error {
	raw, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	if err := s.sessions.Set(ctx, userID, sessions.Session{State: state, Draft: raw}); err != nil {
		return translate(err)
	}
	return nil
}

// loadDraft returns the finished draft of userID when its id matches
func (s *SessionService) loadDraft(ctx context.Context, userID, id string) (*Draft, error) {
	sess, err := s.sessions.Get(ctx, userID)
	if errors.Is(err, sessions.ErrNoSession) {
		return nil, errDraftNotFound()
	}
	if err != nil {
		return nil, translate(err)
	}
	if sess.State != sessions.StateCreateEnd {
		return nil, errDraftNotFound()
	}

	draft, err := decodeDraft(sess)
	if err != nil {
		return nil, err
	}
	if draft.ID != id {
		return nil, errDraftNotFound()
	}
	return &draft, nil
}

func decodeDraft(sess *sessions.Session) (Draft, error) {
	var draft Draft
	if len(sess.Draft) == 0 {
		return draft, errDraftNotFound()
	}
	if err := json.Unmarshal(sess.Draft, &draft); err != nil {
		return draft, fmt.Errorf("decode draft: %w", err)
	}
	return draft, nil
}

func errDraftNotFound() *apperrors.AppError {
	return apperrors.NewNotFoundError(apperrors.CodeDraftNotFound, TextNoDraft)
}
