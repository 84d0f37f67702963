package service

import (
	"context"
	"strings"

	"reactor/backend/internal/directive"
	"reactor/backend/internal/identity"
	"reactor/backend/internal/keyboard"
	"reactor/backend/internal/ledger"
	"reactor/backend/internal/models"
	apperrors "reactor/backend/pkg/errors"
	"reactor/backend/pkg/logger"
)

// Reply is a text reply to one of the bot's posts in a group.
type Reply struct {
	ChatID    string              `json:"chat_id" binding:"required"`
	MessageID string              `json:"message_id" binding:"required"`
	User      ledger.UserIdentity `json:"user" binding:"required"`
	Text      string              `json:"text" binding:"required"`
}

// ReplyResult tells the client how to update the replied post.
type ReplyResult struct {
	Key     string        `json:"key"`
	Changed bool          `json:"changed"`
	Markup  keyboard.Grid `json:"markup,omitempty"`
	// DeleteReply asks the client to remove the triggering reply
	DeleteReply bool `json:"delete_reply"`
}

// ReplyService handles "+label" reactions and author directives sent as replies
type ReplyService struct {
	ledger   *ledger.Ledger
	settings *ChatSettings
	markups  *MarkupService
	parser   directive.Parser
	log      *logger.Logger
}

// NewReplyService creates a reply service
func NewReplyService(l *ledger.Ledger, settings *ChatSettings, markups *MarkupService, log *logger.Logger) *ReplyService {
	return &ReplyService{
		ledger:   l,
		settings: settings,
		markups:  markups,
		parser:   directive.New(l.Limits().MaxLabelLen),
		log:      log,
	}
}

// React adds the reaction written after '+' to the replied post
func (s *ReplyService) React(ctx context.Context, r Reply) (*ReplyResult, error) {
	label := strings.TrimSpace(strings.TrimPrefix(r.Text, string(directive.ForceMark)))
	if !strings.HasPrefix(r.Text, string(directive.ForceMark)) || label == "" {
		return nil, apperrors.NewBadRequestError(apperrors.CodeBadRequest, "reaction reply must look like +label")
	}

	key := identity.Resolve(r.ChatID, r.MessageID, "")
	msg, err := s.ledger.Message(ctx, key)
	if err != nil {
		return nil, translate(err)
	}

	chat, err := s.chatOf(ctx, msg)
	if err != nil {
		return nil, err
	}
	if !chat.AllowReactions {
		return nil, apperrors.NewSoftError(apperrors.CodeReactionsDisabled, TextReactionsOff)
	}
	if chat.ForceEmojis && !IsEmoji(label) {
		return nil, apperrors.NewSoftError(apperrors.CodeEmojiOnly, TextEmojiOnly)
	}

	out, err := s.ledger.Toggle(ctx, r.User, key, label)
	if err != nil {
		return nil, translate(err)
	}
	if out.Rejected() {
		return nil, errTooManyReactions()
	}

	return s.result(ctx, key)
}

// Directive applies an author directive to the replied post: '~' flips
// anonymity and a button list relabels the post. Other marks are ignored.
func (s *ReplyService) Directive(ctx context.Context, r Reply) (*ReplyResult, error) {
	marks := s.parser.Parse(r.Text)
	key := identity.Resolve(r.ChatID, r.MessageID, "")
	if !marks.Anonymous && !marks.Override {
		return &ReplyResult{Key: key}, nil
	}

	msg, err := s.ledger.Message(ctx, key)
	if err != nil {
		return nil, translate(err)
	}
	if msg.FromUserID != r.User.ID {
		return nil, apperrors.NewForbiddenError(apperrors.CodeNotAuthor, TextNotAuthor)
	}

	log := s.log.WithMessageKey(key).WithUserID(r.User.ID)

	if marks.Anonymous {
		anonymous, err := s.ledger.ToggleAnonymous(ctx, key)
		if err != nil {
			return nil, translate(err)
		}
		log.Debug("Anonymity toggled", "anonymous", anonymous)
	}
	if marks.Override {
		if _, err := s.ledger.SetButtons(ctx, key, marks.Buttons); err != nil {
			return nil, translate(err)
		}
		log.Debug("Buttons relabeled", "buttons", marks.Buttons)
	}

	return s.result(ctx, key)
}

func (s *ReplyService) chatOf(ctx context.Context, msg *models.Message) (*models.Chat, error) {
	if msg.Inline() {
		return models.NewChat("", s.settings.Defaults()), nil
	}
	return s.settings.Get(ctx, *msg.ChatID)
}

func (s *ReplyService) result(ctx context.Context, key string) (*ReplyResult, error) {
	markup, err := s.markups.ForMessage(ctx, key)
	if err != nil {
		return nil, err
	}
	return &ReplyResult{Key: key, Changed: true, Markup: markup, DeleteReply: true}, nil
}
