package service

import (
	"context"
	"time"

	"reactor/backend/internal/directive"
	"reactor/backend/internal/identity"
	"reactor/backend/internal/keyboard"
	"reactor/backend/internal/ledger"
	"reactor/backend/internal/models"
	apperrors "reactor/backend/pkg/errors"
	"reactor/backend/pkg/logger"
)

// Action tells the client what to do with an inbound message.
type Action string

const (
	// ActionIgnore leaves the message alone
	ActionIgnore Action = "ignore"
	// ActionRepost sends a copy with the keyboard and deletes the original
	ActionRepost Action = "repost"
	// ActionReply answers the original with ReplyText and the keyboard
	ActionReply Action = "reply"
)

// ReplyText is the body of keyboard replies to posts that are not reposted.
const ReplyText = "^"

// Inbound is a message posted in a group.
type Inbound struct {
	ChatID    string              `json:"chat_id" binding:"required"`
	MessageID string              `json:"message_id" binding:"required"`
	From      ledger.UserIdentity `json:"from" binding:"required"`
	Text      string              `json:"text"`
	Caption   string              `json:"caption"`
	Content
	Forward *Forward `json:"forward,omitempty"`
}

func (in Inbound) forwarded() bool {
	return in.Forward != nil
}

// Plan is the decision for one inbound message.
type Plan struct {
	Action    Action             `json:"action"`
	Reason    string             `json:"reason,omitempty"`
	Kind      models.MessageKind `json:"kind"`
	Force     int                `json:"force"`
	HasText   bool               `json:"has_text"`
	Text      string             `json:"text,omitempty"`
	Buttons   []string           `json:"buttons"`
	Anonymous bool               `json:"anonymous"`
	Markup    keyboard.Grid      `json:"markup,omitempty"`
}

// Registration describes a message the client has sent and wants to make reactable.
type Registration struct {
	ChatID            string              `json:"chat_id"`
	MessageID         string              `json:"message_id"`
	InlineMessageID   string              `json:"inline_message_id"`
	OriginalMessageID string              `json:"original_message_id"`
	From              ledger.UserIdentity `json:"from" binding:"required"`
	Forward           *Forward            `json:"forward,omitempty"`
	// Buttons overrides the chat defaults when not nil
	Buttons   []string  `json:"buttons"`
	Anonymous bool      `json:"anonymous"`
	Date      time.Time `json:"date"`
}

// Registered is the stored message key with its first keyboard.
type Registered struct {
	Key    string        `json:"key"`
	Markup keyboard.Grid `json:"markup"`
}

// PostService decides which group messages get a keyboard and stores them.
type PostService struct {
	ledger     *ledger.Ledger
	settings   *ChatSettings
	markups    *MarkupService
	classifier *Classifier
	parser     directive.Parser
	log        *logger.Logger
}

// NewPostService creates a post service
func NewPostService(
	l *ledger.Ledger,
	settings *ChatSettings,
	markups *MarkupService,
	classifier *Classifier,
	log *logger.Logger,
) *PostService {
	return &PostService{
		ledger:     l,
		settings:   settings,
		markups:    markups,
		classifier: classifier,
		parser:     directive.New(l.Limits().MaxLabelLen),
		log:        log,
	}
}

// Plan decides whether an inbound message is reposted, answered with a
// keyboard or ignored, and renders the keyboard to use.
func (s *PostService) Plan(ctx context.Context, in Inbound) (*Plan, error) {
	var marks directive.Result
	if in.Text != "" {
		marks = s.parser.Parse(in.Text)
	} else {
		marks = s.parser.ParseCaption(in.Caption)
	}

	plan := &Plan{
		Action:    ActionIgnore,
		Force:     marks.Force,
		Anonymous: marks.Anonymous,
		HasText:   marks.HasText,
		Text:      marks.Text,
	}
	if marks.Skip {
		plan.Reason = "skip"
		return plan, nil
	}

	chat, err := s.settings.Get(ctx, in.ChatID)
	if err != nil {
		return nil, err
	}

	kind, err := s.classifier.Classify(ctx, in.Content)
	if err != nil {
		return nil, translate(err)
	}
	plan.Kind = kind
	if kind == models.KindNone {
		plan.Reason = "unsupported"
		return plan, nil
	}

	allowed := marks.Force > 0 ||
		chat.Allows(kind) ||
		(in.forwarded() && chat.Allows(models.KindForward))
	if !allowed {
		plan.Reason = "type not allowed"
		return plan, nil
	}

	plan.Buttons = s.buttons(chat, marks)
	if (chat.Repost || marks.Force > 1) && kind != models.KindAlbum && kind.Repostable() {
		plan.Action = ActionRepost
	} else {
		plan.Action = ActionReply
		plan.HasText = true
		plan.Text = ReplyText
	}

	plan.Markup = s.markups.Chat(chat, NewPostCredits(in.From, in.Forward), marks.Anonymous, keyboard.Labels(plan.Buttons...))

	s.log.Debug("Post planned",
		"chat_id", in.ChatID,
		"kind", string(kind),
		"action", string(plan.Action),
		"force", marks.Force,
	)
	return plan, nil
}

func (s *PostService) buttons(chat *models.Chat, marks directive.Result) []string {
	labels := []string(chat.Buttons)
	if marks.Override {
		labels = marks.Buttons
	}
	labels = directive.CleanLabels(labels, s.ledger.Limits().MaxLabelLen)
	if limit := s.ledger.Limits().MaxButtons; len(labels) > limit {
		labels = labels[:limit]
	}
	return labels
}

// Register stores a sent message so it can collect reactions
func (s *PostService) Register(ctx context.Context, reg Registration) (*Registered, error) {
	if reg.InlineMessageID == "" && (reg.ChatID == "" || reg.MessageID == "") {
		return nil, apperrors.NewBadRequestError(apperrors.CodeBadRequest, "chat_id with message_id or inline_message_id is required")
	}
	key := identity.Resolve(reg.ChatID, reg.MessageID, reg.InlineMessageID)

	nm := ledger.NewMessage{
		Key:               key,
		OriginalMessageID: reg.OriginalMessageID,
		Author:            reg.From,
		Anonymous:         reg.Anonymous,
		Buttons:           reg.Buttons,
		Date:              reg.Date,
	}
	if reg.Forward != nil {
		nm.ForwardFrom = reg.Forward.From
		nm.ForwardChatName = reg.Forward.ChatName
		nm.ForwardChatUsername = reg.Forward.ChatUsername
		nm.ForwardFromMessageID = reg.Forward.MessageID
	}

	if identity.IsInline(key) {
		if nm.Buttons == nil {
			nm.Buttons = s.settings.Defaults().Buttons
		}
	} else {
		chat, err := s.settings.Get(ctx, reg.ChatID)
		if err != nil {
			return nil, err
		}
		nm.ChatID = chat.ID
		if nm.Buttons == nil {
			nm.Buttons = chat.Buttons
		}
	}

	if _, err := s.ledger.CreateMessage(ctx, nm); err != nil {
		return nil, translate(err)
	}

	markup, err := s.markups.ForMessage(ctx, key)
	if err != nil {
		return nil, err
	}

	s.log.WithMessageKey(key).Info("Message registered", "user_id", reg.From.ID)
	return &Registered{Key: key, Markup: markup}, nil
}

// Delete forgets a message and everything attached to it
func (s *PostService) Delete(ctx context.Context, key string) error {
	if err := s.ledger.DeleteMessage(ctx, key); err != nil {
		return translate(err)
	}
	s.log.WithMessageKey(key).Info("Message deleted")
	return nil
}
