package service

import (
	"context"
	"fmt"

	"reactor/backend/internal/identity"
	"reactor/backend/internal/keyboard"
	"reactor/backend/internal/ledger"
	"reactor/backend/internal/models"
)

// InlineColumns is the row width of inline post keyboards, which have no chat settings.
const InlineColumns = 5

// Forward describes where a message was forwarded from.
type Forward struct {
	From         *ledger.UserIdentity `json:"from,omitempty"`
	ChatName     string               `json:"chat_name,omitempty"`
	ChatUsername string               `json:"chat_username,omitempty"`
	MessageID    string               `json:"message_id,omitempty"`
}

// MarkupService composes keyboards from chat settings and ledger state
type MarkupService struct {
	ledger      *ledger.Ledger
	settings    *ChatSettings
	botUsername string
}

// NewMarkupService creates the markup composer. botUsername is used for vote links.
func NewMarkupService(l *ledger.Ledger, settings *ChatSettings, botUsername string) *MarkupService {
	return &MarkupService{ledger: l, settings: settings, botUsername: botUsername}
}

// ForMessage renders the current keyboard of a stored message
func (s *MarkupService) ForMessage(ctx context.Context, key string) (keyboard.Grid, error) {
	msg, err := s.ledger.Message(ctx, key)
	if err != nil {
		return nil, translate(err)
	}
	items, err := s.ledger.Reactions(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load reactions: %w", err)
	}

	if msg.Inline() {
		return s.Inline(key, items), nil
	}

	chat, err := s.settings.Get(ctx, identity.ChatID(key))
	if err != nil {
		return nil, err
	}
	return s.Chat(chat, storedCredits(msg), msg.Anonymous, items), nil
}

// Chat renders a chat post: credits stacked over the reaction rows. Credits
// are shown only when the chat reposts and shows credits and the post is not
// anonymous.
func (s *MarkupService) Chat(chat *models.Chat, credits *keyboard.CreditsFragment, anonymous bool, items []keyboard.Item) keyboard.Grid {
	if !chat.ShowCredits || !chat.Repost || anonymous {
		credits = nil
	}
	reactions := &keyboard.ReactionsFragment{
		Items: items,
		Options: keyboard.Options{
			Columns: chat.Columns,
			Padding: chat.AddPadding,
		},
	}
	return keyboard.StackFragments(credits, reactions)
}

// Inline renders an inline post: reactions with the vote link filling the last row
func (s *MarkupService) Inline(key string, items []keyboard.Item) keyboard.Grid {
	reactions := keyboard.Render(items, keyboard.Options{Columns: InlineColumns})
	vote := &keyboard.VoteFragment{BotUsername: s.botUsername, Token: key}
	return keyboard.Fluid(nil, []keyboard.Grid{reactions, vote.Grid()}, InlineColumns, false)
}

// InlinePreview renders the keyboard shown before an inline post exists. Cells
// are inert because there is no message to react to yet.
func (s *MarkupService) InlinePreview(labels []string) keyboard.Grid {
	return keyboard.Render(keyboard.Labels(labels...), keyboard.Options{Columns: InlineColumns, Blank: true})
}

// PublishPreview renders the inert preview of a draft with the publish cell
// below the reactions
func (s *MarkupService) PublishPreview(draftID string, labels []string) keyboard.Grid {
	reactions := &keyboard.ReactionsFragment{
		Items:   keyboard.Labels(labels...),
		Options: keyboard.Options{Columns: InlineColumns, Blank: true},
	}
	return keyboard.StackFragments(reactions, &keyboard.PublishFragment{DraftID: draftID})
}

// NewPostCredits builds the credits of a post that is not stored yet
func NewPostCredits(author ledger.UserIdentity, fwd *Forward) *keyboard.CreditsFragment {
	credits := &keyboard.CreditsFragment{
		AuthorName:     author.Name,
		AuthorUsername: author.Username,
	}
	if fwd == nil {
		return credits
	}
	if fwd.From != nil {
		credits.ForwardName = fwd.From.Name
		credits.ForwardUsername = fwd.From.Username
	}
	credits.ForwardChatName = fwd.ChatName
	credits.ForwardChatUsername = fwd.ChatUsername
	credits.ForwardChatMessageID = fwd.MessageID
	return credits
}

func storedCredits(msg *models.Message) *keyboard.CreditsFragment {
	if msg.FromUser == nil {
		return nil
	}
	credits := &keyboard.CreditsFragment{
		AuthorName:     msg.FromUser.Name,
		AuthorUsername: deref(msg.FromUser.Username),
	}
	if msg.ForwardFrom != nil {
		credits.ForwardName = msg.ForwardFrom.Name
		credits.ForwardUsername = deref(msg.ForwardFrom.Username)
	}
	credits.ForwardChatName = deref(msg.ForwardChatName)
	credits.ForwardChatUsername = deref(msg.ForwardChatUsername)
	credits.ForwardChatMessageID = deref(msg.ForwardFromMessageID)
	return credits
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
