package service

import (
	"context"
	"errors"

	"reactor/backend/internal/identity"
	"reactor/backend/internal/keyboard"
	"reactor/backend/internal/ledger"
	"reactor/backend/internal/repository"
	apperrors "reactor/backend/pkg/errors"
	"reactor/backend/pkg/logger"
)

// Click is a press on a keyboard cell.
type Click struct {
	ChatID          string              `json:"chat_id"`
	MessageID       string              `json:"message_id"`
	InlineMessageID string              `json:"inline_message_id"`
	User            ledger.UserIdentity `json:"user" binding:"required"`
	Action          string              `json:"action" binding:"required"`
}

// ClickResult is what the client shows after a click.
type ClickResult struct {
	Key string `json:"key,omitempty"`
	// Reply is the short notice for the clicking user; empty for inert cells
	Reply  string        `json:"reply"`
	Active bool          `json:"active"`
	Markup keyboard.Grid `json:"markup,omitempty"`
}

// ReactionService handles reaction button presses
type ReactionService struct {
	ledger  *ledger.Ledger
	markups *MarkupService
	log     *logger.Logger
}

// NewReactionService creates a reaction service
func NewReactionService(l *ledger.Ledger, markups *MarkupService, log *logger.Logger) *ReactionService {
	return &ReactionService{ledger: l, markups: markups, log: log}
}

// Click toggles the reaction behind a pressed cell and re-renders the keyboard
func (s *ReactionService) Click(ctx context.Context, click Click) (*ClickResult, error) {
	if click.Action == keyboard.InertAction {
		return &ClickResult{}, nil
	}
	label, ok := keyboard.ParseAction(click.Action)
	if !ok {
		return nil, apperrors.NewBadRequestError(apperrors.CodeBadRequest, "unknown action")
	}

	key := identity.Resolve(click.ChatID, click.MessageID, click.InlineMessageID)
	if key == "" {
		return nil, apperrors.NewBadRequestError(apperrors.CodeBadRequest, "message address is required")
	}

	log := s.log.WithMessageKey(key).WithUserID(click.User.ID)

	out, err := s.ledger.Toggle(ctx, click.User, key, label)
	if errors.Is(err, repository.ErrNotFound) {
		// Keyboards of messages the ledger never stored are left alone
		log.Debug("Click on unknown message", "label", label)
		return &ClickResult{Key: key}, nil
	}
	if err != nil {
		return nil, translate(err)
	}

	result := &ClickResult{Key: key, Active: out.Active()}
	switch {
	case out.Rejected():
		result.Reply = TextTooManyReactions
	case out.Active():
		result.Reply = "You reacted with " + out.Button.Text + "."
	default:
		result.Reply = "You took your reaction back."
	}

	result.Markup, err = s.markups.ForMessage(ctx, key)
	if err != nil {
		return nil, err
	}

	log.Debug("Reaction toggled", "label", label, "active", out.Active(), "rejected", out.Rejected())
	return result, nil
}
