package service

import (
	"errors"

	"reactor/backend/internal/ledger"
	"reactor/backend/internal/repository"
	apperrors "reactor/backend/pkg/errors"
	"reactor/backend/pkg/resilience"
)

// User-facing texts of soft outcomes.
const (
	TextTooManyReactions = "Post already has too many reactions."
	TextReactionTooLong  = "Reaction is too long."
	TextTooManyButtons   = "Too many buttons."
	TextEmojiOnly        = "Reaction should be a single emoji."
	TextReactionsOff     = "Reactions are disabled in this chat."
	TextNotAuthor        = "Only the author can change this post."
	TextInvalidTarget    = "Message you want to react to is invalid (either too old or magically disappeared from DB)."
	TextStaleSession     = "Received invalid message ID from /start command."
	TextNoSession        = "Use the \"add reaction\" button of a post first."
	TextSendDraft        = "Send message to which you want me to add reactions."
	TextPickButtons      = "Now specify buttons."
	TextButtonsEmojiOnly = "Buttons should be emojis."
	TextPressPublish     = "Press 'publish' and choose chat/channel."
	TextNotPublishable   = "Only text, links, photos, videos and GIFs can be published."
	TextNoDraft          = "Nothing to publish, use /create first."
)

func errMessageNotFound() *apperrors.AppError {
	return apperrors.NewNotFoundError(apperrors.CodeMessageNotFound, "Message not found")
}

func errTooManyReactions() *apperrors.AppError {
	return apperrors.NewSoftError(apperrors.CodeTooManyButtons, TextTooManyReactions)
}

// translate turns ledger and store errors into API errors. Anything it does
// not know is a fault and is returned unchanged.
func translate(err error) error {
	if err == nil {
		return nil
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}

	switch {
	case errors.Is(err, repository.ErrNotFound):
		e := errMessageNotFound()
		e.Err = err
		return e
	case errors.Is(err, ledger.ErrLabelTooLong):
		e := apperrors.NewSoftError(apperrors.CodeLabelTooLong, TextReactionTooLong)
		e.Err = err
		return e
	case errors.Is(err, ledger.ErrTooManyButtons):
		e := apperrors.NewSoftError(apperrors.CodeTooManyButtons, TextTooManyButtons)
		e.Err = err
		return e
	case errors.Is(err, resilience.ErrOpen):
		e := apperrors.NewServiceUnavailableError(apperrors.CodeUnavailable, "Try again in a minute.")
		e.Err = err
		return e
	case errors.Is(err, ledger.ErrEmptyLabel):
		return apperrors.NewBadRequestError(apperrors.CodeBadRequest, "Reaction is empty.")
	}
	return err
}
