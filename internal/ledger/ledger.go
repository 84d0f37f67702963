// Package ledger keeps the per-message reaction counters consistent with the
// one-reaction-per-user rule.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"reactor/backend/internal/directive"
	"reactor/backend/internal/keyboard"
	"reactor/backend/internal/models"
	"reactor/backend/internal/repository"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentation = "reactor/backend/internal/ledger"

var (
	ErrTooManyButtons = errors.New("too many buttons")
	ErrLabelTooLong   = errors.New("label too long")
	ErrEmptyLabel     = errors.New("empty label")
)

// Limits bounds the button set of one message.
type Limits struct {
	MaxButtons  int
	MaxLabelLen int
}

// DefaultLimits returns the stock limits.
func DefaultLimits() Limits {
	return Limits{MaxButtons: 25, MaxLabelLen: directive.DefaultMaxLabelLen}
}

// UserIdentity is what the platform tells us about a user.
type UserIdentity struct {
	ID       string `json:"id" binding:"required"`
	Name     string `json:"name"`
	Username string `json:"username,omitempty"`
}

// Model converts the identity into a user row
func (u UserIdentity) Model() *models.User {
	user := &models.User{ID: u.ID, Name: u.Name}
	if u.Username != "" {
		username := u.Username
		user.Username = &username
	}
	return user
}

// Outcome is the result of a toggle.
//
//	Reaction != nil           the user now holds Reaction on Button
//	Reaction == nil, Button   the user took their reaction on Button back
//	both nil                  rejected, the message is full
type Outcome struct {
	Reaction *models.Reaction
	Button   *models.Button
}

func (o Outcome) Active() bool    { return o.Reaction != nil }
func (o Outcome) Retracted() bool { return o.Reaction == nil && o.Button != nil }
func (o Outcome) Rejected() bool  { return o.Reaction == nil && o.Button == nil }

func (o Outcome) label() string {
	switch {
	case o.Active():
		return "active"
	case o.Retracted():
		return "retracted"
	default:
		return "rejected"
	}
}

// Ledger applies reactions to messages through a Store.
type Ledger struct {
	store   repository.Store
	limits  Limits
	tracer  trace.Tracer
	toggles metric.Int64Counter
}

// New creates a ledger over store. Instruments come from the global otel providers.
func New(store repository.Store, limits Limits) (*Ledger, error) {
	if limits.MaxButtons <= 0 {
		limits.MaxButtons = DefaultLimits().MaxButtons
	}
	if limits.MaxLabelLen <= 0 {
		limits.MaxLabelLen = DefaultLimits().MaxLabelLen
	}

	toggles, err := otel.Meter(instrumentation).Int64Counter(
		"reactor.toggles",
		metric.WithDescription("Reaction toggles by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("create toggle counter: %w", err)
	}

	return &Ledger{
		store:   store,
		limits:  limits,
		tracer:  otel.Tracer(instrumentation),
		toggles: toggles,
	}, nil
}

// Limits returns the limits the ledger enforces
func (l *Ledger) Limits() Limits {
	return l.limits
}

// Toggle applies a click of user on the button labeled label of the message
// identified by key. Clicking the held button retracts the reaction, clicking
// another one moves it. All mutations happen in one transaction; a reaction
// racing ahead of its user row is retried once after the user is stored.
func (l *Ledger) Toggle(ctx context.Context, user UserIdentity, key, label string) (Outcome, error) {
	ctx, span := l.tracer.Start(ctx, "ledger.Toggle", trace.WithAttributes(
		attribute.String("message.key", key),
		attribute.String("button.label", label),
	))
	defer span.End()

	var out Outcome
	err := retryOnce(
		func() error {
			var err error
			out, err = l.toggle(ctx, user.ID, key, label)
			return err
		},
		func(err error) bool { return errors.Is(err, repository.ErrUserMissing) },
		func() error { return l.store.UpsertUser(ctx, user.Model()) },
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Outcome{}, err
	}

	span.SetAttributes(attribute.String("toggle.outcome", out.label()))
	l.toggles.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", out.label())))
	return out, nil
}

func (l *Ledger) toggle(ctx context.Context, userID, key, label string) (Outcome, error) {
	var out Outcome
	err := l.store.WithTx(ctx, func(tx repository.Store) error {
		if _, err := tx.GetMessage(ctx, key); err != nil {
			return fmt.Errorf("message %q: %w", key, err)
		}

		button, err := l.resolveButton(ctx, tx, key, label)
		if err != nil {
			return err
		}
		if button == nil {
			out = Outcome{}
			return nil
		}

		held, err := tx.FindReaction(ctx, userID, key)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			reaction := &models.Reaction{UserID: userID, MessageID: key, ButtonID: button.ID}
			if err := tx.CreateReaction(ctx, reaction); err != nil {
				return err
			}
			if err := tx.IncrementButton(ctx, button.ID); err != nil {
				return err
			}
			button.Count++
			out = Outcome{Reaction: reaction, Button: button}

		case err != nil:
			return err

		case held.ButtonID == button.ID:
			if err := tx.DeleteReaction(ctx, held.ID); err != nil {
				return err
			}
			if _, err := tx.DecrementButton(ctx, button.ID); err != nil {
				return err
			}
			button.Count--
			out = Outcome{Button: button}

		default:
			// The reaction is moved before the old button is decremented: dropping
			// a transient button cascades to the reactions still pointing at it.
			old := held.ButtonID
			if err := tx.IncrementButton(ctx, button.ID); err != nil {
				return err
			}
			if err := tx.MoveReaction(ctx, held.ID, button.ID); err != nil {
				return err
			}
			if _, err := tx.DecrementButton(ctx, old); err != nil {
				return err
			}
			held.ButtonID = button.ID
			button.Count++
			out = Outcome{Reaction: held, Button: button}
		}
		return nil
	})
	return out, err
}

// resolveButton finds the button or appends it. A nil button with a nil error
// means the message already holds the maximum number of buttons.
func (l *Ledger) resolveButton(ctx context.Context, tx repository.Store, key, label string) (*models.Button, error) {
	button, err := tx.FindButton(ctx, key, label)
	if err == nil {
		return button, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	if err := l.checkLabel(label); err != nil {
		return nil, err
	}

	stats, err := tx.ButtonStats(ctx, key)
	if err != nil {
		return nil, err
	}
	if stats.Count >= l.limits.MaxButtons {
		return nil, nil
	}

	button = &models.Button{
		MessageID: key,
		Index:     stats.LastIndex + 1,
		Text:      label,
	}
	if err := tx.CreateButton(ctx, button); err != nil {
		return nil, err
	}
	return button, nil
}

func (l *Ledger) checkLabel(label string) error {
	if strings.TrimSpace(label) == "" {
		return ErrEmptyLabel
	}
	if utf8.RuneCountInString(label) > l.limits.MaxLabelLen {
		return fmt.Errorf("%w: %d characters max", ErrLabelTooLong, l.limits.MaxLabelLen)
	}
	return nil
}

// retryOnce runs op and, when it fails with an error accepted by retryable,
// runs repair and then op a second time. Any second failure is returned as is.
func retryOnce(op func() error, retryable func(error) bool, repair func() error) error {
	err := op()
	if err == nil || !retryable(err) {
		return err
	}
	if rerr := repair(); rerr != nil {
		return fmt.Errorf("repair after %v: %w", err, rerr)
	}
	if err := op(); err != nil {
		return fmt.Errorf("retry failed: %w", err)
	}
	return nil
}

// NewMessage describes a message that becomes reactable.
type NewMessage struct {
	Key               string
	ChatID            string
	OriginalMessageID string
	Author            UserIdentity

	ForwardFrom          *UserIdentity
	ForwardChatName      string
	ForwardChatUsername  string
	ForwardFromMessageID string

	Anonymous bool
	Buttons   []string
	Date      time.Time
}

// CreateMessage stores a message with its initial permanent buttons. Labels are
// cleaned and cut to the button limit; the author and forward origin are
// stored first.
func (l *Ledger) CreateMessage(ctx context.Context, nm NewMessage) (*models.Message, error) {
	if nm.Key == "" {
		return nil, errors.New("message key is required")
	}
	if err := l.store.UpsertUser(ctx, nm.Author.Model()); err != nil {
		return nil, fmt.Errorf("store author: %w", err)
	}

	msg := &models.Message{
		ID:                nm.Key,
		OriginalMessageID: nm.OriginalMessageID,
		FromUserID:        nm.Author.ID,
		Anonymous:         nm.Anonymous,
		Date:              nm.Date,
	}
	if msg.Date.IsZero() {
		msg.Date = time.Now()
	}
	if nm.ChatID != "" {
		chatID := nm.ChatID
		msg.ChatID = &chatID
	}
	if nm.ForwardFrom != nil && nm.ForwardFrom.ID != "" {
		if err := l.store.UpsertUser(ctx, nm.ForwardFrom.Model()); err != nil {
			return nil, fmt.Errorf("store forward origin: %w", err)
		}
		id := nm.ForwardFrom.ID
		msg.ForwardFromID = &id
	}
	msg.ForwardChatName = optional(nm.ForwardChatName)
	msg.ForwardChatUsername = optional(nm.ForwardChatUsername)
	msg.ForwardFromMessageID = optional(nm.ForwardFromMessageID)

	labels := directive.CleanLabels(nm.Buttons, l.limits.MaxLabelLen)
	if len(labels) > l.limits.MaxButtons {
		labels = labels[:l.limits.MaxButtons]
	}
	if err := l.store.CreateMessage(ctx, msg, labels); err != nil {
		return nil, err
	}
	return msg, nil
}

// SetButtons relabels a message. The given labels become the permanent set in
// that order; buttons outside the set lose permanence, are dropped when unused
// and otherwise kept after the new ones. The labels plus the kept buttons must
// fit in MaxButtons.
func (l *Ledger) SetButtons(ctx context.Context, key string, labels []string) ([]models.Button, error) {
	labels = directive.CleanLabels(labels, l.limits.MaxLabelLen)
	if len(labels) > l.limits.MaxButtons {
		return nil, fmt.Errorf("%w: %d max", ErrTooManyButtons, l.limits.MaxButtons)
	}

	var result []models.Button
	err := l.store.WithTx(ctx, func(tx repository.Store) error {
		if _, err := tx.GetMessage(ctx, key); err != nil {
			return fmt.Errorf("message %q: %w", key, err)
		}
		current, err := tx.ListButtons(ctx, key)
		if err != nil {
			return err
		}

		wanted := make(map[string]bool, len(labels))
		for _, text := range labels {
			wanted[text] = true
		}

		byText := make(map[string]*models.Button, len(current))
		kept := 0
		for i := range current {
			byText[current[i].Text] = &current[i]
			if !wanted[current[i].Text] && current[i].Count > 0 {
				kept++
			}
		}
		if len(labels)+kept > l.limits.MaxButtons {
			return fmt.Errorf("%w: %d max, %d buttons still hold reactions", ErrTooManyButtons, l.limits.MaxButtons, kept)
		}

		for i, text := range labels {
			if b, ok := byText[text]; ok {
				b.Index = i
				b.Permanent = true
				if err := tx.UpdateButton(ctx, b); err != nil {
					return err
				}
				continue
			}
			b := &models.Button{MessageID: key, Index: i, Text: text, Permanent: true}
			if err := tx.CreateButton(ctx, b); err != nil {
				return err
			}
		}

		next := len(labels)
		for i := range current {
			b := &current[i]
			if wanted[b.Text] {
				continue
			}
			if b.Count == 0 {
				if err := tx.DeleteButton(ctx, b.ID); err != nil {
					return err
				}
				continue
			}
			b.Index = next
			b.Permanent = false
			next++
			if err := tx.UpdateButton(ctx, b); err != nil {
				return err
			}
		}

		result, err = tx.ListButtons(ctx, key)
		return err
	})
	return result, err
}

// ToggleAnonymous flips the anonymity flag and returns the new value
func (l *Ledger) ToggleAnonymous(ctx context.Context, key string) (bool, error) {
	var anonymous bool
	err := l.store.WithTx(ctx, func(tx repository.Store) error {
		msg, err := tx.GetMessage(ctx, key)
		if err != nil {
			return fmt.Errorf("message %q: %w", key, err)
		}
		anonymous = !msg.Anonymous
		return tx.SetAnonymous(ctx, key, anonymous)
	})
	return anonymous, err
}

// Message loads a message with its author and forward origin
func (l *Ledger) Message(ctx context.Context, key string) (*models.Message, error) {
	return l.store.GetMessage(ctx, key)
}

// Buttons lists the buttons of a message in render order
func (l *Ledger) Buttons(ctx context.Context, key string) ([]models.Button, error) {
	return l.store.ListButtons(ctx, key)
}

// Reactions returns the render items of a message
func (l *Ledger) Reactions(ctx context.Context, key string) ([]keyboard.Item, error) {
	buttons, err := l.store.ListButtons(ctx, key)
	if err != nil {
		return nil, err
	}
	items := make([]keyboard.Item, len(buttons))
	for i, b := range buttons {
		items[i] = keyboard.Item{Label: b.Text, Count: b.Count}
	}
	return items, nil
}

// DeleteMessage removes a message and everything attached to it
func (l *Ledger) DeleteMessage(ctx context.Context, key string) error {
	return l.store.DeleteMessage(ctx, key)
}

// EnsureUser stores the user or refreshes its display fields
func (l *Ledger) EnsureUser(ctx context.Context, user UserIdentity) error {
	if user.ID == "" {
		return errors.New("user id is required")
	}
	return l.store.UpsertUser(ctx, user.Model())
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
