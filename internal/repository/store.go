package repository

import (
	"context"
	"errors"

	"reactor/backend/internal/models"
)

var (
	// ErrNotFound is returned when a message, button or reaction row is absent.
	ErrNotFound = errors.New("record not found")
	// ErrUserMissing is returned when a reaction references a user row that does not exist yet.
	ErrUserMissing = errors.New("reacting user does not exist")
	// ErrDuplicate is returned when a uniqueness constraint rejects an insert.
	ErrDuplicate = errors.New("duplicate record")
	// ErrNegativeCount is returned when a decrement would take a counter below zero.
	ErrNegativeCount = errors.New("button count would become negative")
)

// ButtonStats summarizes the buttons of one message.
type ButtonStats struct {
	Count     int
	LastIndex int
}

// Store is the row store the reaction ledger runs against. Implementations must
// provide row-level atomicity and the (user, message) and (message, text)
// uniqueness constraints; WithTx scopes a set of calls to one transaction.
type Store interface {
	WithTx(ctx context.Context, fn func(Store) error) error

	UpsertUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)

	GetChat(ctx context.Context, id string) (*models.Chat, error)
	GetOrCreateChat(ctx context.Context, chat *models.Chat) (*models.Chat, error)

	CreateMessage(ctx context.Context, msg *models.Message, labels []string) error
	GetMessage(ctx context.Context, key string) (*models.Message, error)
	SetAnonymous(ctx context.Context, key string, anonymous bool) error
	DeleteMessage(ctx context.Context, key string) error

	ListButtons(ctx context.Context, key string) ([]models.Button, error)
	FindButton(ctx context.Context, key, text string) (*models.Button, error)
	GetButton(ctx context.Context, id uint) (*models.Button, error)
	ButtonStats(ctx context.Context, key string) (ButtonStats, error)
	CreateButton(ctx context.Context, button *models.Button) error
	UpdateButton(ctx context.Context, button *models.Button) error
	DeleteButton(ctx context.Context, id uint) error
	IncrementButton(ctx context.Context, id uint) error
	// DecrementButton lowers the count by one and deletes non-permanent buttons
	// that reach zero. It reports whether the row was deleted.
	DecrementButton(ctx context.Context, id uint) (bool, error)

	FindReaction(ctx context.Context, userID, key string) (*models.Reaction, error)
	CreateReaction(ctx context.Context, reaction *models.Reaction) error
	MoveReaction(ctx context.Context, id, buttonID uint) error
	DeleteReaction(ctx context.Context, id uint) error

	Ping(ctx context.Context) error
}
