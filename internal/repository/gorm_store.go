package repository

import (
	"context"
	"errors"
	"fmt"

	"reactor/backend/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Postgres SQLSTATE codes for constraint violations.
const (
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"
)

// GormStore implements Store on top of gorm.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a store bound to db
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Migrate creates or updates the ledger tables
func (s *GormStore) Migrate() error {
	return s.db.AutoMigrate(models.All()...)
}

func (s *GormStore) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

// WithTx runs fn inside one database transaction. Any error rolls back every
// mutation fn made.
func (s *GormStore) WithTx(ctx context.Context, fn func(Store) error) error {
	return s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

// UpsertUser creates the user or refreshes its display fields
func (s *GormStore) UpsertUser(ctx context.Context, user *models.User) error {
	err := s.conn(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "username", "updated_at"}),
	}).Create(user).Error
	return translate(err)
}

// GetUser loads a user by platform id
func (s *GormStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.conn(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// GetChat loads chat settings
func (s *GormStore) GetChat(ctx context.Context, id string) (*models.Chat, error) {
	var chat models.Chat
	if err := s.conn(ctx).First(&chat, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &chat, nil
}

// GetOrCreateChat returns the stored chat, inserting the given defaults when absent
func (s *GormStore) GetOrCreateChat(ctx context.Context, chat *models.Chat) (*models.Chat, error) {
	err := s.conn(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(chat).Error
	if err != nil {
		return nil, translate(err)
	}
	return s.GetChat(ctx, chat.ID)
}

// CreateMessage inserts the message and its permanent buttons
func (s *GormStore) CreateMessage(ctx context.Context, msg *models.Message, labels []string) error {
	return s.WithTx(ctx, func(st Store) error {
		tx := st.(*GormStore).conn(ctx)
		if err := tx.Omit(clause.Associations).Create(msg).Error; err != nil {
			return translate(err)
		}
		if len(labels) == 0 {
			return nil
		}
		buttons := make([]models.Button, len(labels))
		for i, text := range labels {
			buttons[i] = models.Button{
				MessageID: msg.ID,
				Index:     i,
				Text:      text,
				Permanent: true,
			}
		}
		return translate(tx.Create(&buttons).Error)
	})
}

// GetMessage loads a message with its author and forward provenance
func (s *GormStore) GetMessage(ctx context.Context, key string) (*models.Message, error) {
	var msg models.Message
	err := s.conn(ctx).
		Preload("FromUser").
		Preload("ForwardFrom").
		First(&msg, "id = ?", key).Error
	if err != nil {
		return nil, translate(err)
	}
	return &msg, nil
}

// SetAnonymous updates the anonymity flag
func (s *GormStore) SetAnonymous(ctx context.Context, key string, anonymous bool) error {
	res := s.conn(ctx).Model(&models.Message{}).Where("id = ?", key).Update("anonymous", anonymous)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteMessage removes a message together with its buttons and reactions
func (s *GormStore) DeleteMessage(ctx context.Context, key string) error {
	return s.WithTx(ctx, func(st Store) error {
		tx := st.(*GormStore).conn(ctx)
		if err := tx.Where("message_id = ?", key).Delete(&models.Reaction{}).Error; err != nil {
			return translate(err)
		}
		if err := tx.Where("message_id = ?", key).Delete(&models.Button{}).Error; err != nil {
			return translate(err)
		}
		res := tx.Where("id = ?", key).Delete(&models.Message{})
		if res.Error != nil {
			return translate(res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// ListButtons returns the buttons of a message in render order
func (s *GormStore) ListButtons(ctx context.Context, key string) ([]models.Button, error) {
	var buttons []models.Button
	err := s.conn(ctx).Where("message_id = ?", key).Order(`"index" ASC, id ASC`).Find(&buttons).Error
	return buttons, translate(err)
}

// FindButton looks a button up by its label
func (s *GormStore) FindButton(ctx context.Context, key, text string) (*models.Button, error) {
	var button models.Button
	if err := s.conn(ctx).First(&button, "message_id = ? AND text = ?", key, text).Error; err != nil {
		return nil, translate(err)
	}
	return &button, nil
}

// GetButton loads a button by id
func (s *GormStore) GetButton(ctx context.Context, id uint) (*models.Button, error) {
	var button models.Button
	if err := s.conn(ctx).First(&button, id).Error; err != nil {
		return nil, translate(err)
	}
	return &button, nil
}

// ButtonStats counts the buttons of a message and finds the highest index
func (s *GormStore) ButtonStats(ctx context.Context, key string) (ButtonStats, error) {
	var row struct {
		Count     int
		LastIndex *int
	}
	err := s.conn(ctx).Model(&models.Button{}).
		Select(`COUNT(*) AS count, MAX("index") AS last_index`).
		Where("message_id = ?", key).
		Scan(&row).Error
	if err != nil {
		return ButtonStats{}, translate(err)
	}
	stats := ButtonStats{Count: row.Count, LastIndex: -1}
	if row.LastIndex != nil {
		stats.LastIndex = *row.LastIndex
	}
	return stats, nil
}

// CreateButton inserts one button
func (s *GormStore) CreateButton(ctx context.Context, button *models.Button) error {
	return translate(s.conn(ctx).Omit(clause.Associations).Create(button).Error)
}

// UpdateButton saves index, count and permanence of an existing button
func (s *GormStore) UpdateButton(ctx context.Context, button *models.Button) error {
	res := s.conn(ctx).Model(&models.Button{}).Where("id = ?", button.ID).Updates(map[string]any{
		"index":     button.Index,
		"count":     button.Count,
		"permanent": button.Permanent,
	})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteButton removes a button row
func (s *GormStore) DeleteButton(ctx context.Context, id uint) error {
	return translate(s.conn(ctx).Delete(&models.Button{}, id).Error)
}

// IncrementButton adds one to the counter in place
func (s *GormStore) IncrementButton(ctx context.Context, id uint) error {
	res := s.conn(ctx).Model(&models.Button{}).
		Where("id = ?", id).
		UpdateColumn("count", gorm.Expr("count + ?", 1))
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DecrementButton lowers the counter by one, deleting non-permanent buttons
// whose last reaction is gone
func (s *GormStore) DecrementButton(ctx context.Context, id uint) (bool, error) {
	res := s.conn(ctx).
		Where("id = ? AND count = 1 AND permanent = ?", id, false).
		Delete(&models.Button{})
	if res.Error != nil {
		return false, translate(res.Error)
	}
	if res.RowsAffected == 1 {
		return true, nil
	}

	res = s.conn(ctx).Model(&models.Button{}).
		Where("id = ? AND count > 0", id).
		UpdateColumn("count", gorm.Expr("count - ?", 1))
	if res.Error != nil {
		return false, translate(res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := s.GetButton(ctx, id); err != nil {
			return false, err
		}
		return false, fmt.Errorf("button %d: %w", id, ErrNegativeCount)
	}
	return false, nil
}

// FindReaction returns the standing reaction of a user on a message
func (s *GormStore) FindReaction(ctx context.Context, userID, key string) (*models.Reaction, error) {
	var reaction models.Reaction
	err := s.conn(ctx).First(&reaction, "user_id = ? AND message_id = ?", userID, key).Error
	if err != nil {
		return nil, translate(err)
	}
	return &reaction, nil
}

// CreateReaction inserts a reaction. A missing user row yields ErrUserMissing.
func (s *GormStore) CreateReaction(ctx context.Context, reaction *models.Reaction) error {
	err := s.conn(ctx).Omit(clause.Associations).Create(reaction).Error
	if err == nil {
		return nil
	}
	if err = translate(err); errors.Is(err, errForeignKey) {
		return ErrUserMissing
	}
	return err
}

// MoveReaction points an existing reaction at another button
func (s *GormStore) MoveReaction(ctx context.Context, id, buttonID uint) error {
	res := s.conn(ctx).Model(&models.Reaction{}).Where("id = ?", id).Update("button_id", buttonID)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteReaction removes a reaction row
func (s *GormStore) DeleteReaction(ctx context.Context, id uint) error {
	res := s.conn(ctx).Delete(&models.Reaction{}, id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Ping checks the database connection
func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

var errForeignKey = errors.New("foreign key violation")

// translate maps driver and gorm errors onto the store's sentinel errors.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return fmt.Errorf("%w: %v", errForeignKey, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("%w: %v", ErrDuplicate, err)
		case pgForeignKeyViolation:
			return fmt.Errorf("%w: %v", errForeignKey, err)
		}
	}
	return err
}
