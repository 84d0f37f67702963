package testutil

import (
	"fmt"
	"testing"

	"reactor/backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewSQLiteDB opens a private in-memory database with foreign keys enforced and
// the ledger schema migrated. The pool is pinned to one connection so the
// database survives for the whole test.
func NewSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sqlite handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// SeedUser inserts a user row
func SeedUser(t *testing.T, db *gorm.DB, id string) *models.User {
	t.Helper()
	user := &models.User{ID: id, Name: "user " + id}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("seed user %s: %v", id, err)
	}
	return user
}

// SeedMessage inserts an inline message authored by authorID with the given
// permanent buttons
func SeedMessage(t *testing.T, db *gorm.DB, key, authorID string, labels ...string) *models.Message {
	t.Helper()
	msg := &models.Message{ID: key, FromUserID: authorID}
	if err := db.Omit("Chat", "FromUser", "ForwardFrom").Create(msg).Error; err != nil {
		t.Fatalf("seed message %s: %v", key, err)
	}
	for i, text := range labels {
		b := &models.Button{MessageID: key, Index: i, Text: text, Permanent: true}
		if err := db.Omit("Message").Create(b).Error; err != nil {
			t.Fatalf("seed button %q: %v", text, err)
		}
	}
	return msg
}
