package config

import (
	"context"
	"fmt"
	"time"

	"reactor/backend/pkg/logger"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	connectRetries = 5
	retryDelay     = 2 * time.Second
)

// NewDB opens the reaction ledger database. Every toggle is a short
// transaction, so the pool keeps half of DB_MAX_CONNS idle and recycles
// connections often; DB_TIMEOUT bounds each connection attempt.
func NewDB() (*gorm.DB, error) {
	cfg := Get()

	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s connect_timeout=%d",
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Name,
		cfg.Database.SSLMode,
		int(cfg.Database.Timeout.Seconds()),
	)

	// Constraint violations must surface as gorm.ErrDuplicatedKey / gorm.ErrForeignKeyViolated,
	// the ledger relies on them to tell races from faults.
	gormConfig := &gorm.Config{TranslateError: true}
	if cfg.Server.Env == "development" {
		gormConfig.Logger = gormlogger.Default.LogMode(gormlogger.Info)
	} else {
		gormConfig.Logger = gormlogger.Default.LogMode(gormlogger.Error)
	}

	var (
		db  *gorm.DB
		err error
	)
	for attempt := 1; attempt <= connectRetries; attempt++ {
		db, err = gorm.Open(postgres.Open(dsn), gormConfig)
		if err == nil {
			break
		}
		logger.GetGlobal().Warn("Database not ready, retrying",
			"attempt", attempt,
			"delay", retryDelay.String(),
			"error", err.Error(),
		)
		time.Sleep(retryDelay)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", connectRetries, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database connection: %w", err)
	}

	open, idle := poolSize(cfg.Database.MaxConns)
	sqlDB.SetMaxOpenConns(open)
	sqlDB.SetMaxIdleConns(idle)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	return db, nil
}

// poolSize returns the open and idle connection limits for DB_MAX_CONNS
func poolSize(maxConns int) (open, idle int) {
	if maxConns <= 0 {
		maxConns = 20
	}
	return maxConns, max(maxConns/2, 1)
}

// TestConnection pings the database within DB_TIMEOUT
func TestConnection(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database connection: %w", err)
	}

	timeout := Get().Database.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return nil
}
