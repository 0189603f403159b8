package sqldb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"randomchallenge/api/internal/models"
	"randomchallenge/api/internal/repositories"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Tables lists every model migrated by this backend.
var Tables = []interface{}{
	&models.Category{},
	&models.Challenge{},
	&models.User{},
	&models.CompletionEntry{},
}

var (
	gormOpen       = func(d gorm.Dialector) (*gorm.DB, error) { return gorm.Open(d, gormConfig()) }
	runAutoMigrate = func(db *gorm.DB, dst ...interface{}) error { return db.AutoMigrate(dst...) }
	retryInterval  = 500 * time.Millisecond
)

func gormConfig() *gorm.Config {
	return &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		NowFunc:        func() time.Time { return time.Now().UTC() },
	}
}

// PostgresDSN builds a key/value DSN from its parts.
func PostgresDSN(host, port, user, password, dbName, sslMode string) string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		host, port, user, password, dbName, sslMode)
}

func PostgresDialector(dsn string) gorm.Dialector { return postgres.Open(dsn) }

func SQLiteDialector(path string) gorm.Dialector {
	if !strings.Contains(path, "?") {
		path += "?_foreign_keys=on&_busy_timeout=5000"
	}
	return sqlite.Open(path)
}

// ConnectWithRetry keeps opening and pinging the database until it answers
// or timeout elapses.
func ConnectWithRetry(d gorm.Dialector, timeout time.Duration, logger *zap.Logger) (*gorm.DB, error) {
	deadline := time.Now().Add(timeout)
	var lastErr error
	for attempt := 1; ; attempt++ {
		db, err := gormOpen(d)
		if err == nil {
			err = ping(db)
			if err == nil {
				return db, nil
			}
		}
		lastErr = err
		if time.Now().After(deadline) {
			break
		}
		logger.Warn("database not ready, retrying", zap.Int("attempt", attempt), zap.Error(err))
		time.Sleep(retryInterval)
	}
	return nil, fmt.Errorf("connect database: %w", lastErr)
}

func ping(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// Store is the relational backend, usable with PostgreSQL or SQLite.
type Store struct {
	db         *gorm.DB
	challenges *ChallengeRepository
	categories *CategoryRepository
	users      *UserRepository
}

var _ repositories.Store = (*Store)(nil)

// NewStore migrates the schema and wires the repositories around db.
func NewStore(db *gorm.DB) (*Store, error) {
	if err := runAutoMigrate(db, Tables...); err != nil {
		return nil, models.StoreError("migrate", err)
	}
	return &Store{
		db:         db,
		challenges: &ChallengeRepository{DB: db},
		categories: &CategoryRepository{DB: db},
		users:      &UserRepository{DB: db},
	}, nil
}

func (s *Store) Challenges() repositories.ChallengeRepository { return s.challenges }
func (s *Store) Categories() repositories.CategoryRepository  { return s.categories }
func (s *Store) Users() repositories.UserRepository           { return s.users }

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return models.StoreError("ping", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return models.StoreError("ping", err)
	}
	return nil
}

func (s *Store) Reset(ctx context.Context) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, m := range []interface{}{&models.CompletionEntry{}, &models.User{}, &models.Challenge{}, &models.Category{}} {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(m).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return models.StoreError("reset", err)
	}
	return nil
}

func (s *Store) Close(context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func translate(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return models.ErrNotFound
	case isDuplicate(err):
		return models.ErrDuplicate
	default:
		return models.StoreError(op, err)
	}
}

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key value")
}
