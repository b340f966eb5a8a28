// Package gormrepo provides an embedded SQLite store with the same contract as
// the Postgres repository. It backs development mode and in-process tests.
package gormrepo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/docket/docket/internal/model"
)

type userRow struct {
	ID        string     `gorm:"primaryKey;type:varchar(36)"`
	Login     string     `gorm:"uniqueIndex;not null"`
	Password  string     `gorm:"not null"`
	Roles     string     `gorm:"not null;default:''"`
	Token     *string    `gorm:"uniqueIndex"`
	Until     *time.Time
	CreatedAt time.Time
}

func (userRow) TableName() string { return "users" }

type statusRow struct {
	ID    string `gorm:"primaryKey;type:varchar(36)"`
	Title string `gorm:"uniqueIndex;not null"`
}

func (statusRow) TableName() string { return "statuses" }

type documentRow struct {
	ID         string     `gorm:"primaryKey;type:varchar(26)"`
	UserID     string     `gorm:"index;not null;type:varchar(36)"`
	User       *userRow   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	StatusID   *string    `gorm:"index;type:varchar(36)"`
	Status     *statusRow `gorm:"foreignKey:StatusID;constraint:OnDelete:SET NULL"`
	Payload    string     `gorm:"not null;default:'{}'"`
	CreatedAt  time.Time  `gorm:"index"`
	ModifiedAt time.Time
	Version    int64 `gorm:"not null;default:1"`
}

func (documentRow) TableName() string { return "documents" }

// documentView is a document row joined with its status title.
type documentView struct {
	ID          string
	UserID      string
	StatusID    *string
	StatusTitle *string
	Payload     string
	CreatedAt   time.Time
	ModifiedAt  time.Time
	Version     int64
}

// Store is a gorm-backed document store.
type Store struct {
	db *gorm.DB
}

// Open opens (creating if needed) the SQLite database at path and migrates it.
func Open(path string) (*Store, error) {
	return open(path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
}

// OpenMemory opens a private in-memory database identified by name.
func OpenMemory(name string) (*Store, error) {
	return open("file:" + name + "?mode=memory&cache=shared&_pragma=foreign_keys(1)")
}

func open(dsn string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sqlite handle: %w", err)
	}
	// SQLite serializes writers; one connection also keeps in-memory databases alive.
	sqlDB.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) migrate() error {
	if err := s.db.AutoMigrate(&userRow{}, &statusRow{}, &documentRow{}); err != nil {
		return fmt.Errorf("failed to migrate sqlite schema: %w", err)
	}

	for _, title := range []string{model.StatusDraft, model.StatusPublished} {
		var row statusRow
		err := s.db.Where(statusRow{Title: title}).
			Attrs(statusRow{ID: uuid.NewString()}).
			FirstOrCreate(&row).Error
		if err != nil {
			return fmt.Errorf("failed to seed status %s: %w", title, err)
		}
	}

	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the underlying database.
func (s *Store) Close() {
	if sqlDB, err := s.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// DB returns the gorm handle.
// Use sparingly - prefer adding methods to Store.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// isUniqueViolation checks if the error is a SQLite unique constraint violation.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
