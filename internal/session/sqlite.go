package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	pkgerrors "github.com/helashop/storefront-go/pkg/errors"
	"github.com/helashop/storefront-go/pkg/types"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Entry is one key-value row of device-local session state.
type Entry struct {
	Key       string `gorm:"primaryKey;column:key"`
	Value     string `gorm:"column:value"`
	UpdatedAt time.Time
}

func (Entry) TableName() string {
	return "session_entries"
}

// SQLiteStore persists the session in a device-local SQLite database so it
// survives process restarts.
type SQLiteStore struct {
	db *gorm.DB
}

// NewSQLiteStore opens (or creates) the session database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite session path is required")
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, fmt.Errorf("migrate session db: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Token(ctx context.Context) (string, error) {
	return s.get(ctx, tokenKey)
}

func (s *SQLiteStore) SetToken(ctx context.Context, token string) error {
	if err := ValidateToken(token); err != nil {
		return err
	}
	return s.put(ctx, tokenKey, token)
}

func (s *SQLiteStore) ClearToken(ctx context.Context) error {
	return s.del(ctx, tokenKey)
}

func (s *SQLiteStore) CachedUser(ctx context.Context) (*types.UserSnapshot, error) {
	value, err := s.get(ctx, userKey)
	if err != nil || value == "" {
		return nil, err
	}
	var user types.UserSnapshot
	if err := json.Unmarshal([]byte(value), &user); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDecode, err, "corrupt cached user")
	}
	return &user, nil
}

func (s *SQLiteStore) SetCachedUser(ctx context.Context, user *types.UserSnapshot) error {
	if user == nil {
		return s.del(ctx, userKey)
	}
	encoded, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode cached user: %w", err)
	}
	return s.put(ctx, userKey, string(encoded))
}

func (s *SQLiteStore) ClearUser(ctx context.Context) error {
	return s.del(ctx, userKey)
}

func (s *SQLiteStore) get(ctx context.Context, key string) (string, error) {
	var entry Entry
	err := s.db.WithContext(ctx).First(&entry, "key = ?", key).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("read session entry: %w", err)
	}
	return entry.Value, nil
}

func (s *SQLiteStore) put(ctx context.Context, key, value string) error {
	entry := Entry{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&entry).Error
	if err != nil {
		return fmt.Errorf("write session entry: %w", err)
	}
	return nil
}

func (s *SQLiteStore) del(ctx context.Context, key string) error {
	err := s.db.WithContext(ctx).Delete(&Entry{}, "key = ?", key).Error
	if err != nil {
		return fmt.Errorf("delete session entry: %w", err)
	}
	return nil
}
