package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"catalog-console/core/database"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Row is the persisted form of a session scope.
type Row struct {
	Scope     string `gorm:"column:scope;primaryKey;size:64"`
	Token     string `gorm:"column:token;type:text"`
	UserID    string `gorm:"column:user_id;size:64"`
	UserName  string `gorm:"column:user_name;size:255"`
	UserEmail string `gorm:"column:user_email;size:255"`
	UserRole  string `gorm:"column:user_role;size:32"`
	UpdatedAt time.Time
}

// TableName overrides the gorm table name.
func (Row) TableName() string { return "console_sessions" }

// GormStore persists sessions through gorm.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a store on db. Call Migrate once before use.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Migrate creates or updates the sessions table.
func (s *GormStore) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&Row{}); err != nil {
		return fmt.Errorf("failed to migrate session table: %w", err)
	}
	return database.RequireColumns(s.db.WithContext(ctx), Row{}.TableName(),
		"scope", "token", "user_id", "user_name", "user_email", "user_role")
}

func (s *GormStore) Load(ctx context.Context, scope string) (*State, error) {
	var row Row
	err := s.db.WithContext(ctx).Where("scope = ?", scope).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", scope, err)
	}
	return &State{
		Token: row.Token,
		Profile: Profile{
			ID:    row.UserID,
			Name:  row.UserName,
			Email: row.UserEmail,
			Role:  row.UserRole,
		},
	}, nil
}

func (s *GormStore) Save(ctx context.Context, scope string, state State) error {
	row := Row{
		Scope:     scope,
		Token:     state.Token,
		UserID:    state.Profile.ID,
		UserName:  state.Profile.Name,
		UserEmail: state.Profile.Email,
		UserRole:  state.Profile.Role,
		UpdatedAt: time.Now(),
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to save session %s: %w", scope, err)
	}
	return nil
}

func (s *GormStore) Clear(ctx context.Context, scope string) error {
	if err := s.db.WithContext(ctx).Where("scope = ?", scope).Delete(&Row{}).Error; err != nil {
		return fmt.Errorf("failed to clear session %s: %w", scope, err)
	}
	return nil
}
