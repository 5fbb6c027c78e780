package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"docchat/internal/model"
)

type SessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(ctx context.Context, session *model.Session) error {
	if err := r.db.WithContext(ctx).Create(session).Error; err != nil {
		return fmt.Errorf("create session failed: %w", err)
	}
	return nil
}

// List returns up to limit sessions, most recently updated first.
func (r *SessionRepository) List(ctx context.Context, limit int) ([]model.Session, error) {
	var sessions []model.Session
	if err := r.db.WithContext(ctx).Order("updated_at DESC").Order("id DESC").Limit(limit).Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("list sessions failed: %w", err)
	}
	return sessions, nil
}

// GetByPublicID returns nil, nil when the session does not exist.
func (r *SessionRepository) GetByPublicID(ctx context.Context, id string) (*model.Session, error) {
	var session model.Session
	if err := r.db.WithContext(ctx).Where("public_id = ?", id).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get session failed: %w", err)
	}
	return &session, nil
}

// Update sets the given columns (title, mode, updated_at) on one session.
func (r *SessionRepository) Update(ctx context.Context, id string, fields map[string]interface{}) error {
	if err := r.db.WithContext(ctx).Model(&model.Session{}).Where("public_id = ?", id).Updates(fields).Error; err != nil {
		return fmt.Errorf("update session failed: %w", err)
	}
	return nil
}
