package repository

import (
	"context"

	"gorm.io/gorm"

	"tripdesk/internal/model"
)

// AuthEventRepository defines persistence operations for the audit trail.
type AuthEventRepository interface {
	Create(ctx context.Context, event *model.AuthEvent) error
	ListRecent(ctx context.Context, limit int) ([]model.AuthEvent, error)
	ListByEmail(ctx context.Context, email string, limit int) ([]model.AuthEvent, error)
}

type authEventRepository struct {
	db *gorm.DB
}

// NewAuthEventRepository builds a GORM-backed repository.
func NewAuthEventRepository(db *gorm.DB) AuthEventRepository {
	return &authEventRepository{db: db}
}

func (r *authEventRepository) Create(ctx context.Context, event *model.AuthEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *authEventRepository) ListRecent(ctx context.Context, limit int) ([]model.AuthEvent, error) {
	var events []model.AuthEvent
	if err := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (r *authEventRepository) ListByEmail(ctx context.Context, email string, limit int) ([]model.AuthEvent, error) {
	var events []model.AuthEvent
	if err := r.db.WithContext(ctx).Where("actor_email = ?", email).Order("created_at DESC").Limit(limit).Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}
