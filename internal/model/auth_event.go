package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Auth event actions.
const (
	ActionLogin       = "login"
	ActionRegister    = "register"
	ActionVerifyEmail = "verify_email"
	ActionLogout      = "logout"
	ActionUpload      = "upload"
)

// Auth event outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// AuthEvent is an audit record for a session or upload operation. Every
// attempt is logged regardless of outcome.
type AuthEvent struct {
	ID         uuid.UUID      `json:"id" gorm:"type:char(36);primaryKey"`
	ActorEmail string         `json:"actor_email" gorm:"size:255;index"`
	Action     string         `json:"action" gorm:"size:50;not null;index"`
	Outcome    string         `json:"outcome" gorm:"size:20;not null;index"`
	Detail     string         `json:"detail,omitempty" gorm:"type:text"`
	RequestID  string         `json:"request_id,omitempty" gorm:"size:64"`
	CreatedAt  time.Time      `json:"created_at"`
	DeletedAt  gorm.DeletedAt `json:"-" gorm:"index"`
}

// BeforeCreate sets UUID before creating the record.
func (e *AuthEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
