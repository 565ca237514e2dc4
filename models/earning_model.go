package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	EarningSubmissionApproved = "submission_approved"
	EarningReferralBonus      = "referral_bonus"
	EarningLeadBonus          = "lead_bonus"
)

// Earning rows are append-only; nothing updates them after creation.
type Earning struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	CreatorID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"creator_id"`
	SubmissionID *uuid.UUID `gorm:"type:uuid" json:"submission_id"`
	Amount       float64    `gorm:"type:numeric(12,2);not null" json:"amount"`
	Type         string     `gorm:"size:30;not null" json:"type"`
	Status       string     `gorm:"size:20;not null;default:'credited'" json:"status"`

	Creator Creator `gorm:"foreignkey:CreatorID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
}

func (e *Earning) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
