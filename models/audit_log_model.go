package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AuditLog struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	SubmissionID uuid.UUID  `gorm:"type:uuid;not null;index" json:"submission_id"`
	ActorID      *uuid.UUID `gorm:"type:uuid" json:"actor_id"`
	FromStatus   string     `gorm:"size:30;not null" json:"from_status"`
	ToStatus     string     `gorm:"size:30;not null" json:"to_status"`
	Note         *string    `gorm:"type:text" json:"note"`

	CreatedAt time.Time `json:"created_at"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
