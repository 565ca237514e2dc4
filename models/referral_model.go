package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ReferralPending   = "pending"
	ReferralQualified = "qualified"
	ReferralPaid      = "paid"
)

type Referral struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ReferrerID        uuid.UUID `gorm:"type:uuid;not null" json:"referrer_id"`
	ReferredCreatorID uuid.UUID `gorm:"type:uuid;not null;unique" json:"referred_creator_id"`
	Status            string    `gorm:"size:20;not null;default:'pending'" json:"status"`
	BonusAmount       float64   `gorm:"type:numeric(12,2);default:0.00" json:"bonus_amount"`
	QualifiedAt       *time.Time `json:"qualified_at"`

	Referrer        Creator `gorm:"foreignkey:ReferrerID" json:"-"`
	ReferredCreator Creator `gorm:"foreignkey:ReferredCreatorID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
}

func (r *Referral) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
