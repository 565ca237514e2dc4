package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Creator struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	FullName string    `gorm:"size:255;not null" json:"full_name"`
	Email    string    `gorm:"size:255;not null;unique" json:"email"`
	Password string    `gorm:"not null" json:"-"`
	Role     string    `gorm:"size:20;not null;default:'creator'" json:"role"`
	Phone    *string   `gorm:"size:30" json:"phone"`

	ReferralCode   *string `gorm:"size:10;unique" json:"referral_code"`
	ReferredByCode *string `gorm:"size:10" json:"referred_by_code"`

	Balance        float64 `gorm:"type:numeric(12,2);default:0.00" json:"balance"`
	TotalEarnings  float64 `gorm:"type:numeric(12,2);default:0.00" json:"total_earnings"`
	TotalWithdrawn float64 `gorm:"type:numeric(12,2);default:0.00" json:"total_withdrawn"`

	CertifiedAt *time.Time `json:"certified_at"`
	IsActive    bool       `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Creator) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
