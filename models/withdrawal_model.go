package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	WithdrawalPending    = "pending"
	WithdrawalProcessing = "processing"
	WithdrawalCompleted  = "completed"
	WithdrawalFailed     = "failed"
)

type Withdrawal struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatorID      uuid.UUID `gorm:"type:uuid;not null;index" json:"creator_id"`
	Amount         float64   `gorm:"type:numeric(12,2);not null" json:"amount"`
	Method         string    `gorm:"size:30;not null" json:"method"`
	AccountDetails string    `gorm:"size:255;not null" json:"account_details"`
	Status         string    `gorm:"size:20;not null;default:'pending'" json:"status"`
	AdminNotes     *string   `gorm:"type:text" json:"admin_notes"`
	ProviderTxnID  *string   `gorm:"size:255;unique" json:"provider_txn_id"`
	ProcessedAt    *time.Time `json:"processed_at"`

	Creator Creator `gorm:"foreignkey:CreatorID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (w *Withdrawal) BeforeCreate(tx *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}
