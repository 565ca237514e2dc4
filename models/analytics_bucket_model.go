package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AnalyticsBucket holds denormalized counters for one creator and one period.
// PeriodKey is "2006-01-02" for daily buckets and "2006-01" for monthly ones.
// Daily buckets are incremented directly by lifecycle/ledger events; monthly
// buckets are written only by the nightly rollup job, never incremented inline.
type AnalyticsBucket struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatorID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_creator_period" json:"creator_id"`
	PeriodKey string    `gorm:"size:10;not null;uniqueIndex:idx_creator_period" json:"period_key"`

	SubmissionsCount int     `gorm:"default:0" json:"submissions_count"`
	ApprovedCount    int     `gorm:"default:0" json:"approved_count"`
	RejectedCount    int     `gorm:"default:0" json:"rejected_count"`
	LeadsCount       int     `gorm:"default:0" json:"leads_count"`
	WebsitesLive     int     `gorm:"default:0" json:"websites_live"`
	ReferralsCount   int     `gorm:"default:0" json:"referrals_count"`
	EarningsTotal    float64 `gorm:"type:numeric(12,2);default:0.00" json:"earnings_total"`

	// RolledUp marks a daily bucket whose counters have been folded into its
	// monthly bucket. The rollup skips marked buckets, so re-running a day
	// cannot double the month. Always false on monthly buckets.
	RolledUp bool `gorm:"default:false" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (b *AnalyticsBucket) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}
