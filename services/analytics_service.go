package services

import (
	"fmt"
	"log"
	"time"

	"github.com/dmuriuki/biz_capture/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	DailyKeyFormat   = "2006-01-02"
	MonthlyKeyFormat = "2006-01"
)

// Counter column names on AnalyticsBucket.
const (
	CounterSubmissions  = "submissions_count"
	CounterApproved     = "approved_count"
	CounterRejected     = "rejected_count"
	CounterLeads        = "leads_count"
	CounterWebsitesLive = "websites_live"
	CounterReferrals    = "referrals_count"
	CounterEarnings     = "earnings_total"
)

var counterColumns = []string{
	CounterSubmissions,
	CounterApproved,
	CounterRejected,
	CounterLeads,
	CounterWebsitesLive,
	CounterReferrals,
	CounterEarnings,
}

// IncrementDaily bumps one counter on the creator's daily bucket. Monthly
// buckets are never incremented here: they are produced exclusively by the
// nightly rollup, which keeps sum(daily in month) == monthly by construction.
func IncrementDaily(tx *gorm.DB, creatorID uuid.UUID, at time.Time, column string, delta float64) error {
	return incrementBucket(tx, creatorID, at.Format(DailyKeyFormat), column, delta)
}

func incrementBucket(tx *gorm.DB, creatorID uuid.UUID, periodKey, column string, delta float64) error {
	res := tx.Model(&models.AnalyticsBucket{}).
		Where("creator_id = ? AND period_key = ?", creatorID, periodKey).
		UpdateColumn(column, gorm.Expr(column+" + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	bucket := models.AnalyticsBucket{CreatorID: creatorID, PeriodKey: periodKey}
	if err := applyDelta(&bucket, column, delta); err != nil {
		return err
	}
	if err := tx.Create(&bucket).Error; err != nil {
		// Lost the insert race to a concurrent increment; add onto the
		// row that beat us.
		res = tx.Model(&models.AnalyticsBucket{}).
			Where("creator_id = ? AND period_key = ?", creatorID, periodKey).
			UpdateColumn(column, gorm.Expr(column+" + ?", delta))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return err
		}
	}
	return nil
}

func applyDelta(b *models.AnalyticsBucket, column string, delta float64) error {
	switch column {
	case CounterSubmissions:
		b.SubmissionsCount += int(delta)
	case CounterApproved:
		b.ApprovedCount += int(delta)
	case CounterRejected:
		b.RejectedCount += int(delta)
	case CounterLeads:
		b.LeadsCount += int(delta)
	case CounterWebsitesLive:
		b.WebsitesLive += int(delta)
	case CounterReferrals:
		b.ReferralsCount += int(delta)
	case CounterEarnings:
		b.EarningsTotal += delta
	default:
		return fmt.Errorf("unknown analytics counter: %s", column)
	}
	return nil
}

// RollupDay folds every daily bucket for the given day into the matching
// monthly bucket. Idempotent per day: each daily bucket is claimed via its
// rolled_up flag before its counters are added, so a restarted or re-fired
// rollup skips buckets already folded in.
func RollupDay(db *gorm.DB, day time.Time) error {
	dayKey := day.Format(DailyKeyFormat)
	monthKey := day.Format(MonthlyKeyFormat)

	var dailies []models.AnalyticsBucket
	if err := db.Where("period_key = ? AND rolled_up = ?", dayKey, false).Find(&dailies).Error; err != nil {
		return err
	}

	for _, d := range dailies {
		err := db.Transaction(func(tx *gorm.DB) error {
			claim := tx.Model(&models.AnalyticsBucket{}).
				Where("id = ? AND rolled_up = ?", d.ID, false).
				UpdateColumn("rolled_up", true)
			if claim.Error != nil {
				return claim.Error
			}
			if claim.RowsAffected == 0 {
				// A concurrent rollup already folded this bucket in.
				return nil
			}

			for _, col := range counterColumns {
				delta := counterValue(&d, col)
				if delta == 0 {
					continue
				}
				if err := incrementBucket(tx, d.CreatorID, monthKey, col, delta); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			log.Printf("🔥 Rollup failed for creator %s day %s: %v", d.CreatorID, dayKey, err)
			return err
		}
	}

	log.Printf("✅ Rolled up %d daily bucket(s) for %s into %s", len(dailies), dayKey, monthKey)
	return nil
}

func counterValue(b *models.AnalyticsBucket, column string) float64 {
	switch column {
	case CounterSubmissions:
		return float64(b.SubmissionsCount)
	case CounterApproved:
		return float64(b.ApprovedCount)
	case CounterRejected:
		return float64(b.RejectedCount)
	case CounterLeads:
		return float64(b.LeadsCount)
	case CounterWebsitesLive:
		return float64(b.WebsitesLive)
	case CounterReferrals:
		return float64(b.ReferralsCount)
	case CounterEarnings:
		return b.EarningsTotal
	}
	return 0
}
