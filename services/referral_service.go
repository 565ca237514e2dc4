package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmuriuki/biz_capture/models"
	"github.com/dmuriuki/biz_capture/notifications"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const ReferralBonusAmount = 200.00

// QualifyReferral fires the one-time referral bonus for the referrer of the
// given creator. Callers invoke it when the creator's first submission is
// paid, but the conditional update below is what makes the bonus at-most-once:
// two racing markPaid calls can both get here, only the one whose update
// actually flips the row from pending to qualified credits the referrer.
func QualifyReferral(tx *gorm.DB, referredCreatorID uuid.UUID) error {
	var referral models.Referral
	if err := tx.Preload("ReferredCreator").Where("referred_creator_id = ?", referredCreatorID).First(&referral).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	now := time.Now()
	res := tx.Model(&models.Referral{}).
		Where("id = ? AND status = ?", referral.ID, models.ReferralPending).
		Updates(map[string]interface{}{
			"status":       models.ReferralQualified,
			"bonus_amount": ReferralBonusAmount,
			"qualified_at": now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// Already qualified or paid out; nothing to do.
		return nil
	}

	credit := tx.Model(&models.Creator{}).
		Where("id = ?", referral.ReferrerID).
		Updates(map[string]interface{}{
			"balance":        gorm.Expr("balance + ?", ReferralBonusAmount),
			"total_earnings": gorm.Expr("total_earnings + ?", ReferralBonusAmount),
		})
	if credit.Error != nil {
		return credit.Error
	}

	earning := models.Earning{
		CreatorID: referral.ReferrerID,
		Amount:    ReferralBonusAmount,
		Type:      models.EarningReferralBonus,
	}
	if err := tx.Create(&earning).Error; err != nil {
		return err
	}

	if err := IncrementDaily(tx, referral.ReferrerID, now, CounterReferrals, 1); err != nil {
		return err
	}
	if err := IncrementDaily(tx, referral.ReferrerID, now, CounterEarnings, ReferralBonusAmount); err != nil {
		return err
	}

	return notifications.Enqueue(tx, referral.ReferrerID, "referral_bonus",
		"You've earned a referral bonus!",
		fmt.Sprintf("%s just had their first business paid out. %.0f has been added to your balance.",
			referral.ReferredCreator.FullName, ReferralBonusAmount), nil)
}
