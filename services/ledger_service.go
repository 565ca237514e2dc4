package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmuriuki/biz_capture/models"
	"github.com/dmuriuki/biz_capture/notifications"
	"github.com/dmuriuki/biz_capture/websocket"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const MinWithdrawalAmount = 100.00

// MarkPaid is the deployed -> paid transition plus ledger settlement: credit
// the creator's balance and earnings, append the Earning row, and evaluate
// the referral rule — all in one transaction. Balance mutations go through
// SQL expressions, never read-increment-write.
func MarkPaid(db *gorm.DB, submissionID, adminID uuid.UUID) (*models.Submission, error) {
	var sub *models.Submission
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		sub, err = getSubmission(tx, submissionID)
		if err != nil {
			return err
		}

		now := time.Now()
		if err := transitionStatus(tx, sub, models.StatusPaid, &adminID,
			map[string]interface{}{"paid_at": now}, nil); err != nil {
			return err
		}

		credit := tx.Model(&models.Creator{}).
			Where("id = ?", sub.CreatorID).
			Updates(map[string]interface{}{
				"balance":        gorm.Expr("balance + ?", sub.PayoutAmount),
				"total_earnings": gorm.Expr("total_earnings + ?", sub.PayoutAmount),
			})
		if credit.Error != nil {
			return credit.Error
		}
		if credit.RowsAffected == 0 {
			return ErrNotFound
		}

		earning := models.Earning{
			CreatorID:    sub.CreatorID,
			SubmissionID: &sub.ID,
			Amount:       sub.PayoutAmount,
			Type:         models.EarningSubmissionApproved,
		}
		if err := tx.Create(&earning).Error; err != nil {
			return err
		}

		if err := IncrementDaily(tx, sub.CreatorID, now, CounterEarnings, sub.PayoutAmount); err != nil {
			return err
		}

		// First paid submission for this creator qualifies their referral.
		// QualifyReferral's conditional update keeps the bonus at-most-once
		// even if two markPaid calls race past this count together.
		var priorPaid int64
		if err := tx.Model(&models.Submission{}).
			Where("creator_id = ? AND status = ? AND id <> ?", sub.CreatorID, models.StatusPaid, sub.ID).
			Count(&priorPaid).Error; err != nil {
			return err
		}
		if priorPaid == 0 {
			if err := QualifyReferral(tx, sub.CreatorID); err != nil {
				return err
			}
		}

		return notifications.Enqueue(tx, sub.CreatorID, "submission_paid",
			"Payout credited",
			fmt.Sprintf("%.0f for %s has been added to your balance.", sub.PayoutAmount, sub.BusinessName), nil)
	})
	if err != nil {
		return nil, err
	}

	websocket.PushStatus(sub.CreatorID, sub.ID, sub.Status)
	return sub, nil
}

// RequestWithdrawal reserves the amount immediately: the balance is debited
// in the same guarded update that checks it covers the request, so two
// concurrent requests can never both spend the same funds.
func RequestWithdrawal(db *gorm.DB, creatorID uuid.UUID, amount float64, method, accountDetails string) (*models.Withdrawal, error) {
	if amount < MinWithdrawalAmount {
		return nil, Validationf(fmt.Sprintf("minimum withdrawal is %.0f", MinWithdrawalAmount))
	}

	var withdrawal *models.Withdrawal
	err := db.Transaction(func(tx *gorm.DB) error {
		debit := tx.Model(&models.Creator{}).
			Where("id = ? AND is_active = ? AND balance >= ?", creatorID, true, amount).
			UpdateColumn("balance", gorm.Expr("balance - ?", amount))
		if debit.Error != nil {
			return debit.Error
		}
		if debit.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&models.Creator{}).Where("id = ?", creatorID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return ErrNotFound
			}
			return Validationf("withdrawal amount exceeds available balance")
		}

		withdrawal = &models.Withdrawal{
			CreatorID:      creatorID,
			Amount:         amount,
			Method:         method,
			AccountDetails: accountDetails,
			Status:         models.WithdrawalPending,
		}
		if err := tx.Create(withdrawal).Error; err != nil {
			return err
		}

		return notifications.Enqueue(tx, creatorID, "withdrawal_requested",
			"Withdrawal requested",
			fmt.Sprintf("Your withdrawal of %.0f is being processed.", amount), nil)
	})
	if err != nil {
		return nil, err
	}
	return withdrawal, nil
}

// MarkWithdrawalProcessing claims a pending withdrawal for disbursement.
func MarkWithdrawalProcessing(db *gorm.DB, withdrawalID uuid.UUID) (*models.Withdrawal, error) {
	var withdrawal models.Withdrawal
	if err := db.First(&withdrawal, "id = ?", withdrawalID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	res := db.Model(&models.Withdrawal{}).
		Where("id = ? AND status = ?", withdrawalID, models.WithdrawalPending).
		Update("status", models.WithdrawalProcessing)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrConflict
	}

	withdrawal.Status = models.WithdrawalProcessing
	return &withdrawal, nil
}

// CompleteWithdrawal finalizes a disbursed withdrawal: totalWithdrawn grows,
// the balance stays where the optimistic debit left it.
func CompleteWithdrawal(db *gorm.DB, withdrawalID uuid.UUID, providerTxnID *string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var withdrawal models.Withdrawal
		if err := tx.First(&withdrawal, "id = ?", withdrawalID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		now := time.Now()
		res := tx.Model(&models.Withdrawal{}).
			Where("id = ? AND status IN ?", withdrawalID, []string{models.WithdrawalPending, models.WithdrawalProcessing}).
			Updates(map[string]interface{}{
				"status":          models.WithdrawalCompleted,
				"provider_txn_id": providerTxnID,
				"processed_at":    now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrConflict
		}

		if err := tx.Model(&models.Creator{}).
			Where("id = ?", withdrawal.CreatorID).
			UpdateColumn("total_withdrawn", gorm.Expr("total_withdrawn + ?", withdrawal.Amount)).Error; err != nil {
			return err
		}

		return notifications.Enqueue(tx, withdrawal.CreatorID, "withdrawal_completed",
			"Withdrawal completed",
			fmt.Sprintf("Your withdrawal of %.0f has been sent to your %s account.", withdrawal.Amount, withdrawal.Method), nil)
	})
}

// FailWithdrawal releases the reservation: the amount debited at request
// time goes back onto the balance. The status CAS makes the restore run at
// most once no matter how many times the failure is reported.
func FailWithdrawal(db *gorm.DB, withdrawalID uuid.UUID, notes *string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var withdrawal models.Withdrawal
		if err := tx.First(&withdrawal, "id = ?", withdrawalID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		now := time.Now()
		res := tx.Model(&models.Withdrawal{}).
			Where("id = ? AND status IN ?", withdrawalID, []string{models.WithdrawalPending, models.WithdrawalProcessing}).
			Updates(map[string]interface{}{
				"status":       models.WithdrawalFailed,
				"admin_notes":  notes,
				"processed_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrConflict
		}

		if err := tx.Model(&models.Creator{}).
			Where("id = ?", withdrawal.CreatorID).
			UpdateColumn("balance", gorm.Expr("balance + ?", withdrawal.Amount)).Error; err != nil {
			return err
		}

		return notifications.Enqueue(tx, withdrawal.CreatorID, "withdrawal_failed",
			"Withdrawal failed",
			fmt.Sprintf("Your withdrawal of %.0f could not be completed. The amount has been returned to your balance.", withdrawal.Amount), nil)
	})
}
