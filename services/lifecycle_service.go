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

const (
	// IntakePayoutAmount is assigned at submit time when no interview payout
	// has been recorded yet.
	IntakePayoutAmount = 300.00
	VideoPayoutAmount  = 500.00
	AudioPayoutAmount  = 300.00
)

// allowedTransitions maps a target status to the statuses it may come from.
// Rejected submissions are resubmitted in place: the same record re-enters
// the pipeline rather than spawning a new one.
var allowedTransitions = map[string][]string{
	models.StatusSubmitted:        {models.StatusDraft, models.StatusRejected},
	models.StatusApproved:         {models.StatusSubmitted},
	models.StatusRejected:         {models.StatusSubmitted},
	models.StatusWebsiteGenerated: {models.StatusApproved},
	models.StatusDeployed:         {models.StatusWebsiteGenerated},
	models.StatusPaid:             {models.StatusDeployed},
}

func canTransition(from, to string) bool {
	for _, s := range allowedTransitions[to] {
		if s == from {
			return true
		}
	}
	return false
}

func getSubmission(tx *gorm.DB, id uuid.UUID) (*models.Submission, error) {
	var sub models.Submission
	if err := tx.First(&sub, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &sub, nil
}

// transitionStatus performs the status write as a compare-and-swap on the
// previously observed status and records the audit entry in the same
// transaction. A concurrent transition that got there first makes the CAS
// match zero rows and the caller gets ErrConflict.
func transitionStatus(tx *gorm.DB, sub *models.Submission, to string, actorID *uuid.UUID, extra map[string]interface{}, note *string) error {
	if !canTransition(sub.Status, to) {
		return Validationf(fmt.Sprintf("cannot move submission from %s to %s", sub.Status, to))
	}

	updates := map[string]interface{}{"status": to}
	for k, v := range extra {
		updates[k] = v
	}

	res := tx.Model(&models.Submission{}).
		Where("id = ? AND status = ?", sub.ID, sub.Status).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}

	audit := models.AuditLog{
		SubmissionID: sub.ID,
		ActorID:      actorID,
		FromStatus:   sub.Status,
		ToStatus:     to,
		Note:         note,
	}
	if err := tx.Create(&audit).Error; err != nil {
		return err
	}

	sub.Status = to
	return nil
}

// Submit moves a draft (or previously rejected) submission into review.
// The photo floor is checked against the database, not the request, so a
// direct patch can never smuggle an under-photographed submission through.
func Submit(db *gorm.DB, submissionID uuid.UUID, actorID uuid.UUID) (*models.Submission, error) {
	var sub *models.Submission
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		sub, err = getSubmission(tx, submissionID)
		if err != nil {
			return err
		}

		var photoCount int64
		if err := tx.Model(&models.SubmissionPhoto{}).
			Where("submission_id = ?", sub.ID).
			Count(&photoCount).Error; err != nil {
			return err
		}
		if photoCount < models.MinPhotosForSubmit {
			return Validationf(fmt.Sprintf("at least %d photos are required, got %d", models.MinPhotosForSubmit, photoCount))
		}

		now := time.Now()
		extra := map[string]interface{}{"submitted_at": now, "rejection_reason": nil}
		if sub.PayoutAmount == 0 {
			extra["payout_amount"] = IntakePayoutAmount
			sub.PayoutAmount = IntakePayoutAmount
		}

		if err := transitionStatus(tx, sub, models.StatusSubmitted, &actorID, extra, nil); err != nil {
			return err
		}

		lead := models.Lead{
			SubmissionID: sub.ID,
			CreatorID:    sub.CreatorID,
			BusinessName: sub.BusinessName,
			OwnerPhone:   sub.OwnerPhone,
		}
		res := tx.Where("submission_id = ?", sub.ID).FirstOrCreate(&lead)
		if res.Error != nil {
			return res.Error
		}

		if err := IncrementDaily(tx, sub.CreatorID, now, CounterSubmissions, 1); err != nil {
			return err
		}
		if res.RowsAffected > 0 {
			if err := IncrementDaily(tx, sub.CreatorID, now, CounterLeads, 1); err != nil {
				return err
			}
		}

		return notifications.Enqueue(tx, sub.CreatorID, "submission_submitted",
			"Submission received",
			fmt.Sprintf("%s has been submitted for review.", sub.BusinessName), nil)
	})
	if err != nil {
		return nil, err
	}

	websocket.PushStatus(sub.CreatorID, sub.ID, sub.Status)

	if sub.TranscriptStatus == models.TranscriptPending {
		go RequestTranscript(sub.ID)
	}

	return sub, nil
}

func Approve(db *gorm.DB, submissionID, adminID uuid.UUID) (*models.Submission, error) {
	var sub *models.Submission
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		sub, err = getSubmission(tx, submissionID)
		if err != nil {
			return err
		}

		if err := transitionStatus(tx, sub, models.StatusApproved, &adminID,
			map[string]interface{}{"reviewed_by": adminID}, nil); err != nil {
			return err
		}

		if err := IncrementDaily(tx, sub.CreatorID, time.Now(), CounterApproved, 1); err != nil {
			return err
		}

		return notifications.Enqueue(tx, sub.CreatorID, "submission_approved",
			"Submission approved",
			fmt.Sprintf("%s has been approved! A website will be generated next.", sub.BusinessName), nil)
	})
	if err != nil {
		return nil, err
	}

	websocket.PushStatus(sub.CreatorID, sub.ID, sub.Status)
	return sub, nil
}

func Reject(db *gorm.DB, submissionID, adminID uuid.UUID, reason *string) (*models.Submission, error) {
	var sub *models.Submission
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		sub, err = getSubmission(tx, submissionID)
		if err != nil {
			return err
		}

		if err := transitionStatus(tx, sub, models.StatusRejected, &adminID,
			map[string]interface{}{"reviewed_by": adminID, "rejection_reason": reason}, reason); err != nil {
			return err
		}

		if err := IncrementDaily(tx, sub.CreatorID, time.Now(), CounterRejected, 1); err != nil {
			return err
		}

		body := fmt.Sprintf("%s was not approved.", sub.BusinessName)
		if reason != nil && *reason != "" {
			body = fmt.Sprintf("%s was not approved: %s. You can fix the issues and resubmit.", sub.BusinessName, *reason)
		}
		return notifications.Enqueue(tx, sub.CreatorID, "submission_rejected", "Submission update", body, nil)
	})
	if err != nil {
		return nil, err
	}

	websocket.PushStatus(sub.CreatorID, sub.ID, sub.Status)
	return sub, nil
}

func RecordWebsite(db *gorm.DB, submissionID, adminID uuid.UUID, websiteURL string) (*models.Submission, error) {
	var sub *models.Submission
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		sub, err = getSubmission(tx, submissionID)
		if err != nil {
			return err
		}

		return transitionStatus(tx, sub, models.StatusWebsiteGenerated, &adminID,
			map[string]interface{}{"website_url": websiteURL}, &websiteURL)
	})
	if err != nil {
		return nil, err
	}

	websocket.PushStatus(sub.CreatorID, sub.ID, sub.Status)
	return sub, nil
}

func ConfirmDeployed(db *gorm.DB, submissionID, adminID uuid.UUID) (*models.Submission, error) {
	var sub *models.Submission
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		sub, err = getSubmission(tx, submissionID)
		if err != nil {
			return err
		}
		if sub.WebsiteURL == nil || *sub.WebsiteURL == "" {
			return Validationf("submission has no website URL recorded")
		}

		if err := transitionStatus(tx, sub, models.StatusDeployed, &adminID, nil, nil); err != nil {
			return err
		}

		if err := IncrementDaily(tx, sub.CreatorID, time.Now(), CounterWebsitesLive, 1); err != nil {
			return err
		}

		return notifications.Enqueue(tx, sub.CreatorID, "website_live",
			"Your business website is live",
			fmt.Sprintf("The website for %s is now live: %s", sub.BusinessName, *sub.WebsiteURL), nil)
	})
	if err != nil {
		return nil, err
	}

	websocket.PushStatus(sub.CreatorID, sub.ID, sub.Status)
	return sub, nil
}
