package services

import (
	"testing"

	"github.com/dmuriuki/biz_capture/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitRequiresMinimumPhotos(t *testing.T) {
	db := setupTestDB(t)
	creator := createCreator(t, db, "Wanjiku", "wanjiku@example.com")
	sub := createDraft(t, db, creator, 2)

	_, err := Submit(db, sub.ID, creator.ID)
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	var fresh models.Submission
	require.NoError(t, db.First(&fresh, "id = ?", sub.ID).Error)
	assert.Equal(t, models.StatusDraft, fresh.Status)
}

func TestSubmitMovesDraftIntoReview(t *testing.T) {
	db := setupTestDB(t)
	creator := createCreator(t, db, "Wanjiku", "wanjiku@example.com")
	sub := createDraft(t, db, creator, 3)

	submitted, err := Submit(db, sub.ID, creator.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSubmitted, submitted.Status)

	var fresh models.Submission
	require.NoError(t, db.First(&fresh, "id = ?", sub.ID).Error)
	assert.Equal(t, models.StatusSubmitted, fresh.Status)
	require.NotNil(t, fresh.SubmittedAt)
	assert.Equal(t, IntakePayoutAmount, fresh.PayoutAmount)

	// Submitting seeds the lead exactly once.
	var leadCount int64
	require.NoError(t, db.Model(&models.Lead{}).Where("submission_id = ?", sub.ID).Count(&leadCount).Error)
	assert.Equal(t, int64(1), leadCount)

	var audit models.AuditLog
	require.NoError(t, db.Where("submission_id = ?", sub.ID).First(&audit).Error)
	assert.Equal(t, models.StatusDraft, audit.FromStatus)
	assert.Equal(t, models.StatusSubmitted, audit.ToStatus)

	var note models.Notification
	require.NoError(t, db.Where("creator_id = ? AND type = ?", creator.ID, "submission_submitted").First(&note).Error)
	assert.Equal(t, models.NotificationPending, note.Status)
}

func TestSubmitKeepsInterviewPayout(t *testing.T) {
	db := setupTestDB(t)
	creator := createCreator(t, db, "Wanjiku", "wanjiku@example.com")
	sub := createDraft(t, db, creator, 3)
	require.NoError(t, db.Model(sub).Update("payout_amount", VideoPayoutAmount).Error)

	_, err := Submit(db, sub.ID, creator.ID)
	require.NoError(t, err)

	var fresh models.Submission
	require.NoError(t, db.First(&fresh, "id = ?", sub.ID).Error)
	assert.Equal(t, VideoPayoutAmount, fresh.PayoutAmount)
}

func TestIllegalTransitionsAreRejected(t *testing.T) {
	db := setupTestDB(t)
	admin := createCreator(t, db, "Admin", "admin@example.com")
	creator := createCreator(t, db, "Wanjiku", "wanjiku@example.com")
	sub := createDraft(t, db, creator, 3)

	// A draft cannot be approved, deployed, or paid directly.
	_, err := Approve(db, sub.ID, admin.ID)
	assert.True(t, IsValidation(err))

	_, err = ConfirmDeployed(db, sub.ID, admin.ID)
	assert.True(t, IsValidation(err))

	_, err = MarkPaid(db, sub.ID, admin.ID)
	assert.True(t, IsValidation(err))

	var fresh models.Submission
	require.NoError(t, db.First(&fresh, "id = ?", sub.ID).Error)
	assert.Equal(t, models.StatusDraft, fresh.Status)
}

func TestFullLifecycleToPaid(t *testing.T) {
	db := setupTestDB(t)
	admin := createCreator(t, db, "Admin", "admin@example.com")
	creator := createCreator(t, db, "Wanjiku", "wanjiku@example.com")
	sub := createDraft(t, db, creator, 3)

	advanceToDeployed(t, db, sub, admin)

	paid, err := MarkPaid(db, sub.ID, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPaid, paid.Status)

	var fresh models.Submission
	require.NoError(t, db.First(&fresh, "id = ?", sub.ID).Error)
	assert.Equal(t, models.StatusPaid, fresh.Status)
	require.NotNil(t, fresh.PaidAt)
	require.NotNil(t, fresh.WebsiteURL)
	assert.Equal(t, "https://example.biz", *fresh.WebsiteURL)

	// One audit entry per hop: draft->submitted->approved->website_generated->deployed->paid.
	var auditCount int64
	require.NoError(t, db.Model(&models.AuditLog{}).Where("submission_id = ?", sub.ID).Count(&auditCount).Error)
	assert.Equal(t, int64(5), auditCount)
}

func TestRejectedSubmissionCanBeResubmitted(t *testing.T) {
	db := setupTestDB(t)
	admin := createCreator(t, db, "Admin", "admin@example.com")
	creator := createCreator(t, db, "Wanjiku", "wanjiku@example.com")
	sub := createDraft(t, db, creator, 3)

	_, err := Submit(db, sub.ID, creator.ID)
	require.NoError(t, err)

	reason := "photos are blurry"
	rejected, err := Reject(db, sub.ID, admin.ID, &reason)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, rejected.Status)

	var fresh models.Submission
	require.NoError(t, db.First(&fresh, "id = ?", sub.ID).Error)
	require.NotNil(t, fresh.RejectionReason)
	assert.Equal(t, reason, *fresh.RejectionReason)

	_, err = Submit(db, sub.ID, creator.ID)
	require.NoError(t, err)

	require.NoError(t, db.First(&fresh, "id = ?", sub.ID).Error)
	assert.Equal(t, models.StatusSubmitted, fresh.Status)
	assert.Nil(t, fresh.RejectionReason)
}

func TestConfirmDeployedRequiresWebsiteURL(t *testing.T) {
	db := setupTestDB(t)
	admin := createCreator(t, db, "Admin", "admin@example.com")
	creator := createCreator(t, db, "Wanjiku", "wanjiku@example.com")
	sub := createDraft(t, db, creator, 3)

	_, err := Submit(db, sub.ID, creator.ID)
	require.NoError(t, err)
	_, err = Approve(db, sub.ID, admin.ID)
	require.NoError(t, err)

	_, err = ConfirmDeployed(db, sub.ID, admin.ID)
	assert.True(t, IsValidation(err))
}

func TestSubmitDailyCountersBump(t *testing.T) {
	db := setupTestDB(t)
	creator := createCreator(t, db, "Wanjiku", "wanjiku@example.com")

	first := createDraft(t, db, creator, 3)
	second := createDraft(t, db, creator, 3)

	_, err := Submit(db, first.ID, creator.ID)
	require.NoError(t, err)
	_, err = Submit(db, second.ID, creator.ID)
	require.NoError(t, err)

	var buckets []models.AnalyticsBucket
	require.NoError(t, db.Where("creator_id = ?", creator.ID).Find(&buckets).Error)
	require.Len(t, buckets, 1)
	assert.Equal(t, 2, buckets[0].SubmissionsCount)
	assert.Equal(t, 2, buckets[0].LeadsCount)
}
