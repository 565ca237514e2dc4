package services

import (
	"path/filepath"
	"testing"

	"github.com/dmuriuki/biz_capture/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Creator{},
		&models.Submission{},
		&models.SubmissionPhoto{},
		&models.Lead{},
		&models.Earning{},
		&models.Withdrawal{},
		&models.Referral{},
		&models.AnalyticsBucket{},
		&models.AuditLog{},
		&models.Notification{},
	))
	return db
}

func createCreator(t *testing.T, db *gorm.DB, name, email string) *models.Creator {
	t.Helper()

	code := "REF" + name
	creator := models.Creator{
		FullName:     name,
		Email:        email,
		Password:     "hashed",
		Role:         "creator",
		ReferralCode: &code,
		IsActive:     true,
	}
	require.NoError(t, db.Create(&creator).Error)
	return &creator
}

func createDraft(t *testing.T, db *gorm.DB, creator *models.Creator, photoCount int) *models.Submission {
	t.Helper()

	sub := models.Submission{
		CreatorID:    creator.ID,
		BusinessName: "Mama Njeri Grocers",
		Status:       models.StatusDraft,
	}
	require.NoError(t, db.Create(&sub).Error)

	for i := 0; i < photoCount; i++ {
		photo := models.SubmissionPhoto{
			SubmissionID: sub.ID,
			StorageKey:   "business_photos/photo-" + string(rune('a'+i)),
			Position:     i,
		}
		require.NoError(t, db.Create(&photo).Error)
	}
	return &sub
}

// advanceToDeployed walks a draft through the admin pipeline so ledger tests
// can start from the deployed state.
func advanceToDeployed(t *testing.T, db *gorm.DB, sub *models.Submission, admin *models.Creator) {
	t.Helper()

	_, err := Submit(db, sub.ID, sub.CreatorID)
	require.NoError(t, err)
	_, err = Approve(db, sub.ID, admin.ID)
	require.NoError(t, err)
	_, err = RecordWebsite(db, sub.ID, admin.ID, "https://example.biz")
	require.NoError(t, err)
	_, err = ConfirmDeployed(db, sub.ID, admin.ID)
	require.NoError(t, err)
}
