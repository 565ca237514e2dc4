package jobs

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/dmuriuki/biz_capture/database"
	"github.com/dmuriuki/biz_capture/models"
	"github.com/dmuriuki/biz_capture/notifications"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupJobDB(t *testing.T) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Creator{}, &models.Notification{}, &models.AnalyticsBucket{}, &models.Submission{}))
	database.DB = db
}

func queueNotification(t *testing.T) *models.Notification {
	t.Helper()

	n := models.Notification{
		CreatorID: uuid.New(),
		Type:      "submission_approved",
		Title:     "Submission approved",
		Body:      "Your business has been approved.",
		Status:    models.NotificationPending,
	}
	require.NoError(t, database.DB.Create(&n).Error)
	return &n
}

func TestDispatchMarksDeliveredRowsSent(t *testing.T) {
	setupJobDB(t)

	var received int
	sink := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received++
		w.WriteHeader(http.StatusOK)
	}))
	defer sink.Close()
	notifications.PushClient = &notifications.PushService{SinkURL: sink.URL}
	defer func() { notifications.PushClient = nil }()

	n := queueNotification(t)
	DispatchNotificationOutbox()

	assert.Equal(t, 1, received)

	var fresh models.Notification
	require.NoError(t, database.DB.First(&fresh, "id = ?", n.ID).Error)
	assert.Equal(t, models.NotificationSent, fresh.Status)
	assert.Equal(t, 1, fresh.Attempts)
	require.NotNil(t, fresh.SentAt)
}

func TestDispatchRetriesThenGivesUp(t *testing.T) {
	setupJobDB(t)

	sink := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer sink.Close()
	notifications.PushClient = &notifications.PushService{SinkURL: sink.URL}
	defer func() { notifications.PushClient = nil }()

	n := queueNotification(t)

	for i := 0; i < outboxMaxAttempts-1; i++ {
		DispatchNotificationOutbox()

		var fresh models.Notification
		require.NoError(t, database.DB.First(&fresh, "id = ?", n.ID).Error)
		assert.Equal(t, models.NotificationPending, fresh.Status)
		assert.Equal(t, i+1, fresh.Attempts)
	}

	DispatchNotificationOutbox()

	var fresh models.Notification
	require.NoError(t, database.DB.First(&fresh, "id = ?", n.ID).Error)
	assert.Equal(t, models.NotificationFailed, fresh.Status)
	assert.Equal(t, outboxMaxAttempts, fresh.Attempts)

	// A failed row leaves the queue for good.
	DispatchNotificationOutbox()
	require.NoError(t, database.DB.First(&fresh, "id = ?", n.ID).Error)
	assert.Equal(t, outboxMaxAttempts, fresh.Attempts)
}

func TestDispatchWithoutSinkKeepsRowsQueued(t *testing.T) {
	setupJobDB(t)
	notifications.PushClient = nil

	// With no sink configured the dispatcher must not burn attempts; the
	// rows wait untouched until a sink shows up.
	n := queueNotification(t)
	for i := 0; i < outboxMaxAttempts+1; i++ {
		DispatchNotificationOutbox()
	}

	var fresh models.Notification
	require.NoError(t, database.DB.First(&fresh, "id = ?", n.ID).Error)
	assert.Equal(t, models.NotificationPending, fresh.Status)
	assert.Equal(t, 0, fresh.Attempts)

	// Configuring the sink later still delivers them.
	sink := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer sink.Close()
	notifications.PushClient = &notifications.PushService{SinkURL: sink.URL}
	defer func() { notifications.PushClient = nil }()

	DispatchNotificationOutbox()
	require.NoError(t, database.DB.First(&fresh, "id = ?", n.ID).Error)
	assert.Equal(t, models.NotificationSent, fresh.Status)
}
