package jobs

import (
	"log"
	"time"

	"github.com/dmuriuki/biz_capture/database"
	"github.com/dmuriuki/biz_capture/models"
	"github.com/dmuriuki/biz_capture/notifications"
)

const (
	outboxBatchSize   = 50
	outboxMaxAttempts = 5
)

// DispatchNotificationOutbox delivers queued notification rows to the push
// sink. Failures are retried on later runs until the attempt cap; the rows
// themselves were committed with the mutations that created them, so nothing
// here can lose or duplicate a state change.
func DispatchNotificationOutbox() {
	// No sink means the rows wait, not burn attempts. They deliver as soon
	// as the sink is configured.
	if notifications.PushClient == nil {
		return
	}

	var pending []models.Notification
	err := database.DB.
		Where("status = ?", models.NotificationPending).
		Order("created_at asc").
		Limit(outboxBatchSize).
		Find(&pending).Error
	if err != nil {
		log.Printf("🔥 Failed to load notification outbox: %v", err)
		return
	}

	if len(pending) == 0 {
		return
	}

	for i := range pending {
		n := &pending[i]

		if err := notifications.Deliver(n); err != nil {
			n.Attempts++
			updates := map[string]interface{}{"attempts": n.Attempts}
			if n.Attempts >= outboxMaxAttempts {
				updates["status"] = models.NotificationFailed
				log.Printf("🔥 Giving up on notification %s after %d attempts: %v", n.ID, n.Attempts, err)
			} else {
				log.Printf("⚠️ Notification %s delivery failed (attempt %d): %v", n.ID, n.Attempts, err)
			}
			database.DB.Model(n).Updates(updates)
			continue
		}

		now := time.Now()
		database.DB.Model(n).Updates(map[string]interface{}{
			"status":   models.NotificationSent,
			"attempts": n.Attempts + 1,
			"sent_at":  now,
		})
	}
}
