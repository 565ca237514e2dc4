package notifications

import (
	"encoding/json"

	"github.com/dmuriuki/biz_capture/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Enqueue writes a notification row inside the caller's transaction so the
// intent commits or rolls back together with the mutation it describes. The
// dispatcher job delivers it afterwards.
func Enqueue(tx *gorm.DB, creatorID uuid.UUID, notifType, title, body string, payload interface{}) error {
	n := models.Notification{
		CreatorID: creatorID,
		Type:      notifType,
		Title:     title,
		Body:      body,
	}

	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		s := string(raw)
		n.Payload = &s
	}

	return tx.Create(&n).Error
}
