package jobs

import (
	"log"

	"github.com/dmuriuki/biz_capture/database"
	"github.com/dmuriuki/biz_capture/models"
	"github.com/dmuriuki/biz_capture/services"
)

// RetryPendingTranscripts picks up interview recordings whose transcript
// request never completed, e.g. because the service was down when the
// interview was attached.
func RetryPendingTranscripts() {
	var pending []models.Submission
	err := database.DB.
		Where("transcript_status = ? AND (interview_audio_key IS NOT NULL OR interview_video_key IS NOT NULL)", models.TranscriptPending).
		Limit(20).
		Find(&pending).Error
	if err != nil {
		log.Printf("🔥 Failed to load pending transcripts: %v", err)
		return
	}

	for _, sub := range pending {
		services.RequestTranscript(sub.ID)
	}
}
