package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	config "github.com/dmuriuki/biz_capture/configs"
	"github.com/dmuriuki/biz_capture/database"
	"github.com/dmuriuki/biz_capture/models"
	"github.com/google/uuid"
)

// ErrMediaTooLarge marks a recording the transcription service refuses to
// process. The submission keeps moving; the transcript is recorded as skipped.
var ErrMediaTooLarge = errors.New("media file too large for transcription")

type TranscriptionService struct {
	BaseURL string
	APIKey  string
}

var Transcriber *TranscriptionService

type transcribeRequest struct {
	MediaURL string `json:"media_url"`
}

type transcribeResponse struct {
	Text string `json:"text"`
}

func InitTranscriber() {
	baseURL := config.Config("TRANSCRIBE_API_URL")
	apiKey := config.Config("TRANSCRIBE_API_KEY")

	if baseURL == "" {
		log.Println("⚠️ Transcription service not configured. Transcripts will stay pending.")
		Transcriber = nil
		return
	}

	Transcriber = &TranscriptionService{BaseURL: baseURL, APIKey: apiKey}
	log.Println("✅ Transcription service initialized successfully.")
}

func (s *TranscriptionService) transcribe(mediaURL string) (string, error) {
	body, err := json.Marshal(transcribeRequest{MediaURL: mediaURL})
	if err != nil {
		return "", fmt.Errorf("failed to marshal transcribe payload: %v", err)
	}

	req, err := http.NewRequest("POST", strings.TrimSuffix(s.BaseURL, "/")+"/transcribe", bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("failed to create transcribe request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", s.APIKey)

	client := &http.Client{
		Timeout: 5 * time.Minute,
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call transcription service: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusRequestEntityTooLarge {
		return "", ErrMediaTooLarge
	}
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("transcription service returned %d: %s", resp.StatusCode, string(respBody))
	}

	var out transcribeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode transcription response: %v", err)
	}
	return out.Text, nil
}

// MediaURL resolves an opaque storage key to a streamable URL on the blob
// store's public host.
func MediaURL(storageKey string) string {
	return strings.TrimSuffix(config.Config("MEDIA_BASE_URL"), "/") + "/" + storageKey
}

// RequestTranscript fetches a transcript for the submission's interview
// recording. Soft failures only: whatever happens here, the submission's
// lifecycle is untouched.
func RequestTranscript(submissionID uuid.UUID) {
	if Transcriber == nil {
		return
	}

	var sub models.Submission
	if err := database.DB.First(&sub, "id = ?", submissionID).Error; err != nil {
		log.Printf("🔥 Transcript request for unknown submission %s: %v", submissionID, err)
		return
	}
	if sub.TranscriptStatus != models.TranscriptPending {
		return
	}

	key := sub.InterviewAudioKey
	if key == nil {
		key = sub.InterviewVideoKey
	}
	if key == nil {
		return
	}

	text, err := Transcriber.transcribe(MediaURL(*key))

	updates := map[string]interface{}{}
	switch {
	case err == nil:
		updates["transcript_status"] = models.TranscriptCompleted
		updates["transcript_text"] = text
		updates["transcript_error"] = nil
	case errors.Is(err, ErrMediaTooLarge):
		msg := "recording too large to transcribe"
		updates["transcript_status"] = models.TranscriptSkipped
		updates["transcript_error"] = msg
	default:
		updates["transcript_status"] = models.TranscriptFailed
		updates["transcript_error"] = err.Error()
	}

	res := database.DB.Model(&models.Submission{}).
		Where("id = ? AND transcript_status = ?", sub.ID, models.TranscriptPending).
		Updates(updates)
	if res.Error != nil {
		log.Printf("🔥 Failed to record transcript result for %s: %v", sub.ID, res.Error)
		return
	}

	if err != nil {
		log.Printf("⚠️ Transcription for submission %s: %v", sub.ID, err)
	} else {
		log.Printf("✅ Transcript stored for submission %s", sub.ID)
	}
}
