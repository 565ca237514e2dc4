package notifications

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	config "github.com/dmuriuki/biz_capture/configs"
	"github.com/dmuriuki/biz_capture/models"
)

// PushService talks to the external notification fan-out sink. Delivery is
// best-effort: a failure here never affects the mutation that produced the
// notification row.
type PushService struct {
	SinkURL string
	APIKey  string
}

var PushClient *PushService

type sinkPayload struct {
	CreatorID string  `json:"creator_id"`
	Type      string  `json:"type"`
	Title     string  `json:"title"`
	Body      string  `json:"body"`
	Payload   *string `json:"payload,omitempty"`
}

func InitPushService() {
	sinkURL := config.Config("PUSH_SINK_URL")
	apiKey := config.Config("PUSH_API_KEY")

	if sinkURL == "" {
		log.Println("⚠️ Push sink not configured. Notifications will stay queued.")
		PushClient = nil
		return
	}

	PushClient = &PushService{SinkURL: sinkURL, APIKey: apiKey}
	log.Println("✅ Push service initialized successfully.")
}

func (s *PushService) send(n *models.Notification) error {
	payload := sinkPayload{
		CreatorID: n.CreatorID.String(),
		Type:      n.Type,
		Title:     n.Title,
		Body:      n.Body,
		Payload:   n.Payload,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %v", err)
	}

	req, err := http.NewRequest("POST", s.SinkURL, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %v", err)
	}

	req.Header.Set("accept", "application/json")
	req.Header.Set("api-key", s.APIKey)
	req.Header.Set("content-type", "application/json")

	client := &http.Client{
		Timeout: 10 * time.Second,
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("push sink returned %d: %s", resp.StatusCode, string(bodyBytes))
	}

	return nil
}

// Deliver sends one queued notification to the sink.
func Deliver(n *models.Notification) error {
	if PushClient == nil {
		return fmt.Errorf("push client not initialized")
	}
	return PushClient.send(n)
}
