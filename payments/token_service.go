package payments

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	config "github.com/dmuriuki/biz_capture/configs"
)

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

var (
	payoutToken       string
	payoutTokenExpiry time.Time
	tokenMutex        sync.RWMutex
)

// GetPayoutAccessToken returns a cached OAuth token for the payout provider,
// refreshing it when within five minutes of expiry.
func GetPayoutAccessToken() (string, error) {
	tokenMutex.RLock()
	if payoutToken != "" && time.Now().Before(payoutTokenExpiry) {
		token := payoutToken
		tokenMutex.RUnlock()
		return token, nil
	}
	tokenMutex.RUnlock()

	tokenMutex.Lock()
	defer tokenMutex.Unlock()

	if payoutToken != "" && time.Now().Before(payoutTokenExpiry) {
		return payoutToken, nil
	}

	log.Println("Fetching new payout provider access token...")
	apiKey := config.Config("PAYOUT_API_KEY")
	apiSecret := config.Config("PAYOUT_API_SECRET")
	tokenURL := config.Config("PAYOUT_TOKEN_URL")

	reqBody := strings.NewReader("grant_type=client_credentials")
	req, err := http.NewRequest("POST", tokenURL, reqBody)
	if err != nil {
		return "", err
	}

	req.SetBasicAuth(apiKey, apiSecret)
	req.Header.Add("Content-Type", "application/x-www-form-urlencoded")

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("payout token API returned non-200 status: %s", resp.Status)
	}

	var tokenResp TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", err
	}

	payoutToken = tokenResp.AccessToken
	payoutTokenExpiry = time.Now().Add(time.Duration(tokenResp.ExpiresIn-300) * time.Second)
	log.Println("Successfully fetched and cached payout provider access token.")

	return payoutToken, nil
}
