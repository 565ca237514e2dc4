package payments

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	config "github.com/dmuriuki/biz_capture/configs"
	"github.com/dmuriuki/biz_capture/models"
)

type DisbursementRequest struct {
	PhoneNumber     string `json:"phoneNumber"`
	Amount          string `json:"amount"`
	ReferenceNumber string `json:"referenceNumber"`
	CallbackURL     string `json:"callbackUrl"`
	Description     string `json:"description"`
}

type DisbursementResponse struct {
	Header struct {
		StatusCode        string `json:"statusCode"`
		StatusDescription string `json:"statusDescription"`
	} `json:"header"`
	Response struct {
		TransactionID       string `json:"TransactionID"`
		ResponseCode        string `json:"ResponseCode"`
		ResponseDescription string `json:"ResponseDescription"`
	} `json:"response"`
}

var nonNumericRegex = regexp.MustCompile(`[^0-9]`)

func SanitizePhoneNumber(phone string) (string, error) {
	sanitized := nonNumericRegex.ReplaceAllString(phone, "")

	if (strings.HasPrefix(sanitized, "07") || strings.HasPrefix(sanitized, "01")) && len(sanitized) == 10 {
		return "254" + sanitized[1:], nil
	}
	if (strings.HasPrefix(sanitized, "7") || strings.HasPrefix(sanitized, "1")) && len(sanitized) == 9 {
		return "254" + sanitized, nil
	}
	if strings.HasPrefix(sanitized, "254") && len(sanitized) == 12 {
		return sanitized, nil
	}

	return "", errors.New("invalid mobile money phone number format")
}

// InitiateDisbursement asks the payout provider to send the withdrawal
// amount to the creator's mobile money account. The provider confirms (or
// fails) the transfer later through the wallet webhook.
func InitiateDisbursement(w *models.Withdrawal) (*DisbursementResponse, error) {
	accessToken, err := GetPayoutAccessToken()
	if err != nil {
		return nil, fmt.Errorf("failed to get payout access token: %v", err)
	}

	sanitizedPhone, err := SanitizePhoneNumber(w.AccountDetails)
	if err != nil {
		return nil, err
	}

	callbackURL := config.Config("WEBHOOK_BASE_URL") + "/api/v1/wallet/webhook"
	amountStr := strconv.FormatFloat(w.Amount, 'f', 0, 64)

	payload := DisbursementRequest{
		PhoneNumber:     sanitizedPhone,
		Amount:          amountStr,
		ReferenceNumber: w.ID.String(),
		CallbackURL:     callbackURL,
		Description:     config.Config("PAYOUT_DESCRIPTION"),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal disbursement payload: %v", err)
	}

	req, err := http.NewRequest("POST", config.Config("PAYOUT_BASE_URL")+"/send", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create disbursement request: %v", err)
	}

	messageID := fmt.Sprintf("%s_%d", w.ID, time.Now().UnixNano())
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("operation", "SendMoney")
	req.Header.Set("messageId", messageID)
	req.Header.Set("Authorization", "Bearer "+accessToken)

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send disbursement request: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read disbursement response body: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("payout provider returned %d: %s", resp.StatusCode, string(respBody))
	}

	var out DisbursementResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("failed to decode disbursement response: %v", err)
	}

	if out.Response.ResponseCode != "0" {
		return &out, fmt.Errorf("disbursement rejected: %s", out.Response.ResponseDescription)
	}

	log.Printf("✅ Disbursement initiated for withdrawal %s (txn %s)", w.ID, out.Response.TransactionID)
	return &out, nil
}
