package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/dmuriuki/biz_capture/database"
	"github.com/dmuriuki/biz_capture/models"
	"github.com/dmuriuki/biz_capture/routes"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestApp(t *testing.T) *fiber.App {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")

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
	database.DB = db

	app := fiber.New()
	routes.AuthRoutes(app)
	routes.SubmissionRoutes(app)
	routes.WalletRoutes(app)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body interface{}) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func registerAndLogin(t *testing.T, app *fiber.App, name, email string) string {
	t.Helper()

	resp := doJSON(t, app, http.MethodPost, "/api/v1/auth/register", "", fiber.Map{
		"full_name": name,
		"email":     email,
		"password":  "hunter22",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodPost, "/api/v1/auth/login", "", fiber.Map{
		"email":    email,
		"password": "hunter22",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var login struct {
		Token string `json:"token"`
	}
	decode(t, resp, &login)
	require.NotEmpty(t, login.Token)
	return login.Token
}

func TestSubmissionFlowOverHTTP(t *testing.T) {
	app := setupTestApp(t)
	token := registerAndLogin(t, app, "Wanjiku Kamau", "wanjiku@example.com")

	// Draft with business info.
	resp := doJSON(t, app, http.MethodPost, "/api/v1/submissions", token, fiber.Map{
		"business_name": "Mama Njeri Grocers",
		"location":      "Nakuru Town",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var sub models.Submission
	decode(t, resp, &sub)
	assert.Equal(t, models.StatusDraft, sub.Status)

	base := "/api/v1/submissions/" + sub.ID.String()

	// Two photos are not enough to submit.
	resp = doJSON(t, app, http.MethodPost, base+"/photos", token, fiber.Map{
		"storage_keys": []string{"business_photos/a", "business_photos/b"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodPost, base+"/submit", token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// The reconciler resends the full key list; duplicates must not stack.
	resp = doJSON(t, app, http.MethodPost, base+"/photos", token, fiber.Map{
		"storage_keys": []string{"business_photos/a", "business_photos/b", "business_photos/c"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var attached struct {
		Photos []models.SubmissionPhoto `json:"photos"`
	}
	decode(t, resp, &attached)
	require.Len(t, attached.Photos, 3)
	assert.Equal(t, 0, attached.Photos[0].Position)
	assert.Equal(t, 2, attached.Photos[2].Position)

	// Audio interview bumps the payout before submission.
	resp = doJSON(t, app, http.MethodPost, base+"/interview", token, fiber.Map{
		"kind":      "audio",
		"audio_key": "interviews/chat.m4a",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodPost, base+"/submit", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var submitted models.Submission
	decode(t, resp, &submitted)
	assert.Equal(t, models.StatusSubmitted, submitted.Status)
	assert.Equal(t, 300.0, submitted.PayoutAmount)

	// Once in review the draft is locked.
	resp = doJSON(t, app, http.MethodPatch, base, token, fiber.Map{
		"business_name": "Renamed Grocers",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestSubmissionOwnershipEnforced(t *testing.T) {
	app := setupTestApp(t)
	owner := registerAndLogin(t, app, "Wanjiku Kamau", "wanjiku@example.com")
	intruder := registerAndLogin(t, app, "Someone Else", "else@example.com")

	resp := doJSON(t, app, http.MethodPost, "/api/v1/submissions", owner, fiber.Map{
		"business_name": "Mama Njeri Grocers",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var sub models.Submission
	decode(t, resp, &sub)

	resp = doJSON(t, app, http.MethodGet, "/api/v1/submissions/"+sub.ID.String(), intruder, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodGet, "/api/v1/submissions/"+sub.ID.String(), "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestRegisterWithReferralCodeCreatesPendingReferral(t *testing.T) {
	app := setupTestApp(t)
	registerAndLogin(t, app, "Amina Hassan", "amina@example.com")

	var referrer models.Creator
	require.NoError(t, database.DB.First(&referrer, "email = ?", "amina@example.com").Error)
	require.NotNil(t, referrer.ReferralCode)

	resp := doJSON(t, app, http.MethodPost, "/api/v1/auth/register", "", fiber.Map{
		"full_name":        "Wanjiku Kamau",
		"email":            "wanjiku@example.com",
		"password":         "hunter22",
		"referred_by_code": *referrer.ReferralCode,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	var referred models.Creator
	require.NoError(t, database.DB.First(&referred, "email = ?", "wanjiku@example.com").Error)

	var referral models.Referral
	require.NoError(t, database.DB.First(&referral, "referred_creator_id = ?", referred.ID).Error)
	assert.Equal(t, referrer.ID, referral.ReferrerID)
	assert.Equal(t, models.ReferralPending, referral.Status)
}

func TestWithdrawalOverHTTP(t *testing.T) {
	app := setupTestApp(t)
	token := registerAndLogin(t, app, "Wanjiku Kamau", "wanjiku@example.com")

	require.NoError(t, database.DB.Model(&models.Creator{}).
		Where("email = ?", "wanjiku@example.com").
		Update("balance", 400.0).Error)

	resp := doJSON(t, app, http.MethodPost, "/api/v1/wallet/withdrawals", token, fiber.Map{
		"amount":          250,
		"method":          "mpesa",
		"account_details": "254712345678",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodGet, "/api/v1/wallet", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var wallet struct {
		Balance float64 `json:"balance"`
	}
	decode(t, resp, &wallet)
	assert.Equal(t, 150.0, wallet.Balance)
}
