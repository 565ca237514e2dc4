package syncer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmuriuki/biz_capture/staging"
	"github.com/google/uuid"
)

// mediaUploadTimeout is deliberately long: interview videos on rural
// connections can take most of it.
const mediaUploadTimeout = 20 * time.Minute

// Client implements SubmissionAPI and BlobStore against the Biz Capture
// backend and its blob store.
type Client struct {
	BaseURL string
	Token   string

	api    *http.Client
	upload *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		Token:   token,
		api:     &http.Client{Timeout: 15 * time.Second},
		upload:  &http.Client{Timeout: mediaUploadTimeout},
	}
}

func (c *Client) doJSON(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.Token)

	resp, err := c.api.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s %s returned %d: %s", method, path, resp.StatusCode, string(respBody))
	}

	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) CreateDraft(ctx context.Context, form staging.InfoForm) (uuid.UUID, error) {
	var created struct {
		ID uuid.UUID `json:"id"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/submissions", form, &created); err != nil {
		return uuid.Nil, err
	}
	return created.ID, nil
}

func (c *Client) PatchInfo(ctx context.Context, id uuid.UUID, form staging.InfoForm) error {
	return c.doJSON(ctx, http.MethodPatch, "/api/v1/submissions/"+id.String(), form, nil)
}

func (c *Client) AttachPhotos(ctx context.Context, id uuid.UUID, storageKeys []string) error {
	payload := map[string]interface{}{"storage_keys": storageKeys}
	return c.doJSON(ctx, http.MethodPost, "/api/v1/submissions/"+id.String()+"/photos", payload, nil)
}

func (c *Client) AttachInterview(ctx context.Context, id uuid.UUID, kind string, videoKey, audioKey *string) error {
	payload := map[string]interface{}{
		"kind":      kind,
		"video_key": videoKey,
		"audio_key": audioKey,
	}
	return c.doJSON(ctx, http.MethodPost, "/api/v1/submissions/"+id.String()+"/interview", payload, nil)
}

func (c *Client) RequestUploadTarget(ctx context.Context, folder, filename, contentType string) (UploadTarget, error) {
	payload := map[string]string{
		"folder":       folder,
		"filename":     filename,
		"content_type": contentType,
	}

	var signed struct {
		UploadURL  string `json:"upload_url"`
		StorageKey string `json:"storage_key"`
		Signature  string `json:"signature"`
		Timestamp  int64  `json:"timestamp"`
		APIKey     string `json:"api_key"`
		Folder     string `json:"folder"`
		PublicID   string `json:"public_id"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/uploads/sign", payload, &signed); err != nil {
		return UploadTarget{}, err
	}

	return UploadTarget{
		UploadURL:  signed.UploadURL,
		StorageKey: signed.StorageKey,
		Fields: map[string]string{
			"signature": signed.Signature,
			"timestamp": fmt.Sprintf("%d", signed.Timestamp),
			"api_key":   signed.APIKey,
			"folder":    signed.Folder,
			"public_id": signed.PublicID,
		},
	}, nil
}

// Upload streams the file to the signed target as a multipart form, the
// shape the blob store's direct upload endpoint expects.
func (c *Client) Upload(ctx context.Context, target UploadTarget, localPath string) error {
	file, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for k, v := range target.Fields {
		if err := writer.WriteField(k, v); err != nil {
			return err
		}
	}
	part, err := writer.CreateFormFile("file", filepath.Base(localPath))
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, file); err != nil {
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.UploadURL, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.upload.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("upload to %s returned %d: %s", target.UploadURL, resp.StatusCode, string(respBody))
	}
	return nil
}
