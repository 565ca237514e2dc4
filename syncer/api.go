package syncer

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmuriuki/biz_capture/staging"
	"github.com/google/uuid"
)

// SubmissionAPI is the slice of the backend the reconciler drains into.
type SubmissionAPI interface {
	CreateDraft(ctx context.Context, form staging.InfoForm) (uuid.UUID, error)
	PatchInfo(ctx context.Context, id uuid.UUID, form staging.InfoForm) error
	AttachPhotos(ctx context.Context, id uuid.UUID, storageKeys []string) error
	AttachInterview(ctx context.Context, id uuid.UUID, kind string, videoKey, audioKey *string) error
}

// UploadTarget is a one-time signed upload issued by the blob store.
type UploadTarget struct {
	UploadURL  string
	StorageKey string
	Fields     map[string]string
}

type BlobStore interface {
	RequestUploadTarget(ctx context.Context, folder, filename, contentType string) (UploadTarget, error)
	Upload(ctx context.Context, target UploadTarget, localPath string) error
}

// Summary describes one reconciliation pass for the single notification
// shown to the user.
type Summary struct {
	Skipped         bool
	InfoSynced      bool
	PhotosUploaded  int
	PhotosFailed    int
	InterviewSynced bool
}

func (s Summary) Message() string {
	if s.Skipped {
		return "Sync already in progress"
	}

	var parts []string
	if s.InfoSynced {
		parts = append(parts, "business info synced")
	}
	if s.PhotosUploaded > 0 {
		parts = append(parts, fmt.Sprintf("%d photo(s) uploaded", s.PhotosUploaded))
	}
	if s.PhotosFailed > 0 {
		parts = append(parts, fmt.Sprintf("%d photo(s) will retry", s.PhotosFailed))
	}
	if s.InterviewSynced {
		parts = append(parts, "interview uploaded")
	}
	if len(parts) == 0 {
		return "Everything is up to date"
	}
	return strings.Join(parts, ", ")
}
