package staging

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// InfoForm mirrors the business-info payload the server accepts.
type InfoForm struct {
	BusinessName string  `json:"business_name"`
	Description  *string `json:"description,omitempty"`
	Category     *string `json:"category,omitempty"`
	Location     *string `json:"location,omitempty"`
	OwnerName    *string `json:"owner_name,omitempty"`
	OwnerPhone   *string `json:"owner_phone,omitempty"`
}

type StagedInfo struct {
	Form      InfoForm  `json:"form"`
	Timestamp time.Time `json:"timestamp"`
}

type StagedPhotos struct {
	LocalPaths          []string  `json:"local_paths"`
	AlreadyUploadedKeys []string  `json:"already_uploaded_keys"`
	Timestamp           time.Time `json:"timestamp"`
}

type StagedInterview struct {
	Path              string    `json:"path"`
	ParallelAudioPath *string   `json:"parallel_audio_path,omitempty"`
	Kind              string    `json:"kind"`
	Timestamp         time.Time `json:"timestamp"`
}

// PointerState enumerates the three legal states of the current-submission
// pointer. There is no string sentinel: an unknown value on disk fails the
// load instead of silently becoming a fourth state.
type PointerState int

const (
	NoActiveDraft PointerState = iota
	PendingCreation
	Remote
)

// DraftPointer is the single cross-reference tying device-local staged data
// to the remote submission it belongs to. SubmissionID is meaningful only
// when State is Remote.
type DraftPointer struct {
	State        PointerState
	SubmissionID uuid.UUID
}

func RemotePointer(id uuid.UUID) DraftPointer {
	return DraftPointer{State: Remote, SubmissionID: id}
}

type pointerJSON struct {
	State        string `json:"state"`
	SubmissionID string `json:"submission_id,omitempty"`
}

func (p DraftPointer) MarshalJSON() ([]byte, error) {
	out := pointerJSON{}
	switch p.State {
	case NoActiveDraft:
		out.State = "no_active_draft"
	case PendingCreation:
		out.State = "pending_creation"
	case Remote:
		out.State = "remote"
		out.SubmissionID = p.SubmissionID.String()
	default:
		return nil, fmt.Errorf("invalid pointer state: %d", p.State)
	}
	return json.Marshal(out)
}

func (p *DraftPointer) UnmarshalJSON(data []byte) error {
	var in pointerJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	switch in.State {
	case "no_active_draft":
		*p = DraftPointer{State: NoActiveDraft}
	case "pending_creation":
		*p = DraftPointer{State: PendingCreation}
	case "remote":
		id, err := uuid.Parse(in.SubmissionID)
		if err != nil {
			return fmt.Errorf("remote pointer with bad submission id: %w", err)
		}
		*p = DraftPointer{State: Remote, SubmissionID: id}
	default:
		return fmt.Errorf("unknown pointer state: %q", in.State)
	}
	return nil
}
