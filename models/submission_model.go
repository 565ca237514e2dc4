package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	StatusDraft            = "draft"
	StatusSubmitted        = "submitted"
	StatusApproved         = "approved"
	StatusRejected         = "rejected"
	StatusWebsiteGenerated = "website_generated"
	StatusDeployed         = "deployed"
	StatusPaid             = "paid"
)

const (
	InterviewKindVideo = "video"
	InterviewKindAudio = "audio"
)

const (
	TranscriptNone      = "none"
	TranscriptPending   = "pending"
	TranscriptCompleted = "completed"
	TranscriptFailed    = "failed"
	TranscriptSkipped   = "skipped"
)

// MinPhotosForSubmit guards the draft -> submitted transition.
const MinPhotosForSubmit = 3

type Submission struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatorID uuid.UUID `gorm:"type:uuid;not null;index" json:"creator_id"`

	BusinessName string  `gorm:"size:255;not null" json:"business_name"`
	Description  *string `gorm:"type:text" json:"description"`
	Category     *string `gorm:"size:100" json:"category"`
	Location     *string `gorm:"size:255" json:"location"`
	OwnerName    *string `gorm:"size:255" json:"owner_name"`
	OwnerPhone   *string `gorm:"size:30" json:"owner_phone"`

	Photos []SubmissionPhoto `gorm:"foreignkey:SubmissionID" json:"photos"`

	InterviewKind     *string `gorm:"size:10" json:"interview_kind"`
	InterviewVideoKey *string `gorm:"size:255" json:"interview_video_key"`
	InterviewAudioKey *string `gorm:"size:255" json:"interview_audio_key"`

	TranscriptStatus string  `gorm:"size:20;not null;default:'none'" json:"transcript_status"`
	TranscriptText   *string `gorm:"type:text" json:"transcript_text"`
	TranscriptError  *string `gorm:"type:text" json:"transcript_error"`

	PayoutAmount float64 `gorm:"type:numeric(12,2);default:0.00" json:"payout_amount"`

	Status          string     `gorm:"size:30;not null;default:'draft';index" json:"status"`
	RejectionReason *string    `gorm:"type:text" json:"rejection_reason"`
	WebsiteURL      *string    `gorm:"size:255" json:"website_url"`
	ReviewedBy      *uuid.UUID `gorm:"type:uuid" json:"reviewed_by"`
	SubmittedAt     *time.Time `json:"submitted_at"`
	PaidAt          *time.Time `json:"paid_at"`

	Creator Creator `gorm:"foreignkey:CreatorID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *Submission) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

type SubmissionPhoto struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SubmissionID uuid.UUID `gorm:"type:uuid;not null;index" json:"submission_id"`
	StorageKey   string    `gorm:"size:255;not null" json:"storage_key"`
	Position     int       `gorm:"not null" json:"position"`

	CreatedAt time.Time `json:"created_at"`
}

func (p *SubmissionPhoto) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
