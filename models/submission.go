package models

import (
	"time"

	"gorm.io/gorm"
)

// Exclusive submission statuses
const (
	SubmissionStatusDraft         = "draft"
	SubmissionStatusPendingReview = "pending_review"
	SubmissionStatusApproved      = "approved"
	SubmissionStatusRejected      = "rejected"
)

// ExclusiveSubmission is the backing record for the multi-step exclusive
// listing wizard. It is created lazily the first time the wizard advances
// past the owner step and mutated on every subsequent step. The status
// leaves draft only when the signed agreement document is attached.
type ExclusiveSubmission struct {
	gorm.Model
	UserID uint `gorm:"not null;index" json:"user_id"`

	PropertyAddress string   `json:"property_address"`
	Division        Division `gorm:"not null;index" json:"division"`

	// Owner contact captured by the wizard
	OwnerName  string `json:"owner_name"`
	OwnerEmail string `json:"owner_email"`
	OwnerPhone string `json:"owner_phone"`

	ListingData DivisionData `gorm:"type:jsonb;serializer:json" json:"listing_data"`

	// Documents
	AgreementURL *string  `json:"agreement_url,omitempty"` // required before submit
	DocumentURLs []string `gorm:"type:jsonb;serializer:json" json:"document_urls"`

	Status      string     `gorm:"default:'draft';index" json:"status"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
	ReviewedAt  *time.Time `json:"reviewed_at,omitempty"`
	ReviewedBy  *uint      `json:"reviewed_by,omitempty"`
	ReviewNote  string     `gorm:"type:text" json:"review_note"`

	User User `json:"-"`
}
