package models

import (
	"time"

	"gorm.io/gorm"
)

// Notification types
const (
	NotificationDealStageChanged   = "deal_stage_changed"
	NotificationDealClosingSoon    = "deal_closing_soon"
	NotificationSubmissionReceived = "submission_received"
	NotificationSubmissionReviewed = "submission_reviewed"
	NotificationListingAssigned    = "listing_assigned"
)

// Notification is a user-scoped business event. Read state is mutated and
// rows deleted only by the owning user; the notification worker emails
// unsent rows as digests.
type Notification struct {
	gorm.Model
	UserID uint `gorm:"not null;index" json:"user_id"`

	Type      string            `gorm:"not null" json:"type"`
	Title     string            `gorm:"not null" json:"title"`
	Message   string            `gorm:"type:text" json:"message"`
	ActionURL *string           `json:"action_url,omitempty"`
	Data      map[string]string `gorm:"type:jsonb;serializer:json" json:"data,omitempty"`

	IsRead  bool       `gorm:"default:false;index" json:"is_read"`
	ReadAt  *time.Time `json:"read_at,omitempty"`
	Emailed bool       `gorm:"default:false;index" json:"-"`

	User User `json:"-"`
}
