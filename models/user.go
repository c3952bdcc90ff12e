package models

import (
	"gorm.io/gorm"
)

// User represents a brokerage staff account
type User struct {
	gorm.Model

	// Authentication fields
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`

	// Google OAuth fields
	GoogleID       *string `gorm:"uniqueIndex" json:"google_id,omitempty"`
	GoogleImageURL *string `json:"google_image_url,omitempty"`

	// Profile information
	Name      string   `gorm:"not null" json:"name"`
	Phone     string   `json:"phone"`
	AvatarURL *string  `json:"avatar_url,omitempty"`
	Role      string   `gorm:"default:'agent'" json:"role"` // admin, broker, agent
	Division  Division `gorm:"index" json:"division"`
	Timezone  string   `gorm:"default:'America/New_York'" json:"timezone"`

	// Account status
	IsActive     bool `gorm:"default:true" json:"is_active"`
	TokenVersion int  `gorm:"default:0" json:"-"`

	// Relations
	Deals         []Deal         `gorm:"foreignKey:UserID" json:"deals,omitempty"`
	Notifications []Notification `gorm:"foreignKey:UserID" json:"notifications,omitempty"`
}

// RefreshToken stores a hashed refresh token for one session
type RefreshToken struct {
	gorm.Model
	UserID    uint   `gorm:"not null;index" json:"user_id"`
	TokenHash string `gorm:"not null;uniqueIndex" json:"-"`
	SessionID string `gorm:"not null;index" json:"session_id"`
	ExpiresAt int64  `gorm:"not null" json:"expires_at"`
	Revoked   bool   `gorm:"default:false" json:"revoked"`

	User User `json:"-"`
}

// Contact is a person attached to deals and submissions: an owner,
// buyer, tenant or investor.
type Contact struct {
	gorm.Model
	Name    string `gorm:"not null" json:"name"`
	Email   string `gorm:"index" json:"email"`
	Phone   string `json:"phone"`
	Company string `json:"company"`
	Type    string `gorm:"default:'owner'" json:"type"` // owner, buyer, tenant, investor
	Notes   string `gorm:"type:text" json:"notes"`

	UserID uint `gorm:"index" json:"user_id"`

	Deals []Deal `gorm:"foreignKey:ContactID" json:"deals,omitempty"`
}
