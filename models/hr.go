package models

import (
	"time"

	"gorm.io/gorm"
)

// Agent candidate statuses
const (
	AgentStatusCandidate    = "candidate"
	AgentStatusInterviewing = "interviewing"
	AgentStatusOffer        = "offer"
	AgentStatusContracted   = "contracted"
	AgentStatusDeclined     = "declined"
)

// AgentProfile is a recruiting-pipeline record for a prospective agent.
type AgentProfile struct {
	gorm.Model
	Name          string   `gorm:"not null" json:"name"`
	Email         string   `gorm:"not null;index" json:"email"`
	Phone         string   `json:"phone"`
	LicenseNumber string   `json:"license_number"`
	LicenseState  string   `json:"license_state"`
	Division      Division `gorm:"index" json:"division"`
	Status        string   `gorm:"default:'candidate';index" json:"status"`
	Source        string   `json:"source"` // referral, inbound, sourced
	ResumeURL     *string  `json:"resume_url,omitempty"`
	Notes         string   `gorm:"type:text" json:"notes"`

	Interviews []Interview `gorm:"foreignKey:AgentProfileID" json:"interviews,omitempty"`
	Offers     []Offer     `gorm:"foreignKey:AgentProfileID" json:"offers,omitempty"`
}

// Interview is a scheduled conversation with a candidate.
type Interview struct {
	gorm.Model
	AgentProfileID uint `gorm:"not null;index" json:"agent_profile_id"`
	InterviewerID  uint `gorm:"not null;index" json:"interviewer_id"`

	ScheduledAt time.Time `gorm:"not null" json:"scheduled_at"`
	Round       int       `gorm:"default:1" json:"round"`
	Outcome     string    `gorm:"default:'pending'" json:"outcome"` // pending, advance, reject
	Feedback    string    `gorm:"type:text" json:"feedback"`

	AgentProfile AgentProfile `json:"-"`
	Interviewer  User         `json:"interviewer,omitempty"`
}

// Offer records terms extended to a candidate.
type Offer struct {
	gorm.Model
	AgentProfileID uint `gorm:"not null;index" json:"agent_profile_id"`
	ExtendedBy     uint `gorm:"not null" json:"extended_by"`

	CommissionSplit float64    `gorm:"not null" json:"commission_split"` // agent share, 0-100
	DrawAmount      *float64   `json:"draw_amount,omitempty"`
	ExpiresAt       *time.Time `json:"expires_at,omitempty"`
	Status          string     `gorm:"default:'extended'" json:"status"` // extended, accepted, declined, expired

	AgentProfile AgentProfile `json:"-"`
}

// AgentContract is the signed agreement that closes the recruiting pipeline.
type AgentContract struct {
	gorm.Model
	AgentProfileID uint `gorm:"not null;uniqueIndex" json:"agent_profile_id"`
	OfferID        uint `gorm:"not null" json:"offer_id"`

	DocumentURL string    `gorm:"not null" json:"document_url"`
	SignedAt    time.Time `gorm:"not null" json:"signed_at"`
	StartDate   time.Time `gorm:"not null" json:"start_date"`

	AgentProfile AgentProfile `json:"-"`
	Offer        Offer        `json:"-"`
}
