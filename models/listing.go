package models

import (
	"gorm.io/gorm"
)

// Listing is a marketable property record. Investment-sales and
// commercial-leasing variants carry their pricing in the tagged Data
// payload, same as deals.
type Listing struct {
	gorm.Model
	PropertyAddress string   `gorm:"not null" json:"property_address"`
	Division        Division `gorm:"not null;index" json:"division"`
	Title           string   `gorm:"not null" json:"title"`
	Description     string   `gorm:"type:text" json:"description"`

	AskingPrice *float64 `json:"asking_price"`
	Status      string   `gorm:"default:'active'" json:"status"` // active, under_contract, closed, withdrawn

	Data DivisionData `gorm:"type:jsonb;serializer:json" json:"data"`

	// Marketing documents
	OfferingMemorandumURL *string `json:"offering_memorandum_url,omitempty"`
	FlyerURL              *string `json:"flyer_url,omitempty"`
	PhotoURLs             []string `gorm:"type:jsonb;serializer:json" json:"photo_urls"`

	// Relations
	ListingAgents []ListingAgent `gorm:"foreignKey:ListingID" json:"agents,omitempty"`
}

// ListingAgent joins listings to agents with a role attribute.
type ListingAgent struct {
	gorm.Model
	ListingID uint   `gorm:"not null;index" json:"listing_id"`
	UserID    uint   `gorm:"not null;index" json:"user_id"`
	Role      string `gorm:"default:'listing_agent'" json:"role"` // listing_agent, co_broker

	Listing Listing `json:"-"`
	User    User    `json:"user,omitempty"`
}
