package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Deal priority levels
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// Stage is an ordered, named, colored pipeline step scoped to a division.
// DisplayOrder is unique among active stages within a division; the
// controller rejects writes that would violate that.
type Stage struct {
	gorm.Model
	Name         string   `gorm:"not null" json:"name"`
	Division     Division `gorm:"not null;index" json:"division"`
	Color        string   `gorm:"default:'#3B82F6'" json:"color"`
	DisplayOrder int      `gorm:"not null" json:"display_order"`
	IsActive     bool     `gorm:"default:true" json:"is_active"`

	Deals []Deal `gorm:"foreignKey:StageID" json:"deals,omitempty"`
}

// Deal represents a negotiable transaction moving through a division's
// pipeline. Division-specific numeric fields live in the tagged Data
// payload rather than as a pile of nullable columns.
type Deal struct {
	gorm.Model
	UserID    uint  `gorm:"not null;index" json:"user_id"`
	ContactID *uint `gorm:"index" json:"contact_id,omitempty"`

	PropertyAddress string   `gorm:"not null" json:"property_address"`
	Division        Division `gorm:"not null;index" json:"division"`
	StageID         uint     `gorm:"not null;index" json:"stage_id"`

	Value         *float64   `json:"value"`
	Probability   *int       `json:"probability"` // 0-100, nil when not yet estimated
	Priority      string     `gorm:"default:'medium'" json:"priority"`
	ExpectedClose *time.Time `json:"expected_close"`
	DealType      string     `json:"deal_type"`     // sale, lease, refinance, acquisition
	PropertyType  string     `json:"property_type"` // multifamily, office, retail, industrial, mixed-use
	Notes         string     `gorm:"type:text" json:"notes"`

	Data DivisionData `gorm:"type:jsonb;serializer:json" json:"data"`

	// Relations
	Stage      Stage          `json:"stage,omitempty"`
	Contact    *Contact       `json:"contact,omitempty"`
	User       User           `json:"-"`
	Activities []DealActivity `gorm:"foreignKey:DealID" json:"activities,omitempty"`
}

// DealActivity is one audit-trail row: a stage transition or a field edit.
type DealActivity struct {
	gorm.Model
	DealID uint `gorm:"not null;index" json:"deal_id"`
	UserID uint `gorm:"not null;index" json:"user_id"`

	ActivityType string    `gorm:"not null" json:"activity_type"` // created, stage_changed, updated, note_added
	FromStageID  *uint     `json:"from_stage_id,omitempty"`
	ToStageID    *uint     `json:"to_stage_id,omitempty"`
	Detail       string    `gorm:"type:text" json:"detail"`
	ActivityAt   time.Time `gorm:"not null" json:"activity_at"`

	Deal Deal `json:"-"`
	User User `json:"-"`
}

// DivisionData is the division-tagged payload carried by deals, listings
// and exclusive submissions. Exactly one branch matching the owning
// record's division may be set.
type DivisionData struct {
	InvestmentSales   *InvestmentSalesData   `json:"investment_sales,omitempty"`
	CommercialLeasing *CommercialLeasingData `json:"commercial_leasing,omitempty"`
	Residential       *ResidentialData       `json:"residential,omitempty"`
	CapitalAdvisory   *CapitalAdvisoryData   `json:"capital_advisory,omitempty"`
}

type InvestmentSalesData struct {
	CapRate      *float64 `json:"cap_rate,omitempty"`
	Units        *int     `json:"units,omitempty"`
	PricePerUnit *float64 `json:"price_per_unit,omitempty"`
	NOI          *float64 `json:"noi,omitempty"`
}

type CommercialLeasingData struct {
	RentPerSF    *float64 `json:"rent_per_sf,omitempty"`
	SquareFeet   *float64 `json:"square_feet,omitempty"`
	LeaseTermMos *int     `json:"lease_term_months,omitempty"`
}

type ResidentialData struct {
	Bedrooms    *int     `json:"bedrooms,omitempty"`
	Bathrooms   *float64 `json:"bathrooms,omitempty"`
	MonthlyRent *float64 `json:"monthly_rent,omitempty"`
}

type CapitalAdvisoryData struct {
	LoanAmount *float64 `json:"loan_amount,omitempty"`
	LTV        *float64 `json:"ltv,omitempty"`
	RateType   string   `json:"rate_type,omitempty"` // fixed, floating
}

// Validate checks that the payload carries data only for the given
// division. An entirely empty payload is valid for any division.
func (d DivisionData) Validate(division Division) error {
	set := map[Division]bool{
		DivisionInvestmentSales:   d.InvestmentSales != nil,
		DivisionCommercialLeasing: d.CommercialLeasing != nil,
		DivisionResidential:       d.Residential != nil,
		DivisionCapitalAdvisory:   d.CapitalAdvisory != nil,
	}
	for div, present := range set {
		if present && div != division {
			return fmt.Errorf("division data for %q is not valid on a %q record", div, division)
		}
	}
	return nil
}

// CapRate returns the deal's cap rate when it carries investment-sales
// data, nil otherwise. Used by the pipeline filter.
func (d *Deal) CapRate() *float64 {
	if d.Data.InvestmentSales == nil {
		return nil
	}
	return d.Data.InvestmentSales.CapRate
}
