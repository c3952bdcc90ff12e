package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDivisionIsValid(t *testing.T) {
	for _, d := range Divisions {
		assert.True(t, d.IsValid(), "division %s", d)
	}
	assert.False(t, Division("").IsValid())
	assert.False(t, Division("industrial").IsValid())
}

func TestDivisionDataValidate(t *testing.T) {
	capRate := 5.5
	isData := DivisionData{InvestmentSales: &InvestmentSalesData{CapRate: &capRate}}

	assert.NoError(t, isData.Validate(DivisionInvestmentSales))
	assert.Error(t, isData.Validate(DivisionResidential))
	assert.Error(t, isData.Validate(DivisionCommercialLeasing))

	// An empty payload fits any division.
	assert.NoError(t, DivisionData{}.Validate(DivisionCapitalAdvisory))

	// Two branches set is invalid everywhere.
	both := DivisionData{
		InvestmentSales: &InvestmentSalesData{},
		Residential:     &ResidentialData{},
	}
	assert.Error(t, both.Validate(DivisionInvestmentSales))
	assert.Error(t, both.Validate(DivisionResidential))
}

func TestDealCapRate(t *testing.T) {
	capRate := 6.1
	deal := Deal{Data: DivisionData{InvestmentSales: &InvestmentSalesData{CapRate: &capRate}}}
	if assert.NotNil(t, deal.CapRate()) {
		assert.Equal(t, capRate, *deal.CapRate())
	}

	assert.Nil(t, (&Deal{}).CapRate())
	leasing := Deal{Data: DivisionData{CommercialLeasing: &CommercialLeasingData{}}}
	assert.Nil(t, leasing.CapRate())
}
