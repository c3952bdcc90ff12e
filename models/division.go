package models

// Division identifies one of the brokerage's business lines. Deals,
// stages, listings and submissions are all scoped to exactly one
// division.
type Division string

const (
	DivisionInvestmentSales   Division = "investment-sales"
	DivisionCommercialLeasing Division = "commercial-leasing"
	DivisionResidential       Division = "residential"
	DivisionCapitalAdvisory   Division = "capital-advisory"
)

// Divisions lists every business line, in display order.
var Divisions = []Division{
	DivisionInvestmentSales,
	DivisionCommercialLeasing,
	DivisionResidential,
	DivisionCapitalAdvisory,
}

func (d Division) IsValid() bool {
	for _, known := range Divisions {
		if d == known {
			return true
		}
	}
	return false
}
