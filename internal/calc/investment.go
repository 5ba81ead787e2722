package calc

import "math"

// Investment is the cost of closing a gap, spread evenly over a horizon
type Investment struct {
	GapUnits     float64 `json:"gap_units"`
	UnitCost     float64 `json:"unit_cost"`
	NominalCost  float64 `json:"nominal_cost"`
	AnnualCost   float64 `json:"annual_cost"`
	PresentValue float64 `json:"present_value"`
	HorizonYears int     `json:"horizon_years"`
	DiscountRate float64 `json:"discount_rate"`
}

// PresentValue discounts a constant annual amount received at the end of
// years 1..years: Σ annual/(1+rate)^t.
func PresentValue(annual float64, years int, rate float64) float64 {
	if years <= 0 || rate <= -1 {
		return 0
	}
	pv := 0.0
	factor := 1.0
	for t := 1; t <= years; t++ {
		factor *= 1 + rate
		pv += annual / factor
	}
	return pv
}

// InvestmentRequirement projects the nominal and present-value cost of
// delivering gapUnits at unitCost, paid in equal instalments over horizonYears.
func InvestmentRequirement(gapUnits, unitCost float64, horizonYears int, discountRate float64) (Investment, bool) {
	if !isFinite(gapUnits) || !isFinite(unitCost) || !isFinite(discountRate) {
		return Investment{}, false
	}
	if gapUnits <= 0 || unitCost <= 0 || horizonYears <= 0 || discountRate <= -1 {
		return Investment{}, false
	}

	nominal := gapUnits * unitCost
	annual := nominal / float64(horizonYears)
	pv := PresentValue(annual, horizonYears, discountRate)
	if math.IsNaN(pv) || pv <= 0 {
		return Investment{}, false
	}

	return Investment{
		GapUnits:     gapUnits,
		UnitCost:     unitCost,
		NominalCost:  nominal,
		AnnualCost:   annual,
		PresentValue: pv,
		HorizonYears: horizonYears,
		DiscountRate: discountRate,
	}, true
}
