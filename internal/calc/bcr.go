package calc

import "math"

// BCRBand is the categorical value-for-money label of a benefit-cost ratio
type BCRBand string

const (
	BCRPoor     BCRBand = "poor"      // < 1.0
	BCRLow      BCRBand = "low"       // 1.0 – 1.5
	BCRMedium   BCRBand = "medium"    // 1.5 – 2.0
	BCRHigh     BCRBand = "high"      // 2.0 – 4.0
	BCRVeryHigh BCRBand = "very_high" // ≥ 4.0
)

// ClassifyBCR maps a ratio onto its band
func ClassifyBCR(ratio float64) BCRBand {
	switch {
	case ratio >= 4.0:
		return BCRVeryHigh
	case ratio >= 2.0:
		return BCRHigh
	case ratio >= 1.5:
		return BCRMedium
	case ratio >= 1.0:
		return BCRLow
	default:
		return BCRPoor
	}
}

// BenefitProfile holds the per-person monetisation values for one area type
type BenefitProfile struct {
	AreaType                      string  `json:"area_type" yaml:"-"`
	AnnualTripsPerPerson          float64 `json:"annual_trips_per_person" yaml:"annual_trips_per_person"`
	MinutesSavedAtFullImprovement float64 `json:"minutes_saved_at_full_improvement" yaml:"minutes_saved_at_full_improvement"`
	ValueOfTimePerHour            float64 `json:"value_of_time_per_hour" yaml:"value_of_time_per_hour"`
	WiderBenefitUplift            float64 `json:"wider_benefit_uplift" yaml:"wider_benefit_uplift"` // health, emissions etc. as a share of time benefits
}

// Appraisal fixes the period and social discount rate benefits are valued over
type Appraisal struct {
	PeriodYears  int     `json:"period_years" yaml:"period_years"`
	DiscountRate float64 `json:"discount_rate" yaml:"discount_rate"`
}

// BCR is a benefit-cost ratio with the components it was built from
type BCR struct {
	AreaType             string  `json:"area_type"`
	WeightBenefited      float64 `json:"weight_benefited"`
	ImprovementUnits     float64 `json:"improvement_units"`
	AnnualBenefit        float64 `json:"annual_benefit"`
	PresentValueBenefits float64 `json:"present_value_benefits"`
	InvestmentPV         float64 `json:"investment_pv"`
	Ratio                float64 `json:"ratio"`
	Band                 BCRBand `json:"band"`
	AppraisalYears       int     `json:"appraisal_years"`
	DiscountRate         float64 `json:"discount_rate"`
}

// BenefitCostRatio monetises travel-time savings for weightBenefited people at
// the given service improvement (a fraction, capped at 1), present-values them
// over the appraisal period and divides by investmentPV. Benefits grow strictly
// with weightBenefited and the ratio falls strictly with investmentPV.
func BenefitCostRatio(investmentPV, weightBenefited, improvement float64, profile BenefitProfile, appraisal Appraisal) (BCR, bool) {
	for _, v := range []float64{investmentPV, weightBenefited, improvement} {
		if !isFinite(v) {
			return BCR{}, false
		}
	}
	if investmentPV <= 0 || weightBenefited <= 0 || improvement <= 0 || appraisal.PeriodYears <= 0 {
		return BCR{}, false
	}
	improvement = math.Min(improvement, 1)

	hoursSavedPerTrip := profile.MinutesSavedAtFullImprovement * improvement / 60
	timeValue := weightBenefited * profile.AnnualTripsPerPerson * hoursSavedPerTrip * profile.ValueOfTimePerHour
	annual := timeValue * (1 + profile.WiderBenefitUplift)
	if annual <= 0 {
		return BCR{}, false
	}

	pvBenefits := PresentValue(annual, appraisal.PeriodYears, appraisal.DiscountRate)
	ratio := pvBenefits / investmentPV

	return BCR{
		AreaType:             profile.AreaType,
		WeightBenefited:      weightBenefited,
		ImprovementUnits:     improvement,
		AnnualBenefit:        annual,
		PresentValueBenefits: pvBenefits,
		InvestmentPV:         investmentPV,
		Ratio:                ratio,
		Band:                 ClassifyBCR(ratio),
		AppraisalYears:       appraisal.PeriodYears,
		DiscountRate:         appraisal.DiscountRate,
	}, true
}
