package policy

import (
	"os"
	"sort"
	"strings"

	"gonarrative/internal/calc"
	"gonarrative/internal/errors"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// DefaultVersion identifies the built-in policy document
const DefaultVersion = "default-2024"

// DefaultAreaType is the benefit profile used when a row's area type is unknown
const DefaultAreaType = "default"

// Policy holds the appraisal parameters that turn gaps into money. These are
// versioned data: calculators receive them as arguments and never embed them.
type Policy struct {
	Version        string                         `yaml:"version" json:"version"`
	CurrencySymbol string                         `yaml:"currency_symbol" json:"currency_symbol"`
	Appraisal      calc.Appraisal                 `yaml:"appraisal" json:"appraisal"`   // benefit side (BCR)
	Investment     InvestmentPolicy               `yaml:"investment" json:"investment"` // cost side
	UnitCosts      map[string]float64             `yaml:"unit_costs" json:"unit_costs"`
	Benefits       map[string]calc.BenefitProfile `yaml:"benefits" json:"benefits"` // keyed by area type
}

// InvestmentPolicy fixes how capital costs are phased and discounted
type InvestmentPolicy struct {
	HorizonYears int     `yaml:"horizon_years" json:"horizon_years"`
	DiscountRate float64 `yaml:"discount_rate" json:"discount_rate"`
}

// Default returns the built-in policy: 3.5% social discount rate over a
// 30-year appraisal, capital phased over 10 years.
func Default() Policy {
	return Policy{
		Version:        DefaultVersion,
		CurrencySymbol: "£",
		Appraisal: calc.Appraisal{
			PeriodYears:  30,
			DiscountRate: 0.035,
		},
		Investment: InvestmentPolicy{
			HorizonYears: 10,
			DiscountRate: 0.035,
		},
		UnitCosts: map[string]float64{
			"bus_stop":      25000,
			"bus_service":   180000,
			"ev_charger":    40000,
			"cycle_parking": 1500,
		},
		Benefits: map[string]calc.BenefitProfile{
			"urban": {
				AnnualTripsPerPerson:          180,
				MinutesSavedAtFullImprovement: 6,
				ValueOfTimePerHour:            11.5,
				WiderBenefitUplift:            0.3,
			},
			"rural": {
				AnnualTripsPerPerson:          120,
				MinutesSavedAtFullImprovement: 12,
				ValueOfTimePerHour:            11.5,
				WiderBenefitUplift:            0.3,
			},
			DefaultAreaType: {
				AnnualTripsPerPerson:          150,
				MinutesSavedAtFullImprovement: 8,
				ValueOfTimePerHour:            11.5,
				WiderBenefitUplift:            0.3,
			},
		},
	}
}

// Load reads a YAML policy document. Keys absent from the file keep their
// default values; maps are merged entry by entry.
func Load(path string) (Policy, error) {
	p := Default()
	if path == "" {
		return p, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, errors.WithCode(errors.CodeConfigInvalid, eris.Wrapf(err, "policy: read %s", path))
	}
	return Parse(data)
}

// Parse decodes a YAML policy document on top of the defaults. Keys present
// in the document win even when they are zero.
func Parse(data []byte) (Policy, error) {
	p := Default()
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Policy{}, errors.WithCode(errors.CodeConfigInvalid, eris.Wrap(err, "policy: decode yaml"))
	}
	p.UnitCosts = lowerKeys(p.UnitCosts)
	p.Benefits = lowerKeys(p.Benefits)

	if err := p.Validate(); err != nil {
		return Policy{}, err
	}
	return p, nil
}

// lowerKeys folds keys to lower case; a document's spelling beats the default's
func lowerKeys[V any](m map[string]V) map[string]V {
	out := make(map[string]V, len(m))
	for k, v := range m {
		if k == strings.ToLower(k) {
			if _, taken := out[k]; taken {
				continue
			}
		}
		out[strings.ToLower(k)] = v
	}
	return out
}

// Validate ensures the policy is usable for appraisal
func (p Policy) Validate() error {
	if p.Appraisal.PeriodYears <= 0 {
		return errors.ConfigInvalid("policy: appraisal period must be positive")
	}
	if p.Appraisal.DiscountRate <= -1 || p.Investment.DiscountRate <= -1 {
		return errors.ConfigInvalid("policy: discount rate must exceed -100%")
	}
	if p.Investment.HorizonYears <= 0 {
		return errors.ConfigInvalid("policy: investment horizon must be positive")
	}
	for key, cost := range p.UnitCosts {
		if cost <= 0 {
			return errors.ConfigInvalid("policy: unit cost for " + key + " must be positive")
		}
	}
	if _, ok := p.Benefits[DefaultAreaType]; !ok {
		return errors.ConfigInvalid("policy: benefits must define a default area type")
	}
	return nil
}

// UnitCost returns the capital cost of one unit of provision
func (p Policy) UnitCost(key string) (float64, bool) {
	v, ok := p.UnitCosts[strings.ToLower(key)]
	return v, ok && v > 0
}

// BenefitFor returns the benefit profile for an area type, falling back to the default
func (p Policy) BenefitFor(areaType string) calc.BenefitProfile {
	key := strings.ToLower(strings.TrimSpace(areaType))
	if prof, ok := p.Benefits[key]; ok {
		prof.AreaType = key
		return prof
	}
	prof := p.Benefits[DefaultAreaType]
	prof.AreaType = DefaultAreaType
	return prof
}

// AreaTypes lists configured area types in sorted order
func (p Policy) AreaTypes() []string {
	out := make([]string, 0, len(p.Benefits))
	for k := range p.Benefits {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
