package testkit

import (
	"gonarrative/domain/narrative"
)

// Kit bundles a generated dataset with the sections that describe it
type Kit struct {
	Dataset  narrative.Dataset
	Sections []narrative.MetricConfig
}

// NewKit generates the default area dataset and its sample sections
func NewKit() Kit {
	return NewKitWithConfig(DefaultAreaConfig())
}

// NewKitWithConfig generates a kit from a custom generator config
func NewKitWithConfig(cfg AreaGeneratorConfig) Kit {
	return Kit{
		Dataset:  NewAreaDataGenerator(cfg).Generate(),
		Sections: []narrative.MetricConfig{BusStopSection(), EVChargerSection()},
	}
}

// Section returns the sample section with the given id
func (k Kit) Section(id string) (narrative.MetricConfig, bool) {
	for _, s := range k.Sections {
		if s.ID == id {
			return s, true
		}
	}
	return narrative.MetricConfig{}, false
}

// BusStopSection exercises every default rule against the generated fields
func BusStopSection() narrative.MetricConfig {
	return narrative.MetricConfig{
		ID:               "bus_stops",
		Title:            "bus stop provision",
		GroupBy:          "region",
		GroupLabel:       "region",
		ValueField:       "stops_per_1000",
		NumeratorField:   "bus_stops",
		DenominatorField: "population",
		WeightField:      "population",
		WeightLabel:      "residents",
		Scale:            1000,
		Unit:             "stops per 1,000 residents",
		Sources:          []string{"NaPTAN bus stops", "ONS mid-year population estimates", "English Indices of Deprivation"},
		MinSampleSize:    20,
		MinGroups:        1,
		CorrelateWith:    "imd_score",
		CorrelateLabel:   "deprivation",
		SplitField:       "imd_score",
		SplitLabel:       "deprived",
		Target: &narrative.Target{
			Field:      "area_type",
			ByCategory: map[string]float64{"urban": 2.5, "rural": 3},
			Default:    floatPtr(2.5),
			Label:      "minimum",
		},
		AreaTypeField:  "area_type",
		UnitCostKey:    "bus_stop",
		HigherIsBetter: true,
	}
}

// EVChargerSection is a leaner section limited to distribution and comparison rules
func EVChargerSection() narrative.MetricConfig {
	return narrative.MetricConfig{
		ID:               "ev_chargers",
		Title:            "public EV chargers",
		GroupBy:          "region",
		GroupLabel:       "region",
		ValueField:       "chargers_per_1000",
		NumeratorField:   "ev_chargers",
		DenominatorField: "population",
		WeightLabel:      "residents",
		Scale:            1000,
		Unit:             "chargers per 1,000 residents",
		Sources:          []string{"National Chargepoint Registry"},
		Rules:            []string{"distribution_summary", "single_group_position", "extrema_comparison", "outlier_flag"},
		MinSampleSize:    10,
		HigherIsBetter:   true,
	}
}

func floatPtr(v float64) *float64 {
	return &v
}
