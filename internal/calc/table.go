package calc

import "gonarrative/domain/narrative"

// Table is the read-only row access the column calculators need
type Table interface {
	Len() int
	Row(i int) narrative.Record
}

// TargetFunc returns the target applicable to a row
type TargetFunc func(narrative.Record) (float64, bool)

// FixedTarget returns a TargetFunc that applies v to every row
func FixedTarget(v float64) TargetFunc {
	return func(narrative.Record) (float64, bool) { return v, true }
}
