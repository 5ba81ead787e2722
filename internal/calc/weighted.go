package calc

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// WeightedAverage is an aggregate rebuilt from raw totals
type WeightedAverage struct {
	Value       float64 `json:"value"`       // Σnumerator / Σdenominator · scale
	Numerator   float64 `json:"numerator"`   // Σnumerator
	Denominator float64 `json:"denominator"` // Σdenominator
	Scale       float64 `json:"scale"`
	N           int     `json:"n"`
}

// PopulationWeightedAverage returns Σnumerator/Σdenominator·scale.
// It never averages per-group rates; ok is false when the totals cannot
// support a ratio (mismatched lengths, no rows, Σdenominator ≤ 0).
func PopulationWeightedAverage(numerators, denominators []float64, scale float64) (WeightedAverage, bool) {
	if len(numerators) != len(denominators) || len(numerators) == 0 {
		return WeightedAverage{}, false
	}
	if scale <= 0 {
		scale = 1
	}

	num := make([]float64, 0, len(numerators))
	den := make([]float64, 0, len(denominators))
	for i := range numerators {
		n, d := numerators[i], denominators[i]
		if math.IsNaN(n) || math.IsNaN(d) || math.IsInf(n, 0) || math.IsInf(d, 0) {
			continue
		}
		num = append(num, n)
		den = append(den, d)
	}
	if len(num) == 0 {
		return WeightedAverage{}, false
	}

	sumNum := floats.Sum(num)
	sumDen := floats.Sum(den)
	if sumDen <= 0 {
		return WeightedAverage{}, false
	}

	return WeightedAverage{
		Value:       sumNum / sumDen * scale,
		Numerator:   sumNum,
		Denominator: sumDen,
		Scale:       scale,
		N:           len(num),
	}, true
}

// WeightedRate rebuilds an aggregate from per-row rates and their weights:
// Σ(rate·weight)/Σweight. When rate = numerator/weight·scale this is exactly
// the raw-total ratio, so it is the fallback when only rates and populations
// are available. Numerator is reported in rate units (Σrate·weight).
func WeightedRate(rates, weights []float64) (WeightedAverage, bool) {
	if len(rates) != len(weights) || len(rates) == 0 {
		return WeightedAverage{}, false
	}
	products := make([]float64, 0, len(rates))
	ws := make([]float64, 0, len(weights))
	for i := range rates {
		r, w := rates[i], weights[i]
		if math.IsNaN(r) || math.IsNaN(w) || math.IsInf(r, 0) || math.IsInf(w, 0) || w < 0 {
			continue
		}
		products = append(products, r*w)
		ws = append(ws, w)
	}
	if len(ws) == 0 {
		return WeightedAverage{}, false
	}
	sumW := floats.Sum(ws)
	if sumW <= 0 {
		return WeightedAverage{}, false
	}
	sumP := floats.Sum(products)
	return WeightedAverage{
		Value:       sumP / sumW,
		Numerator:   sumP,
		Denominator: sumW,
		Scale:       1,
		N:           len(ws),
	}, true
}
