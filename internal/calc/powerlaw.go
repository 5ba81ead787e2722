package calc

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Scaling classifies a power-law exponent
type Scaling string

const (
	ScalingSublinear   Scaling = "sublinear"   // economies of scale
	ScalingLinear      Scaling = "linear"
	ScalingSuperlinear Scaling = "superlinear" // provision outpaces size
)

// LinearBand is the half-width around 1 within which an exponent counts as linear
const LinearBand = 0.05

// PowerLaw is the fit of y = c·x^b on log-log axes
type PowerLaw struct {
	Exponent    float64 `json:"exponent"`
	Coefficient float64 `json:"coefficient"`
	RSquared    float64 `json:"r_squared"`
	N           int     `json:"n"`
	Scaling     Scaling `json:"scaling"`
}

// FitPowerLaw regresses log(y) on log(x) over pairs where both are positive
func FitPowerLaw(x, y []float64) (PowerLaw, bool) {
	if len(x) != len(y) {
		return PowerLaw{}, false
	}
	lx := make([]float64, 0, len(x))
	ly := make([]float64, 0, len(y))
	for i := range x {
		if x[i] <= 0 || y[i] <= 0 || !isFinite(x[i]) || !isFinite(y[i]) {
			continue
		}
		lx = append(lx, math.Log(x[i]))
		ly = append(ly, math.Log(y[i]))
	}
	if len(lx) < 3 {
		return PowerLaw{}, false
	}

	alpha, beta := stat.LinearRegression(lx, ly, nil, false)
	if math.IsNaN(beta) || math.IsInf(beta, 0) {
		return PowerLaw{}, false
	}
	r2 := stat.RSquared(lx, ly, nil, alpha, beta)
	if math.IsNaN(r2) {
		r2 = 0
	}

	scaling := ScalingLinear
	switch {
	case beta < 1-LinearBand:
		scaling = ScalingSublinear
	case beta > 1+LinearBand:
		scaling = ScalingSuperlinear
	}

	return PowerLaw{
		Exponent:    beta,
		Coefficient: math.Exp(alpha),
		RSquared:    r2,
		N:           len(lx),
		Scaling:     scaling,
	}, true
}
