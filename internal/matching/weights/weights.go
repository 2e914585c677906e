// internal/matching/weights/weights.go
package weights

import (
	"math"

	"edunet-workers/internal/models"
)

// learningRate scales every feedback adjustment.
const learningRate = 0.1

// Vector holds the relative importance of each affinity dimension.
// Entries sum to 100 after construction and after every Adjust call.
type Vector map[string]float64

// Defaults returns the platform-wide starting weights.
func Defaults() Vector {
	return Vector{
		models.DimensionContent:  30,
		models.DimensionBehavior: 25,
		models.DimensionInterest: 20,
		models.DimensionGeo:      10,
		models.DimensionNetwork:  10,
		models.DimensionSearch:   5,
	}
}

// Clone returns an independent copy.
func (v Vector) Clone() Vector {
	out := make(Vector, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}

// Sum returns the total of all entries.
func (v Vector) Sum() float64 {
	var s float64
	for _, val := range v {
		s += val
	}
	return s
}

// Normalize rescales the vector so its entries sum to exactly 100.
// A degenerate all-zero vector is reset to the defaults.
func (v Vector) Normalize() {
	sum := v.Sum()
	if sum <= 0 {
		for k, val := range Defaults() {
			v[k] = val
		}
		return
	}
	for k, val := range v {
		v[k] = val / sum * 100
	}
}

// Adjust applies feedback from one observed decision. When the
// predicted breakdown disagrees with the outcome, each dimension's
// weight moves proportionally to how far its sub-score sat from the
// neutral 50: dimensions that argued for the observed outcome gain,
// dimensions that argued against it lose. positive is true for a
// like or super-like; reciprocated is true once a confirmed mutual
// match exists, which doubles the signal. The vector is re-normalized
// before returning.
func (v Vector) Adjust(breakdown map[string]float64, positive, reciprocated bool) {
	signal := learningRate
	if reciprocated {
		signal *= 2
	}
	for dim, sub := range breakdown {
		if _, ok := v[dim]; !ok {
			continue
		}
		delta := math.Abs(sub-50) / 10 * signal
		agrees := sub >= 50
		if agrees == positive {
			v[dim] += delta
		} else {
			v[dim] -= delta
		}
		if v[dim] < 0 {
			v[dim] = 0
		}
	}
	v.Normalize()
}
