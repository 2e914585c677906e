// internal/matching/gesture/gesture.go
package gesture

import "edunet-workers/internal/models"

// Thresholds in client pixels. Soft thresholds drive the directional
// indicator while the drag is live; hard thresholds decide the
// committed outcome on release. Horizontal wins over vertical.
const (
	SoftHorizontal = 100.0
	SoftVertical   = -100.0
	HardHorizontal = 150.0
	HardVertical   = -100.0

	rotationDivisor = 20.0
)

// Outcome of a completed drag. None means the card snaps back.
type Outcome string

const (
	OutcomeLike      Outcome = models.ActionLike
	OutcomePass      Outcome = models.ActionPass
	OutcomeSuperLike Outcome = models.ActionSuperLike
	OutcomeNone      Outcome = "none"
)

// Indicator shown while a drag is in progress.
type Indicator string

const (
	IndicatorLike      Indicator = "like"
	IndicatorPass      Indicator = "pass"
	IndicatorSuperLike Indicator = "super_like"
	IndicatorNone      Indicator = ""
)

// Delta is the displacement of a drag from its origin. Y grows
// downward, so upward drags have negative DY.
type Delta struct {
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
}

// Classify maps a completed drag to exactly one outcome.
func Classify(d Delta) Outcome {
	if d.DX > HardHorizontal {
		return OutcomeLike
	}
	if d.DX < -HardHorizontal {
		return OutcomePass
	}
	if d.DY < HardVertical {
		return OutcomeSuperLike
	}
	return OutcomeNone
}

// Hint returns the indicator to show for an in-progress drag.
func Hint(d Delta) Indicator {
	if d.DX > SoftHorizontal {
		return IndicatorLike
	}
	if d.DX < -SoftHorizontal {
		return IndicatorPass
	}
	if d.DY < SoftVertical {
		return IndicatorSuperLike
	}
	return IndicatorNone
}

// Rotation returns the card tilt in degrees for a live drag.
func Rotation(d Delta) float64 {
	return d.DX / rotationDivisor
}

// Action converts a committed outcome to its decision action name.
// The second return is false for a snap-back.
func (o Outcome) Action() (string, bool) {
	switch o {
	case OutcomeLike, OutcomePass, OutcomeSuperLike:
		return string(o), true
	default:
		return "", false
	}
}
