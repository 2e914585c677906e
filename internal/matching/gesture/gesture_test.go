// internal/matching/gesture/gesture_test.go
package gesture

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		delta    Delta
		expected Outcome
	}{
		{"strong right commits like", Delta{DX: 151}, OutcomeLike},
		{"strong left commits pass", Delta{DX: -151}, OutcomePass},
		{"strong up commits super like", Delta{DY: -101}, OutcomeSuperLike},
		{"exactly at horizontal threshold snaps back", Delta{DX: 150}, OutcomeNone},
		{"exactly at vertical threshold snaps back", Delta{DY: -100}, OutcomeNone},
		{"small drag snaps back", Delta{DX: 40, DY: -30}, OutcomeNone},
		{"no movement snaps back", Delta{}, OutcomeNone},
		{"downward drag never commits", Delta{DY: 500}, OutcomeNone},
		{"horizontal wins over vertical", Delta{DX: 200, DY: -200}, OutcomeLike},
		{"left wins over vertical", Delta{DX: -200, DY: -200}, OutcomePass},
		{"soft horizontal with hard vertical commits super like", Delta{DX: 120, DY: -150}, OutcomeSuperLike},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(tt.delta))
		})
	}
}

func TestHint(t *testing.T) {
	tests := []struct {
		name     string
		delta    Delta
		expected Indicator
	}{
		{"right past soft threshold", Delta{DX: 101}, IndicatorLike},
		{"left past soft threshold", Delta{DX: -101}, IndicatorPass},
		{"up past soft threshold", Delta{DY: -101}, IndicatorSuperLike},
		{"inside dead zone", Delta{DX: 99, DY: -99}, IndicatorNone},
		{"exactly at soft threshold", Delta{DX: 100}, IndicatorNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Hint(tt.delta))
		})
	}
}

func TestRotation(t *testing.T) {
	assert.InDelta(t, 7.5, Rotation(Delta{DX: 150}), 1e-9)
	assert.InDelta(t, -5.0, Rotation(Delta{DX: -100}), 1e-9)
	assert.InDelta(t, 0.0, Rotation(Delta{DY: -200}), 1e-9)
}

func TestOutcomeAction(t *testing.T) {
	for _, o := range []Outcome{OutcomeLike, OutcomePass, OutcomeSuperLike} {
		action, ok := o.Action()
		assert.True(t, ok)
		assert.Equal(t, string(o), action)
	}

	action, ok := OutcomeNone.Action()
	assert.False(t, ok)
	assert.Empty(t, action)
}
