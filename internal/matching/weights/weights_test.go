// internal/matching/weights/weights_test.go
package weights

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"edunet-workers/internal/models"
)

func TestDefaultsSumTo100(t *testing.T) {
	assert.InDelta(t, 100.0, Defaults().Sum(), 1e-9)
}

func TestNormalize(t *testing.T) {
	t.Run("rescales arbitrary vector to 100", func(t *testing.T) {
		v := Vector{
			models.DimensionContent:  60,
			models.DimensionBehavior: 60,
			models.DimensionInterest: 30,
		}
		v.Normalize()
		assert.InDelta(t, 100.0, v.Sum(), 1e-9)
		assert.InDelta(t, 40.0, v[models.DimensionContent], 1e-9)
		assert.InDelta(t, 20.0, v[models.DimensionInterest], 1e-9)
	})

	t.Run("all-zero vector resets to defaults", func(t *testing.T) {
		v := Vector{
			models.DimensionContent:  0,
			models.DimensionBehavior: 0,
		}
		v.Normalize()
		assert.InDelta(t, 100.0, v.Sum(), 1e-9)
		assert.Equal(t, Defaults(), v)
	})
}

func TestAdjustKeepsSumAt100(t *testing.T) {
	breakdowns := []map[string]float64{
		{
			models.DimensionContent:  90,
			models.DimensionBehavior: 10,
			models.DimensionInterest: 50,
			models.DimensionGeo:      100,
			models.DimensionNetwork:  0,
			models.DimensionSearch:   72,
		},
		{
			models.DimensionContent: 10,
			models.DimensionGeo:     10,
		},
		{},
	}

	for _, positive := range []bool{true, false} {
		for _, reciprocated := range []bool{true, false} {
			for _, bd := range breakdowns {
				v := Defaults()
				v.Adjust(bd, positive, reciprocated)
				assert.InDelta(t, 100.0, v.Sum(), 1e-9)
			}
		}
	}
}

func TestAdjustDirection(t *testing.T) {
	bd := map[string]float64{
		models.DimensionContent: 90, // argued for the match
		models.DimensionGeo:     10, // argued against it
	}

	t.Run("positive decision rewards agreeing dimensions", func(t *testing.T) {
		v := Defaults()
		before := v.Clone()
		v.Adjust(bd, true, false)
		assert.Greater(t, v[models.DimensionContent], before[models.DimensionContent])
		assert.Less(t, v[models.DimensionGeo], before[models.DimensionGeo])
	})

	t.Run("negative decision rewards disagreeing dimensions", func(t *testing.T) {
		v := Defaults()
		before := v.Clone()
		v.Adjust(bd, false, false)
		assert.Less(t, v[models.DimensionContent], before[models.DimensionContent])
		assert.Greater(t, v[models.DimensionGeo], before[models.DimensionGeo])
	})

	t.Run("reciprocated feedback moves weights further", func(t *testing.T) {
		plain := Defaults()
		plain.Adjust(bd, true, false)
		confirmed := Defaults()
		confirmed.Adjust(bd, true, true)
		assert.Greater(t, confirmed[models.DimensionContent], plain[models.DimensionContent])
	})

	t.Run("neutral sub-score counts as agreement but barely moves", func(t *testing.T) {
		v := Defaults()
		v.Adjust(map[string]float64{models.DimensionSearch: 50}, true, false)
		assert.InDelta(t, 100.0, v.Sum(), 1e-9)
	})

	t.Run("unknown dimension is ignored", func(t *testing.T) {
		v := Defaults()
		v.Adjust(map[string]float64{"astrology": 95}, true, false)
		for dim, val := range Defaults() {
			assert.InDelta(t, val, v[dim], 1e-9)
		}
	})
}

func TestClone(t *testing.T) {
	v := Defaults()
	c := v.Clone()
	c[models.DimensionContent] = 99
	assert.InDelta(t, 30.0, v[models.DimensionContent], 1e-9)
}
