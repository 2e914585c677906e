package parsedeckfilters

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"

	"edunet-workers/internal/common/logger"
)

func newTestHandler(t *testing.T) *Handler {
	return NewHandler(LoadConfig(), logger.NewZapAdapter(zaptest.NewLogger(t)))
}

func TestHandler_Execute_Defaults(t *testing.T) {
	handler := newTestHandler(t)

	tests := []struct {
		name  string
		input *Input
	}{
		{name: "nil filters", input: &Input{}},
		{name: "empty filters", input: &Input{RawFilters: map[string]interface{}{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := handler.execute(context.Background(), tt.input)

			assert.NoError(t, err)
			assert.Equal(t, []string{}, output.ParsedFilters.Regions)
			assert.Equal(t, []string{}, output.ParsedFilters.Provinces)
			assert.Equal(t, []string{}, output.ParsedFilters.Themes)
			assert.Equal(t, "", output.ParsedFilters.Keywords)
			assert.Equal(t, 50, output.ParsedFilters.DeckSize)
		})
	}
}

func TestHandler_Execute_ParsesFilters(t *testing.T) {
	handler := newTestHandler(t)

	input := &Input{
		RawFilters: map[string]interface{}{
			"regions":        []interface{}{"Lombardia", "Lazio"},
			"provinces":      "Milano, Roma",
			"instituteTypes": []interface{}{"liceo", "tecnico"},
			"themes":         []interface{}{"stem", " robotica ", "stem"},
			"keywords":       "  laboratorio di fisica  ",
			"deckSize":       float64(20),
		},
	}

	output, err := handler.execute(context.Background(), input)

	assert.NoError(t, err)
	assert.Equal(t, []string{"Lombardia", "Lazio"}, output.ParsedFilters.Regions)
	assert.Equal(t, []string{"Milano", "Roma"}, output.ParsedFilters.Provinces)
	assert.Equal(t, []string{"liceo", "tecnico"}, output.ParsedFilters.InstituteTypes)
	assert.Equal(t, []string{"stem", "robotica"}, output.ParsedFilters.Themes)
	assert.Equal(t, "laboratorio di fisica", output.ParsedFilters.Keywords)
	assert.Equal(t, 20, output.ParsedFilters.DeckSize)
}

func TestHandler_Execute_InvalidRegion(t *testing.T) {
	handler := newTestHandler(t)

	input := &Input{
		RawFilters: map[string]interface{}{
			"regions": []interface{}{"Lombardia", "Atlantide"},
		},
	}

	output, err := handler.execute(context.Background(), input)

	assert.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidFilterFormat)
	assert.Contains(t, err.Error(), "Atlantide")
	assert.Nil(t, output)
}

func TestHandler_Execute_InvalidInstituteType(t *testing.T) {
	handler := newTestHandler(t)

	input := &Input{
		RawFilters: map[string]interface{}{
			"instituteTypes": []interface{}{"accademia"},
		},
	}

	output, err := handler.execute(context.Background(), input)

	assert.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidFilterFormat)
	assert.Nil(t, output)
}

func TestHandler_Execute_DeckSizeBounds(t *testing.T) {
	handler := newTestHandler(t)

	tests := []struct {
		name     string
		raw      interface{}
		expected int
	}{
		{name: "above cap is clamped", raw: float64(200), expected: 50},
		{name: "zero keeps default", raw: float64(0), expected: 50},
		{name: "negative keeps default", raw: float64(-5), expected: 50},
		{name: "fractional keeps default", raw: 12.5, expected: 50},
		{name: "valid size", raw: float64(15), expected: 15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := &Input{
				RawFilters: map[string]interface{}{"deckSize": tt.raw},
			}

			output, err := handler.execute(context.Background(), input)

			assert.NoError(t, err)
			assert.Equal(t, tt.expected, output.ParsedFilters.DeckSize)
		})
	}
}

func TestHandler_Execute_RegionCaseInsensitive(t *testing.T) {
	handler := newTestHandler(t)

	input := &Input{
		RawFilters: map[string]interface{}{
			"regions": "lombardia,FRIULI-VENEZIA GIULIA",
		},
	}

	output, err := handler.execute(context.Background(), input)

	assert.NoError(t, err)
	assert.Len(t, output.ParsedFilters.Regions, 2)
}
