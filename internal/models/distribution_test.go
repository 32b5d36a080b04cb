package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistribution_Normalized(t *testing.T) {
	t.Run("rescales to unit sum", func(t *testing.T) {
		d := Distribution{"A": 2.0, "B": 2.0}.Normalized()
		assert.InDelta(t, 0.5, d["A"], 1e-9)
		assert.InDelta(t, 0.5, d["B"], 1e-9)
		assert.True(t, d.IsNormalized())
	})

	t.Run("already normalized stays intact", func(t *testing.T) {
		d := Distribution{"A": 0.3, "B": 0.7}
		assert.True(t, d.IsNormalized())
		n := d.Normalized()
		assert.InDelta(t, 0.3, n["A"], 1e-9)
		assert.InDelta(t, 0.7, n["B"], 1e-9)
	})

	t.Run("zero sum yields empty distribution", func(t *testing.T) {
		d := Distribution{"A": 0, "B": 0}.Normalized()
		assert.Empty(t, d)
	})
}

func TestDistribution_TopOption(t *testing.T) {
	options := []string{"A", "B", "C"}

	t.Run("picks the maximum", func(t *testing.T) {
		option, prob := Distribution{"A": 0.2, "B": 0.5, "C": 0.3}.TopOption(options)
		assert.Equal(t, "B", option)
		assert.InDelta(t, 0.5, prob, 1e-9)
	})

	t.Run("tie resolves to earlier option", func(t *testing.T) {
		option, _ := Distribution{"A": 0.4, "B": 0.4, "C": 0.2}.TopOption(options)
		assert.Equal(t, "A", option)
	})
}

func TestSurveyLLMResponse_OptionMap(t *testing.T) {
	raw := `{
		"relevant": true,
		"option": [
			{"option": "Yes", "probability": 0.8},
			{"option": "No", "probability": 0.2}
		],
		"reason": "mostly happy"
	}`

	var resp SurveyLLMResponse
	require.NoError(t, json.Unmarshal([]byte(raw), &resp))

	assert.True(t, resp.Relevant)
	dist := resp.OptionMap()
	assert.InDelta(t, 0.8, dist["Yes"], 1e-9)
	assert.InDelta(t, 0.2, dist["No"], 1e-9)
	assert.True(t, dist.IsNormalized())
}

func TestPersonaResponse_Valid(t *testing.T) {
	dist := Distribution{"Yes": 1.0}

	assert.True(t, PersonaResponse{Relevant: true, Distribution: dist}.Valid())
	assert.False(t, PersonaResponse{Relevant: false, Distribution: dist}.Valid())
	assert.False(t, PersonaResponse{Relevant: true, Distribution: dist, Error: "boom"}.Valid())
	assert.False(t, PersonaResponse{Relevant: true}.Valid())
}
