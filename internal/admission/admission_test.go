package admission

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThresholds_Validate(t *testing.T) {
	require.NoError(t, Thresholds{Half: 20, Quarter: 35, Suppress: 50}.Validate())

	assert.Error(t, Thresholds{Half: 0, Quarter: 35, Suppress: 50}.Validate())
	assert.Error(t, Thresholds{Half: 35, Quarter: 20, Suppress: 50}.Validate())
	assert.Error(t, Thresholds{Half: 20, Quarter: 50, Suppress: 50}.Validate())
}

func TestEvaluate_PostsLadder(t *testing.T) {
	th := Thresholds{Half: 20, Quarter: 35, Suppress: 50}

	assert.Equal(t, LevelFull, Evaluate(th, 0))
	assert.Equal(t, LevelFull, Evaluate(th, 19))
	assert.Equal(t, LevelHalf, Evaluate(th, 20))
	assert.Equal(t, LevelHalf, Evaluate(th, 34))
	assert.Equal(t, LevelQuarter, Evaluate(th, 35))
	assert.Equal(t, LevelQuarter, Evaluate(th, 49))
	assert.Equal(t, LevelSuppressed, Evaluate(th, 50))
	assert.Equal(t, LevelSuppressed, Evaluate(th, 10000))
}

func TestEvaluate_ListingsLadder(t *testing.T) {
	th := Thresholds{Half: 100, Quarter: 200, Suppress: 300}

	// 150 organic listings sits between half and quarter.
	level := Evaluate(th, 150)
	assert.Equal(t, 0.5, level.Multiplier)
	assert.Equal(t, "half", level.Label)
}

func TestEvaluate_MultiplierNeverIncreasesWithVolume(t *testing.T) {
	th := Thresholds{Half: 20, Quarter: 35, Suppress: 50}

	prev := 1.0
	for organic := 0; organic <= 60; organic++ {
		m := Evaluate(th, organic).Multiplier
		assert.LessOrEqual(t, m, prev, "multiplier rose at organic=%d", organic)
		prev = m
	}
	assert.Equal(t, 0.0, prev)
}
