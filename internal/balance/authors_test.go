package balance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cobblehill/lamplight/internal/content"
)

func testAuthors() []content.Author {
	return []content.Author{
		{ID: "a1", Region: "brooklyn"},
		{ID: "a2", Region: "brooklyn"},
		{ID: "a3", Region: "manhattan"},
		{ID: "a4", Region: "queens"},
	}
}

func noUse(string) int { return 0 }

func TestPickAuthor_PrefersLocalAuthors(t *testing.T) {
	rng := testRand()

	for i := 0; i < 50; i++ {
		a, ok := PickAuthor(testAuthors(), "brooklyn", noUse, 3, rng)
		require.True(t, ok)
		assert.Equal(t, "brooklyn", a.Region)
	}
}

func TestPickAuthor_FallsBackToAnyEligible(t *testing.T) {
	rng := testRand()

	// Nobody lives in the placement region; identity and geography are
	// independent, so any eligible author serves the slot.
	a, ok := PickAuthor(testAuthors(), "staten-island", noUse, 3, rng)
	require.True(t, ok)
	assert.NotEmpty(t, a.ID)
}

func TestPickAuthor_ExcludesCappedAuthors(t *testing.T) {
	rng := testRand()
	used := func(id string) int {
		if id == "a1" || id == "a2" {
			return 3
		}
		return 0
	}

	for i := 0; i < 50; i++ {
		a, ok := PickAuthor(testAuthors(), "brooklyn", used, 3, rng)
		require.True(t, ok)
		assert.NotContains(t, []string{"a1", "a2"}, a.ID)
	}
}

func TestPickAuthor_AllCapped(t *testing.T) {
	rng := testRand()
	used := func(string) int { return 3 }

	_, ok := PickAuthor(testAuthors(), "brooklyn", used, 3, rng)
	assert.False(t, ok)
}

func TestPickAuthor_ZeroCapDisablesLimit(t *testing.T) {
	rng := testRand()
	used := func(string) int { return 1000 }

	_, ok := PickAuthor(testAuthors(), "brooklyn", used, 0, rng)
	assert.True(t, ok)
}

func TestPickReplyAuthor_ExcludesItemAuthor(t *testing.T) {
	rng := testRand()

	for i := 0; i < 50; i++ {
		a, ok := PickReplyAuthor(testAuthors(), "a3", noUse, 3, rng)
		require.True(t, ok)
		assert.NotEqual(t, "a3", a.ID)
	}
}

func TestPickReplyAuthor_NoOneLeft(t *testing.T) {
	rng := testRand()
	authors := []content.Author{{ID: "solo", Region: "brooklyn"}}

	_, ok := PickReplyAuthor(authors, "solo", noUse, 3, rng)
	assert.False(t, ok)
}
