package moderation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOracle() *ListOracle {
	return NewListOracle(
		[]string{"counterfeit", "replica"},
		[]string{"cash", "urgent"},
	)
}

func TestListOracle_Classify(t *testing.T) {
	o := testOracle()
	ctx := context.Background()

	v, err := o.Classify(ctx, "Selling a gently used bookshelf")
	require.NoError(t, err)
	assert.False(t, v.Blocked)
	assert.False(t, v.Flagged)

	v, err = o.Classify(ctx, "Genuine COUNTERFEIT watches, great deal!")
	require.NoError(t, err)
	assert.True(t, v.Blocked, "blocklist matching is case-insensitive")

	v, err = o.Classify(ctx, "Cash only, pickup in Astoria.")
	require.NoError(t, err)
	assert.False(t, v.Blocked)
	assert.True(t, v.Flagged)
	assert.Contains(t, v.Reason, "cash")
}

func TestListOracle_Classify_TrimsPunctuation(t *testing.T) {
	o := testOracle()

	v, err := o.Classify(context.Background(), "Is this a replica?")
	require.NoError(t, err)
	assert.True(t, v.Blocked)
}

func TestGate_Review_CleanFields(t *testing.T) {
	g := NewGate(testOracle())

	d := g.Review(context.Background(), "Free couch", "Pickup this weekend near the park.")
	assert.False(t, d.Blocked)
	assert.False(t, d.Flagged)
}

func TestGate_Review_AnyBlockedFieldBlocksItem(t *testing.T) {
	g := NewGate(testOracle())

	d := g.Review(context.Background(), "Nice title", "counterfeit goods inside")
	assert.True(t, d.Blocked)
	assert.Contains(t, d.Reason, "counterfeit")
}

func TestGate_Review_FlagsCarryThrough(t *testing.T) {
	g := NewGate(testOracle())

	d := g.Review(context.Background(), "Moving sale", "urgent, cash preferred")
	assert.False(t, d.Blocked)
	assert.True(t, d.Flagged)
	assert.NotEmpty(t, d.Reason)
}

type failingOracle struct{}

func (failingOracle) Classify(context.Context, string) (Verdict, error) {
	return Verdict{}, errors.New("connection refused")
}

func TestGate_Review_FailsClosedOnOracleError(t *testing.T) {
	g := NewGate(failingOracle{})

	d := g.Review(context.Background(), "anything at all")
	assert.True(t, d.Blocked, "no verdict means no insert")
	assert.Contains(t, d.Reason, "oracle unavailable")
}

func TestNewListOracle_EmptyLists(t *testing.T) {
	g := NewGate(NewListOracle(nil, nil))

	d := g.Review(context.Background(), "whatever text")
	assert.False(t, d.Blocked)
	assert.False(t, d.Flagged)
}
