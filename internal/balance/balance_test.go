package balance

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegions() []Region {
	return []Region{
		{Name: "brooklyn", Weight: 35, Subregions: []Weighted{
			{Name: "williamsburg", Weight: 50},
			{Name: "park-slope", Weight: 50},
		}},
		{Name: "manhattan", Weight: 30, Subregions: []Weighted{
			{Name: "harlem", Weight: 60},
			{Name: "chelsea", Weight: 40},
		}},
		{Name: "queens", Weight: 20, Subregions: []Weighted{
			{Name: "astoria", Weight: 100},
		}},
		{Name: "bronx", Weight: 10},
		{Name: "staten-island", Weight: 5},
	}
}

func testCategories() []Weighted {
	return []Weighted{
		{Name: "general", Weight: 50},
		{Name: "events", Weight: 30},
		{Name: "free-stuff", Weight: 20},
	}
}

func testRand() *rand.Rand {
	return rand.New(rand.NewSource(7))
}

func TestBalancer_PickPlacement_ConvergesToWeights(t *testing.T) {
	b := New(testRegions(), testCategories(), DefaultTolerance, testRand())

	const n = 1000
	counts := make(map[string]int)
	for i := 0; i < n; i++ {
		region, _ := b.PickPlacement()
		counts[region]++
	}

	want := map[string]float64{
		"brooklyn":      0.35,
		"manhattan":     0.30,
		"queens":        0.20,
		"bronx":         0.10,
		"staten-island": 0.05,
	}
	for name, share := range want {
		got := float64(counts[name]) / n
		assert.InDelta(t, share, got, 0.03, "region %s share off (want %.2f got %.3f)", name, share, got)
	}
}

func TestBalancer_PickPlacement_SubregionsConvergeWithinRegion(t *testing.T) {
	b := New(testRegions(), testCategories(), DefaultTolerance, testRand())

	subCounts := make(map[string]int)
	var manhattanTotal int
	for i := 0; i < 2000; i++ {
		region, sub := b.PickPlacement()
		if region == "manhattan" {
			manhattanTotal++
			subCounts[sub]++
		}
	}

	require.Greater(t, manhattanTotal, 300)
	assert.InDelta(t, 0.6, float64(subCounts["harlem"])/float64(manhattanTotal), 0.05)
	assert.InDelta(t, 0.4, float64(subCounts["chelsea"])/float64(manhattanTotal), 0.05)
}

func TestBalancer_PickPlacement_RegionWithoutSubregions(t *testing.T) {
	b := New([]Region{{Name: "bronx", Weight: 10}}, testCategories(), DefaultTolerance, testRand())

	region, sub := b.PickPlacement()
	assert.Equal(t, "bronx", region)
	assert.Empty(t, sub)
}

func TestBalancer_PickCategory_ConvergesToWeights(t *testing.T) {
	b := New(testRegions(), testCategories(), DefaultTolerance, testRand())

	const n = 1000
	counts := make(map[string]int)
	for i := 0; i < n; i++ {
		counts[b.PickCategory()]++
	}

	assert.InDelta(t, 0.5, float64(counts["general"])/n, 0.03)
	assert.InDelta(t, 0.3, float64(counts["events"])/n, 0.03)
	assert.InDelta(t, 0.2, float64(counts["free-stuff"])/n, 0.03)
}

func TestBalancer_SeedRegions_SteersTowardUnderServed(t *testing.T) {
	b := New(testRegions(), testCategories(), DefaultTolerance, testRand())

	// Brooklyn is already heavily served today; the next picks must favor
	// everything else until ratios even out.
	b.SeedRegions(map[string]int{"brooklyn": 100})

	counts := make(map[string]int)
	for i := 0; i < 50; i++ {
		region, _ := b.PickPlacement()
		counts[region]++
	}
	assert.Zero(t, counts["brooklyn"], "over-served region picked while others lag")
}

func TestBalancer_SeedCategories_SteersTowardUnderServed(t *testing.T) {
	b := New(testRegions(), testCategories(), DefaultTolerance, testRand())
	b.SeedCategories(map[string]int{"general": 100})

	for i := 0; i < 20; i++ {
		assert.NotEqual(t, "general", b.PickCategory())
	}
}

func TestBalancer_PickCategory_Empty(t *testing.T) {
	b := New(testRegions(), nil, DefaultTolerance, testRand())
	assert.Empty(t, b.PickCategory())
}
