// Package balance spreads generated items across a weighted
// region x subregion space and a weighted category space, converging on
// the configured proportions rather than a uniform draw.
package balance

import (
	"math"
	"math/rand"
)

// Weighted is a named target weight. Weights are relative proportions, not
// percentages; only ratios between them matter.
type Weighted struct {
	Name   string
	Weight float64
}

// Region is a top-level geography with weighted subregions.
type Region struct {
	Name       string
	Weight     float64
	Subregions []Weighted
}

// DefaultTolerance is the served-ratio band within which entries count as
// equally under-served and are picked from uniformly.
const DefaultTolerance = 0.1

// Balancer tracks per-run coverage counters and selects the least-served
// placement for each item. Counters can be seeded with same-day historical
// counts so coverage converges across many invocations, not just within
// one.
//
// Not safe for concurrent use; each invocation builds its own Balancer.
type Balancer struct {
	regions    []Region
	categories []Weighted
	tolerance  float64
	rng        *rand.Rand

	regionCounts   map[string]int
	subCounts      map[string]map[string]int
	categoryCounts map[string]int
}

// New creates a balancer over the given weight tables. A non-positive
// tolerance falls back to DefaultTolerance.
func New(regions []Region, categories []Weighted, tolerance float64, rng *rand.Rand) *Balancer {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	b := &Balancer{
		regions:        regions,
		categories:     categories,
		tolerance:      tolerance,
		rng:            rng,
		regionCounts:   make(map[string]int),
		subCounts:      make(map[string]map[string]int),
		categoryCounts: make(map[string]int),
	}
	for _, r := range regions {
		b.subCounts[r.Name] = make(map[string]int)
	}
	return b
}

// SeedRegions pre-loads region counters, keyed by region name.
func (b *Balancer) SeedRegions(counts map[string]int) {
	for name, n := range counts {
		b.regionCounts[name] += n
	}
}

// SeedCategories pre-loads category counters, keyed by category name.
func (b *Balancer) SeedCategories(counts map[string]int) {
	for name, n := range counts {
		b.categoryCounts[name] += n
	}
}

// PickPlacement selects the most under-served region, then the most
// under-served subregion within it, and increments both counters.
func (b *Balancer) PickPlacement() (region, subregion string) {
	entries := make([]Weighted, len(b.regions))
	for i, r := range b.regions {
		entries[i] = Weighted{Name: r.Name, Weight: r.Weight}
	}
	region = b.pickMinRatio(entries, b.regionCounts)
	b.regionCounts[region]++

	for _, r := range b.regions {
		if r.Name != region {
			continue
		}
		if len(r.Subregions) == 0 {
			return region, ""
		}
		subregion = b.pickMinRatio(r.Subregions, b.subCounts[region])
		b.subCounts[region][subregion]++
		return region, subregion
	}
	return region, ""
}

// PickCategory selects the most under-served category and increments its
// counter.
func (b *Balancer) PickCategory() string {
	if len(b.categories) == 0 {
		return ""
	}
	cat := b.pickMinRatio(b.categories, b.categoryCounts)
	b.categoryCounts[cat]++
	return cat
}

// pickMinRatio implements the core selection: compute served_ratio =
// count/weight for every entry, collect the entries within the tolerance
// band of the minimum, and pick one uniformly at random.
func (b *Balancer) pickMinRatio(entries []Weighted, counts map[string]int) string {
	minRatio := math.Inf(1)
	for _, e := range entries {
		if e.Weight <= 0 {
			continue
		}
		ratio := float64(counts[e.Name]) / e.Weight
		if ratio < minRatio {
			minRatio = ratio
		}
	}

	var underServed []string
	for _, e := range entries {
		if e.Weight <= 0 {
			continue
		}
		ratio := float64(counts[e.Name]) / e.Weight
		if ratio <= minRatio+b.tolerance {
			underServed = append(underServed, e.Name)
		}
	}
	if len(underServed) == 0 {
		// All weights non-positive; treat as uniform.
		return entries[b.rng.Intn(len(entries))].Name
	}
	return underServed[b.rng.Intn(len(underServed))]
}
