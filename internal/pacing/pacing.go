// Package pacing computes the per-invocation target item count from
// wall-clock time and engine age. It is pure: the only state it touches is
// the injected random source.
package pacing

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/cobblehill/lamplight/internal/checkpoint"
)

// Params configures the pacing model for one engine.
//
// Engines invoked on a sub-daily cadence (SlicesPerDay > 1) pace off the
// hourly weight table: each invocation contributes weight(hour) divided by
// the number of slices in that hour. Engines invoked daily
// (SlicesPerDay == 1) instead draw a base from the day-type band.
type Params struct {
	// HourlyWeights holds 24 non-negative weights. Their sum is the
	// full-rate daily total for slice-paced engines, and the arrival-time
	// distribution for all engines.
	HourlyWeights []float64

	// SlicesPerDay is how many invocations cover one day (96 for a
	// 15-minute cadence, 1 for daily).
	SlicesPerDay int

	// WeeklyRamp maps whole weeks since the run start date to a rate
	// multiplier. The last entry applies to all later weeks. A launch
	// typically ramps 0.3 -> 1.0 over four weeks.
	WeeklyRamp []float64

	// WeekendMultiplier scales Saturday/Sunday targets for slice-paced
	// engines. Zero means no weekend adjustment.
	WeekendMultiplier float64

	// WeekdayBand and WeekendBand are the [min,max] daily base ranges for
	// daily-paced engines. The base is drawn uniformly within the band.
	WeekdayBand [2]float64
	WeekendBand [2]float64

	// GrowthRate and GrowthCap define the capped linear growth multiplier
	// min(1 + days*rate, cap). Zero rate disables it.
	GrowthRate float64
	GrowthCap  float64

	// JitterMax is the half-width of the symmetric integer jitter applied
	// to non-zero targets.
	JitterMax int
}

// Validate checks structural constraints on the params.
func (p Params) Validate() error {
	if len(p.HourlyWeights) != 24 {
		return fmt.Errorf("hourly weights must have 24 entries, got %d", len(p.HourlyWeights))
	}
	for h, w := range p.HourlyWeights {
		if w < 0 {
			return fmt.Errorf("hourly weight for hour %d is negative: %v", h, w)
		}
	}
	if p.SlicesPerDay < 1 {
		return fmt.Errorf("slices per day must be >= 1, got %d", p.SlicesPerDay)
	}
	if p.SlicesPerDay > 1 && p.SlicesPerDay%24 != 0 {
		return fmt.Errorf("slices per day must be a multiple of 24, got %d", p.SlicesPerDay)
	}
	for i, r := range p.WeeklyRamp {
		if r < 0 || r > 1 {
			return fmt.Errorf("weekly ramp entry %d out of [0,1]: %v", i, r)
		}
	}
	if p.WeekdayBand[1] < p.WeekdayBand[0] || p.WeekendBand[1] < p.WeekendBand[0] {
		return fmt.Errorf("daily band max below min")
	}
	return nil
}

// DailyTotal returns the sum of the hourly weights: the full-rate daily
// item count for a slice-paced engine.
func (p Params) DailyTotal() float64 {
	var sum float64
	for _, w := range p.HourlyWeights {
		sum += w
	}
	return sum
}

// HourContribution returns the per-invocation base contribution for the
// given hour. Summed over every slice of every hour it equals DailyTotal.
func (p Params) HourContribution(hour int) float64 {
	slicesPerHour := float64(p.SlicesPerDay) / 24
	return p.HourlyWeights[hour] / slicesPerHour
}

// Ramp returns the weekly ramp multiplier for the given number of whole
// weeks since the run start. An empty ramp means full rate.
func (p Params) Ramp(weeks int) float64 {
	if len(p.WeeklyRamp) == 0 {
		return 1.0
	}
	if weeks >= len(p.WeeklyRamp) {
		return p.WeeklyRamp[len(p.WeeklyRamp)-1]
	}
	if weeks < 0 {
		weeks = 0
	}
	return p.WeeklyRamp[weeks]
}

// Growth returns the capped linear growth multiplier for the given engine
// age in days.
func (p Params) Growth(days int) float64 {
	if p.GrowthRate <= 0 {
		return 1.0
	}
	return math.Min(1.0+float64(days)*p.GrowthRate, p.GrowthCap)
}

// Target computes the integer item target for the current invocation.
//
// now must already be in the reference timezone. admission is the
// multiplier from the admission controller; zero fully suppresses the run
// and jitter never resurrects a suppressed or zero target.
func Target(p Params, now time.Time, runStart checkpoint.Date, admission float64, rng *rand.Rand) int {
	if admission <= 0 {
		return 0
	}

	days := checkpoint.DateOf(now).DaysSince(runStart)
	if days < 0 {
		days = 0
	}

	var base, dayMult float64
	weekend := isWeekend(now.Weekday())
	if p.SlicesPerDay > 1 {
		base = p.HourContribution(now.Hour())
		dayMult = 1.0
		if weekend && p.WeekendMultiplier > 0 {
			dayMult = p.WeekendMultiplier
		}
	} else {
		band := p.WeekdayBand
		if weekend {
			band = p.WeekendBand
		}
		base = band[0] + rng.Float64()*(band[1]-band[0])
		dayMult = 1.0
	}

	raw := base * p.Ramp(days/7) * dayMult * p.Growth(days) * admission
	n := int(math.Round(raw))
	if n <= 0 {
		return 0
	}

	if p.JitterMax > 0 {
		n += rng.Intn(2*p.JitterMax+1) - p.JitterMax
	}
	if n < 0 {
		return 0
	}
	return n
}

// SampleHour draws an hour of day from the weight table. Used to stagger
// item timestamps across the logical day instead of bursting at invocation
// time. A degenerate all-zero table falls back to uniform.
func SampleHour(weights []float64, rng *rand.Rand) int {
	var total float64
	for _, w := range weights {
		total += w
	}
	if total <= 0 || len(weights) == 0 {
		return rng.Intn(24)
	}

	x := rng.Float64() * total
	for h, w := range weights {
		x -= w
		if x < 0 {
			return h
		}
	}
	return len(weights) - 1
}

func isWeekend(d time.Weekday) bool {
	return d == time.Saturday || d == time.Sunday
}
