// Package admission implements the organic-volume kill switch: a threshold
// ladder that tapers synthetic volume as genuine activity grows.
package admission

import "fmt"

// Thresholds is the ladder for one engine, in organic items per logical
// day. Each field is the count at which the corresponding rate engages.
// Posts engines use lower absolute numbers than listings engines since
// posts are rarer.
type Thresholds struct {
	Half     int // >= Half    -> 0.5
	Quarter  int // >= Quarter -> 0.25
	Suppress int // >= Suppress -> 0.0
}

// Validate checks that the ladder is strictly ascending.
func (t Thresholds) Validate() error {
	if t.Half <= 0 || t.Quarter <= t.Half || t.Suppress <= t.Quarter {
		return fmt.Errorf("admission thresholds must ascend: half=%d quarter=%d suppress=%d",
			t.Half, t.Quarter, t.Suppress)
	}
	return nil
}

// Level is the admission decision: a rate multiplier and its label for
// run results and logs.
type Level struct {
	Multiplier float64
	Label      string
}

// Admission levels, highest threshold first.
var (
	LevelSuppressed = Level{Multiplier: 0.0, Label: "suppressed"}
	LevelQuarter    = Level{Multiplier: 0.25, Label: "quarter"}
	LevelHalf       = Level{Multiplier: 0.5, Label: "half"}
	LevelFull       = Level{Multiplier: 1.0, Label: "full"}
)

// Evaluate maps today's organic item count to an admission level,
// checking the highest threshold first. This is re-evaluated on every
// invocation; organic volume changes continuously and the result is never
// cached across runs.
func Evaluate(t Thresholds, organicToday int) Level {
	switch {
	case organicToday >= t.Suppress:
		return LevelSuppressed
	case organicToday >= t.Quarter:
		return LevelQuarter
	case organicToday >= t.Half:
		return LevelHalf
	default:
		return LevelFull
	}
}
