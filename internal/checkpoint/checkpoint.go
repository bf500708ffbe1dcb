// Package checkpoint holds the engine's only durable mutable state: one
// checkpoint record per logical engine, keyed in BadgerDB.
package checkpoint

import "time"

// Checkpoint is the per-engine durable state record.
//
// ItemsCreatedToday and PerAuthorDailyCount are only valid for LogicalDate;
// any read on a different calendar day must reset them first (see
// RolloverIfStale). LastItemAt is advisory only.
//
// Version is an optimistic concurrency token. Save refuses to overwrite a
// record whose stored version differs, so overlapping invocations cannot
// both commit their counter deltas.
type Checkpoint struct {
	Engine              string         `json:"engine"`
	LogicalDate         Date           `json:"logical_date"`
	ItemsCreatedToday   int            `json:"items_created_today"`
	PerAuthorDailyCount map[string]int `json:"per_author_daily_count"`
	LastItemAt          time.Time      `json:"last_item_at"`
	RunStartDate        Date           `json:"run_start_date"`
	Enabled             bool           `json:"enabled"`
	Version             uint64         `json:"version"`
}

// New returns a first-run checkpoint for the given engine: all counters
// zero, enabled, with the growth ramp anchored at today.
func New(engine string, today Date) *Checkpoint {
	return &Checkpoint{
		Engine:              engine,
		LogicalDate:         today,
		PerAuthorDailyCount: make(map[string]int),
		RunStartDate:        today,
		Enabled:             true,
	}
}

// RolloverIfStale resets the daily counters when the stored logical date is
// not today. Returns true if a reset happened. Must run before any counter
// is read.
func (c *Checkpoint) RolloverIfStale(today Date) bool {
	if c.LogicalDate == today {
		return false
	}
	c.LogicalDate = today
	c.ItemsCreatedToday = 0
	c.PerAuthorDailyCount = make(map[string]int)
	return true
}

// AuthorCount returns today's item count for an author.
func (c *Checkpoint) AuthorCount(authorID string) int {
	return c.PerAuthorDailyCount[authorID]
}

// BumpAuthor increments today's item count for an author.
func (c *Checkpoint) BumpAuthor(authorID string) {
	if c.PerAuthorDailyCount == nil {
		c.PerAuthorDailyCount = make(map[string]int)
	}
	c.PerAuthorDailyCount[authorID]++
}
