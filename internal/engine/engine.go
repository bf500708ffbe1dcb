// Package engine orchestrates one synthesis invocation: load checkpoint,
// evaluate admission, compute the pacing target, generate and gate items,
// run the reply pass, and persist the checkpoint.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/cobblehill/lamplight/internal/admission"
	"github.com/cobblehill/lamplight/internal/balance"
	"github.com/cobblehill/lamplight/internal/checkpoint"
	"github.com/cobblehill/lamplight/internal/content"
	"github.com/cobblehill/lamplight/internal/moderation"
	"github.com/cobblehill/lamplight/internal/pacing"
	"github.com/cobblehill/lamplight/internal/synth"
)

// CheckpointStore is the durable-state surface the engine consumes.
// Implemented by checkpoint.Store (Badger) in production and by in-memory
// fakes in tests.
type CheckpointStore interface {
	Load(ctx context.Context, engine string, today checkpoint.Date) (*checkpoint.Checkpoint, error)
	Save(ctx context.Context, cp *checkpoint.Checkpoint) error
}

// Config holds the per-engine knobs. Two logical engines normally run side
// by side: a slice-paced posts engine (with reply pass) and a daily-paced
// listings engine; each has its own checkpoint key, pacing params, and
// admission thresholds.
type Config struct {
	Pacing     pacing.Params
	Admission  admission.Thresholds
	Regions    []balance.Region
	Categories []balance.Weighted

	// Tolerance is the balancer's served-ratio band.
	Tolerance float64

	// AuthorDailyCap is the per-author item limit per logical day.
	AuthorDailyCap int

	// AuthorLimit bounds how many synthetic accounts are loaded per run.
	AuthorLimit int

	// ReplyPass enables the secondary pass deriving replies from recently
	// created items.
	ReplyPass       bool
	ReplyWindow     time.Duration
	ReplyFetchLimit int
}

// Validate checks the config's structural constraints.
func (c Config) Validate() error {
	if err := c.Pacing.Validate(); err != nil {
		return fmt.Errorf("pacing: %w", err)
	}
	if err := c.Admission.Validate(); err != nil {
		return fmt.Errorf("admission: %w", err)
	}
	if len(c.Regions) == 0 {
		return fmt.Errorf("no regions configured")
	}
	if len(c.Categories) == 0 {
		return fmt.Errorf("no categories configured")
	}
	if c.AuthorDailyCap <= 0 {
		return fmt.Errorf("author daily cap must be positive, got %d", c.AuthorDailyCap)
	}
	return nil
}

// Result is the per-invocation outcome record returned to the caller.
type Result struct {
	ItemsCreated         int    `json:"items_created"`
	RepliesCreated       int    `json:"replies_created"`
	SkippedForModeration int    `json:"skipped_for_moderation"`
	AdmissionLevel       string `json:"admission_level"`
	DailyTotal           int    `json:"daily_total"`
	Enabled              bool   `json:"enabled"`
}

// Engine is one logical synthesis engine. A single invocation is entirely
// sequential; concurrency across invocations is mediated only by the
// checkpoint's version token.
type Engine struct {
	name  string
	kind  content.ItemKind
	cfg   Config
	store content.Store
	cps   CheckpointStore
	gate  *moderation.Gate
	synth *synth.Synthesizer
	clock Clock
	rng   *rand.Rand
	loc   *time.Location
	log   *slog.Logger
}

// Option configures optional engine dependencies.
type Option func(*Engine)

// WithClock overrides the wall clock (tests).
func WithClock(c Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithRand overrides the random source. The engine's default is seeded
// from the wall clock; tests inject a fixed seed for reproducible runs.
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) { e.rng = rng }
}

// WithLogger overrides the logger.
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// New creates an engine named name writing items of the given kind.
// loc is the fixed reference timezone for all logical-day math.
func New(
	name string,
	kind content.ItemKind,
	store content.Store,
	cps CheckpointStore,
	oracle moderation.Oracle,
	corpus *synth.Corpus,
	loc *time.Location,
	cfg Config,
	opts ...Option,
) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("engine %s: %w", name, err)
	}

	e := &Engine{
		name:  name,
		kind:  kind,
		cfg:   cfg,
		store: store,
		cps:   cps,
		gate:  moderation.NewGate(oracle),
		clock: SystemClock(),
		loc:   loc,
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewSource(e.clock.Now().UnixNano()))
	}
	e.synth = synth.New(corpus, cfg.Pacing.HourlyWeights, loc, e.rng)
	e.log = e.log.With("engine", name)

	return e, nil
}

// Name returns the engine's checkpoint key.
func (e *Engine) Name() string { return e.name }

// RunOnce performs a single invocation. It takes no caller parameters and
// is triggered on a fixed external cadence.
//
// Nothing inside generation is fatal: errors shrink the run's output, and
// the checkpoint save is unconditional at the end of the control flow so
// partial progress is never lost.
func (e *Engine) RunOnce(ctx context.Context) (Result, error) {
	now := e.clock.Now().In(e.loc)
	today := checkpoint.DateOf(now)

	cp, err := e.cps.Load(ctx, e.name, today)
	if err != nil {
		return Result{}, fmt.Errorf("load checkpoint: %w", err)
	}

	if !cp.Enabled {
		e.log.Info("engine disabled by operator, skipping run")
		res := Result{AdmissionLevel: "disabled", DailyTotal: cp.ItemsCreatedToday}
		e.saveCheckpoint(ctx, cp)
		return res, nil
	}

	level := e.admissionLevel(ctx, today)
	res := Result{AdmissionLevel: level.Label, Enabled: true}

	target := pacing.Target(e.cfg.Pacing, now, cp.RunStartDate, level.Multiplier, e.rng)
	e.log.Info("computed target",
		"target", target,
		"admission", level.Label,
		"logical_date", today.String(),
	)
	if target <= 0 {
		res.DailyTotal = cp.ItemsCreatedToday
		e.saveCheckpoint(ctx, cp)
		return res, nil
	}

	authors, err := e.store.ListAuthors(ctx, content.AuthorFilter{Synthetic: true, Limit: e.cfg.AuthorLimit})
	if err != nil || len(authors) == 0 {
		if err != nil {
			e.log.Error("listing synthetic authors failed", "error", err)
		} else {
			e.log.Warn("no synthetic authors available")
		}
		res.DailyTotal = cp.ItemsCreatedToday
		e.saveCheckpoint(ctx, cp)
		return res, nil
	}

	bal := e.newBalancer(ctx, today)
	batch := e.generate(ctx, cp, bal, authors, target, now, today, &res)

	if len(batch) > 0 {
		ir, err := e.store.InsertItems(ctx, batch)
		if err != nil {
			e.log.Error("item batch insert failed", "error", err)
		} else {
			res.ItemsCreated = ir.Inserted
			for _, insErr := range ir.Errors {
				// Single-row failures are dropped, never retried.
				e.log.Warn("item insert dropped", "error", insErr)
			}
		}
	}

	if e.cfg.ReplyPass && res.ItemsCreated > 0 {
		e.replyPass(ctx, cp, authors, now, today, &res)
	}

	cp.ItemsCreatedToday += res.ItemsCreated + res.RepliesCreated
	if res.ItemsCreated+res.RepliesCreated > 0 {
		cp.LastItemAt = now
	}
	res.DailyTotal = cp.ItemsCreatedToday

	e.saveCheckpoint(ctx, cp)

	e.log.Info("run complete",
		"items_created", res.ItemsCreated,
		"replies_created", res.RepliesCreated,
		"skipped_for_moderation", res.SkippedForModeration,
		"daily_total", res.DailyTotal,
	)
	return res, nil
}

// admissionLevel counts today's organic items and maps them through the
// threshold ladder. A failed count suppresses the run: without a trusted
// organic signal the engine must not add synthetic volume.
func (e *Engine) admissionLevel(ctx context.Context, today checkpoint.Date) admission.Level {
	organic, err := e.store.CountItems(ctx, content.CountFilter{
		Kind:             e.kind,
		CreatedAfter:     today.Time(e.loc),
		ExcludeSynthetic: true,
	})
	if err != nil {
		e.log.Error("organic count failed, suppressing run", "error", err)
		return admission.LevelSuppressed
	}
	return admission.Evaluate(e.cfg.Admission, organic)
}

// newBalancer builds the per-run coverage balancer, seeded with today's
// synthetic counts so coverage converges across invocations. Seeding is
// best-effort; a failed count just starts the run from zero.
func (e *Engine) newBalancer(ctx context.Context, today checkpoint.Date) *balance.Balancer {
	bal := balance.New(e.cfg.Regions, e.cfg.Categories, e.cfg.Tolerance, e.rng)

	since := today.Time(e.loc)
	if counts, err := e.store.CountSyntheticByRegion(ctx, e.kind, since); err == nil {
		bal.SeedRegions(counts)
	} else {
		e.log.Warn("region seed count failed", "error", err)
	}
	if counts, err := e.store.CountSyntheticByCategory(ctx, e.kind, since); err == nil {
		bal.SeedCategories(counts)
	} else {
		e.log.Warn("category seed count failed", "error", err)
	}
	return bal
}

// generate runs the selection/synthesis/moderation loop up to target
// items. Slots with no eligible author are abandoned, not retried; the
// loop stops early once authors are exhausted.
func (e *Engine) generate(
	ctx context.Context,
	cp *checkpoint.Checkpoint,
	bal *balance.Balancer,
	authors []content.Author,
	target int,
	now time.Time,
	today checkpoint.Date,
	res *Result,
) []content.Item {
	var batch []content.Item
	for i := 0; i < target; i++ {
		region, subregion := bal.PickPlacement()
		author, ok := balance.PickAuthor(authors, region, cp.AuthorCount, e.cfg.AuthorDailyCap, e.rng)
		if !ok {
			e.log.Warn("all authors at daily cap, abandoning remaining slots",
				"generated", len(batch),
				"target", target,
			)
			break
		}
		cp.BumpAuthor(author.ID)
		category := bal.PickCategory()

		cand, err := e.synth.Compose(synth.Selection{
			Author:    author,
			Region:    region,
			Subregion: subregion,
			Category:  category,
		}, today, now)
		if err != nil {
			e.log.Warn("compose failed", "category", category, "error", err)
			continue
		}

		dec := e.gate.Review(ctx, cand.Title, cand.Body)
		if dec.Blocked {
			res.SkippedForModeration++
			e.log.Info("candidate blocked by moderation", "reason", dec.Reason)
			continue
		}

		batch = append(batch, content.Item{
			ID:         uuid.NewString(),
			Kind:       e.kind,
			AuthorID:   cand.AuthorID,
			Region:     cand.Region,
			Subregion:  cand.Subregion,
			Category:   cand.Category,
			Title:      cand.Title,
			Body:       cand.Body,
			PriceCents: cand.PriceCents,
			Flagged:    dec.Flagged,
			FlagReason: dec.Reason,
			Synthetic:  true,
			CreatedAt:  cand.CreatedAt,
		})
	}
	return batch
}

// replyPass derives replies from recently created items: target count is
// floor(items/3) x rand(1,2), targets drawn from the recent window, reply
// author never the item's author, same moderation gate.
func (e *Engine) replyPass(
	ctx context.Context,
	cp *checkpoint.Checkpoint,
	authors []content.Author,
	now time.Time,
	today checkpoint.Date,
	res *Result,
) {
	target := res.ItemsCreated / 3 * (1 + e.rng.Intn(2))
	if target <= 0 {
		return
	}

	recent, err := e.store.ListRecentItems(ctx, content.RecentFilter{
		Kind:         e.kind,
		CreatedAfter: now.Add(-e.cfg.ReplyWindow),
		Limit:        e.cfg.ReplyFetchLimit,
	})
	if err != nil {
		e.log.Error("listing recent items failed, skipping reply pass", "error", err)
		return
	}
	if len(recent) == 0 {
		return
	}

	var batch []content.Reply
	for i := 0; i < target; i++ {
		ref := recent[e.rng.Intn(len(recent))]
		author, ok := balance.PickReplyAuthor(authors, ref.AuthorID, cp.AuthorCount, e.cfg.AuthorDailyCap, e.rng)
		if !ok {
			break
		}
		cp.BumpAuthor(author.ID)

		body, createdAt := e.synth.ComposeReply(author, today, now)
		if createdAt.Before(ref.CreatedAt) {
			// A reply cannot predate the item it answers.
			createdAt = ref.CreatedAt.Add(time.Duration(1+e.rng.Intn(120)) * time.Minute)
			if createdAt.After(now) {
				createdAt = now
			}
		}

		dec := e.gate.Review(ctx, body)
		if dec.Blocked {
			res.SkippedForModeration++
			continue
		}

		batch = append(batch, content.Reply{
			ID:         uuid.NewString(),
			ItemID:     ref.ID,
			AuthorID:   author.ID,
			Body:       body,
			Flagged:    dec.Flagged,
			FlagReason: dec.Reason,
			Synthetic:  true,
			CreatedAt:  createdAt,
		})
	}

	if len(batch) == 0 {
		return
	}
	ir, err := e.store.InsertReplies(ctx, batch)
	if err != nil {
		e.log.Error("reply batch insert failed", "error", err)
		return
	}
	res.RepliesCreated = ir.Inserted
	for _, insErr := range ir.Errors {
		e.log.Warn("reply insert dropped", "error", insErr)
	}
}

// saveCheckpoint persists the checkpoint, logging instead of failing the
// run. A version conflict means an overlapping invocation committed first;
// this run's counter deltas are dropped rather than retried, since its
// inserts already stand.
func (e *Engine) saveCheckpoint(ctx context.Context, cp *checkpoint.Checkpoint) {
	if err := e.cps.Save(ctx, cp); err != nil {
		if errors.Is(err, checkpoint.ErrVersionConflict) {
			e.log.Warn("checkpoint version conflict, dropping counter deltas",
				"version", cp.Version,
			)
			return
		}
		e.log.Error("checkpoint save failed", "error", err)
	}
}
