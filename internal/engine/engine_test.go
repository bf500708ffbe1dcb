package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cobblehill/lamplight/internal/admission"
	"github.com/cobblehill/lamplight/internal/balance"
	"github.com/cobblehill/lamplight/internal/checkpoint"
	"github.com/cobblehill/lamplight/internal/content"
	"github.com/cobblehill/lamplight/internal/moderation"
	"github.com/cobblehill/lamplight/internal/pacing"
	"github.com/cobblehill/lamplight/internal/synth"
	"github.com/cobblehill/lamplight/internal/testutil"
)

// fakeContentStore is an in-memory content.Store.
type fakeContentStore struct {
	organic    int
	organicErr error
	authors    []content.Author
	items      []content.Item
	replies    []content.Reply
	insertErr  error
}

func (f *fakeContentStore) CountItems(_ context.Context, _ content.CountFilter) (int, error) {
	return f.organic, f.organicErr
}

func (f *fakeContentStore) ListAuthors(_ context.Context, _ content.AuthorFilter) ([]content.Author, error) {
	return f.authors, nil
}

func (f *fakeContentStore) InsertItems(_ context.Context, items []content.Item) (content.InsertResult, error) {
	if f.insertErr != nil {
		return content.InsertResult{}, f.insertErr
	}
	f.items = append(f.items, items...)
	return content.InsertResult{Inserted: len(items)}, nil
}

func (f *fakeContentStore) InsertReplies(_ context.Context, replies []content.Reply) (content.InsertResult, error) {
	f.replies = append(f.replies, replies...)
	return content.InsertResult{Inserted: len(replies)}, nil
}

func (f *fakeContentStore) ListRecentItems(_ context.Context, _ content.RecentFilter) ([]content.ItemRef, error) {
	refs := make([]content.ItemRef, 0, len(f.items))
	for _, it := range f.items {
		refs = append(refs, content.ItemRef{ID: it.ID, AuthorID: it.AuthorID, CreatedAt: it.CreatedAt})
	}
	return refs, nil
}

func (f *fakeContentStore) CountSyntheticByRegion(_ context.Context, _ content.ItemKind, _ time.Time) (map[string]int, error) {
	return map[string]int{}, nil
}

func (f *fakeContentStore) CountSyntheticByCategory(_ context.Context, _ content.ItemKind, _ time.Time) (map[string]int, error) {
	return map[string]int{}, nil
}

// fakeCheckpoints keeps one checkpoint per engine in memory, mirroring the
// Badger store's load-or-init and rollover semantics.
type fakeCheckpoints struct {
	records map[string]*checkpoint.Checkpoint
	saves   int
}

func newFakeCheckpoints() *fakeCheckpoints {
	return &fakeCheckpoints{records: make(map[string]*checkpoint.Checkpoint)}
}

func (f *fakeCheckpoints) Load(_ context.Context, engine string, today checkpoint.Date) (*checkpoint.Checkpoint, error) {
	cp, ok := f.records[engine]
	if !ok {
		cp = checkpoint.New(engine, today)
		f.records[engine] = cp
	}
	cp.RolloverIfStale(today)
	copied := *cp
	return &copied, nil
}

func (f *fakeCheckpoints) Save(_ context.Context, cp *checkpoint.Checkpoint) error {
	f.saves++
	copied := *cp
	f.records[cp.Engine] = &copied
	return nil
}

func testConfig() Config {
	return Config{
		Pacing: pacing.Params{
			HourlyWeights: []float64{
				2, 1, 1, 1, 1, 1,
				2, 4, 5, 6, 6, 6,
				6, 6, 6, 6, 7, 8,
				10, 11, 9, 7, 5, 3,
			},
			SlicesPerDay: 96,
			WeeklyRamp:   []float64{1.0},
		},
		Admission: admission.Thresholds{Half: 20, Quarter: 35, Suppress: 50},
		Regions: []balance.Region{
			{Name: "brooklyn", Weight: 60, Subregions: []balance.Weighted{{Name: "park-slope", Weight: 100}}},
			{Name: "queens", Weight: 40},
		},
		Categories:      []balance.Weighted{{Name: "general", Weight: 70}, {Name: "free-stuff", Weight: 30}},
		Tolerance:       0.1,
		AuthorDailyCap:  3,
		AuthorLimit:     100,
		ReplyWindow:     48 * time.Hour,
		ReplyFetchLimit: 50,
	}
}

func testAuthors(n int) []content.Author {
	authors := make([]content.Author, n)
	regions := []string{"brooklyn", "queens"}
	names := []string{"Maya", "Theo", "Rosa", "Omar"}
	for i := range authors {
		authors[i] = content.Author{
			ID:        string(rune('a'+i)) + "-author",
			FirstName: names[i%len(names)],
			Region:    regions[i%len(regions)],
			Synthetic: true,
		}
	}
	return authors
}

func newTestEngine(t *testing.T, store *fakeContentStore, cps CheckpointStore, cfg Config, oracle moderation.Oracle, now time.Time) *Engine {
	t.Helper()
	corpus, err := synth.LoadCorpus()
	require.NoError(t, err)

	e, err := New("posts", content.KindPost, store, cps, oracle, corpus, time.UTC, cfg,
		WithClock(testutil.NewFixedClock(now)),
		WithRand(testutil.Rand(1)),
	)
	require.NoError(t, err)
	return e
}

// Saturday evening: hour 19 weight 11 over 4 slices/hour -> target 3.
var saturdayEvening = time.Date(2026, 3, 7, 19, 5, 0, 0, time.UTC)

func TestEngine_RunOnce_CreatesTargetItems(t *testing.T) {
	store := &fakeContentStore{authors: testAuthors(8)}
	cps := newFakeCheckpoints()
	e := newTestEngine(t, store, cps, testConfig(), moderation.NewListOracle(nil, nil), saturdayEvening)

	res, err := e.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, res.ItemsCreated)
	assert.Equal(t, "full", res.AdmissionLevel)
	assert.True(t, res.Enabled)
	assert.Len(t, store.items, 3)
	for _, it := range store.items {
		assert.True(t, it.Synthetic)
		assert.Equal(t, content.KindPost, it.Kind)
		assert.NotEmpty(t, it.ID)
		assert.NotEmpty(t, it.Title)
		assert.False(t, it.CreatedAt.After(saturdayEvening))
	}

	saved := cps.records["posts"]
	assert.Equal(t, res.ItemsCreated+res.RepliesCreated, saved.ItemsCreatedToday)
	assert.False(t, saved.LastItemAt.IsZero())
}

func TestEngine_RunOnce_ReplyPass(t *testing.T) {
	cfg := testConfig()
	cfg.ReplyPass = true

	store := &fakeContentStore{authors: testAuthors(8)}
	cps := newFakeCheckpoints()
	e := newTestEngine(t, store, cps, cfg, moderation.NewListOracle(nil, nil), saturdayEvening)

	res, err := e.RunOnce(context.Background())
	require.NoError(t, err)

	// 3 items -> floor(3/3) x rand(1,2) = 1 or 2 replies.
	require.Equal(t, 3, res.ItemsCreated)
	assert.GreaterOrEqual(t, res.RepliesCreated, 1)
	assert.LessOrEqual(t, res.RepliesCreated, 2)

	for _, r := range store.replies {
		assert.True(t, r.Synthetic)
		assert.NotEmpty(t, r.ItemID)

		var parent content.Item
		for _, it := range store.items {
			if it.ID == r.ItemID {
				parent = it
			}
		}
		require.NotEmpty(t, parent.ID, "reply must target a created item")
		assert.NotEqual(t, parent.AuthorID, r.AuthorID, "no self-replies")
		assert.False(t, r.CreatedAt.Before(parent.CreatedAt), "reply cannot predate its item")
	}
}

func TestEngine_RunOnce_DisabledEngine(t *testing.T) {
	store := &fakeContentStore{authors: testAuthors(4)}
	cps := newFakeCheckpoints()

	cp := checkpoint.New("posts", checkpoint.DateOf(saturdayEvening))
	cp.Enabled = false
	cps.records["posts"] = cp

	e := newTestEngine(t, store, cps, testConfig(), moderation.NewListOracle(nil, nil), saturdayEvening)

	res, err := e.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "disabled", res.AdmissionLevel)
	assert.Zero(t, res.ItemsCreated)
	assert.Empty(t, store.items)
	assert.Equal(t, 1, cps.saves, "checkpoint persists even on a disabled run")
}

func TestEngine_RunOnce_SuppressedByOrganicVolume(t *testing.T) {
	store := &fakeContentStore{authors: testAuthors(4), organic: 50}
	cps := newFakeCheckpoints()
	e := newTestEngine(t, store, cps, testConfig(), moderation.NewListOracle(nil, nil), saturdayEvening)

	res, err := e.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "suppressed", res.AdmissionLevel)
	assert.Zero(t, res.ItemsCreated)
	assert.Empty(t, store.items)
	assert.Equal(t, 1, cps.saves)
}

func TestEngine_RunOnce_OrganicCountFailureSuppresses(t *testing.T) {
	store := &fakeContentStore{authors: testAuthors(4), organicErr: errors.New("db locked")}
	cps := newFakeCheckpoints()
	e := newTestEngine(t, store, cps, testConfig(), moderation.NewListOracle(nil, nil), saturdayEvening)

	res, err := e.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "suppressed", res.AdmissionLevel)
	assert.Empty(t, store.items, "no trusted organic signal means no synthetic volume")
}

func TestEngine_RunOnce_HalfAdmission(t *testing.T) {
	store := &fakeContentStore{authors: testAuthors(8), organic: 25}
	cps := newFakeCheckpoints()
	e := newTestEngine(t, store, cps, testConfig(), moderation.NewListOracle(nil, nil), saturdayEvening)

	res, err := e.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "half", res.AdmissionLevel)
	assert.Equal(t, 1, res.ItemsCreated, "round(2.75 x 0.5)")
}

func TestEngine_RunOnce_BlockedContentNeverInserted(t *testing.T) {
	// Block a token every general template contains.
	oracle := moderation.NewListOracle([]string{"the"}, nil)
	store := &fakeContentStore{authors: testAuthors(8)}
	cps := newFakeCheckpoints()
	e := newTestEngine(t, store, cps, testConfig(), oracle, saturdayEvening)

	res, err := e.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res.ItemsCreated)
	assert.Equal(t, 3, res.SkippedForModeration)
	assert.Empty(t, store.items)
}

func TestEngine_RunOnce_FlaggedContentInsertedTagged(t *testing.T) {
	// Flag a token every template body contains; flagged-only items still
	// insert, carrying the reason.
	oracle := moderation.NewListOracle(nil, []string{"the", "you"})
	store := &fakeContentStore{authors: testAuthors(8)}
	cps := newFakeCheckpoints()
	e := newTestEngine(t, store, cps, testConfig(), oracle, saturdayEvening)

	res, err := e.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, res.ItemsCreated)
	assert.Zero(t, res.SkippedForModeration)
	for _, it := range store.items {
		assert.True(t, it.Flagged)
		assert.Contains(t, it.FlagReason, "flagged term")
	}
}

func TestEngine_RunOnce_NoAuthors(t *testing.T) {
	store := &fakeContentStore{}
	cps := newFakeCheckpoints()
	e := newTestEngine(t, store, cps, testConfig(), moderation.NewListOracle(nil, nil), saturdayEvening)

	res, err := e.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res.ItemsCreated)
	assert.Equal(t, 1, cps.saves)
}

func TestEngine_RunOnce_AuthorDailyCapLimitsOutput(t *testing.T) {
	cfg := testConfig()
	cfg.AuthorDailyCap = 2
	// A single author cannot serve a target of 3.
	store := &fakeContentStore{authors: testAuthors(1)}
	cps := newFakeCheckpoints()
	e := newTestEngine(t, store, cps, cfg, moderation.NewListOracle(nil, nil), saturdayEvening)

	res, err := e.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.ItemsCreated)
}

func TestEngine_RunOnce_AuthorCapSpansInvocations(t *testing.T) {
	cfg := testConfig()
	cfg.AuthorDailyCap = 2
	store := &fakeContentStore{authors: testAuthors(1)}
	cps := newFakeCheckpoints()
	e := newTestEngine(t, store, cps, cfg, moderation.NewListOracle(nil, nil), saturdayEvening)

	first, err := e.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, first.ItemsCreated)

	// Same day, next slice: the author is already at the cap.
	second, err := e.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, second.ItemsCreated)
}

func TestEngine_RunOnce_DayRolloverResetsCounters(t *testing.T) {
	cfg := testConfig()
	cfg.AuthorDailyCap = 2
	store := &fakeContentStore{authors: testAuthors(1)}
	cps := newFakeCheckpoints()

	clock := testutil.NewFixedClock(saturdayEvening)
	corpus, err := synth.LoadCorpus()
	require.NoError(t, err)
	e, err := New("posts", content.KindPost, store, cps, moderation.NewListOracle(nil, nil), corpus, time.UTC, cfg,
		WithClock(clock),
		WithRand(testutil.Rand(1)),
	)
	require.NoError(t, err)

	first, err := e.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, first.ItemsCreated)

	// Sunday 19:05: fresh logical day, counters reset, cap available again.
	clock.Advance(24 * time.Hour)
	second, err := e.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, second.ItemsCreated)
	assert.Equal(t, 2, cps.records["posts"].ItemsCreatedToday, "daily total restarted")
}

func TestEngine_RunOnce_InsertFailureReportsZero(t *testing.T) {
	store := &fakeContentStore{authors: testAuthors(8), insertErr: errors.New("disk full")}
	cps := newFakeCheckpoints()
	e := newTestEngine(t, store, cps, testConfig(), moderation.NewListOracle(nil, nil), saturdayEvening)

	res, err := e.RunOnce(context.Background())
	require.NoError(t, err, "insert failures shrink the run, they never fail it")
	assert.Zero(t, res.ItemsCreated)
	assert.Equal(t, 1, cps.saves)
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	corpus, err := synth.LoadCorpus()
	require.NoError(t, err)

	cfg := testConfig()
	cfg.Regions = nil
	_, err = New("posts", content.KindPost, &fakeContentStore{}, newFakeCheckpoints(),
		moderation.NewListOracle(nil, nil), corpus, time.UTC, cfg)
	assert.Error(t, err)
}
