package cli

import (
	"fmt"
	"time"

	"github.com/cobblehill/lamplight/internal/checkpoint"
	"github.com/cobblehill/lamplight/internal/config"
	"github.com/cobblehill/lamplight/internal/content"
	"github.com/cobblehill/lamplight/internal/engine"
	"github.com/cobblehill/lamplight/internal/moderation"
	"github.com/cobblehill/lamplight/internal/synth"
)

// Engine names double as checkpoint keys; each logical engine owns its own
// record.
const (
	EnginePosts    = "posts"
	EngineListings = "listings"
)

// app holds the wired dependency graph shared by the commands.
type app struct {
	cfg         *config.Config
	loc         *time.Location
	store       *content.SQLStore
	checkpoints *checkpoint.Store
	corpus      *synth.Corpus
	engines     map[string]*engine.Engine
}

// buildApp opens the stores and constructs both engines.
func buildApp(cfg *config.Config) (*app, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	store, err := content.Open(cfg.ContentDB)
	if err != nil {
		return nil, fmt.Errorf("open content store: %w", err)
	}

	checkpoints, err := checkpoint.OpenStore(cfg.CheckpointDir)
	if err != nil {
		store.Close()
		return nil, err
	}

	corpus, err := synth.LoadCorpus()
	if err != nil {
		store.Close()
		checkpoints.Close()
		return nil, err
	}

	oracle := moderation.NewListOracle(cfg.Moderation.Blocklist, cfg.Moderation.Flaglist)

	a := &app{
		cfg:         cfg,
		loc:         loc,
		store:       store,
		checkpoints: checkpoints,
		corpus:      corpus,
		engines:     make(map[string]*engine.Engine),
	}

	posts, err := engine.New(EnginePosts, content.KindPost,
		store, checkpoints, oracle, corpus, loc, cfg.PostsEngine())
	if err != nil {
		a.Close()
		return nil, err
	}
	a.engines[EnginePosts] = posts

	listings, err := engine.New(EngineListings, content.KindListing,
		store, checkpoints, oracle, corpus, loc, cfg.ListingsEngine())
	if err != nil {
		a.Close()
		return nil, err
	}
	a.engines[EngineListings] = listings

	return a, nil
}

// Close releases both stores.
func (a *app) Close() {
	if a.store != nil {
		a.store.Close()
	}
	if a.checkpoints != nil {
		a.checkpoints.Close()
	}
}

// engineNames returns the engines selected by the positional argument:
// a specific engine, or both for "all"/empty.
func (a *app) engineNames(arg string) ([]string, error) {
	switch arg {
	case "", "all":
		return []string{EnginePosts, EngineListings}, nil
	case EnginePosts, EngineListings:
		return []string{arg}, nil
	default:
		return nil, fmt.Errorf("unknown engine %q: must be %s, %s, or all", arg, EnginePosts, EngineListings)
	}
}
