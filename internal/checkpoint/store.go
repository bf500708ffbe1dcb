package checkpoint

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

// Key prefix for checkpoint records. One key per logical engine.
const keyPrefix = "checkpoint:"

// ErrNotFound is returned by Get when no checkpoint exists for the key.
var ErrNotFound = errors.New("checkpoint not found")

// ErrVersionConflict is returned by Save when the stored record's version
// differs from the caller's copy. The caller's counter deltas are stale; a
// concurrent invocation committed first.
var ErrVersionConflict = errors.New("checkpoint version conflict")

// Store persists checkpoints in BadgerDB.
type Store struct {
	db *badger.DB
}

// OpenStore opens (or creates) a Badger-backed checkpoint store at dir.
func OpenStore(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open checkpoint store: %w", err)
	}
	return &Store{db: db}, nil
}

// NewStore wraps an existing Badger handle.
func NewStore(db *badger.DB) *Store {
	return &Store{db: db}
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get fetches the checkpoint for an engine, or ErrNotFound.
func (s *Store) Get(ctx context.Context, engine string) (*Checkpoint, error) {
	var cp Checkpoint
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(engine))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get checkpoint: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &cp)
		})
	})
	if err != nil {
		return nil, err
	}
	return &cp, nil
}

// Load returns the engine's checkpoint ready for use on the given logical
// day: absent records are initialized and persisted (first-run), and stale
// records have their daily counters reset before being returned.
func (s *Store) Load(ctx context.Context, engine string, today Date) (*Checkpoint, error) {
	cp, err := s.Get(ctx, engine)
	if errors.Is(err, ErrNotFound) {
		cp = New(engine, today)
		if err := s.Save(ctx, cp); err != nil {
			return nil, fmt.Errorf("persist first-run checkpoint: %w", err)
		}
		return cp, nil
	}
	if err != nil {
		return nil, err
	}

	cp.RolloverIfStale(today)
	return cp, nil
}

// Save upserts the checkpoint with a compare-and-swap on Version. On
// success the stored and in-memory Version are incremented. Returns
// ErrVersionConflict when another writer committed since this copy was
// loaded; the caller's deltas must be dropped, not retried.
func (s *Store) Save(ctx context.Context, cp *Checkpoint) error {
	next := *cp
	next.Version = cp.Version + 1

	data, err := json.Marshal(&next)
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(key(cp.Engine))
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
			if cp.Version != 0 {
				return ErrVersionConflict
			}
		case err != nil:
			return fmt.Errorf("read current checkpoint: %w", err)
		default:
			var stored Checkpoint
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &stored)
			}); err != nil {
				return fmt.Errorf("decode current checkpoint: %w", err)
			}
			if stored.Version != cp.Version {
				return ErrVersionConflict
			}
		}
		return txn.Set(key(cp.Engine), data)
	})
	if err != nil {
		return err
	}

	cp.Version = next.Version
	return nil
}

func key(engine string) []byte {
	return []byte(keyPrefix + engine)
}
