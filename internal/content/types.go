// Package content defines the platform content model (authors, items,
// replies) and the store interface the engine consumes. The SQLite
// implementation lives in store.go / queries.go.
package content

import (
	"context"
	"time"
)

// ItemKind distinguishes the two primary content tables.
type ItemKind string

const (
	// KindPost is a community discussion post.
	KindPost ItemKind = "post"

	// KindListing is a classified listing.
	KindListing ItemKind = "listing"
)

// Author is a platform account. Synthetic authors are the seed accounts
// this engine writes as; organic authors are real users and are only ever
// counted, never written.
//
// Region and Subregion are the account's home placement. The coverage
// balancer may override them per item - authorship identity and geographic
// placement are independent axes.
type Author struct {
	ID          string
	DisplayName string
	FirstName   string
	Region      string
	Subregion   string
	Synthetic   bool
	CreatedAt   time.Time
}

// Item is a stored post or listing.
//
// PriceCents is nil when the item has no price (free / not applicable).
// A nil price must never be coerced to zero downstream.
type Item struct {
	ID         string
	Kind       ItemKind
	AuthorID   string
	Region     string
	Subregion  string
	Category   string
	Title      string
	Body       string
	PriceCents *int64
	Flagged    bool
	FlagReason string
	Synthetic  bool
	CreatedAt  time.Time
}

// Reply is a stored reply attached to an item.
type Reply struct {
	ID         string
	ItemID     string
	AuthorID   string
	Body       string
	Flagged    bool
	FlagReason string
	Synthetic  bool
	CreatedAt  time.Time
}

// ItemRef is the slim projection used by the reply pass to pick targets.
type ItemRef struct {
	ID        string
	AuthorID  string
	CreatedAt time.Time
}

// CountFilter selects items for counting.
type CountFilter struct {
	Kind             ItemKind
	CreatedAfter     time.Time
	ExcludeSynthetic bool
}

// AuthorFilter selects authors for listing.
type AuthorFilter struct {
	Synthetic bool
	Limit     int
}

// RecentFilter selects recently created items for the reply pass.
type RecentFilter struct {
	Kind         ItemKind
	CreatedAfter time.Time
	Limit        int
}

// InsertResult reports a batched insert. Inserted counts confirmed rows;
// Errors holds the per-row failures that were dropped.
type InsertResult struct {
	Inserted int
	Errors   []error
}

// Store is the content-store surface the engine consumes.
type Store interface {
	// CountItems counts items matching the filter. With ExcludeSynthetic
	// set it measures organic volume for the admission controller.
	CountItems(ctx context.Context, f CountFilter) (int, error)

	// ListAuthors lists accounts by synthetic flag, ordered by id.
	ListAuthors(ctx context.Context, f AuthorFilter) ([]Author, error)

	// InsertItems inserts a batch. A single failing row is recorded in the
	// result and skipped; it never fails the batch.
	InsertItems(ctx context.Context, items []Item) (InsertResult, error)

	// InsertReplies inserts a batch of replies with the same per-row
	// failure policy as InsertItems.
	InsertReplies(ctx context.Context, replies []Reply) (InsertResult, error)

	// ListRecentItems returns reply-pass candidates, newest first.
	ListRecentItems(ctx context.Context, f RecentFilter) ([]ItemRef, error)

	// CountSyntheticByRegion returns per-region synthetic item counts since
	// the given time. Used to seed the coverage balancer between runs.
	CountSyntheticByRegion(ctx context.Context, kind ItemKind, since time.Time) (map[string]int, error)

	// CountSyntheticByCategory is the category-axis analog of
	// CountSyntheticByRegion.
	CountSyntheticByCategory(ctx context.Context, kind ItemKind, since time.Time) (map[string]int, error)
}
