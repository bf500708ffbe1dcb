package content

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
)

// timeLayout is the stored timestamp format. RFC3339 UTC strings sort
// lexicographically in time order, so range filters work as plain text
// comparisons.
const timeLayout = time.RFC3339

func encodeTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func decodeTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

// CountItems counts items matching the filter.
func (s *SQLStore) CountItems(ctx context.Context, f CountFilter) (int, error) {
	q := sq.Select("COUNT(*)").From("items")
	if f.Kind != "" {
		q = q.Where(sq.Eq{"kind": string(f.Kind)})
	}
	if !f.CreatedAfter.IsZero() {
		q = q.Where(sq.GtOrEq{"created_at": encodeTime(f.CreatedAfter)})
	}
	if f.ExcludeSynthetic {
		q = q.Where(sq.Eq{"synthetic": 0})
	}

	query, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count query: %w", err)
	}

	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count items: %w", err)
	}
	return n, nil
}

// ListAuthors lists accounts by synthetic flag, ordered by id for
// deterministic iteration.
func (s *SQLStore) ListAuthors(ctx context.Context, f AuthorFilter) ([]Author, error) {
	q := sq.Select("id", "display_name", "first_name", "region", "subregion", "synthetic", "created_at").
		From("authors").
		Where(sq.Eq{"synthetic": boolToInt(f.Synthetic)}).
		OrderBy("id")
	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build author query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list authors: %w", err)
	}
	defer rows.Close()

	var authors []Author
	for rows.Next() {
		var (
			a         Author
			synthetic int
			created   string
		)
		if err := rows.Scan(&a.ID, &a.DisplayName, &a.FirstName, &a.Region, &a.Subregion, &synthetic, &created); err != nil {
			return nil, fmt.Errorf("scan author: %w", err)
		}
		a.Synthetic = synthetic != 0
		if a.CreatedAt, err = decodeTime(created); err != nil {
			return nil, fmt.Errorf("decode author created_at: %w", err)
		}
		authors = append(authors, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("author rows: %w", err)
	}
	return authors, nil
}

// InsertAuthors inserts accounts, used by initial seeding.
func (s *SQLStore) InsertAuthors(ctx context.Context, authors []Author) (InsertResult, error) {
	var res InsertResult
	for _, a := range authors {
		query, args, err := sq.Insert("authors").
			Columns("id", "display_name", "first_name", "region", "subregion", "synthetic", "created_at").
			Values(a.ID, a.DisplayName, a.FirstName, a.Region, a.Subregion, boolToInt(a.Synthetic), encodeTime(a.CreatedAt)).
			ToSql()
		if err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("build author insert %s: %w", a.ID, err))
			continue
		}
		if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("insert author %s: %w", a.ID, err))
			continue
		}
		res.Inserted++
	}
	return res, nil
}

// InsertItems inserts a batch of items in one transaction. A failing row is
// recorded and skipped; the rest of the batch still commits.
func (s *SQLStore) InsertItems(ctx context.Context, items []Item) (InsertResult, error) {
	var res InsertResult
	if len(items) == 0 {
		return res, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return res, fmt.Errorf("begin insert tx: %w", err)
	}
	defer tx.Rollback()

	for _, it := range items {
		var price any
		if it.PriceCents != nil {
			price = *it.PriceCents
		}
		query, args, err := sq.Insert("items").
			Columns("id", "kind", "author_id", "region", "subregion", "category",
				"title", "body", "price_cents", "flagged", "flag_reason", "synthetic", "created_at").
			Values(it.ID, string(it.Kind), it.AuthorID, it.Region, it.Subregion, it.Category,
				it.Title, it.Body, price, boolToInt(it.Flagged), it.FlagReason, boolToInt(it.Synthetic), encodeTime(it.CreatedAt)).
			ToSql()
		if err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("build item insert %s: %w", it.ID, err))
			continue
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("insert item %s: %w", it.ID, err))
			continue
		}
		res.Inserted++
	}

	if err := tx.Commit(); err != nil {
		return InsertResult{}, fmt.Errorf("commit item batch: %w", err)
	}
	return res, nil
}

// InsertReplies inserts a batch of replies with the same per-row failure
// policy as InsertItems.
func (s *SQLStore) InsertReplies(ctx context.Context, replies []Reply) (InsertResult, error) {
	var res InsertResult
	if len(replies) == 0 {
		return res, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return res, fmt.Errorf("begin reply tx: %w", err)
	}
	defer tx.Rollback()

	for _, r := range replies {
		query, args, err := sq.Insert("replies").
			Columns("id", "item_id", "author_id", "body", "flagged", "flag_reason", "synthetic", "created_at").
			Values(r.ID, r.ItemID, r.AuthorID, r.Body, boolToInt(r.Flagged), r.FlagReason, boolToInt(r.Synthetic), encodeTime(r.CreatedAt)).
			ToSql()
		if err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("build reply insert %s: %w", r.ID, err))
			continue
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("insert reply %s: %w", r.ID, err))
			continue
		}
		res.Inserted++
	}

	if err := tx.Commit(); err != nil {
		return InsertResult{}, fmt.Errorf("commit reply batch: %w", err)
	}
	return res, nil
}

// ListRecentItems returns reply-pass candidates, newest first.
func (s *SQLStore) ListRecentItems(ctx context.Context, f RecentFilter) ([]ItemRef, error) {
	q := sq.Select("id", "author_id", "created_at").
		From("items").
		OrderBy("created_at DESC")
	if f.Kind != "" {
		q = q.Where(sq.Eq{"kind": string(f.Kind)})
	}
	if !f.CreatedAfter.IsZero() {
		q = q.Where(sq.GtOrEq{"created_at": encodeTime(f.CreatedAfter)})
	}
	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build recent query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list recent items: %w", err)
	}
	defer rows.Close()

	var refs []ItemRef
	for rows.Next() {
		var (
			ref     ItemRef
			created string
		)
		if err := rows.Scan(&ref.ID, &ref.AuthorID, &created); err != nil {
			return nil, fmt.Errorf("scan item ref: %w", err)
		}
		if ref.CreatedAt, err = decodeTime(created); err != nil {
			return nil, fmt.Errorf("decode item created_at: %w", err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("recent rows: %w", err)
	}
	return refs, nil
}

// CountSyntheticByRegion returns per-region synthetic item counts since the
// given time.
func (s *SQLStore) CountSyntheticByRegion(ctx context.Context, kind ItemKind, since time.Time) (map[string]int, error) {
	return s.countSyntheticGrouped(ctx, "region", kind, since)
}

// CountSyntheticByCategory returns per-category synthetic item counts since
// the given time.
func (s *SQLStore) CountSyntheticByCategory(ctx context.Context, kind ItemKind, since time.Time) (map[string]int, error) {
	return s.countSyntheticGrouped(ctx, "category", kind, since)
}

func (s *SQLStore) countSyntheticGrouped(ctx context.Context, column string, kind ItemKind, since time.Time) (map[string]int, error) {
	q := sq.Select(column, "COUNT(*)").
		From("items").
		Where(sq.Eq{"synthetic": 1}).
		GroupBy(column)
	if kind != "" {
		q = q.Where(sq.Eq{"kind": string(kind)})
	}
	if !since.IsZero() {
		q = q.Where(sq.GtOrEq{"created_at": encodeTime(since)})
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build grouped count: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("grouped count: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			key string
			n   int
		)
		if err := rows.Scan(&key, &n); err != nil {
			return nil, fmt.Errorf("scan grouped count: %w", err)
		}
		counts[key] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("grouped count rows: %w", err)
	}
	return counts, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
