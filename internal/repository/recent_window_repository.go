package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cybershaman666/jobshaman.cz-sub002/internal/database"
	"github.com/cybershaman666/jobshaman.cz-sub002/internal/normalize"
)

// WindowQuery narrows the recency window server-side by the cheapest
// predicates only; everything expensive is re-applied in-process by the
// strict fallback.
type WindowQuery struct {
	Limit            int
	Countries        []string
	ExcludeCountries []string
	Languages        []string
	CityLike         string
	PostedAfter      *time.Time
}

type RecentWindowRepository interface {
	// RecentLegal returns at most q.Limit of the most recent legal rows.
	// The second value reports whether the source held more rows than the
	// window, which keeps hasMore honest even when the window is full.
	RecentLegal(ctx context.Context, q WindowQuery) ([]normalize.Record, bool, error)

	// TextSearch is the last-resort OR-substring query over a few text
	// columns.
	TextSearch(ctx context.Context, term string, limit int) ([]normalize.Record, error)
}

type PostgresRecentWindowRepository struct {
	db database.DB
}

func NewPostgresRecentWindowRepository(db database.DB) *PostgresRecentWindowRepository {
	return &PostgresRecentWindowRepository{db: db}
}

func (r *PostgresRecentWindowRepository) RecentLegal(ctx context.Context, q WindowQuery) ([]normalize.Record, bool, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}

	var (
		where = []string{"is_legal = TRUE"}
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if len(q.Countries) > 0 {
		where = append(where, fmt.Sprintf("country_code = ANY(%s)", arg(q.Countries)))
	}
	if len(q.ExcludeCountries) > 0 {
		where = append(where, fmt.Sprintf("NOT (country_code = ANY(%s))", arg(q.ExcludeCountries)))
	}
	if len(q.Languages) > 0 {
		where = append(where, fmt.Sprintf("language_code = ANY(%s)", arg(q.Languages)))
	}
	if city := strings.TrimSpace(q.CityLike); city != "" {
		where = append(where, fmt.Sprintf("location ILIKE %s", arg("%"+city+"%")))
	}
	if q.PostedAfter != nil {
		where = append(where, fmt.Sprintf("posted_at >= %s", arg(*q.PostedAfter)))
	}

	// Fetch one extra row to learn whether the window was exhausted.
	query := fmt.Sprintf(`SELECT %s FROM jobs WHERE %s ORDER BY posted_at DESC LIMIT %s`,
		recordColumns, strings.Join(where, " AND "), arg(limit+1))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()

	out := make([]normalize.Record, 0, limit)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, false, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}

	sourceHasMore := len(out) > limit
	if sourceHasMore {
		out = out[:limit]
	}
	return out, sourceHasMore, nil
}

func (r *PostgresRecentWindowRepository) TextSearch(ctx context.Context, term string, limit int) ([]normalize.Record, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 100
	}

	pattern := "%" + term + "%"
	query := fmt.Sprintf(`SELECT %s FROM jobs
		WHERE is_legal = TRUE
		  AND (title ILIKE $1 OR company ILIKE $1 OR location ILIKE $1 OR description ILIKE $1)
		ORDER BY posted_at DESC
		LIMIT $2`, recordColumns)

	rows, err := r.db.Query(ctx, query, pattern, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]normalize.Record, 0, limit)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
