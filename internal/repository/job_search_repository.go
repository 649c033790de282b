package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cybershaman666/jobshaman.cz-sub002/internal/database"
	"github.com/cybershaman666/jobshaman.cz-sub002/internal/domain/job"
	"github.com/cybershaman666/jobshaman.cz-sub002/internal/normalize"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrOverloaded marks timeout-class or backend-resource failures. Callers
// distinguish it from a legitimate empty result: only ErrOverloaded makes
// the orchestrator degrade to the strict fallback.
var ErrOverloaded = errors.New("relational backend overloaded")

const maxPageSize = 200

// SearchFilter is the fully-resolved filter surface of the relational tier.
// Coordinates are already geocoded; the spatial clause is active only when
// both the coordinates and the radius are present.
type SearchFilter struct {
	Lat, Lon         *float64
	RadiusKm         float64
	MinSalary        int
	PostedAfter      *time.Time
	Benefits         []string
	ContractTypes    []string
	ExperienceLevels []string
	Countries        []string
	ExcludeCountries []string
	Languages        []string
	Term             string
	Sort             job.SortMode
	Page             int
	PageSize         int
}

type SearchPage struct {
	Rows       []normalize.Record
	TotalCount int
}

type JobSearchRepository interface {
	FilterSearch(ctx context.Context, f SearchFilter) (SearchPage, error)
}

type PostgresJobSearchRepository struct {
	db database.DB
}

func NewPostgresJobSearchRepository(db database.DB) *PostgresJobSearchRepository {
	return &PostgresJobSearchRepository{db: db}
}

// FilterSearch runs the single parametrized filter query. An exact
// total_count accompanies every row via a window aggregate.
func (r *PostgresJobSearchRepository) FilterSearch(ctx context.Context, f SearchFilter) (SearchPage, error) {
	query, args := buildFilterQuery(f)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return SearchPage{}, classifyQueryErr(err)
	}
	defer rows.Close()

	out := make([]normalize.Record, 0, f.PageSize)
	total := 0
	for rows.Next() {
		rec, rowTotal, err := scanRecordWithTotal(rows)
		if err != nil {
			return SearchPage{}, err
		}
		total = rowTotal
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return SearchPage{}, classifyQueryErr(err)
	}
	return SearchPage{Rows: out, TotalCount: total}, nil
}

// buildFilterQuery translates the filter into one SQL statement. Kept pure
// so the clause composition is testable without a database.
func buildFilterQuery(f SearchFilter) (string, []any) {
	var (
		where = []string{"is_legal = TRUE"}
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Lat != nil && f.Lon != nil && f.RadiusKm > 0 {
		lat, lon := arg(*f.Lat), arg(*f.Lon)
		where = append(where, fmt.Sprintf(
			`latitude IS NOT NULL AND longitude IS NOT NULL AND
			 (2 * 6371 * asin(sqrt(
				pow(sin(radians(latitude - %[1]s) / 2), 2) +
				cos(radians(%[1]s)) * cos(radians(latitude)) *
				pow(sin(radians(longitude - %[2]s) / 2), 2)
			 ))) <= %[3]s`, lat, lon, arg(f.RadiusKm)))
	}
	if f.MinSalary > 0 {
		where = append(where, fmt.Sprintf("GREATEST(COALESCE(salary_from, 0), COALESCE(salary_to, 0)) >= %s", arg(f.MinSalary)))
	}
	if f.PostedAfter != nil {
		where = append(where, fmt.Sprintf("posted_at >= %s", arg(*f.PostedAfter)))
	}
	if len(f.ContractTypes) > 0 {
		where = append(where, fmt.Sprintf("contract_type = ANY(%s)", arg(f.ContractTypes)))
	}
	if len(f.ExperienceLevels) > 0 {
		where = append(where, fmt.Sprintf("experience_level = ANY(%s)", arg(f.ExperienceLevels)))
	}
	if len(f.Countries) > 0 {
		where = append(where, fmt.Sprintf("country_code = ANY(%s)", arg(f.Countries)))
	}
	if len(f.ExcludeCountries) > 0 {
		where = append(where, fmt.Sprintf("NOT (country_code = ANY(%s))", arg(f.ExcludeCountries)))
	}
	if len(f.Languages) > 0 {
		where = append(where, fmt.Sprintf("language_code = ANY(%s)", arg(f.Languages)))
	}
	for _, b := range f.Benefits {
		p := arg("%" + b + "%")
		where = append(where, fmt.Sprintf(
			"(benefits ILIKE %[1]s OR tags_text ILIKE %[1]s OR title ILIKE %[1]s OR description ILIKE %[1]s)", p))
	}
	if term := strings.TrimSpace(f.Term); term != "" {
		p := arg("%" + term + "%")
		where = append(where, fmt.Sprintf(
			"(title ILIKE %[1]s OR company ILIKE %[1]s OR description ILIKE %[1]s)", p))
	}

	pageSize := f.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	page := f.Page
	if page < 0 {
		page = 0
	}

	q := fmt.Sprintf(`SELECT %s, COUNT(*) OVER() AS total_count
		FROM jobs
		WHERE %s
		ORDER BY %s
		LIMIT %s OFFSET %s`,
		recordColumns,
		strings.Join(where, " AND "),
		orderClause(f.Sort),
		arg(pageSize), arg(page*pageSize),
	)
	return q, args
}

func orderClause(sort job.SortMode) string {
	switch sort {
	case job.SortJHIDesc:
		return "jhi_score DESC NULLS LAST, posted_at DESC"
	case job.SortJHIAsc:
		return "jhi_score ASC NULLS LAST, posted_at DESC"
	case job.SortNewest:
		return "posted_at DESC"
	default:
		return "posted_at DESC, id ASC"
	}
}

// classifyQueryErr folds timeout-class and resource-exhaustion driver
// errors into ErrOverloaded; everything else passes through unchanged.
func classifyQueryErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) {
		return fmt.Errorf("%w: %v", ErrOverloaded, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		// query_canceled, insufficient_resources family, cannot_connect_now
		case "57014", "53000", "53100", "53200", "53300", "57P03":
			return fmt.Errorf("%w: %v", ErrOverloaded, err)
		}
	}
	return err
}
