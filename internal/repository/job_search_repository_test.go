package repository

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func fptr(v float64) *float64 { return &v }

func TestBuildFilterQuery_SpatialRequiresAllInputs(t *testing.T) {
	tests := []struct {
		name    string
		f       SearchFilter
		spatial bool
	}{
		{"coords and radius", SearchFilter{Lat: fptr(50), Lon: fptr(14), RadiusKm: 25}, true},
		{"radius without coords", SearchFilter{RadiusKm: 25}, false},
		{"coords without radius", SearchFilter{Lat: fptr(50), Lon: fptr(14)}, false},
		{"missing longitude", SearchFilter{Lat: fptr(50), RadiusKm: 25}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, _ := buildFilterQuery(tt.f)
			got := strings.Contains(q, "radians(latitude")
			if got != tt.spatial {
				t.Fatalf("spatial clause present=%v, want %v\nquery: %s", got, tt.spatial, q)
			}
		})
	}
}

func TestBuildFilterQuery_PageSizeCapped(t *testing.T) {
	q, args := buildFilterQuery(SearchFilter{Page: 1, PageSize: 5000})
	if !strings.Contains(q, "LIMIT") {
		t.Fatalf("expected LIMIT clause: %s", q)
	}

	// Last two args are limit and offset.
	limit, ok := args[len(args)-2].(int)
	if !ok || limit != maxPageSize {
		t.Fatalf("limit arg = %v, want %d", args[len(args)-2], maxPageSize)
	}
	offset, ok := args[len(args)-1].(int)
	if !ok || offset != maxPageSize {
		t.Fatalf("offset arg = %v, want %d", args[len(args)-1], maxPageSize)
	}
}

func TestBuildFilterQuery_TotalCountAndLegality(t *testing.T) {
	q, _ := buildFilterQuery(SearchFilter{Term: "java"})
	if !strings.Contains(q, "COUNT(*) OVER() AS total_count") {
		t.Fatalf("expected exact total_count window aggregate: %s", q)
	}
	if !strings.Contains(q, "is_legal = TRUE") {
		t.Fatalf("expected legality predicate: %s", q)
	}
}

func TestBuildFilterQuery_SortModes(t *testing.T) {
	q, _ := buildFilterQuery(SearchFilter{Sort: "jhi_desc"})
	if !strings.Contains(q, "jhi_score DESC NULLS LAST") {
		t.Fatalf("unexpected jhi_desc order: %s", q)
	}
	q, _ = buildFilterQuery(SearchFilter{Sort: "newest"})
	if !strings.Contains(q, "ORDER BY posted_at DESC") {
		t.Fatalf("unexpected newest order: %s", q)
	}
}

func TestClassifyQueryErr(t *testing.T) {
	if err := classifyQueryErr(context.DeadlineExceeded); !errors.Is(err, ErrOverloaded) {
		t.Fatalf("deadline should classify as overload, got %v", err)
	}

	pgErr := &pgconn.PgError{Code: "57014"}
	if err := classifyQueryErr(pgErr); !errors.Is(err, ErrOverloaded) {
		t.Fatalf("query_canceled should classify as overload, got %v", err)
	}

	plain := errors.New("syntax error")
	if err := classifyQueryErr(plain); errors.Is(err, ErrOverloaded) {
		t.Fatalf("plain error must not classify as overload")
	}
	if err := classifyQueryErr(nil); err != nil {
		t.Fatalf("nil in, nil out, got %v", err)
	}
}
