package hybrid

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cybershaman666/jobshaman.cz-sub002/internal/domain/job"
	"github.com/cybershaman666/jobshaman.cz-sub002/internal/normalize"
	"github.com/cybershaman666/jobshaman.cz-sub002/internal/pkg/logging"
)

func okResponse(t *testing.T, requestID string, n int) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		rows := make([]map[string]any, 0, n)
		for i := 0; i < n; i++ {
			rows = append(rows, map[string]any{
				"id":          requestID + "-job-" + string(rune('a'+i)),
				"title":       "Go Developer " + string(rune('a'+i)),
				"company":     "Acme",
				"location":    "Praha",
				"description": strings.Repeat("detailed description ", 12),
				"rank":        i + 1,
				"score":       0.9 - float64(i)/10,
			})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"request_id":    requestID,
			"model_version": "v2",
			"total_count":   n,
			"has_more":      false,
			"results":       rows,
		})
	}
}

func newTestClient(hosts []string, tracker *CooldownTracker) *Client {
	return NewClient(Config{Hosts: hosts, Cooldown: 120 * time.Second},
		tracker, normalize.New(logging.NewNop()), logging.NewNop())
}

func TestSearch_Success(t *testing.T) {
	srv := httptest.NewServer(okResponse(t, "req-1", 2))
	defer srv.Close()

	c := newTestClient([]string{srv.URL}, nil)
	res, err := c.Search(context.Background(), job.FilterCriteria{SearchTerm: "go", PageSize: 10})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(res.Jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(res.Jobs))
	}
	if res.Tier != job.TierHybrid {
		t.Fatalf("expected hybrid tier, got %q", res.Tier)
	}

	p := res.Jobs[0].Provenance
	if p.RequestID != "req-1" || p.ModelVersion != "v2" {
		t.Fatalf("missing ranking provenance: %+v", p)
	}
	if p.RankPosition == nil || *p.RankPosition != 1 {
		t.Fatalf("expected rank 1, got %+v", p.RankPosition)
	}
}

func TestSearch_NetworkFailureTripsCooldownAndFallsBack(t *testing.T) {
	dead := httptest.NewServer(http.NotFoundHandler())
	dead.Close() // connection refused from now on

	alive := httptest.NewServer(okResponse(t, "req-2", 1))
	defer alive.Close()

	tracker := NewCooldownTracker()
	c := newTestClient([]string{dead.URL, alive.URL}, tracker)

	res, err := c.Search(context.Background(), job.FilterCriteria{SearchTerm: "go"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(res.Jobs) != 1 {
		t.Fatalf("expected fallback host result, got %d jobs", len(res.Jobs))
	}
	if !tracker.Active(strings.TrimSuffix(dead.URL, "/")) {
		t.Fatalf("dead host should be in cooldown")
	}
	if tracker.Active(strings.TrimSuffix(alive.URL, "/")) {
		t.Fatalf("healthy host must not be in cooldown")
	}
}

func TestSearch_SkipsHostInsideCooldownWindow(t *testing.T) {
	var primaryHits int
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		primaryHits++
		_, _ = w.Write([]byte(`{"request_id":"req-primary","results":[]}`))
	}))
	defer primary.Close()

	secondary := httptest.NewServer(okResponse(t, "req-3", 1))
	defer secondary.Close()

	base := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	tracker := NewCooldownTracker()
	tracker.now = func() time.Time { return base }
	tracker.Trip(strings.TrimSuffix(primary.URL, "/"), 120*time.Second)

	// 60s later the 120s cooldown is still active: host A must be skipped
	// without a single attempt.
	tracker.now = func() time.Time { return base.Add(60 * time.Second) }

	c := newTestClient([]string{primary.URL, secondary.URL}, tracker)
	if _, err := c.Search(context.Background(), job.FilterCriteria{SearchTerm: "go"}); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if primaryHits != 0 {
		t.Fatalf("host in cooldown was attempted %d times", primaryHits)
	}

	// After the window expires the host is attempted again.
	tracker.now = func() time.Time { return base.Add(121 * time.Second) }
	if _, err := c.Search(context.Background(), job.FilterCriteria{SearchTerm: "go"}); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if primaryHits != 1 {
		t.Fatalf("expired cooldown host should be attempted once, got %d", primaryHits)
	}
}

func TestSearch_ServerErrorTriesNextWithoutCooldown(t *testing.T) {
	flaky := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer flaky.Close()

	alive := httptest.NewServer(okResponse(t, "req-4", 1))
	defer alive.Close()

	tracker := NewCooldownTracker()
	c := newTestClient([]string{flaky.URL, alive.URL}, tracker)

	res, err := c.Search(context.Background(), job.FilterCriteria{SearchTerm: "go"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(res.Jobs) != 1 {
		t.Fatalf("expected result from next host")
	}
	if tracker.Active(strings.TrimSuffix(flaky.URL, "/")) {
		t.Fatalf("5xx must not trip the cooldown")
	}
}

func TestSearch_BadRequestPropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	second := httptest.NewServer(okResponse(t, "req-5", 1))
	defer second.Close()

	c := newTestClient([]string{srv.URL, second.URL}, nil)
	_, err := c.Search(context.Background(), job.FilterCriteria{SearchTerm: "go"})
	if !errors.Is(err, ErrBadRequest) {
		t.Fatalf("expected ErrBadRequest, got %v", err)
	}
}

func TestSearch_AllHostsDownReturnsUnavailable(t *testing.T) {
	dead := httptest.NewServer(http.NotFoundHandler())
	dead.Close()

	c := newTestClient([]string{dead.URL}, nil)
	_, err := c.Search(context.Background(), job.FilterCriteria{SearchTerm: "go"})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestSearch_CancelledContextIsNotHostFailure(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Drain the body so the server notices the client disconnect and
		// cancels r.Context(); otherwise srv.Close() deadlocks in teardown.
		_, _ = io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	defer slow.Close()

	tracker := NewCooldownTracker()
	c := newTestClient([]string{slow.URL}, tracker)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	_, err := c.Search(ctx, job.FilterCriteria{SearchTerm: "go"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if tracker.Active(strings.TrimSuffix(slow.URL, "/")) {
		t.Fatalf("superseded request must not trip the cooldown")
	}
}
