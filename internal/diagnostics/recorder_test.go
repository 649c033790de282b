package diagnostics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cybershaman666/jobshaman.cz-sub002/internal/pkg/logging"
)

type fakeLimiter struct {
	keys map[string]bool
	err  error
}

func (f *fakeLimiter) SetIfNotExists(_ context.Context, key, _ string, _ time.Duration) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if f.keys[key] {
		return false, nil
	}
	f.keys[key] = true
	return true, nil
}

func TestRecorder_DeduplicatesViaLimiter(t *testing.T) {
	limiter := &fakeLimiter{keys: map[string]bool{}}
	r := NewRecorder(limiter, logging.NewNop(), time.Minute)

	if !r.allow(context.Background(), "relational_overloaded") {
		t.Fatalf("first signal should pass")
	}
	if r.allow(context.Background(), "relational_overloaded") {
		t.Fatalf("repeat signal inside window should be suppressed")
	}
	if !r.allow(context.Background(), "hybrid_unavailable") {
		t.Fatalf("different reason should pass")
	}
}

func TestRecorder_FallsBackToLocalMapWhenLimiterDown(t *testing.T) {
	limiter := &fakeLimiter{err: errors.New("redis down")}
	r := NewRecorder(limiter, logging.NewNop(), time.Minute)

	base := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return base }

	if !r.allow(context.Background(), "overloaded") {
		t.Fatalf("first signal should pass via local map")
	}
	if r.allow(context.Background(), "overloaded") {
		t.Fatalf("repeat inside window should be suppressed locally")
	}

	r.now = func() time.Time { return base.Add(2 * time.Minute) }
	if !r.allow(context.Background(), "overloaded") {
		t.Fatalf("signal after window should pass again")
	}
}

func TestRecorder_NilRecorderIsSafe(t *testing.T) {
	var r *Recorder
	r.Record(context.Background(), "anything")
}
