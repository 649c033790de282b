package diagnostics

import (
	"context"
	"sync"
	"time"

	"github.com/cybershaman666/jobshaman.cz-sub002/internal/pkg/logging"
)

// Limiter is the dedup primitive: first SetIfNotExists per key inside the
// TTL wins. The redis cache satisfies it; tests inject their own.
type Limiter interface {
	SetIfNotExists(ctx context.Context, key string, value string, ttl time.Duration) (bool, error)
}

// Recorder emits a degradation signal at most once per reason per window,
// so a flapping backend does not flood telemetry with identical events.
type Recorder struct {
	limiter Limiter
	logger  *logging.Logger
	window  time.Duration
	now     func() time.Time

	mu   sync.Mutex
	seen map[string]time.Time
}

func NewRecorder(limiter Limiter, logger *logging.Logger, window time.Duration) *Recorder {
	if window <= 0 {
		window = 30 * time.Second
	}
	return &Recorder{
		limiter: limiter,
		logger:  logger,
		window:  window,
		now:     time.Now,
		seen:    make(map[string]time.Time),
	}
}

// Record notes that a tier degraded for the given reason. Throttling is
// shared across instances when a limiter is available and falls back to a
// per-process map when it is not.
func (r *Recorder) Record(ctx context.Context, reason string, keyvals ...any) {
	if r == nil {
		return
	}
	if !r.allow(ctx, reason) {
		return
	}
	args := append([]any{"reason", reason}, keyvals...)
	r.logger.Warn("search tier degraded", args...)
}

func (r *Recorder) allow(ctx context.Context, reason string) bool {
	if r.limiter != nil {
		ok, err := r.limiter.SetIfNotExists(ctx, "diag:degraded:"+reason, "1", r.window)
		if err == nil {
			return ok
		}
		// Limiter down, fall through to the local map.
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	if last, ok := r.seen[reason]; ok && now.Sub(last) < r.window {
		return false
	}
	r.seen[reason] = now
	return true
}
