package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cybershaman666/jobshaman.cz-sub002/internal/domain/job"
	"github.com/cybershaman666/jobshaman.cz-sub002/internal/hybrid"
	"github.com/cybershaman666/jobshaman.cz-sub002/internal/normalize"
	"github.com/cybershaman666/jobshaman.cz-sub002/internal/pkg/logging"
	"github.com/cybershaman666/jobshaman.cz-sub002/internal/repository"
)

type SearchUsecase interface {
	Resolve(ctx context.Context, c job.FilterCriteria) (job.SearchResult, error)
}

type HybridSearcher interface {
	Search(ctx context.Context, c job.FilterCriteria) (job.SearchResult, error)
}

type Geocoder interface {
	Resolve(ctx context.Context, city string) (*job.Coordinates, error)
}

type StrictSearcher interface {
	Search(ctx context.Context, c job.FilterCriteria) job.SearchResult
}

type TextSearcher interface {
	Search(ctx context.Context, c job.FilterCriteria) (*job.SearchResult, error)
}

type DegradationRecorder interface {
	Record(ctx context.Context, reason string, keyvals ...any)
}

type SearchDeps struct {
	Repo       repository.JobSearchRepository
	Normalizer *normalize.Normalizer
	Hybrid     HybridSearcher
	Strict     StrictSearcher
	Text       TextSearcher
	Geocoder   Geocoder
	Cache      SearchCache
	Diags      DegradationRecorder
	Logger     *logging.Logger
}

type SearchConfig struct {
	HybridForced    bool
	MaxPageSize     int
	DefaultPageSize int
	CacheTTL        time.Duration
}

// Search is the top-level entry point. It walks the tier ladder in order
// and returns the best available page; ordinary backend failure degrades
// silently, only caller misuse surfaces as an error.
type Search struct {
	repo   repository.JobSearchRepository
	norm   *normalize.Normalizer
	hybrid HybridSearcher
	strict StrictSearcher
	text   TextSearcher
	geo    Geocoder
	cache  SearchCache
	diags  DegradationRecorder
	logger *logging.Logger

	hybridForced    bool
	maxPageSize     int
	defaultPageSize int
	cacheTTL        time.Duration
	now             func() time.Time

	mu       sync.Mutex
	inflight map[string]*sessionSlot
}

type sessionSlot struct {
	cancel context.CancelFunc
}

func NewSearchUsecase(deps SearchDeps, cfg SearchConfig) *Search {
	if cfg.MaxPageSize <= 0 {
		cfg.MaxPageSize = 200
	}
	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = 20
	}
	return &Search{
		repo:            deps.Repo,
		norm:            deps.Normalizer,
		hybrid:          deps.Hybrid,
		strict:          deps.Strict,
		text:            deps.Text,
		geo:             deps.Geocoder,
		cache:           deps.Cache,
		diags:           deps.Diags,
		logger:          deps.Logger,
		hybridForced:    cfg.HybridForced,
		maxPageSize:     cfg.MaxPageSize,
		defaultPageSize: cfg.DefaultPageSize,
		cacheTTL:        cfg.CacheTTL,
		now:             time.Now,
		inflight:        make(map[string]*sessionSlot),
	}
}

func (u *Search) Resolve(ctx context.Context, c job.FilterCriteria) (job.SearchResult, error) {
	if c.Page < 0 || c.PageSize < 0 {
		return job.SearchResult{}, ErrInvalidInput
	}
	if c.PageSize == 0 {
		c.PageSize = u.defaultPageSize
	}
	if c.PageSize > u.maxPageSize {
		c.PageSize = u.maxPageSize
	}

	ctx, done := u.trackSession(ctx, c.SessionKey)
	defer done()

	cacheKey := ""
	if u.cache != nil {
		cacheKey = SearchResultCacheKey(c)
		// Session-keyed requests want fresh data; they still write the
		// shared entry for sessionless readers.
		if c.SessionKey == "" {
			var cached job.SearchResult
			if hit, err := u.cache.GetJSON(ctx, cacheKey, &cached); err == nil && hit {
				u.logger.Debug("search cache hit", "key", cacheKey)
				return cached, nil
			}
		}
	}

	if u.geo != nil && c.Coords == nil && strings.TrimSpace(c.City) != "" {
		coords, err := u.geo.Resolve(ctx, c.City)
		if err != nil {
			u.degrade(ctx, "geocode_failed", "city", c.City, "error", err.Error())
		} else if coords != nil {
			c.Coords = coords
		}
	}

	if u.shouldAttemptHybrid(c) {
		res, err := u.hybrid.Search(ctx, c)
		switch {
		case err == nil:
			u.storeCache(ctx, cacheKey, res)
			return res, nil
		case errors.Is(err, hybrid.ErrBadRequest):
			return job.SearchResult{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		case ctx.Err() != nil:
			return job.SearchResult{}, ctx.Err()
		default:
			u.degrade(ctx, "hybrid_unavailable", "error", err.Error())
		}
	}

	page, err := u.repo.FilterSearch(ctx, toSearchFilter(c, u.now().UTC()))
	if err != nil {
		if ctx.Err() != nil {
			return job.SearchResult{}, ctx.Err()
		}
		reason := "relational_failed"
		if errors.Is(err, repository.ErrOverloaded) {
			reason = "relational_overloaded"
		}
		u.degrade(ctx, reason, "error", err.Error())
		return u.strict.Search(ctx, c), nil
	}

	jobs := u.norm.Normalize(page.Rows, normalize.Options{
		Tier:       job.TierRelational,
		UserCoords: c.Coords,
	})
	res := job.SearchResult{
		Jobs:       jobs,
		HasMore:    (c.Page+1)*c.PageSize < page.TotalCount,
		TotalCount: page.TotalCount,
		Tier:       job.TierRelational,
	}

	// An empty page with a free-text term gets one more chance before the
	// engine declares "no results".
	if len(res.Jobs) == 0 && strings.TrimSpace(c.SearchTerm) != "" && u.text != nil {
		txt, terr := u.text.Search(ctx, c)
		switch {
		case terr != nil:
			u.degrade(ctx, "text_fallback_failed", "error", terr.Error())
		case txt != nil:
			u.degrade(ctx, "text_fallback_served", "term", c.SearchTerm)
			return *txt, nil
		}
	}

	u.storeCache(ctx, cacheKey, res)
	return res, nil
}

func (u *Search) shouldAttemptHybrid(c job.FilterCriteria) bool {
	if u.hybrid == nil {
		return false
	}
	return u.hybridForced || c.HasIntent()
}

// trackSession cancels the previous in-flight resolve of the same logical
// session, so a retyped query can never lose the race to its stale
// predecessor.
func (u *Search) trackSession(ctx context.Context, key string) (context.Context, func()) {
	if key == "" {
		return ctx, func() {}
	}

	ctx, cancel := context.WithCancel(ctx)
	slot := &sessionSlot{cancel: cancel}

	u.mu.Lock()
	if prev, ok := u.inflight[key]; ok {
		prev.cancel()
	}
	u.inflight[key] = slot
	u.mu.Unlock()

	return ctx, func() {
		cancel()
		u.mu.Lock()
		if u.inflight[key] == slot {
			delete(u.inflight, key)
		}
		u.mu.Unlock()
	}
}

// storeCache skips degraded pages: they reflect a transient backend state
// and would pin approximate counts past the outage.
func (u *Search) storeCache(ctx context.Context, key string, res job.SearchResult) {
	if u.cache == nil || key == "" || res.Degraded {
		return
	}
	if err := u.cache.SetJSON(ctx, key, res, u.cacheTTL); err == nil {
		u.logger.Debug("search cache set", "key", key)
	}
}

func (u *Search) degrade(ctx context.Context, reason string, keyvals ...any) {
	if u.diags == nil {
		return
	}
	u.diags.Record(ctx, reason, keyvals...)
}

func toSearchFilter(c job.FilterCriteria, now time.Time) repository.SearchFilter {
	f := repository.SearchFilter{
		RadiusKm:         c.RadiusKm,
		MinSalary:        c.MinSalary,
		Benefits:         c.Benefits,
		Countries:        c.Countries,
		ExcludeCountries: c.ExcludeCountries,
		Languages:        c.Languages,
		Term:             strings.TrimSpace(c.SearchTerm),
		Sort:             c.Sort,
		Page:             c.Page,
		PageSize:         c.PageSize,
	}
	if c.Coords != nil {
		f.Lat = &c.Coords.Lat
		f.Lon = &c.Coords.Lon
	}
	if cutoff, ok := c.DatePosted.Cutoff(now); ok {
		f.PostedAfter = &cutoff
	}
	for _, ct := range c.ContractTypes {
		f.ContractTypes = append(f.ContractTypes, string(ct))
	}
	for _, lvl := range c.ExperienceLevels {
		f.ExperienceLevels = append(f.ExperienceLevels, string(lvl))
	}
	return f
}
