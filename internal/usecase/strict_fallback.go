package usecase

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/cybershaman666/jobshaman.cz-sub002/internal/domain/job"
	"github.com/cybershaman666/jobshaman.cz-sub002/internal/normalize"
	"github.com/cybershaman666/jobshaman.cz-sub002/internal/pkg/logging"
	"github.com/cybershaman666/jobshaman.cz-sub002/internal/repository"
	"github.com/cybershaman666/jobshaman.cz-sub002/internal/search"
)

const defaultWindowCeiling = 400

// StrictFallback re-applies the full filter predicate set in-process over a
// bounded window of the most recent legal rows. It runs only after the
// relational backend reported overload, and it never fails: counts degrade
// to approximations instead of erroring.
type StrictFallback struct {
	window        repository.RecentWindowRepository
	norm          *normalize.Normalizer
	logger        *logging.Logger
	windowCeiling int
	now           func() time.Time
}

func NewStrictFallback(window repository.RecentWindowRepository, norm *normalize.Normalizer, logger *logging.Logger, windowCeiling int) *StrictFallback {
	if windowCeiling <= 0 {
		windowCeiling = defaultWindowCeiling
	}
	return &StrictFallback{
		window:        window,
		norm:          norm,
		logger:        logger,
		windowCeiling: windowCeiling,
		now:           time.Now,
	}
}

func (s *StrictFallback) Search(ctx context.Context, c job.FilterCriteria) job.SearchResult {
	pageSize := c.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	page := c.Page
	if page < 0 {
		page = 0
	}

	limit := windowSize(page, pageSize, s.windowCeiling)
	now := s.now().UTC()

	q := repository.WindowQuery{
		Limit:            limit,
		Countries:        c.Countries,
		ExcludeCountries: c.ExcludeCountries,
		Languages:        c.Languages,
	}
	radiusActive := c.Coords != nil && c.RadiusKm > 0
	if !radiusActive {
		q.CityLike = strings.TrimSpace(c.City)
	}
	if cutoff, ok := c.DatePosted.Cutoff(now); ok {
		q.PostedAfter = &cutoff
	}

	rows, sourceHasMore, err := s.window.RecentLegal(ctx, q)
	if err != nil {
		s.logger.Error("strict fallback window fetch failed", "error", err.Error())
		return job.SearchResult{Jobs: []job.Job{}, Degraded: true, Tier: job.TierStrict}
	}

	jobs := s.norm.Normalize(rows, normalize.Options{Tier: job.TierStrict, UserCoords: c.Coords})
	filtered := filterInProcess(jobs, c, now)
	sortJobs(filtered, c.Sort)

	start := page * pageSize
	end := start + pageSize
	total := len(filtered)
	pageJobs := []job.Job{}
	if start < total {
		if end > total {
			end = total
		}
		pageJobs = filtered[start:end]
	}

	// Only the window was inspected, so both values are approximations:
	// more matches may exist beyond the window.
	hasMore := total > start+len(pageJobs) || sourceHasMore

	return job.SearchResult{
		Jobs:       pageJobs,
		HasMore:    hasMore,
		TotalCount: total,
		Degraded:   true,
		Tier:       job.TierStrict,
	}
}

// windowSize keeps the window proportional to how deep the caller paged,
// capped by a hard ceiling.
func windowSize(page, pageSize, ceiling int) int {
	w := pageSize * 4
	if deep := (page + 1) * pageSize * 2; deep > w {
		w = deep
	}
	if w > ceiling {
		w = ceiling
	}
	return w
}

func filterInProcess(jobs []job.Job, c job.FilterCriteria, now time.Time) []job.Job {
	radiusActive := c.Coords != nil && c.RadiusKm > 0
	cutoff, cutoffActive := c.DatePosted.Cutoff(now)
	terms := search.Tokens(c.SearchTerm)

	out := make([]job.Job, 0, len(jobs))
	for i := range jobs {
		j := jobs[i]

		if radiusActive {
			// Radius filtering requires both coordinates; jobs missing
			// either are excluded rather than silently passed through.
			if j.Provenance.DistanceKm == nil || *j.Provenance.DistanceKm > c.RadiusKm {
				continue
			}
		}
		if c.MinSalary > 0 && maxSalary(j) < c.MinSalary {
			continue
		}
		if cutoffActive && (j.PostedAt.IsZero() || j.PostedAt.Before(cutoff)) {
			continue
		}
		if len(c.ContractTypes) > 0 && !containsContract(c.ContractTypes, j.ContractType) {
			continue
		}
		if len(c.ExperienceLevels) > 0 {
			text := j.Title + " " + j.Description + " " + strings.Join(j.Tags, " ")
			if !search.MatchesExperience(text, c.ExperienceLevels) {
				continue
			}
		}
		if len(c.Benefits) > 0 && !hasAllBenefits(j, c.Benefits) {
			continue
		}
		if len(terms) > 0 && !matchesAllTokens(j, terms) {
			continue
		}

		out = append(out, j)
	}
	return out
}

// maxSalary returns the best of the advertised bounds, or -1 when the row
// advertises no salary at all (excluded by any minimum-salary filter).
func maxSalary(j job.Job) int {
	if j.Salary.From == nil && j.Salary.To == nil {
		return -1
	}
	m := 0
	if j.Salary.From != nil {
		m = *j.Salary.From
	}
	if j.Salary.To != nil && *j.Salary.To > m {
		m = *j.Salary.To
	}
	return m
}

func containsContract(set []job.ContractType, ct job.ContractType) bool {
	for _, s := range set {
		if s == ct {
			return true
		}
	}
	return false
}

func hasAllBenefits(j job.Job, wanted []string) bool {
	haystack := search.Fold(strings.Join([]string{
		strings.Join(j.Benefits, " "),
		strings.Join(j.Tags, " "),
		j.Title,
		j.Description,
	}, " "))
	for _, b := range wanted {
		kw := search.Fold(strings.TrimSpace(b))
		if kw == "" {
			continue
		}
		if !strings.Contains(haystack, kw) {
			return false
		}
	}
	return true
}

func matchesAllTokens(j job.Job, tokens []string) bool {
	haystack := search.Fold(strings.Join([]string{
		j.Title, j.Company, j.Location, j.Description,
		strings.Join(j.Benefits, " "), strings.Join(j.Tags, " "),
	}, " "))
	for _, t := range tokens {
		if !strings.Contains(haystack, t) {
			return false
		}
	}
	return true
}

// sortJobs orders in place per sort mode; default and recommended keep the
// fetched order.
func sortJobs(jobs []job.Job, mode job.SortMode) {
	switch mode {
	case job.SortNewest:
		sort.SliceStable(jobs, func(i, k int) bool {
			return jobs[i].PostedAt.After(jobs[k].PostedAt)
		})
	case job.SortJHIDesc:
		sort.SliceStable(jobs, func(i, k int) bool {
			return jhiOf(jobs[i]) > jhiOf(jobs[k])
		})
	case job.SortJHIAsc:
		sort.SliceStable(jobs, func(i, k int) bool {
			return jhiOf(jobs[i]) < jhiOf(jobs[k])
		})
	}
}

func jhiOf(j job.Job) float64 {
	if j.JHIScore == nil {
		return -1
	}
	return *j.JHIScore
}
