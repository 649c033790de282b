package usecase

import (
	"context"
	"strings"

	"github.com/cybershaman666/jobshaman.cz-sub002/internal/domain/job"
	"github.com/cybershaman666/jobshaman.cz-sub002/internal/normalize"
	"github.com/cybershaman666/jobshaman.cz-sub002/internal/pkg/logging"
	"github.com/cybershaman666/jobshaman.cz-sub002/internal/repository"
	"github.com/cybershaman666/jobshaman.cz-sub002/internal/search"
)

// TextFallback is the last degradation step: a plain OR-substring search
// over a few text columns. It only volunteers a result for pure free-text
// queries; structural filters are better served by the strict fallback.
type TextFallback struct {
	repo   repository.RecentWindowRepository
	norm   *normalize.Normalizer
	logger *logging.Logger
}

func NewTextFallback(repo repository.RecentWindowRepository, norm *normalize.Normalizer, logger *logging.Logger) *TextFallback {
	return &TextFallback{repo: repo, norm: norm, logger: logger}
}

// Search returns nil (and no error) when this tier does not apply or finds
// nothing, letting the orchestrator report the original empty result.
func (t *TextFallback) Search(ctx context.Context, c job.FilterCriteria) (*job.SearchResult, error) {
	term := search.Sanitize(c.SearchTerm)
	if term == "" || !applies(c) {
		return nil, nil
	}

	pageSize := c.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	page := c.Page
	if page < 0 {
		page = 0
	}

	// One extra row to tell a full page from the end of the matches.
	fetchLimit := (page+1)*pageSize + 1

	rows, err := t.repo.TextSearch(ctx, term, fetchLimit)
	if err != nil {
		return nil, err
	}

	jobs := t.norm.Normalize(rows, normalize.Options{Tier: job.TierText, UserCoords: c.Coords})

	// A very short single token would match inside unrelated words via
	// ILIKE; require whole-token containment for those.
	if tokens := strings.Fields(term); len(tokens) == 1 && len([]rune(tokens[0])) <= 2 {
		jobs = filterWholeToken(jobs, tokens[0])
	}

	if len(jobs) == 0 {
		return nil, nil
	}

	start := page * pageSize
	end := start + pageSize
	total := len(jobs)
	pageJobs := []job.Job{}
	if start < total {
		if end > total {
			end = total
		}
		pageJobs = jobs[start:end]
	}

	return &job.SearchResult{
		Jobs:       pageJobs,
		HasMore:    total > start+len(pageJobs),
		TotalCount: total,
		Degraded:   true,
		Tier:       job.TierText,
	}, nil
}

// applies gates this tier off whenever a strict structural filter or a
// non-default sort is active.
func applies(c job.FilterCriteria) bool {
	if c.Coords != nil && c.RadiusKm > 0 {
		return false
	}
	if strings.TrimSpace(c.City) != "" {
		return false
	}
	if len(c.ContractTypes) > 0 || len(c.Benefits) > 0 || len(c.ExperienceLevels) > 0 {
		return false
	}
	if c.Sort != "" && c.Sort != job.SortDefault {
		return false
	}
	return true
}

func filterWholeToken(jobs []job.Job, token string) []job.Job {
	out := make([]job.Job, 0, len(jobs))
	for _, j := range jobs {
		haystack := strings.Join([]string{j.Title, j.Company, j.Location, j.Description}, " ")
		if search.ContainsWholeToken(haystack, token) {
			out = append(out, j)
		}
	}
	return out
}
