package usecase

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"

	"github.com/cybershaman666/jobshaman.cz-sub002/internal/domain/job"
)

type searchCacheKeyInput struct {
	Lat              *float64 `json:"lat"`
	Lon              *float64 `json:"lon"`
	RadiusKm         float64  `json:"radius_km"`
	City             string   `json:"city"`
	ContractTypes    []string `json:"contract_types"`
	Benefits         []string `json:"benefits"`
	MinSalary        int      `json:"min_salary"`
	DatePosted       string   `json:"date_posted"`
	ExperienceLevels []string `json:"experience_levels"`
	Countries        []string `json:"countries"`
	ExcludeCountries []string `json:"exclude_countries"`
	Languages        []string `json:"languages"`
	Term             string   `json:"term"`
	Sort             string   `json:"sort"`
	Page             int      `json:"page"`
	PageSize         int      `json:"page_size"`
}

func normalizeKeyValue(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(s))), " ")
}

func normalizeKeyList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = normalizeKeyValue(s)
		if s == "" {
			continue
		}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// SearchResultCacheKey derives a stable key from everything that affects
// the page content. The session key is deliberately excluded: two sessions
// asking the same question share one cache entry.
func SearchResultCacheKey(c job.FilterCriteria) string {
	in := searchCacheKeyInput{
		RadiusKm:         c.RadiusKm,
		City:             normalizeKeyValue(c.City),
		Benefits:         normalizeKeyList(c.Benefits),
		MinSalary:        c.MinSalary,
		DatePosted:       string(c.DatePosted),
		Countries:        normalizeKeyList(c.Countries),
		ExcludeCountries: normalizeKeyList(c.ExcludeCountries),
		Languages:        normalizeKeyList(c.Languages),
		Term:             normalizeKeyValue(c.SearchTerm),
		Sort:             string(c.Sort),
		Page:             c.Page,
		PageSize:         c.PageSize,
	}
	if c.Coords != nil {
		in.Lat = &c.Coords.Lat
		in.Lon = &c.Coords.Lon
	}
	for _, ct := range c.ContractTypes {
		in.ContractTypes = append(in.ContractTypes, string(ct))
	}
	sort.Strings(in.ContractTypes)
	for _, lvl := range c.ExperienceLevels {
		in.ExperienceLevels = append(in.ExperienceLevels, string(lvl))
	}
	sort.Strings(in.ExperienceLevels)

	b, _ := json.Marshal(in)
	sum := sha256.Sum256(b)
	return "jobs:search:" + hex.EncodeToString(sum[:])
}
