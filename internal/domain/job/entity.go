package job

import (
	"strings"
	"time"
)

type SortMode string

const (
	SortDefault     SortMode = "default"
	SortNewest      SortMode = "newest"
	SortJHIDesc     SortMode = "jhi_desc"
	SortJHIAsc      SortMode = "jhi_asc"
	SortRecommended SortMode = "recommended"
)

func ParseSortMode(s string) SortMode {
	switch SortMode(strings.ToLower(strings.TrimSpace(s))) {
	case SortNewest:
		return SortNewest
	case SortJHIDesc:
		return SortJHIDesc
	case SortJHIAsc:
		return SortJHIAsc
	case SortRecommended:
		return SortRecommended
	default:
		return SortDefault
	}
}

type DatePostedBucket string

const (
	PostedAll DatePostedBucket = "all"
	Posted24h DatePostedBucket = "24h"
	Posted3d  DatePostedBucket = "3d"
	Posted7d  DatePostedBucket = "7d"
	Posted14d DatePostedBucket = "14d"
)

func ParseDatePostedBucket(s string) DatePostedBucket {
	switch DatePostedBucket(strings.ToLower(strings.TrimSpace(s))) {
	case Posted24h:
		return Posted24h
	case Posted3d:
		return Posted3d
	case Posted7d:
		return Posted7d
	case Posted14d:
		return Posted14d
	default:
		return PostedAll
	}
}

// Cutoff returns the oldest acceptable posting time for the bucket.
// The second value is false for PostedAll (no cutoff).
func (b DatePostedBucket) Cutoff(now time.Time) (time.Time, bool) {
	switch b {
	case Posted24h:
		return now.Add(-24 * time.Hour), true
	case Posted3d:
		return now.Add(-3 * 24 * time.Hour), true
	case Posted7d:
		return now.Add(-7 * 24 * time.Hour), true
	case Posted14d:
		return now.Add(-14 * 24 * time.Hour), true
	default:
		return time.Time{}, false
	}
}

type ContractType string

const (
	ContractICO      ContractType = "ICO"
	ContractHPP      ContractType = "HPP"
	ContractPartTime ContractType = "PartTime"
	ContractUnknown  ContractType = "Unknown"
)

type ExperienceLevel string

const (
	ExperienceJunior  ExperienceLevel = "junior"
	ExperienceMedior  ExperienceLevel = "medior"
	ExperienceSenior  ExperienceLevel = "senior"
	ExperienceLead    ExperienceLevel = "lead"
	ExperienceUnknown ExperienceLevel = "unknown"
)

type WorkModel string

const (
	WorkRemote WorkModel = "Remote"
	WorkHybrid WorkModel = "Hybrid"
	WorkOnSite WorkModel = "On-site"
)

// Tier names stamped onto result provenance. A page always comes from
// exactly one tier; results from two tiers are never merged.
const (
	TierHybrid     = "hybrid"
	TierRelational = "relational"
	TierStrict     = "strict_fallback"
	TierText       = "text_fallback"
)

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// FilterCriteria is the sole public input of the engine. It is treated as
// immutable once handed to the orchestrator; the cancellation signal is the
// context passed alongside it.
type FilterCriteria struct {
	Coords           *Coordinates
	RadiusKm         float64
	City             string
	ContractTypes    []ContractType
	Benefits         []string
	MinSalary        int
	DatePosted       DatePostedBucket
	ExperienceLevels []ExperienceLevel
	Countries        []string
	ExcludeCountries []string
	Languages        []string
	SearchTerm       string
	Sort             SortMode
	Page             int
	PageSize         int

	// SessionKey groups consecutive requests of one logical search session.
	// A new request with the same key cancels the previous in-flight one.
	SessionKey string
}

// HasStructuralFilter reports whether any non-text filter narrows the query.
func (c FilterCriteria) HasStructuralFilter() bool {
	if c.Coords != nil && c.RadiusKm > 0 {
		return true
	}
	if strings.TrimSpace(c.City) != "" {
		return true
	}
	if len(c.ContractTypes) > 0 || len(c.Benefits) > 0 || len(c.ExperienceLevels) > 0 {
		return true
	}
	if len(c.Countries) > 0 || len(c.ExcludeCountries) > 0 || len(c.Languages) > 0 {
		return true
	}
	if c.MinSalary > 0 {
		return true
	}
	if c.DatePosted != "" && c.DatePosted != PostedAll {
		return true
	}
	return false
}

// HasIntent reports whether the query carries real filtering intent: any
// structural filter, a non-default sort, or a free-text term of at least
// two non-space characters.
func (c FilterCriteria) HasIntent() bool {
	if c.HasStructuralFilter() {
		return true
	}
	if c.Sort != "" && c.Sort != SortDefault {
		return true
	}
	term := strings.ReplaceAll(strings.TrimSpace(c.SearchTerm), " ", "")
	return len([]rune(term)) >= 2
}

type SalaryRange struct {
	From      *int   `json:"from"`
	To        *int   `json:"to"`
	Currency  string `json:"currency"`
	Timeframe string `json:"timeframe"`
}

// Provenance records which tier produced a job and whatever that tier knew
// about it. Metadata only; it never affects correctness.
type Provenance struct {
	Tier         string   `json:"tier"`
	RequestID    string   `json:"request_id,omitempty"`
	RankPosition *int     `json:"rank_position,omitempty"`
	RankScore    *float64 `json:"rank_score,omitempty"`
	ModelVersion string   `json:"model_version,omitempty"`
	DistanceKm   *float64 `json:"distance_km,omitempty"`
}

// Job is the canonical entity every tier converges to.
type Job struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	Company      string       `json:"company"`
	Location     string       `json:"location"`
	Coords       *Coordinates `json:"coords,omitempty"`
	Salary       SalaryRange  `json:"salary"`
	ContractType ContractType `json:"contract_type"`
	WorkModel    WorkModel    `json:"work_model"`
	Benefits     []string     `json:"benefits"`
	Tags         []string     `json:"tags"`
	CountryCode  string       `json:"country_code"`
	LanguageCode string       `json:"language_code"`
	Source       string       `json:"source"`
	Description  string       `json:"description"`
	PostedAt     time.Time    `json:"posted_at"`
	PostedAgo    string       `json:"posted_ago"`
	ScrapedAt    *time.Time   `json:"scraped_at,omitempty"`
	JHIScore     *float64     `json:"jhi_score,omitempty"`
	Legal        bool         `json:"legal"`
	Provenance   Provenance   `json:"provenance"`
}

// SearchResult is the universal output contract of every tier. TotalCount
// and HasMore are exact for the relational tier; Degraded marks the
// approximations produced by the fallback tiers.
type SearchResult struct {
	Jobs       []Job  `json:"jobs"`
	HasMore    bool   `json:"has_more"`
	TotalCount int    `json:"total_count"`
	Degraded   bool   `json:"degraded"`
	Tier       string `json:"tier"`
}
