package hybrid

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cybershaman666/jobshaman.cz-sub002/internal/domain/job"
	"github.com/cybershaman666/jobshaman.cz-sub002/internal/normalize"
	"github.com/cybershaman666/jobshaman.cz-sub002/internal/pkg/logging"

	"github.com/google/uuid"
)

var (
	// ErrUnavailable means every configured host was in cooldown or failed
	// with a network/transient-class error. The caller falls through to the
	// next tier; this error never reaches an end user.
	ErrUnavailable = errors.New("no hybrid search host available")

	// ErrBadRequest means a host rejected the request itself. Degrading a
	// malformed query cannot help, so this propagates.
	ErrBadRequest = errors.New("hybrid search rejected the request")
)

const defaultCooldown = 120 * time.Second

type Config struct {
	// Hosts in attempt order: search-optimized primary first, then the
	// general-purpose secondary.
	Hosts      []string
	Cooldown   time.Duration
	HTTPClient *http.Client
}

type Client struct {
	hosts      []string
	cooldown   time.Duration
	httpClient *http.Client
	cooldowns  *CooldownTracker
	norm       *normalize.Normalizer
	logger     *logging.Logger
}

func NewClient(cfg Config, cooldowns *CooldownTracker, norm *normalize.Normalizer, logger *logging.Logger) *Client {
	hosts := make([]string, 0, len(cfg.Hosts))
	for _, h := range cfg.Hosts {
		h = strings.TrimSuffix(strings.TrimSpace(h), "/")
		if h != "" {
			hosts = append(hosts, h)
		}
	}

	cooldown := cfg.Cooldown
	if cooldown <= 0 {
		cooldown = defaultCooldown
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 6 * time.Second}
	}
	if cooldowns == nil {
		cooldowns = NewCooldownTracker()
	}

	return &Client{
		hosts:      hosts,
		cooldown:   cooldown,
		httpClient: httpClient,
		cooldowns:  cooldowns,
		norm:       norm,
		logger:     logger,
	}
}

type searchPayload struct {
	Query            string   `json:"query,omitempty"`
	City             string   `json:"city,omitempty"`
	Lat              *float64 `json:"lat,omitempty"`
	Lon              *float64 `json:"lon,omitempty"`
	RadiusKm         float64  `json:"radius_km,omitempty"`
	MinSalary        int      `json:"min_salary,omitempty"`
	DatePosted       string   `json:"date_posted,omitempty"`
	ContractTypes    []string `json:"contract_types,omitempty"`
	Benefits         []string `json:"benefits,omitempty"`
	ExperienceLevels []string `json:"experience_levels,omitempty"`
	Countries        []string `json:"countries,omitempty"`
	ExcludeCountries []string `json:"exclude_countries,omitempty"`
	Languages        []string `json:"languages,omitempty"`
	SortMode         string   `json:"sort_mode"`
	Page             int      `json:"page"`
	PageSize         int      `json:"page_size"`
	RequestID        string   `json:"request_id"`
}

type resultRow struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Company      string   `json:"company"`
	Location     string   `json:"location"`
	Description  string   `json:"description"`
	Lat          *float64 `json:"lat"`
	Lon          *float64 `json:"lon"`
	SalaryFrom   *int     `json:"salary_from"`
	SalaryTo     *int     `json:"salary_to"`
	Currency     string   `json:"currency"`
	Timeframe    string   `json:"salary_timeframe"`
	Employment   string   `json:"employment_type"`
	WorkModel    string   `json:"work_model"`
	Remote       *bool    `json:"remote"`
	Benefits     any      `json:"benefits"`
	Tags         []string `json:"tags"`
	CountryCode  string   `json:"country_code"`
	LanguageCode string   `json:"language_code"`
	Source       string   `json:"source"`
	PostedAt     *string  `json:"posted_at"`
	JHIScore     *float64 `json:"jhi_score"`
	Legal        *bool    `json:"is_legal"`
	Rank         int      `json:"rank"`
	Score        float64  `json:"score"`
}

type searchResponse struct {
	RequestID    string      `json:"request_id"`
	ModelVersion string      `json:"model_version"`
	TotalCount   int         `json:"total_count"`
	HasMore      bool        `json:"has_more"`
	Results      []resultRow `json:"results"`
}

// Search tries each host in order, skipping hosts in cooldown. A
// network-class failure trips that host's cooldown and moves on; a 5xx or
// 429 moves on without tripping it (transient, not necessarily a dead
// host); any other 4xx stops with ErrBadRequest.
func (c *Client) Search(ctx context.Context, criteria job.FilterCriteria) (job.SearchResult, error) {
	if len(c.hosts) == 0 {
		return job.SearchResult{}, ErrUnavailable
	}

	payload := buildPayload(criteria)

	for _, host := range c.hosts {
		if c.cooldowns.Active(host) {
			c.logger.Debug("skipping hybrid host in cooldown", "host", host)
			continue
		}

		resp, err := c.do(ctx, host, payload)
		if err != nil {
			// A superseded or cancelled request must not punish the host.
			if ctx.Err() != nil {
				return job.SearchResult{}, ctx.Err()
			}
			c.cooldowns.Trip(host, c.cooldown)
			c.logger.Warn("hybrid host unreachable, cooling down",
				"host", host, "cooldown", c.cooldown.String(), "error", err.Error())
			continue
		}

		switch {
		case resp.status >= 500 || resp.status == http.StatusTooManyRequests:
			c.logger.Warn("hybrid host overloaded, trying next", "host", host, "status", resp.status)
			continue
		case resp.status >= 400:
			return job.SearchResult{}, fmt.Errorf("%w: host %s returned %d", ErrBadRequest, host, resp.status)
		}

		return c.buildResult(resp.body, criteria, payload.RequestID)
	}

	return job.SearchResult{}, ErrUnavailable
}

type hostResponse struct {
	status int
	body   []byte
}

func (c *Client) do(ctx context.Context, host string, payload searchPayload) (hostResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return hostResponse{}, fmt.Errorf("encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, host+"/v2/search", bytes.NewReader(body))
	if err != nil {
		return hostResponse{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return hostResponse{}, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	b, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return hostResponse{}, err
	}
	return hostResponse{status: resp.StatusCode, body: b}, nil
}

func (c *Client) buildResult(body []byte, criteria job.FilterCriteria, fallbackRequestID string) (job.SearchResult, error) {
	var decoded searchResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return job.SearchResult{}, fmt.Errorf("decode hybrid response: %w", err)
	}

	requestID := decoded.RequestID
	if requestID == "" {
		requestID = fallbackRequestID
	}

	records := make([]normalize.Record, 0, len(decoded.Results))
	for i := range decoded.Results {
		records = append(records, toRecord(decoded.Results[i]))
	}

	jobs := c.norm.Normalize(records, normalize.Options{
		Tier:         job.TierHybrid,
		RequestID:    requestID,
		ModelVersion: decoded.ModelVersion,
		UserCoords:   criteria.Coords,
	})

	return job.SearchResult{
		Jobs:       jobs,
		HasMore:    decoded.HasMore,
		TotalCount: decoded.TotalCount,
		Tier:       job.TierHybrid,
	}, nil
}

func buildPayload(c job.FilterCriteria) searchPayload {
	p := searchPayload{
		Query:            c.SearchTerm,
		City:             c.City,
		RadiusKm:         c.RadiusKm,
		MinSalary:        c.MinSalary,
		DatePosted:       string(c.DatePosted),
		Benefits:         c.Benefits,
		Countries:        c.Countries,
		ExcludeCountries: c.ExcludeCountries,
		Languages:        c.Languages,
		SortMode:         string(job.ParseSortMode(string(c.Sort))),
		Page:             c.Page,
		PageSize:         c.PageSize,
		RequestID:        uuid.NewString(),
	}
	if c.Coords != nil {
		p.Lat = &c.Coords.Lat
		p.Lon = &c.Coords.Lon
	}
	for _, ct := range c.ContractTypes {
		p.ContractTypes = append(p.ContractTypes, string(ct))
	}
	for _, lvl := range c.ExperienceLevels {
		p.ExperienceLevels = append(p.ExperienceLevels, string(lvl))
	}
	return p
}

func toRecord(r resultRow) normalize.Record {
	rec := normalize.Record{
		ID:             r.ID,
		Title:          r.Title,
		Company:        r.Company,
		Location:       r.Location,
		Description:    r.Description,
		Lat:            r.Lat,
		Lon:            r.Lon,
		SalaryFrom:     r.SalaryFrom,
		SalaryTo:       r.SalaryTo,
		Currency:       r.Currency,
		Timeframe:      r.Timeframe,
		EmploymentType: r.Employment,
		WorkModel:      r.WorkModel,
		Remote:         r.Remote,
		Benefits:       r.Benefits,
		Tags:           r.Tags,
		CountryCode:    r.CountryCode,
		LanguageCode:   r.LanguageCode,
		Source:         r.Source,
		JHIScore:       r.JHIScore,
		Legal:          r.Legal,
	}

	rank := r.Rank
	score := r.Score
	rec.Rank = &rank
	rec.Score = &score

	if r.PostedAt != nil {
		if ts, err := time.Parse(time.RFC3339, *r.PostedAt); err == nil {
			rec.PostedAt = &ts
		}
	}
	return rec
}
