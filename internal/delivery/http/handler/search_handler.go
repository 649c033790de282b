package handler

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/cybershaman666/jobshaman.cz-sub002/internal/delivery/http/dto"
	"github.com/cybershaman666/jobshaman.cz-sub002/internal/delivery/http/middleware"
	"github.com/cybershaman666/jobshaman.cz-sub002/internal/domain/job"
	"github.com/cybershaman666/jobshaman.cz-sub002/internal/pkg/response"
	"github.com/cybershaman666/jobshaman.cz-sub002/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

type SearchHandler struct {
	uc usecase.SearchUsecase
}

func NewSearchHandler(uc usecase.SearchUsecase) *SearchHandler {
	return &SearchHandler{uc: uc}
}

func (h *SearchHandler) HandleSearch(c fiber.Ctx) error {
	criteria, err := parseCriteria(c)
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}

	res, err := h.uc.Resolve(c.Context(), criteria)
	if err != nil {
		return mapSearchUsecaseError(err)
	}

	return response.Success(c, fiber.StatusOK, "success", toSearchResponse(res, criteria))
}

func parseCriteria(c fiber.Ctx) (job.FilterCriteria, error) {
	criteria := job.FilterCriteria{
		City:             c.Query("city"),
		SearchTerm:       c.Query("q"),
		Benefits:         parseListQuery(c.Query("benefits")),
		Countries:        parseListQuery(c.Query("countries")),
		ExcludeCountries: parseListQuery(c.Query("exclude_countries")),
		Languages:        parseListQuery(c.Query("languages")),
		DatePosted:       job.ParseDatePostedBucket(c.Query("date_posted")),
		Sort:             job.ParseSortMode(c.Query("sort")),
		SessionKey:       c.Get("X-Search-Session"),
	}

	page, err := parseQueryIntStrict(c, "page", 0)
	if err != nil {
		return job.FilterCriteria{}, err
	}
	criteria.Page = page

	pageSize, err := parseQueryIntStrict(c, "page_size", 0)
	if err != nil {
		return job.FilterCriteria{}, err
	}
	criteria.PageSize = pageSize

	minSalary, err := parseQueryIntStrict(c, "min_salary", 0)
	if err != nil {
		return job.FilterCriteria{}, err
	}
	criteria.MinSalary = minSalary

	lat, latSet, err := parseQueryFloat(c, "lat")
	if err != nil {
		return job.FilterCriteria{}, err
	}
	lon, lonSet, err := parseQueryFloat(c, "lon")
	if err != nil {
		return job.FilterCriteria{}, err
	}
	if latSet && lonSet {
		criteria.Coords = &job.Coordinates{Lat: lat, Lon: lon}
	}

	radius, _, err := parseQueryFloat(c, "radius_km")
	if err != nil {
		return job.FilterCriteria{}, err
	}
	criteria.RadiusKm = radius

	for _, ct := range parseListQuery(c.Query("contract")) {
		criteria.ContractTypes = append(criteria.ContractTypes, parseContractType(ct))
	}
	for _, lvl := range parseListQuery(c.Query("experience")) {
		criteria.ExperienceLevels = append(criteria.ExperienceLevels, job.ExperienceLevel(strings.ToLower(lvl)))
	}

	return criteria, nil
}

func parseContractType(s string) job.ContractType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ico", "živnost", "zivnost":
		return job.ContractICO
	case "hpp":
		return job.ContractHPP
	case "parttime", "part-time", "part_time":
		return job.ContractPartTime
	default:
		return job.ContractType(s)
	}
}

func parseQueryIntStrict(c fiber.Ctx, key string, defaultVal int) (int, error) {
	s := c.Query(key)
	if s == "" {
		return defaultVal, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	return v, nil
}

func parseQueryFloat(c fiber.Ctx, key string) (float64, bool, error) {
	s := c.Query(key)
	if s == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, err
	}
	return v, true, nil
}

func parseListQuery(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

func toSearchResponse(res job.SearchResult, criteria job.FilterCriteria) dto.SearchResponse {
	jobs := make([]dto.JobResponse, 0, len(res.Jobs))
	for _, j := range res.Jobs {
		posted := ""
		if !j.PostedAt.IsZero() {
			posted = j.PostedAt.UTC().Format(time.RFC3339)
		}
		jobs = append(jobs, dto.JobResponse{
			ID:       j.ID,
			Title:    j.Title,
			Company:  j.Company,
			Location: j.Location,
			Salary: dto.SalaryResponse{
				From:      j.Salary.From,
				To:        j.Salary.To,
				Currency:  j.Salary.Currency,
				Timeframe: j.Salary.Timeframe,
			},
			ContractType: string(j.ContractType),
			WorkModel:    string(j.WorkModel),
			Benefits:     j.Benefits,
			Tags:         j.Tags,
			CountryCode:  j.CountryCode,
			Source:       j.Source,
			Description:  j.Description,
			PostedAt:     posted,
			PostedAgo:    j.PostedAgo,
			JHIScore:     j.JHIScore,
			DistanceKm:   j.Provenance.DistanceKm,
		})
	}
	return dto.SearchResponse{
		Jobs:       jobs,
		HasMore:    res.HasMore,
		TotalCount: res.TotalCount,
		Degraded:   res.Degraded,
		Tier:       res.Tier,
		Page:       criteria.Page,
		PageSize:   criteria.PageSize,
	}
}

func mapSearchUsecaseError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, usecase.ErrInvalidInput):
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	default:
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}
}
