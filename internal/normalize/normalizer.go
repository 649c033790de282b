package normalize

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cybershaman666/jobshaman.cz-sub002/internal/domain/job"
	"github.com/cybershaman666/jobshaman.cz-sub002/internal/pkg/logging"
	"github.com/cybershaman666/jobshaman.cz-sub002/internal/search"

	"github.com/google/uuid"
)

const minDescriptionLen = 200

// Options carries per-batch context: which tier produced the rows and what
// the request knew (user coordinates for distance, ranking provenance ids).
type Options struct {
	Tier         string
	RequestID    string
	ModelVersion string
	UserCoords   *job.Coordinates
}

type Normalizer struct {
	logger *logging.Logger
	now    func() time.Time
}

func New(logger *logging.Logger) *Normalizer {
	return &Normalizer{logger: logger, now: time.Now}
}

// Normalize maps raw rows into canonical jobs. A malformed row is dropped
// and logged, never fatal to the batch. Rows failing the quality gate are
// dropped, then duplicates on the folded (title, company, location) key are
// discarded keeping the first occurrence.
func (n *Normalizer) Normalize(records []Record, opts Options) []job.Job {
	out := make([]job.Job, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	var mapFailed, gated, deduped int

	for i := range records {
		j, err := n.mapRecord(records[i], opts)
		if err != nil {
			mapFailed++
			n.logger.Warn("dropping unmappable row", "tier", opts.Tier, "id", records[i].ID, "error", err.Error())
			continue
		}
		if reason := qualityGateReason(j); reason != "" {
			gated++
			n.logger.Debug("dropping row at quality gate", "tier", opts.Tier, "id", j.ID, "reason", reason)
			continue
		}

		key := dedupKey(j)
		if _, ok := seen[key]; ok {
			deduped++
			continue
		}
		seen[key] = struct{}{}
		out = append(out, j)
	}

	if mapFailed > 0 || gated > 0 || deduped > 0 {
		n.logger.Info("normalized result batch",
			"tier", opts.Tier, "in", len(records), "out", len(out),
			"unmappable", mapFailed, "below_quality", gated, "duplicates", deduped)
	}
	return out
}

func (n *Normalizer) mapRecord(r Record, opts Options) (job.Job, error) {
	if r.Legal != nil && !*r.Legal {
		return job.Job{}, fmt.Errorf("record is not marked legal")
	}

	benefits, err := parseBenefits(r.Benefits)
	if err != nil {
		return job.Job{}, fmt.Errorf("parse benefits: %w", err)
	}

	id := strings.TrimSpace(r.ID)
	if id == "" {
		id = uuid.NewString()
	}

	j := job.Job{
		ID:           id,
		Title:        strings.TrimSpace(r.Title),
		Company:      strings.TrimSpace(r.Company),
		Location:     strings.TrimSpace(r.Location),
		Salary:       resolveSalary(r),
		ContractType: resolveContract(r),
		WorkModel:    resolveWorkModel(r),
		Benefits:     benefits,
		Tags:         r.Tags,
		CountryCode:  strings.ToLower(strings.TrimSpace(r.CountryCode)),
		LanguageCode: strings.ToLower(strings.TrimSpace(r.LanguageCode)),
		Source:       r.Source,
		Description:  strings.TrimSpace(r.Description),
		ScrapedAt:    r.ScrapedAt,
		JHIScore:     r.JHIScore,
		Legal:        true,
		Provenance: job.Provenance{
			Tier:         opts.Tier,
			RequestID:    opts.RequestID,
			RankPosition: r.Rank,
			RankScore:    r.Score,
			ModelVersion: opts.ModelVersion,
		},
	}

	if r.Lat != nil && r.Lon != nil {
		j.Coords = &job.Coordinates{Lat: *r.Lat, Lon: *r.Lon}
	}

	if r.PostedAt != nil {
		j.PostedAt = *r.PostedAt
	} else if r.ScrapedAt != nil {
		j.PostedAt = *r.ScrapedAt
	}
	if !j.PostedAt.IsZero() {
		j.PostedAgo = relativePostedTime(n.now().UTC(), j.PostedAt)
	}

	if opts.UserCoords != nil && j.Coords != nil {
		d := search.HaversineKm(*opts.UserCoords, *j.Coords)
		j.Provenance.DistanceKm = &d
	}

	return j, nil
}

var placeholderValues = map[string]struct{}{
	"unknown": {}, "n/a": {}, "na": {}, "-": {}, "none": {}, "tbd": {},
	"not specified": {}, "neuvedeno": {}, "nezadano": {}, "bez nazvu": {},
}

func isPlaceholder(s string) bool {
	_, ok := placeholderValues[search.Fold(strings.TrimSpace(s))]
	return ok
}

// qualityGateReason returns a non-empty reason when the job must not reach
// callers: placeholder title/location, missing company, or a description
// too short to be a real posting.
func qualityGateReason(j job.Job) string {
	if j.Title == "" || isPlaceholder(j.Title) {
		return "placeholder_title"
	}
	if j.Location != "" && isPlaceholder(j.Location) {
		return "placeholder_location"
	}
	if j.Company == "" || isPlaceholder(j.Company) {
		return "missing_company"
	}
	if len([]rune(j.Description)) < minDescriptionLen {
		return "short_description"
	}
	return ""
}

func dedupKey(j job.Job) string {
	return search.Fold(j.Title) + "|" + search.Fold(j.Company) + "|" + search.Fold(j.Location)
}

// parseBenefits accepts the three shapes backends use for benefits.
func parseBenefits(v any) ([]string, error) {
	switch b := v.(type) {
	case nil:
		return nil, nil
	case []string:
		return cleanList(b), nil
	case []any:
		out := make([]string, 0, len(b))
		for _, it := range b {
			s, ok := it.(string)
			if !ok {
				return nil, fmt.Errorf("benefit entry is %T, not a string", it)
			}
			out = append(out, s)
		}
		return cleanList(out), nil
	case string:
		s := strings.TrimSpace(b)
		if s == "" {
			return nil, nil
		}
		if strings.HasPrefix(s, "[") {
			var arr []string
			if err := json.Unmarshal([]byte(s), &arr); err != nil {
				return nil, fmt.Errorf("benefits look like JSON but do not decode: %w", err)
			}
			return cleanList(arr), nil
		}
		return cleanList(strings.Split(s, ",")), nil
	default:
		return nil, fmt.Errorf("unsupported benefits shape %T", v)
	}
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		out = append(out, s)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Multi-source optional fields (salary, currency, work model) resolve via
// an ordered list of attempts; the first hit wins.

func resolveSalary(r Record) job.SalaryRange {
	s := job.SalaryRange{From: r.SalaryFrom, To: r.SalaryTo}

	for _, resolve := range []func(Record) string{
		func(r Record) string { return strings.ToUpper(strings.TrimSpace(r.Currency)) },
		func(r Record) string { return currencyForCountry(r.CountryCode) },
	} {
		if c := resolve(r); c != "" {
			s.Currency = c
			break
		}
	}

	s.Timeframe = strings.ToLower(strings.TrimSpace(r.Timeframe))
	if s.Timeframe == "" && (s.From != nil || s.To != nil) {
		s.Timeframe = "month"
	}
	return s
}

func currencyForCountry(code string) string {
	switch strings.ToLower(strings.TrimSpace(code)) {
	case "cz":
		return "CZK"
	case "sk", "de", "at":
		return "EUR"
	case "pl":
		return "PLN"
	case "gb", "uk":
		return "GBP"
	default:
		return ""
	}
}

func resolveContract(r Record) job.ContractType {
	text := strings.Join([]string{r.EmploymentType, r.Title, r.Description}, " ")
	return search.ClassifyContract(text)
}

var workModelResolvers = []func(Record) (job.WorkModel, bool){
	workModelFromField,
	workModelFromFlag,
	workModelFromText,
}

func resolveWorkModel(r Record) job.WorkModel {
	for _, resolve := range workModelResolvers {
		if wm, ok := resolve(r); ok {
			return wm
		}
	}
	return job.WorkOnSite
}

func workModelFromField(r Record) (job.WorkModel, bool) {
	switch search.Fold(strings.TrimSpace(r.WorkModel)) {
	case "remote", "vzdalena", "home office":
		return job.WorkRemote, true
	case "hybrid", "hybridni":
		return job.WorkHybrid, true
	case "onsite", "on-site", "on site", "office":
		return job.WorkOnSite, true
	}
	return "", false
}

func workModelFromFlag(r Record) (job.WorkModel, bool) {
	if r.Remote == nil {
		return "", false
	}
	if *r.Remote {
		return job.WorkRemote, true
	}
	return job.WorkOnSite, true
}

func workModelFromText(r Record) (job.WorkModel, bool) {
	text := r.Title + " " + r.Description
	folded := search.Fold(text)
	switch {
	case search.ContainsWholeToken(text, "remote"),
		strings.Contains(folded, "home office"),
		strings.Contains(folded, "z domova"),
		strings.Contains(folded, "na dalku"):
		return job.WorkRemote, true
	case search.ContainsWholeToken(text, "hybrid"),
		search.ContainsWholeToken(text, "hybridni"):
		return job.WorkHybrid, true
	}
	return "", false
}

func relativePostedTime(now, posted time.Time) string {
	age := now.Sub(posted)
	switch {
	case age < 24*time.Hour:
		return "today"
	case age < 48*time.Hour:
		return "yesterday"
	case age < 14*24*time.Hour:
		return fmt.Sprintf("%d days ago", int(age.Hours()/24))
	case age < 60*24*time.Hour:
		return fmt.Sprintf("%d weeks ago", int(age.Hours()/(24*7)))
	default:
		return fmt.Sprintf("%d months ago", int(age.Hours()/(24*30)))
	}
}
