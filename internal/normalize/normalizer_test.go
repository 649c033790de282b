package normalize

import (
	"strings"
	"testing"
	"time"

	"github.com/cybershaman666/jobshaman.cz-sub002/internal/domain/job"
	"github.com/cybershaman666/jobshaman.cz-sub002/internal/pkg/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testNormalizer(now time.Time) *Normalizer {
	n := New(logging.NewNop())
	n.now = func() time.Time { return now }
	return n
}

func ptr[T any](v T) *T { return &v }

func validRecord(id string) Record {
	posted := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	return Record{
		ID:          id,
		Title:       "Backend Developer " + id,
		Company:     "Acme",
		Location:    "Praha",
		Description: strings.Repeat("very real job description ", 10),
		PostedAt:    &posted,
	}
}

func TestNormalize_QualityGate(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	n := testNormalizer(now)

	records := []Record{
		validRecord("ok"),
		func() Record {
			r := validRecord("placeholder-title")
			r.Title = "Neuvedeno"
			return r
		}(),
		func() Record {
			r := validRecord("placeholder-location")
			r.Location = "N/A"
			return r
		}(),
		func() Record {
			r := validRecord("no-company")
			r.Company = ""
			return r
		}(),
		func() Record {
			r := validRecord("short-desc")
			r.Description = "too short"
			return r
		}(),
	}

	jobs := n.Normalize(records, Options{Tier: job.TierRelational})
	require.Len(t, jobs, 1)
	assert.Equal(t, "ok", jobs[0].ID)
}

func TestNormalize_DeduplicatesOnFoldedTriple(t *testing.T) {
	n := testNormalizer(time.Now().UTC())

	first := validRecord("first")
	dup := validRecord("second")
	dup.Title = first.Title // same triple after folding
	dup.Location = "PRAHA"

	other := validRecord("third")

	jobs := n.Normalize([]Record{first, dup, other}, Options{Tier: job.TierStrict})
	require.Len(t, jobs, 2)
	assert.Equal(t, "first", jobs[0].ID, "first occurrence wins")
	assert.Equal(t, "third", jobs[1].ID)
}

func TestNormalize_MalformedRowIsIsolated(t *testing.T) {
	n := testNormalizer(time.Now().UTC())

	bad := validRecord("bad")
	bad.Benefits = "[not valid json"
	good := validRecord("good")
	good.Benefits = `["Meal vouchers", "5 weeks of vacation"]`

	jobs := n.Normalize([]Record{bad, good}, Options{Tier: job.TierRelational})
	require.Len(t, jobs, 1)
	assert.Equal(t, "good", jobs[0].ID)
	assert.Equal(t, []string{"Meal vouchers", "5 weeks of vacation"}, jobs[0].Benefits)
}

func TestNormalize_IllegalRowDropped(t *testing.T) {
	n := testNormalizer(time.Now().UTC())

	r := validRecord("flagged")
	r.Legal = ptr(false)

	jobs := n.Normalize([]Record{r}, Options{Tier: job.TierStrict})
	assert.Empty(t, jobs)
}

func TestParseBenefits_Shapes(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want []string
	}{
		{"string slice", []string{"a", " b "}, []string{"a", "b"}},
		{"json array string", `["Sick days","Stravenky"]`, []string{"Sick days", "Stravenky"}},
		{"comma separated", "dog friendly, gym,  ", []string{"dog friendly", "gym"}},
		{"nil", nil, nil},
		{"empty string", "  ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseBenefits(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := parseBenefits(42)
	assert.Error(t, err)
}

func TestResolveWorkModel_OrderedResolvers(t *testing.T) {
	// Explicit field beats the flag and the text.
	r := validRecord("a")
	r.WorkModel = "hybrid"
	r.Remote = ptr(true)
	assert.Equal(t, job.WorkHybrid, resolveWorkModel(r))

	// Flag beats the text.
	r = validRecord("b")
	r.Remote = ptr(false)
	r.Description = "remote " + r.Description
	assert.Equal(t, job.WorkOnSite, resolveWorkModel(r))

	// Text heuristics as the last resort.
	r = validRecord("c")
	r.Description = "Práce z domova. " + r.Description
	assert.Equal(t, job.WorkRemote, resolveWorkModel(r))

	// Nothing known defaults to on-site.
	assert.Equal(t, job.WorkOnSite, resolveWorkModel(validRecord("d")))
}

func TestResolveSalary_CurrencyFallback(t *testing.T) {
	r := validRecord("a")
	r.SalaryFrom = ptr(50000)
	r.CountryCode = "cz"

	s := resolveSalary(r)
	assert.Equal(t, "CZK", s.Currency)
	assert.Equal(t, "month", s.Timeframe)

	r.Currency = "eur"
	assert.Equal(t, "EUR", resolveSalary(r).Currency)
}

func TestNormalize_DistanceAndRelativeTime(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	n := testNormalizer(now)

	r := validRecord("geo")
	r.Lat = ptr(50.0755)
	r.Lon = ptr(14.4378)

	user := &job.Coordinates{Lat: 49.1951, Lon: 16.6068}
	jobs := n.Normalize([]Record{r}, Options{Tier: job.TierStrict, UserCoords: user})
	require.Len(t, jobs, 1)

	require.NotNil(t, jobs[0].Provenance.DistanceKm)
	assert.InDelta(t, 184, *jobs[0].Provenance.DistanceKm, 5)
	assert.Equal(t, "3 days ago", jobs[0].PostedAgo)
}

func TestNormalize_RankingProvenance(t *testing.T) {
	n := testNormalizer(time.Now().UTC())

	r := validRecord("ranked")
	r.Rank = ptr(1)
	r.Score = ptr(0.87)

	jobs := n.Normalize([]Record{r}, Options{Tier: job.TierHybrid, RequestID: "req-1", ModelVersion: "v2"})
	require.Len(t, jobs, 1)

	p := jobs[0].Provenance
	assert.Equal(t, job.TierHybrid, p.Tier)
	assert.Equal(t, "req-1", p.RequestID)
	assert.Equal(t, "v2", p.ModelVersion)
	require.NotNil(t, p.RankPosition)
	assert.Equal(t, 1, *p.RankPosition)
}
