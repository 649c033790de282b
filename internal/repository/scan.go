package repository

import (
	"strings"
	"time"

	"github.com/cybershaman666/jobshaman.cz-sub002/internal/database"
	"github.com/cybershaman666/jobshaman.cz-sub002/internal/normalize"
)

// Column list shared by every tier that reads the jobs table, so all of
// them produce the same raw record shape for the normalizer.
const recordColumns = `id, title, company, location, description,
	latitude, longitude,
	salary_from, salary_to, salary_currency, salary_timeframe,
	employment_type, work_model, remote,
	benefits, tags_text,
	country_code, language_code, source,
	posted_at, scraped_at, jhi_score, is_legal`

type recordScanTarget struct {
	id          string
	title       *string
	company     *string
	location    *string
	description *string
	lat         *float64
	lon         *float64
	salaryFrom  *int
	salaryTo    *int
	currency    *string
	timeframe   *string
	employment  *string
	workModel   *string
	remote      *bool
	benefits    *string
	tagsText    *string
	country     *string
	language    *string
	source      *string
	postedAt    *time.Time
	scrapedAt   *time.Time
	jhiScore    *float64
	legal       *bool
}

func (t *recordScanTarget) dest() []any {
	return []any{
		&t.id, &t.title, &t.company, &t.location, &t.description,
		&t.lat, &t.lon,
		&t.salaryFrom, &t.salaryTo, &t.currency, &t.timeframe,
		&t.employment, &t.workModel, &t.remote,
		&t.benefits, &t.tagsText,
		&t.country, &t.language, &t.source,
		&t.postedAt, &t.scrapedAt, &t.jhiScore, &t.legal,
	}
}

func (t *recordScanTarget) record() normalize.Record {
	rec := normalize.Record{
		ID:             t.id,
		Title:          deref(t.title),
		Company:        deref(t.company),
		Location:       deref(t.location),
		Description:    deref(t.description),
		Lat:            t.lat,
		Lon:            t.lon,
		SalaryFrom:     t.salaryFrom,
		SalaryTo:       t.salaryTo,
		Currency:       deref(t.currency),
		Timeframe:      deref(t.timeframe),
		EmploymentType: deref(t.employment),
		WorkModel:      deref(t.workModel),
		Remote:         t.remote,
		CountryCode:    deref(t.country),
		LanguageCode:   deref(t.language),
		Source:         deref(t.source),
		PostedAt:       t.postedAt,
		ScrapedAt:      t.scrapedAt,
		JHIScore:       t.jhiScore,
		Legal:          t.legal,
	}
	if t.benefits != nil {
		rec.Benefits = *t.benefits
	}
	if tags := deref(t.tagsText); tags != "" {
		for _, tag := range strings.Split(tags, ",") {
			tag = strings.TrimSpace(tag)
			if tag != "" {
				rec.Tags = append(rec.Tags, tag)
			}
		}
	}
	return rec
}

func scanRecord(rows database.Rows) (normalize.Record, error) {
	var t recordScanTarget
	if err := rows.Scan(t.dest()...); err != nil {
		return normalize.Record{}, err
	}
	return t.record(), nil
}

func scanRecordWithTotal(rows database.Rows) (normalize.Record, int, error) {
	var (
		t     recordScanTarget
		total int
	)
	if err := rows.Scan(append(t.dest(), &total)...); err != nil {
		return normalize.Record{}, 0, err
	}
	return t.record(), total, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
