package normalize

import "time"

// Record is the loosely-typed row shape backends hand over. Field names and
// precision vary by tier; each tier maps its own wire format into a Record
// and nothing past the normalizer ever sees one.
type Record struct {
	ID          string
	Title       string
	Company     string
	Location    string
	Description string

	Lat *float64
	Lon *float64

	SalaryFrom *int
	SalaryTo   *int
	Currency   string
	Timeframe  string

	// EmploymentType and WorkModel are free text when present; the
	// normalizer falls back to heuristics when they are not.
	EmploymentType string
	WorkModel      string
	Remote         *bool

	// Benefits may arrive as a string list, a JSON-encoded array string, or
	// a comma-separated string depending on the tier.
	Benefits any
	Tags     []string

	CountryCode  string
	LanguageCode string
	Source       string

	PostedAt  *time.Time
	ScrapedAt *time.Time

	JHIScore *float64
	Legal    *bool

	// Ranking provenance, present only on hybrid rows.
	Rank  *int
	Score *float64
}
