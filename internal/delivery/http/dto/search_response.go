package dto

type SalaryResponse struct {
	From      *int   `json:"from"`
	To        *int   `json:"to"`
	Currency  string `json:"currency"`
	Timeframe string `json:"timeframe"`
}

type JobResponse struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	Company      string         `json:"company"`
	Location     string         `json:"location"`
	Salary       SalaryResponse `json:"salary"`
	ContractType string         `json:"contract_type"`
	WorkModel    string         `json:"work_model"`
	Benefits     []string       `json:"benefits"`
	Tags         []string       `json:"tags"`
	CountryCode  string         `json:"country_code"`
	Source       string         `json:"source"`
	Description  string         `json:"description"`
	PostedAt     string         `json:"posted_at"`
	PostedAgo    string         `json:"posted_ago"`
	JHIScore     *float64       `json:"jhi_score,omitempty"`
	DistanceKm   *float64       `json:"distance_km,omitempty"`
}

type SearchResponse struct {
	Jobs       []JobResponse `json:"jobs"`
	HasMore    bool          `json:"has_more"`
	TotalCount int           `json:"total_count"`
	Degraded   bool          `json:"degraded"`
	Tier       string        `json:"tier"`
	Page       int           `json:"page"`
	PageSize   int           `json:"page_size"`
}
