package brightdata

// PersonRecord is a raw profile record as delivered by the dataset API.
// Field names follow the provider; downstream code normalizes this into its
// own canonical type.
type PersonRecord struct {
	ID              string             `json:"id"`
	Name            string             `json:"name"`
	URL             string             `json:"url,omitempty"`
	Email           string             `json:"email,omitempty"`
	Phone           string             `json:"phone,omitempty"`
	City            string             `json:"city,omitempty"`
	Position        string             `json:"position,omitempty"`
	CurrentCompany  CompanyRef         `json:"current_company,omitempty"`
	Experience      []ExperienceRecord `json:"experience,omitempty"`
	Connections     int                `json:"connections,omitempty"`
	Recommendations int                `json:"recommendations_count,omitempty"`
}

// CompanyRef is the provider's embedded current-company object.
type CompanyRef struct {
	Name  string `json:"name,omitempty"`
	Title string `json:"title,omitempty"`
}

// ExperienceRecord is one job entry on a raw profile. Dates are provider
// strings ("2021-03", "Jan 2021", "Present", or empty).
type ExperienceRecord struct {
	Company     string `json:"company,omitempty"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	StartDate   string `json:"start_date,omitempty"`
	EndDate     string `json:"end_date,omitempty"`
	Current     bool   `json:"is_current,omitempty"`
}

// SearchFilter is one structured search against the dataset: a company text
// filter, optional title keywords, and a result-count limit.
type SearchFilter struct {
	CompanyName   string   `json:"company_name"`
	TitleKeywords []string `json:"title_keywords,omitempty"`
	Limit         int      `json:"limit"`
}

// CallStatus classifies the outcome of a provider call. Transient failures
// are retried once and then reported as soft failures so the caller can
// skip and continue; hard failures surface as errors.
type CallStatus string

const (
	StatusOK       CallStatus = "ok"
	StatusSoftFail CallStatus = "soft_fail"
)

// SearchResult is the typed outcome of a Search call. Err is set only when
// Status is StatusSoftFail and carries the last attempt's failure for logging.
type SearchResult struct {
	IDs    []string
	Status CallStatus
	Cached bool
	DryRun bool
	Err    error
}

// CollectResult is the typed outcome of a Collect call.
type CollectResult struct {
	Record *PersonRecord
	Status CallStatus
	Cached bool
	DryRun bool
	Err    error
}
