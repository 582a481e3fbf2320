package model

// EPSProfile is a candidate person profile returned by the external profile
// source. Everything beyond the typed top-level fields lives in RawData, a
// loosely-typed document whose sub-structure may be absent, empty, or of the
// wrong type entirely.
type EPSProfile struct {
	ID          string         `json:"id"`
	FullName    string         `json:"full_name"`
	JobTitle    string         `json:"job_title,omitempty"`
	CompanyName string         `json:"company_name,omitempty"`
	Email       string         `json:"email,omitempty"`
	Phone       string         `json:"phone,omitempty"`
	LinkedInURL string         `json:"linkedin_url,omitempty"`
	Skills      []string       `json:"skills,omitempty"`
	Location    string         `json:"location,omitempty"`
	Industry    string         `json:"industry,omitempty"`
	MatchScore  float64        `json:"match_score,omitempty"`
	RawData     map[string]any `json:"raw_data,omitempty"`
}

// Candidate is one enrichable value projected out of an EPS profile:
// the data that would be written, plus a short string for display.
type Candidate struct {
	Value   any    `json:"value"`
	Display string `json:"display_value"`
}

// NormalizedProfile maps field keys to candidate values. Keys absent from the
// map had no usable data in the source profile.
type NormalizedProfile map[string]Candidate

// Has reports whether the profile carries a candidate for key.
func (n NormalizedProfile) Has(key string) bool {
	_, ok := n[key]
	return ok
}

// CompanyInfo is the richer employer record derived from the profile's first
// experience entry, as opposed to the flat companyName display string.
type CompanyInfo struct {
	Name     string `json:"name"`
	Industry string `json:"industry,omitempty"`
}

// EligibleField is a single enrichment operation offered to the caller:
// an EPS-sourced value the contact currently lacks (or holds in a strictly
// worse form). Computed fresh per (contact, profile) pair, never persisted.
type EligibleField struct {
	Key          string `json:"key"`
	Label        string `json:"label"`
	Value        any    `json:"value"`
	DisplayValue string `json:"display_value"`
}
