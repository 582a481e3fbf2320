// Package model defines the core CRM types shared across the enrichment engine.
package model

import (
	"time"
)

// Contact is a CRM contact or lead record.
//
// Flat columns and CustomFields together are the single source of truth:
// an attribute with a dedicated column (jobTitle, phone, ...) is never
// duplicated into CustomFields.
type Contact struct {
	ID            string         `json:"id" db:"id"`
	FirstName     string         `json:"first_name" db:"first_name"`
	LastName      string         `json:"last_name" db:"last_name"`
	Email         string         `json:"email,omitempty" db:"email"`
	Phone         string         `json:"phone,omitempty" db:"phone"`
	JobTitle      string         `json:"job_title,omitempty" db:"job_title"`
	LinkedInURL   string         `json:"linkedin_url,omitempty" db:"linkedin_url"`
	TwitterHandle string         `json:"twitter_handle,omitempty" db:"twitter_handle"`
	CompanyID     string         `json:"company_id,omitempty" db:"company_id"`
	CustomFields  map[string]any `json:"custom_fields,omitempty" db:"custom_fields"`
	CreatedAt     time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at" db:"updated_at"`
}

// FullName returns the contact's display name.
func (c *Contact) FullName() string {
	if c.FirstName == "" {
		return c.LastName
	}
	if c.LastName == "" {
		return c.FirstName
	}
	return c.FirstName + " " + c.LastName
}

// ContactPatch is a partial update to a contact. Nil pointers leave the
// corresponding column untouched; CustomFields entries are merged into the
// existing bag, not replaced wholesale.
type ContactPatch struct {
	Email         *string        `json:"email,omitempty"`
	Phone         *string        `json:"phone,omitempty"`
	JobTitle      *string        `json:"job_title,omitempty"`
	LinkedInURL   *string        `json:"linkedin_url,omitempty"`
	TwitterHandle *string        `json:"twitter_handle,omitempty"`
	CompanyID     *string        `json:"company_id,omitempty"`
	CustomFields  map[string]any `json:"custom_fields,omitempty"`
}

// IsEmpty reports whether the patch carries no writes at all.
func (p ContactPatch) IsEmpty() bool {
	return p.Email == nil && p.Phone == nil && p.JobTitle == nil &&
		p.LinkedInURL == nil && p.TwitterHandle == nil && p.CompanyID == nil &&
		len(p.CustomFields) == 0
}

// Company is a CRM company record. NameNorm (trimmed, casefolded Name) is
// unique in the store; enrichment never creates a second company for a name
// that already exists under that comparison.
type Company struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	NameNorm  string    `json:"-" db:"name_norm"`
	Industry  string    `json:"industry,omitempty" db:"industry"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// EnrichOutcome is the result of applying enrichment to a single contact.
type EnrichOutcome struct {
	Contact        *Contact `json:"contact"`
	CompanyCreated bool     `json:"company_created"`
	AppliedKeys    []string `json:"applied_keys"`
}

// EnrichPair is one unit of batch work: a contact plus the candidate profile
// and field keys the caller chose for it.
type EnrichPair struct {
	ContactID    string     `json:"contact_id"`
	Profile      EPSProfile `json:"profile"`
	SelectedKeys []string   `json:"selected_keys"`
}

// BatchResult aggregates per-pair outcomes of a batch enrichment.
// Succeeded+Failed always equals the number of submitted pairs.
type BatchResult struct {
	Succeeded        int       `json:"succeeded"`
	Failed           int       `json:"failed"`
	CompaniesCreated int       `json:"companies_created"`
	UpdatedContacts  []Contact `json:"updated_contacts"`
	Errors           []string  `json:"errors,omitempty"`
}
