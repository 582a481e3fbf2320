// Package enrich implements the contact enrichment reconciliation engine:
// field eligibility resolution, selective merge application, and batch
// orchestration.
package enrich

import (
	"github.com/sells-group/enrich-cli/internal/model"
)

// Storage says where a field's value lives on the contact.
type Storage int

const (
	// StorageFlat writes a dedicated contact column.
	StorageFlat Storage = iota
	// StorageCustom writes an entry in the contact's custom-fields bag.
	StorageCustom
	// StorageCompanyLink sets the contact's company reference, creating the
	// company on demand.
	StorageCompanyLink
)

// Rule is the per-field eligibility rule.
type Rule int

const (
	// RuleFillOnly blocks enrichment whenever any local value exists,
	// preserving user edits and prior enrichments.
	RuleFillOnly Rule = iota
	// RuleFillOrEmpty additionally treats an empty local sequence as absent.
	RuleFillOrEmpty
	// RuleRefresh permits overwrite when the local value differs from the
	// candidate value.
	RuleRefresh
	// RuleUnlinked is eligible while the contact has no company reference.
	RuleUnlinked
)

// FieldSpec is one row of the routing table shared by the eligibility
// resolver and the applier, so the two can never diverge.
type FieldSpec struct {
	Key     string
	Label   string
	Storage Storage
	Rule    Rule
	// LinksCompany marks fields whose application resolves (and possibly
	// creates) a company for an unlinked contact.
	LinksCompany bool
}

// fieldTable is ordered; resolver output follows this order exactly, which
// keeps repeated evaluations byte-identical.
var fieldTable = []FieldSpec{
	{Key: model.FieldPhone, Label: "Phone", Storage: StorageFlat, Rule: RuleFillOnly},
	{Key: model.FieldEmail, Label: "Email", Storage: StorageFlat, Rule: RuleFillOnly},
	{Key: model.FieldJobTitle, Label: "Job Title", Storage: StorageFlat, Rule: RuleRefresh},
	{Key: model.FieldLinkedInURL, Label: "LinkedIn", Storage: StorageFlat, Rule: RuleFillOnly},
	{Key: model.FieldCompanyName, Label: "Company", Storage: StorageCompanyLink, Rule: RuleUnlinked, LinksCompany: true},
	{Key: model.FieldSkills, Label: "Skills", Storage: StorageCustom, Rule: RuleFillOrEmpty},
	{Key: model.FieldLocation, Label: "Location", Storage: StorageCustom, Rule: RuleFillOnly},
	{Key: model.FieldIndustry, Label: "Industry", Storage: StorageCustom, Rule: RuleFillOnly},
	{Key: model.FieldCurrentCompany, Label: "Current Company", Storage: StorageCustom, Rule: RuleFillOnly},
	{Key: model.FieldExperience, Label: "Experience", Storage: StorageCustom, Rule: RuleFillOnly},
	{Key: model.FieldEducation, Label: "Education", Storage: StorageCustom, Rule: RuleFillOnly},
	{Key: model.FieldLanguages, Label: "Languages", Storage: StorageCustom, Rule: RuleFillOnly},
	{Key: model.FieldCertifications, Label: "Certifications", Storage: StorageCustom, Rule: RuleFillOnly},
	{Key: model.FieldInterests, Label: "Interests", Storage: StorageCustom, Rule: RuleFillOnly},
	{Key: model.FieldSocialProfiles, Label: "Social Profiles", Storage: StorageCustom, Rule: RuleFillOnly},
	{Key: model.FieldWebsites, Label: "Websites", Storage: StorageCustom, Rule: RuleFillOnly},
	{Key: model.FieldGithubURL, Label: "GitHub", Storage: StorageCustom, Rule: RuleFillOnly},
	// twitterHandle has a dedicated contact column, so it routes flat even
	// though it follows the fill-only rule of the custom-field group.
	{Key: model.FieldTwitterHandle, Label: "Twitter", Storage: StorageFlat, Rule: RuleFillOnly},
	{Key: model.FieldPersonalEmails, Label: "Personal Emails", Storage: StorageCustom, Rule: RuleFillOnly},
	{Key: model.FieldWorkEmails, Label: "Work Emails", Storage: StorageCustom, Rule: RuleFillOnly},
	{Key: model.FieldPhoneNumbers, Label: "Phone Numbers", Storage: StorageCustom, Rule: RuleFillOnly},
	{Key: model.FieldCompanyInfo, Label: "Company Details", Storage: StorageCustom, Rule: RuleFillOnly, LinksCompany: true},
}

// Table returns the ordered field routing table.
func Table() []FieldSpec {
	return fieldTable
}

// specFor looks up the routing entry for a field key.
func specFor(key string) (FieldSpec, bool) {
	for _, fs := range fieldTable {
		if fs.Key == key {
			return fs, true
		}
	}
	return FieldSpec{}, false
}

// flatValue reads the contact column a flat-routed key maps to.
func flatValue(c *model.Contact, key string) string {
	switch key {
	case model.FieldPhone:
		return c.Phone
	case model.FieldEmail:
		return c.Email
	case model.FieldJobTitle:
		return c.JobTitle
	case model.FieldLinkedInURL:
		return c.LinkedInURL
	case model.FieldTwitterHandle:
		return c.TwitterHandle
	default:
		return ""
	}
}
