package enrich

import (
	"github.com/sells-group/enrich-cli/internal/model"
)

// EligibleFields computes the enrichment operations a profile offers for a
// contact: every table field whose candidate value is present and whose local
// eligibility rule passes. Output order matches the routing table, so two
// calls on identical inputs yield identical, identically-ordered results.
func EligibleFields(c *model.Contact, n model.NormalizedProfile) []model.EligibleField {
	var eligible []model.EligibleField
	for _, fs := range fieldTable {
		cand, ok := n[fs.Key]
		if !ok {
			continue
		}
		if !ruleAllows(fs, c, cand) {
			continue
		}
		eligible = append(eligible, model.EligibleField{
			Key:          fs.Key,
			Label:        fs.Label,
			Value:        cand.Value,
			DisplayValue: cand.Display,
		})
	}
	return eligible
}

// ruleAllows applies a field's local-eligibility predicate.
func ruleAllows(fs FieldSpec, c *model.Contact, cand model.Candidate) bool {
	switch fs.Storage {
	case StorageFlat:
		local := flatValue(c, fs.Key)
		if fs.Rule == RuleRefresh {
			s, _ := cand.Value.(string)
			return local == "" || local != s
		}
		return local == ""

	case StorageCompanyLink:
		return c.CompanyID == ""

	case StorageCustom:
		existing, present := c.CustomFields[fs.Key]
		if !present {
			return true
		}
		if fs.Rule == RuleFillOrEmpty {
			return isEmptyValue(existing)
		}
		// Fill-only: presence alone blocks, however different the values.
		return false

	default:
		return false
	}
}

// isEmptyValue reports whether a stored custom-field value carries no data.
func isEmptyValue(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case []any:
		return len(t) == 0
	case []string:
		return len(t) == 0
	default:
		return false
	}
}
