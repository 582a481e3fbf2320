// Package importer loads contacts into the store from CSV and XLSX exports.
package importer

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/enrich-cli/internal/model"
)

// Mapping describes how spreadsheet columns map onto contact fields.
// Column headers are matched case-insensitively after trimming.
type Mapping struct {
	// Columns maps a column header to a contact field target.
	Columns map[string]string `yaml:"columns"`
}

// validTargets are the contact fields an import column may write to.
var validTargets = map[string]bool{
	"firstName":              true,
	"lastName":               true,
	model.FieldEmail:         true,
	model.FieldPhone:         true,
	model.FieldJobTitle:      true,
	model.FieldLinkedInURL:   true,
	model.FieldTwitterHandle: true,
	model.FieldCompanyName:   true,
}

// DefaultMapping covers the column headers of a stock CRM contact export.
func DefaultMapping() Mapping {
	return Mapping{
		Columns: map[string]string{
			"First Name":   "firstName",
			"Last Name":    "lastName",
			"Email":        model.FieldEmail,
			"Phone":        model.FieldPhone,
			"Job Title":    model.FieldJobTitle,
			"LinkedIn URL": model.FieldLinkedInURL,
			"Company":      model.FieldCompanyName,
		},
	}
}

// LoadMapping reads a column mapping from a YAML file.
func LoadMapping(path string) (Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Mapping{}, eris.Wrapf(err, "importer: read mapping %s", path)
	}

	// The YAML has a top-level "mapping" key.
	var wrapper struct {
		Mapping Mapping `yaml:"mapping"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return Mapping{}, eris.Wrap(err, "importer: parse mapping")
	}

	m := wrapper.Mapping
	if err := m.validate(); err != nil {
		return Mapping{}, err
	}
	return m, nil
}

func (m Mapping) validate() error {
	if len(m.Columns) == 0 {
		return eris.New("importer: mapping has no columns")
	}

	var hasEmail bool
	for header, target := range m.Columns {
		if !validTargets[target] {
			return eris.Errorf("importer: column %q maps to unknown field %q", header, target)
		}
		if target == model.FieldEmail {
			hasEmail = true
		}
	}
	if !hasEmail {
		return eris.New("importer: mapping must include an email column")
	}
	return nil
}

// columnTargets resolves a header row to per-column field targets. Columns
// with no mapping entry get an empty target and are ignored.
func (m Mapping) columnTargets(header []string) []string {
	normalized := make(map[string]string, len(m.Columns))
	for h, target := range m.Columns {
		normalized[strings.ToLower(strings.TrimSpace(h))] = target
	}

	targets := make([]string, len(header))
	for i, h := range header {
		targets[i] = normalized[strings.ToLower(strings.TrimSpace(h))]
	}
	return targets
}
