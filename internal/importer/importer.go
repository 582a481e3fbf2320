package importer

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/enrich-cli/internal/model"
	"github.com/sells-group/enrich-cli/internal/store"
)

// Summary reports the outcome of one import run.
type Summary struct {
	Created int      `json:"created"`
	Updated int      `json:"updated"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors,omitempty"`
}

// Importer upserts contacts from spreadsheet rows, keyed on email.
type Importer struct {
	contacts  store.ContactStore
	companies store.CompanyStore
	mapping   Mapping
}

// New builds an Importer over the store with the given column mapping.
func New(st store.Store, mapping Mapping) *Importer {
	return &Importer{contacts: st, companies: st, mapping: mapping}
}

// Run imports the file at path. Rows without an email are skipped; rows that
// fail to persist are recorded and do not stop the run. Existing contacts
// (matched by email) get their empty fields filled, never overwritten.
func (im *Importer) Run(ctx context.Context, path string) (*Summary, error) {
	if err := im.mapping.validate(); err != nil {
		return nil, err
	}

	header, rows, err := ReadRows(path)
	if err != nil {
		return nil, err
	}

	targets := im.mapping.columnTargets(header)
	summary := &Summary{}

	for i, row := range rows {
		values := rowValues(targets, row)
		email := values[model.FieldEmail]
		if email == "" {
			summary.Skipped++
			continue
		}

		if err := im.upsert(ctx, values, summary); err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("row %d (%s): %s", i+2, email, err.Error()))
		}
	}

	zap.L().Info("import finished",
		zap.String("file", path),
		zap.Int("created", summary.Created),
		zap.Int("updated", summary.Updated),
		zap.Int("skipped", summary.Skipped),
		zap.Int("errors", len(summary.Errors)),
	)
	return summary, nil
}

func (im *Importer) upsert(ctx context.Context, values map[string]string, summary *Summary) error {
	email := values[model.FieldEmail]

	existing, err := im.contacts.GetContactByEmail(ctx, email)
	switch {
	case err == nil:
		return im.fillExisting(ctx, existing, values, summary)
	case eris.Is(err, store.ErrNotFound):
		return im.create(ctx, values, summary)
	default:
		return err
	}
}

func (im *Importer) create(ctx context.Context, values map[string]string, summary *Summary) error {
	contact := &model.Contact{
		FirstName:     values["firstName"],
		LastName:      values["lastName"],
		Email:         values[model.FieldEmail],
		Phone:         values[model.FieldPhone],
		JobTitle:      values[model.FieldJobTitle],
		LinkedInURL:   values[model.FieldLinkedInURL],
		TwitterHandle: values[model.FieldTwitterHandle],
	}

	companyID, err := im.resolveCompany(ctx, values[model.FieldCompanyName])
	if err != nil {
		return err
	}
	contact.CompanyID = companyID

	if err := im.contacts.CreateContact(ctx, contact); err != nil {
		return err
	}
	summary.Created++
	return nil
}

// fillExisting patches only the columns the stored contact is missing. The
// import never clobbers data that is already there.
func (im *Importer) fillExisting(ctx context.Context, contact *model.Contact, values map[string]string, summary *Summary) error {
	var patch model.ContactPatch

	if contact.Phone == "" && values[model.FieldPhone] != "" {
		patch.Phone = ptr(values[model.FieldPhone])
	}
	if contact.JobTitle == "" && values[model.FieldJobTitle] != "" {
		patch.JobTitle = ptr(values[model.FieldJobTitle])
	}
	if contact.LinkedInURL == "" && values[model.FieldLinkedInURL] != "" {
		patch.LinkedInURL = ptr(values[model.FieldLinkedInURL])
	}
	if contact.TwitterHandle == "" && values[model.FieldTwitterHandle] != "" {
		patch.TwitterHandle = ptr(values[model.FieldTwitterHandle])
	}
	if contact.CompanyID == "" && values[model.FieldCompanyName] != "" {
		companyID, err := im.resolveCompany(ctx, values[model.FieldCompanyName])
		if err != nil {
			return err
		}
		if companyID != "" {
			patch.CompanyID = ptr(companyID)
		}
	}

	if patch.IsEmpty() {
		summary.Skipped++
		return nil
	}
	if _, err := im.contacts.UpdateContact(ctx, contact.ID, patch); err != nil {
		return err
	}
	summary.Updated++
	return nil
}

// resolveCompany finds or creates the company for a raw spreadsheet name.
// A create that loses a race to a concurrent insert falls back to lookup.
func (im *Importer) resolveCompany(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", nil
	}

	company, err := im.companies.FindCompanyByName(ctx, name)
	if err != nil {
		return "", err
	}
	if company != nil {
		return company.ID, nil
	}

	fresh := &model.Company{Name: name}
	if err := im.companies.CreateCompany(ctx, fresh); err != nil {
		if eris.Is(err, store.ErrConflict) {
			winner, ferr := im.companies.FindCompanyByName(ctx, name)
			if ferr != nil {
				return "", ferr
			}
			if winner != nil {
				return winner.ID, nil
			}
		}
		return "", err
	}
	return fresh.ID, nil
}

func rowValues(targets []string, row []string) map[string]string {
	values := make(map[string]string, len(targets))
	for i, target := range targets {
		if target == "" || i >= len(row) {
			continue
		}
		if v := strings.TrimSpace(row[i]); v != "" {
			values[target] = v
		}
	}
	return values
}

func ptr(s string) *string { return &s }
