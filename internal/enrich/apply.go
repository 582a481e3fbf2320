package enrich

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/enrich-cli/internal/eps"
	"github.com/sells-group/enrich-cli/internal/model"
	"github.com/sells-group/enrich-cli/internal/store"
)

// Applier performs the single-contact merge: it writes a caller-selected
// subset of eligible fields into the contact and resolves the company link
// when a company-bearing field is among them.
type Applier struct {
	contacts  store.ContactStore
	companies store.CompanyStore
}

// NewApplier creates an applier over the given stores.
func NewApplier(contacts store.ContactStore, companies store.CompanyStore) *Applier {
	return &Applier{contacts: contacts, companies: companies}
}

// Apply merges the selected fields of profile into the contact.
//
// Selected keys outside the currently-eligible set are silently ignored:
// the UI only ever sends eligible keys, and ignoring stale selections keeps
// retried applies idempotent. Company resolution happens before the single
// contact write, so an aborted contact update can never leave the contact
// pointing at a company that was not created.
func (a *Applier) Apply(ctx context.Context, contactID string, profile model.EPSProfile, selectedKeys []string) (*model.EnrichOutcome, error) {
	contact, err := a.contacts.GetContact(ctx, contactID)
	if err != nil {
		return nil, err
	}

	normalized := eps.Normalize(profile)
	eligible := EligibleFields(contact, normalized)

	selected := make(map[string]bool, len(selectedKeys))
	for _, k := range selectedKeys {
		selected[k] = true
	}

	patch := model.ContactPatch{}
	var applied []string
	companyCreated := false

	for _, ef := range eligible {
		if !selected[ef.Key] {
			continue
		}
		fs, ok := specFor(ef.Key)
		if !ok {
			continue
		}

		if fs.LinksCompany && contact.CompanyID == "" && patch.CompanyID == nil {
			name, industry := companyCandidate(ef, profile)
			if name != "" {
				id, created, err := a.resolveCompany(ctx, name, industry)
				if err != nil {
					return nil, err
				}
				patch.CompanyID = &id
				companyCreated = created
			}
		}

		switch fs.Storage {
		case StorageFlat:
			if s, ok := ef.Value.(string); ok {
				setFlat(&patch, ef.Key, s)
			}
		case StorageCustom:
			if patch.CustomFields == nil {
				patch.CustomFields = map[string]any{}
			}
			patch.CustomFields[ef.Key] = ef.Value
		case StorageCompanyLink:
			// Link handled above; nothing else to write.
		}
		applied = append(applied, ef.Key)
	}

	if patch.IsEmpty() {
		return &model.EnrichOutcome{Contact: contact, AppliedKeys: applied}, nil
	}

	updated, err := a.contacts.UpdateContact(ctx, contactID, patch)
	if err != nil {
		return nil, err
	}

	zap.L().Info("enrichment applied",
		zap.String("contact_id", contactID),
		zap.String("profile_id", profile.ID),
		zap.Strings("fields", applied),
		zap.Bool("company_created", companyCreated),
	)

	return &model.EnrichOutcome{
		Contact:        updated,
		CompanyCreated: companyCreated,
		AppliedKeys:    applied,
	}, nil
}

// resolveCompany looks up an existing company by normalized name, creating
// one with the original casing on a miss. A uniqueness conflict means a
// concurrent apply won the create race, so it degrades to a re-fetch.
// Exactly one lookup-or-create happens per Apply call.
func (a *Applier) resolveCompany(ctx context.Context, name, industry string) (string, bool, error) {
	existing, err := a.companies.FindCompanyByName(ctx, name)
	if err != nil {
		return "", false, err
	}
	if existing != nil {
		zap.L().Debug("company matched",
			zap.String("name", name),
			zap.String("company_id", existing.ID),
		)
		return existing.ID, false, nil
	}

	company := &model.Company{Name: strings.TrimSpace(name), Industry: industry}
	if err := a.companies.CreateCompany(ctx, company); err != nil {
		if eris.Is(err, store.ErrConflict) {
			again, ferr := a.companies.FindCompanyByName(ctx, name)
			if ferr == nil && again != nil {
				return again.ID, false, nil
			}
			return "", false, err
		}
		return "", false, err
	}

	zap.L().Info("company created",
		zap.String("name", company.Name),
		zap.String("company_id", company.ID),
	)
	return company.ID, true, nil
}

// companyCandidate extracts the company name and industry a company-bearing
// field carries. companyInfo is the richer record; companyName falls back to
// the profile's top-level industry.
func companyCandidate(ef model.EligibleField, profile model.EPSProfile) (name, industry string) {
	if info, ok := ef.Value.(model.CompanyInfo); ok {
		industry = info.Industry
		if industry == "" {
			industry = profile.Industry
		}
		return info.Name, industry
	}
	if s, ok := ef.Value.(string); ok {
		return s, profile.Industry
	}
	return "", ""
}

func setFlat(p *model.ContactPatch, key, val string) {
	switch key {
	case model.FieldPhone:
		p.Phone = &val
	case model.FieldEmail:
		p.Email = &val
	case model.FieldJobTitle:
		p.JobTitle = &val
	case model.FieldLinkedInURL:
		p.LinkedInURL = &val
	case model.FieldTwitterHandle:
		p.TwitterHandle = &val
	}
}
