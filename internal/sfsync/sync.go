// Package sfsync pushes enriched contact records back to Salesforce.
package sfsync

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/enrich-cli/internal/model"
	"github.com/sells-group/enrich-cli/internal/store"
	"github.com/sells-group/enrich-cli/pkg/salesforce"
)

// contactFieldMap maps Salesforce Contact field names to extractors over the
// local contact record. Empty values are skipped so the sync never blanks a
// field Salesforce already holds.
var contactFieldMap = map[string]func(*model.Contact) any{
	"FirstName":       func(c *model.Contact) any { return c.FirstName },
	"LastName":        func(c *model.Contact) any { return c.LastName },
	"Email":           func(c *model.Contact) any { return c.Email },
	"Phone":           func(c *model.Contact) any { return c.Phone },
	"Title":           func(c *model.Contact) any { return c.JobTitle },
	"LinkedIn_URL__c": func(c *model.Contact) any { return c.LinkedInURL },
}

// Result summarizes one sync run.
type Result struct {
	Updated int      `json:"updated"`
	Created int      `json:"created"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors,omitempty"`
}

// Syncer mirrors locally enriched contacts into Salesforce, matching on
// email. Contacts with no Salesforce counterpart are created, linked to an
// Account resolved (or created) from the local company record.
type Syncer struct {
	sf        salesforce.Client
	contacts  store.ContactStore
	companies store.CompanyStore
}

// NewSyncer builds a Syncer over a Salesforce client and the local store.
func NewSyncer(sf salesforce.Client, st store.Store) *Syncer {
	return &Syncer{sf: sf, contacts: st, companies: st}
}

// ValidateFields checks that every mapped Contact field exists in the target
// org and is updateable. Run once at startup so a missing custom field fails
// loudly instead of erroring on every push.
func (s *Syncer) ValidateFields(ctx context.Context) error {
	desc, err := s.sf.DescribeSObject(ctx, "Contact")
	if err != nil {
		return eris.Wrap(err, "sfsync: describe Contact")
	}

	updateable := make(map[string]bool, len(desc.Fields))
	for _, f := range desc.Fields {
		updateable[f.Name] = f.Updateable
	}

	for name := range contactFieldMap {
		ok, found := updateable[name]
		if !found {
			return eris.Errorf("sfsync: Contact field %s missing from org", name)
		}
		if !ok {
			return eris.Errorf("sfsync: Contact field %s is not updateable", name)
		}
	}
	return nil
}

// PushContact mirrors a single local contact into Salesforce and returns the
// Salesforce record ID.
func (s *Syncer) PushContact(ctx context.Context, contactID string) (string, error) {
	contact, err := s.contacts.GetContact(ctx, contactID)
	if err != nil {
		return "", err
	}
	if contact.Email == "" {
		return "", eris.Errorf("sfsync: contact %s has no email to match on", contactID)
	}

	existing, err := salesforce.FindContactByEmail(ctx, s.sf, contact.Email)
	if err != nil {
		return "", err
	}

	fields := s.fieldsFor(contact)
	if existing != nil {
		if err := salesforce.UpdateContact(ctx, s.sf, existing.ID, fields); err != nil {
			return "", err
		}
		zap.L().Info("synced contact to salesforce",
			zap.String("contact_id", contactID),
			zap.String("sf_id", existing.ID),
		)
		return existing.ID, nil
	}

	accountID, err := s.resolveAccount(ctx, contact)
	if err != nil {
		return "", err
	}
	sfID, err := salesforce.CreateContact(ctx, s.sf, accountID, fields)
	if err != nil {
		return "", err
	}
	zap.L().Info("created contact in salesforce",
		zap.String("contact_id", contactID),
		zap.String("sf_id", sfID),
	)
	return sfID, nil
}

// PushBatch mirrors many contacts. Contacts that already exist in Salesforce
// are collected into bulk collection updates; the rest are created one by
// one. Per-contact failures are recorded and do not stop the run.
func (s *Syncer) PushBatch(ctx context.Context, contactIDs []string) (*Result, error) {
	if len(contactIDs) == 0 {
		return nil, eris.New("sfsync: empty batch")
	}

	result := &Result{}
	var updates []salesforce.ContactUpdate

	for _, id := range contactIDs {
		contact, err := s.contacts.GetContact(ctx, id)
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %s", id, err.Error()))
			continue
		}
		if contact.Email == "" {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: no email to match on", id))
			continue
		}

		existing, err := salesforce.FindContactByEmail(ctx, s.sf, contact.Email)
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %s", id, err.Error()))
			continue
		}

		if existing != nil {
			updates = append(updates, salesforce.ContactUpdate{ID: existing.ID, Fields: s.fieldsFor(contact)})
			continue
		}

		accountID, err := s.resolveAccount(ctx, contact)
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %s", id, err.Error()))
			continue
		}
		if _, err := salesforce.CreateContact(ctx, s.sf, accountID, s.fieldsFor(contact)); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %s", id, err.Error()))
			continue
		}
		result.Created++
	}

	if len(updates) > 0 {
		collResults, err := salesforce.BulkUpdateContacts(ctx, s.sf, updates)
		if err != nil {
			return result, err
		}
		for _, r := range collResults {
			if r.Success {
				result.Updated++
			} else {
				result.Failed++
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", r.ID, r.Errors))
			}
		}
	}

	zap.L().Info("salesforce batch sync finished",
		zap.Int("updated", result.Updated),
		zap.Int("created", result.Created),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

// resolveAccount finds or creates the Salesforce Account for the contact's
// company. Unlinked contacts get an empty account ID.
func (s *Syncer) resolveAccount(ctx context.Context, contact *model.Contact) (string, error) {
	if contact.CompanyID == "" {
		return "", nil
	}
	company, err := s.companies.GetCompany(ctx, contact.CompanyID)
	if err != nil {
		return "", eris.Wrapf(err, "sfsync: load company %s", contact.CompanyID)
	}

	account, err := salesforce.FindAccountByName(ctx, s.sf, company.Name)
	if err != nil {
		return "", err
	}
	if account != nil {
		return account.ID, nil
	}

	fields := map[string]any{"Name": company.Name}
	if company.Industry != "" {
		fields["Industry"] = company.Industry
	}
	return salesforce.CreateAccount(ctx, s.sf, fields)
}

func (s *Syncer) fieldsFor(contact *model.Contact) map[string]any {
	fields := make(map[string]any, len(contactFieldMap))
	for name, get := range contactFieldMap {
		if v := get(contact); v != "" {
			fields[name] = v
		}
	}
	return fields
}
