package enrich

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/enrich-cli/internal/eps"
	"github.com/sells-group/enrich-cli/internal/model"
	"github.com/sells-group/enrich-cli/internal/store"
)

// MatchQuery identifies a contact for candidate lookup.
type MatchQuery struct {
	FullName    string `json:"full_name,omitempty"`
	Email       string `json:"email,omitempty"`
	CompanyName string `json:"company_name,omitempty"`
}

// MatchProvider supplies ranked candidate profiles from the external
// profile source. Implemented by pkg/peopledata.
type MatchProvider interface {
	Candidates(ctx context.Context, q MatchQuery) ([]model.EPSProfile, error)
	Profile(ctx context.Context, id string) (*model.EPSProfile, error)
}

// Service is the enrichment facade the HTTP layer and CLI commands call.
type Service struct {
	contacts     store.ContactStore
	companies    store.CompanyStore
	provider     MatchProvider
	applier      *Applier
	orchestrator *Orchestrator
}

// NewService wires the enrichment engine over a store and match provider.
func NewService(st store.Store, provider MatchProvider, concurrency int) *Service {
	applier := NewApplier(st, st)
	return &Service{
		contacts:     st,
		companies:    st,
		provider:     provider,
		applier:      applier,
		orchestrator: NewOrchestrator(applier, concurrency),
	}
}

// CandidateMatches returns ranked candidate profiles for a contact.
func (s *Service) CandidateMatches(ctx context.Context, contactID string) ([]model.EPSProfile, error) {
	contact, err := s.contacts.GetContact(ctx, contactID)
	if err != nil {
		return nil, err
	}

	q := MatchQuery{FullName: contact.FullName(), Email: contact.Email}
	if contact.CompanyID != "" {
		if company, err := s.companies.GetCompany(ctx, contact.CompanyID); err == nil {
			q.CompanyName = company.Name
		}
	}

	profiles, err := s.provider.Candidates(ctx, q)
	if err != nil {
		return nil, eris.Wrapf(err, "enrich: candidate lookup for contact %s", contactID)
	}
	return profiles, nil
}

// EligibleFieldsFor normalizes the identified profile and resolves which of
// its fields the contact can take.
func (s *Service) EligibleFieldsFor(ctx context.Context, contactID, profileID string) ([]model.EligibleField, error) {
	contact, err := s.contacts.GetContact(ctx, contactID)
	if err != nil {
		return nil, err
	}
	profile, err := s.provider.Profile(ctx, profileID)
	if err != nil {
		return nil, eris.Wrapf(err, "enrich: fetch profile %s", profileID)
	}
	return EligibleFields(contact, eps.Normalize(*profile)), nil
}

// EnrichOne applies the selected fields of the identified profile to the
// contact.
func (s *Service) EnrichOne(ctx context.Context, contactID, profileID string, selectedKeys []string) (*model.EnrichOutcome, error) {
	profile, err := s.provider.Profile(ctx, profileID)
	if err != nil {
		return nil, eris.Wrapf(err, "enrich: fetch profile %s", profileID)
	}
	return s.applier.Apply(ctx, contactID, *profile, selectedKeys)
}

// EnrichBatch runs the batch orchestrator over caller-chosen pairs.
func (s *Service) EnrichBatch(ctx context.Context, pairs []model.EnrichPair) (*model.BatchResult, error) {
	return s.orchestrator.Run(ctx, pairs)
}

// Applier exposes the underlying applier for callers that already hold a
// full profile document (the auto-enrich batch command).
func (s *Service) Applier() *Applier {
	return s.applier
}
