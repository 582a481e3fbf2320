// Package store defines persistence contracts for contacts and companies,
// with SQLite and Postgres implementations.
package store

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"

	"github.com/sells-group/enrich-cli/internal/model"
)

// ErrNotFound marks lookups for records that do not exist.
var ErrNotFound = eris.New("store: not found")

// ErrConflict marks writes rejected by a uniqueness constraint. The applier
// treats a company-name conflict as "someone else just created it" and
// re-fetches rather than failing.
var ErrConflict = eris.New("store: conflict")

// ContactFilter narrows ListContacts.
type ContactFilter struct {
	CompanyID string `json:"company_id,omitempty"`
	// MissingEmail selects contacts with an empty email column (the usual
	// candidates for enrichment).
	MissingEmail bool `json:"missing_email,omitempty"`
	Limit        int  `json:"limit,omitempty"`
	Offset       int  `json:"offset,omitempty"`
}

// ContactStore is the read/write contract the enrichment core runs against.
type ContactStore interface {
	CreateContact(ctx context.Context, c *model.Contact) error
	GetContact(ctx context.Context, id string) (*model.Contact, error)
	GetContactByEmail(ctx context.Context, email string) (*model.Contact, error)
	// UpdateContact applies the patch atomically and returns the stored
	// record. The result reflects exactly the patch writes, nothing else.
	UpdateContact(ctx context.Context, id string, patch model.ContactPatch) (*model.Contact, error)
	ListContacts(ctx context.Context, filter ContactFilter) ([]model.Contact, error)
}

// CompanyStore is the company lookup/creation contract. FindCompanyByName
// matches on the trimmed, casefolded name and returns (nil, nil) on a miss.
type CompanyStore interface {
	CreateCompany(ctx context.Context, c *model.Company) error
	GetCompany(ctx context.Context, id string) (*model.Company, error)
	FindCompanyByName(ctx context.Context, name string) (*model.Company, error)
}

// Store is the combined persistence interface plus lifecycle.
type Store interface {
	ContactStore
	CompanyStore
	Migrate(ctx context.Context) error
	Close() error
}

var foldCaser = cases.Fold()

// NormalizeCompanyName produces the canonical comparison form of a company
// name: whitespace-trimmed and Unicode-casefolded. Uniqueness of companies
// is defined over this form.
func NormalizeCompanyName(name string) string {
	return foldCaser.String(strings.TrimSpace(name))
}
