package enrich

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/enrich-cli/internal/model"
	"github.com/sells-group/enrich-cli/internal/store"
)

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "enrich_test.db"))
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func seedContact(t *testing.T, st store.ContactStore, c *model.Contact) *model.Contact {
	t.Helper()
	require.NoError(t, st.CreateContact(context.Background(), c))
	return c
}

func TestApply_WritesOnlySelectedKeys(t *testing.T) {
	st := newTestStore(t)
	c := seedContact(t, st, &model.Contact{FirstName: "Jo", LastName: "Lee"})

	profile := model.EPSProfile{
		ID:       "eps-1",
		Email:    "jo@zenith.io",
		Phone:    "+14155552671",
		JobTitle: "VP Sales",
	}

	applier := NewApplier(st, st)
	outcome, err := applier.Apply(context.Background(), c.ID, profile, []string{model.FieldPhone})
	require.NoError(t, err)

	assert.Equal(t, []string{model.FieldPhone}, outcome.AppliedKeys)
	assert.Equal(t, "+14155552671", outcome.Contact.Phone)
	assert.Empty(t, outcome.Contact.Email)
	assert.Empty(t, outcome.Contact.JobTitle)
}

func TestApply_SilentlyIgnoresIneligibleSelection(t *testing.T) {
	st := newTestStore(t)
	c := seedContact(t, st, &model.Contact{LastName: "Lee", Phone: "+14155550000"})

	profile := model.EPSProfile{ID: "eps-1", Email: "jo@zenith.io", Phone: "+14155552671"}

	applier := NewApplier(st, st)
	outcome, err := applier.Apply(context.Background(), c.ID, profile,
		[]string{model.FieldPhone, model.FieldEmail})
	require.NoError(t, err)

	assert.Equal(t, []string{model.FieldEmail}, outcome.AppliedKeys)
	assert.Equal(t, "+14155550000", outcome.Contact.Phone)
	assert.Equal(t, "jo@zenith.io", outcome.Contact.Email)
}

func TestApply_EmptySelectionSkipsWrite(t *testing.T) {
	st := newTestStore(t)
	c := seedContact(t, st, &model.Contact{LastName: "Lee"})

	before, err := st.GetContact(context.Background(), c.ID)
	require.NoError(t, err)

	applier := NewApplier(st, st)
	outcome, err := applier.Apply(context.Background(), c.ID,
		model.EPSProfile{ID: "eps-1", Phone: "+14155552671"}, nil)
	require.NoError(t, err)

	assert.Empty(t, outcome.AppliedKeys)
	assert.False(t, outcome.CompanyCreated)
	// The contact still comes back so callers always get a full payload.
	require.NotNil(t, outcome.Contact)
	assert.Equal(t, c.ID, outcome.Contact.ID)

	after, err := st.GetContact(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, before.UpdatedAt, after.UpdatedAt)
}

func TestApply_CreatesAndLinksCompany(t *testing.T) {
	st := newTestStore(t)
	c := seedContact(t, st, &model.Contact{LastName: "Lee"})

	profile := model.EPSProfile{ID: "eps-1", CompanyName: "Zenith Robotics", Industry: "Robotics"}

	applier := NewApplier(st, st)
	outcome, err := applier.Apply(context.Background(), c.ID, profile, []string{model.FieldCompanyName})
	require.NoError(t, err)

	assert.True(t, outcome.CompanyCreated)
	require.NotEmpty(t, outcome.Contact.CompanyID)

	company, err := st.GetCompany(context.Background(), outcome.Contact.CompanyID)
	require.NoError(t, err)
	assert.Equal(t, "Zenith Robotics", company.Name)
	assert.Equal(t, "Robotics", company.Industry)
}

func TestApply_ReusesExistingCompany(t *testing.T) {
	st := newTestStore(t)
	c := seedContact(t, st, &model.Contact{LastName: "Lee"})

	existing := &model.Company{Name: "Acme Corp"}
	require.NoError(t, st.CreateCompany(context.Background(), existing))

	profile := model.EPSProfile{ID: "eps-1", CompanyName: "  acme corp "}

	applier := NewApplier(st, st)
	outcome, err := applier.Apply(context.Background(), c.ID, profile, []string{model.FieldCompanyName})
	require.NoError(t, err)

	assert.False(t, outcome.CompanyCreated)
	assert.Equal(t, existing.ID, outcome.Contact.CompanyID)
}

func TestApply_CompanyInfoCarriesIndustry(t *testing.T) {
	st := newTestStore(t)
	c := seedContact(t, st, &model.Contact{LastName: "Lee"})

	profile := model.EPSProfile{
		ID: "eps-1",
		RawData: map[string]any{
			"experience": []any{
				map[string]any{
					"title":   "VP Sales",
					"company": map[string]any{"name": "Zenith Robotics", "industry": "Industrial Robotics"},
				},
			},
		},
	}

	applier := NewApplier(st, st)
	outcome, err := applier.Apply(context.Background(), c.ID, profile, []string{model.FieldCompanyInfo})
	require.NoError(t, err)

	assert.True(t, outcome.CompanyCreated)
	require.NotEmpty(t, outcome.Contact.CompanyID)

	company, err := st.GetCompany(context.Background(), outcome.Contact.CompanyID)
	require.NoError(t, err)
	assert.Equal(t, "Industrial Robotics", company.Industry)
	assert.Contains(t, outcome.Contact.CustomFields, model.FieldCompanyInfo)
}

func TestApply_LinkedContactKeepsCompany(t *testing.T) {
	st := newTestStore(t)

	company := &model.Company{Name: "Old Employer"}
	require.NoError(t, st.CreateCompany(context.Background(), company))
	c := seedContact(t, st, &model.Contact{LastName: "Lee", CompanyID: company.ID})

	profile := model.EPSProfile{ID: "eps-1", CompanyName: "Zenith Robotics"}

	applier := NewApplier(st, st)
	outcome, err := applier.Apply(context.Background(), c.ID, profile, []string{model.FieldCompanyName})
	require.NoError(t, err)

	assert.Empty(t, outcome.AppliedKeys)
	assert.Equal(t, company.ID, outcome.Contact.CompanyID)
}

// conflictCompanies simulates losing the company create race: the first
// lookup misses, the create hits the uniqueness constraint, and the
// re-fetch finds the winner's row.
type conflictCompanies struct {
	store.CompanyStore
	finds int
}

func (s *conflictCompanies) FindCompanyByName(ctx context.Context, name string) (*model.Company, error) {
	s.finds++
	if s.finds == 1 {
		return nil, nil
	}
	return s.CompanyStore.FindCompanyByName(ctx, name)
}

func (s *conflictCompanies) CreateCompany(ctx context.Context, c *model.Company) error {
	return store.ErrConflict
}

func TestApply_CompanyConflictDegradesToRefetch(t *testing.T) {
	st := newTestStore(t)
	c := seedContact(t, st, &model.Contact{LastName: "Lee"})

	winner := &model.Company{Name: "Zenith Robotics"}
	require.NoError(t, st.CreateCompany(context.Background(), winner))

	companies := &conflictCompanies{CompanyStore: st}
	applier := NewApplier(st, companies)

	outcome, err := applier.Apply(context.Background(), c.ID,
		model.EPSProfile{ID: "eps-1", CompanyName: "Zenith Robotics"},
		[]string{model.FieldCompanyName})
	require.NoError(t, err)

	assert.False(t, outcome.CompanyCreated)
	assert.Equal(t, winner.ID, outcome.Contact.CompanyID)
	assert.Equal(t, 2, companies.finds)
}

func TestApply_ContactNotFound(t *testing.T) {
	st := newTestStore(t)
	applier := NewApplier(st, st)

	_, err := applier.Apply(context.Background(), "missing",
		model.EPSProfile{ID: "eps-1"}, []string{model.FieldPhone})
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestApply_FullScenario(t *testing.T) {
	st := newTestStore(t)
	c := seedContact(t, st, &model.Contact{FirstName: "Jo", LastName: "Lee", JobTitle: "AE"})

	profile := model.EPSProfile{
		ID:          "eps-1",
		Email:       "jo@zenith.io",
		Phone:       "(415) 555-2671",
		JobTitle:    "VP Sales",
		CompanyName: "Zenith Robotics",
		Skills:      []string{"Sales", "CRM"},
	}

	applier := NewApplier(st, st)
	outcome, err := applier.Apply(context.Background(), c.ID, profile, []string{
		model.FieldPhone,
		model.FieldEmail,
		model.FieldJobTitle,
		model.FieldCompanyName,
		model.FieldSkills,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		model.FieldPhone,
		model.FieldEmail,
		model.FieldJobTitle,
		model.FieldCompanyName,
		model.FieldSkills,
	}, outcome.AppliedKeys)

	got := outcome.Contact
	assert.Equal(t, "+14155552671", got.Phone)
	assert.Equal(t, "jo@zenith.io", got.Email)
	assert.Equal(t, "VP Sales", got.JobTitle)
	assert.NotEmpty(t, got.CompanyID)
	assert.ElementsMatch(t, []any{"Sales", "CRM"}, got.CustomFields[model.FieldSkills])

	// A second apply against the same profile finds nothing left to take.
	again, err := applier.Apply(context.Background(), c.ID, profile, []string{
		model.FieldPhone, model.FieldEmail, model.FieldJobTitle,
		model.FieldCompanyName, model.FieldSkills,
	})
	require.NoError(t, err)
	assert.Empty(t, again.AppliedKeys)
}
