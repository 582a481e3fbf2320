package sfsync

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/enrich-cli/internal/model"
	"github.com/sells-group/enrich-cli/internal/store"
	"github.com/sells-group/enrich-cli/pkg/salesforce"
)

type mockSF struct {
	queryFn            func(ctx context.Context, soql string, out any) error
	insertOneFn        func(ctx context.Context, sObjectName string, record map[string]any) (string, error)
	updateOneFn        func(ctx context.Context, sObjectName string, id string, fields map[string]any) error
	updateCollectionFn func(ctx context.Context, sObjectName string, records []salesforce.CollectionRecord) ([]salesforce.CollectionResult, error)
	describeFn         func(ctx context.Context, name string) (*salesforce.SObjectDescription, error)
}

func (m *mockSF) Query(ctx context.Context, soql string, out any) error {
	if m.queryFn != nil {
		return m.queryFn(ctx, soql, out)
	}
	return nil
}

func (m *mockSF) InsertOne(ctx context.Context, sObjectName string, record map[string]any) (string, error) {
	if m.insertOneFn != nil {
		return m.insertOneFn(ctx, sObjectName, record)
	}
	return "003NEW", nil
}

func (m *mockSF) UpdateOne(ctx context.Context, sObjectName string, id string, fields map[string]any) error {
	if m.updateOneFn != nil {
		return m.updateOneFn(ctx, sObjectName, id, fields)
	}
	return nil
}

func (m *mockSF) UpdateCollection(ctx context.Context, sObjectName string, records []salesforce.CollectionRecord) ([]salesforce.CollectionResult, error) {
	if m.updateCollectionFn != nil {
		return m.updateCollectionFn(ctx, sObjectName, records)
	}
	results := make([]salesforce.CollectionResult, len(records))
	for i, r := range records {
		results[i] = salesforce.CollectionResult{ID: r.ID, Success: true}
	}
	return results, nil
}

func (m *mockSF) DescribeSObject(ctx context.Context, name string) (*salesforce.SObjectDescription, error) {
	if m.describeFn != nil {
		return m.describeFn(ctx, name)
	}
	return &salesforce.SObjectDescription{Name: name}, nil
}

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "sync_test.db"))
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func seedContact(t *testing.T, st *store.SQLiteStore, c *model.Contact) *model.Contact {
	t.Helper()
	require.NoError(t, st.CreateContact(context.Background(), c))
	return c
}

func TestValidateFields(t *testing.T) {
	t.Run("all present and updateable", func(t *testing.T) {
		sf := &mockSF{
			describeFn: func(_ context.Context, name string) (*salesforce.SObjectDescription, error) {
				fields := make([]salesforce.SObjectField, 0, len(contactFieldMap))
				for n := range contactFieldMap {
					fields = append(fields, salesforce.SObjectField{Name: n, Updateable: true})
				}
				return &salesforce.SObjectDescription{Name: name, Fields: fields}, nil
			},
		}
		s := NewSyncer(sf, newTestStore(t))
		require.NoError(t, s.ValidateFields(context.Background()))
	})

	t.Run("missing custom field", func(t *testing.T) {
		sf := &mockSF{
			describeFn: func(_ context.Context, name string) (*salesforce.SObjectDescription, error) {
				return &salesforce.SObjectDescription{Name: name, Fields: []salesforce.SObjectField{
					{Name: "FirstName", Updateable: true},
					{Name: "LastName", Updateable: true},
					{Name: "Email", Updateable: true},
					{Name: "Phone", Updateable: true},
					{Name: "Title", Updateable: true},
				}}, nil
			},
		}
		s := NewSyncer(sf, newTestStore(t))
		err := s.ValidateFields(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "LinkedIn_URL__c")
	})
}

func TestPushContact_UpdatesExisting(t *testing.T) {
	st := newTestStore(t)
	contact := seedContact(t, st, &model.Contact{
		FirstName: "Jo",
		LastName:  "Lee",
		Email:     "jo@zenith.io",
		JobTitle:  "VP Sales",
	})

	var updatedID string
	var updatedFields map[string]any
	sf := &mockSF{
		queryFn: func(_ context.Context, _ string, out any) error {
			contacts := out.(*[]salesforce.Contact)
			*contacts = []salesforce.Contact{{ID: "003EXIST", Email: "jo@zenith.io"}}
			return nil
		},
		updateOneFn: func(_ context.Context, _ string, id string, fields map[string]any) error {
			updatedID = id
			updatedFields = fields
			return nil
		},
	}

	s := NewSyncer(sf, st)
	sfID, err := s.PushContact(context.Background(), contact.ID)
	require.NoError(t, err)
	assert.Equal(t, "003EXIST", sfID)
	assert.Equal(t, "003EXIST", updatedID)
	assert.Equal(t, "VP Sales", updatedFields["Title"])
	// Empty local values never reach Salesforce.
	assert.NotContains(t, updatedFields, "Phone")
}

func TestPushContact_CreatesWithAccount(t *testing.T) {
	st := newTestStore(t)
	company := &model.Company{Name: "Zenith Robotics", Industry: "Robotics"}
	require.NoError(t, st.CreateCompany(context.Background(), company))
	contact := seedContact(t, st, &model.Contact{
		LastName:  "Lee",
		Email:     "jo@zenith.io",
		CompanyID: company.ID,
	})

	var insertedObjects []string
	var contactFields map[string]any
	sf := &mockSF{
		// No existing contact, no existing account.
		insertOneFn: func(_ context.Context, sObject string, record map[string]any) (string, error) {
			insertedObjects = append(insertedObjects, sObject)
			if sObject == "Account" {
				return "001NEW", nil
			}
			contactFields = record
			return "003NEW", nil
		},
	}

	s := NewSyncer(sf, st)
	sfID, err := s.PushContact(context.Background(), contact.ID)
	require.NoError(t, err)
	assert.Equal(t, "003NEW", sfID)
	assert.Equal(t, []string{"Account", "Contact"}, insertedObjects)
	assert.Equal(t, "001NEW", contactFields["AccountId"])
}

func TestPushContact_NoEmail(t *testing.T) {
	st := newTestStore(t)
	contact := seedContact(t, st, &model.Contact{LastName: "Lee"})

	s := NewSyncer(&mockSF{}, st)
	_, err := s.PushContact(context.Background(), contact.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no email")
}

func TestPushBatch(t *testing.T) {
	st := newTestStore(t)
	existing := seedContact(t, st, &model.Contact{LastName: "Lee", Email: "jo@zenith.io"})
	fresh := seedContact(t, st, &model.Contact{LastName: "Chen", Email: "ana@acme.com"})
	broken := seedContact(t, st, &model.Contact{LastName: "Park"})

	sf := &mockSF{
		queryFn: func(_ context.Context, soql string, out any) error {
			// Only Jo exists in the org.
			if contacts, ok := out.(*[]salesforce.Contact); ok && strings.Contains(soql, "jo@zenith.io") {
				*contacts = []salesforce.Contact{{ID: "003EXIST", Email: "jo@zenith.io"}}
			}
			return nil
		},
	}

	s := NewSyncer(sf, st)
	result, err := s.PushBatch(context.Background(), []string{existing.ID, fresh.ID, broken.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], broken.ID)
}

func TestPushBatch_Empty(t *testing.T) {
	s := NewSyncer(&mockSF{}, newTestStore(t))
	_, err := s.PushBatch(context.Background(), nil)
	require.Error(t, err)
}

func TestPushBatch_BulkFailureRecorded(t *testing.T) {
	st := newTestStore(t)
	contact := seedContact(t, st, &model.Contact{LastName: "Lee", Email: "jo@zenith.io"})

	sf := &mockSF{
		queryFn: func(_ context.Context, _ string, out any) error {
			contacts := out.(*[]salesforce.Contact)
			*contacts = []salesforce.Contact{{ID: "003EXIST", Email: "jo@zenith.io"}}
			return nil
		},
		updateCollectionFn: func(_ context.Context, _ string, records []salesforce.CollectionRecord) ([]salesforce.CollectionResult, error) {
			return []salesforce.CollectionResult{
				{ID: records[0].ID, Success: false, Errors: []string{"FIELD_INTEGRITY_EXCEPTION"}},
			}, nil
		},
	}

	s := NewSyncer(sf, st)
	result, err := s.PushBatch(context.Background(), []string{contact.ID})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Updated)
	assert.Equal(t, 1, result.Failed)
	assert.Contains(t, result.Errors[0], "FIELD_INTEGRITY_EXCEPTION")
}

func TestResolveAccount_ReusesExisting(t *testing.T) {
	st := newTestStore(t)
	company := &model.Company{Name: "Zenith Robotics"}
	require.NoError(t, st.CreateCompany(context.Background(), company))
	contact := seedContact(t, st, &model.Contact{LastName: "Lee", Email: "jo@zenith.io", CompanyID: company.ID})

	var inserted []string
	sf := &mockSF{
		queryFn: func(_ context.Context, _ string, out any) error {
			if accounts, ok := out.(*[]salesforce.Account); ok {
				*accounts = []salesforce.Account{{ID: "001EXIST", Name: "Zenith Robotics"}}
			}
			return nil
		},
		insertOneFn: func(_ context.Context, sObject string, _ map[string]any) (string, error) {
			inserted = append(inserted, sObject)
			return "003NEW", nil
		},
	}

	s := NewSyncer(sf, st)
	_, err := s.PushContact(context.Background(), contact.ID)
	require.NoError(t, err)
	// Only the contact is inserted; the account is reused.
	assert.Equal(t, []string{"Contact"}, inserted)
}

func TestPushContact_AccountLookupError(t *testing.T) {
	st := newTestStore(t)
	company := &model.Company{Name: "Zenith Robotics"}
	require.NoError(t, st.CreateCompany(context.Background(), company))
	contact := seedContact(t, st, &model.Contact{LastName: "Lee", Email: "jo@zenith.io", CompanyID: company.ID})

	sf := &mockSF{
		queryFn: func(_ context.Context, soql string, out any) error {
			if _, ok := out.(*[]salesforce.Account); ok {
				return errors.New("api down")
			}
			return nil
		},
	}

	s := NewSyncer(sf, st)
	_, err := s.PushContact(context.Background(), contact.ID)
	require.Error(t, err)
}
