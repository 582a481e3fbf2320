package enrich

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/enrich-cli/internal/model"
	"github.com/sells-group/enrich-cli/internal/store"
)

func TestRun_MixedOutcomes(t *testing.T) {
	st := newTestStore(t)

	pairs := make([]model.EnrichPair, 0, 5)
	for i := 0; i < 4; i++ {
		c := seedContact(t, st, &model.Contact{LastName: fmt.Sprintf("Contact%d", i)})
		pairs = append(pairs, model.EnrichPair{
			ContactID:    c.ID,
			Profile:      model.EPSProfile{ID: fmt.Sprintf("eps-%d", i), Phone: "+14155552671"},
			SelectedKeys: []string{model.FieldPhone},
		})
	}
	pairs = append(pairs, model.EnrichPair{
		ContactID:    "missing-contact",
		Profile:      model.EPSProfile{ID: "eps-x", Phone: "+14155552671"},
		SelectedKeys: []string{model.FieldPhone},
	})

	orch := NewOrchestrator(NewApplier(st, st), 3)
	result, err := orch.Run(context.Background(), pairs)
	require.NoError(t, err)

	assert.Equal(t, 4, result.Succeeded)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, len(pairs), result.Succeeded+result.Failed)
	assert.Len(t, result.UpdatedContacts, 4)
	require.Len(t, result.Errors, 1)
	assert.True(t, strings.HasPrefix(result.Errors[0], "missing-contact: "))
}

func TestRun_EmptyBatch(t *testing.T) {
	st := newTestStore(t)
	orch := NewOrchestrator(NewApplier(st, st), 2)

	_, err := orch.Run(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty batch")
}

func TestRun_DuplicateContactProcessedOnce(t *testing.T) {
	st := newTestStore(t)
	c := seedContact(t, st, &model.Contact{LastName: "Lee"})

	pairs := []model.EnrichPair{
		{
			ContactID:    c.ID,
			Profile:      model.EPSProfile{ID: "eps-1", Phone: "+14155552671"},
			SelectedKeys: []string{model.FieldPhone},
		},
		{
			ContactID:    c.ID,
			Profile:      model.EPSProfile{ID: "eps-2", Phone: "+14155559999"},
			SelectedKeys: []string{model.FieldPhone},
		},
	}

	orch := NewOrchestrator(NewApplier(st, st), 2)
	result, err := orch.Run(context.Background(), pairs)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Succeeded)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, c.ID+": duplicate contact in batch", result.Errors[0])

	got, err := st.GetContact(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, "+14155552671", got.Phone)
}

func TestRun_CompanyCreatedCountedOncePerCreate(t *testing.T) {
	st := newTestStore(t)
	a := seedContact(t, st, &model.Contact{LastName: "First"})
	b := seedContact(t, st, &model.Contact{LastName: "Second"})

	pairs := []model.EnrichPair{
		{
			ContactID:    a.ID,
			Profile:      model.EPSProfile{ID: "eps-1", CompanyName: "Zenith Robotics"},
			SelectedKeys: []string{model.FieldCompanyName},
		},
		{
			ContactID:    b.ID,
			Profile:      model.EPSProfile{ID: "eps-2", CompanyName: "zenith robotics"},
			SelectedKeys: []string{model.FieldCompanyName},
		},
	}

	// Concurrency 1 keeps the applies ordered so the second pair sees the
	// company the first one created.
	orch := NewOrchestrator(NewApplier(st, st), 1)
	result, err := orch.Run(context.Background(), pairs)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Succeeded)
	assert.Equal(t, 1, result.CompaniesCreated)

	gotA, err := st.GetContact(context.Background(), a.ID)
	require.NoError(t, err)
	gotB, err := st.GetContact(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, gotA.CompanyID, gotB.CompanyID)
}

func TestRun_CanceledBeforeDispatch(t *testing.T) {
	st := newTestStore(t)
	c := seedContact(t, st, &model.Contact{LastName: "Lee"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pairs := []model.EnrichPair{
		{
			ContactID:    c.ID,
			Profile:      model.EPSProfile{ID: "eps-1", Phone: "+14155552671"},
			SelectedKeys: []string{model.FieldPhone},
		},
		{
			ContactID:    "c-other",
			Profile:      model.EPSProfile{ID: "eps-2", Phone: "+14155559999"},
			SelectedKeys: []string{model.FieldPhone},
		},
	}

	orch := NewOrchestrator(NewApplier(st, st), 2)
	result, err := orch.Run(ctx, pairs)
	require.NoError(t, err)

	assert.Equal(t, 0, result.Succeeded)
	assert.Equal(t, len(pairs), result.Failed)
	require.Len(t, result.Errors, len(pairs))
	for _, msg := range result.Errors {
		assert.Contains(t, msg, context.Canceled.Error())
	}

	got, err := st.GetContact(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Phone)
}

// cancelingContacts cancels the batch context on the first contact read,
// simulating a caller giving up mid-batch.
type cancelingContacts struct {
	store.ContactStore
	cancel context.CancelFunc
	once   sync.Once
}

func (s *cancelingContacts) GetContact(ctx context.Context, id string) (*model.Contact, error) {
	s.once.Do(s.cancel)
	return s.ContactStore.GetContact(ctx, id)
}

func TestRun_CancelMidBatchStopsDispatch(t *testing.T) {
	st := newTestStore(t)

	pairs := make([]model.EnrichPair, 0, 3)
	for i := 0; i < 3; i++ {
		c := seedContact(t, st, &model.Contact{LastName: fmt.Sprintf("Contact%d", i)})
		pairs = append(pairs, model.EnrichPair{
			ContactID:    c.ID,
			Profile:      model.EPSProfile{ID: fmt.Sprintf("eps-%d", i), Phone: "+14155552671"},
			SelectedKeys: []string{model.FieldPhone},
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	contacts := &cancelingContacts{ContactStore: st, cancel: cancel}
	orch := NewOrchestrator(NewApplier(contacts, st), 1)

	result, err := orch.Run(ctx, pairs)
	require.NoError(t, err)

	assert.Equal(t, 0, result.Succeeded)
	assert.Equal(t, len(pairs), result.Failed)
	assert.Equal(t, len(pairs), result.Succeeded+result.Failed)
}

func TestRun_DefaultConcurrency(t *testing.T) {
	st := newTestStore(t)
	orch := NewOrchestrator(NewApplier(st, st), 0)
	assert.Equal(t, DefaultConcurrency, orch.concurrency)
}
