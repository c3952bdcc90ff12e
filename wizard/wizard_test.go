package wizard

import (
	"context"
	"errors"
	"testing"

	"dealdesk/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore counts persistence calls and can be told to fail.
type fakeStore struct {
	nextID      uint
	creates     int
	updates     int
	transitions []string
	failCreate  error
	failUpdate  error
	records     map[uint]FormData
	statuses    map[uint]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		nextID:   100,
		records:  make(map[uint]FormData),
		statuses: make(map[uint]string),
	}
}

func (s *fakeStore) Create(_ context.Context, _ models.Division, _ uint, f *FormData) (uint, error) {
	if s.failCreate != nil {
		return 0, s.failCreate
	}
	s.creates++
	s.nextID++
	s.records[s.nextID] = *f
	s.statuses[s.nextID] = models.SubmissionStatusDraft
	return s.nextID, nil
}

func (s *fakeStore) Update(_ context.Context, id uint, f *FormData) error {
	if s.failUpdate != nil {
		return s.failUpdate
	}
	s.updates++
	s.records[id] = *f
	return nil
}

func (s *fakeStore) Transition(_ context.Context, id uint, status string) error {
	s.transitions = append(s.transitions, status)
	s.statuses[id] = status
	return nil
}

func agreementURL() *string {
	u := "https://files.dealdesk.local/uploads/agreements/signed.pdf"
	return &u
}

func fillThroughOwner(w *Wizard) {
	w.UpdateForm(context.Background(), func(f *FormData) {
		f.PropertyAddress = "125 Court St, Brooklyn"
		f.OwnerName = "Pat Doyle"
		f.OwnerEmail = "pat@example.com"
	})
}

func newTestWizard(t *testing.T, division models.Division) (*Wizard, *fakeStore, *MemoryDraftStore) {
	t.Helper()
	store := newFakeStore()
	drafts := NewMemoryDraftStore()
	return New(division, 7, store, drafts, nil), store, drafts
}

func TestStepsForDivision(t *testing.T) {
	withMarketing := []string{"property", "owner", "details", "marketing", "review"}
	withoutMarketing := []string{"property", "owner", "details", "review"}

	tests := []struct {
		division models.Division
		want     []string
	}{
		{models.DivisionInvestmentSales, withMarketing},
		{models.DivisionCommercialLeasing, withMarketing},
		{models.DivisionResidential, withoutMarketing},
		{models.DivisionCapitalAdvisory, withoutMarketing},
	}

	for _, tt := range tests {
		steps := StepsFor(tt.division)
		names := make([]string, 0, len(steps))
		for _, s := range steps {
			names = append(names, s.Name)
		}
		assert.Equal(t, tt.want, names, "division %s", tt.division)
	}
}

func TestNextValidatesCurrentStep(t *testing.T) {
	ctx := context.Background()
	w, store, _ := newTestWizard(t, models.DivisionResidential)

	// Empty property address blocks the first advance.
	err := w.Next(ctx)
	require.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, 0, w.State().StepIndex)
	assert.Equal(t, 0, store.creates)

	w.UpdateForm(ctx, func(f *FormData) { f.PropertyAddress = "350 Atlantic Ave" })
	require.NoError(t, w.Next(ctx))
	assert.Equal(t, 1, w.State().StepIndex)
}

func TestLazyCreateHappensOncePastOwnerStep(t *testing.T) {
	ctx := context.Background()
	w, store, _ := newTestWizard(t, models.DivisionResidential)

	fillThroughOwner(w)
	require.NoError(t, w.Next(ctx)) // property -> owner
	assert.Equal(t, 0, store.creates, "create must not fire before the owner step completes")

	require.NoError(t, w.Next(ctx)) // owner -> details, lazy create
	assert.Equal(t, 1, store.creates)
	backingID := w.State().BackingID
	require.NotZero(t, backingID)

	// Going back and forward again must not create a second record.
	require.NoError(t, w.Back(ctx))
	require.NoError(t, w.Next(ctx))
	assert.Equal(t, 1, store.creates)
	assert.Equal(t, backingID, w.State().BackingID)
	assert.Equal(t, 1, store.updates)
}

func TestSubmitRequiresLastStep(t *testing.T) {
	ctx := context.Background()
	w, _, _ := newTestWizard(t, models.DivisionResidential)

	fillThroughOwner(w)
	require.NoError(t, w.Next(ctx))

	err := w.Submit(ctx)
	assert.ErrorIs(t, err, ErrNotLastStep)
	assert.Equal(t, StatusEditing, w.State().Status)
}

func TestNextFromLastStepRejected(t *testing.T) {
	ctx := context.Background()
	w, _, _ := newTestWizard(t, models.DivisionResidential)

	fillThroughOwner(w)
	require.NoError(t, w.Next(ctx))
	require.NoError(t, w.Next(ctx))
	require.NoError(t, w.Next(ctx)) // details -> review, the last step

	err := w.Next(ctx)
	require.ErrorIs(t, err, ErrLastStep)
	assert.NotErrorIs(t, err, ErrNotLastStep)
	assert.Equal(t, "review", w.State().StepName)
}

func TestSubmitRequiresAgreement(t *testing.T) {
	ctx := context.Background()
	w, store, _ := newTestWizard(t, models.DivisionResidential)

	fillThroughOwner(w)
	require.NoError(t, w.Next(ctx))
	require.NoError(t, w.Next(ctx))
	require.NoError(t, w.Next(ctx)) // details -> review

	err := w.Submit(ctx)
	require.ErrorIs(t, err, ErrValidation)

	// State stays put; attaching the agreement and retrying succeeds.
	state := w.State()
	assert.Equal(t, StatusEditing, state.Status)
	assert.Equal(t, "review", state.StepName)

	w.UpdateForm(ctx, func(f *FormData) { f.AgreementURL = agreementURL() })
	require.NoError(t, w.Submit(ctx))
	assert.Equal(t, StatusSubmitted, w.State().Status)
	assert.Equal(t, []string{models.SubmissionStatusPendingReview}, store.transitions)
}

func TestSubmitClearsDraft(t *testing.T) {
	ctx := context.Background()
	w, _, drafts := newTestWizard(t, models.DivisionResidential)

	fillThroughOwner(w)
	w.UpdateForm(ctx, func(f *FormData) { f.AgreementURL = agreementURL() })
	require.NoError(t, w.Next(ctx))
	require.NoError(t, w.Next(ctx))
	require.NoError(t, w.Next(ctx))

	raw, err := drafts.Get(ctx, w.draftKey())
	require.NoError(t, err)
	require.NotEmpty(t, raw, "draft should exist before submit")

	require.NoError(t, w.Submit(ctx))

	raw, err = drafts.Get(ctx, w.draftKey())
	require.NoError(t, err)
	assert.Empty(t, raw, "draft should be cleared after submit")
}

func TestPersistenceFailureAndRetry(t *testing.T) {
	ctx := context.Background()
	w, store, _ := newTestWizard(t, models.DivisionResidential)

	fillThroughOwner(w)
	require.NoError(t, w.Next(ctx))

	store.failCreate = errors.New("connection refused")
	err := w.Next(ctx)
	require.Error(t, err)

	state := w.State()
	assert.Equal(t, StatusFailed, state.Status)
	assert.Equal(t, 1, state.StepIndex, "failed advance must not move the step")
	assert.Contains(t, state.LastError, "connection refused")

	// Editing is blocked until Retry.
	assert.Error(t, w.Next(ctx))
	assert.Error(t, w.Back(ctx))

	require.NoError(t, w.Retry())
	store.failCreate = nil
	require.NoError(t, w.Next(ctx))
	assert.Equal(t, 1, store.creates)
	assert.Equal(t, "Pat Doyle", store.records[w.State().BackingID].OwnerName)
}

func TestResumeRestoresDraft(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	drafts := NewMemoryDraftStore()

	w := New(models.DivisionInvestmentSales, 7, store, drafts, nil)
	fillThroughOwner(w)
	require.NoError(t, w.Next(ctx))
	require.NoError(t, w.Next(ctx))
	backingID := w.State().BackingID

	// A fresh wizard over the same draft store picks up where it left off.
	resumed := New(models.DivisionInvestmentSales, 7, store, drafts, nil)
	require.NoError(t, resumed.Resume(ctx))

	state := resumed.State()
	assert.Equal(t, 2, state.StepIndex)
	assert.Equal(t, backingID, state.BackingID)
	assert.Equal(t, "125 Court St, Brooklyn", state.Form.PropertyAddress)
}

func TestResumeDiscardsCorruptDraft(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	drafts := NewMemoryDraftStore()

	w := New(models.DivisionResidential, 7, store, drafts, nil)
	require.NoError(t, drafts.Set(ctx, w.draftKey(), "{not json"))

	require.NoError(t, w.Resume(ctx))
	state := w.State()
	assert.Equal(t, 0, state.StepIndex)
	assert.Zero(t, state.BackingID)
}

func TestDraftsAreScopedPerDivision(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	drafts := NewMemoryDraftStore()

	res := New(models.DivisionResidential, 7, store, drafts, nil)
	res.UpdateForm(ctx, func(f *FormData) { f.PropertyAddress = "residential draft" })

	inv := New(models.DivisionInvestmentSales, 7, store, drafts, nil)
	require.NoError(t, inv.Resume(ctx))
	assert.Empty(t, inv.State().Form.PropertyAddress)
}

func TestBackFromFirstStepFails(t *testing.T) {
	w, _, _ := newTestWizard(t, models.DivisionResidential)
	assert.Error(t, w.Back(context.Background()))
}

func TestDetailsStepRejectsMismatchedDivisionData(t *testing.T) {
	ctx := context.Background()
	w, _, _ := newTestWizard(t, models.DivisionResidential)

	fillThroughOwner(w)
	w.UpdateForm(ctx, func(f *FormData) {
		f.ListingData = models.DivisionData{
			InvestmentSales: &models.InvestmentSalesData{},
		}
	})
	require.NoError(t, w.Next(ctx))
	require.NoError(t, w.Next(ctx))

	err := w.Next(ctx) // details step validates the payload
	assert.ErrorIs(t, err, ErrValidation)
}
