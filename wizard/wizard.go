// Package wizard implements the exclusive-listing submission flow: a
// sequential state machine over division-dependent steps, with lazy
// creation of the backing record, best-effort draft persistence and a
// validated final submit.
package wizard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"dealdesk/models"

	"github.com/sirupsen/logrus"
)

type Status string

const (
	StatusEditing    Status = "editing"
	StatusSubmitting Status = "submitting"
	StatusSubmitted  Status = "submitted"
	StatusFailed     Status = "failed"
)

// ErrValidation wraps step-precondition failures; these never reach the
// store and are surfaced inline.
var ErrValidation = errors.New("validation failed")

// ErrNotLastStep is returned when Submit is called before the final step.
var ErrNotLastStep = errors.New("submit is only allowed from the last step")

// ErrLastStep is returned when Next is called on the final step, where
// the only way forward is Submit.
var ErrLastStep = errors.New("already at the last step")

// FormData is the state accumulated across steps.
type FormData struct {
	PropertyAddress string              `json:"property_address"`
	OwnerName       string              `json:"owner_name"`
	OwnerEmail      string              `json:"owner_email"`
	OwnerPhone      string              `json:"owner_phone"`
	ListingData     models.DivisionData `json:"listing_data"`
	AgreementURL    *string             `json:"agreement_url,omitempty"`
	DocumentURLs    []string            `json:"document_urls"`
}

// Step is one named stop in the flow. A nil Validate passes always.
type Step struct {
	Name     string
	Validate func(f *FormData) error
}

// SubmissionStore persists the backing record. The HTTP layer provides a
// GORM-backed implementation; tests provide fakes.
type SubmissionStore interface {
	Create(ctx context.Context, division models.Division, userID uint, f *FormData) (uint, error)
	Update(ctx context.Context, id uint, f *FormData) error
	Transition(ctx context.Context, id uint, status string) error
}

// DraftStore is a durable key-value store for resumable drafts. It is
// best-effort: write failures are logged and never block the flow, and a
// missing key is not an error.
type DraftStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Wizard drives one user's submission through the steps. It is a
// single-user sequential machine; no concurrent use.
type Wizard struct {
	division  models.Division
	userID    uint
	steps     []Step
	stepIndex int
	form      FormData
	backingID uint
	status    Status
	lastErr   error

	store  SubmissionStore
	drafts DraftStore
	logger *logrus.Entry
}

// createAfterStep is the step whose completion requires a persisted
// backing record: advancing past the owner step triggers the lazy create.
const createAfterStep = 1

type draftPayload struct {
	Form      FormData `json:"form"`
	BackingID uint     `json:"backing_id"`
	StepIndex int      `json:"step_index"`
}

func New(division models.Division, userID uint, store SubmissionStore, drafts DraftStore, logger *logrus.Logger) *Wizard {
	if logger == nil {
		logger = logrus.New()
	}
	return &Wizard{
		division: division,
		userID:   userID,
		steps:    StepsFor(division),
		status:   StatusEditing,
		store:    store,
		drafts:   drafts,
		logger: logger.WithFields(logrus.Fields{
			"component": "wizard",
			"division":  division,
			"user_id":   userID,
		}),
	}
}

// StepsFor returns the ordered step list for a division. Investment sales
// and commercial leasing carry a marketing step; the other divisions skip
// it.
func StepsFor(division models.Division) []Step {
	steps := []Step{
		{Name: "property", Validate: func(f *FormData) error {
			if f.PropertyAddress == "" {
				return fmt.Errorf("%w: property address is required", ErrValidation)
			}
			return nil
		}},
		{Name: "owner", Validate: func(f *FormData) error {
			if f.OwnerName == "" || f.OwnerEmail == "" {
				return fmt.Errorf("%w: owner name and email are required", ErrValidation)
			}
			return nil
		}},
		{Name: "details", Validate: func(f *FormData) error {
			if err := f.ListingData.Validate(division); err != nil {
				return fmt.Errorf("%w: %v", ErrValidation, err)
			}
			return nil
		}},
	}
	if division == models.DivisionInvestmentSales || division == models.DivisionCommercialLeasing {
		steps = append(steps, Step{Name: "marketing"})
	}
	steps = append(steps, Step{Name: "review"})
	return steps
}

// draftKey namespaces drafts per division and user so parallel flows in
// different divisions never clobber each other.
func (w *Wizard) draftKey() string {
	return fmt.Sprintf("wizard:draft:%s:%d", w.division, w.userID)
}

// Resume loads a previously persisted draft, restoring form state, step
// index and backing id. A missing draft leaves the wizard at step zero.
func (w *Wizard) Resume(ctx context.Context) error {
	raw, err := w.drafts.Get(ctx, w.draftKey())
	if err != nil {
		// Draft storage is advisory; start fresh rather than fail.
		w.logger.WithError(err).Warn("failed to read draft, starting fresh")
		return nil
	}
	if raw == "" {
		return nil
	}
	var d draftPayload
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		w.logger.WithError(err).Warn("corrupt draft discarded")
		return nil
	}
	w.form = d.Form
	w.backingID = d.BackingID
	if d.StepIndex >= 0 && d.StepIndex < len(w.steps) {
		w.stepIndex = d.StepIndex
	}
	return nil
}

// UpdateForm applies a field mutation and persists the draft.
func (w *Wizard) UpdateForm(ctx context.Context, mutate func(f *FormData)) {
	mutate(&w.form)
	w.persistDraft(ctx)
}

func (w *Wizard) persistDraft(ctx context.Context) {
	raw, err := json.Marshal(draftPayload{
		Form:      w.form,
		BackingID: w.backingID,
		StepIndex: w.stepIndex,
	})
	if err != nil {
		w.logger.WithError(err).Warn("failed to marshal draft")
		return
	}
	if err := w.drafts.Set(ctx, w.draftKey(), string(raw)); err != nil {
		w.logger.WithError(err).Warn("failed to persist draft")
	}
}

// Next validates the current step and advances. The first move past the
// owner step creates the backing record; the create is skipped when a
// backing id already exists, so repeated calls stay idempotent.
func (w *Wizard) Next(ctx context.Context) error {
	if w.status != StatusEditing {
		return fmt.Errorf("cannot advance while %s", w.status)
	}
	if w.stepIndex >= len(w.steps)-1 {
		return ErrLastStep
	}

	step := w.steps[w.stepIndex]
	if step.Validate != nil {
		if err := step.Validate(&w.form); err != nil {
			return err
		}
	}

	if w.stepIndex == createAfterStep && w.backingID == 0 {
		id, err := w.store.Create(ctx, w.division, w.userID, &w.form)
		if err != nil {
			w.status = StatusFailed
			w.lastErr = err
			return err
		}
		w.backingID = id
	} else if w.backingID != 0 {
		if err := w.store.Update(ctx, w.backingID, &w.form); err != nil {
			w.status = StatusFailed
			w.lastErr = err
			return err
		}
	}

	w.stepIndex++
	w.persistDraft(ctx)
	return nil
}

// Back moves one step toward the start. Purely local, no side effects.
func (w *Wizard) Back(ctx context.Context) error {
	if w.status != StatusEditing {
		return fmt.Errorf("cannot go back while %s", w.status)
	}
	if w.stepIndex == 0 {
		return errors.New("already at the first step")
	}
	w.stepIndex--
	w.persistDraft(ctx)
	return nil
}

// Submit finalizes the flow from the last step. The signed agreement
// document must be attached; without it the call is rejected and the
// state is unchanged. On success the backing record receives the full
// form state, transitions to pending review, and the draft is cleared.
func (w *Wizard) Submit(ctx context.Context) error {
	if w.status != StatusEditing {
		return fmt.Errorf("cannot submit while %s", w.status)
	}
	if w.stepIndex != len(w.steps)-1 {
		return ErrNotLastStep
	}
	if w.form.AgreementURL == nil || *w.form.AgreementURL == "" {
		return fmt.Errorf("%w: signed exclusive agreement must be uploaded before submitting", ErrValidation)
	}
	if w.backingID == 0 {
		// Possible when a resumed draft predates the lazy create.
		id, err := w.store.Create(ctx, w.division, w.userID, &w.form)
		if err != nil {
			w.status = StatusFailed
			w.lastErr = err
			return err
		}
		w.backingID = id
	}

	w.status = StatusSubmitting
	if err := w.store.Update(ctx, w.backingID, &w.form); err != nil {
		w.status = StatusFailed
		w.lastErr = err
		return err
	}
	if err := w.store.Transition(ctx, w.backingID, models.SubmissionStatusPendingReview); err != nil {
		w.status = StatusFailed
		w.lastErr = err
		return err
	}

	if err := w.drafts.Delete(ctx, w.draftKey()); err != nil {
		w.logger.WithError(err).Warn("failed to clear draft after submit")
	}
	w.status = StatusSubmitted
	return nil
}

// Retry returns a failed wizard to editing at the same step. Form state
// and backing id are untouched, so the user resubmits without data loss.
func (w *Wizard) Retry() error {
	if w.status != StatusFailed {
		return errors.New("nothing to retry")
	}
	w.status = StatusEditing
	w.lastErr = nil
	return nil
}

// State is a read-only snapshot for the HTTP layer.
type State struct {
	Division  models.Division `json:"division"`
	Status    Status          `json:"status"`
	StepIndex int             `json:"step_index"`
	StepName  string          `json:"step_name"`
	StepCount int             `json:"step_count"`
	BackingID uint            `json:"backing_id,omitempty"`
	Form      FormData        `json:"form"`
	LastError string          `json:"last_error,omitempty"`
}

func (w *Wizard) State() State {
	s := State{
		Division:  w.division,
		Status:    w.status,
		StepIndex: w.stepIndex,
		StepName:  w.steps[w.stepIndex].Name,
		StepCount: len(w.steps),
		BackingID: w.backingID,
		Form:      w.form,
	}
	if w.lastErr != nil {
		s.LastError = w.lastErr.Error()
	}
	return s
}
