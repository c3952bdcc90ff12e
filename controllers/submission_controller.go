package controller

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"dealdesk/models"
	"dealdesk/realtime"
	"dealdesk/utils"
	"dealdesk/wizard"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// SubmissionController fronts the exclusive-listing wizard. Each request
// rebuilds the wizard from the persisted draft, applies one operation and
// lets the wizard write the draft back, so the flow survives restarts and
// works from multiple devices.
type SubmissionController struct {
	DB     *gorm.DB
	Hub    *realtime.Hub
	Drafts wizard.DraftStore
	Logger *logrus.Logger
}

func NewSubmissionController(db *gorm.DB, hub *realtime.Hub, drafts wizard.DraftStore, logger *logrus.Logger) *SubmissionController {
	return &SubmissionController{
		DB:     db,
		Hub:    hub,
		Drafts: drafts,
		Logger: logger,
	}
}

func (sc *SubmissionController) buildWizard(c *fiber.Ctx) (*wizard.Wizard, error) {
	user := c.Locals("user").(*models.User)

	division := models.Division(c.Params("division"))
	if !division.IsValid() {
		return nil, fmt.Errorf("unknown division %q", c.Params("division"))
	}

	w := wizard.New(division, user.ID, wizard.NewGormSubmissionStore(sc.DB), sc.Drafts, sc.Logger)
	if err := w.Resume(c.Context()); err != nil {
		return nil, err
	}
	return w, nil
}

type wizardFormInput struct {
	PropertyAddress *string              `json:"property_address"`
	OwnerName       *string              `json:"owner_name"`
	OwnerEmail      *string              `json:"owner_email" validate:"omitempty,email"`
	OwnerPhone      *string              `json:"owner_phone"`
	ListingData     *models.DivisionData `json:"listing_data"`
	AgreementURL    *string              `json:"agreement_url" validate:"omitempty,url"`
	DocumentURLs    *[]string            `json:"document_urls"`
}

func applyFormInput(f *wizard.FormData, input wizardFormInput) {
	if input.PropertyAddress != nil {
		f.PropertyAddress = *input.PropertyAddress
	}
	if input.OwnerName != nil {
		f.OwnerName = *input.OwnerName
	}
	if input.OwnerEmail != nil {
		f.OwnerEmail = *input.OwnerEmail
	}
	if input.OwnerPhone != nil {
		f.OwnerPhone = *input.OwnerPhone
	}
	if input.ListingData != nil {
		f.ListingData = *input.ListingData
	}
	if input.AgreementURL != nil {
		f.AgreementURL = input.AgreementURL
	}
	if input.DocumentURLs != nil {
		f.DocumentURLs = *input.DocumentURLs
	}
}

// GetWizardState returns the current wizard snapshot for a division,
// resuming any saved draft.
func (sc *SubmissionController) GetWizardState(c *fiber.Ctx) error {
	w, err := sc.buildWizard(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Failed to load wizard", err)
	}
	return c.JSON(utils.SuccessResponse(w.State()))
}

// UpdateWizardForm merges field changes into the draft without advancing.
// The client autosaves through this endpoint.
func (sc *SubmissionController) UpdateWizardForm(c *fiber.Ctx) error {
	var input wizardFormInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}
	if input.OwnerEmail != nil && *input.OwnerEmail != "" {
		if err := utils.ValidateContactEmail(*input.OwnerEmail, false); err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid owner email", err)
		}
	}

	w, err := sc.buildWizard(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Failed to load wizard", err)
	}

	w.UpdateForm(c.Context(), func(f *wizard.FormData) {
		applyFormInput(f, input)
	})

	return c.JSON(utils.SuccessResponse(w.State()))
}

// WizardNext validates the current step and advances the wizard.
func (sc *SubmissionController) WizardNext(c *fiber.Ctx) error {
	w, err := sc.buildWizard(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Failed to load wizard", err)
	}

	if err := w.Next(c.Context()); err != nil {
		if errorsIsValidation(err) {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "Step validation failed", err)
		}
		sentry.CaptureException(err)
		sc.Logger.WithError(err).Error("wizard advance failed")
		return utils.ErrorResponse(c, fiber.StatusBadGateway, "Failed to save submission; your progress is kept", err)
	}

	return c.JSON(utils.SuccessResponse(w.State()))
}

// WizardBack moves the wizard one step back.
func (sc *SubmissionController) WizardBack(c *fiber.Ctx) error {
	w, err := sc.buildWizard(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Failed to load wizard", err)
	}

	if err := w.Back(c.Context()); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Cannot go back", err)
	}

	return c.JSON(utils.SuccessResponse(w.State()))
}

// WizardSubmit finalizes the submission from the review step and notifies
// the reviewers.
func (sc *SubmissionController) WizardSubmit(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	w, err := sc.buildWizard(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Failed to load wizard", err)
	}

	if err := w.Submit(c.Context()); err != nil {
		if errorsIsValidation(err) {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "Submission not ready", err)
		}
		sentry.CaptureException(err)
		sc.Logger.WithError(err).Error("wizard submit failed")
		return utils.ErrorResponse(c, fiber.StatusBadGateway, "Failed to submit; your progress is kept", err)
	}

	state := w.State()
	sc.notifyReviewers(state.BackingID, state.Form.PropertyAddress, user)

	sc.Hub.Publish(c.Context(), realtime.Event{
		Event:    realtime.EventInsert,
		Resource: realtime.ResourceSubmissions,
		ID:       state.BackingID,
	})

	return c.JSON(utils.SuccessResponse(state))
}

// notifyReviewers fans a submission_received notification out to admins.
func (sc *SubmissionController) notifyReviewers(submissionID uint, address string, from *models.User) {
	var admins []models.User
	if err := sc.DB.Where("role = ? AND is_active = true", "admin").Find(&admins).Error; err != nil {
		sc.Logger.WithError(err).Error("failed to load reviewers")
		return
	}

	for _, admin := range admins {
		notification := models.Notification{
			UserID:  admin.ID,
			Type:    models.NotificationSubmissionReceived,
			Title:   "New exclusive submission",
			Message: fmt.Sprintf("%s submitted %s for review", from.Name, address),
			ActionURL: utils.Pointer(
				fmt.Sprintf("/submissions/%d", submissionID),
			),
			Data: map[string]string{
				"submission_id": strconv.FormatUint(uint64(submissionID), 10),
			},
		}
		if err := sc.DB.Create(&notification).Error; err != nil {
			sc.Logger.WithError(err).Error("failed to notify reviewer")
		}
	}
}

// GetSubmissions lists submissions. Admins see everything pending review;
// other users see their own.
func (sc *SubmissionController) GetSubmissions(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	query := sc.DB.Model(&models.ExclusiveSubmission{}).Order("created_at DESC")
	if user.Role != "admin" {
		query = query.Where("user_id = ?", user.ID)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var submissions []models.ExclusiveSubmission
	if err := query.Find(&submissions).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch submissions", err)
	}

	return c.JSON(utils.SuccessResponse(submissions))
}

// GetSubmission returns a single submission
func (sc *SubmissionController) GetSubmission(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var submission models.ExclusiveSubmission
	query := sc.DB.Where("id = ?", c.Params("id"))
	if user.Role != "admin" {
		query = query.Where("user_id = ?", user.ID)
	}
	if err := query.First(&submission).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Submission not found", nil)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch submission", err)
	}

	return c.JSON(utils.SuccessResponse(submission))
}

// ReviewSubmission approves or rejects a pending submission and notifies
// the submitting agent.
func (sc *SubmissionController) ReviewSubmission(c *fiber.Ctx) error {
	reviewer := c.Locals("user").(*models.User)

	var input struct {
		Decision string `json:"decision" validate:"required,oneof=approved rejected"`
		Note     string `json:"note" validate:"omitempty,max=2000"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	var submission models.ExclusiveSubmission
	if err := sc.DB.First(&submission, c.Params("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Submission not found", nil)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch submission", err)
	}
	if submission.Status != models.SubmissionStatusPendingReview {
		return utils.ErrorResponse(c, fiber.StatusConflict, "Only pending submissions can be reviewed", nil)
	}

	now := time.Now()
	submission.Status = input.Decision
	submission.ReviewedAt = &now
	submission.ReviewedBy = &reviewer.ID
	submission.ReviewNote = input.Note

	tx := sc.DB.Begin()
	if err := tx.Save(&submission).Error; err != nil {
		tx.Rollback()
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to review submission", err)
	}

	verdict := "approved"
	if input.Decision == models.SubmissionStatusRejected {
		verdict = "rejected"
	}
	notification := models.Notification{
		UserID:  submission.UserID,
		Type:    models.NotificationSubmissionReviewed,
		Title:   fmt.Sprintf("Submission %s", verdict),
		Message: fmt.Sprintf("Your exclusive submission for %s was %s", submission.PropertyAddress, verdict),
		ActionURL: utils.Pointer(
			fmt.Sprintf("/submissions/%d", submission.ID),
		),
		Data: map[string]string{
			"submission_id": strconv.FormatUint(uint64(submission.ID), 10),
			"decision":      input.Decision,
		},
	}
	if err := tx.Create(&notification).Error; err != nil {
		tx.Rollback()
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create notification", err)
	}
	tx.Commit()

	sc.Hub.Publish(c.Context(), realtime.Event{
		Event:    realtime.EventUpdate,
		Resource: realtime.ResourceSubmissions,
		ID:       submission.ID,
	})

	return c.JSON(utils.SuccessResponse(submission))
}

func errorsIsValidation(err error) bool {
	return errors.Is(err, wizard.ErrValidation) ||
		errors.Is(err, wizard.ErrNotLastStep) ||
		errors.Is(err, wizard.ErrLastStep)
}
