package controller

import (
	"log"
	"strconv"
	"time"

	"dealdesk/models"
	"dealdesk/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// agentStatusTransitions holds the allowed recruiting-pipeline moves.
// declined is reachable from every non-terminal status.
var agentStatusTransitions = map[string][]string{
	models.AgentStatusCandidate:    {models.AgentStatusInterviewing, models.AgentStatusDeclined},
	models.AgentStatusInterviewing: {models.AgentStatusOffer, models.AgentStatusDeclined},
	models.AgentStatusOffer:        {models.AgentStatusContracted, models.AgentStatusDeclined},
}

func canTransition(from, to string) bool {
	for _, allowed := range agentStatusTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

type HRController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewHRController(db *gorm.DB, logger *log.Logger) *HRController {
	return &HRController{
		DB:     db,
		Logger: logger,
	}
}

type candidateInput struct {
	Name          string `json:"name" validate:"required,max=150"`
	Email         string `json:"email" validate:"required,email"`
	Phone         string `json:"phone" validate:"omitempty,max=30"`
	LicenseNumber string `json:"license_number" validate:"omitempty,max=50"`
	LicenseState  string `json:"license_state" validate:"omitempty,len=2"`
	Division      string `json:"division" validate:"required,oneof=investment-sales commercial-leasing residential capital-advisory"`
	Source        string `json:"source" validate:"omitempty,oneof=referral inbound sourced"`
	Notes         string `json:"notes"`
}

// GetCandidates lists recruiting candidates with pagination
func (hc *HRController) GetCandidates(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	query := hc.DB.Model(&models.AgentProfile{})
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if division := c.Query("division"); division != "" {
		query = query.Where("division = ?", division)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to count candidates", err)
	}

	var candidates []models.AgentProfile
	if err := query.Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&candidates).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch candidates", err)
	}

	return c.JSON(utils.PaginatedResponse(candidates, page, limit, total))
}

// GetCandidate returns one candidate with interviews and offers
func (hc *HRController) GetCandidate(c *fiber.Ctx) error {
	var candidate models.AgentProfile
	if err := hc.DB.Preload("Interviews.Interviewer").Preload("Offers").
		First(&candidate, c.Params("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Candidate not found", nil)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch candidate", err)
	}

	return c.JSON(utils.SuccessResponse(candidate))
}

// CreateCandidate adds a candidate to the recruiting pipeline
func (hc *HRController) CreateCandidate(c *fiber.Ctx) error {
	var input candidateInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}
	if err := utils.ValidateContactEmail(input.Email, false); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid candidate email", err)
	}

	candidate := models.AgentProfile{
		Name:          input.Name,
		Email:         input.Email,
		Phone:         input.Phone,
		LicenseNumber: input.LicenseNumber,
		LicenseState:  input.LicenseState,
		Division:      models.Division(input.Division),
		Status:        models.AgentStatusCandidate,
		Source:        input.Source,
		Notes:         input.Notes,
	}

	if err := hc.DB.Create(&candidate).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create candidate", err)
	}

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(candidate))
}

// UpdateCandidateStatus moves a candidate through the recruiting pipeline.
func (hc *HRController) UpdateCandidateStatus(c *fiber.Ctx) error {
	var input struct {
		Status string `json:"status" validate:"required,oneof=candidate interviewing offer contracted declined"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	var candidate models.AgentProfile
	if err := hc.DB.First(&candidate, c.Params("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Candidate not found", nil)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch candidate", err)
	}

	if !canTransition(candidate.Status, input.Status) {
		return utils.ErrorResponse(c, fiber.StatusConflict, "Invalid status transition from "+candidate.Status+" to "+input.Status, nil)
	}

	candidate.Status = input.Status
	if err := hc.DB.Save(&candidate).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update candidate", err)
	}

	return c.JSON(utils.SuccessResponse(candidate))
}

// ScheduleInterview books an interview round for a candidate.
func (hc *HRController) ScheduleInterview(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var input struct {
		ScheduledAt   time.Time `json:"scheduled_at" validate:"required"`
		Round         int       `json:"round" validate:"omitempty,gte=1,lte=10"`
		InterviewerID *uint     `json:"interviewer_id"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	var candidate models.AgentProfile
	if err := hc.DB.First(&candidate, c.Params("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Candidate not found", nil)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch candidate", err)
	}

	interviewerID := user.ID
	if input.InterviewerID != nil {
		interviewerID = *input.InterviewerID
	}

	round := input.Round
	if round == 0 {
		round = 1
	}

	interview := models.Interview{
		AgentProfileID: candidate.ID,
		InterviewerID:  interviewerID,
		ScheduledAt:    input.ScheduledAt,
		Round:          round,
		Outcome:        "pending",
	}

	tx := hc.DB.Begin()
	if err := tx.Create(&interview).Error; err != nil {
		tx.Rollback()
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to schedule interview", err)
	}

	if candidate.Status == models.AgentStatusCandidate {
		candidate.Status = models.AgentStatusInterviewing
		if err := tx.Save(&candidate).Error; err != nil {
			tx.Rollback()
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update candidate", err)
		}
	}
	tx.Commit()

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(interview))
}

// RecordInterviewOutcome stores feedback and the advance/reject decision.
func (hc *HRController) RecordInterviewOutcome(c *fiber.Ctx) error {
	var input struct {
		Outcome  string `json:"outcome" validate:"required,oneof=advance reject"`
		Feedback string `json:"feedback" validate:"omitempty,max=5000"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	var interview models.Interview
	if err := hc.DB.First(&interview, c.Params("interviewId")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Interview not found", nil)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch interview", err)
	}
	if interview.Outcome != "pending" {
		return utils.ErrorResponse(c, fiber.StatusConflict, "Interview outcome already recorded", nil)
	}

	interview.Outcome = input.Outcome
	interview.Feedback = input.Feedback
	if err := hc.DB.Save(&interview).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to record outcome", err)
	}

	return c.JSON(utils.SuccessResponse(interview))
}

// ExtendOffer extends terms to a candidate in interviewing status.
func (hc *HRController) ExtendOffer(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var input struct {
		CommissionSplit float64    `json:"commission_split" validate:"required,gt=0,lte=100"`
		DrawAmount      *float64   `json:"draw_amount" validate:"omitempty,gte=0"`
		ExpiresAt       *time.Time `json:"expires_at"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	var candidate models.AgentProfile
	if err := hc.DB.First(&candidate, c.Params("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Candidate not found", nil)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch candidate", err)
	}
	if !canTransition(candidate.Status, models.AgentStatusOffer) {
		return utils.ErrorResponse(c, fiber.StatusConflict, "Candidate is not ready for an offer", nil)
	}

	offer := models.Offer{
		AgentProfileID:  candidate.ID,
		ExtendedBy:      user.ID,
		CommissionSplit: input.CommissionSplit,
		DrawAmount:      input.DrawAmount,
		ExpiresAt:       input.ExpiresAt,
		Status:          "extended",
	}

	tx := hc.DB.Begin()
	if err := tx.Create(&offer).Error; err != nil {
		tx.Rollback()
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to extend offer", err)
	}

	candidate.Status = models.AgentStatusOffer
	if err := tx.Save(&candidate).Error; err != nil {
		tx.Rollback()
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update candidate", err)
	}
	tx.Commit()

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(offer))
}

// SignContract attaches a signed contract, closing the recruiting pipeline
// for the candidate.
func (hc *HRController) SignContract(c *fiber.Ctx) error {
	var input struct {
		OfferID     uint      `json:"offer_id" validate:"required"`
		DocumentURL string    `json:"document_url" validate:"required,url"`
		SignedAt    time.Time `json:"signed_at" validate:"required"`
		StartDate   time.Time `json:"start_date" validate:"required"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	var candidate models.AgentProfile
	if err := hc.DB.First(&candidate, c.Params("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Candidate not found", nil)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch candidate", err)
	}
	if !canTransition(candidate.Status, models.AgentStatusContracted) {
		return utils.ErrorResponse(c, fiber.StatusConflict, "Candidate has no outstanding offer", nil)
	}

	var offer models.Offer
	if err := hc.DB.Where("id = ? AND agent_profile_id = ?", input.OfferID, candidate.ID).
		First(&offer).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Offer not found for candidate", err)
	}

	contract := models.AgentContract{
		AgentProfileID: candidate.ID,
		OfferID:        offer.ID,
		DocumentURL:    input.DocumentURL,
		SignedAt:       input.SignedAt,
		StartDate:      input.StartDate,
	}

	tx := hc.DB.Begin()
	if err := tx.Create(&contract).Error; err != nil {
		tx.Rollback()
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to record contract", err)
	}

	offer.Status = "accepted"
	if err := tx.Save(&offer).Error; err != nil {
		tx.Rollback()
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update offer", err)
	}

	candidate.Status = models.AgentStatusContracted
	if err := tx.Save(&candidate).Error; err != nil {
		tx.Rollback()
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update candidate", err)
	}
	tx.Commit()

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(contract))
}
