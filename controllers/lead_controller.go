package controller

import (
	"errors"
	"strings"

	"github.com/badoux/checkmail"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"groscales/middleware"
	"groscales/models"
	"groscales/repository"
	"groscales/utils"
)

type LeadInput struct {
	Name    *string `json:"name" validate:"omitempty,min=1,max=200"`
	Phone   *string `json:"phone" validate:"omitempty,max=32"`
	Email   *string `json:"email" validate:"omitempty,max=254"`
	Company *string `json:"company" validate:"omitempty,max=200"`
	Source  *string `json:"source" validate:"omitempty,max=50"`
}

type LeadController struct {
	leads  repository.LeadRepository
	region string
	logger logrus.FieldLogger
}

func NewLeadController(leads repository.LeadRepository, region string, logger logrus.FieldLogger) *LeadController {
	return &LeadController{
		leads:  leads,
		region: region,
		logger: logger.WithField("component", "leads"),
	}
}

// CreateLead creates a new lead with validation
func (lc *LeadController) CreateLead(c *fiber.Ctx) error {
	var input LeadInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}
	if input.Name == nil || strings.TrimSpace(*input.Name) == "" {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", errors.New("name is required"))
	}

	lead := &models.Lead{
		OwnerID: middleware.CurrentUserID(c),
		Source:  "manual",
	}
	if err := lc.apply(lead, input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	if err := lc.leads.Create(c.UserContext(), lead); err != nil {
		return respondError(c, lc.logger, "Failed to create lead", err)
	}
	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(lead))
}

// GetLeads returns paginated list of leads
func (lc *LeadController) GetLeads(c *fiber.Ctx) error {
	filter := repository.LeadFilter{
		Search: c.Query("search"),
		Page:   queryInt(c, "page", 1),
		Limit:  queryInt(c, "limit", 20),
	}

	leads, total, err := lc.leads.List(c.UserContext(), middleware.CurrentUserID(c), filter)
	if err != nil {
		return respondError(c, lc.logger, "Failed to fetch leads", err)
	}

	return c.JSON(utils.SuccessResponse(utils.PaginatedResponse{
		Data:  leads,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}))
}

func (lc *LeadController) GetLead(c *fiber.Ctx) error {
	id := utils.ParseUint(c.Params("id"))
	if id == 0 {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid lead ID", nil)
	}

	lead, err := lc.leads.GetForOwner(c.UserContext(), middleware.CurrentUserID(c), id)
	if err != nil {
		return respondError(c, lc.logger, "Failed to fetch lead", err)
	}
	return c.JSON(utils.SuccessResponse(lead))
}

func (lc *LeadController) UpdateLead(c *fiber.Ctx) error {
	id := utils.ParseUint(c.Params("id"))
	if id == 0 {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid lead ID", nil)
	}

	var input LeadInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	lead, err := lc.leads.GetForOwner(c.UserContext(), middleware.CurrentUserID(c), id)
	if err != nil {
		return respondError(c, lc.logger, "Failed to fetch lead", err)
	}
	if err := lc.apply(lead, input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	if err := lc.leads.Update(c.UserContext(), lead); err != nil {
		return respondError(c, lc.logger, "Failed to update lead", err)
	}
	return c.JSON(utils.SuccessResponse(lead))
}

func (lc *LeadController) DeleteLead(c *fiber.Ctx) error {
	id := utils.ParseUint(c.Params("id"))
	if id == 0 {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid lead ID", nil)
	}

	if err := lc.leads.Delete(c.UserContext(), middleware.CurrentUserID(c), id); err != nil {
		return respondError(c, lc.logger, "Failed to delete lead", err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Lead deleted successfully",
	})
}

// apply copies the non-nil fields of input onto lead. Phones are stored in
// E.164 so inbound matching can compare them exactly.
func (lc *LeadController) apply(lead *models.Lead, input LeadInput) error {
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return errors.New("name must not be empty")
		}
		lead.Name = name
	}
	if input.Phone != nil {
		phone := strings.TrimSpace(*input.Phone)
		if phone != "" {
			if err := utils.ValidatePhoneNumber(phone, lc.region); err != nil {
				return errors.New("phone is not a valid phone number")
			}
			normalized, err := utils.NormalizeE164(phone, lc.region)
			if err != nil {
				return errors.New("phone is not a valid phone number")
			}
			phone = normalized
		}
		lead.Phone = phone
	}
	if input.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*input.Email))
		if email != "" {
			if err := checkmail.ValidateFormat(email); err != nil {
				return errors.New("email must be a valid email")
			}
		}
		lead.Email = email
	}
	if input.Company != nil {
		lead.Company = strings.TrimSpace(*input.Company)
	}
	if input.Source != nil && strings.TrimSpace(*input.Source) != "" {
		lead.Source = strings.TrimSpace(*input.Source)
	}
	return nil
}
