package controller

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"groscales/middleware"
	"groscales/models"
	"groscales/repository"
	"groscales/utils"
)

type PhoneNumberController struct {
	numbers repository.PhoneNumberRepository
	region  string
	logger  logrus.FieldLogger
}

func NewPhoneNumberController(numbers repository.PhoneNumberRepository, region string, logger logrus.FieldLogger) *PhoneNumberController {
	return &PhoneNumberController{
		numbers: numbers,
		region:  region,
		logger:  logger.WithField("component", "phone_numbers"),
	}
}

func (pc *PhoneNumberController) List(c *fiber.Ctx) error {
	numbers, err := pc.numbers.List(c.UserContext(), middleware.CurrentUserID(c))
	if err != nil {
		return respondError(c, pc.logger, "Failed to fetch phone numbers", err)
	}
	return c.JSON(utils.SuccessResponse(numbers))
}

func (pc *PhoneNumberController) Create(c *fiber.Ctx) error {
	var input struct {
		Number       string `json:"number" validate:"required,max=32"`
		FriendlyName string `json:"friendly_name" validate:"omitempty,max=100"`
		IsDefault    bool   `json:"is_default"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	if err := utils.ValidatePhoneNumber(input.Number, pc.region); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid phone number", nil)
	}
	number, err := utils.NormalizeE164(input.Number, pc.region)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid phone number", nil)
	}

	_, err = pc.numbers.FindByNumber(c.UserContext(), number)
	if err == nil {
		return utils.ErrorResponse(c, fiber.StatusConflict, "Phone number already registered", nil)
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return respondError(c, pc.logger, "Failed to create phone number", err)
	}

	pn := &models.PhoneNumber{
		OwnerID:      middleware.CurrentUserID(c),
		Number:       number,
		FriendlyName: strings.TrimSpace(input.FriendlyName),
		IsDefault:    input.IsDefault,
	}
	if err := pc.numbers.Create(c.UserContext(), pn); err != nil {
		return respondError(c, pc.logger, "Failed to create phone number", err)
	}
	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(pn))
}

func (pc *PhoneNumberController) SetDefault(c *fiber.Ctx) error {
	id := utils.ParseUint(c.Params("id"))
	if id == 0 {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid phone number ID", nil)
	}
	if err := pc.numbers.SetDefault(c.UserContext(), middleware.CurrentUserID(c), id); err != nil {
		return respondError(c, pc.logger, "Failed to set default number", err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Default number updated",
	})
}
