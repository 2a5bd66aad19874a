package controller

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"groscales/middleware"
	"groscales/services"
	"groscales/utils"
)

type MessageSender interface {
	Send(ctx context.Context, ownerID, leadID uint, body string) (*services.SendResult, error)
}

type MessageController struct {
	sender MessageSender
	logger logrus.FieldLogger
}

func NewMessageController(sender MessageSender, logger logrus.FieldLogger) *MessageController {
	return &MessageController{sender: sender, logger: logger.WithField("component", "messages")}
}

// SendMessage texts a lead outside of any workflow.
func (mc *MessageController) SendMessage(c *fiber.Ctx) error {
	var input struct {
		LeadID uint   `json:"leadId" validate:"required"`
		Body   string `json:"body" validate:"required,max=1600"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	result, err := mc.sender.Send(c.UserContext(), middleware.CurrentUserID(c), input.LeadID, input.Body)
	if errors.Is(err, services.ErrDeliveryFailed) && result != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"ok":        false,
			"error":     result.Error,
			"messageId": result.MessageID,
			"threadId":  result.ThreadID,
		})
	}
	if err != nil {
		return respondError(c, mc.logger, "Failed to send message", err)
	}
	return c.JSON(result)
}
