package controller

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"groscales/models"
	"groscales/services"
	"groscales/sms"
	"groscales/utils"
)

type InboundHandler interface {
	Handle(ctx context.Context, in services.InboundSMS) (*models.Message, error)
}

type StatusApplier interface {
	Apply(ctx context.Context, cb services.StatusCallback) (bool, error)
}

// WebhookController acknowledges every provider callback with empty TwiML,
// whatever happened while processing it, so the provider does not retry.
type WebhookController struct {
	inbound InboundHandler
	status  StatusApplier
	logger  logrus.FieldLogger
}

func NewWebhookController(inbound InboundHandler, status StatusApplier, logger logrus.FieldLogger) *WebhookController {
	return &WebhookController{
		inbound: inbound,
		status:  status,
		logger:  logger.WithField("component", "webhooks"),
	}
}

func (wc *WebhookController) HandleInbound(c *fiber.Ctx) (err error) {
	defer wc.recoverAck(c, &err)
	in := services.InboundSMS{
		From:       c.FormValue("From"),
		To:         c.FormValue("To"),
		Body:       c.FormValue("Body"),
		MessageSID: c.FormValue("MessageSid"),
	}

	if _, handleErr := wc.inbound.Handle(c.UserContext(), in); handleErr != nil {
		utils.LogError(wc.logger, "inbound_sms_failed", handleErr, map[string]interface{}{
			"from":        in.From,
			"to":          in.To,
			"message_sid": in.MessageSID,
		})
	}
	return ackTwiML(c)
}

func (wc *WebhookController) HandleStatus(c *fiber.Ctx) (err error) {
	defer wc.recoverAck(c, &err)
	cb := services.StatusCallback{
		MessageSID:    c.FormValue("MessageSid"),
		MessageStatus: c.FormValue("MessageStatus"),
		ErrorCode:     c.FormValue("ErrorCode"),
		ErrorMessage:  c.FormValue("ErrorMessage"),
		MessageID:     utils.ParseUint(c.Query("mid")),
	}

	if _, applyErr := wc.status.Apply(c.UserContext(), cb); applyErr != nil {
		utils.LogError(wc.logger, "status_callback_failed", applyErr, map[string]interface{}{
			"message_sid": cb.MessageSID,
			"message_id":  cb.MessageID,
			"status":      cb.MessageStatus,
		})
	}
	return ackTwiML(c)
}

func (wc *WebhookController) recoverAck(c *fiber.Ctx, err *error) {
	if r := recover(); r != nil {
		utils.LogError(wc.logger, "webhook_panic", fmt.Errorf("%v", r), map[string]interface{}{
			"path": c.Path(),
		})
		*err = ackTwiML(c)
	}
}

func ackTwiML(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, "text/xml")
	return c.Status(fiber.StatusOK).SendString(sms.EmptyResponse())
}
