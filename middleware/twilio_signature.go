package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"groscales/sms"
)

const twilioSignatureHeader = "X-Twilio-Signature"

// TwilioSignature rejects webhook calls whose signature does not match the
// public URL and form body. publicBaseURL overrides the request host when
// the service sits behind a proxy.
func TwilioSignature(validator *sms.SignatureValidator, publicBaseURL string, logger logrus.FieldLogger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		base := publicBaseURL
		if base == "" {
			base = c.BaseURL()
		}
		url := base + c.OriginalURL()

		params := make(map[string]string)
		c.Request().PostArgs().VisitAll(func(key, value []byte) {
			params[string(key)] = string(value)
		})

		if !validator.Valid(url, params, c.Get(twilioSignatureHeader)) {
			logger.WithFields(logrus.Fields{
				"path": c.Path(),
				"ip":   c.IP(),
			}).Warn("Rejected webhook with invalid Twilio signature")
			return c.Status(fiber.StatusForbidden).SendString("invalid signature")
		}
		return c.Next()
	}
}
