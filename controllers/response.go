package controller

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"groscales/repository"
	"groscales/services"
	"groscales/utils"
	"groscales/worker"
)

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, services.ErrLeadNotFound),
		errors.Is(err, services.ErrThreadNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrLeadHasNoPhone),
		errors.Is(err, services.ErrNoFromNumber),
		errors.Is(err, services.ErrEmptyBody):
		return fiber.StatusBadRequest
	case errors.Is(err, services.ErrDeliveryFailed):
		return fiber.StatusBadGateway
	case errors.Is(err, worker.ErrQueueFull),
		errors.Is(err, worker.ErrDispatcherStopped):
		return fiber.StatusServiceUnavailable
	}
	return fiber.StatusInternalServerError
}

// respondError writes err with its mapped status. Internal errors are
// logged and their details hidden.
func respondError(c *fiber.Ctx, logger logrus.FieldLogger, message string, err error) error {
	status := statusFor(err)
	if status == fiber.StatusInternalServerError {
		utils.LogError(logger, "http_internal_error", err, map[string]interface{}{
			"path":   c.Path(),
			"method": c.Method(),
		})
		return utils.ErrorResponse(c, status, message, nil)
	}
	return utils.ErrorResponse(c, status, err.Error(), nil)
}

func queryInt(c *fiber.Ctx, key string, fallback int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return fallback
	}
	return v
}
