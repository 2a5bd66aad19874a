package controller

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"groscales/middleware"
	"groscales/models"
	"groscales/repository"
	"groscales/utils"
)

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"omitempty,max=100"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	AccessToken string       `json:"access_token"`
	User        *models.User `json:"user"`
}

type AuthController struct {
	users  repository.UserRepository
	secret string
	logger logrus.FieldLogger
}

func NewAuthController(users repository.UserRepository, secret string, logger logrus.FieldLogger) *AuthController {
	return &AuthController{users: users, secret: secret, logger: logger.WithField("component", "auth")}
}

func (ac *AuthController) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	// Check if user already exists
	_, err := ac.users.GetByEmail(c.UserContext(), req.Email)
	if err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Email already registered",
		})
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return respondError(c, ac.logger, "Failed to create user", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to hash password",
		})
	}

	user := &models.User{
		Email:        strings.ToLower(req.Email),
		PasswordHash: string(hashedPassword),
		IsActive:     true,
	}
	if name := strings.TrimSpace(req.Name); name != "" {
		user.Name = &name
	}

	if err := ac.users.Create(c.UserContext(), user); err != nil {
		return respondError(c, ac.logger, "Failed to create user", err)
	}

	accessToken, err := utils.GenerateJWTToken(user.ID, ac.secret)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to generate tokens",
		})
	}

	utils.LogEvent(ac.logger, "user_registered", map[string]interface{}{"user_id": user.ID})
	return c.Status(fiber.StatusCreated).JSON(AuthResponse{
		AccessToken: accessToken,
		User:        user,
	})
}

func (ac *AuthController) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	user, err := ac.users.GetByEmail(c.UserContext(), req.Email)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return respondError(c, ac.logger, "Login failed", err)
		}
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid email or password",
		})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid email or password",
		})
	}

	if !user.IsActive {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Account is not active",
		})
	}

	accessToken, err := utils.GenerateJWTToken(user.ID, ac.secret)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to generate tokens",
		})
	}

	c.Cookie(&fiber.Cookie{
		Name:     "access_token",
		Value:    accessToken,
		HTTPOnly: true,
		SameSite: "Lax",
		MaxAge:   int(utils.AccessTokenTTL.Seconds()),
	})

	return c.JSON(AuthResponse{
		AccessToken: accessToken,
		User:        user,
	})
}

func (ac *AuthController) Me(c *fiber.Ctx) error {
	return c.JSON(middleware.CurrentUser(c))
}
