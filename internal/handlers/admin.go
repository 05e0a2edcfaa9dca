package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/example/paygate/internal/config"
	"github.com/example/paygate/internal/utils"
)

// AdminHandler issues access tokens for the operator endpoints.
type AdminHandler struct {
	cfg      *config.Config
	validate *validator.Validate
}

func NewAdminHandler(cfg *config.Config) *AdminHandler {
	return &AdminHandler{cfg: cfg, validate: validator.New()}
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Login checks the operator credentials and returns a JWT.
func (h *AdminHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Username and password are required")
	}

	if h.cfg.AdminUsername == "" || h.cfg.AdminPasswordHash == "" || h.cfg.JWTSecret == "" {
		return fiber.NewError(fiber.StatusServiceUnavailable, "admin access is not configured")
	}

	if req.Username != h.cfg.AdminUsername || !utils.CheckPassword(h.cfg.AdminPasswordHash, req.Password) {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid credentials")
	}

	token, err := utils.GenerateToken(h.cfg.JWTSecret, req.Username, h.cfg.TokenExpires)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to issue token")
	}

	return c.JSON(fiber.Map{"token": token})
}
