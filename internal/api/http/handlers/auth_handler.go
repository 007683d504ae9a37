package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/desaconnect/complaint-service/internal/api/dto"
	"github.com/desaconnect/complaint-service/internal/auth"
	"github.com/desaconnect/complaint-service/internal/service"
	apperrors "github.com/desaconnect/complaint-service/pkg/util/errorutil"
)

// AuthHandler exposes the admin login and logout endpoints.
type AuthHandler struct {
	service *service.AuthService
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{service: authService}
}

// Login POST /auth/admin/login. On success the session token is set as
// an HTTP-only cookie.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.AdminLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}

	token, expiresAt, err := h.service.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}

	c.Cookie(&fiber.Cookie{
		Name:     auth.AdminSessionCookie,
		Value:    token,
		Expires:  expiresAt,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.JSON(fiber.Map{"data": dto.AdminLoginResponse{
		Email:     auth.NormalizeEmail(req.Email),
		ExpiresAt: expiresAt,
	}})
}

// Logout POST /auth/admin/logout. Revokes the session server-side and
// clears the cookie.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if token := c.Cookies(auth.AdminSessionCookie); token != "" {
		if err := h.service.Logout(c.UserContext(), token); err != nil {
			return err
		}
	}
	c.Cookie(&fiber.Cookie{
		Name:     auth.AdminSessionCookie,
		Value:    "",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
	})
	return c.JSON(fiber.Map{"data": fiber.Map{"logged_out": true}})
}
