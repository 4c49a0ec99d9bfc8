package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/estate-service/internal/api/dto"
	"github.com/spec-kit/estate-service/internal/auth"
	"github.com/spec-kit/estate-service/internal/service"
	apperrors "github.com/spec-kit/estate-service/pkg/util/errorutil"
)

// AuthHandler exposes the session lifecycle endpoints: issue (login), rotate
// (refresh) and end (logout), plus registration.
type AuthHandler struct {
	auth    *service.AuthService
	cookies *auth.CookiePolicy
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, cookies *auth.CookiePolicy) *AuthHandler {
	return &AuthHandler{auth: authService, cookies: cookies}
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("name, email, password required", nil)
	}

	user, err := h.auth.Register(c.UserContext(), req.Name, req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "user registered successfully",
		"userId":  user.ID,
		"name":    user.Name,
	})
}

// Login handles POST /api/auth/login. Tokens are set as cookies only; the
// JSON body never carries either token.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}

	user, pair, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}

	h.cookies.SetPair(c, pair)
	return c.JSON(fiber.Map{
		"success": true,
		"message": "login successful",
		"user":    dto.UserResponse{ID: user.ID, Name: user.Name, Email: user.Email},
	})
}

// Refresh handles POST /api/auth/refresh, rotating the refresh token.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	presented := c.Cookies(auth.RefreshCookieName)

	_, pair, err := h.auth.Refresh(c.UserContext(), presented)
	if err != nil {
		return err
	}

	h.cookies.SetPair(c, pair)
	return c.JSON(fiber.Map{
		"success": true,
		"message": "session refreshed successfully",
	})
}

// Logout handles POST /api/auth/logout: invalidates the stored refresh token
// and clears both cookies.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := h.auth.Logout(c.UserContext(), c.Cookies(auth.RefreshCookieName)); err != nil {
		return err
	}

	h.cookies.ClearPair(c)
	return c.JSON(fiber.Map{
		"success": true,
		"message": "user logged out successfully",
	})
}
