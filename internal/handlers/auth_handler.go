package handlers

import (
	"log/slog"

	"blogapi/internal/middleware"
	"blogapi/internal/services"

	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles HTTP requests for authentication.
type AuthHandler struct {
	authService *services.AuthService
	logger      *slog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// RegisterRoutes registers the authentication routes. requireAuth guards
// the routes that act on the current user.
func (h *AuthHandler) RegisterRoutes(router fiber.Router, requireAuth fiber.Handler) {
	authRoutes := router.Group("/auth")
	authRoutes.Post("/register", h.HandleRegister)
	authRoutes.Post("/login", h.HandleLogin)
	authRoutes.Get("/me", requireAuth, h.HandleMe)
	authRoutes.Delete("/me", requireAuth, h.HandleDeleteMe)
	authRoutes.Get("/token/refresh", h.HandleRefresh)
}

// CredentialsRequest is the body of register and login. Missing fields
// decode as empty strings; the auth service rejects them in its own order.
type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) parseCredentials(c *fiber.Ctx) (*CredentialsRequest, bool) {
	var req CredentialsRequest
	if err := c.BodyParser(&req); err != nil {
		h.logger.Debug("invalid credentials body", slog.Any("error", err))
		return nil, false
	}
	return &req, true
}

// HandleRegister handles new user registration.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	req, ok := h.parseCredentials(c)
	if !ok {
		return badRequest(c, "Invalid request body")
	}

	user, err := h.authService.Register(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return writeError(c, h.logger, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User created",
		"user":    fiber.Map{"email": user.Email},
	})
}

// HandleLogin verifies credentials and issues an access and a refresh token.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	req, ok := h.parseCredentials(c)
	if !ok {
		return badRequest(c, "Invalid request body")
	}

	result, err := h.authService.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return writeError(c, h.logger, err)
	}

	return c.JSON(fiber.Map{
		"user": fiber.Map{
			"access":   result.AccessToken,
			"refresh":  result.RefreshToken,
			"username": result.Username,
			"email":    result.Email,
		},
	})
}

// HandleMe returns the identity behind the access token.
func (h *AuthHandler) HandleMe(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	return c.JSON(fiber.Map{
		"username": user.Username,
		"email":    user.Email,
	})
}

// HandleDeleteMe deletes the calling user and all of their posts.
func (h *AuthHandler) HandleDeleteMe(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	if err := h.authService.DeleteAccount(c.UserContext(), user.ID); err != nil {
		return writeError(c, h.logger, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleRefresh exchanges the bearer refresh token for a new access token.
func (h *AuthHandler) HandleRefresh(c *fiber.Ctx) error {
	token, message, ok := middleware.BearerToken(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": message})
	}

	access, err := h.authService.Refresh(c.UserContext(), token)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{"access": access})
}
