package middleware

import (
	"log/slog"
	"strings"

	"blogapi/internal/models"
	"blogapi/internal/services"

	"github.com/gofiber/fiber/v2"
)

const currentUserKey = "current_user"

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header. The message describes what is wrong when ok is false.
func BearerToken(c *fiber.Ctx) (token string, message string, ok bool) {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return "", "Missing Authorization Header", false
	}

	// Expected format: "Bearer <token>"
	parts := strings.SplitN(authHeader, " ", 2)
	if !(len(parts) == 2 && parts[0] == "Bearer" && strings.TrimSpace(parts[1]) != "") {
		return "", "Authorization header format must be 'Bearer <token>'", false
	}
	return strings.TrimSpace(parts[1]), "", true
}

// AuthRequired is a Fiber middleware that resolves an access token to the
// calling user and stores it for subsequent handlers.
func AuthRequired(authService *services.AuthService, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, message, ok := BearerToken(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": message})
		}

		user, err := authService.CurrentIdentity(c.UserContext(), tokenString)
		if err != nil {
			if models.KindOf(err) == models.KindInternal {
				logger.Error("failed to resolve identity", slog.Any("error", err))
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": models.InternalMessage})
			}
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
		}

		c.Locals(currentUserKey, user)
		return c.Next()
	}
}

// CurrentUser returns the user stored by AuthRequired, or nil.
func CurrentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(currentUserKey).(*models.User)
	return user
}
