// Package middleware provides HTTP middleware components for the application.
// It includes authentication and authorization middleware for the fiber
// web framework.
package middleware

import (
	"log"
	"strings"

	"bridgepay/internal/config"
	"bridgepay/internal/models"
	"bridgepay/internal/services/auth"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// AuthMiddleware handles JWT token validation and user authentication.
// It extracts the JWT token from the Authorization header, validates it,
// and adds the user claims to the request context.
type AuthMiddleware struct {
	authService auth.Service
}

func NewAuthMiddleware(authService auth.Service) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
	}
}

// Handler validates JWT tokens and adds claims to the request context.
// It checks for:
// - Presence of Authorization header with Bearer token
// - Valid JWT signature and expiration
// - Token version matches current user version
func (m *AuthMiddleware) Handler(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing authorization header"})
	}

	if !strings.HasPrefix(authHeader, "Bearer ") {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid authorization format"})
	}

	tokenString := strings.TrimPrefix(authHeader, "Bearer ")

	token, err := jwt.ParseWithClaims(tokenString, &models.UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(config.GetEnv("JWT_SECRET", "")), nil
	})
	if err != nil || !token.Valid {
		log.Printf("Token validation error: %v", err)
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid token"})
	}

	claims, ok := token.Claims.(*models.UserClaims)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid claims"})
	}

	// A role change or logout bumps the stored version; older tokens die here.
	currentVersion, err := m.authService.GetUserTokenVersion(claims.UserID)
	if err != nil {
		log.Printf("Error getting token version for user %d: %v", claims.UserID, err)
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid token"})
	}
	if claims.TokenVersion != currentVersion {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "session expired"})
	}

	c.Locals("claims", claims)
	c.Locals("userID", claims.UserID)

	return c.Next()
}

// AdminAuthMiddleware verifies that the request has valid admin claims.
func AdminAuthMiddleware(c *fiber.Ctx) error {
	claims, ok := c.Locals("claims").(*models.UserClaims)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid claims"})
	}

	if claims.Role != models.RoleAdmin {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Insufficient permissions"})
	}

	return c.Next()
}

// HasPermission returns a middleware that checks for a specific permission.
func HasPermission(permission string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := c.Locals("claims").(*models.UserClaims)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
		}

		if claims.Role == models.RoleAdmin {
			return c.Next()
		}

		if claims.HasPermission(permission) {
			return c.Next()
		}

		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Insufficient permissions"})
	}
}
