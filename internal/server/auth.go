package server

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	Mode      string // "none", "api-key", or "jwt"
	APIKey    string
	JWTSecret string
}

// NewAuthMiddleware returns a Fiber middleware that validates the
// Authorization header according to the configured mode.
func NewAuthMiddleware(cfg AuthConfig, logger zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if cfg.Mode == "" || cfg.Mode == "none" {
			return c.Next()
		}

		// Probe endpoints stay open
		path := c.Path()
		if path == "/healthz" || path == "/readyz" || path == "/metrics" {
			return c.Next()
		}

		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return problemResponse(c, fiber.StatusUnauthorized,
				"missing_auth", "Unauthorized",
				"Authorization header is required")
		}
		if !strings.HasPrefix(authHeader, "Bearer ") {
			return problemResponse(c, fiber.StatusUnauthorized,
				"invalid_auth_scheme", "Unauthorized",
				"Authorization header must use Bearer scheme")
		}
		token := strings.TrimPrefix(authHeader, "Bearer ")

		switch cfg.Mode {
		case "api-key":
			if cfg.APIKey != "" && token == cfg.APIKey {
				return c.Next()
			}
			logger.Warn().
				Str("path", path).
				Str("method", c.Method()).
				Msg("unauthorized request: invalid API key")
			return problemResponse(c, fiber.StatusUnauthorized,
				"invalid_api_key", "Unauthorized",
				"Invalid API key")

		case "jwt":
			subject, err := validateJWT(token, cfg.JWTSecret)
			if err != nil {
				logger.Warn().
					Err(err).
					Str("path", path).
					Str("method", c.Method()).
					Msg("unauthorized request: invalid token")
				return problemResponse(c, fiber.StatusUnauthorized,
					"invalid_token", "Unauthorized",
					"Invalid or expired token")
			}
			c.Locals("subject", subject)
			return c.Next()

		default:
			return problemResponse(c, fiber.StatusUnauthorized,
				"unknown_auth_mode", "Unauthorized",
				"Server auth mode is misconfigured")
		}
	}
}

// validateJWT parses and verifies an HMAC-signed token, returning its
// subject claim.
func validateJWT(token, secret string) (string, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", err
	}
	if !parsed.Valid {
		return "", fmt.Errorf("token is not valid")
	}
	subject, err := parsed.Claims.GetSubject()
	if err != nil {
		return "", fmt.Errorf("reading subject claim: %w", err)
	}
	return subject, nil
}
