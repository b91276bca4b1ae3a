package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const HeaderInternalToken = "X-Internal-Token"

// InternalTokenMiddleware guards service-to-service routes with a shared
// token, sent as X-Internal-Token or a bearer token. An empty token disables
// the check.
func InternalTokenMiddleware(token string, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token == "" {
			return c.Next()
		}

		got := c.Get(HeaderInternalToken)
		if got == "" {
			got = strings.TrimPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
		}
		if got == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing internal token"})
		}

		if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			log.Debug("internal token mismatch", zap.String("ip", c.IP()))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid internal token"})
		}

		return c.Next()
	}
}
