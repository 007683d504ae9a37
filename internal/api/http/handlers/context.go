package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/desaconnect/complaint-service/internal/auth"
	"github.com/desaconnect/complaint-service/internal/domain"
)

// mustIdentity fetches the admin identity the guard stored. Reaching
// here without one means the route was registered outside the guard,
// which is a wiring bug, not a request error.
func mustIdentity(c *fiber.Ctx) *domain.AdminIdentity {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		panic("admin identity missing from request context")
	}
	return identity
}
