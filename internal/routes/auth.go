package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/heartbridge/heartbridge/internal/identity"
)

// RegisterAuthRoutes wires the phone/OTP login endpoints. rateLimiter guards
// start-login only.
func RegisterAuthRoutes(r fiber.Router, h *identity.Handler, rateLimiter fiber.Handler) {
	group := r.Group("/auth")
	if rateLimiter != nil {
		group.Post("/start-login", rateLimiter, h.StartLogin)
	} else {
		group.Post("/start-login", h.StartLogin)
	}
	group.Post("/verify-code", h.VerifyCode)
	group.Post("/login", h.Login)
}
