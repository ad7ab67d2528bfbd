package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/JulianWeber/FanGate/app/models"
	"github.com/JulianWeber/FanGate/internal/pkg/constants"
	"github.com/JulianWeber/FanGate/internal/pkg/usercontext"
)

// RequireAuth ensures a logged-in web session; redirects to /login if missing.
func RequireAuth(c *fiber.Ctx) error {
	if !usercontext.IsLoggedIn(c) {
		return c.Redirect(constants.LoginRoute, fiber.StatusSeeOther)
	}
	return c.Next()
}

// RequireArtist ensures the session belongs to a user holding the artist role.
func RequireArtist(c *fiber.Ctx) error {
	ctx := usercontext.GetUserContext(c)
	if !ctx.IsLoggedIn {
		return c.Redirect(constants.LoginRoute, fiber.StatusSeeOther)
	}
	if ctx.Role != models.ROLE_ARTIST && !ctx.IsAdmin {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error":   "wrong-role",
			"message": "artist account required",
		})
	}
	return c.Next()
}

// RequireAdmin ensures a logged-in admin; redirects otherwise.
func RequireAdmin(c *fiber.Ctx) error {
	ctx := usercontext.GetUserContext(c)
	if !ctx.IsLoggedIn {
		return c.Redirect(constants.LoginRoute, fiber.StatusSeeOther)
	}
	if !ctx.IsAdmin {
		return c.Redirect(constants.PublicRoute, fiber.StatusSeeOther)
	}
	return c.Next()
}

// RequireAPISessionAuth ensures a logged-in session for API routes and returns JSON 401 instead of redirect.
func RequireAPISessionAuth(c *fiber.Ctx) error {
	if !usercontext.IsLoggedIn(c) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "not-authenticated",
			"message": "login required",
		})
	}
	return c.Next()
}
