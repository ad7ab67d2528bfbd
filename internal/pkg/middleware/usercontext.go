package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/JulianWeber/FanGate/internal/pkg/session"
	"github.com/JulianWeber/FanGate/internal/pkg/usercontext"
)

// UserContextMiddleware resolves the session into a UserContext for every
// request. Anonymous requests get an explicit anonymous context; handlers
// never have to guess whether identity was resolved.
func UserContextMiddleware(c *fiber.Ctx) error {
	// Goth uses its own fiber session store and relies on per-request locals.
	// We skip our app session on /auth/* to prevent cross-store collisions.
	if strings.HasPrefix(c.Path(), "/auth/") {
		return c.Next()
	}

	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		return anonymous(c)
	}

	userID := sess.Get(usercontext.KeyUserID)
	uid, ok := userID.(uint)
	if !ok || uid == 0 {
		return anonymous(c)
	}

	username := session.GetSessionValue(c, usercontext.KeyUsername)
	role := session.GetSessionValue(c, usercontext.KeyUserRole)
	isAdmin, _ := sess.Get(usercontext.KeyIsAdmin).(bool)

	userCtx := usercontext.UserContext{
		UserID:     uid,
		Username:   username,
		Role:       role,
		IsLoggedIn: true,
		IsAdmin:    isAdmin,
	}
	c.Locals("USER_CONTEXT", userCtx)
	c.Locals(usercontext.KeyFromProtected, true)
	c.Locals(usercontext.KeyUserID, uid)
	c.Locals(usercontext.KeyUsername, username)
	c.Locals(usercontext.KeyIsAdmin, isAdmin)

	return c.Next()
}

func anonymous(c *fiber.Ctx) error {
	c.Locals("USER_CONTEXT", usercontext.UserContext{
		IsLoggedIn: false,
		IsAdmin:    false,
	})
	c.Locals(usercontext.KeyFromProtected, false)
	c.Locals(usercontext.KeyIsAdmin, false)
	return c.Next()
}
