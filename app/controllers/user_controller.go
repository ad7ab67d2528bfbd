package controllers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/JulianWeber/FanGate/app/models"
	"github.com/JulianWeber/FanGate/app/repository"
	"github.com/JulianWeber/FanGate/internal/pkg/session"
	"github.com/JulianWeber/FanGate/internal/pkg/usercontext"
)

// HandleMe returns the caller's account summary.
func HandleMe(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	user, err := repository.GetGlobalFactory().GetUserRepository().GetByID(userCtx.UserID)
	if err != nil {
		return jsonDomainError(c, err)
	}

	out := fiber.Map{
		"id":     user.ID,
		"name":   user.Name,
		"email":  user.Email,
		"role":   user.Role,
		"status": user.Status,
	}
	if artist, err := repository.GetGlobalFactory().GetArtistRepository().GetByUserID(user.ID); err == nil {
		out["artist_handle"] = artist.Handle
		out["accepts_payments"] = artist.CanAcceptPayments()
	}
	return c.JSON(out)
}

type chooseRoleRequest struct {
	Role string `json:"role"`
}

// HandleChooseRole lets OAuth users who arrived without a role pick one.
// A role, once picked, is permanent; fan and artist ledgers never mix.
func HandleChooseRole(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	var req chooseRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid-request", "malformed request body")
	}
	role := strings.ToLower(strings.TrimSpace(req.Role))
	if role != models.ROLE_FAN && role != models.ROLE_ARTIST {
		return jsonError(c, fiber.StatusBadRequest, "invalid-request", "role must be fan or artist")
	}

	userRepo := repository.GetGlobalFactory().GetUserRepository()
	user, err := userRepo.GetByID(userCtx.UserID)
	if err != nil {
		return jsonDomainError(c, err)
	}
	if user.Role != models.ROLE_NONE {
		return jsonError(c, fiber.StatusConflict, "role-fixed", "your role is already set")
	}

	user.Role = role
	if err := userRepo.Update(user); err != nil {
		return jsonDomainError(c, err)
	}
	_ = session.SetSessionValue(c, USER_ROLE, role)

	return c.JSON(fiber.Map{"ok": true, "role": role})
}
