package controllers

import (
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/JulianWeber/FanGate/app/models"
	"github.com/JulianWeber/FanGate/app/repository"
	"github.com/JulianWeber/FanGate/internal/pkg/database"
	"github.com/JulianWeber/FanGate/internal/pkg/env"
	"github.com/JulianWeber/FanGate/internal/pkg/hcaptcha"
	"github.com/JulianWeber/FanGate/internal/pkg/mail"
	"github.com/JulianWeber/FanGate/internal/pkg/session"
)

type registerRequest struct {
	Username     string `json:"username"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	Role         string `json:"role"`
	CaptchaToken string `json:"captcha_token"`
}

// HandleRegister creates an account in the fan or artist role. The account
// stays inactive until the mailed activation link is used.
func HandleRegister(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid-request", "malformed request body")
	}

	role := strings.ToLower(strings.TrimSpace(req.Role))
	if role != models.ROLE_FAN && role != models.ROLE_ARTIST {
		return jsonError(c, fiber.StatusBadRequest, "invalid-request", "role must be fan or artist")
	}

	if env.GetEnv("HCAPTCHA_SECRET", "") != "" {
		ok, err := hcaptcha.Verify(req.CaptchaToken)
		if err != nil || !ok {
			return jsonError(c, fiber.StatusBadRequest, "captcha-failed", "captcha verification failed")
		}
	}

	user, err := models.CreateUser(req.Username, strings.ToLower(strings.TrimSpace(req.Email)), req.Password, role)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid-request", err.Error())
	}
	if err := user.GenerateActivationToken(); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal", "could not create activation token")
	}

	userRepo := repository.GetGlobalFactory().GetUserRepository()
	if existing, err := userRepo.GetByEmail(user.Email); err == nil && existing != nil {
		return jsonError(c, fiber.StatusConflict, "email-taken", "an account with this email already exists")
	}
	if err := userRepo.Create(user); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal", "could not create account")
	}

	if err := mail.SendActivationMail(user.Email, user.ActivationToken); err != nil {
		log.Printf("[Auth] activation mail for %s failed: %v", user.Email, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"ok":      true,
		"message": "account created, check your mail to activate it",
	})
}

// HandleActivate flips an inactive account to active via its mailed token.
func HandleActivate(c *fiber.Ctx) error {
	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		return jsonError(c, fiber.StatusBadRequest, "invalid-request", "activation token missing")
	}

	userRepo := repository.GetGlobalFactory().GetUserRepository()
	user, err := userRepo.GetByActivationToken(token)
	if err != nil {
		return jsonError(c, fiber.StatusNotFound, "not-found", "activation token unknown or already used")
	}

	user.Status = models.STATUS_ACTIVE
	user.ActivationToken = ""
	if err := userRepo.Update(user); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal", "could not activate account")
	}

	return c.JSON(fiber.Map{"ok": true, "message": "account activated"})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleLogin authenticates by email and password. Failures stay generic on
// purpose; callers learn nothing about which half was wrong.
func HandleLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid-request", "malformed request body")
	}

	userRepo := repository.GetGlobalFactory().GetUserRepository()
	user, err := userRepo.GetByEmail(strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil || !user.CheckPassword(req.Password) {
		return jsonError(c, fiber.StatusUnauthorized, "login-failed", "email or password incorrect")
	}
	if !user.IsActive() {
		return jsonError(c, fiber.StatusForbidden, "account-inactive", "activate your account first")
	}

	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal", "session init failed")
	}
	sess.Set(AUTH_KEY, true)
	sess.Set(USER_ID, user.ID)
	sess.Set(USER_NAME, user.Name)
	sess.Set(USER_ROLE, user.Role)
	sess.Set(USER_ADM, user.Role == models.ROLE_ADMIN)
	if err := sess.Save(); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal", "session save failed")
	}

	database.GetDB().Model(user).Update("last_login_at", time.Now())

	return c.JSON(fiber.Map{
		"ok":   true,
		"user": fiber.Map{"id": user.ID, "name": user.Name, "role": user.Role},
	})
}

// HandleLogout destroys the session.
func HandleLogout(c *fiber.Ctx) error {
	sess, err := session.GetSessionStore().Get(c)
	if err == nil {
		_ = sess.Destroy()
	}
	return c.JSON(fiber.Map{"ok": true})
}
