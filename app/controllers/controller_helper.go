package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/JulianWeber/FanGate/internal/pkg/entitlements"
	"github.com/JulianWeber/FanGate/internal/pkg/payments"
	"github.com/JulianWeber/FanGate/internal/pkg/storage"
	"github.com/JulianWeber/FanGate/internal/pkg/usercontext"
)

const (
	AUTH_KEY  string = "authenticated"
	USER_ID   string = usercontext.KeyUserID
	USER_NAME string = usercontext.KeyUsername
	USER_ROLE string = usercontext.KeyUserRole
	USER_ADM  string = usercontext.KeyIsAdmin
)

// storageClient is wired once at boot; controllers never build their own.
var storageClient *storage.Client

func SetStorageClient(c *storage.Client) {
	storageClient = c
}

func GetStorageClient() *storage.Client {
	return storageClient
}

func isLoggedIn(c *fiber.Ctx) bool {
	return usercontext.IsLoggedIn(c)
}

// jsonError emits the stable error envelope every API route uses.
func jsonError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error":   code,
		"message": message,
	})
}

// mapDomainError translates service-layer sentinels into HTTP status plus a
// stable error code. Unknown errors stay 500 so nothing internal leaks.
func mapDomainError(err error) (int, string, string) {
	switch {
	case errors.Is(err, entitlements.ErrAuthenticationRequired):
		return fiber.StatusUnauthorized, "not-authenticated", "login required"
	case errors.Is(err, entitlements.ErrAccessDenied):
		return fiber.StatusForbidden, "access-denied", "no paid order for this content"
	case errors.Is(err, entitlements.ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		return fiber.StatusNotFound, "not-found", "resource not found"
	case errors.Is(err, payments.ErrWrongRole):
		return fiber.StatusForbidden, "wrong-role", "your account role cannot perform this action"
	case errors.Is(err, payments.ErrNotPurchasable):
		return fiber.StatusConflict, "not-purchasable", "this product cannot be purchased"
	case errors.Is(err, payments.ErrSellerNotOnboarded):
		return fiber.StatusConflict, "seller-not-onboarded", "the seller cannot accept payments yet"
	case errors.Is(err, payments.ErrUpstreamUnavailable):
		return fiber.StatusBadGateway, "upstream-unavailable", "payment provider is unavailable, try again"
	case errors.Is(err, payments.ErrDataIntegrity):
		return fiber.StatusInternalServerError, "data-integrity", "payment data could not be reconciled"
	default:
		return fiber.StatusInternalServerError, "internal", "internal server error"
	}
}

func jsonDomainError(c *fiber.Ctx, err error) error {
	status, code, message := mapDomainError(err)
	return jsonError(c, status, code, message)
}
