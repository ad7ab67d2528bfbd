package controllers

import (
	"errors"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/JulianWeber/FanGate/internal/pkg/entitlements"
	"github.com/JulianWeber/FanGate/internal/pkg/payments"
)

func TestMapDomainError(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{entitlements.ErrAuthenticationRequired, fiber.StatusUnauthorized, "not-authenticated"},
		{entitlements.ErrAccessDenied, fiber.StatusForbidden, "access-denied"},
		{entitlements.ErrNotFound, fiber.StatusNotFound, "not-found"},
		{gorm.ErrRecordNotFound, fiber.StatusNotFound, "not-found"},
		{payments.ErrWrongRole, fiber.StatusForbidden, "wrong-role"},
		{payments.ErrNotPurchasable, fiber.StatusConflict, "not-purchasable"},
		{payments.ErrSellerNotOnboarded, fiber.StatusConflict, "seller-not-onboarded"},
		{payments.ErrUpstreamUnavailable, fiber.StatusBadGateway, "upstream-unavailable"},
		{payments.ErrDataIntegrity, fiber.StatusInternalServerError, "data-integrity"},
		{errors.New("anything else"), fiber.StatusInternalServerError, "internal"},
	}

	for _, tc := range cases {
		status, code, _ := mapDomainError(tc.err)
		assert.Equal(t, tc.status, status, tc.err.Error())
		assert.Equal(t, tc.code, code, tc.err.Error())
	}
}

func TestMapDomainError_WrappedSentinel(t *testing.T) {
	wrapped := errors.Join(errors.New("context"), payments.ErrSellerNotOnboarded)
	status, code, _ := mapDomainError(wrapped)
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "seller-not-onboarded", code)
}
