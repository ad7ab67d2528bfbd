package controllers

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/JulianWeber/FanGate/internal/pkg/database"
	"github.com/JulianWeber/FanGate/internal/pkg/env"
	"github.com/JulianWeber/FanGate/internal/pkg/payments"
	"github.com/JulianWeber/FanGate/internal/pkg/usercontext"
)

type checkoutRequest struct {
	ProductUUID string `json:"product_uuid"`
}

// HandleCreateCheckout opens a hosted checkout session for the logged-in fan
// and returns the redirect URL. Nothing is written locally; the order appears
// once the provider's webhook confirms payment.
func HandleCreateCheckout(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return jsonError(c, fiber.StatusUnauthorized, "not-authenticated", "login required")
	}

	var req checkoutRequest
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.ProductUUID) == "" {
		return jsonError(c, fiber.StatusBadRequest, "invalid-request", "product_uuid is required")
	}

	base := strings.TrimRight(env.GetEnv("PUBLIC_DOMAIN", "http://localhost:4000"), "/")
	successURL := base + "/library?purchase=success"
	cancelURL := base + "/library?purchase=cancelled"

	svc := payments.NewService(payments.NewRepository(database.GetDB()), payments.NewClientFromEnv(), nil)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	session, err := svc.CreateCheckout(ctx, payments.CheckoutInput{
		BuyerID:     userCtx.UserID,
		ProductUUID: strings.TrimSpace(req.ProductUUID),
	}, successURL, cancelURL)
	if err != nil {
		return jsonDomainError(c, err)
	}

	return c.JSON(fiber.Map{
		"ok":           true,
		"checkout_url": session.URL,
		"session_id":   session.ID,
	})
}
