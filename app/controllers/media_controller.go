package controllers

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/JulianWeber/FanGate/app/repository"
	"github.com/JulianWeber/FanGate/internal/pkg/entitlements"
	"github.com/JulianWeber/FanGate/internal/pkg/metrics/counter"
	"github.com/JulianWeber/FanGate/internal/pkg/usercontext"
)

func entitlementService() (*entitlements.Service, bool) {
	client := GetStorageClient()
	if client == nil {
		return nil, false
	}
	repos := repository.GetGlobalFactory()
	return entitlements.NewService(
		repos.GetOrderRepository(),
		repos.GetProductRepository(),
		client,
	), true
}

// HandleStreamProduct mints a short-lived streaming URL. Public products
// stream for anyone; private ones require a paid order.
func HandleStreamProduct(c *fiber.Ctx) error {
	svc, ok := entitlementService()
	if !ok {
		return jsonError(c, fiber.StatusServiceUnavailable, "storage-unavailable", "content storage is not configured")
	}

	userCtx := usercontext.GetUserContext(c)
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	url, err := svc.ResolveStreamURL(ctx, c.Params("uuid"), userCtx.UserID, userCtx.IsLoggedIn)
	if err != nil {
		return jsonDomainError(c, err)
	}
	if url == "" {
		return jsonError(c, fiber.StatusGone, "content-missing", "this content is no longer available")
	}

	if product, lookupErr := repository.GetGlobalFactory().GetProductRepository().GetByUUID(c.Params("uuid")); lookupErr == nil {
		if err := counter.AddProductPlay(product.ID); err != nil {
			log.Printf("[Media] play counter for product %s failed: %v", product.UUID, err)
		}
	}

	return c.JSON(fiber.Map{"ok": true, "url": url})
}

// HandleStreamAsset mints a streaming URL for a storage reference supplied
// directly, without a product identity. Hub pages hand out preview references
// that resolve through here; anything reachable this way is already public.
func HandleStreamAsset(c *fiber.Ctx) error {
	svc, ok := entitlementService()
	if !ok {
		return jsonError(c, fiber.StatusServiceUnavailable, "storage-unavailable", "content storage is not configured")
	}

	reference := c.Query("ref")
	if reference == "" {
		return jsonError(c, fiber.StatusBadRequest, "invalid-request", "query parameter 'ref' is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	url, err := svc.ResolveAssetURL(ctx, reference)
	if err != nil {
		return jsonDomainError(c, err)
	}
	if url == "" {
		return jsonError(c, fiber.StatusGone, "content-missing", "this content is no longer available")
	}

	return c.JSON(fiber.Map{"ok": true, "url": url})
}

// HandleDownloadProduct mints a short-lived download URL. Ownership is
// required regardless of visibility, and the file served is the one captured
// on the order line at purchase time.
func HandleDownloadProduct(c *fiber.Ctx) error {
	svc, ok := entitlementService()
	if !ok {
		return jsonError(c, fiber.StatusServiceUnavailable, "storage-unavailable", "content storage is not configured")
	}

	userCtx := usercontext.GetUserContext(c)
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	url, err := svc.ResolveDownloadURL(ctx, c.Params("uuid"), userCtx.UserID, userCtx.IsLoggedIn)
	if err != nil {
		return jsonDomainError(c, err)
	}
	if url == "" {
		return jsonError(c, fiber.StatusGone, "content-missing", "this content is no longer available")
	}

	if product, lookupErr := repository.GetGlobalFactory().GetProductRepository().GetByUUID(c.Params("uuid")); lookupErr == nil {
		if err := counter.AddProductDownload(product.ID); err != nil {
			log.Printf("[Media] download counter for product %s failed: %v", product.UUID, err)
		}
	}

	return c.JSON(fiber.Map{"ok": true, "url": url})
}
