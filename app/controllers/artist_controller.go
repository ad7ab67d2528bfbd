package controllers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"mime/multipart"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/JulianWeber/FanGate/app/models"
	"github.com/JulianWeber/FanGate/app/repository"
	"github.com/JulianWeber/FanGate/internal/pkg/env"
	"github.com/JulianWeber/FanGate/internal/pkg/payments"
	"github.com/JulianWeber/FanGate/internal/pkg/storage"
	"github.com/JulianWeber/FanGate/internal/pkg/usercontext"
)

// currentArtist resolves the logged-in user's artist profile.
func currentArtist(c *fiber.Ctx) (*models.ArtistProfile, error) {
	userCtx := usercontext.GetUserContext(c)
	return repository.GetGlobalFactory().GetArtistRepository().GetByUserID(userCtx.UserID)
}

type artistProfileRequest struct {
	Handle      string `json:"handle"`
	DisplayName string `json:"display_name"`
	Bio         string `json:"bio"`
	AvatarURL   string `json:"avatar_url"`
}

// HandleCreateArtistProfile claims a handle and opens the hub. One profile
// per user; the handle is immutable once taken.
func HandleCreateArtistProfile(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	var req artistProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid-request", "malformed request body")
	}

	artistRepo := repository.GetGlobalFactory().GetArtistRepository()
	if _, err := artistRepo.GetByUserID(userCtx.UserID); err == nil {
		return jsonError(c, fiber.StatusConflict, "profile-exists", "you already have an artist profile")
	}

	handle := strings.ToLower(strings.TrimSpace(req.Handle))
	taken, err := artistRepo.HandleExists(handle)
	if err != nil {
		return jsonDomainError(c, err)
	}
	if taken {
		return jsonError(c, fiber.StatusConflict, "handle-taken", "this handle is already in use")
	}

	profile := &models.ArtistProfile{
		UserID:      userCtx.UserID,
		Handle:      handle,
		DisplayName: strings.TrimSpace(req.DisplayName),
		Bio:         req.Bio,
		AvatarURL:   strings.TrimSpace(req.AvatarURL),
	}
	if err := profile.Validate(); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid-request", err.Error())
	}
	if err := artistRepo.CreateProfile(profile); err != nil {
		return jsonDomainError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(profile)
}

// HandleUpdateArtistProfile edits display fields. The handle stays fixed.
func HandleUpdateArtistProfile(c *fiber.Ctx) error {
	profile, err := currentArtist(c)
	if err != nil {
		return jsonError(c, fiber.StatusNotFound, "not-found", "no artist profile")
	}

	var req artistProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid-request", "malformed request body")
	}

	if req.DisplayName != "" {
		profile.DisplayName = strings.TrimSpace(req.DisplayName)
	}
	profile.Bio = req.Bio
	profile.AvatarURL = strings.TrimSpace(req.AvatarURL)
	if err := profile.Validate(); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid-request", err.Error())
	}

	if err := repository.GetGlobalFactory().GetArtistRepository().UpdateProfile(profile); err != nil {
		return jsonDomainError(c, err)
	}
	InvalidateHubCache(profile.Handle)
	return c.JSON(profile)
}

type linkRequest struct {
	Label    string `json:"label"`
	URL      string `json:"url"`
	Position int    `json:"position"`
}

// HandleReplaceLinks swaps the full link list in one call. Partial edits are
// not worth a per-link API at this catalog size.
func HandleReplaceLinks(c *fiber.Ctx) error {
	profile, err := currentArtist(c)
	if err != nil {
		return jsonError(c, fiber.StatusNotFound, "not-found", "no artist profile")
	}

	var reqs []linkRequest
	if err := c.BodyParser(&reqs); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid-request", "malformed request body")
	}

	links := make([]models.ArtistLink, 0, len(reqs))
	for i, r := range reqs {
		if strings.TrimSpace(r.Label) == "" || strings.TrimSpace(r.URL) == "" {
			return jsonError(c, fiber.StatusBadRequest, "invalid-request", "every link needs a label and url")
		}
		links = append(links, models.ArtistLink{
			ArtistID: profile.ID,
			Label:    strings.TrimSpace(r.Label),
			URL:      strings.TrimSpace(r.URL),
			Position: i,
		})
	}

	if err := repository.GetGlobalFactory().GetArtistRepository().ReplaceLinks(profile.ID, links); err != nil {
		return jsonDomainError(c, err)
	}
	InvalidateHubCache(profile.Handle)
	return c.JSON(fiber.Map{"ok": true, "links": links})
}

type productRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	ItemType    string `json:"item_type"`
	PriceAmount int64  `json:"price_amount"`
	Currency    string `json:"currency"`
	Visibility  string `json:"visibility"`
	Published   bool   `json:"published"`
	ShowUUID    string `json:"show_uuid,omitempty"`
}

// HandleCreateProduct adds a catalog item. Content is attached afterwards via
// the upload endpoint; until then the product cannot serve media.
func HandleCreateProduct(c *fiber.Ctx) error {
	profile, err := currentArtist(c)
	if err != nil {
		return jsonError(c, fiber.StatusNotFound, "not-found", "no artist profile")
	}

	var req productRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid-request", "malformed request body")
	}

	product := &models.Product{
		ArtistID:    profile.ID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		ItemType:    strings.ToLower(strings.TrimSpace(req.ItemType)),
		PriceAmount: req.PriceAmount,
		Currency:    strings.ToLower(strings.TrimSpace(req.Currency)),
		Visibility:  strings.ToLower(strings.TrimSpace(req.Visibility)),
		Published:   req.Published,
	}
	if product.Currency == "" {
		product.Currency = "usd"
	}
	if product.Visibility == "" {
		product.Visibility = models.VisibilityPrivate
	}
	if product.ItemType == models.ProductTypeTicket && req.ShowUUID != "" {
		show, err := repository.GetGlobalFactory().GetShowRepository().GetByUUID(req.ShowUUID)
		if err != nil || show.ArtistID != profile.ID {
			return jsonError(c, fiber.StatusBadRequest, "invalid-request", "show_uuid does not reference your show")
		}
		product.ShowID = &show.ID
	}
	if err := product.Validate(); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid-request", err.Error())
	}

	if err := repository.GetGlobalFactory().GetProductRepository().Create(product); err != nil {
		return jsonDomainError(c, err)
	}
	InvalidateHubCache(profile.Handle)
	return c.Status(fiber.StatusCreated).JSON(product)
}

// HandleUpdateProduct edits metadata and the price. Already sold order lines
// keep their snapshot, so edits never rewrite history.
func HandleUpdateProduct(c *fiber.Ctx) error {
	profile, product, err := ownedProduct(c)
	if err != nil {
		return jsonError(c, fiber.StatusNotFound, "not-found", err.Error())
	}

	var req productRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid-request", "malformed request body")
	}

	if req.Title != "" {
		product.Title = strings.TrimSpace(req.Title)
	}
	product.Description = req.Description
	if req.PriceAmount > 0 {
		product.PriceAmount = req.PriceAmount
	}
	if req.Visibility != "" {
		product.Visibility = strings.ToLower(strings.TrimSpace(req.Visibility))
	}
	product.Published = req.Published
	if err := product.Validate(); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid-request", err.Error())
	}

	if err := repository.GetGlobalFactory().GetProductRepository().Update(product); err != nil {
		return jsonDomainError(c, err)
	}
	InvalidateHubCache(profile.Handle)
	return c.JSON(product)
}

// HandleDeleteProduct soft-deletes a catalog item. Sold order lines keep
// serving from their snapshot.
func HandleDeleteProduct(c *fiber.Ctx) error {
	profile, product, err := ownedProduct(c)
	if err != nil {
		return jsonError(c, fiber.StatusNotFound, "not-found", err.Error())
	}

	if err := repository.GetGlobalFactory().GetProductRepository().Delete(product.ID); err != nil {
		return jsonDomainError(c, err)
	}
	InvalidateHubCache(profile.Handle)
	return c.JSON(fiber.Map{"ok": true})
}

// HandleUploadProductContent attaches the media file to a product. The stored
// object key becomes the product's live content reference. An optional
// 'preview' file in the same form becomes the public preview reference
// published on the hub page.
func HandleUploadProductContent(c *fiber.Ctx) error {
	profile, product, err := ownedProduct(c)
	if err != nil {
		return jsonError(c, fiber.StatusNotFound, "not-found", err.Error())
	}

	client := GetStorageClient()
	if client == nil {
		return jsonError(c, fiber.StatusServiceUnavailable, "storage-unavailable", "content storage is not configured")
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid-request", "multipart field 'file' is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	objectKey := storage.ContentObjectKey(profile.ID, product.UUID, fileHeader.Filename)
	if err := uploadFormFile(ctx, client, fileHeader, objectKey); err != nil {
		log.Printf("[Artist] content upload for product %s failed: %v", product.UUID, err)
		return jsonError(c, fiber.StatusBadGateway, "upstream-unavailable", "content storage rejected the upload")
	}
	product.ContentReference = objectKey

	if previewHeader, err := c.FormFile("preview"); err == nil {
		previewKey := storage.PreviewObjectKey(profile.ID, product.UUID, previewHeader.Filename)
		if err := uploadFormFile(ctx, client, previewHeader, previewKey); err != nil {
			log.Printf("[Artist] preview upload for product %s failed: %v", product.UUID, err)
			return jsonError(c, fiber.StatusBadGateway, "upstream-unavailable", "content storage rejected the upload")
		}
		product.PreviewReference = previewKey
	}

	if err := repository.GetGlobalFactory().GetProductRepository().Update(product); err != nil {
		return jsonDomainError(c, err)
	}

	return c.JSON(fiber.Map{"ok": true, "product_uuid": product.UUID})
}

func uploadFormFile(ctx context.Context, client *storage.Client, fileHeader *multipart.FileHeader, objectKey string) error {
	file, err := fileHeader.Open()
	if err != nil {
		return err
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return client.Upload(ctx, objectKey, file, contentType, fileHeader.Size)
}

type showRequest struct {
	Title    string    `json:"title"`
	Venue    string    `json:"venue"`
	City     string    `json:"city"`
	StartsAt time.Time `json:"starts_at"`
}

// HandleCreateShow announces a live date on the hub.
func HandleCreateShow(c *fiber.Ctx) error {
	profile, err := currentArtist(c)
	if err != nil {
		return jsonError(c, fiber.StatusNotFound, "not-found", "no artist profile")
	}

	var req showRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid-request", "malformed request body")
	}
	if strings.TrimSpace(req.Title) == "" || req.StartsAt.IsZero() {
		return jsonError(c, fiber.StatusBadRequest, "invalid-request", "title and starts_at are required")
	}

	show := &models.Show{
		ArtistID: profile.ID,
		Title:    strings.TrimSpace(req.Title),
		Venue:    strings.TrimSpace(req.Venue),
		City:     strings.TrimSpace(req.City),
		StartsAt: req.StartsAt,
	}
	if err := repository.GetGlobalFactory().GetShowRepository().Create(show); err != nil {
		return jsonDomainError(c, err)
	}
	InvalidateHubCache(profile.Handle)
	return c.Status(fiber.StatusCreated).JSON(show)
}

// HandleDeleteShow removes an announced date.
func HandleDeleteShow(c *fiber.Ctx) error {
	profile, err := currentArtist(c)
	if err != nil {
		return jsonError(c, fiber.StatusNotFound, "not-found", "no artist profile")
	}

	show, err := repository.GetGlobalFactory().GetShowRepository().GetByUUID(c.Params("uuid"))
	if err != nil || show.ArtistID != profile.ID {
		return jsonError(c, fiber.StatusNotFound, "not-found", "show not found")
	}

	if err := repository.GetGlobalFactory().GetShowRepository().Delete(show.ID); err != nil {
		return jsonDomainError(c, err)
	}
	InvalidateHubCache(profile.Handle)
	return c.JSON(fiber.Map{"ok": true})
}

// HandleStartPaymentOnboarding provisions the connected payment account if
// needed and returns the hosted onboarding URL. Charges stay disabled until
// the provider confirms onboarding via account.updated webhooks.
func HandleStartPaymentOnboarding(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	profile, err := currentArtist(c)
	if err != nil {
		return jsonError(c, fiber.StatusNotFound, "not-found", "no artist profile")
	}

	client := payments.NewClientFromEnv()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if profile.ConnectedAccountID == "" {
		user, err := repository.GetGlobalFactory().GetUserRepository().GetByID(userCtx.UserID)
		if err != nil {
			return jsonDomainError(c, err)
		}
		accountID, err := client.CreateConnectedAccount(ctx, user.Email)
		if err != nil {
			return jsonDomainError(c, err)
		}
		profile.ConnectedAccountID = accountID
		if err := repository.GetGlobalFactory().GetArtistRepository().UpdateProfile(profile); err != nil {
			return jsonDomainError(c, err)
		}
	}

	base := strings.TrimRight(env.GetEnv("PUBLIC_DOMAIN", "http://localhost:4000"), "/")
	returnURL := fmt.Sprintf("%s/hub/%s?onboarding=done", base, profile.Handle)
	refreshURL := fmt.Sprintf("%s/hub/%s?onboarding=retry", base, profile.Handle)

	onboardingURL, err := client.CreateAccountLink(ctx, profile.ConnectedAccountID, refreshURL, returnURL)
	if err != nil {
		return jsonDomainError(c, err)
	}

	return c.JSON(fiber.Map{
		"ok":             true,
		"onboarding_url": onboardingURL,
	})
}

var (
	errNoArtistProfile = errors.New("no artist profile")
	errProductNotOwned = errors.New("product not found")
)

// ownedProduct loads the :uuid product and checks it belongs to the caller.
func ownedProduct(c *fiber.Ctx) (*models.ArtistProfile, *models.Product, error) {
	profile, err := currentArtist(c)
	if err != nil {
		return nil, nil, errNoArtistProfile
	}
	product, err := repository.GetGlobalFactory().GetProductRepository().GetByUUID(c.Params("uuid"))
	if err != nil || product.ArtistID != profile.ID {
		return nil, nil, errProductNotOwned
	}
	return profile, product, nil
}
