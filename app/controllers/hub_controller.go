package controllers

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/JulianWeber/FanGate/app/models"
	"github.com/JulianWeber/FanGate/app/repository"
	"github.com/JulianWeber/FanGate/internal/pkg/cache"
)

const hubCacheTTL = 60 * time.Second

type hubProduct struct {
	UUID        string `json:"uuid"`
	Title       string `json:"title"`
	Description string `json:"description"`
	ItemType    string `json:"item_type"`
	PriceAmount int64  `json:"price_amount"`
	Currency    string `json:"currency"`
	Visibility  string `json:"visibility"`
	PlayCount   int    `json:"play_count"`

	// PreviewRef resolves via GET /api/v1/stream?ref=. Live content
	// references never appear here.
	PreviewRef string `json:"preview_ref,omitempty"`
}

type hubPage struct {
	Handle         string              `json:"handle"`
	DisplayName    string              `json:"display_name"`
	Bio            string              `json:"bio"`
	AvatarURL      string              `json:"avatar_url"`
	AcceptsPayment bool                `json:"accepts_payments"`
	Links          []models.ArtistLink `json:"links"`
	Products       []hubProduct        `json:"products"`
	Shows          []models.Show       `json:"shows"`
}

// HandleHubPage renders an artist's public hub: profile, links, published
// catalog and upcoming shows. Anonymous-readable and cached briefly since it
// is the highest-traffic read in the system.
func HandleHubPage(c *fiber.Ctx) error {
	handle := strings.ToLower(strings.TrimSpace(c.Params("handle")))
	if handle == "" {
		return jsonError(c, fiber.StatusBadRequest, "invalid-request", "handle is required")
	}

	cacheKey := fmt.Sprintf("hub:page:%s", handle)
	if cached, err := cache.Get(cacheKey); err == nil && cached != "" {
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.SendString(cached)
	}

	repos := repository.GetGlobalFactory()
	artist, err := repos.GetArtistRepository().GetByHandle(handle)
	if err != nil {
		return jsonError(c, fiber.StatusNotFound, "not-found", "no hub with this handle")
	}

	links, err := repos.GetArtistRepository().GetLinks(artist.ID)
	if err != nil {
		return jsonDomainError(c, err)
	}
	products, err := repos.GetProductRepository().GetPublishedByArtistID(artist.ID)
	if err != nil {
		return jsonDomainError(c, err)
	}
	shows, err := repos.GetShowRepository().GetUpcomingByArtistID(artist.ID)
	if err != nil {
		return jsonDomainError(c, err)
	}

	page := hubPage{
		Handle:         artist.Handle,
		DisplayName:    artist.DisplayName,
		Bio:            artist.Bio,
		AvatarURL:      artist.AvatarURL,
		AcceptsPayment: artist.CanAcceptPayments(),
		Links:          links,
		Products:       make([]hubProduct, 0, len(products)),
		Shows:          shows,
	}
	for _, p := range products {
		// Private products stay off the hub; they are reachable only by
		// direct link.
		if !p.IsPublic() {
			continue
		}
		page.Products = append(page.Products, hubProduct{
			UUID:        p.UUID,
			Title:       p.Title,
			Description: p.Description,
			ItemType:    p.ItemType,
			PriceAmount: p.PriceAmount,
			Currency:    p.Currency,
			Visibility:  p.Visibility,
			PlayCount:   p.PlayCount,
			PreviewRef:  p.PreviewReference,
		})
	}

	body, err := json.Marshal(page)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal", "internal server error")
	}
	if err := cache.Set(cacheKey, string(body), hubCacheTTL); err != nil {
		log.Printf("[Hub] caching page for %s failed: %v", handle, err)
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(body)
}

// InvalidateHubCache drops the cached hub page after profile or catalog edits.
func InvalidateHubCache(handle string) {
	if err := cache.Delete(fmt.Sprintf("hub:page:%s", strings.ToLower(handle))); err != nil {
		log.Printf("[Hub] cache invalidation for %s failed: %v", handle, err)
	}
}
