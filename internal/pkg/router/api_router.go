package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/JulianWeber/FanGate/app/controllers"
	"github.com/JulianWeber/FanGate/internal/pkg/middleware"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New())
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	v1 := api.Group("/v1")

	// Account
	me := v1.Group("/me", middleware.RequireAPISessionAuth)
	me.Get("/", controllers.HandleMe)
	me.Post("/role", controllers.HandleChooseRole)
	me.Get("/orders", controllers.HandleMyOrders)

	// Checkout
	v1.Post("/checkout", middleware.RequireAPISessionAuth, controllers.HandleCreateCheckout)

	// Content access. No auth middleware here: the entitlement service decides
	// per product whether anonymous access is allowed.
	v1.Get("/stream", controllers.HandleStreamAsset)
	v1.Get("/products/:uuid/stream", controllers.HandleStreamProduct)
	v1.Get("/products/:uuid/download", controllers.HandleDownloadProduct)

	// Artist hub management
	artist := v1.Group("/artist", middleware.RequireAPISessionAuth)
	artist.Post("/profile", middleware.RequireArtist, controllers.HandleCreateArtistProfile)
	artist.Put("/profile", middleware.RequireArtist, controllers.HandleUpdateArtistProfile)
	artist.Put("/links", middleware.RequireArtist, controllers.HandleReplaceLinks)
	artist.Post("/products", middleware.RequireArtist, controllers.HandleCreateProduct)
	artist.Put("/products/:uuid", middleware.RequireArtist, controllers.HandleUpdateProduct)
	artist.Delete("/products/:uuid", middleware.RequireArtist, controllers.HandleDeleteProduct)
	artist.Post("/products/:uuid/content", middleware.RequireArtist, controllers.HandleUploadProductContent)
	artist.Post("/shows", middleware.RequireArtist, controllers.HandleCreateShow)
	artist.Delete("/shows/:uuid", middleware.RequireArtist, controllers.HandleDeleteShow)
	artist.Post("/payments/onboarding", middleware.RequireArtist, controllers.HandleStartPaymentOnboarding)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
