package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/JulianWeber/FanGate/app/controllers"
	"github.com/JulianWeber/FanGate/internal/pkg/constants"
	"github.com/JulianWeber/FanGate/internal/pkg/middleware"
	"github.com/JulianWeber/FanGate/internal/pkg/oauth"
	"github.com/JulianWeber/FanGate/internal/pkg/session"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// init session
	session.NewSessionStore()

	// init oauth providers
	oauth.Setup()

	// Apply UserContext middleware globally as first middleware
	app.Use(middleware.UserContextMiddleware)

	h.registerPublicRoutes(app)
}

func (h HttpRouter) registerPublicRoutes(app *fiber.App) {
	// Account lifecycle
	app.Post(constants.RegisterRoute, controllers.HandleRegister)
	app.Get("/activate", controllers.HandleActivate)
	app.Post(constants.LoginRoute, controllers.HandleLogin)
	app.Post("/logout", middleware.RequireAuth, controllers.HandleLogout)

	// Social OAuth
	app.Get("/auth/:provider", controllers.HandleOAuthBegin)
	app.Get("/auth/:provider/callback", controllers.HandleOAuthCallback)
	app.Post("/auth/logout", controllers.HandleOAuthLogout)

	// Public artist hub
	app.Get("/hub/:handle", controllers.HandleHubPage)

	// Payment provider webhooks (no session, signature-verified in controller)
	app.Post(constants.WebhookRoute, controllers.HandlePaymentWebhook)
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}
