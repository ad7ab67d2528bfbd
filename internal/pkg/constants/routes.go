package constants

// Static route constants
const (
	PublicRoute   = "/"
	LoginRoute    = "/login"
	RegisterRoute = "/register"
	WebhookRoute  = "/webhooks/payments"
)
