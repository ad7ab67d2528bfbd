package mail

import (
	"fmt"
	"strings"

	"github.com/JulianWeber/FanGate/internal/pkg/env"
)

// ReceiptMailer satisfies the payment service's receipt hook on top of the
// plain SMTP sender.
type ReceiptMailer struct{}

func NewReceiptMailer() *ReceiptMailer {
	return &ReceiptMailer{}
}

// SendOrderReceipt mails a purchase confirmation. Amounts arrive in the
// currency's minor unit.
func (m *ReceiptMailer) SendOrderReceipt(toEmail, orderUUID, itemTitle string, amount int64, currency string) error {
	appName := env.GetEnv("APP_NAME", "FanGate")
	subject := fmt.Sprintf("%s - your receipt for %s", appName, itemTitle)
	body := fmt.Sprintf(
		"<h2>Thanks for your purchase!</h2>"+
			"<p>You bought <strong>%s</strong> for %s.</p>"+
			"<p>Order reference: %s</p>"+
			"<p>Your purchase is available in your library.</p>",
		itemTitle, formatAmount(amount, currency), orderUUID,
	)
	return SendMail(toEmail, subject, body)
}

// SendActivationMail mails the account activation link.
func SendActivationMail(toEmail, token string) error {
	appName := env.GetEnv("APP_NAME", "FanGate")
	domain := strings.TrimRight(env.GetEnv("PUBLIC_DOMAIN", "http://localhost:4000"), "/")
	link := fmt.Sprintf("%s/activate?token=%s", domain, token)
	subject := fmt.Sprintf("%s - activate your account", appName)
	body := fmt.Sprintf(
		"<h2>Welcome to %s</h2>"+
			"<p>Click the link below to activate your account:</p>"+
			"<p><a href=\"%s\">%s</a></p>",
		appName, link, link,
	)
	return SendMail(toEmail, subject, body)
}

func formatAmount(amount int64, currency string) string {
	return fmt.Sprintf("%d.%02d %s", amount/100, amount%100, strings.ToUpper(currency))
}
