package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/JulianWeber/FanGate/internal/pkg/env"
)

const defaultAPIBaseURL = "https://api.stripe.com"

// Client talks to the payment provider's REST API. Only the calls this app
// needs are implemented: checkout sessions, connected accounts and onboarding
// links.
type Client struct {
	SecretKey  string
	APIBaseURL string

	HTTPClient *http.Client
}

// NewClientFromEnv builds a client from deployment configuration.
func NewClientFromEnv() *Client {
	return &Client{
		SecretKey:  strings.TrimSpace(env.GetEnv("PAYMENT_SECRET_KEY", "")),
		APIBaseURL: strings.TrimRight(env.GetEnv("PAYMENT_API_BASE_URL", defaultAPIBaseURL), "/"),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// CheckoutSessionInput carries everything needed to open a hosted checkout.
// The metadata ids are the sole channel through which the webhook handler
// later learns what was purchased.
type CheckoutSessionInput struct {
	BuyerID            uint
	ProductID          uint
	SellerID           uint
	ConnectedAccountID string
	ProductTitle       string
	UnitAmount         int64
	Currency           string
	SuccessURL         string
	CancelURL          string
}

// CheckoutSession is the provider's response: the session id we will see again
// on the webhook, and the URL the buyer's browser is redirected to.
type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// CreateCheckoutSession opens a hosted checkout session with a destination
// charge routed to the seller's connected account. No local state is written;
// all durable state is created later by the webhook path.
func (c *Client) CreateCheckoutSession(ctx context.Context, in CheckoutSessionInput) (*CheckoutSession, error) {
	if strings.TrimSpace(c.SecretKey) == "" {
		return nil, errors.New("PAYMENT_SECRET_KEY is not configured")
	}
	if in.ConnectedAccountID == "" {
		return nil, ErrSellerNotOnboarded
	}

	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("success_url", in.SuccessURL)
	form.Set("cancel_url", in.CancelURL)
	form.Set("line_items[0][quantity]", "1")
	form.Set("line_items[0][price_data][currency]", strings.ToLower(in.Currency))
	form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(in.UnitAmount, 10))
	form.Set("line_items[0][price_data][product_data][name]", in.ProductTitle)
	form.Set("payment_intent_data[transfer_data][destination]", in.ConnectedAccountID)
	form.Set("metadata[buyer_id]", strconv.FormatUint(uint64(in.BuyerID), 10))
	form.Set("metadata[product_id]", strconv.FormatUint(uint64(in.ProductID), 10))
	form.Set("metadata[seller_id]", strconv.FormatUint(uint64(in.SellerID), 10))

	var out CheckoutSession
	if err := c.postForm(ctx, "/v1/checkout/sessions", form, &out); err != nil {
		return nil, err
	}
	if strings.TrimSpace(out.URL) == "" {
		return nil, fmt.Errorf("%w: checkout session response missing url", ErrUpstreamUnavailable)
	}
	return &out, nil
}

// CreateConnectedAccount provisions an express connected account for a seller
// and returns its provider-assigned id.
func (c *Client) CreateConnectedAccount(ctx context.Context, email string) (string, error) {
	form := url.Values{}
	form.Set("type", "express")
	form.Set("email", strings.TrimSpace(email))

	var out struct {
		ID string `json:"id"`
	}
	if err := c.postForm(ctx, "/v1/accounts", form, &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", fmt.Errorf("%w: account response missing id", ErrUpstreamUnavailable)
	}
	return out.ID, nil
}

// CreateAccountLink mints the hosted onboarding URL for a connected account.
func (c *Client) CreateAccountLink(ctx context.Context, accountID, refreshURL, returnURL string) (string, error) {
	if strings.TrimSpace(accountID) == "" {
		return "", errors.New("account id is required")
	}

	form := url.Values{}
	form.Set("account", accountID)
	form.Set("refresh_url", refreshURL)
	form.Set("return_url", returnURL)
	form.Set("type", "account_onboarding")

	var out struct {
		URL string `json:"url"`
	}
	if err := c.postForm(ctx, "/v1/account_links", form, &out); err != nil {
		return "", err
	}
	if out.URL == "" {
		return "", fmt.Errorf("%w: account link response missing url", ErrUpstreamUnavailable)
	}
	return out.URL, nil
}

func (c *Client) postForm(ctx context.Context, path string, form url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.APIBaseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %s failed with status=%d body=%s", ErrUpstreamUnavailable, path, resp.StatusCode, string(body))
	}
	return json.Unmarshal(body, out)
}
