package payments

import "errors"

// Error taxonomy for the payment pipeline. Controllers map these to stable
// error codes; nothing here leaks provider internals to callers.
var (
	// ErrSignatureInvalid means the webhook authenticity check failed. Terminal
	// for that delivery, always logged for security review.
	ErrSignatureInvalid = errors.New("payments: webhook signature invalid")

	// ErrDuplicateEvent is the idempotency short-circuit. It is a normal
	// outcome, not a failure: the first delivery already produced all state.
	ErrDuplicateEvent = errors.New("payments: event already processed")

	// ErrDataIntegrity means a paid event references a buyer or product that
	// cannot be resolved: money was captured with no entitlement path. Fatal,
	// needs manual reconciliation, never silently swallowed.
	ErrDataIntegrity = errors.New("payments: event references unresolvable data")

	// ErrUpstreamUnavailable means a provider call failed transiently and may
	// be retried by the caller.
	ErrUpstreamUnavailable = errors.New("payments: provider unavailable")

	// ErrWrongRole means the caller holds a role that may not perform the
	// operation (sellers cannot buy their own catalog path).
	ErrWrongRole = errors.New("payments: caller role not allowed")

	// ErrNotPurchasable means the product is not directly sellable (private or
	// unpublished).
	ErrNotPurchasable = errors.New("payments: product is not purchasable")

	// ErrSellerNotOnboarded means the artist has no usable connected account;
	// checkout fails closed because funds cannot be routed.
	ErrSellerNotOnboarded = errors.New("payments: seller has not completed payment onboarding")
)
