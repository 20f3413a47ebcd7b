// Package gateway abstracts the payment provider used for subscription
// billing. The billing service talks to this interface only; Stripe specifics
// stay behind it.
package gateway

import (
	"context"
	"fmt"
)

// PromotionCode is a provider-side alias for an underlying coupon.
type PromotionCode struct {
	ID   string
	Code string
}

// Subscription is the provider's view of a subscription.
type Subscription struct {
	ID                string
	CustomerID        string
	Status            string
	Quantity          int64
	TrialEnd          int64
	CurrentPeriodEnd  int64
	CancelAtPeriodEnd bool
}

// SubscriptionRequest accumulates the parameters for a subscription create
// call. Build it with the chainable setters, then submit it.
type SubscriptionRequest struct {
	Name            string
	CustomerID      string
	PriceID         string
	TrialDays       int
	SkipTrial       bool
	Quantity        int64
	PromotionCodeID string
	CouponCode      string
}

// NewSubscriptionRequest starts a request for the named subscription on the
// given customer and price.
func NewSubscriptionRequest(name, customerID, priceID string) *SubscriptionRequest {
	return &SubscriptionRequest{
		Name:       name,
		CustomerID: customerID,
		PriceID:    priceID,
	}
}

// WithTrialDays grants a trial of n days.
func (r *SubscriptionRequest) WithTrialDays(n int) *SubscriptionRequest {
	r.TrialDays = n
	return r
}

// WithSkipTrial forces the subscription to start without a trial, regardless
// of any trial days set before or after.
func (r *SubscriptionRequest) WithSkipTrial() *SubscriptionRequest {
	r.SkipTrial = true
	return r
}

// WithQuantity sets the billed quantity (seat count for per-seat plans).
func (r *SubscriptionRequest) WithQuantity(n int64) *SubscriptionRequest {
	r.Quantity = n
	return r
}

// WithPromotionCode attaches a promotion code reference. Clears any raw
// coupon previously set; the two are mutually exclusive at the provider.
func (r *SubscriptionRequest) WithPromotionCode(id string) *SubscriptionRequest {
	r.PromotionCodeID = id
	r.CouponCode = ""
	return r
}

// WithCoupon attaches a raw coupon code. Clears any promotion code set.
func (r *SubscriptionRequest) WithCoupon(code string) *SubscriptionRequest {
	r.CouponCode = code
	r.PromotionCodeID = ""
	return r
}

// SubscriptionUpdate carries the fields of a subscription update call.
// Exactly one of PromotionCodeID and CouponCode is set for coupon updates.
type SubscriptionUpdate struct {
	PromotionCodeID string
	CouponCode      string
}

// CancelOptions controls subscription cancellation.
type CancelOptions struct {
	// Prorate controls whether the provider issues prorated credit for the
	// unused period. The purge step always cancels without proration.
	Prorate bool
}

// Gateway is the payment provider client used by the billing service.
type Gateway interface {
	// ListPromotionCodes returns promotion codes whose code matches exactly.
	ListPromotionCodes(ctx context.Context, code string) ([]*PromotionCode, error)

	// CreateSubscription submits a subscription request. When the provider
	// requires a client-side payment confirmation, it returns the created
	// (incomplete) subscription together with a *PaymentActionRequiredError.
	CreateSubscription(ctx context.Context, req *SubscriptionRequest) (*Subscription, error)

	// UpdateSubscription applies an update to an existing subscription.
	UpdateSubscription(ctx context.Context, subscriptionID string, update SubscriptionUpdate) (*Subscription, error)

	// CancelSubscription cancels a subscription immediately.
	CancelSubscription(ctx context.Context, subscriptionID string, opts CancelOptions) error
}

// PaymentActionRequiredError signals that the customer must complete a
// payment confirmation (e.g. 3-D Secure) on the client before the
// subscription becomes active. It is an expected outcome, not a failure, and
// must reach the caller unchanged.
type PaymentActionRequiredError struct {
	PaymentIntentID string
	ClientSecret    string
}

func (e *PaymentActionRequiredError) Error() string {
	return fmt.Sprintf("payment action required for payment intent %s", e.PaymentIntentID)
}
