package gateway

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/promotioncode"
	"github.com/stripe/stripe-go/v76/subscription"
)

// StripeGateway implements Gateway against the Stripe API.
type StripeGateway struct{}

// StripeConfig holds Stripe configuration.
type StripeConfig struct {
	APIKey string
}

// NewStripeGateway creates a Stripe-backed gateway.
func NewStripeGateway(cfg *StripeConfig) *StripeGateway {
	stripe.Key = cfg.APIKey
	return &StripeGateway{}
}

func (g *StripeGateway) ListPromotionCodes(ctx context.Context, code string) ([]*PromotionCode, error) {
	params := &stripe.PromotionCodeListParams{
		Code: stripe.String(code),
	}
	params.Context = ctx

	var codes []*PromotionCode
	iter := promotioncode.List(params)
	for iter.Next() {
		pc := iter.PromotionCode()
		codes = append(codes, &PromotionCode{
			ID:   pc.ID,
			Code: pc.Code,
		})
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("list promotion codes: %w", err)
	}
	return codes, nil
}

func (g *StripeGateway) CreateSubscription(ctx context.Context, req *SubscriptionRequest) (*Subscription, error) {
	item := &stripe.SubscriptionItemsParams{
		Price: stripe.String(req.PriceID),
	}
	if req.Quantity > 0 {
		item.Quantity = stripe.Int64(req.Quantity)
	}

	params := &stripe.SubscriptionParams{
		Customer:        stripe.String(req.CustomerID),
		Items:           []*stripe.SubscriptionItemsParams{item},
		PaymentBehavior: stripe.String("allow_incomplete"),
	}
	params.Context = ctx
	params.AddMetadata("name", req.Name)
	params.AddExpand("latest_invoice.payment_intent")

	if !req.SkipTrial && req.TrialDays > 0 {
		params.TrialPeriodDays = stripe.Int64(int64(req.TrialDays))
	}
	if req.PromotionCodeID != "" {
		params.PromotionCode = stripe.String(req.PromotionCodeID)
	} else if req.CouponCode != "" {
		params.Coupon = stripe.String(req.CouponCode)
	}

	sub, err := subscription.New(params)
	if err != nil {
		return nil, err
	}

	mapped := mapStripeSubscription(sub)
	if pi := paymentIntentOf(sub); pi != nil && requiresAction(pi) {
		return mapped, &PaymentActionRequiredError{
			PaymentIntentID: pi.ID,
			ClientSecret:    pi.ClientSecret,
		}
	}
	return mapped, nil
}

func (g *StripeGateway) UpdateSubscription(ctx context.Context, subscriptionID string, update SubscriptionUpdate) (*Subscription, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx

	if update.PromotionCodeID != "" {
		params.PromotionCode = stripe.String(update.PromotionCodeID)
	} else if update.CouponCode != "" {
		params.Coupon = stripe.String(update.CouponCode)
	}

	sub, err := subscription.Update(subscriptionID, params)
	if err != nil {
		return nil, err
	}
	return mapStripeSubscription(sub), nil
}

func (g *StripeGateway) CancelSubscription(ctx context.Context, subscriptionID string, opts CancelOptions) error {
	params := &stripe.SubscriptionCancelParams{
		Prorate: stripe.Bool(opts.Prorate),
	}
	params.Context = ctx

	_, err := subscription.Cancel(subscriptionID, params)
	return err
}

func paymentIntentOf(sub *stripe.Subscription) *stripe.PaymentIntent {
	if sub.LatestInvoice == nil {
		return nil
	}
	return sub.LatestInvoice.PaymentIntent
}

func requiresAction(pi *stripe.PaymentIntent) bool {
	return pi.Status == stripe.PaymentIntentStatusRequiresAction ||
		pi.Status == stripe.PaymentIntentStatusRequiresConfirmation
}

func mapStripeSubscription(sub *stripe.Subscription) *Subscription {
	mapped := &Subscription{
		ID:                sub.ID,
		Status:            string(sub.Status),
		TrialEnd:          sub.TrialEnd,
		CurrentPeriodEnd:  sub.CurrentPeriodEnd,
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
	}
	if sub.Customer != nil {
		mapped.CustomerID = sub.Customer.ID
	}
	// Quantity lives on the subscription items; single-price subscriptions
	// have exactly one.
	if sub.Items != nil && len(sub.Items.Data) > 0 {
		mapped.Quantity = sub.Items.Data[0].Quantity
	}
	return mapped
}
