package billing

import "time"

// CreateSubscriptionRequest is the payload for subscribing to a plan.
type CreateSubscriptionRequest struct {
	Plan   string `json:"plan" binding:"required"`
	Coupon string `json:"coupon"`
}

// ApplyCouponRequest is the payload for applying a coupon to the current
// subscription.
type ApplyCouponRequest struct {
	Coupon string `json:"coupon" binding:"required"`
}

// SubscriptionResponse is the API view of a subscription.
type SubscriptionResponse struct {
	ID          string     `json:"id"`
	Plan        string     `json:"plan"`
	Status      string     `json:"status"`
	Quantity    int64      `json:"quantity"`
	TrialEndsAt *time.Time `json:"trial_ends_at,omitempty"`
	EndsAt      *time.Time `json:"ends_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func toSubscriptionResponse(sub *Subscription) SubscriptionResponse {
	return SubscriptionResponse{
		ID:          sub.ID.String(),
		Plan:        sub.PlanID,
		Status:      string(sub.StripeStatus),
		Quantity:    sub.Quantity,
		TrialEndsAt: sub.TrialEndsAt,
		EndsAt:      sub.EndsAt,
		CreatedAt:   sub.CreatedAt,
	}
}

// PlanResponse is the API view of a catalog plan.
type PlanResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	TrialDays int    `json:"trial_days"`
}

func toPlanResponses(plans []*Plan) []PlanResponse {
	out := make([]PlanResponse, 0, len(plans))
	for _, p := range plans {
		out = append(out, PlanResponse{ID: p.ID, Name: p.Name, TrialDays: p.TrialDays})
	}
	return out
}

// PaymentActionDetails carries what the client needs to run the provider's
// payment confirmation flow.
type PaymentActionDetails struct {
	PaymentIntentID string `json:"payment_intent_id"`
	ClientSecret    string `json:"client_secret"`
}
