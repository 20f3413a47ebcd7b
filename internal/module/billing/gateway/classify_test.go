package gateway

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stripe/stripe-go/v76"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected FailureKind
	}{
		{
			name:     "coupon param rejected",
			err:      &stripe.Error{Param: "coupon", Msg: "No such coupon"},
			expected: FailureCouponRejected,
		},
		{
			name:     "promotion code param rejected",
			err:      &stripe.Error{Param: "promotion_code", Msg: "Expired"},
			expected: FailureCouponRejected,
		},
		{
			name:     "other stripe param",
			err:      &stripe.Error{Param: "customer", Msg: "No such customer"},
			expected: FailureGeneric,
		},
		{
			name:     "stripe error without param",
			err:      &stripe.Error{Msg: "Your card was declined"},
			expected: FailureGeneric,
		},
		{
			name:     "payment action required",
			err:      &PaymentActionRequiredError{PaymentIntentID: "pi_123", ClientSecret: "pi_123_secret"},
			expected: FailurePaymentActionRequired,
		},
		{
			name:     "wrapped payment action required",
			err:      fmt.Errorf("create subscription: %w", &PaymentActionRequiredError{PaymentIntentID: "pi_123"}),
			expected: FailurePaymentActionRequired,
		},
		{
			name:     "wrapped coupon rejection",
			err:      fmt.Errorf("create subscription: %w", &stripe.Error{Param: "promotion_code"}),
			expected: FailureCouponRejected,
		},
		{
			name:     "plain error",
			err:      errors.New("connection reset"),
			expected: FailureGeneric,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(tt.err))
		})
	}
}

func TestSubscriptionRequestBuilder(t *testing.T) {
	req := NewSubscriptionRequest("default", "cus_123", "price_pro").
		WithTrialDays(14).
		WithQuantity(5)

	assert.Equal(t, "default", req.Name)
	assert.Equal(t, "cus_123", req.CustomerID)
	assert.Equal(t, "price_pro", req.PriceID)
	assert.Equal(t, 14, req.TrialDays)
	assert.Equal(t, int64(5), req.Quantity)
	assert.False(t, req.SkipTrial)

	// Promotion code and coupon are mutually exclusive; last call wins.
	req.WithCoupon("SUMMER")
	req.WithPromotionCode("promo_123")
	assert.Equal(t, "promo_123", req.PromotionCodeID)
	assert.Empty(t, req.CouponCode)

	req.WithCoupon("SUMMER")
	assert.Equal(t, "SUMMER", req.CouponCode)
	assert.Empty(t, req.PromotionCodeID)
}
