package gateway

import (
	"errors"

	"github.com/stripe/stripe-go/v76"
)

// FailureKind classifies a gateway error into the three outcomes the billing
// flows distinguish.
type FailureKind int

const (
	// FailureGeneric covers any rejected request or unexpected fault. It is
	// reported and surfaced to the user as a generic payment failure.
	FailureGeneric FailureKind = iota

	// FailureCouponRejected means the provider rejected the coupon or
	// promotion code parameter specifically.
	FailureCouponRejected

	// FailurePaymentActionRequired means the customer must complete a
	// client-side confirmation. The error propagates unchanged.
	FailurePaymentActionRequired
)

// Classify inspects a gateway error and returns its failure kind.
func Classify(err error) FailureKind {
	var actionRequired *PaymentActionRequiredError
	if errors.As(err, &actionRequired) {
		return FailurePaymentActionRequired
	}

	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		switch stripeErr.Param {
		case "coupon", "promotion_code":
			return FailureCouponRejected
		}
	}

	return FailureGeneric
}
