package billing

import (
	"errors"
	"net/http"

	apperrors "github.com/loopbill/server/internal/shared/errors"
)

// Module errors.
var (
	ErrBillableNotFound     = errors.New("billable not found")
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrPlanNotFound         = errors.New("plan not found")
	ErrProductNotConfigured = errors.New("product type not configured")
)

// User-facing messages. These are the localization seam: the values are the
// default-locale strings, keyed by the AppError code for translated clients.
const (
	MsgPaymentFailed = "We are unable to process your payment. Please contact customer support."
	MsgInvalidCoupon = "The provided coupon or promotion code is invalid."
)

// paymentFailedError is the generic user-facing failure for unrecoverable
// gateway errors. It never carries provider internals.
func paymentFailedError(err error) *apperrors.AppError {
	return apperrors.NewAppError("PAYMENT_FAILED", MsgPaymentFailed, http.StatusUnprocessableEntity, err)
}

// invalidCouponError is returned when the provider rejects the coupon or
// promotion code parameter.
func invalidCouponError(err error) *apperrors.AppError {
	return apperrors.NewAppError("INVALID_COUPON", MsgInvalidCoupon, http.StatusUnprocessableEntity, err)
}
