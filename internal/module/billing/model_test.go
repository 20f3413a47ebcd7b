package billing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubscriptionStatusIncomplete(t *testing.T) {
	assert.True(t, SubscriptionStatusIncomplete.Incomplete())
	assert.True(t, SubscriptionStatusIncompleteExpired.Incomplete())

	for _, s := range []SubscriptionStatus{
		SubscriptionStatusTrialing,
		SubscriptionStatusActive,
		SubscriptionStatusPastDue,
		SubscriptionStatusCanceled,
		SubscriptionStatusUnpaid,
	} {
		assert.False(t, s.Incomplete(), string(s))
	}
}

func TestSubscriptionStatusUsable(t *testing.T) {
	assert.True(t, SubscriptionStatusActive.Usable())
	assert.True(t, SubscriptionStatusTrialing.Usable())

	for _, s := range []SubscriptionStatus{
		SubscriptionStatusIncomplete,
		SubscriptionStatusIncompleteExpired,
		SubscriptionStatusPastDue,
		SubscriptionStatusCanceled,
		SubscriptionStatusUnpaid,
	} {
		assert.False(t, s.Usable(), string(s))
	}
}

func TestSubscriptionHelpers(t *testing.T) {
	sub := &Subscription{StripeStatus: SubscriptionStatusTrialing}
	assert.True(t, sub.OnTrial())
	assert.False(t, sub.Active())
	assert.False(t, sub.Canceled())

	sub.StripeStatus = SubscriptionStatusCanceled
	assert.True(t, sub.Canceled())
}
