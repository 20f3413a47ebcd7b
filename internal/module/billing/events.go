package billing

import (
	"github.com/google/uuid"

	"github.com/loopbill/server/internal/infra/events"
)

// SubscriptionCreatedType is the event type emitted after a subscription is
// created and usable.
const SubscriptionCreatedType = "SubscriptionCreated"

// SubscriptionCreatedEvent is emitted when a billable gains a trialing or
// active subscription. Listeners handle provisioning, welcome mail and the
// like; delivery is fire-and-forget.
type SubscriptionCreatedEvent struct {
	events.BaseEvent

	BillableID uuid.UUID          `json:"billable_id"`
	PlanID     string             `json:"plan_id"`
	Status     SubscriptionStatus `json:"status"`
}

// NewSubscriptionCreatedEvent creates a new SubscriptionCreatedEvent.
func NewSubscriptionCreatedEvent(billableID uuid.UUID, planID string, status SubscriptionStatus) *SubscriptionCreatedEvent {
	return &SubscriptionCreatedEvent{
		BaseEvent:  events.NewBaseEvent(SubscriptionCreatedType, billableID, "Billable"),
		BillableID: billableID,
		PlanID:     planID,
		Status:     status,
	}
}
