package billing

import (
	"time"

	"github.com/google/uuid"
)

// DefaultSubscriptionName names the single subscription each billable holds.
const DefaultSubscriptionName = "default"

// SubscriptionStatus mirrors the provider-side subscription status.
type SubscriptionStatus string

const (
	SubscriptionStatusIncomplete        SubscriptionStatus = "incomplete"
	SubscriptionStatusIncompleteExpired SubscriptionStatus = "incomplete_expired"
	SubscriptionStatusTrialing          SubscriptionStatus = "trialing"
	SubscriptionStatusActive            SubscriptionStatus = "active"
	SubscriptionStatusPastDue           SubscriptionStatus = "past_due"
	SubscriptionStatusCanceled          SubscriptionStatus = "canceled"
	SubscriptionStatusUnpaid            SubscriptionStatus = "unpaid"
)

// Incomplete reports whether the status marks a subscription that never had a
// valid billing history. The purge step deletes these records outright.
func (s SubscriptionStatus) Incomplete() bool {
	return s == SubscriptionStatusIncomplete || s == SubscriptionStatusIncompleteExpired
}

// Usable reports whether the subscription is serving the customer.
func (s SubscriptionStatus) Usable() bool {
	return s == SubscriptionStatusActive || s == SubscriptionStatusTrialing
}

// Billable is an entity that can hold a subscription and be charged:
// an individual user or a team, depending on ProductType.
type Billable struct {
	ID               uuid.UUID   `json:"id" gorm:"type:uuid;primaryKey"`
	ProductType      ProductType `json:"product_type" gorm:"not null"`
	StripeCustomerID string      `json:"-" gorm:"uniqueIndex"`
	TrialEndsAt      *time.Time  `json:"trial_ends_at,omitempty"`
	// Seats is the current seat count, maintained by the membership system.
	Seats     int       `json:"seats" gorm:"default:1"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Subscriptions []Subscription `json:"-" gorm:"foreignKey:BillableID"`
}

// TableName returns the database table name.
func (Billable) TableName() string {
	return "billables"
}

// Subscription is one billing relationship between a billable and a plan.
type Subscription struct {
	ID           uuid.UUID          `json:"id" gorm:"type:uuid;primaryKey"`
	BillableID   uuid.UUID          `json:"billable_id" gorm:"type:uuid;index;not null"`
	Name         string             `json:"name" gorm:"not null;default:default"`
	PlanID       string             `json:"plan_id" gorm:"not null"`
	StripeID     string             `json:"-" gorm:"uniqueIndex"`
	StripeStatus SubscriptionStatus `json:"status" gorm:"not null"`
	Quantity     int64              `json:"quantity" gorm:"default:1"`
	TrialEndsAt  *time.Time         `json:"trial_ends_at,omitempty"`
	EndsAt       *time.Time         `json:"ends_at,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// TableName returns the database table name.
func (Subscription) TableName() string {
	return "subscriptions"
}

// Active returns true if the subscription is in the active status.
func (s *Subscription) Active() bool {
	return s.StripeStatus == SubscriptionStatusActive
}

// OnTrial returns true if the subscription is trialing.
func (s *Subscription) OnTrial() bool {
	return s.StripeStatus == SubscriptionStatusTrialing
}

// Canceled returns true if the subscription has been canceled.
func (s *Subscription) Canceled() bool {
	return s.StripeStatus == SubscriptionStatusCanceled
}

// CouponResolution is the outcome of resolving a user-supplied coupon string:
// a promotion code reference when one matches, otherwise the raw coupon code.
// It is ephemeral and never persisted.
type CouponResolution struct {
	PromotionCodeID string
	CouponCode      string
}
