package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines the interface for billing data access.
type Repository interface {
	// Billable operations
	GetBillable(ctx context.Context, id uuid.UUID) (*Billable, error)
	ClearTrialMarker(ctx context.Context, billableID uuid.UUID) error

	// Subscription operations
	CreateSubscription(ctx context.Context, sub *Subscription) error
	UpdateSubscription(ctx context.Context, sub *Subscription) error
	DeleteSubscription(ctx context.Context, id uuid.UUID) error
	NonCanceledSubscriptions(ctx context.Context, billableID uuid.UUID) ([]*Subscription, error)
	LatestSubscription(ctx context.Context, billableID uuid.UUID, name string) (*Subscription, error)
	LastSubscriptionEnd(ctx context.Context, billableID uuid.UUID, name string) (*time.Time, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a new billing repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// Migrate creates or updates the billing tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Billable{}, &Subscription{})
}

func (r *repository) GetBillable(ctx context.Context, id uuid.UUID) (*Billable, error) {
	var billable Billable
	err := r.db.WithContext(ctx).First(&billable, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBillableNotFound
		}
		return nil, fmt.Errorf("get billable: %w", err)
	}
	return &billable, nil
}

func (r *repository) ClearTrialMarker(ctx context.Context, billableID uuid.UUID) error {
	err := r.db.WithContext(ctx).
		Model(&Billable{}).
		Where("id = ?", billableID).
		Update("trial_ends_at", nil).Error
	if err != nil {
		return fmt.Errorf("clear trial marker: %w", err)
	}
	return nil
}

func (r *repository) CreateSubscription(ctx context.Context, sub *Subscription) error {
	if err := r.db.WithContext(ctx).Create(sub).Error; err != nil {
		return fmt.Errorf("create subscription: %w", err)
	}
	return nil
}

func (r *repository) UpdateSubscription(ctx context.Context, sub *Subscription) error {
	if err := r.db.WithContext(ctx).Save(sub).Error; err != nil {
		return fmt.Errorf("update subscription: %w", err)
	}
	return nil
}

func (r *repository) DeleteSubscription(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).Delete(&Subscription{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	return nil
}

func (r *repository) NonCanceledSubscriptions(ctx context.Context, billableID uuid.UUID) ([]*Subscription, error) {
	var subs []*Subscription
	err := r.db.WithContext(ctx).
		Where("billable_id = ? AND stripe_status != ?", billableID, SubscriptionStatusCanceled).
		Order("created_at ASC").
		Find(&subs).Error
	if err != nil {
		return nil, fmt.Errorf("list non-canceled subscriptions: %w", err)
	}
	return subs, nil
}

// LastSubscriptionEnd returns the most recent end date across the billable's
// subscriptions with the given name, or nil when none has ended. A
// future-dated end is still the most recent one.
func (r *repository) LastSubscriptionEnd(ctx context.Context, billableID uuid.UUID, name string) (*time.Time, error) {
	var sub Subscription
	err := r.db.WithContext(ctx).
		Where("billable_id = ? AND name = ? AND ends_at IS NOT NULL", billableID, name).
		Order("ends_at DESC").
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get last subscription end: %w", err)
	}
	return sub.EndsAt, nil
}

func (r *repository) LatestSubscription(ctx context.Context, billableID uuid.UUID, name string) (*Subscription, error) {
	var sub Subscription
	err := r.db.WithContext(ctx).
		Where("billable_id = ? AND name = ?", billableID, name).
		Order("created_at DESC").
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("get latest subscription: %w", err)
	}
	return &sub, nil
}
