package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/loopbill/server/internal/module/billing/gateway"
	apperrors "github.com/loopbill/server/internal/shared/errors"
	"github.com/loopbill/server/internal/shared/lock"
	"github.com/loopbill/server/internal/utils/metrics"
)

// Config holds the billing policy settings.
type Config struct {
	// SkipTrialIfSubscribedBefore skips the trial for billables whose prior
	// subscription ended fewer than this many days ago. Zero disables the
	// check and every eligible plan trial is granted.
	SkipTrialIfSubscribedBefore int
}

// ServiceInterface defines the billing service operations.
type ServiceInterface interface {
	CreateSubscription(ctx context.Context, billableID uuid.UUID, planID string, opts CreateSubscriptionOptions) (*Subscription, error)
	ApplyCoupon(ctx context.Context, billableID uuid.UUID, coupon string) error
	ListPlans(ctx context.Context, billableID uuid.UUID) ([]*Plan, error)
}

// CreateSubscriptionOptions carries the optional inputs of a subscription
// creation request.
type CreateSubscriptionOptions struct {
	Coupon string
}

// PurgeOutcome records what happened to one old subscription during the
// purge step. Failures are reported here and in trace logs only; the purge
// is best-effort and never aborts the creation flow.
type PurgeOutcome struct {
	SubscriptionID uuid.UUID
	PriorStatus    SubscriptionStatus
	Deleted        bool
	Err            error
}

// Service implements subscription billing orchestration.
type Service struct {
	repo    Repository
	gateway gateway.Gateway
	catalog *Catalog
	bus     EventPublisher
	locker  Locker
	cfg     Config
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewService creates a new billing service.
func NewService(
	repo Repository,
	gw gateway.Gateway,
	catalog *Catalog,
	bus EventPublisher,
	locker Locker,
	cfg Config,
	logger *zap.Logger,
	m *metrics.Metrics,
) *Service {
	if locker == nil {
		locker = NoopLocker()
	}
	return &Service{
		repo:    repo,
		gateway: gw,
		catalog: catalog,
		bus:     bus,
		locker:  locker,
		cfg:     cfg,
		logger:  logger,
		metrics: m,
	}
}

// CreateSubscription subscribes the billable to the given plan. Old
// non-canceled subscriptions are purged first so the billable ends up with a
// single default subscription.
func (s *Service) CreateSubscription(ctx context.Context, billableID uuid.UUID, planID string, opts CreateSubscriptionOptions) (*Subscription, error) {
	billable, err := s.repo.GetBillable(ctx, billableID)
	if err != nil {
		return nil, err
	}

	release, err := s.locker.Acquire(ctx, billableLockKey(billable.ID))
	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) {
			return nil, apperrors.Conflict("another subscription change is in progress")
		}
		return nil, fmt.Errorf("acquire billing lock: %w", err)
	}
	defer release()

	product, err := s.catalog.Product(billable.ProductType)
	if err != nil {
		return nil, err
	}
	plan, err := product.Plan(planID)
	if err != nil {
		return nil, err
	}

	// The end date of the previous subscription is read before the purge:
	// the purge deletes incomplete records outright, and the trial decision
	// must still see when they ended.
	priorEndsAt := s.priorSubscriptionEnd(ctx, billable)

	s.purgeOldSubscriptions(ctx, billable)

	req := gateway.NewSubscriptionRequest(DefaultSubscriptionName, billable.StripeCustomerID, plan.StripePriceID)

	s.configureTrial(plan, priorEndsAt, req)

	if opts.Coupon != "" {
		resolution, err := s.resolveCoupon(ctx, opts.Coupon)
		if err != nil {
			return nil, s.mapGatewayFailure(err)
		}
		if resolution.PromotionCodeID != "" {
			req.WithPromotionCode(resolution.PromotionCodeID)
		} else {
			req.WithCoupon(resolution.CouponCode)
		}
	}

	if product.ChargesPerSeat {
		seats, err := product.SeatCount(ctx, billable)
		if err != nil {
			return nil, apperrors.Internal("count seats", err)
		}
		req.WithQuantity(seats)
	}

	providerSub, err := s.gateway.CreateSubscription(ctx, req)
	if err != nil {
		if gateway.Classify(err) == gateway.FailurePaymentActionRequired {
			// The provider created the subscription but the customer must
			// confirm payment client-side. Persist the incomplete record and
			// propagate the signal unchanged: no event, trial marker stays.
			s.metrics.RecordGatewayRequest("create", nil)
			if providerSub != nil {
				s.storeSubscription(ctx, billable, plan, providerSub)
			}
			s.metrics.SubscriptionsCreatedTotal.WithLabelValues(string(product.Type), "incomplete").Inc()
			return nil, err
		}
		s.metrics.RecordGatewayRequest("create", err)
		s.metrics.SubscriptionsCreatedTotal.WithLabelValues(string(product.Type), "failed").Inc()
		return nil, s.mapGatewayFailure(err)
	}
	s.metrics.RecordGatewayRequest("create", nil)

	sub := s.storeSubscription(ctx, billable, plan, providerSub)
	s.metrics.SubscriptionsCreatedTotal.WithLabelValues(string(product.Type), string(sub.StripeStatus)).Inc()

	if sub.StripeStatus.Usable() {
		s.bus.Publish(NewSubscriptionCreatedEvent(billable.ID, plan.ID, sub.StripeStatus))

		if err := s.repo.ClearTrialMarker(ctx, billable.ID); err != nil {
			s.logger.Error("failed to clear trial marker",
				zap.String("billable_id", billable.ID.String()),
				zap.Error(err),
			)
		}
	}

	return sub, nil
}

// ApplyCoupon applies a coupon or promotion code to the billable's existing
// default subscription.
func (s *Service) ApplyCoupon(ctx context.Context, billableID uuid.UUID, coupon string) error {
	billable, err := s.repo.GetBillable(ctx, billableID)
	if err != nil {
		return err
	}

	sub, err := s.repo.LatestSubscription(ctx, billable.ID, DefaultSubscriptionName)
	if err != nil {
		return err
	}

	resolution, err := s.resolveCoupon(ctx, coupon)
	if err != nil {
		return s.mapGatewayFailure(err)
	}

	update := gateway.SubscriptionUpdate{
		PromotionCodeID: resolution.PromotionCodeID,
		CouponCode:      resolution.CouponCode,
	}
	_, err = s.gateway.UpdateSubscription(ctx, sub.StripeID, update)
	s.metrics.RecordGatewayRequest("update", err)
	if err != nil {
		return s.mapGatewayFailure(err)
	}

	if resolution.PromotionCodeID != "" {
		s.metrics.CouponApplicationsTotal.WithLabelValues("promotion_code").Inc()
	} else {
		s.metrics.CouponApplicationsTotal.WithLabelValues("coupon").Inc()
	}
	return nil
}

// ListPlans returns the active plans for the billable's product type.
func (s *Service) ListPlans(ctx context.Context, billableID uuid.UUID) ([]*Plan, error) {
	billable, err := s.repo.GetBillable(ctx, billableID)
	if err != nil {
		return nil, err
	}
	product, err := s.catalog.Product(billable.ProductType)
	if err != nil {
		return nil, err
	}
	return product.ActivePlans(), nil
}

// purgeOldSubscriptions cancels every non-canceled subscription of the
// billable, without proration, and deletes records that never had a valid
// billing history (incomplete, incomplete_expired). Each item is processed
// independently; failures are recorded in the outcome and skipped.
func (s *Service) purgeOldSubscriptions(ctx context.Context, billable *Billable) []PurgeOutcome {
	subs, err := s.repo.NonCanceledSubscriptions(ctx, billable.ID)
	if err != nil {
		s.logger.Warn("purge: listing old subscriptions failed",
			zap.String("billable_id", billable.ID.String()),
			zap.Error(err),
		)
		return nil
	}

	now := time.Now()
	outcomes := make([]PurgeOutcome, 0, len(subs))
	for _, old := range subs {
		outcome := PurgeOutcome{SubscriptionID: old.ID, PriorStatus: old.StripeStatus}
		if err := s.cancelAndRemove(ctx, old, now); err != nil {
			outcome.Err = err
		} else {
			outcome.Deleted = outcome.PriorStatus.Incomplete()
			s.metrics.SubscriptionsPurgedTotal.Inc()
		}
		outcomes = append(outcomes, outcome)
	}

	for _, o := range outcomes {
		if o.Err != nil {
			s.logger.Debug("purge: skipped old subscription",
				zap.String("subscription_id", o.SubscriptionID.String()),
				zap.String("prior_status", string(o.PriorStatus)),
				zap.Error(o.Err),
			)
		}
	}
	return outcomes
}

func (s *Service) cancelAndRemove(ctx context.Context, sub *Subscription, now time.Time) error {
	prior := sub.StripeStatus

	err := s.gateway.CancelSubscription(ctx, sub.StripeID, gateway.CancelOptions{Prorate: false})
	s.metrics.RecordGatewayRequest("cancel", err)
	if err != nil {
		return err
	}

	if prior.Incomplete() {
		return s.repo.DeleteSubscription(ctx, sub.ID)
	}

	sub.StripeStatus = SubscriptionStatusCanceled
	sub.EndsAt = &now
	return s.repo.UpdateSubscription(ctx, sub)
}

// priorSubscriptionEnd returns when a default subscription of the billable
// last ended, or nil when none has. Callers needing this alongside the purge
// must read it first; the purge removes incomplete records.
func (s *Service) priorSubscriptionEnd(ctx context.Context, billable *Billable) *time.Time {
	if s.cfg.SkipTrialIfSubscribedBefore <= 0 {
		return nil
	}
	endsAt, err := s.repo.LastSubscriptionEnd(ctx, billable.ID, DefaultSubscriptionName)
	if err != nil {
		s.logger.Warn("last subscription end lookup failed",
			zap.String("billable_id", billable.ID.String()),
			zap.Error(err),
		)
		return nil
	}
	return endsAt
}

// configureTrial applies the trial policy to the request. When the
// skip-trial threshold is configured and the billable's previous default
// subscription ended within it, no trial is granted at all; a future-dated
// end also counts as recently subscribed.
func (s *Service) configureTrial(plan *Plan, priorEndsAt *time.Time, req *gateway.SubscriptionRequest) {
	threshold := s.cfg.SkipTrialIfSubscribedBefore
	if threshold > 0 && priorEndsAt != nil {
		daysSinceEnd := int(time.Since(*priorEndsAt).Hours() / 24)
		if daysSinceEnd < threshold {
			req.WithSkipTrial()
			return
		}
	}

	if plan.TrialDays > 0 {
		req.WithTrialDays(plan.TrialDays)
	}
}

// resolveCoupon resolves a user-supplied coupon string. A matching promotion
// code takes precedence; otherwise the string passes through as a raw coupon
// code. Promotion codes and coupons share a namespace in the UI but are
// distinct provider concepts.
func (s *Service) resolveCoupon(ctx context.Context, coupon string) (CouponResolution, error) {
	codes, err := s.gateway.ListPromotionCodes(ctx, coupon)
	s.metrics.RecordGatewayRequest("list_promotion_codes", err)
	if err != nil {
		return CouponResolution{}, err
	}
	if len(codes) > 0 {
		return CouponResolution{PromotionCodeID: codes[0].ID}, nil
	}
	return CouponResolution{CouponCode: coupon}, nil
}

// storeSubscription persists the local record for a provider subscription.
// Persistence failures are logged and the in-memory record is still
// returned: the provider-side subscription exists either way.
func (s *Service) storeSubscription(ctx context.Context, billable *Billable, plan *Plan, providerSub *gateway.Subscription) *Subscription {
	sub := &Subscription{
		ID:           uuid.New(),
		BillableID:   billable.ID,
		Name:         DefaultSubscriptionName,
		PlanID:       plan.ID,
		StripeID:     providerSub.ID,
		StripeStatus: SubscriptionStatus(providerSub.Status),
		Quantity:     providerSub.Quantity,
	}
	if providerSub.TrialEnd > 0 {
		trialEnd := time.Unix(providerSub.TrialEnd, 0)
		sub.TrialEndsAt = &trialEnd
	}

	if err := s.repo.CreateSubscription(ctx, sub); err != nil {
		s.logger.Error("failed to store subscription record",
			zap.String("billable_id", billable.ID.String()),
			zap.String("stripe_id", providerSub.ID),
			zap.Error(err),
		)
	}
	return sub
}

// mapGatewayFailure converts a gateway error into the caller-facing error.
// PaymentActionRequired passes through unchanged; coupon rejections get a
// coupon-specific validation error; everything else is reported and replaced
// with the generic payment failure so provider internals never reach users.
func (s *Service) mapGatewayFailure(err error) error {
	switch gateway.Classify(err) {
	case gateway.FailurePaymentActionRequired:
		return err
	case gateway.FailureCouponRejected:
		s.metrics.CouponApplicationsTotal.WithLabelValues("rejected").Inc()
		return invalidCouponError(err)
	default:
		s.logger.Error("billing gateway request failed", zap.Error(err))
		return paymentFailedError(err)
	}
}

func billableLockKey(id uuid.UUID) string {
	return "billing:billable:" + id.String()
}
