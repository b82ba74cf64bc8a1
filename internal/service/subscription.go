package service

import (
	"context"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/eventup/api/internal/model"
)

// PlanConfig holds the limits and price of the plans
type PlanConfig struct {
	FreePostLimit       int
	PremiumPostLimit    int
	PremiumUrgentLimit  int
	PremiumPrice        decimal.Decimal
	PremiumDurationDays int
}

// DefaultPlanConfig returns the stock plan limits
func DefaultPlanConfig() PlanConfig {
	return PlanConfig{
		FreePostLimit:       3,
		PremiumPostLimit:    15,
		PremiumUrgentLimit:  3,
		PremiumPrice:        decimal.NewFromInt(499000),
		PremiumDurationDays: 30,
	}
}

// Details describes a plan using the configured limits
func (c PlanConfig) Details(plan model.Plan) *model.PlanDetails {
	if plan == model.PlanPremium {
		return &model.PlanDetails{
			Name:         model.PlanPremium,
			Price:        c.PremiumPrice,
			DurationDays: c.PremiumDurationDays,
			PostLimit:    c.PremiumPostLimit,
			UrgentLimit:  c.PremiumUrgentLimit,
			BulkApproval: true,
			Features: []string{
				"Up to " + strconv.Itoa(c.PremiumPostLimit) + " event posts per month",
				"Up to " + strconv.Itoa(c.PremiumUrgentLimit) + " urgent posts per month",
				"Bulk approve and reject applications",
				"Priority placement in search",
			},
		}
	}
	return &model.PlanDetails{
		Name:         model.PlanFree,
		Price:        decimal.Zero,
		PostLimit:    c.FreePostLimit,
		UrgentLimit:  0,
		BulkApproval: false,
		Features: []string{
			"Up to " + strconv.Itoa(c.FreePostLimit) + " event posts per month",
			"Review applications one by one",
		},
	}
}

// EffectivePlan is the plan whose limits apply to the user right now
func EffectivePlan(user *model.User, now time.Time) model.Plan {
	if user.IsPremium(now) {
		return model.PlanPremium
	}
	return model.PlanFree
}

// CheckoutStarter opens a gateway payment for a plan
type CheckoutStarter interface {
	StartCheckout(ctx context.Context, user *model.User, method model.PaymentMethod, plan *model.PlanDetails, clientIP string) (*model.CheckoutResult, error)
}

// SubscriptionService handles plans and premium activation
type SubscriptionService struct {
	userRepo UserRepository
	plans    PlanConfig
	checkout CheckoutStarter
	logger   *zap.Logger
	now      func() time.Time
}

// SubscriptionServiceConfig holds configuration for the subscription service
type SubscriptionServiceConfig struct {
	UserRepo UserRepository
	Plans    PlanConfig
	Checkout CheckoutStarter
	Logger   *zap.Logger
}

// NewSubscriptionService creates a new subscription service
func NewSubscriptionService(cfg SubscriptionServiceConfig) *SubscriptionService {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &SubscriptionService{
		userRepo: cfg.UserRepo,
		plans:    cfg.Plans,
		checkout: cfg.Checkout,
		logger:   cfg.Logger,
		now:      time.Now,
	}
}

// SetCheckout wires the payment side after both services exist
func (s *SubscriptionService) SetCheckout(c CheckoutStarter) {
	s.checkout = c
}

// Plans lists every plan
func (s *SubscriptionService) Plans() []*model.PlanDetails {
	return []*model.PlanDetails{s.plans.Details(model.PlanFree), s.plans.Details(model.PlanPremium)}
}

// Current returns the caller's subscription state
func (s *SubscriptionService) Current(ctx context.Context, userID string) (*model.CurrentSubscription, error) {
	user, err := s.user(ctx, userID)
	if err != nil {
		return nil, err
	}
	sub := user.Subscription
	plan := sub.Plan
	if plan == "" {
		plan = model.PlanFree
	}
	return &model.CurrentSubscription{
		Plan:        plan,
		ExpiredAt:   sub.ExpiredAt,
		IsActive:    plan == model.PlanFree || sub.IsPremiumActive(s.now()),
		PostUsed:    sub.PostUsed,
		UrgentUsed:  sub.UrgentUsed,
		AutoRenew:   sub.AutoRenew,
		PlanDetails: s.plans.Details(EffectivePlan(user, s.now())),
	}, nil
}

// Upgrade starts a premium purchase and returns where to pay
func (s *SubscriptionService) Upgrade(ctx context.Context, userID string, method model.PaymentMethod, clientIP string) (*model.CheckoutResult, error) {
	if !method.IsValid() {
		return nil, ErrInvalidPaymentMethod
	}
	user, err := s.user(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Role != model.UserRoleBTC {
		return nil, ErrOrganizerOnly
	}
	if user.IsPremium(s.now()) {
		return nil, ErrAlreadyPremium
	}
	if s.checkout == nil {
		return nil, ErrPaymentUnavailable
	}
	return s.checkout.StartCheckout(ctx, user, method, s.plans.Details(model.PlanPremium), clientIP)
}

// Cancel turns off renewal; the plan stays active until it expires
func (s *SubscriptionService) Cancel(ctx context.Context, userID string) (*model.CurrentSubscription, error) {
	user, err := s.user(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Subscription.Plan != model.PlanPremium {
		return nil, ErrNoActiveSubscription
	}
	if err := s.userRepo.SetAutoRenew(ctx, userID, false); err != nil {
		return nil, err
	}
	return s.Current(ctx, userID)
}

// Activate grants the plan for durationDays counted from the later of now
// and the current expiry, and resets the monthly counters
func (s *SubscriptionService) Activate(ctx context.Context, userID string, plan model.Plan, durationDays int) (time.Time, error) {
	user, err := s.user(ctx, userID)
	if err != nil {
		return time.Time{}, err
	}
	start := s.now()
	if exp := user.Subscription.ExpiredAt; user.Subscription.Plan == model.PlanPremium && exp != nil && exp.After(start) {
		start = *exp
	}
	expiredAt := start.AddDate(0, 0, durationDays)
	if err := s.userRepo.ActivatePlan(ctx, userID, plan, expiredAt); err != nil {
		return time.Time{}, err
	}
	s.logger.Info("subscription activated",
		zap.String("user_id", userID),
		zap.String("plan", string(plan)),
		zap.Time("expired_at", expiredAt))
	return expiredAt, nil
}

// ResetMonthlyUsage zeroes every user's post counters
func (s *SubscriptionService) ResetMonthlyUsage(ctx context.Context) (int, error) {
	return s.userRepo.ResetMonthlyUsage(ctx)
}

// DowngradeExpired moves expired premium plans back to FREE
func (s *SubscriptionService) DowngradeExpired(ctx context.Context) (int, error) {
	return s.userRepo.DowngradeExpired(ctx, s.now())
}

func (s *SubscriptionService) user(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}
