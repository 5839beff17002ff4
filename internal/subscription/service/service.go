package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"subvault/internal/ledger"
	"subvault/internal/metrics"
	"subvault/internal/plan"
	"subvault/internal/subscription"
	"subvault/pkg/pda"
)

var (
	ErrPlanNotFound             = errors.New("plan not found")
	ErrCannotSubscribeToOwnPlan = errors.New("cannot subscribe to own plan")
	ErrInsufficientFunds        = errors.New("insufficient funds to subscribe")
	ErrAlreadySubscribed        = errors.New("already subscribed to this plan")
	ErrSubscriptionNotFound     = errors.New("subscription not found")
	ErrSubscriptionExpired      = errors.New("subscription expired")
)

type SubscriptionRepository interface {
	Create(ctx context.Context, subscriber pda.Address, p *plan.Plan) (*subscription.Subscription, error)
	Get(ctx context.Context, address pda.Address) (*subscription.Subscription, error)
	List(ctx context.Context) ([]subscription.Subscription, error)
	ListBySubscriber(ctx context.Context, subscriber pda.Address) ([]subscription.Subscription, error)
}

type PlanReader interface {
	GetByKey(ctx context.Context, creator pda.Address, planID uint64) (*plan.Plan, error)
}

// Clock is the ledger-confirmed time source. Expiry checks must use the same
// clock that stamped the account.
type Clock interface {
	Now(ctx context.Context) (int64, error)
}

type Service struct {
	repo  SubscriptionRepository
	plans PlanReader
	clock Clock
}

func NewService(repo SubscriptionRepository, plans PlanReader, clock Clock) *Service {
	return &Service{repo: repo, plans: plans, clock: clock}
}

// Subscribe pays for and creates a subscription to the referenced plan.
// Preconditions in order: plan exists, subscriber is not the creator, balance
// covers price plus rent. Payment and account creation land atomically; an
// occupied address means this subscriber already bought this plan.
func (s *Service) Subscribe(ctx context.Context, subscriber, creator pda.Address, planID uint64) (*subscription.Subscription, error) {
	p, err := s.plans.GetByKey(ctx, creator, planID)
	if err != nil {
		if errors.Is(err, ledger.ErrAccountNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	if subscriber == p.Creator {
		return nil, ErrCannotSubscribeToOwnPlan
	}

	sub, err := s.repo.Create(ctx, subscriber, p)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrAccountExists):
			return nil, ErrAlreadySubscribed
		case errors.Is(err, ledger.ErrInsufficientFunds):
			return nil, ErrInsufficientFunds
		}
		return nil, err
	}

	metrics.SubscriptionsCreatedTotal.Inc()
	metrics.LamportsTransferredTotal.Add(float64(p.Price))
	log.Info().
		Stringer("address", sub.Address).
		Stringer("subscriber", subscriber).
		Stringer("creator", creator).
		Uint64("plan_id", planID).
		Int64("expires_at", sub.ExpiresAt).
		Msg("subscription created")
	return sub, nil
}

// Check reports whether the subscription at the address is active right now.
// Expired is a computed state of the data, not a fault: the subscription is
// returned alongside ErrSubscriptionExpired.
func (s *Service) Check(ctx context.Context, address pda.Address) (*subscription.Subscription, error) {
	sub, err := s.Get(ctx, address)
	if err != nil {
		return nil, err
	}
	now, err := s.clock.Now(ctx)
	if err != nil {
		return nil, err
	}
	if !sub.IsActive(now) {
		return sub, ErrSubscriptionExpired
	}
	return sub, nil
}

func (s *Service) Get(ctx context.Context, address pda.Address) (*subscription.Subscription, error) {
	sub, err := s.repo.Get(ctx, address)
	if err != nil {
		if errors.Is(err, ledger.ErrAccountNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}
	return sub, nil
}

func (s *Service) List(ctx context.Context) ([]subscription.Subscription, error) {
	return s.repo.List(ctx)
}

func (s *Service) ListBySubscriber(ctx context.Context, subscriber pda.Address) ([]subscription.Subscription, error) {
	return s.repo.ListBySubscriber(ctx, subscriber)
}

// Now exposes the confirmed clock so callers can evaluate IsActive against the
// same time source.
func (s *Service) Now(ctx context.Context) (int64, error) {
	return s.clock.Now(ctx)
}
