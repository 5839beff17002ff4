package service

import (
	"context"

	"subvault/internal/leaderboard"
	"subvault/internal/plan"
	"subvault/internal/subscription"
)

type PlanLister interface {
	List(ctx context.Context) ([]plan.Plan, error)
}

type SubscriptionLister interface {
	List(ctx context.Context) ([]subscription.Subscription, error)
}

type Service struct {
	plans PlanLister
	subs  SubscriptionLister
}

func NewService(plans PlanLister, subs SubscriptionLister) *Service {
	return &Service{plans: plans, subs: subs}
}

// Top recomputes the leaderboard from a fresh enumeration on every call.
// There is no cache to go stale; callers wanting newer numbers call again.
func (s *Service) Top(ctx context.Context, n int) ([]leaderboard.PlanStats, error) {
	plans, err := s.plans.List(ctx)
	if err != nil {
		return nil, err
	}
	subs, err := s.subs.List(ctx)
	if err != nil {
		return nil, err
	}
	return leaderboard.Top(plans, subs, n), nil
}
