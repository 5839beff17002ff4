package service

import (
	"context"
	"errors"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"subvault/internal/ledger"
	"subvault/internal/metrics"
	"subvault/internal/plan"
	"subvault/pkg/pda"
)

var (
	ErrEmptyName         = errors.New("plan name is empty")
	ErrNameTooLong       = errors.New("plan name exceeds 200 characters")
	ErrInvalidPrice      = errors.New("plan price must be positive")
	ErrPriceTooHigh      = errors.New("plan price exceeds 1000 SOL")
	ErrInvalidDuration   = errors.New("plan duration must be at least 1 day")
	ErrDurationTooLong   = errors.New("plan duration exceeds 365 days")
	ErrPlanAlreadyExists = errors.New("plan already exists for this creator and plan id")
	ErrPlanNotFound      = errors.New("plan not found")
	ErrInsufficientFunds = errors.New("insufficient funds to create plan")
)

type PlanRepository interface {
	Create(ctx context.Context, creator pda.Address, planID uint64, name string, price uint64, durationDays uint32) (*plan.Plan, error)
	Get(ctx context.Context, address pda.Address) (*plan.Plan, error)
	GetByKey(ctx context.Context, creator pda.Address, planID uint64) (*plan.Plan, error)
	List(ctx context.Context) ([]plan.Plan, error)
	ListByCreator(ctx context.Context, creator pda.Address) ([]plan.Plan, error)
}

type Service struct {
	repo PlanRepository
}

func NewService(repo PlanRepository) *Service {
	return &Service{repo: repo}
}

// Create validates the plan and writes it at its derived address. Checks run
// in a fixed order and the first failure wins: name, price, duration, funds.
// An occupied address means the (creator, planID) pair is taken.
func (s *Service) Create(ctx context.Context, creator pda.Address, planID uint64, name string, price uint64, durationDays uint32) (*plan.Plan, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	if utf8.RuneCountInString(name) > plan.MaxNameLen {
		return nil, ErrNameTooLong
	}
	if price == 0 {
		return nil, ErrInvalidPrice
	}
	if price > plan.MaxPriceLamports {
		return nil, ErrPriceTooHigh
	}
	if durationDays == 0 {
		return nil, ErrInvalidDuration
	}
	if durationDays > plan.MaxDurationDays {
		return nil, ErrDurationTooLong
	}

	p, err := s.repo.Create(ctx, creator, planID, name, price, durationDays)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrAccountExists):
			return nil, ErrPlanAlreadyExists
		case errors.Is(err, ledger.ErrInsufficientFunds):
			return nil, ErrInsufficientFunds
		}
		return nil, err
	}

	metrics.PlansCreatedTotal.Inc()
	log.Info().
		Stringer("address", p.Address).
		Stringer("creator", creator).
		Uint64("plan_id", planID).
		Uint64("price", price).
		Msg("plan created")
	return p, nil
}

func (s *Service) Get(ctx context.Context, address pda.Address) (*plan.Plan, error) {
	p, err := s.repo.Get(ctx, address)
	if err != nil {
		if errors.Is(err, ledger.ErrAccountNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return p, nil
}

func (s *Service) GetByKey(ctx context.Context, creator pda.Address, planID uint64) (*plan.Plan, error) {
	p, err := s.repo.GetByKey(ctx, creator, planID)
	if err != nil {
		if errors.Is(err, ledger.ErrAccountNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return p, nil
}

func (s *Service) List(ctx context.Context) ([]plan.Plan, error) {
	return s.repo.List(ctx)
}

func (s *Service) ListByCreator(ctx context.Context, creator pda.Address) ([]plan.Plan, error) {
	return s.repo.ListByCreator(ctx, creator)
}
