package repository

import (
	"context"

	"subvault/internal/ledger"
	"subvault/internal/plan"
	"subvault/pkg/pda"
)

// PlanRepository stores plans as deterministically-addressed ledger accounts.
type PlanRepository struct {
	led       ledger.Ledger
	programID pda.Address
}

func NewPlanRepository(led ledger.Ledger, programID pda.Address) *PlanRepository {
	return &PlanRepository{led: led, programID: programID}
}

// Create derives the plan address and submits a create-if-absent write funded
// by the creator. Ledger errors pass through untouched for the service to map.
func (r *PlanRepository) Create(ctx context.Context, creator pda.Address, planID uint64, name string, price uint64, durationDays uint32) (*plan.Plan, error) {
	addr, _, err := plan.DeriveAddress(r.programID, creator, planID)
	if err != nil {
		return nil, err
	}

	now, err := r.led.Now(ctx)
	if err != nil {
		return nil, err
	}

	p := &plan.Plan{
		Address:      addr,
		Creator:      creator,
		PlanID:       planID,
		Name:         name,
		Price:        price,
		DurationDays: durationDays,
		CreatedAt:    now,
	}

	if _, err := r.led.CreateAccount(ctx, ledger.CreateAccountRequest{
		Address: addr,
		Payer:   creator,
		Data:    p.Encode(),
	}); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *PlanRepository) Get(ctx context.Context, address pda.Address) (*plan.Plan, error) {
	acc, err := r.led.GetAccount(ctx, address)
	if err != nil {
		return nil, err
	}
	return plan.Decode(acc.Address, acc.Data)
}

func (r *PlanRepository) GetByKey(ctx context.Context, creator pda.Address, planID uint64) (*plan.Plan, error) {
	addr, _, err := plan.DeriveAddress(r.programID, creator, planID)
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, addr)
}

func (r *PlanRepository) List(ctx context.Context) ([]plan.Plan, error) {
	accounts, err := r.led.Scan(ctx, plan.Discriminator)
	if err != nil {
		return nil, err
	}
	out := make([]plan.Plan, 0, len(accounts))
	for i := range accounts {
		p, err := plan.Decode(accounts[i].Address, accounts[i].Data)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, nil
}

func (r *PlanRepository) ListByCreator(ctx context.Context, creator pda.Address) ([]plan.Plan, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]plan.Plan, 0)
	for _, p := range all {
		if p.Creator == creator {
			out = append(out, p)
		}
	}
	return out, nil
}
