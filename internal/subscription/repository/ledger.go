package repository

import (
	"context"

	"subvault/internal/ledger"
	"subvault/internal/plan"
	"subvault/internal/subscription"
	"subvault/pkg/pda"
)

// SubscriptionRepository stores subscriptions as ledger accounts whose address
// binds the (subscriber, creator, planID) triple.
type SubscriptionRepository struct {
	led       ledger.Ledger
	programID pda.Address
}

func NewSubscriptionRepository(led ledger.Ledger, programID pda.Address) *SubscriptionRepository {
	return &SubscriptionRepository{led: led, programID: programID}
}

// Create pays the plan price to the creator and writes the subscription
// account in one ledger transaction. Expiry is fixed at creation from the
// plan's duration; later plan changes can never move it.
func (r *SubscriptionRepository) Create(ctx context.Context, subscriber pda.Address, p *plan.Plan) (*subscription.Subscription, error) {
	addr, _, err := subscription.DeriveAddress(r.programID, subscriber, p.Creator, p.PlanID)
	if err != nil {
		return nil, err
	}

	now, err := r.led.Now(ctx)
	if err != nil {
		return nil, err
	}

	sub := &subscription.Subscription{
		Address:    addr,
		Subscriber: subscriber,
		Creator:    p.Creator,
		PlanID:     p.PlanID,
		CreatedAt:  now,
		ExpiresAt:  now + int64(p.DurationDays)*subscription.SecondsPerDay,
	}

	if _, err := r.led.CreateAccount(ctx, ledger.CreateAccountRequest{
		Address: addr,
		Payer:   subscriber,
		Data:    sub.Encode(),
		Transfer: &ledger.Transfer{
			From:     subscriber,
			To:       p.Creator,
			Lamports: p.Price,
		},
	}); err != nil {
		return nil, err
	}
	return sub, nil
}

func (r *SubscriptionRepository) Get(ctx context.Context, address pda.Address) (*subscription.Subscription, error) {
	acc, err := r.led.GetAccount(ctx, address)
	if err != nil {
		return nil, err
	}
	return subscription.Decode(acc.Address, acc.Data)
}

func (r *SubscriptionRepository) List(ctx context.Context) ([]subscription.Subscription, error) {
	accounts, err := r.led.Scan(ctx, subscription.Discriminator)
	if err != nil {
		return nil, err
	}
	out := make([]subscription.Subscription, 0, len(accounts))
	for i := range accounts {
		s, err := subscription.Decode(accounts[i].Address, accounts[i].Data)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, nil
}

func (r *SubscriptionRepository) ListBySubscriber(ctx context.Context, subscriber pda.Address) ([]subscription.Subscription, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]subscription.Subscription, 0)
	for _, s := range all {
		if s.Subscriber == subscriber {
			out = append(out, s)
		}
	}
	return out, nil
}
