package ledger

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"subvault/internal/metrics"
	"subvault/pkg/pda"
)

// Breaker wraps a Ledger with a circuit breaker so a struggling backend fails
// fast instead of stacking up requests. It also records per-operation metrics.
type Breaker struct {
	inner Ledger
	cb    *gobreaker.CircuitBreaker
}

func NewBreaker(inner Ledger) *Breaker {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "ledger",
		MaxRequests: 3,
		Interval:    5 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn().Str("breaker", name).
				Stringer("from", from).Stringer("to", to).
				Msg("circuit breaker state changed")
		},
		IsSuccessful: func(err error) bool {
			// Domain outcomes are not backend failures.
			switch err {
			case nil, ErrAccountExists, ErrAccountNotFound, ErrInsufficientFunds:
				return true
			}
			return false
		},
	})
	return &Breaker{inner: inner, cb: cb}
}

func (b *Breaker) do(op string, fn func() (interface{}, error)) (interface{}, error) {
	start := time.Now()
	v, err := b.cb.Execute(fn)

	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.LedgerOpsTotal.WithLabelValues(op, status).Inc()
	metrics.LedgerOpDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	return v, err
}

func (b *Breaker) Now(ctx context.Context) (int64, error) {
	v, err := b.do("now", func() (interface{}, error) {
		return b.inner.Now(ctx)
	})
	if err != nil {
		return 0, err
	}
	return v.(int64), nil
}

func (b *Breaker) Balance(ctx context.Context, wallet pda.Address) (uint64, error) {
	v, err := b.do("balance", func() (interface{}, error) {
		return b.inner.Balance(ctx, wallet)
	})
	if err != nil {
		return 0, err
	}
	return v.(uint64), nil
}

func (b *Breaker) Airdrop(ctx context.Context, wallet pda.Address, lamports uint64) error {
	_, err := b.do("airdrop", func() (interface{}, error) {
		return nil, b.inner.Airdrop(ctx, wallet, lamports)
	})
	return err
}

func (b *Breaker) CreateAccount(ctx context.Context, req CreateAccountRequest) (*Account, error) {
	v, err := b.do("create_account", func() (interface{}, error) {
		return b.inner.CreateAccount(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Account), nil
}

func (b *Breaker) GetAccount(ctx context.Context, address pda.Address) (*Account, error) {
	v, err := b.do("get_account", func() (interface{}, error) {
		return b.inner.GetAccount(ctx, address)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Account), nil
}

func (b *Breaker) Scan(ctx context.Context, discriminator [DiscriminatorLen]byte) ([]Account, error) {
	v, err := b.do("scan", func() (interface{}, error) {
		return b.inner.Scan(ctx, discriminator)
	})
	if err != nil {
		return nil, err
	}
	return v.([]Account), nil
}
