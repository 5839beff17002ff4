package ledger

import (
	"bytes"
	"context"
	"sort"
	"sync"
	"time"

	"subvault/pkg/pda"
)

// Memory is an in-process Ledger for tests and DATABASE_URL-less dev runs.
type Memory struct {
	mu       sync.Mutex
	accounts map[pda.Address]Account
	wallets  map[pda.Address]uint64
	now      func() int64
}

func NewMemory() *Memory {
	return NewMemoryWithClock(func() int64 { return time.Now().Unix() })
}

// NewMemoryWithClock lets tests pin the confirmed clock.
func NewMemoryWithClock(now func() int64) *Memory {
	return &Memory{
		accounts: make(map[pda.Address]Account),
		wallets:  make(map[pda.Address]uint64),
		now:      now,
	}
}

func (m *Memory) Now(ctx context.Context) (int64, error) {
	return m.now(), nil
}

func (m *Memory) Balance(ctx context.Context, wallet pda.Address) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.wallets[wallet], nil
}

func (m *Memory) Airdrop(ctx context.Context, wallet pda.Address, lamports uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.wallets[wallet] += lamports
	return nil
}

func (m *Memory) CreateAccount(ctx context.Context, req CreateAccountRequest) (*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Collision beats every other failure mode: a duplicate create must report
	// conflict, not whatever else is wrong with the request.
	if _, ok := m.accounts[req.Address]; ok {
		return nil, ErrAccountExists
	}

	rent := RentExemptMinimum(len(req.Data))
	cost := rent
	if req.Transfer != nil {
		cost += req.Transfer.Lamports
	}
	if m.wallets[req.Payer] < cost {
		return nil, ErrInsufficientFunds
	}

	m.wallets[req.Payer] -= cost
	if req.Transfer != nil {
		m.wallets[req.Transfer.To] += req.Transfer.Lamports
	}

	acc := Account{
		Address:  req.Address,
		Lamports: rent,
		Data:     append([]byte(nil), req.Data...),
	}
	m.accounts[req.Address] = acc

	out := acc
	out.Data = append([]byte(nil), acc.Data...)
	return &out, nil
}

func (m *Memory) GetAccount(ctx context.Context, address pda.Address) (*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	acc, ok := m.accounts[address]
	if !ok {
		return nil, ErrAccountNotFound
	}
	out := acc
	out.Data = append([]byte(nil), acc.Data...)
	return &out, nil
}

func (m *Memory) Scan(ctx context.Context, discriminator [DiscriminatorLen]byte) ([]Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Account
	for _, acc := range m.accounts {
		if len(acc.Data) < DiscriminatorLen || !bytes.Equal(acc.Data[:DiscriminatorLen], discriminator[:]) {
			continue
		}
		cp := acc
		cp.Data = append([]byte(nil), acc.Data...)
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i].Address[:], out[j].Address[:]) < 0
	})
	return out, nil
}
