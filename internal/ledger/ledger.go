package ledger

import (
	"context"
	"errors"

	"subvault/pkg/pda"
)

var (
	ErrAccountExists     = errors.New("account already exists at address")
	ErrAccountNotFound   = errors.New("account not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// Transfer moves lamports between wallets in the same transaction that creates
// an account.
type Transfer struct {
	From     pda.Address
	To       pda.Address
	Lamports uint64
}

type CreateAccountRequest struct {
	Address  pda.Address
	Payer    pda.Address
	Data     []byte
	Transfer *Transfer
}

// Ledger is the contract the account models consume. Implementations must make
// CreateAccount atomic: either the account exists afterwards with every balance
// movement applied, or nothing changed at all. Conflicting creates at the same
// address have exactly one winner; the loser sees ErrAccountExists.
type Ledger interface {
	// Now returns ledger-confirmed Unix time. All creation stamps and expiry
	// checks use this clock so independent readers agree.
	Now(ctx context.Context) (int64, error)

	Balance(ctx context.Context, wallet pda.Address) (uint64, error)
	Airdrop(ctx context.Context, wallet pda.Address, lamports uint64) error

	// CreateAccount is create-if-absent. The payer funds the rent-exempt
	// minimum for len(Data) bytes plus the optional transfer.
	CreateAccount(ctx context.Context, req CreateAccountRequest) (*Account, error)

	// GetAccount is fail-if-absent.
	GetAccount(ctx context.Context, address pda.Address) (*Account, error)

	// Scan returns a fresh finite snapshot of every account whose data starts
	// with the given discriminator, ordered by address.
	Scan(ctx context.Context, discriminator [DiscriminatorLen]byte) ([]Account, error)
}
