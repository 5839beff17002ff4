package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"subvault/pkg/pda"
)

// Postgres persists the ledger in two tables. Create-if-absent maps onto
// INSERT ... ON CONFLICT DO NOTHING inside the same transaction as the balance
// movements, so the database serializes conflicting writers for us.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// EnsureSchema creates the ledger tables when missing.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS accounts (
			address       TEXT PRIMARY KEY,
			discriminator BYTEA NOT NULL,
			lamports      BIGINT NOT NULL,
			data          BYTEA NOT NULL
		);
		CREATE TABLE IF NOT EXISTS wallets (
			address  TEXT PRIMARY KEY,
			lamports BIGINT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS accounts_discriminator_idx ON accounts (discriminator);
	`)
	if err != nil {
		return fmt.Errorf("ensure ledger schema: %w", err)
	}
	return nil
}

func (p *Postgres) Now(ctx context.Context) (int64, error) {
	var now int64
	// Database clock, not process clock: every reader of this ledger sees the
	// same time source that stamped the accounts.
	err := p.db.QueryRowContext(ctx, `SELECT EXTRACT(EPOCH FROM now())::bigint`).Scan(&now)
	if err != nil {
		return 0, fmt.Errorf("ledger clock: %w", err)
	}
	return now, nil
}

func (p *Postgres) Balance(ctx context.Context, wallet pda.Address) (uint64, error) {
	var lamports int64
	err := p.db.QueryRowContext(ctx,
		`SELECT lamports FROM wallets WHERE address = $1`, wallet.String()).Scan(&lamports)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return uint64(lamports), nil
}

func (p *Postgres) Airdrop(ctx context.Context, wallet pda.Address, lamports uint64) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO wallets (address, lamports) VALUES ($1, $2)
		 ON CONFLICT (address) DO UPDATE SET lamports = wallets.lamports + EXCLUDED.lamports`,
		wallet.String(), int64(lamports))
	return err
}

func (p *Postgres) CreateAccount(ctx context.Context, req CreateAccountRequest) (*Account, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if len(req.Data) < DiscriminatorLen {
		return nil, fmt.Errorf("account data shorter than discriminator: %d bytes", len(req.Data))
	}
	rent := RentExemptMinimum(len(req.Data))

	res, err := tx.ExecContext(ctx,
		`INSERT INTO accounts (address, discriminator, lamports, data) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (address) DO NOTHING`,
		req.Address.String(), req.Data[:DiscriminatorLen], int64(rent), req.Data)
	if err != nil {
		return nil, err
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if inserted == 0 {
		return nil, ErrAccountExists
	}

	cost := rent
	if req.Transfer != nil {
		cost += req.Transfer.Lamports
	}

	var balance int64
	err = tx.QueryRowContext(ctx,
		`SELECT lamports FROM wallets WHERE address = $1 FOR UPDATE`, req.Payer.String()).Scan(&balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInsufficientFunds
		}
		return nil, err
	}
	if uint64(balance) < cost {
		return nil, ErrInsufficientFunds
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE wallets SET lamports = lamports - $2 WHERE address = $1`,
		req.Payer.String(), int64(cost))
	if err != nil {
		return nil, err
	}
	if req.Transfer != nil {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO wallets (address, lamports) VALUES ($1, $2)
			 ON CONFLICT (address) DO UPDATE SET lamports = wallets.lamports + EXCLUDED.lamports`,
			req.Transfer.To.String(), int64(req.Transfer.Lamports))
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &Account{
		Address:  req.Address,
		Lamports: rent,
		Data:     append([]byte(nil), req.Data...),
	}, nil
}

func (p *Postgres) GetAccount(ctx context.Context, address pda.Address) (*Account, error) {
	acc := &Account{Address: address}
	var lamports int64
	err := p.db.QueryRowContext(ctx,
		`SELECT lamports, data FROM accounts WHERE address = $1`, address.String()).
		Scan(&lamports, &acc.Data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	acc.Lamports = uint64(lamports)
	return acc, nil
}

func (p *Postgres) Scan(ctx context.Context, discriminator [DiscriminatorLen]byte) ([]Account, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT address, lamports, data FROM accounts WHERE discriminator = $1 ORDER BY address`,
		discriminator[:])
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Account
	for rows.Next() {
		var addrStr string
		var lamports int64
		var acc Account
		if err := rows.Scan(&addrStr, &lamports, &acc.Data); err != nil {
			return nil, err
		}
		addr, err := pda.AddressFromString(addrStr)
		if err != nil {
			return nil, fmt.Errorf("corrupt account address %q: %w", addrStr, err)
		}
		acc.Address = addr
		acc.Lamports = uint64(lamports)
		out = append(out, acc)
	}
	return out, rows.Err()
}
