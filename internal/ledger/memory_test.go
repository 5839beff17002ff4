package ledger

import (
	"context"
	"crypto/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"subvault/pkg/pda"
)

func randomAddress(t *testing.T) pda.Address {
	t.Helper()
	var a pda.Address
	_, err := rand.Read(a[:])
	require.NoError(t, err)
	return a
}

func testData() []byte {
	d := AccountDiscriminator("Test")
	return append(d[:], []byte("payload")...)
}

func TestMemory_CreateIfAbsent(t *testing.T) {
	ctx := context.Background()
	led := NewMemoryWithClock(func() int64 { return 1000 })

	payer := randomAddress(t)
	addr := randomAddress(t)
	data := testData()
	require.NoError(t, led.Airdrop(ctx, payer, RentExemptMinimum(len(data))))

	acc, err := led.CreateAccount(ctx, CreateAccountRequest{Address: addr, Payer: payer, Data: data})
	require.NoError(t, err)
	assert.Equal(t, addr, acc.Address)
	assert.Equal(t, RentExemptMinimum(len(data)), acc.Lamports)

	_, err = led.CreateAccount(ctx, CreateAccountRequest{Address: addr, Payer: payer, Data: data})
	assert.ErrorIs(t, err, ErrAccountExists)
}

func TestMemory_ConflictBeatsFunds(t *testing.T) {
	ctx := context.Background()
	led := NewMemory()

	payer := randomAddress(t)
	addr := randomAddress(t)
	data := testData()
	require.NoError(t, led.Airdrop(ctx, payer, RentExemptMinimum(len(data))))

	_, err := led.CreateAccount(ctx, CreateAccountRequest{Address: addr, Payer: payer, Data: data})
	require.NoError(t, err)

	// Payer is broke now, but a duplicate create must still report conflict.
	_, err = led.CreateAccount(ctx, CreateAccountRequest{Address: addr, Payer: payer, Data: data})
	assert.ErrorIs(t, err, ErrAccountExists)
}

func TestMemory_InsufficientFundsLeavesNothingBehind(t *testing.T) {
	ctx := context.Background()
	led := NewMemory()

	payer := randomAddress(t)
	addr := randomAddress(t)

	_, err := led.CreateAccount(ctx, CreateAccountRequest{Address: addr, Payer: payer, Data: testData()})
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	_, err = led.GetAccount(ctx, addr)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestMemory_TransferAtomicWithCreate(t *testing.T) {
	ctx := context.Background()
	led := NewMemory()

	payer := randomAddress(t)
	creator := randomAddress(t)
	addr := randomAddress(t)
	data := testData()
	rent := RentExemptMinimum(len(data))

	require.NoError(t, led.Airdrop(ctx, payer, rent+500))

	_, err := led.CreateAccount(ctx, CreateAccountRequest{
		Address:  addr,
		Payer:    payer,
		Data:     data,
		Transfer: &Transfer{From: payer, To: creator, Lamports: 500},
	})
	require.NoError(t, err)

	payerBal, err := led.Balance(ctx, payer)
	require.NoError(t, err)
	assert.Zero(t, payerBal)

	creatorBal, err := led.Balance(ctx, creator)
	require.NoError(t, err)
	assert.Equal(t, uint64(500), creatorBal)
}

func TestMemory_ConcurrentCreatesHaveOneWinner(t *testing.T) {
	ctx := context.Background()
	led := NewMemory()

	addr := randomAddress(t)
	data := testData()

	const writers = 16
	payers := make([]pda.Address, writers)
	for i := range payers {
		payers[i] = randomAddress(t)
		require.NoError(t, led.Airdrop(ctx, payers[i], RentExemptMinimum(len(data))))
	}

	var wg sync.WaitGroup
	errs := make([]error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = led.CreateAccount(ctx, CreateAccountRequest{
				Address: addr, Payer: payers[i], Data: data,
			})
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, ErrAccountExists)
		}
	}
	assert.Equal(t, 1, wins)
}

func TestMemory_ScanFiltersByDiscriminator(t *testing.T) {
	ctx := context.Background()
	led := NewMemory()

	payer := randomAddress(t)
	require.NoError(t, led.Airdrop(ctx, payer, 100_000_000))

	wanted := AccountDiscriminator("Wanted")
	other := AccountDiscriminator("Other")

	for i := 0; i < 3; i++ {
		_, err := led.CreateAccount(ctx, CreateAccountRequest{
			Address: randomAddress(t), Payer: payer, Data: wanted[:],
		})
		require.NoError(t, err)
	}
	_, err := led.CreateAccount(ctx, CreateAccountRequest{
		Address: randomAddress(t), Payer: payer, Data: other[:],
	})
	require.NoError(t, err)

	accounts, err := led.Scan(ctx, wanted)
	require.NoError(t, err)
	assert.Len(t, accounts, 3)
	for _, acc := range accounts {
		assert.Equal(t, wanted, acc.Discriminator())
	}
}

func TestAccountDiscriminator_DistinguishesKinds(t *testing.T) {
	assert.NotEqual(t, AccountDiscriminator("Plan"), AccountDiscriminator("Subscription"))
	assert.Equal(t, AccountDiscriminator("Plan"), AccountDiscriminator("Plan"))
}
