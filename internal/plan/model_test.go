package plan

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"subvault/internal/ledger"
	"subvault/pkg/pda"
)

func randomAddress(t *testing.T) pda.Address {
	t.Helper()
	var a pda.Address
	_, err := rand.Read(a[:])
	require.NoError(t, err)
	return a
}

func TestPlanCodec_RoundTrip(t *testing.T) {
	p := &Plan{
		Address:      randomAddress(t),
		Creator:      randomAddress(t),
		PlanID:       7,
		Name:         "NFT Alpha Калькулятор", // names are arbitrary UTF-8
		Price:        500_000_000,
		DurationDays: 30,
		CreatedAt:    1_700_000_000,
	}

	data := p.Encode()
	assert.Equal(t, Discriminator[:], data[:ledger.DiscriminatorLen])

	decoded, err := Decode(p.Address, data)
	require.NoError(t, err)
	assert.Equal(t, p, decoded)
}

func TestDecode_RejectsWrongKind(t *testing.T) {
	other := ledger.AccountDiscriminator("Subscription")
	data := append(other[:], make([]byte, 64)...)

	_, err := Decode(randomAddress(t), data)
	assert.Error(t, err)
}

func TestDecode_RejectsTruncated(t *testing.T) {
	p := &Plan{Creator: randomAddress(t), Name: "Basic", Price: 1, DurationDays: 1}
	data := p.Encode()

	_, err := Decode(randomAddress(t), data[:len(data)-1])
	assert.Error(t, err)
}

func TestDeriveAddress_DependsOnEveryField(t *testing.T) {
	programID := randomAddress(t)
	creator := randomAddress(t)

	a1, _, err := DeriveAddress(programID, creator, 0)
	require.NoError(t, err)
	a2, _, err := DeriveAddress(programID, creator, 1)
	require.NoError(t, err)
	a3, _, err := DeriveAddress(programID, randomAddress(t), 0)
	require.NoError(t, err)

	assert.NotEqual(t, a1, a2)
	assert.NotEqual(t, a1, a3)
}
