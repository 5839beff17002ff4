package ledger

import (
	"crypto/sha256"

	"subvault/pkg/pda"
)

const (
	// Rent-exempt pricing: lamports per byte-year, paid up front for two years,
	// with a fixed per-account byte overhead.
	lamportsPerByteYear = 3480
	rentExemptYears     = 2
	accountOverhead     = 128

	DiscriminatorLen = 8
)

// Account is a raw ledger account: an immutable blob of data funded with the
// lamports that keep it alive.
type Account struct {
	Address  pda.Address
	Lamports uint64
	Data     []byte
}

// Discriminator returns the 8-byte account-kind tag at the front of Data.
func (a *Account) Discriminator() [DiscriminatorLen]byte {
	var d [DiscriminatorLen]byte
	copy(d[:], a.Data)
	return d
}

// AccountDiscriminator derives the kind tag for a named account type: the first
// 8 bytes of sha256("account:<Name>").
func AccountDiscriminator(name string) [DiscriminatorLen]byte {
	sum := sha256.Sum256([]byte("account:" + name))
	var d [DiscriminatorLen]byte
	copy(d[:], sum[:DiscriminatorLen])
	return d
}

// RentExemptMinimum is the lamport cost of keeping dataLen bytes alive forever.
func RentExemptMinimum(dataLen int) uint64 {
	return uint64(accountOverhead+dataLen) * lamportsPerByteYear * rentExemptYears
}
