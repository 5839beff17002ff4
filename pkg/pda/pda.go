package pda

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

const (
	// Seeds are capped the same way the ledger runtime caps them.
	MaxSeedLen = 32
	MaxSeeds   = 16
)

var (
	ErrAddressSpaceExhausted = errors.New("address space exhausted: every bump candidate is on-curve")
	ErrSeedTooLong           = errors.New("seed exceeds 32 bytes")
	ErrTooManySeeds          = errors.New("too many seeds")
)

// Address is a 32-byte account address, rendered as base58.
type Address [32]byte

func (a Address) String() string {
	return base58.Encode(a[:])
}

func (a Address) IsZero() bool {
	return a == Address{}
}

// MarshalText renders the address as base58, so JSON bodies carry the same
// form callers pass in URLs.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := AddressFromString(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

func AddressFromString(s string) (Address, error) {
	var a Address
	raw, err := base58.Decode(s)
	if err != nil {
		return a, fmt.Errorf("decode address: %w", err)
	}
	if len(raw) != len(a) {
		return a, fmt.Errorf("address must be %d bytes, got %d", len(a), len(raw))
	}
	copy(a[:], raw)
	return a, nil
}

// MustAddress is for addresses known valid at compile time, e.g. the program id.
func MustAddress(s string) Address {
	a, err := AddressFromString(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Derive computes the program-derived address for the given seeds: the candidate
// hash for the highest bump byte (searched from 255 down) that does not land on
// the edwards25519 curve. Same inputs always produce the same (address, bump).
func Derive(seeds [][]byte, programID Address) (Address, uint8, error) {
	if len(seeds) > MaxSeeds {
		return Address{}, 0, ErrTooManySeeds
	}
	for _, seed := range seeds {
		if len(seed) > MaxSeedLen {
			return Address{}, 0, ErrSeedTooLong
		}
	}

	for bump := 255; bump >= 0; bump-- {
		h := sha256.New()
		for _, seed := range seeds {
			h.Write(seed)
		}
		h.Write([]byte{uint8(bump)})
		h.Write(programID[:])
		h.Write([]byte("ProgramDerivedAddress"))

		var candidate Address
		copy(candidate[:], h.Sum(nil))
		if !onCurve(candidate) {
			return candidate, uint8(bump), nil
		}
	}
	return Address{}, 0, ErrAddressSpaceExhausted
}

// onCurve reports whether the 32 bytes decode to a valid curve point. Addresses
// on the curve are reserved for holders of the matching private key.
func onCurve(a Address) bool {
	_, err := new(edwards25519.Point).SetBytes(a[:])
	return err == nil
}
