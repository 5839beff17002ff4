package subscription

import (
	"encoding/binary"
	"fmt"

	"subvault/internal/ledger"
	"subvault/pkg/pda"
)

const (
	SeedTag = "subscription"

	SecondsPerDay = 86400
)

var Discriminator = ledger.AccountDiscriminator("Subscription")

type Subscription struct {
	Address    pda.Address `json:"address"`
	Subscriber pda.Address `json:"subscriber"`
	Creator    pda.Address `json:"creator"`
	PlanID     uint64      `json:"plan_id"`
	ExpiresAt  int64       `json:"expires_at"`
	CreatedAt  int64       `json:"created_at"`
}

// IsActive reports whether the subscription is still running at the given
// time. Never stored: always recomputed, so it can only flip one way.
func (s *Subscription) IsActive(now int64) bool {
	return now < s.ExpiresAt
}

// DeriveAddress computes the subscription account address. One account per
// (subscriber, creator, planID) triple is all the address space allows.
func DeriveAddress(programID, subscriber, creator pda.Address, planID uint64) (pda.Address, uint8, error) {
	var id [8]byte
	binary.LittleEndian.PutUint64(id[:], planID)
	return pda.Derive([][]byte{[]byte(SeedTag), subscriber[:], creator[:], id[:]}, programID)
}

// Encode lays the subscription out in the account wire format.
func (s *Subscription) Encode() []byte {
	buf := make([]byte, 0, ledger.DiscriminatorLen+32+32+8+8+8)
	buf = append(buf, Discriminator[:]...)
	buf = append(buf, s.Subscriber[:]...)
	buf = append(buf, s.Creator[:]...)
	buf = binary.LittleEndian.AppendUint64(buf, s.PlanID)
	buf = binary.LittleEndian.AppendUint64(buf, uint64(s.ExpiresAt))
	buf = binary.LittleEndian.AppendUint64(buf, uint64(s.CreatedAt))
	return buf
}

// Decode parses an account blob produced by Encode.
func Decode(address pda.Address, data []byte) (*Subscription, error) {
	const size = ledger.DiscriminatorLen + 32 + 32 + 8 + 8 + 8
	if len(data) < size {
		return nil, fmt.Errorf("subscription account too short: %d bytes", len(data))
	}
	if [8]byte(data[:ledger.DiscriminatorLen]) != Discriminator {
		return nil, fmt.Errorf("not a subscription account")
	}

	s := &Subscription{Address: address}
	off := ledger.DiscriminatorLen
	copy(s.Subscriber[:], data[off:off+32])
	off += 32
	copy(s.Creator[:], data[off:off+32])
	off += 32
	s.PlanID = binary.LittleEndian.Uint64(data[off:])
	off += 8
	s.ExpiresAt = int64(binary.LittleEndian.Uint64(data[off:]))
	off += 8
	s.CreatedAt = int64(binary.LittleEndian.Uint64(data[off:]))
	return s, nil
}
