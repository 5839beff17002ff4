package plan

import (
	"encoding/binary"
	"fmt"

	"subvault/internal/ledger"
	"subvault/pkg/pda"
)

const (
	SeedTag = "plan"

	MaxNameLen      = 200
	MaxDurationDays = 365
	LamportsPerSol  = 1_000_000_000
	// Hard cap on plan price: 1000 SOL in lamports.
	MaxPriceLamports = 1000 * LamportsPerSol
)

var Discriminator = ledger.AccountDiscriminator("Plan")

type Plan struct {
	Address      pda.Address `json:"address"`
	Creator      pda.Address `json:"creator"`
	PlanID       uint64      `json:"plan_id"`
	Name         string      `json:"name"`
	Price        uint64      `json:"price"`
	DurationDays uint32      `json:"duration_days"`
	CreatedAt    int64       `json:"created_at"`
}

// DeriveAddress computes the plan account address from its identifying fields.
// Any client can locate a plan this way without a directory service.
func DeriveAddress(programID, creator pda.Address, planID uint64) (pda.Address, uint8, error) {
	var id [8]byte
	binary.LittleEndian.PutUint64(id[:], planID)
	return pda.Derive([][]byte{[]byte(SeedTag), creator[:], id[:]}, programID)
}

// Encode lays the plan out in the account wire format: discriminator, creator,
// plan id, length-prefixed name, price, duration, created-at. Little-endian.
func (p *Plan) Encode() []byte {
	name := []byte(p.Name)
	buf := make([]byte, 0, ledger.DiscriminatorLen+32+8+4+len(name)+8+4+8)
	buf = append(buf, Discriminator[:]...)
	buf = append(buf, p.Creator[:]...)
	buf = binary.LittleEndian.AppendUint64(buf, p.PlanID)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(name)))
	buf = append(buf, name...)
	buf = binary.LittleEndian.AppendUint64(buf, p.Price)
	buf = binary.LittleEndian.AppendUint32(buf, p.DurationDays)
	buf = binary.LittleEndian.AppendUint64(buf, uint64(p.CreatedAt))
	return buf
}

// Decode parses an account blob produced by Encode.
func Decode(address pda.Address, data []byte) (*Plan, error) {
	const fixed = ledger.DiscriminatorLen + 32 + 8 + 4
	if len(data) < fixed {
		return nil, fmt.Errorf("plan account too short: %d bytes", len(data))
	}
	if [8]byte(data[:ledger.DiscriminatorLen]) != Discriminator {
		return nil, fmt.Errorf("not a plan account")
	}

	p := &Plan{Address: address}
	off := ledger.DiscriminatorLen
	copy(p.Creator[:], data[off:off+32])
	off += 32
	p.PlanID = binary.LittleEndian.Uint64(data[off:])
	off += 8
	nameLen := int(binary.LittleEndian.Uint32(data[off:]))
	off += 4
	if len(data) < off+nameLen+8+4+8 {
		return nil, fmt.Errorf("plan account truncated: %d bytes", len(data))
	}
	p.Name = string(data[off : off+nameLen])
	off += nameLen
	p.Price = binary.LittleEndian.Uint64(data[off:])
	off += 8
	p.DurationDays = binary.LittleEndian.Uint32(data[off:])
	off += 4
	p.CreatedAt = int64(binary.LittleEndian.Uint64(data[off:]))
	return p, nil
}
