// Package squad implements pooled staking squads: membership and stake
// accounting, oracle-fed activity scores, and weighted reward distribution.
//
// Every state-changing operation runs inside a single Store.Update so that
// record mutations and token transfers commit together or not at all.
package squad

import (
	"encoding/hex"
	"fmt"
	"time"
)

const (
	// MinMembers and MaxMembers bound a squad's capacity.
	MinMembers = 2
	MaxMembers = 8

	// MaxNameLen is the maximum squad name length in bytes.
	MaxNameLen = 32

	// AddressSize is the length of identities and record addresses.
	AddressSize = 32
)

// Address identifies a record, a token account, or a signing identity.
type Address [AddressSize]byte

// ZeroAddress is the all-zero address.
var ZeroAddress Address

// String returns the hex encoding of the address.
func (a Address) String() string {
	return hex.EncodeToString(a[:])
}

// IsZero reports whether a is the all-zero address.
func (a Address) IsZero() bool {
	return a == ZeroAddress
}

// ParseAddress decodes a 64-character hex string into an Address.
func ParseAddress(s string) (Address, error) {
	var a Address
	b, err := hex.DecodeString(s)
	if err != nil {
		return a, fmt.Errorf("squad: parse address: %w", err)
	}
	if len(b) != AddressSize {
		return a, fmt.Errorf("squad: parse address: expected %d bytes, got %d", AddressSize, len(b))
	}
	copy(a[:], b)
	return a, nil
}

// Squad is the group aggregate. TotalStaked always equals the sum of
// StakeAmount over the squad's members outside an in-flight Update.
type Squad struct {
	Authority    Address // creator
	Name         string  // immutable, part of the squad address
	MaxMembers   uint8
	MemberCount  uint8
	TotalStaked  uint64
	RewardsVault Address
	AddrTag      uint8   // addressing-scheme tag
	Oracle       Address // designated activity oracle
}

// StakeVault returns the address of the squad's pooled stake account.
func StakeVault(squad Address) Address {
	return DeriveAddress(SeedStakeVault, squad[:])
}

// Member is the per-identity record within one squad.
type Member struct {
	Squad                 Address
	Authority             Address
	StakeAmount           uint64
	JoinTimestamp         int64
	LastActivityTimestamp int64
	ActivityScore         uint32
	AddrTag               uint8
}

// MemberRecord pairs a member with its record address.
type MemberRecord struct {
	Address Address
	Member  *Member
}

// SquadRecord pairs a squad with its record address.
type SquadRecord struct {
	Address Address
	Squad   *Squad
}

// TokenAccount is a balance held in the token ledger.
type TokenAccount struct {
	Owner  Address
	Amount uint64
}

// Payout pairs a member record with the token account that receives its reward.
type Payout struct {
	Member      Address
	Destination Address
}

// PayoutResult is one line of a DistributionReport.
type PayoutResult struct {
	Member      Address
	Destination Address
	Weight      uint64
	Amount      uint64
}

// Signers reports which identities have proven control over the current call.
type Signers interface {
	HasSigned(id Address) bool
}

// SignerSet is a Signers backed by a set of identities.
type SignerSet map[Address]struct{}

// NewSignerSet returns a SignerSet containing ids.
func NewSignerSet(ids ...Address) SignerSet {
	s := make(SignerSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// HasSigned implements Signers.
func (s SignerSet) HasSigned(id Address) bool {
	_, ok := s[id]
	return ok
}

// Clock supplies the current time.
type Clock func() time.Time
