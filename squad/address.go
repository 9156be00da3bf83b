package squad

import (
	"encoding/binary"

	bsvhash "github.com/bsv-blockchain/go-sdk/primitives/hash"
)

// Seed tags for record address derivation.
const (
	SeedSquad        = "squad"
	SeedMember       = "member"
	SeedRewardsVault = "rewards_vault"
	SeedStakeVault   = "squad_vault"
	SeedAssociated   = "associated"
)

// AddrTagV1 is the addressing-scheme tag stored on every record.
const AddrTagV1 uint8 = 1

const addressDomain = "splitsquads/address/v1"

// DeriveAddress hashes a seed tag and its parent identifiers into a record
// address: SHA256(domain || tag || len(seed_i) || seed_i ...).
// Lengths are included so that ("ab","c") and ("a","bc") never collide.
func DeriveAddress(tag string, seeds ...[]byte) Address {
	buf := make([]byte, 0, len(addressDomain)+len(tag)+len(seeds)*(4+AddressSize)+4)
	buf = append(buf, addressDomain...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(tag)))
	buf = append(buf, tag...)
	for _, s := range seeds {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(s)))
		buf = append(buf, s...)
	}

	var addr Address
	copy(addr[:], bsvhash.Sha256(buf))
	return addr
}

// SquadAddress returns the address of the squad created by authority under name.
func SquadAddress(authority Address, name string) Address {
	return DeriveAddress(SeedSquad, authority[:], []byte(name))
}

// MemberAddress returns the address of identity's member record in squad.
func MemberAddress(squad, identity Address) Address {
	return DeriveAddress(SeedMember, squad[:], identity[:])
}

// RewardsVault returns the address of the squad's rewards vault.
func RewardsVault(squad Address) Address {
	return DeriveAddress(SeedRewardsVault, squad[:])
}

// AssociatedAccount returns the default token account of owner.
func AssociatedAccount(owner Address) Address {
	return DeriveAddress(SeedAssociated, owner[:])
}
