package squad

import (
	"encoding/binary"
	"fmt"
)

const (
	squadFixedSize = 32 + 4 + 1 + 1 + 8 + 32 + 1 + 32 // authority + name_len + max + count + total + vault + tag + oracle
	memberSize     = 32 + 32 + 8 + 8 + 8 + 4 + 1       // squad + authority + stake + join + last + score + tag
	accountSize    = 32 + 8                            // owner + amount
)

// SerializeSquad encodes a Squad. Fields are little-endian; the name is
// prefixed with its u32 length.
func SerializeSquad(s *Squad) ([]byte, error) {
	if len(s.Name) > MaxNameLen {
		return nil, fmt.Errorf("%w: %d bytes", ErrNameTooLong, len(s.Name))
	}
	buf := make([]byte, 0, squadFixedSize+len(s.Name))
	buf = append(buf, s.Authority[:]...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(s.Name)))
	buf = append(buf, s.Name...)
	buf = append(buf, s.MaxMembers, s.MemberCount)
	buf = binary.LittleEndian.AppendUint64(buf, s.TotalStaked)
	buf = append(buf, s.RewardsVault[:]...)
	buf = append(buf, s.AddrTag)
	buf = append(buf, s.Oracle[:]...)
	return buf, nil
}

// DeserializeSquad decodes a Squad.
func DeserializeSquad(data []byte) (*Squad, error) {
	if len(data) < squadFixedSize {
		return nil, fmt.Errorf("%w: squad too short (%d bytes)", ErrInvalidRecord, len(data))
	}
	s := &Squad{}
	offset := 0

	copy(s.Authority[:], data[offset:offset+32])
	offset += 32

	nameLen := int(binary.LittleEndian.Uint32(data[offset : offset+4]))
	offset += 4
	if nameLen > MaxNameLen || len(data) != squadFixedSize+nameLen {
		return nil, fmt.Errorf("%w: squad name length %d does not match %d bytes", ErrInvalidRecord, nameLen, len(data))
	}
	s.Name = string(data[offset : offset+nameLen])
	offset += nameLen

	s.MaxMembers = data[offset]
	s.MemberCount = data[offset+1]
	offset += 2

	s.TotalStaked = binary.LittleEndian.Uint64(data[offset : offset+8])
	offset += 8

	copy(s.RewardsVault[:], data[offset:offset+32])
	offset += 32

	s.AddrTag = data[offset]
	offset++

	copy(s.Oracle[:], data[offset:offset+32])
	return s, nil
}

// SerializeMember encodes a Member into its fixed 93-byte layout.
func SerializeMember(m *Member) []byte {
	buf := make([]byte, memberSize)
	copy(buf[0:32], m.Squad[:])
	copy(buf[32:64], m.Authority[:])
	binary.LittleEndian.PutUint64(buf[64:72], m.StakeAmount)
	binary.LittleEndian.PutUint64(buf[72:80], uint64(m.JoinTimestamp))
	binary.LittleEndian.PutUint64(buf[80:88], uint64(m.LastActivityTimestamp))
	binary.LittleEndian.PutUint32(buf[88:92], m.ActivityScore)
	buf[92] = m.AddrTag
	return buf
}

// DeserializeMember decodes a Member.
func DeserializeMember(data []byte) (*Member, error) {
	if len(data) != memberSize {
		return nil, fmt.Errorf("%w: expected %d member bytes, got %d", ErrInvalidRecord, memberSize, len(data))
	}
	m := &Member{}
	copy(m.Squad[:], data[0:32])
	copy(m.Authority[:], data[32:64])
	m.StakeAmount = binary.LittleEndian.Uint64(data[64:72])
	m.JoinTimestamp = int64(binary.LittleEndian.Uint64(data[72:80]))
	m.LastActivityTimestamp = int64(binary.LittleEndian.Uint64(data[80:88]))
	m.ActivityScore = binary.LittleEndian.Uint32(data[88:92])
	m.AddrTag = data[92]
	return m, nil
}

// SerializeAccount encodes a TokenAccount.
func SerializeAccount(a *TokenAccount) []byte {
	buf := make([]byte, accountSize)
	copy(buf[0:32], a.Owner[:])
	binary.LittleEndian.PutUint64(buf[32:40], a.Amount)
	return buf
}

// DeserializeAccount decodes a TokenAccount.
func DeserializeAccount(data []byte) (*TokenAccount, error) {
	if len(data) != accountSize {
		return nil, fmt.Errorf("%w: expected %d account bytes, got %d", ErrInvalidRecord, accountSize, len(data))
	}
	a := &TokenAccount{}
	copy(a.Owner[:], data[0:32])
	a.Amount = binary.LittleEndian.Uint64(data[32:40])
	return a, nil
}
