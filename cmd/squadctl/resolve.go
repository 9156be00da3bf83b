package main

import (
	"fmt"
	"strconv"

	"github.com/bitfsorg/libsquads-go/squad"
	"github.com/bitfsorg/libsquads-go/workspace"
)

// resolveIdentity accepts a keyring label or a hex identity.
func resolveIdentity(ws *workspace.Workspace, s string) (squad.Address, error) {
	if id, err := ws.Identity(s); err == nil {
		return id, nil
	}
	addr, err := squad.ParseAddress(s)
	if err != nil {
		return squad.ZeroAddress, fmt.Errorf("%q is neither a known label nor an address: %w", s, err)
	}
	return addr, nil
}

// resolveAccount maps a label to its associated token account; hex is
// taken as a token account address.
func resolveAccount(ws *workspace.Workspace, s string) (squad.Address, error) {
	if id, err := ws.Identity(s); err == nil {
		return squad.AssociatedAccount(id), nil
	}
	addr, err := squad.ParseAddress(s)
	if err != nil {
		return squad.ZeroAddress, fmt.Errorf("%q is neither a known label nor an account: %w", s, err)
	}
	return addr, nil
}

func parseAmount(s string) (uint64, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return v, nil
}
