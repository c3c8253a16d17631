////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package memvault

import (
	"context"
	"sync"

	"gitlab.com/elixxir/hive-wasm/vault"
)

// vaultState is the content of one vault. It is shared by every client that
// opens the vault.
type vaultState struct {
	ownerDid string
	provider string

	collections map[string][]vault.Document
	files       map[string]*file
	scripts     map[string]script
	conditions  map[string]vault.Document
	orders      map[string]vault.Document
	orderIDs    []string
	activePlan  string

	mux sync.Mutex
}

func newVaultState(ownerDid, provider string) *vaultState {
	return &vaultState{
		ownerDid:    ownerDid,
		provider:    provider,
		collections: make(map[string][]vault.Document),
		files:       make(map[string]*file),
		scripts:     make(map[string]script),
		conditions:  make(map[string]vault.Document),
		orders:      make(map[string]vault.Document),
		activePlan:  freePlan,
	}
}

// vaultHandle adheres to the vault.Vault interface. Each handle is bound to
// the client that opened it, whose access token authorizes every operation.
type vaultHandle struct {
	c  *client
	vs *vaultState
}

func (v *vaultHandle) OwnerDid() string        { return v.vs.ownerDid }
func (v *vaultHandle) ProviderAddress() string { return v.vs.provider }

func (v *vaultHandle) NodeVersion(ctx context.Context) (string, error) {
	v.c.sdk.record("NodeVersion")
	if err := v.c.authorize(ctx); err != nil {
		return "", err
	}
	return v.c.sdk.opts.NodeVersion, nil
}

func (v *vaultHandle) RevokeAccessToken(ctx context.Context) error {
	v.c.sdk.record("RevokeAccessToken")
	if err := ctx.Err(); err != nil {
		return err
	}
	v.c.revoke()
	return nil
}

func (v *vaultHandle) Database() vault.Database   { return &database{v} }
func (v *vaultHandle) Files() vault.Files         { return &files{v} }
func (v *vaultHandle) Scripting() vault.Scripting { return &scripting{v} }
func (v *vaultHandle) Payment() vault.Payment     { return &payment{v} }

// begin records the call and authorizes it. On success, the vault is locked
// and the returned function unlocks it.
func (v *vaultHandle) begin(
	ctx context.Context, method string, args ...any) (func(), error) {
	v.c.sdk.record(method, args...)
	if err := v.c.authorize(ctx); err != nil {
		return nil, err
	}
	v.vs.mux.Lock()
	return v.vs.mux.Unlock, nil
}
