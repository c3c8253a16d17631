////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package memvault is an in-memory implementation of the vault SDK. It keeps
// every vault in memory, matches queries by top-level field equality and
// records every call so that the bridge can be exercised end to end without a
// vault provider.
package memvault

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"

	"gitlab.com/elixxir/hive-wasm/vault"
)

// Options configure the SDK.
type Options struct {
	// DefaultProvider is the provider address used for owner DIDs that have
	// none set. If empty, such vaults fail with vault.ErrProviderNotSet.
	DefaultProvider string

	// AutoCreateVaults creates a vault the first time it is fetched instead
	// of failing with vault.ErrVaultNotFound.
	AutoCreateVaults bool

	// RequireAuth makes the first network operation of each client raise an
	// authentication challenge through its Authenticator.
	RequireAuth bool

	// Challenge is the JWT challenge raised when RequireAuth is set.
	Challenge string

	// NodeVersion is returned by Vault.NodeVersion.
	NodeVersion string
}

// DefaultOptions returns options for a self-contained SDK where every vault
// exists on a local provider.
func DefaultOptions() Options {
	return Options{
		DefaultProvider:  "http://localhost:5004",
		AutoCreateVaults: true,
		RequireAuth:      false,
		Challenge:        "memvault-challenge",
		NodeVersion:      "memvault-2.9.1",
	}
}

// Call is a single recorded SDK call.
type Call struct {
	Method string
	Args   []any
}

// SDK is an in-memory vault.SDK. Every client of one SDK sees the same
// vaults.
type SDK struct {
	opts Options

	providers map[string]string
	vaults    map[string]*vaultState
	calls     []Call

	mux sync.Mutex
}

// NewSDK returns an empty SDK.
func NewSDK(opts Options) *SDK {
	return &SDK{
		opts:      opts,
		providers: make(map[string]string),
		vaults:    make(map[string]*vaultState),
	}
}

// Calls returns every call made to the SDK, in order.
func (s *SDK) Calls() []Call {
	s.mux.Lock()
	defer s.mux.Unlock()
	return append([]Call(nil), s.calls...)
}

// record adds the call to the call log.
func (s *SDK) record(method string, args ...any) {
	s.mux.Lock()
	defer s.mux.Unlock()
	s.calls = append(s.calls, Call{method, args})
	jww.TRACE.Printf("[MEMVAULT] %s %v", method, args)
}

// NewClient returns a new client. The DID document is not parsed.
func (s *SDK) NewClient(
	ctx context.Context, opts vault.ClientOptions) (vault.Client, error) {
	s.record("NewClient", opts.AuthenticationDIDDocument, opts.LocalDataDir)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.opts.RequireAuth && opts.Authenticator == nil {
		return nil, errors.New("an authenticator is required")
	}
	return &client{sdk: s, opts: opts}, nil
}

// client adheres to the vault.Client interface.
type client struct {
	sdk  *SDK
	opts vault.ClientOptions

	// authorized is set once a challenge has been answered. It is reset when
	// the access token is revoked.
	authorized bool

	// authMux is held while a challenge is outstanding so that concurrent
	// operations of the client wait for the same authorization.
	authMux sync.Mutex
}

// authorize raises an authentication challenge if the client has no access
// token.
func (c *client) authorize(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !c.sdk.opts.RequireAuth {
		return nil
	}

	c.authMux.Lock()
	defer c.authMux.Unlock()
	if c.authorized {
		return nil
	}

	response, err := c.opts.Authenticator.GetAuthorization(
		ctx, c.sdk.opts.Challenge)
	if err != nil {
		return errors.Wrap(err, "failed to get authorization")
	} else if response == "" {
		return errors.New("authentication failed: empty challenge response")
	}

	c.authorized = true
	return nil
}

func (c *client) revoke() {
	c.authMux.Lock()
	defer c.authMux.Unlock()
	c.authorized = false
}

func (c *client) IsConnected() bool {
	c.sdk.record("IsConnected")
	return true
}

func (c *client) SetVaultProvider(ownerDid, providerAddress string) error {
	c.sdk.record("SetVaultProvider", ownerDid, providerAddress)
	c.sdk.mux.Lock()
	defer c.sdk.mux.Unlock()
	c.sdk.providers[ownerDid] = providerAddress
	return nil
}

func (c *client) GetVaultProvider(
	ctx context.Context, ownerDid string) (string, error) {
	c.sdk.record("GetVaultProvider", ownerDid)
	if err := c.authorize(ctx); err != nil {
		return "", err
	}

	c.sdk.mux.Lock()
	defer c.sdk.mux.Unlock()
	provider, err := c.sdk.provider(ownerDid, "")
	if errors.Is(err, vault.ErrProviderNotSet) {
		return "", errors.Wrapf(vault.ErrProviderNotPublished,
			"no provider published for %s", ownerDid)
	}
	return provider, err
}

func (c *client) CreateVault(ctx context.Context,
	ownerDid, providerAddress string) (vault.Vault, error) {
	c.sdk.record("CreateVault", ownerDid, providerAddress)
	if err := c.authorize(ctx); err != nil {
		return nil, err
	}

	c.sdk.mux.Lock()
	defer c.sdk.mux.Unlock()
	provider, err := c.sdk.provider(ownerDid, providerAddress)
	if err != nil {
		return nil, err
	}
	if _, exists := c.sdk.vaults[ownerDid]; exists {
		return nil, errors.Wrapf(vault.ErrVaultAlreadyExists,
			"vault of %s", ownerDid)
	}

	vs := newVaultState(ownerDid, provider)
	c.sdk.vaults[ownerDid] = vs
	c.sdk.providers[ownerDid] = provider
	return &vaultHandle{c: c, vs: vs}, nil
}

func (c *client) GetVault(
	ctx context.Context, ownerDid string) (vault.Vault, error) {
	c.sdk.record("GetVault", ownerDid)
	if err := c.authorize(ctx); err != nil {
		return nil, err
	}

	c.sdk.mux.Lock()
	defer c.sdk.mux.Unlock()
	provider, err := c.sdk.provider(ownerDid, "")
	if err != nil {
		return nil, err
	}
	vs, exists := c.sdk.vaults[ownerDid]
	if !exists {
		if !c.sdk.opts.AutoCreateVaults {
			return nil, errors.Wrapf(vault.ErrVaultNotFound,
				"vault of %s", ownerDid)
		}
		vs = newVaultState(ownerDid, provider)
		c.sdk.vaults[ownerDid] = vs
	}
	return &vaultHandle{c: c, vs: vs}, nil
}

// provider returns the provider address to use for the owner DID. Must be
// called while holding the SDK lock.
func (s *SDK) provider(ownerDid, requested string) (string, error) {
	if requested != "" {
		return requested, nil
	}
	if provider, exists := s.providers[ownerDid]; exists {
		return provider, nil
	}
	if s.opts.DefaultProvider != "" {
		return s.opts.DefaultProvider, nil
	}
	return "", errors.Wrapf(vault.ErrProviderNotSet, "owner %s", ownerDid)
}

// normalize returns a deep copy of the document as it would be stored after
// crossing the JSON wire.
func normalize(doc vault.Document) (vault.Document, error) {
	if doc == nil {
		return vault.Document{}, nil
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, errors.Wrap(err, "document is not valid JSON")
	}
	var out vault.Document
	if err = json.Unmarshal(data, &out); err != nil {
		return nil, errors.Wrap(err, "document is not a JSON object")
	}
	return out, nil
}
