////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package client

import (
	"context"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"

	"gitlab.com/elixxir/hive-wasm/dispatch"
	"gitlab.com/elixxir/hive-wasm/envelope"
)

// Listener types sent to setListener.
const (
	loginListener  = 1
	resultListener = 2
)

// Manager is the entry point of the façade. It creates clients and registers
// the global listeners.
type Manager struct {
	b *Bridge
}

// NewManager returns a Manager that sends its calls to the Executor.
func NewManager(e Executor) *Manager {
	return &Manager{b: NewBridge(e)}
}

// GetVersion returns the version string of the bridge.
func (m *Manager) GetVersion(ctx context.Context) (string, error) {
	var version string
	return version, m.b.callDecode(ctx, &version, dispatch.GetVersion)
}

// ClientOptions are the options of GetClient.
type ClientOptions struct {
	// AuthenticationDIDDocument is the JSON of the application instance DID
	// document.
	AuthenticationDIDDocument string `json:"authenticationDIDDocument"`

	LocalDataPath string `json:"localDataPath,omitempty"`
}

// objectRef is the result of every call that registers a native object.
type objectRef struct {
	ObjectID string `json:"objectId"`
}

// GetClient creates a new client.
func (m *Manager) GetClient(ctx context.Context, opts ClientOptions) (*Client, error) {
	var ref objectRef
	err := m.b.callDecode(ctx, &ref, dispatch.GetClient, map[string]any{
		"authenticationDIDDocument": opts.AuthenticationDIDDocument,
		"localDataPath":             opts.LocalDataPath,
	})
	if err != nil {
		return nil, err
	}
	return &Client{b: m.b, id: ref.ObjectID}, nil
}

// LoginChallenges registers the login listener and returns the challenge
// events of every client that has no challenge callback of its own. The
// channel is closed when the listener is replaced or the bridge disposed of.
func (m *Manager) LoginChallenges(ctx context.Context) (<-chan envelope.Envelope, error) {
	return m.b.listen(ctx, dispatch.SetListener, loginListener)
}

// Progress registers the result listener and returns the progress events of
// streaming reads.
func (m *Manager) Progress(ctx context.Context) (<-chan envelope.Envelope, error) {
	return m.b.listen(ctx, dispatch.SetListener, resultListener)
}

// Client is a connection context on the native side.
type Client struct {
	b  *Bridge
	id string
}

// ObjectID returns the handle of the client.
func (c *Client) ObjectID() string {
	return c.id
}

// IsConnected returns true if the client is connected to its vault provider.
func (c *Client) IsConnected(ctx context.Context) (bool, error) {
	var res struct {
		IsConnect bool `json:"isConnect"`
	}
	return res.IsConnect, c.b.callDecode(ctx, &res, dispatch.IsConnected, c.id)
}

// SetVaultAddress sets the provider address of the owner's vault.
func (c *Client) SetVaultAddress(
	ctx context.Context, ownerDid, providerAddress string) error {
	_, err := c.b.call(
		ctx, dispatch.ClientSetVaultAddress, c.id, ownerDid, providerAddress)
	return err
}

// GetVaultAddress returns the provider address of the owner's vault.
func (c *Client) GetVaultAddress(ctx context.Context, ownerDid string) (string, error) {
	var address string
	return address, c.b.callDecode(
		ctx, &address, dispatch.ClientGetVaultAddress, c.id, ownerDid)
}

// vaultRef is the result of createVault and getVault.
type vaultRef struct {
	ObjectID        string `json:"objectId"`
	ProviderAddress string `json:"vaultProviderAddress"`
	OwnerDid        string `json:"vaultOwnerDid"`
}

// CreateVault creates the vault of the owner. It returns nil when the vault
// already exists or its provider is unknown.
func (c *Client) CreateVault(
	ctx context.Context, ownerDid, providerAddress string) (*Vault, error) {
	return c.vault(ctx, dispatch.ClientCreateVault, ownerDid, providerAddress)
}

// GetVault returns the vault of the owner. It returns nil when its provider
// is unknown.
func (c *Client) GetVault(ctx context.Context, ownerDid string) (*Vault, error) {
	return c.vault(ctx, dispatch.ClientGetVault, ownerDid)
}

func (c *Client) vault(
	ctx context.Context, method string, args ...any) (*Vault, error) {
	var ref *vaultRef
	if err := c.b.callDecode(ctx, &ref, method,
		append([]any{c.id}, args...)...); err != nil {
		return nil, err
	} else if ref == nil {
		return nil, nil
	}
	return &Vault{
		b:               c.b,
		id:              ref.ObjectID,
		providerAddress: ref.ProviderAddress,
		ownerDid:        ref.OwnerDid,
	}, nil
}

// AuthChallenges registers the challenge callback of the client and returns
// the JWT challenges sent to it.
func (c *Client) AuthChallenges(ctx context.Context) (<-chan string, error) {
	events, err := c.b.listen(
		ctx, dispatch.ClientSetAuthHandlerChallengeCallback, c.id)
	if err != nil {
		return nil, err
	}

	challenges := make(chan string)
	go func() {
		defer close(challenges)
		for env := range events {
			jwt, _ := env[envelope.PayloadKey].(string)
			select {
			case challenges <- jwt:
			case <-ctx.Done():
				return
			}
		}
	}()
	return challenges, nil
}

// RespondToChallenge answers the pending challenge of the client.
func (c *Client) RespondToChallenge(ctx context.Context, responseJwt string) error {
	_, err := c.b.call(
		ctx, dispatch.ClientSendAuthHandlerChallengeResponse, c.id, responseJwt)
	return err
}

// HandleAuthChallenges answers every challenge of the client with the
// response returned by answer until ctx is done. A failed answer is sent as an
// empty response so the SDK does not wait on it.
func HandleAuthChallenges(ctx context.Context, c *Client,
	answer func(jwtChallenge string) (string, error)) error {
	challenges, err := c.AuthChallenges(ctx)
	if err != nil {
		return errors.Wrapf(err, "failed to register challenge callback of "+
			"client %s", c.id)
	}

	go func() {
		for jwt := range challenges {
			response, err := answer(jwt)
			if err != nil {
				jww.ERROR.Printf("[CLIENT] Failed to answer challenge of "+
					"client %s: %+v", c.id, err)
				response = ""
			}
			if err = c.RespondToChallenge(ctx, response); err != nil {
				jww.ERROR.Printf("[CLIENT] Failed to send challenge response "+
					"of client %s: %+v", c.id, err)
			}
		}
	}()
	return nil
}
