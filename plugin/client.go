////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package plugin

import (
	"encoding/json"
	"sync/atomic"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"

	"gitlab.com/elixxir/hive-wasm/dispatch"
	"gitlab.com/elixxir/hive-wasm/envelope"
	"gitlab.com/elixxir/hive-wasm/handles"
	"gitlab.com/elixxir/hive-wasm/vault"
)

// Keys of the getClient options object.
const (
	authDIDDocumentKey = "authenticationDIDDocument"
	localDataPathKey   = "localDataPath"
)

// Keys of the vault result.
const (
	vaultProviderAddressKey = "vaultProviderAddress"
	vaultOwnerDidKey        = "vaultOwnerDid"
)

// clientOptions are the decoded options of getClient.
type clientOptions struct {
	didDocument   string
	localDataPath string
}

func decodeClientOptions(args dispatch.Args) (clientOptions, error) {
	options, err := args.Object(0, "options")
	if err != nil {
		return clientOptions{}, err
	}

	var co clientOptions
	switch doc := options[authDIDDocumentKey].(type) {
	case string:
		co.didDocument = doc
	case map[string]any:
		data, err := json.Marshal(doc)
		if err != nil {
			return clientOptions{}, invalidArgument(0, authDIDDocumentKey,
				"is not valid JSON: %s", err)
		}
		co.didDocument = string(data)
	}
	if co.didDocument == "" {
		return clientOptions{}, invalidArgument(0, "options",
			"must contain a non-empty %s", authDIDDocumentKey)
	}

	co.localDataPath, _ = options[localDataPathKey].(string)
	return co, nil
}

// clientString is a client and one string argument.
type clientString struct {
	c argObject[vault.Client]
	s string
}

// clientVault is the decoded arguments of client_createVault and
// client_getVault.
type clientVault struct {
	c        vault.Client
	ownerDid string
	provider string
}

// registerClientHandlers registers the getClient and client methods.
func (hp *HivePlugin) registerClientHandlers() {
	dispatch.Register(hp.d, dispatch.GetClient, dispatch.Background,
		decodeClientOptions, hp.getClient)

	dispatch.Register(hp.d, dispatch.IsConnected, dispatch.Inline,
		hp.argClient,
		func(_ *dispatch.Call, c argObject[vault.Client]) (envelope.Envelope, error) {
			return envelope.Success(map[string]any{
				"isConnect": c.object.IsConnected()}), nil
		})

	dispatch.Register(hp.d, dispatch.ClientSetVaultAddress, dispatch.Inline,
		func(args dispatch.Args) (clientVault, error) {
			cv, err := hp.decodeClientVault(args)
			if err == nil && cv.provider == "" {
				err = invalidArgument(2, "vaultAddress", "must not be empty")
			}
			return cv, err
		},
		func(_ *dispatch.Call, cv clientVault) (envelope.Envelope, error) {
			return nil, cv.c.SetVaultProvider(cv.ownerDid, cv.provider)
		})

	dispatch.Register(hp.d, dispatch.ClientGetVaultAddress, dispatch.Background,
		hp.decodeClientVault,
		func(c *dispatch.Call, cv clientVault) (envelope.Envelope, error) {
			address, err := cv.c.GetVaultProvider(c.Context, cv.ownerDid)
			if err != nil {
				return nil, err
			}
			return envelope.Value(address), nil
		})

	dispatch.Register(hp.d, dispatch.ClientCreateVault, dispatch.Background,
		hp.decodeClientVault, hp.createVault)

	dispatch.Register(hp.d, dispatch.ClientGetVault, dispatch.Background,
		hp.decodeClientVault, hp.getVault)

	dispatch.Register(hp.d, dispatch.ClientSetAuthHandlerChallengeCallback,
		dispatch.Inline, hp.argClient,
		func(c *dispatch.Call, client argObject[vault.Client]) (envelope.Envelope, error) {
			hp.coordinator.SetChallengeChannel(client.id, c.CallbackID)
			c.Retain()
			return nil, nil
		})

	dispatch.Register(hp.d, dispatch.ClientSendAuthHandlerChallengeResponse,
		dispatch.Inline,
		func(args dispatch.Args) (clientString, error) {
			c, err := hp.argClient(args)
			if err != nil {
				return clientString{}, err
			}
			jwt, err := args.OptionalString(1, "challengeResponseJwt", "")
			return clientString{c, jwt}, err
		},
		func(_ *dispatch.Call, cs clientString) (envelope.Envelope, error) {
			return nil, hp.coordinator.Respond(cs.c.id, cs.s)
		})

	dispatch.Register(hp.d, dispatch.VaultGetNodeVersion, dispatch.Background,
		hp.vaultOnly,
		func(c *dispatch.Call, v vault.Vault) (envelope.Envelope, error) {
			version, err := v.NodeVersion(c.Context)
			if err != nil {
				return nil, err
			}
			return envelope.Value(version), nil
		})

	dispatch.Register(hp.d, dispatch.VaultRevokeAccessToken, dispatch.Background,
		hp.vaultOnly,
		func(c *dispatch.Call, v vault.Vault) (envelope.Envelope, error) {
			return nil, v.RevokeAccessToken(c.Context)
		})
}

// getClient creates a new SDK client. Its authentication challenges are sent
// to the challenge callback registered for its ID.
func (hp *HivePlugin) getClient(
	c *dispatch.Call, co clientOptions) (envelope.Envelope, error) {
	// The authenticator is created before the client is given its ID
	var clientID atomic.Uint64
	authenticator := hp.coordinator.Authenticator(
		func() handles.ID { return handles.ID(clientID.Load()) })

	client, err := hp.sdk.NewClient(c.Context, vault.ClientOptions{
		AuthenticationDIDDocument: co.didDocument,
		LocalDataDir:              co.localDataPath,
		Authenticator:             authenticator,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create client")
	}

	id := hp.table.Register(handles.Client, client)
	clientID.Store(uint64(id))
	jww.INFO.Printf("[HIVE] [%s] Created client %d", hp.Name, id)

	return envelope.Success(map[string]any{envelope.ObjectIDKey: id.String()}), nil
}

// decodeClientVault decodes the client, the owner DID and the optional
// provider address.
func (hp *HivePlugin) decodeClientVault(args dispatch.Args) (clientVault, error) {
	c, err := hp.argClient(args)
	if err != nil {
		return clientVault{}, err
	}
	cv := clientVault{c: c.object}
	if cv.ownerDid, err = args.NonEmptyString(1, "vaultOwnerDid"); err != nil {
		return clientVault{}, err
	}
	if cv.provider, err = args.OptionalString(2, "vaultAddress", ""); err != nil {
		return clientVault{}, err
	}
	return cv, nil
}

// createVault creates the vault. A vault that already exists, or whose
// provider is unknown, results in a null value rather than an error.
func (hp *HivePlugin) createVault(
	c *dispatch.Call, cv clientVault) (envelope.Envelope, error) {
	v, err := cv.c.CreateVault(c.Context, cv.ownerDid, cv.provider)
	if errors.Is(err, vault.ErrVaultAlreadyExists) ||
		errors.Is(err, vault.ErrProviderNotSet) {
		jww.INFO.Printf("[HIVE] [%s] Not creating vault of %s: %s",
			hp.Name, cv.ownerDid, err)
		return envelope.Value(nil), nil
	} else if err != nil {
		return nil, err
	}
	return hp.registerVault(v), nil
}

// getVault fetches the vault. A vault whose provider is unknown results in a
// null value rather than an error.
func (hp *HivePlugin) getVault(
	c *dispatch.Call, cv clientVault) (envelope.Envelope, error) {
	v, err := cv.c.GetVault(c.Context, cv.ownerDid)
	if errors.Is(err, vault.ErrProviderNotSet) {
		jww.INFO.Printf("[HIVE] [%s] No provider for vault of %s: %s",
			hp.Name, cv.ownerDid, err)
		return envelope.Value(nil), nil
	} else if err != nil {
		return nil, err
	}
	return hp.registerVault(v), nil
}

// registerVault adds the vault to the handle table and returns the envelope
// describing it.
func (hp *HivePlugin) registerVault(v vault.Vault) envelope.Envelope {
	id := hp.table.Register(handles.Vault, v)
	return envelope.Success(map[string]any{
		envelope.ObjectIDKey:    id.String(),
		vaultProviderAddressKey: v.ProviderAddress(),
		vaultOwnerDidKey:        v.OwnerDid(),
	})
}
