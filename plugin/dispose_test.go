////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package plugin

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"gitlab.com/elixxir/hive-wasm/dispatch"
	"gitlab.com/elixxir/hive-wasm/envelope"
	"gitlab.com/elixxir/hive-wasm/vault"
)

// authResult is what the SDK authenticator returned for a challenge.
type authResult struct {
	response string
	err      error
}

// challengeSDK is a vault.SDK whose clients raise an authentication challenge
// on every GetVault and report what their authenticator returned.
type challengeSDK struct {
	results chan authResult
}

func (s *challengeSDK) NewClient(
	_ context.Context, opts vault.ClientOptions) (vault.Client, error) {
	return &challengeClient{opts.Authenticator, s.results}, nil
}

type challengeClient struct {
	auth    vault.Authenticator
	results chan<- authResult
}

func (c *challengeClient) IsConnected() bool { return false }

func (c *challengeClient) SetVaultProvider(string, string) error { return nil }

func (c *challengeClient) GetVaultProvider(context.Context, string) (string, error) {
	return "", vault.ErrProviderNotSet
}

func (c *challengeClient) CreateVault(
	context.Context, string, string) (vault.Vault, error) {
	return nil, vault.ErrVaultAlreadyExists
}

func (c *challengeClient) GetVault(ctx context.Context, _ string) (vault.Vault, error) {
	response, err := c.auth.GetAuthorization(ctx, "challenge-jwt")
	c.results <- authResult{response, err}
	return nil, vault.ErrVaultNotFound
}

// Tests that disposing of the bridge answers the challenge pending in the SDK
// with the empty response and no error.
func TestHivePlugin_Dispose_PendingChallenge(t *testing.T) {
	for i := 0; i < 20; i++ {
		sdk := &challengeSDK{results: make(chan authResult, 1)}
		hp := New(sdk, dispatch.DefaultParams())

		env := success(t, hp, dispatch.GetClient,
			map[string]any{"authenticationDIDDocument": testDIDDocument})
		clientID := env[envelope.ObjectIDKey].(string)

		challenges := listen(t, hp,
			dispatch.ClientSetAuthHandlerChallengeCallback, clientID)
		listen(t, hp, dispatch.ClientGetVault, clientID, testOwnerDid)
		require.Equal(t, "challenge-jwt", wait(t, challenges)[envelope.PayloadKey])

		hp.Dispose()

		select {
		case r := <-sdk.results:
			require.NoError(t, r.err)
			require.Equal(t, "", r.response)
		case <-time.After(5 * time.Second):
			require.FailNow(t, "Timed out waiting for the authenticator.")
		}
	}
}
