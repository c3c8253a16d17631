////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package auth bridges authentication challenges raised by the vault SDK to
// the Javascript listener of the client that raised them, and carries the
// response back to the suspended SDK call.
package auth

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"

	"gitlab.com/elixxir/hive-wasm/callbacks"
	"gitlab.com/elixxir/hive-wasm/envelope"
	"gitlab.com/elixxir/hive-wasm/handles"
	"gitlab.com/elixxir/hive-wasm/vault"
)

// Errors returned by Coordinator.Challenge that are not part of the envelope
// taxonomy.
var (
	ErrEmptyChallenge     = errors.New("empty authentication challenge")
	ErrNoChallengeChannel = errors.New("no authentication challenge listener registered")
)

// pendingChallenge is a challenge sent to Javascript that is waiting for its
// response. It resolves exactly once.
type pendingChallenge struct {
	callbackID callbacks.ID
	response   chan string
	once       sync.Once
}

func newPendingChallenge(id callbacks.ID) *pendingChallenge {
	return &pendingChallenge{callbackID: id, response: make(chan string, 1)}
}

// resolve fulfils the challenge with the response. Only the first call has an
// effect.
func (pc *pendingChallenge) resolve(response string) {
	pc.once.Do(func() { pc.response <- response })
}

// resolved returns the response if the challenge was already resolved.
func (pc *pendingChallenge) resolved() (string, bool) {
	select {
	case response := <-pc.response:
		return response, true
	default:
		return "", false
	}
}

// Coordinator pairs each challenge with its response. At most one challenge
// may be pending per client.
type Coordinator struct {
	channel *callbacks.Channel
	timeout time.Duration

	// channels are the keepAlive registrations that receive the challenges
	// of each client.
	channels map[handles.ID]callbacks.ID

	// fallback receives the challenges of clients without a registration of
	// their own. It is unset when empty.
	fallback callbacks.ID

	pending  map[handles.ID]*pendingChallenge
	disposed bool

	mux sync.Mutex
}

// NewCoordinator returns a Coordinator that sends challenges on the channel
// and gives up waiting for a response after the timeout. A timeout of zero
// waits until the response, the context or disposal.
func NewCoordinator(channel *callbacks.Channel, timeout time.Duration) *Coordinator {
	return &Coordinator{
		channel:  channel,
		timeout:  timeout,
		channels: make(map[handles.ID]callbacks.ID),
		pending:  make(map[handles.ID]*pendingChallenge),
	}
}

// SetChallengeChannel registers the keepAlive registration that receives the
// challenges of the client. A later registration replaces the earlier one.
func (c *Coordinator) SetChallengeChannel(client handles.ID, id callbacks.ID) {
	c.mux.Lock()
	defer c.mux.Unlock()

	if old, exists := c.channels[client]; exists && old != id {
		jww.DEBUG.Printf("[AUTH] Replacing challenge callback %s of client "+
			"%d with %s", old, client, id)
	}
	c.channels[client] = id
}

// SetFallbackChannel registers the keepAlive registration used for clients
// that have no challenge registration of their own.
func (c *Coordinator) SetFallbackChannel(id callbacks.ID) {
	c.mux.Lock()
	defer c.mux.Unlock()
	c.fallback = id
}

// Challenge sends the JWT challenge to the listener of the client and blocks
// until the response arrives. It is called by the SDK from the goroutine
// performing the SDK operation, never from the dispatcher.
//
// After Dispose, and for challenges pending when Dispose is called, the
// response is the empty string.
func (c *Coordinator) Challenge(
	ctx context.Context, client handles.ID, jwt string) (string, error) {
	if jwt == "" {
		jww.ERROR.Printf("[AUTH] Refusing to forward empty challenge for "+
			"client %d", client)
		return "", errors.Wrapf(ErrEmptyChallenge, "client %d", client)
	}

	c.mux.Lock()
	if c.disposed {
		c.mux.Unlock()
		return "", nil
	}
	if _, exists := c.pending[client]; exists {
		c.mux.Unlock()
		return "", errors.Wrapf(
			envelope.ErrChallengeAlreadyPending, "client %d", client)
	}
	id, exists := c.channels[client]
	if !exists {
		id, exists = c.fallback, c.fallback != ""
	}
	if !exists {
		c.mux.Unlock()
		return "", errors.Wrapf(ErrNoChallengeChannel, "client %d", client)
	}
	pc := newPendingChallenge(id)
	c.pending[client] = pc
	c.mux.Unlock()

	jww.INFO.Printf("[AUTH] Sending challenge for client %d on callback %s",
		client, id)

	event := envelope.Event(envelope.StatusOK, jwt)
	event[envelope.ObjectIDKey] = client.String()
	if !c.channel.Emit(id, event, true) {
		c.remove(client, pc)
		return "", errors.Wrapf(ErrNoChallengeChannel,
			"challenge callback %s of client %d is closed", id, client)
	}

	var timeout <-chan time.Time
	if c.timeout > 0 {
		timer := time.NewTimer(c.timeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case response := <-pc.response:
		return response, nil
	case <-timeout:
		if response, ok := pc.resolved(); ok {
			return response, nil
		}
		c.remove(client, pc)
		return "", errors.Wrapf(envelope.ErrChallengeTimedOut,
			"client %d after %s", client, c.timeout)
	case <-ctx.Done():
		if response, ok := pc.resolved(); ok {
			return response, nil
		}
		c.remove(client, pc)
		return "", errors.Wrapf(ctx.Err(),
			"authentication challenge of client %d abandoned", client)
	}
}

// Respond resolves the pending challenge of the client with the response JWT.
func (c *Coordinator) Respond(client handles.ID, jwt string) error {
	c.mux.Lock()
	pc, exists := c.pending[client]
	if exists {
		delete(c.pending, client)
	}
	c.mux.Unlock()

	if !exists {
		return errors.Wrapf(envelope.ErrChallengeNotPending, "client %d", client)
	}

	jww.INFO.Printf("[AUTH] Received challenge response for client %d", client)
	pc.resolve(jwt)
	return nil
}

// Pending returns true if a challenge of the client is waiting for its
// response.
func (c *Coordinator) Pending(client handles.ID) bool {
	c.mux.Lock()
	defer c.mux.Unlock()
	_, exists := c.pending[client]
	return exists
}

// Dispose resolves every pending challenge with the empty string so that the
// SDK calls waiting on them can return.
func (c *Coordinator) Dispose() {
	c.mux.Lock()
	c.disposed = true
	pending := c.pending
	c.pending = make(map[handles.ID]*pendingChallenge)
	c.channels = make(map[handles.ID]callbacks.ID)
	c.fallback = ""
	c.mux.Unlock()

	if len(pending) > 0 {
		jww.INFO.Printf("[AUTH] Cancelling %d pending challenges", len(pending))
	}
	for _, pc := range pending {
		pc.resolve("")
	}
}

// remove deletes the pending challenge if it is still the one registered for
// the client.
func (c *Coordinator) remove(client handles.ID, pc *pendingChallenge) {
	c.mux.Lock()
	defer c.mux.Unlock()
	if c.pending[client] == pc {
		delete(c.pending, client)
	}
}

// Authenticator returns a vault.Authenticator that raises challenges for the
// client. The client ID is read on every challenge since the SDK client, and
// with it the Authenticator, exists before its ID is known.
func (c *Coordinator) Authenticator(client func() handles.ID) vault.Authenticator {
	return &authenticator{c: c, client: client}
}

// authenticator adheres to the vault.Authenticator interface.
type authenticator struct {
	c      *Coordinator
	client func() handles.ID
}

// GetAuthorization raises the challenge through the Coordinator.
func (a *authenticator) GetAuthorization(
	ctx context.Context, jwtChallenge string) (string, error) {
	return a.c.Challenge(ctx, a.client(), jwtChallenge)
}
