////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package callbacks delivers envelopes to Javascript listeners identified by a
// callback ID. A registration is either one-shot, retired after its terminal
// envelope, or kept alive to carry any number of events.
package callbacks

import (
	"fmt"
	"sync"

	"github.com/aquilax/truncate"
	"github.com/google/uuid"
	jww "github.com/spf13/jwalterweatherman"

	"gitlab.com/elixxir/hive-wasm/envelope"
)

// ID identifies a registration on the Channel.
type ID string

// Purpose describes what a registration is used for.
type Purpose uint8

// Registration purposes.
const (
	// Command is the one-shot registration of a single dispatched call.
	Command Purpose = iota

	// Login is the global listener for authentication requests.
	Login

	// Result is the global listener for asynchronous results and streaming
	// progress.
	Result

	// AuthChallenge is the listener for the authentication challenges of one
	// client.
	AuthChallenge
)

// String returns the name of the purpose. This functions adheres to the
// fmt.Stringer interface.
func (p Purpose) String() string {
	switch p {
	case Command:
		return "command"
	case Login:
		return "login"
	case Result:
		return "result"
	case AuthChallenge:
		return "authChallenge"
	default:
		return fmt.Sprintf("purpose(%d)", uint8(p))
	}
}

// closedMessage is sent to every registration still open when it is closed.
const closedMessage = "callback channel closed"

// registration is a reply slot captured from the request that opened it.
type registration struct {
	purpose Purpose
	reply   envelope.ReplyFunc
}

// Channel keeps track of every open registration. Emitting on a retired or
// unknown registration, or on a closed Channel, is a silent no-op.
type Channel struct {
	registrations map[ID]*registration

	// closed is set by CloseAll. Once closed, nothing is delivered.
	closed bool

	// name describes the channel. It is used for logging.
	name string

	// messageLogging indicates if a DEBUG message is printed for every
	// emitted envelope.
	messageLogging bool

	mux sync.Mutex
}

// NewChannel returns a new, empty Channel.
func NewChannel(name string, messageLogging bool) *Channel {
	return &Channel{
		registrations:  make(map[ID]*registration),
		name:           name,
		messageLogging: messageLogging,
	}
}

// Open registers the reply slot and returns its new ID. Opening on a closed
// Channel returns an ID that is never registered.
func (c *Channel) Open(purpose Purpose, reply envelope.ReplyFunc) ID {
	id := ID(uuid.NewString())

	c.mux.Lock()
	defer c.mux.Unlock()

	if c.closed {
		jww.WARN.Printf("[CB] [%s] Opened %s callback %s on closed channel",
			c.name, purpose, id)
		return id
	}

	c.registrations[id] = &registration{purpose: purpose, reply: reply}
	jww.TRACE.Printf("[CB] [%s] Opened %s callback %s", c.name, purpose, id)

	return id
}

// Emit delivers the envelope to the registration. If keepAlive is false, the
// registration is retired and no further envelope can be emitted on it.
// Returns true if the envelope was delivered.
func (c *Channel) Emit(id ID, env envelope.Envelope, keepAlive bool) bool {
	reg, exists := c.take(id, keepAlive)
	if !exists {
		jww.DEBUG.Printf("[CB] [%s] Dropping %q envelope for retired or "+
			"unknown callback %s", c.name, env.Status(), id)
		return false
	}

	if c.messageLogging {
		jww.DEBUG.Printf("[CB] [%s] Emitting on %s callback %s (keepAlive %t): %s",
			c.name, reg.purpose, id, keepAlive, truncate.Truncate(
				fmt.Sprintf("%v", env), 64, "...", truncate.PositionMiddle))
	}

	return c.deliver(id, reg, env, keepAlive)
}

// Close retires the registration after sending it a cancelling envelope.
// Returns true if the registration was open.
func (c *Channel) Close(id ID) bool {
	reg, exists := c.take(id, false)
	if !exists {
		return false
	}
	return c.deliver(id, reg, envelope.Error(closedMessage), false)
}

// CloseAll closes the Channel. Every open registration receives a cancelling
// envelope so that no Javascript promise is left waiting.
func (c *Channel) CloseAll() {
	c.mux.Lock()
	c.closed = true
	registrations := c.registrations
	c.registrations = make(map[ID]*registration)
	c.mux.Unlock()

	jww.INFO.Printf("[CB] [%s] Closing %d open callbacks",
		c.name, len(registrations))

	for id, reg := range registrations {
		c.deliver(id, reg, envelope.Error(closedMessage), false)
	}
}

// Registered returns true if the registration is open.
func (c *Channel) Registered(id ID) bool {
	c.mux.Lock()
	defer c.mux.Unlock()
	_, exists := c.registrations[id]
	return exists
}

// Len returns the number of open registrations.
func (c *Channel) Len() int {
	c.mux.Lock()
	defer c.mux.Unlock()
	return len(c.registrations)
}

// take returns the registration and deletes it unless keepAlive is set. This
// function is thread safe.
func (c *Channel) take(id ID, keepAlive bool) (*registration, bool) {
	c.mux.Lock()
	defer c.mux.Unlock()

	if c.closed {
		return nil, false
	}

	reg, exists := c.registrations[id]
	if !exists {
		return nil, false
	}
	if !keepAlive {
		delete(c.registrations, id)
	}
	return reg, true
}

// deliver calls the reply function outside the lock. A reply function that
// panics, such as one whose Javascript side has been torn down, is logged
// and the envelope dropped.
func (c *Channel) deliver(id ID, reg *registration, env envelope.Envelope,
	keepAlive bool) (delivered bool) {
	defer func() {
		if r := recover(); r != nil {
			jww.ERROR.Printf("[CB] [%s] Failed to deliver envelope on %s "+
				"callback %s: %v", c.name, reg.purpose, id, r)
			delivered = false
		}
	}()

	reg.reply(env, keepAlive)
	return true
}
