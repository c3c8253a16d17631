////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package dispatch routes bridge calls to their handlers and replies to each
// call with exactly one envelope.
package dispatch

import (
	"context"
	"fmt"
	"sync"

	"github.com/aquilax/truncate"
	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"

	"gitlab.com/elixxir/hive-wasm/callbacks"
	"gitlab.com/elixxir/hive-wasm/envelope"
)

// ErrNotInitialized is returned for calls dispatched after disposal.
var ErrNotInitialized = errors.New("bridge is not initialized")

// Mode describes where a handler runs.
type Mode uint8

const (
	// Inline handlers run on the dispatching goroutine. Only purely local
	// operations are inline.
	Inline Mode = iota

	// Background handlers run on their own goroutine. Every operation that
	// reaches the SDK is a background operation.
	Background
)

// String returns a human-readable name for the Mode.
func (m Mode) String() string {
	switch m {
	case Inline:
		return "inline"
	case Background:
		return "background"
	default:
		return fmt.Sprintf("Mode(%d)", m)
	}
}

// Call is a single dispatched call, passed to its handler.
type Call struct {
	// Method is the name of the called operation.
	Method Method

	// CallbackID is the registration that receives the reply of the call.
	CallbackID callbacks.ID

	// Context is cancelled when the bridge is disposed.
	Context context.Context

	retained bool
}

// Retain keeps the registration of the call armed after the handler returns
// successfully and sends no terminal reply. The registration is then used as
// a keepAlive channel.
func (c *Call) Retain() {
	c.retained = true
}

// runFunc runs a call whose arguments have already been validated.
type runFunc func(c *Call) (envelope.Envelope, error)

// handler validates the arguments of a call and returns the function that
// forwards it.
type handler struct {
	mode    Mode
	prepare func(args Args) (runFunc, error)
}

// Dispatcher routes each call to the handler registered for its method. It
// moves a call through validation, forwarding and the reply of its terminal
// envelope.
type Dispatcher struct {
	channel  *callbacks.Channel
	handlers map[Method]handler

	ctx    context.Context
	cancel context.CancelFunc

	// initialized is unset on disposal. No call is accepted afterward.
	initialized bool

	// wg tracks running handlers.
	wg sync.WaitGroup

	// lifecycle guards initialized against concurrent dispatch and disposal.
	lifecycle sync.RWMutex

	Params
}

// New returns a Dispatcher that replies to calls through the channel.
func New(channel *callbacks.Channel, p Params) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		channel:     channel,
		handlers:    make(map[Method]handler),
		ctx:         ctx,
		cancel:      cancel,
		initialized: true,
		Params:      p,
	}
}

// Register adds the handler of the method. The decode function is the schema
// of the call: it turns the positional arguments into the request R and fails
// before anything is forwarded. The run function forwards the request and
// returns the success envelope.
//
// Registering a method twice panics.
func Register[R any](d *Dispatcher, method Method, mode Mode,
	decode func(args Args) (R, error),
	run func(c *Call, req R) (envelope.Envelope, error)) {
	d.lifecycle.Lock()
	defer d.lifecycle.Unlock()

	if _, exists := d.handlers[method]; exists {
		jww.FATAL.Panicf("[DISPATCH] [%s] Handler for %q already registered",
			d.Name, method)
	}

	d.handlers[method] = handler{
		mode: mode,
		prepare: func(args Args) (runFunc, error) {
			req, err := decode(args)
			if err != nil {
				return nil, err
			}
			return func(c *Call) (envelope.Envelope, error) {
				return run(c, req)
			}, nil
		},
	}
}

// NoArgs is a decode function for methods without arguments.
func NoArgs(Args) (struct{}, error) { return struct{}{}, nil }

// Dispatch validates the arguments of the call and runs its handler. The
// reply is called with the terminal envelope of the call, or with every
// envelope of a retained call. Unknown methods, validation failures and
// calls after disposal are replied to before Dispatch returns.
//
// Returns the ID of the registration of the call. It is empty if the call was
// refused before being registered.
func (d *Dispatcher) Dispatch(
	method Method, args []any, reply envelope.ReplyFunc) callbacks.ID {
	if d.MessageLogging {
		jww.DEBUG.Printf("[DISPATCH] [%s] Received %s: %s", d.Name, method,
			truncate.Truncate(fmt.Sprintf("%v", args), 64, "...",
				truncate.PositionMiddle))
	}

	d.lifecycle.RLock()
	if !d.initialized {
		d.lifecycle.RUnlock()
		jww.WARN.Printf("[DISPATCH] [%s] Refusing %s: %s",
			d.Name, method, ErrNotInitialized)
		d.replyDirect(method, reply, envelope.Error(ErrNotInitialized.Error()))
		return ""
	}

	h, exists := d.handlers[method]
	if !exists {
		d.lifecycle.RUnlock()
		err := errors.Wrapf(envelope.ErrUnknownMethod, "%q", method)
		jww.ERROR.Printf("[DISPATCH] [%s] %+v", d.Name, err)
		d.replyDirect(method, reply, envelope.FromError(err))
		return ""
	}

	c := &Call{
		Method:     method,
		CallbackID: d.channel.Open(callbacks.Command, reply),
		Context:    d.ctx,
	}

	run, err := h.prepare(args)
	if err != nil {
		d.lifecycle.RUnlock()
		jww.WARN.Printf("[DISPATCH] [%s] Rejected %s: %s", d.Name, method, err)
		d.finish(c, nil, err)
		return c.CallbackID
	}

	d.wg.Add(1)
	d.lifecycle.RUnlock()

	switch h.mode {
	case Background:
		go d.execute(c, run)
	default:
		d.execute(c, run)
	}

	return c.CallbackID
}

// execute runs the call and replies with its outcome. A panicking handler is
// reported as an opaque error.
func (d *Dispatcher) execute(c *Call, run runFunc) {
	defer d.wg.Done()

	env, err := func() (env envelope.Envelope, err error) {
		defer func() {
			if r := recover(); r != nil {
				jww.ERROR.Printf("[DISPATCH] [%s] Handler of %s panicked: %v",
					d.Name, c.Method, r)
				c.retained = false
				env, err = envelope.Error(fmt.Sprintf(
					"internal error in %s: %v", c.Method, r)), nil
			}
		}()
		return run(c)
	}()

	d.finish(c, env, err)
}

// finish emits the terminal envelope of the call, unless the call retained
// its registration and succeeded.
func (d *Dispatcher) finish(c *Call, env envelope.Envelope, err error) {
	if err != nil {
		if d.ctx.Err() != nil {
			jww.DEBUG.Printf("[DISPATCH] [%s] %s failed after disposal: %s",
				d.Name, c.Method, err)
		} else {
			jww.ERROR.Printf("[DISPATCH] [%s] %s failed: %+v",
				d.Name, c.Method, err)
		}
		env = envelope.FromError(err)
	} else if c.retained {
		jww.DEBUG.Printf("[DISPATCH] [%s] %s retained callback %s",
			d.Name, c.Method, c.CallbackID)
		return
	} else if env == nil {
		env = envelope.Success(nil)
	}

	d.channel.Emit(c.CallbackID, env, false)
}

// replyDirect replies to a call that was never registered on the channel.
func (d *Dispatcher) replyDirect(
	method Method, reply envelope.ReplyFunc, env envelope.Envelope) {
	defer func() {
		if r := recover(); r != nil {
			jww.ERROR.Printf("[DISPATCH] [%s] Failed to reply to %s: %v",
				d.Name, method, r)
		}
	}()
	reply(env, false)
}

// Context returns the base context of the Dispatcher. It is cancelled on
// disposal.
func (d *Dispatcher) Context() context.Context {
	return d.ctx
}

// Initialized returns true until the Dispatcher is stopped.
func (d *Dispatcher) Initialized() bool {
	d.lifecycle.RLock()
	defer d.lifecycle.RUnlock()
	return d.initialized
}

// Stop refuses every later call and cancels the context of running calls.
// It does not wait for them.
func (d *Dispatcher) Stop() {
	d.lifecycle.Lock()
	d.initialized = false
	d.lifecycle.Unlock()
	d.cancel()
}

// Wait blocks until every running handler has replied.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Dispose stops the Dispatcher and waits for running handlers.
func (d *Dispatcher) Dispose() {
	d.Stop()
	d.Wait()
}
