////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package dispatch

import (
	"testing"
	"time"

	"github.com/pkg/errors"

	"gitlab.com/elixxir/hive-wasm/callbacks"
	"gitlab.com/elixxir/hive-wasm/envelope"
)

// replies collects the envelopes replied to one call.
type replies chan envelope.Envelope

func newReplies() replies { return make(replies, 10) }

func (r replies) reply(env envelope.Envelope, _ bool) { r <- env }

func (r replies) wait(t *testing.T) envelope.Envelope {
	select {
	case env := <-r:
		return env
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for reply.")
	}
	return nil
}

func newTestDispatcher() *Dispatcher {
	return New(callbacks.NewChannel("test", true), DefaultParams())
}

type echoRequest struct{ text string }

func decodeEcho(args Args) (echoRequest, error) {
	text, err := args.NonEmptyString(0, "text")
	return echoRequest{text}, err
}

// Tests that a background call replies with its success envelope.
func TestDispatcher_Dispatch(t *testing.T) {
	d := newTestDispatcher()
	Register(d, "echo", Background, decodeEcho,
		func(c *Call, req echoRequest) (envelope.Envelope, error) {
			return envelope.Value(req.text), nil
		})

	r := newReplies()
	id := d.Dispatch("echo", []any{"hello"}, r.reply)
	if id == "" {
		t.Error("No callback ID returned.")
	}

	env := r.wait(t)
	if env.Status() != envelope.StatusSuccess || env.Result() != "hello" {
		t.Errorf("Unexpected envelope: %v", env)
	}
}

// Error path: tests that a validation failure is replied to before Dispatch
// returns and that the handler is never run.
func TestDispatcher_Dispatch_ValidationFailure(t *testing.T) {
	d := newTestDispatcher()
	var ran bool
	Register(d, "echo", Background, decodeEcho,
		func(c *Call, req echoRequest) (envelope.Envelope, error) {
			ran = true
			return nil, nil
		})

	r := newReplies()
	d.Dispatch("echo", []any{""}, r.reply)

	if len(r) != 1 {
		t.Fatalf("Validation failure not replied synchronously.")
	}
	env := <-r
	if code, ok := env.Code(); !ok || code != envelope.ValidationError {
		t.Errorf("Unexpected code.\nexpected: %s\nreceived: %v",
			envelope.ValidationError, env)
	}
	d.Wait()
	if ran {
		t.Error("Handler ran after validation failure.")
	}
}

// Error path: tests that an unknown method is replied to synchronously.
func TestDispatcher_Dispatch_UnknownMethod(t *testing.T) {
	d := newTestDispatcher()
	r := newReplies()
	if id := d.Dispatch("nope", nil, r.reply); id != "" {
		t.Errorf("Unexpected callback ID %q", id)
	}

	if len(r) != 1 {
		t.Fatalf("Unknown method not replied synchronously.")
	}
	if code, _ := (<-r).Code(); code != envelope.UnknownMethod {
		t.Errorf("Unexpected code.\nexpected: %s\nreceived: %s",
			envelope.UnknownMethod, code)
	}
}

// Tests that a handler error is classified into the error envelope.
func TestDispatcher_Dispatch_HandlerError(t *testing.T) {
	d := newTestDispatcher()
	Register(d, "fail", Inline, NoArgs,
		func(c *Call, _ struct{}) (envelope.Envelope, error) {
			return nil, errors.New("collection not exist")
		})

	r := newReplies()
	d.Dispatch("fail", nil, r.reply)
	env := r.wait(t)
	if code, _ := env.Code(); code != envelope.CollectionNotFound {
		t.Errorf("Unexpected code.\nexpected: %s\nreceived: %s",
			envelope.CollectionNotFound, code)
	}
}

// Tests that a panicking handler is reported as an opaque error.
func TestDispatcher_Dispatch_Panic(t *testing.T) {
	d := newTestDispatcher()
	Register(d, "panic", Background, NoArgs,
		func(c *Call, _ struct{}) (envelope.Envelope, error) {
			panic("boom")
		})

	r := newReplies()
	d.Dispatch("panic", nil, r.reply)
	env := r.wait(t)
	if !env.IsError() {
		t.Errorf("Expected error envelope, received %v", env)
	}
	if _, ok := env.Code(); ok {
		t.Errorf("Panic reported with a code: %v", env)
	}
}

// Tests that a retained call sends no terminal reply and that its
// registration stays armed.
func TestDispatcher_Dispatch_Retain(t *testing.T) {
	ch := callbacks.NewChannel("test", false)
	d := New(ch, DefaultParams())
	Register(d, "listen", Inline, NoArgs,
		func(c *Call, _ struct{}) (envelope.Envelope, error) {
			c.Retain()
			return nil, nil
		})

	r := newReplies()
	id := d.Dispatch("listen", nil, r.reply)
	if len(r) != 0 {
		t.Errorf("Retained call replied: %v", <-r)
	}
	if !ch.Registered(id) {
		t.Fatal("Retained registration is not armed.")
	}

	ch.Emit(id, envelope.Event(envelope.StatusOK, "one"), true)
	ch.Emit(id, envelope.Event(envelope.StatusOK, "two"), true)
	if len(r) != 2 {
		t.Errorf("Expected 2 events, received %d", len(r))
	}
}

// Tests that calls running on different goroutines do not wait on each other.
func TestDispatcher_Dispatch_Concurrent(t *testing.T) {
	d := newTestDispatcher()
	release := make(chan struct{})
	Register(d, "block", Background, NoArgs,
		func(c *Call, _ struct{}) (envelope.Envelope, error) {
			<-release
			return nil, nil
		})
	Register(d, "fast", Background, NoArgs,
		func(c *Call, _ struct{}) (envelope.Envelope, error) {
			return nil, nil
		})

	blocked, fast := newReplies(), newReplies()
	d.Dispatch("block", nil, blocked.reply)
	d.Dispatch("fast", nil, fast.reply)
	fast.wait(t)

	close(release)
	blocked.wait(t)
}

// Tests that disposal cancels running calls, waits for them and refuses
// later calls.
func TestDispatcher_Dispose(t *testing.T) {
	d := newTestDispatcher()
	started := make(chan struct{})
	Register(d, "wait", Background, NoArgs,
		func(c *Call, _ struct{}) (envelope.Envelope, error) {
			close(started)
			<-c.Context.Done()
			return nil, c.Context.Err()
		})

	r := newReplies()
	d.Dispatch("wait", nil, r.reply)
	<-started

	d.Dispose()

	if env := r.wait(t); !env.IsError() {
		t.Errorf("Expected error envelope, received %v", env)
	}
	if d.Initialized() {
		t.Error("Dispatcher initialized after disposal.")
	}

	after := newReplies()
	d.Dispatch("wait", nil, after.reply)
	if len(after) != 1 {
		t.Fatal("Call after disposal not replied synchronously.")
	}
	if env := <-after; env.Message() != ErrNotInitialized.Error() {
		t.Errorf("Unexpected message.\nexpected: %s\nreceived: %s",
			ErrNotInitialized, env.Message())
	}
}

// Tests that registering a method twice panics.
func TestRegister_Duplicate(t *testing.T) {
	d := newTestDispatcher()
	run := func(c *Call, _ struct{}) (envelope.Envelope, error) { return nil, nil }
	Register(d, "dup", Inline, NoArgs, run)

	defer func() {
		if r := recover(); r == nil {
			t.Error("Duplicate registration did not panic.")
		}
	}()
	Register(d, "dup", Inline, NoArgs, run)
}
