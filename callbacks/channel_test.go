////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package callbacks

import (
	"sync"
	"testing"

	"gitlab.com/elixxir/hive-wasm/envelope"
)

// recorder is a reply function that records every envelope it receives.
type recorder struct {
	envelopes  []envelope.Envelope
	keepAlives []bool
	mux        sync.Mutex
}

func (r *recorder) reply(env envelope.Envelope, keepAlive bool) {
	r.mux.Lock()
	defer r.mux.Unlock()
	r.envelopes = append(r.envelopes, env)
	r.keepAlives = append(r.keepAlives, keepAlive)
}

func (r *recorder) len() int {
	r.mux.Lock()
	defer r.mux.Unlock()
	return len(r.envelopes)
}

// Tests that a one-shot registration delivers exactly one terminal envelope,
// even when completions race.
func TestChannel_Emit_ExactlyOnce(t *testing.T) {
	c := NewChannel("test", true)
	r := &recorder{}
	id := c.Open(Command, r.reply)

	var wg sync.WaitGroup
	delivered := make(chan bool, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			delivered <- c.Emit(id, envelope.Success(nil), false)
		}()
	}
	wg.Wait()
	close(delivered)

	var n int
	for d := range delivered {
		if d {
			n++
		}
	}
	if n != 1 || r.len() != 1 {
		t.Errorf("Expected exactly one delivery, received %d (%d recorded).",
			n, r.len())
	}
	if c.Registered(id) {
		t.Errorf("Registration %s still open after terminal envelope.", id)
	}
}

// Tests that a keepAlive emit leaves the registration armed.
func TestChannel_Emit_KeepAlive(t *testing.T) {
	c := NewChannel("test", false)
	r := &recorder{}
	id := c.Open(AuthChallenge, r.reply)

	for i := 0; i < 3; i++ {
		if !c.Emit(id, envelope.Event(envelope.StatusOK, i), true) {
			t.Errorf("Failed to emit keepAlive event %d.", i)
		}
	}
	if !c.Registered(id) {
		t.Errorf("KeepAlive registration retired.")
	}

	if !c.Emit(id, envelope.Success(nil), false) {
		t.Errorf("Failed to emit terminal envelope.")
	}
	if c.Emit(id, envelope.Success(nil), true) {
		t.Errorf("Emitted on a retired registration.")
	}

	expected := []bool{true, true, true, false}
	for i, keepAlive := range r.keepAlives {
		if keepAlive != expected[i] {
			t.Errorf("Unexpected keepAlive flag %d.\nexpected: %t\nreceived: %t",
				i, expected[i], keepAlive)
		}
	}
}

// Tests that Close sends a cancelling envelope once.
func TestChannel_Close(t *testing.T) {
	c := NewChannel("test", false)
	r := &recorder{}
	id := c.Open(Result, r.reply)

	if !c.Close(id) {
		t.Errorf("Failed to close open registration.")
	}
	if c.Close(id) {
		t.Errorf("Closed registration twice.")
	}
	if r.len() != 1 || !r.envelopes[0].IsError() {
		t.Errorf("Unexpected envelopes after close: %v", r.envelopes)
	}
}

// Tests that CloseAll flushes every registration and that the Channel is
// inert afterward.
func TestChannel_CloseAll(t *testing.T) {
	c := NewChannel("test", false)
	r1, r2 := &recorder{}, &recorder{}
	id1 := c.Open(Command, r1.reply)
	c.Open(AuthChallenge, r2.reply)

	c.CloseAll()

	if r1.len() != 1 || r2.len() != 1 {
		t.Errorf("Expected one cancel envelope each, received %d and %d.",
			r1.len(), r2.len())
	}
	if c.Len() != 0 {
		t.Errorf("Registrations left after CloseAll: %d", c.Len())
	}

	if c.Emit(id1, envelope.Success(nil), false) {
		t.Errorf("Emitted after CloseAll.")
	}

	r3 := &recorder{}
	id3 := c.Open(Command, r3.reply)
	if c.Emit(id3, envelope.Success(nil), false) || r3.len() != 0 {
		t.Errorf("Emitted on a registration opened after CloseAll.")
	}
}

// Tests that a panicking reply function does not propagate.
func TestChannel_Emit_DeadTransport(t *testing.T) {
	c := NewChannel("test", false)
	id := c.Open(Command, func(envelope.Envelope, bool) {
		panic("transport gone")
	})

	if c.Emit(id, envelope.Success(nil), false) {
		t.Errorf("Delivery reported for panicking reply function.")
	}
}

// Tests that emitting on an unknown ID is a no-op.
func TestChannel_Emit_Unknown(t *testing.T) {
	c := NewChannel("test", false)
	if c.Emit("unknown", envelope.Success(nil), false) {
		t.Errorf("Emitted on unknown registration.")
	}
}
