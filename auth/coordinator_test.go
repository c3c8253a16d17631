////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package auth

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"

	"gitlab.com/elixxir/hive-wasm/callbacks"
	"gitlab.com/elixxir/hive-wasm/envelope"
	"gitlab.com/elixxir/hive-wasm/handles"
)

// newTestCoordinator returns a Coordinator with a challenge listener
// registered for the client. Every challenge event is sent on the returned
// channel.
func newTestCoordinator(client handles.ID, timeout time.Duration) (
	*Coordinator, <-chan envelope.Envelope) {
	ch := callbacks.NewChannel("test", true)
	c := NewCoordinator(ch, timeout)
	events := make(chan envelope.Envelope, 10)
	id := ch.Open(callbacks.AuthChallenge,
		func(env envelope.Envelope, keepAlive bool) { events <- env })
	c.SetChallengeChannel(client, id)
	return c, events
}

type challengeResult struct {
	response string
	err      error
}

func challenge(c *Coordinator, client handles.ID, jwt string) <-chan challengeResult {
	results := make(chan challengeResult, 1)
	go func() {
		response, err := c.Challenge(context.Background(), client, jwt)
		results <- challengeResult{response, err}
	}()
	return results
}

func waitEvent(t *testing.T, events <-chan envelope.Envelope) envelope.Envelope {
	select {
	case env := <-events:
		return env
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for challenge event.")
	}
	return nil
}

// Tests that the response sent for a challenge is the one returned to the
// caller.
func TestCoordinator_Challenge_RoundTrip(t *testing.T) {
	c, events := newTestCoordinator(7, time.Minute)
	results := challenge(c, 7, "abc")

	env := waitEvent(t, events)
	if env.Status() != envelope.StatusOK {
		t.Errorf("Unexpected status.\nexpected: %s\nreceived: %s",
			envelope.StatusOK, env.Status())
	}
	if env[envelope.PayloadKey] != "abc" {
		t.Errorf("Unexpected payload.\nexpected: %s\nreceived: %v",
			"abc", env[envelope.PayloadKey])
	}
	if env[envelope.ObjectIDKey] != "7" {
		t.Errorf("Unexpected object ID.\nexpected: %s\nreceived: %v",
			"7", env[envelope.ObjectIDKey])
	}
	if !c.Pending(7) {
		t.Error("Challenge not pending after it was sent.")
	}

	if err := c.Respond(7, "xyz"); err != nil {
		t.Fatalf("Failed to respond: %+v", err)
	}

	select {
	case r := <-results:
		if r.err != nil {
			t.Errorf("Challenge failed: %+v", r.err)
		}
		if r.response != "xyz" {
			t.Errorf("Unexpected response.\nexpected: %s\nreceived: %s",
				"xyz", r.response)
		}
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for challenge to resolve.")
	}

	if c.Pending(7) {
		t.Error("Challenge still pending after response.")
	}
}

// Tests that disposing of the Coordinator resolves a pending challenge with
// the empty string.
func TestCoordinator_Dispose(t *testing.T) {
	c, events := newTestCoordinator(3, 0)
	results := challenge(c, 3, "abc")
	waitEvent(t, events)

	c.Dispose()

	select {
	case r := <-results:
		if r.err != nil || r.response != "" {
			t.Errorf("Unexpected result after dispose.\nexpected: %q, %v"+
				"\nreceived: %q, %v", "", nil, r.response, r.err)
		}
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for challenge to resolve.")
	}

	response, err := c.Challenge(context.Background(), 3, "def")
	if err != nil || response != "" {
		t.Errorf("Unexpected result of challenge after dispose: %q, %+v",
			response, err)
	}
}

// Error path: tests that a second challenge for a client while one is pending
// is rejected.
func TestCoordinator_Challenge_AlreadyPending(t *testing.T) {
	c, events := newTestCoordinator(1, time.Minute)
	results := challenge(c, 1, "abc")
	waitEvent(t, events)

	_, err := c.Challenge(context.Background(), 1, "def")
	if !errors.Is(err, envelope.ErrChallengeAlreadyPending) {
		t.Errorf("Unexpected error.\nexpected: %v\nreceived: %+v",
			envelope.ErrChallengeAlreadyPending, err)
	}

	if err = c.Respond(1, "xyz"); err != nil {
		t.Fatalf("Failed to respond: %+v", err)
	}
	if r := <-results; r.response != "xyz" {
		t.Errorf("First challenge received wrong response: %q", r.response)
	}
}

// Error path: tests that a challenge without a response times out.
func TestCoordinator_Challenge_Timeout(t *testing.T) {
	c, _ := newTestCoordinator(1, 20*time.Millisecond)

	_, err := c.Challenge(context.Background(), 1, "abc")
	if !errors.Is(err, envelope.ErrChallengeTimedOut) {
		t.Errorf("Unexpected error.\nexpected: %v\nreceived: %+v",
			envelope.ErrChallengeTimedOut, err)
	}
	if c.Pending(1) {
		t.Error("Challenge still pending after timeout.")
	}
}

// Error path: tests that a cancelled context abandons the challenge.
func TestCoordinator_Challenge_ContextCancelled(t *testing.T) {
	c, events := newTestCoordinator(1, 0)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-events
		cancel()
	}()

	_, err := c.Challenge(ctx, 1, "abc")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Unexpected error.\nexpected: %v\nreceived: %+v",
			context.Canceled, err)
	}
}

// Error path: tests that responding without a pending challenge fails.
func TestCoordinator_Respond_NotPending(t *testing.T) {
	c, _ := newTestCoordinator(1, 0)
	err := c.Respond(1, "xyz")
	if !errors.Is(err, envelope.ErrChallengeNotPending) {
		t.Errorf("Unexpected error.\nexpected: %v\nreceived: %+v",
			envelope.ErrChallengeNotPending, err)
	}
}

// Error path: tests that an empty challenge is refused without being sent.
func TestCoordinator_Challenge_Empty(t *testing.T) {
	c, events := newTestCoordinator(1, 0)
	_, err := c.Challenge(context.Background(), 1, "")
	if !errors.Is(err, ErrEmptyChallenge) {
		t.Errorf("Unexpected error.\nexpected: %v\nreceived: %+v",
			ErrEmptyChallenge, err)
	}
	if len(events) != 0 {
		t.Errorf("Empty challenge was sent to the listener.")
	}
}

// Tests that a client without its own listener uses the fallback and that a
// client with neither fails.
func TestCoordinator_Challenge_Fallback(t *testing.T) {
	ch := callbacks.NewChannel("test", false)
	c := NewCoordinator(ch, time.Minute)

	_, err := c.Challenge(context.Background(), 2, "abc")
	if !errors.Is(err, ErrNoChallengeChannel) {
		t.Errorf("Unexpected error.\nexpected: %v\nreceived: %+v",
			ErrNoChallengeChannel, err)
	}

	events := make(chan envelope.Envelope, 1)
	c.SetFallbackChannel(ch.Open(callbacks.Login,
		func(env envelope.Envelope, keepAlive bool) { events <- env }))

	auth := c.Authenticator(func() handles.ID { return 2 })
	results := make(chan string, 1)
	go func() {
		response, _ := auth.GetAuthorization(context.Background(), "abc")
		results <- response
	}()

	env := waitEvent(t, events)
	if env[envelope.ObjectIDKey] != "2" {
		t.Errorf("Unexpected object ID.\nexpected: %s\nreceived: %v",
			"2", env[envelope.ObjectIDKey])
	}
	if err = c.Respond(2, "xyz"); err != nil {
		t.Fatalf("Failed to respond: %+v", err)
	}
	if response := <-results; response != "xyz" {
		t.Errorf("Unexpected response.\nexpected: %s\nreceived: %s",
			"xyz", response)
	}
}

// Tests that a challenge disposed of before its context is cancelled returns
// the empty response instead of the context error.
func TestCoordinator_Dispose_BeforeCancel(t *testing.T) {
	c, events := newTestCoordinator(1, 0)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	results := make(chan challengeResult, 1)
	go func() {
		response, err := c.Challenge(ctx, 1, "jwt")
		results <- challengeResult{response, err}
	}()
	waitEvent(t, events)

	c.Dispose()
	cancel()

	select {
	case r := <-results:
		if r.err != nil || r.response != "" {
			t.Errorf("Unexpected result after disposal."+
				"\nexpected: %q, <nil>\nreceived: %q, %+v", "", r.response, r.err)
		}
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for challenge result.")
	}
}
