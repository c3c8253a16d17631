////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package client is the typed Go façade of the Hive vault bridge. Every method
// serialises its arguments into one bridge call, waits for its terminal
// envelope and rebuilds the typed result from it.
package client

import (
	"context"
	"fmt"
	"sync"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"

	"gitlab.com/elixxir/hive-wasm/callbacks"
	"gitlab.com/elixxir/hive-wasm/envelope"
	"gitlab.com/elixxir/hive-wasm/vault"
)

// Executor dispatches bridge calls. It is implemented by the native plugin
// and by the Javascript bindings.
type Executor interface {
	Dispatch(method string, args []any, reply envelope.ReplyFunc) callbacks.ID
}

// Error is an error envelope returned by the bridge.
type Error struct {
	// Code is the classified code of the error. It is only meaningful when
	// HasCode is set.
	Code envelope.ErrorCode

	Message string

	// HasCode is unset for opaque errors that carry only a message.
	HasCode bool
}

// errorFromEnvelope returns the Error described by the error envelope.
func errorFromEnvelope(env envelope.Envelope) *Error {
	code, hasCode := env.Code()
	return &Error{Code: code, Message: env.Message(), HasCode: hasCode}
}

func (e *Error) Error() string {
	if !e.HasCode {
		return e.Message
	}
	return fmt.Sprintf("%s (%d): %s", e.Code, int(e.Code), e.Message)
}

// Type returns the code of the error. Opaque errors are Unspecified.
func (e *Error) Type() envelope.ErrorCode {
	if !e.HasCode {
		return envelope.Unspecified
	}
	return e.Code
}

// codeErrors are the typed errors matched by each code.
var codeErrors = map[envelope.ErrorCode]error{
	envelope.ValidationError:         envelope.ErrValidation,
	envelope.HandleNotFound:          envelope.ErrHandleNotFound,
	envelope.UnknownMethod:           envelope.ErrUnknownMethod,
	envelope.ChallengeAlreadyPending: envelope.ErrChallengeAlreadyPending,
	envelope.ChallengeTimedOut:       envelope.ErrChallengeTimedOut,
	envelope.ChallengeNotPending:     envelope.ErrChallengeNotPending,
	envelope.VaultNotFound:           vault.ErrVaultNotFound,
	envelope.ProviderNotPublished:    vault.ErrProviderNotPublished,
	envelope.DidNotPublished:         vault.ErrDidNotPublished,
	envelope.CollectionNotFound:      vault.ErrCollectionNotFound,
	envelope.FileNotFound:            vault.ErrFileNotFound,
}

// Is allows errors.Is to match the Error against the typed error of its code.
func (e *Error) Is(target error) bool {
	if !e.HasCode {
		return false
	}
	err, exists := codeErrors[e.Code]
	return exists && err == target
}

// Bridge sends calls to an Executor and waits for their replies.
type Bridge struct {
	e Executor
}

// NewBridge returns a Bridge over the Executor.
func NewBridge(e Executor) *Bridge {
	return &Bridge{e: e}
}

// call dispatches the call and waits for its terminal envelope. An error
// envelope is returned as an *Error.
func (b *Bridge) call(
	ctx context.Context, method string, args ...any) (envelope.Envelope, error) {
	replies := make(chan envelope.Envelope, 1)
	b.e.Dispatch(method, wireArgs(args), func(env envelope.Envelope, keepAlive bool) {
		if keepAlive {
			jww.WARN.Printf("[CLIENT] Ignoring keepAlive reply to %s", method)
			return
		}
		select {
		case replies <- env:
		default:
			jww.ERROR.Printf("[CLIENT] Dropping second terminal reply to %s",
				method)
		}
	})

	select {
	case env := <-replies:
		if env.IsError() {
			return nil, errorFromEnvelope(env)
		}
		return env, nil
	case <-ctx.Done():
		return nil, errors.Wrapf(ctx.Err(), "no reply to %s", method)
	}
}

// wireArgs replaces nil documents with null arguments, which is how optional
// objects are omitted on the wire.
func wireArgs(args []any) []any {
	for i, arg := range args {
		if doc, ok := arg.(map[string]any); ok && doc == nil {
			args[i] = nil
		}
	}
	return args
}

// callDecode dispatches the call and decodes the result of its envelope into
// v.
func (b *Bridge) callDecode(
	ctx context.Context, v any, method string, args ...any) error {
	env, err := b.call(ctx, method, args...)
	if err != nil {
		return err
	}
	return env.Decode(v)
}

// listenerBuffer is the number of events a listener holds for its reader.
const listenerBuffer = 16

// listener receives the envelopes of a keepAlive registration until its
// terminal envelope or the end of its context. Events received while the
// buffer is full are dropped so the bridge is never blocked by a slow reader.
type listener struct {
	events chan envelope.Envelope

	// err is the terminal error of the registration, if any.
	err    error
	closed bool
	mux    sync.Mutex
}

func (l *listener) reply(env envelope.Envelope, keepAlive bool) {
	l.mux.Lock()
	defer l.mux.Unlock()
	if l.closed {
		return
	}

	if !keepAlive {
		if env.IsError() {
			l.err = errorFromEnvelope(env)
		}
		l.closeLocked()
		return
	}

	select {
	case l.events <- env:
	default:
		jww.WARN.Printf("[CLIENT] Dropping %s event: listener buffer of %d "+
			"events is full", env.Status(), cap(l.events))
	}
}

// close ends the listener. Envelopes received afterward are dropped.
func (l *listener) close() {
	l.mux.Lock()
	defer l.mux.Unlock()
	l.closeLocked()
}

func (l *listener) closeLocked() {
	if !l.closed {
		l.closed = true
		close(l.events)
	}
}

func (l *listener) error() error {
	l.mux.Lock()
	defer l.mux.Unlock()
	return l.err
}

// listen dispatches a call that registers a keepAlive channel and returns its
// events. The channel is closed when the registration ends. A registration
// refused synchronously returns its error. The channel is also closed when
// ctx is done.
func (b *Bridge) listen(ctx context.Context, method string,
	args ...any) (<-chan envelope.Envelope, error) {
	l := &listener{events: make(chan envelope.Envelope, listenerBuffer)}
	b.e.Dispatch(method, wireArgs(args), l.reply)
	if err := l.error(); err != nil {
		return nil, err
	}
	context.AfterFunc(ctx, l.close)
	return l.events, nil
}
