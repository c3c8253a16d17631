////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package worker hosts the bridge inside a Web Worker. The main thread posts a
// Message for every call and receives a Message for every envelope replied to
// it.
package worker

import (
	"encoding/json"
	"fmt"

	"github.com/aquilax/truncate"
	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"

	"gitlab.com/elixxir/hive-wasm/callbacks"
	"gitlab.com/elixxir/hive-wasm/envelope"
)

// Methods of messages that are not bridge calls.
const (
	// ReadyMethod is sent to the main thread once the worker accepts calls.
	ReadyMethod = "Ready"

	// DisposeMethod disposes of the bridge. It is answered with an empty
	// success envelope.
	DisposeMethod = "Dispose"
)

// Message is exchanged with the main thread as JSON. Calls carry the JSON
// argument list in Data and replies carry the JSON envelope.
type Message struct {
	Method string `json:"method"`

	// ID is chosen by the main thread and connects every reply to its call.
	ID uint64 `json:"id"`

	// KeepAlive is set on replies after which more replies may follow.
	KeepAlive bool `json:"keepAlive,omitempty"`

	Data json.RawMessage `json:"data,omitempty"`
}

// Executor dispatches bridge calls.
type Executor interface {
	Dispatch(method string, args []any, reply envelope.ReplyFunc) callbacks.ID
	Dispose()
}

// Server turns messages received from the main thread into bridge calls and
// posts their envelopes back.
type Server struct {
	e    Executor
	post func(msg Message) error

	// name describes the worker. It is used for logging.
	name string

	// messageLogging determines if every message received and posted is
	// logged at DEBUG.
	messageLogging bool
}

// NewServer returns a Server that sends calls to the Executor and posts
// replies with post.
func NewServer(e Executor, name string, messageLogging bool,
	post func(msg Message) error) *Server {
	return &Server{e: e, post: post, name: name, messageLogging: messageLogging}
}

// Ready signals the main thread that the worker accepts calls.
func (s *Server) Ready() error {
	return s.send(Message{Method: ReadyMethod})
}

// Receive handles a message received from the main thread. Replies are posted
// when the call completes, which may be after Receive returns.
func (s *Server) Receive(data []byte) error {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return errors.Wrap(err, "failed to unmarshal message")
	}
	if s.messageLogging {
		jww.DEBUG.Printf("[WW] [%s] Received %s call %d: %s", s.name,
			msg.Method, msg.ID, truncate.Truncate(
				fmt.Sprintf("%s", msg.Data), 64, "...", truncate.PositionMiddle))
	}

	reply := func(env envelope.Envelope, keepAlive bool) {
		if err := s.reply(msg, env, keepAlive); err != nil {
			jww.ERROR.Printf("[WW] [%s] Failed to post reply to %s call %d: "+
				"%+v", s.name, msg.Method, msg.ID, err)
		}
	}

	if msg.Method == DisposeMethod {
		s.e.Dispose()
		reply(envelope.Success(nil), false)
		return nil
	}

	var args []any
	if len(msg.Data) > 0 {
		if err := json.Unmarshal(msg.Data, &args); err != nil {
			reply(envelope.FromError(errors.Wrapf(envelope.ErrValidation,
				"arguments are not a valid JSON list: %s", err)), false)
			return nil
		}
	}

	s.e.Dispatch(msg.Method, args, reply)
	return nil
}

// reply posts the envelope in answer to the call.
func (s *Server) reply(call Message, env envelope.Envelope, keepAlive bool) error {
	data, err := json.Marshal(env)
	if err != nil {
		return errors.Wrap(err, "failed to marshal envelope")
	}
	return s.send(Message{
		Method:    call.Method,
		ID:        call.ID,
		KeepAlive: keepAlive,
		Data:      data,
	})
}

func (s *Server) send(msg Message) error {
	if s.messageLogging {
		jww.DEBUG.Printf("[WW] [%s] Posting %s message %d: %s", s.name,
			msg.Method, msg.ID, truncate.Truncate(
				fmt.Sprintf("%s", msg.Data), 64, "...", truncate.PositionMiddle))
	}
	return s.post(msg)
}
