////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package main

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"

	"gitlab.com/elixxir/hive-wasm/dispatch"
	"gitlab.com/elixxir/hive-wasm/envelope"
	"gitlab.com/elixxir/hive-wasm/plugin"
)

// referencePrefix starts a string argument that refers to an earlier result.
const referencePrefix = "$"

// command is a single line of a replay script.
type command struct {
	Method string `json:"method"`
	Args   []any  `json:"args"`

	// As is the name the result of the command is stored under. Later
	// commands refer to its fields with "$name.field".
	As string `json:"as,omitempty"`
}

// output is a line printed for every envelope received.
type output struct {
	Line      int               `json:"line"`
	Method    string            `json:"method"`
	KeepAlive bool              `json:"keepAlive,omitempty"`
	Envelope  envelope.Envelope `json:"envelope"`
}

// runner replays commands through a bridge.
type runner struct {
	hp *plugin.HivePlugin

	// challengeResponse is sent in answer to every authentication challenge.
	// Challenges are left unanswered when it is empty.
	challengeResponse string

	// timeout is the longest the runner waits for the reply to a command.
	timeout time.Duration

	results map[string]envelope.Envelope

	out    *json.Encoder
	outMux sync.Mutex
}

func newRunner(hp *plugin.HivePlugin, out io.Writer,
	challengeResponse string, timeout time.Duration) *runner {
	return &runner{
		hp:                hp,
		challengeResponse: challengeResponse,
		timeout:           timeout,
		results:           make(map[string]envelope.Envelope),
		out:               json.NewEncoder(out),
	}
}

// run replays every command of the script. Blank lines and lines starting
// with # are skipped. It stops at the first command that cannot be parsed or
// that receives no reply in time; error envelopes do not stop it.
func (r *runner) run(ctx context.Context, script io.Reader) error {
	scanner := bufio.NewScanner(script)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for line := 1; scanner.Scan(); line++ {
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		var cmd command
		if err := json.Unmarshal([]byte(text), &cmd); err != nil {
			return errors.Wrapf(err, "failed to parse line %d", line)
		} else if cmd.Method == "" {
			return errors.Errorf("line %d has no method", line)
		}

		if err := r.exec(ctx, line, cmd); err != nil {
			return errors.WithMessagef(err, "line %d (%s)", line, cmd.Method)
		}
	}
	return errors.Wrap(scanner.Err(), "failed to read script")
}

// exec dispatches the command and waits for its terminal envelope.
func (r *runner) exec(ctx context.Context, line int, cmd command) error {
	args, err := r.substitute(cmd.Args)
	if err != nil {
		return err
	}
	jww.DEBUG.Printf("[REPLAY] Line %d: %s %v", line, cmd.Method, args)

	replies := make(chan envelope.Envelope, 1)
	r.hp.Dispatch(cmd.Method, args, func(env envelope.Envelope, keepAlive bool) {
		env, err := env.Normalize()
		if err != nil {
			jww.ERROR.Printf("[REPLAY] Failed to normalize envelope: %+v", err)
			return
		}
		r.print(output{line, cmd.Method, keepAlive, env})
		if keepAlive {
			r.answer(env)
			return
		}
		replies <- env
	})

	// Listener registrations are not waited on
	if dispatch.KeepsAlive(cmd.Method) {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	select {
	case env := <-replies:
		if cmd.As != "" {
			r.results[cmd.As] = env
		}
		return nil
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "no reply")
	}
}

// answer sends the configured response to an authentication challenge.
func (r *runner) answer(event envelope.Envelope) {
	if event.Status() != envelope.StatusOK || r.challengeResponse == "" {
		return
	}
	clientID, ok := event[envelope.ObjectIDKey].(string)
	if !ok {
		return
	}

	go r.hp.Dispatch(dispatch.ClientSendAuthHandlerChallengeResponse,
		[]any{clientID, r.challengeResponse},
		func(env envelope.Envelope, _ bool) {
			if env.IsError() {
				jww.ERROR.Printf("[REPLAY] Failed to answer challenge of "+
					"client %s: %s", clientID, env.Message())
			}
		})
}

func (r *runner) print(o output) {
	r.outMux.Lock()
	defer r.outMux.Unlock()
	if err := r.out.Encode(o); err != nil {
		jww.ERROR.Printf("[REPLAY] Failed to print envelope: %+v", err)
	}
}

// substitute replaces every reference to an earlier result in the arguments.
func (r *runner) substitute(args []any) ([]any, error) {
	out := make([]any, len(args))
	for i, arg := range args {
		v, err := r.resolve(arg)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// resolve returns the value with its references replaced. "$name" is the
// result of the command stored under name and "$name.field" is one field of
// it.
func (r *runner) resolve(v any) (any, error) {
	switch v := v.(type) {
	case string:
		if !strings.HasPrefix(v, referencePrefix) {
			return v, nil
		}
		name, field, hasField := strings.Cut(
			strings.TrimPrefix(v, referencePrefix), ".")
		env, exists := r.results[name]
		if !exists {
			return nil, errors.Errorf("no result stored as %q", name)
		} else if !hasField {
			return env.Result(), nil
		}
		value, exists := env[field]
		if !exists {
			return nil, errors.Errorf("result %q has no field %q", name, field)
		}
		return value, nil
	case []any:
		return r.substitute(v)
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, value := range v {
			resolved, err := r.resolve(value)
			if err != nil {
				return nil, err
			}
			out[key] = resolved
		}
		return out, nil
	default:
		return v, nil
	}
}
