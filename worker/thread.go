////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

//go:build js && wasm

package worker

import (
	"context"
	"encoding/json"

	"github.com/hack-pad/safejs"
	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
)

// receiveQueueSize is the number of received messages that can wait to be
// processed.
const receiveQueueSize = 100

// Serve posts the ready message to the main thread and then handles every
// message it receives until ctx is done. It must be called from the worker.
func Serve(ctx context.Context, e Executor, name string, messageLogging bool) error {
	port, err := NewMessagePort(safejs.Global())
	if err != nil {
		return errors.Wrap(err, "worker global scope cannot post messages")
	}

	data, errs, err := port.Listen(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to listen for messages")
	}

	s := NewServer(e, name, messageLogging, func(msg Message) error {
		payload, err := json.Marshal(msg)
		if err != nil {
			return err
		}
		return port.PostMessageTransferBytes(payload)
	})

	jww.INFO.Printf("[WW] [%s] Starting worker process thread.", name)
	if err = s.Ready(); err != nil {
		return errors.Wrap(err, "failed to signal ready")
	}

	for {
		select {
		case <-ctx.Done():
			jww.INFO.Printf("[WW] [%s] Quitting worker process thread.", name)
			return nil
		case message := <-data:
			if err = s.Receive(message); err != nil {
				jww.ERROR.Printf("[WW] [%s] Failed to process message "+
					"received from main thread: %+v", name, err)
			}
		case err = <-errs:
			jww.ERROR.Printf("[WW] [%s] Worker received message error: %+v",
				name, err)
		}
	}
}
