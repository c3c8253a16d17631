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
	"syscall/js"

	"github.com/hack-pad/safejs"
	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"

	"gitlab.com/elixxir/wasm-utils/utils"
)

// MessagePort wraps a Javascript object that posts and receives messages,
// such as a MessagePort or the global scope of a worker.
//
// Doc: https://developer.mozilla.org/en-US/docs/Web/API/MessagePort
type MessagePort struct {
	safejs.Value
}

// NewMessagePort wraps the given object. It must have a postMessage method.
func NewMessagePort(v safejs.Value) (MessagePort, error) {
	method, err := v.Get("postMessage")
	if err != nil {
		return MessagePort{}, err
	}
	if method.Type() != safejs.TypeFunction {
		return MessagePort{}, errors.New("postMessage is not a function")
	}
	return MessagePort{v}, nil
}

// PostMessageTransferBytes sends the message bytes from the port and transfers
// ownership of their buffer.
func (mp MessagePort) PostMessageTransferBytes(message []byte) error {
	buffer := utils.CopyBytesToJS(message)
	_, err := mp.Call("postMessage", buffer, []any{buffer.Get("buffer")})
	return err
}

// Listen registers listeners on the port and returns the data of every message
// event received. Message errors are returned as errors. The channel is closed
// and the listeners removed once ctx is done.
func (mp MessagePort) Listen(ctx context.Context) (<-chan []byte, <-chan error, error) {
	data := make(chan []byte, receiveQueueSize)
	errs := make(chan error, 1)

	messageHandler, err := safejs.FuncOf(func(_ safejs.Value, args []safejs.Value) any {
		event := safejs.Unsafe(args[0]).Get("data")
		if !event.InstanceOf(utils.Uint8Array) {
			go sendErr(errs, errors.Errorf("cannot handle data of type %s: %s",
				event.Type(), utils.JsToJson(event)))
			return nil
		}
		message := utils.CopyBytesToGo(event)
		select {
		case data <- message:
		default:
			jww.WARN.Printf("[WW] Receive queue full, message order is lost")
			go func() { data <- message }()
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	messageErrorHandler, err := safejs.FuncOf(func(_ safejs.Value, args []safejs.Value) any {
		go sendErr(errs, js.Error{Value: safejs.Unsafe(args[0])})
		return nil
	})
	if err != nil {
		messageHandler.Release()
		return nil, nil, err
	}

	if _, err = mp.Call("addEventListener", "message", messageHandler); err != nil {
		return nil, nil, err
	}
	if _, err = mp.Call("addEventListener", "messageerror", messageErrorHandler); err != nil {
		return nil, nil, err
	}

	go func() {
		<-ctx.Done()
		if _, err := mp.Call("removeEventListener", "message", messageHandler); err == nil {
			messageHandler.Release()
		}
		if _, err := mp.Call("removeEventListener", "messageerror", messageErrorHandler); err == nil {
			messageErrorHandler.Release()
		}
	}()

	return data, errs, nil
}

// sendErr sends the error on the channel unless an earlier one is still
// waiting.
func sendErr(errs chan error, err error) {
	select {
	case errs <- err:
	default:
	}
}
