////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

//go:build js && wasm

package wasm

import (
	"encoding/json"
	"syscall/js"

	"github.com/hack-pad/safejs"
	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
	"gitlab.com/elixxir/wasm-utils/exception"
	"gitlab.com/elixxir/wasm-utils/utils"

	"gitlab.com/elixxir/hive-wasm/dispatch"
	"gitlab.com/elixxir/hive-wasm/envelope"
	"gitlab.com/elixxir/hive-wasm/memvault"
	"gitlab.com/elixxir/hive-wasm/plugin"
	"gitlab.com/elixxir/hive-wasm/vault"
)

// jsonObj is the Javascript JSON object. Envelopes are handed to Javascript
// as parsed objects.
var jsonObj = js.Global().Get("JSON")

// HivePlugin wraps the [plugin.HivePlugin] so its methods can be wrapped to be
// Javascript compatible.
type HivePlugin struct {
	api *plugin.HivePlugin
}

// newHivePluginJS creates a new Javascript compatible object (map[string]any)
// that matches the [HivePlugin] structure.
func newHivePluginJS(api *plugin.HivePlugin) map[string]any {
	hp := HivePlugin{api}
	hivePlugin := map[string]any{
		"Exec":    js.FuncOf(hp.Exec),
		"Listen":  js.FuncOf(hp.Listen),
		"Dispose": js.FuncOf(hp.Dispose),
	}

	return hivePlugin
}

// NewHivePlugin creates a new bridge over the in-memory vault SDK.
//
// Parameters:
//   - args[0] - Optional. JSON of [dispatch.Params] (Uint8Array). Missing
//     fields keep their default value.
//
// Returns:
//   - Javascript representation of the [HivePlugin] object.
//   - Throws an error if the parameters are invalid.
func NewHivePlugin(_ js.Value, args []js.Value) any {
	var paramsJSON []byte
	if len(args) > 0 && !args[0].IsUndefined() && !args[0].IsNull() {
		paramsJSON = utils.CopyBytesToGo(args[0])
	}

	p, err := dispatch.ParamsFromJSON(paramsJSON)
	if err != nil {
		exception.ThrowTrace(err)
		return nil
	}

	return newHivePluginJS(plugin.New(newSDK(), p))
}

// newSDK returns the vault SDK used by the bridge.
func newSDK() vault.SDK {
	return memvault.NewSDK(memvault.DefaultOptions())
}

// Exec dispatches a bridge call and returns a promise for its terminal
// envelope. Calls that register keepAlive channels must use
// [HivePlugin.Listen] and are rejected with a validation error.
//
// Parameters:
//   - args[0] - Method name (string).
//   - args[1] - JSON of the argument list (Uint8Array).
//
// Returns a promise:
//   - Resolves to the success envelope (object).
//   - Rejected with the error envelope (object).
func (hp *HivePlugin) Exec(_ js.Value, args []js.Value) any {
	method := args[0].String()
	callArgs, err := decodeArgs(args[1])
	if err == nil {
		err = checkExec(method)
	}

	promiseFn := func(resolve, reject func(args ...any) js.Value) {
		if err != nil {
			reject(toJS(envelope.FromError(err)))
			return
		}

		replies := make(chan envelope.Envelope, 1)
		hp.api.Dispatch(method, callArgs,
			func(env envelope.Envelope, keepAlive bool) {
				if keepAlive {
					jww.WARN.Printf("[HIVE] Dropping keepAlive envelope of "+
						"%s sent to Exec", method)
					return
				}
				replies <- env
			})

		env := <-replies
		if env.IsError() {
			reject(toJS(env))
		} else {
			resolve(toJS(env))
		}
	}

	return utils.CreatePromise(promiseFn)
}

// Listen dispatches a bridge call that registers a keepAlive channel, such as
// setListener or client_setAuthHandlerChallengeCallback. Every envelope sent
// on the channel is passed to the callback.
//
// Parameters:
//   - args[0] - Method name (string).
//   - args[1] - JSON of the argument list (Uint8Array).
//   - args[2] - Callback called with each envelope ((envelope: object) =>
//     void).
//
// Returns:
//   - ID of the callback registration (string).
//   - Throws an error if the arguments are not valid JSON.
func (hp *HivePlugin) Listen(_ js.Value, args []js.Value) any {
	method := args[0].String()
	callArgs, err := decodeArgs(args[1])
	if err != nil {
		exception.ThrowTrace(err)
		return nil
	}
	cb := safejs.Safe(args[2])

	id := hp.api.Dispatch(method, callArgs,
		func(env envelope.Envelope, _ bool) {
			if _, err := cb.Invoke(toJS(env)); err != nil {
				jww.ERROR.Printf("[HIVE] Failed to deliver envelope of %s to "+
					"Javascript: %+v", method, err)
			}
		})

	return string(id)
}

// Dispose disposes of the bridge. Every pending call is rejected.
func (hp *HivePlugin) Dispose(js.Value, []js.Value) any {
	hp.api.Dispose()
	return nil
}

// decodeArgs decodes the JSON argument list. Missing arguments result in an
// empty list.
func decodeArgs(v js.Value) ([]any, error) {
	if v.IsUndefined() || v.IsNull() {
		return nil, nil
	}

	var args []any
	if err := json.Unmarshal(utils.CopyBytesToGo(v), &args); err != nil {
		return nil, errors.Wrapf(envelope.ErrValidation,
			"arguments are not a valid JSON list: %s", err)
	}
	return args, nil
}

// toJS returns the envelope as a Javascript object.
func toJS(env envelope.Envelope) js.Value {
	data, err := json.Marshal(env)
	if err != nil {
		jww.ERROR.Printf("[HIVE] Failed to marshal envelope: %+v", err)
		data, _ = json.Marshal(envelope.Error(err.Error()))
	}
	return jsonObj.Call("parse", string(data))
}
