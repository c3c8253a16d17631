////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package plugin is the Hive vault bridge. A HivePlugin owns every native
// object handed out to Javascript and forwards each bridge call to the vault
// SDK.
package plugin

import (
	"fmt"
	"io"
	"sync"

	jww "github.com/spf13/jwalterweatherman"

	"gitlab.com/elixxir/hive-wasm/auth"
	"gitlab.com/elixxir/hive-wasm/callbacks"
	"gitlab.com/elixxir/hive-wasm/dispatch"
	"gitlab.com/elixxir/hive-wasm/envelope"
	"gitlab.com/elixxir/hive-wasm/handles"
	"gitlab.com/elixxir/hive-wasm/vault"
)

// SEMVER is the current semantic version of the bridge.
const SEMVER = "0.1.0"

// ListenerType selects the global listener registered by setListener.
type ListenerType int

const (
	// LoginListener receives authentication challenges of clients that have
	// no challenge callback of their own.
	LoginListener ListenerType = 1

	// ResultListener receives progress events of streaming reads.
	ResultListener ListenerType = 2
)

// String returns a human-readable name for the ListenerType.
func (lt ListenerType) String() string {
	switch lt {
	case LoginListener:
		return "login"
	case ResultListener:
		return "result"
	default:
		return fmt.Sprintf("ListenerType(%d)", int(lt))
	}
}

// HivePlugin is one instance of the bridge. All of its state lives for as
// long as the instance and is released by Dispose.
type HivePlugin struct {
	sdk         vault.SDK
	table       *handles.Table
	channel     *callbacks.Channel
	coordinator *auth.Coordinator
	d           *dispatch.Dispatcher

	// listeners are the global listeners registered by setListener.
	listeners map[ListenerType]callbacks.ID

	disposeOnce sync.Once
	mux         sync.Mutex

	dispatch.Params
}

// New returns a HivePlugin that forwards calls to the SDK, with the handler
// of every bridge method registered.
func New(sdk vault.SDK, p dispatch.Params) *HivePlugin {
	channel := callbacks.NewChannel(p.Name, p.MessageLogging)
	hp := &HivePlugin{
		sdk:         sdk,
		table:       handles.NewTable(),
		channel:     channel,
		coordinator: auth.NewCoordinator(channel, p.ChallengeTimeout),
		d:           dispatch.New(channel, p),
		listeners:   make(map[ListenerType]callbacks.ID),
		Params:      p,
	}

	hp.registerPluginHandlers()
	hp.registerClientHandlers()
	hp.registerDatabaseHandlers()
	hp.registerFileHandlers()
	hp.registerStreamHandlers()
	hp.registerScriptingHandlers()
	hp.registerPaymentHandlers()

	jww.INFO.Printf("[HIVE] [%s] Initialized bridge v%s", p.Name, SEMVER)

	return hp
}

// Dispatch dispatches the call to its handler. The reply receives the
// terminal envelope of the call or, for keepAlive registrations, each of its
// events. Returns the ID of the registration of the call.
func (hp *HivePlugin) Dispatch(method string, args []any,
	reply envelope.ReplyFunc) callbacks.ID {
	return hp.d.Dispatch(method, args, reply)
}

// Dispose tears down the bridge. Later calls are refused, pending
// authentication challenges resolve to an empty response, every open callback
// receives a cancelling envelope and every open stream is closed once the
// running calls have returned.
func (hp *HivePlugin) Dispose() {
	hp.disposeOnce.Do(func() {
		jww.INFO.Printf("[HIVE] [%s] Disposing of bridge", hp.Name)

		// Pending challenges are answered before the calls waiting on them
		// are cancelled
		hp.coordinator.Dispose()
		hp.d.Stop()
		hp.channel.CloseAll()
		hp.d.Wait()

		for _, object := range hp.table.Drain() {
			if c, ok := object.(io.Closer); ok {
				if err := c.Close(); err != nil {
					jww.DEBUG.Printf("[HIVE] [%s] Failed to close %T on "+
						"disposal: %+v", hp.Name, object, err)
				}
			}
		}

		jww.INFO.Printf("[HIVE] [%s] Disposed of bridge", hp.Name)
	})
}

// registerPluginHandlers registers the methods of the plugin itself.
func (hp *HivePlugin) registerPluginHandlers() {
	dispatch.Register(hp.d, dispatch.GetVersion, dispatch.Inline,
		dispatch.NoArgs,
		func(*dispatch.Call, struct{}) (envelope.Envelope, error) {
			return envelope.Value("HiveBridge-v" + SEMVER), nil
		})

	dispatch.Register(hp.d, dispatch.SetListener, dispatch.Inline,
		func(args dispatch.Args) (ListenerType, error) {
			t, err := args.Int(0, "type")
			if err != nil {
				return 0, err
			}
			lt := ListenerType(t)
			if lt != LoginListener && lt != ResultListener {
				return 0, invalidArgument(0, "type",
					"must be %d or %d, received %d",
					LoginListener, ResultListener, t)
			}
			return lt, nil
		},
		func(c *dispatch.Call, lt ListenerType) (envelope.Envelope, error) {
			hp.setListener(lt, c.CallbackID)
			c.Retain()
			return nil, nil
		})
}

// setListener replaces the global listener of the type. The previous listener
// is closed.
func (hp *HivePlugin) setListener(lt ListenerType, id callbacks.ID) {
	hp.mux.Lock()
	old, exists := hp.listeners[lt]
	hp.listeners[lt] = id
	hp.mux.Unlock()

	if exists {
		hp.channel.Close(old)
	}
	if lt == LoginListener {
		hp.coordinator.SetFallbackChannel(id)
	}

	jww.DEBUG.Printf("[HIVE] [%s] Registered %s listener %s", hp.Name, lt, id)
}

// emit sends the event to the global listener of the type, if one is
// registered.
func (hp *HivePlugin) emit(lt ListenerType, env envelope.Envelope) {
	hp.mux.Lock()
	id, exists := hp.listeners[lt]
	hp.mux.Unlock()

	if exists {
		hp.channel.Emit(id, env, true)
	}
}

// register adds the object to the handle table and returns the envelope
// carrying its ID.
func (hp *HivePlugin) register(kind handles.Kind, object any) envelope.Envelope {
	id := hp.table.Register(kind, object)
	return envelope.Success(map[string]any{envelope.ObjectIDKey: id.String()})
}
