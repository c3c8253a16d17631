////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package logging configures jwalterweatherman for the bridge: the log level,
// additional log listeners and an in-memory log file.
package logging

import (
	"sync"

	jww "github.com/spf13/jwalterweatherman"
)

// listeners is the set of every log listener registered with
// jwalterweatherman. jwalterweatherman only accepts the full list, so the
// list is rebuilt on every change.
var listeners = newListenerList()

type listenerList struct {
	listeners map[uint64]jww.LogListener
	nextID    uint64
	mux       sync.Mutex
}

func newListenerList() *listenerList {
	return &listenerList{listeners: make(map[uint64]jww.LogListener)}
}

// AddLogListener registers the log listener with jwalterweatherman. Returns an
// ID that can be used to remove the listener.
func AddLogListener(ll jww.LogListener) uint64 {
	listeners.mux.Lock()
	defer listeners.mux.Unlock()

	id := listeners.nextID
	listeners.nextID++
	listeners.listeners[id] = ll
	listeners.apply()
	return id
}

// RemoveLogListener unregisters the log listener with the ID. Unknown IDs are
// ignored.
func RemoveLogListener(id uint64) {
	listeners.mux.Lock()
	defer listeners.mux.Unlock()

	if _, exists := listeners.listeners[id]; !exists {
		return
	}
	delete(listeners.listeners, id)
	listeners.apply()
}

// apply sets the listeners on jwalterweatherman. Must be called while holding
// the lock.
func (ll *listenerList) apply() {
	list := make([]jww.LogListener, 0, len(ll.listeners))
	for _, l := range ll.listeners {
		list = append(list, l)
	}
	jww.SetLogListeners(list...)
}
