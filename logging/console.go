////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

//go:build js && wasm

package logging

import (
	"fmt"
	"io"
	"log"
	"syscall/js"

	jww "github.com/spf13/jwalterweatherman"
)

// consoleMethods are the methods of the Javascript console used for each log
// level.
//
// Doc: https://developer.mozilla.org/en-US/docs/Web/API/console
var consoleMethods = map[jww.Threshold]string{
	jww.LevelTrace:    "debug",
	jww.LevelDebug:    "log",
	jww.LevelInfo:     "info",
	jww.LevelWarn:     "warn",
	jww.LevelError:    "error",
	jww.LevelCritical: "error",
	jww.LevelFatal:    "error",
}

// console writes to the Javascript console with a single console method.
type console struct {
	method string
	obj    js.Value
}

// Write writes the data to the Javascript console. Returns the number of bytes
// written.
func (c *console) Write(p []byte) (int, error) {
	c.obj.Call(c.method, string(p))
	return len(p), nil
}

// consoleListener redirects log output to the Javascript console.
type consoleListener struct {
	threshold jww.Threshold
	writers   map[jww.Threshold]*console
}

func newConsoleListener(threshold jww.Threshold) *consoleListener {
	obj := js.Global().Get("console")
	cl := &consoleListener{
		threshold: threshold,
		writers:   make(map[jww.Threshold]*console, len(consoleMethods)),
	}
	for t, method := range consoleMethods {
		cl.writers[t] = &console{method, obj}
	}
	return cl
}

// Listen adheres to the [jwalterweatherman.LogListener] type.
func (cl *consoleListener) Listen(t jww.Threshold) io.Writer {
	if t < cl.threshold {
		return nil
	}
	if w, exists := cl.writers[t]; exists {
		return w
	}
	return cl.writers[jww.LevelDebug]
}

// consoleID is the listener ID of the registered console listener.
var consoleID *uint64

// EnableConsole sets the level of logging and prints every log at the level
// and above to the Javascript console instead of stdout. Calling it again
// replaces the previous console listener.
func EnableConsole(threshold jww.Threshold) error {
	if err := validThreshold(threshold); err != nil {
		return err
	}

	jww.SetLogThreshold(threshold)
	jww.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if consoleID != nil {
		RemoveLogListener(*consoleID)
	}
	id := AddLogListener(newConsoleListener(threshold).Listen)
	consoleID = &id
	jww.SetStdoutThreshold(jww.LevelFatal + 1)

	printAt(threshold, fmt.Sprintf("Log level set to: %s", threshold))
	return nil
}
