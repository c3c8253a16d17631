////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

//go:build js && wasm

package wasm

import (
	"syscall/js"
	"testing"

	jww "github.com/spf13/jwalterweatherman"
)

// Tests that LogToFile returns a log file object and that GetLogFile returns
// the same file afterwards.
func TestLogToFile(t *testing.T) {
	lfJS, ok := LogToFile(js.Undefined(), []js.Value{
		js.ValueOf(int(jww.LevelInfo)), js.ValueOf("hive.log"),
		js.ValueOf(1024)}).(map[string]any)
	if !ok {
		t.Fatalf("LogToFile did not return a log file object.")
	}
	defer lfJS["Stop"].(js.Func).Invoke()

	name := lfJS["Name"].(js.Func).Invoke().String()
	if name != "hive.log" {
		t.Errorf("Unexpected name.\nexpected: %s\nreceived: %s",
			"hive.log", name)
	}

	current, ok := GetLogFile(js.Undefined(), nil).(map[string]any)
	if !ok {
		t.Fatalf("GetLogFile did not return the enabled log file.")
	}
	if maxSize := current["MaxSize"].(js.Func).Invoke().Int(); maxSize != 1024 {
		t.Errorf("Unexpected max size.\nexpected: %d\nreceived: %d",
			1024, maxSize)
	}
}

// Tests that LogLevel accepts a valid level.
func TestLogLevel(t *testing.T) {
	if v := LogLevel(js.Undefined(),
		[]js.Value{js.ValueOf(int(jww.LevelWarn))}); v != nil {
		t.Errorf("Unexpected return value: %v", v)
	}
}
