////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package logging

import (
	"bytes"
	"io"
	"strings"
	"testing"

	jww "github.com/spf13/jwalterweatherman"
)

// Tests that a listener added with AddLogListener receives logs until it is
// removed.
func TestAddLogListener_RemoveLogListener(t *testing.T) {
	jww.SetLogThreshold(jww.LevelWarn)
	var buf bytes.Buffer
	id := AddLogListener(func(jww.Threshold) io.Writer { return &buf })

	jww.WARN.Print("first message")
	if !strings.Contains(buf.String(), "first message") {
		t.Errorf("Listener did not receive log.\nexpected: %q\nreceived: %q",
			"first message", buf.String())
	}

	RemoveLogListener(id)
	jww.WARN.Print("second message")
	if strings.Contains(buf.String(), "second message") {
		t.Errorf("Removed listener received log: %q", buf.String())
	}

	// Removing it again is a no-op
	RemoveLogListener(id)
}

// Tests that IDs returned by AddLogListener are unique.
func TestAddLogListener_UniqueIDs(t *testing.T) {
	ll := func(jww.Threshold) io.Writer { return nil }
	ids := make(map[uint64]bool)
	for i := 0; i < 10; i++ {
		id := AddLogListener(ll)
		if ids[id] {
			t.Errorf("ID %d returned twice.", id)
		}
		ids[id] = true
	}
	for id := range ids {
		RemoveLogListener(id)
	}
}

// Tests that LogLevel rejects thresholds outside of the jwalterweatherman
// levels.
func TestLogLevel_Invalid(t *testing.T) {
	for _, threshold := range []jww.Threshold{-1, jww.LevelFatal + 1} {
		if err := LogLevel(threshold); err == nil {
			t.Errorf("No error for invalid threshold %d.", threshold)
		}
	}
	if err := LogLevel(jww.LevelWarn); err != nil {
		t.Errorf("Failed to set valid threshold: %+v", err)
	}
}

// Tests that LogFile.Listen only returns a writer at or above its threshold.
func TestLogFile_Listen(t *testing.T) {
	lf, err := NewLogFile("test.log", jww.LevelWarn, 512)
	if err != nil {
		t.Fatalf("Failed to make new LogFile: %+v", err)
	}

	for _, threshold := range []jww.Threshold{jww.LevelTrace, jww.LevelDebug,
		jww.LevelInfo} {
		if w := lf.Listen(threshold); w != nil {
			t.Errorf("Received writer for %s.", threshold)
		}
	}
	for _, threshold := range []jww.Threshold{jww.LevelWarn, jww.LevelError,
		jww.LevelCritical, jww.LevelFatal} {
		if w := lf.Listen(threshold); w == nil {
			t.Errorf("No writer for %s.", threshold)
		}
	}
}

// Tests that LogFile.Write overwrites the oldest data once the max size is
// reached.
func TestLogFile_Write(t *testing.T) {
	lf, err := NewLogFile("test.log", jww.LevelWarn, 8)
	if err != nil {
		t.Fatalf("Failed to make new LogFile: %+v", err)
	}

	if _, err = lf.Write([]byte("abcdef")); err != nil {
		t.Fatalf("Failed to write: %+v", err)
	}
	if _, err = lf.Write([]byte("ghij")); err != nil {
		t.Fatalf("Failed to write: %+v", err)
	}

	expected := []byte("cdefghij")
	if !bytes.Equal(expected, lf.GetFile()) {
		t.Errorf("Unexpected file contents.\nexpected: %q\nreceived: %q",
			expected, lf.GetFile())
	}
	if lf.Size() != 10 {
		t.Errorf("Unexpected size.\nexpected: %d\nreceived: %d", 10, lf.Size())
	}
	if lf.MaxSize() != 8 {
		t.Errorf("Unexpected max size.\nexpected: %d\nreceived: %d",
			8, lf.MaxSize())
	}
}

// Tests that NewLogFile rejects invalid thresholds and sizes.
func TestNewLogFile_Invalid(t *testing.T) {
	if _, err := NewLogFile("test.log", jww.LevelFatal+1, 8); err == nil {
		t.Errorf("No error for invalid threshold.")
	}
	if _, err := NewLogFile("test.log", jww.LevelWarn, 0); err == nil {
		t.Errorf("No error for invalid size.")
	}
}

// Tests that EnableLogFile records logs until it is replaced.
func TestEnableLogFile(t *testing.T) {
	jww.SetLogThreshold(jww.LevelWarn)
	first, err := EnableLogFile("first.log", jww.LevelWarn, 4096)
	if err != nil {
		t.Fatalf("Failed to enable log file: %+v", err)
	}
	if CurrentLogFile() != first {
		t.Errorf("First log file is not the current log file.")
	}

	jww.ERROR.Print("recorded message")
	if !strings.Contains(string(first.GetFile()), "recorded message") {
		t.Errorf("Log file did not record message: %q", first.GetFile())
	}

	second, err := EnableLogFile("second.log", jww.LevelError, 4096)
	if err != nil {
		t.Fatalf("Failed to enable log file: %+v", err)
	}
	defer second.Stop()
	if CurrentLogFile() != second {
		t.Errorf("Second log file is not the current log file.")
	}

	jww.ERROR.Print("later message")
	if strings.Contains(string(first.GetFile()), "later message") {
		t.Errorf("Replaced log file recorded message: %q", first.GetFile())
	}
	if !strings.Contains(string(second.GetFile()), "later message") {
		t.Errorf("Log file did not record message: %q", second.GetFile())
	}
}
