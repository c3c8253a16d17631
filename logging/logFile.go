////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package logging

import (
	"fmt"
	"io"
	"sync"

	"github.com/armon/circbuf"
	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
)

// LogFile is a virtual log file in memory. It is backed by a circular buffer
// that overwrites the oldest logs once the max size is reached.
type LogFile struct {
	name      string
	threshold jww.Threshold
	b         *circbuf.Buffer

	// listenerID is the ID of the file's log listener. It is only valid when
	// listening is set.
	listenerID uint64
	listening  bool
	mux        sync.Mutex
}

// NewLogFile returns a new LogFile that records logs at the threshold and
// above. It is not registered as a log listener.
func NewLogFile(
	name string, threshold jww.Threshold, maxSize int) (*LogFile, error) {
	if err := validThreshold(threshold); err != nil {
		return nil, err
	}
	b, err := circbuf.NewBuffer(int64(maxSize))
	if err != nil {
		return nil, errors.Wrap(err, "could not create new circular buffer")
	}
	return &LogFile{name: name, threshold: threshold, b: b}, nil
}

// Listen adheres to the [jwalterweatherman.LogListener] type.
func (lf *LogFile) Listen(t jww.Threshold) io.Writer {
	if t < lf.threshold {
		return nil
	}
	return lf
}

// Write writes the log entry to the buffer.
func (lf *LogFile) Write(p []byte) (int, error) {
	lf.mux.Lock()
	defer lf.mux.Unlock()
	return lf.b.Write(p)
}

// Name returns the name of the log file.
func (lf *LogFile) Name() string { return lf.name }

// Threshold returns the log level threshold used in the file.
func (lf *LogFile) Threshold() jww.Threshold { return lf.threshold }

// GetFile returns the contents of the log file.
func (lf *LogFile) GetFile() []byte {
	lf.mux.Lock()
	defer lf.mux.Unlock()
	return lf.b.Bytes()
}

// MaxSize returns the max size, in bytes, that the log file is allowed to be.
func (lf *LogFile) MaxSize() int { return int(lf.b.Size()) }

// Size returns the number of bytes ever written to the log file.
func (lf *LogFile) Size() int {
	lf.mux.Lock()
	defer lf.mux.Unlock()
	return int(lf.b.TotalWritten())
}

// Stop removes the log file from the log listeners. Its contents are kept.
func (lf *LogFile) Stop() {
	lf.mux.Lock()
	defer lf.mux.Unlock()
	if lf.listening {
		RemoveLogListener(lf.listenerID)
		lf.listening = false
	}
}

var (
	// current is the log file enabled by EnableLogFile.
	current    *LogFile
	currentMux sync.Mutex
)

// EnableLogFile starts recording logs into a new log file, replacing the one
// previously enabled.
func EnableLogFile(
	name string, threshold jww.Threshold, maxSize int) (*LogFile, error) {
	lf, err := NewLogFile(name, threshold, maxSize)
	if err != nil {
		return nil, err
	}

	currentMux.Lock()
	if current != nil {
		current.Stop()
	}
	current = lf
	currentMux.Unlock()

	lf.mux.Lock()
	lf.listenerID = AddLogListener(lf.Listen)
	lf.listening = true
	lf.mux.Unlock()

	printAt(threshold, fmt.Sprintf(
		"[LOG] Outputting log to file %s of max size %d with level %s",
		lf.Name(), lf.MaxSize(), threshold))
	return lf, nil
}

// CurrentLogFile returns the log file enabled by EnableLogFile or nil if none
// is.
func CurrentLogFile() *LogFile {
	currentMux.Lock()
	defer currentMux.Unlock()
	return current
}
