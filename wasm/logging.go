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

	jww "github.com/spf13/jwalterweatherman"
	"gitlab.com/elixxir/wasm-utils/exception"

	"gitlab.com/elixxir/hive-wasm/logging"
)

// LogLevel sets level of logging. All logs at the set level and above are
// printed to the Javascript console (e.g., when log level is ERROR, only
// ERROR, CRITICAL, and FATAL messages will be printed).
//
// Log level options:
//
//	TRACE    - 0
//	DEBUG    - 1
//	INFO     - 2
//	WARN     - 3
//	ERROR    - 4
//	CRITICAL - 5
//	FATAL    - 6
//
// The default log level without updates is INFO.
//
// Parameters:
//   - args[0] - Log level (int).
//
// Returns:
//   - Throws an error if the log level is invalid.
func LogLevel(_ js.Value, args []js.Value) any {
	threshold := jww.Threshold(args[0].Int())
	if err := logging.EnableConsole(threshold); err != nil {
		exception.ThrowTrace(err)
	}
	return nil
}

// LogToFile enables logging to an in-memory file that can be downloaded. It
// replaces the log file previously enabled.
//
// Parameters:
//   - args[0] - Log level (int).
//   - args[1] - Log file name (string).
//   - args[2] - Max log file size, in bytes (int).
//
// Returns:
//   - A Javascript representation of the [logging.LogFile] object.
//   - Throws an error if the log level or size is invalid.
func LogToFile(_ js.Value, args []js.Value) any {
	threshold := jww.Threshold(args[0].Int())
	lf, err := logging.EnableLogFile(args[1].String(), threshold, args[2].Int())
	if err != nil {
		exception.ThrowTrace(err)
		return nil
	}

	return newLogFileJS(lf)
}

// GetLogFile returns the log file enabled by [LogToFile].
//
// Returns:
//   - A Javascript representation of the [logging.LogFile] object or null if
//     no log file is enabled.
func GetLogFile(js.Value, []js.Value) any {
	lf := logging.CurrentLogFile()
	if lf == nil {
		return nil
	}
	return newLogFileJS(lf)
}

// newLogFileJS creates a new Javascript compatible object (map[string]any) that
// matches the [logging.LogFile] structure.
func newLogFileJS(lf *logging.LogFile) map[string]any {
	return map[string]any{
		"Name": js.FuncOf(func(js.Value, []js.Value) any {
			return lf.Name()
		}),
		"Threshold": js.FuncOf(func(js.Value, []js.Value) any {
			return lf.Threshold().String()
		}),
		"GetFile": js.FuncOf(func(js.Value, []js.Value) any {
			return string(lf.GetFile())
		}),
		"MaxSize": js.FuncOf(func(js.Value, []js.Value) any {
			return lf.MaxSize()
		}),
		"Size": js.FuncOf(func(js.Value, []js.Value) any {
			return lf.Size()
		}),
		"Stop": js.FuncOf(func(js.Value, []js.Value) any {
			lf.Stop()
			return nil
		}),
	}
}
