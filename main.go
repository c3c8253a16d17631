////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

//go:build js && wasm

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"syscall/js"

	jww "github.com/spf13/jwalterweatherman"

	"gitlab.com/elixxir/hive-wasm/storage"
	"gitlab.com/elixxir/hive-wasm/wasm"
)

func main() {
	fmt.Println("Go Web Assembly")

	// Check that the WASM binary version is correct
	if err := storage.CheckAndStoreVersions(); err != nil {
		jww.FATAL.Panicf("WASM binary version error: %+v", err)
	}

	// wasm/plugin.go
	js.Global().Set("NewHivePlugin", js.FuncOf(wasm.NewHivePlugin))

	// wasm/logging.go
	js.Global().Set("LogLevel", js.FuncOf(wasm.LogLevel))
	js.Global().Set("LogToFile", js.FuncOf(wasm.LogToFile))
	js.Global().Set("GetLogFile", js.FuncOf(wasm.GetLogFile))

	// wasm/version.go
	js.Global().Set("GetVersion", js.FuncOf(wasm.GetVersion))

	// Wait until the user terminates the program
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	os.Exit(0)
}
