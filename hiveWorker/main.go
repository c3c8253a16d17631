////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

//go:build js && wasm

package main

import (
	"context"
	"fmt"

	jww "github.com/spf13/jwalterweatherman"

	"gitlab.com/elixxir/hive-wasm/dispatch"
	"gitlab.com/elixxir/hive-wasm/logging"
	"gitlab.com/elixxir/hive-wasm/memvault"
	"gitlab.com/elixxir/hive-wasm/plugin"
	"gitlab.com/elixxir/hive-wasm/worker"
)

// workerName is used in the logs of the worker.
const workerName = "HiveWorker"

func main() {
	fmt.Println("[WW] Starting Hive bridge worker.")

	if err := logging.EnableConsole(jww.LevelInfo); err != nil {
		jww.FATAL.Panicf("[WW] [%s] Failed to set log level: %+v",
			workerName, err)
	}

	p := dispatch.DefaultParams()
	p.Name = workerName
	hp := plugin.New(memvault.NewSDK(memvault.DefaultOptions()), p)

	err := worker.Serve(context.Background(), hp, workerName, p.MessageLogging)
	if err != nil {
		jww.FATAL.Panicf("[WW] [%s] Worker stopped: %+v", workerName, err)
	}
}
