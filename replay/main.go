////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// package main is a developer tool that replays a script of bridge calls
// against the in-memory vault SDK and prints every envelope as a JSON line. It
// is not a WASM module itself.

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	jww "github.com/spf13/jwalterweatherman"

	"gitlab.com/elixxir/hive-wasm/dispatch"
	"gitlab.com/elixxir/hive-wasm/logging"
	"gitlab.com/elixxir/hive-wasm/memvault"
	"gitlab.com/elixxir/hive-wasm/plugin"
)

// Flag variables.
var (
	scriptPath, challengeResponse, paramsPath string
	logLevel                                  int
	requireAuth                               bool
	timeout                                   time.Duration
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// Replays a JSON lines script of bridge calls. Each line is an object with the
// method, its argument list and optionally the name its result is stored
// under. Refer to the flags for details.
var cmd = &cobra.Command{
	Use: "replay",
	Short: "Replays a JSON lines script of bridge calls against an in-memory " +
		"vault and prints every envelope as a JSON line.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Envelopes are printed to stdout
		jww.SetStdoutOutput(os.Stderr)
		if err := logging.LogLevel(jww.Threshold(logLevel)); err != nil {
			return err
		}

		p, err := loadParams(paramsPath)
		if err != nil {
			return err
		}

		script := io.Reader(os.Stdin)
		if scriptPath != "-" {
			f, err := os.Open(scriptPath)
			if err != nil {
				return err
			}
			defer f.Close()
			script = f
		}

		opts := memvault.DefaultOptions()
		opts.RequireAuth = requireAuth
		hp := plugin.New(memvault.NewSDK(opts), p)
		defer hp.Dispose()

		r := newRunner(hp, os.Stdout, challengeResponse, timeout)
		return r.run(context.Background(), script)
	},
}

// loadParams reads the bridge parameters from the JSON file. An empty path
// results in the default parameters.
func loadParams(path string) (dispatch.Params, error) {
	if path == "" {
		return dispatch.DefaultParams(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return dispatch.Params{}, err
	}
	return dispatch.ParamsFromJSON(data)
}

// init is the initialization function for Cobra which defines flags.
func init() {
	cmd.Flags().StringVarP(&scriptPath, "script", "s", "-",
		"Path of the JSON lines script. By default, it is read from stdin.")
	cmd.Flags().StringVarP(&challengeResponse, "challengeResponse", "c",
		"replay-response",
		"Response JWT sent to every authentication challenge. Set it to "+
			"empty (\"\") to leave challenges unanswered.")
	cmd.Flags().StringVarP(&paramsPath, "params", "p", "",
		"Path of a JSON file of bridge parameters.")
	cmd.Flags().BoolVar(&requireAuth, "requireAuth", false,
		"Raise an authentication challenge before the first vault access "+
			"of each client.")
	cmd.Flags().DurationVarP(&timeout, "timeout", "t", 30*time.Second,
		"Longest time to wait for the reply to a command.")
	cmd.Flags().IntVarP(&logLevel, "logLevel", "v", 4,
		"Verbosity level of logging. 0 = TRACE, 1 = DEBUG, 2 = INFO, "+
			"3 = WARN, 4 = ERROR, 5 = CRITICAL, 6 = FATAL")
}
