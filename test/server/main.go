////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Command server serves the compiled bridge and its assets over HTTP for
// manual testing in a browser.
package main

import (
	"fmt"
	"mime"
	"net/http"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	jww "github.com/spf13/jwalterweatherman"
)

var (
	port string
	root string
)

var cmd = &cobra.Command{
	Use:   "server",
	Short: "Serves the Hive WASM bridge for testing in a browser",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		// Browsers refuse to stream-compile the binary without this type
		if err := mime.AddExtensionType(".wasm", "application/wasm"); err != nil {
			return errors.Wrap(err, "failed to register WASM MIME type")
		}

		jww.INFO.Printf("Starting server on port %s from %s", port, root)
		fmt.Printf("\thttp://localhost:%s\n", port)

		err := http.ListenAndServe(":"+port, logRequests(
			http.FileServer(http.Dir(root))))
		return errors.Wrap(err, "failed to start server")
	},
}

// logRequests logs each served path at DEBUG.
func logRequests(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		jww.DEBUG.Printf("%s %s", r.Method, r.URL.Path)
		h.ServeHTTP(w, r)
	})
}

func init() {
	cmd.Flags().StringVarP(&port, "port", "p", "9090", "Port to listen on")
	cmd.Flags().StringVarP(&root, "root", "r", "../assets",
		"Directory to serve")
}

func main() {
	jww.SetStdoutThreshold(jww.LevelInfo)
	if err := cmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
