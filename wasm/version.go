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

	"gitlab.com/elixxir/hive-wasm/plugin"
)

// GetVersion returns the [plugin.SEMVER].
//
// Returns:
//   - string
func GetVersion(js.Value, []js.Value) any {
	return plugin.SEMVER
}
