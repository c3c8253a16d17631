////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

//go:build js && wasm

package storage

import (
	"gitlab.com/elixxir/wasm-utils/storage"

	"gitlab.com/elixxir/hive-wasm/plugin"
)

// CheckAndStoreVersions checks that the bridge version stored in local storage
// matches [plugin.SEMVER] and upgrades it if not.
func CheckAndStoreVersions() error {
	return checkAndStoreVersion(plugin.SEMVER, storage.GetLocalStorage())
}
