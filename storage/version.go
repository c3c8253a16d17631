////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package storage tracks the bridge version persisted in the browser between
// loads so that upgrades can be detected.
package storage

import (
	"os"
	"sync"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
)

// semverKey is the storage key of the stored bridge version.
const semverKey = "hiveWasmSemanticVersion"

// KeyValue is the subset of local storage needed to track versions. A missing
// key must be reported with an error wrapping [os.ErrNotExist].
type KeyValue interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
}

// checkAndStoreVersion compares the stored version with the current one, logs
// an upgrade if they differ and saves the current version. On first load, only
// the current version is stored.
func checkAndStoreVersion(current string, kv KeyValue) error {
	stored, err := initOrLoadStoredSemver(semverKey, current, kv)
	if err != nil {
		return err
	}

	setOldSemVersion(stored)

	if stored != current {
		jww.INFO.Printf("[HIVE] Hive WASM out of date; upgrading version: "+
			"v%s → v%s", stored, current)
	} else {
		jww.INFO.Printf("[HIVE] Hive WASM version is current: v%s", stored)
	}

	if err = kv.Set(semverKey, []byte(current)); err != nil {
		return errors.Wrapf(err, "localStorage: failed to set %q", semverKey)
	}

	return nil
}

// initOrLoadStoredSemver returns the version stored at the key. If no version
// is stored, then the current version is stored and returned.
func initOrLoadStoredSemver(
	key, current string, kv KeyValue) (string, error) {
	stored, err := kv.Get(key)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return "", errors.Errorf(
				"could not load %s from storage: %+v", key, err)
		}

		jww.INFO.Printf("[HIVE] Initialising %s to v%s", key, current)
		if err = kv.Set(key, []byte(current)); err != nil {
			return "", errors.Wrapf(err, "localStorage: failed to set %q", key)
		}
		return current, nil
	}

	return string(stored), nil
}

// oldVersion is the version that was stored before the last check overwrote
// it.
var oldVersion struct {
	v string
	sync.Mutex
}

// GetOldSemVersion returns the bridge version stored before the current one
// was loaded. It is empty until a version check has run.
func GetOldSemVersion() string {
	oldVersion.Lock()
	defer oldVersion.Unlock()
	return oldVersion.v
}

func setOldSemVersion(v string) {
	oldVersion.Lock()
	defer oldVersion.Unlock()
	oldVersion.v = v
}
