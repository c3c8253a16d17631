////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package storage

import (
	"os"
	"testing"

	"github.com/pkg/errors"
)

// memoryKV is an in-memory KeyValue.
type memoryKV struct {
	m      map[string][]byte
	setErr error
}

func newMemoryKV() *memoryKV { return &memoryKV{m: make(map[string][]byte)} }

func (kv *memoryKV) Get(key string) ([]byte, error) {
	v, exists := kv.m[key]
	if !exists {
		return nil, os.ErrNotExist
	}
	return v, nil
}

func (kv *memoryKV) Set(key string, value []byte) error {
	if kv.setErr != nil {
		return kv.setErr
	}
	kv.m[key] = value
	return nil
}

// Tests that checkAndStoreVersion initialises the version on first run and
// upgrades it on subsequent runs.
func Test_checkAndStoreVersion(t *testing.T) {
	kv := newMemoryKV()
	oldVer, newVer := "0.1.0", "1.0.0"

	if err := checkAndStoreVersion(oldVer, kv); err != nil {
		t.Fatalf("checkAndStoreVersion error: %+v", err)
	}
	if stored := string(kv.m[semverKey]); stored != oldVer {
		t.Errorf("Unexpected stored version.\nexpected: %s\nreceived: %s",
			oldVer, stored)
	}
	if old := GetOldSemVersion(); old != oldVer {
		t.Errorf("Unexpected old version on first run."+
			"\nexpected: %s\nreceived: %s", oldVer, old)
	}

	if err := checkAndStoreVersion(newVer, kv); err != nil {
		t.Fatalf("checkAndStoreVersion error: %+v", err)
	}
	if stored := string(kv.m[semverKey]); stored != newVer {
		t.Errorf("Unexpected stored version.\nexpected: %s\nreceived: %s",
			newVer, stored)
	}
	if old := GetOldSemVersion(); old != oldVer {
		t.Errorf("Unexpected old version after upgrade."+
			"\nexpected: %s\nreceived: %s", oldVer, old)
	}
}

// Tests that initOrLoadStoredSemver returns the stored version instead of the
// current one once a version is stored.
func Test_initOrLoadStoredSemver(t *testing.T) {
	kv := newMemoryKV()
	key := "testKey"

	v, err := initOrLoadStoredSemver(key, "1.0.0", kv)
	if err != nil {
		t.Fatalf("initOrLoadStoredSemver error: %+v", err)
	}
	if v != "1.0.0" {
		t.Errorf("Unexpected version.\nexpected: %s\nreceived: %s", "1.0.0", v)
	}

	v, err = initOrLoadStoredSemver(key, "2.0.0", kv)
	if err != nil {
		t.Fatalf("initOrLoadStoredSemver error: %+v", err)
	}
	if v != "1.0.0" {
		t.Errorf("Unexpected version.\nexpected: %s\nreceived: %s", "1.0.0", v)
	}
}

// Error path: a failing store is reported.
func Test_checkAndStoreVersion_SetError(t *testing.T) {
	kv := newMemoryKV()
	kv.setErr = errors.New("quota exceeded")

	if err := checkAndStoreVersion("1.0.0", kv); err == nil {
		t.Error("Expected an error when storage cannot be written.")
	}
}
