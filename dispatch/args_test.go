////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package dispatch

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/pkg/errors"

	"gitlab.com/elixxir/hive-wasm/envelope"
	"gitlab.com/elixxir/hive-wasm/handles"
)

// decodeArgs returns the arguments as they are received from Javascript.
func decodeArgs(t *testing.T, data string) Args {
	var args Args
	if err := json.Unmarshal([]byte(data), &args); err != nil {
		t.Fatalf("Failed to unmarshal %s: %+v", data, err)
	}
	return args
}

// Tests that each accessor returns the argument decoded from JSON.
func TestArgs(t *testing.T) {
	args := decodeArgs(t,
		`["path", "", "5", 16, {"a": 1}, [1, "b"], ["x", "y"], "AAECAw==", [{"a": 1}]]`)

	if s, err := args.NonEmptyString(0, "path"); err != nil || s != "path" {
		t.Errorf("NonEmptyString: %q, %+v", s, err)
	}
	if s, err := args.String(1, "empty"); err != nil || s != "" {
		t.Errorf("String: %q, %+v", s, err)
	}
	if s, err := args.OptionalString(20, "missing", "def"); err != nil || s != "def" {
		t.Errorf("OptionalString: %q, %+v", s, err)
	}
	if id, err := args.Handle(2, "objectId"); err != nil || id != handles.ID(5) {
		t.Errorf("Handle: %d, %+v", id, err)
	}
	if n, err := args.Int(3, "size"); err != nil || n != 16 {
		t.Errorf("Int: %d, %+v", n, err)
	}
	if n, err := args.OptionalInt(20, "size", 7); err != nil || n != 7 {
		t.Errorf("OptionalInt: %d, %+v", n, err)
	}
	if o, err := args.Object(4, "doc"); err != nil ||
		!reflect.DeepEqual(o, map[string]any{"a": float64(1)}) {
		t.Errorf("Object: %v, %+v", o, err)
	}
	if o, err := args.OptionalObject(20, "options"); err != nil || len(o) != 0 {
		t.Errorf("OptionalObject: %v, %+v", o, err)
	}
	if l, err := args.Array(5, "list"); err != nil || len(l) != 2 {
		t.Errorf("Array: %v, %+v", l, err)
	}
	if l, err := args.StringArray(6, "strings"); err != nil ||
		!reflect.DeepEqual(l, []string{"x", "y"}) {
		t.Errorf("StringArray: %v, %+v", l, err)
	}
	if b, err := args.Bytes(7, "data"); err != nil ||
		!reflect.DeepEqual(b, []byte{0, 1, 2, 3}) {
		t.Errorf("Bytes: %v, %+v", b, err)
	}
	if l, err := args.ObjectArray(8, "docs"); err != nil || len(l) != 1 {
		t.Errorf("ObjectArray: %v, %+v", l, err)
	}
}

// Error path: tests that every malformed argument is reported as a
// validation error.
func TestArgs_Invalid(t *testing.T) {
	args := decodeArgs(t,
		`["", 1.5, "x", [1, 2], "not base64!", null, -3, 9007199254740992, 1e300]`)

	tests := []struct {
		name string
		fn   func() error
	}{
		{"empty string", func() error { _, err := args.NonEmptyString(0, "a"); return err }},
		{"missing string", func() error { _, err := args.String(10, "a"); return err }},
		{"number as string", func() error { _, err := args.String(1, "a"); return err }},
		{"fractional int", func() error { _, err := args.Int(1, "a"); return err }},
		{"string as int", func() error { _, err := args.Int(2, "a"); return err }},
		{"unsafe int", func() error { _, err := args.Int(7, "a"); return err }},
		{"huge int", func() error { _, err := args.Int(8, "a"); return err }},
		{"invalid handle", func() error { _, err := args.Handle(2, "a"); return err }},
		{"null handle", func() error { _, err := args.Handle(5, "a"); return err }},
		{"negative handle", func() error { _, err := args.Handle(6, "a"); return err }},
		{"string as object", func() error { _, err := args.Object(2, "a"); return err }},
		{"null object", func() error { _, err := args.Object(5, "a"); return err }},
		{"string as array", func() error { _, err := args.Array(2, "a"); return err }},
		{"numbers as strings", func() error { _, err := args.StringArray(3, "a"); return err }},
		{"numbers as objects", func() error { _, err := args.ObjectArray(3, "a"); return err }},
		{"invalid base64", func() error { _, err := args.Bytes(4, "a"); return err }},
	}

	for _, tt := range tests {
		err := tt.fn()
		if !errors.Is(err, envelope.ErrValidation) {
			t.Errorf("%s: unexpected error.\nexpected: %v\nreceived: %+v",
				tt.name, envelope.ErrValidation, err)
		}
	}
}
