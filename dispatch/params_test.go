////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package dispatch

import (
	"testing"
	"time"
)

// Tests that missing fields keep their default value.
func TestParamsFromJSON(t *testing.T) {
	p, err := ParamsFromJSON([]byte(`{"messageLogging": true, "readAllChunkSize": 16}`))
	if err != nil {
		t.Fatalf("Failed to parse params: %+v", err)
	}

	expected := DefaultParams()
	expected.MessageLogging = true
	expected.ReadAllChunkSize = 16
	if p != expected {
		t.Errorf("Unexpected params.\nexpected: %+v\nreceived: %+v", expected, p)
	}

	if p, err = ParamsFromJSON(nil); err != nil || p != DefaultParams() {
		t.Errorf("Empty JSON did not return defaults: %+v, %+v", p, err)
	}
	if DefaultParams().ChallengeTimeout != 5*time.Minute {
		t.Errorf("Unexpected default challenge timeout %s",
			DefaultParams().ChallengeTimeout)
	}
}

// Error path: tests that invalid params are rejected.
func TestParamsFromJSON_Invalid(t *testing.T) {
	for _, data := range []string{
		`{"readAllChunkSize": 0}`,
		`{"maxReadSize": 0}`,
		`{"challengeTimeout": -1}`,
		`{"name": 5}`,
		`not json`,
	} {
		if _, err := ParamsFromJSON([]byte(data)); err == nil {
			t.Errorf("No error for invalid params %s", data)
		}
	}
}
