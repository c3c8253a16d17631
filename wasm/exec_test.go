////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package wasm

import (
	"testing"

	"github.com/pkg/errors"

	"gitlab.com/elixxir/hive-wasm/dispatch"
	"gitlab.com/elixxir/hive-wasm/envelope"
)

// Tests that listener registrations are refused by Exec with a validation
// error while one-shot calls are allowed.
func Test_checkExec(t *testing.T) {
	for _, m := range []string{
		dispatch.SetListener, dispatch.ClientSetAuthHandlerChallengeCallback} {
		err := checkExec(m)
		if !errors.Is(err, envelope.ErrValidation) {
			t.Errorf("Unexpected error for %s.\nexpected: %v\nreceived: %+v",
				m, envelope.ErrValidation, err)
		}
		code, _ := envelope.FromError(err).Code()
		if code != envelope.ValidationError {
			t.Errorf("Unexpected code for %s.\nexpected: %d\nreceived: %d",
				m, envelope.ValidationError, code)
		}
	}

	if err := checkExec(dispatch.GetVersion); err != nil {
		t.Errorf("Unexpected error for %s: %+v", dispatch.GetVersion, err)
	}
}
