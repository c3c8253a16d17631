////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package wasm

import (
	"github.com/pkg/errors"

	"gitlab.com/elixxir/hive-wasm/dispatch"
	"gitlab.com/elixxir/hive-wasm/envelope"
)

// checkExec returns a validation error for methods that cannot settle a
// promise because their registration never receives a terminal envelope.
func checkExec(method string) error {
	if dispatch.KeepsAlive(method) {
		return errors.Wrapf(envelope.ErrValidation,
			"%s keeps its callback open and must be called with Listen", method)
	}
	return nil
}
