////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package dispatch

import "testing"

// Tests that only listener registrations are reported as keepAlive.
func TestKeepsAlive(t *testing.T) {
	for _, m := range []Method{SetListener, ClientSetAuthHandlerChallengeCallback} {
		if !KeepsAlive(m) {
			t.Errorf("%s is not reported as keepAlive.", m)
		}
	}
	for _, m := range []Method{GetVersion, ReaderReadAll, ClientGetVault, "unknown"} {
		if KeepsAlive(m) {
			t.Errorf("%s is reported as keepAlive.", m)
		}
	}
}
