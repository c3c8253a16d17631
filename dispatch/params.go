////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package dispatch

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

// Params are parameters used by the bridge.
type Params struct {
	// Name describes the bridge instance. It is used for debugging and logging
	// purposes.
	Name string `json:"name"`

	// MessageLogging indicates if a DEBUG message should be printed every time
	// a call is dispatched or an envelope is emitted.
	MessageLogging bool `json:"messageLogging"`

	// ChallengeTimeout is the time to wait for the response to an
	// authentication challenge before failing the SDK call that raised it.
	// Zero waits until the bridge is disposed.
	ChallengeTimeout time.Duration `json:"challengeTimeout"`

	// ReadAllChunkSize is the number of bytes read from a stream between two
	// progress events of reader_readAll.
	ReadAllChunkSize int `json:"readAllChunkSize"`

	// MaxReadSize is the largest number of bytes a single reader_read may
	// request.
	MaxReadSize int `json:"maxReadSize"`
}

// DefaultParams returns the default parameters.
func DefaultParams() Params {
	return Params{
		Name:             "HivePlugin",
		MessageLogging:   false,
		ChallengeTimeout: 5 * time.Minute,
		ReadAllChunkSize: 1024,
		MaxReadSize:      4 << 20,
	}
}

// ParamsFromJSON unmarshalls the JSON over the default parameters so that
// missing fields keep their default value.
func ParamsFromJSON(data []byte) (Params, error) {
	p := DefaultParams()
	if len(data) == 0 {
		return p, nil
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return Params{}, errors.Wrap(err, "failed to unmarshal params")
	}
	if p.ReadAllChunkSize < 1 {
		return Params{}, errors.Errorf(
			"read all chunk size must be positive, received %d",
			p.ReadAllChunkSize)
	}
	if p.MaxReadSize < 1 {
		return Params{}, errors.Errorf(
			"max read size must be positive, received %d", p.MaxReadSize)
	}
	if p.ChallengeTimeout < 0 {
		return Params{}, errors.Errorf(
			"challenge timeout must not be negative, received %s",
			p.ChallengeTimeout)
	}
	return p, nil
}
