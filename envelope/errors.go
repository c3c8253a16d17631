////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package envelope

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"gitlab.com/elixxir/hive-wasm/vault"
)

// ErrorCode classifies an error envelope. Codes in the ranges below -10000
// are raised by the bridge itself; the others classify SDK errors.
type ErrorCode int

// Error codes of SDK errors.
const (
	// Vault errors, range -1 to -999.
	VaultNotFound        ErrorCode = -1
	ProviderNotPublished ErrorCode = -2
	DidNotPublished      ErrorCode = -3

	// Database errors, range -1000 to -1999.
	CollectionNotFound ErrorCode = -1000

	// File errors, range -2000 to -2999.
	FileNotFound ErrorCode = -2000

	// Unspecified is used for every SDK error that could not be classified.
	Unspecified ErrorCode = -9999
)

// Error codes raised by the bridge.
const (
	ValidationError         ErrorCode = -10001
	HandleNotFound          ErrorCode = -10002
	UnknownMethod           ErrorCode = -10003
	ChallengeAlreadyPending ErrorCode = -10004
	ChallengeTimedOut       ErrorCode = -10005
	ChallengeNotPending     ErrorCode = -10006
)

// String returns a human-readable name of the code.
func (c ErrorCode) String() string {
	switch c {
	case VaultNotFound:
		return "VaultNotFound"
	case ProviderNotPublished:
		return "ProviderNotPublished"
	case DidNotPublished:
		return "DidNotPublished"
	case CollectionNotFound:
		return "CollectionNotFound"
	case FileNotFound:
		return "FileNotFound"
	case Unspecified:
		return "Unspecified"
	case ValidationError:
		return "ValidationError"
	case HandleNotFound:
		return "HandleNotFound"
	case UnknownMethod:
		return "UnknownMethod"
	case ChallengeAlreadyPending:
		return "ChallengeAlreadyPending"
	case ChallengeTimedOut:
		return "ChallengeTimedOut"
	case ChallengeNotPending:
		return "ChallengeNotPending"
	default:
		return "ErrorCode(" + strconv.Itoa(int(c)) + ")"
	}
}

// Errors raised by the bridge. They are wrapped with the details of the
// failure and matched with errors.Is.
var (
	ErrValidation              = errors.New("invalid arguments")
	ErrHandleNotFound          = errors.New("handle not found")
	ErrUnknownMethod           = errors.New("unknown method")
	ErrChallengeAlreadyPending = errors.New("authentication challenge already pending")
	ErrChallengeTimedOut       = errors.New("timed out waiting for authentication challenge response")
	ErrChallengeNotPending     = errors.New("no authentication challenge pending")
)

// vaultNotFoundMessage replaces the SDK message of a missing vault so that
// applications can show it directly.
const vaultNotFoundMessage = "Vault does not exist. It has to be created by " +
	"calling createVault()"

// typedErrors maps typed errors to their code. The order matters since an
// error may wrap more than one of them.
var typedErrors = []struct {
	err  error
	code ErrorCode
}{
	{ErrValidation, ValidationError},
	{ErrHandleNotFound, HandleNotFound},
	{ErrUnknownMethod, UnknownMethod},
	{ErrChallengeAlreadyPending, ChallengeAlreadyPending},
	{ErrChallengeTimedOut, ChallengeTimedOut},
	{ErrChallengeNotPending, ChallengeNotPending},
	{vault.ErrVaultNotFound, VaultNotFound},
	{vault.ErrProviderNotPublished, ProviderNotPublished},
	{vault.ErrDidNotPublished, DidNotPublished},
	{vault.ErrCollectionNotFound, CollectionNotFound},
	{vault.ErrFileNotFound, FileNotFound},
}

// messagePatterns maps lowercase substrings of SDK error messages to their
// code, for SDK errors that only carry a message.
var messagePatterns = []struct {
	pattern string
	code    ErrorCode
}{
	{"collection not exist", CollectionNotFound},
	{"collection not found", CollectionNotFound},
	{"item not found", FileNotFound},
	{"file not found", FileNotFound},
	{"no such file", FileNotFound},
	{"vault not found", VaultNotFound},
	{"vault does not exist", VaultNotFound},
	{"provider not published", ProviderNotPublished},
	{"did not published", DidNotPublished},
	{"did is not published", DidNotPublished},
}

// Classify returns the code and message of the error. Typed errors are
// matched first, then the message patterns. Anything else is Unspecified and
// keeps its raw message.
func Classify(err error) (ErrorCode, string) {
	if err == nil {
		return Unspecified, ""
	}
	message := err.Error()

	code, found := Unspecified, false
	for _, te := range typedErrors {
		if errors.Is(err, te.err) {
			code, found = te.code, true
			break
		}
	}

	if !found {
		lower := strings.ToLower(message)
		for _, mp := range messagePatterns {
			if strings.Contains(lower, mp.pattern) {
				code = mp.code
				break
			}
		}
	}

	if code == VaultNotFound {
		message = vaultNotFoundMessage
	}

	return code, message
}
