////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package vault

import "github.com/pkg/errors"

// Typed errors returned by the SDK. Implementations wrap them so that callers
// can match them with errors.Is.
var (
	ErrVaultNotFound        = errors.New("vault not found")
	ErrVaultAlreadyExists   = errors.New("vault already exists")
	ErrProviderNotSet       = errors.New("vault provider not set")
	ErrProviderNotPublished = errors.New("vault provider not published")
	ErrDidNotPublished      = errors.New("DID not published")
	ErrCollectionNotFound   = errors.New("collection not exist")
	ErrFileNotFound         = errors.New("file not found")
)
