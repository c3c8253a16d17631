////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package plugin

import (
	"fmt"

	"github.com/pkg/errors"

	"gitlab.com/elixxir/hive-wasm/dispatch"
	"gitlab.com/elixxir/hive-wasm/envelope"
	"gitlab.com/elixxir/hive-wasm/handles"
	"gitlab.com/elixxir/hive-wasm/vault"
)

// Names of common arguments, used in validation errors.
const (
	clientArg = "clientObjectId"
	vaultArg  = "vaultObjectId"
	writerArg = "writerObjectId"
	readerArg = "readerObjectId"
)

// invalidArgument returns a validation error for an argument whose value
// cannot be checked by the dispatch.Args accessors alone.
func invalidArgument(i int, name, format string, a ...any) error {
	return errors.Wrapf(envelope.ErrValidation, "argument %d (%s) %s",
		i, name, fmt.Sprintf(format, a...))
}

// argObject is an object resolved from a handle argument.
type argObject[T any] struct {
	id     handles.ID
	object T
}

// lookupArg parses the handle argument at the position and returns the
// object registered under it.
func lookupArg[T any](hp *HivePlugin, args dispatch.Args, i int,
	name string, kind handles.Kind) (argObject[T], error) {
	id, err := args.Handle(i, name)
	if err != nil {
		return argObject[T]{}, err
	}
	object, err := handles.LookupAs[T](hp.table, kind, id)
	if err != nil {
		return argObject[T]{}, err
	}
	return argObject[T]{id, object}, nil
}

func (hp *HivePlugin) argClient(args dispatch.Args) (argObject[vault.Client], error) {
	return lookupArg[vault.Client](hp, args, 0, clientArg, handles.Client)
}

func (hp *HivePlugin) argVault(args dispatch.Args) (vault.Vault, error) {
	v, err := lookupArg[vault.Vault](hp, args, 0, vaultArg, handles.Vault)
	return v.object, err
}

func (hp *HivePlugin) argWriter(args dispatch.Args) (argObject[*writerStream], error) {
	return lookupArg[*writerStream](hp, args, 0, writerArg, handles.FileWriter)
}

func (hp *HivePlugin) argReader(args dispatch.Args) (argObject[*readerStream], error) {
	return lookupArg[*readerStream](hp, args, 0, readerArg, handles.FileReader)
}

// vaultOnly decodes the arguments of methods that only take a vault.
func (hp *HivePlugin) vaultOnly(args dispatch.Args) (vault.Vault, error) {
	return hp.argVault(args)
}

// vaultString is a vault and one string argument.
type vaultString struct {
	v vault.Vault
	s string
}

// vaultAndString returns a decode function for methods that take a vault and
// a non-empty string.
func (hp *HivePlugin) vaultAndString(
	name string) func(dispatch.Args) (vaultString, error) {
	return func(args dispatch.Args) (vaultString, error) {
		v, err := hp.argVault(args)
		if err != nil {
			return vaultString{}, err
		}
		s, err := args.NonEmptyString(1, name)
		return vaultString{v, s}, err
	}
}
