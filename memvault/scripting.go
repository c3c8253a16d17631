////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package memvault

import (
	"context"

	"github.com/pkg/errors"

	"gitlab.com/elixxir/hive-wasm/vault"
)

// scriptFilePrefix is the folder that holds files transferred by scripts.
const scriptFilePrefix = ".scripting/"

// script is a registered script. Conditions and executables are stored but
// never evaluated.
type script struct {
	condition  vault.Document
	executable vault.Document
}

// scripting adheres to the vault.Scripting interface.
type scripting struct{ v *vaultHandle }

func (s *scripting) RegisterScript(ctx context.Context, name string,
	condition, executable vault.Document) (bool, error) {
	unlock, err := s.v.begin(ctx, "RegisterScript", name)
	if err != nil {
		return false, err
	}
	defer unlock()

	sc := script{}
	if sc.condition, err = normalize(condition); err != nil {
		return false, err
	}
	if sc.executable, err = normalize(executable); err != nil {
		return false, err
	}
	s.v.vs.scripts[name] = sc
	return true, nil
}

func (s *scripting) RegisterSubCondition(
	ctx context.Context, name string, condition vault.Document) error {
	unlock, err := s.v.begin(ctx, "RegisterSubCondition", name)
	if err != nil {
		return err
	}
	defer unlock()

	if s.v.vs.conditions[name], err = normalize(condition); err != nil {
		delete(s.v.vs.conditions, name)
		return err
	}
	return nil
}

// CallScript returns the parameters of the call keyed by the script name,
// which is what an echo script returns.
func (s *scripting) CallScript(ctx context.Context, name string,
	params vault.Document, appDid string) (vault.Document, error) {
	unlock, err := s.v.begin(ctx, "CallScript", name, appDid)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if _, exists := s.v.vs.scripts[name]; !exists {
		return nil, errors.Errorf("script %q is not registered", name)
	}
	params, err = normalize(params)
	if err != nil {
		return nil, err
	}
	return vault.Document{name: params}, nil
}

func (s *scripting) UploadFile(
	ctx context.Context, transactionID string) (vault.Writer, error) {
	unlock, err := s.v.begin(ctx, "UploadFile", transactionID)
	if err != nil {
		return nil, err
	}
	defer unlock()
	return newWriter(s.v.vs, scriptFilePrefix+transactionID), nil
}

func (s *scripting) DownloadFile(
	ctx context.Context, transactionID string) (vault.Reader, error) {
	unlock, err := s.v.begin(ctx, "DownloadFile", transactionID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	r, err := openReader(s.v.vs, scriptFilePrefix+transactionID)
	if err != nil {
		return nil, err
	}
	return r, nil
}
