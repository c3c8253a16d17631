////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package plugin

import (
	"gitlab.com/elixxir/hive-wasm/dispatch"
	"gitlab.com/elixxir/hive-wasm/envelope"
	"gitlab.com/elixxir/hive-wasm/handles"
	"gitlab.com/elixxir/hive-wasm/vault"
)

// scriptCall is the decoded arguments of a scripting method.
type scriptCall struct {
	s    vault.Scripting
	name string

	// first and second are the executable and condition of setScript, the
	// condition of registerSubCondition and the params of call.
	first  vault.Document
	second vault.Document

	appDid string
}

// decodeScript decodes the vault and the script name.
func (hp *HivePlugin) decodeScript(args dispatch.Args) (scriptCall, error) {
	v, err := hp.argVault(args)
	if err != nil {
		return scriptCall{}, err
	}
	name, err := args.NonEmptyString(1, "functionName")
	if err != nil {
		return scriptCall{}, err
	}
	return scriptCall{s: v.Scripting(), name: name}, nil
}

// registerScriptingHandlers registers the scripting methods.
func (hp *HivePlugin) registerScriptingHandlers() {
	dispatch.Register(hp.d, dispatch.ScriptingSetScript, dispatch.Background,
		func(args dispatch.Args) (sc scriptCall, err error) {
			if sc, err = hp.decodeScript(args); err != nil {
				return
			}
			if sc.first, err = args.Object(2, "executable"); err != nil {
				return
			}
			if len(args) > 3 && args[3] != nil {
				sc.second, err = args.Object(3, "condition")
			}
			return
		},
		func(c *dispatch.Call, sc scriptCall) (envelope.Envelope, error) {
			success, err := sc.s.RegisterScript(
				c.Context, sc.name, sc.second, sc.first)
			if err != nil {
				return nil, err
			}
			return envelope.Success(map[string]any{"success": success}), nil
		})

	dispatch.Register(hp.d, dispatch.ScriptingRegisterSubCondition,
		dispatch.Background,
		func(args dispatch.Args) (sc scriptCall, err error) {
			if sc, err = hp.decodeScript(args); err != nil {
				return
			}
			sc.first, err = args.Object(2, "condition")
			return
		},
		func(c *dispatch.Call, sc scriptCall) (envelope.Envelope, error) {
			return nil, sc.s.RegisterSubCondition(c.Context, sc.name, sc.first)
		})

	dispatch.Register(hp.d, dispatch.ScriptingCall, dispatch.Background,
		func(args dispatch.Args) (sc scriptCall, err error) {
			if sc, err = hp.decodeScript(args); err != nil {
				return
			}
			if sc.first, err = args.OptionalObject(2, "params"); err != nil {
				return
			}
			sc.appDid, err = args.OptionalString(3, "appDid", "")
			return
		},
		func(c *dispatch.Call, sc scriptCall) (envelope.Envelope, error) {
			res, err := sc.s.CallScript(c.Context, sc.name, sc.first, sc.appDid)
			if err != nil {
				return nil, err
			}
			return envelope.Document(res), nil
		})

	dispatch.Register(hp.d, dispatch.ScriptingUploadFile, dispatch.Background,
		hp.vaultAndString("transactionId"),
		func(c *dispatch.Call, vs vaultString) (envelope.Envelope, error) {
			w, err := vs.v.Scripting().UploadFile(c.Context, vs.s)
			if err != nil {
				return nil, err
			}
			return hp.register(handles.FileWriter, &writerStream{w: w}), nil
		})

	dispatch.Register(hp.d, dispatch.ScriptingDownloadFile, dispatch.Background,
		hp.vaultAndString("transactionId"),
		func(c *dispatch.Call, vs vaultString) (envelope.Envelope, error) {
			r, err := vs.v.Scripting().DownloadFile(c.Context, vs.s)
			if err != nil {
				return nil, err
			}
			return hp.register(handles.FileReader, &readerStream{r: r}), nil
		})
}
