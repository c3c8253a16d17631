////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package plugin

import (
	jww "github.com/spf13/jwalterweatherman"

	"gitlab.com/elixxir/hive-wasm/dispatch"
	"gitlab.com/elixxir/hive-wasm/envelope"
	"gitlab.com/elixxir/hive-wasm/handles"
	"gitlab.com/elixxir/hive-wasm/vault"
)

// filePaths is the decoded arguments of a file method.
type filePaths struct {
	f   vault.Files
	src string
	dst string
}

// decodePath decodes the vault and a non-empty path.
func (hp *HivePlugin) decodePath(args dispatch.Args) (filePaths, error) {
	v, err := hp.argVault(args)
	if err != nil {
		return filePaths{}, err
	}
	path, err := args.NonEmptyString(1, "path")
	if err != nil {
		return filePaths{}, err
	}
	return filePaths{f: v.Files(), src: path}, nil
}

// decodeSrcDst decodes the vault, a source path and a destination path.
func (hp *HivePlugin) decodeSrcDst(args dispatch.Args) (filePaths, error) {
	fp, err := hp.decodePath(args)
	if err != nil {
		return filePaths{}, err
	}
	fp.dst, err = args.NonEmptyString(2, "destinationPath")
	return fp, err
}

// fileInfo returns the wire form of the file information.
func fileInfo(info vault.FileInfo) map[string]any {
	return map[string]any{
		"name":         info.Name,
		"size":         info.Size,
		"lastModified": info.LastModified,
		"type":         int(info.Type),
	}
}

// registerFileHandlers registers the files methods.
func (hp *HivePlugin) registerFileHandlers() {
	dispatch.Register(hp.d, dispatch.FilesUpload, dispatch.Background,
		hp.decodePath,
		func(c *dispatch.Call, fp filePaths) (envelope.Envelope, error) {
			w, err := fp.f.Upload(c.Context, fp.src)
			if err != nil {
				return nil, err
			}
			return hp.register(handles.FileWriter, &writerStream{w: w}), nil
		})

	dispatch.Register(hp.d, dispatch.FilesDownload, dispatch.Background,
		hp.decodePath,
		func(c *dispatch.Call, fp filePaths) (envelope.Envelope, error) {
			r, err := fp.f.Download(c.Context, fp.src)
			if err != nil {
				return nil, err
			}
			return hp.register(handles.FileReader, &readerStream{r: r}), nil
		})

	dispatch.Register(hp.d, dispatch.FilesDelete, dispatch.Background,
		hp.decodePath,
		func(c *dispatch.Call, fp filePaths) (envelope.Envelope, error) {
			success, err := fp.f.Delete(c.Context, fp.src)
			if err != nil {
				if code, _ := envelope.Classify(err); code != envelope.FileNotFound {
					return nil, err
				}
				jww.DEBUG.Printf("[HIVE] [%s] Nothing to delete at %s: %s",
					hp.Name, fp.src, err)
				success = false
			}
			return envelope.Success(map[string]any{"success": success}), nil
		})

	dispatch.Register(hp.d, dispatch.FilesMove, dispatch.Background,
		hp.decodeSrcDst,
		func(c *dispatch.Call, fp filePaths) (envelope.Envelope, error) {
			success, err := fp.f.Move(c.Context, fp.src, fp.dst)
			if err != nil {
				return nil, err
			}
			return envelope.Success(map[string]any{"success": success}), nil
		})

	dispatch.Register(hp.d, dispatch.FilesCopy, dispatch.Background,
		hp.decodeSrcDst,
		func(c *dispatch.Call, fp filePaths) (envelope.Envelope, error) {
			return nil, fp.f.Copy(c.Context, fp.src, fp.dst)
		})

	dispatch.Register(hp.d, dispatch.FilesHash, dispatch.Background,
		hp.decodePath,
		func(c *dispatch.Call, fp filePaths) (envelope.Envelope, error) {
			hash, err := fp.f.Hash(c.Context, fp.src)
			if err != nil {
				return nil, err
			}
			return envelope.Value(hash), nil
		})

	dispatch.Register(hp.d, dispatch.FilesList, dispatch.Background,
		func(args dispatch.Args) (filePaths, error) {
			v, err := hp.argVault(args)
			if err != nil {
				return filePaths{}, err
			}
			path, err := args.OptionalString(1, "path", "")
			return filePaths{f: v.Files(), src: path}, err
		},
		func(c *dispatch.Call, fp filePaths) (envelope.Envelope, error) {
			list, err := fp.f.List(c.Context, fp.src)
			if err != nil {
				return nil, err
			}
			infos := make([]map[string]any, len(list))
			for i, info := range list {
				infos[i] = fileInfo(info)
			}
			return envelope.Value(infos), nil
		})

	dispatch.Register(hp.d, dispatch.FilesStat, dispatch.Background,
		hp.decodePath,
		func(c *dispatch.Call, fp filePaths) (envelope.Envelope, error) {
			info, err := fp.f.Stat(c.Context, fp.src)
			if err != nil {
				return nil, err
			} else if info == nil {
				return envelope.Value(nil), nil
			}
			return envelope.Success(fileInfo(*info)), nil
		})
}
