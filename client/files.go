////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package client

import (
	"context"
	"encoding/base64"
	"sync"

	"github.com/pkg/errors"

	"gitlab.com/elixxir/hive-wasm/dispatch"
	"gitlab.com/elixxir/hive-wasm/vault"
)

// Files is the file storage of a vault.
type Files struct {
	v *Vault
}

// Upload opens a writer on the remote file. Its content is committed when the
// writer is closed.
func (f *Files) Upload(ctx context.Context, path string) (*Writer, error) {
	return openWriter(ctx, f.v.b, dispatch.FilesUpload, f.v.id, path)
}

// Download opens a reader on the remote file.
func (f *Files) Download(ctx context.Context, path string) (*Reader, error) {
	return openReader(ctx, f.v.b, dispatch.FilesDownload, f.v.id, path)
}

// Delete deletes the file or folder. Returns false if it does not exist.
func (f *Files) Delete(ctx context.Context, path string) (bool, error) {
	return f.success(ctx, dispatch.FilesDelete, path)
}

// Move moves the file to the destination path.
func (f *Files) Move(ctx context.Context, src, dst string) (bool, error) {
	return f.success(ctx, dispatch.FilesMove, src, dst)
}

func (f *Files) success(
	ctx context.Context, method string, paths ...string) (bool, error) {
	args := []any{f.v.id}
	for _, p := range paths {
		args = append(args, p)
	}
	var res struct {
		Success bool `json:"success"`
	}
	return res.Success, f.v.b.callDecode(ctx, &res, method, args...)
}

// Copy copies the file to the destination path.
func (f *Files) Copy(ctx context.Context, src, dst string) error {
	_, err := f.v.b.call(ctx, dispatch.FilesCopy, f.v.id, src, dst)
	return err
}

// Hash returns the hex encoded SHA-256 hash of the file.
func (f *Files) Hash(ctx context.Context, path string) (string, error) {
	var hash string
	return hash, f.v.b.callDecode(ctx, &hash, dispatch.FilesHash, f.v.id, path)
}

// List returns the files and folders directly under the path. An empty path
// lists the root of the vault.
func (f *Files) List(ctx context.Context, path string) ([]vault.FileInfo, error) {
	var infos []vault.FileInfo
	return infos, f.v.b.callDecode(ctx, &infos, dispatch.FilesList, f.v.id, path)
}

// Stat returns the information of the file, or nil if it does not exist.
func (f *Files) Stat(ctx context.Context, path string) (*vault.FileInfo, error) {
	var info *vault.FileInfo
	return info, f.v.b.callDecode(ctx, &info, dispatch.FilesStat, f.v.id, path)
}

// openWriter dispatches a call that registers a writer.
func openWriter(ctx context.Context, b *Bridge, method string,
	args ...any) (*Writer, error) {
	var ref objectRef
	if err := b.callDecode(ctx, &ref, method, args...); err != nil {
		return nil, err
	}
	return &Writer{b: b, id: ref.ObjectID}, nil
}

// openReader dispatches a call that registers a reader.
func openReader(ctx context.Context, b *Bridge, method string,
	args ...any) (*Reader, error) {
	var ref objectRef
	if err := b.callDecode(ctx, &ref, method, args...); err != nil {
		return nil, err
	}
	return &Reader{b: b, id: ref.ObjectID}, nil
}

// Writer streams data into a remote file. Writes are sent in order.
type Writer struct {
	b   *Bridge
	id  string
	mux sync.Mutex
}

// ObjectID returns the handle of the writer.
func (w *Writer) ObjectID() string { return w.id }

// Write sends the data to the writer and returns the number of bytes written.
func (w *Writer) Write(ctx context.Context, data []byte) (int, error) {
	w.mux.Lock()
	defer w.mux.Unlock()
	var res struct {
		Length int `json:"length"`
	}
	err := w.b.callDecode(ctx, &res, dispatch.WriterWrite, w.id,
		base64.StdEncoding.EncodeToString(data))
	return res.Length, err
}

// Flush flushes the writer.
func (w *Writer) Flush(ctx context.Context) error {
	w.mux.Lock()
	defer w.mux.Unlock()
	_, err := w.b.call(ctx, dispatch.WriterFlush, w.id)
	return err
}

// Close commits the file and releases the writer.
func (w *Writer) Close(ctx context.Context) error {
	w.mux.Lock()
	defer w.mux.Unlock()
	_, err := w.b.call(ctx, dispatch.WriterClose, w.id)
	return err
}

// Reader streams data out of a remote file.
type Reader struct {
	b  *Bridge
	id string
}

// ObjectID returns the handle of the reader.
func (r *Reader) ObjectID() string { return r.id }

// Read returns up to size bytes. It returns nil once the file is exhausted.
func (r *Reader) Read(ctx context.Context, size int) ([]byte, error) {
	return r.read(ctx, dispatch.ReaderRead, r.id, size)
}

// ReadAll returns the rest of the file. Progress events are sent to the
// result listener while it is read.
func (r *Reader) ReadAll(ctx context.Context) ([]byte, error) {
	return r.read(ctx, dispatch.ReaderReadAll, r.id)
}

func (r *Reader) read(ctx context.Context, method string,
	args ...any) ([]byte, error) {
	var encoded *string
	if err := r.b.callDecode(ctx, &encoded, method, args...); err != nil {
		return nil, err
	} else if encoded == nil {
		return nil, nil
	}

	data, err := base64.StdEncoding.DecodeString(*encoded)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid data from reader %s", r.id)
	}
	return data, nil
}

// Close releases the reader.
func (r *Reader) Close(ctx context.Context) error {
	_, err := r.b.call(ctx, dispatch.ReaderClose, r.id)
	return err
}
