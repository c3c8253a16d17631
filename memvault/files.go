////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package memvault

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"gitlab.com/elixxir/hive-wasm/vault"
)

// file is a stored file.
type file struct {
	data     []byte
	modified time.Time
}

// files adheres to the vault.Files interface. Folders are not stored; they
// exist as long as a file is stored below them.
type files struct{ v *vaultHandle }

// cleanPath returns the path without leading or trailing slashes.
func cleanPath(p string) string {
	p = path.Clean("/" + p)
	return strings.TrimPrefix(p, "/")
}

func fileNotFound(p string) error {
	return errors.Wrapf(vault.ErrFileNotFound, "item not found: %s", p)
}

func (f *files) Upload(ctx context.Context, p string) (vault.Writer, error) {
	unlock, err := f.v.begin(ctx, "Upload", p)
	if err != nil {
		return nil, err
	}
	defer unlock()
	return newWriter(f.v.vs, cleanPath(p)), nil
}

func (f *files) Download(ctx context.Context, p string) (vault.Reader, error) {
	unlock, err := f.v.begin(ctx, "Download", p)
	if err != nil {
		return nil, err
	}
	defer unlock()

	r, err := openReader(f.v.vs, cleanPath(p))
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (f *files) Delete(ctx context.Context, p string) (bool, error) {
	unlock, err := f.v.begin(ctx, "Delete", p)
	if err != nil {
		return false, err
	}
	defer unlock()

	p = cleanPath(p)
	if _, exists := f.v.vs.files[p]; exists {
		delete(f.v.vs.files, p)
		return true, nil
	}

	// Deleting a folder deletes everything below it
	var deleted bool
	for name := range f.v.vs.files {
		if strings.HasPrefix(name, p+"/") {
			delete(f.v.vs.files, name)
			deleted = true
		}
	}
	if !deleted {
		return false, fileNotFound(p)
	}
	return true, nil
}

func (f *files) Move(ctx context.Context, src, dst string) (bool, error) {
	unlock, err := f.v.begin(ctx, "Move", src, dst)
	if err != nil {
		return false, err
	}
	defer unlock()

	src, dst = cleanPath(src), cleanPath(dst)
	fl, exists := f.v.vs.files[src]
	if !exists {
		return false, fileNotFound(src)
	}
	delete(f.v.vs.files, src)
	f.v.vs.files[dst] = fl
	return true, nil
}

func (f *files) Copy(ctx context.Context, src, dst string) error {
	unlock, err := f.v.begin(ctx, "Copy", src, dst)
	if err != nil {
		return err
	}
	defer unlock()

	src, dst = cleanPath(src), cleanPath(dst)
	fl, exists := f.v.vs.files[src]
	if !exists {
		return fileNotFound(src)
	}
	f.v.vs.files[dst] = &file{
		data:     append([]byte(nil), fl.data...),
		modified: time.Now(),
	}
	return nil
}

func (f *files) Hash(ctx context.Context, p string) (string, error) {
	unlock, err := f.v.begin(ctx, "Hash", p)
	if err != nil {
		return "", err
	}
	defer unlock()

	fl, exists := f.v.vs.files[cleanPath(p)]
	if !exists {
		return "", fileNotFound(p)
	}
	sum := sha256.Sum256(fl.data)
	return hex.EncodeToString(sum[:]), nil
}

func (f *files) List(ctx context.Context, p string) ([]vault.FileInfo, error) {
	unlock, err := f.v.begin(ctx, "List", p)
	if err != nil {
		return nil, err
	}
	defer unlock()

	p = cleanPath(p)
	prefix := ""
	if p != "" {
		prefix = p + "/"
	}

	entries := make(map[string]vault.FileInfo)
	for name, fl := range f.v.vs.files {
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		rest := strings.TrimPrefix(name, prefix)
		if i := strings.Index(rest, "/"); i >= 0 {
			folder := rest[:i]
			info := entries[folder]
			info.Name, info.Type = folder, vault.TypeFolder
			if m := fl.modified.Unix(); m > info.LastModified {
				info.LastModified = m
			}
			entries[folder] = info
			continue
		}
		entries[rest] = vault.FileInfo{
			Name:         rest,
			Size:         int64(len(fl.data)),
			LastModified: fl.modified.Unix(),
			Type:         vault.TypeFile,
		}
	}

	if len(entries) == 0 && p != "" {
		return nil, fileNotFound(p)
	}

	list := make([]vault.FileInfo, 0, len(entries))
	for _, info := range entries {
		list = append(list, info)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list, nil
}

func (f *files) Stat(ctx context.Context, p string) (*vault.FileInfo, error) {
	unlock, err := f.v.begin(ctx, "Stat", p)
	if err != nil {
		return nil, err
	}
	defer unlock()

	p = cleanPath(p)
	if fl, exists := f.v.vs.files[p]; exists {
		return &vault.FileInfo{
			Name:         path.Base(p),
			Size:         int64(len(fl.data)),
			LastModified: fl.modified.Unix(),
			Type:         vault.TypeFile,
		}, nil
	}
	for name, fl := range f.v.vs.files {
		if strings.HasPrefix(name, p+"/") {
			return &vault.FileInfo{
				Name:         path.Base(p),
				LastModified: fl.modified.Unix(),
				Type:         vault.TypeFolder,
			}, nil
		}
	}
	return nil, nil
}

// writer adheres to the vault.Writer interface. Written data is stored on
// every Flush and on Close.
type writer struct {
	vs     *vaultState
	path   string
	buf    bytes.Buffer
	closed bool
	mux    sync.Mutex
}

func newWriter(vs *vaultState, p string) *writer {
	return &writer{vs: vs, path: p}
}

var errClosed = errors.New("stream is closed")

func (w *writer) Write(p []byte) (int, error) {
	w.mux.Lock()
	defer w.mux.Unlock()
	if w.closed {
		return 0, errClosed
	}
	return w.buf.Write(p)
}

func (w *writer) Flush() error {
	w.mux.Lock()
	defer w.mux.Unlock()
	if w.closed {
		return errClosed
	}
	w.commit()
	return nil
}

func (w *writer) Close() error {
	w.mux.Lock()
	defer w.mux.Unlock()
	if w.closed {
		return errClosed
	}
	w.closed = true
	w.commit()
	return nil
}

// commit stores the data written so far. Must be called while holding the
// writer lock.
func (w *writer) commit() {
	w.vs.mux.Lock()
	defer w.vs.mux.Unlock()
	w.vs.files[w.path] = &file{
		data:     append([]byte(nil), w.buf.Bytes()...),
		modified: time.Now(),
	}
}

// reader adheres to the vault.Reader interface. It reads a snapshot of the
// file taken when it was opened.
type reader struct {
	r      *bytes.Reader
	closed bool
	mux    sync.Mutex
}

// openReader returns a reader of the file. Must be called while holding the
// vault lock.
func openReader(vs *vaultState, p string) (*reader, error) {
	fl, exists := vs.files[p]
	if !exists {
		return nil, fileNotFound(p)
	}
	return &reader{r: bytes.NewReader(append([]byte(nil), fl.data...))}, nil
}

func (r *reader) Read(p []byte) (int, error) {
	r.mux.Lock()
	defer r.mux.Unlock()
	if r.closed {
		return 0, errClosed
	}
	return r.r.Read(p)
}

func (r *reader) Close() error {
	r.mux.Lock()
	defer r.mux.Unlock()
	if r.closed {
		return errClosed
	}
	r.closed = true
	return nil
}
