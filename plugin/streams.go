////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package plugin

import (
	"bytes"
	"encoding/base64"
	"io"
	"sync"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"

	"gitlab.com/elixxir/hive-wasm/dispatch"
	"gitlab.com/elixxir/hive-wasm/envelope"
	"gitlab.com/elixxir/hive-wasm/handles"
	"gitlab.com/elixxir/hive-wasm/vault"
)

// writerStream is a registered SDK writer. Operations on one stream run one at
// a time, in the order they acquire the lock.
type writerStream struct {
	w   vault.Writer
	mux sync.Mutex
}

func (s *writerStream) Write(p []byte) (int, error) {
	s.mux.Lock()
	defer s.mux.Unlock()
	return s.w.Write(p)
}

func (s *writerStream) Flush() error {
	s.mux.Lock()
	defer s.mux.Unlock()
	return s.w.Flush()
}

func (s *writerStream) Close() error {
	s.mux.Lock()
	defer s.mux.Unlock()
	return s.w.Close()
}

// readerStream is a registered SDK reader. Operations on one stream run one at
// a time, in the order they acquire the lock.
type readerStream struct {
	r   vault.Reader
	mux sync.Mutex
}

// read reads up to n bytes. It returns io.EOF only when no byte is left.
func (s *readerStream) read(n int) ([]byte, error) {
	s.mux.Lock()
	defer s.mux.Unlock()

	buf := make([]byte, n)
	read, err := io.ReadFull(s.r, buf)
	if err == io.ErrUnexpectedEOF {
		err = nil
	}
	return buf[:read], err
}

// readAll reads the rest of the stream in chunks of the given size. The
// progress function is called with the total number of bytes read after each
// chunk.
func (s *readerStream) readAll(chunkSize int, progress func(total int64)) ([]byte, error) {
	s.mux.Lock()
	defer s.mux.Unlock()

	var buf bytes.Buffer
	chunk := make([]byte, chunkSize)
	for {
		n, err := s.r.Read(chunk)
		if n > 0 {
			buf.Write(chunk[:n])
			progress(int64(buf.Len()))
		}
		if err == io.EOF {
			return buf.Bytes(), nil
		} else if err != nil {
			return nil, err
		}
	}
}

func (s *readerStream) Close() error {
	s.mux.Lock()
	defer s.mux.Unlock()
	return s.r.Close()
}

// writerData is the decoded arguments of writer_write.
type writerData struct {
	w    argObject[*writerStream]
	data []byte
}

// readerSize is the decoded arguments of reader_read.
type readerSize struct {
	r    argObject[*readerStream]
	size int
}

// registerStreamHandlers registers the writer and reader methods.
func (hp *HivePlugin) registerStreamHandlers() {
	dispatch.Register(hp.d, dispatch.WriterWrite, dispatch.Background,
		func(args dispatch.Args) (writerData, error) {
			w, err := hp.argWriter(args)
			if err != nil {
				return writerData{}, err
			}
			data, err := args.Bytes(1, "data")
			return writerData{w, data}, err
		},
		func(_ *dispatch.Call, wd writerData) (envelope.Envelope, error) {
			n, err := wd.w.object.Write(wd.data)
			if err != nil {
				return nil, errors.Wrapf(err, "failed to write to writer %d",
					wd.w.id)
			}
			return envelope.Success(map[string]any{"length": n}), nil
		})

	dispatch.Register(hp.d, dispatch.WriterFlush, dispatch.Background,
		hp.argWriter,
		func(_ *dispatch.Call, w argObject[*writerStream]) (envelope.Envelope, error) {
			return nil, errors.Wrapf(w.object.Flush(),
				"failed to flush writer %d", w.id)
		})

	dispatch.Register(hp.d, dispatch.WriterClose, dispatch.Background,
		hp.argWriter,
		func(_ *dispatch.Call, w argObject[*writerStream]) (envelope.Envelope, error) {
			if err := w.object.Close(); err != nil {
				return nil, errors.Wrapf(err, "failed to close writer %d", w.id)
			}
			hp.release(handles.FileWriter, w.id)
			return nil, nil
		})

	dispatch.Register(hp.d, dispatch.ReaderRead, dispatch.Background,
		func(args dispatch.Args) (readerSize, error) {
			r, err := hp.argReader(args)
			if err != nil {
				return readerSize{}, err
			}
			size, err := args.Int(1, "bytesCount")
			if err == nil && size < 1 {
				err = invalidArgument(1, "bytesCount",
					"must be positive, received %d", size)
			} else if err == nil && size > hp.MaxReadSize {
				err = invalidArgument(1, "bytesCount",
					"must be at most %d, received %d", hp.MaxReadSize, size)
			}
			return readerSize{r, size}, err
		},
		func(_ *dispatch.Call, rs readerSize) (envelope.Envelope, error) {
			data, err := rs.r.object.read(rs.size)
			if err == io.EOF {
				return envelope.Value(nil), nil
			} else if err != nil {
				return nil, errors.Wrapf(err, "failed to read from reader %d",
					rs.r.id)
			}
			return envelope.Value(base64.StdEncoding.EncodeToString(data)), nil
		})

	dispatch.Register(hp.d, dispatch.ReaderReadAll, dispatch.Background,
		hp.argReader,
		func(_ *dispatch.Call, r argObject[*readerStream]) (envelope.Envelope, error) {
			data, err := r.object.readAll(hp.ReadAllChunkSize, func(total int64) {
				hp.emit(ResultListener, envelope.Progress(r.id.String(), total))
			})
			if err != nil {
				return nil, errors.Wrapf(err, "failed to read from reader %d",
					r.id)
			}
			return envelope.Value(base64.StdEncoding.EncodeToString(data)), nil
		})

	dispatch.Register(hp.d, dispatch.ReaderClose, dispatch.Background,
		hp.argReader,
		func(_ *dispatch.Call, r argObject[*readerStream]) (envelope.Envelope, error) {
			if err := r.object.Close(); err != nil {
				return nil, errors.Wrapf(err, "failed to close reader %d", r.id)
			}
			hp.release(handles.FileReader, r.id)
			return nil, nil
		})
}

// release removes the handle. A handle already released by a concurrent close
// is ignored.
func (hp *HivePlugin) release(kind handles.Kind, id handles.ID) {
	if _, err := hp.table.Release(kind, id); err != nil {
		jww.DEBUG.Printf("[HIVE] [%s] %s", hp.Name, err)
	}
}
