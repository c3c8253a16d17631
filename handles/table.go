////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package handles tracks the native objects that Javascript refers to by ID.
package handles

import (
	"encoding/json"
	"math"
	"strconv"
	"sync"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"

	"gitlab.com/elixxir/hive-wasm/envelope"
)

// Kind is the type of object tracked by a handle. Each kind has its own ID
// space.
type Kind uint8

// Handle kinds.
const (
	Client Kind = iota
	Vault
	FileReader
	FileWriter
)

// String returns the name of the kind. This functions adheres to the
// fmt.Stringer interface.
func (k Kind) String() string {
	switch k {
	case Client:
		return "client"
	case Vault:
		return "vault"
	case FileReader:
		return "reader"
	case FileWriter:
		return "writer"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// ID identifies a tracked object within its Kind. IDs start at firstID.
type ID uint64

// firstID is the first ID handed out for each kind. Zero is never used so
// that a missing Javascript argument cannot alias a live object.
const firstID ID = 1

// maxSafeInteger is the largest integer a Javascript number holds exactly.
const maxSafeInteger = 1<<53 - 1

// String returns the decimal form of the ID, which is how it is sent to
// Javascript.
func (id ID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// ParseID parses an ID received from Javascript. It accepts JSON numbers and
// decimal strings.
func ParseID(v any) (ID, error) {
	switch id := v.(type) {
	case ID:
		return id, nil
	case string:
		n, err := strconv.ParseUint(id, 10, 64)
		if err != nil || n == 0 {
			return 0, errors.Errorf("invalid object ID %q", id)
		}
		return ID(n), nil
	case float64:
		if id < 1 || id != math.Trunc(id) || id > maxSafeInteger {
			return 0, errors.Errorf("invalid object ID %v", id)
		}
		return ID(id), nil
	case int:
		if id < 1 {
			return 0, errors.Errorf("invalid object ID %d", id)
		}
		return ID(id), nil
	case int64:
		if id < 1 {
			return 0, errors.Errorf("invalid object ID %d", id)
		}
		return ID(id), nil
	case uint64:
		if id == 0 {
			return 0, errors.Errorf("invalid object ID %d", id)
		}
		return ID(id), nil
	case json.Number:
		return ParseID(id.String())
	case nil:
		return 0, errors.New("missing object ID")
	default:
		return 0, errors.Errorf("object ID of type %T is not supported", v)
	}
}

// Table maps IDs to the live objects they refer to. IDs are never reused for
// the lifetime of the table, even after the object is released.
type Table struct {
	objects map[Kind]map[ID]any
	nextIDs map[Kind]ID
	mux     sync.Mutex
}

// NewTable returns an empty Table.
func NewTable() *Table {
	return &Table{
		objects: make(map[Kind]map[ID]any),
		nextIDs: make(map[Kind]ID),
	}
}

// Register tracks the object under the next ID of the kind and returns the ID.
// Panics if the object is nil.
func (t *Table) Register(kind Kind, object any) ID {
	if object == nil {
		jww.FATAL.Panicf("[HANDLES] Cannot register nil %s", kind)
	}

	t.mux.Lock()
	defer t.mux.Unlock()

	id := t.getNextID(kind)
	if _, exists := t.objects[kind]; !exists {
		t.objects[kind] = make(map[ID]any)
	}
	t.objects[kind][id] = object

	jww.TRACE.Printf("[HANDLES] Registered %s %d", kind, id)

	return id
}

// Lookup returns the object registered under the kind and ID. Returns an error
// wrapping envelope.ErrHandleNotFound if none is registered.
func (t *Table) Lookup(kind Kind, id ID) (any, error) {
	t.mux.Lock()
	defer t.mux.Unlock()

	object, exists := t.objects[kind][id]
	if !exists {
		return nil, notFound(kind, id)
	}
	return object, nil
}

// Release stops tracking the object and returns it. Releasing an ID twice
// returns a handle not found error the second time.
func (t *Table) Release(kind Kind, id ID) (any, error) {
	t.mux.Lock()
	defer t.mux.Unlock()

	object, exists := t.objects[kind][id]
	if !exists {
		return nil, notFound(kind, id)
	}
	delete(t.objects[kind], id)

	jww.TRACE.Printf("[HANDLES] Released %s %d", kind, id)

	return object, nil
}

// Len returns the number of objects of the kind currently tracked.
func (t *Table) Len(kind Kind) int {
	t.mux.Lock()
	defer t.mux.Unlock()
	return len(t.objects[kind])
}

// Drain stops tracking every object and returns them. The ID counters are kept
// so that IDs handed out before the drain are never reused.
func (t *Table) Drain() []any {
	t.mux.Lock()
	defer t.mux.Unlock()

	var objects []any
	for kind, byID := range t.objects {
		for _, object := range byID {
			objects = append(objects, object)
		}
		delete(t.objects, kind)
	}
	return objects
}

// getNextID returns the next unique ID for the given kind. This function is
// not thread-safe.
func (t *Table) getNextID(kind Kind) ID {
	if _, exists := t.nextIDs[kind]; !exists {
		t.nextIDs[kind] = firstID
	}

	id := t.nextIDs[kind]
	t.nextIDs[kind]++
	return id
}

// LookupAs returns the object registered under the kind and ID as a T.
// An object of another type is reported as not found.
func LookupAs[T any](t *Table, kind Kind, id ID) (T, error) {
	var zero T
	object, err := t.Lookup(kind, id)
	if err != nil {
		return zero, err
	}
	typed, ok := object.(T)
	if !ok {
		return zero, errors.Wrapf(envelope.ErrHandleNotFound,
			"%s %d is a %T", kind, id, object)
	}
	return typed, nil
}

func notFound(kind Kind, id ID) error {
	return errors.Wrapf(envelope.ErrHandleNotFound, "no %s with ID %d", kind, id)
}
