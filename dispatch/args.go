////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package dispatch

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"

	"github.com/pkg/errors"

	"gitlab.com/elixxir/hive-wasm/envelope"
	"gitlab.com/elixxir/hive-wasm/handles"
)

// Args are the positional arguments of a dispatched call, as decoded from
// JSON. Each accessor takes the position of the argument and a name used in
// the error message, and fails with an error wrapping envelope.ErrValidation.
type Args []any

// invalid returns a validation error for the argument.
func invalid(i int, name, format string, a ...any) error {
	return errors.Wrapf(envelope.ErrValidation, "argument %d (%s) %s",
		i, name, fmt.Sprintf(format, a...))
}

// get returns the argument at the position. A missing argument is nil.
func (a Args) get(i int) any {
	if i < 0 || i >= len(a) {
		return nil
	}
	return a[i]
}

// String returns the string argument. The empty string is allowed.
func (a Args) String(i int, name string) (string, error) {
	switch s := a.get(i).(type) {
	case string:
		return s, nil
	case nil:
		return "", invalid(i, name, "is missing")
	default:
		return "", invalid(i, name, "must be a string, received %T", s)
	}
}

// NonEmptyString returns the string argument and fails if it is empty.
func (a Args) NonEmptyString(i int, name string) (string, error) {
	s, err := a.String(i, name)
	if err != nil {
		return "", err
	} else if s == "" {
		return "", invalid(i, name, "must not be empty")
	}
	return s, nil
}

// OptionalString returns the string argument or def if it is missing.
func (a Args) OptionalString(i int, name, def string) (string, error) {
	if a.get(i) == nil {
		return def, nil
	}
	return a.String(i, name)
}

// Handle returns the object ID argument.
func (a Args) Handle(i int, name string) (handles.ID, error) {
	id, err := handles.ParseID(a.get(i))
	if err != nil {
		return 0, invalid(i, name, "%s", err)
	}
	return id, nil
}

// maxSafeInteger is the largest integer a Javascript number holds exactly.
const maxSafeInteger = 1<<53 - 1

// Int returns the integer argument. Integers outside the range Javascript
// represents exactly are rejected.
func (a Args) Int(i int, name string) (int, error) {
	var v int64
	switch n := a.get(i).(type) {
	case int:
		v = int64(n)
	case int64:
		v = n
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return 0, invalid(i, name, "must be an integer, received %v", n)
		}
		if math.Abs(n) > maxSafeInteger {
			return 0, invalid(i, name, "must be a safe integer, received %v", n)
		}
		v = int64(n)
	case json.Number:
		var err error
		if v, err = n.Int64(); err != nil {
			return 0, invalid(i, name, "must be an integer, received %s", n)
		}
	case nil:
		return 0, invalid(i, name, "is missing")
	default:
		return 0, invalid(i, name, "must be a number, received %T", n)
	}

	if v > maxSafeInteger || v < -maxSafeInteger {
		return 0, invalid(i, name, "must be a safe integer, received %d", v)
	}
	return int(v), nil
}

// OptionalInt returns the integer argument or def if it is missing.
func (a Args) OptionalInt(i int, name string, def int) (int, error) {
	if a.get(i) == nil {
		return def, nil
	}
	return a.Int(i, name)
}

// Object returns the JSON object argument.
func (a Args) Object(i int, name string) (map[string]any, error) {
	switch o := a.get(i).(type) {
	case map[string]any:
		return o, nil
	case nil:
		return nil, invalid(i, name, "is missing")
	default:
		return nil, invalid(i, name, "must be an object, received %T", o)
	}
}

// OptionalObject returns the JSON object argument or an empty object if it is
// missing.
func (a Args) OptionalObject(i int, name string) (map[string]any, error) {
	if a.get(i) == nil {
		return map[string]any{}, nil
	}
	return a.Object(i, name)
}

// Array returns the JSON array argument.
func (a Args) Array(i int, name string) ([]any, error) {
	switch l := a.get(i).(type) {
	case []any:
		return l, nil
	case nil:
		return nil, invalid(i, name, "is missing")
	default:
		return nil, invalid(i, name, "must be an array, received %T", l)
	}
}

// ObjectArray returns the JSON array argument whose elements are all objects.
func (a Args) ObjectArray(i int, name string) ([]map[string]any, error) {
	if l, ok := a.get(i).([]map[string]any); ok {
		return l, nil
	}
	l, err := a.Array(i, name)
	if err != nil {
		return nil, err
	}
	objects := make([]map[string]any, len(l))
	for j, v := range l {
		o, ok := v.(map[string]any)
		if !ok {
			return nil, invalid(i, name,
				"must only contain objects, element %d is %T", j, v)
		}
		objects[j] = o
	}
	return objects, nil
}

// StringArray returns the JSON array argument whose elements are all strings.
func (a Args) StringArray(i int, name string) ([]string, error) {
	if l, ok := a.get(i).([]string); ok {
		return l, nil
	}
	l, err := a.Array(i, name)
	if err != nil {
		return nil, err
	}
	strs := make([]string, len(l))
	for j, v := range l {
		s, ok := v.(string)
		if !ok {
			return nil, invalid(i, name,
				"must only contain strings, element %d is %T", j, v)
		}
		strs[j] = s
	}
	return strs, nil
}

// Bytes returns the binary argument, sent as a base64 string.
func (a Args) Bytes(i int, name string) ([]byte, error) {
	s, err := a.String(i, name)
	if err != nil {
		return nil, err
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, invalid(i, name, "is not valid base64: %s", err)
	}
	return data, nil
}
