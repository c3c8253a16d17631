////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package envelope contains the normalised reply shape of every bridge call,
// the error-code taxonomy and the classifier that maps SDK errors onto it.
package envelope

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// Status is the value of the status field of an Envelope.
type Status string

// Envelope statuses.
const (
	// StatusSuccess is the terminal status of a call that completed.
	StatusSuccess Status = "success"

	// StatusError is the terminal status of a call that failed.
	StatusError Status = "error"

	// StatusOK is used for events sent on a keepAlive channel, such as
	// authentication challenges.
	StatusOK Status = "ok"

	// StatusProgress is used for streaming progress events.
	StatusProgress Status = "progress"
)

// Envelope keys.
const (
	statusKey  = "status"
	messageKey = "message"
	codeKey    = "code"
	valueKey   = "value"

	// PayloadKey carries the data of a keepAlive event.
	PayloadKey = "payload"

	// ObjectIDKey carries the handle of a registered native object.
	ObjectIDKey = "objectId"

	// BytesKey carries the byte count of a progress event.
	BytesKey = "bytes"
)

// Envelope is the reply to a bridge call. It is always a JSON object with a
// status field; the rest of its fields depend on the call.
type Envelope map[string]any

// ReplyFunc is the transport level reply slot of a request. It is called once
// per envelope; keepAlive reports whether the slot stays armed afterward.
type ReplyFunc func(env Envelope, keepAlive bool)

// Success returns a success envelope with the fields flattened next to the
// status.
func Success(fields map[string]any) Envelope {
	env := Envelope{statusKey: StatusSuccess}
	for k, v := range fields {
		if k == statusKey {
			continue
		}
		env[k] = v
	}
	return env
}

// Value returns a success envelope for a result that is not an object, such as
// a string, a list or null.
func Value(v any) Envelope {
	return Envelope{statusKey: StatusSuccess, valueKey: v}
}

// Document returns a success envelope for a document result. The document is
// flattened into the envelope unless one of its keys would collide with the
// status or value keys, in which case it is nested under value. A nil document
// results in a null value.
func Document(doc map[string]any) Envelope {
	if doc == nil {
		return Value(nil)
	}
	_, hasStatus := doc[statusKey]
	_, hasValue := doc[valueKey]
	if hasStatus || hasValue {
		return Value(doc)
	}
	return Success(doc)
}

// Event returns a keepAlive event envelope carrying the payload.
func Event(status Status, payload any) Envelope {
	return Envelope{statusKey: status, PayloadKey: payload}
}

// Progress returns a keepAlive progress event of the stream with the object
// ID, carrying the number of bytes transferred so far.
func Progress(objectID string, bytes int64) Envelope {
	return Envelope{
		statusKey:   StatusProgress,
		ObjectIDKey: objectID,
		BytesKey:    bytes,
	}
}

// Error returns an error envelope without a code. The absence of a code marks
// the error as opaque.
func Error(message string) Envelope {
	return Envelope{statusKey: StatusError, messageKey: message}
}

// CodedError returns an error envelope with a classified code.
func CodedError(code ErrorCode, message string) Envelope {
	return Envelope{statusKey: StatusError, codeKey: code, messageKey: message}
}

// FromError classifies the error and returns its error envelope.
func FromError(err error) Envelope {
	if err == nil {
		return Success(nil)
	}
	code, message := Classify(err)
	return CodedError(code, message)
}

// Status returns the status of the envelope.
func (env Envelope) Status() Status {
	switch s := env[statusKey].(type) {
	case Status:
		return s
	case string:
		return Status(s)
	default:
		return ""
	}
}

// IsError returns true if the envelope is an error envelope.
func (env Envelope) IsError() bool {
	return env.Status() == StatusError
}

// Message returns the error message of the envelope.
func (env Envelope) Message() string {
	msg, _ := env[messageKey].(string)
	return msg
}

// Code returns the error code of the envelope and whether one is present. It
// accepts both native codes and codes that went through JSON.
func (env Envelope) Code() (ErrorCode, bool) {
	switch c := env[codeKey].(type) {
	case ErrorCode:
		return c, true
	case int:
		return ErrorCode(c), true
	case int64:
		return ErrorCode(c), true
	case float64:
		return ErrorCode(c), true
	case json.Number:
		i, err := c.Int64()
		if err != nil {
			return Unspecified, false
		}
		return ErrorCode(i), true
	default:
		return Unspecified, false
	}
}

// Result returns the result carried by a success envelope: the value of a
// value envelope or the remaining fields of a flattened one.
func (env Envelope) Result() any {
	if v, exists := env[valueKey]; exists && len(env) == 2 {
		return v
	}
	fields := make(map[string]any, len(env))
	for k, v := range env {
		if k != statusKey {
			fields[k] = v
		}
	}
	return fields
}

// Decode unmarshalls the result of the envelope into v by going through JSON,
// the same way it would reach the Javascript side.
func (env Envelope) Decode(v any) error {
	data, err := json.Marshal(env.Result())
	if err != nil {
		return errors.Wrap(err, "failed to marshal envelope result")
	}
	return errors.Wrap(json.Unmarshal(data, v), "failed to decode envelope result")
}

// Normalize returns a copy of the envelope as it is seen after crossing the
// JSON wire: numbers become float64 and typed values lose their Go types.
func (env Envelope) Normalize() (Envelope, error) {
	data, err := json.Marshal(env)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal envelope")
	}
	var out Envelope
	if err = json.Unmarshal(data, &out); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal envelope")
	}
	return out, nil
}
