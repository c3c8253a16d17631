////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package vault

import (
	"encoding/json"
	"sort"

	"github.com/pkg/errors"
)

// Order is the direction of a sort field.
type Order int

// Sort orders, as sent by the Javascript side.
const (
	Ascending  Order = 1
	Descending Order = -1
)

// SortField is a single sort criterion of a find query.
type SortField struct {
	Field string
	Order Order
}

// FindOptions are the options of FindOne and FindMany.
type FindOptions struct {
	Limit      int
	Skip       int
	Sort       []SortField
	Projection Document
}

// InsertOptions are the options of InsertOne and InsertMany.
type InsertOptions struct {
	BypassDocumentValidation bool
}

// CountOptions are the options of CountDocuments.
type CountOptions struct {
	Limit int
	Skip  int
}

// UpdateOptions are the options of UpdateOne and UpdateMany.
type UpdateOptions struct {
	Upsert bool
}

// DeleteOptions are the options of DeleteOne and DeleteMany. The SDK does not
// define any yet.
type DeleteOptions struct{}

// InsertResult is returned by InsertOne.
type InsertResult struct {
	InsertedID string `json:"insertedId"`
}

// InsertManyResult is returned by InsertMany.
type InsertManyResult struct {
	InsertedIDs []string `json:"insertedIds"`
}

// UpdateResult is returned by UpdateOne and UpdateMany.
type UpdateResult struct {
	MatchedCount  int64  `json:"matchedCount"`
	ModifiedCount int64  `json:"modifiedCount"`
	UpsertedCount int64  `json:"upsertedCount"`
	UpsertedID    string `json:"upsertedId"`
}

// DeleteResult is returned by DeleteOne and DeleteMany.
type DeleteResult struct {
	DeletedCount int64 `json:"deletedCount"`
}

// FileType describes if a FileInfo is a file or a folder.
type FileType int

// File types, as sent over the wire.
const (
	TypeFile   FileType = 0
	TypeFolder FileType = 1
)

// FileInfo describes a remote file or folder.
type FileInfo struct {
	Name         string   `json:"name"`
	Size         int64    `json:"size"`
	LastModified int64    `json:"lastModified"`
	Type         FileType `json:"type"`
}

// findOptionsJSON is the Javascript representation of FindOptions.
type findOptionsJSON struct {
	Limit      *int           `json:"limit,omitempty"`
	Skip       *int           `json:"skip,omitempty"`
	Sort       map[string]int `json:"sort,omitempty"`
	Projection Document       `json:"projection,omitempty"`
}

// FindOptionsFromJSON converts the Javascript find options object into
// FindOptions. A nil or empty object results in the default options. Sort
// fields are ordered by name since Javascript object key order is not kept.
func FindOptionsFromJSON(obj Document) (FindOptions, error) {
	var opts FindOptions
	if len(obj) == 0 {
		return opts, nil
	}

	data, err := json.Marshal(obj)
	if err != nil {
		return opts, errors.Wrap(err, "failed to marshal find options")
	}

	var fj findOptionsJSON
	if err = json.Unmarshal(data, &fj); err != nil {
		return opts, errors.Wrap(err, "invalid find options")
	}

	if fj.Limit != nil {
		opts.Limit = *fj.Limit
	}
	if fj.Skip != nil {
		opts.Skip = *fj.Skip
	}
	opts.Projection = fj.Projection

	fields := make([]string, 0, len(fj.Sort))
	for field := range fj.Sort {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		order := Descending
		if fj.Sort[field] == int(Ascending) {
			order = Ascending
		}
		opts.Sort = append(opts.Sort, SortField{field, order})
	}

	return opts, nil
}

// JSON returns the Javascript representation of the options. It is the
// inverse of FindOptionsFromJSON.
func (opts FindOptions) JSON() Document {
	obj := Document{}
	if opts.Limit > 0 {
		obj["limit"] = opts.Limit
	}
	if opts.Skip > 0 {
		obj["skip"] = opts.Skip
	}
	if len(opts.Sort) > 0 {
		sortObj := Document{}
		for _, f := range opts.Sort {
			sortObj[f.Field] = int(f.Order)
		}
		obj["sort"] = sortObj
	}
	if len(opts.Projection) > 0 {
		obj["projection"] = opts.Projection
	}
	return obj
}

// JSON returns the Javascript representation of the options.
func (opts InsertOptions) JSON() Document {
	return Document{"bypassDocumentValidation": opts.BypassDocumentValidation}
}

// JSON returns the Javascript representation of the options.
func (opts CountOptions) JSON() Document {
	obj := Document{}
	if opts.Limit > 0 {
		obj["limit"] = opts.Limit
	}
	if opts.Skip > 0 {
		obj["skip"] = opts.Skip
	}
	return obj
}

// JSON returns the Javascript representation of the options.
func (opts UpdateOptions) JSON() Document {
	return Document{"upsert": opts.Upsert}
}

// UpdateOptionsFromJSON converts the Javascript update options object into
// UpdateOptions.
func UpdateOptionsFromJSON(obj Document) UpdateOptions {
	upsert, _ := obj["upsert"].(bool)
	return UpdateOptions{Upsert: upsert}
}

// CountOptionsFromJSON converts the Javascript count options object into
// CountOptions. Non-numeric values are ignored.
func CountOptionsFromJSON(obj Document) CountOptions {
	var opts CountOptions
	if limit, ok := number(obj["limit"]); ok {
		opts.Limit = limit
	}
	if skip, ok := number(obj["skip"]); ok {
		opts.Skip = skip
	}
	return opts
}

// number returns the integer value of a JSON number or of a Go integer.
func number(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case int64:
		return int(n), true
	default:
		return 0, false
	}
}
