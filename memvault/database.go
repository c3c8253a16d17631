////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package memvault

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"gitlab.com/elixxir/hive-wasm/vault"
)

// idField is the field holding the ID of a document.
const idField = "_id"

// database adheres to the vault.Database interface.
type database struct{ v *vaultHandle }

func (d *database) CreateCollection(
	ctx context.Context, name string) (bool, error) {
	unlock, err := d.v.begin(ctx, "CreateCollection", name)
	if err != nil {
		return false, err
	}
	defer unlock()

	if _, exists := d.v.vs.collections[name]; exists {
		return false, nil
	}
	d.v.vs.collections[name] = []vault.Document{}
	return true, nil
}

func (d *database) DeleteCollection(
	ctx context.Context, name string) (bool, error) {
	unlock, err := d.v.begin(ctx, "DeleteCollection", name)
	if err != nil {
		return false, err
	}
	defer unlock()

	if _, exists := d.v.vs.collections[name]; !exists {
		return false, nil
	}
	delete(d.v.vs.collections, name)
	return true, nil
}

func (d *database) InsertOne(ctx context.Context, collection string,
	doc vault.Document, opts vault.InsertOptions) (vault.InsertResult, error) {
	res, err := d.InsertMany(ctx, collection, []vault.Document{doc}, opts)
	if err != nil {
		return vault.InsertResult{}, err
	}
	return vault.InsertResult{InsertedID: res.InsertedIDs[0]}, nil
}

func (d *database) InsertMany(ctx context.Context, collection string,
	docs []vault.Document, _ vault.InsertOptions) (vault.InsertManyResult, error) {
	unlock, err := d.v.begin(ctx, "Insert", collection, len(docs))
	if err != nil {
		return vault.InsertManyResult{}, err
	}
	defer unlock()

	stored := make([]vault.Document, len(docs))
	ids := make([]string, len(docs))
	for i, doc := range docs {
		if stored[i], err = normalize(doc); err != nil {
			return vault.InsertManyResult{}, err
		}
		id, ok := stored[i][idField].(string)
		if !ok || id == "" {
			id = uuid.NewString()
			stored[i][idField] = id
		}
		ids[i] = id
	}

	// Inserting into a missing collection creates it
	d.v.vs.collections[collection] =
		append(d.v.vs.collections[collection], stored...)
	return vault.InsertManyResult{InsertedIDs: ids}, nil
}

func (d *database) CountDocuments(ctx context.Context, collection string,
	query vault.Document, opts vault.CountOptions) (int64, error) {
	unlock, err := d.v.begin(ctx, "CountDocuments", collection, query)
	if err != nil {
		return 0, err
	}
	defer unlock()

	matched, err := d.match(collection, query)
	if err != nil {
		return 0, err
	}
	return int64(len(page(matched, opts.Skip, opts.Limit))), nil
}

func (d *database) FindOne(ctx context.Context, collection string,
	query vault.Document, opts vault.FindOptions) (vault.Document, error) {
	opts.Limit = 1
	docs, err := d.find(ctx, "FindOne", collection, query, opts)
	if err != nil || len(docs) == 0 {
		return nil, err
	}
	return docs[0], nil
}

func (d *database) FindMany(ctx context.Context, collection string,
	query vault.Document, opts vault.FindOptions) ([]vault.Document, error) {
	return d.find(ctx, "FindMany", collection, query, opts)
}

func (d *database) find(ctx context.Context, method, collection string,
	query vault.Document, opts vault.FindOptions) ([]vault.Document, error) {
	unlock, err := d.v.begin(ctx, method, collection, query)
	if err != nil {
		return nil, err
	}
	defer unlock()

	matched, err := d.match(collection, query)
	if err != nil {
		return nil, err
	}

	sortDocuments(matched, opts.Sort)
	matched = page(matched, opts.Skip, opts.Limit)

	results := make([]vault.Document, len(matched))
	for i, doc := range matched {
		if results[i], err = normalize(doc); err != nil {
			return nil, err
		}
		project(results[i], opts.Projection)
	}
	return results, nil
}

func (d *database) UpdateOne(ctx context.Context, collection string,
	filter, update vault.Document, opts vault.UpdateOptions) (vault.UpdateResult, error) {
	return d.update(ctx, "UpdateOne", collection, filter, update, opts, 1)
}

func (d *database) UpdateMany(ctx context.Context, collection string,
	filter, update vault.Document, opts vault.UpdateOptions) (vault.UpdateResult, error) {
	return d.update(ctx, "UpdateMany", collection, filter, update, opts, 0)
}

// update applies the update to at most limit matching documents, or to all of
// them if limit is zero.
func (d *database) update(ctx context.Context, method, collection string,
	filter, update vault.Document, opts vault.UpdateOptions,
	limit int) (vault.UpdateResult, error) {
	var res vault.UpdateResult
	unlock, err := d.v.begin(ctx, method, collection, filter, update)
	if err != nil {
		return res, err
	}
	defer unlock()

	if update, err = normalize(update); err != nil {
		return res, err
	}

	matched, err := d.match(collection, filter)
	if err != nil && !(opts.Upsert && errors.Is(err, vault.ErrCollectionNotFound)) {
		return res, err
	}
	matched = page(matched, 0, limit)

	for _, doc := range matched {
		res.MatchedCount++
		before, _ := normalize(doc)
		if err = applyUpdate(doc, update); err != nil {
			return res, err
		}
		if !reflect.DeepEqual(before, doc) {
			res.ModifiedCount++
		}
	}

	if res.MatchedCount == 0 && opts.Upsert {
		doc, err := normalize(filter)
		if err != nil {
			return res, err
		}
		if err = applyUpdate(doc, update); err != nil {
			return res, err
		}
		id := uuid.NewString()
		doc[idField] = id
		d.v.vs.collections[collection] =
			append(d.v.vs.collections[collection], doc)
		res.UpsertedCount, res.UpsertedID = 1, id
	}

	return res, nil
}

func (d *database) DeleteOne(ctx context.Context, collection string,
	filter vault.Document, _ vault.DeleteOptions) (vault.DeleteResult, error) {
	return d.delete(ctx, "DeleteOne", collection, filter, 1)
}

func (d *database) DeleteMany(ctx context.Context, collection string,
	filter vault.Document, _ vault.DeleteOptions) (vault.DeleteResult, error) {
	return d.delete(ctx, "DeleteMany", collection, filter, 0)
}

// delete removes at most limit matching documents, or all of them if limit is
// zero.
func (d *database) delete(ctx context.Context, method, collection string,
	filter vault.Document, limit int) (vault.DeleteResult, error) {
	unlock, err := d.v.begin(ctx, method, collection, filter)
	if err != nil {
		return vault.DeleteResult{}, err
	}
	defer unlock()

	if filter, err = normalize(filter); err != nil {
		return vault.DeleteResult{}, err
	}
	docs, exists := d.v.vs.collections[collection]
	if !exists {
		return vault.DeleteResult{}, collectionNotFound(collection)
	}

	kept := docs[:0]
	var deleted int64
	for _, doc := range docs {
		if (limit == 0 || deleted < int64(limit)) && matches(doc, filter) {
			deleted++
			continue
		}
		kept = append(kept, doc)
	}
	d.v.vs.collections[collection] = kept
	return vault.DeleteResult{DeletedCount: deleted}, nil
}

// match returns the stored documents of the collection matching the query.
// Must be called while holding the vault lock.
func (d *database) match(
	collection string, query vault.Document) ([]vault.Document, error) {
	docs, exists := d.v.vs.collections[collection]
	if !exists {
		return nil, collectionNotFound(collection)
	}
	query, err := normalize(query)
	if err != nil {
		return nil, err
	}

	var matched []vault.Document
	for _, doc := range docs {
		if matches(doc, query) {
			matched = append(matched, doc)
		}
	}
	return matched, nil
}

func collectionNotFound(collection string) error {
	return errors.Wrapf(vault.ErrCollectionNotFound, "collection %q", collection)
}

// matches returns true if every field of the query is equal in the document.
func matches(doc, query vault.Document) bool {
	for k, v := range query {
		if !reflect.DeepEqual(doc[k], v) {
			return false
		}
	}
	return true
}

// applyUpdate applies $set and $unset operators to the document. An update
// without operators replaces every field but the ID.
func applyUpdate(doc, update vault.Document) error {
	var hasOperators bool
	for k := range update {
		if strings.HasPrefix(k, "$") {
			hasOperators = true
			break
		}
	}

	if !hasOperators {
		id := doc[idField]
		for k := range doc {
			delete(doc, k)
		}
		for k, v := range update {
			doc[k] = v
		}
		if id != nil {
			doc[idField] = id
		}
		return nil
	}

	for op, arg := range update {
		fields, ok := arg.(map[string]any)
		if !ok {
			return errors.Errorf("argument of %s must be an object", op)
		}
		switch op {
		case "$set":
			for k, v := range fields {
				doc[k] = v
			}
		case "$unset":
			for k := range fields {
				delete(doc, k)
			}
		default:
			return errors.Errorf("unsupported update operator %s", op)
		}
	}
	return nil
}

// page returns the documents after skip, at most limit of them. A limit of
// zero means no limit.
func page(docs []vault.Document, skip, limit int) []vault.Document {
	if skip >= len(docs) {
		return nil
	}
	if skip > 0 {
		docs = docs[skip:]
	}
	if limit > 0 && limit < len(docs) {
		docs = docs[:limit]
	}
	return docs
}

// sortDocuments sorts the documents by each field in turn.
func sortDocuments(docs []vault.Document, fields []vault.SortField) {
	if len(fields) == 0 {
		return
	}
	sort.SliceStable(docs, func(i, j int) bool {
		for _, f := range fields {
			c := compare(docs[i][f.Field], docs[j][f.Field])
			if c != 0 {
				return (c < 0) == (f.Order == vault.Ascending)
			}
		}
		return false
	})
}

// compare orders JSON values. Missing values come first, numbers and strings
// compare naturally and anything else compares by its printed form.
func compare(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}

	if x, ok := a.(float64); ok {
		if y, ok := b.(float64); ok {
			switch {
			case x < y:
				return -1
			case x > y:
				return 1
			default:
				return 0
			}
		}
	}
	if x, ok := a.(string); ok {
		if y, ok := b.(string); ok {
			return strings.Compare(x, y)
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

// project keeps or removes the fields named in the projection. A projection
// with any truthy field keeps only those fields and the ID, unless the ID is
// excluded explicitly.
func project(doc, projection vault.Document) {
	if len(projection) == 0 {
		return
	}

	include := false
	for k, v := range projection {
		if k != idField && truthy(v) {
			include = true
			break
		}
	}

	for k := range doc {
		v, named := projection[k]
		switch {
		case k == idField:
			if named && !truthy(v) {
				delete(doc, k)
			}
		case include && (!named || !truthy(v)):
			delete(doc, k)
		case !include && named:
			delete(doc, k)
		}
	}
}

func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case int:
		return t != 0
	default:
		return v != nil
	}
}
