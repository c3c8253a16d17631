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
	"gitlab.com/elixxir/hive-wasm/vault"
)

// Positions of the database arguments.
const (
	collectionPos = 1
	documentPos   = 2
)

// dbCall is the decoded arguments of a database method.
type dbCall struct {
	db         vault.Database
	collection string

	// doc is the document, query or filter of the call.
	doc vault.Document

	// docs are the documents of insertMany.
	docs []vault.Document

	// update is the update document of updateOne and updateMany.
	update vault.Document

	options vault.Document
}

// decodeCollection decodes the vault and the collection name.
func (hp *HivePlugin) decodeCollection(args dispatch.Args) (dbCall, error) {
	v, err := hp.argVault(args)
	if err != nil {
		return dbCall{}, err
	}
	name, err := args.NonEmptyString(collectionPos, "collectionName")
	if err != nil {
		return dbCall{}, err
	}
	return dbCall{db: v.Database(), collection: name}, nil
}

// decodeQuery decodes the vault, the collection, an optional query and
// optional options.
func (hp *HivePlugin) decodeQuery(args dispatch.Args) (dbCall, error) {
	dc, err := hp.decodeCollection(args)
	if err != nil {
		return dbCall{}, err
	}
	if dc.doc, err = args.OptionalObject(documentPos, "query"); err != nil {
		return dbCall{}, err
	}
	if dc.options, err = args.OptionalObject(documentPos+1, "options"); err != nil {
		return dbCall{}, err
	}
	return dc, nil
}

// decodeFind decodes a query whose options are find options.
func (hp *HivePlugin) decodeFind(args dispatch.Args) (dbCall, error) {
	dc, err := hp.decodeQuery(args)
	if err != nil {
		return dbCall{}, err
	}
	if _, err = vault.FindOptionsFromJSON(dc.options); err != nil {
		return dbCall{}, invalidArgument(documentPos+1, "options", "%s", err)
	}
	return dc, nil
}

// decodeInsertOne decodes the vault, the collection, the required document
// and optional options.
func (hp *HivePlugin) decodeInsertOne(args dispatch.Args) (dbCall, error) {
	dc, err := hp.decodeCollection(args)
	if err != nil {
		return dbCall{}, err
	}
	if dc.doc, err = args.Object(documentPos, "document"); err != nil {
		return dbCall{}, err
	}
	if dc.options, err = args.OptionalObject(documentPos+1, "options"); err != nil {
		return dbCall{}, err
	}
	return dc, nil
}

// decodeInsertMany decodes the vault, the collection, the documents and
// optional options.
func (hp *HivePlugin) decodeInsertMany(args dispatch.Args) (dbCall, error) {
	dc, err := hp.decodeCollection(args)
	if err != nil {
		return dbCall{}, err
	}
	if dc.docs, err = args.ObjectArray(documentPos, "documents"); err != nil {
		return dbCall{}, err
	}
	if len(dc.docs) == 0 {
		return dbCall{}, invalidArgument(documentPos, "documents",
			"must contain at least one document")
	}
	if dc.options, err = args.OptionalObject(documentPos+1, "options"); err != nil {
		return dbCall{}, err
	}
	return dc, nil
}

// decodeUpdate decodes the vault, the collection, the filter, the required
// update and optional options.
func (hp *HivePlugin) decodeUpdate(args dispatch.Args) (dbCall, error) {
	dc, err := hp.decodeCollection(args)
	if err != nil {
		return dbCall{}, err
	}
	if dc.doc, err = args.OptionalObject(documentPos, "filter"); err != nil {
		return dbCall{}, err
	}
	if dc.update, err = args.Object(documentPos+1, "update"); err != nil {
		return dbCall{}, err
	}
	if dc.options, err = args.OptionalObject(documentPos+2, "options"); err != nil {
		return dbCall{}, err
	}
	return dc, nil
}

func insertOptions(options vault.Document) vault.InsertOptions {
	bypass, _ := options["bypassDocumentValidation"].(bool)
	return vault.InsertOptions{BypassDocumentValidation: bypass}
}

// registerDatabaseHandlers registers the database methods.
func (hp *HivePlugin) registerDatabaseHandlers() {
	dispatch.Register(hp.d, dispatch.DatabaseCreateCollection,
		dispatch.Background, hp.decodeCollection,
		func(c *dispatch.Call, dc dbCall) (envelope.Envelope, error) {
			created, err := dc.db.CreateCollection(c.Context, dc.collection)
			if err != nil {
				return nil, err
			}
			return envelope.Success(map[string]any{"created": created}), nil
		})

	dispatch.Register(hp.d, dispatch.DatabaseDeleteCollection,
		dispatch.Background, hp.decodeCollection,
		func(c *dispatch.Call, dc dbCall) (envelope.Envelope, error) {
			deleted, err := dc.db.DeleteCollection(c.Context, dc.collection)
			if err != nil {
				return nil, err
			}
			return envelope.Success(map[string]any{"deleted": deleted}), nil
		})

	dispatch.Register(hp.d, dispatch.DatabaseInsertOne,
		dispatch.Background, hp.decodeInsertOne,
		func(c *dispatch.Call, dc dbCall) (envelope.Envelope, error) {
			res, err := dc.db.InsertOne(
				c.Context, dc.collection, dc.doc, insertOptions(dc.options))
			if err != nil {
				return nil, err
			}
			return envelope.Success(map[string]any{
				"insertedId": res.InsertedID}), nil
		})

	dispatch.Register(hp.d, dispatch.DatabaseInsertMany,
		dispatch.Background, hp.decodeInsertMany,
		func(c *dispatch.Call, dc dbCall) (envelope.Envelope, error) {
			res, err := dc.db.InsertMany(
				c.Context, dc.collection, dc.docs, insertOptions(dc.options))
			if err != nil {
				return nil, err
			}
			return envelope.Success(map[string]any{
				"insertedIds": res.InsertedIDs}), nil
		})

	dispatch.Register(hp.d, dispatch.DatabaseCountDocuments,
		dispatch.Background, hp.decodeQuery,
		func(c *dispatch.Call, dc dbCall) (envelope.Envelope, error) {
			count, err := dc.db.CountDocuments(c.Context, dc.collection,
				dc.doc, vault.CountOptionsFromJSON(dc.options))
			if err != nil {
				return nil, err
			}
			return envelope.Success(map[string]any{"count": count}), nil
		})

	dispatch.Register(hp.d, dispatch.DatabaseFindOne,
		dispatch.Background, hp.decodeFind,
		func(c *dispatch.Call, dc dbCall) (envelope.Envelope, error) {
			opts, _ := vault.FindOptionsFromJSON(dc.options)
			doc, err := dc.db.FindOne(c.Context, dc.collection, dc.doc, opts)
			if err != nil {
				return nil, err
			}
			return envelope.Document(doc), nil
		})

	dispatch.Register(hp.d, dispatch.DatabaseFindMany,
		dispatch.Background, hp.decodeFind,
		func(c *dispatch.Call, dc dbCall) (envelope.Envelope, error) {
			opts, _ := vault.FindOptionsFromJSON(dc.options)
			docs, err := dc.db.FindMany(c.Context, dc.collection, dc.doc, opts)
			if err != nil {
				return nil, err
			}
			if docs == nil {
				docs = []vault.Document{}
			}
			return envelope.Value(docs), nil
		})

	update := func(many bool) func(*dispatch.Call, dbCall) (envelope.Envelope, error) {
		return func(c *dispatch.Call, dc dbCall) (envelope.Envelope, error) {
			fn := dc.db.UpdateOne
			if many {
				fn = dc.db.UpdateMany
			}
			res, err := fn(c.Context, dc.collection, dc.doc, dc.update,
				vault.UpdateOptionsFromJSON(dc.options))
			if err != nil {
				return nil, err
			}
			return updateResult(res), nil
		}
	}
	dispatch.Register(hp.d, dispatch.DatabaseUpdateOne,
		dispatch.Background, hp.decodeUpdate, update(false))
	dispatch.Register(hp.d, dispatch.DatabaseUpdateMany,
		dispatch.Background, hp.decodeUpdate, update(true))

	del := func(many bool) func(*dispatch.Call, dbCall) (envelope.Envelope, error) {
		return func(c *dispatch.Call, dc dbCall) (envelope.Envelope, error) {
			fn := dc.db.DeleteOne
			if many {
				fn = dc.db.DeleteMany
			}
			res, err := fn(c.Context, dc.collection, dc.doc, vault.DeleteOptions{})
			if err != nil {
				return nil, err
			}
			return envelope.Success(map[string]any{
				"deletedCount": res.DeletedCount}), nil
		}
	}
	dispatch.Register(hp.d, dispatch.DatabaseDeleteOne,
		dispatch.Background, hp.decodeQuery, del(false))
	dispatch.Register(hp.d, dispatch.DatabaseDeleteMany,
		dispatch.Background, hp.decodeQuery, del(true))
}

// updateResult returns the envelope of an update result. The upserted ID is
// null when nothing was upserted.
func updateResult(res vault.UpdateResult) envelope.Envelope {
	fields := map[string]any{
		"matchedCount":  res.MatchedCount,
		"modifiedCount": res.ModifiedCount,
		"upsertedCount": res.UpsertedCount,
		"upsertedId":    nil,
	}
	if res.UpsertedID != "" {
		fields["upsertedId"] = res.UpsertedID
	}
	return envelope.Success(fields)
}
