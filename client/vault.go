////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package client

import (
	"context"

	"gitlab.com/elixxir/hive-wasm/dispatch"
	"gitlab.com/elixxir/hive-wasm/vault"
)

// Vault is a vault opened on the native side.
type Vault struct {
	b               *Bridge
	id              string
	providerAddress string
	ownerDid        string
}

// ObjectID returns the handle of the vault.
func (v *Vault) ObjectID() string { return v.id }

// ProviderAddress returns the address of the provider hosting the vault.
func (v *Vault) ProviderAddress() string { return v.providerAddress }

// OwnerDid returns the DID of the owner of the vault.
func (v *Vault) OwnerDid() string { return v.ownerDid }

// NodeVersion returns the version of the provider node.
func (v *Vault) NodeVersion(ctx context.Context) (string, error) {
	var version string
	return version, v.b.callDecode(ctx, &version, dispatch.VaultGetNodeVersion, v.id)
}

// RevokeAccessToken revokes the access token of the vault. The next call
// raises a new authentication challenge.
func (v *Vault) RevokeAccessToken(ctx context.Context) error {
	_, err := v.b.call(ctx, dispatch.VaultRevokeAccessToken, v.id)
	return err
}

// Database returns the database of the vault.
func (v *Vault) Database() *Database { return &Database{v} }

// Files returns the file storage of the vault.
func (v *Vault) Files() *Files { return &Files{v} }

// Scripting returns the scripting service of the vault.
func (v *Vault) Scripting() *Scripting { return &Scripting{v} }

// Payment returns the payment service of the vault.
func (v *Vault) Payment() *Payment { return &Payment{v} }

// Database is the document database of a vault.
type Database struct {
	v *Vault
}

// CreateCollection creates the collection. Returns true if it was created.
func (db *Database) CreateCollection(ctx context.Context, name string) (bool, error) {
	var res struct {
		Created bool `json:"created"`
	}
	return res.Created, db.v.b.callDecode(
		ctx, &res, dispatch.DatabaseCreateCollection, db.v.id, name)
}

// DeleteCollection deletes the collection. Returns true if it was deleted.
func (db *Database) DeleteCollection(ctx context.Context, name string) (bool, error) {
	var res struct {
		Deleted bool `json:"deleted"`
	}
	return res.Deleted, db.v.b.callDecode(
		ctx, &res, dispatch.DatabaseDeleteCollection, db.v.id, name)
}

// InsertOne inserts the document into the collection.
func (db *Database) InsertOne(ctx context.Context, collection string,
	doc vault.Document, opts vault.InsertOptions) (vault.InsertResult, error) {
	var res vault.InsertResult
	return res, db.v.b.callDecode(ctx, &res, dispatch.DatabaseInsertOne,
		db.v.id, collection, doc, opts.JSON())
}

// InsertMany inserts the documents into the collection.
func (db *Database) InsertMany(ctx context.Context, collection string,
	docs []vault.Document, opts vault.InsertOptions) (vault.InsertManyResult, error) {
	var res vault.InsertManyResult
	return res, db.v.b.callDecode(ctx, &res, dispatch.DatabaseInsertMany,
		db.v.id, collection, docs, opts.JSON())
}

// CountDocuments counts the documents matching the query.
func (db *Database) CountDocuments(ctx context.Context, collection string,
	query vault.Document, opts vault.CountOptions) (int64, error) {
	var res struct {
		Count int64 `json:"count"`
	}
	return res.Count, db.v.b.callDecode(ctx, &res,
		dispatch.DatabaseCountDocuments, db.v.id, collection, query, opts.JSON())
}

// FindOne returns the first document matching the query.
func (db *Database) FindOne(ctx context.Context, collection string,
	query vault.Document, opts vault.FindOptions) (vault.Document, error) {
	var doc vault.Document
	return doc, db.v.b.callDecode(ctx, &doc, dispatch.DatabaseFindOne,
		db.v.id, collection, query, opts.JSON())
}

// FindMany returns every document matching the query.
func (db *Database) FindMany(ctx context.Context, collection string,
	query vault.Document, opts vault.FindOptions) ([]vault.Document, error) {
	var docs []vault.Document
	return docs, db.v.b.callDecode(ctx, &docs, dispatch.DatabaseFindMany,
		db.v.id, collection, query, opts.JSON())
}

// UpdateOne updates the first document matching the filter.
func (db *Database) UpdateOne(ctx context.Context, collection string,
	filter, update vault.Document, opts vault.UpdateOptions) (vault.UpdateResult, error) {
	return db.update(ctx, dispatch.DatabaseUpdateOne, collection, filter, update, opts)
}

// UpdateMany updates every document matching the filter.
func (db *Database) UpdateMany(ctx context.Context, collection string,
	filter, update vault.Document, opts vault.UpdateOptions) (vault.UpdateResult, error) {
	return db.update(ctx, dispatch.DatabaseUpdateMany, collection, filter, update, opts)
}

func (db *Database) update(ctx context.Context, method, collection string,
	filter, update vault.Document, opts vault.UpdateOptions) (vault.UpdateResult, error) {
	var res vault.UpdateResult
	return res, db.v.b.callDecode(ctx, &res, method,
		db.v.id, collection, filter, update, opts.JSON())
}

// DeleteOne deletes the first document matching the filter.
func (db *Database) DeleteOne(ctx context.Context, collection string,
	filter vault.Document) (vault.DeleteResult, error) {
	var res vault.DeleteResult
	return res, db.v.b.callDecode(ctx, &res, dispatch.DatabaseDeleteOne,
		db.v.id, collection, filter)
}

// DeleteMany deletes every document matching the filter.
func (db *Database) DeleteMany(ctx context.Context, collection string,
	filter vault.Document) (vault.DeleteResult, error) {
	var res vault.DeleteResult
	return res, db.v.b.callDecode(ctx, &res, dispatch.DatabaseDeleteMany,
		db.v.id, collection, filter)
}
