////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package memvault

import (
	"context"
	"io"
	"reflect"
	"testing"

	"github.com/pkg/errors"

	"gitlab.com/elixxir/hive-wasm/vault"
)

func newTestVault(t *testing.T, opts Options) (*SDK, vault.Vault) {
	sdk := NewSDK(opts)
	c, err := sdk.NewClient(context.Background(), vault.ClientOptions{})
	if err != nil {
		t.Fatalf("Failed to create client: %+v", err)
	}
	v, err := c.GetVault(context.Background(), "did:example:123")
	if err != nil {
		t.Fatalf("Failed to get vault: %+v", err)
	}
	return sdk, v
}

// Tests that an inserted document is found by an exact-match query.
func TestDatabase_InsertFind(t *testing.T) {
	ctx := context.Background()
	_, v := newTestVault(t, DefaultOptions())
	db := v.Database()

	res, err := db.InsertOne(ctx, "col1",
		vault.Document{"a": 1}, vault.InsertOptions{})
	if err != nil {
		t.Fatalf("Failed to insert: %+v", err)
	}

	doc, err := db.FindOne(ctx, "col1", vault.Document{"a": 1}, vault.FindOptions{})
	if err != nil {
		t.Fatalf("Failed to find: %+v", err)
	}
	expected := vault.Document{"a": float64(1), "_id": res.InsertedID}
	if !reflect.DeepEqual(doc, expected) {
		t.Errorf("Unexpected document.\nexpected: %v\nreceived: %v",
			expected, doc)
	}

	doc, err = db.FindOne(ctx, "col1", vault.Document{"a": 2}, vault.FindOptions{})
	if err != nil || doc != nil {
		t.Errorf("Unexpected result for unmatched query: %v, %+v", doc, err)
	}
}

// Tests find options, updates, counts and deletes.
func TestDatabase_Operations(t *testing.T) {
	ctx := context.Background()
	_, v := newTestVault(t, DefaultOptions())
	db := v.Database()

	created, err := db.CreateCollection(ctx, "people")
	if err != nil || !created {
		t.Fatalf("Failed to create collection: %t, %+v", created, err)
	}
	if created, _ = db.CreateCollection(ctx, "people"); created {
		t.Error("Existing collection created again.")
	}

	_, err = db.InsertMany(ctx, "people", []vault.Document{
		{"name": "b", "age": 30, "team": "x"},
		{"name": "a", "age": 20, "team": "x"},
		{"name": "c", "age": 40, "team": "y"},
	}, vault.InsertOptions{})
	if err != nil {
		t.Fatalf("Failed to insert: %+v", err)
	}

	docs, err := db.FindMany(ctx, "people", vault.Document{"team": "x"},
		vault.FindOptions{
			Sort:       []vault.SortField{{Field: "age", Order: vault.Descending}},
			Projection: vault.Document{"name": 1, "_id": 0},
		})
	if err != nil {
		t.Fatalf("Failed to find: %+v", err)
	}
	expected := []vault.Document{{"name": "b"}, {"name": "a"}}
	if !reflect.DeepEqual(docs, expected) {
		t.Errorf("Unexpected documents.\nexpected: %v\nreceived: %v",
			expected, docs)
	}

	n, err := db.CountDocuments(ctx, "people", nil, vault.CountOptions{Skip: 1})
	if err != nil || n != 2 {
		t.Errorf("Unexpected count: %d, %+v", n, err)
	}

	ur, err := db.UpdateMany(ctx, "people", vault.Document{"team": "x"},
		vault.Document{"$set": vault.Document{"team": "z"}}, vault.UpdateOptions{})
	if err != nil || ur.MatchedCount != 2 || ur.ModifiedCount != 2 {
		t.Errorf("Unexpected update result: %+v, %+v", ur, err)
	}

	ur, err = db.UpdateOne(ctx, "people", vault.Document{"name": "d"},
		vault.Document{"$set": vault.Document{"age": 50}},
		vault.UpdateOptions{Upsert: true})
	if err != nil || ur.UpsertedCount != 1 || ur.UpsertedID == "" {
		t.Errorf("Unexpected upsert result: %+v, %+v", ur, err)
	}

	dr, err := db.DeleteMany(ctx, "people", vault.Document{"team": "z"},
		vault.DeleteOptions{})
	if err != nil || dr.DeletedCount != 2 {
		t.Errorf("Unexpected delete result: %+v, %+v", dr, err)
	}

	if deleted, err := db.DeleteCollection(ctx, "people"); err != nil || !deleted {
		t.Errorf("Failed to delete collection: %t, %+v", deleted, err)
	}
	_, err = db.FindMany(ctx, "people", nil, vault.FindOptions{})
	if !errors.Is(err, vault.ErrCollectionNotFound) {
		t.Errorf("Unexpected error.\nexpected: %v\nreceived: %+v",
			vault.ErrCollectionNotFound, err)
	}
}

// Tests that an uploaded file can be listed, hashed and downloaded.
func TestFiles(t *testing.T) {
	ctx := context.Background()
	_, v := newTestVault(t, DefaultOptions())
	f := v.Files()

	w, err := f.Upload(ctx, "/docs/a.txt")
	if err != nil {
		t.Fatalf("Failed to upload: %+v", err)
	}
	if _, err = w.Write([]byte{0, 1}); err != nil {
		t.Fatalf("Failed to write: %+v", err)
	}
	if _, err = w.Write([]byte{2, 3}); err != nil {
		t.Fatalf("Failed to write: %+v", err)
	}
	if err = w.Close(); err != nil {
		t.Fatalf("Failed to close: %+v", err)
	}
	if _, err = w.Write([]byte{4}); err == nil {
		t.Error("Write after close succeeded.")
	}

	r, err := f.Download(ctx, "docs/a.txt")
	if err != nil {
		t.Fatalf("Failed to download: %+v", err)
	}
	data, err := io.ReadAll(r)
	if err != nil || !reflect.DeepEqual(data, []byte{0, 1, 2, 3}) {
		t.Errorf("Unexpected data: %v, %+v", data, err)
	}

	hash, err := f.Hash(ctx, "docs/a.txt")
	if err != nil ||
		hash != "054edec1d0211f624fed0cbca9d4f9400b0e491c43742af2c5b0abebf0c990d8" {
		t.Errorf("Unexpected hash: %s, %+v", hash, err)
	}

	list, err := f.List(ctx, "/")
	if err != nil || len(list) != 1 || list[0].Name != "docs" ||
		list[0].Type != vault.TypeFolder {
		t.Errorf("Unexpected root listing: %+v, %+v", list, err)
	}

	if ok, err := f.Move(ctx, "docs/a.txt", "b.txt"); err != nil || !ok {
		t.Errorf("Failed to move: %t, %+v", ok, err)
	}
	if info, err := f.Stat(ctx, "b.txt"); err != nil || info == nil || info.Size != 4 {
		t.Errorf("Unexpected stat: %+v, %+v", info, err)
	}
	if info, err := f.Stat(ctx, "docs/a.txt"); err != nil || info != nil {
		t.Errorf("Unexpected stat of moved file: %+v, %+v", info, err)
	}

	_, err = f.Delete(ctx, "docs/a.txt")
	if !errors.Is(err, vault.ErrFileNotFound) {
		t.Errorf("Unexpected error.\nexpected: %v\nreceived: %+v",
			vault.ErrFileNotFound, err)
	}
}

// authenticator answers every challenge with a fixed response.
type authenticator struct {
	response   string
	challenges []string
}

func (a *authenticator) GetAuthorization(
	_ context.Context, jwt string) (string, error) {
	a.challenges = append(a.challenges, jwt)
	return a.response, nil
}

// Tests that a client raises one challenge until its token is revoked.
func TestClient_RequireAuth(t *testing.T) {
	ctx := context.Background()
	opts := DefaultOptions()
	opts.RequireAuth = true
	sdk := NewSDK(opts)

	auth := &authenticator{response: "signed"}
	c, err := sdk.NewClient(ctx, vault.ClientOptions{Authenticator: auth})
	if err != nil {
		t.Fatalf("Failed to create client: %+v", err)
	}

	v, err := c.GetVault(ctx, "did:example:123")
	if err != nil {
		t.Fatalf("Failed to get vault: %+v", err)
	}
	if _, err = v.NodeVersion(ctx); err != nil {
		t.Fatalf("Failed to get node version: %+v", err)
	}
	if len(auth.challenges) != 1 || auth.challenges[0] != opts.Challenge {
		t.Errorf("Unexpected challenges: %v", auth.challenges)
	}

	if err = v.RevokeAccessToken(ctx); err != nil {
		t.Fatalf("Failed to revoke: %+v", err)
	}
	auth.response = ""
	if _, err = v.NodeVersion(ctx); err == nil {
		t.Error("Empty challenge response accepted.")
	}
	if len(auth.challenges) != 2 {
		t.Errorf("Expected 2 challenges, received %d", len(auth.challenges))
	}
}

// Error path: tests the vault lifecycle errors.
func TestClient_VaultErrors(t *testing.T) {
	ctx := context.Background()
	sdk := NewSDK(Options{})
	c, _ := sdk.NewClient(ctx, vault.ClientOptions{})

	if _, err := c.GetVault(ctx, "did:a"); !errors.Is(err, vault.ErrProviderNotSet) {
		t.Errorf("Unexpected error.\nexpected: %v\nreceived: %+v",
			vault.ErrProviderNotSet, err)
	}
	if err := c.SetVaultProvider("did:a", "http://p"); err != nil {
		t.Fatalf("Failed to set provider: %+v", err)
	}
	if _, err := c.GetVault(ctx, "did:a"); !errors.Is(err, vault.ErrVaultNotFound) {
		t.Errorf("Unexpected error.\nexpected: %v\nreceived: %+v",
			vault.ErrVaultNotFound, err)
	}
	v, err := c.CreateVault(ctx, "did:a", "")
	if err != nil || v.ProviderAddress() != "http://p" {
		t.Fatalf("Failed to create vault: %+v", err)
	}
	if _, err = c.CreateVault(ctx, "did:a", ""); !errors.Is(err, vault.ErrVaultAlreadyExists) {
		t.Errorf("Unexpected error.\nexpected: %v\nreceived: %+v",
			vault.ErrVaultAlreadyExists, err)
	}

	if n := len(sdk.Calls()); n != 6 {
		t.Errorf("Expected 6 recorded calls, received %d", n)
	}
}
