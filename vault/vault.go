////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package vault describes the Hive vault SDK that the bridge forwards to. It
// contains only the interfaces, value types and typed errors of the SDK
// boundary; the database, file storage, scripting and payment engines live
// behind these interfaces and are never implemented by the bridge itself.
package vault

import (
	"context"
	"io"
)

// Document is a JSON object stored in or returned from a vault database.
type Document = map[string]any

// Authenticator is implemented by the host application. The SDK calls
// GetAuthorization with a JWT challenge whenever it needs a new access token
// and blocks until the application answers with the signed response JWT.
type Authenticator interface {
	GetAuthorization(ctx context.Context, jwtChallenge string) (string, error)
}

// ClientOptions are the options used to create a new Client.
type ClientOptions struct {
	// AuthenticationDIDDocument is the JSON of the application instance DID
	// document. It is passed through to the SDK without being parsed.
	AuthenticationDIDDocument string

	// LocalDataDir is the directory the SDK may use for caches.
	LocalDataDir string

	// Authenticator answers authentication challenges raised by the SDK.
	Authenticator Authenticator
}

// SDK is the entry point of the vault SDK.
type SDK interface {
	NewClient(ctx context.Context, opts ClientOptions) (Client, error)
}

// Client is a connection context used to reach vaults.
type Client interface {
	IsConnected() bool
	SetVaultProvider(ownerDid, providerAddress string) error
	GetVaultProvider(ctx context.Context, ownerDid string) (string, error)
	CreateVault(ctx context.Context, ownerDid, providerAddress string) (Vault, error)
	GetVault(ctx context.Context, ownerDid string) (Vault, error)
}

// Vault is a provisioned storage space on a vault provider.
type Vault interface {
	OwnerDid() string
	ProviderAddress() string
	NodeVersion(ctx context.Context) (string, error)
	RevokeAccessToken(ctx context.Context) error

	Database() Database
	Files() Files
	Scripting() Scripting
	Payment() Payment
}

// Database is the document database of a vault.
type Database interface {
	CreateCollection(ctx context.Context, name string) (bool, error)
	DeleteCollection(ctx context.Context, name string) (bool, error)
	InsertOne(ctx context.Context, collection string, doc Document,
		opts InsertOptions) (InsertResult, error)
	InsertMany(ctx context.Context, collection string, docs []Document,
		opts InsertOptions) (InsertManyResult, error)
	CountDocuments(ctx context.Context, collection string, query Document,
		opts CountOptions) (int64, error)
	FindOne(ctx context.Context, collection string, query Document,
		opts FindOptions) (Document, error)
	FindMany(ctx context.Context, collection string, query Document,
		opts FindOptions) ([]Document, error)
	UpdateOne(ctx context.Context, collection string, filter, update Document,
		opts UpdateOptions) (UpdateResult, error)
	UpdateMany(ctx context.Context, collection string, filter, update Document,
		opts UpdateOptions) (UpdateResult, error)
	DeleteOne(ctx context.Context, collection string, filter Document,
		opts DeleteOptions) (DeleteResult, error)
	DeleteMany(ctx context.Context, collection string, filter Document,
		opts DeleteOptions) (DeleteResult, error)
}

// Files is the file storage of a vault.
type Files interface {
	Upload(ctx context.Context, path string) (Writer, error)
	Download(ctx context.Context, path string) (Reader, error)
	Delete(ctx context.Context, path string) (bool, error)
	Move(ctx context.Context, src, dst string) (bool, error)
	Copy(ctx context.Context, src, dst string) error
	Hash(ctx context.Context, path string) (string, error)
	List(ctx context.Context, path string) ([]FileInfo, error)
	Stat(ctx context.Context, path string) (*FileInfo, error)
}

// Scripting registers and runs server side scripts of a vault.
type Scripting interface {
	RegisterScript(ctx context.Context, name string, condition Document,
		executable Document) (bool, error)
	RegisterSubCondition(ctx context.Context, name string,
		condition Document) error
	CallScript(ctx context.Context, name string, params Document,
		appDid string) (Document, error)
	UploadFile(ctx context.Context, transactionID string) (Writer, error)
	DownloadFile(ctx context.Context, transactionID string) (Reader, error)
}

// Payment is the pricing and order ledger of a vault provider. Plans and
// orders are returned in their serialised JSON form.
type Payment interface {
	PricingInfo(ctx context.Context) (Document, error)
	PricingPlan(ctx context.Context, name string) (Document, error)
	PlaceOrder(ctx context.Context, planName string) (string, error)
	PayOrder(ctx context.Context, orderID string, txIDs []string) (bool, error)
	Order(ctx context.Context, orderID string) (Document, error)
	AllOrders(ctx context.Context) ([]Document, error)
	ActivePricingPlan(ctx context.Context) (Document, error)
	PaymentVersion(ctx context.Context) (string, error)
}

// Writer streams data into a remote file.
type Writer interface {
	io.WriteCloser
	Flush() error
}

// Reader streams data out of a remote file.
type Reader interface {
	io.ReadCloser
}
