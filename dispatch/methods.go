////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package dispatch

// Method is the name of a bridge operation. It selects the handler of a
// dispatched call.
type Method = string

// Plugin and client methods.
const (
	GetVersion  Method = "getVersion"
	SetListener Method = "setListener"
	IsConnected Method = "isConnected"
	GetClient   Method = "getClient"

	ClientSetVaultAddress                  Method = "client_setVaultAddress"
	ClientGetVaultAddress                  Method = "client_getVaultAddress"
	ClientCreateVault                      Method = "client_createVault"
	ClientGetVault                         Method = "client_getVault"
	ClientSetAuthHandlerChallengeCallback  Method = "client_setAuthHandlerChallengeCallback"
	ClientSendAuthHandlerChallengeResponse Method = "client_sendAuthHandlerChallengeResponse"
)

// Vault methods.
const (
	VaultGetNodeVersion    Method = "vault_getNodeVersion"
	VaultRevokeAccessToken Method = "vault_revokeAccessToken"
)

// Database methods.
const (
	DatabaseCreateCollection Method = "database_createCollection"
	DatabaseDeleteCollection Method = "database_deleteCollection"
	DatabaseInsertOne        Method = "database_insertOne"
	DatabaseInsertMany       Method = "database_insertMany"
	DatabaseCountDocuments   Method = "database_countDocuments"
	DatabaseFindOne          Method = "database_findOne"
	DatabaseFindMany         Method = "database_findMany"
	DatabaseUpdateOne        Method = "database_updateOne"
	DatabaseUpdateMany       Method = "database_updateMany"
	DatabaseDeleteOne        Method = "database_deleteOne"
	DatabaseDeleteMany       Method = "database_deleteMany"
)

// File methods.
const (
	FilesUpload   Method = "files_upload"
	FilesDownload Method = "files_download"
	FilesDelete   Method = "files_delete"
	FilesMove     Method = "files_move"
	FilesCopy     Method = "files_copy"
	FilesHash     Method = "files_hash"
	FilesList     Method = "files_list"
	FilesStat     Method = "files_stat"

	WriterWrite Method = "writer_write"
	WriterFlush Method = "writer_flush"
	WriterClose Method = "writer_close"

	ReaderRead    Method = "reader_read"
	ReaderReadAll Method = "reader_readAll"
	ReaderClose   Method = "reader_close"
)

// Scripting methods.
const (
	ScriptingSetScript            Method = "scripting_setScript"
	ScriptingCall                 Method = "scripting_call"
	ScriptingRegisterSubCondition Method = "scripting_registerSubCondition"
	ScriptingUploadFile           Method = "scripting_uploadFile"
	ScriptingDownloadFile         Method = "scripting_downloadFile"
)

// Payment methods.
const (
	PaymentGetPricingInfo       Method = "payment_getPricingInfo"
	PaymentGetPricingPlan       Method = "payment_getPricingPlan"
	PaymentPlaceOrder           Method = "payment_placeOrder"
	PaymentPayOrder             Method = "payment_payOrder"
	PaymentGetOrder             Method = "payment_getOrder"
	PaymentGetAllOrders         Method = "payment_getAllOrders"
	PaymentGetActivePricingPlan Method = "payment_getActivePricingPlan"
	PaymentGetPaymentVersion    Method = "payment_getPaymentVersion"
)

// keepAliveMethods are the methods whose registration stays open until the
// bridge is disposed or the registration is replaced.
var keepAliveMethods = map[Method]bool{
	SetListener:                           true,
	ClientSetAuthHandlerChallengeCallback: true,
}

// KeepsAlive returns true if calls of the method register a keepAlive channel
// and never receive a terminal envelope while the bridge is running.
func KeepsAlive(m Method) bool {
	return keepAliveMethods[m]
}
