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

// Scripting registers and runs the scripts of a vault.
type Scripting struct {
	v *Vault
}

// SetScript registers the script. A nil condition registers an
// unconditional script.
func (s *Scripting) SetScript(ctx context.Context, name string,
	executable, condition vault.Document) (bool, error) {
	args := []any{s.v.id, name, executable}
	if condition != nil {
		args = append(args, condition)
	}
	var res struct {
		Success bool `json:"success"`
	}
	return res.Success, s.v.b.callDecode(
		ctx, &res, dispatch.ScriptingSetScript, args...)
}

// RegisterSubCondition registers a condition that scripts may refer to.
func (s *Scripting) RegisterSubCondition(
	ctx context.Context, name string, condition vault.Document) error {
	_, err := s.v.b.call(ctx, dispatch.ScriptingRegisterSubCondition,
		s.v.id, name, condition)
	return err
}

// Call runs the script with the parameters and returns its result.
func (s *Scripting) Call(ctx context.Context, name string,
	params vault.Document, appDid string) (vault.Document, error) {
	var res vault.Document
	return res, s.v.b.callDecode(
		ctx, &res, dispatch.ScriptingCall, s.v.id, name, params, appDid)
}

// UploadFile opens a writer for the upload transaction of a script.
func (s *Scripting) UploadFile(ctx context.Context, transactionID string) (*Writer, error) {
	return openWriter(
		ctx, s.v.b, dispatch.ScriptingUploadFile, s.v.id, transactionID)
}

// DownloadFile opens a reader for the download transaction of a script.
func (s *Scripting) DownloadFile(ctx context.Context, transactionID string) (*Reader, error) {
	return openReader(
		ctx, s.v.b, dispatch.ScriptingDownloadFile, s.v.id, transactionID)
}

// Payment is the pricing and order ledger of the provider of a vault.
type Payment struct {
	v *Vault
}

func (p *Payment) document(
	ctx context.Context, method string, args ...any) (vault.Document, error) {
	var doc vault.Document
	return doc, p.v.b.callDecode(
		ctx, &doc, method, append([]any{p.v.id}, args...)...)
}

// PricingInfo returns the pricing information of the provider.
func (p *Payment) PricingInfo(ctx context.Context) (vault.Document, error) {
	return p.document(ctx, dispatch.PaymentGetPricingInfo)
}

// PricingPlan returns the named pricing plan.
func (p *Payment) PricingPlan(ctx context.Context, name string) (vault.Document, error) {
	return p.document(ctx, dispatch.PaymentGetPricingPlan, name)
}

// PlaceOrder places an order for the plan and returns its ID.
func (p *Payment) PlaceOrder(ctx context.Context, planName string) (string, error) {
	var orderID string
	return orderID, p.v.b.callDecode(
		ctx, &orderID, dispatch.PaymentPlaceOrder, p.v.id, planName)
}

// PayOrder pays the order with the transactions and returns the order ID.
func (p *Payment) PayOrder(ctx context.Context, orderID string,
	transactionIDs []string) (string, error) {
	var paid string
	return paid, p.v.b.callDecode(ctx, &paid, dispatch.PaymentPayOrder,
		p.v.id, orderID, transactionIDs)
}

// Order returns the order.
func (p *Payment) Order(ctx context.Context, orderID string) (vault.Document, error) {
	return p.document(ctx, dispatch.PaymentGetOrder, orderID)
}

// AllOrders returns every order of the vault.
func (p *Payment) AllOrders(ctx context.Context) ([]vault.Document, error) {
	var orders []vault.Document
	return orders, p.v.b.callDecode(
		ctx, &orders, dispatch.PaymentGetAllOrders, p.v.id)
}

// ActivePricingPlan returns the plan the vault is subscribed to.
func (p *Payment) ActivePricingPlan(ctx context.Context) (vault.Document, error) {
	return p.document(ctx, dispatch.PaymentGetActivePricingPlan)
}

// PaymentVersion returns the version of the payment service.
func (p *Payment) PaymentVersion(ctx context.Context) (string, error) {
	var version string
	return version, p.v.b.callDecode(
		ctx, &version, dispatch.PaymentGetPaymentVersion, p.v.id)
}
