////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package plugin

import (
	"github.com/pkg/errors"

	"gitlab.com/elixxir/hive-wasm/dispatch"
	"gitlab.com/elixxir/hive-wasm/envelope"
	"gitlab.com/elixxir/hive-wasm/vault"
)

// orderPayment is the decoded arguments of payment_payOrder.
type orderPayment struct {
	p       vault.Payment
	orderID string
	txIDs   []string
}

// registerPaymentHandlers registers the payment methods.
func (hp *HivePlugin) registerPaymentHandlers() {
	document := func(fn func(*dispatch.Call, vault.Vault) (vault.Document, error)) func(
		*dispatch.Call, vault.Vault) (envelope.Envelope, error) {
		return func(c *dispatch.Call, v vault.Vault) (envelope.Envelope, error) {
			doc, err := fn(c, v)
			if err != nil {
				return nil, err
			}
			return envelope.Document(doc), nil
		}
	}

	dispatch.Register(hp.d, dispatch.PaymentGetPricingInfo, dispatch.Background,
		hp.vaultOnly, document(
			func(c *dispatch.Call, v vault.Vault) (vault.Document, error) {
				return v.Payment().PricingInfo(c.Context)
			}))

	dispatch.Register(hp.d, dispatch.PaymentGetPricingPlan, dispatch.Background,
		hp.vaultAndString("planName"),
		func(c *dispatch.Call, vs vaultString) (envelope.Envelope, error) {
			plan, err := vs.v.Payment().PricingPlan(c.Context, vs.s)
			if err != nil {
				return nil, err
			}
			return envelope.Document(plan), nil
		})

	dispatch.Register(hp.d, dispatch.PaymentPlaceOrder, dispatch.Background,
		hp.vaultAndString("planName"),
		func(c *dispatch.Call, vs vaultString) (envelope.Envelope, error) {
			orderID, err := vs.v.Payment().PlaceOrder(c.Context, vs.s)
			if err != nil {
				return nil, err
			}
			return envelope.Value(orderID), nil
		})

	dispatch.Register(hp.d, dispatch.PaymentPayOrder, dispatch.Background,
		func(args dispatch.Args) (op orderPayment, err error) {
			var v vault.Vault
			if v, err = hp.argVault(args); err != nil {
				return
			}
			op.p = v.Payment()
			if op.orderID, err = args.NonEmptyString(1, "orderId"); err != nil {
				return
			}
			if op.txIDs, err = args.StringArray(2, "transactionIds"); err != nil {
				return
			}
			if len(op.txIDs) == 0 {
				err = invalidArgument(2, "transactionIds", "must not be empty")
			}
			return
		},
		func(c *dispatch.Call, op orderPayment) (envelope.Envelope, error) {
			paid, err := op.p.PayOrder(c.Context, op.orderID, op.txIDs)
			if err != nil {
				return nil, err
			} else if !paid {
				return nil, errors.Errorf("order %s was not paid", op.orderID)
			}
			return envelope.Value(op.orderID), nil
		})

	dispatch.Register(hp.d, dispatch.PaymentGetOrder, dispatch.Background,
		hp.vaultAndString("orderId"),
		func(c *dispatch.Call, vs vaultString) (envelope.Envelope, error) {
			order, err := vs.v.Payment().Order(c.Context, vs.s)
			if err != nil {
				return nil, err
			}
			return envelope.Document(order), nil
		})

	dispatch.Register(hp.d, dispatch.PaymentGetAllOrders, dispatch.Background,
		hp.vaultOnly,
		func(c *dispatch.Call, v vault.Vault) (envelope.Envelope, error) {
			orders, err := v.Payment().AllOrders(c.Context)
			if err != nil {
				return nil, err
			}
			if orders == nil {
				orders = []vault.Document{}
			}
			return envelope.Value(orders), nil
		})

	dispatch.Register(hp.d, dispatch.PaymentGetActivePricingPlan,
		dispatch.Background, hp.vaultOnly, document(
			func(c *dispatch.Call, v vault.Vault) (vault.Document, error) {
				return v.Payment().ActivePricingPlan(c.Context)
			}))

	dispatch.Register(hp.d, dispatch.PaymentGetPaymentVersion,
		dispatch.Background, hp.vaultOnly,
		func(c *dispatch.Call, v vault.Vault) (envelope.Envelope, error) {
			version, err := v.Payment().PaymentVersion(c.Context)
			if err != nil {
				return nil, err
			}
			return envelope.Value(version), nil
		})
}
