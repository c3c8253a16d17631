////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package memvault

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"gitlab.com/elixxir/hive-wasm/vault"
)

const (
	paymentVersion = "1.0"
	freePlan       = "Free"
)

// pricingPlans are the plans offered by every provider.
var pricingPlans = []vault.Document{
	{"name": freePlan, "maxStorage": 500, "serviceDays": -1,
		"amount": 0, "currency": "ELA"},
	{"name": "Rookie", "maxStorage": 2000, "serviceDays": 30,
		"amount": 2.5, "currency": "ELA"},
	{"name": "Advanced", "maxStorage": 50000, "serviceDays": 30,
		"amount": 10, "currency": "ELA"},
}

func pricingPlan(name string) (vault.Document, error) {
	for _, plan := range pricingPlans {
		if plan["name"] == name {
			return normalize(plan)
		}
	}
	return nil, errors.Errorf("pricing plan %q does not exist", name)
}

// payment adheres to the vault.Payment interface.
type payment struct{ v *vaultHandle }

func (p *payment) PricingInfo(ctx context.Context) (vault.Document, error) {
	unlock, err := p.v.begin(ctx, "PricingInfo")
	if err != nil {
		return nil, err
	}
	defer unlock()

	plans := make([]any, len(pricingPlans))
	for i, plan := range pricingPlans {
		plans[i] = plan
	}
	return normalize(vault.Document{
		"version":      paymentVersion,
		"pricingPlans": plans,
	})
}

func (p *payment) PricingPlan(
	ctx context.Context, name string) (vault.Document, error) {
	unlock, err := p.v.begin(ctx, "PricingPlan", name)
	if err != nil {
		return nil, err
	}
	defer unlock()
	return pricingPlan(name)
}

func (p *payment) PlaceOrder(
	ctx context.Context, planName string) (string, error) {
	unlock, err := p.v.begin(ctx, "PlaceOrder", planName)
	if err != nil {
		return "", err
	}
	defer unlock()

	plan, err := pricingPlan(planName)
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	p.v.vs.orders[id] = vault.Document{
		"orderId":     id,
		"pricingPlan": planName,
		"amount":      plan["amount"],
		"currency":    plan["currency"],
		"state":       "normal",
	}
	p.v.vs.orderIDs = append(p.v.vs.orderIDs, id)
	return id, nil
}

func (p *payment) PayOrder(
	ctx context.Context, orderID string, txIDs []string) (bool, error) {
	unlock, err := p.v.begin(ctx, "PayOrder", orderID, txIDs)
	if err != nil {
		return false, err
	}
	defer unlock()

	order, exists := p.v.vs.orders[orderID]
	if !exists {
		return false, errors.Errorf("order %q does not exist", orderID)
	}
	if len(txIDs) == 0 {
		return false, errors.New("at least one transaction ID is required")
	}

	ids := make([]any, len(txIDs))
	for i, id := range txIDs {
		ids[i] = id
	}
	order["state"] = "paid"
	order["payTxids"] = ids
	p.v.vs.activePlan = order["pricingPlan"].(string)
	return true, nil
}

func (p *payment) Order(
	ctx context.Context, orderID string) (vault.Document, error) {
	unlock, err := p.v.begin(ctx, "Order", orderID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	order, exists := p.v.vs.orders[orderID]
	if !exists {
		return nil, errors.Errorf("order %q does not exist", orderID)
	}
	return normalize(order)
}

func (p *payment) AllOrders(ctx context.Context) ([]vault.Document, error) {
	unlock, err := p.v.begin(ctx, "AllOrders")
	if err != nil {
		return nil, err
	}
	defer unlock()

	orders := make([]vault.Document, len(p.v.vs.orderIDs))
	for i, id := range p.v.vs.orderIDs {
		if orders[i], err = normalize(p.v.vs.orders[id]); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (p *payment) ActivePricingPlan(ctx context.Context) (vault.Document, error) {
	unlock, err := p.v.begin(ctx, "ActivePricingPlan")
	if err != nil {
		return nil, err
	}
	defer unlock()
	return pricingPlan(p.v.vs.activePlan)
}

func (p *payment) PaymentVersion(ctx context.Context) (string, error) {
	unlock, err := p.v.begin(ctx, "PaymentVersion")
	if err != nil {
		return "", err
	}
	defer unlock()
	return paymentVersion, nil
}
