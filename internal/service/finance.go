package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/jafarshop/marketsync/internal/domain"
	"github.com/jafarshop/marketsync/internal/spapi"
)

// principalChargeType is the merchandise portion of a charge. It is excluded
// from charge tax lines and, on refunds, routed to the refundable items
// partition instead.
const principalChargeType = "Principal"

// financeAggregator walks an order's paginated financial events and produces
// normalized charge, fee and refund collections keyed by account and amount.
type financeAggregator struct {
	api      MarketplaceAPI
	caller   *apiCaller
	resolver *entityResolver
	logger   *zap.Logger
}

func newFinanceAggregator(api MarketplaceAPI, caller *apiCaller, resolver *entityResolver, logger *zap.Logger) *financeAggregator {
	return &financeAggregator{
		api:      api,
		caller:   caller,
		resolver: resolver,
		logger:   logger,
	}
}

func (f *financeAggregator) fetchEventsPage(orderID string) func(ctx context.Context, nextToken string) (*spapi.FinancialEventsPayload, string, error) {
	return func(ctx context.Context, nextToken string) (*spapi.FinancialEventsPayload, string, error) {
		payload, err := callWithRetry(ctx, f.caller, "listFinancialEventsByOrderId", func(ctx context.Context) (*spapi.FinancialEventsPayload, error) {
			return f.api.ListFinancialEventsByOrderID(ctx, orderID, nextToken)
		})
		if err != nil {
			return nil, "", err
		}
		return payload, payload.NextToken, nil
	}
}

// ChargesAndFees aggregates an order's shipment events into charge and fee
// tax lines. The Principal charge type and zero amounts are excluded from
// charges; fees exclude zero amounts only.
func (f *financeAggregator) ChargesAndFees(ctx context.Context, orderID string) (*ChargeFeeSet, error) {
	set := &ChargeFeeSet{}

	err := forEachPage(ctx, f.fetchEventsPage(orderID), func(page *spapi.FinancialEventsPayload) (bool, error) {
		for _, event := range page.FinancialEvents.ShipmentEventList {
			for _, shipmentItem := range event.ShipmentItemList {
				sku := shipmentItem.SellerSKU

				for _, charge := range shipmentItem.ItemChargeList {
					amount := charge.ChargeAmount.CurrencyAmount
					if charge.ChargeType == principalChargeType || amount.IsZero() {
						continue
					}

					account, err := f.resolver.ResolveAccount(ctx, charge.ChargeType)
					if err != nil {
						return false, err
					}

					set.Charges = append(set.Charges, domain.TaxLine{
						ChargeType:  "Actual",
						AccountHead: account,
						Amount:      amount,
						Description: charge.ChargeType + " for " + sku,
					})
				}

				for _, fee := range shipmentItem.ItemFeeList {
					amount := fee.FeeAmount.CurrencyAmount
					if amount.IsZero() {
						continue
					}

					account, err := f.resolver.ResolveAccount(ctx, fee.FeeType)
					if err != nil {
						return false, err
					}

					set.Fees = append(set.Fees, domain.TaxLine{
						ChargeType:  "Actual",
						AccountHead: account,
						Amount:      amount,
						Description: fee.FeeType + " for " + sku,
					})
				}
			}
		}
		return false, nil
	})
	if err != nil {
		return nil, err
	}

	return set, nil
}

// Refunds aggregates an order's refund events into per-event bundles, in
// event order. Non-Principal, non-zero charges become refund tax lines; every
// other charge (Principal, or zero amount) is recorded as a refundable item
// driving the return document lines downstream. Fees exclude zero amounts.
func (f *financeAggregator) Refunds(ctx context.Context, orderID string) ([]RefundBundle, error) {
	var bundles []RefundBundle

	err := forEachPage(ctx, f.fetchEventsPage(orderID), func(page *spapi.FinancialEventsPayload) (bool, error) {
		for _, event := range page.FinancialEvents.RefundEventList {
			bundle := RefundBundle{PostingDate: event.PostedDate}

			for _, adjustment := range event.ShipmentItemAdjustmentList {
				sku := adjustment.SellerSKU

				for _, charge := range adjustment.ItemChargeAdjustmentList {
					amount := charge.ChargeAmount.CurrencyAmount

					if charge.ChargeType != principalChargeType && !amount.IsZero() {
						account, err := f.resolver.ResolveAccount(ctx, charge.ChargeType)
						if err != nil {
							return false, err
						}

						bundle.Charges = append(bundle.Charges, domain.TaxLine{
							ChargeType:  "Actual",
							AccountHead: account,
							Amount:      amount,
							Description: charge.ChargeType + " refund for " + sku,
						})
					} else {
						bundle.Items = append(bundle.Items, RefundItem{
							ItemName:     sku,
							Qty:          adjustment.QuantityShipped,
							RefundAmount: amount,
						})
					}
				}

				for _, fee := range adjustment.ItemFeeAdjustmentList {
					amount := fee.FeeAmount.CurrencyAmount
					if amount.IsZero() {
						continue
					}

					account, err := f.resolver.ResolveAccount(ctx, fee.FeeType)
					if err != nil {
						return false, err
					}

					bundle.Fees = append(bundle.Fees, domain.TaxLine{
						ChargeType:  "Actual",
						AccountHead: account,
						Amount:      amount,
						Description: fee.FeeType + " refund for " + sku,
					})
				}
			}

			bundles = append(bundles, bundle)
		}
		return false, nil
	})
	if err != nil {
		return nil, err
	}

	return bundles, nil
}
