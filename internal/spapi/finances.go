package spapi

import (
	"context"
	"net/url"
)

// FinancialEventsPayload is one page of an order's financial events.
type FinancialEventsPayload struct {
	FinancialEvents FinancialEvents `json:"FinancialEvents"`
	NextToken       string          `json:"NextToken"`
}

type FinancialEvents struct {
	ShipmentEventList []ShipmentEvent `json:"ShipmentEventList"`
	RefundEventList   []RefundEvent   `json:"RefundEventList"`
}

type ShipmentEvent struct {
	PostedDate       string         `json:"PostedDate"`
	ShipmentItemList []ShipmentItem `json:"ShipmentItemList"`
}

type ShipmentItem struct {
	SellerSKU       string            `json:"SellerSKU"`
	QuantityShipped int               `json:"QuantityShipped"`
	ItemChargeList  []ChargeComponent `json:"ItemChargeList"`
	ItemFeeList     []FeeComponent    `json:"ItemFeeList"`
}

type RefundEvent struct {
	PostedDate                 string                   `json:"PostedDate"`
	ShipmentItemAdjustmentList []ShipmentItemAdjustment `json:"ShipmentItemAdjustmentList"`
}

type ShipmentItemAdjustment struct {
	SellerSKU                string            `json:"SellerSKU"`
	QuantityShipped          int               `json:"QuantityShipped"`
	ItemChargeAdjustmentList []ChargeComponent `json:"ItemChargeAdjustmentList"`
	ItemFeeAdjustmentList    []FeeComponent    `json:"ItemFeeAdjustmentList"`
}

type ChargeComponent struct {
	ChargeType   string `json:"ChargeType"`
	ChargeAmount Money  `json:"ChargeAmount"`
}

type FeeComponent struct {
	FeeType   string `json:"FeeType"`
	FeeAmount Money  `json:"FeeAmount"`
}

type financialEventsResponse struct {
	Payload FinancialEventsPayload `json:"payload"`
}

// ListFinancialEventsByOrderID fetches one page of the financial events
// recorded against an order.
func (c *Client) ListFinancialEventsByOrderID(ctx context.Context, orderID, nextToken string) (*FinancialEventsPayload, error) {
	query := url.Values{}
	if nextToken != "" {
		query.Set("NextToken", nextToken)
	}

	var resp financialEventsResponse
	if err := c.get(ctx, "/finances/v0/orders/"+url.PathEscape(orderID)+"/financialEvents", query, &resp); err != nil {
		return nil, err
	}
	return &resp.Payload, nil
}
