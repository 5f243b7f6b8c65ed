package spapi

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jafarshop/marketsync/internal/domain"
)

// Money is a currency amount as reported by the seller API. Financial events
// carry the amount as CurrencyAmount, order prices as Amount; a missing
// amount decodes to zero either way.
type Money struct {
	CurrencyCode   string          `json:"CurrencyCode"`
	CurrencyAmount decimal.Decimal `json:"CurrencyAmount"`
	Amount         decimal.Decimal `json:"Amount"`
}

// OrdersPayload is one page of the orders listing.
type OrdersPayload struct {
	Orders    []OrderPayload `json:"Orders"`
	NextToken string         `json:"NextToken"`
}

type OrderPayload struct {
	ExternalOrderID    string             `json:"AmazonOrderId"`
	Status             domain.OrderStatus `json:"OrderStatus"`
	PurchaseDate       string             `json:"PurchaseDate"`
	LatestShipDate     string             `json:"LatestShipDate"`
	MarketplaceID      string             `json:"MarketplaceId"`
	FulfillmentChannel string             `json:"FulfillmentChannel"`
	BuyerInfo          *BuyerInfo         `json:"BuyerInfo"`
	ShippingAddress    *ShippingAddress   `json:"ShippingAddress"`
}

type BuyerInfo struct {
	BuyerEmail string `json:"BuyerEmail"`
	BuyerName  string `json:"BuyerName"`
}

type ShippingAddress struct {
	AddressLine1  string `json:"AddressLine1"`
	City          string `json:"City"`
	StateOrRegion string `json:"StateOrRegion"`
	PostalCode    string `json:"PostalCode"`
	CountryCode   string `json:"CountryCode"`
}

// OrderItemsPayload is one page of an order's line items.
type OrderItemsPayload struct {
	OrderItems []OrderItemPayload `json:"OrderItems"`
	NextToken  string             `json:"NextToken"`
}

type OrderItemPayload struct {
	ASIN            string `json:"ASIN"`
	SellerSKU       string `json:"SellerSKU"`
	Title           string `json:"Title"`
	QuantityOrdered int    `json:"QuantityOrdered"`
	ItemPrice       Money  `json:"ItemPrice"`
}

// GetOrdersParams are the listing filters. Only NextToken is set on
// continuation calls; the remaining filters apply to the first page.
type GetOrdersParams struct {
	CreatedAfter        time.Time
	OrderStatuses       []domain.OrderStatus
	FulfillmentChannels []string
	MaxResults          int
	NextToken           string
}

type ordersResponse struct {
	Payload OrdersPayload `json:"payload"`
}

// GetOrders lists orders created after the given time, filtered by status and
// fulfillment channel.
func (c *Client) GetOrders(ctx context.Context, params GetOrdersParams) (*OrdersPayload, error) {
	query := url.Values{}
	if params.NextToken != "" {
		query.Set("NextToken", params.NextToken)
	} else {
		query.Set("CreatedAfter", params.CreatedAfter.UTC().Format(time.RFC3339))
		for _, status := range params.OrderStatuses {
			query.Add("OrderStatuses", string(status))
		}
		for _, channel := range params.FulfillmentChannels {
			query.Add("FulfillmentChannels", channel)
		}
		if params.MaxResults > 0 {
			query.Set("MaxResultsPerPage", strconv.Itoa(params.MaxResults))
		}
	}

	var resp ordersResponse
	if err := c.get(ctx, "/orders/v0/orders", query, &resp); err != nil {
		return nil, err
	}
	return &resp.Payload, nil
}

type orderItemsResponse struct {
	Payload OrderItemsPayload `json:"payload"`
}

// GetOrderItems fetches one page of an order's line items.
func (c *Client) GetOrderItems(ctx context.Context, orderID, nextToken string) (*OrderItemsPayload, error) {
	query := url.Values{}
	if nextToken != "" {
		query.Set("NextToken", nextToken)
	}

	var resp orderItemsResponse
	if err := c.get(ctx, "/orders/v0/orders/"+url.PathEscape(orderID)+"/orderItems", query, &resp); err != nil {
		return nil, err
	}
	return &resp.Payload, nil
}
