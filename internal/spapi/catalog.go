package spapi

import (
	"context"
	"net/url"
)

// CatalogItemPayload is the catalog metadata for one external product id.
type CatalogItemPayload struct {
	AttributeSets []AttributeSet `json:"AttributeSets"`
}

type AttributeSet struct {
	ProductGroup string `json:"ProductGroup"`
	Brand        string `json:"Brand"`
	Manufacturer string `json:"Manufacturer"`
	ListPrice    Money  `json:"ListPrice"`
}

type catalogItemResponse struct {
	Payload CatalogItemPayload `json:"payload"`
}

// GetCatalogItem fetches catalog metadata for a single item. Not paginated.
func (c *Client) GetCatalogItem(ctx context.Context, asin string) (*CatalogItemPayload, error) {
	var resp catalogItemResponse
	if err := c.get(ctx, "/catalog/v0/items/"+url.PathEscape(asin), url.Values{}, &resp); err != nil {
		return nil, err
	}
	return &resp.Payload, nil
}
