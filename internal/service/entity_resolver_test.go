package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jafarshop/marketsync/internal/domain"
	"github.com/jafarshop/marketsync/internal/spapi"
	pkgerrors "github.com/jafarshop/marketsync/pkg/errors"
)

func newTestResolver(store *fakeStore, api *fakeAPI) *entityResolver {
	settings := testSettings()
	store.settings[settings.Name] = settings

	logger := zap.NewNop()
	caller := newAPICaller(settings, store.repositories(), logger)
	caller.sleep = func(time.Duration) {}

	return newEntityResolver(api, caller, store.repositories(), settings, logger)
}

func TestResolveAccountCreatesOnce(t *testing.T) {
	store := newFakeStore()
	resolver := newTestResolver(store, newFakeAPI())
	ctx := context.Background()

	name, err := resolver.ResolveAccount(ctx, "ShippingCharge")
	require.NoError(t, err)
	assert.Equal(t, "Marketplace ShippingCharge", name)

	account := store.accounts[name]
	require.NotNil(t, account)
	assert.Equal(t, "Jafar Shop", account.Company)
	assert.Equal(t, "Marketplace Expenses", account.ParentAccount)

	again, err := resolver.ResolveAccount(ctx, "ShippingCharge")
	require.NoError(t, err)
	assert.Equal(t, name, again)
	assert.Len(t, store.accounts, 1)
}

func TestResolveItemCreatesFromCatalog(t *testing.T) {
	store := newFakeStore()
	api := newFakeAPI()
	api.catalogItems["B000TEST01"] = &spapi.CatalogItemPayload{
		AttributeSets: []spapi.AttributeSet{{
			ProductGroup: "Kitchen",
			Brand:        "Acme",
			Manufacturer: "Acme Industries",
			ListPrice:    spapi.Money{Amount: decimal.RequireFromString("24.99")},
		}},
	}
	resolver := newTestResolver(store, api)
	ctx := context.Background()

	orderItem := &spapi.OrderItemPayload{
		ASIN:      "B000TEST01",
		SellerSKU: "SKU-100",
		Title:     "Acme Pan",
	}

	code, err := resolver.ResolveItem(ctx, orderItem)
	require.NoError(t, err)
	assert.Equal(t, "SKU-100", code)

	item := store.items["SKU-100"]
	require.NotNil(t, item)
	assert.Equal(t, "Kitchen", item.ItemGroup)
	require.NotNil(t, item.Brand)
	assert.Equal(t, "Acme", *item.Brand)
	require.NotNil(t, item.Manufacturer)
	assert.Equal(t, "Acme Industries", *item.Manufacturer)

	group := store.itemGroups["Kitchen"]
	require.NotNil(t, group)
	assert.Equal(t, "All Item Groups", group.ParentGroup)

	require.Len(t, store.itemPrices, 1)
	assert.Equal(t, "Standard Selling", store.itemPrices[0].PriceList)
	assert.True(t, store.itemPrices[0].Rate.Equal(decimal.RequireFromString("24.99")))

	// repeat resolution must hit the store, not the catalog API
	code, err = resolver.ResolveItem(ctx, orderItem)
	require.NoError(t, err)
	assert.Equal(t, "SKU-100", code)
	assert.Equal(t, 1, api.catalogCalls)
	assert.Len(t, store.itemPrices, 1)
}

func TestResolveItemOptionalBrandAndManufacturer(t *testing.T) {
	store := newFakeStore()
	api := newFakeAPI()
	api.catalogItems["B000TEST02"] = &spapi.CatalogItemPayload{
		AttributeSets: []spapi.AttributeSet{{ProductGroup: "Toys"}},
	}
	resolver := newTestResolver(store, api)

	code, err := resolver.ResolveItem(context.Background(), &spapi.OrderItemPayload{
		ASIN:      "B000TEST02",
		SellerSKU: "SKU-200",
	})
	require.NoError(t, err)

	item := store.items[code]
	require.NotNil(t, item)
	assert.Nil(t, item.Brand)
	assert.Nil(t, item.Manufacturer)
	assert.Empty(t, store.brands)
	assert.Empty(t, store.manufacturers)
}

func TestResolveItemRejectsEmptyCatalogPayload(t *testing.T) {
	store := newFakeStore()
	api := newFakeAPI() // unknown ASINs come back with no attribute sets
	resolver := newTestResolver(store, api)

	_, err := resolver.ResolveItem(context.Background(), &spapi.OrderItemPayload{
		ASIN:      "B000TEST03",
		SellerSKU: "SKU-300",
	})

	var integrityErr *pkgerrors.ErrDataIntegrity
	require.ErrorAs(t, err, &integrityErr)
	assert.Empty(t, store.items)
}

func TestResolveItemRequiresProductGroup(t *testing.T) {
	store := newFakeStore()
	api := newFakeAPI()
	api.catalogItems["B000TEST04"] = &spapi.CatalogItemPayload{
		AttributeSets: []spapi.AttributeSet{{Brand: "Acme"}},
	}
	resolver := newTestResolver(store, api)

	_, err := resolver.ResolveItem(context.Background(), &spapi.OrderItemPayload{
		ASIN:      "B000TEST04",
		SellerSKU: "SKU-400",
	})

	var integrityErr *pkgerrors.ErrDataIntegrity
	require.ErrorAs(t, err, &integrityErr)
	assert.Empty(t, store.items)
}

func TestResolveCustomerByEmail(t *testing.T) {
	store := newFakeStore()
	resolver := newTestResolver(store, newFakeAPI())
	ctx := context.Background()

	order := &spapi.OrderPayload{
		ExternalOrderID: "123-0000001",
		BuyerInfo:       &spapi.BuyerInfo{BuyerEmail: "buyer@example.com"},
	}

	name, err := resolver.ResolveCustomer(ctx, order)
	require.NoError(t, err)
	assert.Equal(t, "buyer@example.com", name)

	customer := store.customers[name]
	require.NotNil(t, customer)
	assert.Equal(t, "Individual", customer.CustomerGroup)
	assert.Equal(t, "All Territories", customer.Territory)
	require.Len(t, store.contacts, 1)
	assert.Equal(t, name, store.contacts[0].CustomerName)

	// a later order from the same buyer resolves to the same customer
	name, err = resolver.ResolveCustomer(ctx, order)
	require.NoError(t, err)
	assert.Equal(t, "buyer@example.com", name)
	assert.Len(t, store.customers, 1)
	assert.Len(t, store.contacts, 1)
}

func TestResolveCustomerWithoutEmail(t *testing.T) {
	store := newFakeStore()
	resolver := newTestResolver(store, newFakeAPI())

	name, err := resolver.ResolveCustomer(context.Background(), &spapi.OrderPayload{
		ExternalOrderID: "123-0000002",
	})
	require.NoError(t, err)
	assert.Equal(t, "Buyer - 123-0000002", name)
}

func TestResolveCustomerBackfillsMissingContact(t *testing.T) {
	store := newFakeStore()
	store.customers["buyer@example.com"] = &domain.Customer{Name: "buyer@example.com"}
	resolver := newTestResolver(store, newFakeAPI())

	_, err := resolver.ResolveCustomer(context.Background(), &spapi.OrderPayload{
		ExternalOrderID: "123-0000003",
		BuyerInfo:       &spapi.BuyerInfo{BuyerEmail: "buyer@example.com"},
	})
	require.NoError(t, err)
	require.Len(t, store.contacts, 1)
	assert.Equal(t, "buyer@example.com", store.contacts[0].CustomerName)
}

func TestResolveAddressDeduplicatesOnLineAndPostalCode(t *testing.T) {
	store := newFakeStore()
	resolver := newTestResolver(store, newFakeAPI())
	ctx := context.Background()

	first := &spapi.OrderPayload{
		ExternalOrderID: "123-0000004",
		ShippingAddress: &spapi.ShippingAddress{
			AddressLine1:  "1 Main St",
			City:          "Springfield",
			StateOrRegion: "ILLINOIS",
			PostalCode:    "62701",
		},
	}

	id, err := resolver.ResolveAddress(ctx, first, "buyer@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, id)
	assert.Equal(t, "Illinois", store.addresses[0].State)
	assert.Equal(t, "Shipping", store.addresses[0].AddressType)

	// same line 1 and postal code but a different city is still the same address
	second := &spapi.OrderPayload{
		ExternalOrderID: "123-0000005",
		ShippingAddress: &spapi.ShippingAddress{
			AddressLine1:  "1 Main St",
			City:          "Shelbyville",
			StateOrRegion: "il",
			PostalCode:    "62701",
		},
	}

	again, err := resolver.ResolveAddress(ctx, second, "buyer@example.com")
	require.NoError(t, err)
	assert.Equal(t, id, again)
	assert.Len(t, store.addresses, 1)
}

func TestResolveAddressFallbacks(t *testing.T) {
	store := newFakeStore()
	resolver := newTestResolver(store, newFakeAPI())

	_, err := resolver.ResolveAddress(context.Background(), &spapi.OrderPayload{
		ExternalOrderID: "123-0000006",
		ShippingAddress: &spapi.ShippingAddress{PostalCode: "00000"},
	}, "buyer@example.com")
	require.NoError(t, err)

	require.Len(t, store.addresses, 1)
	assert.Equal(t, "Not Provided", store.addresses[0].AddressLine1)
	assert.Equal(t, "Not Provided", store.addresses[0].City)
}

func TestResolveAddressWithoutShippingAddress(t *testing.T) {
	store := newFakeStore()
	resolver := newTestResolver(store, newFakeAPI())

	id, err := resolver.ResolveAddress(context.Background(), &spapi.OrderPayload{
		ExternalOrderID: "123-0000007",
	}, "buyer@example.com")
	require.NoError(t, err)
	assert.Empty(t, id)
	assert.Empty(t, store.addresses)
}
