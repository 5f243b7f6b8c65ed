package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jafarshop/marketsync/internal/domain"
	"github.com/jafarshop/marketsync/internal/repository"
	"github.com/jafarshop/marketsync/internal/spapi"
	pkgerrors "github.com/jafarshop/marketsync/pkg/errors"
)

const accountPrefix = "Marketplace "

var titleCaser = cases.Title(language.English)

// entityResolver provides get-or-create resolution for ledger accounts,
// catalog items, customers and addresses, each keyed by its natural external
// identifier so that retries and repeated syncs never create duplicates.
type entityResolver struct {
	api      MarketplaceAPI
	caller   *apiCaller
	repos    *repository.Repositories
	settings *domain.SyncSettings
	logger   *zap.Logger
}

func newEntityResolver(api MarketplaceAPI, caller *apiCaller, repos *repository.Repositories, settings *domain.SyncSettings, logger *zap.Logger) *entityResolver {
	return &entityResolver{
		api:      api,
		caller:   caller,
		repos:    repos,
		settings: settings,
		logger:   logger,
	}
}

func isNotFound(err error) bool {
	var notFound *pkgerrors.ErrNotFound
	return errors.As(err, &notFound)
}

// ResolveAccount returns the ledger account for a charge or fee type,
// creating it under the configured marketplace account group when absent.
func (r *entityResolver) ResolveAccount(ctx context.Context, typeName string) (string, error) {
	name := accountPrefix + typeName

	account, err := r.repos.Accounts.GetByName(ctx, name)
	if err == nil {
		return account.Name, nil
	}
	if !isNotFound(err) {
		return "", err
	}

	account = &domain.Account{
		Name:          name,
		Company:       r.settings.Company,
		ParentAccount: r.settings.MarketplaceAccountGroup,
	}
	if err := r.repos.Accounts.Create(ctx, account); err != nil {
		return "", err
	}

	r.logger.Info("Created ledger account", zap.String("name", name))

	return account.Name, nil
}

// ResolveItem returns the catalog item code for an order line, creating the
// item from the seller API's catalog metadata on first sighting. The SKU to
// item-code mapping is stable across calls.
func (r *entityResolver) ResolveItem(ctx context.Context, orderItem *spapi.OrderItemPayload) (string, error) {
	item, err := r.repos.Catalog.GetItemBySKU(ctx, orderItem.SellerSKU)
	if err == nil {
		return item.Code, nil
	}
	if !isNotFound(err) {
		return "", err
	}

	return r.createItem(ctx, orderItem)
}

func (r *entityResolver) createItem(ctx context.Context, orderItem *spapi.OrderItemPayload) (string, error) {
	catalogItem, err := callWithRetry(ctx, r.caller, "getCatalogItem", func(ctx context.Context) (*spapi.CatalogItemPayload, error) {
		return r.api.GetCatalogItem(ctx, orderItem.ASIN)
	})
	if err != nil {
		return "", err
	}

	if len(catalogItem.AttributeSets) == 0 {
		return "", &pkgerrors.ErrDataIntegrity{Resource: "catalog item " + orderItem.ASIN, Reason: "no attribute sets"}
	}
	attributes := catalogItem.AttributeSets[0]

	group, err := r.resolveItemGroup(ctx, attributes.ProductGroup, orderItem.ASIN)
	if err != nil {
		return "", err
	}

	brand, err := r.resolveBrand(ctx, attributes.Brand)
	if err != nil {
		return "", err
	}

	manufacturer, err := r.resolveManufacturer(ctx, attributes.Manufacturer)
	if err != nil {
		return "", err
	}

	item := &domain.Item{
		Code:         orderItem.SellerSKU,
		Name:         orderItem.SellerSKU,
		Description:  orderItem.Title,
		ItemGroup:    group,
		Brand:        brand,
		Manufacturer: manufacturer,
	}
	if err := r.repos.Catalog.CreateItem(ctx, item); err != nil {
		return "", err
	}

	price := &domain.ItemPrice{
		ItemCode:  item.Code,
		PriceList: r.settings.PriceList,
		Rate:      attributes.ListPrice.Amount,
	}
	if err := r.repos.Catalog.CreateItemPrice(ctx, price); err != nil {
		return "", err
	}

	r.logger.Info("Created catalog item", zap.String("sku", item.Code), zap.String("item_group", group))

	return item.Code, nil
}

// resolveItemGroup requires a product group on the catalog payload; a missing
// group is a data error, not a skippable condition.
func (r *entityResolver) resolveItemGroup(ctx context.Context, name, asin string) (string, error) {
	if name == "" {
		return "", &pkgerrors.ErrDataIntegrity{Resource: "catalog item " + asin, Reason: "missing product group"}
	}

	group, err := r.repos.Catalog.GetItemGroup(ctx, name)
	if err == nil {
		return group.Name, nil
	}
	if !isNotFound(err) {
		return "", err
	}

	group = &domain.ItemGroup{
		Name:        name,
		ParentGroup: r.settings.ParentItemGroup,
	}
	if err := r.repos.Catalog.CreateItemGroup(ctx, group); err != nil {
		return "", err
	}

	return group.Name, nil
}

func (r *entityResolver) resolveBrand(ctx context.Context, name string) (*string, error) {
	if name == "" {
		return nil, nil
	}

	brand, err := r.repos.Catalog.GetBrand(ctx, name)
	if err == nil {
		return &brand.Name, nil
	}
	if !isNotFound(err) {
		return nil, err
	}

	brand = &domain.Brand{Name: name}
	if err := r.repos.Catalog.CreateBrand(ctx, brand); err != nil {
		return nil, err
	}

	return &brand.Name, nil
}

func (r *entityResolver) resolveManufacturer(ctx context.Context, name string) (*string, error) {
	if name == "" {
		return nil, nil
	}

	m, err := r.repos.Catalog.GetManufacturer(ctx, name)
	if err == nil {
		return &m.Name, nil
	}
	if !isNotFound(err) {
		return nil, err
	}

	m = &domain.Manufacturer{Name: name}
	if err := r.repos.Catalog.CreateManufacturer(ctx, m); err != nil {
		return nil, err
	}

	return &m.Name, nil
}

// customerKey derives the natural customer key for an order: the buyer email
// when present, otherwise a name synthesized from the order id.
func customerKey(order *spapi.OrderPayload) string {
	if order.BuyerInfo != nil && order.BuyerInfo.BuyerEmail != "" {
		return order.BuyerInfo.BuyerEmail
	}
	return "Buyer - " + order.ExternalOrderID
}

// ResolveCustomer returns the customer for an order, creating the customer
// and its contact on first sighting. An existing customer without a contact
// gets one; a customer never ends up with more than one.
func (r *entityResolver) ResolveCustomer(ctx context.Context, order *spapi.OrderPayload) (string, error) {
	key := customerKey(order)

	_, err := r.repos.Customers.GetByName(ctx, key)
	if err == nil {
		hasContact, err := r.repos.Customers.HasContact(ctx, key)
		if err != nil {
			return "", err
		}
		if !hasContact {
			contact := &domain.Contact{FirstName: key, CustomerName: key}
			if err := r.repos.Customers.CreateContact(ctx, contact); err != nil {
				return "", err
			}
		}
		return key, nil
	}
	if !isNotFound(err) {
		return "", err
	}

	customer := &domain.Customer{
		Name:          key,
		CustomerGroup: r.settings.CustomerGroup,
		Territory:     r.settings.Territory,
		CustomerType:  r.settings.CustomerType,
	}
	if err := r.repos.Customers.Create(ctx, customer); err != nil {
		return "", err
	}

	contact := &domain.Contact{FirstName: key, CustomerName: key}
	if err := r.repos.Customers.CreateContact(ctx, contact); err != nil {
		return "", err
	}

	r.logger.Info("Created customer", zap.String("name", key))

	return key, nil
}

// ResolveAddress returns the shipping address for the order, reusing an
// existing address of the customer when line 1 and postal code match.
// Matching deliberately ignores city and state. Orders without a shipping
// address resolve to nothing.
func (r *entityResolver) ResolveAddress(ctx context.Context, order *spapi.OrderPayload, customerName string) (string, error) {
	shipping := order.ShippingAddress
	if shipping == nil {
		return "", nil
	}

	address := &domain.Address{
		CustomerName: customerName,
		AddressLine1: shipping.AddressLine1,
		City:         shipping.City,
		State:        titleCaser.String(shipping.StateOrRegion),
		PostalCode:   shipping.PostalCode,
		AddressType:  "Shipping",
	}
	if address.AddressLine1 == "" {
		address.AddressLine1 = "Not Provided"
	}
	if address.City == "" {
		address.City = "Not Provided"
	}

	existing, err := r.repos.Customers.ListAddresses(ctx, customerName)
	if err != nil {
		return "", err
	}
	for _, candidate := range existing {
		if candidate.AddressLine1 == address.AddressLine1 && candidate.PostalCode == address.PostalCode {
			return candidate.ID, nil
		}
	}

	if err := r.repos.Customers.CreateAddress(ctx, address); err != nil {
		return "", err
	}

	return address.ID, nil
}
