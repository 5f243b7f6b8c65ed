package service

import (
	"context"
	"fmt"

	"github.com/jafarshop/marketsync/internal/domain"
	"github.com/jafarshop/marketsync/internal/repository"
	"github.com/jafarshop/marketsync/internal/spapi"
	pkgerrors "github.com/jafarshop/marketsync/pkg/errors"
)

// fakeStore holds the in-memory records behind the per-interface fakes,
// used to observe exactly what the engine creates.
type fakeStore struct {
	settings      map[string]*domain.SyncSettings
	accounts      map[string]*domain.Account
	items         map[string]*domain.Item
	itemGroups    map[string]*domain.ItemGroup
	brands        map[string]*domain.Brand
	manufacturers map[string]*domain.Manufacturer
	itemPrices    []*domain.ItemPrice
	customers     map[string]*domain.Customer
	contacts      []*domain.Contact
	addresses     []*domain.Address

	salesOrders      map[string]*domain.SalesOrder // by document id
	ordersByExternal map[string]string

	invoices map[string]*domain.SalesInvoice // by document id
	returns  []*domain.SalesInvoice

	nextID int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		settings:         map[string]*domain.SyncSettings{},
		accounts:         map[string]*domain.Account{},
		items:            map[string]*domain.Item{},
		itemGroups:       map[string]*domain.ItemGroup{},
		brands:           map[string]*domain.Brand{},
		manufacturers:    map[string]*domain.Manufacturer{},
		customers:        map[string]*domain.Customer{},
		salesOrders:      map[string]*domain.SalesOrder{},
		ordersByExternal: map[string]string{},
		invoices:         map[string]*domain.SalesInvoice{},
	}
}

func (f *fakeStore) repositories() *repository.Repositories {
	return &repository.Repositories{
		Settings:    &fakeSettingsRepo{f},
		Accounts:    &fakeAccountRepo{f},
		Catalog:     &fakeCatalogRepo{f},
		Customers:   &fakeCustomerRepo{f},
		SalesOrders: &fakeSalesOrderRepo{f},
		Invoices:    &fakeInvoiceRepo{f},
	}
}

func (f *fakeStore) newID(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%04d", prefix, f.nextID)
}

// seedInvoice registers a non-return invoice whose lines reference the given
// sales order, as the downstream billing flow would.
func (f *fakeStore) seedInvoice(salesOrderID, externalOrderID, customer string, skus ...string) *domain.SalesInvoice {
	invoice := &domain.SalesInvoice{
		ID:              f.newID("INV"),
		ExternalOrderID: externalOrderID,
		Customer:        customer,
		DocStatus:       domain.DocStatusSubmitted,
	}
	order := f.salesOrders[salesOrderID]
	for _, sku := range skus {
		lineID := f.newID("INVLINE")
		var soLineID *string
		if order != nil {
			for i := range order.Items {
				if order.Items[i].ItemCode == sku {
					id := order.Items[i].ID
					soLineID = &id
				}
			}
		}
		invoice.Items = append(invoice.Items, domain.SalesInvoiceItem{
			ID:               lineID,
			InvoiceID:        invoice.ID,
			ItemCode:         sku,
			Qty:              1,
			SalesOrderID:     salesOrderID,
			SalesOrderItemID: soLineID,
		})
	}
	f.invoices[invoice.ID] = invoice
	return invoice
}

func notFoundErr(resource, id string) error {
	return &pkgerrors.ErrNotFound{Resource: resource, ID: id}
}

type fakeSettingsRepo struct{ s *fakeStore }

func (r *fakeSettingsRepo) GetByName(ctx context.Context, name string) (*domain.SyncSettings, error) {
	if s, ok := r.s.settings[name]; ok {
		return s, nil
	}
	return nil, notFoundErr("sync settings", name)
}

func (r *fakeSettingsRepo) Update(ctx context.Context, settings *domain.SyncSettings) error {
	r.s.settings[settings.Name] = settings
	return nil
}

func (r *fakeSettingsRepo) SetEnableSync(ctx context.Context, name string, enabled bool) error {
	if s, ok := r.s.settings[name]; ok {
		s.EnableSync = enabled
	}
	return nil
}

type fakeAccountRepo struct{ s *fakeStore }

func (r *fakeAccountRepo) GetByName(ctx context.Context, name string) (*domain.Account, error) {
	if a, ok := r.s.accounts[name]; ok {
		return a, nil
	}
	return nil, notFoundErr("account", name)
}

func (r *fakeAccountRepo) Create(ctx context.Context, account *domain.Account) error {
	r.s.accounts[account.Name] = account
	return nil
}

type fakeCatalogRepo struct{ s *fakeStore }

func (r *fakeCatalogRepo) GetItemBySKU(ctx context.Context, sku string) (*domain.Item, error) {
	if item, ok := r.s.items[sku]; ok {
		return item, nil
	}
	return nil, notFoundErr("item", sku)
}

func (r *fakeCatalogRepo) CreateItem(ctx context.Context, item *domain.Item) error {
	r.s.items[item.Code] = item
	return nil
}

func (r *fakeCatalogRepo) GetItemGroup(ctx context.Context, name string) (*domain.ItemGroup, error) {
	if g, ok := r.s.itemGroups[name]; ok {
		return g, nil
	}
	return nil, notFoundErr("item group", name)
}

func (r *fakeCatalogRepo) CreateItemGroup(ctx context.Context, group *domain.ItemGroup) error {
	r.s.itemGroups[group.Name] = group
	return nil
}

func (r *fakeCatalogRepo) GetBrand(ctx context.Context, name string) (*domain.Brand, error) {
	if b, ok := r.s.brands[name]; ok {
		return b, nil
	}
	return nil, notFoundErr("brand", name)
}

func (r *fakeCatalogRepo) CreateBrand(ctx context.Context, brand *domain.Brand) error {
	r.s.brands[brand.Name] = brand
	return nil
}

func (r *fakeCatalogRepo) GetManufacturer(ctx context.Context, name string) (*domain.Manufacturer, error) {
	if m, ok := r.s.manufacturers[name]; ok {
		return m, nil
	}
	return nil, notFoundErr("manufacturer", name)
}

func (r *fakeCatalogRepo) CreateManufacturer(ctx context.Context, m *domain.Manufacturer) error {
	r.s.manufacturers[m.Name] = m
	return nil
}

func (r *fakeCatalogRepo) CreateItemPrice(ctx context.Context, price *domain.ItemPrice) error {
	r.s.itemPrices = append(r.s.itemPrices, price)
	return nil
}

type fakeCustomerRepo struct{ s *fakeStore }

func (r *fakeCustomerRepo) GetByName(ctx context.Context, name string) (*domain.Customer, error) {
	if c, ok := r.s.customers[name]; ok {
		return c, nil
	}
	return nil, notFoundErr("customer", name)
}

func (r *fakeCustomerRepo) Create(ctx context.Context, customer *domain.Customer) error {
	r.s.customers[customer.Name] = customer
	return nil
}

func (r *fakeCustomerRepo) HasContact(ctx context.Context, customerName string) (bool, error) {
	for _, contact := range r.s.contacts {
		if contact.CustomerName == customerName {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeCustomerRepo) CreateContact(ctx context.Context, contact *domain.Contact) error {
	if contact.ID == "" {
		contact.ID = r.s.newID("CT")
	}
	r.s.contacts = append(r.s.contacts, contact)
	return nil
}

func (r *fakeCustomerRepo) ListAddresses(ctx context.Context, customerName string) ([]*domain.Address, error) {
	var out []*domain.Address
	for _, address := range r.s.addresses {
		if address.CustomerName == customerName {
			out = append(out, address)
		}
	}
	return out, nil
}

func (r *fakeCustomerRepo) CreateAddress(ctx context.Context, address *domain.Address) error {
	if address.ID == "" {
		address.ID = r.s.newID("ADDR")
	}
	r.s.addresses = append(r.s.addresses, address)
	return nil
}

type fakeSalesOrderRepo struct{ s *fakeStore }

func (r *fakeSalesOrderRepo) GetByExternalOrderID(ctx context.Context, externalOrderID string) (*domain.SalesOrder, error) {
	if id, ok := r.s.ordersByExternal[externalOrderID]; ok {
		return r.s.salesOrders[id], nil
	}
	return nil, notFoundErr("sales order", externalOrderID)
}

func (r *fakeSalesOrderRepo) Create(ctx context.Context, order *domain.SalesOrder) error {
	if order.ID == "" {
		order.ID = r.s.newID("SO")
	}
	for i := range order.Items {
		if order.Items[i].ID == "" {
			order.Items[i].ID = r.s.newID("SOLINE")
		}
	}
	order.DocStatus = domain.DocStatusDraft
	r.s.salesOrders[order.ID] = order
	r.s.ordersByExternal[order.ExternalOrderID] = order.ID
	return nil
}

func (r *fakeSalesOrderRepo) Update(ctx context.Context, order *domain.SalesOrder) error {
	r.s.salesOrders[order.ID] = order
	return nil
}

func (r *fakeSalesOrderRepo) SetMarketplaceStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	if order, ok := r.s.salesOrders[id]; ok {
		order.MarketplaceStatus = status
	}
	return nil
}

func (r *fakeSalesOrderRepo) Submit(ctx context.Context, id string) error {
	if order, ok := r.s.salesOrders[id]; ok && order.DocStatus == domain.DocStatusDraft {
		order.DocStatus = domain.DocStatusSubmitted
	}
	return nil
}

type fakeInvoiceRepo struct{ s *fakeStore }

func (r *fakeInvoiceRepo) GetInvoiceForOrder(ctx context.Context, salesOrderID string) (*domain.SalesInvoice, error) {
	for _, invoice := range r.s.invoices {
		if invoice.IsReturn {
			continue
		}
		for _, line := range invoice.Items {
			if line.SalesOrderID == salesOrderID {
				return invoice, nil
			}
		}
	}
	return nil, notFoundErr("sales invoice", salesOrderID)
}

func (r *fakeInvoiceRepo) IsLineRefunded(ctx context.Context, invoiceID, itemCode string) (bool, error) {
	invoice, ok := r.s.invoices[invoiceID]
	if !ok {
		return false, nil
	}
	for _, line := range invoice.Items {
		if line.ItemCode == itemCode && line.Refunded {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeInvoiceRepo) MarkLineRefunded(ctx context.Context, invoiceID, itemCode string) error {
	invoice, ok := r.s.invoices[invoiceID]
	if !ok {
		return nil
	}
	for i := range invoice.Items {
		if invoice.Items[i].ItemCode == itemCode {
			invoice.Items[i].Refunded = true
		}
	}
	return nil
}

func (r *fakeInvoiceRepo) CreateReturn(ctx context.Context, invoice *domain.SalesInvoice) error {
	if invoice.ID == "" {
		invoice.ID = r.s.newID("RET")
	}
	invoice.IsReturn = true
	r.s.invoices[invoice.ID] = invoice
	r.s.returns = append(r.s.returns, invoice)
	return nil
}

func (r *fakeInvoiceRepo) Submit(ctx context.Context, id string) error {
	if invoice, ok := r.s.invoices[id]; ok && invoice.DocStatus == domain.DocStatusDraft {
		invoice.DocStatus = domain.DocStatusSubmitted
	}
	return nil
}

// fakeAPI is a scripted MarketplaceAPI. Pages are keyed by continuation
// token, the first page by the empty token.
type fakeAPI struct {
	orderPages   map[string]*spapi.OrdersPayload
	itemPages    map[string]map[string]*spapi.OrderItemsPayload
	financePages map[string]map[string]*spapi.FinancialEventsPayload
	catalogItems map[string]*spapi.CatalogItemPayload

	orderCalls   int
	orderParams  []spapi.GetOrdersParams
	catalogCalls int

	err error // when set, every call fails with it
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		orderPages:   map[string]*spapi.OrdersPayload{},
		itemPages:    map[string]map[string]*spapi.OrderItemsPayload{},
		financePages: map[string]map[string]*spapi.FinancialEventsPayload{},
		catalogItems: map[string]*spapi.CatalogItemPayload{},
	}
}

func (f *fakeAPI) GetOrders(ctx context.Context, params spapi.GetOrdersParams) (*spapi.OrdersPayload, error) {
	f.orderCalls++
	f.orderParams = append(f.orderParams, params)
	if f.err != nil {
		return nil, f.err
	}
	page, ok := f.orderPages[params.NextToken]
	if !ok {
		return &spapi.OrdersPayload{}, nil
	}
	return page, nil
}

func (f *fakeAPI) GetOrderItems(ctx context.Context, orderID, nextToken string) (*spapi.OrderItemsPayload, error) {
	if f.err != nil {
		return nil, f.err
	}
	if pages, ok := f.itemPages[orderID]; ok {
		if page, ok := pages[nextToken]; ok {
			return page, nil
		}
	}
	return &spapi.OrderItemsPayload{}, nil
}

func (f *fakeAPI) GetCatalogItem(ctx context.Context, asin string) (*spapi.CatalogItemPayload, error) {
	f.catalogCalls++
	if f.err != nil {
		return nil, f.err
	}
	if item, ok := f.catalogItems[asin]; ok {
		return item, nil
	}
	return &spapi.CatalogItemPayload{}, nil
}

func (f *fakeAPI) ListFinancialEventsByOrderID(ctx context.Context, orderID, nextToken string) (*spapi.FinancialEventsPayload, error) {
	if f.err != nil {
		return nil, f.err
	}
	if pages, ok := f.financePages[orderID]; ok {
		if page, ok := pages[nextToken]; ok {
			return page, nil
		}
	}
	return &spapi.FinancialEventsPayload{}, nil
}

func testSettings() *domain.SyncSettings {
	return &domain.SyncSettings{
		Name:                    "default",
		ClientID:                "client",
		ClientSecret:            "secret",
		RefreshToken:            "refresh",
		CountryCode:             "US",
		MaxRetryLimit:           3,
		EnableSync:              true,
		Company:                 "Jafar Shop",
		MarketplaceAccountGroup: "Marketplace Expenses",
		ParentItemGroup:         "All Item Groups",
		PriceList:               "Standard Selling",
		Warehouse:               "Stores",
		CustomerGroup:           "Individual",
		Territory:               "All Territories",
		CustomerType:            "Individual",
		TaxesAndCharges:         false,
	}
}
