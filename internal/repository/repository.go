package repository

import (
	"context"

	"github.com/jafarshop/marketsync/internal/domain"
)

// Repositories aggregates the record-store repositories the sync engine
// depends on. Missing records are reported as *errors.ErrNotFound.
type Repositories struct {
	Settings    SettingsRepository
	Accounts    AccountRepository
	Catalog     CatalogRepository
	Customers   CustomerRepository
	SalesOrders SalesOrderRepository
	Invoices    InvoiceRepository
}

type SettingsRepository interface {
	GetByName(ctx context.Context, name string) (*domain.SyncSettings, error)
	Update(ctx context.Context, settings *domain.SyncSettings) error
	// SetEnableSync persists the circuit-breaker flag on its own, so an
	// exhausted retry loop can disable future runs without a full update.
	SetEnableSync(ctx context.Context, name string, enabled bool) error
}

type AccountRepository interface {
	GetByName(ctx context.Context, name string) (*domain.Account, error)
	Create(ctx context.Context, account *domain.Account) error
}

type CatalogRepository interface {
	GetItemBySKU(ctx context.Context, sku string) (*domain.Item, error)
	CreateItem(ctx context.Context, item *domain.Item) error
	GetItemGroup(ctx context.Context, name string) (*domain.ItemGroup, error)
	CreateItemGroup(ctx context.Context, group *domain.ItemGroup) error
	GetBrand(ctx context.Context, name string) (*domain.Brand, error)
	CreateBrand(ctx context.Context, brand *domain.Brand) error
	GetManufacturer(ctx context.Context, name string) (*domain.Manufacturer, error)
	CreateManufacturer(ctx context.Context, m *domain.Manufacturer) error
	CreateItemPrice(ctx context.Context, price *domain.ItemPrice) error
}

type CustomerRepository interface {
	GetByName(ctx context.Context, name string) (*domain.Customer, error)
	Create(ctx context.Context, customer *domain.Customer) error
	HasContact(ctx context.Context, customerName string) (bool, error)
	CreateContact(ctx context.Context, contact *domain.Contact) error
	ListAddresses(ctx context.Context, customerName string) ([]*domain.Address, error)
	CreateAddress(ctx context.Context, address *domain.Address) error
}

type SalesOrderRepository interface {
	GetByExternalOrderID(ctx context.Context, externalOrderID string) (*domain.SalesOrder, error)
	// Create saves a draft with its items and tax lines. No mandatory-field
	// validation is applied; marketplace payloads are saved as-is.
	Create(ctx context.Context, order *domain.SalesOrder) error
	// Update persists the header dates and replaces the tax lines.
	Update(ctx context.Context, order *domain.SalesOrder) error
	SetMarketplaceStatus(ctx context.Context, id string, status domain.OrderStatus) error
	Submit(ctx context.Context, id string) error
}

type InvoiceRepository interface {
	// GetInvoiceForOrder returns the invoice whose lines reference the given
	// sales order, with its lines loaded. ErrNotFound when no invoice line
	// references the order yet.
	GetInvoiceForOrder(ctx context.Context, salesOrderID string) (*domain.SalesInvoice, error)
	IsLineRefunded(ctx context.Context, invoiceID, itemCode string) (bool, error)
	MarkLineRefunded(ctx context.Context, invoiceID, itemCode string) error
	CreateReturn(ctx context.Context, invoice *domain.SalesInvoice) error
	Submit(ctx context.Context, id string) error
}
