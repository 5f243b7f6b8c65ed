package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SyncSettings holds the per-marketplace sync configuration. It is persisted
// so the retry wrapper can flip EnableSync off when retries are exhausted;
// an operator re-enables it explicitly.
type SyncSettings struct {
	Name                    string
	ClientID                string
	ClientSecret            string
	RefreshToken            string
	CountryCode             string
	MaxRetryLimit           int
	EnableSync              bool
	Company                 string
	MarketplaceAccountGroup string
	ParentItemGroup         string
	PriceList               string
	Warehouse               string
	CustomerGroup           string
	Territory               string
	CustomerType            string
	TaxesAndCharges         bool
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

// Account is a ledger account for a marketplace charge or fee type,
// named "Marketplace <type>" and parented under the configured group.
type Account struct {
	Name          string
	Company       string
	ParentAccount string
	CreatedAt     time.Time
}

// Item is a catalog item keyed by the seller SKU. Exactly one item exists
// per SKU; it is created lazily the first time the SKU is seen.
type Item struct {
	Code         string // equals the seller SKU
	Name         string
	Description  string
	ItemGroup    string
	Brand        *string
	Manufacturer *string
	CreatedAt    time.Time
}

// ItemGroup groups catalog items, deduplicated by name.
type ItemGroup struct {
	Name        string
	ParentGroup string
}

type Brand struct {
	Name string
}

type Manufacturer struct {
	Name string
}

// ItemPrice is the initial price entry recorded when an item is created.
type ItemPrice struct {
	ID        string
	ItemCode  string
	PriceList string
	Rate      decimal.Decimal
}

// Customer is keyed by buyer email, or "Buyer - <order id>" when the order
// carries no email.
type Customer struct {
	Name          string
	CustomerGroup string
	Territory     string
	CustomerType  string
	CreatedAt     time.Time
}

// Contact is the single contact linked to a customer.
type Contact struct {
	ID           string
	FirstName    string
	CustomerName string
}

// Address is a shipping address linked to a customer. Duplicate detection is
// keyed on line 1 and postal code only.
type Address struct {
	ID           string
	CustomerName string
	AddressLine1 string
	City         string
	State        string
	PostalCode   string
	AddressType  string
}

// SalesOrder is the local sales document for one marketplace order,
// unique per external order id. Created as a draft and submitted when the
// marketplace reports the order shipped.
type SalesOrder struct {
	ID                string
	ExternalOrderID   string
	MarketplaceID     string
	Customer          string
	DeliveryDate      string // yyyy-mm-dd
	TransactionDate   string // yyyy-mm-dd
	Company           string
	MarketplaceStatus OrderStatus
	DocStatus         DocStatus
	Items             []SalesOrderItem
	Taxes             []TaxLine
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type SalesOrderItem struct {
	ID                 string
	SalesOrderID       string
	ItemCode           string
	ItemName           string
	Description        string
	Qty                int
	Rate               decimal.Decimal
	Amount             decimal.Decimal
	UOM                string
	Warehouse          string
	ConversionFactor   decimal.Decimal
	AllowZeroValuation bool
}

// TaxLine is a charge or fee attached to a sales order or invoice.
type TaxLine struct {
	ChargeType  string // always "Actual" for marketplace adjustments
	AccountHead string
	Amount      decimal.Decimal
	Description string
}

// SalesInvoice is an invoice against a sales order, or, with IsReturn set,
// a credit-memo style return document reversing previously invoiced lines.
type SalesInvoice struct {
	ID              string
	ExternalOrderID string
	Customer        string
	IsReturn        bool
	PostingDate     string // yyyy-mm-dd, empty when unknown
	DocStatus       DocStatus
	Items           []SalesInvoiceItem
	Taxes           []TaxLine
	CreatedAt       time.Time
}

type SalesInvoiceItem struct {
	ID               string
	InvoiceID        string
	ItemCode         string
	Qty              int // negative on return lines
	Rate             decimal.Decimal
	SalesOrderID     string
	SalesOrderItemID *string
	Refunded         bool
}
