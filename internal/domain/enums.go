package domain

// OrderStatus is the marketplace's order status
type OrderStatus string

const (
	OrderStatusPendingAvailability OrderStatus = "PendingAvailability"
	OrderStatusPending             OrderStatus = "Pending"
	OrderStatusUnshipped           OrderStatus = "Unshipped"
	OrderStatusPartiallyShipped    OrderStatus = "PartiallyShipped"
	OrderStatusShipped             OrderStatus = "Shipped"
	OrderStatusInvoiceUnconfirmed  OrderStatus = "InvoiceUnconfirmed"
	OrderStatusCanceled            OrderStatus = "Canceled"
	OrderStatusUnfulfillable       OrderStatus = "Unfulfillable"
)

// SyncedOrderStatuses is the allow-list the sync passes to the orders listing.
var SyncedOrderStatuses = []OrderStatus{
	OrderStatusPendingAvailability,
	OrderStatusPending,
	OrderStatusUnshipped,
	OrderStatusPartiallyShipped,
	OrderStatusShipped,
	OrderStatusInvoiceUnconfirmed,
	OrderStatusCanceled,
	OrderStatusUnfulfillable,
}

// IsValid checks if the order status is one the marketplace can report
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPendingAvailability,
		OrderStatusPending,
		OrderStatusUnshipped,
		OrderStatusPartiallyShipped,
		OrderStatusShipped,
		OrderStatusInvoiceUnconfirmed,
		OrderStatusCanceled,
		OrderStatusUnfulfillable:
		return true
	default:
		return false
	}
}

// DocStatus is the two-phase document lifecycle: draft documents are mutable,
// submitted documents are finalized.
type DocStatus int

const (
	DocStatusDraft     DocStatus = 0
	DocStatusSubmitted DocStatus = 1
)

// IsSubmitted reports whether the document has been finalized.
func (d DocStatus) IsSubmitted() bool {
	return d == DocStatusSubmitted
}
