package service

import (
	"github.com/shopspring/decimal"

	"github.com/jafarshop/marketsync/internal/domain"
)

// ChargeFeeSet holds the normalized charge and fee lines aggregated from an
// order's shipment events.
type ChargeFeeSet struct {
	Charges []domain.TaxLine
	Fees    []domain.TaxLine
}

// RefundItem is a refundable line from a refund event: the partition of
// charges that did NOT become refund tax lines (Principal charges and
// zero-amount charges). It drives the return document lines.
type RefundItem struct {
	ItemName     string
	Qty          int
	RefundAmount decimal.Decimal
}

// RefundBundle is the normalized content of one refund event.
type RefundBundle struct {
	PostingDate string
	Items       []RefundItem
	Charges     []domain.TaxLine
	Fees        []domain.TaxLine
}
