package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/jafarshop/marketsync/internal/domain"
	"github.com/jafarshop/marketsync/internal/repository"
	"github.com/jafarshop/marketsync/internal/spapi"
)

// MarketplaceAPI is the seller API surface the sync engine consumes,
// implemented by *spapi.Client.
type MarketplaceAPI interface {
	GetOrders(ctx context.Context, params spapi.GetOrdersParams) (*spapi.OrdersPayload, error)
	GetOrderItems(ctx context.Context, orderID, nextToken string) (*spapi.OrderItemsPayload, error)
	GetCatalogItem(ctx context.Context, asin string) (*spapi.CatalogItemPayload, error)
	ListFinancialEventsByOrderID(ctx context.Context, orderID, nextToken string) (*spapi.FinancialEventsPayload, error)
}

var fulfillmentChannels = []string{"FBA", "SellerFulfilled"}

const ordersPageSize = 50

// SyncService reconciles marketplace orders into local sales documents:
// a first sighting creates a draft sales order, later sightings update it and
// apply refund events as return invoices against its invoice lines.
type SyncService struct {
	settings *domain.SyncSettings
	api      MarketplaceAPI
	repos    *repository.Repositories
	caller   *apiCaller
	resolver *entityResolver
	finance  *financeAggregator
	logger   *zap.Logger
}

// NewSyncService creates a sync service for already-loaded settings
func NewSyncService(settings *domain.SyncSettings, api MarketplaceAPI, repos *repository.Repositories, logger *zap.Logger) *SyncService {
	caller := newAPICaller(settings, repos, logger)
	resolver := newEntityResolver(api, caller, repos, settings, logger)

	return &SyncService{
		settings: settings,
		api:      api,
		repos:    repos,
		caller:   caller,
		resolver: resolver,
		finance:  newFinanceAggregator(api, caller, resolver, logger),
		logger:   logger,
	}
}

// SyncOrders loads the named settings, builds a seller API client for them,
// and runs one sync over orders created after the given time.
func SyncOrders(ctx context.Context, repos *repository.Repositories, settingName string, createdAfter time.Time, logger *zap.Logger) ([]string, error) {
	settings, err := repos.Settings.GetByName(ctx, settingName)
	if err != nil {
		return nil, err
	}

	client := spapi.NewClient(settings, logger)

	return NewSyncService(settings, client, repos, logger).SyncOrders(ctx, createdAfter)
}

// SyncOrders runs one synchronization pass and returns the keys of the sales
// orders created or updated, in the order the marketplace returned them.
func (s *SyncService) SyncOrders(ctx context.Context, createdAfter time.Time) ([]string, error) {
	if !s.settings.EnableSync {
		return nil, ErrSyncDisabled
	}

	var salesOrders []string

	fetch := func(ctx context.Context, nextToken string) (*spapi.OrdersPayload, string, error) {
		params := spapi.GetOrdersParams{NextToken: nextToken}
		if nextToken == "" {
			params = spapi.GetOrdersParams{
				CreatedAfter:        createdAfter,
				OrderStatuses:       domain.SyncedOrderStatuses,
				FulfillmentChannels: fulfillmentChannels,
				MaxResults:          ordersPageSize,
			}
		}

		payload, err := callWithRetry(ctx, s.caller, "getOrders", func(ctx context.Context) (*spapi.OrdersPayload, error) {
			return s.api.GetOrders(ctx, params)
		})
		if err != nil {
			return nil, "", err
		}
		return payload, payload.NextToken, nil
	}

	process := func(page *spapi.OrdersPayload) (bool, error) {
		if len(page.Orders) == 0 {
			return true, nil
		}

		for i := range page.Orders {
			order := &page.Orders[i]

			name, err := s.reconcileOrder(ctx, order)
			if err != nil {
				// Exhausted retries abort the run; anything else only
				// aborts this order.
				if errors.Is(err, ErrMaxRetriesExceeded) {
					return false, err
				}
				s.logger.Error("Failed to reconcile order",
					zap.String("order_id", order.ExternalOrderID),
					zap.Error(err),
				)
				continue
			}
			if name != "" {
				salesOrders = append(salesOrders, name)
			}
		}

		return false, nil
	}

	if err := forEachPage(ctx, fetch, process); err != nil {
		return nil, err
	}

	s.logger.Info("Sync run finished", zap.Int("sales_orders", len(salesOrders)))

	return salesOrders, nil
}

// reconcileOrder routes one marketplace order: an order without a local
// sales document is created, an existing one is updated and its refund
// events reconciled. Returns the sales order key, or "" when the order was
// skipped.
func (s *SyncService) reconcileOrder(ctx context.Context, order *spapi.OrderPayload) (string, error) {
	existing, err := s.repos.SalesOrders.GetByExternalOrderID(ctx, order.ExternalOrderID)
	if err == nil {
		return s.updateSalesOrder(ctx, order, existing)
	}
	if !isNotFound(err) {
		return "", err
	}

	return s.createSalesOrder(ctx, order)
}

func (s *SyncService) createSalesOrder(ctx context.Context, order *spapi.OrderPayload) (string, error) {
	items, err := s.collectOrderItems(ctx, order.ExternalOrderID)
	if err != nil {
		return "", err
	}
	if len(items) == 0 {
		s.logger.Debug("Skipping order with no items", zap.String("order_id", order.ExternalOrderID))
		return "", nil
	}

	customer, err := s.resolver.ResolveCustomer(ctx, order)
	if err != nil {
		return "", err
	}
	if _, err := s.resolver.ResolveAddress(ctx, order, customer); err != nil {
		return "", err
	}

	deliveryDate, transactionDate, err := orderDates(order)
	if err != nil {
		return "", err
	}

	salesOrder := &domain.SalesOrder{
		ExternalOrderID: order.ExternalOrderID,
		MarketplaceID:   order.MarketplaceID,
		Customer:        customer,
		DeliveryDate:    deliveryDate,
		TransactionDate: transactionDate,
		Company:         s.settings.Company,
		Items:           items,
	}

	if s.settings.TaxesAndCharges {
		set, err := s.finance.ChargesAndFees(ctx, order.ExternalOrderID)
		if err != nil {
			return "", err
		}
		salesOrder.Taxes = append(salesOrder.Taxes, set.Charges...)
		salesOrder.Taxes = append(salesOrder.Taxes, set.Fees...)
	}

	if err := s.repos.SalesOrders.Create(ctx, salesOrder); err != nil {
		return "", err
	}
	if err := s.repos.SalesOrders.SetMarketplaceStatus(ctx, salesOrder.ID, order.Status); err != nil {
		return "", err
	}

	if order.Status == domain.OrderStatusShipped {
		if err := s.repos.SalesOrders.Submit(ctx, salesOrder.ID); err != nil {
			return "", err
		}
	}

	s.logger.Info("Created sales order",
		zap.String("order_id", order.ExternalOrderID),
		zap.String("sales_order", salesOrder.ID),
		zap.String("status", string(order.Status)),
	)

	return salesOrder.ID, nil
}

// updateSalesOrder reconciles pending refund events against an existing
// sales document, then refreshes its dates, tax lines and status. The
// document is never re-created; it is submitted at most once.
func (s *SyncService) updateSalesOrder(ctx context.Context, order *spapi.OrderPayload, salesOrder *domain.SalesOrder) (string, error) {
	refunds, err := s.finance.Refunds(ctx, order.ExternalOrderID)
	if err != nil {
		return "", err
	}
	for i := range refunds {
		if err := s.applyRefund(ctx, salesOrder, &refunds[i]); err != nil {
			return "", err
		}
	}

	deliveryDate, transactionDate, err := orderDates(order)
	if err != nil {
		return "", err
	}
	salesOrder.DeliveryDate = deliveryDate
	salesOrder.TransactionDate = transactionDate

	if s.settings.TaxesAndCharges {
		set, err := s.finance.ChargesAndFees(ctx, order.ExternalOrderID)
		if err != nil {
			return "", err
		}
		salesOrder.Taxes = salesOrder.Taxes[:0]
		salesOrder.Taxes = append(salesOrder.Taxes, set.Charges...)
		salesOrder.Taxes = append(salesOrder.Taxes, set.Fees...)
	}

	if err := s.repos.SalesOrders.Update(ctx, salesOrder); err != nil {
		return "", err
	}
	if err := s.repos.SalesOrders.SetMarketplaceStatus(ctx, salesOrder.ID, order.Status); err != nil {
		return "", err
	}

	if order.Status == domain.OrderStatusShipped && !salesOrder.DocStatus.IsSubmitted() {
		if err := s.repos.SalesOrders.Submit(ctx, salesOrder.ID); err != nil {
			return "", err
		}
	}

	return salesOrder.ID, nil
}

// applyRefund turns one refund bundle into a submitted return invoice. A
// bundle is skipped while the order has no invoice lines; an item whose
// (invoice, sku) pair is already flagged refunded is skipped before anything
// is appended, so replaying a bundle never produces a second return line.
func (s *SyncService) applyRefund(ctx context.Context, salesOrder *domain.SalesOrder, bundle *RefundBundle) error {
	invoice, err := s.repos.Invoices.GetInvoiceForOrder(ctx, salesOrder.ID)
	if err != nil {
		if isNotFound(err) {
			s.logger.Debug("Order has no invoice lines yet, skipping refund",
				zap.String("sales_order", salesOrder.ID))
			return nil
		}
		return err
	}

	ret := &domain.SalesInvoice{
		ExternalOrderID: invoice.ExternalOrderID,
		Customer:        invoice.Customer,
		IsReturn:        true,
		PostingDate:     formatEventDate(bundle.PostingDate),
	}

	var refundedSKUs []string

	for _, item := range bundle.Items {
		refunded, err := s.repos.Invoices.IsLineRefunded(ctx, invoice.ID, item.ItemName)
		if err != nil {
			return err
		}
		if refunded {
			continue
		}

		rate := decimal.Zero
		if item.Qty != 0 {
			rate = item.RefundAmount.Div(decimal.NewFromInt(int64(item.Qty))).Abs()
		}

		ret.Items = append(ret.Items, domain.SalesInvoiceItem{
			ItemCode:         item.ItemName,
			Qty:              -item.Qty,
			Rate:             rate,
			SalesOrderID:     salesOrder.ID,
			SalesOrderItemID: invoiceLineID(invoice, item.ItemName),
		})
		refundedSKUs = append(refundedSKUs, item.ItemName)
	}

	if len(ret.Items) == 0 {
		// Every item in this bundle was already reconciled.
		return nil
	}

	for _, sku := range refundedSKUs {
		if err := s.repos.Invoices.MarkLineRefunded(ctx, invoice.ID, sku); err != nil {
			return err
		}
	}

	ret.Taxes = append(ret.Taxes, bundle.Charges...)
	ret.Taxes = append(ret.Taxes, bundle.Fees...)

	if err := s.repos.Invoices.CreateReturn(ctx, ret); err != nil {
		return err
	}
	if err := s.repos.Invoices.Submit(ctx, ret.ID); err != nil {
		return err
	}

	s.logger.Info("Created return invoice",
		zap.String("sales_order", salesOrder.ID),
		zap.String("return_invoice", ret.ID),
		zap.Int("lines", len(ret.Items)),
	)

	return nil
}

// invoiceLineID finds the original invoice line for a SKU so the return line
// can reference it. Falls back to the first line when the SKU is not on the
// invoice.
func invoiceLineID(invoice *domain.SalesInvoice, itemCode string) *string {
	for i := range invoice.Items {
		if invoice.Items[i].ItemCode == itemCode {
			return &invoice.Items[i].ID
		}
	}
	if len(invoice.Items) > 0 {
		return &invoice.Items[0].ID
	}
	return nil
}

// collectOrderItems pages through an order's line items, resolving each SKU
// to a catalog item. Lines with zero quantity are dropped.
func (s *SyncService) collectOrderItems(ctx context.Context, orderID string) ([]domain.SalesOrderItem, error) {
	var items []domain.SalesOrderItem

	fetch := func(ctx context.Context, nextToken string) (*spapi.OrderItemsPayload, string, error) {
		payload, err := callWithRetry(ctx, s.caller, "getOrderItems", func(ctx context.Context) (*spapi.OrderItemsPayload, error) {
			return s.api.GetOrderItems(ctx, orderID, nextToken)
		})
		if err != nil {
			return nil, "", err
		}
		return payload, payload.NextToken, nil
	}

	process := func(page *spapi.OrderItemsPayload) (bool, error) {
		for i := range page.OrderItems {
			orderItem := &page.OrderItems[i]
			if orderItem.QuantityOrdered <= 0 {
				continue
			}

			itemCode, err := s.resolver.ResolveItem(ctx, orderItem)
			if err != nil {
				return false, err
			}

			rate := orderItem.ItemPrice.Amount
			qty := orderItem.QuantityOrdered

			items = append(items, domain.SalesOrderItem{
				ItemCode:           itemCode,
				ItemName:           orderItem.SellerSKU,
				Description:        orderItem.Title,
				Qty:                qty,
				Rate:               rate,
				Amount:             rate.Mul(decimal.NewFromInt(int64(qty))),
				UOM:                "Nos",
				Warehouse:          s.settings.Warehouse,
				ConversionFactor:   decimal.NewFromInt(1),
				AllowZeroValuation: true,
			})
		}
		return false, nil
	}

	if err := forEachPage(ctx, fetch, process); err != nil {
		return nil, err
	}

	return items, nil
}

// orderDates derives the document dates: the transaction date is the purchase
// date, and the delivery date is the later of the latest ship date and the
// purchase date, so a document can never promise delivery before the order
// was placed.
func orderDates(order *spapi.OrderPayload) (deliveryDate, transactionDate string, err error) {
	purchase, err := parseEventTime(order.PurchaseDate)
	if err != nil {
		return "", "", fmt.Errorf("invalid purchase date for order %s: %w", order.ExternalOrderID, err)
	}

	latestShip, err := parseEventTime(order.LatestShipDate)
	if err != nil {
		return "", "", fmt.Errorf("invalid latest ship date for order %s: %w", order.ExternalOrderID, err)
	}

	transactionDate = purchase.Format("2006-01-02")
	deliveryDate = latestShip.Format("2006-01-02")
	if deliveryDate < transactionDate {
		deliveryDate = transactionDate
	}

	return deliveryDate, transactionDate, nil
}

func parseEventTime(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		// some payloads carry fractional seconds
		return time.Parse("2006-01-02T15:04:05.999Z07:00", value)
	}
	return t, nil
}

// formatEventDate reduces an event timestamp to a calendar date, passing
// through unparseable values unchanged.
func formatEventDate(value string) string {
	t, err := parseEventTime(value)
	if err != nil {
		return value
	}
	return t.Format("2006-01-02")
}
