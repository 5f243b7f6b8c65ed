package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jafarshop/marketsync/internal/domain"
	"github.com/jafarshop/marketsync/pkg/errors"
)

const dateLayout = "2006-01-02"

type salesOrderRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSalesOrderRepository creates a new sales order repository
func NewSalesOrderRepository(db *sql.DB, logger *zap.Logger) *salesOrderRepository {
	return &salesOrderRepository{
		db:     db,
		logger: logger,
	}
}

func (r *salesOrderRepository) GetByExternalOrderID(ctx context.Context, externalOrderID string) (*domain.SalesOrder, error) {
	query := `
		SELECT id, external_order_id, marketplace_id, customer, delivery_date,
		       transaction_date, company, marketplace_status, docstatus,
		       created_at, updated_at
		FROM sales_orders
		WHERE external_order_id = $1
	`

	var order domain.SalesOrder
	var deliveryDate, transactionDate time.Time

	err := r.db.QueryRowContext(ctx, query, externalOrderID).Scan(
		&order.ID,
		&order.ExternalOrderID,
		&order.MarketplaceID,
		&order.Customer,
		&deliveryDate,
		&transactionDate,
		&order.Company,
		&order.MarketplaceStatus,
		&order.DocStatus,
		&order.CreatedAt,
		&order.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "sales order", ID: externalOrderID}
	}
	if err != nil {
		r.logger.Error("Failed to get sales order", zap.Error(err))
		return nil, err
	}

	order.DeliveryDate = deliveryDate.Format(dateLayout)
	order.TransactionDate = transactionDate.Format(dateLayout)

	items, err := r.listItems(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	order.Items = items

	return &order, nil
}

func (r *salesOrderRepository) listItems(ctx context.Context, orderID string) ([]domain.SalesOrderItem, error) {
	query := `
		SELECT id, sales_order_id, item_code, item_name, description, qty, rate,
		       amount, uom, warehouse, conversion_factor, allow_zero_valuation
		FROM sales_order_items
		WHERE sales_order_id = $1
		ORDER BY idx
	`

	rows, err := r.db.QueryContext(ctx, query, orderID)
	if err != nil {
		r.logger.Error("Failed to list sales order items", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var items []domain.SalesOrderItem
	for rows.Next() {
		var item domain.SalesOrderItem

		err := rows.Scan(
			&item.ID,
			&item.SalesOrderID,
			&item.ItemCode,
			&item.ItemName,
			&item.Description,
			&item.Qty,
			&item.Rate,
			&item.Amount,
			&item.UOM,
			&item.Warehouse,
			&item.ConversionFactor,
			&item.AllowZeroValuation,
		)
		if err != nil {
			return nil, err
		}

		items = append(items, item)
	}

	return items, rows.Err()
}

func (r *salesOrderRepository) Create(ctx context.Context, order *domain.SalesOrder) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	order.CreatedAt = now
	order.UpdatedAt = now
	order.DocStatus = domain.DocStatusDraft

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sales_orders (id, external_order_id, marketplace_id, customer,
			delivery_date, transaction_date, company, marketplace_status,
			docstatus, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		order.ID,
		order.ExternalOrderID,
		order.MarketplaceID,
		order.Customer,
		order.DeliveryDate,
		order.TransactionDate,
		order.Company,
		order.MarketplaceStatus,
		order.DocStatus,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create sales order", zap.String("external_order_id", order.ExternalOrderID), zap.Error(err))
		return err
	}

	for i := range order.Items {
		item := &order.Items[i]
		if item.ID == "" {
			item.ID = uuid.NewString()
		}
		item.SalesOrderID = order.ID

		_, err = tx.ExecContext(ctx, `
			INSERT INTO sales_order_items (id, sales_order_id, item_code, item_name,
				description, qty, rate, amount, uom, warehouse, conversion_factor,
				allow_zero_valuation, idx)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		`,
			item.ID,
			item.SalesOrderID,
			item.ItemCode,
			item.ItemName,
			item.Description,
			item.Qty,
			item.Rate,
			item.Amount,
			item.UOM,
			item.Warehouse,
			item.ConversionFactor,
			item.AllowZeroValuation,
			i,
		)
		if err != nil {
			r.logger.Error("Failed to create sales order item", zap.String("item_code", item.ItemCode), zap.Error(err))
			return err
		}
	}

	if err := insertTaxes(ctx, tx, "sales_order_taxes", "sales_order_id", order.ID, order.Taxes); err != nil {
		r.logger.Error("Failed to create sales order taxes", zap.Error(err))
		return err
	}

	return tx.Commit()
}

func (r *salesOrderRepository) Update(ctx context.Context, order *domain.SalesOrder) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	order.UpdatedAt = time.Now()

	_, err = tx.ExecContext(ctx, `
		UPDATE sales_orders
		SET delivery_date = $2, transaction_date = $3, updated_at = $4
		WHERE id = $1
	`,
		order.ID,
		order.DeliveryDate,
		order.TransactionDate,
		order.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to update sales order", zap.String("id", order.ID), zap.Error(err))
		return err
	}

	_, err = tx.ExecContext(ctx, `DELETE FROM sales_order_taxes WHERE sales_order_id = $1`, order.ID)
	if err != nil {
		return err
	}

	if err := insertTaxes(ctx, tx, "sales_order_taxes", "sales_order_id", order.ID, order.Taxes); err != nil {
		r.logger.Error("Failed to update sales order taxes", zap.Error(err))
		return err
	}

	return tx.Commit()
}

func (r *salesOrderRepository) SetMarketplaceStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	query := `
		UPDATE sales_orders
		SET marketplace_status = $2, updated_at = $3
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query, id, status, time.Now())
	if err != nil {
		r.logger.Error("Failed to set marketplace status", zap.String("id", id), zap.Error(err))
		return err
	}

	return nil
}

func (r *salesOrderRepository) Submit(ctx context.Context, id string) error {
	query := `
		UPDATE sales_orders
		SET docstatus = $2, updated_at = $3
		WHERE id = $1 AND docstatus = $4
	`

	_, err := r.db.ExecContext(ctx, query, id, domain.DocStatusSubmitted, time.Now(), domain.DocStatusDraft)
	if err != nil {
		r.logger.Error("Failed to submit sales order", zap.String("id", id), zap.Error(err))
		return err
	}

	return nil
}

// insertTaxes writes the tax lines for a document; shared by the sales order
// and invoice repositories.
func insertTaxes(ctx context.Context, tx *sql.Tx, table, parentColumn, parentID string, taxes []domain.TaxLine) error {
	for i, tax := range taxes {
		_, err := tx.ExecContext(ctx, fmt.Sprintf(`
			INSERT INTO %s (id, %s, charge_type, account_head, amount, description, idx)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, table, parentColumn),
			uuid.NewString(),
			parentID,
			tax.ChargeType,
			tax.AccountHead,
			tax.Amount,
			tax.Description,
			i,
		)
		if err != nil {
			return err
		}
	}

	return nil
}
