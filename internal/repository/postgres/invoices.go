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

type invoiceRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewInvoiceRepository creates a new sales invoice repository
func NewInvoiceRepository(db *sql.DB, logger *zap.Logger) *invoiceRepository {
	return &invoiceRepository{
		db:     db,
		logger: logger,
	}
}

func (r *invoiceRepository) GetInvoiceForOrder(ctx context.Context, salesOrderID string) (*domain.SalesInvoice, error) {
	query := `
		SELECT i.id, i.external_order_id, i.customer, i.is_return, i.posting_date,
		       i.docstatus, i.created_at
		FROM sales_invoices i
		JOIN sales_invoice_items li ON li.invoice_id = i.id
		WHERE li.sales_order_id = $1 AND i.is_return = false
		ORDER BY i.created_at
		LIMIT 1
	`

	var invoice domain.SalesInvoice
	var postingDate sql.NullTime

	err := r.db.QueryRowContext(ctx, query, salesOrderID).Scan(
		&invoice.ID,
		&invoice.ExternalOrderID,
		&invoice.Customer,
		&invoice.IsReturn,
		&postingDate,
		&invoice.DocStatus,
		&invoice.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "sales invoice", ID: salesOrderID}
	}
	if err != nil {
		r.logger.Error("Failed to get invoice for order", zap.Error(err))
		return nil, err
	}

	if postingDate.Valid {
		invoice.PostingDate = postingDate.Time.Format(dateLayout)
	}

	items, err := r.listItems(ctx, invoice.ID)
	if err != nil {
		return nil, err
	}
	invoice.Items = items

	return &invoice, nil
}

func (r *invoiceRepository) listItems(ctx context.Context, invoiceID string) ([]domain.SalesInvoiceItem, error) {
	query := `
		SELECT id, invoice_id, item_code, qty, rate, sales_order_id,
		       sales_order_item_id, refunded
		FROM sales_invoice_items
		WHERE invoice_id = $1
		ORDER BY idx
	`

	rows, err := r.db.QueryContext(ctx, query, invoiceID)
	if err != nil {
		r.logger.Error("Failed to list invoice items", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var items []domain.SalesInvoiceItem
	for rows.Next() {
		var item domain.SalesInvoiceItem
		var orderItemID sql.NullString

		err := rows.Scan(
			&item.ID,
			&item.InvoiceID,
			&item.ItemCode,
			&item.Qty,
			&item.Rate,
			&item.SalesOrderID,
			&orderItemID,
			&item.Refunded,
		)
		if err != nil {
			return nil, err
		}

		if orderItemID.Valid {
			item.SalesOrderItemID = &orderItemID.String
		}

		items = append(items, item)
	}

	return items, rows.Err()
}

func (r *invoiceRepository) IsLineRefunded(ctx context.Context, invoiceID, itemCode string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM sales_invoice_items
			WHERE invoice_id = $1 AND item_code = $2 AND refunded = true
		)
	`

	var refunded bool
	if err := r.db.QueryRowContext(ctx, query, invoiceID, itemCode).Scan(&refunded); err != nil {
		r.logger.Error("Failed to check refunded flag", zap.Error(err))
		return false, err
	}

	return refunded, nil
}

func (r *invoiceRepository) MarkLineRefunded(ctx context.Context, invoiceID, itemCode string) error {
	query := `
		UPDATE sales_invoice_items
		SET refunded = true
		WHERE invoice_id = $1 AND item_code = $2
	`

	_, err := r.db.ExecContext(ctx, query, invoiceID, itemCode)
	if err != nil {
		r.logger.Error("Failed to mark line refunded", zap.String("invoice", invoiceID), zap.Error(err))
		return err
	}

	return nil
}

func (r *invoiceRepository) CreateReturn(ctx context.Context, invoice *domain.SalesInvoice) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if invoice.ID == "" {
		invoice.ID = uuid.NewString()
	}
	invoice.IsReturn = true
	invoice.DocStatus = domain.DocStatusDraft
	invoice.CreatedAt = time.Now()

	var postingDate interface{}
	if invoice.PostingDate != "" {
		postingDate = invoice.PostingDate
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sales_invoices (id, external_order_id, customer, is_return,
			posting_date, docstatus, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		invoice.ID,
		invoice.ExternalOrderID,
		invoice.Customer,
		invoice.IsReturn,
		postingDate,
		invoice.DocStatus,
		invoice.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create return invoice", zap.String("external_order_id", invoice.ExternalOrderID), zap.Error(err))
		return err
	}

	for i := range invoice.Items {
		item := &invoice.Items[i]
		if item.ID == "" {
			item.ID = uuid.NewString()
		}
		item.InvoiceID = invoice.ID

		_, err = tx.ExecContext(ctx, `
			INSERT INTO sales_invoice_items (id, invoice_id, item_code, qty, rate,
				sales_order_id, sales_order_item_id, refunded, idx)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`,
			item.ID,
			item.InvoiceID,
			item.ItemCode,
			item.Qty,
			item.Rate,
			item.SalesOrderID,
			item.SalesOrderItemID,
			item.Refunded,
			i,
		)
		if err != nil {
			r.logger.Error("Failed to create return invoice item", zap.String("item_code", item.ItemCode), zap.Error(err))
			return err
		}
	}

	if err := insertTaxes(ctx, tx, "sales_invoice_taxes", "invoice_id", invoice.ID, invoice.Taxes); err != nil {
		r.logger.Error("Failed to create return invoice taxes", zap.Error(err))
		return err
	}

	return tx.Commit()
}

func (r *invoiceRepository) Submit(ctx context.Context, id string) error {
	query := `
		UPDATE sales_invoices
		SET docstatus = $2
		WHERE id = $1 AND docstatus = $3
	`

	_, err := r.db.ExecContext(ctx, query, id, domain.DocStatusSubmitted, domain.DocStatusDraft)
	if err != nil {
		r.logger.Error("Failed to submit invoice", zap.String("id", id), zap.Error(err))
		return err
	}

	return nil
}
