package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jafarshop/marketsync/internal/domain"
	"github.com/jafarshop/marketsync/pkg/errors"
)

type customerRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewCustomerRepository creates a new customer repository, including the
// contact and address records linked to a customer
func NewCustomerRepository(db *sql.DB, logger *zap.Logger) *customerRepository {
	return &customerRepository{
		db:     db,
		logger: logger,
	}
}

func (r *customerRepository) GetByName(ctx context.Context, name string) (*domain.Customer, error) {
	query := `
		SELECT name, customer_group, territory, customer_type, created_at
		FROM customers
		WHERE name = $1
	`

	var customer domain.Customer

	err := r.db.QueryRowContext(ctx, query, name).Scan(
		&customer.Name,
		&customer.CustomerGroup,
		&customer.Territory,
		&customer.CustomerType,
		&customer.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "customer", ID: name}
	}
	if err != nil {
		r.logger.Error("Failed to get customer", zap.Error(err))
		return nil, err
	}

	return &customer, nil
}

func (r *customerRepository) Create(ctx context.Context, customer *domain.Customer) error {
	query := `
		INSERT INTO customers (name, customer_group, territory, customer_type, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	if customer.CreatedAt.IsZero() {
		customer.CreatedAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx, query,
		customer.Name,
		customer.CustomerGroup,
		customer.Territory,
		customer.CustomerType,
		customer.CreatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to create customer", zap.String("name", customer.Name), zap.Error(err))
		return err
	}

	return nil
}

func (r *customerRepository) HasContact(ctx context.Context, customerName string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM contacts WHERE customer_name = $1)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, customerName).Scan(&exists); err != nil {
		r.logger.Error("Failed to check contact", zap.Error(err))
		return false, err
	}

	return exists, nil
}

func (r *customerRepository) CreateContact(ctx context.Context, contact *domain.Contact) error {
	query := `
		INSERT INTO contacts (id, first_name, customer_name)
		VALUES ($1, $2, $3)
	`

	if contact.ID == "" {
		contact.ID = uuid.NewString()
	}

	_, err := r.db.ExecContext(ctx, query,
		contact.ID,
		contact.FirstName,
		contact.CustomerName,
	)

	if err != nil {
		r.logger.Error("Failed to create contact", zap.String("customer", contact.CustomerName), zap.Error(err))
		return err
	}

	return nil
}

func (r *customerRepository) ListAddresses(ctx context.Context, customerName string) ([]*domain.Address, error) {
	query := `
		SELECT id, customer_name, address_line1, city, state, postal_code, address_type
		FROM addresses
		WHERE customer_name = $1
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query, customerName)
	if err != nil {
		r.logger.Error("Failed to list addresses", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var addresses []*domain.Address
	for rows.Next() {
		var address domain.Address

		err := rows.Scan(
			&address.ID,
			&address.CustomerName,
			&address.AddressLine1,
			&address.City,
			&address.State,
			&address.PostalCode,
			&address.AddressType,
		)
		if err != nil {
			return nil, err
		}

		addresses = append(addresses, &address)
	}

	return addresses, rows.Err()
}

func (r *customerRepository) CreateAddress(ctx context.Context, address *domain.Address) error {
	query := `
		INSERT INTO addresses (id, customer_name, address_line1, city, state, postal_code, address_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	if address.ID == "" {
		address.ID = uuid.NewString()
	}

	_, err := r.db.ExecContext(ctx, query,
		address.ID,
		address.CustomerName,
		address.AddressLine1,
		address.City,
		address.State,
		address.PostalCode,
		address.AddressType,
	)

	if err != nil {
		r.logger.Error("Failed to create address", zap.String("customer", address.CustomerName), zap.Error(err))
		return err
	}

	return nil
}
