package postgres

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/jafarshop/marketsync/internal/config"
	"github.com/jafarshop/marketsync/internal/repository"
)

// NewConnection opens a Postgres connection pool
func NewConnection(cfg config.DatabaseConfig) (*sql.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// NewRepositories wires the Postgres-backed record store
func NewRepositories(db *sql.DB, logger *zap.Logger) *repository.Repositories {
	return &repository.Repositories{
		Settings:    NewSettingsRepository(db, logger),
		Accounts:    NewAccountRepository(db, logger),
		Catalog:     NewCatalogRepository(db, logger),
		Customers:   NewCustomerRepository(db, logger),
		SalesOrders: NewSalesOrderRepository(db, logger),
		Invoices:    NewInvoiceRepository(db, logger),
	}
}
