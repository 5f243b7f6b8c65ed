package postgres

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/jafarshop/marketsync/internal/domain"
	"github.com/jafarshop/marketsync/pkg/errors"
)

type settingsRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSettingsRepository creates a new sync settings repository
func NewSettingsRepository(db *sql.DB, logger *zap.Logger) *settingsRepository {
	return &settingsRepository{
		db:     db,
		logger: logger,
	}
}

func (r *settingsRepository) GetByName(ctx context.Context, name string) (*domain.SyncSettings, error) {
	query := `
		SELECT name, client_id, client_secret, refresh_token, country_code,
		       max_retry_limit, enable_sync, company, marketplace_account_group,
		       parent_item_group, price_list, warehouse, customer_group,
		       territory, customer_type, taxes_and_charges, created_at, updated_at
		FROM sync_settings
		WHERE name = $1
	`

	var s domain.SyncSettings

	err := r.db.QueryRowContext(ctx, query, name).Scan(
		&s.Name,
		&s.ClientID,
		&s.ClientSecret,
		&s.RefreshToken,
		&s.CountryCode,
		&s.MaxRetryLimit,
		&s.EnableSync,
		&s.Company,
		&s.MarketplaceAccountGroup,
		&s.ParentItemGroup,
		&s.PriceList,
		&s.Warehouse,
		&s.CustomerGroup,
		&s.Territory,
		&s.CustomerType,
		&s.TaxesAndCharges,
		&s.CreatedAt,
		&s.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "sync settings", ID: name}
	}
	if err != nil {
		r.logger.Error("Failed to get sync settings", zap.Error(err))
		return nil, err
	}

	return &s, nil
}

func (r *settingsRepository) Update(ctx context.Context, settings *domain.SyncSettings) error {
	query := `
		UPDATE sync_settings
		SET client_id = $2, client_secret = $3, refresh_token = $4,
		    country_code = $5, max_retry_limit = $6, enable_sync = $7,
		    company = $8, marketplace_account_group = $9, parent_item_group = $10,
		    price_list = $11, warehouse = $12, customer_group = $13,
		    territory = $14, customer_type = $15, taxes_and_charges = $16,
		    updated_at = $17
		WHERE name = $1
	`

	settings.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		settings.Name,
		settings.ClientID,
		settings.ClientSecret,
		settings.RefreshToken,
		settings.CountryCode,
		settings.MaxRetryLimit,
		settings.EnableSync,
		settings.Company,
		settings.MarketplaceAccountGroup,
		settings.ParentItemGroup,
		settings.PriceList,
		settings.Warehouse,
		settings.CustomerGroup,
		settings.Territory,
		settings.CustomerType,
		settings.TaxesAndCharges,
		settings.UpdatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to update sync settings", zap.Error(err))
		return err
	}

	return nil
}

func (r *settingsRepository) SetEnableSync(ctx context.Context, name string, enabled bool) error {
	query := `
		UPDATE sync_settings
		SET enable_sync = $2, updated_at = $3
		WHERE name = $1
	`

	_, err := r.db.ExecContext(ctx, query, name, enabled, time.Now())
	if err != nil {
		r.logger.Error("Failed to set enable_sync", zap.String("name", name), zap.Error(err))
		return err
	}

	return nil
}
