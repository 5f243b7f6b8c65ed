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

type catalogRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewCatalogRepository creates a new catalog repository covering items,
// item groups, brands, manufacturers and item prices
func NewCatalogRepository(db *sql.DB, logger *zap.Logger) *catalogRepository {
	return &catalogRepository{
		db:     db,
		logger: logger,
	}
}

func (r *catalogRepository) GetItemBySKU(ctx context.Context, sku string) (*domain.Item, error) {
	query := `
		SELECT code, name, description, item_group, brand, manufacturer, created_at
		FROM items
		WHERE code = $1
	`

	var item domain.Item
	var brand, manufacturer sql.NullString

	err := r.db.QueryRowContext(ctx, query, sku).Scan(
		&item.Code,
		&item.Name,
		&item.Description,
		&item.ItemGroup,
		&brand,
		&manufacturer,
		&item.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "item", ID: sku}
	}
	if err != nil {
		r.logger.Error("Failed to get item", zap.Error(err))
		return nil, err
	}

	if brand.Valid {
		item.Brand = &brand.String
	}
	if manufacturer.Valid {
		item.Manufacturer = &manufacturer.String
	}

	return &item, nil
}

func (r *catalogRepository) CreateItem(ctx context.Context, item *domain.Item) error {
	query := `
		INSERT INTO items (code, name, description, item_group, brand, manufacturer, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx, query,
		item.Code,
		item.Name,
		item.Description,
		item.ItemGroup,
		item.Brand,
		item.Manufacturer,
		item.CreatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to create item", zap.String("sku", item.Code), zap.Error(err))
		return err
	}

	return nil
}

func (r *catalogRepository) GetItemGroup(ctx context.Context, name string) (*domain.ItemGroup, error) {
	query := `SELECT name, parent_group FROM item_groups WHERE name = $1`

	var group domain.ItemGroup

	err := r.db.QueryRowContext(ctx, query, name).Scan(&group.Name, &group.ParentGroup)
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "item group", ID: name}
	}
	if err != nil {
		r.logger.Error("Failed to get item group", zap.Error(err))
		return nil, err
	}

	return &group, nil
}

func (r *catalogRepository) CreateItemGroup(ctx context.Context, group *domain.ItemGroup) error {
	query := `INSERT INTO item_groups (name, parent_group) VALUES ($1, $2)`

	_, err := r.db.ExecContext(ctx, query, group.Name, group.ParentGroup)
	if err != nil {
		r.logger.Error("Failed to create item group", zap.String("name", group.Name), zap.Error(err))
		return err
	}

	return nil
}

func (r *catalogRepository) GetBrand(ctx context.Context, name string) (*domain.Brand, error) {
	query := `SELECT name FROM brands WHERE name = $1`

	var brand domain.Brand

	err := r.db.QueryRowContext(ctx, query, name).Scan(&brand.Name)
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "brand", ID: name}
	}
	if err != nil {
		r.logger.Error("Failed to get brand", zap.Error(err))
		return nil, err
	}

	return &brand, nil
}

func (r *catalogRepository) CreateBrand(ctx context.Context, brand *domain.Brand) error {
	query := `INSERT INTO brands (name) VALUES ($1)`

	_, err := r.db.ExecContext(ctx, query, brand.Name)
	if err != nil {
		r.logger.Error("Failed to create brand", zap.String("name", brand.Name), zap.Error(err))
		return err
	}

	return nil
}

func (r *catalogRepository) GetManufacturer(ctx context.Context, name string) (*domain.Manufacturer, error) {
	query := `SELECT name FROM manufacturers WHERE name = $1`

	var m domain.Manufacturer

	err := r.db.QueryRowContext(ctx, query, name).Scan(&m.Name)
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "manufacturer", ID: name}
	}
	if err != nil {
		r.logger.Error("Failed to get manufacturer", zap.Error(err))
		return nil, err
	}

	return &m, nil
}

func (r *catalogRepository) CreateManufacturer(ctx context.Context, m *domain.Manufacturer) error {
	query := `INSERT INTO manufacturers (name) VALUES ($1)`

	_, err := r.db.ExecContext(ctx, query, m.Name)
	if err != nil {
		r.logger.Error("Failed to create manufacturer", zap.String("name", m.Name), zap.Error(err))
		return err
	}

	return nil
}

func (r *catalogRepository) CreateItemPrice(ctx context.Context, price *domain.ItemPrice) error {
	query := `
		INSERT INTO item_prices (id, item_code, price_list, rate)
		VALUES ($1, $2, $3, $4)
	`

	if price.ID == "" {
		price.ID = uuid.NewString()
	}

	_, err := r.db.ExecContext(ctx, query,
		price.ID,
		price.ItemCode,
		price.PriceList,
		price.Rate,
	)

	if err != nil {
		r.logger.Error("Failed to create item price", zap.String("item", price.ItemCode), zap.Error(err))
		return err
	}

	return nil
}
