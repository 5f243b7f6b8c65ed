package postgres

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/jafarshop/marketsync/internal/domain"
	"github.com/jafarshop/marketsync/pkg/errors"
)

type accountRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewAccountRepository creates a new ledger account repository
func NewAccountRepository(db *sql.DB, logger *zap.Logger) *accountRepository {
	return &accountRepository{
		db:     db,
		logger: logger,
	}
}

func (r *accountRepository) GetByName(ctx context.Context, name string) (*domain.Account, error) {
	query := `
		SELECT name, company, parent_account, created_at
		FROM accounts
		WHERE name = $1
	`

	var account domain.Account

	err := r.db.QueryRowContext(ctx, query, name).Scan(
		&account.Name,
		&account.Company,
		&account.ParentAccount,
		&account.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "account", ID: name}
	}
	if err != nil {
		r.logger.Error("Failed to get account", zap.Error(err))
		return nil, err
	}

	return &account, nil
}

func (r *accountRepository) Create(ctx context.Context, account *domain.Account) error {
	query := `
		INSERT INTO accounts (name, company, parent_account, created_at)
		VALUES ($1, $2, $3, $4)
	`

	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx, query,
		account.Name,
		account.Company,
		account.ParentAccount,
		account.CreatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to create account", zap.String("name", account.Name), zap.Error(err))
		return err
	}

	return nil
}
