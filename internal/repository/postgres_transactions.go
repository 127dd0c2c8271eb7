package repository

import (
	"context"
	"database/sql"

	"github.com/vitrum-connect/5gla-sensor-integration-services/internal/domain"
)

type PostgresTransactionsRepo struct {
	db *sql.DB
}

func NewPostgresTransactionsRepo(db *sql.DB) *PostgresTransactionsRepo {
	return &PostgresTransactionsRepo{db: db}
}

func (r *PostgresTransactionsRepo) FindByTransactionID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	q := `
		SELECT transaction_id, tenant_id, processed
		FROM transactions
		WHERE transaction_id = $1`
	var transaction domain.Transaction
	err := r.db.QueryRowContext(ctx, q, transactionID).Scan(
		&transaction.TransactionID,
		&transaction.TenantID,
		&transaction.Processed,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &transaction, nil
}

func (r *PostgresTransactionsRepo) Save(ctx context.Context, transaction *domain.Transaction) error {
	q := `
		INSERT INTO transactions (transaction_id, tenant_id, processed)
		VALUES ($1, $2, $3)
		ON CONFLICT (transaction_id) DO UPDATE SET processed = EXCLUDED.processed`
	_, err := r.db.ExecContext(ctx, q, transaction.TransactionID, transaction.TenantID, transaction.Processed)
	return err
}
