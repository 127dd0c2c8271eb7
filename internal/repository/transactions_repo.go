package repository

import (
	"context"

	"github.com/vitrum-connect/5gla-sensor-integration-services/internal/domain"
)

// TransactionsRepository stores capture transactions. FindByTransactionID
// returns nil when the transaction is unknown.
type TransactionsRepository interface {
	FindByTransactionID(ctx context.Context, transactionID string) (*domain.Transaction, error)
	Save(ctx context.Context, transaction *domain.Transaction) error
}
