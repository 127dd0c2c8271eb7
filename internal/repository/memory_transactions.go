package repository

import (
	"context"
	"sync"

	"github.com/vitrum-connect/5gla-sensor-integration-services/internal/domain"
)

// MemoryTransactionsRepo is an in-memory TransactionsRepository for
// tests and DB-less local runs.
type MemoryTransactionsRepo struct {
	mu           sync.RWMutex
	transactions map[string]domain.Transaction
}

func NewMemoryTransactionsRepo() *MemoryTransactionsRepo {
	return &MemoryTransactionsRepo{transactions: map[string]domain.Transaction{}}
}

func (r *MemoryTransactionsRepo) FindByTransactionID(_ context.Context, transactionID string) (*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if transaction, ok := r.transactions[transactionID]; ok {
		copied := transaction
		return &copied, nil
	}
	return nil, nil
}

func (r *MemoryTransactionsRepo) Save(_ context.Context, transaction *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transactions[transaction.TransactionID] = *transaction
	return nil
}
