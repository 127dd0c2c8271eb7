package domain

// Transaction groups the channel images of one logical capture event.
// Lifecycle: created ACTIVE on the first channel submission, marked
// PROCESSED exactly once. PROCESSED is terminal.
type Transaction struct {
	TransactionID string
	TenantID      string
	Processed     bool
}

// MarkAsProcessed moves the transaction into its terminal state.
func (t *Transaction) MarkAsProcessed() {
	t.Processed = true
}
