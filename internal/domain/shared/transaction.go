package shared

import "context"

// TransactionManager runs a function inside a single storage transaction.
// Repositories called with the context passed to fn observe the same
// transaction, so either every write in fn commits or none do.
type TransactionManager interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// NopTransactionManager executes fn without any transaction. Useful in
// tests and for callers that only perform a single write.
type NopTransactionManager struct{}

func (NopTransactionManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
