package settlement

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/orderflow/backend/internal/domain/shared"
)

// PaymentRecordRepository defines the interface for payment record persistence
type PaymentRecordRepository interface {
	// FindByID finds a payment record by ID
	FindByID(ctx context.Context, id uuid.UUID) (*OrderPaymentRecord, error)

	// FindByOrder finds the payment record for an order
	FindByOrder(ctx context.Context, orderID uuid.UUID) (*OrderPaymentRecord, error)

	// FindOutstandingByClient returns the client's UNPAID and PARTIAL records,
	// oldest order first
	FindOutstandingByClient(ctx context.Context, clientID uuid.UUID) ([]OrderPaymentRecord, error)

	// FindByClient finds payment records for a client
	FindByClient(ctx context.Context, clientID uuid.UUID, filter shared.Filter) ([]OrderPaymentRecord, error)

	// Save creates or updates a payment record
	Save(ctx context.Context, record *OrderPaymentRecord) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, record *OrderPaymentRecord) error

	// ExistsByOrder checks if a payment record exists for an order
	ExistsByOrder(ctx context.Context, orderID uuid.UUID) (bool, error)
}

// PaymentTransactionRepository defines the interface for the append-only
// transaction ledger. Rows are inserted once, never updated or deleted.
type PaymentTransactionRepository interface {
	// Create inserts a transaction
	Create(ctx context.Context, tx *PaymentTransaction) error

	// FindByClient returns transactions for a client, newest first
	FindByClient(ctx context.Context, clientID uuid.UUID, filter shared.Filter) ([]PaymentTransaction, error)

	// FindAllByClient returns the client's full transaction history
	FindAllByClient(ctx context.Context, clientID uuid.UUID) ([]PaymentTransaction, error)

	// CountByClient counts transactions for a client
	CountByClient(ctx context.Context, clientID uuid.UUID) (int64, error)
}

// ClientBalanceRepository defines the interface for the cached balance view
type ClientBalanceRepository interface {
	// FindByClient finds the balance row for a client
	FindByClient(ctx context.Context, clientID uuid.UUID) (*ClientBalance, error)

	// FindByClientForUpdate finds the balance row holding an exclusive
	// row lock for the duration of the surrounding transaction. Settlement
	// sessions for the same client serialize on this lock.
	FindByClientForUpdate(ctx context.Context, clientID uuid.UUID) (*ClientBalance, error)

	// FindOrCreate returns the balance row, creating a zero row if missing
	FindOrCreate(ctx context.Context, clientID uuid.UUID) (*ClientBalance, error)

	// FindDebtors returns clients with negative balances
	FindDebtors(ctx context.Context, filter shared.Filter) ([]ClientBalance, error)

	// Save creates or updates a balance row
	Save(ctx context.Context, balance *ClientBalance) error
}

// SettlementSessionRepository defines the interface for settlement session persistence
type SettlementSessionRepository interface {
	// FindByID finds a session by ID
	FindByID(ctx context.Context, id uuid.UUID) (*SettlementSession, error)

	// FindByClient finds sessions for a client
	FindByClient(ctx context.Context, clientID uuid.UUID, filter shared.Filter) ([]SettlementSession, error)

	// FindByDateRange finds sessions within a date range
	FindByDateRange(ctx context.Context, from, to time.Time, filter shared.Filter) ([]SettlementSession, error)

	// Save creates or updates a session
	Save(ctx context.Context, session *SettlementSession) error
}
