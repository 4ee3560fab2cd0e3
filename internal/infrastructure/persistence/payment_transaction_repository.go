package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/orderflow/backend/internal/domain/settlement"
	"github.com/orderflow/backend/internal/domain/shared"
	"github.com/orderflow/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormPaymentTransactionRepository implements PaymentTransactionRepository
// using GORM. The payment_transactions table is the append-only ledger:
// rows are inserted once, never updated or deleted.
type GormPaymentTransactionRepository struct {
	db *gorm.DB
}

// NewGormPaymentTransactionRepository creates a new GormPaymentTransactionRepository
func NewGormPaymentTransactionRepository(db *gorm.DB) *GormPaymentTransactionRepository {
	return &GormPaymentTransactionRepository{db: db}
}

// Create inserts a transaction
func (r *GormPaymentTransactionRepository) Create(ctx context.Context, tx *settlement.PaymentTransaction) error {
	model := models.PaymentTransactionModelFromDomain(tx)
	return dbFromContext(ctx, r.db).WithContext(ctx).Create(model).Error
}

// FindByClient returns transactions for a client, newest first
func (r *GormPaymentTransactionRepository) FindByClient(ctx context.Context, clientID uuid.UUID, filter shared.Filter) ([]settlement.PaymentTransaction, error) {
	var txModels []models.PaymentTransactionModel
	query := dbFromContext(ctx, r.db).WithContext(ctx).
		Model(&models.PaymentTransactionModel{}).
		Where("client_id = ?", clientID)

	if txType, ok := filter.Filters["transaction_type"]; ok {
		query = query.Where("transaction_type = ?", txType)
	}
	if orderID, ok := filter.Filters["order_id"]; ok {
		query = query.Where("order_id = ?", orderID)
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}
	query = query.Order("transaction_date DESC, created_at DESC")

	if err := query.Find(&txModels).Error; err != nil {
		return nil, err
	}
	return toDomainTransactions(txModels), nil
}

// FindAllByClient returns the client's full transaction history, oldest first.
// Balance recomputation replays this slice in order.
func (r *GormPaymentTransactionRepository) FindAllByClient(ctx context.Context, clientID uuid.UUID) ([]settlement.PaymentTransaction, error) {
	var txModels []models.PaymentTransactionModel
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("transaction_date ASC, created_at ASC").
		Find(&txModels).Error; err != nil {
		return nil, err
	}
	return toDomainTransactions(txModels), nil
}

// CountByClient counts transactions for a client
func (r *GormPaymentTransactionRepository) CountByClient(ctx context.Context, clientID uuid.UUID) (int64, error) {
	var count int64
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		Model(&models.PaymentTransactionModel{}).
		Where("client_id = ?", clientID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// toDomainTransactions converts a slice of persistence models to domain transactions
func toDomainTransactions(txModels []models.PaymentTransactionModel) []settlement.PaymentTransaction {
	transactions := make([]settlement.PaymentTransaction, len(txModels))
	for i := range txModels {
		transactions[i] = *txModels[i].ToDomain()
	}
	return transactions
}

// Ensure GormPaymentTransactionRepository implements PaymentTransactionRepository
var _ settlement.PaymentTransactionRepository = (*GormPaymentTransactionRepository)(nil)
