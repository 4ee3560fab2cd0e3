package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/orderflow/backend/internal/domain/settlement"
	"github.com/orderflow/backend/internal/domain/shared"
	"github.com/orderflow/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormPaymentRecordRepository implements PaymentRecordRepository using GORM
type GormPaymentRecordRepository struct {
	db *gorm.DB
}

// NewGormPaymentRecordRepository creates a new GormPaymentRecordRepository
func NewGormPaymentRecordRepository(db *gorm.DB) *GormPaymentRecordRepository {
	return &GormPaymentRecordRepository{db: db}
}

// FindByID finds a payment record by ID
func (r *GormPaymentRecordRepository) FindByID(ctx context.Context, id uuid.UUID) (*settlement.OrderPaymentRecord, error) {
	var model models.PaymentRecordModel
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByOrder finds the payment record for an order
func (r *GormPaymentRecordRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) (*settlement.OrderPaymentRecord, error) {
	var model models.PaymentRecordModel
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		Where("order_id = ?", orderID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindOutstandingByClient returns the client's UNPAID and PARTIAL records,
// oldest order first. Settlement allocation walks this slice in order.
func (r *GormPaymentRecordRepository) FindOutstandingByClient(ctx context.Context, clientID uuid.UUID) ([]settlement.OrderPaymentRecord, error) {
	var recordModels []models.PaymentRecordModel
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		Where("client_id = ? AND status IN ?", clientID,
			[]settlement.PaymentStatus{settlement.PaymentStatusUnpaid, settlement.PaymentStatusPartial}).
		Order("order_date ASC, created_at ASC").
		Find(&recordModels).Error; err != nil {
		return nil, err
	}
	return toDomainPaymentRecords(recordModels), nil
}

// FindByClient finds payment records for a client
func (r *GormPaymentRecordRepository) FindByClient(ctx context.Context, clientID uuid.UUID, filter shared.Filter) ([]settlement.OrderPaymentRecord, error) {
	var recordModels []models.PaymentRecordModel
	query := dbFromContext(ctx, r.db).WithContext(ctx).
		Model(&models.PaymentRecordModel{}).
		Where("client_id = ?", clientID)

	if status, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", status)
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, PaymentRecordSortFields, "order_date")
	query = query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))

	if err := query.Find(&recordModels).Error; err != nil {
		return nil, err
	}
	return toDomainPaymentRecords(recordModels), nil
}

// Save creates or updates a payment record
func (r *GormPaymentRecordRepository) Save(ctx context.Context, record *settlement.OrderPaymentRecord) error {
	model := models.PaymentRecordModelFromDomain(record)
	return dbFromContext(ctx, r.db).WithContext(ctx).Save(model).Error
}

// SaveWithLock saves with optimistic locking (version check)
func (r *GormPaymentRecordRepository) SaveWithLock(ctx context.Context, record *settlement.OrderPaymentRecord) error {
	currentVersion := record.Version
	record.Version++
	record.UpdatedAt = time.Now()

	result := dbFromContext(ctx, r.db).WithContext(ctx).
		Model(&models.PaymentRecordModel{}).
		Where("id = ? AND version = ?", record.ID, currentVersion).
		Updates(map[string]interface{}{
			"order_total":    record.OrderTotal,
			"amount_paid":    record.AmountPaid,
			"credit_applied": record.CreditApplied,
			"status":         record.Status,
			"due_date":       record.DueDate,
			"method":         record.Method,
			"reference":      record.Reference,
			"version":        record.Version,
			"updated_at":     record.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		record.Version = currentVersion
		return shared.ErrStorageConflict
	}
	return nil
}

// ExistsByOrder checks if a payment record exists for an order
func (r *GormPaymentRecordRepository) ExistsByOrder(ctx context.Context, orderID uuid.UUID) (bool, error) {
	var count int64
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		Model(&models.PaymentRecordModel{}).
		Where("order_id = ?", orderID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// toDomainPaymentRecords converts a slice of persistence models to domain records
func toDomainPaymentRecords(recordModels []models.PaymentRecordModel) []settlement.OrderPaymentRecord {
	records := make([]settlement.OrderPaymentRecord, len(recordModels))
	for i := range recordModels {
		records[i] = *recordModels[i].ToDomain()
	}
	return records
}

// Ensure GormPaymentRecordRepository implements PaymentRecordRepository
var _ settlement.PaymentRecordRepository = (*GormPaymentRecordRepository)(nil)
