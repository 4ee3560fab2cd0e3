package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/orderflow/backend/internal/domain/shared"
	"github.com/orderflow/backend/internal/domain/workflow"
	"github.com/orderflow/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormOrderReturnRepository implements OrderReturnRepository using GORM
type GormOrderReturnRepository struct {
	db *gorm.DB
}

// NewGormOrderReturnRepository creates a new GormOrderReturnRepository
func NewGormOrderReturnRepository(db *gorm.DB) *GormOrderReturnRepository {
	return &GormOrderReturnRepository{db: db}
}

// FindByID finds a return by ID
func (r *GormOrderReturnRepository) FindByID(ctx context.Context, id uuid.UUID) (*workflow.OrderReturn, error) {
	var model models.OrderReturnModel
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		Preload("Items").
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByOrder finds all returns recorded against an order
func (r *GormOrderReturnRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]workflow.OrderReturn, error) {
	var returnModels []models.OrderReturnModel
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		Preload("Items").
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&returnModels).Error; err != nil {
		return nil, err
	}
	return toDomainReturns(returnModels), nil
}

// FindByClient finds returns for a client
func (r *GormOrderReturnRepository) FindByClient(ctx context.Context, clientID uuid.UUID, filter shared.Filter) ([]workflow.OrderReturn, error) {
	var returnModels []models.OrderReturnModel
	query := dbFromContext(ctx, r.db).WithContext(ctx).
		Model(&models.OrderReturnModel{}).
		Preload("Items").
		Where("client_id = ?", clientID)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}
	query = query.Order("created_at DESC")

	if err := query.Find(&returnModels).Error; err != nil {
		return nil, err
	}
	return toDomainReturns(returnModels), nil
}

// Save persists a return together with its line items
func (r *GormOrderReturnRepository) Save(ctx context.Context, ret *workflow.OrderReturn) error {
	model := models.OrderReturnModelFromDomain(ret)
	return dbFromContext(ctx, r.db).WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items").Save(model).Error; err != nil {
			return err
		}
		for i := range model.Items {
			model.Items[i].ReturnID = model.ID
			if err := tx.Save(&model.Items[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// GetReturnedQuantitiesByOrder returns the total quantity already returned
// per product for an order
func (r *GormOrderReturnRepository) GetReturnedQuantitiesByOrder(ctx context.Context, orderID uuid.UUID) (map[string]decimal.Decimal, error) {
	type productQuantity struct {
		ProductName   string
		TotalReturned decimal.Decimal
	}

	var rows []productQuantity
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		Model(&models.ReturnLineItemModel{}).
		Select("return_line_items.product_name, SUM(return_line_items.return_quantity) AS total_returned").
		Joins("JOIN order_returns ON order_returns.id = return_line_items.return_id").
		Where("order_returns.order_id = ?", orderID).
		Group("return_line_items.product_name").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	quantities := make(map[string]decimal.Decimal, len(rows))
	for _, row := range rows {
		quantities[row.ProductName] = row.TotalReturned
	}
	return quantities, nil
}

// GenerateReturnNumber generates a unique return number
// Format: RET-YYYYMMDD-NNNN (e.g., RET-20260301-0001)
func (r *GormOrderReturnRepository) GenerateReturnNumber(ctx context.Context) (string, error) {
	prefix := fmt.Sprintf("RET-%s-", time.Now().Format("20060102"))

	var lastModel models.OrderReturnModel
	err := dbFromContext(ctx, r.db).WithContext(ctx).
		Model(&models.OrderReturnModel{}).
		Where("return_number LIKE ?", prefix+"%").
		Order("return_number DESC").
		First(&lastModel).Error

	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	var nextNum int64 = 1
	if err == nil && lastModel.ReturnNumber != "" {
		parts := strings.Split(lastModel.ReturnNumber, "-")
		if len(parts) == 3 {
			var num int64
			if _, parseErr := fmt.Sscanf(parts[2], "%d", &num); parseErr == nil {
				nextNum = num + 1
			}
		}
	}

	returnNumber := fmt.Sprintf("%s%04d", prefix, nextNum)

	exists, err := r.existsByReturnNumber(ctx, returnNumber)
	if err != nil {
		return "", err
	}
	for i := 0; exists && i < 100; i++ {
		nextNum++
		returnNumber = fmt.Sprintf("%s%04d", prefix, nextNum)
		exists, err = r.existsByReturnNumber(ctx, returnNumber)
		if err != nil {
			return "", err
		}
	}

	return returnNumber, nil
}

func (r *GormOrderReturnRepository) existsByReturnNumber(ctx context.Context, returnNumber string) (bool, error) {
	var count int64
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		Model(&models.OrderReturnModel{}).
		Where("return_number = ?", returnNumber).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// toDomainReturns converts a slice of persistence models to domain returns
func toDomainReturns(returnModels []models.OrderReturnModel) []workflow.OrderReturn {
	returns := make([]workflow.OrderReturn, len(returnModels))
	for i := range returnModels {
		returns[i] = *returnModels[i].ToDomain()
	}
	return returns
}

// Ensure GormOrderReturnRepository implements OrderReturnRepository
var _ workflow.OrderReturnRepository = (*GormOrderReturnRepository)(nil)
