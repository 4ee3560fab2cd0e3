package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/orderflow/backend/internal/domain/settlement"
	"github.com/orderflow/backend/internal/domain/shared"
	"github.com/orderflow/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormClientBalanceRepository implements ClientBalanceRepository using GORM
type GormClientBalanceRepository struct {
	db *gorm.DB
}

// NewGormClientBalanceRepository creates a new GormClientBalanceRepository
func NewGormClientBalanceRepository(db *gorm.DB) *GormClientBalanceRepository {
	return &GormClientBalanceRepository{db: db}
}

// FindByClient finds the balance row for a client
func (r *GormClientBalanceRepository) FindByClient(ctx context.Context, clientID uuid.UUID) (*settlement.ClientBalance, error) {
	var model models.ClientBalanceModel
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		Where("client_id = ?", clientID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByClientForUpdate finds the balance row holding an exclusive row lock
// for the duration of the surrounding transaction. Settlement sessions for
// the same client serialize on this lock.
func (r *GormClientBalanceRepository) FindByClientForUpdate(ctx context.Context, clientID uuid.UUID) (*settlement.ClientBalance, error) {
	var model models.ClientBalanceModel
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("client_id = ?", clientID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindOrCreate returns the balance row, creating a zero row if missing
func (r *GormClientBalanceRepository) FindOrCreate(ctx context.Context, clientID uuid.UUID) (*settlement.ClientBalance, error) {
	balance, err := r.FindByClient(ctx, clientID)
	if err == nil {
		return balance, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	now := time.Now()
	model := &models.ClientBalanceModel{
		AggregateModel: models.AggregateModel{
			BaseModel: models.BaseModel{
				ID:        uuid.New(),
				CreatedAt: now,
				UpdatedAt: now,
			},
			Version: 1,
		},
		ClientID:       clientID,
		CurrentBalance: decimal.Zero,
		TotalDebt:      decimal.Zero,
		TotalCredit:    decimal.Zero,
	}

	// Another request may create the row concurrently; the unique index on
	// client_id makes the insert lose, so re-read on conflict.
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "client_id"}},
			DoNothing: true,
		}).
		Create(model).Error; err != nil {
		return nil, err
	}

	return r.FindByClient(ctx, clientID)
}

// FindDebtors returns clients with negative balances, most indebted first
func (r *GormClientBalanceRepository) FindDebtors(ctx context.Context, filter shared.Filter) ([]settlement.ClientBalance, error) {
	var balanceModels []models.ClientBalanceModel
	query := dbFromContext(ctx, r.db).WithContext(ctx).
		Model(&models.ClientBalanceModel{}).
		Where("current_balance < 0")

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}
	query = query.Order("current_balance ASC")

	if err := query.Find(&balanceModels).Error; err != nil {
		return nil, err
	}

	balances := make([]settlement.ClientBalance, len(balanceModels))
	for i := range balanceModels {
		balances[i] = *balanceModels[i].ToDomain()
	}
	return balances, nil
}

// Save creates or updates a balance row
func (r *GormClientBalanceRepository) Save(ctx context.Context, balance *settlement.ClientBalance) error {
	model := models.ClientBalanceModelFromDomain(balance)
	return dbFromContext(ctx, r.db).WithContext(ctx).Save(model).Error
}

// Ensure GormClientBalanceRepository implements ClientBalanceRepository
var _ settlement.ClientBalanceRepository = (*GormClientBalanceRepository)(nil)
