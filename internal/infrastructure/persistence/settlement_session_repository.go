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

// GormSettlementSessionRepository implements SettlementSessionRepository using GORM
type GormSettlementSessionRepository struct {
	db *gorm.DB
}

// NewGormSettlementSessionRepository creates a new GormSettlementSessionRepository
func NewGormSettlementSessionRepository(db *gorm.DB) *GormSettlementSessionRepository {
	return &GormSettlementSessionRepository{db: db}
}

// FindByID finds a session by ID
func (r *GormSettlementSessionRepository) FindByID(ctx context.Context, id uuid.UUID) (*settlement.SettlementSession, error) {
	var model models.SettlementSessionModel
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByClient finds sessions for a client, most recent first
func (r *GormSettlementSessionRepository) FindByClient(ctx context.Context, clientID uuid.UUID, filter shared.Filter) ([]settlement.SettlementSession, error) {
	var sessionModels []models.SettlementSessionModel
	query := dbFromContext(ctx, r.db).WithContext(ctx).
		Model(&models.SettlementSessionModel{}).
		Where("client_id = ?", clientID)

	if status, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", status)
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}
	query = query.Order("settled_at DESC")

	if err := query.Find(&sessionModels).Error; err != nil {
		return nil, err
	}
	return toDomainSessions(sessionModels), nil
}

// FindByDateRange finds sessions within a date range
func (r *GormSettlementSessionRepository) FindByDateRange(ctx context.Context, from, to time.Time, filter shared.Filter) ([]settlement.SettlementSession, error) {
	var sessionModels []models.SettlementSessionModel
	query := dbFromContext(ctx, r.db).WithContext(ctx).
		Model(&models.SettlementSessionModel{}).
		Where("settled_at >= ? AND settled_at <= ?", from, to)

	if clientID, ok := filter.Filters["client_id"]; ok {
		query = query.Where("client_id = ?", clientID)
	}
	if driverID, ok := filter.Filters["driver_id"]; ok {
		query = query.Where("driver_id = ?", driverID)
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}
	query = query.Order("settled_at DESC")

	if err := query.Find(&sessionModels).Error; err != nil {
		return nil, err
	}
	return toDomainSessions(sessionModels), nil
}

// Save creates or updates a session
func (r *GormSettlementSessionRepository) Save(ctx context.Context, session *settlement.SettlementSession) error {
	model := models.SettlementSessionModelFromDomain(session)
	return dbFromContext(ctx, r.db).WithContext(ctx).Save(model).Error
}

// toDomainSessions converts a slice of persistence models to domain sessions
func toDomainSessions(sessionModels []models.SettlementSessionModel) []settlement.SettlementSession {
	sessions := make([]settlement.SettlementSession, len(sessionModels))
	for i := range sessionModels {
		sessions[i] = *sessionModels[i].ToDomain()
	}
	return sessions
}

// Ensure GormSettlementSessionRepository implements SettlementSessionRepository
var _ settlement.SettlementSessionRepository = (*GormSettlementSessionRepository)(nil)
