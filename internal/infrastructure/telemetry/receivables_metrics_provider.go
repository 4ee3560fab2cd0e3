// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormReceivablesMetricsProvider implements ReceivablesMetricsProvider using
// GORM. It queries the payment record and balance tables directly for
// aggregated metrics.
type GormReceivablesMetricsProvider struct {
	db *gorm.DB
}

// NewGormReceivablesMetricsProvider creates a new GormReceivablesMetricsProvider.
func NewGormReceivablesMetricsProvider(db *gorm.DB) *GormReceivablesMetricsProvider {
	return &GormReceivablesMetricsProvider{db: db}
}

// GetOutstandingTotals returns the number of open payment records and the
// total amount still owed across them.
func (p *GormReceivablesMetricsProvider) GetOutstandingTotals(ctx context.Context) (int64, decimal.Decimal, error) {
	type result struct {
		Count  int64           `gorm:"column:count"`
		Amount decimal.Decimal `gorm:"column:amount"`
	}

	// Consumed return credit already lowers order_total, so the amount owed
	// is total minus paid with no separate credit term.
	var r result
	err := p.db.WithContext(ctx).
		Table("order_payment_records").
		Select("COUNT(*) AS count, COALESCE(SUM(GREATEST(order_total - amount_paid, 0)), 0) AS amount").
		Where("status IN ?", []string{"UNPAID", "PARTIAL"}).
		Scan(&r).Error
	if err != nil {
		return 0, decimal.Zero, err
	}

	return r.Count, r.Amount, nil
}

// GetDebtorCount returns the number of clients with a negative balance.
func (p *GormReceivablesMetricsProvider) GetDebtorCount(ctx context.Context) (int64, error) {
	var count int64
	err := p.db.WithContext(ctx).
		Table("client_balances").
		Where("current_balance < 0").
		Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}
