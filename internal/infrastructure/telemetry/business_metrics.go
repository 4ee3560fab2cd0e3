// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// BusinessMetrics provides business metrics for the order workflow and
// settlement ledger. It tracks order creation, payment activity, and the
// health of the receivables book.
type BusinessMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	// Counter metrics (monotonically increasing)
	orderCreatedTotal      *Counter
	orderAmountTotal       *Counter
	paymentTotal           *Counter
	settlementSessionTotal *Counter

	// Gauge metrics (point-in-time values)
	outstandingOrders *Gauge
	outstandingAmount *FloatGauge
	debtorCount       *Gauge

	// Periodic collector
	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	// Data provider for periodic collection
	receivablesProvider ReceivablesMetricsProvider
}

// ReceivablesMetricsProvider provides receivables data for periodic metrics
// collection. This interface allows the telemetry layer to query payment
// state without depending on the settlement domain directly.
type ReceivablesMetricsProvider interface {
	// GetOutstandingTotals returns the number of open payment records and
	// the total amount still owed across them
	GetOutstandingTotals(ctx context.Context) (count int64, amount decimal.Decimal, err error)

	// GetDebtorCount returns the number of clients with a negative balance
	GetDebtorCount(ctx context.Context) (int64, error)
}

// BusinessMetricsConfig holds configuration for business metrics.
type BusinessMetricsConfig struct {
	Meter               metric.Meter
	Logger              *zap.Logger
	CollectInterval     time.Duration // Default: 5 minutes
	ReceivablesProvider ReceivablesMetricsProvider
}

// NewBusinessMetrics creates a new BusinessMetrics instance.
func NewBusinessMetrics(cfg BusinessMetricsConfig) (*BusinessMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	bm := &BusinessMetrics{
		meter:               cfg.Meter,
		logger:              logger,
		stopChan:            make(chan struct{}),
		receivablesProvider: cfg.ReceivablesProvider,
	}

	// Initialize counter metrics
	var err error

	// Order metrics
	bm.orderCreatedTotal, err = NewCounter(
		cfg.Meter,
		"orderflow_order_created_total",
		"Total number of orders created",
		"{orders}",
	)
	if err != nil {
		return nil, err
	}

	bm.orderAmountTotal, err = NewCounter(
		cfg.Meter,
		"orderflow_order_amount_total",
		"Total order amount in cents",
		"{cents}",
	)
	if err != nil {
		return nil, err
	}

	// Payment metrics
	bm.paymentTotal, err = NewCounter(
		cfg.Meter,
		"orderflow_payment_total",
		"Total number of payment transactions",
		"{payments}",
	)
	if err != nil {
		return nil, err
	}

	bm.settlementSessionTotal, err = NewCounter(
		cfg.Meter,
		"orderflow_settlement_sessions_total",
		"Total number of settlement sessions",
		"{sessions}",
	)
	if err != nil {
		return nil, err
	}

	// Receivables gauge metrics
	bm.outstandingOrders, err = NewGauge(
		cfg.Meter,
		"orderflow_outstanding_orders",
		"Number of orders with unpaid or partially paid records",
		"{orders}",
	)
	if err != nil {
		return nil, err
	}

	bm.outstandingAmount, err = NewFloatGauge(
		cfg.Meter,
		"orderflow_outstanding_amount",
		"Total amount still owed across open payment records",
		"{currency}",
	)
	if err != nil {
		return nil, err
	}

	bm.debtorCount, err = NewGauge(
		cfg.Meter,
		"orderflow_debtor_count",
		"Number of clients with a negative balance",
		"{clients}",
	)
	if err != nil {
		return nil, err
	}

	return bm, nil
}

// =============================================================================
// Order Metrics
// =============================================================================

// RecordOrderCreated records an order creation event.
// This should be called from the application layer when an order is created.
func (bm *BusinessMetrics) RecordOrderCreated(ctx context.Context, clientID uuid.UUID) {
	bm.orderCreatedTotal.Inc(ctx,
		AttrClientID.String(clientID.String()),
	)
}

// RecordOrderAmount records the order amount in cents.
func (bm *BusinessMetrics) RecordOrderAmount(ctx context.Context, clientID uuid.UUID, amountCents int64) {
	bm.orderAmountTotal.Add(ctx, amountCents,
		AttrClientID.String(clientID.String()),
	)
}

// RecordOrderWithAmount is a convenience method that records both order count and amount.
func (bm *BusinessMetrics) RecordOrderWithAmount(ctx context.Context, clientID uuid.UUID, amount decimal.Decimal) {
	bm.RecordOrderCreated(ctx, clientID)

	amountCents := amount.Mul(decimal.NewFromInt(100)).IntPart()
	bm.RecordOrderAmount(ctx, clientID, amountCents)
}

// =============================================================================
// Payment Metrics
// =============================================================================

// RecordPayment records one ledger transaction.
// This should be called when a payment, debt, or credit row is appended.
func (bm *BusinessMetrics) RecordPayment(ctx context.Context, method, transactionType string) {
	bm.paymentTotal.Inc(ctx,
		AttrPaymentMethod.String(method),
		AttrTransactionType.String(transactionType),
	)
}

// RecordSettlementSession records a completed settlement session by outcome.
func (bm *BusinessMetrics) RecordSettlementSession(ctx context.Context, status string) {
	bm.settlementSessionTotal.Inc(ctx,
		AttrSessionStatus.String(status),
	)
}

// =============================================================================
// Receivables Metrics
// =============================================================================

// RecordOutstanding records the current size of the receivables book.
// This is a gauge metric that should be updated periodically.
func (bm *BusinessMetrics) RecordOutstanding(ctx context.Context, count int64, amount decimal.Decimal) {
	bm.outstandingOrders.Record(ctx, count)
	bm.outstandingAmount.Record(ctx, amount.InexactFloat64())
}

// RecordDebtorCount records the number of clients currently in debt.
// This is a gauge metric that should be updated periodically.
func (bm *BusinessMetrics) RecordDebtorCount(ctx context.Context, count int64) {
	bm.debtorCount.Record(ctx, count)
}

// =============================================================================
// Periodic Collection
// =============================================================================

// StartPeriodicCollection starts periodic collection of gauge metrics.
// It collects receivables metrics every interval (default: 5 minutes).
// This is non-blocking - use Stop() to stop collection.
func (bm *BusinessMetrics) StartPeriodicCollection(ctx context.Context, interval time.Duration) {
	bm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}

		go bm.runPeriodicCollection(ctx, interval)
	})
}

// runPeriodicCollection runs the periodic collection loop.
func (bm *BusinessMetrics) runPeriodicCollection(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Collect immediately on start
	bm.collectReceivablesMetrics(ctx)

	for {
		select {
		case <-bm.stopChan:
			bm.logger.Info("Stopping periodic business metrics collection")
			return
		case <-ctx.Done():
			bm.logger.Info("Context cancelled, stopping periodic business metrics collection")
			return
		case <-ticker.C:
			bm.collectReceivablesMetrics(ctx)
		}
	}
}

// collectReceivablesMetrics collects receivables gauge metrics.
func (bm *BusinessMetrics) collectReceivablesMetrics(ctx context.Context) {
	if bm.receivablesProvider == nil {
		bm.logger.Debug("No receivables provider configured, skipping receivables metrics collection")
		return
	}

	count, amount, err := bm.receivablesProvider.GetOutstandingTotals(ctx)
	if err != nil {
		bm.logger.Warn("Failed to get outstanding totals for metrics collection", zap.Error(err))
	} else {
		bm.RecordOutstanding(ctx, count, amount)
	}

	debtors, err := bm.receivablesProvider.GetDebtorCount(ctx)
	if err != nil {
		bm.logger.Warn("Failed to get debtor count for metrics collection", zap.Error(err))
	} else {
		bm.RecordDebtorCount(ctx, debtors)
	}
}

// Stop stops the periodic collection.
func (bm *BusinessMetrics) Stop() {
	bm.stopOnce.Do(func() {
		close(bm.stopChan)
	})
}

// =============================================================================
// Error Types
// =============================================================================

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewBusinessMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
