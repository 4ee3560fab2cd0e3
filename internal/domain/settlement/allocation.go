package settlement

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/orderflow/backend/internal/domain/shared"
	"github.com/orderflow/backend/internal/domain/shared/strategy"
	"github.com/orderflow/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// AllocationStrategyType defines how collected money is spread across orders
type AllocationStrategyType string

const (
	// AllocationStrategyTypeFIFO pays off the longest-standing orders first
	AllocationStrategyTypeFIFO AllocationStrategyType = "FIFO"
)

// IsValid checks if the strategy type is valid
func (t AllocationStrategyType) IsValid() bool {
	return t == AllocationStrategyTypeFIFO
}

// String returns the string representation
func (t AllocationStrategyType) String() string {
	return string(t)
}

// AllocationTarget represents an outstanding payment record up for allocation
type AllocationTarget struct {
	RecordID          uuid.UUID       // Payment record ID
	OrderID           uuid.UUID       // Order the record belongs to
	OrderNumber       string          // Number for display purposes
	OutstandingAmount decimal.Decimal // Amount still remaining
	OrderCreatedAt    time.Time       // Order creation date for FIFO ordering
}

// AllocationResult represents the amount assigned to a single order
type AllocationResult struct {
	RecordID    uuid.UUID
	OrderID     uuid.UUID
	OrderNumber string
	Amount      decimal.Decimal
}

// AllocationPlan is the complete outcome of an allocation strategy run
type AllocationPlan struct {
	Allocations         []AllocationResult
	TotalAllocated      decimal.Decimal
	RemainingAmount     decimal.Decimal // Becomes standing credit if positive
	FullyAllocated      bool
	OrdersFullyPaid     []uuid.UUID
	OrdersPartiallyPaid []uuid.UUID
}

// AllocationStrategy computes how collected money is split across orders
type AllocationStrategy interface {
	strategy.Strategy
	// StrategyType returns the allocation strategy type
	StrategyType() AllocationStrategyType
	// Allocate calculates how to allocate the given amount across targets
	Allocate(amount valueobject.Money, targets []AllocationTarget) (*AllocationPlan, error)
}

// FIFOAllocationStrategy allocates collected money to the oldest-created
// orders first. The ordering is a business policy (pay off the
// longest-standing debt first), not an implementation detail.
type FIFOAllocationStrategy struct {
	strategy.BaseStrategy
}

// NewFIFOAllocationStrategy creates a new FIFO allocation strategy
func NewFIFOAllocationStrategy() *FIFOAllocationStrategy {
	return &FIFOAllocationStrategy{
		BaseStrategy: strategy.NewBaseStrategy(
			"fifo_allocation",
			strategy.StrategyTypeAllocation,
			"FIFO allocation strategy - pays down the oldest-created orders first",
		),
	}
}

// StrategyType returns the allocation strategy type
func (s *FIFOAllocationStrategy) StrategyType() AllocationStrategyType {
	return AllocationStrategyTypeFIFO
}

// Allocate walks the targets oldest-created first, applying the amount to
// each outstanding balance in turn until the money or the targets run out.
func (s *FIFOAllocationStrategy) Allocate(amount valueobject.Money, targets []AllocationTarget) (*AllocationPlan, error) {
	if amount.IsNegative() {
		return nil, shared.ErrNegativeAmount
	}
	if len(targets) == 0 || amount.IsZero() {
		return &AllocationPlan{
			Allocations:         make([]AllocationResult, 0),
			TotalAllocated:      decimal.Zero,
			RemainingAmount:     amount.Amount(),
			FullyAllocated:      amount.IsZero(),
			OrdersFullyPaid:     make([]uuid.UUID, 0),
			OrdersPartiallyPaid: make([]uuid.UUID, 0),
		}, nil
	}

	sortedTargets := make([]AllocationTarget, len(targets))
	copy(sortedTargets, targets)
	sort.Slice(sortedTargets, func(i, j int) bool {
		return sortedTargets[i].OrderCreatedAt.Before(sortedTargets[j].OrderCreatedAt)
	})

	allocations := make([]AllocationResult, 0)
	fullyPaid := make([]uuid.UUID, 0)
	partiallyPaid := make([]uuid.UUID, 0)
	remaining := amount.Amount()
	totalAllocated := decimal.Zero

	for _, target := range sortedTargets {
		if remaining.IsZero() {
			break
		}
		if target.OutstandingAmount.LessThanOrEqual(decimal.Zero) {
			continue
		}

		allocAmount := decimal.Min(remaining, target.OutstandingAmount)

		allocations = append(allocations, AllocationResult{
			RecordID:    target.RecordID,
			OrderID:     target.OrderID,
			OrderNumber: target.OrderNumber,
			Amount:      allocAmount,
		})

		totalAllocated = totalAllocated.Add(allocAmount)
		remaining = remaining.Sub(allocAmount)

		if allocAmount.GreaterThanOrEqual(target.OutstandingAmount) {
			fullyPaid = append(fullyPaid, target.OrderID)
		} else {
			partiallyPaid = append(partiallyPaid, target.OrderID)
		}
	}

	return &AllocationPlan{
		Allocations:         allocations,
		TotalAllocated:      totalAllocated,
		RemainingAmount:     remaining,
		FullyAllocated:      remaining.IsZero(),
		OrdersFullyPaid:     fullyPaid,
		OrdersPartiallyPaid: partiallyPaid,
	}, nil
}
