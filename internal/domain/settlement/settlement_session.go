package settlement

import (
	"time"

	"github.com/google/uuid"
	"github.com/orderflow/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// SessionStatus represents the outcome of a settlement session
type SessionStatus string

const (
	SessionStatusPending   SessionStatus = "PENDING"
	SessionStatusCompleted SessionStatus = "COMPLETED"
	SessionStatusPartial   SessionStatus = "PARTIAL"
	SessionStatusNoPayment SessionStatus = "NO_PAYMENT"
	SessionStatusFailed    SessionStatus = "FAILED"
)

// IsValid checks if the status is a valid SessionStatus
func (s SessionStatus) IsValid() bool {
	switch s {
	case SessionStatusPending, SessionStatusCompleted, SessionStatusPartial, SessionStatusNoPayment, SessionStatusFailed:
		return true
	}
	return false
}

// String returns the string representation of SessionStatus
func (s SessionStatus) String() string {
	return string(s)
}

// SettlementSession records one settlement action against a client: the
// order set considered collectible at the time, the total collectible, and
// what was actually collected. Created once per settlement; never
// retroactively edited except status correction.
type SettlementSession struct {
	shared.BaseAggregateRoot
	ClientID           uuid.UUID
	OriginOrderID      *uuid.UUID
	DriverID           *uuid.UUID
	ConsideredOrderIDs []uuid.UUID
	TotalCollectible   decimal.Decimal
	AmountCollected    decimal.Decimal
	Method             string
	Reference          string
	Notes              string
	Status             SessionStatus
	SettledAt          time.Time
}

// NewSettlementSession creates a pending settlement session
func NewSettlementSession(clientID uuid.UUID, consideredOrderIDs []uuid.UUID, totalCollectible, amountCollected decimal.Decimal, method string) (*SettlementSession, error) {
	if clientID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CLIENT", "Client ID cannot be empty")
	}
	if amountCollected.IsNegative() {
		return nil, shared.ErrNegativeAmount
	}
	if totalCollectible.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Total collectible cannot be negative")
	}

	return &SettlementSession{
		BaseAggregateRoot:  shared.NewBaseAggregateRoot(),
		ClientID:           clientID,
		ConsideredOrderIDs: consideredOrderIDs,
		TotalCollectible:   totalCollectible,
		AmountCollected:    amountCollected,
		Method:             method,
		Status:             SessionStatusPending,
		SettledAt:          time.Now(),
	}, nil
}

// WithOriginOrder links the session to the order that triggered it
func (s *SettlementSession) WithOriginOrder(orderID uuid.UUID) *SettlementSession {
	s.OriginOrderID = &orderID
	return s
}

// WithDriver links the session to the collecting driver
func (s *SettlementSession) WithDriver(driverID uuid.UUID) *SettlementSession {
	s.DriverID = &driverID
	return s
}

// WithReference sets the payment reference
func (s *SettlementSession) WithReference(reference string) *SettlementSession {
	s.Reference = reference
	return s
}

// WithNotes sets the free-text notes
func (s *SettlementSession) WithNotes(notes string) *SettlementSession {
	s.Notes = notes
	return s
}

// Finalize derives the session status from what was collected: NO_PAYMENT
// when nothing was collected, COMPLETED when the full collectible was
// covered, PARTIAL otherwise.
func (s *SettlementSession) Finalize() {
	switch {
	case s.AmountCollected.IsZero():
		s.Status = SessionStatusNoPayment
	case s.AmountCollected.GreaterThanOrEqual(s.TotalCollectible):
		s.Status = SessionStatusCompleted
	default:
		s.Status = SessionStatusPartial
	}
	s.UpdatedAt = time.Now()

	s.AddDomainEvent(NewSettlementCompletedEvent(s))
}

// Fail marks the session as failed; used for status correction only
func (s *SettlementSession) Fail() {
	s.Status = SessionStatusFailed
	s.UpdatedAt = time.Now()
}
