package settlement

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/orderflow/backend/internal/domain/settlement"
	"github.com/orderflow/backend/internal/domain/shared"
	"github.com/orderflow/backend/internal/domain/shared/valueobject"
	"github.com/orderflow/backend/internal/domain/workflow"
	"github.com/orderflow/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SettlementService orchestrates payments, settlement sessions and debt
// operations. Every multi-step mutation runs in one storage transaction;
// concurrent settlements for the same client serialize on the balance row.
type SettlementService struct {
	recordRepo     settlement.PaymentRecordRepository
	ledgerRepo     settlement.PaymentTransactionRepository
	balanceRepo    settlement.ClientBalanceRepository
	sessionRepo    settlement.SettlementSessionRepository
	returnRepo     workflow.OrderReturnRepository
	allocator      settlement.AllocationStrategy
	txManager      shared.TransactionManager
	idempotency    shared.IdempotencyStore
	idemConfig     shared.IdempotencyConfig
	eventPublisher shared.EventPublisher
	metrics        *telemetry.BusinessMetrics
	logger         *zap.Logger
}

// NewSettlementService creates a new SettlementService
func NewSettlementService(
	recordRepo settlement.PaymentRecordRepository,
	ledgerRepo settlement.PaymentTransactionRepository,
	balanceRepo settlement.ClientBalanceRepository,
	sessionRepo settlement.SettlementSessionRepository,
	returnRepo workflow.OrderReturnRepository,
	txManager shared.TransactionManager,
	logger *zap.Logger,
) *SettlementService {
	return &SettlementService{
		recordRepo:  recordRepo,
		ledgerRepo:  ledgerRepo,
		balanceRepo: balanceRepo,
		sessionRepo: sessionRepo,
		returnRepo:  returnRepo,
		allocator:   settlement.NewFIFOAllocationStrategy(),
		txManager:   txManager,
		idemConfig:  shared.DefaultIdempotencyConfig(),
		logger:      logger,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *SettlementService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetIdempotencyStore sets the store used to reject duplicate submissions
func (s *SettlementService) SetIdempotencyStore(store shared.IdempotencyStore, cfg shared.IdempotencyConfig) {
	s.idempotency = store
	s.idemConfig = cfg
}

// SetBusinessMetrics sets the business metrics collector
func (s *SettlementService) SetBusinessMetrics(metrics *telemetry.BusinessMetrics) {
	s.metrics = metrics
}

// ApplyPayment applies money against a single order: the payment record,
// the ledger row and the cached balance are updated in one transaction.
func (s *SettlementService) ApplyPayment(ctx context.Context, req ApplyPaymentRequest) (*PaymentRecordResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "settlement", "apply_payment")
	defer span.End()

	if req.Amount.IsNegative() {
		telemetry.RecordError(span, shared.ErrInvalidAmount)
		return nil, shared.ErrInvalidAmount
	}

	if err := s.checkIdempotency(ctx, req.IdempotencyToken); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var record *settlement.OrderPaymentRecord
	err := s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		record, err = s.recordRepo.FindByOrder(ctx, req.OrderID)
		if err != nil {
			return err
		}

		amount := valueobject.NewMoneyUSD(req.Amount)
		if err := record.ApplyPayment(amount, req.Method, req.Reference); err != nil {
			return err
		}

		if err := s.recordRepo.SaveWithLock(ctx, record); err != nil {
			return err
		}

		ledgerTx, err := settlement.CreatePaymentReceivedTransaction(record.ClientID, req.Amount)
		if err != nil {
			return err
		}
		ledgerTx.WithOrder(record.OrderID).WithDescription(fmt.Sprintf("Payment against order %s", record.OrderNumber))
		if err := s.ledgerRepo.Create(ctx, ledgerTx); err != nil {
			return err
		}

		return s.applyToBalance(ctx, record.ClientID, ledgerTx)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrOrderID, record.OrderID.String(),
		telemetry.SpanAttrClientID, record.ClientID.String(),
		telemetry.SpanAttrAmount, req.Amount.String(),
	)

	record.AddDomainEvent(settlement.NewPaymentAppliedEvent(record, req.Amount))
	s.publishEvents(ctx, record.GetDomainEvents())
	record.ClearDomainEvents()

	if s.metrics != nil {
		s.metrics.RecordPayment(ctx, req.Method, settlement.TransactionTypePaymentReceived.String())
	}

	response := ToPaymentRecordResponse(record)
	return &response, nil
}

// Settle runs a settlement session for a client: pending return credit is
// consumed first, the collected amount is allocated FIFO across the eligible
// orders, and any remainder becomes standing credit. With DeferPayment the
// outstanding amounts are recorded as debt instead and the payment records
// are left untouched, credit included. All writes commit in one transaction;
// the client balance row is locked for the duration.
func (s *SettlementService) Settle(ctx context.Context, req SettleRequest) (*SettleResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "settlement", "settle")
	defer span.End()

	if req.AmountCollected.IsNegative() {
		telemetry.RecordError(span, shared.ErrNegativeAmount)
		return nil, shared.ErrNegativeAmount
	}
	if req.DeferPayment && req.AmountCollected.IsPositive() {
		err := shared.NewDomainError("INVALID_INPUT", "Deferred settlement cannot carry a collected amount")
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.checkIdempotency(ctx, req.IdempotencyToken); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var (
		result  *SettleResult
		session *settlement.SettlementSession
	)
	err := s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.balanceRepo.FindOrCreate(ctx, req.ClientID); err != nil {
			return err
		}
		balance, err := s.balanceRepo.FindByClientForUpdate(ctx, req.ClientID)
		if err != nil {
			return err
		}

		eligible, err := s.eligibleRecords(ctx, req)
		if err != nil {
			return err
		}
		if len(eligible) == 0 && req.AmountCollected.IsZero() {
			return shared.ErrNoEligibleOrders
		}

		ledgerTxs := make([]*settlement.PaymentTransaction, 0, len(eligible)+2)

		// Deferral leaves the records untouched, so pending return credit is
		// only consumed when money is actually being allocated.
		creditConsumed := decimal.Zero
		if !req.DeferPayment {
			consumed, creditTxs, err := s.consumePendingCredit(ctx, eligible)
			if err != nil {
				return err
			}
			creditConsumed = consumed
			ledgerTxs = append(ledgerTxs, creditTxs...)
		}

		orderIDs := make([]uuid.UUID, 0, len(eligible))
		totalCollectible := decimal.Zero
		for _, record := range eligible {
			orderIDs = append(orderIDs, record.OrderID)
			totalCollectible = totalCollectible.Add(record.AmountRemaining())
		}

		session, err = settlement.NewSettlementSession(req.ClientID, orderIDs, totalCollectible, req.AmountCollected, req.Method)
		if err != nil {
			return err
		}
		if req.OriginOrderID != nil {
			session.WithOriginOrder(*req.OriginOrderID)
		}
		if req.DriverID != nil {
			session.WithDriver(*req.DriverID)
		}
		session.WithReference(req.Reference).WithNotes(req.Notes)

		fullyPaid := make([]uuid.UUID, 0)
		partiallyPaid := make([]uuid.UUID, 0)
		standingCredit := decimal.Zero
		debtCreated := decimal.Zero

		if req.DeferPayment {
			// Outstanding amounts become debt; the records stay open so a
			// later settlement can still pay them down.
			for _, record := range eligible {
				remaining := record.AmountRemaining()
				if !remaining.IsPositive() {
					continue
				}
				debtTx, err := settlement.CreateDebtTransaction(req.ClientID, remaining)
				if err != nil {
					return err
				}
				debtTx.WithOrder(record.OrderID).WithSettlement(session.ID).
					WithDescription(fmt.Sprintf("Deferred payment for order %s", record.OrderNumber))
				ledgerTxs = append(ledgerTxs, debtTx)
				debtCreated = debtCreated.Add(remaining)
			}
		} else {
			plan, err := s.allocator.Allocate(valueobject.NewMoneyUSD(req.AmountCollected), toAllocationTargets(eligible))
			if err != nil {
				return err
			}

			byRecord := make(map[uuid.UUID]*settlement.OrderPaymentRecord, len(eligible))
			for _, record := range eligible {
				byRecord[record.ID] = record
			}

			for _, allocation := range plan.Allocations {
				record := byRecord[allocation.RecordID]
				if record == nil {
					return shared.NewDomainError("ALLOCATION_MISMATCH", "Allocation references an unknown payment record")
				}
				if err := record.ApplyPayment(valueobject.NewMoneyUSD(allocation.Amount), req.Method, req.Reference); err != nil {
					return err
				}

				paymentTx, err := settlement.CreatePaymentReceivedTransaction(req.ClientID, allocation.Amount)
				if err != nil {
					return err
				}
				paymentTx.WithOrder(allocation.OrderID).WithSettlement(session.ID).
					WithDescription(fmt.Sprintf("Settlement payment for order %s", allocation.OrderNumber))
				ledgerTxs = append(ledgerTxs, paymentTx)
			}

			fullyPaid = plan.OrdersFullyPaid
			partiallyPaid = plan.OrdersPartiallyPaid

			if plan.RemainingAmount.IsPositive() {
				creditTx, err := settlement.CreateCreditAppliedTransaction(req.ClientID, plan.RemainingAmount)
				if err != nil {
					return err
				}
				creditTx.WithSettlement(session.ID).WithDescription("Settlement remainder converted to standing credit")
				ledgerTxs = append(ledgerTxs, creditTx)
				standingCredit = plan.RemainingAmount
			}
		}

		if !req.DeferPayment {
			for _, record := range eligible {
				if err := s.recordRepo.SaveWithLock(ctx, record); err != nil {
					return err
				}
			}
		}

		session.Finalize()
		if err := s.sessionRepo.Save(ctx, session); err != nil {
			return err
		}

		for _, ledgerTx := range ledgerTxs {
			if err := s.ledgerRepo.Create(ctx, ledgerTx); err != nil {
				return err
			}
			if err := balance.ApplyTransaction(ledgerTx); err != nil {
				return err
			}
		}
		if err := s.balanceRepo.Save(ctx, balance); err != nil {
			return err
		}

		result = &SettleResult{
			Session:             ToSessionResponse(session),
			OrdersFullyPaid:     fullyPaid,
			OrdersPartiallyPaid: partiallyPaid,
			CreditConsumed:      creditConsumed,
			StandingCreditAdded: standingCredit,
			DebtCreated:         debtCreated,
			NewBalance:          balance.CurrentBalance,
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrClientID, req.ClientID.String(),
		telemetry.SpanAttrSessionID, session.ID.String(),
		telemetry.SpanAttrAmount, req.AmountCollected.String(),
		"session_status", session.Status.String(),
	)

	s.publishEvents(ctx, session.GetDomainEvents())
	session.ClearDomainEvents()

	if s.metrics != nil {
		s.metrics.RecordSettlementSession(ctx, session.Status.String())
	}

	return result, nil
}

// ForgiveDebt waives the outstanding amount on an order and records the
// matching debt-forgiven ledger row.
func (s *SettlementService) ForgiveDebt(ctx context.Context, orderID uuid.UUID, description string) (*PaymentRecordResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "settlement", "forgive_debt")
	defer span.End()

	var record *settlement.OrderPaymentRecord
	err := s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		record, err = s.recordRepo.FindByOrder(ctx, orderID)
		if err != nil {
			return err
		}

		waived, err := record.Waive()
		if err != nil {
			return err
		}

		if err := s.recordRepo.SaveWithLock(ctx, record); err != nil {
			return err
		}

		forgivenTx, err := settlement.CreateDebtForgivenTransaction(record.ClientID, waived)
		if err != nil {
			return err
		}
		if description == "" {
			description = fmt.Sprintf("Debt forgiven on order %s", record.OrderNumber)
		}
		forgivenTx.WithOrder(record.OrderID).WithDescription(description)
		if err := s.ledgerRepo.Create(ctx, forgivenTx); err != nil {
			return err
		}

		return s.applyToBalance(ctx, record.ClientID, forgivenTx)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	response := ToPaymentRecordResponse(record)
	return &response, nil
}

// RecordAdjustment records a manual signed correction on a client's ledger
func (s *SettlementService) RecordAdjustment(ctx context.Context, req AdjustmentRequest) (*TransactionResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "settlement", "record_adjustment")
	defer span.End()

	adjustment, err := settlement.CreateAdjustmentTransaction(req.ClientID, req.Amount, req.Description)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	err = s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.ledgerRepo.Create(ctx, adjustment); err != nil {
			return err
		}
		return s.applyToBalance(ctx, req.ClientID, adjustment)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	response := ToTransactionResponse(adjustment)
	return &response, nil
}

// GetRecordByOrder returns the payment record for an order
func (s *SettlementService) GetRecordByOrder(ctx context.Context, orderID uuid.UUID) (*PaymentRecordResponse, error) {
	record, err := s.recordRepo.FindByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	response := ToPaymentRecordResponse(record)
	return &response, nil
}

// ListOutstanding returns the client's outstanding payment records, oldest
// order first
func (s *SettlementService) ListOutstanding(ctx context.Context, clientID uuid.UUID) ([]PaymentRecordResponse, error) {
	records, err := s.recordRepo.FindOutstandingByClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	return ToPaymentRecordResponses(records), nil
}

// GetSession returns a settlement session by ID
func (s *SettlementService) GetSession(ctx context.Context, sessionID uuid.UUID) (*SessionResponse, error) {
	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	response := ToSessionResponse(session)
	return &response, nil
}

// ListSessions returns settlement sessions for a client
func (s *SettlementService) ListSessions(ctx context.Context, clientID uuid.UUID, filter shared.Filter) ([]SessionResponse, error) {
	sessions, err := s.sessionRepo.FindByClient(ctx, clientID, filter)
	if err != nil {
		return nil, err
	}
	return ToSessionResponses(sessions), nil
}

// eligibleRecords loads the outstanding records considered by a settlement.
// With an explicit order subset every requested order must be outstanding,
// otherwise the settlement fails with NO_ELIGIBLE_ORDERS.
func (s *SettlementService) eligibleRecords(ctx context.Context, req SettleRequest) ([]*settlement.OrderPaymentRecord, error) {
	outstanding, err := s.recordRepo.FindOutstandingByClient(ctx, req.ClientID)
	if err != nil {
		return nil, err
	}

	byOrder := make(map[uuid.UUID]*settlement.OrderPaymentRecord, len(outstanding))
	eligible := make([]*settlement.OrderPaymentRecord, 0, len(outstanding))
	for i := range outstanding {
		record := &outstanding[i]
		byOrder[record.OrderID] = record
		eligible = append(eligible, record)
	}

	if len(req.OrderIDs) == 0 {
		return eligible, nil
	}

	subset := make([]*settlement.OrderPaymentRecord, 0, len(req.OrderIDs))
	for _, orderID := range req.OrderIDs {
		record, ok := byOrder[orderID]
		if !ok {
			return nil, shared.ErrNoEligibleOrders
		}
		subset = append(subset, record)
	}
	return subset, nil
}

// consumePendingCredit applies each record's pending return credit before
// allocation: recorded return credit minus the credit already consumed.
func (s *SettlementService) consumePendingCredit(ctx context.Context, records []*settlement.OrderPaymentRecord) (decimal.Decimal, []*settlement.PaymentTransaction, error) {
	totalConsumed := decimal.Zero
	ledgerTxs := make([]*settlement.PaymentTransaction, 0)

	for _, record := range records {
		returns, err := s.returnRepo.FindByOrder(ctx, record.OrderID)
		if err != nil {
			return decimal.Zero, nil, err
		}

		earned := decimal.Zero
		for i := range returns {
			earned = earned.Add(returns[i].TotalCredit)
		}

		pending := earned.Sub(record.CreditApplied)
		if !pending.IsPositive() {
			continue
		}

		if err := record.ApplyCredit(valueobject.NewMoneyUSD(pending)); err != nil {
			return decimal.Zero, nil, err
		}

		creditTx, err := settlement.CreateCreditAppliedTransaction(record.ClientID, pending)
		if err != nil {
			return decimal.Zero, nil, err
		}
		creditTx.WithOrder(record.OrderID).
			WithDescription(fmt.Sprintf("Return credit applied to order %s", record.OrderNumber))
		ledgerTxs = append(ledgerTxs, creditTx)
		totalConsumed = totalConsumed.Add(pending)
	}

	return totalConsumed, ledgerTxs, nil
}

// applyToBalance folds one ledger row into the client's cached balance
func (s *SettlementService) applyToBalance(ctx context.Context, clientID uuid.UUID, ledgerTx *settlement.PaymentTransaction) error {
	balance, err := s.balanceRepo.FindOrCreate(ctx, clientID)
	if err != nil {
		return err
	}
	if err := balance.ApplyTransaction(ledgerTx); err != nil {
		return err
	}
	return s.balanceRepo.Save(ctx, balance)
}

// checkIdempotency rejects a duplicate submission token. An empty token
// skips the check.
func (s *SettlementService) checkIdempotency(ctx context.Context, token string) error {
	if token == "" || s.idempotency == nil || !s.idemConfig.Enabled {
		return nil
	}

	fresh, err := s.idempotency.MarkProcessed(ctx, token, s.idemConfig.TTL)
	if err != nil {
		// The store being unavailable must not block payments
		s.logger.Warn("idempotency check failed, proceeding", zap.Error(err))
		return nil
	}
	if !fresh {
		return shared.NewDomainError("DUPLICATE_SUBMISSION", "This operation was already processed")
	}
	return nil
}

func (s *SettlementService) publishEvents(ctx context.Context, events []shared.DomainEvent) {
	if s.eventPublisher == nil {
		return
	}

	for _, event := range events {
		if err := s.eventPublisher.Publish(ctx, event); err != nil {
			s.logger.Error("failed to publish domain event",
				zap.String("event_type", event.EventType()),
				zap.Error(err),
			)
		}
	}
}

// toAllocationTargets builds allocation targets from outstanding records
func toAllocationTargets(records []*settlement.OrderPaymentRecord) []settlement.AllocationTarget {
	targets := make([]settlement.AllocationTarget, 0, len(records))
	for _, record := range records {
		targets = append(targets, settlement.AllocationTarget{
			RecordID:          record.ID,
			OrderID:           record.OrderID,
			OrderNumber:       record.OrderNumber,
			OutstandingAmount: record.AmountRemaining(),
			OrderCreatedAt:    record.OrderDate,
		})
	}
	return targets
}
