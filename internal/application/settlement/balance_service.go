package settlement

import (
	"context"

	"github.com/google/uuid"
	"github.com/orderflow/backend/internal/domain/settlement"
	"github.com/orderflow/backend/internal/domain/shared"
	"github.com/orderflow/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// BalanceService exposes the cached per-client balance view and its repair
// operation. The cache is authoritative for reads; the transaction ledger is
// authoritative for the truth.
type BalanceService struct {
	balanceRepo settlement.ClientBalanceRepository
	ledgerRepo  settlement.PaymentTransactionRepository
	txManager   shared.TransactionManager
	logger      *zap.Logger
}

// NewBalanceService creates a new BalanceService
func NewBalanceService(
	balanceRepo settlement.ClientBalanceRepository,
	ledgerRepo settlement.PaymentTransactionRepository,
	txManager shared.TransactionManager,
	logger *zap.Logger,
) *BalanceService {
	return &BalanceService{
		balanceRepo: balanceRepo,
		ledgerRepo:  ledgerRepo,
		txManager:   txManager,
		logger:      logger,
	}
}

// Get returns the cached balance for a client, creating a zero row if the
// client has no transactions yet
func (s *BalanceService) Get(ctx context.Context, clientID uuid.UUID) (*BalanceResponse, error) {
	balance, err := s.balanceRepo.FindOrCreate(ctx, clientID)
	if err != nil {
		return nil, err
	}
	response := ToBalanceResponse(balance)
	return &response, nil
}

// Recompute rebuilds the cached balance from the full transaction history.
// Idempotent: running it twice in a row yields the same balance. Used to
// repair drift after manual intervention or suspected bugs.
func (s *BalanceService) Recompute(ctx context.Context, clientID uuid.UUID) (*BalanceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "balance", "recompute")
	defer span.End()

	var balance *settlement.ClientBalance
	err := s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		balance, err = s.balanceRepo.FindOrCreate(ctx, clientID)
		if err != nil {
			return err
		}

		txs, err := s.ledgerRepo.FindAllByClient(ctx, clientID)
		if err != nil {
			return err
		}

		before := balance.CurrentBalance
		balance.RecomputeFrom(txs)
		if !before.Equal(balance.CurrentBalance) {
			s.logger.Warn("balance cache drift repaired",
				zap.String("client_id", clientID.String()),
				zap.String("cached", before.String()),
				zap.String("recomputed", balance.CurrentBalance.String()),
			)
		}

		return s.balanceRepo.Save(ctx, balance)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrClientID, clientID.String(),
		"balance", balance.CurrentBalance.String(),
	)

	response := ToBalanceResponse(balance)
	return &response, nil
}

// ListTransactions returns the client's ledger rows, newest first
func (s *BalanceService) ListTransactions(ctx context.Context, clientID uuid.UUID, filter shared.Filter) ([]TransactionResponse, int64, error) {
	txs, err := s.ledgerRepo.FindByClient(ctx, clientID, filter)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.ledgerRepo.CountByClient(ctx, clientID)
	if err != nil {
		return nil, 0, err
	}

	return ToTransactionResponses(txs), total, nil
}

// ListDebtors returns clients with negative balances
func (s *BalanceService) ListDebtors(ctx context.Context, filter shared.Filter) ([]BalanceResponse, error) {
	balances, err := s.balanceRepo.FindDebtors(ctx, filter)
	if err != nil {
		return nil, err
	}

	responses := make([]BalanceResponse, 0, len(balances))
	for i := range balances {
		responses = append(responses, ToBalanceResponse(&balances[i]))
	}
	return responses, nil
}
