package settlement

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPaymentTransaction(t *testing.T) {
	t.Run("creates transaction", func(t *testing.T) {
		clientID := uuid.New()
		tx, err := NewPaymentTransaction(clientID, TransactionTypePaymentReceived, decimal.NewFromInt(50))
		require.NoError(t, err)
		assert.Equal(t, clientID, tx.ClientID)
		assert.False(t, tx.TransactionDate.IsZero())
	})

	t.Run("rejects nil client", func(t *testing.T) {
		_, err := NewPaymentTransaction(uuid.Nil, TransactionTypePaymentReceived, decimal.NewFromInt(1))
		assert.Error(t, err)
	})

	t.Run("rejects unknown type", func(t *testing.T) {
		_, err := NewPaymentTransaction(uuid.New(), TransactionType("REFUND"), decimal.NewFromInt(1))
		assert.Error(t, err)
	})

	t.Run("rejects negative magnitude for typed rows", func(t *testing.T) {
		_, err := NewPaymentTransaction(uuid.New(), TransactionTypeDebtCreated, decimal.NewFromInt(-5))
		assert.Error(t, err)
	})
}

func TestPaymentTransactionSignedContribution(t *testing.T) {
	clientID := uuid.New()
	tests := []struct {
		name   string
		txType TransactionType
		amount decimal.Decimal
		want   decimal.Decimal
	}{
		{"payment received is positive", TransactionTypePaymentReceived, decimal.NewFromInt(50), decimal.NewFromInt(50)},
		{"credit applied is positive", TransactionTypeCreditApplied, decimal.NewFromInt(20), decimal.NewFromInt(20)},
		{"debt forgiven is positive", TransactionTypeDebtForgiven, decimal.NewFromInt(30), decimal.NewFromInt(30)},
		{"debt created is negative", TransactionTypeDebtCreated, decimal.NewFromInt(40), decimal.NewFromInt(-40)},
		{"positive adjustment keeps sign", TransactionTypeAdjustment, decimal.NewFromInt(15), decimal.NewFromInt(15)},
		{"negative adjustment keeps sign", TransactionTypeAdjustment, decimal.NewFromInt(-15), decimal.NewFromInt(-15)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx, err := NewPaymentTransaction(clientID, tt.txType, tt.amount)
			require.NoError(t, err)
			assert.True(t, tx.SignedContribution().Equal(tt.want))
		})
	}
}

func TestPaymentTransactionFactories(t *testing.T) {
	clientID := uuid.New()

	t.Run("debt transaction requires positive amount", func(t *testing.T) {
		_, err := CreateDebtTransaction(clientID, decimal.Zero)
		assert.Error(t, err)
	})

	t.Run("credit transaction requires positive amount", func(t *testing.T) {
		_, err := CreateCreditAppliedTransaction(clientID, decimal.NewFromInt(-1))
		assert.Error(t, err)
	})

	t.Run("adjustment rejects zero", func(t *testing.T) {
		_, err := CreateAdjustmentTransaction(clientID, decimal.Zero, "noop")
		assert.Error(t, err)
	})

	t.Run("payment received allows zero", func(t *testing.T) {
		tx, err := CreatePaymentReceivedTransaction(clientID, decimal.Zero)
		require.NoError(t, err)
		assert.True(t, tx.SignedContribution().IsZero())
	})
}

func TestPaymentTransactionBuilders(t *testing.T) {
	orderID := uuid.New()
	settlementID := uuid.New()

	tx, err := CreatePaymentReceivedTransaction(uuid.New(), decimal.NewFromInt(75))
	require.NoError(t, err)

	tx.WithOrder(orderID).WithSettlement(settlementID).WithDescription("collected on delivery")

	require.NotNil(t, tx.OrderID)
	assert.Equal(t, orderID, *tx.OrderID)
	require.NotNil(t, tx.SettlementID)
	assert.Equal(t, settlementID, *tx.SettlementID)
	assert.Equal(t, "collected on delivery", tx.Description)
}
