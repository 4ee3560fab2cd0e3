package settlement

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/orderflow/backend/internal/domain/shared"
	"github.com/orderflow/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestRecord(t *testing.T, total float64) *OrderPaymentRecord {
	t.Helper()
	record, err := NewOrderPaymentRecord(uuid.New(), "ORD-20260301-0001", uuid.New(), time.Now(), valueobject.NewMoneyUSDFromFloat(total))
	require.NoError(t, err)
	return record
}

func TestNewOrderPaymentRecord(t *testing.T) {
	t.Run("starts unpaid with full amount remaining", func(t *testing.T) {
		record := createTestRecord(t, 100)
		assert.Equal(t, PaymentStatusUnpaid, record.Status)
		assert.True(t, record.AmountPaid.IsZero())
		assert.True(t, record.AmountRemaining().Equal(decimal.NewFromInt(100)))
	})

	t.Run("rejects negative total", func(t *testing.T) {
		_, err := NewOrderPaymentRecord(uuid.New(), "ORD-1", uuid.New(), time.Now(), valueobject.NewMoneyUSDFromFloat(-1))
		assert.Error(t, err)
	})
}

func TestOrderPaymentRecordApplyPayment(t *testing.T) {
	t.Run("partial payment", func(t *testing.T) {
		record := createTestRecord(t, 100)
		require.NoError(t, record.ApplyPayment(valueobject.NewMoneyUSDFromFloat(40), "cash", ""))
		assert.Equal(t, PaymentStatusPartial, record.Status)
		assert.True(t, record.AmountPaid.Equal(decimal.NewFromInt(40)))
		assert.True(t, record.AmountRemaining().Equal(decimal.NewFromInt(60)))
	})

	t.Run("exact payment marks paid", func(t *testing.T) {
		record := createTestRecord(t, 100)
		require.NoError(t, record.ApplyPayment(valueobject.NewMoneyUSDFromFloat(100), "cash", "RCPT-1"))
		assert.Equal(t, PaymentStatusPaid, record.Status)
		assert.True(t, record.AmountRemaining().IsZero())
	})

	t.Run("payments accumulate", func(t *testing.T) {
		record := createTestRecord(t, 100)
		require.NoError(t, record.ApplyPayment(valueobject.NewMoneyUSDFromFloat(30), "cash", ""))
		require.NoError(t, record.ApplyPayment(valueobject.NewMoneyUSDFromFloat(70), "cash", ""))
		assert.Equal(t, PaymentStatusPaid, record.Status)
	})

	t.Run("overpayment marks overpaid", func(t *testing.T) {
		record := createTestRecord(t, 100)
		require.NoError(t, record.ApplyPayment(valueobject.NewMoneyUSDFromFloat(120), "transfer", ""))
		assert.Equal(t, PaymentStatusOverpaid, record.Status)
		assert.True(t, record.AmountRemaining().IsZero())
	})

	t.Run("zero payment leaves status unchanged", func(t *testing.T) {
		record := createTestRecord(t, 100)
		require.NoError(t, record.ApplyPayment(valueobject.ZeroUSD(), "cash", ""))
		assert.Equal(t, PaymentStatusUnpaid, record.Status)
	})

	t.Run("rejects negative amount before mutation", func(t *testing.T) {
		record := createTestRecord(t, 100)
		err := record.ApplyPayment(valueobject.NewMoneyUSDFromFloat(-5), "cash", "")
		assert.ErrorIs(t, err, shared.ErrInvalidAmount)
		assert.True(t, record.AmountPaid.IsZero())
		assert.Equal(t, PaymentStatusUnpaid, record.Status)
	})

	t.Run("paid plus remaining always equals total", func(t *testing.T) {
		record := createTestRecord(t, 100)
		for _, amount := range []float64{10, 25.5, 14.5, 50} {
			require.NoError(t, record.ApplyPayment(valueobject.NewMoneyUSDFromFloat(amount), "cash", ""))
			sum := record.AmountPaid.Add(record.AmountRemaining())
			assert.True(t, sum.Equal(record.OrderTotal), "paid %s + remaining %s != total %s",
				record.AmountPaid, record.AmountRemaining(), record.OrderTotal)
		}
	})
}

func TestOrderPaymentRecordApplyCredit(t *testing.T) {
	t.Run("credit lowers the order total", func(t *testing.T) {
		record := createTestRecord(t, 100)
		require.NoError(t, record.ApplyCredit(valueobject.NewMoneyUSDFromFloat(30)))
		assert.True(t, record.OrderTotal.Equal(decimal.NewFromInt(70)))
		assert.True(t, record.CreditApplied.Equal(decimal.NewFromInt(30)))
		assert.Equal(t, PaymentStatusUnpaid, record.Status)
	})

	t.Run("credit exceeding total floors at zero and marks paid", func(t *testing.T) {
		record := createTestRecord(t, 100)
		require.NoError(t, record.ApplyCredit(valueobject.NewMoneyUSDFromFloat(150)))
		assert.True(t, record.OrderTotal.IsZero())
		assert.Equal(t, PaymentStatusPaid, record.Status)
	})

	t.Run("credit then payment settles the adjusted total", func(t *testing.T) {
		record := createTestRecord(t, 100)
		require.NoError(t, record.ApplyCredit(valueobject.NewMoneyUSDFromFloat(30)))
		require.NoError(t, record.ApplyPayment(valueobject.NewMoneyUSDFromFloat(70), "cash", ""))
		assert.Equal(t, PaymentStatusPaid, record.Status)
		assert.True(t, record.AmountRemaining().IsZero())
	})
}

func TestOrderPaymentRecordWaive(t *testing.T) {
	t.Run("waives the remaining amount", func(t *testing.T) {
		record := createTestRecord(t, 100)
		require.NoError(t, record.ApplyPayment(valueobject.NewMoneyUSDFromFloat(40), "cash", ""))

		waived, err := record.Waive()
		require.NoError(t, err)
		assert.True(t, waived.Equal(decimal.NewFromInt(60)))
		assert.Equal(t, PaymentStatusWaived, record.Status)
	})

	t.Run("rejects waiving twice", func(t *testing.T) {
		record := createTestRecord(t, 100)
		_, err := record.Waive()
		require.NoError(t, err)
		_, err = record.Waive()
		assert.Error(t, err)
	})

	t.Run("rejects waiving a settled record", func(t *testing.T) {
		record := createTestRecord(t, 100)
		require.NoError(t, record.ApplyPayment(valueobject.NewMoneyUSDFromFloat(100), "cash", ""))
		_, err := record.Waive()
		assert.Error(t, err)
	})

	t.Run("waived record rejects payments", func(t *testing.T) {
		record := createTestRecord(t, 100)
		_, err := record.Waive()
		require.NoError(t, err)
		assert.Error(t, record.ApplyPayment(valueobject.NewMoneyUSDFromFloat(10), "cash", ""))
	})
}
