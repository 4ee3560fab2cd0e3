package workflow

import (
	"testing"

	"github.com/google/uuid"
	"github.com/orderflow/backend/internal/domain/shared"
	"github.com/orderflow/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestReturn(t *testing.T) *OrderReturn {
	t.Helper()
	ret, err := NewOrderReturn("RET-20260301-0001", uuid.New(), uuid.New(), ReturnTypeUnsold, "")
	require.NoError(t, err)
	return ret
}

func TestNewOrderReturn(t *testing.T) {
	t.Run("creates return", func(t *testing.T) {
		ret := createTestReturn(t)
		assert.Equal(t, ReturnTypeUnsold, ret.ReturnType)
		assert.True(t, ret.TotalCredit.IsZero())
	})

	t.Run("rejects unknown return type", func(t *testing.T) {
		_, err := NewOrderReturn("RET-1", uuid.New(), uuid.New(), ReturnType("BROKEN"), "")
		assert.Error(t, err)
	})

	t.Run("rejects nil order", func(t *testing.T) {
		_, err := NewOrderReturn("RET-1", uuid.Nil, uuid.New(), ReturnTypeQuality, "")
		assert.Error(t, err)
	})
}

func TestOrderReturnAddItem(t *testing.T) {
	t.Run("computes credit as quantity times unit price", func(t *testing.T) {
		ret := createTestReturn(t)
		item, err := ret.AddItem("Widget", decimal.NewFromInt(3), decimal.NewFromInt(10), valueobject.NewMoneyUSDFromFloat(7.50), "good", true)
		require.NoError(t, err)
		assert.True(t, item.CreditAmount.Equal(decimal.NewFromFloat(22.50)))
		assert.True(t, ret.TotalCredit.Equal(decimal.NewFromFloat(22.50)))
	})

	t.Run("rejects over-return", func(t *testing.T) {
		ret := createTestReturn(t)
		_, err := ret.AddItem("Widget", decimal.NewFromInt(11), decimal.NewFromInt(10), valueobject.NewMoneyUSDFromFloat(5), "good", true)
		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "OVER_RETURN", domainErr.Code)
	})

	t.Run("counts quantities across lines of the same product", func(t *testing.T) {
		ret := createTestReturn(t)
		_, err := ret.AddItem("Widget", decimal.NewFromInt(6), decimal.NewFromInt(10), valueobject.NewMoneyUSDFromFloat(5), "good", true)
		require.NoError(t, err)

		_, err = ret.AddItem("Widget", decimal.NewFromInt(5), decimal.NewFromInt(10), valueobject.NewMoneyUSDFromFloat(5), "damaged", false)
		assert.ErrorIs(t, err, shared.ErrOverReturn)
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		ret := createTestReturn(t)
		_, err := ret.AddItem("Widget", decimal.Zero, decimal.NewFromInt(10), valueobject.NewMoneyUSDFromFloat(5), "good", true)
		assert.Error(t, err)
	})
}

func TestOrderReturnRecord(t *testing.T) {
	t.Run("raises recorded event", func(t *testing.T) {
		ret := createTestReturn(t)
		_, err := ret.AddItem("Widget", decimal.NewFromInt(2), decimal.NewFromInt(10), valueobject.NewMoneyUSDFromFloat(5), "good", true)
		require.NoError(t, err)

		require.NoError(t, ret.Record())
		events := ret.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypeReturnRecorded, events[0].EventType())
	})

	t.Run("rejects empty return", func(t *testing.T) {
		ret := createTestReturn(t)
		assert.Error(t, ret.Record())
	})
}

func TestComputeCredit(t *testing.T) {
	items := []ReturnLineItem{
		{CreditAmount: decimal.NewFromInt(10)},
		{CreditAmount: decimal.NewFromFloat(5.25)},
	}
	assert.True(t, ComputeCredit(items).Equal(decimal.NewFromFloat(15.25)))
	assert.True(t, ComputeCredit(nil).IsZero())
}

func TestAdjustedOrderTotal(t *testing.T) {
	t.Run("subtracts return credits", func(t *testing.T) {
		returns := []OrderReturn{
			{TotalCredit: decimal.NewFromInt(20)},
			{TotalCredit: decimal.NewFromInt(10)},
		}
		adjusted := AdjustedOrderTotal(decimal.NewFromInt(100), returns)
		assert.True(t, adjusted.Equal(decimal.NewFromInt(70)))
	})

	t.Run("floors at zero", func(t *testing.T) {
		returns := []OrderReturn{{TotalCredit: decimal.NewFromInt(150)}}
		adjusted := AdjustedOrderTotal(decimal.NewFromInt(100), returns)
		assert.True(t, adjusted.IsZero())
	})
}
