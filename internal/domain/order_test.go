package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestNewOrder_StartsEmpty(t *testing.T) {
	createdAt := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	order := NewOrder(1001, 1, createdAt)

	assert.Equal(t, int64(1001), order.OrderCode)
	assert.Equal(t, int64(1), order.ClientID)
	assert.Equal(t, createdAt, order.CreatedAt)
	assert.True(t, order.Total.IsZero())
	assert.False(t, order.HasItems())
	assert.Equal(t, 0, order.ItemCount())
}

func TestOrder_AddItem_RecalculatesTotal(t *testing.T) {
	order := NewOrder(1, 1, time.Now())

	order.AddItem(NewOrderItem("Notebook", 1, dec("1000.00")))
	order.AddItem(NewOrderItem("Mouse", 2, dec("50.00")))

	assert.True(t, dec("1100.00").Equal(order.Total), "got %s", order.Total)
	assert.Equal(t, 2, order.ItemCount())
	assert.True(t, order.HasItems())
}

func TestOrder_AddItem_PreservesInsertionOrderAndDuplicates(t *testing.T) {
	order := NewOrder(1, 1, time.Now())
	pen := NewOrderItem("Pen", 1, dec("2.50"))

	order.AddItem(pen)
	order.AddItem(NewOrderItem("Paper", 3, dec("1.10")))
	order.AddItem(pen)

	require.Len(t, order.Items, 3)
	assert.Equal(t, "Pen", order.Items[0].Product)
	assert.Equal(t, "Paper", order.Items[1].Product)
	assert.Equal(t, "Pen", order.Items[2].Product)
	assert.True(t, dec("8.30").Equal(order.Total), "got %s", order.Total)
}

func TestOrder_Total_IsOrderIndependent(t *testing.T) {
	items := []OrderItem{
		NewOrderItem("A", 3, dec("0.10")),
		NewOrderItem("B", 7, dec("19.99")),
		NewOrderItem("C", 1, dec("0.01")),
	}

	forward := NewOrder(1, 1, time.Now())
	for _, item := range items {
		forward.AddItem(item)
	}

	backward := NewOrder(2, 1, time.Now())
	for i := len(items) - 1; i >= 0; i-- {
		backward.AddItem(items[i])
	}

	assert.True(t, forward.Total.Equal(backward.Total))
	assert.True(t, dec("140.24").Equal(forward.Total), "got %s", forward.Total)
}

func TestOrder_RemoveAndReAdd_RestoresTotalExactly(t *testing.T) {
	order := NewOrder(1, 1, time.Now())
	a := NewOrderItem("A", 3, dec("0.10"))
	b := NewOrderItem("B", 1, dec("0.20"))
	order.AddItem(a)
	order.AddItem(b)
	before := order.Total

	order.RemoveItem(a)
	assert.True(t, dec("0.20").Equal(order.Total), "got %s", order.Total)

	order.AddItem(NewOrderItem("A", 3, dec("0.10")))
	assert.True(t, before.Equal(order.Total))
	assert.Equal(t, "0.5", order.Total.String())
}

func TestOrder_RemoveItem_RemovesOnlyFirstMatch(t *testing.T) {
	order := NewOrder(1, 1, time.Now())
	pen := NewOrderItem("Pen", 1, dec("2.00"))
	order.AddItem(pen)
	order.AddItem(pen)

	order.RemoveItem(pen)

	assert.Equal(t, 1, order.ItemCount())
	assert.True(t, dec("2.00").Equal(order.Total))
}

func TestOrder_RemoveItem_Missing(t *testing.T) {
	order := NewOrder(1, 1, time.Now())
	order.AddItem(NewOrderItem("Pen", 1, dec("2.00")))

	order.RemoveItem(NewOrderItem("Ghost", 1, dec("9.00")))

	assert.Equal(t, 1, order.ItemCount())
	assert.True(t, dec("2.00").Equal(order.Total))
}

func TestOrder_UpdateTotal_AfterDirectMutation(t *testing.T) {
	order := NewOrder(1, 1, time.Now())
	order.AddItem(NewOrderItem("Pen", 1, dec("2.00")))

	order.Items[0].Quantity = 5
	// item total is stale until recomputed
	assert.True(t, dec("2.00").Equal(order.Items[0].Total))

	order.UpdateTotal()

	assert.True(t, dec("10.00").Equal(order.Items[0].Total))
	assert.True(t, dec("10.00").Equal(order.Total))
}

func TestOrder_CalculateTotal_LenientOnMissingFields(t *testing.T) {
	order := NewOrder(1, 1, time.Now())

	order.AddItem(OrderItem{Product: "no quantity", Price: dec("5.00")})
	order.AddItem(OrderItem{Product: "no price", Quantity: 2})
	order.AddItem(OrderItem{Product: "negative", Quantity: -1, Price: dec("3.00")})
	order.AddItem(NewOrderItem("real", 2, dec("1.50")))

	assert.Equal(t, 4, order.ItemCount())
	assert.True(t, dec("3.00").Equal(order.CalculateTotal()), "got %s", order.Total)
}
