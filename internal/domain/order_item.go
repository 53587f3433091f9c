package domain

import (
	"github.com/shopspring/decimal"
)

// MoneyScale is the number of decimal places stored for prices and totals.
const MoneyScale = 2

// FormatMoney renders an amount with exactly MoneyScale decimal places.
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(MoneyScale)
}

type OrderItem struct {
	ID       int64
	Product  string
	Quantity int
	Price    decimal.Decimal
	Total    decimal.Decimal
}

func NewOrderItem(product string, quantity int, price decimal.Decimal) OrderItem {
	item := OrderItem{
		Product:  product,
		Quantity: quantity,
		Price:    price,
	}
	item.Total = item.CalculateTotal()
	return item
}

// CalculateTotal returns price × quantity. A missing or non-positive
// quantity or price contributes zero instead of failing.
func (i OrderItem) CalculateTotal() decimal.Decimal {
	if i.Quantity <= 0 || i.Price.Sign() <= 0 {
		return decimal.Zero
	}
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// UpdateTotal is not called implicitly when Quantity or Price change.
func (i *OrderItem) UpdateTotal() {
	i.Total = i.CalculateTotal()
}

func (i OrderItem) Equal(other OrderItem) bool {
	return i.ID == other.ID &&
		i.Product == other.Product &&
		i.Quantity == other.Quantity &&
		i.Price.Equal(other.Price) &&
		i.Total.Equal(other.Total)
}

// OrderItemData is the raw, unvalidated item input of the pipeline.
type OrderItemData struct {
	Product  string
	Quantity int
	Price    decimal.Decimal
}

func (d OrderItemData) ToOrderItem() OrderItem {
	return OrderItem{
		Product:  d.Product,
		Quantity: d.Quantity,
		Price:    d.Price,
	}
}
