package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is the aggregate root of the pipeline. Total always reflects the sum
// of the items' totals as of the last recalculation.
type Order struct {
	ID        int64
	OrderCode int64
	ClientID  int64
	Client    *Client
	Items     []OrderItem
	Total     decimal.Decimal
	CreatedAt time.Time
}

func NewOrder(orderCode, clientID int64, createdAt time.Time) *Order {
	return &Order{
		OrderCode: orderCode,
		ClientID:  clientID,
		Items:     []OrderItem{},
		Total:     decimal.Zero,
		CreatedAt: createdAt,
	}
}

func (o *Order) AddItem(item OrderItem) {
	o.Items = append(o.Items, item)
	o.CalculateTotal()
}

// RemoveItem drops the first item equal to item. Removing an item the order
// does not hold only recalculates the total.
func (o *Order) RemoveItem(item OrderItem) {
	for i := range o.Items {
		if o.Items[i].Equal(item) {
			o.Items = append(o.Items[:i], o.Items[i+1:]...)
			break
		}
	}
	o.CalculateTotal()
}

func (o *Order) CalculateTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.CalculateTotal())
	}
	o.Total = total
	return total
}

// UpdateTotal re-derives every item's own total before summing. Use it after
// mutating item fields directly.
func (o *Order) UpdateTotal() {
	for i := range o.Items {
		o.Items[i].UpdateTotal()
	}
	o.CalculateTotal()
}

func (o *Order) ItemCount() int {
	return len(o.Items)
}

func (o *Order) HasItems() bool {
	return len(o.Items) > 0
}
