package dto

import (
	"github.com/shopspring/decimal"

	"orderpipeline/internal/domain"
)

// OrderMessage is the inbound order published on the order queue.
type OrderMessage struct {
	OrderCode int64              `json:"codigoPedido"`
	ClientID  int64              `json:"codigoCliente"`
	Items     []OrderMessageItem `json:"itens"`
}

type OrderMessageItem struct {
	Product  string          `json:"produto"`
	Quantity int             `json:"quantidade"`
	Price    decimal.Decimal `json:"preco"`
}

func (m OrderMessage) ItemData() []domain.OrderItemData {
	items := make([]domain.OrderItemData, len(m.Items))
	for i, item := range m.Items {
		items[i] = domain.OrderItemData{
			Product:  item.Product,
			Quantity: item.Quantity,
			Price:    item.Price,
		}
	}
	return items
}
