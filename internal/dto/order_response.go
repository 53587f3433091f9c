package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"orderpipeline/internal/domain"
)

type OrderTotalResponse struct {
	OrderCode int64  `json:"orderCode"`
	Total     string `json:"total"`
}

func NewOrderTotalResponse(orderCode int64, total decimal.Decimal) OrderTotalResponse {
	return OrderTotalResponse{OrderCode: orderCode, Total: domain.FormatMoney(total)}
}

type OrderCountResponse struct {
	ClientID int64 `json:"clientId"`
	Count    int64 `json:"count"`
}

type OrderResponse struct {
	ID        int64               `json:"id"`
	OrderCode int64               `json:"orderCode"`
	ClientID  int64               `json:"clientId"`
	Client    *ClientResponse     `json:"client,omitempty"`
	Items     []OrderItemResponse `json:"items"`
	Total     string              `json:"total"`
	CreatedAt time.Time           `json:"createdAt"`
}

type OrderItemResponse struct {
	ID       int64  `json:"id"`
	Product  string `json:"product"`
	Quantity int    `json:"quantity"`
	Price    string `json:"price"`
	Total    string `json:"total"`
}

type ClientResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type ErrorResponse struct {
	TraceID   string    `json:"traceId"`
	Status    int       `json:"status"`
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

func NewOrderResponse(order *domain.Order) OrderResponse {
	items := make([]OrderItemResponse, len(order.Items))
	for i, item := range order.Items {
		items[i] = OrderItemResponse{
			ID:       item.ID,
			Product:  item.Product,
			Quantity: item.Quantity,
			Price:    domain.FormatMoney(item.Price),
			Total:    domain.FormatMoney(item.Total),
		}
	}

	resp := OrderResponse{
		ID:        order.ID,
		OrderCode: order.OrderCode,
		ClientID:  order.ClientID,
		Items:     items,
		Total:     domain.FormatMoney(order.Total),
		CreatedAt: order.CreatedAt,
	}
	if order.Client != nil {
		resp.Client = &ClientResponse{
			ID:    order.Client.ID,
			Name:  order.Client.Name,
			Email: order.Client.Email,
		}
	}
	return resp
}

func NewOrderResponses(orders []*domain.Order) []OrderResponse {
	out := make([]OrderResponse, len(orders))
	for i, order := range orders {
		out[i] = NewOrderResponse(order)
	}
	return out
}
