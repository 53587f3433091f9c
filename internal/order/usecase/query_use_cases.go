package usecase

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"orderpipeline/internal/domain"
	apperrors "orderpipeline/internal/errors"
)

type OrderTotalReader interface {
	CalculateOrderTotal(ctx context.Context, orderCode int64) (decimal.Decimal, error)
}

type GetOrderTotalUseCase struct {
	orders OrderTotalReader
	logger *zap.Logger
}

func NewGetOrderTotalUseCase(orders OrderTotalReader, logger *zap.Logger) *GetOrderTotalUseCase {
	return &GetOrderTotalUseCase{orders: orders, logger: logger}
}

// Execute returns a NotFoundError for an unknown order code.
func (uc *GetOrderTotalUseCase) Execute(ctx context.Context, orderCode int64) (decimal.Decimal, error) {
	uc.logger.Debug("getting order total", zap.Int64("orderCode", orderCode))
	return uc.orders.CalculateOrderTotal(ctx, orderCode)
}

type OrderCounter interface {
	CountOrdersByClient(ctx context.Context, clientID int64) (int64, error)
}

type CountOrdersByClientUseCase struct {
	orders OrderCounter
	logger *zap.Logger
}

func NewCountOrdersByClientUseCase(orders OrderCounter, logger *zap.Logger) *CountOrdersByClientUseCase {
	return &CountOrdersByClientUseCase{orders: orders, logger: logger}
}

func (uc *CountOrdersByClientUseCase) Execute(ctx context.Context, clientID int64) (int64, error) {
	uc.logger.Debug("counting orders by client", zap.Int64("clientId", clientID))
	return uc.orders.CountOrdersByClient(ctx, clientID)
}

type OrdersByClientReader interface {
	FindByClientID(ctx context.Context, clientID int64) ([]*domain.Order, error)
}

type ClientReader interface {
	FindByID(ctx context.Context, id int64) (*domain.Client, error)
}

type GetOrdersByClientUseCase struct {
	orders  OrdersByClientReader
	clients ClientReader
	logger  *zap.Logger
}

func NewGetOrdersByClientUseCase(orders OrdersByClientReader, clients ClientReader, logger *zap.Logger) *GetOrdersByClientUseCase {
	return &GetOrdersByClientUseCase{orders: orders, clients: clients, logger: logger}
}

// Execute lists a client's orders with their items. The client record is
// attached when it exists; a client without orders yields an empty list.
func (uc *GetOrdersByClientUseCase) Execute(ctx context.Context, clientID int64) ([]*domain.Order, error) {
	uc.logger.Debug("getting orders by client", zap.Int64("clientId", clientID))

	orders, err := uc.orders.FindByClientID(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return orders, nil
	}

	client, err := uc.clients.FindByID(ctx, clientID)
	if err != nil {
		if _, ok := apperrors.IsNotFoundError(err); ok {
			uc.logger.Warn("orders reference a missing client", zap.Int64("clientId", clientID))
			return orders, nil
		}
		return nil, err
	}
	for _, order := range orders {
		order.Client = client
	}
	return orders, nil
}
