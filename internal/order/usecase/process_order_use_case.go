package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"orderpipeline/internal/domain"
)

type OrderValidator interface {
	ValidateOrderForProcessing(ctx context.Context, orderCode, clientID int64, items []domain.OrderItemData) error
	ValidateProcessedOrder(order *domain.Order) error
}

type ClientResolver interface {
	FindOrCreateDefaultClient(ctx context.Context, id int64) (*domain.Client, error)
}

type OrderSaver interface {
	Save(ctx context.Context, order *domain.Order) (*domain.Order, error)
}

type MessageGateway interface {
	SendOrderProcessedNotification(ctx context.Context, orderCode int64) error
	SendOrderErrorNotification(ctx context.Context, orderCode int64, errMsg string) error
}

type EventPublisher interface {
	PublishOrderProcessedEvent(ctx context.Context, order *domain.Order) error
	PublishOrderErrorEvent(ctx context.Context, orderCode int64, errMsg string) error
}

type ProcessOrderUseCase struct {
	validator OrderValidator
	clients   ClientResolver
	orders    OrderSaver
	messages  MessageGateway
	events    EventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

func NewProcessOrderUseCase(
	validator OrderValidator,
	clients ClientResolver,
	orders OrderSaver,
	messages MessageGateway,
	events EventPublisher,
	logger *zap.Logger,
) *ProcessOrderUseCase {
	return &ProcessOrderUseCase{
		validator: validator,
		clients:   clients,
		orders:    orders,
		messages:  messages,
		events:    events,
		logger:    logger,
		now:       time.Now,
	}
}

// Execute validates, builds, persists and announces one order. Every failure
// is reported once through a notification and an ORDER_ERROR event before it
// is returned unchanged.
func (uc *ProcessOrderUseCase) Execute(ctx context.Context, orderCode, clientID int64, items []domain.OrderItemData) (*domain.Order, error) {
	logger := uc.logger.With(zap.Int64("orderCode", orderCode), zap.Int64("clientId", clientID))
	logger.Info("processing order", zap.Int("itemCount", len(items)))

	saved, err := uc.process(ctx, orderCode, clientID, items)
	if err != nil {
		logger.Error("error processing order", zap.Error(err))
		uc.reportFailure(ctx, logger, orderCode, err)
		return nil, err
	}

	logger.Info("order processed successfully", zap.String("total", domain.FormatMoney(saved.Total)))
	return saved, nil
}

func (uc *ProcessOrderUseCase) process(ctx context.Context, orderCode, clientID int64, items []domain.OrderItemData) (*domain.Order, error) {
	if err := uc.validator.ValidateOrderForProcessing(ctx, orderCode, clientID, items); err != nil {
		return nil, err
	}

	// guarantees the client row exists before the order references it
	if _, err := uc.clients.FindOrCreateDefaultClient(ctx, clientID); err != nil {
		return nil, err
	}

	order := domain.NewOrder(orderCode, clientID, uc.now().UTC())
	for _, data := range items {
		item := data.ToOrderItem()
		item.UpdateTotal()
		order.AddItem(item)
	}
	order.UpdateTotal()

	if err := uc.validator.ValidateProcessedOrder(order); err != nil {
		return nil, err
	}

	saved, err := uc.orders.Save(ctx, order)
	if err != nil {
		return nil, err
	}

	if err := uc.messages.SendOrderProcessedNotification(ctx, orderCode); err != nil {
		return nil, err
	}
	if err := uc.events.PublishOrderProcessedEvent(ctx, saved); err != nil {
		return nil, err
	}

	return saved, nil
}

func (uc *ProcessOrderUseCase) reportFailure(ctx context.Context, logger *zap.Logger, orderCode int64, cause error) {
	if err := uc.messages.SendOrderErrorNotification(ctx, orderCode, cause.Error()); err != nil {
		logger.Warn("failed to send error notification", zap.Error(err))
	}
	if err := uc.events.PublishOrderErrorEvent(ctx, orderCode, cause.Error()); err != nil {
		logger.Warn("failed to publish error event", zap.Error(err))
	}
}
