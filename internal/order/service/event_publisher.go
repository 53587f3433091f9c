package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"orderpipeline/internal/domain"
	"orderpipeline/internal/messaging"
)

const (
	EventOrderCreated    = "ORDER_CREATED"
	EventOrderProcessed  = "ORDER_PROCESSED"
	EventOrderError      = "ORDER_ERROR"
	EventOrderValidation = "ORDER_VALIDATION"
)

type MessageSender interface {
	SendMessage(ctx context.Context, channel string, payload any) error
}

type OrderCreatedEvent struct {
	EventType string          `json:"eventType"`
	OrderCode int64           `json:"orderCode"`
	ClientID  int64     `json:"clientId"`
	Total     string    `json:"total"`
	Timestamp time.Time `json:"timestamp"`
}

type OrderProcessedEvent struct {
	EventType string          `json:"eventType"`
	OrderCode int64           `json:"orderCode"`
	ClientID  int64     `json:"clientId"`
	Total     string    `json:"total"`
	ItemCount int       `json:"itemCount"`
	Timestamp time.Time `json:"timestamp"`
}

type OrderErrorEvent struct {
	EventType string    `json:"eventType"`
	OrderCode int64     `json:"orderCode"`
	Error     string    `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}

type OrderValidationEvent struct {
	EventType string    `json:"eventType"`
	OrderCode int64     `json:"orderCode"`
	ClientID  int64     `json:"clientId"`
	IsValid   bool      `json:"isValid"`
	Timestamp time.Time `json:"timestamp"`
}

// EventPublisher turns lifecycle transitions into flat event records. Gateway
// failures are returned unchanged; callers decide whether they are fatal.
type EventPublisher struct {
	sender MessageSender
	logger *zap.Logger
	now    func() time.Time
}

func NewEventPublisher(sender MessageSender, logger *zap.Logger) *EventPublisher {
	return &EventPublisher{
		sender: sender,
		logger: logger,
		now:    time.Now,
	}
}

// Created and processed events carry the order's creation time.
func (p *EventPublisher) PublishOrderCreatedEvent(ctx context.Context, order *domain.Order) error {
	p.logger.Debug("publishing order created event", zap.Int64("orderCode", order.OrderCode))

	return p.sender.SendMessage(ctx, messaging.ChannelOrderCreated, OrderCreatedEvent{
		EventType: EventOrderCreated,
		OrderCode: order.OrderCode,
		ClientID:  order.ClientID,
		Total:     domain.FormatMoney(order.Total),
		Timestamp: order.CreatedAt,
	})
}

func (p *EventPublisher) PublishOrderProcessedEvent(ctx context.Context, order *domain.Order) error {
	p.logger.Debug("publishing order processed event", zap.Int64("orderCode", order.OrderCode))

	return p.sender.SendMessage(ctx, messaging.ChannelOrderProcessed, OrderProcessedEvent{
		EventType: EventOrderProcessed,
		OrderCode: order.OrderCode,
		ClientID:  order.ClientID,
		Total:     domain.FormatMoney(order.Total),
		ItemCount: order.ItemCount(),
		Timestamp: order.CreatedAt,
	})
}

func (p *EventPublisher) PublishOrderErrorEvent(ctx context.Context, orderCode int64, errMsg string) error {
	p.logger.Debug("publishing order error event", zap.Int64("orderCode", orderCode), zap.String("error", errMsg))

	return p.sender.SendMessage(ctx, messaging.ChannelOrderError, OrderErrorEvent{
		EventType: EventOrderError,
		OrderCode: orderCode,
		Error:     errMsg,
		Timestamp: p.now().UTC(),
	})
}

func (p *EventPublisher) PublishOrderValidationEvent(ctx context.Context, orderCode, clientID int64, isValid bool) error {
	p.logger.Debug("publishing order validation event", zap.Int64("orderCode", orderCode), zap.Bool("isValid", isValid))

	return p.sender.SendMessage(ctx, messaging.ChannelOrderValidation, OrderValidationEvent{
		EventType: EventOrderValidation,
		OrderCode: orderCode,
		ClientID:  clientID,
		IsValid:   isValid,
		Timestamp: p.now().UTC(),
	})
}
