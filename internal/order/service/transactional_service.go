package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"orderpipeline/internal/domain"
	apperrors "orderpipeline/internal/errors"
)

const rollbackMessage = "Order processing rolled back"

type TransactionManager interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type OrderProcessor interface {
	Execute(ctx context.Context, orderCode, clientID int64, items []domain.OrderItemData) (*domain.Order, error)
}

type OrderValidator interface {
	ValidateOrderForProcessing(ctx context.Context, orderCode, clientID int64, items []domain.OrderItemData) error
	ValidateProcessedOrder(order *domain.Order) error
}

type OrderEventPublisher interface {
	PublishOrderCreatedEvent(ctx context.Context, order *domain.Order) error
	PublishOrderProcessedEvent(ctx context.Context, order *domain.Order) error
	PublishOrderErrorEvent(ctx context.Context, orderCode int64, errMsg string) error
	PublishOrderValidationEvent(ctx context.Context, orderCode, clientID int64, isValid bool) error
}

type OrderRepository interface {
	FindByOrderCode(ctx context.Context, orderCode int64) (*domain.Order, error)
	DeleteByID(ctx context.Context, id int64) error
}

type PipelineObserver interface {
	ObserveOrder(err error)
	ObserveRetry()
}

type nopObserver struct{}

func (nopObserver) ObserveOrder(error) {}
func (nopObserver) ObserveRetry()      {}

type TransactionalService struct {
	tx          TransactionManager
	processor   OrderProcessor
	validator   OrderValidator
	events      OrderEventPublisher
	orders      OrderRepository
	observer    PipelineObserver
	logger      *zap.Logger
	baseBackoff time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
}

func NewTransactionalService(
	tx TransactionManager,
	processor OrderProcessor,
	validator OrderValidator,
	events OrderEventPublisher,
	orders OrderRepository,
	observer PipelineObserver,
	logger *zap.Logger,
	baseBackoff time.Duration,
) *TransactionalService {
	if observer == nil {
		observer = nopObserver{}
	}
	if baseBackoff <= 0 {
		baseBackoff = time.Second
	}
	return &TransactionalService{
		tx:          tx,
		processor:   processor,
		validator:   validator,
		events:      events,
		orders:      orders,
		observer:    observer,
		logger:      logger,
		baseBackoff: baseBackoff,
		sleep:       sleepContext,
	}
}

// ProcessOrderTransactionally runs validation, processing and success events
// inside one transaction. Events are sent as they happen and are not undone
// if the transaction later rolls back.
func (s *TransactionalService) ProcessOrderTransactionally(
	ctx context.Context,
	orderCode, clientID int64,
	items []domain.OrderItemData,
) (*domain.Order, error) {
	logger := s.logger.With(zap.Int64("orderCode", orderCode), zap.Int64("clientId", clientID))
	logger.Info("processing order transactionally", zap.Int("itemCount", len(items)))

	var processed *domain.Order
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.validator.ValidateOrderForProcessing(ctx, orderCode, clientID, items); err != nil {
			return err
		}
		if err := s.events.PublishOrderValidationEvent(ctx, orderCode, clientID, true); err != nil {
			return err
		}

		order, err := s.processor.Execute(ctx, orderCode, clientID, items)
		if err != nil {
			return err
		}

		if err := s.validator.ValidateProcessedOrder(order); err != nil {
			return err
		}
		if err := s.events.PublishOrderCreatedEvent(ctx, order); err != nil {
			return err
		}
		if err := s.events.PublishOrderProcessedEvent(ctx, order); err != nil {
			return err
		}

		processed = order
		return nil
	})
	s.observer.ObserveOrder(err)

	if err != nil {
		logger.Error("error processing order transactionally", zap.Error(err))

		if pubErr := s.events.PublishOrderValidationEvent(ctx, orderCode, clientID, false); pubErr != nil {
			logger.Warn("failed to publish validation event", zap.Error(pubErr))
		}
		if pubErr := s.events.PublishOrderErrorEvent(ctx, orderCode, err.Error()); pubErr != nil {
			logger.Warn("failed to publish error event", zap.Error(pubErr))
		}
		return nil, err
	}

	logger.Info("order processed successfully in transaction", zap.String("total", domain.FormatMoney(processed.Total)))
	return processed, nil
}

// RollbackOrderProcessing deletes a stored order by its business code. An
// unknown code is not an error and publishes nothing.
func (s *TransactionalService) RollbackOrderProcessing(ctx context.Context, orderCode int64) error {
	logger := s.logger.With(zap.Int64("orderCode", orderCode))
	logger.Warn("rolling back order processing")

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		order, err := s.orders.FindByOrderCode(ctx, orderCode)
		if err != nil {
			if _, ok := apperrors.IsNotFoundError(err); ok {
				logger.Debug("nothing to roll back")
				return nil
			}
			return err
		}

		if err := s.orders.DeleteByID(ctx, order.ID); err != nil {
			return err
		}
		logger.Info("order rolled back successfully", zap.Int64("orderId", order.ID))

		return s.events.PublishOrderErrorEvent(ctx, orderCode, rollbackMessage)
	})
	if err != nil {
		logger.Error("error rolling back order", zap.Error(err))
		return err
	}
	return nil
}

// ExecuteWithRetry calls operation up to maxRetries times, waiting
// base*2^(attempt-1) after each failed attempt but the last. When every
// attempt fails the last error is returned inside a RetryExhaustedError.
// Cancelling ctx while waiting stops the retries immediately.
func (s *TransactionalService) ExecuteWithRetry(ctx context.Context, operation func(ctx context.Context) error, maxRetries int) error {
	if maxRetries < 1 {
		maxRetries = 1
	}
	s.logger.Debug("executing operation with retry", zap.Int("maxRetries", maxRetries))

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		err := operation(ctx)
		if err == nil {
			return nil
		}
		lastErr = err
		s.logger.Warn("operation failed",
			zap.Int("attempt", attempt),
			zap.Int("maxRetries", maxRetries),
			zap.Error(err),
		)

		if attempt == maxRetries {
			break
		}

		s.observer.ObserveRetry()
		wait := s.baseBackoff * time.Duration(1<<(attempt-1))
		if err := s.sleep(ctx, wait); err != nil {
			return apperrors.NewInternalError("operation interrupted", err)
		}
	}

	s.logger.Error("operation failed after all attempts", zap.Int("attempts", maxRetries), zap.Error(lastErr))
	return apperrors.NewRetryExhaustedError(maxRetries, lastErr)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
