package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"orderpipeline/internal/domain"
	"orderpipeline/internal/dto"
	apperrors "orderpipeline/internal/errors"
	"orderpipeline/internal/infrastructure/mysql"
)

type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

type OrderProcessor interface {
	ProcessOrderTransactionally(ctx context.Context, orderCode, clientID int64, items []domain.OrderItemData) (*domain.Order, error)
	ExecuteWithRetry(ctx context.Context, operation func(ctx context.Context) error, maxRetries int) error
}

// OrderConsumer feeds inbound order messages into the transactional
// pipeline. Each message is committed once it has been handled, whether or
// not the order was accepted.
type OrderConsumer struct {
	reader      MessageReader
	processor   OrderProcessor
	logger      *zap.Logger
	maxRetries  int
	readBackoff time.Duration
}

func NewOrderConsumer(reader MessageReader, processor OrderProcessor, logger *zap.Logger, maxRetries int) *OrderConsumer {
	return &OrderConsumer{
		reader:      reader,
		processor:   processor,
		logger:      logger,
		maxRetries:  maxRetries,
		readBackoff: 2 * time.Second,
	}
}

// Run consumes until ctx is cancelled.
func (c *OrderConsumer) Run(ctx context.Context) error {
	c.logger.Info("order consumer started")

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("order consumer stopped")
				return nil
			}
			c.logger.Error("kafka read error", zap.Error(err))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(c.readBackoff):
			}
			continue
		}

		c.Handle(ctx, msg)

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Error("failed to commit message", zap.Int64("offset", msg.Offset), zap.Error(err))
		}
	}
}

// Handle decodes and processes one message. Failures are logged; the
// pipeline has already reported them downstream.
func (c *OrderConsumer) Handle(ctx context.Context, msg kafka.Message) {
	logger := c.logger.With(zap.Int("partition", msg.Partition), zap.Int64("offset", msg.Offset))

	var order dto.OrderMessage
	if err := json.Unmarshal(msg.Value, &order); err != nil {
		logger.Error("order message decode error", zap.Error(err))
		return
	}

	logger = logger.With(zap.Int64("orderCode", order.OrderCode), zap.Int64("clientId", order.ClientID))
	logger.Info("received order message", zap.Int("itemCount", len(order.Items)))

	items := order.ItemData()
	var permanent error
	err := c.processor.ExecuteWithRetry(ctx, func(ctx context.Context) error {
		_, err := c.processor.ProcessOrderTransactionally(ctx, order.OrderCode, order.ClientID, items)
		switch {
		case err == nil:
			return nil
		case apperrors.IsPermanent(err):
			permanent = err
			return nil
		case mysql.IsDeadlock(err):
			logger.Warn("lock conflict while processing order", zap.Error(err))
		default:
			logger.Error("transient failure while processing order", zap.Error(err))
		}
		return err
	}, c.maxRetries)

	switch {
	case permanent != nil:
		logger.Warn("order rejected", zap.Error(permanent))
	case err != nil:
		var re *apperrors.RetryExhaustedError
		if errors.As(err, &re) {
			logger.Error("order processing failed", zap.Int("attempts", re.Attempts), zap.Error(re.Cause))
			return
		}
		logger.Error("order processing aborted", zap.Error(err))
	default:
		logger.Info("order processed successfully")
	}
}
