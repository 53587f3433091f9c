package messaging

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"orderpipeline/internal/infrastructure/kafka"
)

const (
	ChannelOrderCreated    = "order.created"
	ChannelOrderProcessed  = "order.processed"
	ChannelOrderError      = "order.error"
	ChannelOrderValidation = "order.validation"
)

type PublishObserver interface {
	ObservePublish(channel string, err error)
}

// KafkaGateway delivers messages to named channels, one Kafka topic per
// channel.
type KafkaGateway struct {
	writer   kafka.MessageWriter
	observer PublishObserver
	logger   *zap.Logger
}

func NewKafkaGateway(writer kafka.MessageWriter, observer PublishObserver, logger *zap.Logger) *KafkaGateway {
	return &KafkaGateway{
		writer:   writer,
		observer: observer,
		logger:   logger,
	}
}

func (g *KafkaGateway) SendMessage(ctx context.Context, channel string, payload any) error {
	return g.send(ctx, channel, "", payload)
}

func (g *KafkaGateway) SendOrderProcessedNotification(ctx context.Context, orderCode int64) error {
	g.logger.Info("sending order processed notification", zap.Int64("orderCode", orderCode))

	message := fmt.Sprintf("Order %d processed successfully", orderCode)
	return g.send(ctx, ChannelOrderProcessed, strconv.FormatInt(orderCode, 10), message)
}

func (g *KafkaGateway) SendOrderErrorNotification(ctx context.Context, orderCode int64, errMsg string) error {
	g.logger.Warn("sending order error notification", zap.Int64("orderCode", orderCode), zap.String("error", errMsg))

	message := fmt.Sprintf("Order %d processing failed: %s", orderCode, errMsg)
	return g.send(ctx, ChannelOrderError, strconv.FormatInt(orderCode, 10), message)
}

func (g *KafkaGateway) send(ctx context.Context, channel, key string, payload any) error {
	eventID := uuid.NewString()
	if key == "" {
		key = eventID
	}

	err := kafka.PublishJSON(ctx, g.writer, channel, key, payload,
		kafkago.Header{Key: "event-id", Value: []byte(eventID)},
	)
	if g.observer != nil {
		g.observer.ObservePublish(channel, err)
	}
	if err != nil {
		g.logger.Error("failed to send message", zap.String("channel", channel), zap.String("eventId", eventID), zap.Error(err))
		return fmt.Errorf("sending message to %s: %w", channel, err)
	}

	g.logger.Debug("message sent", zap.String("channel", channel), zap.String("eventId", eventID))
	return nil
}

// DiscardWriter drops every message. It stands in for the broker when no
// Kafka brokers are configured.
type DiscardWriter struct {
	logger *zap.Logger
}

func NewDiscardWriter(logger *zap.Logger) *DiscardWriter {
	return &DiscardWriter{logger: logger}
}

func (w *DiscardWriter) WriteMessages(ctx context.Context, msgs ...kafkago.Message) error {
	for _, msg := range msgs {
		w.logger.Debug("kafka disabled, dropping message", zap.String("topic", msg.Topic), zap.ByteString("value", msg.Value))
	}
	return nil
}
