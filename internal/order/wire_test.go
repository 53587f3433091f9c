package order

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"orderpipeline/internal/config"
	"orderpipeline/internal/infrastructure/metrics"
	"orderpipeline/internal/messaging"
)

func TestNewModule(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	cfg := &config.Config{Order: config.OrderConfig{MaxRetryAttempts: 3}}
	m := metrics.New()
	gateway := messaging.NewKafkaGateway(messaging.NewDiscardWriter(zap.NewNop()), m, zap.NewNop())

	module := NewModule(db, cfg, gateway, m, zap.NewNop())

	assert.NotNil(t, module.Controller)
	assert.NotNil(t, module.Pipeline)
	assert.NotNil(t, module.NewConsumer(nil))
	assert.NoError(t, mock.ExpectationsWereMet(), "wiring does not touch the database")
}
