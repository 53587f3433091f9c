package order

import (
	"database/sql"

	"go.uber.org/zap"

	clientrepo "orderpipeline/internal/client/repository"
	"orderpipeline/internal/config"
	"orderpipeline/internal/infrastructure/metrics"
	"orderpipeline/internal/infrastructure/mysql"
	"orderpipeline/internal/messaging"
	"orderpipeline/internal/order/consumer"
	"orderpipeline/internal/order/controller"
	orderrepo "orderpipeline/internal/order/repository"
	"orderpipeline/internal/order/service"
	"orderpipeline/internal/order/usecase"
)

type Module struct {
	Controller *controller.OrderController
	Pipeline   *service.TransactionalService

	logger     *zap.Logger
	maxRetries int
}

func NewModule(
	db *sql.DB,
	cfg *config.Config,
	gateway *messaging.KafkaGateway,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Module {
	txManager := mysql.NewTxManager(db, cfg.Order.TransactionTimeout, logger)

	orderItemRepo := orderrepo.NewMySQLOrderItemRepository(db)
	orderRepo := orderrepo.NewMySQLOrderRepository(db, orderItemRepo, txManager)
	clientRepo := clientrepo.NewMySQLClientRepository(db, logger)

	validationSvc := service.NewValidationService(orderRepo)
	eventPublisher := service.NewEventPublisher(gateway, logger)

	processOrder := usecase.NewProcessOrderUseCase(
		validationSvc,
		clientRepo,
		orderRepo,
		gateway,
		eventPublisher,
		logger,
	)

	pipeline := service.NewTransactionalService(
		txManager,
		processOrder,
		validationSvc,
		eventPublisher,
		orderRepo,
		m,
		logger,
		cfg.Order.RetryBaseBackoff,
	)

	ctrl := controller.NewOrderController(
		usecase.NewGetOrderTotalUseCase(orderRepo, logger),
		usecase.NewCountOrdersByClientUseCase(orderRepo, logger),
		usecase.NewGetOrdersByClientUseCase(orderRepo, clientRepo, logger),
		logger,
	)

	return &Module{
		Controller: ctrl,
		Pipeline:   pipeline,
		logger:     logger,
		maxRetries: cfg.Order.MaxRetryAttempts,
	}
}

func (m *Module) NewConsumer(reader consumer.MessageReader) *consumer.OrderConsumer {
	return consumer.NewOrderConsumer(reader, m.Pipeline, m.logger, m.maxRetries)
}
