package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"orderpipeline/internal/domain"
	"orderpipeline/internal/dto"
	apperrors "orderpipeline/internal/errors"
)

type GetOrderTotalUseCase interface {
	Execute(ctx context.Context, orderCode int64) (decimal.Decimal, error)
}

type CountOrdersByClientUseCase interface {
	Execute(ctx context.Context, clientID int64) (int64, error)
}

type GetOrdersByClientUseCase interface {
	Execute(ctx context.Context, clientID int64) ([]*domain.Order, error)
}

type OrderController struct {
	orderTotal     GetOrderTotalUseCase
	countByClient  CountOrdersByClientUseCase
	ordersByClient GetOrdersByClientUseCase
	logger         *zap.Logger
}

func NewOrderController(
	orderTotal GetOrderTotalUseCase,
	countByClient CountOrdersByClientUseCase,
	ordersByClient GetOrdersByClientUseCase,
	logger *zap.Logger,
) *OrderController {
	return &OrderController{
		orderTotal:     orderTotal,
		countByClient:  countByClient,
		ordersByClient: ordersByClient,
		logger:         logger,
	}
}

func (c *OrderController) GetOrderTotal(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	orderCode, ok := c.parsePositiveID(w, r, "orderCode", logger)
	if !ok {
		return
	}
	logger.Info("getting order total", zap.Int64("orderCode", orderCode))

	total, err := c.orderTotal.Execute(r.Context(), orderCode)
	if err != nil {
		c.handleUseCaseError(w, traceID, err, logger)
		return
	}

	c.writeJSON(w, http.StatusOK, dto.NewOrderTotalResponse(orderCode, total))
}

func (c *OrderController) CountOrdersByClient(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	clientID, ok := c.parsePositiveID(w, r, "clientId", logger)
	if !ok {
		return
	}
	logger.Info("counting orders for client", zap.Int64("clientId", clientID))

	count, err := c.countByClient.Execute(r.Context(), clientID)
	if err != nil {
		c.handleUseCaseError(w, traceID, err, logger)
		return
	}

	c.writeJSON(w, http.StatusOK, dto.OrderCountResponse{ClientID: clientID, Count: count})
}

func (c *OrderController) GetOrdersByClient(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	clientID, ok := c.parsePositiveID(w, r, "clientId", logger)
	if !ok {
		return
	}
	logger.Info("getting orders for client", zap.Int64("clientId", clientID))

	orders, err := c.ordersByClient.Execute(r.Context(), clientID)
	if err != nil {
		c.handleUseCaseError(w, traceID, err, logger)
		return
	}

	c.writeJSON(w, http.StatusOK, dto.NewOrderResponses(orders))
}

func (c *OrderController) parsePositiveID(w http.ResponseWriter, r *http.Request, param string, logger *zap.Logger) (int64, bool) {
	raw := chi.URLParam(r, param)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		logger.Warn("invalid path parameter", zap.String("param", param), zap.String("value", raw))
		c.writeValidationError(w, "invalid "+param, apperrors.ValidationDetail{
			Field:   param,
			Message: param + " must be a positive integer",
		})
		return 0, false
	}
	return id, true
}

func (c *OrderController) handleUseCaseError(w http.ResponseWriter, traceID string, err error, logger *zap.Logger) {
	if _, ok := apperrors.IsNotFoundError(err); ok {
		logger.Warn("resource not found", zap.Error(err))
		c.writeErrorResponse(w, traceID, http.StatusNotFound, "NOT_FOUND", err.Error())
		return
	}

	// a validation failure on a lookup means the order is unknown
	if _, ok := apperrors.IsValidationError(err); ok {
		logger.Warn("lookup rejected", zap.Error(err))
		c.writeErrorResponse(w, traceID, http.StatusNotFound, "NOT_FOUND", err.Error())
		return
	}

	logger.Error("unexpected error", zap.Error(err))
	c.writeErrorResponse(w, traceID, http.StatusInternalServerError, "INTERNAL_ERROR", "an unexpected error occurred")
}

func (c *OrderController) writeErrorResponse(w http.ResponseWriter, traceID string, statusCode int, code string, message string) {
	c.writeJSON(w, statusCode, dto.ErrorResponse{
		TraceID:   traceID,
		Status:    statusCode,
		Code:      code,
		Message:   message,
		Timestamp: time.Now().UTC(),
	})
}

type validationErrorResponse struct {
	Error   string                       `json:"error"`
	Message string                       `json:"message"`
	Details []apperrors.ValidationDetail `json:"details"`
}

func (c *OrderController) writeValidationError(w http.ResponseWriter, message string, details ...apperrors.ValidationDetail) {
	c.writeJSON(w, http.StatusBadRequest, validationErrorResponse{
		Error:   "VALIDATION_ERROR",
		Message: message,
		Details: details,
	})
}

func (c *OrderController) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		c.logger.Error("failed to encode response", zap.Error(err))
	}
}
