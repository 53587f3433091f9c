package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"orderpipeline/internal/domain"
	apperrors "orderpipeline/internal/errors"
)

type OrderExistenceChecker interface {
	ExistsByOrderCode(ctx context.Context, orderCode int64) (bool, error)
}

// ValidationService checks raw order input before processing and the built
// aggregate before it is persisted. The first violation found is returned.
type ValidationService struct {
	orders OrderExistenceChecker
}

func NewValidationService(orders OrderExistenceChecker) *ValidationService {
	return &ValidationService{orders: orders}
}

func (s *ValidationService) ValidateOrderForProcessing(ctx context.Context, orderCode, clientID int64, items []domain.OrderItemData) error {
	if err := validateHeader(orderCode, clientID, len(items)); err != nil {
		return err
	}

	exists, err := s.orders.ExistsByOrderCode(ctx, orderCode)
	if err != nil {
		return err
	}
	if exists {
		return apperrors.NewValidationError(
			fmt.Sprintf("Order with code %d already exists", orderCode),
			apperrors.ValidationDetail{Field: "orderCode", Message: "must be unique"},
		)
	}

	for idx, item := range items {
		if err := validateItem(idx, item.Product, item.Quantity, item.Price); err != nil {
			return err
		}
	}

	return nil
}

func (s *ValidationService) ValidateProcessedOrder(order *domain.Order) error {
	if order == nil {
		return apperrors.NewValidationError("Order cannot be null")
	}

	if err := validateHeader(order.OrderCode, order.ClientID, len(order.Items)); err != nil {
		return err
	}

	if order.Total.Sign() <= 0 {
		return apperrors.NewValidationError("Order total must be positive",
			apperrors.ValidationDetail{Field: "total", Message: "must be positive"},
		)
	}

	return nil
}

// OrderExists has no caching; every call reaches the repository.
func (s *ValidationService) OrderExists(ctx context.Context, orderCode int64) (bool, error) {
	return s.orders.ExistsByOrderCode(ctx, orderCode)
}

func validateHeader(orderCode, clientID int64, itemCount int) error {
	if orderCode <= 0 {
		return apperrors.NewValidationError("Order code must be positive",
			apperrors.ValidationDetail{Field: "orderCode", Message: "must be positive"},
		)
	}
	if clientID <= 0 {
		return apperrors.NewValidationError("Client ID must be positive",
			apperrors.ValidationDetail{Field: "clientId", Message: "must be positive"},
		)
	}
	if itemCount == 0 {
		return apperrors.NewValidationError("Order must have at least one item",
			apperrors.ValidationDetail{Field: "items", Message: "must not be empty"},
		)
	}
	return nil
}

func validateItem(idx int, product string, quantity int, price decimal.Decimal) error {
	field := "items[" + strconv.Itoa(idx) + "]"

	if strings.TrimSpace(product) == "" {
		return apperrors.NewValidationError("Product name cannot be empty",
			apperrors.ValidationDetail{Field: field + ".product", Message: "must not be empty"},
		)
	}
	if quantity <= 0 {
		return apperrors.NewValidationError("Quantity must be positive",
			apperrors.ValidationDetail{Field: field + ".quantity", Message: "must be positive"},
		)
	}
	if price.Sign() <= 0 {
		return apperrors.NewValidationError("Price must be positive",
			apperrors.ValidationDetail{Field: field + ".price", Message: "must be positive"},
		)
	}
	if !price.Equal(price.Round(domain.MoneyScale)) {
		return apperrors.NewValidationError(
			fmt.Sprintf("Price must have at most %d decimal places", domain.MoneyScale),
			apperrors.ValidationDetail{Field: field + ".price", Message: "too many decimal places"},
		)
	}
	return nil
}
