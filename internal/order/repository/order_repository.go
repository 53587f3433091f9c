package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"orderpipeline/internal/domain"
	apperrors "orderpipeline/internal/errors"
	"orderpipeline/internal/infrastructure/mysql"
)

type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type MySQLOrderRepository struct {
	db    *sql.DB
	items *MySQLOrderItemRepository
	tx    Transactor
}

func NewMySQLOrderRepository(db *sql.DB, items *MySQLOrderItemRepository, tx Transactor) *MySQLOrderRepository {
	return &MySQLOrderRepository{
		db:    db,
		items: items,
		tx:    tx,
	}
}

// Save inserts the order and its items atomically and returns the persisted
// aggregate with ids assigned. A second order with the same order code fails
// with a ConflictError.
func (r *MySQLOrderRepository) Save(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	var saved *domain.Order

	err := r.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		query := `INSERT INTO orders (order_code, client_id, total, created_at) VALUES (?, ?, ?, ?)`

		result, err := mysql.Executor(ctx, r.db).ExecContext(ctx, query,
			order.OrderCode, order.ClientID, order.Total, order.CreatedAt,
		)
		if err != nil {
			if mysql.IsDuplicateEntry(err) {
				return apperrors.NewConflictError(fmt.Sprintf("order with code %d already exists", order.OrderCode))
			}
			return fmt.Errorf("inserting order: %w", err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("getting last insert id: %w", err)
		}

		items, err := r.items.InsertAll(ctx, id, order.Items)
		if err != nil {
			return err
		}

		saved = &domain.Order{
			ID:        id,
			OrderCode: order.OrderCode,
			ClientID:  order.ClientID,
			Client:    order.Client,
			Items:     items,
			Total:     order.Total,
			CreatedAt: order.CreatedAt,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return saved, nil
}

func (r *MySQLOrderRepository) FindByOrderCode(ctx context.Context, orderCode int64) (*domain.Order, error) {
	query := `
		SELECT id, order_code, client_id, total, created_at
		FROM orders
		WHERE order_code = ?
	`

	var order domain.Order
	err := mysql.Executor(ctx, r.db).QueryRowContext(ctx, query, orderCode).Scan(
		&order.ID, &order.OrderCode, &order.ClientID, &order.Total, &order.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("order with code %d not found", orderCode))
	}
	if err != nil {
		return nil, fmt.Errorf("querying order by code: %w", err)
	}

	order.Items, err = r.items.FindByOrderID(ctx, order.ID)
	if err != nil {
		return nil, err
	}

	return &order, nil
}

func (r *MySQLOrderRepository) ExistsByOrderCode(ctx context.Context, orderCode int64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM orders WHERE order_code = ?)`

	var exists bool
	if err := mysql.Executor(ctx, r.db).QueryRowContext(ctx, query, orderCode).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking order existence: %w", err)
	}
	return exists, nil
}

func (r *MySQLOrderRepository) DeleteByID(ctx context.Context, id int64) error {
	return r.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := r.items.DeleteByOrderID(ctx, id); err != nil {
			return err
		}

		result, err := mysql.Executor(ctx, r.db).ExecContext(ctx, `DELETE FROM orders WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("deleting order: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("getting rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return apperrors.NewNotFoundError(fmt.Sprintf("order with id %d not found", id))
		}

		return nil
	})
}

func (r *MySQLOrderRepository) FindByClientID(ctx context.Context, clientID int64) ([]*domain.Order, error) {
	query := `
		SELECT id, order_code, client_id, total, created_at
		FROM orders
		WHERE client_id = ?
		ORDER BY created_at, id
	`

	rows, err := mysql.Executor(ctx, r.db).QueryContext(ctx, query, clientID)
	if err != nil {
		return nil, fmt.Errorf("querying orders by client: %w", err)
	}

	orders := []*domain.Order{}
	for rows.Next() {
		var order domain.Order
		if err := rows.Scan(&order.ID, &order.OrderCode, &order.ClientID, &order.Total, &order.CreatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning order: %w", err)
		}
		orders = append(orders, &order)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterating orders: %w", err)
	}
	rows.Close()

	// items are loaded after the cursor is released so a single
	// transaction connection can serve both queries
	for _, order := range orders {
		order.Items, err = r.items.FindByOrderID(ctx, order.ID)
		if err != nil {
			return nil, err
		}
	}

	return orders, nil
}

func (r *MySQLOrderRepository) CalculateOrderTotal(ctx context.Context, orderCode int64) (decimal.Decimal, error) {
	query := `SELECT total FROM orders WHERE order_code = ?`

	var total decimal.Decimal
	err := mysql.Executor(ctx, r.db).QueryRowContext(ctx, query, orderCode).Scan(&total)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, apperrors.NewNotFoundError(fmt.Sprintf("order with code %d not found", orderCode))
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("querying order total: %w", err)
	}
	return total, nil
}

func (r *MySQLOrderRepository) CountOrdersByClient(ctx context.Context, clientID int64) (int64, error) {
	query := `SELECT COUNT(*) FROM orders WHERE client_id = ?`

	var count int64
	if err := mysql.Executor(ctx, r.db).QueryRowContext(ctx, query, clientID).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting orders by client: %w", err)
	}
	return count, nil
}
