package repository

import (
	"context"
	"database/sql"
	"fmt"

	"orderpipeline/internal/domain"
	"orderpipeline/internal/infrastructure/mysql"
)

type MySQLOrderItemRepository struct {
	db *sql.DB
}

func NewMySQLOrderItemRepository(db *sql.DB) *MySQLOrderItemRepository {
	return &MySQLOrderItemRepository{db: db}
}

// InsertAll stores items under orderID and returns them with their ids set.
func (r *MySQLOrderItemRepository) InsertAll(ctx context.Context, orderID int64, items []domain.OrderItem) ([]domain.OrderItem, error) {
	query := `INSERT INTO order_items (order_id, product, quantity, price, total) VALUES (?, ?, ?, ?, ?)`

	saved := make([]domain.OrderItem, 0, len(items))
	for _, item := range items {
		result, err := mysql.Executor(ctx, r.db).ExecContext(ctx, query,
			orderID, item.Product, item.Quantity, item.Price, item.Total,
		)
		if err != nil {
			return nil, fmt.Errorf("inserting order item: %w", err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("getting last insert id: %w", err)
		}

		item.ID = id
		saved = append(saved, item)
	}

	return saved, nil
}

func (r *MySQLOrderItemRepository) FindByOrderID(ctx context.Context, orderID int64) ([]domain.OrderItem, error) {
	query := `
		SELECT id, product, quantity, price, total
		FROM order_items
		WHERE order_id = ?
		ORDER BY id
	`

	rows, err := mysql.Executor(ctx, r.db).QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("querying order items: %w", err)
	}
	defer rows.Close()

	items := []domain.OrderItem{}
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ID, &item.Product, &item.Quantity, &item.Price, &item.Total); err != nil {
			return nil, fmt.Errorf("scanning order item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating order items: %w", err)
	}

	return items, nil
}

func (r *MySQLOrderItemRepository) DeleteByOrderID(ctx context.Context, orderID int64) error {
	query := `DELETE FROM order_items WHERE order_id = ?`

	if _, err := mysql.Executor(ctx, r.db).ExecContext(ctx, query, orderID); err != nil {
		return fmt.Errorf("deleting order items: %w", err)
	}
	return nil
}
