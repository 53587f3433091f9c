package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	driver "github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"orderpipeline/internal/domain"
	apperrors "orderpipeline/internal/errors"
	"orderpipeline/internal/infrastructure/mysql"
	"orderpipeline/internal/testutil"
)

type passthroughTx struct{}

func (passthroughTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func newMockRepo(t *testing.T) (*MySQLOrderRepository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewMySQLOrderRepository(db, NewMySQLOrderItemRepository(db), passthroughTx{}), mock
}

func sampleOrder() *domain.Order {
	order := domain.NewOrder(1001, 1, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))
	order.AddItem(domain.NewOrderItem("Notebook", 1, decimal.RequireFromString("1000.00")))
	order.AddItem(domain.NewOrderItem("Mouse", 2, decimal.RequireFromString("50.00")))
	return order
}

var (
	insertOrderSQL = regexp.QuoteMeta(`INSERT INTO orders (order_code, client_id, total, created_at) VALUES (?, ?, ?, ?)`)
	insertItemSQL  = regexp.QuoteMeta(`INSERT INTO order_items (order_id, product, quantity, price, total) VALUES (?, ?, ?, ?, ?)`)
	selectItemsSQL = `SELECT id, product, quantity, price, total\s+FROM order_items`
	orderColumns   = []string{"id", "order_code", "client_id", "total", "created_at"}
	itemColumns    = []string{"id", "product", "quantity", "price", "total"}
)

// Unit Tests

func TestOrderRepository_Save_AssignsIDs(t *testing.T) {
	repo, mock := newMockRepo(t)
	order := sampleOrder()

	mock.ExpectExec(insertOrderSQL).
		WithArgs(int64(1001), int64(1), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(10, 1))
	mock.ExpectExec(insertItemSQL).
		WithArgs(int64(10), "Notebook", 1, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(100, 1))
	mock.ExpectExec(insertItemSQL).
		WithArgs(int64(10), "Mouse", 2, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(101, 1))

	saved, err := repo.Save(context.Background(), order)

	require.NoError(t, err)
	assert.Equal(t, int64(10), saved.ID)
	require.Len(t, saved.Items, 2)
	assert.Equal(t, int64(100), saved.Items[0].ID)
	assert.Equal(t, int64(101), saved.Items[1].ID)
	assert.True(t, decimal.RequireFromString("1100").Equal(saved.Total))
	assert.Zero(t, order.ID, "input order is not mutated")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_Save_DuplicateCode(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(insertOrderSQL).
		WillReturnError(&driver.MySQLError{Number: 1062, Message: "Duplicate entry '1001' for key 'uk_order_code'"})

	saved, err := repo.Save(context.Background(), sampleOrder())

	assert.Nil(t, saved)
	ce, ok := apperrors.IsConflictError(err)
	require.True(t, ok)
	assert.Equal(t, "order with code 1001 already exists", ce.Message)
}

func TestOrderRepository_Save_RollsBackWhenItemInsertFails(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	txm := mysql.NewTxManager(db, time.Second, zap.NewNop())
	repo := NewMySQLOrderRepository(db, NewMySQLOrderItemRepository(db), txm)

	mock.ExpectBegin()
	mock.ExpectExec(insertOrderSQL).WillReturnResult(sqlmock.NewResult(10, 1))
	mock.ExpectExec(insertItemSQL).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	saved, err := repo.Save(context.Background(), sampleOrder())

	assert.Nil(t, saved)
	assert.ErrorContains(t, err, "inserting order item")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_FindByOrderCode_LoadsItems(t *testing.T) {
	repo, mock := newMockRepo(t)
	createdAt := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`FROM orders\s+WHERE order_code = \?`).
		WithArgs(int64(1001)).
		WillReturnRows(sqlmock.NewRows(orderColumns).AddRow(10, 1001, 1, "1100.00", createdAt))
	mock.ExpectQuery(selectItemsSQL).
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows(itemColumns).
			AddRow(100, "Notebook", 1, "1000.00", "1000.00").
			AddRow(101, "Mouse", 2, "50.00", "100.00"))

	order, err := repo.FindByOrderCode(context.Background(), 1001)

	require.NoError(t, err)
	assert.Equal(t, int64(10), order.ID)
	assert.Equal(t, createdAt, order.CreatedAt)
	require.Len(t, order.Items, 2)
	assert.Equal(t, "Mouse", order.Items[1].Product)
	assert.True(t, decimal.RequireFromString("100").Equal(order.Items[1].Total))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_FindByOrderCode_NotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`FROM orders\s+WHERE order_code = \?`).
		WillReturnRows(sqlmock.NewRows(orderColumns))

	order, err := repo.FindByOrderCode(context.Background(), 9999)

	assert.Nil(t, order)
	_, ok := apperrors.IsNotFoundError(err)
	assert.True(t, ok)
}

func TestOrderRepository_ExistsByOrderCode(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM orders WHERE order_code = ?)`)).
		WithArgs(int64(1001)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(1))

	exists, err := repo.ExistsByOrderCode(context.Background(), 1001)

	require.NoError(t, err)
	assert.True(t, exists)
}

func TestOrderRepository_ExistsByOrderCode_PropagatesError(t *testing.T) {
	repo, mock := newMockRepo(t)
	dbErr := errors.New("connection reset")

	mock.ExpectQuery(`SELECT EXISTS`).WillReturnError(dbErr)

	_, err := repo.ExistsByOrderCode(context.Background(), 1001)

	assert.ErrorIs(t, err, dbErr)
}

func TestOrderRepository_DeleteByID(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM order_items WHERE order_id = ?`)).
		WithArgs(int64(10)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM orders WHERE id = ?`)).
		WithArgs(int64(10)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.DeleteByID(context.Background(), 10)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_DeleteByID_NotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(`DELETE FROM order_items`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM orders`).WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.DeleteByID(context.Background(), 10)

	_, ok := apperrors.IsNotFoundError(err)
	assert.True(t, ok)
}

func TestOrderRepository_CalculateOrderTotal(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT total FROM orders WHERE order_code = ?`)).
		WithArgs(int64(1001)).
		WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow("1100.00"))

	total, err := repo.CalculateOrderTotal(context.Background(), 1001)

	require.NoError(t, err)
	assert.Equal(t, "1100", total.String())
}

func TestOrderRepository_CalculateOrderTotal_NotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT total FROM orders`).WillReturnRows(sqlmock.NewRows([]string{"total"}))

	_, err := repo.CalculateOrderTotal(context.Background(), 1)

	_, ok := apperrors.IsNotFoundError(err)
	assert.True(t, ok)
}

func TestOrderRepository_CountOrdersByClient(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM orders WHERE client_id = ?`)).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := repo.CountOrdersByClient(context.Background(), 1)

	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestOrderRepository_FindByClientID(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`FROM orders\s+WHERE client_id = \?`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(orderColumns).
			AddRow(10, 1001, 1, "10.00", now).
			AddRow(11, 1002, 1, "5.00", now))
	mock.ExpectQuery(selectItemsSQL).WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows(itemColumns).AddRow(100, "Pen", 5, "2.00", "10.00"))
	mock.ExpectQuery(selectItemsSQL).WithArgs(int64(11)).
		WillReturnRows(sqlmock.NewRows(itemColumns).AddRow(101, "Cap", 1, "5.00", "5.00"))

	orders, err := repo.FindByClientID(context.Background(), 1)

	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, int64(1002), orders[1].OrderCode)
	assert.Equal(t, "Cap", orders[1].Items[0].Product)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Integration Tests

func newIntegrationRepo(t *testing.T) (*MySQLOrderRepository, *sql.DB) {
	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })

	txm := mysql.NewTxManager(db, 5*time.Second, zap.NewNop())
	return NewMySQLOrderRepository(db, NewMySQLOrderItemRepository(db), txm), db
}

func TestOrderRepository_Integration_SaveAndFind(t *testing.T) {
	repo, _ := newIntegrationRepo(t)
	ctx := context.Background()

	saved, err := repo.Save(ctx, sampleOrder())
	require.NoError(t, err)
	assert.NotZero(t, saved.ID)

	found, err := repo.FindByOrderCode(ctx, 1001)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, found.ID)
	require.Len(t, found.Items, 2)
	assert.True(t, decimal.RequireFromString("1100.00").Equal(found.Total))

	exists, err := repo.ExistsByOrderCode(ctx, 1001)
	require.NoError(t, err)
	assert.True(t, exists)

	count, err := repo.CountOrdersByClient(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestOrderRepository_Integration_DuplicateCodeConflicts(t *testing.T) {
	repo, _ := newIntegrationRepo(t)
	ctx := context.Background()

	_, err := repo.Save(ctx, sampleOrder())
	require.NoError(t, err)

	_, err = repo.Save(ctx, sampleOrder())

	_, ok := apperrors.IsConflictError(err)
	assert.True(t, ok)
}

func TestOrderRepository_Integration_DeleteRemovesItems(t *testing.T) {
	repo, db := newIntegrationRepo(t)
	ctx := context.Background()

	saved, err := repo.Save(ctx, sampleOrder())
	require.NoError(t, err)

	require.NoError(t, repo.DeleteByID(ctx, saved.ID))

	var remaining int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM order_items WHERE order_id = ?`, saved.ID).Scan(&remaining))
	assert.Zero(t, remaining)

	_, err = repo.FindByOrderCode(ctx, 1001)
	_, ok := apperrors.IsNotFoundError(err)
	assert.True(t, ok)
}
