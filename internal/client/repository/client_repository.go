package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"orderpipeline/internal/domain"
	apperrors "orderpipeline/internal/errors"
	"orderpipeline/internal/infrastructure/mysql"
)

type MySQLClientRepository struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

func NewMySQLClientRepository(db *sql.DB, logger *zap.Logger) *MySQLClientRepository {
	return &MySQLClientRepository{
		db:     db,
		logger: logger,
		now:    time.Now,
	}
}

const selectClientQuery = `
		SELECT id, name, email, created_at
		FROM clients
		WHERE id = ?
	`

func (r *MySQLClientRepository) FindByID(ctx context.Context, id int64) (*domain.Client, error) {
	return r.findByID(ctx, selectClientQuery, id)
}

// findByIDLocked reads the latest committed row instead of the transaction
// snapshot.
func (r *MySQLClientRepository) findByIDLocked(ctx context.Context, id int64) (*domain.Client, error) {
	return r.findByID(ctx, selectClientQuery+"FOR SHARE", id)
}

func (r *MySQLClientRepository) findByID(ctx context.Context, query string, id int64) (*domain.Client, error) {
	var client domain.Client
	err := mysql.Executor(ctx, r.db).QueryRowContext(ctx, query, id).Scan(
		&client.ID, &client.Name, &client.Email, &client.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("client with id %d not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("querying client by id: %w", err)
	}

	return &client, nil
}

func (r *MySQLClientRepository) Save(ctx context.Context, client *domain.Client) (*domain.Client, error) {
	query := `INSERT INTO clients (id, name, email, created_at) VALUES (?, ?, ?, ?)`

	_, err := mysql.Executor(ctx, r.db).ExecContext(ctx, query,
		client.ID, client.Name, client.Email, client.CreatedAt,
	)
	if err != nil {
		if mysql.IsDuplicateEntry(err) {
			return nil, apperrors.NewConflictError(fmt.Sprintf("client with id %d already exists", client.ID))
		}
		return nil, fmt.Errorf("inserting client: %w", err)
	}

	saved := *client
	return &saved, nil
}

// FindOrCreateDefaultClient returns the stored client, creating a placeholder
// record the first time an id is referenced. When a concurrent transaction
// inserted the same id first, the committed row is returned through a locking
// read.
func (r *MySQLClientRepository) FindOrCreateDefaultClient(ctx context.Context, id int64) (*domain.Client, error) {
	client, err := r.FindByID(ctx, id)
	if err == nil {
		return client, nil
	}
	if _, ok := apperrors.IsNotFoundError(err); !ok {
		return nil, err
	}

	r.logger.Info("creating default client", zap.Int64("clientId", id))

	client, err = r.Save(ctx, domain.NewDefaultClient(id, r.now().UTC()))
	if _, ok := apperrors.IsConflictError(err); ok {
		r.logger.Info("default client created concurrently", zap.Int64("clientId", id))
		return r.findByIDLocked(ctx, id)
	}
	return client, err
}
