package todos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/todokeeper/internal/common"
	"github.com/dmitrijs2005/todokeeper/internal/dbx"
	"github.com/dmitrijs2005/todokeeper/internal/server/models"
)

// PostgresRepository implements todo storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List(ctx context.Context, ownerID int64) ([]*models.Todo, error) {
	query :=
		`SELECT id, title, description, completed, created_at, updated_at, user_id FROM todos
		 WHERE user_id = $1
		 ORDER BY id
		 `

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []*models.Todo{}
	for rows.Next() {
		var item models.Todo
		if err := rows.Scan(
			&item.ID, &item.Title, &item.Description, &item.Completed,
			&item.CreatedAt, &item.UpdatedAt, &item.UserID,
		); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) Create(ctx context.Context, todo *models.Todo) (*models.Todo, error) {
	query :=
		`INSERT INTO todos (title, description, completed, user_id)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		todo.Title, todo.Description, todo.Completed, todo.UserID).
		Scan(&todo.ID, &todo.CreatedAt, &todo.UpdatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return todo, nil
}

func (r *PostgresRepository) Get(ctx context.Context, ownerID, id int64) (*models.Todo, error) {
	query :=
		`SELECT id, title, description, completed, created_at, updated_at, user_id FROM todos
		 WHERE id = $1 AND user_id = $2
		 `

	item := &models.Todo{}
	err := r.db.QueryRowContext(ctx, query, id, ownerID).Scan(
		&item.ID, &item.Title, &item.Description, &item.Completed,
		&item.CreatedAt, &item.UpdatedAt, &item.UserID,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return item, nil
}

func (r *PostgresRepository) Update(ctx context.Context, ownerID, id int64, patch *models.TodoPatch) (*models.Todo, error) {
	// COALESCE keeps columns whose patch field is nil; updated_at is always
	// refreshed, even when the patch changes nothing.
	query :=
		`UPDATE todos
		 SET title = COALESCE($3, title),
		     description = COALESCE($4, description),
		     completed = COALESCE($5, completed),
		     updated_at = now()
		 WHERE id = $1 AND user_id = $2
		 RETURNING id, title, description, completed, created_at, updated_at, user_id
		 `

	item := &models.Todo{}
	err := r.db.QueryRowContext(ctx, query, id, ownerID,
		patch.Title, patch.Description, patch.Completed).Scan(
		&item.ID, &item.Title, &item.Description, &item.Completed,
		&item.CreatedAt, &item.UpdatedAt, &item.UserID,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return item, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, ownerID, id int64) error {
	query :=
		`DELETE FROM todos
		 WHERE id = $1 AND user_id = $2
		 `

	res, err := r.db.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}

	return nil
}

var _ Repository = (*PostgresRepository)(nil)
