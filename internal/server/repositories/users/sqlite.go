package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/lotkeeper/internal/common"
	"github.com/dmitrijs2005/lotkeeper/internal/dbx"
	"github.com/dmitrijs2005/lotkeeper/internal/server/models"
)

// SQLiteRepository is the single-node variant of PostgresRepository.
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Upsert(ctx context.Context, user *models.User) error {
	query :=
		`INSERT INTO users (id, username, display_name, phone, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
			username = excluded.username,
			display_name = excluded.display_name,
			phone = excluded.phone
		 `

	if _, err := r.db.ExecContext(ctx, query,
		user.ID, user.UserName, user.DisplayName, user.Phone, user.CreatedAt.UTC()); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	// RETURNING columns carry no declared type, so timestamps are re-read.
	err := r.db.QueryRowContext(ctx, `SELECT is_admin, created_at FROM users WHERE id = ?`, user.ID).
		Scan(&user.IsAdmin, &user.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query :=
		`SELECT id, username, display_name, phone, is_admin, created_at FROM users
		 WHERE id = ?
		 `

	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

func (r *SQLiteRepository) SetAdmin(ctx context.Context, id string, admin bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET is_admin = ? WHERE id = ?`, admin, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOne(res)
}

func (r *SQLiteRepository) ListAdminIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM users WHERE is_admin = 1 ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return collectIDs(rows)
}
