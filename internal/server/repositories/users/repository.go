// Package users persists marketplace participants.
package users

import (
	"context"

	"github.com/dmitrijs2005/lotkeeper/internal/server/models"
)

type Repository interface {
	// Upsert inserts the user or refreshes its profile fields. IsAdmin and
	// CreatedAt of an existing row are kept and copied back into user.
	Upsert(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	SetAdmin(ctx context.Context, id string, admin bool) error
	ListAdminIDs(ctx context.Context) ([]string, error)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*models.User, error) {
	u := &models.User{}
	if err := row.Scan(&u.ID, &u.UserName, &u.DisplayName, &u.Phone, &u.IsAdmin, &u.CreatedAt); err != nil {
		return nil, err
	}
	return u, nil
}
