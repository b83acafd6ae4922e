// Package services contains server-side business logic. This file implements
// UserService, which registers marketplace participants and guards the
// moderator role behind the shared admin password.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/lotkeeper/internal/common"
	"github.com/dmitrijs2005/lotkeeper/internal/cryptox"
	"github.com/dmitrijs2005/lotkeeper/internal/server/auth"
	"github.com/dmitrijs2005/lotkeeper/internal/server/config"
	"github.com/dmitrijs2005/lotkeeper/internal/server/models"
	"github.com/dmitrijs2005/lotkeeper/internal/server/repositories/repomanager"
	"golang.org/x/crypto/bcrypt"
)

// UserService provides user-related operations:
// - Register: create or refresh a participant profile
// - AdminLogin: check the admin password, grant the role and mint a JWT
// - IsAdmin / GetUser: lookups for the transport layer
type UserService struct {
	db                          *sql.DB
	repomanager                 repomanager.RepositoryManager
	jwtSecret                   []byte
	accessTokenValidityDuration time.Duration
	adminHash                   []byte
}

// NewUserService constructs a UserService. cfg.AdminPassword may already be
// a bcrypt hash; a plain value is hashed here.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) (*UserService, error) {
	hash, err := cryptox.HashPassword(cfg.AdminPassword, bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash admin password: %w", err)
	}
	return &UserService{
		db:                          db,
		repomanager:                 m,
		jwtSecret:                   []byte(cfg.SecretKey),
		accessTokenValidityDuration: cfg.AccessTokenValidityDuration,
		adminHash:                   hash,
	}, nil
}

// Register stores the participant. Registering again updates the profile
// and keeps the moderator flag.
func (s *UserService) Register(ctx context.Context, user *models.User) (*models.User, error) {
	if strings.TrimSpace(user.ID) == "" {
		return nil, fmt.Errorf("%w: id is required", common.ErrInvalidUser)
	}
	if err := s.repomanager.Users(s.db).Upsert(ctx, user); err != nil {
		return nil, fmt.Errorf("error registering user: %w", err)
	}
	return user, nil
}

// AdminLogin grants userID the moderator role when password matches and
// returns an access token for moderator calls.
func (s *UserService) AdminLogin(ctx context.Context, userID, password string) (string, error) {
	repo := s.repomanager.Users(s.db)
	if _, err := repo.GetByID(ctx, userID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrorUnauthorized
		}
		return "", common.ErrorInternal
	}
	if !cryptox.CheckPassword(s.adminHash, password) {
		return "", common.ErrorUnauthorized
	}
	if err := repo.SetAdmin(ctx, userID, true); err != nil {
		return "", common.ErrorInternal
	}

	token, err := auth.GenerateToken(userID, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return "", common.ErrorInternal
	}
	return token, nil
}

func (s *UserService) IsAdmin(ctx context.Context, userID string) (bool, error) {
	u, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return false, nil
		}
		return false, err
	}
	return u.IsAdmin, nil
}

func (s *UserService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	return s.repomanager.Users(s.db).GetByID(ctx, userID)
}
