package services

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/lotkeeper/internal/common"
	"github.com/dmitrijs2005/lotkeeper/internal/dbx"
	"github.com/dmitrijs2005/lotkeeper/internal/server/auth"
	"github.com/dmitrijs2005/lotkeeper/internal/server/config"
	"github.com/dmitrijs2005/lotkeeper/internal/server/models"
	"github.com/dmitrijs2005/lotkeeper/internal/server/repositories/repomanager"
	usersrepo "github.com/dmitrijs2005/lotkeeper/internal/server/repositories/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// --- helpers ---

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

type fakeUsersRepo struct {
	usersrepo.Repository

	getOut *models.User
	getErr error

	upsertErr error
	upserted  []*models.User

	setAdminErr error
	adminSet    []string
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getOut, nil
}

func (f *fakeUsersRepo) Upsert(ctx context.Context, u *models.User) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserted = append(f.upserted, u)
	return nil
}

func (f *fakeUsersRepo) SetAdmin(ctx context.Context, id string, admin bool) error {
	if f.setAdminErr != nil {
		return f.setAdminErr
	}
	f.adminSet = append(f.adminSet, id)
	return nil
}

type fakeRepoManager struct {
	repomanager.RepositoryManager
	u *fakeUsersRepo
}

func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository { return m.u }

func newUserService(t *testing.T, db *sql.DB, rm repomanager.RepositoryManager, password string) *UserService {
	t.Helper()
	cfg := &config.Config{
		SecretKey:                   "k",
		AccessTokenValidityDuration: time.Hour,
		AdminPassword:               password,
	}
	s, err := NewUserService(db, rm, cfg)
	require.NoError(t, err)
	return s
}

func TestNewUserService_AcceptsBcryptHash(t *testing.T) {
	db, _ := newSQLMockDB(t)
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	rm := &fakeRepoManager{u: &fakeUsersRepo{getOut: &models.User{ID: "u1"}}}
	s := newUserService(t, db, rm, string(hash))

	_, err = s.AdminLogin(context.Background(), "u1", "s3cret")
	assert.NoError(t, err)
}

func TestRegister_SuccessAndError(t *testing.T) {
	db, _ := newSQLMockDB(t)

	repo := &fakeUsersRepo{}
	s := newUserService(t, db, &fakeRepoManager{u: repo}, "admin")
	u, err := s.Register(context.Background(), &models.User{ID: "42", UserName: "alice", Phone: "+371"})
	require.NoError(t, err)
	assert.Equal(t, "42", u.ID)
	require.Len(t, repo.upserted, 1)

	_, err = s.Register(context.Background(), &models.User{ID: "  "})
	assert.ErrorIs(t, err, common.ErrInvalidUser)

	sErr := newUserService(t, db, &fakeRepoManager{u: &fakeUsersRepo{upsertErr: errBoom{}}}, "admin")
	_, err = sErr.Register(context.Background(), &models.User{ID: "bob"})
	require.Error(t, err)
	assert.Regexp(t, `error registering user: .*boom`, err.Error())
}

func TestAdminLogin_Flows(t *testing.T) {
	db, _ := newSQLMockDB(t)
	ctx := context.Background()

	// not registered -> unauthorized
	sNF := newUserService(t, db, &fakeRepoManager{u: &fakeUsersRepo{getErr: common.ErrorNotFound}}, "admin")
	_, err := sNF.AdminLogin(ctx, "ghost", "admin")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)

	// store failure -> internal
	sIE := newUserService(t, db, &fakeRepoManager{u: &fakeUsersRepo{getErr: errBoom{}}}, "admin")
	_, err = sIE.AdminLogin(ctx, "u", "admin")
	assert.ErrorIs(t, err, common.ErrorInternal)

	// wrong password -> unauthorized, role untouched
	repo := &fakeUsersRepo{getOut: &models.User{ID: "u1"}}
	s := newUserService(t, db, &fakeRepoManager{u: repo}, "admin")
	_, err = s.AdminLogin(ctx, "u1", "nope")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
	assert.Empty(t, repo.adminSet)

	token, err := s.AdminLogin(ctx, "u1", "admin")
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, repo.adminSet)

	id, err := auth.GetUserIDFromToken(token, []byte("k"))
	require.NoError(t, err)
	assert.Equal(t, "u1", id)

	// failing role update -> internal
	repo.setAdminErr = errBoom{}
	_, err = s.AdminLogin(ctx, "u1", "admin")
	assert.ErrorIs(t, err, common.ErrorInternal)
}

func TestIsAdmin(t *testing.T) {
	db, _ := newSQLMockDB(t)
	ctx := context.Background()

	s := newUserService(t, db, &fakeRepoManager{u: &fakeUsersRepo{getOut: &models.User{ID: "u1", IsAdmin: true}}}, "admin")
	ok, err := s.IsAdmin(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, ok)

	sNF := newUserService(t, db, &fakeRepoManager{u: &fakeUsersRepo{getErr: common.ErrorNotFound}}, "admin")
	ok, err = sNF.IsAdmin(ctx, "ghost")
	require.NoError(t, err)
	assert.False(t, ok)

	sErr := newUserService(t, db, &fakeRepoManager{u: &fakeUsersRepo{getErr: errBoom{}}}, "admin")
	_, err = sErr.IsAdmin(ctx, "u")
	assert.True(t, errors.Is(err, errBoom{}))
}
