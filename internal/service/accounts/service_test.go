package accounts

import (
	"context"
	"testing"

	"github.com/jmehdipour/sms-panel/internal/db/dbtest"
	"github.com/jmehdipour/sms-panel/internal/errs"
	"github.com/jmehdipour/sms-panel/internal/model"
	"github.com/jmehdipour/sms-panel/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func newService(t *testing.T) *Service {
	t.Helper()
	db := dbtest.Open(t)
	return New(repository.NewAccountsRepository(db), repository.NewLedgerRepository(db), zap.NewNop()).
		WithHashCost(bcrypt.MinCost)
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	s := newService(t)

	a, err := s.Register(ctx, RegisterCmd{Name: "alice", Email: "Alice@Example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, a.Role)
	assert.Equal(t, "alice@example.com", a.Email)
	assert.Len(t, a.APIKey, 32)
	assert.NotEqual(t, "secret1", a.PasswordHash)

	got, err := s.Login(ctx, "alice", "secret1")
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)

	got, err = s.Login(ctx, "alice@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, a.APIKey, got.APIKey)

	_, err = s.Login(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, errs.ErrInvalidCredentials)
	_, err = s.Login(ctx, "nobody", "secret1")
	assert.ErrorIs(t, err, errs.ErrInvalidCredentials)

	_, err = s.Register(ctx, RegisterCmd{Name: "alice", Email: "x@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, errs.ErrDuplicate)

	_, err = s.Register(ctx, RegisterCmd{Name: "al", Email: "bad", Password: "1", Role: "root"})
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
}

func TestAuthenticateAndStatus(t *testing.T) {
	ctx := context.Background()
	s := newService(t)
	a, err := s.Register(ctx, RegisterCmd{Name: "bob", Email: "bob@example.com", Password: "secret1", Role: model.RoleAdmin})
	require.NoError(t, err)

	id, err := s.Authenticate(ctx, a.APIKey)
	require.NoError(t, err)
	assert.Equal(t, model.Identity{AccountID: a.ID, Role: model.RoleAdmin}, id)

	_, err = s.Authenticate(ctx, "unknown")
	assert.ErrorIs(t, err, errs.ErrInvalidCredentials)
	_, err = s.Authenticate(ctx, "")
	assert.ErrorIs(t, err, errs.ErrInvalidCredentials)

	require.NoError(t, s.SetStatus(ctx, a.ID, model.AccountInactive))
	_, err = s.Authenticate(ctx, a.APIKey)
	assert.ErrorIs(t, err, errs.ErrAccountInactive)
	_, err = s.Login(ctx, "bob", "secret1")
	assert.ErrorIs(t, err, errs.ErrAccountInactive)

	assert.ErrorIs(t, s.SetStatus(ctx, a.ID, "banned"), errs.ErrInvalidInput)
}

func TestAddCredits(t *testing.T) {
	ctx := context.Background()
	s := newService(t)
	a, err := s.Register(ctx, RegisterCmd{Name: "carol", Email: "carol@example.com", Password: "secret1", Credits: 3})
	require.NoError(t, err)

	bal, err := s.AddCredits(ctx, a.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(10), bal)

	_, err = s.AddCredits(ctx, a.ID, 0)
	assert.ErrorIs(t, err, errs.ErrInvalidAmount)
	_, err = s.AddCredits(ctx, 777, 1)
	assert.ErrorIs(t, err, errs.ErrAccountNotFound)
}

func TestUpdateProfileAndDelete(t *testing.T) {
	ctx := context.Background()
	s := newService(t)
	a, err := s.Register(ctx, RegisterCmd{Name: "dave", Email: "dave@example.com", Password: "secret1"})
	require.NoError(t, err)

	require.NoError(t, s.UpdateProfile(ctx, a.ID, UpdateProfileCmd{Name: "david", Email: "david@example.com"}))
	got, err := s.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "david", got.Name)

	assert.ErrorIs(t, s.UpdateProfile(ctx, a.ID, UpdateProfileCmd{Name: "", Email: "x"}), errs.ErrInvalidInput)

	require.NoError(t, s.Delete(ctx, a.ID))
	list, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}
