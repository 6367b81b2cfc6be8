package application_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/credgate/internal/application"
	"github.com/ericfisherdev/credgate/internal/domain/model"
	"github.com/ericfisherdev/credgate/internal/domain/port/driven"
)

// setupAccounts wires an AccountService whose AuthService loads from the
// mock account store, so every mutation is visible after its reload.
func setupAccounts(t *testing.T) (*application.AccountService, *application.AuthService, *mockAccountStore) {
	t.Helper()
	accounts := newMockAccountStore()
	auth := application.NewAuthService(application.NewStoreProvider(nil), accounts, accounts, discardLogger())
	_, err := auth.Reload(context.Background())
	require.NoError(t, err)
	return application.NewAccountService(accounts, auth, discardLogger()), auth, accounts
}

func TestAccountService_CreateThenLogin(t *testing.T) {
	svc, auth, _ := setupAccounts(t)
	ctx := context.Background()

	account, err := svc.Create(ctx, "sam", "Secret12")
	require.NoError(t, err)
	assert.Equal(t, "sam", account.Username)
	assert.Equal(t, model.AccountStatusInactive, account.Status)

	assert.True(t, auth.Login(ctx, "sam", "Secret12").Accepted)
}

func TestAccountService_CreateRejectsWeakPassword(t *testing.T) {
	svc, _, _ := setupAccounts(t)

	_, err := svc.Create(context.Background(), "sam", "short")

	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrWeakPassword))
}

func TestAccountService_CreateRejectsInvalidUsername(t *testing.T) {
	svc, _, _ := setupAccounts(t)

	for _, name := range []string{"", "tab\tname", "new\nline"} {
		_, err := svc.Create(context.Background(), name, "Secret12")
		assert.True(t, errors.Is(err, application.ErrInvalidUsername), "username %q", name)
	}
}

func TestAccountService_CreateDuplicate(t *testing.T) {
	svc, _, _ := setupAccounts(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "sam", "Secret12")
	require.NoError(t, err)

	_, err = svc.Create(ctx, "sam", "Other123")
	assert.True(t, errors.Is(err, driven.ErrAccountExists))
}

func TestAccountService_CreateClashesWithOtherSource(t *testing.T) {
	accounts := newMockAccountStore()
	auth := application.NewAuthService(application.NewStoreProvider(nil), &mockSource{creds: demoCreds()}, accounts, discardLogger())
	_, err := auth.Reload(context.Background())
	require.NoError(t, err)
	svc := application.NewAccountService(accounts, auth, discardLogger())

	_, err = svc.Create(context.Background(), "demo", "Secret12")

	assert.True(t, errors.Is(err, driven.ErrAccountExists))
}

func TestAccountService_ChangePassword(t *testing.T) {
	svc, auth, _ := setupAccounts(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "sam", "Secret12")
	require.NoError(t, err)

	require.NoError(t, svc.ChangePassword(ctx, "sam", "Secret12", "Newpass34"))

	assert.False(t, auth.Login(ctx, "sam", "Secret12").Accepted)
	assert.True(t, auth.Login(ctx, "sam", "Newpass34").Accepted)
}

func TestAccountService_ChangePasswordWrongOldSecret(t *testing.T) {
	svc, _, _ := setupAccounts(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "sam", "Secret12")
	require.NoError(t, err)

	err = svc.ChangePassword(ctx, "sam", "Secret1", "Newpass34")
	assert.ErrorIs(t, err, application.ErrAccessDenied)
}

func TestAccountService_ChangePasswordWeakNewSecret(t *testing.T) {
	svc, auth, _ := setupAccounts(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "sam", "Secret12")
	require.NoError(t, err)

	err = svc.ChangePassword(ctx, "sam", "Secret12", "weak")
	assert.ErrorIs(t, err, model.ErrWeakPassword)
	assert.True(t, auth.Login(ctx, "sam", "Secret12").Accepted)
}

func TestAccountService_Disable(t *testing.T) {
	svc, auth, _ := setupAccounts(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "sam", "Secret12")
	require.NoError(t, err)

	require.NoError(t, svc.Disable(ctx, "sam"))
	assert.False(t, auth.Login(ctx, "sam", "Secret12").Accepted)

	err = svc.Disable(ctx, "nobody")
	assert.ErrorIs(t, err, driven.ErrAccountNotFound)
}

func TestAccountService_DisableOwnRequiresSecret(t *testing.T) {
	svc, auth, _ := setupAccounts(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "sam", "Secret12")
	require.NoError(t, err)

	assert.ErrorIs(t, svc.DisableOwn(ctx, "sam", ""), application.ErrAccessDenied)
	assert.ErrorIs(t, svc.DisableOwn(ctx, "sam", "Secret1"), application.ErrAccessDenied)
	assert.True(t, auth.Login(ctx, "sam", "Secret12").Accepted)

	require.NoError(t, svc.DisableOwn(ctx, "sam", "Secret12"))
	assert.False(t, auth.Login(ctx, "sam", "Secret12").Accepted)
}

func TestAccountService_Delete(t *testing.T) {
	svc, auth, accounts := setupAccounts(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "sam", "Secret12")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "sam"))
	assert.False(t, auth.Login(ctx, "sam", "Secret12").Accepted)
	_, err = accounts.Get(ctx, "sam")
	assert.ErrorIs(t, err, driven.ErrAccountNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, "sam"), driven.ErrAccountNotFound)
}

func TestAccountService_List(t *testing.T) {
	svc, _, _ := setupAccounts(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "zoe", "Secret12")
	require.NoError(t, err)
	_, err = svc.Create(ctx, "amy", "Secret12")
	require.NoError(t, err)

	accounts, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, "amy", accounts[0].Username)
	assert.Equal(t, "zoe", accounts[1].Username)
}

func TestAccountService_Unavailable(t *testing.T) {
	auth := application.NewAuthService(application.NewStoreProvider(nil), &mockSource{}, nil, discardLogger())
	svc := application.NewAccountService(nil, auth, discardLogger())
	ctx := context.Background()

	assert.False(t, svc.Available())

	_, err := svc.Create(ctx, "sam", "Secret12")
	assert.ErrorIs(t, err, application.ErrAccountsUnavailable)
	assert.ErrorIs(t, svc.ChangePassword(ctx, "sam", "a", "b"), application.ErrAccountsUnavailable)
	assert.ErrorIs(t, svc.Disable(ctx, "sam"), application.ErrAccountsUnavailable)
	assert.ErrorIs(t, svc.DisableOwn(ctx, "sam", "Secret12"), application.ErrAccountsUnavailable)
	assert.ErrorIs(t, svc.Delete(ctx, "sam"), application.ErrAccountsUnavailable)
	_, err = svc.List(ctx)
	assert.ErrorIs(t, err, application.ErrAccountsUnavailable)
}

func TestAccountService_CreatePublishesAfterCallerCancels(t *testing.T) {
	svc, auth, _ := setupAccounts(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.Create(ctx, "alice", "Passw0rd")
	require.NoError(t, err)

	assert.True(t, auth.Login(context.Background(), "alice", "Passw0rd").Accepted)
}

func TestAccountService_CreateTrimsUsername(t *testing.T) {
	svc, auth, _ := setupAccounts(t)
	ctx := context.Background()

	account, err := svc.Create(ctx, "  sam \t", "Secret12")
	require.NoError(t, err)
	assert.Equal(t, "sam", account.Username)
	assert.True(t, auth.Login(ctx, "sam", "Secret12").Accepted)

	_, err = svc.Create(ctx, "   ", "Secret12")
	assert.ErrorIs(t, err, application.ErrInvalidUsername)
}
