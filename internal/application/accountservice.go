package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ericfisherdev/credgate/internal/domain/model"
	"github.com/ericfisherdev/credgate/internal/domain/port/driven"
)

var (
	// ErrAccessDenied is returned when the current credentials do not validate.
	ErrAccessDenied = errors.New("access denied")

	// ErrAccountsUnavailable is returned when no AccountStore is configured.
	ErrAccountsUnavailable = errors.New("account store not configured")

	// ErrInvalidUsername is returned for empty usernames or ones containing
	// whitespace control characters.
	ErrInvalidUsername = errors.New("invalid username")
)

// AccountService provisions accounts and keeps the published credential store
// in step with the account store.
type AccountService struct {
	accounts driven.AccountStore
	auth     *AuthService
	logger   *slog.Logger
}

// NewAccountService creates an AccountService. accounts may be nil, in which
// case every operation returns ErrAccountsUnavailable.
func NewAccountService(accounts driven.AccountStore, auth *AuthService, logger *slog.Logger) *AccountService {
	return &AccountService{
		accounts: accounts,
		auth:     auth,
		logger:   logger,
	}
}

// Available reports whether an account store is configured.
func (s *AccountService) Available() bool {
	return s.accounts != nil
}

// Create provisions a new account after checking the username and the password
// policy. Surrounding whitespace is trimmed from the username. A username
// already present in the live store, from any source, is reported as
// driven.ErrAccountExists.
func (s *AccountService) Create(ctx context.Context, username, secret string) (model.Account, error) {
	if s.accounts == nil {
		return model.Account{}, ErrAccountsUnavailable
	}
	username = strings.TrimSpace(username)
	if err := validateUsername(username); err != nil {
		return model.Account{}, err
	}
	if err := model.ValidatePassword(secret); err != nil {
		return model.Account{}, err
	}
	if s.auth.Store().ContainsUsername([]byte(username)) {
		return model.Account{}, fmt.Errorf("create account %q: %w", username, driven.ErrAccountExists)
	}

	account, err := s.accounts.Create(ctx, username, secret)
	if err != nil {
		return model.Account{}, fmt.Errorf("create account %q: %w", username, err)
	}

	s.logger.Info("account created", "username", username)
	s.reload(ctx)
	return account, nil
}

// ChangePassword replaces the secret of an account. The old secret must
// validate against the current store and the new one must satisfy the policy.
func (s *AccountService) ChangePassword(ctx context.Context, username, oldSecret, newSecret string) error {
	if s.accounts == nil {
		return ErrAccountsUnavailable
	}
	if !s.auth.Store().Validate([]byte(username), []byte(oldSecret)) {
		return ErrAccessDenied
	}
	if err := model.ValidatePassword(newSecret); err != nil {
		return err
	}

	if err := s.accounts.UpdateSecret(ctx, username, newSecret); err != nil {
		return fmt.Errorf("change password for %q: %w", username, err)
	}

	s.logger.Info("password changed", "username", username)
	s.reload(ctx)
	return nil
}

// Disable excludes an account from future credential snapshots.
func (s *AccountService) Disable(ctx context.Context, username string) error {
	if s.accounts == nil {
		return ErrAccountsUnavailable
	}
	if err := s.accounts.SetStatus(ctx, username, model.AccountStatusDisabled); err != nil {
		return fmt.Errorf("disable account %q: %w", username, err)
	}

	s.logger.Info("account disabled", "username", username)
	s.reload(ctx)
	return nil
}

// DisableOwn disables an account on behalf of its holder, who must present
// the current secret.
func (s *AccountService) DisableOwn(ctx context.Context, username, secret string) error {
	if s.accounts == nil {
		return ErrAccountsUnavailable
	}
	if !s.auth.Store().Validate([]byte(username), []byte(secret)) {
		return ErrAccessDenied
	}
	return s.Disable(ctx, username)
}

// Delete removes an account from the account store.
func (s *AccountService) Delete(ctx context.Context, username string) error {
	if s.accounts == nil {
		return ErrAccountsUnavailable
	}
	if _, err := s.accounts.Get(ctx, username); err != nil {
		return fmt.Errorf("delete account %q: %w", username, err)
	}
	if err := s.accounts.Delete(ctx, username); err != nil {
		return fmt.Errorf("delete account %q: %w", username, err)
	}

	s.logger.Info("account deleted", "username", username)
	s.reload(ctx)
	return nil
}

// List returns all provisioned accounts.
func (s *AccountService) List(ctx context.Context) ([]model.Account, error) {
	if s.accounts == nil {
		return nil, ErrAccountsUnavailable
	}
	accounts, err := s.accounts.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, nil
}

// reload republishes the store after a committed mutation, even when the
// caller has gone away. A failure leaves the old store live; the next periodic
// reload retries.
func (s *AccountService) reload(ctx context.Context) {
	if _, err := s.auth.Reload(context.WithoutCancel(ctx)); err != nil {
		s.logger.Error("reload after account change failed", "error", err)
	}
}

func validateUsername(username string) error {
	if username == "" || strings.ContainsAny(username, "\t\r\n") {
		return fmt.Errorf("%w: %q", ErrInvalidUsername, username)
	}
	return nil
}
