// Package application contains use-case orchestration services.
package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/ericfisherdev/credgate/internal/domain/credstore"
	"github.com/ericfisherdev/credgate/internal/domain/port/driven"
)

// RejectionMessage is shown for every failed login. It never says which of the
// username or password was wrong.
const RejectionMessage = "Incorrect username and password combination"

// Greeting returns the message shown after a successful login.
func Greeting(username string) string {
	return fmt.Sprintf("Hello %s, you are now logged in.", username)
}

// LoginResult is the outcome of a login attempt.
type LoginResult struct {
	Accepted bool
	Username string // Set only when Accepted.
}

// Message returns the user-facing text for the result.
func (r LoginResult) Message() string {
	if r.Accepted {
		return Greeting(r.Username)
	}
	return RejectionMessage
}

// AuthService answers login attempts against the published credential store
// and rebuilds that store from its CredentialSource on demand.
type AuthService struct {
	provider *StoreProvider
	source   driven.CredentialSource
	accounts driven.AccountStore // nil when no account database is configured.
	logger   *slog.Logger
	now      func() time.Time
	reloads  singleflight.Group
}

// NewAuthService creates an AuthService. accounts may be nil; when set, successful
// logins are recorded against it.
func NewAuthService(
	provider *StoreProvider,
	source driven.CredentialSource,
	accounts driven.AccountStore,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		provider: provider,
		source:   source,
		accounts: accounts,
		logger:   logger,
		now:      time.Now,
	}
}

// Store returns the currently published credential store.
func (s *AuthService) Store() *credstore.Store {
	return s.provider.Get()
}

// Login checks the presented pair against the current store. The decision is
// exactly Validate's result; recording the login is best effort and never turns
// an acceptance into a rejection.
func (s *AuthService) Login(ctx context.Context, username, secret string) LoginResult {
	if !s.provider.Get().Validate([]byte(username), []byte(secret)) {
		s.logger.Info("login rejected")
		return LoginResult{}
	}

	s.logger.Info("login accepted", "username", username)

	if s.accounts != nil {
		err := s.accounts.RecordLogin(ctx, username, s.now().UTC())
		if err != nil && !errors.Is(err, driven.ErrAccountNotFound) {
			s.logger.Warn("failed to record login", "username", username, "error", err)
		}
	}

	return LoginResult{Accepted: true, Username: username}
}

// Reload loads the credential list, builds a new store and publishes it,
// returning the number of credentials. Concurrent calls share one rebuild,
// which is detached from the caller's cancellation so one abandoned request
// cannot fail the others. On failure the previously published store stays in
// place.
func (s *AuthService) Reload(ctx context.Context) (int, error) {
	v, err, _ := s.reloads.Do("reload", func() (any, error) {
		start := time.Now()

		creds, err := s.source.LoadCredentials(context.WithoutCancel(ctx))
		if err != nil {
			return 0, fmt.Errorf("load credentials: %w", err)
		}

		store, err := credstore.New(creds)
		if err != nil {
			return 0, fmt.Errorf("build credential store: %w", err)
		}

		s.provider.Replace(store)
		s.logger.Info("credential store reloaded",
			"credentials", store.Len(),
			"duration", time.Since(start).Round(time.Microsecond),
		)
		return store.Len(), nil
	})
	if err != nil {
		return 0, err
	}
	return v.(int), nil
}
