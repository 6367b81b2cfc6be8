package driven

import (
	"context"
	"errors"
	"time"

	"github.com/ericfisherdev/credgate/internal/domain/model"
)

// Sentinel errors returned by AccountStore implementations.
var (
	// ErrAccountNotFound indicates the requested account does not exist.
	ErrAccountNotFound = errors.New("account not found")

	// ErrAccountExists indicates an account with the same username already exists.
	ErrAccountExists = errors.New("account already exists")

	// ErrEncryptionKeyNotSet is returned by operations that read or write secrets
	// when CREDGATE_SECRET_KEY has not been configured.
	ErrEncryptionKeyNotSet = errors.New("encryption key not configured: set CREDGATE_SECRET_KEY")
)

// AccountStore defines the driven port for account provisioning persistence.
// The adapter layer is responsible for encrypting secrets at rest; this
// interface operates on plaintext values at the domain boundary.
type AccountStore interface {
	// Create inserts a new account with status inactive.
	// Returns ErrAccountExists if the username is taken.
	Create(ctx context.Context, username, secret string) (model.Account, error)

	// Get returns the account for username, or ErrAccountNotFound.
	Get(ctx context.Context, username string) (model.Account, error)

	// List returns all accounts ordered by username, disabled ones included.
	List(ctx context.Context) ([]model.Account, error)

	// UpdateSecret replaces the stored secret. Returns ErrAccountNotFound if absent.
	UpdateSecret(ctx context.Context, username, secret string) error

	// SetStatus changes the account status. Returns ErrAccountNotFound if absent.
	SetStatus(ctx context.Context, username string, status model.AccountStatus) error

	// RecordLogin stamps the last login time and marks an inactive account active.
	// Returns ErrAccountNotFound if absent.
	RecordLogin(ctx context.Context, username string, at time.Time) error

	// Delete removes the account. Deleting a missing account is not an error.
	Delete(ctx context.Context, username string) error
}
