package driven

import (
	"context"

	"github.com/ericfisherdev/credgate/internal/domain/model"
)

// CredentialSource supplies the credential list a store is built from.
// Implementations return entries in a deterministic order and must not
// deduplicate; duplicate usernames are rejected when the store is built.
type CredentialSource interface {
	LoadCredentials(ctx context.Context) ([]model.Credential, error)
}
