package credfile

import (
	"context"

	"github.com/ericfisherdev/credgate/internal/domain/model"
	"github.com/ericfisherdev/credgate/internal/domain/port/driven"
)

// Static is a fixed, in-binary credential list.
type Static []model.Credential

var _ driven.CredentialSource = Static(nil)

// LoadCredentials returns a copy of the list.
func (s Static) LoadCredentials(_ context.Context) ([]model.Credential, error) {
	return append([]model.Credential(nil), s...), nil
}

// DemoCredentials returns the two demonstration accounts.
func DemoCredentials() Static {
	return Static{
		model.NewStringCredential("demo", "mode"),
		model.NewStringCredential("john", "long"),
	}
}

// Multi concatenates the lists of several sources in order. It does not
// deduplicate: a username supplied by two sources makes the store build fail.
type Multi []driven.CredentialSource

var _ driven.CredentialSource = Multi(nil)

// LoadCredentials loads every source, stopping at the first error.
func (m Multi) LoadCredentials(ctx context.Context) ([]model.Credential, error) {
	var all []model.Credential
	for _, src := range m {
		creds, err := src.LoadCredentials(ctx)
		if err != nil {
			return nil, err
		}
		all = append(all, creds...)
	}
	return all, nil
}
