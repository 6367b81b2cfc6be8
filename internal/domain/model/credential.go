package model

import "time"

// Credential is an immutable (username, secret) pair. The constructor copies
// both inputs and the accessors return copies, so a Credential can be shared
// freely once built.
type Credential struct {
	username []byte
	secret   []byte
}

// NewCredential builds a Credential from raw bytes.
func NewCredential(username, secret []byte) Credential {
	return Credential{
		username: clone(username),
		secret:   clone(secret),
	}
}

// NewStringCredential builds a Credential from strings.
func NewStringCredential(username, secret string) Credential {
	return Credential{
		username: []byte(username),
		secret:   []byte(secret),
	}
}

// Username returns a copy of the username bytes.
func (c Credential) Username() []byte { return clone(c.username) }

// Secret returns a copy of the secret bytes.
func (c Credential) Secret() []byte { return clone(c.secret) }

// UsernameString returns the username as a string.
func (c Credential) UsernameString() string { return string(c.username) }

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// Account is a provisioned login account as persisted by an AccountStore.
// Secret is plaintext at the domain boundary; adapters encrypt it at rest.
type Account struct {
	ID          int64
	Username    string
	Secret      string
	Status      AccountStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
	LastLoginAt *time.Time // nil until the first successful login.
}

// Credential returns the account's (username, secret) pair.
func (a Account) Credential() Credential {
	return NewStringCredential(a.Username, a.Secret)
}

// CanLogin reports whether the account is eligible for the credential snapshot.
func (a Account) CanLogin() bool {
	return a.Status != AccountStatusDisabled
}
