package application_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ericfisherdev/credgate/internal/domain/model"
	"github.com/ericfisherdev/credgate/internal/domain/port/driven"
)

// --- Mock implementations ---

type mockSource struct {
	mu    sync.Mutex
	creds []model.Credential
	err   error
	calls int
}

func (m *mockSource) LoadCredentials(ctx context.Context) ([]model.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return m.creds, m.err
}

func (m *mockSource) set(creds ...model.Credential) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds = creds
}

func (m *mockSource) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockAccountStore is an in-memory AccountStore that doubles as the
// CredentialSource, like the sqlite adapter.
type mockAccountStore struct {
	mu        sync.Mutex
	accounts  map[string]model.Account
	nextID    int64
	loginErr  error
	createErr error
	logins    []string
}

func newMockAccountStore() *mockAccountStore {
	return &mockAccountStore{accounts: map[string]model.Account{}}
}

func (m *mockAccountStore) Create(_ context.Context, username, secret string) (model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return model.Account{}, m.createErr
	}
	if _, ok := m.accounts[username]; ok {
		return model.Account{}, driven.ErrAccountExists
	}
	m.nextID++
	a := model.Account{ID: m.nextID, Username: username, Secret: secret, Status: model.AccountStatusInactive}
	m.accounts[username] = a
	return a, nil
}

func (m *mockAccountStore) Get(_ context.Context, username string) (model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[username]
	if !ok {
		return model.Account{}, driven.ErrAccountNotFound
	}
	return a, nil
}

func (m *mockAccountStore) List(_ context.Context) ([]model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Account, 0, len(m.accounts))
	for _, a := range m.accounts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (m *mockAccountStore) UpdateSecret(_ context.Context, username, secret string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[username]
	if !ok {
		return driven.ErrAccountNotFound
	}
	a.Secret = secret
	m.accounts[username] = a
	return nil
}

func (m *mockAccountStore) SetStatus(_ context.Context, username string, status model.AccountStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[username]
	if !ok {
		return driven.ErrAccountNotFound
	}
	a.Status = status
	m.accounts[username] = a
	return nil
}

func (m *mockAccountStore) RecordLogin(_ context.Context, username string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loginErr != nil {
		return m.loginErr
	}
	a, ok := m.accounts[username]
	if !ok {
		return driven.ErrAccountNotFound
	}
	a.LastLoginAt = &at
	if a.Status == model.AccountStatusInactive {
		a.Status = model.AccountStatusActive
	}
	m.accounts[username] = a
	m.logins = append(m.logins, username)
	return nil
}

func (m *mockAccountStore) Delete(_ context.Context, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.accounts, username)
	return nil
}

// LoadCredentials fails on a canceled context, as a database query would.
func (m *mockAccountStore) LoadCredentials(ctx context.Context) ([]model.Credential, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	accounts, _ := m.List(ctx)
	creds := make([]model.Credential, 0, len(accounts))
	for _, a := range accounts {
		if a.CanLogin() {
			creds = append(creds, a.Credential())
		}
	}
	return creds, nil
}
