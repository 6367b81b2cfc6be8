package application

import (
	"sync/atomic"

	"github.com/ericfisherdev/credgate/internal/domain/credstore"
)

// StoreProvider publishes the current credential store. Readers always observe
// a fully built store; a rebuilt store replaces the old one in a single atomic
// swap, so an in-flight Validate keeps using the snapshot it started with.
type StoreProvider struct {
	current atomic.Pointer[credstore.Store]
}

// NewStoreProvider creates a provider holding initial, or an empty store when
// initial is nil.
func NewStoreProvider(initial *credstore.Store) *StoreProvider {
	p := &StoreProvider{}
	p.Replace(initial)
	return p
}

// Get returns the current store. It is never nil.
func (p *StoreProvider) Get() *credstore.Store {
	return p.current.Load()
}

// Replace publishes store as the current store. A nil store publishes an
// empty one.
func (p *StoreProvider) Replace(store *credstore.Store) {
	if store == nil {
		store = credstore.Empty()
	}
	p.current.Store(store)
}
