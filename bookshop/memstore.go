package bookshop

import (
	"slices"
	"sync"
)

// MemoryStore keeps every collection in process memory. Used by tests and by
// the `memory` store kind for throwaway sessions.
type MemoryStore struct {
	mu    sync.Mutex
	books []Book
	sales []Sale
	users []User
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// NewMemoryStoreFrom seeds a memory store with snap.
func NewMemoryStoreFrom(snap Snapshot) *MemoryStore {
	return &MemoryStore{
		books: slices.Clone(snap.Books),
		sales: slices.Clone(snap.Sales),
		users: slices.Clone(snap.Users),
	}
}

func (m *MemoryStore) LoadBooks() ([]Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneOrEmpty(m.books), nil
}

func (m *MemoryStore) LoadSales() ([]Sale, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneOrEmpty(m.sales), nil
}

func (m *MemoryStore) LoadUsers() ([]User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneOrEmpty(m.users), nil
}

func (m *MemoryStore) SaveBooks(books []Book) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.books = slices.Clone(books)
	return nil
}

func (m *MemoryStore) SaveSales(sales []Sale) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sales = slices.Clone(sales)
	return nil
}

func (m *MemoryStore) SaveUsers(users []User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users = slices.Clone(users)
	return nil
}

// WithTx snapshots the current state and restores it if fn fails.
func (m *MemoryStore) WithTx(fn func(tx Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := memorySnapshot{
		books: slices.Clone(m.books),
		sales: slices.Clone(m.sales),
		users: slices.Clone(m.users),
	}
	if err := fn(&memoryTxView{parent: m}); err != nil {
		m.books, m.sales, m.users = snap.books, snap.sales, snap.users
		return err
	}
	return nil
}

func (m *MemoryStore) Close() error { return nil }

type memorySnapshot struct {
	books []Book
	sales []Sale
	users []User
}

// memoryTxView writes straight into the parent, whose lock is already held
// by WithTx.
type memoryTxView struct {
	parent *MemoryStore
}

func (v *memoryTxView) LoadBooks() ([]Book, error) { return cloneOrEmpty(v.parent.books), nil }
func (v *memoryTxView) LoadSales() ([]Sale, error) { return cloneOrEmpty(v.parent.sales), nil }
func (v *memoryTxView) LoadUsers() ([]User, error) { return cloneOrEmpty(v.parent.users), nil }

func (v *memoryTxView) SaveBooks(books []Book) error {
	v.parent.books = slices.Clone(books)
	return nil
}

func (v *memoryTxView) SaveSales(sales []Sale) error {
	v.parent.sales = slices.Clone(sales)
	return nil
}

func (v *memoryTxView) SaveUsers(users []User) error {
	v.parent.users = slices.Clone(users)
	return nil
}

func (v *memoryTxView) WithTx(fn func(tx Store) error) error { return fn(v) }
func (v *memoryTxView) Close() error                         { return nil }

func cloneOrEmpty[T any](s []T) []T {
	if len(s) == 0 {
		return []T{}
	}
	return slices.Clone(s)
}
