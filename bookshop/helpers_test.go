package bookshop

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

var testNow = time.Date(2025, time.March, 14, 10, 30, 0, 0, time.Local)

func fixedClock() Clock { return func() time.Time { return testNow } }

func price(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func dune() Book {
	return Book{ID: "B1", Title: "Dune", Author: "Herbert", Category: "SciFi", Price: price("12.50"), Quantity: 5}
}

func foundation() Book {
	return Book{ID: "B2", Title: "Foundation", Author: "Asimov", Category: "SciFi", Price: price("9.99"), Quantity: 3}
}

var errBoom = errors.New("disk full")

// failingStore wraps a Store and fails the selected saves, including saves
// made through a transactional view.
type failingStore struct {
	Store
	failBooks bool
	failSales bool
	failUsers bool
}

func (f *failingStore) SaveBooks(b []Book) error {
	if f.failBooks {
		return errBoom
	}
	return f.Store.SaveBooks(b)
}

func (f *failingStore) SaveSales(s []Sale) error {
	if f.failSales {
		return errBoom
	}
	return f.Store.SaveSales(s)
}

func (f *failingStore) SaveUsers(u []User) error {
	if f.failUsers {
		return errBoom
	}
	return f.Store.SaveUsers(u)
}

func (f *failingStore) WithTx(fn func(tx Store) error) error {
	return f.Store.WithTx(func(tx Store) error {
		return fn(&failingStore{Store: tx, failBooks: f.failBooks, failSales: f.failSales, failUsers: f.failUsers})
	})
}

// assertBooksEqual compares books field by field; decimals and times are
// compared by value.
func assertBooksEqual(t *testing.T, want, got []Book) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		w, g := want[i], got[i]
		assert.Equal(t, w.ID, g.ID, "book %d id", i)
		assert.Equal(t, w.Title, g.Title, "book %d title", i)
		assert.Equal(t, w.Author, g.Author, "book %d author", i)
		assert.Equal(t, w.Category, g.Category, "book %d category", i)
		assert.True(t, w.Price.Equal(g.Price), "book %d price: want %s, got %s", i, w.Price, g.Price)
		assert.Equal(t, w.Quantity, g.Quantity, "book %d quantity", i)
		assert.True(t, w.DateAdded.Equal(g.DateAdded), "book %d date: want %v, got %v", i, w.DateAdded, g.DateAdded)
	}
}

func assertSalesEqual(t *testing.T, want, got []Sale) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		w, g := want[i], got[i]
		assert.Equal(t, w.SaleID, g.SaleID, "sale %d id", i)
		assert.Equal(t, w.BookID, g.BookID, "sale %d book id", i)
		assert.Equal(t, w.BookTitle, g.BookTitle, "sale %d title", i)
		assert.Equal(t, w.Quantity, g.Quantity, "sale %d quantity", i)
		assert.True(t, w.TotalAmount.Equal(g.TotalAmount), "sale %d total: want %s, got %s", i, w.TotalAmount, g.TotalAmount)
		assert.True(t, w.Date.Equal(g.Date), "sale %d date: want %v, got %v", i, w.Date, g.Date)
		assert.Equal(t, w.CustomerName, g.CustomerName, "sale %d customer", i)
	}
}

func newTestCatalog(t *testing.T, store Store, books ...Book) *Catalog {
	t.Helper()
	c := NewCatalog(store, nil, fixedClock())
	for _, b := range books {
		_, err := c.Add(b)
		require.NoError(t, err)
	}
	return c
}
