package bookshop

import (
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type saleFixture struct {
	store   Store
	catalog *Catalog
	ledger  *Ledger
	tx      *SaleTransaction
}

func newSaleFixture(t *testing.T, store Store, books ...Book) *saleFixture {
	t.Helper()
	catalog := newTestCatalog(t, store, books...)
	ledger := NewLedger(store, nil, nil, fixedClock())
	return &saleFixture{
		store:   store,
		catalog: catalog,
		ledger:  ledger,
		tx:      NewSaleTransaction(store, catalog, ledger),
	}
}

func (f *saleFixture) quantity(t *testing.T, id string) int {
	t.Helper()
	b, err := f.catalog.Find(id)
	require.NoError(t, err)
	return b.Quantity
}

func TestSellDune(t *testing.T) {
	// GIVEN: Dune with five copies at 12.50
	f := newSaleFixture(t, NewMemoryStore(), dune())

	// WHEN: Alice buys three
	sale, err := f.tx.Sell("B1", 3, "Alice")
	require.NoError(t, err)

	// THEN: the sale is S1 for 37.50 and two copies remain
	assert.Equal(t, "S1", sale.SaleID)
	assert.Equal(t, "B1", sale.BookID)
	assert.Equal(t, "Dune", sale.BookTitle)
	assert.Equal(t, 3, sale.Quantity)
	assert.Equal(t, "37.50", sale.TotalAmount.StringFixed(2))
	assert.Equal(t, "12.50", sale.UnitPrice().StringFixed(2))
	assert.Equal(t, "Alice", sale.CustomerName)
	assert.True(t, sale.Date.Equal(testNow))
	assert.Equal(t, 2, f.quantity(t, "B1"))

	books, err := f.store.LoadBooks()
	require.NoError(t, err)
	assert.Equal(t, 2, books[0].Quantity)
	sales, err := f.store.LoadSales()
	require.NoError(t, err)
	assertSalesEqual(t, []Sale{sale}, sales)
}

func TestSellInsufficientStock(t *testing.T) {
	f := newSaleFixture(t, NewMemoryStore(), dune())
	_, err := f.tx.Sell("B1", 3, "Alice")
	require.NoError(t, err)

	// WHEN: Bob asks for more than the two left
	_, err = f.tx.Sell("B1", 10, "Bob")

	// THEN: the sale fails and nothing changes
	require.ErrorIs(t, err, ErrInsufficientStock)
	var short *InsufficientStockError
	require.True(t, errors.As(err, &short))
	assert.Equal(t, 2, short.Available)
	assert.Equal(t, 10, short.Requested)

	assert.Equal(t, 2, f.quantity(t, "B1"))
	assert.Equal(t, 1, f.ledger.Len())
	sales, _ := f.store.LoadSales()
	assert.Len(t, sales, 1)
}

func TestSellRejections(t *testing.T) {
	soldOut := foundation()
	soldOut.Quantity = 0

	cases := []struct {
		name     string
		bookID   string
		quantity int
		customer string
		wantErr  error
	}{
		{"missing book", "B9", 1, "Alice", ErrNotFound},
		{"out of stock", "B2", 1, "Alice", ErrOutOfStock},
		{"out of stock wins over bad quantity", "B2", 0, "Alice", ErrOutOfStock},
		{"more than stock", "B1", 6, "Alice", ErrInsufficientStock},
		{"zero quantity", "B1", 0, "Alice", ErrInvalidQuantity},
		{"negative quantity", "B1", -1, "Alice", ErrInvalidQuantity},
		{"empty customer", "B1", 1, "", ErrInvalidCustomer},
		{"blank customer", "B1", 1, "   ", ErrInvalidCustomer},
		{"delimiter in customer", "B1", 1, "Alice|Bob", ErrInvalidCustomer},
		{"newline in customer", "B1", 1, "Alice\nBob", ErrInvalidCustomer},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newSaleFixture(t, NewMemoryStore(), dune(), soldOut)

			_, err := f.tx.Sell(tc.bookID, tc.quantity, tc.customer)

			require.ErrorIs(t, err, tc.wantErr)
			assert.Equal(t, 5, f.quantity(t, "B1"))
			assert.Equal(t, 0, f.ledger.Len())
		})
	}
}

func TestSellIsAtomic(t *testing.T) {
	cases := []struct {
		name  string
		store func(Store) Store
	}{
		{"stock write fails", func(s Store) Store { return &failingStore{Store: s, failBooks: true} }},
		{"ledger write fails", func(s Store) Store { return &failingStore{Store: s, failSales: true} }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mem := NewMemoryStore()
			f := newSaleFixture(t, mem, dune())
			broken := tc.store(mem)
			f.tx = NewSaleTransaction(broken, f.catalog, f.ledger)

			_, err := f.tx.Sell("B1", 2, "Alice")

			require.ErrorIs(t, err, ErrPersistence)
			require.ErrorIs(t, err, errBoom)

			// Neither memory nor the store moved.
			assert.Equal(t, 5, f.quantity(t, "B1"))
			assert.Equal(t, 0, f.ledger.Len())
			books, _ := mem.LoadBooks()
			assert.Equal(t, 5, books[0].Quantity)
			sales, _ := mem.LoadSales()
			assert.Empty(t, sales)
		})
	}
}

func TestSellIsAtomicOnFileStore(t *testing.T) {
	fs, err := NewFileStore(FileStoreOptions{Dir: t.TempDir()})
	require.NoError(t, err)
	f := newSaleFixture(t, fs, dune())
	f.tx = NewSaleTransaction(&failingStore{Store: fs, failSales: true}, f.catalog, f.ledger)

	_, err = f.tx.Sell("B1", 2, "Alice")
	require.ErrorIs(t, err, ErrPersistence)

	books, err := fs.LoadBooks()
	require.NoError(t, err)
	assert.Equal(t, 5, books[0].Quantity, "staged stock write is discarded")
}

func TestSellStockConservation(t *testing.T) {
	f := newSaleFixture(t, NewMemoryStore(), dune(), foundation())
	initial := map[string]int{"B1": 5, "B2": 3}

	attempts := []struct {
		id  string
		qty int
	}{
		{"B1", 2}, {"B2", 1}, {"B1", 4}, {"B1", 1}, {"B2", 2}, {"B2", 1}, {"B1", 2}, {"B1", 1},
	}
	for _, a := range attempts {
		_, _ = f.tx.Sell(a.id, a.qty, "Customer")
	}

	sold := map[string]int{}
	for _, s := range f.ledger.List() {
		sold[s.BookID] += s.Quantity
	}
	for id, qty := range initial {
		assert.Equal(t, qty-sold[id], f.quantity(t, id), "book %s", id)
	}
}

func TestSellAssignsSequentialIDs(t *testing.T) {
	f := newSaleFixture(t, NewMemoryStore(), dune())

	for i := 1; i <= 5; i++ {
		sale, err := f.tx.Sell("B1", 1, "Alice")
		require.NoError(t, err)
		list := f.ledger.List()
		assert.Equal(t, sale, list[len(list)-1])
		assert.Equal(t, "S"+strconv.Itoa(i), sale.SaleID)
	}
}

func TestSalesSurviveBookRemoval(t *testing.T) {
	f := newSaleFixture(t, NewMemoryStore(), dune())
	sale, err := f.tx.Sell("B1", 1, "Alice")
	require.NoError(t, err)

	_, err = f.catalog.Remove("B1")
	require.NoError(t, err)

	_, err = f.catalog.Find("B1")
	require.ErrorIs(t, err, ErrNotFound)
	list := f.ledger.List()
	require.Len(t, list, 1)
	assert.Equal(t, sale, list[0])
}

func TestSellUsesPriceAtSaleTime(t *testing.T) {
	f := newSaleFixture(t, NewMemoryStore(), dune())
	first, err := f.tx.Sell("B1", 1, "Alice")
	require.NoError(t, err)

	raised := price("15")
	_, err = f.catalog.Update("B1", BookUpdate{Price: &raised})
	require.NoError(t, err)
	second, err := f.tx.Sell("B1", 1, "Bob")
	require.NoError(t, err)

	assert.Equal(t, "12.50", first.TotalAmount.StringFixed(2))
	assert.Equal(t, "15.00", second.TotalAmount.StringFixed(2))
}
