package bookshop

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// SaleTransaction couples the catalog and the ledger: the stock decrement and
// the ledger entry are written in one store transaction and applied to memory
// only after it commits.
type SaleTransaction struct {
	store   Store
	catalog *Catalog
	ledger  *Ledger
}

func NewSaleTransaction(store Store, catalog *Catalog, ledger *Ledger) *SaleTransaction {
	return &SaleTransaction{store: store, catalog: catalog, ledger: ledger}
}

// Sell sells quantity copies of bookID to customer and returns the recorded sale.
func (t *SaleTransaction) Sell(bookID string, quantity int, customer string) (Sale, error) {
	book, err := t.catalog.Find(bookID)
	if err != nil {
		return Sale{}, err
	}
	if book.Quantity == 0 {
		return Sale{}, fmt.Errorf("book %s: %w", bookID, ErrOutOfStock)
	}
	if quantity > book.Quantity {
		return Sale{}, &InsufficientStockError{BookID: bookID, Available: book.Quantity, Requested: quantity}
	}
	if quantity < 1 {
		return Sale{}, fmt.Errorf("sale quantity %d: %w", quantity, ErrInvalidQuantity)
	}
	if err := validateCustomer(customer); err != nil {
		return Sale{}, err
	}

	total := book.Price.Mul(decimal.NewFromInt(int64(quantity)))

	nextBooks, err := t.catalog.decremented(bookID, quantity)
	if err != nil {
		return Sale{}, err
	}
	nextSales, sale, err := t.ledger.appended(Sale{
		BookID:       book.ID,
		BookTitle:    book.Title,
		Quantity:     quantity,
		TotalAmount:  total,
		CustomerName: customer,
	})
	if err != nil {
		return Sale{}, err
	}

	err = t.store.WithTx(func(tx Store) error {
		if err := tx.SaveBooks(nextBooks); err != nil {
			return persistErr("save", "books", err)
		}
		if err := tx.SaveSales(nextSales); err != nil {
			return persistErr("save", "sales", err)
		}
		return nil
	})
	if err != nil {
		return Sale{}, persistErr("commit", "sale", err)
	}

	t.catalog.books = nextBooks
	t.ledger.sales = nextSales
	return sale, nil
}
