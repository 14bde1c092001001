package bookshop

import (
	"fmt"
	"slices"
	"time"
)

// Clock returns the current time. Tests inject a fixed one.
type Clock func() time.Time

// now returns the current time at whole-second precision, the precision of
// the flat-file date format, so stamped records reload unchanged.
func (c Clock) now() time.Time {
	if c == nil {
		return time.Now().Truncate(time.Second)
	}
	return c().Truncate(time.Second)
}

// Catalog owns the live books in insertion order. Every mutation builds the
// next collection, writes it through the store and only then replaces the
// in-memory one, so a failed write changes nothing.
type Catalog struct {
	store Store
	clock Clock
	books []Book
}

// NewCatalog wraps books already loaded from store.
func NewCatalog(store Store, books []Book, clock Clock) *Catalog {
	return &Catalog{store: store, clock: clock, books: slices.Clone(books)}
}

func (c *Catalog) indexOf(id string) int {
	return slices.IndexFunc(c.books, func(b Book) bool { return b.ID == id })
}

func (c *Catalog) commit(next []Book) error {
	if err := c.store.SaveBooks(next); err != nil {
		return persistErr("save", "books", err)
	}
	c.books = next
	return nil
}

// Add rejects a taken id before validating book, stamps DateAdded when
// unset and appends it.
func (c *Catalog) Add(book Book) (Book, error) {
	if c.indexOf(book.ID) >= 0 {
		return Book{}, fmt.Errorf("book %s: %w", book.ID, ErrDuplicateID)
	}
	if err := validateBook(book); err != nil {
		return Book{}, err
	}
	if book.DateAdded.IsZero() {
		book.DateAdded = c.clock.now()
	}
	next := append(slices.Clone(c.books), book)
	if err := c.commit(next); err != nil {
		return Book{}, err
	}
	return book, nil
}

func (c *Catalog) Find(id string) (Book, error) {
	i := c.indexOf(id)
	if i < 0 {
		return Book{}, fmt.Errorf("book %s: %w", id, ErrNotFound)
	}
	return c.books[i], nil
}

// Update applies the non-nil fields of u. The result must still be a valid book.
func (c *Catalog) Update(id string, u BookUpdate) (Book, error) {
	i := c.indexOf(id)
	if i < 0 {
		return Book{}, fmt.Errorf("book %s: %w", id, ErrNotFound)
	}
	book := c.books[i]
	if u.Title != nil {
		book.Title = *u.Title
	}
	if u.Author != nil {
		book.Author = *u.Author
	}
	if u.Category != nil {
		book.Category = *u.Category
	}
	if u.Price != nil {
		book.Price = *u.Price
	}
	if u.Quantity != nil {
		book.Quantity = *u.Quantity
	}
	if err := validateBook(book); err != nil {
		return Book{}, err
	}
	next := slices.Clone(c.books)
	next[i] = book
	if err := c.commit(next); err != nil {
		return Book{}, err
	}
	return book, nil
}

// Remove deletes the book. Sales that reference it are left alone.
func (c *Catalog) Remove(id string) (Book, error) {
	i := c.indexOf(id)
	if i < 0 {
		return Book{}, fmt.Errorf("book %s: %w", id, ErrNotFound)
	}
	removed := c.books[i]
	next := slices.Delete(slices.Clone(c.books), i, i+1)
	if err := c.commit(next); err != nil {
		return Book{}, err
	}
	return removed, nil
}

// DecrementStock subtracts amount from the book's quantity.
func (c *Catalog) DecrementStock(id string, amount int) error {
	next, err := c.decremented(id, amount)
	if err != nil {
		return err
	}
	return c.commit(next)
}

// decremented returns the collection with amount taken off book id without
// touching the catalog. Sales commit the result together with the ledger.
func (c *Catalog) decremented(id string, amount int) ([]Book, error) {
	i := c.indexOf(id)
	if i < 0 {
		return nil, fmt.Errorf("book %s: %w", id, ErrNotFound)
	}
	if amount < 1 {
		return nil, fmt.Errorf("decrement %d: %w", amount, ErrInvalidQuantity)
	}
	if amount > c.books[i].Quantity {
		return nil, &InsufficientStockError{BookID: id, Available: c.books[i].Quantity, Requested: amount}
	}
	next := slices.Clone(c.books)
	next[i].Quantity -= amount
	return next, nil
}

// List returns the books in insertion order.
func (c *Catalog) List() []Book { return slices.Clone(c.books) }
func (c *Catalog) Len() int     { return len(c.books) }
