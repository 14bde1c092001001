package bookshop

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SaleIDGenerator assigns the id of the next sale given the ledger so far.
type SaleIDGenerator interface {
	Next(existing []Sale) string
}

// SequentialIDs numbers sales "S1", "S2", ... It continues after the highest
// numeric suffix in the ledger, so ids are never reused even when the ledger
// has gaps. On an unbroken ledger the Nth sale gets "S"+N.
type SequentialIDs struct{}

func (SequentialIDs) Next(existing []Sale) string {
	highest := 0
	for _, s := range existing {
		rest, ok := strings.CutPrefix(s.SaleID, "S")
		if !ok {
			continue
		}
		if n, err := strconv.Atoi(rest); err == nil && n > highest {
			highest = n
		}
	}
	return "S" + strconv.Itoa(highest+1)
}

// UUIDIDs assigns globally unique ids of the form "S-<uuid>".
type UUIDIDs struct{}

func (UUIDIDs) Next([]Sale) string {
	return "S-" + uuid.NewString()
}

// Ledger is the append-only record of completed sales.
type Ledger struct {
	store Store
	clock Clock
	ids   SaleIDGenerator
	sales []Sale
}

// NewLedger wraps sales already loaded from store. A nil ids uses SequentialIDs.
func NewLedger(store Store, sales []Sale, ids SaleIDGenerator, clock Clock) *Ledger {
	if ids == nil {
		ids = SequentialIDs{}
	}
	return &Ledger{store: store, clock: clock, ids: ids, sales: slices.Clone(sales)}
}

// Append assigns the sale its id and persists the grown ledger.
func (l *Ledger) Append(sale Sale) (Sale, error) {
	next, sale, err := l.appended(sale)
	if err != nil {
		return Sale{}, err
	}
	if err := l.store.SaveSales(next); err != nil {
		return Sale{}, persistErr("save", "sales", err)
	}
	l.sales = next
	return sale, nil
}

// appended returns the ledger with sale added, without touching l.
func (l *Ledger) appended(sale Sale) ([]Sale, Sale, error) {
	if sale.Quantity < 1 {
		return nil, Sale{}, fmt.Errorf("sale quantity %d: %w", sale.Quantity, ErrInvalidQuantity)
	}
	if err := validateCustomer(sale.CustomerName); err != nil {
		return nil, Sale{}, err
	}
	sale.SaleID = l.ids.Next(l.sales)
	if sale.Date.IsZero() {
		sale.Date = l.clock.now()
	}
	return append(slices.Clone(l.sales), sale), sale, nil
}

// Find returns the sale with the given id.
func (l *Ledger) Find(saleID string) (Sale, error) {
	i := slices.IndexFunc(l.sales, func(s Sale) bool { return s.SaleID == saleID })
	if i < 0 {
		return Sale{}, fmt.Errorf("sale %s: %w", saleID, ErrNotFound)
	}
	return l.sales[i], nil
}

// List returns the sales in chronological order.
func (l *Ledger) List() []Sale { return slices.Clone(l.sales) }
func (l *Ledger) Len() int     { return len(l.sales) }

// TotalRevenue sums the totals of every sale.
func (l *Ledger) TotalRevenue() decimal.Decimal {
	total := decimal.Zero
	for _, s := range l.sales {
		total = total.Add(s.TotalAmount)
	}
	return total
}
