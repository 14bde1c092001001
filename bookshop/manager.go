package bookshop

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Company is the shop profile shown on the company details screen.
type Company struct {
	Name        string
	Established string
	Address     string
	Phone       string
	Email       string
	Website     string
	About       string
	Mission     string
}

func DefaultCompany() Company {
	return Company{
		Name:        "GENIUS BOOKS",
		Established: "2020",
		Address:     "123 Main Street, City Center",
		Phone:       "+1 (555) 123-4567",
		Email:       "info@geniusbooks.com",
		Website:     "www.geniusbooks.com",
		About: "GENIUS BOOKS is a leading bookshop in the city, providing a wide variety of books " +
			"across all genres. We pride ourselves on excellent customer service and competitive prices.",
		Mission: "To promote reading culture and provide easy access to quality books for everyone in our community.",
	}
}

// CompanyInfo is the profile plus live statistics.
type CompanyInfo struct {
	Company
	Books int
	Sales int
	Users int
}

// SalesReport is the sales history with its derived totals.
type SalesReport struct {
	Sales   []Sale
	Count   int
	Revenue decimal.Decimal
}

// Session is an authenticated identity. A nil *Session is anonymous.
type Session struct {
	ID       uuid.UUID
	Username string
	Role     Role
	Started  time.Time
}

func (s *Session) role() Role {
	if s == nil {
		return RoleNone
	}
	return s.Role
}

func (s *Session) logCtx(l zerolog.Logger) zerolog.Logger {
	if s == nil {
		return l.With().Str("user", "anonymous").Logger()
	}
	return l.With().Str("session", s.ID.String()).Str("user", s.Username).Str("role", string(s.Role)).Logger()
}

// Options configures Open. Zero values select the defaults.
type Options struct {
	Logger  zerolog.Logger
	SaleIDs SaleIDGenerator
	Clock   Clock
	Company *Company
	Policy  Policy
}

// Shop is the façade the presentation layer talks to. Every call is
// authorized against the session's role before it reaches the catalog,
// the ledger or the sale transaction.
type Shop struct {
	store      Store
	log        zerolog.Logger
	clock      Clock
	company    Company
	access     *AccessController
	identities *IdentityStore
	catalog    *Catalog
	ledger     *Ledger
	sales      *SaleTransaction
}

// Open installs the bootstrap accounts, merges the persisted ones and
// hydrates the catalog and the ledger from store. Any load failure aborts.
func Open(store Store, opts Options) (*Shop, error) {
	log := opts.Logger
	policy := opts.Policy
	if policy == nil {
		policy = DefaultPolicy()
	}
	company := DefaultCompany()
	if opts.Company != nil {
		company = *opts.Company
	}

	identities := NewIdentityStore(store)
	identities.Bootstrap()
	if err := identities.Load(); err != nil {
		return nil, err
	}
	books, err := store.LoadBooks()
	if err != nil {
		return nil, persistErr("load", "books", err)
	}
	sales, err := store.LoadSales()
	if err != nil {
		return nil, persistErr("load", "sales", err)
	}

	catalog := NewCatalog(store, books, opts.Clock)
	ledger := NewLedger(store, sales, opts.SaleIDs, opts.Clock)
	shop := &Shop{
		store:      store,
		log:        log,
		clock:      opts.Clock,
		company:    company,
		access:     NewAccessController(policy),
		identities: identities,
		catalog:    catalog,
		ledger:     ledger,
		sales:      NewSaleTransaction(store, catalog, ledger),
	}
	log.Info().
		Int("books", catalog.Len()).
		Int("sales", ledger.Len()).
		Int("users", identities.Len()).
		Msg("shop data loaded")
	return shop, nil
}

// Close closes the underlying store.
func (s *Shop) Close() error { return s.store.Close() }

// Allowed reports whether sess may invoke op; used to build menus.
func (s *Shop) Allowed(sess *Session, op Operation) bool {
	return s.access.Allowed(sess.role(), op)
}

// Authorize reports and logs a denial of op for sess before any input is
// collected for it.
func (s *Shop) Authorize(sess *Session, op Operation) error {
	return s.authorize(sess, op)
}

// Company returns the configured shop profile without statistics.
func (s *Shop) Company() Company { return s.company }

func (s *Shop) authorize(sess *Session, op Operation) error {
	if err := s.access.Authorize(sess.role(), op); err != nil {
		l := sess.logCtx(s.log)
		l.Warn().Str("op", string(op)).Msg("operation denied")
		return err
	}
	return nil
}

// logFailure records err at warn for client errors and error otherwise.
func (s *Shop) logFailure(sess *Session, op Operation, err error) {
	l := sess.logCtx(s.log)
	ev := l.Warn()
	if errors.Is(err, ErrPersistence) {
		ev = l.Error()
	}
	ev.Err(err).Str("op", string(op)).Msg("operation failed")
}

// ---------------------------------------------------------------------------
// Sessions
// ---------------------------------------------------------------------------

// Login authenticates the pair and opens a session.
func (s *Shop) Login(username, secret string) (*Session, error) {
	if err := s.authorize(nil, OpLogin); err != nil {
		return nil, err
	}
	role, err := s.identities.Authenticate(username, secret)
	if err == nil && role == RoleNone {
		err = ErrAuthFailure
	}
	if err != nil {
		s.log.Warn().Str("user", username).Msg("login failed")
		return nil, err
	}
	sess := &Session{ID: uuid.New(), Username: username, Role: role, Started: s.clock.now()}
	l := sess.logCtx(s.log)
	l.Info().Msg("logged in")
	return sess, nil
}

func (s *Shop) Logout(sess *Session) error {
	if err := s.authorize(sess, OpLogout); err != nil {
		return err
	}
	l := sess.logCtx(s.log)
	l.Info().Dur("duration", s.clock.now().Sub(sess.Started)).Msg("logged out")
	return nil
}

// ---------------------------------------------------------------------------
// Catalog
// ---------------------------------------------------------------------------

func (s *Shop) ListBooks(sess *Session) ([]Book, error) {
	if err := s.authorize(sess, OpViewBooks); err != nil {
		return nil, err
	}
	return s.catalog.List(), nil
}

func (s *Shop) FindBook(sess *Session, id string) (Book, error) {
	if err := s.authorize(sess, OpViewBooks); err != nil {
		return Book{}, err
	}
	return s.catalog.Find(id)
}

func (s *Shop) AddBook(sess *Session, book Book) (Book, error) {
	if err := s.authorize(sess, OpAddBook); err != nil {
		return Book{}, err
	}
	added, err := s.catalog.Add(book)
	if err != nil {
		s.logFailure(sess, OpAddBook, err)
		return Book{}, err
	}
	l := sess.logCtx(s.log)
	l.Info().Str("book", added.ID).Str("title", added.Title).Int("quantity", added.Quantity).Msg("book added")
	return added, nil
}

func (s *Shop) UpdateBook(sess *Session, id string, u BookUpdate) (Book, error) {
	if err := s.authorize(sess, OpUpdateBook); err != nil {
		return Book{}, err
	}
	updated, err := s.catalog.Update(id, u)
	if err != nil {
		s.logFailure(sess, OpUpdateBook, err)
		return Book{}, err
	}
	l := sess.logCtx(s.log)
	l.Info().Str("book", id).Msg("book updated")
	return updated, nil
}

func (s *Shop) DeleteBook(sess *Session, id string) (Book, error) {
	if err := s.authorize(sess, OpDeleteBook); err != nil {
		return Book{}, err
	}
	removed, err := s.catalog.Remove(id)
	if err != nil {
		s.logFailure(sess, OpDeleteBook, err)
		return Book{}, err
	}
	l := sess.logCtx(s.log)
	l.Info().Str("book", id).Msg("book deleted")
	return removed, nil
}

// ---------------------------------------------------------------------------
// Sales
// ---------------------------------------------------------------------------

// MakeSale sells quantity copies of bookID and returns the receipt data.
func (s *Shop) MakeSale(sess *Session, bookID string, quantity int, customer string) (Sale, error) {
	if err := s.authorize(sess, OpMakeSale); err != nil {
		return Sale{}, err
	}
	sale, err := s.sales.Sell(bookID, quantity, customer)
	if err != nil {
		s.logFailure(sess, OpMakeSale, err)
		return Sale{}, err
	}
	l := sess.logCtx(s.log)
	l.Info().
		Str("sale", sale.SaleID).
		Str("book", sale.BookID).
		Int("quantity", sale.Quantity).
		Str("total", sale.TotalAmount.StringFixed(2)).
		Msg("sale recorded")
	return sale, nil
}

func (s *Shop) ListSales(sess *Session) (SalesReport, error) {
	if err := s.authorize(sess, OpViewSales); err != nil {
		return SalesReport{}, err
	}
	return SalesReport{
		Sales:   s.ledger.List(),
		Count:   s.ledger.Len(),
		Revenue: s.ledger.TotalRevenue(),
	}, nil
}

func (s *Shop) FindSale(sess *Session, saleID string) (Sale, error) {
	if err := s.authorize(sess, OpViewSales); err != nil {
		return Sale{}, err
	}
	return s.ledger.Find(saleID)
}

// ExportSales returns the sales report for file export.
func (s *Shop) ExportSales(sess *Session) (SalesReport, error) {
	if err := s.authorize(sess, OpExport); err != nil {
		return SalesReport{}, err
	}
	l := sess.logCtx(s.log)
	l.Info().Int("sales", s.ledger.Len()).Msg("sales exported")
	return SalesReport{
		Sales:   s.ledger.List(),
		Count:   s.ledger.Len(),
		Revenue: s.ledger.TotalRevenue(),
	}, nil
}

// ---------------------------------------------------------------------------
// Company & shutdown
// ---------------------------------------------------------------------------

func (s *Shop) CompanyInfo(sess *Session) (CompanyInfo, error) {
	if err := s.authorize(sess, OpViewCompany); err != nil {
		return CompanyInfo{}, err
	}
	return CompanyInfo{
		Company: s.company,
		Books:   s.catalog.Len(),
		Sales:   s.ledger.Len(),
		Users:   s.identities.Len(),
	}, nil
}

// Exit writes every collection back to the store in one transaction.
func (s *Shop) Exit(sess *Session) error {
	if err := s.authorize(sess, OpExit); err != nil {
		return err
	}
	snap := &Snapshot{
		Books: s.catalog.List(),
		Sales: s.ledger.List(),
		Users: s.identities.Users(),
	}
	if err := SaveSnapshot(s.store, snap); err != nil {
		s.logFailure(sess, OpExit, err)
		return fmt.Errorf("save on exit: %w", err)
	}
	l := sess.logCtx(s.log)
	l.Info().Msg("data saved, exiting")
	return nil
}
