package bookshop

import (
	"fmt"
	"path/filepath"
)

// Store is the persistence adapter the shop components write through.
//
// Writes replace a whole collection; there is no incremental append even for
// the sales ledger. Loads of a collection that was never written return an
// empty slice, not an error.
//
// Implementations:
//   - FileStore: pipe-delimited text files (default)
//   - Database: SQLite
//   - MemoryStore: in-process, for tests
type Store interface {
	LoadBooks() ([]Book, error)
	LoadSales() ([]Sale, error)
	LoadUsers() ([]User, error)

	SaveBooks(books []Book) error
	SaveSales(sales []Sale) error
	SaveUsers(users []User) error

	// WithTx runs fn against a transactional view of the store. Writes made
	// through the view become durable together when fn returns nil and are
	// discarded when it returns an error.
	WithTx(fn func(tx Store) error) error

	Close() error
}

// LoadSnapshot reads every collection from s.
func LoadSnapshot(s Store) (*Snapshot, error) {
	books, err := s.LoadBooks()
	if err != nil {
		return nil, persistErr("load", "books", err)
	}
	sales, err := s.LoadSales()
	if err != nil {
		return nil, persistErr("load", "sales", err)
	}
	users, err := s.LoadUsers()
	if err != nil {
		return nil, persistErr("load", "users", err)
	}
	return &Snapshot{Books: books, Sales: sales, Users: users}, nil
}

// SaveSnapshot writes every collection of snap to s in one transaction.
func SaveSnapshot(s Store, snap *Snapshot) error {
	return s.WithTx(func(tx Store) error {
		if err := tx.SaveBooks(snap.Books); err != nil {
			return persistErr("save", "books", err)
		}
		if err := tx.SaveSales(snap.Sales); err != nil {
			return persistErr("save", "sales", err)
		}
		if err := tx.SaveUsers(snap.Users); err != nil {
			return persistErr("save", "users", err)
		}
		return nil
	})
}

// Store kinds accepted by OpenStore.
const (
	StoreFile   = "file"
	StoreSQLite = "sqlite"
	StoreMemory = "memory"
)

// DefaultSQLiteFile is the database file name used when no path is configured.
const DefaultSQLiteFile = "bookshop.db"

// StoreOptions selects and locates the persistence adapter.
type StoreOptions struct {
	Kind       string
	Dir        string
	BooksFile  string
	SalesFile  string
	UsersFile  string
	SQLitePath string
}

// OpenStore builds the Store named by opts.Kind. An empty kind is a FileStore.
func OpenStore(opts StoreOptions) (Store, error) {
	switch opts.Kind {
	case "", StoreFile:
		return NewFileStore(FileStoreOptions{
			Dir:       opts.Dir,
			BooksFile: opts.BooksFile,
			SalesFile: opts.SalesFile,
			UsersFile: opts.UsersFile,
		})
	case StoreSQLite:
		path := opts.SQLitePath
		if path == "" {
			path = DefaultSQLiteFile
		}
		if opts.Dir != "" && path != ":memory:" && !filepath.IsAbs(path) {
			path = filepath.Join(opts.Dir, path)
		}
		return NewDatabase(path)
	case StoreMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store kind %q (want file, sqlite or memory)", opts.Kind)
	}
}
