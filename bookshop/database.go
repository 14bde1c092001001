package bookshop

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
)

// Database is a Store backed by a SQLite file. Collections keep their
// insertion order through the pos column.
type Database struct {
	db *sql.DB
	tx *sql.Tx // set on transactional views only

	insertBookStmt *sql.Stmt
	insertSaleStmt *sql.Stmt
	insertUserStmt *sql.Stmt
}

// NewDatabase opens (or creates) the SQLite database at dbPath, applies schema
// migrations, and prepares common statements. Use ":memory:" for a private
// in-memory database.
func NewDatabase(dbPath string) (*Database, error) {
	// Ensure directory exists so first-run succeeds.
	if dbPath != ":memory:" {
		if dir := filepath.Dir(dbPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create db dir: %w", err)
			}
		}
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=1", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A :memory: database lives as long as its connection.
	db.SetMaxOpenConns(1)

	if err := applyMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	database := &Database{db: db}
	if err := database.prepareStatements(); err != nil {
		db.Close()
		return nil, err
	}
	return database, nil
}

// Close releases prepared statements and closes the DB.
func (d *Database) Close() error {
	if d.tx != nil {
		return nil
	}
	for _, stmt := range []*sql.Stmt{d.insertBookStmt, d.insertSaleStmt, d.insertUserStmt} {
		if stmt != nil {
			stmt.Close()
		}
	}
	return d.db.Close()
}

// ---------------------------------------------------------------------------
// Schema migration
// ---------------------------------------------------------------------------

const schemaVersion = 1

func applyMigrations(db *sql.DB) error {
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return fmt.Errorf("enable WAL: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);`); err != nil {
		return err
	}

	var current int
	_ = db.QueryRow(`SELECT value FROM meta WHERE key='schema_version';`).Scan(&current)
	if current >= schemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS books (
            pos INTEGER NOT NULL,
            id TEXT PRIMARY KEY,
            title TEXT NOT NULL,
            author TEXT NOT NULL,
            category TEXT NOT NULL,
            price TEXT NOT NULL,
            quantity INTEGER NOT NULL CHECK (quantity >= 0),
            date_added TEXT NOT NULL
        );`,
		// book_id has no foreign key: sales outlive their books.
		`CREATE TABLE IF NOT EXISTS sales (
            pos INTEGER NOT NULL,
            sale_id TEXT PRIMARY KEY,
            book_id TEXT NOT NULL,
            book_title TEXT NOT NULL,
            quantity INTEGER NOT NULL CHECK (quantity > 0),
            total_amount TEXT NOT NULL,
            sold_at TEXT NOT NULL,
            customer_name TEXT NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS users (
            pos INTEGER NOT NULL,
            username TEXT PRIMARY KEY,
            secret TEXT NOT NULL,
            role TEXT NOT NULL
        );`,
		`CREATE INDEX IF NOT EXISTS idx_sales_book ON sales(book_id);`,
		`INSERT INTO meta(key,value) VALUES('schema_version',?)
            ON CONFLICT(key) DO UPDATE SET value=excluded.value;`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt, schemaVersion); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}

	return tx.Commit()
}

// ---------------------------------------------------------------------------
// Prepared statements
// ---------------------------------------------------------------------------

func (d *Database) prepareStatements() error {
	var err error
	if d.insertBookStmt, err = d.db.Prepare(`INSERT INTO books(pos,id,title,author,category,price,quantity,date_added) VALUES(?,?,?,?,?,?,?,?)`); err != nil {
		return err
	}
	if d.insertSaleStmt, err = d.db.Prepare(`INSERT INTO sales(pos,sale_id,book_id,book_title,quantity,total_amount,sold_at,customer_name) VALUES(?,?,?,?,?,?,?,?)`); err != nil {
		return err
	}
	if d.insertUserStmt, err = d.db.Prepare(`INSERT INTO users(pos,username,secret,role) VALUES(?,?,?,?)`); err != nil {
		return err
	}
	return nil
}

// ---------------------------------------------------------------------------
// Transactions
// ---------------------------------------------------------------------------

// WithTx runs fn against a view bound to one SQL transaction. The sale's stock
// decrement and ledger append commit or roll back together.
func (d *Database) WithTx(fn func(tx Store) error) error {
	if d.tx != nil {
		return fn(d)
	}
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	view := &Database{
		db:             d.db,
		tx:             tx,
		insertBookStmt: d.insertBookStmt,
		insertSaleStmt: d.insertSaleStmt,
		insertUserStmt: d.insertUserStmt,
	}
	if err := fn(view); err != nil {
		return err
	}
	return tx.Commit()
}

// replace runs fn inside the view's transaction, or a fresh one when d is not
// a transactional view.
func (d *Database) replace(fn func(tx *sql.Tx) error) error {
	if d.tx != nil {
		return fn(d.tx)
	}
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (d *Database) query(q string) (*sql.Rows, error) {
	if d.tx != nil {
		return d.tx.Query(q)
	}
	return d.db.Query(q)
}

// ---------------------------------------------------------------------------
// Books
// ---------------------------------------------------------------------------

func (d *Database) LoadBooks() ([]Book, error) {
	rows, err := d.query(`SELECT id,title,author,category,price,quantity,date_added FROM books ORDER BY pos`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	books := []Book{}
	for rows.Next() {
		var (
			b            Book
			price, added string
		)
		if err := rows.Scan(&b.ID, &b.Title, &b.Author, &b.Category, &price, &b.Quantity, &added); err != nil {
			return nil, err
		}
		if b.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("book %s: price: %w", b.ID, err)
		}
		if b.DateAdded, err = time.Parse(time.RFC3339Nano, added); err != nil {
			return nil, fmt.Errorf("book %s: date added: %w", b.ID, err)
		}
		books = append(books, b)
	}
	return books, rows.Err()
}

// SaveBooks replaces the books table with books.
func (d *Database) SaveBooks(books []Book) error {
	return d.replace(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM books`); err != nil {
			return err
		}
		stmt := tx.Stmt(d.insertBookStmt)
		for i, b := range books {
			if _, err := stmt.Exec(i, b.ID, b.Title, b.Author, b.Category,
				b.Price.String(), b.Quantity, b.DateAdded.UTC().Format(time.RFC3339Nano)); err != nil {
				return fmt.Errorf("insert book %s: %w", b.ID, err)
			}
		}
		return nil
	})
}

// ---------------------------------------------------------------------------
// Sales
// ---------------------------------------------------------------------------

func (d *Database) LoadSales() ([]Sale, error) {
	rows, err := d.query(`SELECT sale_id,book_id,book_title,quantity,total_amount,sold_at,customer_name FROM sales ORDER BY pos`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sales := []Sale{}
	for rows.Next() {
		var (
			s           Sale
			total, date string
		)
		if err := rows.Scan(&s.SaleID, &s.BookID, &s.BookTitle, &s.Quantity, &total, &date, &s.CustomerName); err != nil {
			return nil, err
		}
		if s.TotalAmount, err = decimal.NewFromString(total); err != nil {
			return nil, fmt.Errorf("sale %s: total: %w", s.SaleID, err)
		}
		if s.Date, err = time.Parse(time.RFC3339Nano, date); err != nil {
			return nil, fmt.Errorf("sale %s: date: %w", s.SaleID, err)
		}
		sales = append(sales, s)
	}
	return sales, rows.Err()
}

// SaveSales replaces the sales table with sales.
func (d *Database) SaveSales(sales []Sale) error {
	return d.replace(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM sales`); err != nil {
			return err
		}
		stmt := tx.Stmt(d.insertSaleStmt)
		for i, s := range sales {
			if _, err := stmt.Exec(i, s.SaleID, s.BookID, s.BookTitle, s.Quantity,
				s.TotalAmount.String(), s.Date.UTC().Format(time.RFC3339Nano), s.CustomerName); err != nil {
				return fmt.Errorf("insert sale %s: %w", s.SaleID, err)
			}
		}
		return nil
	})
}

// ---------------------------------------------------------------------------
// Users
// ---------------------------------------------------------------------------

func (d *Database) LoadUsers() ([]User, error) {
	rows, err := d.query(`SELECT username,secret,role FROM users ORDER BY pos`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []User{}
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.Username, &u.Secret, &u.Role); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// SaveUsers replaces the users table with users.
func (d *Database) SaveUsers(users []User) error {
	return d.replace(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM users`); err != nil {
			return err
		}
		stmt := tx.Stmt(d.insertUserStmt)
		for i, u := range users {
			if _, err := stmt.Exec(i, u.Username, u.Secret, string(u.Role)); err != nil {
				return fmt.Errorf("insert user %s: %w", u.Username, err)
			}
		}
		return nil
	})
}
