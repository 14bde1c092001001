package bookshop

import (
	"time"

	"github.com/shopspring/decimal"
)

// Book is one catalog entry. Quantity is stored stock on hand; it is never
// re-derived from the sales ledger.
type Book struct {
	ID        string          `json:"id" validate:"required,singleline"`
	Title     string          `json:"title" validate:"required,singleline"`
	Author    string          `json:"author" validate:"required,singleline"`
	Category  string          `json:"category" validate:"required,singleline"`
	Price     decimal.Decimal `json:"price" validate:"gt=0"`
	Quantity  int             `json:"quantity" validate:"gte=0"`
	DateAdded time.Time       `json:"date_added"`
}

// BookUpdate carries the fields to change on a book. Nil fields are left as they are.
type BookUpdate struct {
	Title    *string
	Author   *string
	Category *string
	Price    *decimal.Decimal
	Quantity *int
}

// Empty reports whether the update changes nothing.
func (u BookUpdate) Empty() bool {
	return u.Title == nil && u.Author == nil && u.Category == nil && u.Price == nil && u.Quantity == nil
}

// Sale is an immutable ledger entry. BookTitle and the unit price folded into
// TotalAmount are snapshots taken at sale time; BookID may dangle once the
// book is removed from the catalog.
type Sale struct {
	SaleID       string          `json:"sale_id"`
	BookID       string          `json:"book_id"`
	BookTitle    string          `json:"book_title"`
	Quantity     int             `json:"quantity"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	Date         time.Time       `json:"date"`
	CustomerName string          `json:"customer_name" validate:"required,singleline"`
}

// UnitPrice returns the per-copy price the sale was made at.
func (s Sale) UnitPrice() decimal.Decimal {
	if s.Quantity == 0 {
		return decimal.Zero
	}
	return s.TotalAmount.Div(decimal.NewFromInt(int64(s.Quantity)))
}

// Role gates which operations an identity may invoke.
type Role string

const (
	RoleNone    Role = ""
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleStaff   Role = "staff"
)

// User is a login identity. Secrets are kept in plain text to stay
// compatible with the users file.
type User struct {
	Username string `json:"username" validate:"required,singleline"`
	Secret   string `json:"-" validate:"singleline"`
	Role     Role   `json:"role" validate:"required,singleline"`
}

// Snapshot is the full persisted state of the shop.
type Snapshot struct {
	Books []Book
	Sales []Sale
	Users []User
}
