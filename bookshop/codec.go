package bookshop

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Record layout of the flat-file stores. One record per line, fields joined
// by "|", the last field taking the rest of the line:
//
//	books: id|title|author|category|price|quantity|dateAdded
//	sales: saleId|bookId|bookTitle|quantity|totalAmount|date|customerName
//	users: username|secret|role
const (
	fieldSep   = "|"
	bookFields = 7
	saleFields = 7
	userFields = 3
	dateLayout = time.ANSIC // ctime(3) output, e.g. "Mon Jan  2 15:04:05 2006"
)

func formatDate(t time.Time) string {
	return t.Local().Format(dateLayout)
}

func parseDate(s string) (time.Time, error) {
	return time.ParseInLocation(dateLayout, strings.TrimSpace(s), time.Local)
}

// EncodeBook renders b as one books-file line without the trailing newline.
func EncodeBook(b Book) string {
	return strings.Join([]string{
		b.ID, b.Title, b.Author, b.Category,
		b.Price.String(),
		strconv.Itoa(b.Quantity),
		formatDate(b.DateAdded),
	}, fieldSep)
}

// DecodeBook parses one books-file line.
func DecodeBook(line string) (Book, error) {
	f := strings.SplitN(line, fieldSep, bookFields)
	if len(f) != bookFields {
		return Book{}, fmt.Errorf("book record: want %d fields, got %d", bookFields, len(f))
	}
	price, err := decimal.NewFromString(strings.TrimSpace(f[4]))
	if err != nil {
		return Book{}, fmt.Errorf("book %s: price %q: %w", f[0], f[4], err)
	}
	qty, err := strconv.Atoi(strings.TrimSpace(f[5]))
	if err != nil {
		return Book{}, fmt.Errorf("book %s: quantity %q: %w", f[0], f[5], err)
	}
	added, err := parseDate(f[6])
	if err != nil {
		return Book{}, fmt.Errorf("book %s: date added %q: %w", f[0], f[6], err)
	}
	return Book{
		ID:        f[0],
		Title:     f[1],
		Author:    f[2],
		Category:  f[3],
		Price:     price,
		Quantity:  qty,
		DateAdded: added,
	}, nil
}

// EncodeSale renders s as one sales-file line without the trailing newline.
func EncodeSale(s Sale) string {
	return strings.Join([]string{
		s.SaleID, s.BookID, s.BookTitle,
		strconv.Itoa(s.Quantity),
		s.TotalAmount.String(),
		formatDate(s.Date),
		s.CustomerName,
	}, fieldSep)
}

// DecodeSale parses one sales-file line.
func DecodeSale(line string) (Sale, error) {
	f := strings.SplitN(line, fieldSep, saleFields)
	if len(f) != saleFields {
		return Sale{}, fmt.Errorf("sale record: want %d fields, got %d", saleFields, len(f))
	}
	qty, err := strconv.Atoi(strings.TrimSpace(f[3]))
	if err != nil {
		return Sale{}, fmt.Errorf("sale %s: quantity %q: %w", f[0], f[3], err)
	}
	total, err := decimal.NewFromString(strings.TrimSpace(f[4]))
	if err != nil {
		return Sale{}, fmt.Errorf("sale %s: total %q: %w", f[0], f[4], err)
	}
	date, err := parseDate(f[5])
	if err != nil {
		return Sale{}, fmt.Errorf("sale %s: date %q: %w", f[0], f[5], err)
	}
	return Sale{
		SaleID:       f[0],
		BookID:       f[1],
		BookTitle:    f[2],
		Quantity:     qty,
		TotalAmount:  total,
		Date:         date,
		CustomerName: f[6],
	}, nil
}

// EncodeUser renders u as one users-file line without the trailing newline.
func EncodeUser(u User) string {
	return strings.Join([]string{u.Username, u.Secret, string(u.Role)}, fieldSep)
}

// DecodeUser parses one users-file line.
func DecodeUser(line string) (User, error) {
	f := strings.SplitN(line, fieldSep, userFields)
	if len(f) != userFields {
		return User{}, fmt.Errorf("user record: want %d fields, got %d", userFields, len(f))
	}
	return User{Username: f[0], Secret: f[1], Role: Role(f[2])}, nil
}
