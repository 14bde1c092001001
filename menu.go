package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"bookshop-management/bookshop"
	"bookshop-management/export"
)

var minPrice = decimal.RequireFromString("0.01")

// app is the interactive menu. It holds the current session; a nil session
// is the logged-out menu.
type app struct {
	shop        *bookshop.Shop
	in          *prompter
	out         io.Writer
	receiptsDir string
	session     *bookshop.Session
}

func newApp(shop *bookshop.Shop, in io.Reader, out io.Writer, receiptsDir string) *app {
	return &app{
		shop:        shop,
		in:          newPrompter(in, out),
		out:         out,
		receiptsDir: receiptsDir,
	}
}

func (a *app) printf(format string, args ...any) { fmt.Fprintf(a.out, format, args...) }
func (a *app) println(args ...any)               { fmt.Fprintln(a.out, args...) }

func (a *app) heading(title string, width int) {
	a.printf("\n%s\n%s\n%s\n", strings.Repeat("=", width), center(title, width), strings.Repeat("=", width))
}

// run shows the menu until the user exits or the input ends. Both paths save
// every collection before returning.
func (a *app) run() error {
	a.heading("WELCOME TO GENIUS BOOKS MANAGEMENT SYSTEM", 60)
	a.println("✓ System loaded successfully!")

	for {
		exit, err := a.step()
		if errors.Is(err, errInputClosed) {
			return a.exit()
		}
		if err != nil {
			return err
		}
		if exit {
			return a.exit()
		}
	}
}

// step shows the menu for the current session and handles one choice.
func (a *app) step() (exit bool, err error) {
	a.heading("GENIUS BOOKS MANAGEMENT SYSTEM", 60)
	if a.session == nil {
		a.println("Please login to access the system")
		a.println(strings.Repeat("-", 60))
		a.println("1. Login")
		a.println("2. View Company Details")
		a.println("3. Exit")
		a.println(strings.Repeat("=", 60))

		choice, err := a.in.intRange("Enter your choice (1-3): ", 1, 3)
		if err != nil {
			return false, err
		}
		switch choice {
		case 1:
			return false, a.handleLogin()
		case 2:
			return false, a.handleCompany()
		}
		return true, nil
	}

	a.printf("Logged in as: %s (%s)\n", a.session.Username, a.session.Role)
	a.println(strings.Repeat("-", 60))
	a.println("1. View Available Books")
	a.println("2. Add New Book")
	a.println("3. Update Book Details")
	a.println("4. Delete Book")
	a.println("5. Make Sale")
	a.println("6. View Sales History")
	a.println("7. View Company Details")
	a.println("8. Logout")
	a.println("9. Exit")
	a.println(strings.Repeat("=", 60))

	choice, err := a.in.intRange("Enter your choice (1-9): ", 1, 9)
	if err != nil {
		return false, err
	}
	switch choice {
	case 1:
		err = a.handleViewBooks()
	case 2:
		err = a.handleAddBook()
	case 3:
		err = a.handleUpdateBook()
	case 4:
		err = a.handleDeleteBook()
	case 5:
		err = a.handleMakeSale()
	case 6:
		err = a.handleViewSales()
	case 7:
		err = a.handleCompany()
	case 8:
		err = a.handleLogout()
	case 9:
		return true, nil
	}
	return false, err
}

// fail renders a core error. Only input errors propagate to the loop.
func (a *app) fail(err error) error {
	if errors.Is(err, errInputClosed) {
		return err
	}
	var (
		denied *bookshop.DeniedError
		short  *bookshop.InsufficientStockError
	)
	switch {
	case errors.As(err, &denied):
		a.printf("\n✗ Access denied! %s may not %s.\n", denied.Role, denied.Operation)
	case errors.Is(err, bookshop.ErrNotFound):
		a.println("\n✗ Book not found!")
	case errors.Is(err, bookshop.ErrDuplicateID):
		a.println("\n✗ Book ID already exists! Please use a different ID.")
	case errors.Is(err, bookshop.ErrOutOfStock):
		a.println("✗ Book is out of stock!")
	case errors.As(err, &short):
		a.printf("\n✗ Only %d copies in stock!\n", short.Available)
	case errors.Is(err, bookshop.ErrAuthFailure):
		a.println("\n✗ Invalid username or password!")
	default:
		a.printf("\n✗ %v\n", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Session
// ---------------------------------------------------------------------------

func (a *app) handleLogin() error {
	a.heading("GENIUS BOOKS - LOGIN SYSTEM", 60)
	username, err := a.in.line("Enter Username: ")
	if err != nil {
		return err
	}
	secret, err := a.in.password("Enter Password: ")
	if err != nil {
		return err
	}
	sess, err := a.shop.Login(username, secret)
	if err != nil {
		return a.fail(err)
	}
	a.session = sess
	a.printf("\n✓ Login successful! Welcome, %s!\n", sess.Username)
	a.printf("Role: %s\n", sess.Role)
	return nil
}

func (a *app) handleLogout() error {
	if err := a.shop.Logout(a.session); err != nil {
		return a.fail(err)
	}
	a.session = nil
	a.println("\n✓ Logged out successfully!")
	return nil
}

func (a *app) exit() error {
	if err := a.shop.Exit(a.session); err != nil {
		a.printf("\n✗ %v\n", err)
		return err
	}
	a.println("\n✓ Thank you for using GENIUS BOOKS Management System!")
	return nil
}

// ---------------------------------------------------------------------------
// Books
// ---------------------------------------------------------------------------

func (a *app) handleViewBooks() error {
	books, err := a.shop.ListBooks(a.session)
	if err != nil {
		return a.fail(err)
	}
	a.heading("AVAILABLE BOOKS", 80)
	if len(books) == 0 {
		a.println("\nNo books available in the system.")
		return nil
	}
	a.printf("%-8s%-25s%-20s%-15s%-10s%-8s\n", "ID", "Title", "Author", "Category", "Price", "Qty")
	a.println(strings.Repeat("-", 80))
	for _, b := range books {
		a.printf("%-8s%-25s%-20s%-15s%-10s%-8d\n",
			b.ID, truncate(b.Title, 24), truncate(b.Author, 19), truncate(b.Category, 14),
			"$"+b.Price.StringFixed(2), b.Quantity)
	}
	a.printf("\nTotal Books: %d\n", len(books))
	return nil
}

func (a *app) handleAddBook() error {
	if err := a.shop.Authorize(a.session, bookshop.OpAddBook); err != nil {
		return a.fail(err)
	}
	a.heading("ADD NEW BOOK", 60)

	id, err := a.in.text("Enter Book ID: ")
	if err != nil {
		return err
	}
	if _, err := a.shop.FindBook(a.session, id); err == nil {
		return a.fail(bookshop.ErrDuplicateID)
	}

	var book bookshop.Book
	book.ID = id
	if book.Title, err = a.in.text("Enter Book Title: "); err != nil {
		return err
	}
	if book.Author, err = a.in.text("Enter Author Name: "); err != nil {
		return err
	}
	if book.Category, err = a.in.text("Enter Category: "); err != nil {
		return err
	}
	if book.Price, err = a.in.decimalMin("Enter Price: $", minPrice); err != nil {
		return err
	}
	if book.Quantity, err = a.in.intMin("Enter Quantity: ", 0); err != nil {
		return err
	}

	if _, err := a.shop.AddBook(a.session, book); err != nil {
		return a.fail(err)
	}
	a.println("\n✓ Book added successfully!")
	return nil
}

func (a *app) handleUpdateBook() error {
	if err := a.shop.Authorize(a.session, bookshop.OpUpdateBook); err != nil {
		return a.fail(err)
	}
	a.heading("UPDATE BOOK", 60)

	id, err := a.in.text("Enter Book ID to update: ")
	if err != nil {
		return err
	}
	book, err := a.shop.FindBook(a.session, id)
	if err != nil {
		return a.fail(err)
	}

	a.println("\nCurrent Book Details:")
	a.printf("ID: %s\nTitle: %s\nAuthor: %s\nCategory: %s\nPrice: $%s\nQuantity: %d\n\n",
		book.ID, book.Title, book.Author, book.Category, book.Price.StringFixed(2), book.Quantity)

	choice, err := a.in.intRange("What would you like to update?\n1. Title\n2. Author\n3. Category\n4. Price\n5. Quantity\n6. All Details\nEnter choice: ", 1, 6)
	if err != nil {
		return err
	}

	var u bookshop.BookUpdate
	all := choice == 6
	if all || choice == 1 {
		s, err := a.in.text("Enter new title: ")
		if err != nil {
			return err
		}
		u.Title = &s
	}
	if all || choice == 2 {
		s, err := a.in.text("Enter new author: ")
		if err != nil {
			return err
		}
		u.Author = &s
	}
	if all || choice == 3 {
		s, err := a.in.text("Enter new category: ")
		if err != nil {
			return err
		}
		u.Category = &s
	}
	if all || choice == 4 {
		d, err := a.in.decimalMin("Enter new price: $", minPrice)
		if err != nil {
			return err
		}
		u.Price = &d
	}
	if all || choice == 5 {
		n, err := a.in.intMin("Enter new quantity: ", 0)
		if err != nil {
			return err
		}
		u.Quantity = &n
	}

	if _, err := a.shop.UpdateBook(a.session, id, u); err != nil {
		return a.fail(err)
	}
	a.println("\n✓ Book updated successfully!")
	return nil
}

func (a *app) handleDeleteBook() error {
	if err := a.shop.Authorize(a.session, bookshop.OpDeleteBook); err != nil {
		return a.fail(err)
	}
	a.heading("DELETE BOOK", 60)

	id, err := a.in.text("Enter Book ID to delete: ")
	if err != nil {
		return err
	}
	book, err := a.shop.FindBook(a.session, id)
	if err != nil {
		return a.fail(err)
	}
	a.println("\nBook Details:")
	a.printf("ID: %s\nTitle: %s\nAuthor: %s\nPrice: $%s\n", book.ID, book.Title, book.Author, book.Price.StringFixed(2))

	ok, err := a.in.confirm("\nAre you sure you want to delete this book? (y/n): ")
	if err != nil {
		return err
	}
	if !ok {
		a.println("\n✗ Deletion cancelled!")
		return nil
	}
	if _, err := a.shop.DeleteBook(a.session, id); err != nil {
		return a.fail(err)
	}
	a.println("\n✓ Book deleted successfully!")
	return nil
}

// ---------------------------------------------------------------------------
// Sales
// ---------------------------------------------------------------------------

func (a *app) handleMakeSale() error {
	if err := a.shop.Authorize(a.session, bookshop.OpMakeSale); err != nil {
		return a.fail(err)
	}
	a.heading("MAKE SALE", 60)

	id, err := a.in.text("Enter Book ID: ")
	if err != nil {
		return err
	}
	book, err := a.shop.FindBook(a.session, id)
	if err != nil {
		return a.fail(err)
	}
	a.println("\nBook Details:")
	a.printf("Title: %s\nAuthor: %s\nPrice: $%s\nAvailable Quantity: %d\n\n",
		book.Title, book.Author, book.Price.StringFixed(2), book.Quantity)
	if book.Quantity == 0 {
		return a.fail(bookshop.ErrOutOfStock)
	}

	quantity, err := a.in.intRange("Enter quantity to sell: ", 1, book.Quantity)
	if err != nil {
		return err
	}
	customer, err := a.in.text("Enter customer name: ")
	if err != nil {
		return err
	}

	sale, err := a.shop.MakeSale(a.session, id, quantity, customer)
	if err != nil {
		return a.fail(err)
	}
	a.printReceipt(sale)
	a.println("\n✓ Sale completed successfully!")

	if a.receiptsDir != "" {
		path, err := export.WriteReceipt(a.receiptsDir, sale, a.shop.Company())
		if err != nil {
			a.printf("✗ Could not write PDF receipt: %v\n", err)
		} else {
			a.printf("Receipt saved to %s\n", path)
		}
	}
	return nil
}

func (a *app) printReceipt(sale bookshop.Sale) {
	a.printf("\n%s\n%s\n%s\n", strings.Repeat("-", 40), center("SALES RECEIPT", 40), strings.Repeat("-", 40))
	a.printf("Sale ID: %s\n", sale.SaleID)
	a.printf("Book: %s\n", sale.BookTitle)
	a.printf("Quantity: %d\n", sale.Quantity)
	a.printf("Unit Price: $%s\n", sale.UnitPrice().StringFixed(2))
	a.printf("Total Amount: $%s\n", sale.TotalAmount.StringFixed(2))
	a.printf("Customer: %s\n", sale.CustomerName)
	a.printf("Date: %s\n", sale.Date.Format(export.DateLayout))
	a.println(strings.Repeat("-", 40))
}

func (a *app) handleViewSales() error {
	report, err := a.shop.ListSales(a.session)
	if err != nil {
		return a.fail(err)
	}
	a.heading("SALES HISTORY", 80)
	if report.Count == 0 {
		a.println("\nNo sales records found.")
		return nil
	}
	a.printf("%-8s%-8s%-25s%-5s%-12s%-22s\n", "Sale ID", "Book ID", "Book Title", "Qty", "Amount", "Customer")
	a.println(strings.Repeat("-", 80))
	for _, s := range report.Sales {
		a.printf("%-8s%-8s%-25s%-5d%-12s%-22s\n",
			truncate(s.SaleID, 7), truncate(s.BookID, 7), truncate(s.BookTitle, 24), s.Quantity,
			"$"+s.TotalAmount.StringFixed(2), truncate(s.CustomerName, 21))
	}
	a.println(strings.Repeat("-", 80))
	a.printf("Total Sales: $%s\n", report.Revenue.StringFixed(2))
	a.printf("Total Transactions: %d\n", report.Count)
	return nil
}

// ---------------------------------------------------------------------------
// Company
// ---------------------------------------------------------------------------

func (a *app) handleCompany() error {
	info, err := a.shop.CompanyInfo(a.session)
	if err != nil {
		return a.fail(err)
	}
	a.heading("COMPANY INFORMATION", 60)
	a.println()
	a.printf("Company Name: %s\n", info.Name)
	a.printf("Established: %s\n", info.Established)
	a.printf("Address: %s\n", info.Address)
	a.printf("Phone: %s\n", info.Phone)
	a.printf("Email: %s\n", info.Email)
	a.printf("Website: %s\n\n", info.Website)
	a.printf("About Us:\n%s\n\n", info.About)
	a.printf("Our Mission:\n%s\n\n", info.Mission)
	a.println("Current Statistics:")
	a.printf("Total Books in Stock: %d\n", info.Books)
	a.printf("Total Sales Made: %d\n", info.Sales)
	a.printf("System Users: %d\n", info.Users)
	return nil
}

// ---------------------------------------------------------------------------
// Formatting helpers
// ---------------------------------------------------------------------------

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}

func center(s string, width int) string {
	pad := (width - len([]rune(s))) / 2
	if pad <= 0 {
		return s
	}
	return strings.Repeat(" ", pad) + s
}
