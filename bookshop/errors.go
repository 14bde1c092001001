package bookshop

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Sentinel errors. Callers match them with errors.Is; the structured errors
// below unwrap to one of these.
var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicateID       = errors.New("duplicate id")
	ErrInvalidBook       = errors.New("invalid book")
	ErrInvalidQuantity   = errors.New("invalid quantity")
	ErrInvalidCustomer   = errors.New("invalid customer name")
	ErrInvalidUser       = errors.New("invalid user")
	ErrOutOfStock        = errors.New("out of stock")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrAuthFailure       = errors.New("invalid username or password")
	ErrDenied            = errors.New("access denied")
	ErrPersistence       = errors.New("persistence failure")
)

// InsufficientStockError reports a sale or decrement larger than the stock on hand.
type InsufficientStockError struct {
	BookID    string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for book %s: available %d, requested %d",
		e.BookID, e.Available, e.Requested)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// DeniedError reports an operation the acting role may not invoke.
type DeniedError struct {
	Role      Role
	Operation Operation
}

func (e *DeniedError) Error() string {
	role := string(e.Role)
	if e.Role == RoleNone {
		role = "anonymous"
	}
	return fmt.Sprintf("access denied: %s may not %s", role, e.Operation)
}

func (e *DeniedError) Unwrap() error { return ErrDenied }

// ValidationError lists the fields that failed boundary validation.
type ValidationError struct {
	Kind   error
	Fields map[string]string // field name -> failed rule
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, name := range slices.Sorted(maps.Keys(e.Fields)) {
		parts = append(parts, name+" ("+e.Fields[name]+")")
	}
	return fmt.Sprintf("%v: %s", e.Kind, strings.Join(parts, ", "))
}

func (e *ValidationError) Unwrap() error { return e.Kind }

// PersistenceError wraps a store failure with the collection it concerned.
type PersistenceError struct {
	Op    string // load, save, commit
	Store string // books, sales, users
	Err   error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure: %s %s: %v", e.Op, e.Store, e.Err)
}

func (e *PersistenceError) Unwrap() []error { return []error{ErrPersistence, e.Err} }

func persistErr(op, store string, err error) error {
	if err == nil {
		return nil
	}
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	return &PersistenceError{Op: op, Store: store, Err: err}
}

// IsClientError reports whether err was caused by invalid input or a business
// rule rather than by the store.
func IsClientError(err error) bool {
	return errors.Is(err, ErrDuplicateID) ||
		errors.Is(err, ErrInvalidBook) ||
		errors.Is(err, ErrInvalidQuantity) ||
		errors.Is(err, ErrInvalidCustomer) ||
		errors.Is(err, ErrOutOfStock) ||
		errors.Is(err, ErrInsufficientStock)
}

// IsNotFound reports whether err is an id lookup miss.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
