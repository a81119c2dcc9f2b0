package entity

import (
	"errors"
	"fmt"
)

// Outcomes of core operations. Callers decide presentation; nothing here is
// fatal to the process.
var (
	// ErrConflict is returned by a store when a conditional write lost the
	// race to another writer. It never escapes the CAS retry loop.
	ErrConflict = errors.New("revision conflict")

	// ErrNotFound covers missing store documents and empty ledger lookups.
	ErrNotFound = errors.New("not found")

	ErrUnknownCatalog = errors.New("unknown catalog")
	ErrOutOfStock     = errors.New("out of stock")

	// ErrBusy means the retry budget ran out under contention. The call is
	// safe to repeat later.
	ErrBusy = errors.New("contention too high, try again later")
)

// ValidationError marks input rejected before any store access.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func Validationf(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// InsufficientStockError reports a request for more codes than the catalog
// currently holds unused.
type InsufficientStockError struct {
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock: %d available", e.Available)
}

// StoreError wraps transport or schema failures of the document store,
// distinct from ErrConflict and ErrNotFound.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
