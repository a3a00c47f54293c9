package library

import "errors"

var (
	// ErrNotFound is returned by a Storage when the key holds no value.
	ErrNotFound = errors.New("storage: key not found")

	// ErrCorruptSnapshot is returned when a stored value fails its digest check.
	ErrCorruptSnapshot = errors.New("storage: snapshot digest mismatch")

	// ErrNoSelection rejects edit or delete when no book is selected.
	ErrNoSelection = errors.New("please select a book")

	// ErrMultipleSelection rejects edit when more than one book is selected.
	ErrMultipleSelection = errors.New("please select only one book to edit")

	// ErrSelectedLoaned rejects edit or delete while a selected book is on loan.
	ErrSelectedLoaned = errors.New("selected book is on loan")

	// ErrNoDialog is returned when a form is submitted with no add or edit dialog open.
	ErrNoDialog = errors.New("no add or edit dialog is open")

	// ErrBorrowerRequired rejects a loan without a borrower name.
	ErrBorrowerRequired = errors.New("borrower name is required")

	// ErrBookRequired rejects a loan without a book.
	ErrBookRequired = errors.New("a book must be selected")

	// ErrBookNotFound is returned when a book id is not in the catalog.
	ErrBookNotFound = errors.New("book not found")
)
