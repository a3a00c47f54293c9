package library

import (
	"fmt"
	"time"
)

// ViewMode is the state of the add/edit dialog.
type ViewMode int

const (
	ViewClosed ViewMode = iota
	ViewAdd
	ViewEdit
)

func (m ViewMode) String() string {
	switch m {
	case ViewAdd:
		return "add"
	case ViewEdit:
		return "edit"
	default:
		return "closed"
	}
}

// ViewState is the dialog state; BookID is set only in ViewEdit.
type ViewState struct {
	Mode   ViewMode
	BookID string
}

// Page is the top-level screen.
type Page int

const (
	PageCatalog Page = iota
	PageLoans
)

// Options configures a LibraryManager.
type Options struct {
	Logger     Logger
	Metrics    *Metrics
	StorageKey string
	Seed       []SeedBook
	Now        func() time.Time
}

// LibraryManager is the top-level coordinator: it owns the catalog, the dialog and
// page state, the publisher filter and the active loans session.
type LibraryManager struct {
	db      *Database
	storage Storage
	catalog *Catalog
	opts    Options

	view      ViewState
	dialogSeq int
	publisher string

	page  Page
	loans *LoanCoordinator
}

// NewLibraryManager opens (or creates) the SQLite database at dbPath and loads the catalog.
func NewLibraryManager(dbPath string, opts Options) (*LibraryManager, error) {
	db, err := NewDatabase(dbPath)
	if err != nil {
		return nil, err
	}
	lm := NewLibraryManagerWithStorage(db, opts)
	lm.db = db
	return lm, nil
}

// NewLibraryManagerWithStorage loads the catalog from an arbitrary Storage.
func NewLibraryManagerWithStorage(storage Storage, opts Options) *LibraryManager {
	if opts.Logger == nil {
		opts.Logger = discardLogger()
	}
	if opts.Metrics == nil {
		opts.Metrics = NewMetrics()
	}
	catalog := OpenCatalog(storage,
		WithLogger(opts.Logger),
		WithMetrics(opts.Metrics),
		WithStorageKey(opts.StorageKey),
		WithSeed(opts.Seed),
	)
	return &LibraryManager{storage: storage, catalog: catalog, opts: opts}
}

// Close closes the underlying database, if any.
func (lm *LibraryManager) Close() error {
	if lm.db == nil {
		return nil
	}
	return lm.db.Close()
}

// Catalog returns the owned catalog.
func (lm *LibraryManager) Catalog() *Catalog { return lm.catalog }

// Metrics returns the metrics shared by the catalog and loans sessions.
func (lm *LibraryManager) Metrics() *Metrics { return lm.opts.Metrics }

// Reset drops the persisted snapshot and reloads the catalog from seed data.
func (lm *LibraryManager) Reset() error {
	key := lm.opts.StorageKey
	if key == "" {
		key = DefaultStorageKey
	}
	if err := lm.storage.Delete(key); err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	lm.catalog.Load()
	lm.view = ViewState{}
	lm.CloseLoans()
	return nil
}

// ------------------ Catalog page ------------------

func (lm *LibraryManager) ToggleSelect(id string) { lm.catalog.ToggleSelect(id) }
func (lm *LibraryManager) Selection() Selection   { return lm.catalog.Selection() }
func (lm *LibraryManager) Publishers() []string   { return lm.catalog.Publishers() }

// SetPublisherFilter limits VisibleBooks to publisher; "" shows all.
func (lm *LibraryManager) SetPublisherFilter(publisher string) { lm.publisher = publisher }
func (lm *LibraryManager) PublisherFilter() string            { return lm.publisher }

// VisibleBooks returns the books passing the publisher filter.
func (lm *LibraryManager) VisibleBooks() []Book {
	return lm.catalog.FilterByPublisher(lm.publisher)
}

// EditHint explains why editing is disabled, or returns "" when it is allowed.
func (lm *LibraryManager) EditHint() string {
	sel := lm.catalog.Selection()
	switch {
	case sel.CanEdit:
		return ""
	case sel.HasSelectedLoaned:
		return "Cannot edit a book that is on loan"
	default:
		return "Select one book to edit"
	}
}

// DeleteHint explains why deleting is disabled, or returns "" when it is allowed.
func (lm *LibraryManager) DeleteHint() string {
	sel := lm.catalog.Selection()
	switch {
	case sel.CanDelete:
		return ""
	case sel.HasSelectedLoaned:
		return "Cannot delete book that is on loan"
	default:
		return "Select book to delete"
	}
}

// DeleteSelected removes the selected books unless none is selected or one is on loan.
func (lm *LibraryManager) DeleteSelected() (int, error) {
	sel := lm.catalog.Selection()
	if len(sel.Books) == 0 {
		return 0, ErrNoSelection
	}
	if sel.HasSelectedLoaned {
		return 0, ErrSelectedLoaned
	}
	return lm.catalog.DeleteSelected(), nil
}

// ------------------ Add/edit dialog ------------------

// View returns the dialog state.
func (lm *LibraryManager) View() ViewState { return lm.view }

// OpenAdd opens the dialog for a new book.
func (lm *LibraryManager) OpenAdd() { lm.view = ViewState{Mode: ViewAdd} }

// BeginEdit opens the dialog on the single selected book. It is rejected without
// touching the dialog state when zero or several books are selected or the book is loaned.
func (lm *LibraryManager) BeginEdit() (Book, error) {
	sel := lm.catalog.Selection()
	switch {
	case len(sel.Books) == 0:
		return Book{}, ErrNoSelection
	case len(sel.Books) > 1:
		return Book{}, ErrMultipleSelection
	case sel.HasSelectedLoaned:
		return Book{}, ErrSelectedLoaned
	}
	target := sel.Books[0]
	lm.view = ViewState{Mode: ViewEdit, BookID: target.ID}
	return target, nil
}

// FormKey identifies the form instance. It changes whenever the edit target changes,
// including back to a fresh add form, so stale input is never carried over.
func (lm *LibraryManager) FormKey() string {
	if lm.view.Mode == ViewEdit {
		return lm.view.BookID
	}
	return fmt.Sprintf("new-%d", lm.dialogSeq)
}

// SubmitForm adds or edits according to the open dialog, then closes it.
func (lm *LibraryManager) SubmitForm(fields BookFields) (Book, error) {
	var (
		book Book
		ok   bool
	)
	switch lm.view.Mode {
	case ViewAdd:
		book, ok = lm.catalog.Add(fields), true
	case ViewEdit:
		lm.catalog.Edit(lm.view.BookID, fields)
		book, ok = lm.catalog.Book(lm.view.BookID)
	default:
		return Book{}, ErrNoDialog
	}
	lm.CloseDialog()
	if !ok {
		return Book{}, nil
	}
	return book, nil
}

// CloseDialog clears the edit target and resets the form.
func (lm *LibraryManager) CloseDialog() {
	lm.view = ViewState{}
	lm.dialogSeq++
}

// ------------------ Loans page ------------------

// Page returns the current top-level screen.
func (lm *LibraryManager) Page() Page { return lm.page }

// OpenLoans switches to the loans page with a fresh loans session.
func (lm *LibraryManager) OpenLoans() *LoanCoordinator {
	lm.page = PageLoans
	lm.loans = NewLoanCoordinator(lm.catalog, lm.catalog,
		WithLoanLogger(lm.opts.Logger),
		WithLoanMetrics(lm.opts.Metrics),
		WithClock(lm.opts.Now),
	)
	return lm.loans
}

// Loans returns the active loans session, or nil on the catalog page.
func (lm *LibraryManager) Loans() *LoanCoordinator { return lm.loans }

// CloseLoans returns to the catalog page; session records are discarded.
func (lm *LibraryManager) CloseLoans() {
	lm.page = PageCatalog
	lm.loans = nil
}

// ------------------ Utilities ------------------

// PrettyBook formats a book for lists.
func PrettyBook(b Book) string {
	mark := " "
	if b.Selected {
		mark = "*"
	}
	status := "available"
	if b.Loaned {
		status = "on loan"
	}
	return fmt.Sprintf("%s %-36s %-30s %-25s %-10s %s", mark, b.ID, b.Title, b.Author, b.Price, status)
}
