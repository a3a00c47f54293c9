package library

import (
	"errors"
	"strings"
	"time"
)

// Loan periods are whole weeks in [MinLoanPeriod, MaxLoanPeriod].
const (
	MinLoanPeriod = 1 // shortest loan, in weeks
	MaxLoanPeriod = 4 // longest loan, in weeks
)

// BookLister is the read-only view of the catalog the coordinator needs.
type BookLister interface {
	Books() []Book
}

// LoanApplier durably marks a book as loaned. *Catalog implements it.
type LoanApplier interface {
	ApplyLoan(rec LoanRecord) error
}

// LoanCoordinator tracks the loans submitted during one loans session and layers
// them over the catalog's persisted loan state. It never mutates a book itself.
type LoanCoordinator struct {
	books   BookLister
	applier LoanApplier
	records []LoanRecord
	now     func() time.Time
	log     Logger
	metrics *Metrics
}

// LoanOption configures a LoanCoordinator.
type LoanOption func(*LoanCoordinator)

// WithLoanLogger sets the logger for callback failures.
func WithLoanLogger(l Logger) LoanOption {
	return func(lc *LoanCoordinator) {
		if l != nil {
			lc.log = l
		}
	}
}

// WithClock replaces time.Now for loan timestamps.
func WithClock(now func() time.Time) LoanOption {
	return func(lc *LoanCoordinator) {
		if now != nil {
			lc.now = now
		}
	}
}

// WithLoanMetrics counts accepted submissions on m.
func WithLoanMetrics(m *Metrics) LoanOption {
	return func(lc *LoanCoordinator) { lc.metrics = m }
}

// NewLoanCoordinator starts an empty loans session.
func NewLoanCoordinator(books BookLister, applier LoanApplier, opts ...LoanOption) *LoanCoordinator {
	lc := &LoanCoordinator{
		books:   books,
		applier: applier,
		now:     time.Now,
		log:     discardLogger(),
	}
	for _, opt := range opts {
		opt(lc)
	}
	return lc
}

// Records returns the session's submissions in order.
func (lc *LoanCoordinator) Records() []LoanRecord {
	return append([]LoanRecord(nil), lc.records...)
}

// AvailableBooks returns the catalog books that can be lent right now.
func (lc *LoanCoordinator) AvailableBooks() []Book {
	return AvailableBooks(lc.books.Books(), lc.records)
}

// Loans returns the reconciled active loans.
func (lc *LoanCoordinator) Loans() []LoanEntry {
	return ReconcileLoans(lc.books.Books(), lc.records)
}

// SubmitLoan records a loan of bookID to borrower for loanPeriod weeks and asks the
// catalog to apply it. The period is clamped to [MinLoanPeriod, MaxLoanPeriod].
// A failing applier is logged; the session record is kept either way.
func (lc *LoanCoordinator) SubmitLoan(borrower, bookID string, loanPeriod int) (LoanRecord, error) {
	if strings.TrimSpace(bookID) == "" {
		return LoanRecord{}, ErrBookRequired
	}
	if strings.TrimSpace(borrower) == "" {
		return LoanRecord{}, ErrBorrowerRequired
	}

	rec := LoanRecord{
		BookID:     bookID,
		Borrower:   borrower,
		LoanPeriod: ClampLoanPeriod(loanPeriod),
		Timestamp:  lc.now().UnixMilli(),
	}
	lc.records = append(lc.records, rec)
	if lc.metrics != nil {
		lc.metrics.loansSubmitted.Inc()
	}

	if lc.applier != nil {
		if err := lc.applier.ApplyLoan(rec); err != nil && !errors.Is(err, ErrBookNotFound) {
			lc.log.Error("loan callback failed", "book_id", rec.BookID, "err", err)
		}
	}
	return rec, nil
}

// ClampLoanPeriod forces weeks into [MinLoanPeriod, MaxLoanPeriod].
func ClampLoanPeriod(weeks int) int {
	switch {
	case weeks < MinLoanPeriod:
		return MinLoanPeriod
	case weeks > MaxLoanPeriod:
		return MaxLoanPeriod
	default:
		return weeks
	}
}

// AvailableBooks returns the books that are neither loaned in the catalog nor
// referenced by a session record. A record excludes its book before the catalog
// has applied it.
func AvailableBooks(books []Book, records []LoanRecord) []Book {
	unavailable := make(map[string]struct{}, len(records))
	for _, b := range books {
		if b.Loaned {
			unavailable[b.ID] = struct{}{}
		}
	}
	for _, r := range records {
		unavailable[r.BookID] = struct{}{}
	}

	var out []Book
	for _, b := range books {
		if _, ok := unavailable[b.ID]; !ok {
			out = append(out, b)
		}
	}
	return out
}

// ReconcileLoans merges persisted loans with session records, one entry per book.
// Persisted loans go in first, then records in submission order; the last write for
// a book wins and keeps that book's original position. Titles are looked up in books;
// a miss leaves the title blank.
func ReconcileLoans(books []Book, records []LoanRecord) []LoanEntry {
	var entries []LoanEntry
	index := make(map[string]int)
	put := func(e LoanEntry) {
		if i, ok := index[e.BookID]; ok {
			entries[i] = e
			return
		}
		index[e.BookID] = len(entries)
		entries = append(entries, e)
	}

	titles := make(map[string]string, len(books))
	for _, b := range books {
		titles[b.ID] = b.Title
		if !b.Loaned {
			continue
		}
		e := LoanEntry{BookID: b.ID, BookTitle: b.Title}
		if b.LoanInfo != nil {
			e.Borrower = b.LoanInfo.Borrower
			e.LoanPeriod = b.LoanInfo.LoanPeriod
			e.Timestamp = b.LoanInfo.Timestamp
		}
		put(e)
	}

	for _, r := range records {
		put(LoanEntry{
			BookID:     r.BookID,
			Borrower:   r.Borrower,
			LoanPeriod: r.LoanPeriod,
			Timestamp:  r.Timestamp,
			BookTitle:  titles[r.BookID],
		})
	}
	return entries
}
