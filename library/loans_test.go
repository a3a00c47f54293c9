package library

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubApplier records applied loans and can fail.
type stubApplier struct {
	applied []LoanRecord
	err     error
}

func (s *stubApplier) ApplyLoan(rec LoanRecord) error {
	if s.err != nil {
		return s.err
	}
	s.applied = append(s.applied, rec)
	return nil
}

type staticBooks []Book

func (b staticBooks) Books() []Book { return b }

func fixedClock(ms int64) func() time.Time {
	return func() time.Time { return time.UnixMilli(ms) }
}

func ids(books []Book) []string {
	out := make([]string, len(books))
	for i, b := range books {
		out[i] = b.ID
	}
	return out
}

func TestReconcileSessionOverridesPersisted(t *testing.T) {
	books := []Book{
		{ID: "A", Title: "Book A", Loaned: true, LoanInfo: &LoanInfo{Borrower: "Sam", LoanPeriod: 1, Timestamp: 1000}},
		{ID: "B", Title: "Book B"},
	}
	records := []LoanRecord{{BookID: "A", Borrower: "Lee", LoanPeriod: 3, Timestamp: 5000}}

	loans := ReconcileLoans(books, records)

	require.Len(t, loans, 1)
	assert.Equal(t, LoanEntry{BookID: "A", Borrower: "Lee", LoanPeriod: 3, Timestamp: 5000, BookTitle: "Book A"}, loans[0])
	due, ok := loans[0].DueDate()
	require.True(t, ok)
	assert.Equal(t, int64(5000+3*7*24*3600*1000), due.UnixMilli())
}

func TestReconcileLastSessionRecordWins(t *testing.T) {
	books := []Book{
		{ID: "A", Title: "Book A", Loaned: true, LoanInfo: &LoanInfo{Borrower: "Sam", LoanPeriod: 1, Timestamp: 1000}},
		{ID: "B", Title: "Book B"},
		{ID: "C", Title: "Book C", Loaned: true, LoanInfo: &LoanInfo{Borrower: "Kim", LoanPeriod: 4, Timestamp: 2000}},
	}
	records := []LoanRecord{
		{BookID: "B", Borrower: "Ana", LoanPeriod: 2, Timestamp: 3000},
		{BookID: "B", Borrower: "Bo", LoanPeriod: 1, Timestamp: 4000},
		{BookID: "gone", Borrower: "Cy", LoanPeriod: 1, Timestamp: 4500},
		{BookID: "A", Borrower: "Lee", LoanPeriod: 3, Timestamp: 5000},
	}

	loans := ReconcileLoans(books, records)

	require.Len(t, loans, 4)
	assert.Equal(t, []string{"A", "C", "B", "gone"}, []string{loans[0].BookID, loans[1].BookID, loans[2].BookID, loans[3].BookID})
	assert.Equal(t, "Lee", loans[0].Borrower)
	assert.Equal(t, "Kim", loans[1].Borrower)
	assert.Equal(t, "Bo", loans[2].Borrower)
	assert.Equal(t, "Book B", loans[2].BookTitle)
	assert.Empty(t, loans[3].BookTitle, "title lookup miss is blank")
}

func TestReconcileLoanedWithoutInfo(t *testing.T) {
	loans := ReconcileLoans([]Book{{ID: "A", Title: "Book A", Loaned: true}}, nil)

	require.Len(t, loans, 1)
	assert.Equal(t, "Book A", loans[0].BookTitle)
	_, ok := loans[0].DueDate()
	assert.False(t, ok)
}

func TestAvailableBooks(t *testing.T) {
	books := []Book{
		{ID: "A", Loaned: true, LoanInfo: &LoanInfo{Borrower: "Sam"}},
		{ID: "B"},
		{ID: "C"},
		{ID: "D"},
	}

	assert.Equal(t, []string{"B", "C", "D"}, ids(AvailableBooks(books, nil)))
	// A session record excludes its book before the catalog applies it.
	assert.Equal(t, []string{"B", "D"}, ids(AvailableBooks(books, []LoanRecord{{BookID: "C", Borrower: "Lee"}})))
}

func TestDueDate(t *testing.T) {
	tests := []struct {
		name   string
		ts     int64
		period int
		want   int64
		ok     bool
	}{
		{name: "one week", ts: 1000, period: 1, want: 1000 + 604_800_000, ok: true},
		{name: "four weeks", ts: 0 + 1, period: 4, want: 1 + 4*604_800_000, ok: true},
		{name: "no timestamp", ts: 0, period: 2},
		{name: "no period", ts: 1000, period: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			due, ok := DueDate(tt.ts, tt.period)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, due.UnixMilli())
			}
		})
	}
}

func TestSubmitLoanRequiresBorrowerAndBook(t *testing.T) {
	applier := &stubApplier{}
	lc := NewLoanCoordinator(staticBooks{{ID: "book1"}}, applier)

	_, err := lc.SubmitLoan("", "book1", 2)
	assert.ErrorIs(t, err, ErrBorrowerRequired)
	_, err = lc.SubmitLoan("   ", "book1", 2)
	assert.ErrorIs(t, err, ErrBorrowerRequired)
	_, err = lc.SubmitLoan("Ana", "", 2)
	assert.ErrorIs(t, err, ErrBookRequired)

	assert.Empty(t, lc.Records())
	assert.Empty(t, applier.applied)
}

func TestSubmitLoanAppliesRecord(t *testing.T) {
	applier := &stubApplier{}
	m := NewMetrics()
	lc := NewLoanCoordinator(staticBooks{{ID: "book1", Title: "One"}}, applier,
		WithClock(fixedClock(1_700_000_000_000)), WithLoanMetrics(m))

	rec, err := lc.SubmitLoan("Ana", "book1", 2)

	require.NoError(t, err)
	want := LoanRecord{BookID: "book1", Borrower: "Ana", LoanPeriod: 2, Timestamp: 1_700_000_000_000}
	assert.Equal(t, want, rec)
	assert.Equal(t, []LoanRecord{want}, lc.Records())
	assert.Equal(t, []LoanRecord{want}, applier.applied)
	assert.Empty(t, lc.AvailableBooks())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.loansSubmitted))
}

func TestSubmitLoanClampsPeriod(t *testing.T) {
	lc := NewLoanCoordinator(staticBooks{{ID: "a"}, {ID: "b"}, {ID: "c"}}, &stubApplier{})

	low, err := lc.SubmitLoan("Ana", "a", 0)
	require.NoError(t, err)
	high, err := lc.SubmitLoan("Ana", "b", 9)
	require.NoError(t, err)
	mid, err := lc.SubmitLoan("Ana", "c", 3)
	require.NoError(t, err)

	assert.Equal(t, MinLoanPeriod, low.LoanPeriod)
	assert.Equal(t, MaxLoanPeriod, high.LoanPeriod)
	assert.Equal(t, 3, mid.LoanPeriod)
}

func TestSubmitLoanCallbackFailureKeepsSessionRecord(t *testing.T) {
	logger, spy := newSpyLogger()
	applier := &stubApplier{err: errors.New("storage exploded")}
	lc := NewLoanCoordinator(staticBooks{{ID: "book1", Title: "One"}}, applier, WithLoanLogger(logger))

	_, err := lc.SubmitLoan("Ana", "book1", 1)

	require.NoError(t, err)
	assert.Len(t, lc.Records(), 1)
	assert.Contains(t, spy.messages(slog.LevelError), "loan callback failed")
	loans := lc.Loans()
	require.Len(t, loans, 1)
	assert.Equal(t, "One", loans[0].BookTitle)
}

func TestSubmitLoanForDeletedBookIsSilent(t *testing.T) {
	logger, spy := newSpyLogger()
	c, _ := newTestCatalog()
	lc := NewLoanCoordinator(c, c, WithLoanLogger(logger))

	_, err := lc.SubmitLoan("Ana", "deleted-id", 1)

	require.NoError(t, err)
	assert.Empty(t, spy.messages(slog.LevelDebug))
	assert.Len(t, lc.Records(), 1)
}

func TestLoanFlowAgainstCatalog(t *testing.T) {
	c, st := newTestCatalog()
	lc := NewLoanCoordinator(c, c, WithClock(fixedClock(10_000)))

	_, err := lc.SubmitLoan("Ana", "book-2", 2)
	require.NoError(t, err)

	b, ok := c.Book("book-2")
	require.True(t, ok)
	assert.True(t, b.Loaned)
	assert.Equal(t, &LoanInfo{Borrower: "Ana", LoanPeriod: 2, Timestamp: 10_000}, b.LoanInfo)
	assert.Equal(t, []string{"book-1", "book-3"}, ids(lc.AvailableBooks()))

	// A later session sees the persisted loan.
	reloaded := OpenCatalog(st.MemoryStorage)
	next := NewLoanCoordinator(reloaded, reloaded)
	loans := next.Loans()
	require.Len(t, loans, 1)
	assert.Equal(t, LoanEntry{BookID: "book-2", Borrower: "Ana", LoanPeriod: 2, Timestamp: 10_000, BookTitle: "Concurrency in Go"}, loans[0])
	assert.Equal(t, []string{"book-1", "book-3"}, ids(next.AvailableBooks()))
}
