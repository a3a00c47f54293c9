package library

import "time"

// LoanWeek is the unit of a loan period.
const LoanWeek = 7 * 24 * time.Hour

// Book is one catalog entry. The JSON field names are the persisted snapshot format.
type Book struct {
	ID          string    `json:"id"`
	ImgSrc      string    `json:"imgSrc"`
	ImgAlt      string    `json:"imgAlt"`
	BookLink    string    `json:"bookLink"`
	Title       string    `json:"bookTitle"`
	Price       string    `json:"bookPrice"`
	Author      string    `json:"bookAuthor"`
	Publisher   string    `json:"publisher"`
	Publication string    `json:"publication"`
	Pages       string    `json:"pages"`
	Language    string    `json:"language"`
	Selected    bool      `json:"selected"`
	Loaned      bool      `json:"loaned"`
	LoanInfo    *LoanInfo `json:"loanInfo,omitempty"`
}

// LoanInfo is embedded in a Book if and only if the book is loaned.
type LoanInfo struct {
	Borrower   string `json:"borrower"`
	LoanPeriod int    `json:"loanPeriod"` // weeks, 1-4
	Timestamp  int64  `json:"timestamp"`  // ms since epoch
}

// DueDate reports when the loan ends; ok is false if the timestamp or period is unknown.
func (li LoanInfo) DueDate() (time.Time, bool) { return DueDate(li.Timestamp, li.LoanPeriod) }

func (b Book) clone() Book {
	if b.LoanInfo != nil {
		info := *b.LoanInfo
		b.LoanInfo = &info
	}
	return b
}

// LoanRecord is a loan submitted during a loans session, before the catalog folds it into a Book.
type LoanRecord struct {
	BookID     string `json:"bookId"`
	Borrower   string `json:"borrower"`
	LoanPeriod int    `json:"loanPeriod"`
	Timestamp  int64  `json:"timestamp"`
}

// LoanEntry is the reconciled, display-ready view of one active loan.
type LoanEntry struct {
	BookID     string
	Borrower   string
	LoanPeriod int
	Timestamp  int64
	BookTitle  string
}

// DueDate reports when the loan ends; ok is false if the timestamp or period is unknown.
func (e LoanEntry) DueDate() (time.Time, bool) { return DueDate(e.Timestamp, e.LoanPeriod) }

// DueDate computes timestamp + period weeks. A zero timestamp or period means unknown.
func DueDate(timestampMs int64, loanPeriod int) (time.Time, bool) {
	if timestampMs == 0 || loanPeriod == 0 {
		return time.Time{}, false
	}
	due := timestampMs + int64(loanPeriod)*LoanWeek.Milliseconds()
	return time.UnixMilli(due), true
}

// BookFields carries the editable attributes of a Book. Nil fields are left untouched
// when applied, so the same type serves add and partial edit.
type BookFields struct {
	ImgSrc      *string
	ImgAlt      *string
	BookLink    *string
	Title       *string
	Price       *string
	Author      *string
	Publisher   *string
	Publication *string
	Pages       *string
	Language    *string
}

// Str returns a pointer to s, for filling BookFields.
func Str(s string) *string { return &s }

func (f BookFields) applyTo(b *Book) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&b.ImgSrc, f.ImgSrc)
	set(&b.ImgAlt, f.ImgAlt)
	set(&b.BookLink, f.BookLink)
	set(&b.Title, f.Title)
	set(&b.Price, f.Price)
	set(&b.Author, f.Author)
	set(&b.Publisher, f.Publisher)
	set(&b.Publication, f.Publication)
	set(&b.Pages, f.Pages)
	set(&b.Language, f.Language)
}

// Selection is the derived authorization state for edit and delete, recomputed on every read.
type Selection struct {
	Books             []Book
	HasSelectedLoaned bool
	CanEdit           bool
	CanDelete         bool
}
