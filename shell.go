package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"book-inventory/library"

	"golang.org/x/term"
)

const defaultWidth = 120

// shell is the interactive session: the catalog page, the add/edit dialog and the loans page.
type shell struct {
	sc    *bufio.Scanner
	out   io.Writer
	mgr   *library.LibraryManager
	width int
}

func newShell(in io.Reader, out io.Writer, mgr *library.LibraryManager) *shell {
	return &shell{sc: bufio.NewScanner(in), out: out, mgr: mgr, width: outputWidth(out)}
}

func (s *shell) printf(format string, args ...any) { fmt.Fprintf(s.out, format, args...) }

func (s *shell) prompt(label string) (string, bool) {
	s.printf("%s", label)
	if !s.sc.Scan() {
		return "", false
	}
	return strings.TrimSpace(s.sc.Text()), true
}

func (s *shell) run() error {
	s.printf("Welcome to the Book Inventory!\n")
	s.printHelp()

	for {
		if s.mgr.Page() == library.PageLoans {
			s.printf("\nloans> ")
		} else {
			s.printf("\n> ")
		}
		if !s.sc.Scan() {
			return s.sc.Err()
		}
		line := strings.TrimSpace(s.sc.Text())
		cmd, arg, _ := strings.Cut(line, " ")
		if cmd == "exit" || cmd == "quit" {
			s.printf("Goodbye!\n")
			return nil
		}

		if s.mgr.Page() == library.PageLoans {
			s.handleLoansCommand(line)
			continue
		}

		switch {
		case line == "list books" || line == "list":
			s.handleListBooks()
		case line == "add book":
			s.mgr.OpenAdd()
			s.handleForm()
		case line == "edit book":
			s.handleEditBook()
		case cmd == "select":
			s.handleSelect(strings.TrimSpace(arg))
		case line == "delete":
			s.handleDelete()
		case cmd == "filter":
			s.handleFilter(strings.TrimSpace(arg))
		case line == "publishers":
			s.handlePublishers()
		case line == "manage loans":
			s.mgr.OpenLoans()
			s.printf("Manage Loans. Commands: available, loan, list loans, back\n")
		case line == "stats":
			if err := s.mgr.Metrics().WriteSummary(s.out); err != nil {
				s.printf("Error: %v\n", err)
			}
		case line == "help":
			s.printHelp()
		case line == "":
		default:
			s.printf("Unknown command. Type 'help' to see the available commands.\n")
		}
	}
}

func (s *shell) printHelp() {
	s.printf("Available commands:\n")
	s.printf("  Books: list books, add book, edit book, select <#|id>, delete\n")
	s.printf("  Filter: publishers, filter <publisher> (no argument clears)\n")
	s.printf("  Loans: manage loans\n")
	s.printf("  System: stats, help, exit\n")
}

// ------------------ Catalog page ------------------

func (s *shell) handleListBooks() {
	books := s.mgr.VisibleBooks()
	if f := s.mgr.PublisherFilter(); f != "" {
		s.printf("Publisher: %s\n", f)
	}
	printBooks(s.out, books, s.width)
}

// handleSelect toggles a book by its 1-based position in the visible list or by id.
func (s *shell) handleSelect(arg string) {
	if arg == "" {
		s.printf("Usage: select <#|id>\n")
		return
	}
	id := arg
	if n, err := strconv.Atoi(arg); err == nil {
		books := s.mgr.VisibleBooks()
		if n < 1 || n > len(books) {
			s.printf("No book at position %d\n", n)
			return
		}
		id = books[n-1].ID
	}
	s.mgr.ToggleSelect(id)

	sel := s.mgr.Selection()
	if len(sel.Books) == 0 {
		s.printf("Selection cleared.\n")
		return
	}
	s.printf("Selected '%s'.\n", sel.Books[0].Title)
}

func (s *shell) handleEditBook() {
	book, err := s.mgr.BeginEdit()
	if err != nil {
		if hint := s.mgr.EditHint(); hint != "" && errors.Is(err, library.ErrSelectedLoaned) {
			s.printf("%s\n", hint)
			return
		}
		s.printf("Error: %v\n", err)
		return
	}
	s.printf("Editing '%s'. Press Enter to keep a value.\n", book.Title)
	s.handleForm()
}

func (s *shell) handleDelete() {
	if hint := s.mgr.DeleteHint(); hint != "" {
		s.printf("%s\n", hint)
		return
	}
	n, err := s.mgr.DeleteSelected()
	if err != nil {
		s.printf("Error: %v\n", err)
		return
	}
	s.printf("Deleted %d book(s).\n", n)
}

func (s *shell) handleFilter(publisher string) {
	s.mgr.SetPublisherFilter(publisher)
	if publisher == "" {
		s.printf("Showing all publishers.\n")
		return
	}
	s.printf("Showing books from %s.\n", publisher)
}

func (s *shell) handlePublishers() {
	publishers := s.mgr.Publishers()
	if len(publishers) == 0 {
		s.printf("No publishers.\n")
		return
	}
	for _, p := range publishers {
		s.printf("  %s\n", p)
	}
}

type formField struct {
	label string
	cur   string
	dst   **string
}

// handleForm collects book fields for the open dialog. In edit mode an empty answer keeps
// the current value; in add mode the title is required.
func (s *shell) handleForm() {
	view := s.mgr.View()
	var current library.Book
	if view.Mode == library.ViewEdit {
		current, _ = s.mgr.Catalog().Book(view.BookID)
	}

	var f library.BookFields
	questions := []formField{
		{"Title", current.Title, &f.Title},
		{"Author", current.Author, &f.Author},
		{"Publisher", current.Publisher, &f.Publisher},
		{"Publication year", current.Publication, &f.Publication},
		{"Pages", current.Pages, &f.Pages},
		{"Language", current.Language, &f.Language},
		{"Price", current.Price, &f.Price},
		{"Image URL", current.ImgSrc, &f.ImgSrc},
		{"Link", current.BookLink, &f.BookLink},
	}

	for _, q := range questions {
		label := q.label + ": "
		if view.Mode == library.ViewEdit {
			label = fmt.Sprintf("%s [%s]: ", q.label, q.cur)
		}
		answer, ok := s.prompt(label)
		if !ok {
			s.mgr.CloseDialog()
			return
		}
		if answer != "" {
			*q.dst = library.Str(answer)
		}
	}

	if view.Mode == library.ViewAdd && f.Title == nil {
		s.printf("Title is required. Book not added.\n")
		s.mgr.CloseDialog()
		return
	}
	if f.Title != nil {
		f.ImgAlt = f.Title
	}

	book, err := s.mgr.SubmitForm(f)
	if err != nil {
		s.printf("Error: %v\n", err)
		return
	}
	if view.Mode == library.ViewAdd {
		s.printf("Added '%s' (ID %s).\n", book.Title, book.ID)
	} else {
		s.printf("Updated '%s'.\n", book.Title)
	}
}

// ------------------ Loans page ------------------

func (s *shell) handleLoansCommand(line string) {
	loans := s.mgr.Loans()
	switch line {
	case "available":
		books := loans.AvailableBooks()
		if len(books) == 0 {
			s.printf("There are no available books to borrow\n")
			return
		}
		printBooks(s.out, books, s.width)
	case "loan":
		s.handleLoan(loans)
	case "list loans", "list":
		printLoans(s.out, loans.Loans())
	case "back":
		s.mgr.CloseLoans()
		s.printf("Back to the catalog.\n")
	case "help":
		s.printf("Commands: available, loan, list loans, back, exit\n")
	case "":
	default:
		s.printf("Unknown command. Use: available, loan, list loans, back\n")
	}
}

func (s *shell) handleLoan(loans *library.LoanCoordinator) {
	available := loans.AvailableBooks()
	if len(available) == 0 {
		s.printf("There are no available books to borrow\n")
		return
	}

	borrower, ok := s.prompt("Borrower: ")
	if !ok {
		return
	}
	for i, b := range available {
		s.printf("  %d. %s\n", i+1, b.Title)
	}
	choice, ok := s.prompt("Book #: ")
	if !ok {
		return
	}
	bookID := ""
	if n, err := strconv.Atoi(choice); err == nil && n >= 1 && n <= len(available) {
		bookID = available[n-1].ID
	}
	periodStr, ok := s.prompt(fmt.Sprintf("Loan period in weeks (%d-%d): ", library.MinLoanPeriod, library.MaxLoanPeriod))
	if !ok {
		return
	}
	period := library.MinLoanPeriod
	if periodStr != "" {
		n, err := strconv.Atoi(periodStr)
		if err != nil {
			s.printf("Invalid loan period: %s\n", periodStr)
			return
		}
		period = n
	}

	rec, err := loans.SubmitLoan(borrower, bookID, period)
	if err != nil {
		s.printf("Error: %v\n", err)
		return
	}
	due, _ := library.DueDate(rec.Timestamp, rec.LoanPeriod)
	s.printf("Loaned to %s for %d week(s), due %s.\n", rec.Borrower, rec.LoanPeriod, due.Local().Format("2006-01-02"))
}

// ------------------ Rendering ------------------

// outputWidth returns the terminal width when w is a terminal, else defaultWidth.
func outputWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return defaultWidth
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return defaultWidth
	}
	return width
}

func printBooks(w io.Writer, books []library.Book, width int) {
	if len(books) == 0 {
		fmt.Fprintln(w, "No books in catalog.")
		return
	}
	// #, mark, author, publisher, price, status columns plus separators take 78 chars.
	titleWidth := width - 78
	if titleWidth < 20 {
		titleWidth = 20
	}
	fmt.Fprintf(w, "%-4s %-1s %-*s %-25s %-20s %-10s %s\n", "#", "", titleWidth, "Title", "Author", "Publisher", "Price", "Status")
	fmt.Fprintln(w, strings.Repeat("-", titleWidth+78))
	for i, b := range books {
		mark := " "
		if b.Selected {
			mark = "*"
		}
		status := "Available"
		if b.Loaned {
			status = "On loan"
		}
		fmt.Fprintf(w, "%-4d %-1s %-*s %-25s %-20s %-10s %s\n",
			i+1,
			mark,
			titleWidth, truncateString(b.Title, titleWidth),
			truncateString(b.Author, 25),
			truncateString(b.Publisher, 20),
			truncateString(b.Price, 10),
			status)
	}
}

func truncateString(s string, maxLength int) string {
	if utf8.RuneCountInString(s) <= maxLength {
		return s
	}
	r := []rune(s)
	if maxLength <= 3 {
		return string(r[:maxLength])
	}
	return string(r[:maxLength-3]) + "..."
}
