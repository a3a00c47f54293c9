package library

import (
	"bytes"
	"errors"
	"sync"

	"github.com/google/uuid"
)

// DefaultStorageKey is the storage key holding the catalog snapshot.
const DefaultStorageKey = "books"

// Catalog owns the book collection. It is the only writer of a book's loan state and
// persists the whole collection after every committed mutation.
type Catalog struct {
	mu      sync.RWMutex
	books   []Book
	storage Storage
	key     string
	seed    []SeedBook
	log     Logger
	metrics *Metrics
	newID   func() string
}

// CatalogOption configures a Catalog.
type CatalogOption func(*Catalog)

// WithLogger sets the logger for soft failures.
func WithLogger(l Logger) CatalogOption {
	return func(c *Catalog) {
		if l != nil {
			c.log = l
		}
	}
}

// WithMetrics records catalog activity on m.
func WithMetrics(m *Metrics) CatalogOption {
	return func(c *Catalog) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithStorageKey overrides DefaultStorageKey.
func WithStorageKey(key string) CatalogOption {
	return func(c *Catalog) {
		if key != "" {
			c.key = key
		}
	}
}

// WithSeed replaces the embedded seed dataset used when no snapshot can be loaded.
func WithSeed(seed []SeedBook) CatalogOption {
	return func(c *Catalog) { c.seed = seed }
}

// WithIDGenerator replaces uuid.NewString for new book ids.
func WithIDGenerator(fn func() string) CatalogOption {
	return func(c *Catalog) {
		if fn != nil {
			c.newID = fn
		}
	}
}

// OpenCatalog creates a Catalog over storage and loads it.
func OpenCatalog(storage Storage, opts ...CatalogOption) *Catalog {
	c := &Catalog{
		storage: storage,
		key:     DefaultStorageKey,
		log:     discardLogger(),
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.metrics == nil {
		c.metrics = NewMetrics()
	}
	if c.seed == nil {
		c.seed = DefaultSeed()
	}
	c.Load()
	return c
}

// ---------------------------------------------------------------------------
// Persistence
// ---------------------------------------------------------------------------

// Load replaces the in-memory collection with the persisted snapshot. A missing,
// unreadable or unparseable snapshot falls back to the seed dataset with fresh ids.
// It reports whether the snapshot was used.
func (c *Catalog) Load() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	books, err := c.readSnapshot()
	restored := err == nil
	if !restored {
		switch {
		case errors.Is(err, ErrNotFound):
			c.log.Info("no saved books, loading seed data", "key", c.key)
		default:
			c.log.Error("failed to load books from storage", "key", c.key, "err", err)
		}
		c.metrics.loadFallbacks.Inc()
		books = c.seedBooks()
	}

	c.books = books
	c.persist()
	c.metrics.books.Set(float64(len(c.books)))
	return restored
}

func (c *Catalog) readSnapshot() ([]Book, error) {
	data, err := c.storage.Get(c.key)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrNotFound
	}
	return decodeSnapshot(data, c.newID)
}

func (c *Catalog) seedBooks() []Book {
	books := make([]Book, 0, len(c.seed))
	for _, s := range c.seed {
		b := Book{ID: c.newID()}
		s.Fields().applyTo(&b)
		books = append(books, b)
	}
	return books
}

// persist writes the full collection. Failures are logged and never returned;
// the in-memory state stays authoritative. Callers hold c.mu.
func (c *Catalog) persist() {
	data, err := encodeSnapshot(c.books)
	if err != nil {
		c.metrics.persistFailures.Inc()
		c.log.Error("failed to encode books", "err", err)
		return
	}
	if err := c.storage.Put(c.key, data); err != nil {
		c.metrics.persistFailures.Inc()
		c.log.Error("failed to save books to storage", "key", c.key, "err", err)
	}
}

// commit is the on-mutation hook. Callers hold c.mu.
func (c *Catalog) commit(op string) {
	c.persist()
	c.metrics.mutations.WithLabelValues(op).Inc()
	c.metrics.books.Set(float64(len(c.books)))
}

// ---------------------------------------------------------------------------
// Mutations
// ---------------------------------------------------------------------------

// Add appends a new unselected book built from fields and returns it.
// Duplicates by title or author are allowed.
func (c *Catalog) Add(fields BookFields) Book {
	c.mu.Lock()
	defer c.mu.Unlock()

	b := Book{ID: c.newID()}
	fields.applyTo(&b)
	c.books = append(c.books, b)
	c.commit("add")
	return b.clone()
}

// Edit merges fields onto the book with id. A missing id is a no-op.
func (c *Catalog) Edit(id string, fields BookFields) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(id)
	if i < 0 {
		return
	}
	fields.applyTo(&c.books[i])
	c.commit("edit")
}

// ToggleSelect flips the selection of the book with id and clears every other book,
// so at most one book is ever selected.
func (c *Catalog) ToggleSelect(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.books {
		if c.books[i].ID == id {
			c.books[i].Selected = !c.books[i].Selected
		} else {
			c.books[i].Selected = false
		}
	}
	c.commit("select")
}

// DeleteSelected removes every selected book, keeping the others in order, and
// returns how many were removed. Loan state is not checked here.
func (c *Catalog) DeleteSelected() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	kept := make([]Book, 0, len(c.books))
	for _, b := range c.books {
		if !b.Selected {
			kept = append(kept, b)
		}
	}
	removed := len(c.books) - len(kept)
	c.books = kept
	c.commit("delete")
	return removed
}

// ApplyLoan marks the record's book as loaned with the record's loan info.
// It returns ErrBookNotFound when the book is not in the catalog.
func (c *Catalog) ApplyLoan(rec LoanRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(rec.BookID)
	if rec.BookID == "" || i < 0 {
		return ErrBookNotFound
	}
	c.books[i].Loaned = true
	c.books[i].LoanInfo = &LoanInfo{
		Borrower:   rec.Borrower,
		LoanPeriod: rec.LoanPeriod,
		Timestamp:  rec.Timestamp,
	}
	c.commit("loan")
	return nil
}

// ---------------------------------------------------------------------------
// Reads
// ---------------------------------------------------------------------------

func (c *Catalog) indexOf(id string) int {
	for i := range c.books {
		if c.books[i].ID == id {
			return i
		}
	}
	return -1
}

// Books returns a copy of the collection in order.
func (c *Catalog) Books() []Book {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Book, len(c.books))
	for i, b := range c.books {
		out[i] = b.clone()
	}
	return out
}

// Book returns the book with id.
func (c *Catalog) Book(id string) (Book, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i := c.indexOf(id); i >= 0 {
		return c.books[i].clone(), true
	}
	return Book{}, false
}

// Len returns the number of books.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.books)
}

// Selection derives the selected books and the edit/delete rules from current state.
func (c *Catalog) Selection() Selection {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var sel Selection
	for _, b := range c.books {
		if !b.Selected {
			continue
		}
		sel.Books = append(sel.Books, b.clone())
		if b.Loaned {
			sel.HasSelectedLoaned = true
		}
	}
	sel.CanEdit = len(sel.Books) == 1 && !sel.HasSelectedLoaned
	sel.CanDelete = len(sel.Books) > 0 && !sel.HasSelectedLoaned
	return sel
}

// Publishers returns the distinct non-empty publishers in first-seen order.
func (c *Catalog) Publishers() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	seen := make(map[string]struct{})
	var out []string
	for _, b := range c.books {
		if b.Publisher == "" {
			continue
		}
		if _, ok := seen[b.Publisher]; ok {
			continue
		}
		seen[b.Publisher] = struct{}{}
		out = append(out, b.Publisher)
	}
	return out
}

// FilterByPublisher returns the books from publisher; "" returns all books.
func (c *Catalog) FilterByPublisher(publisher string) []Book {
	if publisher == "" {
		return c.Books()
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []Book
	for _, b := range c.books {
		if b.Publisher == publisher {
			out = append(out, b.clone())
		}
	}
	return out
}
