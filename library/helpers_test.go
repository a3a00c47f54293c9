package library

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// logSpy is a slog.Handler that captures records for assertions.
type logSpy struct {
	mu      sync.Mutex
	records []slog.Record
}

func (s *logSpy) Handle(_ context.Context, r slog.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, r)
	return nil
}

func (s *logSpy) Enabled(context.Context, slog.Level) bool { return true }
func (s *logSpy) WithAttrs([]slog.Attr) slog.Handler       { return s }
func (s *logSpy) WithGroup(string) slog.Handler            { return s }

// messages returns the messages logged at level or above.
func (s *logSpy) messages(level slog.Level) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, r := range s.records {
		if r.Level >= level {
			out = append(out, r.Message)
		}
	}
	return out
}

func newSpyLogger() (*slog.Logger, *logSpy) {
	spy := &logSpy{}
	return slog.New(spy), spy
}

var errDiskFull = errors.New("quota exceeded")

// flakyStorage wraps MemoryStorage and fails reads or writes on demand.
type flakyStorage struct {
	*MemoryStorage
	failGet bool
	failPut bool
	puts    int
}

func newFlakyStorage() *flakyStorage {
	return &flakyStorage{MemoryStorage: NewMemoryStorage()}
}

func (f *flakyStorage) Get(key string) ([]byte, error) {
	if f.failGet {
		return nil, fmt.Errorf("read %s: %w", key, errDiskFull)
	}
	return f.MemoryStorage.Get(key)
}

func (f *flakyStorage) Put(key string, value []byte) error {
	f.puts++
	if f.failPut {
		return errDiskFull
	}
	return f.MemoryStorage.Put(key, value)
}

// testSeed is a small seed dataset with two publishers.
func testSeed() []SeedBook {
	return []SeedBook{
		{Title: "Go in Action", Author: "Kennedy", Publisher: "Manning", Price: "$39.99", PublicationYear: "2015", Pages: "264", Language: "English"},
		{Title: "Concurrency in Go", Author: "Cox-Buday", Publisher: "O'Reilly Media", Price: "$39.99", PublicationYear: "2017", Pages: "238", Language: "English"},
		{Title: "Get Programming with Go", Author: "Youngman", Publisher: "Manning", Price: "$34.99", PublicationYear: "2018", Pages: "360", Language: "English"},
	}
}

// sequentialIDs returns an id generator yielding book-1, book-2, ...
func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("book-%d", n)
	}
}

func newTestCatalog(opts ...CatalogOption) (*Catalog, *flakyStorage) {
	st := newFlakyStorage()
	base := []CatalogOption{WithSeed(testSeed()), WithIDGenerator(sequentialIDs())}
	return OpenCatalog(st, append(base, opts...)...), st
}
