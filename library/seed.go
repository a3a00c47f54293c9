package library

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	jsoniter "github.com/json-iterator/go"
)

var snapshotJSON = jsoniter.ConfigCompatibleWithStandardLibrary

//go:embed data/books.json
var embeddedSeed []byte

// SeedBook is one descriptor of the static seed list. It has no id and no loan state.
type SeedBook struct {
	Image           looseString `json:"image"`
	Title           looseString `json:"title"`
	URL             looseString `json:"url"`
	Price           looseString `json:"price"`
	Author          looseString `json:"author"`
	Publisher       looseString `json:"Publisher"`
	PublicationYear looseString `json:"Publication Year"`
	Pages           looseString `json:"Pages"`
	Language        looseString `json:"Language"`
}

// Fields maps the descriptor onto book fields. The title doubles as image alt text.
func (s SeedBook) Fields() BookFields {
	return BookFields{
		ImgSrc:      Str(string(s.Image)),
		ImgAlt:      Str(string(s.Title)),
		BookLink:    Str(string(s.URL)),
		Title:       Str(string(s.Title)),
		Price:       Str(string(s.Price)),
		Author:      Str(string(s.Author)),
		Publisher:   Str(string(s.Publisher)),
		Publication: Str(string(s.PublicationYear)),
		Pages:       Str(string(s.Pages)),
		Language:    Str(string(s.Language)),
	}
}

// DecodeSeed parses a JSON array of seed descriptors.
func DecodeSeed(data []byte) ([]SeedBook, error) {
	var seed []SeedBook
	if err := snapshotJSON.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	return seed, nil
}

// LoadSeedFile reads and decodes a seed file.
func LoadSeedFile(path string) ([]SeedBook, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	return DecodeSeed(data)
}

var defaultSeed = sync.OnceValue(func() []SeedBook {
	seed, err := DecodeSeed(embeddedSeed)
	if err != nil {
		panic(err)
	}
	return seed
})

// DefaultSeed returns the embedded seed dataset.
func DefaultSeed() []SeedBook {
	return append([]SeedBook(nil), defaultSeed()...)
}

// looseString accepts a JSON string, number or boolean. Null, objects and arrays
// decode to "" so one odd field never rejects the whole record.
type looseString string

func (s *looseString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*s = ""
	case data[0] == '"':
		var str string
		if err := snapshotJSON.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = looseString(str)
	case data[0] == '{' || data[0] == '[':
		*s = ""
	default:
		*s = looseString(data)
	}
	return nil
}
