package library

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"

	jsoniter "github.com/json-iterator/go"
)

var errNullSnapshot = errors.New("snapshot is null")

// storedBook is the tolerant decoding shape of a persisted book. Scalars may arrive as
// strings or numbers and the flags may hold any JSON value.
type storedBook struct {
	ID          looseString         `json:"id"`
	ImgSrc      looseString         `json:"imgSrc"`
	ImgAlt      looseString         `json:"imgAlt"`
	BookLink    looseString         `json:"bookLink"`
	Title       looseString         `json:"bookTitle"`
	Price       looseString         `json:"bookPrice"`
	Author      looseString         `json:"bookAuthor"`
	Publisher   looseString         `json:"publisher"`
	Publication looseString         `json:"publication"`
	Pages       looseString         `json:"pages"`
	Language    looseString         `json:"language"`
	Selected    jsoniter.RawMessage `json:"selected"`
	Loaned      jsoniter.RawMessage `json:"loaned"`
	LoanInfo    jsoniter.RawMessage `json:"loanInfo"`
}

type storedLoanInfo struct {
	Borrower   looseString `json:"borrower"`
	LoanPeriod looseString `json:"loanPeriod"`
	Timestamp  looseString `json:"timestamp"`
}

func encodeSnapshot(books []Book) ([]byte, error) {
	if books == nil {
		books = []Book{}
	}
	return snapshotJSON.Marshal(books)
}

// decodeSnapshot parses a persisted array of books. Only a top-level value that is not
// an array is an error; elements that are not objects are skipped and odd field values
// decode to their zero value. Flags are normalized to strict booleans and loanInfo is
// kept only on loaned books.
func decodeSnapshot(data []byte, newID func() string) ([]Book, error) {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil, errNullSnapshot
	}
	var raw []jsoniter.RawMessage
	if err := snapshotJSON.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}

	books := make([]Book, 0, len(raw))
	for _, elem := range raw {
		if !isObject(elem) {
			continue
		}
		var s storedBook
		if err := snapshotJSON.Unmarshal(elem, &s); err != nil {
			continue
		}
		b := Book{
			ID:          string(s.ID),
			ImgSrc:      string(s.ImgSrc),
			ImgAlt:      string(s.ImgAlt),
			BookLink:    string(s.BookLink),
			Title:       string(s.Title),
			Price:       string(s.Price),
			Author:      string(s.Author),
			Publisher:   string(s.Publisher),
			Publication: string(s.Publication),
			Pages:       string(s.Pages),
			Language:    string(s.Language),
			Selected:    truthy(s.Selected),
			Loaned:      truthy(s.Loaned),
		}
		if b.ID == "" {
			b.ID = newID()
		}
		if b.Loaned {
			info := LoanInfo{}
			var stored storedLoanInfo
			if isObject(s.LoanInfo) && snapshotJSON.Unmarshal(s.LoanInfo, &stored) == nil {
				info.Borrower = string(stored.Borrower)
				info.LoanPeriod = int(parseNumber(stored.LoanPeriod))
				info.Timestamp = parseNumber(stored.Timestamp)
			}
			b.LoanInfo = &info
		}
		books = append(books, b)
	}
	return books, nil
}

// truthy applies JavaScript truthiness to a raw JSON value: missing, null, false,
// 0 and "" are false.
func truthy(raw jsoniter.RawMessage) bool {
	v := bytes.TrimSpace(raw)
	if len(v) == 0 {
		return false
	}
	switch string(v) {
	case "null", "false", `""`:
		return false
	}
	if f, err := strconv.ParseFloat(string(v), 64); err == nil {
		return f != 0
	}
	return true
}

func isObject(raw jsoniter.RawMessage) bool {
	v := bytes.TrimSpace(raw)
	return len(v) > 0 && v[0] == '{'
}

func parseNumber(s looseString) int64 {
	f, err := strconv.ParseFloat(string(s), 64)
	if err != nil {
		return 0
	}
	return int64(f)
}
