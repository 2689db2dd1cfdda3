package hadith

import (
	"bytes"
	_ "embed"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/Nixie-Tech-LLC/salah/internal/model"
)

//go:embed seed.json
var seed []byte

// Filters narrows a search. Empty or "all" disables a filter.
type Filters struct {
	Book     string
	Category string
	Narrator string
}

// Store is an in-memory, read-mostly set of records kept in source order.
type Store struct {
	mu      sync.RWMutex
	records []model.HadithRecord
	byID    map[string]int
	// lower-cased concatenation of searchable fields, parallel to records
	haystack []string
}

// NewStore builds a store from already validated records.
func NewStore(records []model.HadithRecord) *Store {
	s := &Store{}
	s.Replace(records)
	return s
}

// SeedStore builds a store from the embedded sample collection.
func SeedStore() (*Store, error) {
	records, err := ParseRecords(bytes.NewReader(seed))
	if err != nil {
		return nil, err
	}
	return NewStore(records), nil
}

// Replace swaps the whole record set, e.g. after an import.
func (s *Store) Replace(records []model.HadithRecord) {
	byID := make(map[string]int, len(records))
	haystack := make([]string, len(records))
	for i := range records {
		if records[i].ID == "" {
			records[i].ID = DocumentID(prefixFor(records[i].Collection), records[i])
		}
		byID[records[i].ID] = i
		haystack[i] = searchText(records[i])
	}

	s.mu.Lock()
	s.records = records
	s.byID = byID
	s.haystack = haystack
	s.mu.Unlock()
}

// Search returns every record whose searchable text contains query, in
// source order. An empty query returns the whole set and ignores the
// filters. The result is never nil.
func (s *Store) Search(query string, f Filters) []model.HadithRecord {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		s.mu.RLock()
		defer s.mu.RUnlock()
		return append(make([]model.HadithRecord, 0, len(s.records)), s.records...)
	}
	book := normalizeFilter(f.Book)
	if book != "" {
		book = collectionFor(book)
	}
	category := normalizeFilter(f.Category)
	narrator := strings.ToLower(normalizeFilter(f.Narrator))

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.HadithRecord, 0)
	for i, rec := range s.records {
		if book != "" && !strings.EqualFold(rec.Collection, book) {
			continue
		}
		if category != "" && !strings.EqualFold(rec.Category, category) {
			continue
		}
		if narrator != "" && !strings.Contains(strings.ToLower(rec.Narrator), narrator) {
			continue
		}
		if !strings.Contains(s.haystack[i], q) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// Get looks a record up by id.
func (s *Store) Get(id string) (model.HadithRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.byID[id]
	if !ok {
		return model.HadithRecord{}, false
	}
	return s.records[i], true
}

// Books returns the static catalogue.
func (s *Store) Books() []model.Book {
	return append([]model.Book(nil), Books...)
}

// Categories lists the distinct categories present, sorted.
func (s *Store) Categories() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, rec := range s.records {
		if rec.Category == "" {
			continue
		}
		if _, ok := seen[rec.Category]; ok {
			continue
		}
		seen[rec.Category] = struct{}{}
		out = append(out, rec.Category)
	}
	sort.Strings(out)
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func normalizeFilter(v string) string {
	v = strings.TrimSpace(v)
	if strings.EqualFold(v, "all") {
		return ""
	}
	return v
}

func searchText(rec model.HadithRecord) string {
	return strings.ToLower(strings.Join([]string{
		rec.ArabicText,
		rec.EnglishText,
		rec.Narrator,
		rec.Collection,
		rec.Category,
		rec.Grade,
		strconv.Itoa(rec.HadithNumber),
	}, " "))
}

// prefixFor picks an id prefix for records that arrive without one.
func prefixFor(collection string) string {
	c := strings.ToLower(collection)
	switch {
	case strings.Contains(c, "bukhari"):
		return "bukhari"
	case strings.Contains(c, "muslim"):
		return "muslim"
	case strings.Contains(c, "dawud"):
		return "abudawud"
	case strings.Contains(c, "tirmidhi"):
		return "tirmidhi"
	case strings.Contains(c, "nasai"):
		return "nasai"
	case strings.Contains(c, "majah"):
		return "ibnmajah"
	}
	return "hadith"
}
