package catalog

import (
	"encoding/json"
	"errors"
	"testing"

	"mediaradar/catalogservice/internal/domain"
)

func makeEntry(key string, qualities map[string][]domain.FileRecord) domain.Entry {
	return domain.Entry{Key: key, Kind: domain.KindMovies, Qualities: qualities}
}

func makeEntries(keys ...string) []domain.Entry {
	entries := make([]domain.Entry, 0, len(keys))
	for _, key := range keys {
		entries = append(entries, makeEntry(key, map[string][]domain.FileRecord{
			"1080p": {{Filename: key + ".mkv"}},
		}))
	}
	return entries
}

// ---------------------------------------------------------------------------
// Paginate
// ---------------------------------------------------------------------------

func TestPaginateFirstPage(t *testing.T) {
	entries := makeEntries("a", "b", "c", "d", "e")
	page, pagination, err := Paginate(entries, 1, 2)
	if err != nil {
		t.Fatalf("Paginate: %v", err)
	}
	if len(page) != 2 || page[0].Key != "a" || page[1].Key != "b" {
		t.Fatalf("unexpected page: %+v", page)
	}
	if pagination.TotalPages != 3 || pagination.TotalItems != 5 {
		t.Errorf("pagination = %+v", pagination)
	}
	if !pagination.HasNextPage || pagination.HasPrevPage {
		t.Errorf("page flags = %+v", pagination)
	}
}

func TestPaginateLastPartialPage(t *testing.T) {
	entries := makeEntries("a", "b", "c", "d", "e")
	page, pagination, err := Paginate(entries, 3, 2)
	if err != nil {
		t.Fatalf("Paginate: %v", err)
	}
	if len(page) != 1 || page[0].Key != "e" {
		t.Fatalf("unexpected page: %+v", page)
	}
	if pagination.HasNextPage || !pagination.HasPrevPage {
		t.Errorf("page flags = %+v", pagination)
	}
}

func TestPaginateBeyondEnd(t *testing.T) {
	entries := makeEntries("a", "b")
	page, pagination, err := Paginate(entries, 9, 10)
	if err != nil {
		t.Fatalf("Paginate: %v", err)
	}
	if len(page) != 0 {
		t.Errorf("expected empty page, got %d items", len(page))
	}
	if pagination.HasNextPage {
		t.Error("hasNextPage should be false past the end")
	}
}

func TestPaginateEmptyList(t *testing.T) {
	page, pagination, err := Paginate(nil, 1, 20)
	if err != nil {
		t.Fatalf("Paginate: %v", err)
	}
	if len(page) != 0 || pagination.TotalPages != 0 || pagination.TotalItems != 0 {
		t.Errorf("unexpected result: %+v %+v", page, pagination)
	}
}

func TestPaginateInvalidParams(t *testing.T) {
	for _, tc := range []struct{ page, limit int }{{0, 20}, {1, 0}, {-1, 20}, {1, -5}} {
		if _, _, err := Paginate(nil, tc.page, tc.limit); !errors.Is(err, ErrInvalidPage) {
			t.Errorf("Paginate(page=%d, limit=%d) err = %v, want ErrInvalidPage", tc.page, tc.limit, err)
		}
	}
}

// ---------------------------------------------------------------------------
// DropEmpty
// ---------------------------------------------------------------------------

func TestDropEmpty(t *testing.T) {
	entries := []domain.Entry{
		makeEntry("full", map[string][]domain.FileRecord{"1080p": {{Filename: "a.mkv"}}}),
		makeEntry("empty", map[string][]domain.FileRecord{"1080p": {}}),
		makeEntry("noQualities", map[string][]domain.FileRecord{}),
	}
	kept := DropEmpty(entries)
	if len(kept) != 1 || kept[0].Key != "full" {
		t.Fatalf("DropEmpty kept %+v", kept)
	}
}

// ---------------------------------------------------------------------------
// Quality / language / title filters
// ---------------------------------------------------------------------------

func TestFilterByQuality(t *testing.T) {
	entries := []domain.Entry{
		makeEntry("hd", map[string][]domain.FileRecord{"1080p": {{Filename: "a.mkv"}}}),
		makeEntry("sd", map[string][]domain.FileRecord{"480p": {{Filename: "b.mkv"}}}),
		makeEntry("hdEmpty", map[string][]domain.FileRecord{"1080p": {}}),
	}
	kept := FilterByQuality(entries, "1080p")
	if len(kept) != 1 || kept[0].Key != "hd" {
		t.Fatalf("FilterByQuality kept %+v", kept)
	}
}

func TestFilterByLanguage(t *testing.T) {
	entries := []domain.Entry{
		makeEntry("tamil", map[string][]domain.FileRecord{
			"1080p": {{Filename: "a.mkv", Language: json.RawMessage(`"Tamil"`)}},
		}),
		makeEntry("hindi", map[string][]domain.FileRecord{
			"1080p": {{Filename: "b.mkv", Language: json.RawMessage(`"Hindi"`)}},
		}),
		makeEntry("none", map[string][]domain.FileRecord{
			"1080p": {{Filename: "c.mkv"}},
		}),
	}
	kept := FilterByLanguage(entries, "tam")
	if len(kept) != 1 || kept[0].Key != "tamil" {
		t.Fatalf("FilterByLanguage kept %+v", kept)
	}
}

func TestFilterByLanguageObjectShape(t *testing.T) {
	entries := []domain.Entry{
		makeEntry("obj", map[string][]domain.FileRecord{
			"720p": {{Filename: "a.mkv", Language: json.RawMessage(`{"name": "Telugu"}`)}},
		}),
	}
	if kept := FilterByLanguage(entries, "telugu"); len(kept) != 1 {
		t.Fatalf("object language shape not matched: %+v", kept)
	}
}

func TestFilterByTitle(t *testing.T) {
	entries := makeEntries("Inception (2010)", "Interstellar (2014)", "Dunkirk (2017)")
	kept := FilterByTitle(entries, "inter")
	if len(kept) != 1 || kept[0].Key != "Interstellar (2014)" {
		t.Fatalf("FilterByTitle kept %+v", kept)
	}
	if kept := FilterByTitle(entries, "  "); len(kept) != 3 {
		t.Errorf("blank query should keep everything, kept %d", len(kept))
	}
}

// ---------------------------------------------------------------------------
// EntryByID
// ---------------------------------------------------------------------------

func TestEntryByID(t *testing.T) {
	entries := makeEntries("a", "b", "c")
	entry, err := EntryByID(entries, 2)
	if err != nil {
		t.Fatalf("EntryByID: %v", err)
	}
	if entry.Key != "b" {
		t.Errorf("entry.Key = %q, want b", entry.Key)
	}
}

func TestEntryByIDOutOfRange(t *testing.T) {
	entries := makeEntries("a", "b")
	for _, id := range []int{0, -1, 3} {
		if _, err := EntryByID(entries, id); !errors.Is(err, ErrNotFound) {
			t.Errorf("EntryByID(%d) err = %v, want ErrNotFound", id, err)
		}
	}
}

// ---------------------------------------------------------------------------
// PatternClassifier
// ---------------------------------------------------------------------------

func TestPatternClassifier(t *testing.T) {
	cases := []struct {
		key   string
		files []string
		want  domain.MediaKind
	}{
		{"Inception (2010)", nil, domain.KindMovies},
		{"Show S01 (2020)", nil, domain.KindTVShows},
		{"Show Season 2 (2020)", nil, domain.KindTVShows},
		{"Something Episode Guide", nil, domain.KindTVShows},
		{"The Complete Series (1999)", nil, domain.KindTVShows},
		{"Plain Title", []string{"Plain.Title.S02E03.mkv"}, domain.KindTVShows},
		{"Plain Title", []string{"Plain.Title.2024.1080p.mkv"}, domain.KindMovies},
	}
	classifier := PatternClassifier{}
	for _, tc := range cases {
		got := classifier.Classify(tc.key, tc.files)
		if got != tc.want {
			t.Errorf("Classify(%q, %v) = %q, want %q", tc.key, tc.files, got, tc.want)
		}
	}
}
