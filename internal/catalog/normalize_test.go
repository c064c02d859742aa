package catalog

import (
	"errors"
	"testing"

	"mediaradar/catalogservice/internal/domain"
)

// ---------------------------------------------------------------------------
// Shape detection
// ---------------------------------------------------------------------------

const movieEntry = `{"1080p": [{"filename": "Movie.2024.1080p.mkv", "href": "http://x/a"}]}`
const showEntry = `{"720p": [{"filename": "Show.S01E01.720p.mkv", "href": "http://x/b"}]}`

func TestNormalizeArrayWrapped(t *testing.T) {
	blob := `[{"Inception (2010)": ` + movieEntry + `}]`
	entries, shape, total, err := Normalize([]byte(blob), domain.KindMovies, PatternClassifier{})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if shape != ShapeArrayWrapped {
		t.Errorf("shape = %q, want %q", shape, ShapeArrayWrapped)
	}
	if total != 1 || len(entries) != 1 {
		t.Fatalf("total = %d, entries = %d, want 1/1", total, len(entries))
	}
	if entries[0].Key != "Inception (2010)" {
		t.Errorf("key = %q", entries[0].Key)
	}
	if entries[0].TotalFiles() != 1 {
		t.Errorf("totalFiles = %d, want 1", entries[0].TotalFiles())
	}
}

func TestNormalizeNestedObject(t *testing.T) {
	blob := `{"movies": {"Inception (2010)": ` + movieEntry + `}}`
	entries, shape, _, err := Normalize([]byte(blob), domain.KindMovies, PatternClassifier{})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if shape != ShapeNestedObject {
		t.Errorf("shape = %q, want %q", shape, ShapeNestedObject)
	}
	if len(entries) != 1 || entries[0].Kind != domain.KindMovies {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}

func TestNormalizeSplitObject(t *testing.T) {
	blob := `{"movies": {"Inception (2010)": ` + movieEntry + `}, "tvshows": {"Show (2020)": ` + showEntry + `}}`

	// Requesting tvshows hits the nested branch for that key.
	entries, shape, _, err := Normalize([]byte(blob), domain.KindTVShows, PatternClassifier{})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if shape != ShapeNestedObject {
		t.Errorf("shape = %q, want %q", shape, ShapeNestedObject)
	}
	if len(entries) != 1 || entries[0].Key != "Show (2020)" {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}

func TestNormalizeSplitObjectMissingSection(t *testing.T) {
	// tvshows present but not an object forces the split branch with an
	// empty movies side absent.
	blob := `{"movies": true, "tvshows": {"Show (2020)": ` + showEntry + `}}`
	entries, shape, total, err := Normalize([]byte(blob), domain.KindMovies, PatternClassifier{})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if shape != ShapeSplitObject {
		t.Errorf("shape = %q, want %q", shape, ShapeSplitObject)
	}
	if total != 0 || len(entries) != 0 {
		t.Errorf("total = %d, entries = %d, want 0/0", total, len(entries))
	}
}

func TestNormalizeFalsySectionValueIsMixed(t *testing.T) {
	// A degenerate movies value (0, "", false, null) does not make the
	// blob split-shaped; classification falls back to the key patterns.
	for _, falsy := range []string{`0`, `""`, `false`, `null`} {
		blob := `{"movies": ` + falsy + `, "tvshows": {"Show S01 (2020)": ` + showEntry + `}}`
		entries, shape, _, err := Normalize([]byte(blob), domain.KindMovies, PatternClassifier{})
		if err != nil {
			t.Fatalf("Normalize(movies=%s): %v", falsy, err)
		}
		if shape != ShapeMixedObject {
			t.Errorf("movies=%s: shape = %q, want %q", falsy, shape, ShapeMixedObject)
		}
		for _, entry := range entries {
			if entry.TotalFiles() != 0 {
				t.Errorf("movies=%s: entry %q has files, want none", falsy, entry.Key)
			}
		}
	}
}

func TestNormalizeMixedObject(t *testing.T) {
	blob := `{"Inception (2010)": ` + movieEntry + `, "Breaking Point S01 (2020)": ` + showEntry + `}`

	movies, shape, total, err := Normalize([]byte(blob), domain.KindMovies, PatternClassifier{})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if shape != ShapeMixedObject {
		t.Errorf("shape = %q, want %q", shape, ShapeMixedObject)
	}
	if total != 2 {
		t.Errorf("total = %d, want 2", total)
	}
	if len(movies) != 1 || movies[0].Key != "Inception (2010)" {
		t.Fatalf("unexpected movies: %+v", movies)
	}

	shows, _, _, err := Normalize([]byte(blob), domain.KindTVShows, PatternClassifier{})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(shows) != 1 || shows[0].Key != "Breaking Point S01 (2020)" {
		t.Fatalf("unexpected shows: %+v", shows)
	}
}

func TestNormalizeMixedObjectClassifiesByFilename(t *testing.T) {
	// Key has no TV marker; a filename does.
	blob := `{"Quiet Title (2021)": {"720p": [{"filename": "Quiet.Title.S03E01.mkv"}]}}`
	shows, _, _, err := Normalize([]byte(blob), domain.KindTVShows, PatternClassifier{})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(shows) != 1 {
		t.Fatalf("filename TV marker not honored: %+v", shows)
	}
}

// ---------------------------------------------------------------------------
// Malformed payloads
// ---------------------------------------------------------------------------

func TestNormalizeMalformed(t *testing.T) {
	cases := []string{
		``,
		`[]`,
		`[42]`,
		`"just a string"`,
		`123`,
		`{"movies": oops`,
	}
	for _, blob := range cases {
		_, _, _, err := Normalize([]byte(blob), domain.KindMovies, PatternClassifier{})
		if !errors.Is(err, ErrMalformedCatalog) {
			t.Errorf("Normalize(%q) err = %v, want ErrMalformedCatalog", blob, err)
		}
	}
}

func TestNormalizeTolerantQualities(t *testing.T) {
	// A quality whose value is not an array is dropped, not fatal.
	blob := `{"movies": {"Odd (2020)": {"1080p": "broken", "720p": [{"filename": "Odd.2020.mkv"}]}}}`
	entries, _, _, err := Normalize([]byte(blob), domain.KindMovies, PatternClassifier{})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(entries) != 1 || entries[0].TotalFiles() != 1 {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}

// ---------------------------------------------------------------------------
// Key order
// ---------------------------------------------------------------------------

func TestNormalizePreservesKeyOrder(t *testing.T) {
	blob := `{"movies": {` +
		`"Zebra (2020)": ` + movieEntry + `,` +
		`"Alpha (2021)": ` + movieEntry + `,` +
		`"Mango (2022)": ` + movieEntry + `}}`
	entries, _, _, err := Normalize([]byte(blob), domain.KindMovies, PatternClassifier{})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	want := []string{"Zebra (2020)", "Alpha (2021)", "Mango (2022)"}
	if len(entries) != len(want) {
		t.Fatalf("got %d entries", len(entries))
	}
	for i, key := range want {
		if entries[i].Key != key {
			t.Errorf("entries[%d].Key = %q, want %q", i, entries[i].Key, key)
		}
	}
}
