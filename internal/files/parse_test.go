package files

import (
	"encoding/json"
	"testing"
)

// ---------------------------------------------------------------------------
// CleanFilename
// ---------------------------------------------------------------------------

func TestCleanFilenameDomainPrefix(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"www.1TamilMV.tube - Movie.2024.1080p.mkv", "Movie.2024.1080p.mkv"},
		{"www.TamilMV.com - Show.S01E01.mkv", "Show.S01E01.mkv"},
		{"1TamilMV.tube - Movie.mkv", "Movie.mkv"},
		{"www.SomeSite.org - Movie.mkv", "Movie.mkv"},
		{"Movie.2024.1080p.mkv", "Movie.2024.1080p.mkv"},
	}
	for _, tc := range cases {
		got := CleanFilename(tc.input)
		if got != tc.want {
			t.Errorf("CleanFilename(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestCleanFilenameTorrentSuffix(t *testing.T) {
	got := CleanFilename("Movie.2024.1080p.mkv.torrent")
	if got != "Movie.2024.1080p.mkv" {
		t.Errorf("CleanFilename: got %q", got)
	}
}

func TestCleanFilenameEmpty(t *testing.T) {
	if got := CleanFilename(""); got != "" {
		t.Errorf("CleanFilename(\"\") = %q, want empty", got)
	}
}

// ---------------------------------------------------------------------------
// ExtractSizeFromFilename
// ---------------------------------------------------------------------------

func TestExtractSizeFromFilename(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"Movie.2024.3.2GB.mkv", "3.2GB"},
		{"Movie.2024.700MB.mkv", "700MB"},
		{"Movie.2024.1.5 GB.mkv", "1.5 GB"},
		{"Movie.2024.1080p.BluRay.x264.mkv", "Unknown"},
		{"", "Unknown"},
	}
	for _, tc := range cases {
		got := ExtractSizeFromFilename(tc.input)
		if got != tc.want {
			t.Errorf("ExtractSizeFromFilename(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestExtractSizeIgnoresAudioBitrate(t *testing.T) {
	got := ExtractSizeFromFilename("Movie.2024.1080p.BluRay.x264-192Kbps.mkv")
	if got != "Unknown" {
		t.Errorf("bitrate treated as size: got %q", got)
	}
}

func TestExtractSizeIgnoresSmallKB(t *testing.T) {
	got := ExtractSizeFromFilename("Sample.500KB.mkv")
	if got != "Unknown" {
		t.Errorf("small KB value treated as size: got %q", got)
	}
}

func TestExtractSizeAcceptsLargeKB(t *testing.T) {
	got := ExtractSizeFromFilename("Movie.150000KB.mkv")
	if got != "150000KB" {
		t.Errorf("large KB value not extracted: got %q", got)
	}
}

func TestExtractSizePrefersLargerUnit(t *testing.T) {
	got := ExtractSizeFromFilename("Movie.700MB.also.1.4GB.mkv")
	if got != "1.4GB" {
		t.Errorf("unit priority: got %q, want 1.4GB", got)
	}
}

func TestExtractSizePrefersLargerValueSameUnit(t *testing.T) {
	got := ExtractSizeFromFilename("Pack.1.2GB.and.3.5GB.mkv")
	if got != "3.5GB" {
		t.Errorf("value priority: got %q, want 3.5GB", got)
	}
}

// ---------------------------------------------------------------------------
// FormatFileSize
// ---------------------------------------------------------------------------

func TestFormatFileSizeBytes(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"2147483648", "2 GB"},
		{"1073741824", "1 GB"},
		{"734003200", "700 MB"},
		{"1536", "1.5 KB"},
		{"512", "512 B"},
		{"0.5", "0.5 B"},
	}
	for _, tc := range cases {
		got := FormatFileSize(json.RawMessage(tc.input))
		if got != tc.want {
			t.Errorf("FormatFileSize(%s) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestFormatFileSizeString(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{`"3.2gb"`, "3.2GB"},
		{`"1.5  GB"`, "1.5 GB"},
		{`"700 mb"`, "700 MB"},
		{`"weird value"`, "weird value"},
	}
	for _, tc := range cases {
		got := FormatFileSize(json.RawMessage(tc.input))
		if got != tc.want {
			t.Errorf("FormatFileSize(%s) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestFormatFileSizeAbsent(t *testing.T) {
	if got := FormatFileSize(nil); got != "" {
		t.Errorf("FormatFileSize(nil) = %q, want empty", got)
	}
	if got := FormatFileSize(json.RawMessage("null")); got != "" {
		t.Errorf("FormatFileSize(null) = %q, want empty", got)
	}
	if got := FormatFileSize(json.RawMessage("0")); got != "" {
		t.Errorf("FormatFileSize(0) = %q, want empty", got)
	}
}

// ---------------------------------------------------------------------------
// NormalizeLanguage
// ---------------------------------------------------------------------------

func TestNormalizeLanguageShapes(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{`"Tamil"`, "Tamil"},
		{`"  english  "`, "English"},
		{`["Hindi", "Tamil"]`, "Hindi"},
		{`{"name": "Telugu"}`, "Telugu"},
		{`{"value": "malayalam"}`, "Malayalam"},
		{`{"label": "Kannada"}`, "Kannada"},
		{`{}`, ""},
		{`42`, "42"},
		{`true`, ""},
		{`null`, ""},
		{`""`, ""},
		{`[]`, ""},
	}
	for _, tc := range cases {
		got := NormalizeLanguage(json.RawMessage(tc.input))
		if got != tc.want {
			t.Errorf("NormalizeLanguage(%s) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestNormalizeLanguageNestedArray(t *testing.T) {
	got := NormalizeLanguage(json.RawMessage(`[["Tamil"]]`))
	if got != "Tamil" {
		t.Errorf("nested array: got %q, want Tamil", got)
	}
}

// ---------------------------------------------------------------------------
// Season / episode / year extraction
// ---------------------------------------------------------------------------

func TestExtractSeasonEpisode(t *testing.T) {
	name := "Show.S02E05.720p.mkv"
	if got := ExtractSeason(name); got != 2 {
		t.Errorf("ExtractSeason = %d, want 2", got)
	}
	if got := ExtractEpisode(name); got != 5 {
		t.Errorf("ExtractEpisode = %d, want 5", got)
	}
	if _, _, ok := ExtractEpisodeRange(name); ok {
		t.Error("single episode reported as range")
	}
}

func TestExtractEpisodeRange(t *testing.T) {
	start, end, ok := ExtractEpisodeRange("Show.S01E01-E06.mkv")
	if !ok || start != 1 || end != 6 {
		t.Fatalf("ExtractEpisodeRange = (%d, %d, %v), want (1, 6, true)", start, end, ok)
	}
}

func TestExtractReleaseYear(t *testing.T) {
	cases := []struct {
		input string
		want  int
	}{
		{"Movie.2024.1080p.mkv", 2024},
		{"Classic.1994.mkv", 1994},
		{"NoYear.1080p.mkv", 0},
	}
	for _, tc := range cases {
		got := ExtractReleaseYear(tc.input)
		if got != tc.want {
			t.Errorf("ExtractReleaseYear(%q) = %d, want %d", tc.input, got, tc.want)
		}
	}
}

// ---------------------------------------------------------------------------
// GenreFromTitle
// ---------------------------------------------------------------------------

func TestGenreFromTitle(t *testing.T) {
	cases := []struct {
		title string
		want  string
	}{
		{"Comali 2", "Comedy"},
		{"Bombay Diaries", "Drama"},
		{"The Flask", "Thriller"},
		{"Lilo and Stitch", "Animation, Family"},
		{"Peacemaker Returns", "Action, Adventure"},
		{"Some Random Title", "Unknown"},
	}
	for _, tc := range cases {
		got := GenreFromTitle(tc.title)
		if got != tc.want {
			t.Errorf("GenreFromTitle(%q) = %q, want %q", tc.title, got, tc.want)
		}
	}
}
