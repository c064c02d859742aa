package domain

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"
)

type MediaKind string

const (
	KindMovies  MediaKind = "movies"
	KindTVShows MediaKind = "tvshows"
)

func NormalizeKind(raw string) MediaKind {
	switch MediaKind(strings.ToLower(strings.TrimSpace(raw))) {
	case KindTVShows:
		return KindTVShows
	default:
		return KindMovies
	}
}

// FileRecord is one scraped download listing as it appears in the raw
// catalog blob. Size and Language stay raw because upstream scrapers emit
// them as strings, numbers, arrays or objects depending on the source site.
type FileRecord struct {
	Filename   string          `json:"filename"`
	Name       string          `json:"name,omitempty"`
	Href       string          `json:"href,omitempty"`
	URL        string          `json:"url,omitempty"`
	Size       json.RawMessage `json:"size,omitempty"`
	Language   json.RawMessage `json:"language,omitempty"`
	MagnetLink string          `json:"magnetLink,omitempty"`
	PosterURL  string          `json:"posterUrl,omitempty"`
}

func (f FileRecord) DisplayName() string {
	if f.Filename != "" {
		return f.Filename
	}
	return f.Name
}

func (f FileRecord) Link() string {
	if f.Href != "" {
		return f.Href
	}
	if f.URL != "" {
		return f.URL
	}
	return "#"
}

// Entry is one catalog key ("Title (Year)") with its files grouped by
// quality label. Order of entries follows key order in the source blob.
type Entry struct {
	Key       string
	Kind      MediaKind
	Qualities map[string][]FileRecord
}

func (e Entry) TotalFiles() int {
	total := 0
	for _, files := range e.Qualities {
		total += len(files)
	}
	return total
}

func (e Entry) FileNames() []string {
	names := make([]string, 0, e.TotalFiles())
	for _, files := range e.Qualities {
		for _, f := range files {
			if name := f.DisplayName(); name != "" {
				names = append(names, name)
			}
		}
	}
	return names
}

var keyPattern = regexp.MustCompile(`^(.+?)\s*\((\d{4})\)$`)

// ParseKey splits a "Title (Year)" catalog key. Keys without a trailing
// year keep the whole key as title and get the current year.
func ParseKey(key string) (string, int) {
	if m := keyPattern.FindStringSubmatch(key); m != nil {
		year, _ := strconv.Atoi(m[2])
		return m[1], year
	}
	return key, time.Now().Year()
}

type EpisodeRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

type DownloadFile struct {
	Filename         string        `json:"filename"`
	OriginalFilename string        `json:"originalFilename"`
	Href             string        `json:"href"`
	Size             string        `json:"size"`
	SizeSource       string        `json:"sizeSource"`
	MagnetLink       string        `json:"magnetLink,omitempty"`
	Language         string        `json:"language,omitempty"`
	ReleaseYear      int           `json:"releaseYear,omitempty"`
	Season           int           `json:"season,omitempty"`
	Episode          int           `json:"episode,omitempty"`
	EpisodeRange     *EpisodeRange `json:"episodeRange,omitempty"`
}

type LanguageFacts struct {
	Available []string `json:"available"`
}

type DownloadData struct {
	Options    map[string][]DownloadFile `json:"downloadOptions"`
	Languages  LanguageFacts             `json:"downloadLanguages"`
	TotalFiles int                       `json:"totalFiles"`
	PosterURL  string                    `json:"posterUrl,omitempty"`
}

type MediaDetails struct {
	Title         string    `json:"title"`
	Year          int       `json:"year"`
	Poster        string    `json:"poster"`
	Genre         string    `json:"genre"`
	Plot          string    `json:"plot,omitempty"`
	Rating        string    `json:"rating,omitempty"`
	Director      string    `json:"director,omitempty"`
	Actors        string    `json:"actors,omitempty"`
	Country       string    `json:"country,omitempty"`
	Language      string    `json:"language,omitempty"`
	Runtime       string    `json:"runtime,omitempty"`
	Released      string    `json:"released,omitempty"`
	HasRealPoster bool      `json:"hasRealPoster"`
	DataSource    string    `json:"dataSource"`
	Kind          MediaKind `json:"type"`
}

type MediaItem struct {
	ID int `json:"id"`
	MediaDetails
	DownloadOptions   map[string][]DownloadFile `json:"downloadOptions"`
	DownloadLanguages LanguageFacts             `json:"downloadLanguages"`
	TotalFiles        int                       `json:"totalFiles"`
	OriginalKey       string                    `json:"originalKey"`
	Error             string                    `json:"error,omitempty"`
}

type Pagination struct {
	CurrentPage  int  `json:"currentPage"`
	TotalPages   int  `json:"totalPages"`
	TotalItems   int  `json:"totalItems"`
	ItemsPerPage int  `json:"itemsPerPage"`
	HasNextPage  bool `json:"hasNextPage"`
	HasPrevPage  bool `json:"hasPrevPage"`
}

type CatalogMeta struct {
	DataStructure    string `json:"dataStructure"`
	TotalInCache     int    `json:"totalInRedis"`
	FilteredCount    int    `json:"filteredCount"`
	ProcessingTimeMS int64  `json:"processingTimeMs"`
}
