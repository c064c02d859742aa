package omdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"mediaradar/catalogservice/internal/domain"
	"mediaradar/catalogservice/internal/enrich"
)

const defaultBaseURL = "http://www.omdbapi.com/"

// Client resolves media details from the OMDb API. It is the primary
// resolver in the chain: cheap, keyed lookups by exact title and year.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
	posters map[domain.MediaKind]string
}

type Config struct {
	APIKey         string
	BaseURL        string
	Client         *http.Client
	DefaultPosters map[domain.MediaKind]string
}

func NewClient(cfg Config) *Client {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	httpClient := cfg.Client
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}
	posters := cfg.DefaultPosters
	if len(posters) == 0 {
		posters = enrich.DefaultPosters
	}
	return &Client{
		apiKey:  strings.TrimSpace(cfg.APIKey),
		baseURL: baseURL,
		http:    httpClient,
		posters: posters,
	}
}

func (c *Client) Name() string { return "omdb" }

func (c *Client) Enabled() bool { return c.apiKey != "" }

type payload struct {
	Response   string `json:"Response"`
	ErrorText  string `json:"Error"`
	Title      string `json:"Title"`
	Year       string `json:"Year"`
	Released   string `json:"Released"`
	Poster     string `json:"Poster"`
	Plot       string `json:"Plot"`
	Genre      string `json:"Genre"`
	Director   string `json:"Director"`
	Actors     string `json:"Actors"`
	Country    string `json:"Country"`
	Language   string `json:"Language"`
	Runtime    string `json:"Runtime"`
	IMDBRating string `json:"imdbRating"`
	IMDBID     string `json:"imdbID"`
}

func (c *Client) Resolve(ctx context.Context, title string, year int, kind domain.MediaKind) (domain.MediaDetails, error) {
	if !c.Enabled() {
		return domain.MediaDetails{}, enrich.ErrNoMatch
	}

	mediaType := "movie"
	if kind == domain.KindTVShows {
		mediaType = "series"
	}
	params := url.Values{
		"apikey": {c.apiKey},
		"t":      {title},
		"y":      {strconv.Itoa(year)},
		"type":   {mediaType},
		"plot":   {"full"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return domain.MediaDetails{}, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return domain.MediaDetails{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return domain.MediaDetails{}, fmt.Errorf("omdb HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 256*1024))
	if err != nil {
		return domain.MediaDetails{}, err
	}
	var data payload
	if err := json.Unmarshal(body, &data); err != nil {
		return domain.MediaDetails{}, err
	}
	if data.Response != "True" {
		return domain.MediaDetails{}, enrich.ErrNoMatch
	}

	return c.toDetails(data, year, kind), nil
}

func (c *Client) toDetails(data payload, fallbackYear int, kind domain.MediaKind) domain.MediaDetails {
	details := domain.MediaDetails{
		Title:         data.Title,
		Year:          parseYear(data.Year, fallbackYear),
		Poster:        c.posters[kind],
		Plot:          "No plot available.",
		Genre:         "Unknown",
		Director:      orNA(data.Director),
		Actors:        orNA(data.Actors),
		Country:       orNA(data.Country),
		Language:      orNA(data.Language),
		HasRealPoster: false,
	}
	if data.Poster != "" && data.Poster != "N/A" {
		details.Poster = data.Poster
		details.HasRealPoster = true
	}
	if data.Plot != "" && data.Plot != "N/A" {
		details.Plot = data.Plot
	}
	if data.Genre != "" && data.Genre != "N/A" {
		details.Genre = data.Genre
	}
	if data.Runtime != "" && data.Runtime != "N/A" {
		details.Runtime = data.Runtime
	}
	if data.Released != "" && data.Released != "N/A" {
		details.Released = data.Released
	}
	if data.IMDBRating != "" && data.IMDBRating != "N/A" {
		details.Rating = data.IMDBRating
	}
	return details
}

func orNA(value string) string {
	if value == "" || value == "N/A" {
		return "N/A"
	}
	return value
}

// parseYear handles OMDb year strings like "2010" and series ranges like
// "2010–2013".
func parseYear(raw string, fallback int) int {
	digits := make([]rune, 0, 4)
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits = append(digits, r)
			if len(digits) == 4 {
				break
			}
		} else if len(digits) > 0 {
			break
		}
	}
	if len(digits) == 4 {
		year, _ := strconv.Atoi(string(digits))
		return year
	}
	return fallback
}
