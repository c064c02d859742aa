package tmdb

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

	"github.com/redis/go-redis/v9"

	"mediaradar/catalogservice/internal/domain"
	"mediaradar/catalogservice/internal/enrich"
)

const (
	defaultBaseURL      = "https://api.themoviedb.org/3"
	defaultImageBaseURL = "https://image.tmdb.org/t/p/w500"
	redisCacheKey       = "mradar:tmdb:"
)

// Client resolves media details from TMDB. Resolution is a two-step call:
// a title search to find the TMDB id, then a details fetch with credits.
// The search step is cached in Redis because id mappings rarely change.
type Client struct {
	apiKey       string
	accessToken  string
	baseURL      string
	imageBaseURL string
	http         *http.Client
	redis        *redis.Client
	cacheTTL     time.Duration
	posters      map[domain.MediaKind]string
}

type Config struct {
	APIKey         string
	AccessToken    string
	BaseURL        string
	ImageBaseURL   string
	Client         *http.Client
	Redis          *redis.Client
	CacheTTL       time.Duration
	DefaultPosters map[domain.MediaKind]string
}

func NewClient(cfg Config) *Client {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	imageBaseURL := strings.TrimSpace(cfg.ImageBaseURL)
	if imageBaseURL == "" {
		imageBaseURL = defaultImageBaseURL
	}
	httpClient := cfg.Client
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}
	cacheTTL := cfg.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = 7 * 24 * time.Hour
	}
	posters := cfg.DefaultPosters
	if len(posters) == 0 {
		posters = enrich.DefaultPosters
	}
	return &Client{
		apiKey:       strings.TrimSpace(cfg.APIKey),
		accessToken:  strings.TrimSpace(cfg.AccessToken),
		baseURL:      strings.TrimRight(baseURL, "/"),
		imageBaseURL: strings.TrimRight(imageBaseURL, "/"),
		http:         httpClient,
		redis:        cfg.Redis,
		cacheTTL:     cacheTTL,
		posters:      posters,
	}
}

func (c *Client) Name() string { return "tmdb" }

func (c *Client) Enabled() bool { return c.apiKey != "" }

type searchResult struct {
	ID int `json:"id"`
}

type searchResponse struct {
	Results []searchResult `json:"results"`
}

type person struct {
	Name string `json:"name"`
	Job  string `json:"job,omitempty"`
}

type named struct {
	Name string `json:"name"`
}

type detailsResponse struct {
	ID                  int      `json:"id"`
	Title               string   `json:"title,omitempty"`
	OriginalTitle       string   `json:"original_title,omitempty"`
	Name                string   `json:"name,omitempty"`
	OriginalName        string   `json:"original_name,omitempty"`
	ReleaseDate         string   `json:"release_date,omitempty"`
	FirstAirDate        string   `json:"first_air_date,omitempty"`
	PosterPath          string   `json:"poster_path,omitempty"`
	Overview            string   `json:"overview,omitempty"`
	Runtime             int      `json:"runtime,omitempty"`
	VoteAverage         float64  `json:"vote_average,omitempty"`
	OriginalLanguage    string   `json:"original_language,omitempty"`
	Genres              []named  `json:"genres,omitempty"`
	ProductionCountries []named  `json:"production_countries,omitempty"`
	OriginCountry       []string `json:"origin_country,omitempty"`
	Credits             struct {
		Cast []person `json:"cast"`
		Crew []person `json:"crew"`
	} `json:"credits"`
}

func (c *Client) Resolve(ctx context.Context, title string, year int, kind domain.MediaKind) (domain.MediaDetails, error) {
	if !c.Enabled() {
		return domain.MediaDetails{}, enrich.ErrNoMatch
	}

	id, err := c.searchID(ctx, title, year, kind)
	if err != nil {
		return domain.MediaDetails{}, err
	}

	details, err := c.fetchDetails(ctx, id, kind)
	if err != nil {
		return domain.MediaDetails{}, err
	}
	return c.toDetails(details, title, year, kind), nil
}

func (c *Client) searchID(ctx context.Context, title string, year int, kind domain.MediaKind) (int, error) {
	cacheKey := fmt.Sprintf("search:%s:%s:%d", kind, strings.ToLower(strings.TrimSpace(title)), year)
	if c.redis != nil {
		if value, err := c.redis.Get(ctx, redisCacheKey+cacheKey).Int(); err == nil {
			if value <= 0 {
				return 0, enrich.ErrNoMatch
			}
			return value, nil
		}
	}

	endpoint := "/search/movie"
	params := url.Values{
		"query":         {strings.TrimSpace(title)},
		"include_adult": {"false"},
	}
	if kind == domain.KindTVShows {
		endpoint = "/search/tv"
		params.Set("first_air_date_year", strconv.Itoa(year))
	} else {
		params.Set("year", strconv.Itoa(year))
	}

	var response searchResponse
	if err := c.get(ctx, endpoint, params, &response); err != nil {
		return 0, err
	}
	if len(response.Results) == 0 {
		if c.redis != nil {
			_ = c.redis.Set(ctx, redisCacheKey+cacheKey, -1, c.cacheTTL).Err()
		}
		return 0, enrich.ErrNoMatch
	}

	id := response.Results[0].ID
	if c.redis != nil {
		_ = c.redis.Set(ctx, redisCacheKey+cacheKey, id, c.cacheTTL).Err()
	}
	return id, nil
}

func (c *Client) fetchDetails(ctx context.Context, id int, kind domain.MediaKind) (*detailsResponse, error) {
	endpoint := fmt.Sprintf("/movie/%d", id)
	if kind == domain.KindTVShows {
		endpoint = fmt.Sprintf("/tv/%d", id)
	}
	params := url.Values{"append_to_response": {"credits,videos"}}

	var details detailsResponse
	if err := c.get(ctx, endpoint, params, &details); err != nil {
		return nil, err
	}
	return &details, nil
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out any) error {
	params.Set("api_key", c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("tmdb HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 512*1024))
	if err != nil {
		return err
	}
	return json.Unmarshal(body, out)
}

func (c *Client) toDetails(data *detailsResponse, title string, fallbackYear int, kind domain.MediaKind) domain.MediaDetails {
	details := domain.MediaDetails{
		Title:         firstNonEmpty(data.Title, data.OriginalTitle, data.Name, data.OriginalName, title),
		Year:          dateYear(firstNonEmpty(data.ReleaseDate, data.FirstAirDate), fallbackYear),
		Poster:        c.posters[kind],
		Plot:          "No plot available.",
		Genre:         "Unknown",
		Director:      creditsDirectors(data.Credits.Crew, kind),
		Actors:        topCast(data.Credits.Cast, 5),
		Country:       countries(data, kind),
		Language:      "N/A",
		HasRealPoster: false,
	}
	if data.PosterPath != "" {
		details.Poster = c.imageBaseURL + data.PosterPath
		details.HasRealPoster = true
	}
	if data.Overview != "" {
		details.Plot = data.Overview
	}
	if len(data.Genres) > 0 {
		details.Genre = joinNames(data.Genres)
	}
	if data.OriginalLanguage != "" {
		details.Language = data.OriginalLanguage
	}
	if data.Runtime > 0 {
		details.Runtime = fmt.Sprintf("%d min", data.Runtime)
	}
	if data.VoteAverage > 0 {
		details.Rating = strconv.FormatFloat(data.VoteAverage, 'f', 1, 64)
	}
	details.Released = firstNonEmpty(data.ReleaseDate, data.FirstAirDate)
	return details
}

// creditsDirectors picks the top three directors for movies, or executive
// producers and creators for TV shows.
func creditsDirectors(crew []person, kind domain.MediaKind) string {
	names := make([]string, 0, 3)
	for _, member := range crew {
		wanted := member.Job == "Director"
		if kind == domain.KindTVShows {
			wanted = member.Job == "Executive Producer" || member.Job == "Creator"
		}
		if wanted {
			names = append(names, member.Name)
			if len(names) == 3 {
				break
			}
		}
	}
	if len(names) == 0 {
		return "N/A"
	}
	return strings.Join(names, ", ")
}

func topCast(cast []person, limit int) string {
	if len(cast) == 0 {
		return "N/A"
	}
	if len(cast) > limit {
		cast = cast[:limit]
	}
	names := make([]string, 0, len(cast))
	for _, actor := range cast {
		names = append(names, actor.Name)
	}
	return strings.Join(names, ", ")
}

func countries(data *detailsResponse, kind domain.MediaKind) string {
	if kind == domain.KindTVShows {
		if len(data.OriginCountry) == 0 {
			return "N/A"
		}
		return strings.Join(data.OriginCountry, ", ")
	}
	if len(data.ProductionCountries) == 0 {
		return "N/A"
	}
	return joinNames(data.ProductionCountries)
}

func joinNames(values []named) string {
	names := make([]string, 0, len(values))
	for _, value := range values {
		names = append(names, value.Name)
	}
	return strings.Join(names, ", ")
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}

func dateYear(date string, fallback int) int {
	if len(date) >= 4 {
		if year, err := strconv.Atoi(date[:4]); err == nil {
			return year
		}
	}
	return fallback
}
