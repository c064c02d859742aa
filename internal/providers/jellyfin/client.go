package jellyfin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	tokenTTL        = 24 * time.Hour
	embyAuthHeader  = `MediaBrowser Client="MediaRadar", Device="WebApp", DeviceId="media-radar-web", Version="1.0.0"`
	searchItemLimit = 10
)

var ErrNotConfigured = errors.New("jellyfin server not configured")

// Client is a thin Jellyfin lookup client: it answers "is this title in
// the library, and where can it be watched". Authentication tokens are
// cached for a day.
type Client struct {
	server       string
	authServer   string
	webPlayerURL string
	username     string
	password     string
	http         *http.Client

	tokenMu     sync.Mutex
	token       string
	tokenExpiry time.Time
}

type Config struct {
	Server       string
	AuthServer   string
	WebPlayerURL string
	Username     string
	Password     string
	Client       *http.Client
}

// Item is one library entry returned by a search.
type Item struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Year           int      `json:"year,omitempty"`
	Overview       string   `json:"overview,omitempty"`
	Genres         []string `json:"genres,omitempty"`
	Rating         float64  `json:"rating,omitempty"`
	OfficialRating string   `json:"officialRating,omitempty"`
	WatchURL       string   `json:"watchUrl"`
}

func NewClient(cfg Config) *Client {
	server := strings.TrimRight(strings.TrimSpace(cfg.Server), "/")
	authServer := strings.TrimRight(strings.TrimSpace(cfg.AuthServer), "/")
	if authServer == "" {
		authServer = server
	}
	webPlayerURL := strings.TrimRight(strings.TrimSpace(cfg.WebPlayerURL), "/")
	if webPlayerURL == "" {
		webPlayerURL = server
	}
	httpClient := cfg.Client
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		server:       server,
		authServer:   authServer,
		webPlayerURL: webPlayerURL,
		username:     cfg.Username,
		password:     cfg.Password,
		http:         httpClient,
	}
}

func (c *Client) Configured() bool { return c.server != "" }

type authRequest struct {
	Username string `json:"Username"`
	Pw       string `json:"Pw"`
}

type authResponse struct {
	AccessToken string `json:"AccessToken"`
	User        struct {
		ID   string `json:"Id"`
		Name string `json:"Name"`
	} `json:"User"`
}

func (c *Client) authenticate(ctx context.Context) (string, error) {
	payload, err := json.Marshal(authRequest{Username: c.username, Pw: c.password})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.authServer+"/Users/AuthenticateByName", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Emby-Authorization", embyAuthHeader)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("jellyfin auth HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var auth authResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64*1024)).Decode(&auth); err != nil {
		return "", err
	}
	if auth.AccessToken == "" {
		return "", errors.New("jellyfin auth: empty access token")
	}
	return auth.AccessToken, nil
}

func (c *Client) validToken(ctx context.Context) (string, error) {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()

	if c.token != "" && time.Now().Before(c.tokenExpiry) {
		return c.token, nil
	}
	token, err := c.authenticate(ctx)
	if err != nil {
		return "", err
	}
	c.token = token
	c.tokenExpiry = time.Now().Add(tokenTTL)
	return token, nil
}

type itemsResponse struct {
	Items []struct {
		ID              string   `json:"Id"`
		Name            string   `json:"Name"`
		ProductionYear  int      `json:"ProductionYear"`
		Overview        string   `json:"Overview"`
		Genres          []string `json:"Genres"`
		CommunityRating float64  `json:"CommunityRating"`
		OfficialRating  string   `json:"OfficialRating"`
	} `json:"Items"`
}

// Search looks a title up in the Jellyfin library and returns matching
// items with web-player watch links.
func (c *Client) Search(ctx context.Context, title string) ([]Item, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	token, err := c.validToken(ctx)
	if err != nil {
		return nil, err
	}

	params := url.Values{
		"Recursive":        {"true"},
		"searchTerm":       {title},
		"includeItemTypes": {"Movie"},
		"Fields":           {"Overview,Genres,ProductionYear,CommunityRating,OfficialRating"},
		"Limit":            {fmt.Sprintf("%d", searchItemLimit)},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.server+"/Items?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "MediaBrowser Token="+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("jellyfin search HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var data itemsResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 512*1024)).Decode(&data); err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(data.Items))
	for _, raw := range data.Items {
		items = append(items, Item{
			ID:             raw.ID,
			Name:           raw.Name,
			Year:           raw.ProductionYear,
			Overview:       raw.Overview,
			Genres:         raw.Genres,
			Rating:         raw.CommunityRating,
			OfficialRating: raw.OfficialRating,
			WatchURL:       c.watchURL(raw.ID),
		})
	}
	return items, nil
}

// BestMatch prefers an exact case-insensitive name match, then the item
// whose name is closest in length to the search term.
func BestMatch(title string, items []Item) *Item {
	if len(items) == 0 {
		return nil
	}
	needle := strings.ToLower(title)
	for i := range items {
		if strings.ToLower(items[i].Name) == needle {
			return &items[i]
		}
	}

	best := &items[0]
	bestScore := 0.0
	for i := range items {
		name := strings.ToLower(items[i].Name)
		if strings.Contains(name, needle) && len(name) > 0 {
			score := float64(len(needle)) / float64(len(name))
			if score > bestScore {
				bestScore = score
				best = &items[i]
			}
		}
	}
	return best
}

func (c *Client) watchURL(itemID string) string {
	return c.webPlayerURL + "/web/index.html#!/details?id=" + itemID
}

// Status reports whether the server is configured and reachable.
type Status struct {
	Configured bool   `json:"configured"`
	Accessible bool   `json:"accessible"`
	Server     string `json:"server,omitempty"`
	Error      string `json:"error,omitempty"`
}

func (c *Client) CheckStatus(ctx context.Context) Status {
	status := Status{Configured: c.Configured(), Server: c.server}
	if !status.Configured {
		return status
	}
	if _, err := c.validToken(ctx); err != nil {
		status.Error = err.Error()
		return status
	}
	status.Accessible = true
	return status
}
