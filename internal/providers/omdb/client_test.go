package omdb

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"mediaradar/catalogservice/internal/domain"
	"mediaradar/catalogservice/internal/enrich"
)

func newTestClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)
	client := NewClient(Config{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Client:  server.Client(),
	})
	return client, server
}

func TestResolveMovie(t *testing.T) {
	var gotQuery map[string]string
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{
			"t":    r.URL.Query().Get("t"),
			"y":    r.URL.Query().Get("y"),
			"type": r.URL.Query().Get("type"),
			"plot": r.URL.Query().Get("plot"),
		}
		w.Write([]byte(`{
			"Response": "True",
			"Title": "Inception",
			"Year": "2010",
			"Released": "16 Jul 2010",
			"Poster": "https://img.omdb/inception.jpg",
			"Plot": "A thief who steals corporate secrets.",
			"Genre": "Action, Sci-Fi",
			"Director": "Christopher Nolan",
			"Actors": "Leonardo DiCaprio",
			"Country": "USA",
			"Language": "English",
			"Runtime": "148 min",
			"imdbRating": "8.8",
			"imdbID": "tt1375666"
		}`))
	})
	defer server.Close()

	details, err := client.Resolve(context.Background(), "Inception", 2010, domain.KindMovies)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if gotQuery["t"] != "Inception" || gotQuery["y"] != "2010" || gotQuery["type"] != "movie" || gotQuery["plot"] != "full" {
		t.Errorf("query params = %v", gotQuery)
	}
	if details.Title != "Inception" || details.Year != 2010 {
		t.Errorf("details = %+v", details)
	}
	if details.Poster != "https://img.omdb/inception.jpg" || !details.HasRealPoster {
		t.Errorf("poster = %q hasReal=%v", details.Poster, details.HasRealPoster)
	}
	if details.Genre != "Action, Sci-Fi" || details.Rating != "8.8" || details.Runtime != "148 min" {
		t.Errorf("details = %+v", details)
	}
}

func TestResolveSeriesTypeParam(t *testing.T) {
	var gotType string
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		gotType = r.URL.Query().Get("type")
		w.Write([]byte(`{"Response": "True", "Title": "Dark", "Year": "2017–2020"}`))
	})
	defer server.Close()

	details, err := client.Resolve(context.Background(), "Dark", 2017, domain.KindTVShows)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if gotType != "series" {
		t.Errorf("type param = %q, want series", gotType)
	}
	if details.Year != 2017 {
		t.Errorf("year = %d, want 2017 (range parsed)", details.Year)
	}
}

func TestResolveNoMatch(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Response": "False", "Error": "Movie not found!"}`))
	})
	defer server.Close()

	_, err := client.Resolve(context.Background(), "Nothing", 1900, domain.KindMovies)
	if !errors.Is(err, enrich.ErrNoMatch) {
		t.Fatalf("err = %v, want ErrNoMatch", err)
	}
}

func TestResolveHTTPError(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	defer server.Close()

	_, err := client.Resolve(context.Background(), "Any", 2000, domain.KindMovies)
	if err == nil || errors.Is(err, enrich.ErrNoMatch) {
		t.Fatalf("err = %v, want transport error", err)
	}
}

func TestResolveNAFieldsFallBack(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Response": "True", "Title": "Bare", "Year": "2020", "Poster": "N/A", "Plot": "N/A", "Genre": "N/A"}`))
	})
	defer server.Close()

	details, err := client.Resolve(context.Background(), "Bare", 2020, domain.KindMovies)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if details.HasRealPoster {
		t.Error("N/A poster marked as real")
	}
	if details.Poster != enrich.DefaultPosters[domain.KindMovies] {
		t.Errorf("poster = %q", details.Poster)
	}
	if details.Plot != "No plot available." || details.Genre != "Unknown" {
		t.Errorf("details = %+v", details)
	}
}

func TestResolveDisabledClient(t *testing.T) {
	client := NewClient(Config{})
	_, err := client.Resolve(context.Background(), "Any", 2000, domain.KindMovies)
	if !errors.Is(err, enrich.ErrNoMatch) {
		t.Fatalf("err = %v, want ErrNoMatch for disabled client", err)
	}
}

func TestParseYear(t *testing.T) {
	cases := []struct {
		raw      string
		fallback int
		want     int
	}{
		{"2010", 0, 2010},
		{"2017–2020", 0, 2017},
		{"N/A", 1999, 1999},
		{"", 2005, 2005},
	}
	for _, tc := range cases {
		if got := parseYear(tc.raw, tc.fallback); got != tc.want {
			t.Errorf("parseYear(%q, %d) = %d, want %d", tc.raw, tc.fallback, got, tc.want)
		}
	}
}
