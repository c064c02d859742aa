package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr       string
	RequestTimeout time.Duration
	LogLevel       string
	LogFormat      string

	RedisURL      string
	CatalogKey    string
	EnrichTTL     time.Duration
	EnrichBatch   int
	EnrichDelayMS int

	OMDBAPIKey  string
	OMDBBaseURL string

	TMDBAPIKey      string
	TMDBAccessToken string
	TMDBBaseURL     string
	TMDBImageBase   string
	TMDBCacheTTL    time.Duration

	JellyfinServer     string
	JellyfinAuthServer string
	JellyfinWebPlayer  string
	JellyfinUsername   string
	JellyfinPassword   string

	MoviesPoster  string
	TVShowsPoster string
}

func LoadConfig() Config {
	return Config{
		HTTPAddr:       getEnv("HTTP_ADDR", ":8090"),
		RequestTimeout: time.Duration(getEnvInt("REQUEST_TIMEOUT_SECONDS", 30)) * time.Second,
		LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:      strings.ToLower(getEnv("LOG_FORMAT", "text")),

		RedisURL:      getEnv("REDIS_URL", "redis://localhost:6379"),
		CatalogKey:    getEnv("REDIS_CACHE_KEY", "media_radar_cache"),
		EnrichTTL:     time.Duration(getEnvInt("ENRICH_CACHE_TTL_HOURS", 24)) * time.Hour,
		EnrichBatch:   getEnvInt("ENRICH_BATCH_SIZE", 5),
		EnrichDelayMS: getEnvInt("ENRICH_BATCH_DELAY_MS", 100),

		OMDBAPIKey:  strings.TrimSpace(os.Getenv("OMDB_API_KEY")),
		OMDBBaseURL: getEnv("OMDB_BASE_URL", "http://www.omdbapi.com/"),

		TMDBAPIKey:      strings.TrimSpace(os.Getenv("TMDB_API_KEY")),
		TMDBAccessToken: strings.TrimSpace(os.Getenv("TMDB_ACCESS_TOKEN")),
		TMDBBaseURL:     getEnv("TMDB_BASE_URL", "https://api.themoviedb.org/3"),
		TMDBImageBase:   getEnv("TMDB_IMAGE_BASE_URL", "https://image.tmdb.org/t/p/w500"),
		TMDBCacheTTL:    time.Duration(getEnvInt("TMDB_CACHE_TTL_DAYS", 7)) * 24 * time.Hour,

		JellyfinServer:     getEnv("JELLYFIN_SERVER", ""),
		JellyfinAuthServer: getEnv("JELLYFIN_AUTH_SERVER", ""),
		JellyfinWebPlayer:  getEnv("JELLYFIN_WEB_PLAYER", ""),
		JellyfinUsername:   getEnv("JELLYFIN_USERNAME", "anonymous"),
		JellyfinPassword:   getEnv("JELLYFIN_PASSWORD", ""),

		MoviesPoster:  getEnv("DEFAULT_MOVIES_POSTER", ""),
		TVShowsPoster: getEnv("DEFAULT_TVSHOWS_POSTER", ""),
	}
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getEnvInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}
