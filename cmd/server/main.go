package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	apihttp "mediaradar/catalogservice/internal/api/http"
	"mediaradar/catalogservice/internal/app"
	"mediaradar/catalogservice/internal/catalog"
	"mediaradar/catalogservice/internal/domain"
	"mediaradar/catalogservice/internal/enrich"
	"mediaradar/catalogservice/internal/metrics"
	"mediaradar/catalogservice/internal/providers/jellyfin"
	"mediaradar/catalogservice/internal/providers/omdb"
	"mediaradar/catalogservice/internal/providers/tmdb"
	"mediaradar/catalogservice/internal/telemetry"
)

func main() {
	cfg := app.LoadConfig()
	logger := newLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	metrics.Register(prometheus.DefaultRegisterer)

	shutdownTracer, err := telemetry.Init(context.Background(), "catalog-api")
	if err != nil {
		logger.Warn("otel init failed", slog.String("error", err.Error()))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	logger.Info("configuration loaded",
		slog.String("service", "catalog-api"),
		slog.String("httpAddr", cfg.HTTPAddr),
		slog.String("logLevel", cfg.LogLevel),
		slog.String("logFormat", cfg.LogFormat),
		slog.Duration("requestTimeout", cfg.RequestTimeout),
		slog.String("catalogKey", cfg.CatalogKey),
		slog.Bool("hasOMDBKey", strings.TrimSpace(cfg.OMDBAPIKey) != ""),
		slog.Bool("hasTMDBKey", strings.TrimSpace(cfg.TMDBAPIKey) != ""),
		slog.Bool("hasJellyfin", strings.TrimSpace(cfg.JellyfinServer) != ""),
		slog.Duration("enrichTTL", cfg.EnrichTTL),
	)

	redisClient := mustRedisClient(cfg.RedisURL, logger)
	store := catalog.NewStore(redisClient, cfg.CatalogKey)

	posters := defaultPosters(cfg)
	resolvers := buildResolvers(cfg, redisClient, posters, logger)

	enrichOpts := []enrich.Option{
		enrich.WithLogger(logger),
		enrich.WithCacheTTL(cfg.EnrichTTL),
		enrich.WithCacheBackend(enrich.NewRedisCacheBackend(redisClient)),
		enrich.WithBatchSize(cfg.EnrichBatch),
		enrich.WithBatchDelay(time.Duration(cfg.EnrichDelayMS) * time.Millisecond),
		enrich.WithDefaultPosters(posters),
	}
	enricher := enrich.NewService(resolvers, enrichOpts...)

	catalogService := catalog.NewService(store, enricher, catalog.WithLogger(logger))

	serverOpts := []apihttp.ServerOption{
		apihttp.WithLogger(logger),
		apihttp.WithEnrichment(enricher),
		apihttp.WithStoreStatus(store),
	}
	if watch := buildJellyfinClient(cfg, logger); watch != nil {
		serverOpts = append(serverOpts, apihttp.WithWatchLibrary(watch))
	}

	handler := apihttp.NewServer(catalogService, serverOpts...).Handler()
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// A cold page enriches up to a full batch of titles against
		// external sources, so the write timeout stays generous.
		WriteTimeout: cfg.RequestTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	logger.Info("media catalog service started",
		slog.String("addr", cfg.HTTPAddr),
		slog.Duration("timeout", cfg.RequestTimeout),
	)

	select {
	case <-rootCtx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown error", slog.String("error", err.Error()))
	}
	logger.Info("media catalog service stopped")
}

func mustRedisClient(rawURL string, logger *slog.Logger) *redis.Client {
	opts, err := redis.ParseURL(strings.TrimSpace(rawURL))
	if err != nil {
		logger.Error("invalid redis url", slog.String("error", err.Error()))
		os.Exit(1)
	}
	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		// The catalog key may appear later; start anyway and let /api/health
		// report the connection state.
		logger.Warn("redis not reachable at startup", slog.String("addr", opts.Addr), slog.String("error", err.Error()))
	} else {
		logger.Info("redis connected", slog.String("addr", opts.Addr))
	}
	return client
}

func defaultPosters(cfg app.Config) map[domain.MediaKind]string {
	posters := make(map[domain.MediaKind]string, len(enrich.DefaultPosters))
	for kind, url := range enrich.DefaultPosters {
		posters[kind] = url
	}
	if cfg.MoviesPoster != "" {
		posters[domain.KindMovies] = cfg.MoviesPoster
	}
	if cfg.TVShowsPoster != "" {
		posters[domain.KindTVShows] = cfg.TVShowsPoster
	}
	return posters
}

func buildResolvers(cfg app.Config, redisClient *redis.Client, posters map[domain.MediaKind]string, logger *slog.Logger) []enrich.Resolver {
	var resolvers []enrich.Resolver

	omdbClient := omdb.NewClient(omdb.Config{
		APIKey:         cfg.OMDBAPIKey,
		BaseURL:        cfg.OMDBBaseURL,
		Client:         &http.Client{Timeout: 10 * time.Second, Transport: otelhttp.NewTransport(http.DefaultTransport)},
		DefaultPosters: posters,
	})
	if omdbClient.Enabled() {
		resolvers = append(resolvers, omdbClient)
	} else {
		logger.Info("omdb api key not configured, resolver disabled")
	}

	tmdbClient := tmdb.NewClient(tmdb.Config{
		APIKey:         cfg.TMDBAPIKey,
		AccessToken:    cfg.TMDBAccessToken,
		BaseURL:        cfg.TMDBBaseURL,
		ImageBaseURL:   cfg.TMDBImageBase,
		Client:         &http.Client{Timeout: 10 * time.Second, Transport: otelhttp.NewTransport(http.DefaultTransport)},
		Redis:          redisClient,
		CacheTTL:       cfg.TMDBCacheTTL,
		DefaultPosters: posters,
	})
	if tmdbClient.Enabled() {
		resolvers = append(resolvers, tmdbClient)
	} else {
		logger.Info("tmdb api key not configured, resolver disabled")
	}

	return resolvers
}

func buildJellyfinClient(cfg app.Config, logger *slog.Logger) *jellyfin.Client {
	if strings.TrimSpace(cfg.JellyfinServer) == "" {
		logger.Info("jellyfin server not configured, watch links disabled")
		return nil
	}
	client := jellyfin.NewClient(jellyfin.Config{
		Server:       cfg.JellyfinServer,
		AuthServer:   cfg.JellyfinAuthServer,
		WebPlayerURL: cfg.JellyfinWebPlayer,
		Username:     cfg.JellyfinUsername,
		Password:     cfg.JellyfinPassword,
		Client:       &http.Client{Timeout: 10 * time.Second, Transport: otelhttp.NewTransport(http.DefaultTransport)},
	})
	logger.Info("jellyfin client initialized", slog.String("server", cfg.JellyfinServer))
	return client
}

func newLogger(levelRaw, formatRaw string) *slog.Logger {
	level := parseLogLevel(levelRaw)
	options := &slog.HandlerOptions{Level: level}
	format := strings.ToLower(strings.TrimSpace(formatRaw))
	if format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, options))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, options))
}

func parseLogLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
