package apihttp

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"mediaradar/catalogservice/internal/catalog"
	"mediaradar/catalogservice/internal/domain"
	"mediaradar/catalogservice/internal/enrich"
	"mediaradar/catalogservice/internal/providers/jellyfin"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type CatalogService interface {
	List(ctx context.Context, request catalog.ListRequest) (*catalog.ListResult, error)
	ByID(ctx context.Context, kind domain.MediaKind, id int) (*domain.MediaItem, error)
	Ping(ctx context.Context) error
}

type EnrichmentService interface {
	Diagnostics() []enrich.ResolverDiagnostics
	CachedCount() int
}

type WatchLibrary interface {
	Search(ctx context.Context, title string) ([]jellyfin.Item, error)
	CheckStatus(ctx context.Context) jellyfin.Status
	Configured() bool
}

type StoreStatus interface {
	Ping(ctx context.Context) error
	Exists(ctx context.Context) (bool, error)
	Key() string
}

type Server struct {
	catalog CatalogService
	enrich  EnrichmentService
	watch   WatchLibrary
	store   StoreStatus
	logger  *slog.Logger
}

const (
	maxQueryLength   = 200
	defaultPageLimit = 20
)

type ServerOption func(*Server)

func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

func WithEnrichment(enrichment EnrichmentService) ServerOption {
	return func(s *Server) {
		s.enrich = enrichment
	}
}

func WithWatchLibrary(watch WatchLibrary) ServerOption {
	return func(s *Server) {
		s.watch = watch
	}
}

func WithStoreStatus(store StoreStatus) ServerOption {
	return func(s *Server) {
		s.store = store
	}
}

func NewServer(catalogService CatalogService, options ...ServerOption) *Server {
	server := &Server{
		catalog: catalogService,
		logger:  slog.Default(),
	}
	for _, option := range options {
		if option != nil {
			option(server)
		}
	}
	if server.logger == nil {
		server.logger = slog.Default()
	}
	return server
}

// kindRoutes captures the per-kind naming differences the API keeps for
// compatibility with existing frontends: the item array key and the
// pagination aliases differ between movies and TV shows.
type kindRoutes struct {
	kind         domain.MediaKind
	prefix       string
	itemsKey     string
	totalAlias   string
	perPageAlias string
}

var (
	movieRoutes = kindRoutes{
		kind:         domain.KindMovies,
		prefix:       "movies",
		itemsKey:     "movies",
		totalAlias:   "totalMovies",
		perPageAlias: "moviesPerPage",
	}
	tvShowRoutes = kindRoutes{
		kind:         domain.KindTVShows,
		prefix:       "tvshows",
		itemsKey:     "tvShows",
		totalAlias:   "totalTVShows",
		perPageAlias: "tvShowsPerPage",
	}
)

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/redis-status", s.handleRedisStatus)
	mux.HandleFunc("GET /api/poster", s.handlePosterProxy)
	mux.Handle("GET /metrics", promhttp.Handler())
	s.registerKind(mux, movieRoutes)
	s.registerKind(mux, tvShowRoutes)
	traced := otelhttp.NewHandler(loggingMiddleware(s.logger, mux), "catalog-api",
		otelhttp.WithFilter(func(r *http.Request) bool {
			p := r.URL.Path
			return p != "/metrics" && p != "/api/health"
		}),
	)
	return recoveryMiddleware(s.logger, rateLimitMiddleware(50, 100, metricsMiddleware(traced)))
}

func (s *Server) registerKind(mux *http.ServeMux, routes kindRoutes) {
	base := "GET /api/" + routes.prefix
	mux.HandleFunc(base, s.handleList(routes))
	mux.HandleFunc(base+"/search", s.handleSearch(routes))
	mux.HandleFunc(base+"/quality/{quality}", s.handleByQuality(routes))
	mux.HandleFunc(base+"/language/{language}", s.handleByLanguage(routes))
	mux.HandleFunc(base+"/{id}", s.handleByID(routes))
	mux.HandleFunc(base+"/{id}/watch", s.handleWatch(routes))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	payload := map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	}
	redisState := "connected"
	if err := s.catalog.Ping(r.Context()); err != nil {
		redisState = "disconnected"
	}
	payload["redis"] = redisState
	if s.enrich != nil {
		payload["resolvers"] = s.enrich.Diagnostics()
		payload["cachedDetails"] = s.enrich.CachedCount()
	}
	if s.watch != nil {
		payload["jellyfin"] = s.watch.CheckStatus(r.Context())
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleRedisStatus(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotImplemented, "not_configured", "catalog store is not configured")
		return
	}
	if err := s.store.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusOK, map[string]any{
			"connected": false,
			"error":     err.Error(),
		})
		return
	}
	hasKey, err := s.store.Exists(r.Context())
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]any{
			"connected": false,
			"error":     err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"connected":    true,
		"targetKey":    s.store.Key(),
		"hasTargetKey": hasKey,
	})
}

func (s *Server) handleList(routes kindRoutes) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		request, ok := s.parseListRequest(w, r, routes.kind)
		if !ok {
			return
		}
		result, err := s.catalog.List(r.Context(), request)
		if err != nil {
			s.writeCatalogError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			routes.itemsKey: result.Items,
			"pagination":    paginationPayload(routes, result.Pagination),
			"metadata":      result.Meta,
		})
	}
}

func (s *Server) handleSearch(routes kindRoutes) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		request, ok := s.parseListRequest(w, r, routes.kind)
		if !ok {
			return
		}
		if request.Query == "" {
			writeError(w, http.StatusBadRequest, "invalid_request", "query is required")
			return
		}
		result, err := s.catalog.List(r.Context(), request)
		if err != nil {
			s.writeCatalogError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			routes.itemsKey: result.Items,
			"pagination":    paginationPayload(routes, result.Pagination),
			"search": map[string]any{
				"query":      request.Query,
				"totalFound": result.Pagination.TotalItems,
			},
			"metadata": result.Meta,
		})
	}
}

func (s *Server) handleByQuality(routes kindRoutes) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		quality := strings.TrimSpace(r.PathValue("quality"))
		if quality == "" {
			writeError(w, http.StatusBadRequest, "invalid_request", "quality is required")
			return
		}
		request, ok := s.parseListRequest(w, r, routes.kind)
		if !ok {
			return
		}
		request.Quality = quality
		result, err := s.catalog.List(r.Context(), request)
		if err != nil {
			s.writeCatalogError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			routes.itemsKey: result.Items,
			"pagination":    paginationPayload(routes, result.Pagination),
			"filter": map[string]any{
				"quality":    quality,
				"totalFound": result.Pagination.TotalItems,
			},
		})
	}
}

func (s *Server) handleByLanguage(routes kindRoutes) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		language := strings.TrimSpace(r.PathValue("language"))
		if language == "" {
			writeError(w, http.StatusBadRequest, "invalid_request", "language is required")
			return
		}
		request, ok := s.parseListRequest(w, r, routes.kind)
		if !ok {
			return
		}
		request.Language = language
		result, err := s.catalog.List(r.Context(), request)
		if err != nil {
			s.writeCatalogError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			routes.itemsKey: result.Items,
			"pagination":    paginationPayload(routes, result.Pagination),
			"filter": map[string]any{
				"language":   language,
				"totalFound": result.Pagination.TotalItems,
			},
		})
	}
}

func (s *Server) handleByID(routes kindRoutes) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r)
		if !ok {
			return
		}
		item, err := s.catalog.ByID(r.Context(), routes.kind, id)
		if err != nil {
			s.writeCatalogError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, item)
	}
}

func (s *Server) handleWatch(routes kindRoutes) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r)
		if !ok {
			return
		}
		if s.watch == nil || !s.watch.Configured() {
			writeError(w, http.StatusNotImplemented, "not_configured", "watch library is not configured")
			return
		}
		item, err := s.catalog.ByID(r.Context(), routes.kind, id)
		if err != nil {
			s.writeCatalogError(w, r, err)
			return
		}
		items, err := s.watch.Search(r.Context(), item.Title)
		if err != nil {
			if errors.Is(err, jellyfin.ErrNotConfigured) {
				writeError(w, http.StatusNotImplemented, "not_configured", "watch library is not configured")
				return
			}
			s.logger.Warn("watch library lookup failed",
				slog.String("title", truncate(item.Title, 80)),
				slog.String("error", err.Error()),
			)
			writeError(w, http.StatusBadGateway, "upstream_error", "watch library lookup failed")
			return
		}
		match := jellyfin.BestMatch(item.Title, items)
		if match == nil {
			writeError(w, http.StatusNotFound, "not_found", "title is not in the watch library")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"title":    item.Title,
			"item":     match,
			"watchUrl": match.WatchURL,
		})
	}
}

func (s *Server) parseListRequest(w http.ResponseWriter, r *http.Request, kind domain.MediaKind) (catalog.ListRequest, bool) {
	page, err := parsePositiveInt(r, "page", 1)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid page")
		return catalog.ListRequest{}, false
	}
	limit, err := parsePositiveInt(r, "limit", defaultPageLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid limit")
		return catalog.ListRequest{}, false
	}
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if len(query) > maxQueryLength {
		writeError(w, http.StatusBadRequest, "invalid_request", "query too long")
		return catalog.ListRequest{}, false
	}
	return catalog.ListRequest{
		Kind:  kind,
		Page:  page,
		Limit: limit,
		Query: query,
	}, true
}

func (s *Server) writeCatalogError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, catalog.ErrNoCatalogData), errors.Is(err, catalog.ErrStoreUnavailable):
		writeError(w, http.StatusServiceUnavailable, "service_unavailable", err.Error())
	case errors.Is(err, catalog.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, catalog.ErrInvalidPage):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		s.logger.Error("catalog request failed",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to load catalog")
	}
}

func paginationPayload(routes kindRoutes, p domain.Pagination) map[string]any {
	return map[string]any{
		"currentPage":       p.CurrentPage,
		"totalPages":        p.TotalPages,
		"totalItems":        p.TotalItems,
		"itemsPerPage":      p.ItemsPerPage,
		routes.totalAlias:   p.TotalItems,
		routes.perPageAlias: p.ItemsPerPage,
		"hasNextPage":       p.HasNextPage,
		"hasPrevPage":       p.HasPrevPage,
	}
}

func parseID(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := strings.TrimSpace(r.PathValue("id"))
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid id")
		return 0, false
	}
	return id, true
}

func parsePositiveInt(r *http.Request, key string, fallback int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return 0, errors.New("invalid value")
	}
	return parsed, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
