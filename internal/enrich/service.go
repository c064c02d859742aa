package enrich

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"mediaradar/catalogservice/internal/domain"
	"mediaradar/catalogservice/internal/files"
	"mediaradar/catalogservice/internal/metrics"
)

const (
	defaultBatchSize            = 5
	defaultBatchDelay           = 100 * time.Millisecond
	defaultResolverRate         = rate.Limit(4)
	defaultResolverBurst        = 4
	defaultMaxConcurrentResolve = 8
)

// DefaultPosters are the placeholder images used when no source returned
// real artwork.
var DefaultPosters = map[domain.MediaKind]string{
	domain.KindMovies:  "https://via.placeholder.com/300x450/2a2a2a/ffffff?text=Movie",
	domain.KindTVShows: "https://via.placeholder.com/300x450/2a2a2a/ffffff?text=TV+Show",
}

// Service enriches catalog entries with external metadata. Resolvers are
// consulted in order with per-resolver rate limiting and a circuit breaker;
// a local synthesis guarantees a usable record when every source fails.
type Service struct {
	resolvers  []Resolver
	cache      *detailsCache
	retryCfg   RetryConfig
	batchSize  int
	batchDelay time.Duration
	posters    map[domain.MediaKind]string
	logger     *slog.Logger

	// outbound bounds concurrent resolver calls across all requests, not
	// just within one batch.
	outbound *semaphore.Weighted

	limiterMu sync.Mutex
	limiters  map[string]*rate.Limiter
	rateLimit rate.Limit
	rateBurst int

	healthMu sync.Mutex
	health   map[string]*resolverHealth
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.cache = newDetailsCache(ttl, s.cache.maxEntries, s.cache.backend)
		}
	}
}

func WithCacheBackend(backend CacheBackend) Option {
	return func(s *Service) {
		s.cache = newDetailsCache(s.cache.ttl, s.cache.maxEntries, backend)
	}
}

func WithCacheMaxEntries(max int) Option {
	return func(s *Service) {
		if max > 0 {
			s.cache = newDetailsCache(s.cache.ttl, max, s.cache.backend)
		}
	}
}

func WithBatchSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.batchSize = size
		}
	}
}

func WithBatchDelay(delay time.Duration) Option {
	return func(s *Service) {
		if delay >= 0 {
			s.batchDelay = delay
		}
	}
}

func WithResolverRate(limit rate.Limit, burst int) Option {
	return func(s *Service) {
		if limit > 0 && burst > 0 {
			s.rateLimit = limit
			s.rateBurst = burst
		}
	}
}

func WithRetryConfig(cfg RetryConfig) Option {
	return func(s *Service) {
		if cfg.MaxAttempts > 0 {
			s.retryCfg = cfg
		}
	}
}

func WithDefaultPosters(posters map[domain.MediaKind]string) Option {
	return func(s *Service) {
		if len(posters) > 0 {
			s.posters = posters
		}
	}
}

func NewService(resolvers []Resolver, opts ...Option) *Service {
	s := &Service{
		resolvers:  resolvers,
		cache:      newDetailsCache(defaultCacheTTL, defaultCacheMaxEntries, nil),
		retryCfg:   DefaultRetryConfig(),
		batchSize:  defaultBatchSize,
		batchDelay: defaultBatchDelay,
		posters:    DefaultPosters,
		logger:     slog.Default(),
		outbound:   semaphore.NewWeighted(defaultMaxConcurrentResolve),
		limiters:   make(map[string]*rate.Limiter),
		rateLimit:  defaultResolverRate,
		rateBurst:  defaultResolverBurst,
		health:     make(map[string]*resolverHealth),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Details returns media details for one title, consulting the cache first
// and falling back through the resolver chain. It never fails: the worst
// case is a locally synthesized record.
func (s *Service) Details(ctx context.Context, title string, year int, kind domain.MediaKind) domain.MediaDetails {
	now := time.Now()
	key := cacheKey(title, year, kind)
	if details, ok := s.cache.lookup(ctx, key, now); ok {
		return details
	}

	details := s.resolve(ctx, title, year, kind)
	s.cache.store(ctx, key, details, time.Now())
	return details
}

func (s *Service) resolve(ctx context.Context, title string, year int, kind domain.MediaKind) domain.MediaDetails {
	for _, resolver := range s.resolvers {
		name := strings.ToLower(strings.TrimSpace(resolver.Name()))
		if name == "" {
			continue
		}
		if s.isResolverBlocked(name, time.Now()) {
			s.logger.Debug("resolver blocked, skipping", "resolver", name, "title", title)
			continue
		}
		if err := s.waitResolverLimit(ctx, name); err != nil {
			break
		}
		if err := s.outbound.Acquire(ctx, 1); err != nil {
			break
		}

		var details domain.MediaDetails
		started := time.Now()
		err := RetryWithBackoff(ctx, s.retryCfg, func() error {
			var resolveErr error
			details, resolveErr = resolver.Resolve(ctx, title, year, kind)
			return resolveErr
		})
		latency := time.Since(started)
		s.outbound.Release(1)
		s.recordResolverResult(name, err, latency, time.Now())

		if err == nil {
			details.Kind = kind
			details.DataSource = resolver.Name()
			return details
		}
		if errors.Is(err, ErrNoMatch) {
			continue
		}
		srcErr := &SourceError{Source: resolver.Name(), Err: err}
		s.logger.Warn("enrichment source failed", "resolver", name, "title", title, "error", srcErr)
	}

	return s.localDetails(title, year, kind)
}

// localDetails synthesizes a record from the catalog key alone.
func (s *Service) localDetails(title string, year int, kind domain.MediaKind) domain.MediaDetails {
	return domain.MediaDetails{
		Title:         title,
		Year:          year,
		Poster:        s.posters[kind],
		Genre:         files.GenreFromTitle(title),
		Plot:          "No plot available.",
		HasRealPoster: false,
		DataSource:    "local",
		Kind:          kind,
	}
}

func (s *Service) waitResolverLimit(ctx context.Context, name string) error {
	s.limiterMu.Lock()
	limiter, ok := s.limiters[name]
	if !ok {
		limiter = rate.NewLimiter(s.rateLimit, s.rateBurst)
		s.limiters[name] = limiter
	}
	s.limiterMu.Unlock()
	return limiter.Wait(ctx)
}

// EnrichEntries transforms a page of entries into media items. Entries are
// processed in batches: concurrent within a batch, with a short pause
// between batches so external sources see a bounded request rate. IDs are
// positional, continuing from startIndex.
func (s *Service) EnrichEntries(ctx context.Context, entries []domain.Entry, startIndex int, kind domain.MediaKind) []domain.MediaItem {
	items := make([]domain.MediaItem, len(entries))

	for batchStart := 0; batchStart < len(entries); batchStart += s.batchSize {
		batchEnd := batchStart + s.batchSize
		if batchEnd > len(entries) {
			batchEnd = len(entries)
		}

		var wg sync.WaitGroup
		for i := batchStart; i < batchEnd; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				id := startIndex + i + 1
				// One bad entry must not take down the page, let alone
				// the process; a panicking slot degrades in place.
				defer func() {
					if r := recover(); r != nil {
						s.logger.Error("enrichment panic", "key", entries[i].Key, "panic", r)
						items[i] = s.degradedItem(entries[i], id, kind, fmt.Errorf("enrichment panic: %v", r))
					}
				}()
				if err := ctx.Err(); err != nil {
					items[i] = s.degradedItem(entries[i], id, kind, err)
					return
				}
				items[i] = s.enrichEntry(ctx, entries[i], id, kind)
			}(i)
		}
		wg.Wait()

		if batchEnd < len(entries) && s.batchDelay > 0 {
			select {
			case <-ctx.Done():
				for i := batchEnd; i < len(entries); i++ {
					items[i] = s.degradedItem(entries[i], startIndex+i+1, kind, ctx.Err())
				}
				return items
			case <-time.After(s.batchDelay):
			}
		}
	}
	return items
}

func (s *Service) enrichEntry(ctx context.Context, entry domain.Entry, id int, kind domain.MediaKind) domain.MediaItem {
	title, year := domain.ParseKey(entry.Key)
	details := s.Details(ctx, title, year, kind)
	downloads := files.ProcessDownloads(entry.Qualities, kind)

	item := domain.MediaItem{
		ID:                id,
		MediaDetails:      details,
		DownloadOptions:   downloads.Options,
		DownloadLanguages: downloads.Languages,
		TotalFiles:        downloads.TotalFiles,
		OriginalKey:       entry.Key,
	}
	// Scraped artwork beats whatever the external source had.
	if downloads.PosterURL != "" {
		item.Poster = downloads.PosterURL
	}
	metrics.EnrichedItemsTotal.WithLabelValues(details.DataSource).Inc()
	return item
}

// degradedItem is what a page slot gets when enrichment could not run at
// all (usually request cancellation). The entry stays listed.
func (s *Service) degradedItem(entry domain.Entry, id int, kind domain.MediaKind, err error) domain.MediaItem {
	item := domain.MediaItem{
		ID: id,
		MediaDetails: domain.MediaDetails{
			Title:      entry.Key,
			Year:       time.Now().Year(),
			Poster:     s.posters[kind],
			Genre:      "Unknown",
			DataSource: "error",
			Kind:       kind,
		},
		DownloadOptions:   map[string][]domain.DownloadFile{},
		DownloadLanguages: domain.LanguageFacts{Available: []string{}},
		OriginalKey:       entry.Key,
	}
	if err != nil {
		item.Error = err.Error()
	}
	metrics.EnrichedItemsTotal.WithLabelValues("error").Inc()
	return item
}

// CachedCount reports how many details records the in-memory tier holds.
func (s *Service) CachedCount() int {
	return s.cache.len()
}
