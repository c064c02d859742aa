package catalog

import (
	"context"
	"log/slog"
	"time"

	"mediaradar/catalogservice/internal/domain"
)

// BlobStore is the source of the raw catalog payload.
type BlobStore interface {
	Fetch(ctx context.Context) ([]byte, error)
	Ping(ctx context.Context) error
}

// Enricher turns a page of raw entries into display-ready media items.
// startIndex is the page's offset into the full filtered list so item IDs
// stay positional.
type Enricher interface {
	EnrichEntries(ctx context.Context, entries []domain.Entry, startIndex int, kind domain.MediaKind) []domain.MediaItem
}

type ListRequest struct {
	Kind     domain.MediaKind
	Page     int
	Limit    int
	Query    string
	Quality  string
	Language string
}

type ListResult struct {
	Items      []domain.MediaItem
	Pagination domain.Pagination
	Meta       domain.CatalogMeta
}

type Service struct {
	store      BlobStore
	enricher   Enricher
	classifier Classifier
	logger     *slog.Logger
}

type ServiceOption func(*Service)

func WithClassifier(classifier Classifier) ServiceOption {
	return func(s *Service) {
		if classifier != nil {
			s.classifier = classifier
		}
	}
}

func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewService(store BlobStore, enricher Enricher, opts ...ServiceOption) *Service {
	s := &Service{
		store:      store,
		enricher:   enricher,
		classifier: PatternClassifier{},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns one enriched page of the catalog for a kind, after applying
// the optional title/quality/language filters.
func (s *Service) List(ctx context.Context, req ListRequest) (*ListResult, error) {
	started := time.Now()

	entries, shape, total, err := s.load(ctx, req.Kind)
	if err != nil {
		return nil, err
	}

	filtered := FilterByTitle(entries, req.Query)
	if req.Quality != "" {
		filtered = FilterByQuality(filtered, req.Quality)
	}
	if req.Language != "" {
		filtered = FilterByLanguage(filtered, req.Language)
	}

	page, pagination, err := Paginate(filtered, req.Page, req.Limit)
	if err != nil {
		return nil, err
	}

	startIndex := (req.Page - 1) * req.Limit
	items := s.enricher.EnrichEntries(ctx, page, startIndex, req.Kind)

	s.logger.Debug("catalog page served",
		"kind", req.Kind,
		"shape", shape,
		"page", req.Page,
		"items", len(items),
		"elapsedMs", time.Since(started).Milliseconds())

	return &ListResult{
		Items:      items,
		Pagination: pagination,
		Meta: domain.CatalogMeta{
			DataStructure:    shape,
			TotalInCache:     total,
			FilteredCount:    pagination.TotalItems,
			ProcessingTimeMS: time.Since(started).Milliseconds(),
		},
	}, nil
}

// ByID resolves a positional 1-based ID against the full filtered list for
// a kind and enriches just that entry.
func (s *Service) ByID(ctx context.Context, kind domain.MediaKind, id int) (*domain.MediaItem, error) {
	entries, _, _, err := s.load(ctx, kind)
	if err != nil {
		return nil, err
	}

	entry, err := EntryByID(entries, id)
	if err != nil {
		return nil, err
	}

	items := s.enricher.EnrichEntries(ctx, []domain.Entry{entry}, id-1, kind)
	if len(items) == 0 {
		return nil, ErrNotFound
	}
	return &items[0], nil
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) load(ctx context.Context, kind domain.MediaKind) ([]domain.Entry, string, int, error) {
	blob, err := s.store.Fetch(ctx)
	if err != nil {
		return nil, "", 0, err
	}
	entries, shape, total, err := Normalize(blob, kind, s.classifier)
	if err != nil {
		return nil, "", 0, err
	}
	return DropEmpty(entries), shape, total, nil
}
