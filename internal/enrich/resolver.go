package enrich

import (
	"context"
	"errors"
	"fmt"

	"mediaradar/catalogservice/internal/domain"
)

// ErrNoMatch means a resolver answered but has no record for the title.
// The chain falls through to the next resolver without penalizing health.
var ErrNoMatch = errors.New("no match for title")

// SourceError wraps a transport or protocol failure of one external source.
// Enrichment never fails on these; the chain just moves on.
type SourceError struct {
	Source string
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("enrichment source %s: %v", e.Source, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// Resolver looks up media details for a title/year pair from one source.
// Resolvers are tried in registration order; the first success wins.
type Resolver interface {
	Name() string
	Resolve(ctx context.Context, title string, year int, kind domain.MediaKind) (domain.MediaDetails, error)
}
