package catalog

import "errors"

var (
	ErrNoCatalogData    = errors.New("no media data found in cache")
	ErrMalformedCatalog = errors.New("malformed catalog payload")
	ErrNotFound         = errors.New("entry not found")
	ErrInvalidPage      = errors.New("invalid pagination parameters")
	ErrStoreUnavailable = errors.New("catalog store unavailable")
)
