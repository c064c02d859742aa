package catalog

import (
	"math"
	"strings"

	"mediaradar/catalogservice/internal/domain"
	"mediaradar/catalogservice/internal/files"
)

// DropEmpty removes entries with no downloadable files in any quality.
func DropEmpty(entries []domain.Entry) []domain.Entry {
	kept := make([]domain.Entry, 0, len(entries))
	for _, entry := range entries {
		if entry.TotalFiles() > 0 {
			kept = append(kept, entry)
		}
	}
	return kept
}

// Paginate slices a filtered entry list into one page and reports the
// pagination facts for the whole list. Pages are 1-based.
func Paginate(entries []domain.Entry, page, limit int) ([]domain.Entry, domain.Pagination, error) {
	if page < 1 || limit < 1 {
		return nil, domain.Pagination{}, ErrInvalidPage
	}

	totalItems := len(entries)
	totalPages := int(math.Ceil(float64(totalItems) / float64(limit)))
	start := (page - 1) * limit
	if start > totalItems {
		start = totalItems
	}
	end := start + limit
	if end > totalItems {
		end = totalItems
	}

	pagination := domain.Pagination{
		CurrentPage:  page,
		TotalPages:   totalPages,
		TotalItems:   totalItems,
		ItemsPerPage: limit,
		HasNextPage:  page < totalPages,
		HasPrevPage:  page > 1,
	}
	return entries[start:end], pagination, nil
}

// FilterByQuality keeps entries that have at least one file under the given
// quality label.
func FilterByQuality(entries []domain.Entry, quality string) []domain.Entry {
	kept := make([]domain.Entry, 0, len(entries))
	for _, entry := range entries {
		if len(entry.Qualities[quality]) > 0 {
			kept = append(kept, entry)
		}
	}
	return kept
}

// FilterByLanguage keeps entries where any file's language contains the
// given fragment, case-insensitively.
func FilterByLanguage(entries []domain.Entry, language string) []domain.Entry {
	needle := strings.ToLower(language)
	kept := make([]domain.Entry, 0, len(entries))
	for _, entry := range entries {
		if entryHasLanguage(entry, needle) {
			kept = append(kept, entry)
		}
	}
	return kept
}

func entryHasLanguage(entry domain.Entry, needle string) bool {
	for _, records := range entry.Qualities {
		for _, record := range records {
			lang := files.NormalizeLanguage(record.Language)
			if lang != "" && strings.Contains(strings.ToLower(lang), needle) {
				return true
			}
		}
	}
	return false
}

// FilterByTitle keeps entries whose key contains the query,
// case-insensitively.
func FilterByTitle(entries []domain.Entry, query string) []domain.Entry {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return entries
	}
	kept := make([]domain.Entry, 0, len(entries))
	for _, entry := range entries {
		if strings.Contains(strings.ToLower(entry.Key), needle) {
			kept = append(kept, entry)
		}
	}
	return kept
}

// EntryByID resolves a 1-based positional ID against the full filtered
// list. IDs are only stable for a given blob; a changed catalog reshuffles
// them.
func EntryByID(entries []domain.Entry, id int) (domain.Entry, error) {
	if id < 1 || id > len(entries) {
		return domain.Entry{}, ErrNotFound
	}
	return entries[id-1], nil
}
