package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"

	"mediaradar/catalogservice/internal/domain"
)

// Catalog blob shapes observed in the wild. The scraper backend has changed
// its output format several times; all four are still seen.
const (
	ShapeArrayWrapped = "array_wrapped"
	ShapeNestedObject = "nested_object"
	ShapeSplitObject  = "split_object"
	ShapeMixedObject  = "mixed_object"
)

// Normalize detects the shape of a raw catalog blob and flattens it into an
// ordered entry list for the requested kind. Key order of the source object
// is preserved so positional IDs stay stable for a given blob. The returned
// total counts every key in the selected object before type filtering.
func Normalize(blob []byte, kind domain.MediaKind, classifier Classifier) ([]domain.Entry, string, int, error) {
	trimmed := bytes.TrimSpace(blob)
	if len(trimmed) == 0 {
		return nil, "", 0, fmt.Errorf("%w: empty payload", ErrMalformedCatalog)
	}

	switch trimmed[0] {
	case '[':
		var elements []json.RawMessage
		if err := json.Unmarshal(trimmed, &elements); err != nil {
			return nil, "", 0, fmt.Errorf("%w: %v", ErrMalformedCatalog, err)
		}
		if len(elements) == 0 {
			return nil, "", 0, fmt.Errorf("%w: empty array wrapper", ErrMalformedCatalog)
		}
		pairs, err := decodeOrderedObject(elements[0])
		if err != nil {
			return nil, "", 0, fmt.Errorf("%w: array element is not an object", ErrMalformedCatalog)
		}
		return entriesFromPairs(pairs, kind), ShapeArrayWrapped, len(pairs), nil

	case '{':
		pairs, err := decodeOrderedObject(trimmed)
		if err != nil {
			return nil, "", 0, fmt.Errorf("%w: %v", ErrMalformedCatalog, err)
		}

		if nested, ok := lookupObject(pairs, string(kind)); ok {
			inner, err := decodeOrderedObject(nested)
			if err != nil {
				return nil, "", 0, fmt.Errorf("%w: nested %s section", ErrMalformedCatalog, kind)
			}
			return entriesFromPairs(inner, kind), ShapeNestedObject, len(inner), nil
		}

		if hasKey(pairs, string(domain.KindMovies)) && hasKey(pairs, string(domain.KindTVShows)) {
			var inner []orderedPair
			if nested, ok := lookupObject(pairs, string(kind)); ok {
				inner, err = decodeOrderedObject(nested)
				if err != nil {
					return nil, "", 0, fmt.Errorf("%w: %s section", ErrMalformedCatalog, kind)
				}
			}
			return entriesFromPairs(inner, kind), ShapeSplitObject, len(inner), nil
		}

		entries := make([]domain.Entry, 0, len(pairs))
		for _, pair := range pairs {
			entry := entryFromPair(pair, kind)
			if classifier.Classify(entry.Key, entry.FileNames()) == kind {
				entries = append(entries, entry)
			}
		}
		return entries, ShapeMixedObject, len(pairs), nil

	default:
		return nil, "", 0, fmt.Errorf("%w: unexpected top-level value", ErrMalformedCatalog)
	}
}

type orderedPair struct {
	key string
	raw json.RawMessage
}

// decodeOrderedObject walks a JSON object token by token so entry order
// matches the source document. encoding/json maps lose that order.
func decodeOrderedObject(raw []byte) ([]orderedPair, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("not a JSON object")
	}

	var pairs []orderedPair
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected object key token")
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
		pairs = append(pairs, orderedPair{key: key, raw: value})
	}
	return pairs, nil
}

func lookupObject(pairs []orderedPair, key string) (json.RawMessage, bool) {
	for _, pair := range pairs {
		if pair.key == key && len(pair.raw) > 0 && pair.raw[0] == '{' {
			return pair.raw, true
		}
	}
	return nil, false
}

// hasKey follows the loose truthiness of the scraper's consumers: null,
// false, 0 and "" all count as absent, so a blob with a degenerate section
// value falls through to mixed-object classification.
func hasKey(pairs []orderedPair, key string) bool {
	for _, pair := range pairs {
		if pair.key == key && truthyJSON(pair.raw) {
			return true
		}
	}
	return false
}

func truthyJSON(raw json.RawMessage) bool {
	switch string(bytes.TrimSpace(raw)) {
	case "", "null", "false", "0", `""`:
		return false
	}
	return true
}

func entriesFromPairs(pairs []orderedPair, kind domain.MediaKind) []domain.Entry {
	entries := make([]domain.Entry, 0, len(pairs))
	for _, pair := range pairs {
		entries = append(entries, entryFromPair(pair, kind))
	}
	return entries
}

func entryFromPair(pair orderedPair, kind domain.MediaKind) domain.Entry {
	return domain.Entry{
		Key:       pair.key,
		Kind:      kind,
		Qualities: decodeQualities(pair.raw),
	}
}

// decodeQualities tolerates partially malformed quality maps: a quality
// whose value is not a file array is dropped rather than failing the whole
// entry, matching how scraped blobs degrade in practice.
func decodeQualities(raw json.RawMessage) map[string][]domain.FileRecord {
	var byQuality map[string]json.RawMessage
	if err := json.Unmarshal(raw, &byQuality); err != nil {
		return map[string][]domain.FileRecord{}
	}
	qualities := make(map[string][]domain.FileRecord, len(byQuality))
	for quality, filesRaw := range byQuality {
		var records []domain.FileRecord
		if err := json.Unmarshal(filesRaw, &records); err != nil {
			continue
		}
		qualities[quality] = records
	}
	return qualities
}
