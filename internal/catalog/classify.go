package catalog

import (
	"regexp"

	"mediaradar/catalogservice/internal/domain"
)

// Classifier decides whether a catalog key belongs to movies or TV shows.
// Classification is best-effort: scraped keys carry no explicit type, so
// implementations work from textual signals in the key and its filenames.
type Classifier interface {
	Classify(key string, fileNames []string) domain.MediaKind
}

var tvIndicatorPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bS\d+`),
	regexp.MustCompile(`(?i)\bSeason\s+\d+`),
	regexp.MustCompile(`(?i)\bEpisode`),
	regexp.MustCompile(`(?i)\bTV\s+Show`),
	regexp.MustCompile(`(?i)\bSeries`),
	regexp.MustCompile(`(?i)\bComplete\s+Series`),
}

// PatternClassifier labels an entry a TV show when the key or any filename
// carries a season/episode/series marker, and a movie otherwise.
type PatternClassifier struct{}

func (PatternClassifier) Classify(key string, fileNames []string) domain.MediaKind {
	if matchesTVIndicator(key) {
		return domain.KindTVShows
	}
	for _, name := range fileNames {
		if matchesTVIndicator(name) {
			return domain.KindTVShows
		}
	}
	return domain.KindMovies
}

func matchesTVIndicator(value string) bool {
	for _, pattern := range tvIndicatorPatterns {
		if pattern.MatchString(value) {
			return true
		}
	}
	return false
}
