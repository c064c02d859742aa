package files

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var domainPrefixPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^www\.1TamilMV\.tube\s*-\s*`),
	regexp.MustCompile(`(?i)^www\.1TamilMV\.com\s*-\s*`),
	regexp.MustCompile(`(?i)^www\.TamilMV\.com\s*-\s*`),
	regexp.MustCompile(`(?i)^1TamilMV\.tube\s*-\s*`),
	regexp.MustCompile(`(?i)^1TamilMV\.com\s*-\s*`),
	regexp.MustCompile(`(?i)^TamilMV\.com\s*-\s*`),
	regexp.MustCompile(`(?i)^www\.\w+\.\w+\s*-\s*`),
}

var torrentSuffixPattern = regexp.MustCompile(`(?i)\.torrent$`)

// CleanFilename strips tracker-site domain prefixes and a trailing
// .torrent extension from a scraped filename.
func CleanFilename(name string) string {
	if name == "" {
		return name
	}
	cleaned := name
	for _, prefix := range domainPrefixPatterns {
		cleaned = prefix.ReplaceAllString(cleaned, "")
	}
	return strings.TrimSpace(torrentSuffixPattern.ReplaceAllString(cleaned, ""))
}

var (
	fileSizePattern  = regexp.MustCompile(`(?i)\d+(?:\.\d+)?\s*(?:TB|GB|MB|KB)`)
	sizeStringFormat = regexp.MustCompile(`(?i)^\d+(?:\.\d+)?\s*(?:B|KB|MB|GB|TB)$`)
	sizeUnitSuffix   = regexp.MustCompile(`(?i)[a-z]+$`)
)

func sizeUnitRank(match string) int {
	upper := strings.ToUpper(match)
	switch {
	case strings.Contains(upper, "TB"):
		return 4
	case strings.Contains(upper, "GB"):
		return 3
	case strings.Contains(upper, "MB"):
		return 2
	default:
		return 1
	}
}

// ExtractSizeFromFilename pulls a human-readable size token out of a release
// filename. Audio bitrates ("192Kbps") are never sizes, and KB tokens only
// count when they are too large to be a bitrate. With several candidates the
// bigger unit wins, then the bigger value. Returns "Unknown" when nothing
// qualifies.
func ExtractSizeFromFilename(name string) string {
	if name == "" {
		return "Unknown"
	}

	best := ""
	bestRank := 0
	bestValue := 0.0
	for _, loc := range fileSizePattern.FindAllStringIndex(name, -1) {
		match := name[loc[0]:loc[1]]
		rest := name[loc[1]:]
		if len(rest) >= 2 && strings.EqualFold(rest[:2], "ps") {
			continue
		}
		value, _ := strconv.ParseFloat(strings.TrimRight(strings.TrimSpace(match), "TtGgMmKkBb "), 64)
		rank := sizeUnitRank(match)
		if rank == 1 && value <= 10000 {
			continue
		}
		if best == "" || rank > bestRank || (rank == bestRank && value > bestValue) {
			best = match
			bestRank = rank
			bestValue = value
		}
	}
	if best == "" {
		return "Unknown"
	}
	return best
}

// FormatFileSize normalizes the size field of a raw file record. A string
// value is whitespace-collapsed and its unit upper-cased when it already looks
// like a size; a numeric value is treated as bytes and rendered with at most
// two decimals. Returns "" when the field is absent or unusable.
func FormatFileSize(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		cleaned := strings.Join(strings.Fields(str), " ")
		if cleaned == "" {
			return ""
		}
		if sizeStringFormat.MatchString(cleaned) {
			return sizeUnitSuffix.ReplaceAllStringFunc(cleaned, strings.ToUpper)
		}
		return cleaned
	}

	var bytes float64
	if err := json.Unmarshal(raw, &bytes); err == nil {
		if bytes == 0 {
			return ""
		}
		return formatByteSize(bytes)
	}
	return ""
}

var byteUnits = []string{"B", "KB", "MB", "GB", "TB"}

func formatByteSize(bytes float64) string {
	idx := 0
	if bytes > 0 {
		// Sub-byte values push the exponent negative; clamp both ends.
		idx = int(math.Floor(math.Log(bytes) / math.Log(1024)))
	}
	if idx < 0 {
		idx = 0
	}
	if idx >= len(byteUnits) {
		idx = len(byteUnits) - 1
	}
	value := bytes / math.Pow(1024, float64(idx))
	value = math.Round(value*100) / 100
	return strconv.FormatFloat(value, 'f', -1, 64) + " " + byteUnits[idx]
}

var languageCaser = cases.Title(language.Und)

// NormalizeLanguage reduces the loosely typed language field of a raw file
// record to a display string. Scrapers emit strings, arrays, objects with
// name/value/label keys, numbers and booleans; anything without a usable
// name collapses to "".
func NormalizeLanguage(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	return normalizeLanguageValue(decodeJSONValue(raw))
}

func decodeJSONValue(raw json.RawMessage) any {
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil
	}
	return value
}

func normalizeLanguageValue(value any) string {
	switch v := value.(type) {
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return ""
		}
		return languageCaser.String(strings.ToLower(trimmed))
	case []any:
		if len(v) == 0 {
			return ""
		}
		return normalizeLanguageValue(v[0])
	case map[string]any:
		for _, key := range []string{"name", "value", "label"} {
			if inner, ok := v[key]; ok {
				if lang := normalizeLanguageValue(inner); lang != "" {
					return lang
				}
			}
		}
		return ""
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

var (
	seasonPattern       = regexp.MustCompile(`[Ss](\d+)`)
	episodePattern      = regexp.MustCompile(`[Ee](\d+)`)
	episodeRangePattern = regexp.MustCompile(`[Ee](\d+)-[Ee](\d+)`)
	releaseYearPattern  = regexp.MustCompile(`\b(19|20)\d{2}\b`)
)

func ExtractSeason(name string) int {
	if m := seasonPattern.FindStringSubmatch(name); m != nil {
		season, _ := strconv.Atoi(m[1])
		return season
	}
	return 0
}

func ExtractEpisode(name string) int {
	if m := episodePattern.FindStringSubmatch(name); m != nil {
		episode, _ := strconv.Atoi(m[1])
		return episode
	}
	return 0
}

// ExtractEpisodeRange reports a multi-episode span like "E01-E06".
func ExtractEpisodeRange(name string) (int, int, bool) {
	if m := episodeRangePattern.FindStringSubmatch(name); m != nil {
		start, _ := strconv.Atoi(m[1])
		end, _ := strconv.Atoi(m[2])
		return start, end, true
	}
	return 0, 0, false
}

func ExtractReleaseYear(name string) int {
	if m := releaseYearPattern.FindString(name); m != "" {
		year, _ := strconv.Atoi(m)
		return year
	}
	return 0
}

// GenreFromTitle guesses a genre from keywords in a title. Last-resort
// fallback when no external source answered.
func GenreFromTitle(title string) string {
	lower := strings.ToLower(title)
	switch {
	case strings.Contains(lower, "comali") || strings.Contains(lower, "comedy"):
		return "Comedy"
	case strings.Contains(lower, "bombay") || strings.Contains(lower, "drama"):
		return "Drama"
	case strings.Contains(lower, "flask") || strings.Contains(lower, "thriller"):
		return "Thriller"
	case strings.Contains(lower, "stitch") || strings.Contains(lower, "animation"):
		return "Animation, Family"
	case strings.Contains(lower, "peacemaker") || strings.Contains(lower, "action"):
		return "Action, Adventure"
	default:
		return "Unknown"
	}
}
