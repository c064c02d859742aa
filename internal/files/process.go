package files

import (
	"sort"

	"mediaradar/catalogservice/internal/domain"
)

// ProcessDownloads turns the raw per-quality file lists of a catalog entry
// into display-ready download options: cleaned filenames, resolved sizes,
// per-file season/episode/year facts and the set of languages seen across
// all files. The first poster URL found on any file is surfaced so callers
// can prefer scraped art over external-source art.
func ProcessDownloads(qualities map[string][]domain.FileRecord, kind domain.MediaKind) domain.DownloadData {
	data := domain.DownloadData{
		Options:   make(map[string][]domain.DownloadFile),
		Languages: domain.LanguageFacts{Available: []string{}},
	}
	seenLanguages := make(map[string]struct{})

	labels := make([]string, 0, len(qualities))
	for label := range qualities {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	for _, label := range labels {
		records := qualities[label]
		if len(records) == 0 {
			continue
		}
		processed := make([]domain.DownloadFile, 0, len(records))
		for _, record := range records {
			if record.PosterURL != "" && data.PosterURL == "" {
				data.PosterURL = record.PosterURL
			}

			name := record.DisplayName()
			file := domain.DownloadFile{
				Filename:         CleanFilename(name),
				OriginalFilename: name,
				Href:             record.Link(),
				MagnetLink:       record.MagnetLink,
			}
			if file.Filename == "" {
				file.Filename = "Unknown"
			}
			if size := FormatFileSize(record.Size); size != "" {
				file.Size = size
				file.SizeSource = "redis_metadata"
			} else {
				file.Size = ExtractSizeFromFilename(record.Filename)
				file.SizeSource = "filename_extraction"
			}

			if kind == domain.KindTVShows && record.Filename != "" {
				file.Season = ExtractSeason(record.Filename)
				file.Episode = ExtractEpisode(record.Filename)
				if start, end, ok := ExtractEpisodeRange(record.Filename); ok {
					file.EpisodeRange = &domain.EpisodeRange{Start: start, End: end}
				}
			}

			if lang := NormalizeLanguage(record.Language); lang != "" {
				file.Language = lang
				if _, seen := seenLanguages[lang]; !seen {
					seenLanguages[lang] = struct{}{}
					data.Languages.Available = append(data.Languages.Available, lang)
				}
			}

			if record.Filename != "" {
				file.ReleaseYear = ExtractReleaseYear(record.Filename)
			}

			processed = append(processed, file)
		}
		data.Options[label] = processed
		data.TotalFiles += len(processed)
	}

	return data
}
