// Package filter narrows file listings client-side with glob patterns
// and search terms, on top of the server-side facet filters.
package filter

import (
	"path/filepath"
	"strings"

	"github.com/trialpoint/trialctl/internal/models"
)

// Config holds the client-side filter set.
type Config struct {
	// Include patterns (glob-style, matched on file name). Empty means
	// include all. Example: []string{"*.bam", "*.vcf"}
	Include []string

	// Exclude patterns (glob-style). Takes precedence over Include.
	Exclude []string

	// Search terms (case-insensitive substring). A file must match ALL
	// terms.
	Search []string

	// Categories restricts to the given data categories, matched
	// case-insensitively. Empty means all.
	Categories []string

	// TrialIDs restricts to the given trials. Empty means all.
	TrialIDs []string
}

// IsEmpty reports whether the config filters nothing.
func (c Config) IsEmpty() bool {
	return len(c.Include) == 0 && len(c.Exclude) == 0 && len(c.Search) == 0 &&
		len(c.Categories) == 0 && len(c.TrialIDs) == 0
}

// Apply filters a file listing.
func Apply(files []models.DataFile, config Config) []models.DataFile {
	if config.IsEmpty() {
		return files
	}

	filtered := make([]models.DataFile, 0, len(files))
	for _, file := range files {
		if matches(file, config) {
			filtered = append(filtered, file)
		}
	}
	return filtered
}

func matches(file models.DataFile, config Config) bool {
	// Exclude wins over everything else.
	for _, pattern := range config.Exclude {
		if matched, _ := filepath.Match(pattern, file.FileName); matched {
			return false
		}
	}

	if len(config.Include) > 0 {
		included := false
		for _, pattern := range config.Include {
			if matched, _ := filepath.Match(pattern, file.FileName); matched {
				included = true
				break
			}
		}
		if !included {
			return false
		}
	}

	if len(config.Search) > 0 {
		name := strings.ToLower(file.FileName)
		for _, term := range config.Search {
			if !strings.Contains(name, strings.ToLower(term)) {
				return false
			}
		}
	}

	if len(config.Categories) > 0 && !containsFold(config.Categories, file.DataCategory) {
		return false
	}
	if len(config.TrialIDs) > 0 && !containsFold(config.TrialIDs, file.TrialID) {
		return false
	}
	return true
}

func containsFold(haystack []string, needle string) bool {
	for _, s := range haystack {
		if strings.EqualFold(s, needle) {
			return true
		}
	}
	return false
}

// ParsePatternList splits a comma-separated pattern list.
// Example: "*.bam,*.vcf" -> []string{"*.bam", "*.vcf"}
func ParsePatternList(patternStr string) []string {
	if patternStr == "" {
		return nil
	}
	parts := strings.Split(patternStr, ",")
	patterns := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			patterns = append(patterns, trimmed)
		}
	}
	return patterns
}
