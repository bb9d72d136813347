package pathutil

import (
	"regexp"
	"strings"
)

// PathPattern represents a regex pattern and its corresponding normalized template.
type PathPattern struct {
	Pattern  *regexp.Regexp
	Template string
}

const uuidSegment = `[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`

// pathPatterns defines the list of patterns for dynamic routes.
// Patterns are evaluated in order from most specific to least specific.
// Pre-compiled at initialization for optimal performance.
var pathPatterns = []*PathPattern{
	// Source routes with IDs
	{Pattern: regexp.MustCompile(`^/sources/` + uuidSegment + `/events$`), Template: "/sources/:id/events"},
	{Pattern: regexp.MustCompile(`^/sources/` + uuidSegment + `/scrape$`), Template: "/sources/:id/scrape"},
	{Pattern: regexp.MustCompile(`^/sources/` + uuidSegment + `/activate$`), Template: "/sources/:id/activate"},
	{Pattern: regexp.MustCompile(`^/sources/` + uuidSegment + `/deactivate$`), Template: "/sources/:id/deactivate"},
	{Pattern: regexp.MustCompile(`^/sources/` + uuidSegment + `$`), Template: "/sources/:id"},

	// Event routes with IDs
	{Pattern: regexp.MustCompile(`^/events/` + uuidSegment + `$`), Template: "/events/:id"},
}

// NormalizePath normalizes dynamic URL paths to prevent metrics label cardinality explosion.
// It converts paths with UUIDs (e.g., /sources/3f0e8d0a-...) to template format
// (e.g., /sources/:id). Static paths remain unchanged.
//
// Examples:
//
//	NormalizePath("/sources/3f0e8d0a-6a31-4c9c-9a51-2f4f0f5d8b11")        // "/sources/:id"
//	NormalizePath("/sources/3f0e8d0a-6a31-4c9c-9a51-2f4f0f5d8b11/scrape") // "/sources/:id/scrape"
//	NormalizePath("/status")                                               // "/status" (unchanged)
//	NormalizePath("/health")                                               // "/health" (unchanged)
//
// Query parameters and trailing slashes are handled:
//
//	NormalizePath("/sources/3f0e8d0a-6a31-4c9c-9a51-2f4f0f5d8b11?full=1") // "/sources/:id"
//	NormalizePath("/sources/3f0e8d0a-6a31-4c9c-9a51-2f4f0f5d8b11/")       // "/sources/:id"
func NormalizePath(path string) string {
	// Strip query parameters if present
	if idx := strings.IndexByte(path, '?'); idx != -1 {
		path = path[:idx]
	}

	// Strip trailing slash if present (except for root path)
	if len(path) > 1 && path[len(path)-1] == '/' {
		path = path[:len(path)-1]
	}

	for _, p := range pathPatterns {
		if p.Pattern.MatchString(path) {
			return p.Template
		}
	}

	// No match found, return original path. This is safe: static paths like
	// /health, /metrics, /status pass through unchanged.
	return path
}
