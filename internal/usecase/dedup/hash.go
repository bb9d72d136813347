package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"event-harvest/internal/domain/entity"
)

// GenerateEventHash computes the deterministic identity hash for a candidate:
// lowercased trimmed title, lowercased trimmed location, and the start date at
// day resolution. Two records with the same hash are exact duplicates
// regardless of any other field, which gives the O(1) fast path ahead of
// fuzzy matching.
func GenerateEventHash(c *entity.CandidateEvent) string {
	if c == nil {
		return ""
	}
	return hashFields(c.Title, c.Location, c.StartTime)
}

// EventHash computes the same identity hash for a persisted event, so
// candidate and stored records can be compared directly.
func EventHash(e *entity.Event) string {
	if e == nil {
		return ""
	}
	return hashFields(e.Title, e.Location, e.StartTime)
}

func hashFields(title, location string, start *time.Time) string {
	day := ""
	if start != nil {
		day = start.UTC().Format("2006-01-02")
	}
	key := normalize(title) + "|" + normalize(location) + "|" + day
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// normalize lowercases, trims, and collapses inner whitespace so that
// cosmetic differences never change identity.
func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(s))), " ")
}
