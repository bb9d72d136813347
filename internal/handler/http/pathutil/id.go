package pathutil

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

// ErrInvalidID is returned when the ID in the URL path is invalid.
var ErrInvalidID = errors.New("invalid id")

// ExtractID extracts a UUID source or event identifier from a URL path.
// It removes the specified prefix, strips one optional action suffix
// (e.g. "/scrape"), and validates the remainder as a UUID.
//
// Example:
//
//	id, err := ExtractID("/sources/3f0e8d0a-6a31-4c9c-9a51-2f4f0f5d8b11/scrape", "/sources/")
//	// Returns: "3f0e8d0a-6a31-4c9c-9a51-2f4f0f5d8b11", nil
func ExtractID(path, prefix string) (string, error) {
	idStr := strings.TrimPrefix(path, prefix)
	if idStr == path || idStr == "" {
		return "", ErrInvalidID
	}
	if idx := strings.IndexByte(idStr, '/'); idx != -1 {
		idStr = idStr[:idx]
	}
	if _, err := uuid.Parse(idStr); err != nil {
		return "", ErrInvalidID
	}
	return idStr, nil
}
