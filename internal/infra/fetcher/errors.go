// Package fetcher retrieves readable description text from event detail
// pages. HTML listing pages often carry only a title and a link; this
// package follows the link and extracts the main content with the
// Readability algorithm so stored events get a usable description.
package fetcher

import "errors"

var (
	// ErrInvalidURL indicates the detail page URL failed validation.
	ErrInvalidURL = errors.New("invalid URL")

	// ErrPrivateIP indicates the URL resolves to a private or loopback
	// address and was blocked (SSRF prevention).
	ErrPrivateIP = errors.New("URL resolves to private IP")

	// ErrTooManyRedirects indicates the redirect limit was exceeded.
	ErrTooManyRedirects = errors.New("too many redirects")

	// ErrBodyTooLarge indicates the response exceeded the size limit.
	ErrBodyTooLarge = errors.New("response body too large")

	// ErrNoContent indicates Readability found no usable text.
	ErrNoContent = errors.New("no readable content found")
)
