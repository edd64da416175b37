// Package journal provides the append-only record of received mock requests.
package journal

import (
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Entry captures one received mock request.
type Entry struct {
	// ID is a unique identifier for the entry.
	ID string `json:"id"`

	// Timestamp is the wall-clock time of receipt.
	Timestamp time.Time `json:"timestamp"`

	// Method is the HTTP method, uppercase.
	Method string `json:"method"`

	// Path is the request URL path.
	Path string `json:"path"`

	// QueryString is the raw query string, without the leading "?".
	QueryString string `json:"queryString,omitempty"`

	// Headers are the request headers (multi-value).
	Headers map[string][]string `json:"headers,omitempty"`

	// Body is the request body content.
	Body string `json:"body,omitempty"`
}

// URL returns path plus raw query when a query is present.
func (e *Entry) URL() string {
	if e.QueryString != "" {
		return e.Path + "?" + e.QueryString
	}
	return e.Path
}

// entryRequest adapts an Entry to the matcher's request view, so journal
// search shares the exact pattern semantics used for expectation matching.
type entryRequest struct {
	e *Entry
}

func (r entryRequest) Method() string {
	return strings.ToUpper(r.e.Method)
}

func (r entryRequest) URL() string {
	return r.e.URL()
}

func (r entryRequest) Body() []byte {
	return []byte(r.e.Body)
}

func (r entryRequest) HeaderValues(name string) []string {
	return http.Header(r.e.Headers).Values(name)
}

func (r entryRequest) FormFields() url.Values {
	ct := http.Header(r.e.Headers).Get("Content-Type")
	if mediaType, _, err := mime.ParseMediaType(ct); err != nil || mediaType != "application/x-www-form-urlencoded" {
		return nil
	}
	form, err := url.ParseQuery(r.e.Body)
	if err != nil {
		return nil
	}
	return form
}
