package engine

import (
	"mime"
	"net/http"
	"net/url"
	"strings"
	"sync"
)

// ParsedRequest is an immutable snapshot of an incoming HTTP request:
// uppercase method, path plus raw query, header multimap, and body bytes.
// The form-field map is computed lazily on first access and cached.
type ParsedRequest struct {
	method     string
	path       string
	rawQuery   string
	headers    http.Header
	body       []byte
	remoteAddr string

	formOnce sync.Once
	form     url.Values
}

// ParseRequest builds a ParsedRequest from an http.Request and its already
// read body bytes.
func ParseRequest(r *http.Request, body []byte) *ParsedRequest {
	return &ParsedRequest{
		method:     strings.ToUpper(r.Method),
		path:       r.URL.Path,
		rawQuery:   r.URL.RawQuery,
		headers:    r.Header.Clone(),
		body:       body,
		remoteAddr: r.RemoteAddr,
	}
}

// Method returns the HTTP method, uppercase.
func (r *ParsedRequest) Method() string {
	return r.method
}

// Path returns the URL path.
func (r *ParsedRequest) Path() string {
	return r.path
}

// RawQuery returns the raw query string.
func (r *ParsedRequest) RawQuery() string {
	return r.rawQuery
}

// URL returns path plus "?" plus raw query when a query is present.
func (r *ParsedRequest) URL() string {
	if r.rawQuery != "" {
		return r.path + "?" + r.rawQuery
	}
	return r.path
}

// Body returns the raw request body bytes.
func (r *ParsedRequest) Body() []byte {
	return r.body
}

// Headers returns the request header multimap.
func (r *ParsedRequest) Headers() http.Header {
	return r.headers
}

// HeaderValues returns all values for the given header name,
// case-insensitively.
func (r *ParsedRequest) HeaderValues(name string) []string {
	return r.headers.Values(name)
}

// RemoteAddr returns the client address.
func (r *ParsedRequest) RemoteAddr() string {
	return r.remoteAddr
}

// FormFields returns the body parsed as application/x-www-form-urlencoded.
// Returns nil when the request carries a different content type. The parse
// runs once; the result is cached on the request.
func (r *ParsedRequest) FormFields() url.Values {
	r.formOnce.Do(func() {
		ct := r.headers.Get("Content-Type")
		mediaType, _, err := mime.ParseMediaType(ct)
		if err != nil || mediaType != "application/x-www-form-urlencoded" {
			return
		}
		form, err := url.ParseQuery(string(r.body))
		if err != nil {
			return
		}
		r.form = form
	})
	return r.form
}
