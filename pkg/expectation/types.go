// Package expectation provides the expectation data model: request patterns,
// string matchers, response specs, and the JSON wire format used by the
// management API and the file loader.
package expectation

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ScenarioStart is the sentinel state of a scenario that was never set
// (or was explicitly reset to its starting state).
const ScenarioStart = "Scenario.START"

// MatcherKind identifies the variant of a StringMatcher.
type MatcherKind string

const (
	MatcherEqualTo        MatcherKind = "isEqualTo"
	MatcherSameString     MatcherKind = "isSameString"
	MatcherRegex          MatcherKind = "matches"
	MatcherContains       MatcherKind = "contains"
	MatcherSameJSONObject MatcherKind = "isSameJsonObject"
)

// StringMatcher is a tagged predicate over a string. Exactly one variant is
// set. The wire format is an object with a single key naming the variant,
// e.g. {"isEqualTo": "/hello"}; a bare JSON string is accepted as shorthand
// for isEqualTo.
type StringMatcher struct {
	IsEqualTo        *string `json:"isEqualTo,omitempty"`
	IsSameString     *string `json:"isSameString,omitempty"`
	Matches          *string `json:"matches,omitempty"`
	Contains         *string `json:"contains,omitempty"`
	IsSameJSONObject *string `json:"isSameJsonObject,omitempty"`
}

// Kind returns the variant tag and its value. ok is false when no variant
// is set.
func (m *StringMatcher) Kind() (kind MatcherKind, value string, ok bool) {
	switch {
	case m == nil:
		return "", "", false
	case m.IsEqualTo != nil:
		return MatcherEqualTo, *m.IsEqualTo, true
	case m.IsSameString != nil:
		return MatcherSameString, *m.IsSameString, true
	case m.Matches != nil:
		return MatcherRegex, *m.Matches, true
	case m.Contains != nil:
		return MatcherContains, *m.Contains, true
	case m.IsSameJSONObject != nil:
		return MatcherSameJSONObject, *m.IsSameJSONObject, true
	}
	return "", "", false
}

// variantCount returns how many variants are set.
func (m *StringMatcher) variantCount() int {
	n := 0
	for _, p := range []*string{m.IsEqualTo, m.IsSameString, m.Matches, m.Contains, m.IsSameJSONObject} {
		if p != nil {
			n++
		}
	}
	return n
}

// UnmarshalJSON accepts either a matcher object with exactly one known key,
// or a bare string (shorthand for isEqualTo).
func (m *StringMatcher) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*m = StringMatcher{IsEqualTo: &s}
		return nil
	}

	type matcherAlias StringMatcher
	var alias matcherAlias
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&alias); err != nil {
		return err
	}
	*m = StringMatcher(alias)

	if n := m.variantCount(); n != 1 {
		return fmt.Errorf("matcher must have exactly one of isEqualTo, isSameString, matches, contains, isSameJsonObject (got %d)", n)
	}
	return nil
}

// RequestPattern is the matcher-bearing portion of an expectation. Every
// declared matcher must be satisfied for a request to match.
type RequestPattern struct {
	// Method matches the HTTP method. isEqualTo and isSameString compare
	// case-insensitively; matches and contains are evaluated as written
	// against the uppercase method and are case-sensitive.
	Method *StringMatcher `json:"method,omitempty"`

	// URL matches path plus raw query ("/a/b?x=1" when a query is present,
	// "/a/b" otherwise).
	URL *StringMatcher `json:"url,omitempty"`

	// Body matches the raw request body bytes interpreted as UTF-8.
	Body *StringMatcher `json:"body,omitempty"`

	// Headers maps header names (case-insensitive) to matchers. A header
	// matcher succeeds if any value under that name satisfies it.
	Headers map[string]*StringMatcher `json:"headers,omitempty"`

	// FormFields maps field names to matchers applied to a parsed
	// application/x-www-form-urlencoded body.
	FormFields map[string]*StringMatcher `json:"formFields,omitempty"`
}

// Response specifies a static HTTP response.
type Response struct {
	// StatusCode defaults to 200 when zero.
	StatusCode int `json:"statusCode,omitempty"`

	// Body is the response body. A "base64:" prefix marks binary content
	// that is decoded before sending.
	Body string `json:"body,omitempty"`

	// BodyFileName references a file on disk read at send time. Body takes
	// precedence when both are set.
	BodyFileName string `json:"bodyFileName,omitempty"`

	// Headers are set on the response verbatim.
	Headers map[string]string `json:"headers,omitempty"`

	// DelayMillis is slept before the response is emitted.
	DelayMillis int `json:"delayMillis,omitempty"`
}

// Expectation pairs a request pattern with a response or proxy directive and
// optional scenario logic.
type Expectation struct {
	// ID is assigned on insertion (content hash) when absent.
	ID string `json:"id,omitempty"`

	// Priority breaks ties between matching expectations; higher wins.
	Priority int `json:"priority,omitempty"`

	ScenarioName     string `json:"scenarioName,omitempty"`
	ScenarioStateIs  string `json:"scenarioStateIs,omitempty"`
	NewScenarioState string `json:"newScenarioState,omitempty"`

	Request *RequestPattern `json:"request,omitempty"`

	// Response and ProxyTo may both be set; the static response wins and
	// the proxy is ignored.
	Response *Response `json:"response,omitempty"`
	ProxyTo  string    `json:"proxyTo,omitempty"`
}

// Decode parses an expectation from JSON, rejecting unknown fields.
func Decode(data []byte) (*Expectation, error) {
	var e Expectation
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&e); err != nil {
		return nil, err
	}
	return &e, nil
}

// StatusOrDefault returns the configured status code, defaulting to 200.
func (r *Response) StatusOrDefault() int {
	if r.StatusCode == 0 {
		return 200
	}
	return r.StatusCode
}
