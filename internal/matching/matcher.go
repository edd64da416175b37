// Package matching evaluates request patterns against incoming requests.
// The same semantics back expectation selection and journal search.
package matching

import (
	"encoding/json"
	"fmt"
	"net/url"
	"reflect"
	"regexp"
	"strings"

	"golang.org/x/text/cases"

	"github.com/phiremock/phiremock/pkg/expectation"
)

// Request is the view of a received request the matcher operates on.
// Implemented by the engine's parsed request and by an adapter over journal
// entries.
type Request interface {
	// Method returns the HTTP method, uppercase.
	Method() string

	// URL returns path plus "?" plus raw query when a query is present,
	// else just the path.
	URL() string

	// Body returns the raw request body bytes.
	Body() []byte

	// HeaderValues returns all values for the given header name,
	// case-insensitively.
	HeaderValues(name string) []string

	// FormFields returns the parsed application/x-www-form-urlencoded body.
	FormFields() url.Values
}

// Matches reports whether the request satisfies every matcher declared in
// the pattern. A nil pattern matches everything. The error path is reserved
// for matcher evaluation failures (a pattern that no longer compiles).
func Matches(p *expectation.RequestPattern, r Request) (bool, error) {
	if p == nil {
		return true, nil
	}

	if p.Method != nil {
		ok, err := evalCaseless(p.Method, r.Method())
		if err != nil || !ok {
			return false, err
		}
	}

	if p.URL != nil {
		ok, err := Eval(p.URL, r.URL())
		if err != nil || !ok {
			return false, err
		}
	}

	if p.Body != nil {
		ok, err := Eval(p.Body, string(r.Body()))
		if err != nil || !ok {
			return false, err
		}
	}

	for name, m := range p.Headers {
		ok, err := matchAnyValue(m, r.HeaderValues(name))
		if err != nil || !ok {
			return false, err
		}
	}

	if len(p.FormFields) > 0 {
		form := r.FormFields()
		for name, m := range p.FormFields {
			ok, err := matchAnyValue(m, form[name])
			if err != nil || !ok {
				return false, err
			}
		}
	}

	return true, nil
}

// matchAnyValue succeeds if any of the values satisfies the matcher.
func matchAnyValue(m *expectation.StringMatcher, values []string) (bool, error) {
	for _, v := range values {
		ok, err := Eval(m, v)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// Eval evaluates a single string matcher against a value.
func Eval(m *expectation.StringMatcher, value string) (bool, error) {
	kind, expected, ok := m.Kind()
	if !ok {
		return false, fmt.Errorf("matcher declares no variant")
	}

	switch kind {
	case expectation.MatcherEqualTo:
		return value == expected, nil
	case expectation.MatcherSameString:
		return foldEqual(expected, value), nil
	case expectation.MatcherRegex:
		re, err := regexp.Compile(expected)
		if err != nil {
			return false, fmt.Errorf("compile pattern %q: %w", expected, err)
		}
		// Partial-match semantics: the pattern need not anchor the input.
		return re.MatchString(value), nil
	case expectation.MatcherContains:
		return strings.Contains(value, expected), nil
	case expectation.MatcherSameJSONObject:
		return jsonEqual(expected, value)
	}
	return false, fmt.Errorf("unknown matcher kind %q", kind)
}

// evalCaseless evaluates a matcher with case-insensitive equality semantics.
// Used for the method matcher, where "get" and "GET" are the same.
func evalCaseless(m *expectation.StringMatcher, value string) (bool, error) {
	if eq := m.IsEqualTo; eq != nil {
		return foldEqual(*eq, value), nil
	}
	return Eval(m, value)
}

// foldEqual compares two strings under Unicode case folding.
func foldEqual(a, b string) bool {
	folder := cases.Fold()
	return folder.String(a) == folder.String(b)
}

// jsonEqual compares two JSON documents structurally, ignoring key order
// and whitespace. A body that is not valid JSON simply does not match.
func jsonEqual(expected, actual string) (bool, error) {
	var want any
	if err := json.Unmarshal([]byte(expected), &want); err != nil {
		return false, fmt.Errorf("matcher document is not valid JSON: %w", err)
	}
	var got any
	if err := json.Unmarshal([]byte(actual), &got); err != nil {
		return false, nil
	}
	return reflect.DeepEqual(want, got), nil
}
