package expectation

import (
	"encoding/json"
	"fmt"
	"regexp"
)

// ValidationError represents a validation failure with context.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on %s: %s", e.Field, e.Message)
}

// Validate checks that the expectation is well formed. Regex matchers are
// compiled here so malformed patterns are rejected at insert time and never
// stored.
func (e *Expectation) Validate() error {
	if e.Request == nil {
		return &ValidationError{Field: "request", Message: "request is required"}
	}
	if e.Response == nil && e.ProxyTo == "" {
		return &ValidationError{Field: "response", Message: "one of response or proxyTo is required"}
	}
	if e.ScenarioStateIs != "" && e.ScenarioName == "" {
		return &ValidationError{Field: "scenarioStateIs", Message: "scenarioStateIs requires scenarioName"}
	}
	if e.NewScenarioState != "" && e.ScenarioName == "" {
		return &ValidationError{Field: "newScenarioState", Message: "newScenarioState requires scenarioName"}
	}

	if err := e.Request.Validate(); err != nil {
		return err
	}

	if e.Response != nil {
		if sc := e.Response.StatusCode; sc != 0 && (sc < 100 || sc > 599) {
			return &ValidationError{Field: "response.statusCode", Message: fmt.Sprintf("invalid status code %d", sc)}
		}
		if e.Response.DelayMillis < 0 {
			return &ValidationError{Field: "response.delayMillis", Message: "delay must not be negative"}
		}
	}

	return nil
}

// Validate checks every matcher declared in the pattern. Also used for the
// patterns posted to the journal search endpoints.
func (p *RequestPattern) Validate() error {
	if p == nil {
		return nil
	}
	if err := validateMatcher("request.method", p.Method); err != nil {
		return err
	}
	if err := validateMatcher("request.url", p.URL); err != nil {
		return err
	}
	if err := validateMatcher("request.body", p.Body); err != nil {
		return err
	}
	for name, m := range p.Headers {
		if err := validateMatcher("request.headers."+name, m); err != nil {
			return err
		}
	}
	for name, m := range p.FormFields {
		if err := validateMatcher("request.formFields."+name, m); err != nil {
			return err
		}
	}
	return nil
}

// validateMatcher checks a single matcher: exactly one variant, compilable
// regex, parseable JSON document for isSameJsonObject.
func validateMatcher(field string, m *StringMatcher) error {
	if m == nil {
		return nil
	}
	kind, value, ok := m.Kind()
	if !ok {
		return &ValidationError{Field: field, Message: "matcher must declare exactly one variant"}
	}
	if m.variantCount() > 1 {
		return &ValidationError{Field: field, Message: "matcher must declare exactly one variant"}
	}

	switch kind {
	case MatcherRegex:
		if _, err := regexp.Compile(value); err != nil {
			return &ValidationError{Field: field, Message: fmt.Sprintf("invalid pattern: %v", err)}
		}
	case MatcherSameJSONObject:
		var doc any
		if err := json.Unmarshal([]byte(value), &doc); err != nil {
			return &ValidationError{Field: field, Message: fmt.Sprintf("invalid JSON document: %v", err)}
		}
	}
	return nil
}
