package matching

import (
	"net/url"
	"testing"

	"github.com/phiremock/phiremock/pkg/expectation"
)

// stubRequest implements Request for matcher tests.
type stubRequest struct {
	method  string
	url     string
	body    string
	headers map[string][]string
	form    url.Values
}

func (r stubRequest) Method() string { return r.method }
func (r stubRequest) URL() string    { return r.url }
func (r stubRequest) Body() []byte   { return []byte(r.body) }
func (r stubRequest) HeaderValues(name string) []string {
	// Tests register headers under their canonical form.
	return r.headers[name]
}
func (r stubRequest) FormFields() url.Values { return r.form }

func strPtr(s string) *string { return &s }

func TestEval(t *testing.T) {
	tests := []struct {
		name    string
		matcher expectation.StringMatcher
		value   string
		want    bool
	}{
		{name: "isEqualTo hit", matcher: expectation.StringMatcher{IsEqualTo: strPtr("/a")}, value: "/a", want: true},
		{name: "isEqualTo case-sensitive", matcher: expectation.StringMatcher{IsEqualTo: strPtr("/A")}, value: "/a", want: false},
		{name: "isSameString folds case", matcher: expectation.StringMatcher{IsSameString: strPtr("HeLLo")}, value: "hello", want: true},
		{name: "isSameString folds unicode", matcher: expectation.StringMatcher{IsSameString: strPtr("STRASSE")}, value: "straße", want: true},
		{name: "matches partial", matcher: expectation.StringMatcher{Matches: strPtr("users/\\d+")}, value: "/api/users/42", want: true},
		{name: "matches miss", matcher: expectation.StringMatcher{Matches: strPtr("^/only$")}, value: "/only/more", want: false},
		{name: "contains hit", matcher: expectation.StringMatcher{Contains: strPtr("ell")}, value: "hello", want: true},
		{name: "contains miss", matcher: expectation.StringMatcher{Contains: strPtr("xyz")}, value: "hello", want: false},
		{name: "json object key order", matcher: expectation.StringMatcher{IsSameJSONObject: strPtr(`{"a":1,"b":[2,3]}`)}, value: `{"b": [2, 3], "a": 1}`, want: true},
		{name: "json object mismatch", matcher: expectation.StringMatcher{IsSameJSONObject: strPtr(`{"a":1}`)}, value: `{"a":2}`, want: false},
		{name: "json object non-json body", matcher: expectation.StringMatcher{IsSameJSONObject: strPtr(`{"a":1}`)}, value: `not json`, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Eval(&tt.matcher, tt.value)
			if err != nil {
				t.Fatalf("Eval() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Eval(%v, %q) = %v, want %v", tt.matcher, tt.value, got, tt.want)
			}
		})
	}
}

func TestEval_BadRegexReturnsError(t *testing.T) {
	_, err := Eval(&expectation.StringMatcher{Matches: strPtr("([")}, "anything")
	if err == nil {
		t.Fatal("Eval() did not report malformed pattern")
	}
}

func TestMatches_NilPatternMatchesEverything(t *testing.T) {
	ok, err := Matches(nil, stubRequest{method: "GET", url: "/whatever"})
	if err != nil || !ok {
		t.Fatalf("Matches(nil) = (%v, %v), want (true, nil)", ok, err)
	}
}

func TestMatches_MethodIsCaseInsensitive(t *testing.T) {
	p := &expectation.RequestPattern{
		Method: &expectation.StringMatcher{IsEqualTo: strPtr("get")},
	}
	ok, err := Matches(p, stubRequest{method: "GET"})
	if err != nil {
		t.Fatalf("Matches() error = %v", err)
	}
	if !ok {
		t.Error("method matcher \"get\" did not match GET")
	}
}

func TestMatches_URLIncludesQuery(t *testing.T) {
	p := &expectation.RequestPattern{
		URL: &expectation.StringMatcher{IsEqualTo: strPtr("/a?x=1")},
	}

	if ok, _ := Matches(p, stubRequest{url: "/a?x=1"}); !ok {
		t.Error("url matcher did not match path with query")
	}
	if ok, _ := Matches(p, stubRequest{url: "/a"}); ok {
		t.Error("url matcher matched bare path against pattern with query")
	}
}

func TestMatches_HeaderAnyValue(t *testing.T) {
	p := &expectation.RequestPattern{
		Headers: map[string]*expectation.StringMatcher{
			"Accept": {Contains: strPtr("json")},
		},
	}

	r := stubRequest{headers: map[string][]string{
		"Accept": {"text/html", "application/json"},
	}}
	if ok, _ := Matches(p, r); !ok {
		t.Error("header matcher did not accept any-value semantics")
	}

	r = stubRequest{headers: map[string][]string{"Accept": {"text/html"}}}
	if ok, _ := Matches(p, r); ok {
		t.Error("header matcher matched with no satisfying value")
	}
}

func TestMatches_FormFields(t *testing.T) {
	p := &expectation.RequestPattern{
		FormFields: map[string]*expectation.StringMatcher{
			"user": {IsEqualTo: strPtr("alice")},
		},
	}

	r := stubRequest{form: url.Values{"user": {"alice"}, "age": {"30"}}}
	if ok, _ := Matches(p, r); !ok {
		t.Error("form field matcher did not match parsed form")
	}

	r = stubRequest{form: nil}
	if ok, _ := Matches(p, r); ok {
		t.Error("form field matcher matched request without form body")
	}
}

func TestMatches_AllDeclaredMustHold(t *testing.T) {
	p := &expectation.RequestPattern{
		Method: &expectation.StringMatcher{IsEqualTo: strPtr("POST")},
		URL:    &expectation.StringMatcher{IsEqualTo: strPtr("/a")},
		Body:   &expectation.StringMatcher{Contains: strPtr("payload")},
	}

	hit := stubRequest{method: "POST", url: "/a", body: "the payload here"}
	if ok, _ := Matches(p, hit); !ok {
		t.Error("conjunction of matchers did not match satisfying request")
	}

	miss := stubRequest{method: "POST", url: "/a", body: "nope"}
	if ok, _ := Matches(p, miss); ok {
		t.Error("pattern matched although body matcher failed")
	}
}
