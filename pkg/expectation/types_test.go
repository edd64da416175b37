package expectation

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestDecode_Minimal(t *testing.T) {
	e, err := Decode([]byte(`{"request":{"url":{"isEqualTo":"/hello"}},"response":{"statusCode":200,"body":"hi"}}`))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if e.Request == nil || e.Request.URL == nil {
		t.Fatal("Decode() dropped request.url")
	}
	kind, value, ok := e.Request.URL.Kind()
	if !ok || kind != MatcherEqualTo || value != "/hello" {
		t.Errorf("url matcher = (%v, %q, %v), want (isEqualTo, /hello, true)", kind, value, ok)
	}
	if e.Response.StatusOrDefault() != 200 {
		t.Errorf("StatusOrDefault() = %d, want 200", e.Response.StatusOrDefault())
	}
}

func TestDecode_MethodShorthandString(t *testing.T) {
	e, err := Decode([]byte(`{"request":{"method":"get","url":{"isEqualTo":"/hello"}},"response":{"body":"hi"}}`))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	kind, value, ok := e.Request.Method.Kind()
	if !ok || kind != MatcherEqualTo || value != "get" {
		t.Errorf("method matcher = (%v, %q, %v), want isEqualTo get", kind, value, ok)
	}
}

func TestDecode_UnknownTopLevelKey(t *testing.T) {
	_, err := Decode([]byte(`{"request":{},"response":{},"bogus":1}`))
	if err == nil {
		t.Fatal("Decode() accepted unknown top-level key")
	}
}

func TestDecode_MatcherVariants(t *testing.T) {
	tests := []struct {
		name    string
		json    string
		want    MatcherKind
		wantErr bool
	}{
		{name: "isEqualTo", json: `{"isEqualTo":"x"}`, want: MatcherEqualTo},
		{name: "isSameString", json: `{"isSameString":"x"}`, want: MatcherSameString},
		{name: "matches", json: `{"matches":"^x$"}`, want: MatcherRegex},
		{name: "contains", json: `{"contains":"x"}`, want: MatcherContains},
		{name: "isSameJsonObject", json: `{"isSameJsonObject":"{}"}`, want: MatcherSameJSONObject},
		{name: "empty object", json: `{}`, wantErr: true},
		{name: "two variants", json: `{"isEqualTo":"x","contains":"y"}`, wantErr: true},
		{name: "unknown variant", json: `{"isAlmostEqualTo":"x"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m StringMatcher
			err := json.Unmarshal([]byte(tt.json), &m)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Unmarshal(%s) accepted invalid matcher", tt.json)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unmarshal(%s) error = %v", tt.json, err)
			}
			kind, _, ok := m.Kind()
			if !ok || kind != tt.want {
				t.Errorf("Kind() = (%v, %v), want %v", kind, ok, tt.want)
			}
		})
	}
}

func TestRoundTrip_OmitsAbsentFields(t *testing.T) {
	e, err := Decode([]byte(`{"request":{"url":{"isEqualTo":"/x"}},"response":{"body":"ok"}}`))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	out, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	for _, absent := range []string{"scenarioName", "proxyTo", "priority", "bodyFileName", "delayMillis"} {
		if strings.Contains(string(out), absent) {
			t.Errorf("Marshal() includes absent field %q: %s", absent, out)
		}
	}

	// A decode of the re-encoded form must be equivalent.
	again, err := Decode(out)
	if err != nil {
		t.Fatalf("Decode(round-trip) error = %v", err)
	}
	if again.Response.Body != "ok" || again.Priority != 0 {
		t.Errorf("round-trip changed content: %+v", again)
	}
}
