package expectation

import (
	"strings"
	"testing"
)

func strPtr(s string) *string { return &s }

func validExpectation() *Expectation {
	return &Expectation{
		Request:  &RequestPattern{URL: &StringMatcher{IsEqualTo: strPtr("/x")}},
		Response: &Response{Body: "ok"},
	}
}

func TestValidate_OK(t *testing.T) {
	if err := validExpectation().Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestValidate_MissingRequest(t *testing.T) {
	e := validExpectation()
	e.Request = nil
	if err := e.Validate(); err == nil {
		t.Fatal("Validate() accepted missing request")
	}
}

func TestValidate_MissingResponseAndProxy(t *testing.T) {
	e := validExpectation()
	e.Response = nil
	if err := e.Validate(); err == nil {
		t.Fatal("Validate() accepted expectation with neither response nor proxyTo")
	}
}

func TestValidate_ProxyOnlyIsEnough(t *testing.T) {
	e := validExpectation()
	e.Response = nil
	e.ProxyTo = "http://upstream.example/"
	if err := e.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestValidate_InvalidRegexRejected(t *testing.T) {
	e := validExpectation()
	e.Request.URL = &StringMatcher{Matches: strPtr("([unclosed")}
	err := e.Validate()
	if err == nil {
		t.Fatal("Validate() accepted invalid regex")
	}
	if !strings.Contains(err.Error(), "request.url") {
		t.Errorf("error %q does not name the field", err)
	}
}

func TestValidate_InvalidJSONDocumentRejected(t *testing.T) {
	e := validExpectation()
	e.Request.Body = &StringMatcher{IsSameJSONObject: strPtr(`{"broken":`)}
	if err := e.Validate(); err == nil {
		t.Fatal("Validate() accepted invalid JSON document")
	}
}

func TestValidate_ScenarioStateRequiresName(t *testing.T) {
	e := validExpectation()
	e.ScenarioStateIs = "second"
	if err := e.Validate(); err == nil {
		t.Fatal("Validate() accepted scenarioStateIs without scenarioName")
	}

	e = validExpectation()
	e.NewScenarioState = "second"
	if err := e.Validate(); err == nil {
		t.Fatal("Validate() accepted newScenarioState without scenarioName")
	}
}

func TestValidate_StatusCodeRange(t *testing.T) {
	e := validExpectation()
	e.Response.StatusCode = 99
	if err := e.Validate(); err == nil {
		t.Fatal("Validate() accepted status code 99")
	}
}

func TestValidate_HeaderMatchers(t *testing.T) {
	e := validExpectation()
	e.Request.Headers = map[string]*StringMatcher{
		"Content-Type": {Matches: strPtr("([")},
	}
	if err := e.Validate(); err == nil {
		t.Fatal("Validate() accepted invalid header matcher regex")
	}
}
