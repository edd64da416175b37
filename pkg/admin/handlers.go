package admin

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/phiremock/phiremock/pkg/api"
	"github.com/phiremock/phiremock/pkg/expectation"
)

// handleHealth handles GET /__phiremock/health.
func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	api.WriteJSON(w, http.StatusOK, api.OK())
}

// handleListExpectations handles GET /__phiremock/expectations.
func (a *API) handleListExpectations(w http.ResponseWriter, r *http.Request) {
	list := a.store.List()
	if list == nil {
		list = []*expectation.Expectation{}
	}
	api.WriteJSON(w, http.StatusOK, list)
}

// handleCreateExpectation handles POST /__phiremock/expectations. The body
// is one expectation object; unknown fields and malformed matchers are
// rejected before anything is stored.
func (a *API) handleCreateExpectation(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	e, err := expectation.Decode(body)
	if err != nil {
		a.log.Info("rejected expectation", "error", err)
		api.WriteError(w, http.StatusBadRequest, "invalid expectation: "+err.Error())
		return
	}
	if err := e.Validate(); err != nil {
		a.log.Info("rejected expectation", "error", err)
		api.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	idArg, err := a.store.Add(e)
	if err != nil {
		a.log.Error("failed to store expectation", "error", err)
		api.WriteError(w, http.StatusInternalServerError, "failed to store expectation")
		return
	}

	a.log.Debug("expectation created", "id", idArg)
	resp := api.OK()
	resp.ID = idArg
	api.WriteJSON(w, http.StatusCreated, resp)
}

// handleResetExpectations handles DELETE /__phiremock/expectations.
func (a *API) handleResetExpectations(w http.ResponseWriter, r *http.Request) {
	a.store.Reset()
	api.WriteJSON(w, http.StatusOK, api.OK())
}

// handleGetExpectation handles GET /__phiremock/expectations/{id}.
func (a *API) handleGetExpectation(w http.ResponseWriter, r *http.Request) {
	idArg := chi.URLParam(r, "id")
	e := a.store.Get(idArg)
	if e == nil {
		api.WriteError(w, http.StatusNotFound, "expectation not found: "+idArg)
		return
	}
	api.WriteJSON(w, http.StatusOK, e)
}

// handleDeleteExpectation handles DELETE /__phiremock/expectations/{id}.
// Idempotent: deleting an absent id still succeeds.
func (a *API) handleDeleteExpectation(w http.ResponseWriter, r *http.Request) {
	a.store.Delete(chi.URLParam(r, "id"))
	api.WriteJSON(w, http.StatusOK, api.OK())
}

// handleListScenarios handles GET /__phiremock/scenarios.
func (a *API) handleListScenarios(w http.ResponseWriter, r *http.Request) {
	api.WriteJSON(w, http.StatusOK, a.scenarios.List())
}

// scenarioStateRequest is the body of PUT /__phiremock/scenarios.
type scenarioStateRequest struct {
	ScenarioName  string `json:"scenarioName"`
	ScenarioState string `json:"scenarioState"`
}

// handleSetScenario handles PUT /__phiremock/scenarios: force a scenario
// into a state.
func (a *API) handleSetScenario(w http.ResponseWriter, r *http.Request) {
	var req scenarioStateRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid scenario state: "+err.Error())
		return
	}
	if req.ScenarioName == "" || req.ScenarioState == "" {
		api.WriteError(w, http.StatusBadRequest, "scenarioName and scenarioState are required")
		return
	}

	a.scenarios.Set(req.ScenarioName, req.ScenarioState)
	a.log.Debug("scenario forced", "scenario", req.ScenarioName, "state", req.ScenarioState)
	api.WriteJSON(w, http.StatusOK, api.OK())
}

// handleResetScenarios handles DELETE /__phiremock/scenarios.
func (a *API) handleResetScenarios(w http.ResponseWriter, r *http.Request) {
	a.scenarios.ResetAll()
	api.WriteJSON(w, http.StatusOK, api.OK())
}

// handleSearchExecutions handles GET /__phiremock/executions. The body is a
// request pattern; an empty body matches every journal entry.
func (a *API) handleSearchExecutions(w http.ResponseWriter, r *http.Request) {
	pattern, ok := a.readPattern(w, r)
	if !ok {
		return
	}

	entries, err := a.journal.Search(pattern)
	if err != nil {
		a.log.Error("journal search failed", "error", err)
		api.WriteError(w, http.StatusInternalServerError, "journal search failed: "+err.Error())
		return
	}
	api.WriteJSON(w, http.StatusOK, entries)
}

// handleCountExecutions handles POST /__phiremock/executions/count.
func (a *API) handleCountExecutions(w http.ResponseWriter, r *http.Request) {
	pattern, ok := a.readPattern(w, r)
	if !ok {
		return
	}

	count, err := a.journal.CountMatching(pattern)
	if err != nil {
		a.log.Error("journal count failed", "error", err)
		api.WriteError(w, http.StatusInternalServerError, "journal count failed: "+err.Error())
		return
	}

	resp := api.OK()
	resp.Count = &count
	api.WriteJSON(w, http.StatusOK, resp)
}

// handleResetExecutions handles DELETE /__phiremock/executions.
func (a *API) handleResetExecutions(w http.ResponseWriter, r *http.Request) {
	a.journal.Reset()
	api.WriteJSON(w, http.StatusOK, api.OK())
}

// handleResetAll handles POST /__phiremock/reset: expectations, scenarios,
// and journal in one shot.
func (a *API) handleResetAll(w http.ResponseWriter, r *http.Request) {
	a.store.Reset()
	a.scenarios.ResetAll()
	a.journal.Reset()
	a.log.Debug("full reset")
	api.WriteJSON(w, http.StatusOK, api.OK())
}

// readPattern decodes an optional request pattern from the body. Returns
// ok=false after writing the error response.
func (a *API) readPattern(w http.ResponseWriter, r *http.Request) (*expectation.RequestPattern, bool) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "failed to read request body")
		return nil, false
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, true
	}

	var pattern expectation.RequestPattern
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&pattern); err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid request pattern: "+err.Error())
		return nil, false
	}
	if err := pattern.Validate(); err != nil {
		api.WriteError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	return &pattern, true
}
