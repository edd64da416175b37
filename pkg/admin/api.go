// Package admin provides the management API served under the reserved
// /__phiremock prefix.
package admin

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/phiremock/phiremock/internal/storage"
	"github.com/phiremock/phiremock/pkg/journal"
	"github.com/phiremock/phiremock/pkg/logging"
	"github.com/phiremock/phiremock/pkg/scenario"
)

// Prefix is the reserved URL prefix for all management endpoints.
const Prefix = "/__phiremock"

// API mutates the expectation store, scenario store, and request journal
// over HTTP while mock traffic is being served concurrently.
type API struct {
	store     storage.ExpectationStore
	scenarios *scenario.Store
	journal   *journal.Store
	log       *slog.Logger
	router    chi.Router
}

// New creates the management API over the given stores.
func New(store storage.ExpectationStore, scenarios *scenario.Store, jrnl *journal.Store, log *slog.Logger) *API {
	if log == nil {
		log = logging.Nop()
	}

	a := &API{
		store:     store,
		scenarios: scenarios,
		journal:   jrnl,
		log:       log,
	}
	a.router = a.buildRouter()
	return a
}

// buildRouter sets up all management routes.
func (a *API) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Route(Prefix, func(r chi.Router) {
		r.Get("/health", a.handleHealth)

		r.Get("/expectations", a.handleListExpectations)
		r.Post("/expectations", a.handleCreateExpectation)
		r.Delete("/expectations", a.handleResetExpectations)
		r.Get("/expectations/{id}", a.handleGetExpectation)
		r.Delete("/expectations/{id}", a.handleDeleteExpectation)

		r.Get("/scenarios", a.handleListScenarios)
		r.Put("/scenarios", a.handleSetScenario)
		r.Delete("/scenarios", a.handleResetScenarios)

		r.Get("/executions", a.handleSearchExecutions)
		r.Post("/executions/count", a.handleCountExecutions)
		r.Delete("/executions", a.handleResetExecutions)

		r.Post("/reset", a.handleResetAll)
	})

	return r
}

// ServeHTTP implements http.Handler.
func (a *API) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}
