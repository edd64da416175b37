// Core HTTP request handler for the mock engine.

package engine

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/phiremock/phiremock/internal/storage"
	"github.com/phiremock/phiremock/pkg/api"
	"github.com/phiremock/phiremock/pkg/journal"
	"github.com/phiremock/phiremock/pkg/logging"
	"github.com/phiremock/phiremock/pkg/scenario"
)

// ManagementPrefix is the reserved URL prefix for the management API.
// Requests under it are never journaled or matched.
const ManagementPrefix = "/__phiremock"

// MaxRequestBodySize is the maximum allowed request body size for mock
// matching (10MB). Prevents denial-of-service via oversized bodies.
const MaxRequestBodySize = 10 << 20

// Handler dispatches incoming requests: management traffic goes to the
// management API; everything else is journaled, matched against the
// expectation store, and answered by the responder.
type Handler struct {
	store     storage.ExpectationStore
	scenarios *scenario.Store
	journal   *journal.Store
	admin     http.Handler
	responder *Responder
	log       *slog.Logger
}

// NewHandler creates a Handler over the given stores.
func NewHandler(store storage.ExpectationStore, scenarios *scenario.Store, jrnl *journal.Store, admin http.Handler, responder *Responder) *Handler {
	return &Handler{
		store:     store,
		scenarios: scenarios,
		journal:   jrnl,
		admin:     admin,
		responder: responder,
		log:       logging.Nop(),
	}
}

// SetLogger sets the operational logger for the handler.
func (h *Handler) SetLogger(log *slog.Logger) {
	if log != nil {
		h.log = log
	} else {
		h.log = logging.Nop()
	}
}

// ServeHTTP implements the http.Handler interface.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// A failure in a single request must never take the server down.
	defer func() {
		if rec := recover(); rec != nil {
			h.log.Error("panic while serving request", "method", r.Method, "path", r.URL.Path, "panic", rec)
			api.WriteError(w, http.StatusInternalServerError, "internal server error")
		}
	}()

	if strings.HasPrefix(r.URL.Path, ManagementPrefix) {
		h.admin.ServeHTTP(w, r)
		return
	}

	start := time.Now()

	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.log.Warn("request body too large", "path", r.URL.Path, "limit", MaxRequestBodySize)
			api.WriteError(w, http.StatusRequestEntityTooLarge, "request body exceeds maximum allowed size")
			return
		}
		h.log.Warn("failed to read request body", "path", r.URL.Path, "error", err)
	}

	req := ParseRequest(r, body)

	// Journal first: the entry is retained even when the client later
	// disconnects or nothing matches.
	h.journal.Append(&journal.Entry{
		Timestamp:   start,
		Method:      req.Method(),
		Path:        req.Path(),
		QueryString: req.RawQuery(),
		Headers:     req.Headers(),
		Body:        string(body),
	})

	snapshot := h.store.List()
	winner, err := SelectWinner(snapshot, req, h.scenarios)
	if err != nil {
		h.log.Error("matcher evaluation failed", "method", req.Method(), "path", req.Path(), "error", err)
		api.WriteError(w, http.StatusInternalServerError, "matcher evaluation failed: "+err.Error())
		return
	}

	if winner == nil {
		h.log.Debug("no expectation matched", "method", req.Method(), "path", req.Path())
		api.WriteError(w, http.StatusNotFound, "No expectation matched")
		return
	}

	h.log.Debug("request matched",
		"method", req.Method(),
		"path", req.Path(),
		"expectation_id", winner.ID,
		"priority", winner.Priority,
	)

	// Transition immediately after winner selection so any match started
	// afterwards observes the new state, even while this response is
	// still being delayed or proxied.
	if winner.ScenarioName != "" && winner.NewScenarioState != "" {
		h.scenarios.Set(winner.ScenarioName, winner.NewScenarioState)
	}

	status := h.responder.Write(r.Context(), w, winner, req)
	if status == 0 {
		h.log.Debug("client disconnected before response", "method", req.Method(), "path", req.Path())
	}
}
