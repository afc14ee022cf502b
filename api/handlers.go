/*
handlers.go - HTTP API handlers for the voucher entitlement engine

PURPOSE:
  Exposes the pipeline over REST. Handles HTTP request/response, JSON
  serialization, and delegates to the pipeline coordinator.

ENDPOINTS:
  Runs:
    POST   /api/runs              Execute the pipeline over a posted source set
    GET    /api/runs              List run history (newest first)
    GET    /api/runs/{id}         Get one stored run

  Scenarios:
    GET    /api/scenarios/demo    Inspect the built-in demo source set
    POST   /api/scenarios/demo    Execute the demo source set

  Health:
    GET    /api/health            Liveness probe

REQUEST FLOW:
  1. Decode and validate the posted source set
  2. Assemble the coordinator from configuration
  3. Run the five stages
  4. Persist the run to history
  5. Serialize the outcome, report included only on a passing verdict

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Malformed payload, unparseable dates, fatal source data
  - 404: Unknown run ID
  - 500: Storage or unexpected pipeline failures
  A run that completes but fails validation is NOT an HTTP error: it returns
  200 with verdict "fail" and no report, so callers always see the findings.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: The built-in demo source set
  - server.go: Router setup and middleware
*/
package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/warp/voucher-engine/benefit"
	"github.com/warp/voucher-engine/config"
	"github.com/warp/voucher-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store  *sqlite.Store
	Config *config.Config
}

// NewHandler creates a new handler with the given store and configuration.
func NewHandler(store *sqlite.Store, cfg *config.Config) *Handler {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Handler{Store: store, Config: cfg}
}

// =============================================================================
// RUN HANDLERS
// =============================================================================

// ExecuteRun runs the pipeline over a posted source set.
// POST /api/runs
func (h *Handler) ExecuteRun(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", "", err)
		return
	}
	h.execute(w, r, req)
}

// ListRuns returns the run history, newest first.
// GET /api/runs?limit=N
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid limit", "", err)
			return
		}
		limit = n
	}

	records, err := h.Store.ListRuns(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list runs", "", err)
		return
	}

	items := make([]RunListItem, len(records))
	for i, rec := range records {
		items[i] = RunListItem{
			ID:         rec.ID,
			CreatedAt:  rec.CreatedAt.Format(time.RFC3339),
			Competence: rec.Competence,
			Verdict:    string(rec.Verdict),
			Calculated: rec.Counts.Calculated,
			Rejected:   rec.Counts.Rejected,
		}
	}
	writeJSON(w, http.StatusOK, items)
}

// GetRun returns one stored run.
// GET /api/runs/{id}
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid run ID", "", err)
		return
	}

	rec, err := h.Store.GetRun(r.Context(), id)
	if err != nil {
		if errors.Is(err, benefit.ErrRunNotFound) {
			writeError(w, http.StatusNotFound, "Run not found", "", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to load run", "", err)
		return
	}
	writeJSON(w, http.StatusOK, toStoredRunDTO(rec))
}

// =============================================================================
// SCENARIO HANDLERS
// =============================================================================

// GetDemoScenario returns the built-in demo source set without running it.
// GET /api/scenarios/demo
func (h *Handler) GetDemoScenario(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, DemoRequest())
}

// RunDemoScenario executes the built-in demo source set.
// POST /api/scenarios/demo
func (h *Handler) RunDemoScenario(w http.ResponseWriter, r *http.Request) {
	h.execute(w, r, DemoRequest())
}

// Health is the liveness probe.
// GET /api/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// SHARED EXECUTION PATH
// =============================================================================

func (h *Handler) execute(w http.ResponseWriter, r *http.Request, req RunRequest) {
	set, err := req.Sources.ToSourceSet()
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid source data", "", err)
		return
	}

	coord := h.Config.Coordinator()
	if req.Period != "" {
		period, err := config.ParsePeriod(req.Period)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid period", "", err)
			return
		}
		coord.Period = period
	}

	out, err := coord.Run(r.Context(), set)
	if err != nil {
		var stageErr *benefit.StageError
		stage := ""
		if errors.As(err, &stageErr) {
			stage = stageErr.Stage
		}
		if benefit.IsFatalSource(err) {
			writeError(w, http.StatusBadRequest, "Unusable source data", stage, err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Pipeline run failed", stage, err)
		return
	}

	resp := toRunResponse(out)
	if h.Store != nil {
		id, err := h.Store.SaveRun(r.Context(), out)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to persist run", "", err)
			return
		}
		resp.ID = id
	}
	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message, stage string, err error) {
	resp := ErrorResponse{Error: message, Stage: stage}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
