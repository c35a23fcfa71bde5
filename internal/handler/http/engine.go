package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/commercegrid/pricing-engine/internal/engine"
	"github.com/commercegrid/pricing-engine/internal/lock"
	"github.com/commercegrid/pricing-engine/pkg/httputil"
	"github.com/commercegrid/pricing-engine/pkg/validator"
)

// EngineHandler handles HTTP requests that trigger engine runs.
type EngineHandler struct {
	runner engine.Runner
	logger *slog.Logger
}

// NewEngineHandler creates a new engine HTTP handler.
func NewEngineHandler(runner engine.Runner, logger *slog.Logger) *EngineHandler {
	return &EngineHandler{
		runner: runner,
		logger: logger,
	}
}

// RunRequest is the optional JSON request body for triggering a run. Now
// overrides the evaluation time, mainly for backfills and testing.
type RunRequest struct {
	Now string `json:"now" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
}

// Run handles POST /internal/discount-engine/run. The run executes synchronously and
// the summary is returned whether or not individual rules failed; only a
// concurrent run (409) or an invalid request (400) prevents execution.
func (h *EngineHandler) Run(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		httputil.WriteValidationError(w, err)
		return
	}
	if err := validator.Validate(&req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	now := time.Now().UTC()
	if req.Now != "" {
		parsed, err := time.Parse(time.RFC3339, req.Now)
		if err != nil {
			httputil.WriteValidationError(w, err)
			return
		}
		now = parsed.UTC()
	}

	summary, err := h.runner.Run(r.Context(), now)
	if err != nil {
		if errors.Is(err, lock.ErrAlreadyRunning) {
			httputil.WriteJSON(w, http.StatusConflict, httputil.Response{
				Error: &httputil.ErrorResponse{
					Code:    "RUN_IN_PROGRESS",
					Message: "an engine run is already in progress",
				},
			})
			return
		}
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: summary})
}
