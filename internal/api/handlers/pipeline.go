package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/vkquanghd/gold-ai-advisor/internal/api/request"
	"github.com/vkquanghd/gold-ai-advisor/internal/api/response"
	"github.com/vkquanghd/gold-ai-advisor/internal/apperrors"
	"github.com/vkquanghd/gold-ai-advisor/internal/model"
	"github.com/vkquanghd/gold-ai-advisor/internal/service"
)

// maxRunLimit caps GET /api/pipeline/runs.
const maxRunLimit = 200

// PipelineHandler triggers ingestion runs and serves their history.
type PipelineHandler struct {
	pipelineService *service.PipelineService
	queryService    *service.QueryService
	logger          *zap.Logger
}

// NewPipelineHandler creates a new PipelineHandler.
func NewPipelineHandler(pipelineService *service.PipelineService, queryService *service.QueryService, logger *zap.Logger) *PipelineHandler {
	return &PipelineHandler{
		pipelineService: pipelineService,
		queryService:    queryService,
		logger:          logger,
	}
}

// Run handles POST requests that run one pipeline synchronously.
//
// Endpoint: POST /api/pipeline/{pipeline}?retention_days=N&forward_fill=true
// Path: pipeline is world, vn or daily
// Response: 200 OK with model.RunSummary when every pipeline succeeded
// Error: 400 Bad Request if retention_days or forward_fill is invalid
// Error: 404 Not Found if the pipeline name is unknown
// Error: 409 Conflict with model.RunSummary if a pipeline was already running
// Error: 502 Bad Gateway with model.RunSummary if a pipeline failed
func (h *PipelineHandler) Run(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "pipeline")

	opts, err := request.ParseRunOptions(r.URL.Query().Get("retention_days"), r.URL.Query().Get("forward_fill"))
	if err != nil {
		response.RespondBadRequest(w, "invalid run options", err)
		return
	}

	summary, err := h.pipelineService.Run(r.Context(), name, opts)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrUnknownPipeline):
			response.RespondError(w, http.StatusNotFound, apperrors.ErrUnknownPipeline.Error(), name)
		case errors.Is(err, apperrors.ErrInvalidRetention):
			response.RespondBadRequest(w, apperrors.ErrInvalidRetention.Error(), nil)
		default:
			internalError(w, h.logger, apperrors.ErrFailedToRunPipeline.Error(), err)
		}
		return
	}

	response.RespondJSON(w, summaryStatus(summary), summary)
}

func summaryStatus(s model.RunSummary) int {
	if s.Success {
		return http.StatusOK
	}
	for _, p := range s.Pipelines {
		if p.Status == model.StatusFailed && p.ErrorKind != string(apperrors.KindLock) {
			return http.StatusBadGateway
		}
	}
	return http.StatusConflict
}

// Runs handles GET requests for recent pipeline runs, newest first.
//
// Endpoint: GET /api/pipeline/runs?limit=N
// Response: 200 OK with array of model.RunSummary
func (h *PipelineHandler) Runs(w http.ResponseWriter, r *http.Request) {
	limit, err := request.ParseLimit(r.URL.Query().Get("limit"), maxRunLimit)
	if err != nil {
		response.RespondBadRequest(w, "invalid limit", err)
		return
	}

	runs, err := h.queryService.Runs(r.Context(), limit)
	if err != nil {
		internalError(w, h.logger, apperrors.ErrFailedToRetrieveRuns.Error(), err)
		return
	}

	response.RespondJSON(w, http.StatusOK, runs)
}

// GetRun handles GET requests for one run.
//
// Endpoint: GET /api/pipeline/runs/{runID}
// Response: 200 OK with model.RunSummary
// Error: 400 Bad Request if the ID is invalid (validated by middleware)
// Error: 404 Not Found if no run has that ID
func (h *PipelineHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "runID")

	run, err := h.queryService.Run(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperrors.ErrPipelineRunNotFound) {
			response.RespondError(w, http.StatusNotFound, apperrors.ErrPipelineRunNotFound.Error(), id)
			return
		}
		internalError(w, h.logger, apperrors.ErrFailedToRetrieveRuns.Error(), err)
		return
	}

	response.RespondJSON(w, http.StatusOK, run)
}
