package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/vkquanghd/gold-ai-advisor/internal/api/request"
	"github.com/vkquanghd/gold-ai-advisor/internal/api/response"
	"github.com/vkquanghd/gold-ai-advisor/internal/apperrors"
	"github.com/vkquanghd/gold-ai-advisor/internal/model"
	"github.com/vkquanghd/gold-ai-advisor/internal/service"
)

// WorldHandler serves the world gold and USD/VND daily series.
type WorldHandler struct {
	queryService *service.QueryService
	logger       *zap.Logger
}

// NewWorldHandler creates a new WorldHandler.
func NewWorldHandler(queryService *service.QueryService, logger *zap.Logger) *WorldHandler {
	return &WorldHandler{
		queryService: queryService,
		logger:       logger,
	}
}

// World handles GET requests for world gold bars.
//
// Endpoint: GET /api/world?start_date=YYYY-MM-DD&end_date=YYYY-MM-DD
// Response: 200 OK with array of model.WorldGoldDay, oldest first
// Error: 400 Bad Request if a date is invalid or the range is reversed
// Error: 500 Internal Server Error if retrieval fails
func (h *WorldHandler) World(w http.ResponseWriter, r *http.Request) {
	start, end, err := request.ParseDateRange(r.URL.Query().Get("start_date"), r.URL.Query().Get("end_date"))
	if err != nil {
		response.RespondBadRequest(w, apperrors.ErrInvalidDateRange.Error(), err)
		return
	}

	bars, err := h.queryService.WorldGoldRange(r.Context(), start, end)
	if err != nil {
		internalError(w, h.logger, apperrors.ErrFailedToRetrieveWorldGold.Error(), err)
		return
	}

	response.RespondJSON(w, http.StatusOK, bars)
}

// Fx handles GET requests for USD/VND rates.
//
// Endpoint: GET /api/fx?start_date=YYYY-MM-DD&end_date=YYYY-MM-DD
// Response: 200 OK with array of model.UsdVndRate, oldest first
func (h *WorldHandler) Fx(w http.ResponseWriter, r *http.Request) {
	start, end, err := request.ParseDateRange(r.URL.Query().Get("start_date"), r.URL.Query().Get("end_date"))
	if err != nil {
		response.RespondBadRequest(w, apperrors.ErrInvalidDateRange.Error(), err)
		return
	}

	rates, err := h.queryService.UsdVndRange(r.Context(), start, end)
	if err != nil {
		internalError(w, h.logger, apperrors.ErrFailedToRetrieveUsdVnd.Error(), err)
		return
	}

	response.RespondJSON(w, http.StatusOK, rates)
}

// WorldCoverage handles GET /api/world/coverage.
func (h *WorldHandler) WorldCoverage(w http.ResponseWriter, r *http.Request) {
	h.coverage(w, r, model.EntityWorldGold)
}

// FxCoverage handles GET /api/fx/coverage.
func (h *WorldHandler) FxCoverage(w http.ResponseWriter, r *http.Request) {
	h.coverage(w, r, model.EntityUsdVnd)
}

func (h *WorldHandler) coverage(w http.ResponseWriter, r *http.Request, entity string) {
	c, err := h.queryService.Coverage(r.Context(), entity)
	if err != nil {
		internalError(w, h.logger, apperrors.ErrFailedToRetrieveCoverage.Error(), err)
		return
	}
	response.RespondJSON(w, http.StatusOK, c)
}
