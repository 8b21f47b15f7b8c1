package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/vkquanghd/gold-ai-advisor/internal/api/response"
	"github.com/vkquanghd/gold-ai-advisor/internal/apperrors"
	"github.com/vkquanghd/gold-ai-advisor/internal/service"
)

// SystemHandler serves health and version information.
type SystemHandler struct {
	systemService *service.SystemService
	logger        *zap.Logger
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(systemService *service.SystemService, logger *zap.Logger) *SystemHandler {
	return &SystemHandler{
		systemService: systemService,
		logger:        logger,
	}
}

// Health reports whether the store and any backing services answer.
//
// Endpoint: GET /api/system/health
// Response: 200 OK with model.HealthReport when every component is up
// Error: 503 Service Unavailable with model.HealthReport naming the failed components
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	report, err := h.systemService.CheckHealth(r.Context())
	if err != nil {
		h.logger.Warn("health check failed", zap.Error(err))
		response.RespondJSON(w, http.StatusServiceUnavailable, report)
		return
	}
	response.RespondJSON(w, http.StatusOK, report)
}

// Version handles GET requests to retrieve version information and feature availability.
// Returns the application version, database version, enabled features, and any pending migrations.
//
// Endpoint: GET /api/system/version
// Response: 200 OK with model.VersionInfo
// Error: 500 Internal Server Error if version check fails
func (h *SystemHandler) Version(w http.ResponseWriter, r *http.Request) {
	info, err := h.systemService.CheckVersion(r.Context())
	if err != nil {
		internalError(w, h.logger, apperrors.ErrFailedToGetVersionInfo.Error(), err)
		return
	}

	response.RespondJSON(w, http.StatusOK, info)
}
