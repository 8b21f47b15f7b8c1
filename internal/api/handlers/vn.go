package handlers

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/vkquanghd/gold-ai-advisor/internal/api/request"
	"github.com/vkquanghd/gold-ai-advisor/internal/api/response"
	"github.com/vkquanghd/gold-ai-advisor/internal/apperrors"
	"github.com/vkquanghd/gold-ai-advisor/internal/model"
	"github.com/vkquanghd/gold-ai-advisor/internal/service"
	"github.com/vkquanghd/gold-ai-advisor/internal/validation"
)

// VnHandler handles HTTP requests for Vietnamese retail gold quotes.
// Reads go through the query service; the archived delete goes through retention.
type VnHandler struct {
	queryService     *service.QueryService
	retentionService *service.RetentionService
	logger           *zap.Logger
}

// NewVnHandler creates a new VnHandler with the provided service dependencies.
func NewVnHandler(queryService *service.QueryService, retentionService *service.RetentionService, logger *zap.Logger) *VnHandler {
	return &VnHandler{
		queryService:     queryService,
		retentionService: retentionService,
		logger:           logger,
	}
}

// Quotes handles GET requests for a page of VN quotes.
//
// Endpoint: GET /api/vn
// Query Parameters:
//   - brands: comma-separated brand codes (SJC,PNJ)
//   - start_date, end_date: inclusive date range
//   - q: keyword matched against brand, source and location
//   - sort_by: ts, date, brand, location, buy, sell or source
//   - sort_dir: asc or desc
//   - page, per_page: paging (per_page at most 500)
//
// Response: 200 OK with model.VnQuotePage
// Error: 400 Bad Request if a parameter is invalid
// Error: 500 Internal Server Error if retrieval fails
func (h *VnHandler) Quotes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter, err := request.ParseVnFilters(
		q.Get("brands"),
		q.Get("start_date"),
		q.Get("end_date"),
		q.Get("q"),
		q.Get("sort_by"),
		q.Get("sort_dir"),
		q.Get("page"),
		q.Get("per_page"),
	)
	if err != nil {
		response.RespondBadRequest(w, "invalid filter parameters", err)
		return
	}

	page, err := h.queryService.ListVnQuotes(r.Context(), filter)
	if err != nil {
		internalError(w, h.logger, apperrors.ErrFailedToRetrieveVnGold.Error(), err)
		return
	}

	response.RespondJSON(w, http.StatusOK, page)
}

// Brands handles GET /api/vn/brands.
func (h *VnHandler) Brands(w http.ResponseWriter, r *http.Request) {
	brands, err := h.queryService.Brands(r.Context())
	if err != nil {
		internalError(w, h.logger, apperrors.ErrFailedToRetrieveBrands.Error(), err)
		return
	}
	response.RespondJSON(w, http.StatusOK, brands)
}

// Coverage handles GET /api/vn/coverage.
func (h *VnHandler) Coverage(w http.ResponseWriter, r *http.Request) {
	c, err := h.queryService.Coverage(r.Context(), model.EntityVnGold)
	if err != nil {
		internalError(w, h.logger, apperrors.ErrFailedToRetrieveCoverage.Error(), err)
		return
	}
	response.RespondJSON(w, http.StatusOK, c)
}

// CreateQuote handles POST requests to enter one quote by hand.
// An existing quote with the same brand, location and timestamp is overwritten.
//
// Endpoint: POST /api/vn
// Request Body: CreateVnQuoteRequest (ts, brand, buyPrice, sellPrice; optionally location and source)
// Response: 201 Created with model.VnGoldQuote, or 200 OK when an existing quote was updated
// Error: 400 Bad Request if validation fails or request body is invalid
// Error: 500 Internal Server Error if creation fails
func (h *VnHandler) CreateQuote(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.CreateVnQuoteRequest](r)
	if err != nil {
		response.RespondBadRequest(w, "invalid request body", err)
		return
	}

	if err := validation.ValidateCreateVnQuote(req); err != nil {
		response.RespondBadRequest(w, "validation failed", err)
		return
	}

	//nolint:errcheck // Validated above
	ts, _ := request.ParseTimestamp(req.Ts)
	quote, created, err := h.queryService.CreateVnQuote(r.Context(), model.VnGoldQuote{
		Ts:        ts,
		Brand:     req.Brand,
		Location:  strings.TrimSpace(req.Location),
		BuyPrice:  req.BuyPrice,
		SellPrice: req.SellPrice,
		Source:    strings.TrimSpace(req.Source),
	})
	if err != nil {
		internalError(w, h.logger, apperrors.ErrFailedToCreateQuote.Error(), err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	response.RespondJSON(w, status, quote)
}

// DeleteRange handles DELETE requests removing VN quotes by brand and date range.
// Matching rows are archived to CSV before they are deleted.
//
// Endpoint: DELETE /api/vn
// Request Body: DeleteVnRangeRequest (startDate and/or endDate; optionally brands)
// Response: 200 OK with model.PruneResult
// Error: 400 Bad Request if validation fails
// Error: 500 Internal Server Error if archiving or deletion fails; no rows are removed
func (h *VnHandler) DeleteRange(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.DeleteVnRangeRequest](r)
	if err != nil {
		response.RespondBadRequest(w, "invalid request body", err)
		return
	}

	if err := validation.ValidateDeleteVnRange(req); err != nil {
		response.RespondBadRequest(w, "validation failed", err)
		return
	}

	//nolint:errcheck // Validated above
	start, end, _ := request.ParseDateRange(req.StartDate, req.EndDate)
	brands := make([]string, 0, len(req.Brands))
	for _, b := range req.Brands {
		brands = append(brands, strings.ToUpper(strings.TrimSpace(b)))
	}

	res, err := h.retentionService.DeleteVnRange(r.Context(), model.VnDeleteFilter{
		Brands:    brands,
		StartDate: start,
		EndDate:   end,
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidDateRange) {
			response.RespondBadRequest(w, apperrors.ErrInvalidDateRange.Error(), err)
			return
		}
		internalError(w, h.logger, apperrors.ErrFailedToDeleteQuotes.Error(), err)
		return
	}

	response.RespondJSON(w, http.StatusOK, res)
}
