package validation

import (
	"strings"

	"github.com/vkquanghd/gold-ai-advisor/internal/api/request"
)

// ValidateCreateVnQuote validates a manual VN quote.
//
// Required fields:
//   - ts: RFC3339, YYYY-MM-DDTHH:MM:SS or YYYY-MM-DD
//   - brand: non-empty
//   - buyPrice, sellPrice: positive, buy not above sell
//
// Returns a validation Error with field-specific error messages if validation fails.
func ValidateCreateVnQuote(req request.CreateVnQuoteRequest) error {
	errors := make(map[string]string)

	if strings.TrimSpace(req.Ts) == "" {
		errors["ts"] = "ts is required"
	} else if _, err := request.ParseTimestamp(req.Ts); err != nil {
		errors["ts"] = err.Error()
	}

	if strings.TrimSpace(req.Brand) == "" {
		errors["brand"] = "brand is required"
	}

	if req.BuyPrice <= 0 {
		errors["buyPrice"] = "buyPrice must be positive"
	}
	if req.SellPrice <= 0 {
		errors["sellPrice"] = "sellPrice must be positive"
	}
	if req.BuyPrice > 0 && req.SellPrice > 0 && req.BuyPrice > req.SellPrice {
		errors["buyPrice"] = "buyPrice cannot exceed sellPrice"
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}
	return nil
}

// ValidateDeleteVnRange validates an archived delete request. At least one date
// bound is required so a request cannot empty the table by accident.
func ValidateDeleteVnRange(req request.DeleteVnRangeRequest) error {
	errors := make(map[string]string)

	if req.StartDate == "" && req.EndDate == "" {
		errors["startDate"] = "startDate or endDate is required"
	}
	if _, _, err := request.ParseDateRange(req.StartDate, req.EndDate); err != nil {
		errors["dateRange"] = err.Error()
	}
	for _, b := range req.Brands {
		if strings.TrimSpace(b) == "" {
			errors["brands"] = "brands cannot contain empty values"
		}
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}
	return nil
}
