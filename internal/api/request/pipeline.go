package request

import (
	"fmt"
	"strconv"

	"github.com/vkquanghd/gold-ai-advisor/internal/model"
)

// ParseRunOptions reads retention_days and forward_fill for a triggered run.
// An empty retention_days keeps the configured window.
func ParseRunOptions(retentionParam, forwardFillParam string) (model.RunOptions, error) {
	opts := model.RunOptions{Trigger: model.TriggerAPI}

	if retentionParam != "" {
		days, err := strconv.Atoi(retentionParam)
		if err != nil || days < 1 {
			return model.RunOptions{}, fmt.Errorf("invalid retention_days: must be a positive number")
		}
		opts.RetentionDays = days
	}

	if forwardFillParam != "" {
		ff, err := strconv.ParseBool(forwardFillParam)
		if err != nil {
			return model.RunOptions{}, fmt.Errorf("invalid forward_fill: must be true or false")
		}
		opts.ForwardFill = &ff
	}

	return opts, nil
}

// ParseLimit parses an optional positive limit capped at maxLimit.
func ParseLimit(limitParam string, maxLimit int) (int, error) {
	if limitParam == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(limitParam)
	if err != nil || limit < 1 || limit > maxLimit {
		return 0, fmt.Errorf("invalid limit: must be between 1 and %d", maxLimit)
	}
	return limit, nil
}
