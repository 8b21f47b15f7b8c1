package apperrors

import "errors"

// Domain entity errors represent missing or invalid entities in the system.
// These errors indicate that a requested resource does not exist.
var (
	// ErrPipelineRunNotFound indicates that a pipeline run with the given ID does not exist.
	ErrPipelineRunNotFound = errors.New("pipeline run not found")

	// ErrUnknownEntity indicates that an entity name is not one of world_gold, usd_vnd or vn_gold.
	ErrUnknownEntity = errors.New("unknown entity")

	// ErrUnknownPipeline indicates that a pipeline name is not one of world, vn or daily.
	ErrUnknownPipeline = errors.New("unknown pipeline")

	// ErrNoData indicates that a table holds no rows for the requested range.
	ErrNoData = errors.New("no data")
)

// Business logic errors represent validation failures or constraint violations.
// These errors indicate that an operation cannot be completed due to business rules.
var (
	// ErrInvalidDateRange indicates that the provided date range is invalid
	// (e.g., start date is after end date).
	ErrInvalidDateRange = errors.New("invalid date range")

	// ErrInvalidRetention indicates a retention window smaller than one day.
	ErrInvalidRetention = errors.New("retention window must be at least one day")

	// ErrPipelineBusy indicates another run of the same pipeline holds the lock.
	ErrPipelineBusy = errors.New("pipeline already running")

	// ErrEmptyBatch indicates a fetch returned no usable records.
	ErrEmptyBatch = errors.New("no records in batch")
)

// Operation failure errors represent system-level failures when retrieving or processing data.
// These errors indicate that an operation failed, but not due to missing entities or validation issues.
var (
	ErrFailedToRetrieveWorldGold = errors.New("failed to retrieve world gold prices")
	ErrFailedToRetrieveUsdVnd    = errors.New("failed to retrieve USD/VND rates")
	ErrFailedToRetrieveVnGold    = errors.New("failed to retrieve VN gold quotes")
	ErrFailedToRetrieveCoverage  = errors.New("failed to retrieve coverage")
	ErrFailedToRetrieveBrands    = errors.New("failed to retrieve brands")
	ErrFailedToRetrieveRuns      = errors.New("failed to retrieve pipeline runs")
	ErrFailedToCreateQuote       = errors.New("failed to create VN gold quote")
	ErrFailedToDeleteQuotes      = errors.New("failed to delete VN gold quotes")
	ErrFailedToRunPipeline       = errors.New("failed to run pipeline")
	ErrFailedToGetVersionInfo    = errors.New("failed to get version information")
)

// Data integrity errors represent inconsistencies or corruption in the data.
var (
	// ErrArchiveMismatch indicates that the number of rows deleted differs from the
	// number of rows archived, which would break the no-data-loss guarantee.
	ErrArchiveMismatch = errors.New("deleted row count does not match archived row count")

	// ErrMissingRequiredField indicates that a required field is missing or empty.
	ErrMissingRequiredField = errors.New("missing required field")
)
