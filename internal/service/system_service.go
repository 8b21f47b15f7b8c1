package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/vkquanghd/gold-ai-advisor/internal/apperrors"
	"github.com/vkquanghd/gold-ai-advisor/internal/database"
	"github.com/vkquanghd/gold-ai-advisor/internal/model"
	"github.com/vkquanghd/gold-ai-advisor/internal/version"
)

// Pinger is implemented by optional backing services such as the Redis lock.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SystemService handles system-related operations
type SystemService struct {
	db       *sql.DB
	features map[string]bool
	pingers  map[string]Pinger
}

// NewSystemService creates a new SystemService
func NewSystemService(db *sql.DB, features map[string]bool) *SystemService {
	if features == nil {
		features = map[string]bool{}
	}
	return &SystemService{
		db:       db,
		features: features,
		pingers:  map[string]Pinger{},
	}
}

// WithPinger adds a dependency checked by CheckHealth.
func (s *SystemService) WithPinger(name string, p Pinger) *SystemService {
	s.pingers[name] = p
	return s
}

// CheckHealth pings the database and every registered dependency. The report
// lists each component; the error joins the failures and is nil when all are up.
func (s *SystemService) CheckHealth(ctx context.Context) (model.HealthReport, error) {
	report := model.HealthReport{
		Status:     model.HealthHealthy,
		Components: map[string]string{},
		CheckedAt:  time.Now().UTC(),
	}

	var errs []error
	check := func(name string, err error) {
		if err != nil {
			report.Components[name] = "unavailable"
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			return
		}
		report.Components[name] = "ok"
	}

	check("database", database.HealthCheck(s.db))
	for name, p := range s.pingers {
		check(name, p.Ping(ctx))
	}

	if len(errs) > 0 {
		report.Status = model.HealthUnhealthy
	}
	return report, errors.Join(errs...)
}

// CheckVersion reports the application version, the applied schema version and
// whether migrations are pending.
func (s *SystemService) CheckVersion(ctx context.Context) (model.VersionInfo, error) {
	current, latest, err := database.SchemaVersion(ctx, s.db)
	if err != nil {
		return model.VersionInfo{}, fmt.Errorf("%w: %w", apperrors.ErrFailedToGetVersionInfo, err)
	}

	info := model.VersionInfo{
		AppVersion: version.Version,
		DbVersion:  strconv.FormatInt(current, 10),
		Features:   s.features,
	}
	if current < latest {
		msg := fmt.Sprintf("database schema %d is behind %d, run migrations", current, latest)
		info.MigrationNeeded = true
		info.MigrationMessage = &msg
	}
	return info, nil
}
