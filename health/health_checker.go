// Package health reports whether the dashboard is serving a fresh report.
package health

import (
	"math"
	"net/http"
	"time"

	"github.com/aldeia/relatos-dashboard/interfaces"
)

// Compile-time check to ensure HealthCheckerImpl implements HealthChecker
var _ interfaces.HealthChecker = (*HealthCheckerImpl)(nil)

// HealthCheckerImpl implements the interfaces.HealthChecker interface
type HealthCheckerImpl struct {
	dataStore interfaces.DataStore
	interval  time.Duration
	nextRun   func() time.Time
	now       func() time.Time
}

// NewHealthChecker creates a health checker for reports refreshed every
// interval. nextRun, when not nil, reports the scheduler's next run.
func NewHealthChecker(dataStore interfaces.DataStore, interval time.Duration, nextRun func() time.Time) *HealthCheckerImpl {
	return &HealthCheckerImpl{
		dataStore: dataStore,
		interval:  interval,
		nextRun:   nextRun,
		now:       time.Now,
	}
}

// HealthCheck grades the snapshot by age in refresh intervals: older than
// two is degraded, older than three or never loaded is unhealthy.
func (h *HealthCheckerImpl) HealthCheck() (status string, data map[string]any, httpStatus int) {
	report := h.dataStore.GetReport()
	lastUpdate := h.dataStore.GetLastUpdated()
	isUpdating := h.dataStore.IsUpdating()
	now := h.now()

	var dataAge time.Duration
	if !lastUpdate.IsZero() {
		dataAge = now.Sub(lastUpdate)
	}

	switch {
	case lastUpdate.IsZero() && isUpdating:
		status = "starting"
		httpStatus = http.StatusServiceUnavailable

	case lastUpdate.IsZero():
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable

	case dataAge > 3*h.interval:
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable

	case dataAge > 2*h.interval:
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable

	default:
		status = "healthy"
		httpStatus = http.StatusOK
	}

	data = map[string]any{
		"data_age_minutes": math.Round(dataAge.Minutes()*10) / 10,
		"generation":       report.Generation,
		"analyzed_cases":   len(report.Cases),
		"is_updating":      isUpdating,
		"next_update":      h.CalculateNextUpdate().Format(time.RFC3339),
	}
	if !lastUpdate.IsZero() {
		data["last_update"] = lastUpdate.Format(time.RFC3339)
	}

	return status, data, httpStatus
}

// CalculateNextUpdate returns the next scheduled refresh, falling back to
// one interval after the last update.
func (h *HealthCheckerImpl) CalculateNextUpdate() time.Time {
	if h.nextRun != nil {
		if next := h.nextRun(); !next.IsZero() {
			return next
		}
	}

	lastUpdate := h.dataStore.GetLastUpdated()
	if lastUpdate.IsZero() {
		return h.now()
	}
	return lastUpdate.Add(h.interval)
}
