// Package health computes the health report of the lookup service.
package health

import (
	"math"
	"net/http"
	"time"

	"github.com/qubesight-bit/gosafe.lat-sub000/catalog/entities"
	"github.com/qubesight-bit/gosafe.lat-sub000/interfaces"
)

// Compile-time check to ensure HealthCheckerImpl implements HealthChecker
var _ interfaces.HealthChecker = (*HealthCheckerImpl)(nil)

// CatalogCounter reports the size of the curated catalog.
type CatalogCounter interface {
	Substances() []entities.Substance
	Interactions() []entities.InteractionRecord
}

// HealthCheckerImpl implements the interfaces.HealthChecker interface
type HealthCheckerImpl struct {
	nameStore interfaces.NameStore
	catalog   CatalogCounter
	now       func() time.Time
}

// NewHealthChecker creates a new health checker with injected dependencies
func NewHealthChecker(nameStore interfaces.NameStore, catalog CatalogCounter) *HealthCheckerImpl {
	return &HealthCheckerImpl{
		nameStore: nameStore,
		catalog:   catalog,
		now:       time.Now,
	}
}

// HealthCheck returns the status, the report data and the HTTP status the
// /health endpoint answers with.
//
// The service is unhealthy without a catalog or a name list, or when the
// name list is more than two days old. It is degraded when the list is older
// than a day, when a refresh has been running for hours, or when the
// community names could not be merged in.
func (h *HealthCheckerImpl) HealthCheck() (status string, data map[string]any, httpStatus int) {
	substances := len(h.catalog.Substances())
	interactions := len(h.catalog.Interactions())
	names := len(h.nameStore.GetNames())
	remote := h.nameStore.GetRemoteCount()
	lastUpdate := h.nameStore.GetLastUpdated()
	isUpdating := h.nameStore.IsUpdating()

	dataAge := h.now().Sub(lastUpdate)

	switch {
	case substances == 0 || names == 0:
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable

	case dataAge > 48*time.Hour:
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable

	case dataAge > 24*time.Hour:
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable

	case isUpdating && dataAge > 6*time.Hour:
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable

	case remote == 0:
		// Static lookups and suggestions over catalog names still work.
		status = "degraded"
		httpStatus = http.StatusOK

	default:
		status = "healthy"
		httpStatus = http.StatusOK
	}

	data = map[string]any{
		"last_update":    lastUpdate.Format(time.RFC3339),
		"data_age_hours": math.Round(dataAge.Hours()*10) / 10,
		"substances":     substances,
		"interactions":   interactions,
		"names":          names,
		"community":      remote,
		"is_updating":    isUpdating,
	}

	return status, data, httpStatus
}

// CalculateNextUpdate returns the next scheduled name list refresh
func (h *HealthCheckerImpl) CalculateNextUpdate() time.Time {
	return NextUpdate(h.now())
}

// NextUpdate returns the first refresh slot (06:00 or 18:00) after now.
func NextUpdate(now time.Time) time.Time {
	sixAM := time.Date(now.Year(), now.Month(), now.Day(), 6, 0, 0, 0, now.Location())
	sixPM := time.Date(now.Year(), now.Month(), now.Day(), 18, 0, 0, 0, now.Location())

	if now.Before(sixAM) {
		return sixAM
	}
	if now.Before(sixPM) {
		return sixPM
	}
	return sixAM.AddDate(0, 0, 1)
}
