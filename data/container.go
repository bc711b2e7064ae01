// Package data holds the live master name list behind atomic values so the
// scheduler can replace it while handlers keep reading.
package data

import (
	"sync/atomic"
	"time"

	"github.com/qubesight-bit/gosafe.lat-sub000/interfaces"
	"github.com/qubesight-bit/gosafe.lat-sub000/logging"
	"github.com/qubesight-bit/gosafe.lat-sub000/metrics"
)

// Compile-time check to ensure DataContainer implements NameStore
var _ interfaces.NameStore = (*DataContainer)(nil)

// DataContainer holds the name list with atomic values for zero-downtime updates
type DataContainer struct {
	names           atomic.Value // []string
	remoteCount     atomic.Int64 // names contributed by the community collaborator
	lastUpdated     atomic.Value // time.Time
	updating        atomic.Bool
	serverStartTime atomic.Value // time.Time
}

// NewDataContainer creates a new DataContainer with an empty name list
func NewDataContainer() *DataContainer {
	dc := &DataContainer{}
	dc.names.Store(make([]string, 0))
	dc.lastUpdated.Store(time.Time{})
	dc.serverStartTime.Store(time.Time{})
	return dc
}

// GetNames returns the master name list. Callers must not modify it.
func (dc *DataContainer) GetNames() []string {
	if v := dc.names.Load(); v != nil {
		if names, ok := v.([]string); ok {
			return names
		}
	}

	logging.Warn("Name list is empty or invalid")
	return []string{}
}

// GetRemoteCount returns how many names of the current list came from the
// community collaborator.
func (dc *DataContainer) GetRemoteCount() int {
	return int(dc.remoteCount.Load())
}

// GetLastUpdated returns the timestamp of the last name list update
func (dc *DataContainer) GetLastUpdated() time.Time {
	if v := dc.lastUpdated.Load(); v != nil {
		if lastUpdated, ok := v.(time.Time); ok {
			return lastUpdated
		}
	}

	logging.Warn("Could not get the last updated value")
	return time.Time{}
}

// IsUpdating returns true if a refresh is currently in progress
func (dc *DataContainer) IsUpdating() bool {
	return dc.updating.Load()
}

// SetServerStartTime sets the server start time
func (dc *DataContainer) SetServerStartTime(startTime time.Time) {
	dc.serverStartTime.Store(startTime)
}

// GetServerStartTime returns the server start time
func (dc *DataContainer) GetServerStartTime() time.Time {
	if v := dc.serverStartTime.Load(); v != nil {
		if startTime, ok := v.(time.Time); ok {
			return startTime
		}
	}

	logging.Warn("Could not get the server start time value")
	return time.Time{}
}

// UpdateNames atomically replaces the name list. remote is the number of
// entries that came from the community collaborator.
func (dc *DataContainer) UpdateNames(names []string, remote int) {
	dc.names.Store(names)
	dc.remoteCount.Store(int64(remote))
	dc.lastUpdated.Store(time.Now())
	metrics.NameListSize.Set(float64(len(names)))
}

// BeginUpdate marks the start of a refresh.
// Returns true if the refresh can proceed, false if another one is in progress
func (dc *DataContainer) BeginUpdate() bool {
	return dc.updating.CompareAndSwap(false, true)
}

// EndUpdate marks the end of a refresh
func (dc *DataContainer) EndUpdate() {
	dc.updating.Store(false)
}
