// Package scheduler keeps the master name list fresh. The list merges the
// curated catalog names with the community collaborator's name list; it is
// loaded at startup and refreshed at 06:00 and 18:00.
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/qubesight-bit/gosafe.lat-sub000/interfaces"
	"github.com/qubesight-bit/gosafe.lat-sub000/logging"
	"github.com/qubesight-bit/gosafe.lat-sub000/names"
)

// Compile-time check to ensure Scheduler implements Scheduler interface
var _ interfaces.Scheduler = (*Scheduler)(nil)

// StaleAfter is how old the name list may get before the monitor warns.
const StaleAfter = 25 * time.Hour

// LocalNames provides the names that are always available.
type LocalNames interface {
	Names() []string
}

// RemoteNames provides the community name list.
type RemoteNames interface {
	AllNames(ctx context.Context) ([]string, error)
}

// Scheduler refreshes the name list in the store
type Scheduler struct {
	store     interfaces.NameStore
	local     LocalNames
	remote    RemoteNames
	timeout   time.Duration
	scheduler *gocron.Scheduler

	stopOnce sync.Once
	stop     chan struct{}
}

// NewScheduler creates a scheduler. remote may be nil, in which case only the
// local names are published.
func NewScheduler(store interfaces.NameStore, local LocalNames, remote RemoteNames, timeout time.Duration) *Scheduler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Scheduler{
		store:     store,
		local:     local,
		remote:    remote,
		timeout:   timeout,
		scheduler: gocron.NewScheduler(time.Local),
		stop:      make(chan struct{}),
	}
}

// Start performs the initial load, schedules the refreshes and starts the
// staleness monitor. A failing remote list never fails Start.
func (s *Scheduler) Start() error {
	s.refresh()

	_, err := s.scheduler.Every(1).Days().At("06:00;18:00").Do(s.refresh)
	if err != nil {
		logging.Error("Failed to schedule name list refresh", "error", err)
		return fmt.Errorf("failed to schedule name list refresh: %w", err)
	}

	s.scheduler.StartAsync()
	s.startStalenessMonitor(time.Hour)

	return nil
}

// Stop stops scheduled refreshes and the monitor
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
	s.stopOnce.Do(func() { close(s.stop) })
}

// refresh rebuilds the name list. When the remote list cannot be fetched
// the current list is kept, or the local names are published if there is
// no list yet.
func (s *Scheduler) refresh() {
	if !s.store.BeginUpdate() {
		logging.Info("Name list refresh already in progress, skipping")
		return
	}
	defer s.store.EndUpdate()

	start := time.Now()
	local := s.local.Names()

	var remote []string
	if s.remote != nil {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		fetched, err := s.remote.AllNames(ctx)
		cancel()

		if err != nil {
			if len(s.store.GetNames()) > 0 {
				logging.Warn("Community name list unavailable, keeping current list", "error", err)
				return
			}
			logging.Warn("Community name list unavailable, publishing catalog names only", "error", err)
		} else {
			remote = fetched
		}
	}

	merged, added := MergeNames(local, remote)
	s.store.UpdateNames(merged, added)

	logging.Info("Name list refreshed",
		"duration", time.Since(start).String(),
		"names", len(merged),
		"catalog", len(local),
		"community", added,
	)
}

func (s *Scheduler) startStalenessMonitor(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				if time.Since(s.store.GetLastUpdated()) > StaleAfter {
					logging.Warn("Name list hasn't been refreshed recently", "threshold", StaleAfter.String())
				}
			}
		}
	}()
}

// MergeNames combines local and remote names, dropping duplicates by
// canonical form. Local spellings win. The result is sorted
// case-insensitively; added counts the remote names that were kept.
func MergeNames(local, remote []string) (merged []string, added int) {
	seen := make(map[string]struct{}, len(local)+len(remote))
	merged = make([]string, 0, len(local)+len(remote))

	push := func(name string) bool {
		name = strings.TrimSpace(name)
		key := names.Canonical(name)
		if key == "" {
			return false
		}
		if _, dup := seen[key]; dup {
			return false
		}
		seen[key] = struct{}{}
		merged = append(merged, name)
		return true
	}

	for _, n := range local {
		push(n)
	}
	for _, n := range remote {
		if push(n) {
			added++
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return names.Canonical(merged[i]) < names.Canonical(merged[j])
	})
	return merged, added
}
