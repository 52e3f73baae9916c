// Package scheduler runs the report refresh on a fixed interval and watches
// for a snapshot that has gone stale.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aldeia/relatos-dashboard/interfaces"
	"github.com/aldeia/relatos-dashboard/logging"
	"github.com/go-co-op/gocron"
)

// Compile-time check to ensure Scheduler implements Scheduler interface
var _ interfaces.Scheduler = (*Scheduler)(nil)

// staleFactor is how many missed intervals make the snapshot stale.
const staleFactor = 3

// Scheduler refreshes the report periodically using dependency injection
type Scheduler struct {
	loader    interfaces.ReportLoader
	dataStore interfaces.DataStore
	interval  time.Duration
	scheduler *gocron.Scheduler

	monitorEvery time.Duration
	stop         chan struct{}
	stopOnce     sync.Once
	wg           sync.WaitGroup
}

// NewScheduler creates a scheduler refreshing every interval
func NewScheduler(loader interfaces.ReportLoader, dataStore interfaces.DataStore, interval time.Duration) *Scheduler {
	return &Scheduler{
		loader:       loader,
		dataStore:    dataStore,
		interval:     interval,
		scheduler:    gocron.NewScheduler(time.Local),
		monitorEvery: time.Hour,
		stop:         make(chan struct{}),
	}
}

// Start performs the initial load, schedules the periodic refresh and starts
// staleness monitoring. A failed initial load is logged, not fatal: the
// upstream may come up after the dashboard and the next run retries.
func (s *Scheduler) Start() error {
	s.refresh()

	_, err := s.scheduler.Every(s.interval).WaitForSchedule().SingletonMode().Do(s.refresh)
	if err != nil {
		logging.Error("Failed to schedule report refresh", "error", err)
		return fmt.Errorf("failed to schedule report refresh: %w", err)
	}

	s.scheduler.StartAsync()
	s.startHealthMonitoring()

	logging.Info("Report refresh scheduled", "interval", s.interval.String())
	return nil
}

// Stop stops the scheduler and the staleness monitor
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
	s.stopOnce.Do(func() { close(s.stop) })
	s.wg.Wait()
}

// NextRun returns when the next scheduled refresh fires, or the zero time
// when nothing is scheduled.
func (s *Scheduler) NextRun() time.Time {
	if !s.scheduler.IsRunning() {
		return time.Time{}
	}
	_, next := s.scheduler.NextRun()
	return next
}

// Interval returns the refresh interval.
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

// refresh runs one load bounded by the interval so a hung upstream cannot
// pile up runs.
func (s *Scheduler) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), s.interval)
	defer cancel()

	if _, _, err := s.loader.Refresh(ctx); err != nil {
		logging.Error("Scheduled report refresh failed", "error", err)
	}
}

// startHealthMonitoring warns when no report was applied for several intervals
func (s *Scheduler) startHealthMonitoring() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.monitorEvery)
		defer ticker.Stop()

		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				s.checkStaleness(time.Now())
			}
		}
	}()
}

// checkStaleness logs a warning and returns true when the snapshot is stale.
func (s *Scheduler) checkStaleness(now time.Time) bool {
	lastUpdate := s.dataStore.GetLastUpdated()
	limit := staleFactor * s.interval
	if lastUpdate.IsZero() || now.Sub(lastUpdate) > limit {
		logging.Warn("Report has not been refreshed recently",
			"last_update", lastUpdate, "threshold", limit.String())
		return true
	}
	return false
}
