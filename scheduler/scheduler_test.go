package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aldeia/relatos-dashboard/data"
	"github.com/aldeia/relatos-dashboard/entities"
)

// mockLoader counts refreshes and applies an empty report to the store.
type mockLoader struct {
	store      *data.ReportStore
	calls      atomic.Int32
	shouldFail atomic.Bool
}

func (m *mockLoader) Refresh(ctx context.Context) (*entities.Report, bool, error) {
	m.calls.Add(1)
	if m.shouldFail.Load() {
		return nil, false, errors.New("upstream unavailable")
	}
	gen := m.store.NextGeneration()
	rep := &entities.Report{}
	return rep, m.store.Apply(gen, rep), nil
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestScheduler_InitialLoadAndInterval(t *testing.T) {
	store := data.NewReportStore()
	loader := &mockLoader{store: store}
	s := NewScheduler(loader, store, 100*time.Millisecond)

	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer s.Stop()

	if got := loader.calls.Load(); got < 1 {
		t.Fatalf("Expected initial refresh before Start returns, got %d calls", got)
	}
	if store.CurrentGeneration() == 0 {
		t.Error("Expected initial report to be applied")
	}

	if !waitFor(t, 3*time.Second, func() bool { return loader.calls.Load() >= 3 }) {
		t.Errorf("Expected scheduled refreshes, got %d calls", loader.calls.Load())
	}
	if s.NextRun().IsZero() {
		t.Error("Expected a next run while scheduled")
	}
}

func TestScheduler_InitialFailureIsNotFatal(t *testing.T) {
	store := data.NewReportStore()
	loader := &mockLoader{store: store}
	loader.shouldFail.Store(true)
	s := NewScheduler(loader, store, time.Hour)

	if err := s.Start(); err != nil {
		t.Fatalf("Expected start to succeed despite failed load, got %v", err)
	}
	defer s.Stop()

	if store.CurrentGeneration() != 0 {
		t.Error("Failed load must not apply a report")
	}
	if loader.calls.Load() != 1 {
		t.Errorf("Expected exactly 1 refresh, got %d", loader.calls.Load())
	}
}

func TestScheduler_StopIsIdempotent(t *testing.T) {
	store := data.NewReportStore()
	s := NewScheduler(&mockLoader{store: store}, store, time.Hour)

	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	s.Stop()
	s.Stop()

	if !s.NextRun().IsZero() {
		t.Error("Expected no next run after stop")
	}
}

func TestScheduler_CheckStaleness(t *testing.T) {
	store := data.NewReportStore()
	s := NewScheduler(&mockLoader{store: store}, store, time.Minute)

	if !s.checkStaleness(time.Now()) {
		t.Error("Never-updated store should be stale")
	}

	store.Apply(store.NextGeneration(), &entities.Report{})
	if s.checkStaleness(time.Now()) {
		t.Error("Fresh snapshot should not be stale")
	}
	if !s.checkStaleness(time.Now().Add(4 * time.Minute)) {
		t.Error("Snapshot older than three intervals should be stale")
	}
}
