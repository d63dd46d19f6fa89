package sync

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/raderre/cresite/internal/model"
)

// mockDestination records calls to Write.
type mockDestination struct {
	writes atomic.Int64
	last   atomic.Value // []byte
	err    error
}

func (d *mockDestination) Write(_ context.Context, data []byte) error {
	d.writes.Add(1)
	if d.err != nil {
		return d.err
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	d.last.Store(cp)
	return nil
}

func TestSchedulerStartStop(t *testing.T) {
	now := time.Now().UTC()
	ms := &fakeSource{
		properties: []*model.Property{{ID: "prop-1", Title: "T1", Featured: true, ReceivedAt: now, CreatedAt: now, UpdatedAt: now}},
		posts:      []*model.BlogPost{{ID: "post-1", Title: "P1", CreatedAt: now, UpdatedAt: now}},
	}

	dest := &mockDestination{}
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	sched := NewScheduler(ms, []Destination{dest}, 50*time.Millisecond, logger)
	sched.Start()

	// Wait for at least the initial sync + one tick.
	time.Sleep(120 * time.Millisecond)
	sched.Stop()

	if writes := dest.writes.Load(); writes < 2 {
		t.Fatalf("expected at least 2 writes, got %d", writes)
	}

	// Verify last written data is valid JSONL.
	data, ok := dest.last.Load().([]byte)
	if !ok || len(data) == 0 {
		t.Fatal("expected non-empty data")
	}

	lines := nonEmptyLines(string(data))
	// 1 header + 1 property + 1 post
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
}

func TestSchedulerStop_NoStart(t *testing.T) {
	ms := &fakeSource{}
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	sched := NewScheduler(ms, nil, time.Minute, logger)
	// Stop without Start should not panic.
	sched.Stop()
}

func TestSchedulerMultipleDestinations(t *testing.T) {
	ms := &fakeSource{}
	dest1 := &mockDestination{}
	dest2 := &mockDestination{}
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	sched := NewScheduler(ms, []Destination{dest1, dest2}, time.Second, logger)
	sched.Start()

	// Wait for the initial sync.
	time.Sleep(50 * time.Millisecond)
	sched.Stop()

	if dest1.writes.Load() < 1 {
		t.Fatal("dest1 expected at least 1 write")
	}
	if dest2.writes.Load() < 1 {
		t.Fatal("dest2 expected at least 1 write")
	}
}

func TestSyncOnce_DestinationErrorDoesNotStopOthers(t *testing.T) {
	failing := &mockDestination{err: errBoom}
	ok := &mockDestination{}
	sched := NewScheduler(&fakeSource{}, []Destination{failing, ok}, time.Minute, nil)

	err := sched.SyncOnce(context.Background())
	if !errors.Is(err, errBoom) {
		t.Fatalf("expected errBoom, got %v", err)
	}
	if ok.writes.Load() != 1 {
		t.Fatalf("second destination should still be written, got %d writes", ok.writes.Load())
	}
}

func TestSyncOnce_ExportError(t *testing.T) {
	dest := &mockDestination{}
	sched := NewScheduler(&fakeSource{propErr: errBoom}, []Destination{dest}, time.Minute, nil)

	if err := sched.SyncOnce(context.Background()); !errors.Is(err, errBoom) {
		t.Fatalf("expected errBoom, got %v", err)
	}
	if dest.writes.Load() != 0 {
		t.Fatal("destinations must not be written when export fails")
	}
}
