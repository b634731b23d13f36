package stats

import (
	"context"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/jeselxe/video-cropper/internal/notify"
)

// fakeClock advances by step on every call.
type fakeClock struct {
	mu   sync.Mutex
	t    time.Time
	step time.Duration
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.t
	c.t = c.t.Add(c.step)
	return now
}

func newTestTracker(step time.Duration) *Tracker {
	tr := NewTracker()
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), step: step}
	tr.now = clock.now
	return tr
}

func emit(t *testing.T, tr *Tracker, ev notify.Event) {
	t.Helper()
	if err := tr.Emit(context.Background(), ev); err != nil {
		t.Fatalf("Emit(%+v) = %v", ev, err)
	}
}

func statsLine(frame int, speed string) string {
	return fmt.Sprintf("frame=%5d fps= 30 q=-1.0 size=     256KiB time=00:00:%02d.00 bitrate=1000.0kbits/s speed=%s", frame, frame/30, speed)
}

func TestTracker_ProgressAndFinish(t *testing.T) {
	tr := newTestTracker(time.Second)

	emit(t, tr, notify.Event{Name: notify.EventProgress, JobID: "a", Payload: statsLine(30, "1.0x")})
	emit(t, tr, notify.Event{Name: notify.EventProgress, JobID: "a", Payload: "Stream mapping:"})
	emit(t, tr, notify.Event{Name: notify.EventProgress, JobID: "a", Payload: statsLine(60, "2.0x")})
	emit(t, tr, notify.Event{Name: notify.EventFinished, JobID: "a", Payload: "Successfully processed video"})

	j, ok := tr.Job("a")
	if !ok {
		t.Fatal("job a not tracked")
	}
	if j.Updates != 2 {
		t.Errorf("Updates = %d, want 2", j.Updates)
	}
	if !j.HasLast || j.Last.Frame != 60 {
		t.Errorf("Last = %+v, want frame 60", j.Last)
	}
	if !j.Done || !j.Succeeded {
		t.Errorf("Done = %v, Succeeded = %v", j.Done, j.Succeeded)
	}
	// Started on the first event, finished one tick later.
	if got := j.Duration(time.Time{}); got != time.Second {
		t.Errorf("Duration = %v, want 1s", got)
	}

	snap := tr.Snapshot()
	if snap.Jobs != 1 || snap.Succeeded != 1 || snap.Failed != 0 || snap.Running != 0 {
		t.Errorf("snapshot counts = %+v", snap)
	}
	if snap.Frames != 60 {
		t.Errorf("Frames = %d, want 60", snap.Frames)
	}
	if snap.ProgressUpdates != 2 {
		t.Errorf("ProgressUpdates = %d, want 2", snap.ProgressUpdates)
	}
	if snap.SpeedMax != 2 {
		t.Errorf("SpeedMax = %v, want 2", snap.SpeedMax)
	}
	if snap.SpeedP50 < 1 || snap.SpeedP50 > 2 {
		t.Errorf("SpeedP50 = %v, want within [1, 2]", snap.SpeedP50)
	}
	if snap.DurationP50 != time.Second {
		t.Errorf("DurationP50 = %v, want 1s", snap.DurationP50)
	}
}

func TestTracker_ErrorEvent(t *testing.T) {
	tr := newTestTracker(time.Millisecond)

	emit(t, tr, notify.Event{Name: notify.EventError, JobID: "b", Payload: "FFmpeg exited with error code: 1"})

	snap := tr.Snapshot()
	if snap.Failed != 1 {
		t.Fatalf("Failed = %d, want 1", snap.Failed)
	}
	if len(snap.Errors) != 1 || snap.Errors[0].ID != "b" || snap.Errors[0].Message != "FFmpeg exited with error code: 1" {
		t.Errorf("Errors = %+v", snap.Errors)
	}
}

func TestTracker_IgnoresEventsAfterTerminal(t *testing.T) {
	tr := newTestTracker(time.Second)

	emit(t, tr, notify.Event{Name: notify.EventFinished, JobID: "a"})
	emit(t, tr, notify.Event{Name: notify.EventError, JobID: "a", Payload: "late"})
	emit(t, tr, notify.Event{Name: notify.EventProgress, JobID: "a", Payload: statsLine(30, "1.0x")})

	j, _ := tr.Job("a")
	if !j.Succeeded || j.Message != "" || j.Updates != 0 {
		t.Errorf("job changed after terminal event: %+v", j)
	}
	if snap := tr.Snapshot(); snap.Succeeded != 1 || snap.Failed != 0 {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestTracker_Running(t *testing.T) {
	tr := newTestTracker(time.Second)
	emit(t, tr, notify.Event{Name: notify.EventProgress, JobID: "a", Payload: statsLine(30, "N/A")})

	snap := tr.Snapshot()
	if snap.Running != 1 {
		t.Errorf("Running = %d, want 1", snap.Running)
	}
	if snap.SpeedMax != 0 || snap.SpeedP50 != 0 {
		t.Errorf("speed recorded for N/A: %+v", snap)
	}
	if snap.DurationP50 != 0 {
		t.Errorf("DurationP50 = %v for unfinished job", snap.DurationP50)
	}
}

func TestTracker_Empty(t *testing.T) {
	snap := NewTracker().Snapshot()
	if snap.Jobs != 0 || snap.SpeedP50 != 0 || snap.DurationP99 != 0 || len(snap.Errors) != 0 {
		t.Errorf("empty snapshot = %+v", snap)
	}
	if _, ok := NewTracker().Job("missing"); ok {
		t.Error("Job(missing) reported ok")
	}
}

func TestTracker_IDsInFirstSeenOrder(t *testing.T) {
	tr := newTestTracker(time.Second)
	for _, id := range []string{"c", "a", "b", "a"} {
		emit(t, tr, notify.Event{Name: notify.EventProgress, JobID: id})
	}
	got := tr.IDs()
	want := []string{"c", "a", "b"}
	if len(got) != len(want) {
		t.Fatalf("IDs() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("IDs()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestTracker_DurationPercentiles(t *testing.T) {
	tr := newTestTracker(0)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 1; i <= 100; i++ {
		id := fmt.Sprintf("job-%d", i)
		tr.now = func() time.Time { return base }
		emit(t, tr, notify.Event{Name: notify.EventProgress, JobID: id})
		end := base.Add(time.Duration(i) * time.Second)
		tr.now = func() time.Time { return end }
		emit(t, tr, notify.Event{Name: notify.EventFinished, JobID: id})
	}

	snap := tr.Snapshot()
	if got := snap.DurationP50.Seconds(); math.Abs(got-50) > 2 {
		t.Errorf("DurationP50 = %v, want about 50s", snap.DurationP50)
	}
	if got := snap.DurationP99.Seconds(); math.Abs(got-99) > 2 {
		t.Errorf("DurationP99 = %v, want about 99s", snap.DurationP99)
	}
	if snap.DurationP95 > snap.DurationP99 {
		t.Errorf("P95 %v > P99 %v", snap.DurationP95, snap.DurationP99)
	}
}

func TestTracker_StartTimesSilentJob(t *testing.T) {
	tr := newTestTracker(0)
	spawned := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	exited := spawned.Add(1500 * time.Millisecond)

	tr.Start("quiet", spawned)
	tr.now = func() time.Time { return exited }
	emit(t, tr, notify.Event{Name: notify.EventFinished, JobID: "quiet", Payload: "Successfully processed video"})

	j, ok := tr.Job("quiet")
	if !ok {
		t.Fatal("job not tracked")
	}
	if got := j.Duration(exited); got != 1500*time.Millisecond {
		t.Errorf("Duration = %v, want 1.5s", got)
	}
	if got := tr.Snapshot().DurationP50; got < 1400*time.Millisecond || got > 1600*time.Millisecond {
		t.Errorf("DurationP50 = %v, want about 1.5s", got)
	}
}

func TestTracker_StartAfterFirstEvent(t *testing.T) {
	tr := newTestTracker(time.Second)
	spawned := time.Date(2023, 12, 31, 23, 59, 58, 0, time.UTC)

	emit(t, tr, notify.Event{Name: notify.EventProgress, JobID: "a", Payload: "x"})
	tr.Start("a", spawned)
	emit(t, tr, notify.Event{Name: notify.EventFinished, JobID: "a"})

	j, _ := tr.Job("a")
	if !j.Started.Equal(spawned) {
		t.Errorf("Started = %v, want %v", j.Started, spawned)
	}
	if ids := tr.IDs(); len(ids) != 1 {
		t.Errorf("IDs() = %q, want one job", ids)
	}

	// A finished job keeps its recorded times.
	tr.Start("a", spawned.Add(-time.Hour))
	if j2, _ := tr.Job("a"); !j2.Started.Equal(spawned) {
		t.Errorf("Started after late Start = %v, want %v", j2.Started, spawned)
	}
}

func TestTracker_Concurrent(t *testing.T) {
	tr := NewTracker()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("job-%d", n)
			for f := 1; f <= 50; f++ {
				_ = tr.Emit(context.Background(), notify.Event{Name: notify.EventProgress, JobID: id, Payload: statsLine(f, "1.5x")})
			}
			_ = tr.Emit(context.Background(), notify.Event{Name: notify.EventFinished, JobID: id})
		}(i)
	}
	wg.Wait()

	snap := tr.Snapshot()
	if snap.Jobs != 8 || snap.Succeeded != 8 {
		t.Errorf("snapshot = %+v", snap)
	}
	if snap.ProgressUpdates != 400 {
		t.Errorf("ProgressUpdates = %d, want 400", snap.ProgressUpdates)
	}
	if snap.Frames != 400 {
		t.Errorf("Frames = %d, want 400", snap.Frames)
	}
}
