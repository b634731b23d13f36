// Package stats tracks export jobs from their notification stream and
// formats an end-of-run summary.
package stats

import (
	"context"
	"sync"
	"time"

	"github.com/influxdata/tdigest"

	"github.com/jeselxe/video-cropper/internal/notify"
	"github.com/jeselxe/video-cropper/internal/parser"
)

// JobStats is the state of a single job as seen through its events.
type JobStats struct {
	ID        string
	Started   time.Time
	Finished  time.Time
	Updates   int64
	Last      parser.Stats
	HasLast   bool
	Done      bool
	Succeeded bool
	Message   string
}

// Duration is the time from the start of the job to its terminal event, or
// until now while it is running.
func (j JobStats) Duration(now time.Time) time.Duration {
	if j.Done {
		return j.Finished.Sub(j.Started)
	}
	return now.Sub(j.Started)
}

// Snapshot is an aggregate view over every tracked job.
type Snapshot struct {
	Timestamp time.Time

	Jobs      int
	Running   int
	Succeeded int
	Failed    int

	ProgressUpdates int64
	Frames          int64

	// Encode speed relative to realtime, over all stats lines seen.
	SpeedP50 float64
	SpeedP95 float64
	SpeedMax float64

	// Wall time of finished jobs.
	DurationP50 time.Duration
	DurationP95 time.Duration
	DurationP99 time.Duration

	// Errors holds the terminal message of failed jobs, ordered by start.
	Errors []JobError
}

// JobError is the terminal message of a failed job.
type JobError struct {
	ID      string
	Message string
}

// Tracker is a notify.Sink that accumulates per-job and aggregate statistics.
// It is safe for concurrent use.
type Tracker struct {
	now func() time.Time

	mu        sync.Mutex
	jobs      map[string]*JobStats
	order     []string
	speed     *tdigest.TDigest
	speedMax  float64
	durations *tdigest.TDigest
}

// NewTracker creates an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{
		now:       time.Now,
		jobs:      make(map[string]*JobStats),
		speed:     tdigest.NewWithCompression(100),
		durations: tdigest.NewWithCompression(100),
	}
}

// Start records that job id began at at. Jobs never passed to Start are
// timed from their first event.
func (t *Tracker) Start(id string, at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	j := t.job(id)
	if !j.Done {
		j.Started = at
	}
}

// Emit records ev. It never fails.
func (t *Tracker) Emit(_ context.Context, ev notify.Event) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	j := t.job(ev.JobID)
	if j.Done {
		return nil
	}

	switch ev.Name {
	case notify.EventProgress:
		s, ok := parser.ParseStatsLine(ev.Payload)
		if !ok {
			return nil
		}
		j.Updates++
		j.Last = s
		j.HasLast = true
		if s.Speed > 0 {
			t.speed.Add(s.Speed, 1)
			if s.Speed > t.speedMax {
				t.speedMax = s.Speed
			}
		}
	case notify.EventFinished, notify.EventError:
		j.Done = true
		j.Finished = t.now()
		j.Succeeded = ev.Name == notify.EventFinished
		j.Message = ev.Payload
		t.durations.Add(j.Finished.Sub(j.Started).Seconds(), 1)
	}
	return nil
}

func (t *Tracker) job(id string) *JobStats {
	j, ok := t.jobs[id]
	if !ok {
		j = &JobStats{ID: id, Started: t.now()}
		t.jobs[id] = j
		t.order = append(t.order, id)
	}
	return j
}

// Job returns a copy of the stats of one job.
func (t *Tracker) Job(id string) (JobStats, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	j, ok := t.jobs[id]
	if !ok {
		return JobStats{}, false
	}
	return *j, true
}

// Snapshot aggregates the tracked jobs.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := Snapshot{
		Timestamp: t.now(),
		Jobs:      len(t.jobs),
		SpeedMax:  t.speedMax,
	}

	for _, id := range t.order {
		j := t.jobs[id]
		s.ProgressUpdates += j.Updates
		if j.HasLast {
			s.Frames += j.Last.Frame
		}
		switch {
		case !j.Done:
			s.Running++
		case j.Succeeded:
			s.Succeeded++
		default:
			s.Failed++
			s.Errors = append(s.Errors, JobError{ID: j.ID, Message: j.Message})
		}
	}

	if t.speed.Count() > 0 {
		s.SpeedP50 = t.speed.Quantile(0.50)
		s.SpeedP95 = t.speed.Quantile(0.95)
	}
	if t.durations.Count() > 0 {
		s.DurationP50 = seconds(t.durations.Quantile(0.50))
		s.DurationP95 = seconds(t.durations.Quantile(0.95))
		s.DurationP99 = seconds(t.durations.Quantile(0.99))
	}
	return s
}

// IDs returns the tracked job IDs in the order they were first seen.
func (t *Tracker) IDs() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.order...)
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}
