package scheduler

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/insiderradar/radar/pkg/logger"
)

type countingJob struct {
	name     string
	schedule string
	runs     int32
}

func (j *countingJob) Name() string     { return j.name }
func (j *countingJob) Schedule() string { return j.schedule }
func (j *countingJob) Run(ctx context.Context) error {
	atomic.AddInt32(&j.runs, 1)
	return nil
}

func TestAddJobRejectsDuplicates(t *testing.T) {
	s := New(logger.NewNop())
	job := &countingJob{name: "scrape", schedule: "0 0 */2 * * *"}

	if err := s.AddJob(job); err != nil {
		t.Fatalf("AddJob() failed: %v", err)
	}
	if err := s.AddJob(job); err == nil {
		t.Error("AddJob() should reject a duplicate job name")
	}
}

func TestAddJobRejectsBadSchedule(t *testing.T) {
	s := New(logger.NewNop())
	job := &countingJob{name: "scrape", schedule: "not a cron spec"}

	if err := s.AddJob(job); err == nil {
		t.Error("AddJob() should reject an invalid cron expression")
	}
}

func TestRunNowExecutesAndRecordsHistory(t *testing.T) {
	s := New(logger.NewNop())
	job := &countingJob{name: "scrape", schedule: "0 0 */2 * * *"}

	if err := s.AddJob(job); err != nil {
		t.Fatalf("AddJob() failed: %v", err)
	}
	if err := s.RunNow("scrape"); err != nil {
		t.Fatalf("RunNow() failed: %v", err)
	}

	if got := atomic.LoadInt32(&job.runs); got != 1 {
		t.Errorf("job ran %d times, want 1", got)
	}

	history, err := s.History("scrape")
	if err != nil {
		t.Fatalf("History() failed: %v", err)
	}

	latest := history.Latest()
	if latest == nil {
		t.Fatal("History() has no results after RunNow")
	}
	if !latest.Success {
		t.Errorf("latest result not successful: %s", latest.Error)
	}
	if rate := history.SuccessRate(); rate != 1.0 {
		t.Errorf("SuccessRate() = %f, want 1.0", rate)
	}
}

func TestRunNowUnknownJob(t *testing.T) {
	s := New(logger.NewNop())

	if err := s.RunNow("missing"); err == nil {
		t.Error("RunNow() should fail for an unknown job")
	}
}
