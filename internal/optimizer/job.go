package optimizer

import (
	"context"
	"fmt"
)

// Job adapts the worker to the scheduler. The base context comes from the
// host process so a shutdown signal stops a run between items.
type Job struct {
	worker *Worker
	base   context.Context
}

// NewJob wraps the worker for scheduled execution
func NewJob(base context.Context, worker *Worker) *Job {
	return &Job{worker: worker, base: base}
}

// Name implements scheduler.Job
func (j *Job) Name() string {
	return "price-optimization"
}

// Run implements scheduler.Job. A failed run reports its error and the
// next scheduled run still fires; a panic is contained the same way.
func (j *Job) Run() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("optimization run panicked: %v", r)
		}
	}()

	_, err = j.worker.RunOnce(j.base)
	return err
}
