package cron

import "context"

// Job is a single maintenance sweep run by the worker, such as the
// subscription or license expiry sweeps.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Registry holds the sweeps a worker executes each tick, in order.
type Registry struct {
	jobs []Job
}

// NewRegistry builds a registry from the provided jobs, skipping nils.
func NewRegistry(jobs ...Job) *Registry {
	registry := &Registry{}
	for _, job := range jobs {
		registry.Register(job)
	}
	return registry
}

// Register appends a job. Nil jobs are ignored so callers can pass
// conditionally constructed sweeps without guarding.
func (r *Registry) Register(job Job) {
	if job == nil {
		return
	}
	r.jobs = append(r.jobs, job)
}

// Jobs returns a copy of the registered jobs in registration order.
func (r *Registry) Jobs() []Job {
	jobs := make([]Job, len(r.jobs))
	copy(jobs, r.jobs)
	return jobs
}
