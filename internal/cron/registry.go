package cron

import "context"

// Job is one housekeeping task run by the worker sweep.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Registry holds the jobs in registration order. Order matters: the outbox
// retention sweep runs after the expiry sweep so events emitted by expiry
// are not reaped in the same cycle.
type Registry struct {
	jobs []Job
}

// NewRegistry builds a registry preloaded with the given jobs, dropping nils
// so optional jobs can be passed unconditionally.
func NewRegistry(jobs ...Job) *Registry {
	r := &Registry{}
	for _, job := range jobs {
		r.Register(job)
	}
	return r
}

// Register appends a job. Nil jobs are ignored.
func (r *Registry) Register(job Job) {
	if job == nil {
		return
	}
	r.jobs = append(r.jobs, job)
}

// Jobs returns a copy of the registered jobs.
func (r *Registry) Jobs() []Job {
	out := make([]Job, len(r.jobs))
	copy(out, r.jobs)
	return out
}
