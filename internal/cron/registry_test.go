package cron

import (
	"context"
	"testing"
)

type namedJob struct {
	name string
}

func (j *namedJob) Name() string              { return j.name }
func (j *namedJob) Run(context.Context) error { return nil }

func TestRegistryKeepsRegistrationOrder(t *testing.T) {
	cleanup := &namedJob{name: "notification-cleanup"}
	retention := &namedJob{name: "outbox-retention"}
	registry := NewRegistry(cleanup, nil, retention)

	jobs := registry.Jobs()
	if len(jobs) != 2 {
		t.Fatalf("expected nil job dropped, got %d jobs", len(jobs))
	}
	if jobs[0] != cleanup || jobs[1] != retention {
		t.Fatal("jobs returned out of registration order")
	}

	jobs[0] = nil
	if registry.Jobs()[0] == nil {
		t.Fatal("Jobs must return a copy of the internal slice")
	}
}
