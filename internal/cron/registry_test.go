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
	subs := &namedJob{name: "subscription-expiry"}
	licenses := &namedJob{name: "license-expiry"}

	registry := NewRegistry(subs)
	registry.Register(licenses)

	jobs := registry.Jobs()
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}
	if jobs[0] != subs || jobs[1] != licenses {
		t.Fatalf("jobs returned out of order: %s, %s", jobs[0].Name(), jobs[1].Name())
	}
}

func TestRegistrySkipsNilJobs(t *testing.T) {
	registry := NewRegistry(nil, &namedJob{name: "license-expiry"}, nil)
	if got := len(registry.Jobs()); got != 1 {
		t.Fatalf("expected 1 job, got %d", got)
	}
	registry.Register(nil)
	if got := len(registry.Jobs()); got != 1 {
		t.Fatalf("expected nil Register to be a no-op, got %d jobs", got)
	}
}

func TestRegistryJobsReturnsCopy(t *testing.T) {
	registry := NewRegistry(&namedJob{name: "subscription-expiry"})
	jobs := registry.Jobs()
	jobs[0] = nil
	if registry.Jobs()[0] == nil {
		t.Fatal("mutating the returned slice changed the registry")
	}
}
