package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vetlink/backend/internal/discovery"
	"github.com/vetlink/backend/pkg/logger"
)

type fakeLicenseStore struct {
	hidden  int64
	lastNow time.Time
	err     error
	calls   int
}

func (f *fakeLicenseStore) HideExpiredLicenses(ctx context.Context, now time.Time) (int64, error) {
	f.calls++
	f.lastNow = now
	return f.hidden, f.err
}

func newLicenseExpiryJob(t *testing.T, store *fakeLicenseStore) *licenseExpiryJob {
	t.Helper()
	jobIface, err := NewLicenseExpiryJob(LicenseExpiryJobParams{
		Logger: logger.New(logger.Options{ServiceName: "test"}),
		Store:  store,
	})
	if err != nil {
		t.Fatalf("NewLicenseExpiryJob: %v", err)
	}
	job, ok := jobIface.(*licenseExpiryJob)
	if !ok {
		t.Fatalf("expected licenseExpiryJob, got %T", jobIface)
	}
	return job
}

func TestLicenseExpiryJobHidesLapsedProfiles(t *testing.T) {
	now := time.Date(2026, 8, 1, 2, 0, 0, 0, time.UTC)
	store := &fakeLicenseStore{hidden: 4}
	job := newLicenseExpiryJob(t, store)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if store.calls != 1 {
		t.Fatalf("expected store swept once, got %d", store.calls)
	}
	if !store.lastNow.Equal(now) {
		t.Fatalf("expected sweep at %s, got %s", now, store.lastNow)
	}
}

type fakeListingIndex struct {
	bumped []discovery.Kind
}

func (f *fakeListingIndex) Invalidate(ctx context.Context, kinds ...discovery.Kind) {
	f.bumped = append(f.bumped, kinds...)
}

func TestLicenseExpiryJobDropsCachedListingsWhenProfilesHide(t *testing.T) {
	index := &fakeListingIndex{}
	job, err := NewLicenseExpiryJob(LicenseExpiryJobParams{
		Logger:   logger.New(logger.Options{ServiceName: "test"}),
		Store:    &fakeLicenseStore{hidden: 2},
		Listings: index,
	})
	if err != nil {
		t.Fatalf("NewLicenseExpiryJob: %v", err)
	}

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(index.bumped) != 2 {
		t.Fatalf("expected vet and kennel listings evicted, got %v", index.bumped)
	}
}

func TestLicenseExpiryJobKeepsCacheWhenNothingHidden(t *testing.T) {
	index := &fakeListingIndex{}
	job, err := NewLicenseExpiryJob(LicenseExpiryJobParams{
		Logger:   logger.New(logger.Options{ServiceName: "test"}),
		Store:    &fakeLicenseStore{hidden: 0},
		Listings: index,
	})
	if err != nil {
		t.Fatalf("NewLicenseExpiryJob: %v", err)
	}

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(index.bumped) != 0 {
		t.Fatalf("an idle sweep must not evict listings, got %v", index.bumped)
	}
}

func TestLicenseExpiryJobPropagatesErrors(t *testing.T) {
	store := &fakeLicenseStore{err: errors.New("boom")}
	job := newLicenseExpiryJob(t, store)

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
