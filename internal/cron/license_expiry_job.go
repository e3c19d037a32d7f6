package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/vetlink/backend/internal/discovery"
	"github.com/vetlink/backend/pkg/logger"
	"github.com/vetlink/backend/pkg/metrics"
)

type licenseExpiryStore interface {
	HideExpiredLicenses(ctx context.Context, now time.Time) (int64, error)
}

type listingIndex interface {
	Invalidate(ctx context.Context, kinds ...discovery.Kind)
}

// LicenseExpiryJobParams configure the daily license sweep.
type LicenseExpiryJobParams struct {
	Logger   *logger.Logger
	Store    licenseExpiryStore
	Listings listingIndex
	Metrics  *metrics.SweepMetrics
}

// NewLicenseExpiryJob builds the sweep that pulls professionals with expired
// licenses out of public discovery until they renew.
func NewLicenseExpiryJob(params LicenseExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Store == nil {
		return nil, fmt.Errorf("license store required")
	}
	return &licenseExpiryJob{
		logg:     params.Logger,
		store:    params.Store,
		listings: params.Listings,
		metrics:  params.Metrics,
		now:      time.Now,
	}, nil
}

type licenseExpiryJob struct {
	logg     *logger.Logger
	store    licenseExpiryStore
	listings listingIndex
	metrics  *metrics.SweepMetrics
	now      func() time.Time
}

func (j *licenseExpiryJob) Name() string { return "license-expiry" }

func (j *licenseExpiryJob) Run(ctx context.Context) error {
	now := j.now().UTC()

	hidden, err := j.store.HideExpiredLicenses(ctx, now)
	if err != nil {
		return fmt.Errorf("hide expired licenses: %w", err)
	}
	if hidden > 0 && j.listings != nil {
		j.listings.Invalidate(ctx, discovery.KindVets, discovery.KindKennels)
	}

	j.metrics.AddProcessed(j.Name(), hidden)
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"as_of":           now,
		"profiles_hidden": hidden,
	})
	j.logg.Info(logCtx, "license expiry sweep complete")
	return nil
}
