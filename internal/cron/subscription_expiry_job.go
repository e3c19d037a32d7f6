package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/vetlink/backend/pkg/logger"
	"github.com/vetlink/backend/pkg/metrics"
)

// subscriptionExpiryStore covers both subscription tracks: embedded consumer
// columns and business records.
type subscriptionExpiryStore interface {
	ExpireLapsedSubscriptions(ctx context.Context, now time.Time) (int64, error)
}

type businessExpiryStore interface {
	ExpireLapsed(ctx context.Context, now time.Time) (int64, error)
}

// SubscriptionExpiryJobParams configure the daily subscription sweep.
type SubscriptionExpiryJobParams struct {
	Logger       *logger.Logger
	AccountStore subscriptionExpiryStore
	RecordStore  businessExpiryStore
	Metrics      *metrics.SweepMetrics
}

// NewSubscriptionExpiryJob builds the sweep that flips lapsed subscriptions
// to expired. Lazy expiry on read keeps gates honest between runs; this job
// keeps stored rows and stats consistent.
func NewSubscriptionExpiryJob(params SubscriptionExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.AccountStore == nil {
		return nil, fmt.Errorf("account store required")
	}
	if params.RecordStore == nil {
		return nil, fmt.Errorf("record store required")
	}
	return &subscriptionExpiryJob{
		logg:     params.Logger,
		accounts: params.AccountStore,
		records:  params.RecordStore,
		metrics:  params.Metrics,
		now:      time.Now,
	}, nil
}

type subscriptionExpiryJob struct {
	logg     *logger.Logger
	accounts subscriptionExpiryStore
	records  businessExpiryStore
	metrics  *metrics.SweepMetrics
	now      func() time.Time
}

func (j *subscriptionExpiryJob) Name() string { return "subscription-expiry" }

func (j *subscriptionExpiryJob) Run(ctx context.Context) error {
	now := j.now().UTC()

	// One track failing must not skip the other sweep.
	var errs []error
	consumers, err := j.accounts.ExpireLapsedSubscriptions(ctx, now)
	if err != nil {
		errs = append(errs, fmt.Errorf("expire consumer subscriptions: %w", err))
	}
	businesses, err := j.records.ExpireLapsed(ctx, now)
	if err != nil {
		errs = append(errs, fmt.Errorf("expire business subscriptions: %w", err))
	}
	if combined := multierr.Combine(errs...); combined != nil {
		return combined
	}

	j.metrics.AddProcessed(j.Name(), consumers+businesses)
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"as_of":              now,
		"consumers_expired":  consumers,
		"businesses_expired": businesses,
	})
	j.logg.Info(logCtx, "subscription expiry sweep complete")
	return nil
}
