package subscriptions

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vetlink/backend/pkg/enums"
)

// Plan is a purchasable subscription tier. Amounts are naira.
type Plan struct {
	Name     enums.SubscriptionPlan
	Track    enums.SubscriptionTrack
	Amount   decimal.Decimal
	Interval enums.BillingInterval
	// TierRank orders business plans for feature gating. Zero means the plan
	// carries no tier (consumer track).
	TierRank int
}

// catalog is the canonical price list. Prices changed here take effect for new
// purchases only; already-active subscriptions keep the amount they paid.
var catalog = []Plan{
	{
		Name:     enums.SubscriptionPlanUserMonthly,
		Track:    enums.SubscriptionTrackConsumer,
		Amount:   decimal.NewFromInt(500),
		Interval: enums.BillingIntervalMonth,
	},
	{
		Name:     enums.SubscriptionPlanBasic,
		Track:    enums.SubscriptionTrackBusiness,
		Amount:   decimal.NewFromInt(3000),
		Interval: enums.BillingIntervalMonth,
		TierRank: 1,
	},
	{
		Name:     enums.SubscriptionPlanPremium,
		Track:    enums.SubscriptionTrackBusiness,
		Amount:   decimal.NewFromInt(10000),
		Interval: enums.BillingIntervalMonth,
		TierRank: 2,
	},
	{
		Name:     enums.SubscriptionPlanEnterprise,
		Track:    enums.SubscriptionTrackBusiness,
		Amount:   decimal.NewFromInt(100000),
		Interval: enums.BillingIntervalYear,
		TierRank: 3,
	},
}

// Catalog returns a copy of the plan list.
func Catalog() []Plan {
	out := make([]Plan, len(catalog))
	copy(out, catalog)
	return out
}

// PlanByName looks up a plan in the catalog.
func PlanByName(name enums.SubscriptionPlan) (Plan, bool) {
	for _, p := range catalog {
		if p.Name == name {
			return p, true
		}
	}
	return Plan{}, false
}

// TierRank returns the gating rank for a plan name, zero when unknown or
// consumer-track.
func TierRank(name enums.SubscriptionPlan) int {
	p, ok := PlanByName(name)
	if !ok {
		return 0
	}
	return p.TierRank
}

// PeriodEnd computes the coverage end for a plan starting at the given time.
func (p Plan) PeriodEnd(start time.Time) time.Time {
	if p.Interval == enums.BillingIntervalYear {
		return start.AddDate(1, 0, 0)
	}
	return start.AddDate(0, 1, 0)
}
