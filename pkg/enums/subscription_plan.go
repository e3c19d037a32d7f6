package enums

import "fmt"

// SubscriptionTrack separates the two mutually exclusive subscription
// lineages: pet owners versus professionals and shops.
type SubscriptionTrack string

const (
	SubscriptionTrackConsumer SubscriptionTrack = "consumer"
	SubscriptionTrackBusiness SubscriptionTrack = "business"
)

var validSubscriptionTracks = []SubscriptionTrack{
	SubscriptionTrackConsumer,
	SubscriptionTrackBusiness,
}

// String implements fmt.Stringer.
func (t SubscriptionTrack) String() string {
	return string(t)
}

// IsValid reports whether the value is known.
func (t SubscriptionTrack) IsValid() bool {
	for _, candidate := range validSubscriptionTracks {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseSubscriptionTrack converts raw input into a SubscriptionTrack.
func ParseSubscriptionTrack(value string) (SubscriptionTrack, error) {
	for _, candidate := range validSubscriptionTracks {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid subscription track %q", value)
}

// SubscriptionPlan names a purchasable tier.
type SubscriptionPlan string

const (
	SubscriptionPlanUserMonthly SubscriptionPlan = "user_monthly"
	SubscriptionPlanBasic       SubscriptionPlan = "basic"
	SubscriptionPlanPremium     SubscriptionPlan = "premium"
	SubscriptionPlanEnterprise  SubscriptionPlan = "enterprise"
)

var validSubscriptionPlans = []SubscriptionPlan{
	SubscriptionPlanUserMonthly,
	SubscriptionPlanBasic,
	SubscriptionPlanPremium,
	SubscriptionPlanEnterprise,
}

// String implements fmt.Stringer.
func (p SubscriptionPlan) String() string {
	return string(p)
}

// IsValid reports whether the value is known.
func (p SubscriptionPlan) IsValid() bool {
	for _, candidate := range validSubscriptionPlans {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseSubscriptionPlan converts raw input into a SubscriptionPlan.
func ParseSubscriptionPlan(value string) (SubscriptionPlan, error) {
	for _, candidate := range validSubscriptionPlans {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid subscription plan %q", value)
}

// BillingInterval is the cadence a plan renews on.
type BillingInterval string

const (
	BillingIntervalMonth BillingInterval = "month"
	BillingIntervalYear  BillingInterval = "year"
)

// String implements fmt.Stringer.
func (i BillingInterval) String() string {
	return string(i)
}

// IsValid reports whether the value is known.
func (i BillingInterval) IsValid() bool {
	return i == BillingIntervalMonth || i == BillingIntervalYear
}
