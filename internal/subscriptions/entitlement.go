package subscriptions

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vetlink/backend/pkg/enums"
)

// Entitlement is the evaluated subscription state for an account at a point
// in time. Active is authoritative: a stored "active" status with a lapsed end
// date evaluates as inactive here even before the sweeper catches it.
type Entitlement struct {
	Track    enums.SubscriptionTrack  `json:"track"`
	Plan     enums.SubscriptionPlan   `json:"plan,omitempty"`
	Status   enums.SubscriptionStatus `json:"status,omitempty"`
	Amount   *decimal.Decimal         `json:"amount,omitempty"`
	Start    *time.Time               `json:"start,omitempty"`
	End      *time.Time               `json:"end,omitempty"`
	Active   bool                     `json:"active"`
	TierRank int                      `json:"-"`
	// Lapsed marks an entitlement whose stored status still reads active but
	// whose end date has passed; callers persist the expiry transition.
	Lapsed bool `json:"-"`
}

// evaluate folds stored subscription columns into an Entitlement. The end
// boundary is exclusive: coverage through end means active strictly before it.
func evaluate(track enums.SubscriptionTrack, plan enums.SubscriptionPlan, status enums.SubscriptionStatus, amount *decimal.Decimal, start, end *time.Time, now time.Time) Entitlement {
	e := Entitlement{
		Track:  track,
		Plan:   plan,
		Status: status,
		Amount: amount,
		Start:  start,
		End:    end,
	}
	switch status {
	case enums.SubscriptionStatusActive:
		if end == nil || !end.After(now) {
			e.Status = enums.SubscriptionStatusExpired
			e.Lapsed = true
			return e
		}
	case enums.SubscriptionStatusCancelled:
		// Cancellation does not revoke access; coverage runs to the paid-up
		// end date.
		if end == nil || !end.After(now) {
			return e
		}
	default:
		return e
	}
	e.Active = true
	e.TierRank = TierRank(plan)
	return e
}

// DaysRemaining reports whole days of coverage left, zero when inactive.
func (e Entitlement) DaysRemaining(now time.Time) int {
	if !e.Active || e.End == nil {
		return 0
	}
	remaining := e.End.Sub(now)
	if remaining <= 0 {
		return 0
	}
	return int(remaining.Hours() / 24)
}

// MeetsTier reports whether the entitlement satisfies a minimum business plan.
func (e Entitlement) MeetsTier(min enums.SubscriptionPlan) bool {
	if !e.Active {
		return false
	}
	required := TierRank(min)
	if required == 0 {
		return true
	}
	return e.TierRank >= required
}
