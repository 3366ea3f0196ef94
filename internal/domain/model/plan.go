package model

import "time"

// PlanType is a fixed-duration paid tier determining campaign expiry.
type PlanType string

const (
	PlanWeek     PlanType = "week"
	PlanMonth    PlanType = "month"
	Plan3Month   PlanType = "3month"
	Plan6Month   PlanType = "6month"
	PlanYear     PlanType = "year"
	PlanFree     PlanType = "free"
)

var planDurations = map[PlanType]time.Duration{
	PlanWeek:   7 * 24 * time.Hour,
	PlanMonth:  30 * 24 * time.Hour,
	Plan3Month: 90 * 24 * time.Hour,
	Plan6Month: 180 * 24 * time.Hour,
	PlanYear:   365 * 24 * time.Hour,
}

// PlanExpiry returns the expiry time for a plan activated at now.
// Free and unrecognized plans return nil: they never expire. Unknown plans
// mapping to "never" rather than an error is intentional, so legacy or
// manually granted tiers stay active until an operator intervenes.
func PlanExpiry(plan PlanType, now time.Time) *time.Time {
	d, ok := planDurations[plan]
	if !ok {
		return nil
	}
	exp := now.Add(d)
	return &exp
}
