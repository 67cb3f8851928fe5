package model

import "github.com/shopspring/decimal"

type PlanKey string

const (
	Plan30Days  PlanKey = "30d"
	Plan365Days PlanKey = "365d"
)

// DefaultPlan is assumed when a webhook event carries no plan metadata.
const DefaultPlan = Plan30Days

// Plan is a purchasable tier. The Stripe price id lives in configuration.
type Plan struct {
	Key        PlanKey
	Days       int
	TokenGrant int
	Price      decimal.Decimal
	Currency   string
}

var plans = map[PlanKey]Plan{
	Plan30Days: {
		Key:        Plan30Days,
		Days:       30,
		TokenGrant: 100,
		Price:      decimal.NewFromInt(19),
		Currency:   "USD",
	},
	Plan365Days: {
		Key:        Plan365Days,
		Days:       365,
		TokenGrant: 1000,
		Price:      decimal.NewFromInt(49),
		Currency:   "USD",
	},
}

func LookupPlan(key PlanKey) (Plan, bool) {
	p, ok := plans[key]
	return p, ok
}

// Plans returns the catalog ordered by duration.
func Plans() []Plan {
	return []Plan{plans[Plan30Days], plans[Plan365Days]}
}

// ValidDay reports whether day is a 1-based day index inside the plan.
func (p Plan) ValidDay(day int) bool {
	return day >= 1 && day <= p.Days
}
