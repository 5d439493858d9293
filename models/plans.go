package models

const (
	PlanFree    = "free"
	PlanStarter = "starter"
	PlanPro     = "pro"
	PlanAgency  = "agency"
)

const (
	PeriodMonthly = "monthly"
	PeriodAnnual  = "annual"
	PeriodOneTime = "one_time"
)

// UnlimitedArticles marks a plan with no article ceiling.
const UnlimitedArticles = -1

// Stripe price ids. OneTimePriceID is the only non-recurring price;
// checkout for it must use mode=payment.
const (
	PriceStarterMonthly = "price_starter_monthly"
	PriceStarterAnnual  = "price_starter_annual"
	PriceProMonthly     = "price_pro_monthly"
	PriceProAnnual      = "price_pro_annual"
	PriceAgencyMonthly  = "price_agency_monthly"
	OneTimePriceID      = "price_article_pack_5"
)

// PlanSpec is the entitlement a Stripe price id maps to.
type PlanSpec struct {
	Plan   string
	Limit  int
	Period string
}

// PriceTable is the single source of truth for price->plan mapping.
// Both the checkout and webhook paths read it; keep any price id change
// in sync with the Stripe dashboard.
var PriceTable = map[string]PlanSpec{
	PriceStarterMonthly: {Plan: PlanStarter, Limit: 10, Period: PeriodMonthly},
	PriceStarterAnnual:  {Plan: PlanStarter, Limit: 10, Period: PeriodAnnual},
	PriceProMonthly:     {Plan: PlanPro, Limit: 30, Period: PeriodMonthly},
	PriceProAnnual:      {Plan: PlanPro, Limit: 30, Period: PeriodAnnual},
	PriceAgencyMonthly:  {Plan: PlanAgency, Limit: UnlimitedArticles, Period: PeriodMonthly},
	OneTimePriceID:      {Plan: PlanStarter, Limit: 5, Period: PeriodOneTime},
}

// LookupPrice resolves a Stripe price id to its plan spec.
func LookupPrice(priceID string) (PlanSpec, bool) {
	spec, ok := PriceTable[priceID]
	return spec, ok
}

// IsOneTimePrice reports whether the price id is the non-recurring article pack.
func IsOneTimePrice(priceID string) bool {
	return priceID == OneTimePriceID
}
