package service

import "strings"

// Plan tiers.
const (
	PlanEconomic = "Economic"
	PlanStandard = "Standard"
	PlanPremium  = "Premium"
)

const (
	defaultFlatRateSport = "Maternal Fitness"
	flatRatePrice        = 60
	unknownPlanPrice     = 60
)

// planTable maps a slot count to a monthly price. Index 0 holds the fallback, the last index
// covers every count at or above it.
var planTable = map[string][]float64{
	PlanEconomic: {60, 60, 60, 80},
	PlanStandard: {40, 40, 80, 120},
	PlanPremium:  {100, 100, 100, 150},
}

var planAliases = map[string]string{
	"economic":  PlanEconomic,
	"económico": PlanEconomic,
	"economico": PlanEconomic,
	"standard":  PlanStandard,
	"estándar":  PlanStandard,
	"estandar":  PlanStandard,
	"premium":   PlanPremium,
}

// Pricer computes monthly prices for a sport group.
type Pricer struct {
	flatRateSport string
	flatRatePrice float64
}

// NewPricer builds a Pricer. Empty flatRateSport keeps the default program and a non positive
// price keeps the default rate.
func NewPricer(flatRateSport string, flatRate float64) Pricer {
	if strings.TrimSpace(flatRateSport) == "" {
		flatRateSport = defaultFlatRateSport
	}
	if flatRate <= 0 {
		flatRate = flatRatePrice
	}
	return Pricer{flatRateSport: flatRateSport, flatRatePrice: flatRate}
}

// NormalizePlan maps accented and lower-case spellings onto the canonical tier names.
// Unknown names are returned trimmed but otherwise untouched.
func NormalizePlan(plan string) string {
	trimmed := strings.TrimSpace(plan)
	if canonical, ok := planAliases[strings.ToLower(trimmed)]; ok {
		return canonical
	}
	return trimmed
}

// MonthlyPrice returns the price of slotCount weekly slots of sport under plan.
func (p Pricer) MonthlyPrice(slotCount int, plan, sport string) float64 {
	if sport == p.flatRateSport {
		return p.flatRatePrice
	}
	table, ok := planTable[NormalizePlan(plan)]
	if !ok {
		return unknownPlanPrice
	}
	switch {
	case slotCount < 1:
		return table[0]
	case slotCount >= len(table):
		return table[len(table)-1]
	default:
		return table[slotCount]
	}
}
