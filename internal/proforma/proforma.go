// Package proforma computes multi-year investment projections from a
// property's financial inputs and growth assumptions. It is pure: no I/O, no
// shared state, safe for concurrent callers.
package proforma

import (
	"math"

	"cre-pipeline/internal/models"
)

// Point is one projected year. NOI, EGI, operating expenses and gross rent
// are rounded to whole currency units for display; Yield is a percentage
// rounded to two decimals. YieldDefined is false when the acquisition basis
// (purchase price + renovation + closing costs) is zero, in which case Yield
// carries no meaning and is left at zero.
type Point struct {
	Year                 int     `json:"year"`
	GrossRent            float64 `json:"grossRent"`
	EffectiveGrossIncome float64 `json:"effectiveGrossIncome"`
	OperatingExpenses    float64 `json:"operatingExpenses"`
	NOI                  float64 `json:"noi"`
	Yield                float64 `json:"yield"`
	YieldDefined         bool    `json:"yieldDefined"`
}

// Project produces one Point per hold-period year. Growth compounds on
// unrounded running values; rounding is applied only to the emitted points.
// A hold period of zero or less yields an empty slice.
func Project(f models.DetailedFinancials, a models.UnderwritingAssumptions) []Point {
	if a.HoldPeriodYears <= 0 {
		return []Point{}
	}

	points := make([]Point, 0, a.HoldPeriodYears)

	basis := f.PurchasePrice + f.RenovationBudget + f.ClosingCosts

	// Running values, never rounded between years
	grossRent := f.GrossPotentialRent
	otherIncome := f.OtherIncome
	opexBase := f.PropertyTax + f.Insurance + f.Utilities + f.RepairsMaintenance + f.CapitalReserves

	for year := 1; year <= a.HoldPeriodYears; year++ {
		vacancyLoss := grossRent * (f.VacancyRate / 100)
		egi := grossRent + otherIncome - vacancyLoss

		// Management fee tracks each year's EGI rather than growing as a
		// fixed amount with the expense base.
		managementFee := egi * (f.ManagementFee / 100)
		opex := opexBase + managementFee

		noi := egi - opex

		point := Point{
			Year:                 year,
			GrossRent:            math.Round(grossRent),
			EffectiveGrossIncome: math.Round(egi),
			OperatingExpenses:    math.Round(opex),
			NOI:                  math.Round(noi),
		}
		if basis > 0 {
			point.Yield = round2(noi / basis * 100)
			point.YieldDefined = true
		}
		points = append(points, point)

		grossRent *= 1 + a.MarketRentGrowth/100
		otherIncome *= 1 + a.MarketRentGrowth/100
		opexBase *= 1 + a.ExpenseGrowth/100
	}

	return points
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
