package parcels

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"cre-pipeline/internal/models"
)

// AssetClassForUseCode maps a state use code onto an asset class. Codes 340+
// are offices per the DOR table even though they sit inside the broad
// commercial range.
func AssetClassForUseCode(code string) models.AssetClass {
	n, err := strconv.Atoi(strings.TrimSpace(code))
	if err != nil {
		return models.AssetClassOther
	}
	switch {
	case code == "013" || code == "031":
		return models.AssetClassMixedUse
	case n >= 101 && n <= 129:
		return models.AssetClassMultifamily
	case n >= 300 && n <= 339:
		return models.AssetClassRetail
	case n >= 340 && n <= 399:
		return models.AssetClassOffice
	case n >= 400 && n <= 499:
		return models.AssetClassIndustrial
	default:
		return models.AssetClassOther
	}
}

// InferUnits resolves a unit count. An explicit count above one wins; a
// missing or trivial count falls back to style heuristics (triple-deckers,
// duplexes) and then to the use-code table.
func InferUnits(rawUnits int, useCode, style string) int {
	if rawUnits > 1 {
		return rawUnits
	}

	switch strings.ToUpper(strings.TrimSpace(style)) {
	case "TK":
		return 3
	case "DX":
		return 2
	case "4UNIT":
		return 4
	}

	switch strings.TrimSpace(useCode) {
	case "101", "102":
		return 1
	case "104":
		return 2
	case "105":
		return 3
	case "111":
		return 4
	case "112":
		return 8
	}

	return 1
}

// UseCodeDescription returns the DOR description for a use code
func UseCodeDescription(code string) string {
	if desc, ok := useCodeDescriptions[code]; ok {
		return desc
	}
	return fmt.Sprintf("Property Type (%s)", code)
}

// StyleDescription expands an assessor style code
func StyleDescription(style string) string {
	if style == "" {
		return "N/A"
	}
	if desc, ok := styleDescriptions[strings.ToUpper(style)]; ok {
		return desc
	}
	return style
}

// ConvertToProperty maps one raw parcel record onto a fully-formed pipeline
// property with placeholder financials scaled from the assessed value and
// unit count. Deterministic apart from the generated id.
func ConvertToProperty(f Feature) models.Property {
	attr := f.Attributes

	assessedValue := attr.TotalVal
	if assessedValue < 0 {
		assessedValue = 0
	}
	units := InferUnits(attr.Units, attr.UseCode, attr.Style)

	sqft := attr.BldArea
	if sqft == 0 {
		sqft = attr.ResArea
	}

	address := attr.SiteAddr
	if address == "" {
		address = "Unknown Address"
	}
	city := attr.City
	if city == "" {
		city = "Unknown"
	}
	yearBuilt := attr.YearBuilt
	if yearBuilt == 0 {
		yearBuilt = 1900
	}

	owner := attr.Owner1
	if owner == "" {
		owner = "N/A"
	}

	financials := models.DetailedFinancials{
		PurchasePrice:      assessedValue,
		GrossPotentialRent: 0,
		OtherIncome:        0,
		VacancyRate:        5,
		PropertyTax:        math.Round(assessedValue * 0.012),
		Insurance:          float64(units) * 1000,
		Utilities:          float64(units) * 1500,
		RepairsMaintenance: float64(units) * 800,
		ManagementFee:      5,
		CapitalReserves:    float64(units) * 300,
		ClosingCosts:       math.Round(assessedValue * 0.02),
		RenovationBudget:   0,
	}

	return models.Property{
		ID:          models.NewID(),
		Address:     address,
		City:        city,
		State:       "MA",
		Zip:         attr.Zip,
		AssetClass:  AssetClassForUseCode(attr.UseCode),
		Sqft:        sqft,
		Units:       units,
		YearBuilt:   yearBuilt,
		Zoning:      attr.Zoning,
		Style:       attr.Style,
		UseCode:     attr.UseCode,
		Status:      models.StatusDiscover,
		History:     []models.StatusHistory{},
		Description: fmt.Sprintf("Official MassGIS Record. Owner: %s. Use: %s.", owner, attr.UseCode),
		Financials:  financials,
		Loan:        models.DefaultLoan(),
		Assumptions: models.DefaultAssumptions(),
	}
}
