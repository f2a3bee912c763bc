package enrich

import (
	"math"

	"cre-pipeline/internal/models"
)

// Patch is a partial property record produced by the enrichment model. Only
// set fields are merged; anything the model returns outside this shape is
// discarded before it can reach the persisted schema.
type Patch struct {
	Address     *string  `json:"address,omitempty"`
	City        *string  `json:"city,omitempty"`
	State       *string  `json:"state,omitempty"`
	Zip         *string  `json:"zip,omitempty"`
	Sqft        *float64 `json:"sqft,omitempty"`
	Units       *int     `json:"units,omitempty"`
	YearBuilt   *int     `json:"yearBuilt,omitempty"`
	Description *string  `json:"description,omitempty"`

	Financials FinancialsPatch `json:"financials"`
}

// FinancialsPatch is the partial financial guess attached to a Patch
type FinancialsPatch struct {
	GrossPotentialRent *float64 `json:"grossPotentialRent,omitempty"`
	OtherIncome        *float64 `json:"otherIncome,omitempty"`
	VacancyRate        *float64 `json:"vacancyRate,omitempty"`
	PropertyTax        *float64 `json:"propertyTax,omitempty"`
	Insurance          *float64 `json:"insurance,omitempty"`
	Utilities          *float64 `json:"utilities,omitempty"`
	RepairsMaintenance *float64 `json:"repairsMaintenance,omitempty"`
	ManagementFee      *float64 `json:"managementFee,omitempty"`
	CapitalReserves    *float64 `json:"capitalReserves,omitempty"`
	PurchasePrice      *float64 `json:"purchasePrice,omitempty"`
	ClosingCosts       *float64 `json:"closingCosts,omitempty"`
	RenovationBudget   *float64 `json:"renovationBudget,omitempty"`
}

// IsEmpty reports whether the patch carries nothing to merge
func (p Patch) IsEmpty() bool {
	return p.Address == nil && p.City == nil && p.State == nil && p.Zip == nil &&
		p.Sqft == nil && p.Units == nil && p.YearBuilt == nil && p.Description == nil &&
		p.Financials == (FinancialsPatch{})
}

// Merge applies a patch onto a copy of base, field by field. Numeric fields
// must be finite and non-negative or the whole merge is rejected. Identity,
// status and history are never touched by a patch.
func Merge(base models.Property, p Patch) (models.Property, error) {
	merged := base

	if p.Address != nil {
		merged.Address = *p.Address
	}
	if p.City != nil {
		merged.City = *p.City
	}
	if p.State != nil {
		merged.State = *p.State
	}
	if p.Zip != nil {
		merged.Zip = *p.Zip
	}
	if p.Description != nil {
		merged.Description = *p.Description
	}

	if p.Sqft != nil {
		if err := checkPatchNumber("sqft", *p.Sqft); err != nil {
			return models.Property{}, err
		}
		merged.Sqft = *p.Sqft
	}
	if p.Units != nil {
		if *p.Units < 0 {
			return models.Property{}, &models.ValidationError{Field: "units", Reason: "must not be negative"}
		}
		merged.Units = *p.Units
	}
	if p.YearBuilt != nil {
		if *p.YearBuilt < 0 {
			return models.Property{}, &models.ValidationError{Field: "yearBuilt", Reason: "must not be negative"}
		}
		merged.YearBuilt = *p.YearBuilt
	}

	financials := []struct {
		name  string
		value *float64
		dest  *float64
	}{
		{"grossPotentialRent", p.Financials.GrossPotentialRent, &merged.Financials.GrossPotentialRent},
		{"otherIncome", p.Financials.OtherIncome, &merged.Financials.OtherIncome},
		{"vacancyRate", p.Financials.VacancyRate, &merged.Financials.VacancyRate},
		{"propertyTax", p.Financials.PropertyTax, &merged.Financials.PropertyTax},
		{"insurance", p.Financials.Insurance, &merged.Financials.Insurance},
		{"utilities", p.Financials.Utilities, &merged.Financials.Utilities},
		{"repairsMaintenance", p.Financials.RepairsMaintenance, &merged.Financials.RepairsMaintenance},
		{"managementFee", p.Financials.ManagementFee, &merged.Financials.ManagementFee},
		{"capitalReserves", p.Financials.CapitalReserves, &merged.Financials.CapitalReserves},
		{"purchasePrice", p.Financials.PurchasePrice, &merged.Financials.PurchasePrice},
		{"closingCosts", p.Financials.ClosingCosts, &merged.Financials.ClosingCosts},
		{"renovationBudget", p.Financials.RenovationBudget, &merged.Financials.RenovationBudget},
	}
	for _, f := range financials {
		if f.value == nil {
			continue
		}
		if err := checkPatchNumber(f.name, *f.value); err != nil {
			return models.Property{}, err
		}
		*f.dest = *f.value
	}

	return merged, nil
}

func checkPatchNumber(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return &models.ValidationError{Field: field, Reason: "must be a finite number"}
	}
	if v < 0 {
		return &models.ValidationError{Field: field, Reason: "must not be negative"}
	}
	return nil
}
