package models

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// AssetClass categorizes a property by its primary use
type AssetClass string

const (
	AssetClassMultifamily AssetClass = "Multifamily"
	AssetClassOffice      AssetClass = "Office"
	AssetClassRetail      AssetClass = "Retail"
	AssetClassIndustrial  AssetClass = "Industrial"
	AssetClassMixedUse    AssetClass = "Mixed Use"
	AssetClassOther       AssetClass = "Other"
)

// DetailedFinancials holds the editable financial inputs of a property.
// Monetary fields are annual amounts; VacancyRate and ManagementFee are
// percentages of gross rent and EGI respectively.
type DetailedFinancials struct {
	// Income
	GrossPotentialRent float64 `json:"grossPotentialRent"`
	OtherIncome        float64 `json:"otherIncome"`
	VacancyRate        float64 `json:"vacancyRate"`

	// Expenses
	PropertyTax        float64 `json:"propertyTax"`
	Insurance          float64 `json:"insurance"`
	Utilities          float64 `json:"utilities"`
	RepairsMaintenance float64 `json:"repairsMaintenance"`
	ManagementFee      float64 `json:"managementFee"`
	CapitalReserves    float64 `json:"capitalReserves"`

	// Acquisition
	PurchasePrice    float64 `json:"purchasePrice"`
	ClosingCosts     float64 `json:"closingCosts"`
	RenovationBudget float64 `json:"renovationBudget"`
}

// LoanAssumptions captures financing terms. They are stored and returned as
// entered; no amortization schedule is derived from them.
type LoanAssumptions struct {
	LTV               float64 `json:"ltv"`
	InterestRate      float64 `json:"interestRate"`
	AmortizationYears int     `json:"amortizationYears"`
}

// UnderwritingAssumptions drive the multi-year projection
type UnderwritingAssumptions struct {
	MarketRentGrowth float64 `json:"marketRentGrowth"`
	ExpenseGrowth    float64 `json:"expenseGrowth"`
	ExitCapRate      float64 `json:"exitCapRate"`
	HoldPeriodYears  int     `json:"holdPeriodYears"`
}

// StatusHistory is one entry of a property's pipeline audit trail. Status is
// the stage the property was in when the entry was appended, i.e. the
// pre-transition value.
type StatusHistory struct {
	Status PropertyStatus `json:"status"`
	Date   time.Time      `json:"date"`
	Note   string         `json:"note,omitempty"`
}

// Property is the unit of work tracked through the acquisition pipeline
type Property struct {
	ID         string     `json:"id"`
	Address    string     `json:"address"`
	City       string     `json:"city"`
	State      string     `json:"state"`
	Zip        string     `json:"zip"`
	AssetClass AssetClass `json:"assetClass"`
	Sqft       float64    `json:"sqft"`
	Units      int        `json:"units"`
	YearBuilt  int        `json:"yearBuilt"`
	ImageURL   string     `json:"imageUrl,omitempty"`
	Zoning     string     `json:"zoning,omitempty"`
	Style      string     `json:"style,omitempty"`
	UseCode    string     `json:"useCode,omitempty"`

	LastSaleDate       string   `json:"lastSaleDate,omitempty"`
	LastSalePrice      *float64 `json:"lastSalePrice,omitempty"`
	BuildingType       string   `json:"buildingType,omitempty"`
	StreetViewImageURL string   `json:"streetViewImageUrl,omitempty"`

	Status  PropertyStatus  `json:"status"`
	History []StatusHistory `json:"history"`

	Description string `json:"description"`

	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`

	// AI annotations are opaque to the core: stored and returned unchanged,
	// never parsed or validated beyond basic numeric sanity.
	AIScore      *float64 `json:"aiScore,omitempty"`
	AIReasoning  string   `json:"aiReasoning,omitempty"`
	AIValuePlan  string   `json:"aiValuePlan,omitempty"`
	AIRisks      string   `json:"aiRisks,omitempty"`
	LastAIUpdate string   `json:"lastAiUpdate,omitempty"`

	Financials  DetailedFinancials      `json:"financials"`
	Loan        LoanAssumptions         `json:"loan"`
	Assumptions UnderwritingAssumptions `json:"assumptions"`
}

// NewID generates a stable unique property identifier
func NewID() string {
	return uuid.NewString()
}

// DefaultLoan returns the loan terms applied to new records
func DefaultLoan() LoanAssumptions {
	return LoanAssumptions{
		LTV:               75,
		InterestRate:      6.5,
		AmortizationYears: 30,
	}
}

// DefaultAssumptions returns the underwriting assumptions applied to new records
func DefaultAssumptions() UnderwritingAssumptions {
	return UnderwritingAssumptions{
		MarketRentGrowth: 3,
		ExpenseGrowth:    2.5,
		ExitCapRate:      6.0,
		HoldPeriodYears:  5,
	}
}

// ValidationError reports a rejected financial or assumption field. Edits
// failing validation are refused before any write is attempted.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid value for " + e.Field + ": " + e.Reason
}

func checkFinite(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return &ValidationError{Field: field, Reason: "must be a finite number"}
	}
	return nil
}

func checkNonNegative(field string, v float64) error {
	if err := checkFinite(field, v); err != nil {
		return err
	}
	if v < 0 {
		return &ValidationError{Field: field, Reason: "must not be negative"}
	}
	return nil
}

func checkPercent(field string, v float64) error {
	if err := checkFinite(field, v); err != nil {
		return err
	}
	if v < 0 || v > 100 {
		return &ValidationError{Field: field, Reason: "must be between 0 and 100"}
	}
	return nil
}

// Validate enforces the invariants on financial inputs: all monetary fields
// finite and non-negative, vacancy and management fee percentages in [0,100].
func (f *DetailedFinancials) Validate() error {
	monetary := []struct {
		name  string
		value float64
	}{
		{"grossPotentialRent", f.GrossPotentialRent},
		{"otherIncome", f.OtherIncome},
		{"propertyTax", f.PropertyTax},
		{"insurance", f.Insurance},
		{"utilities", f.Utilities},
		{"repairsMaintenance", f.RepairsMaintenance},
		{"capitalReserves", f.CapitalReserves},
		{"purchasePrice", f.PurchasePrice},
		{"closingCosts", f.ClosingCosts},
		{"renovationBudget", f.RenovationBudget},
	}
	for _, m := range monetary {
		if err := checkNonNegative(m.name, m.value); err != nil {
			return err
		}
	}
	if err := checkPercent("vacancyRate", f.VacancyRate); err != nil {
		return err
	}
	if err := checkPercent("managementFee", f.ManagementFee); err != nil {
		return err
	}
	return nil
}

// Validate enforces the invariants on financing terms: LTV is a percentage,
// the rate finite and non-negative, the amortization term non-negative.
func (l *LoanAssumptions) Validate() error {
	if err := checkPercent("ltv", l.LTV); err != nil {
		return err
	}
	if err := checkNonNegative("interestRate", l.InterestRate); err != nil {
		return err
	}
	if l.AmortizationYears < 0 {
		return &ValidationError{Field: "amortizationYears", Reason: "must not be negative"}
	}
	return nil
}

// Validate enforces the invariants on growth assumptions. Growth rates may be
// negative (declining markets) but must be finite.
func (a *UnderwritingAssumptions) Validate() error {
	if err := checkFinite("marketRentGrowth", a.MarketRentGrowth); err != nil {
		return err
	}
	if err := checkFinite("expenseGrowth", a.ExpenseGrowth); err != nil {
		return err
	}
	if err := checkNonNegative("exitCapRate", a.ExitCapRate); err != nil {
		return err
	}
	if a.HoldPeriodYears < 1 {
		return &ValidationError{Field: "holdPeriodYears", Reason: "must be at least 1"}
	}
	return nil
}

// Validate checks the full record at the edit boundary
func (p *Property) Validate() error {
	if err := p.Financials.Validate(); err != nil {
		return err
	}
	if err := p.Assumptions.Validate(); err != nil {
		return err
	}
	if err := p.Loan.Validate(); err != nil {
		return err
	}
	if p.AIScore != nil {
		if err := checkFinite("aiScore", *p.AIScore); err != nil {
			return err
		}
	}
	if p.Status != "" && !p.Status.Valid() {
		return &ValidationError{Field: "status", Reason: "unknown pipeline status"}
	}
	return nil
}
