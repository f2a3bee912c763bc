package store

import (
	"log"

	"cre-pipeline/internal/models"
)

// seedPortfolio is the starter collection installed on first run so the
// pipeline pages are not empty before the first import.
func seedPortfolio() []models.Property {
	return []models.Property{
		{
			ID:          "1",
			Address:     "123 Newbury St",
			City:        "Boston",
			State:       "MA",
			Zip:         "02116",
			AssetClass:  models.AssetClassRetail,
			Sqft:        4500,
			Units:       3,
			YearBuilt:   1910,
			Status:      models.StatusUnderwrite,
			History:     []models.StatusHistory{},
			Description: "Prime retail frontage with residential units above. High foot traffic area.",
			ImageURL:    "https://picsum.photos/800/600?random=1",
			Financials: models.DetailedFinancials{
				GrossPotentialRent: 380000,
				OtherIncome:        0,
				VacancyRate:        5,
				PropertyTax:        48000,
				Insurance:          9500,
				Utilities:          18000,
				RepairsMaintenance: 22000,
				ManagementFee:      4,
				CapitalReserves:    5000,
				PurchasePrice:      4500000,
				ClosingCosts:       90000,
				RenovationBudget:   0,
			},
			Loan: models.DefaultLoan(),
			Assumptions: models.UnderwritingAssumptions{
				MarketRentGrowth: 3.0,
				ExpenseGrowth:    2.5,
				ExitCapRate:      5.5,
				HoldPeriodYears:  10,
			},
		},
		{
			ID:          "2",
			Address:     "450 Harrison Ave",
			City:        "Boston",
			State:       "MA",
			Zip:         "02118",
			AssetClass:  models.AssetClassOffice,
			Sqft:        12000,
			Units:       8,
			YearBuilt:   1925,
			Status:      models.StatusDiscover,
			History:     []models.StatusHistory{},
			Description: "Converted warehouse space in SoWa district. Potential for creative office or life science conversion.",
			ImageURL:    "https://picsum.photos/800/600?random=2",
			AIScore:     floatPtr(88),
			AIReasoning: "High appreciation potential due to life science expansion in adjacent neighborhoods.",
			Financials: models.DetailedFinancials{
				GrossPotentialRent: 750000,
				OtherIncome:        0,
				VacancyRate:        10,
				PropertyTax:        92000,
				Insurance:          21000,
				Utilities:          64000,
				RepairsMaintenance: 95000,
				ManagementFee:      3,
				CapitalReserves:    12000,
				PurchasePrice:      8500000,
				ClosingCosts:       170000,
				RenovationBudget:   0,
			},
			Loan: models.DefaultLoan(),
			Assumptions: models.UnderwritingAssumptions{
				MarketRentGrowth: 4.0,
				ExpenseGrowth:    2.0,
				ExitCapRate:      5.0,
				HoldPeriodYears:  7,
			},
		},
	}
}

// Seed installs the starter portfolio when the persisted collection is empty.
// A populated collection is left untouched.
func (s *Store) Seed() error {
	properties, err := s.backend.Load()
	if err != nil {
		return err
	}
	if len(properties) > 0 {
		return nil
	}

	if err := s.backend.Save(seedPortfolio()); err != nil {
		return err
	}
	log.Printf("Store: seeded %d starter properties", len(seedPortfolio()))
	return nil
}

func floatPtr(v float64) *float64 {
	return &v
}
