package store

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cre-pipeline/internal/models"
	"cre-pipeline/internal/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	backend, err := storage.NewFileStore(storage.Options{Dir: t.TempDir()})
	require.NoError(t, err)
	return New(backend)
}

func testProperty(id string, status models.PropertyStatus) models.Property {
	return models.Property{
		ID:         id,
		Address:    "77 Summer St",
		City:       "Boston",
		State:      "MA",
		Zip:        "02110",
		AssetClass: models.AssetClassMultifamily,
		Sqft:       6200,
		Units:      6,
		YearBuilt:  1905,
		Status:     status,
		Financials: models.DetailedFinancials{
			GrossPotentialRent: 180000,
			VacancyRate:        5,
			PropertyTax:        21000,
			ManagementFee:      5,
			PurchasePrice:      2100000,
		},
		Loan:        models.DefaultLoan(),
		Assumptions: models.DefaultAssumptions(),
	}
}

func TestTransition_FullTable(t *testing.T) {
	allowed := map[models.PropertyStatus][]models.PropertyStatus{
		models.StatusDiscover:   {models.StatusUnderwrite, models.StatusPassed},
		models.StatusUnderwrite: {models.StatusManage, models.StatusPassed, models.StatusDiscover},
		models.StatusManage:     {models.StatusDisposed, models.StatusUnderwrite},
		models.StatusPassed:     {},
		models.StatusDisposed:   {},
	}

	isAllowed := func(from, to models.PropertyStatus) bool {
		for _, a := range allowed[from] {
			if a == to {
				return true
			}
		}
		return false
	}

	for _, from := range models.AllStatuses() {
		for _, to := range models.AllStatuses() {
			s := newTestStore(t)
			// Insert keeps the given status, so this sets up the from-state
			_, err := s.Save(testProperty("p1", from))
			require.NoError(t, err)

			result, err := s.Transition("p1", to, "")

			if isAllowed(from, to) {
				require.NoError(t, err, "%s -> %s should be allowed", from, to)
				assert.Equal(t, to, result.Status)
				require.Len(t, result.History, 1)
				assert.Equal(t, from, result.History[0].Status, "history records the pre-transition status")
				assert.Equal(t, "Moved to "+string(to), result.History[0].Note)

				stored, err := s.GetByID("p1")
				require.NoError(t, err)
				assert.Equal(t, to, stored.Status)
			} else {
				var invalid *InvalidTransitionError
				require.ErrorAs(t, err, &invalid, "%s -> %s should be rejected", from, to)
				assert.Equal(t, from, invalid.From)
				assert.Equal(t, to, invalid.To)

				stored, err := s.GetByID("p1")
				require.NoError(t, err)
				assert.Equal(t, from, stored.Status, "rejected transition must not change status")
				assert.Empty(t, stored.History)
			}
		}
	}
}

func TestTransition_CustomNotePersisted(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Save(testProperty("p1", models.StatusUnderwrite))
	require.NoError(t, err)

	result, err := s.Transition("p1", models.StatusPassed, "Passed during Underwriting")
	require.NoError(t, err)
	require.Len(t, result.History, 1)
	assert.Equal(t, "Passed during Underwriting", result.History[0].Note)
	assert.False(t, result.History[0].Date.IsZero())
}

func TestTransition_NotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Transition("missing", models.StatusUnderwrite, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSave_PreservesStatusAndHistoryOnUpdate(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Save(testProperty("p1", models.StatusDiscover))
	require.NoError(t, err)
	_, err = s.Transition("p1", models.StatusUnderwrite, "Promoted")
	require.NoError(t, err)
	_, err = s.Transition("p1", models.StatusDiscover, "Reverted")
	require.NoError(t, err)
	_, err = s.Transition("p1", models.StatusUnderwrite, "Promoted again")
	require.NoError(t, err)

	stored, err := s.GetByID("p1")
	require.NoError(t, err)
	require.Equal(t, models.StatusUnderwrite, stored.Status)
	require.Len(t, stored.History, 3)

	// Direct save claims MANAGE and edits a financial field
	payload := stored
	payload.Status = models.StatusManage
	payload.History = nil
	payload.Financials.GrossPotentialRent = 200000

	saved, err := s.Save(payload)
	require.NoError(t, err)

	assert.Equal(t, models.StatusUnderwrite, saved.Status, "save must not change status")
	assert.Len(t, saved.History, 3, "save must not shrink history")
	assert.Equal(t, float64(200000), saved.Financials.GrossPotentialRent)

	stored, err = s.GetByID("p1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnderwrite, stored.Status)
	assert.Len(t, stored.History, 3)
	assert.Equal(t, float64(200000), stored.Financials.GrossPotentialRent)
}

func TestSave_InsertAssignsIDAndDefaultStatus(t *testing.T) {
	s := newTestStore(t)

	p := testProperty("", "")
	saved, err := s.Save(p)
	require.NoError(t, err)

	assert.NotEmpty(t, saved.ID)
	assert.Equal(t, models.StatusDiscover, saved.Status)
}

func TestSave_RejectsInvalidFinancialsBeforeWrite(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Save(testProperty("p1", models.StatusDiscover))
	require.NoError(t, err)

	bad := testProperty("p1", models.StatusDiscover)
	bad.Financials.PurchasePrice = math.NaN()
	_, err = s.Save(bad)

	var validation *models.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "purchasePrice", validation.Field)

	// Stored record untouched
	stored, err := s.GetByID("p1")
	require.NoError(t, err)
	assert.Equal(t, float64(2100000), stored.Financials.PurchasePrice)

	bad.Financials.PurchasePrice = -1
	_, err = s.Save(bad)
	require.ErrorAs(t, err, &validation)

	bad.Financials.PurchasePrice = 2100000
	bad.Financials.VacancyRate = 120
	_, err = s.Save(bad)
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "vacancyRate", validation.Field)
}

func TestSave_RejectsInvalidLoanTerms(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Save(testProperty("p1", models.StatusDiscover))
	require.NoError(t, err)

	var validation *models.ValidationError

	bad := testProperty("p1", models.StatusDiscover)
	bad.Loan.LTV = 130
	_, err = s.Save(bad)
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "ltv", validation.Field)

	bad = testProperty("p1", models.StatusDiscover)
	bad.Loan.InterestRate = math.Inf(1)
	_, err = s.Save(bad)
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "interestRate", validation.Field)

	bad = testProperty("p1", models.StatusDiscover)
	bad.Loan.InterestRate = -0.5
	_, err = s.Save(bad)
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "interestRate", validation.Field)

	bad = testProperty("p1", models.StatusDiscover)
	bad.Loan.AmortizationYears = -30
	_, err = s.Save(bad)
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "amortizationYears", validation.Field)

	// Stored record untouched throughout
	stored, err := s.GetByID("p1")
	require.NoError(t, err)
	assert.Equal(t, models.DefaultLoan(), stored.Loan)
}

func TestList_HiddenFilteringPreservesInsertionOrder(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Save(testProperty("a", models.StatusDiscover))
	require.NoError(t, err)
	_, err = s.Save(testProperty("b", models.StatusPassed))
	require.NoError(t, err)
	_, err = s.Save(testProperty("c", models.StatusManage))
	require.NoError(t, err)
	_, err = s.Save(testProperty("d", models.StatusDisposed))
	require.NoError(t, err)

	visible, err := s.List(false)
	require.NoError(t, err)
	require.Len(t, visible, 2)
	assert.Equal(t, "a", visible[0].ID)
	assert.Equal(t, "c", visible[1].ID)

	all, err := s.List(true)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, []string{"a", "b", "c", "d"}, []string{all[0].ID, all[1].ID, all[2].ID, all[3].ID})
}

func TestHardDelete(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Save(testProperty("p1", models.StatusDiscover))
	require.NoError(t, err)
	_, err = s.Save(testProperty("p2", models.StatusManage))
	require.NoError(t, err)

	require.NoError(t, s.HardDelete("p1"))

	_, err = s.GetByID("p1")
	assert.ErrorIs(t, err, ErrNotFound)

	remaining, err := s.List(true)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "p2", remaining[0].ID)

	assert.ErrorIs(t, s.HardDelete("p1"), ErrNotFound)
}

func TestGetByID_NotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetByID("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStats_CountsPerStage(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Save(testProperty("a", models.StatusDiscover))
	require.NoError(t, err)
	_, err = s.Save(testProperty("b", models.StatusDiscover))
	require.NoError(t, err)
	_, err = s.Save(testProperty("c", models.StatusManage))
	require.NoError(t, err)

	stats, err := s.Stats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats[models.StatusDiscover])
	assert.Equal(t, 0, stats[models.StatusUnderwrite])
	assert.Equal(t, 1, stats[models.StatusManage])
}

func TestSeed_OnlyWhenEmpty(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Seed())
	seeded, err := s.List(true)
	require.NoError(t, err)
	require.Len(t, seeded, 2)

	// Seeding again, or after edits, leaves the collection alone
	require.NoError(t, s.HardDelete(seeded[0].ID))
	require.NoError(t, s.Seed())

	after, err := s.List(true)
	require.NoError(t, err)
	assert.Len(t, after, 1)
}
