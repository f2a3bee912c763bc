package enrich

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cre-pipeline/internal/models"
)

func strPtr(s string) *string { return &s }

func TestMerge_AppliesOnlySetFields(t *testing.T) {
	base := models.Property{
		ID:      "p1",
		Address: "old address",
		City:    "Boston",
		Status:  models.StatusUnderwrite,
		History: []models.StatusHistory{{Status: models.StatusDiscover}},
		Financials: models.DetailedFinancials{
			GrossPotentialRent: 100000,
			PurchasePrice:      1000000,
		},
	}

	patch := Patch{
		City: strPtr("Cambridge"),
		Sqft: floatPtr(7200),
		Financials: FinancialsPatch{
			GrossPotentialRent: floatPtr(150000),
		},
	}

	merged, err := Merge(base, patch)
	require.NoError(t, err)

	assert.Equal(t, "Cambridge", merged.City)
	assert.Equal(t, float64(7200), merged.Sqft)
	assert.Equal(t, float64(150000), merged.Financials.GrossPotentialRent)

	// Unset fields stay as they were
	assert.Equal(t, "old address", merged.Address)
	assert.Equal(t, float64(1000000), merged.Financials.PurchasePrice)

	// Identity and lifecycle are never patched
	assert.Equal(t, "p1", merged.ID)
	assert.Equal(t, models.StatusUnderwrite, merged.Status)
	assert.Len(t, merged.History, 1)
}

func TestMerge_RejectsNonFiniteAndNegativeNumbers(t *testing.T) {
	base := models.Property{ID: "p1"}

	for name, patch := range map[string]Patch{
		"NaN rent":       {Financials: FinancialsPatch{GrossPotentialRent: floatPtr(math.NaN())}},
		"Inf price":      {Financials: FinancialsPatch{PurchasePrice: floatPtr(math.Inf(1))}},
		"negative tax":   {Financials: FinancialsPatch{PropertyTax: floatPtr(-10)}},
		"negative sqft":  {Sqft: floatPtr(-1)},
		"negative units": {Units: intPtr(-2)},
	} {
		_, err := Merge(base, patch)
		var validation *models.ValidationError
		assert.ErrorAs(t, err, &validation, name)
	}
}

func intPtr(v int) *int { return &v }

func TestPatch_IsEmpty(t *testing.T) {
	assert.True(t, Patch{}.IsEmpty())
	assert.False(t, Patch{City: strPtr("Boston")}.IsEmpty())
	assert.False(t, Patch{Financials: FinancialsPatch{VacancyRate: floatPtr(5)}}.IsEmpty())
}

func newModelServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := NewClient(ClientConfig{
		APIKey:          "test-key",
		GenerationModel: "gen-model",
		ReasoningModel:  "reason-model",
		BaseURL:         server.URL,
	})
	return server, client
}

func modelResponse(text string) string {
	response := map[string]interface{}{
		"candidates": []map[string]interface{}{
			{"content": map[string]interface{}{"parts": []map[string]string{{"text": text}}}},
		},
	}
	encoded, _ := json.Marshal(response)
	return string(encoded)
}

func TestEnrichProperty_BuildsPatchFromEstimate(t *testing.T) {
	estimate := `{"city":"Somerville","zip":"02143","sqft":6000,"units":6,"yearBuilt":1920,
		"description":"Six-unit brick walk-up","estimatedMarketRent":180000,"estimatedValue":2000000}`
	_, client := newModelServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gen-model:generateContent", r.URL.Path)
		w.Write([]byte(modelResponse(estimate)))
	})

	patch, err := client.EnrichProperty(context.Background(), "12 Highland Ave")
	require.NoError(t, err)
	require.False(t, patch.IsEmpty())

	assert.Equal(t, "12 Highland Ave", *patch.Address)
	assert.Equal(t, "MA", *patch.State)
	assert.Equal(t, "Somerville", *patch.City)
	assert.Equal(t, 6, *patch.Units)
	assert.Equal(t, float64(2000000), *patch.Financials.PurchasePrice)
	assert.Equal(t, float64(180000), *patch.Financials.GrossPotentialRent)
	// Placeholders scaled from the estimate: 1.2% tax, 2% closing, $0.50/sqft
	assert.Equal(t, float64(24000), *patch.Financials.PropertyTax)
	assert.Equal(t, float64(40000), *patch.Financials.ClosingCosts)
	assert.Equal(t, float64(3000), *patch.Financials.CapitalReserves)
}

func TestEnrichProperty_DefaultsWhenEstimateIsSparse(t *testing.T) {
	_, client := newModelServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(modelResponse(`{"city":"Boston"}`)))
	})

	patch, err := client.EnrichProperty(context.Background(), "1 Main St")
	require.NoError(t, err)
	assert.Equal(t, float64(1000000), *patch.Financials.PurchasePrice)
	assert.Equal(t, float64(100000), *patch.Financials.GrossPotentialRent)
	assert.Nil(t, patch.Sqft)
	assert.Nil(t, patch.Units)
}

func TestEnrichProperty_DegradesToEmptyPatchOnServerError(t *testing.T) {
	_, client := newModelServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	patch, err := client.EnrichProperty(context.Background(), "1 Main St")
	require.NoError(t, err)
	assert.True(t, patch.IsEmpty())
}

func TestEnrichProperty_MissingAPIKey(t *testing.T) {
	client := NewClient(ClientConfig{GenerationModel: "gen-model"})
	_, err := client.EnrichProperty(context.Background(), "1 Main St")
	assert.ErrorIs(t, err, ErrAPIKeyMissing)
}

func TestGenerateValueAddPlan_ReturnsNarrativeVerbatim(t *testing.T) {
	narrative := "## Value Unlock\n1. Convert ground floor to lab space."
	_, client := newModelServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/reason-model:generateContent", r.URL.Path)
		w.Write([]byte(modelResponse(narrative)))
	})

	plan, err := client.GenerateValueAddPlan(context.Background(), models.Property{Address: "1 Main St"})
	require.NoError(t, err)
	assert.Equal(t, narrative, plan)
}

func TestCircuitBreaker_OpensOnConsecutiveFailuresAndRecovers(t *testing.T) {
	cb := NewCircuitBreaker(2, 50*time.Millisecond)

	assert.True(t, cb.CanProceed())
	cb.RecordFailure(429)
	assert.True(t, cb.CanProceed())
	cb.RecordFailure(429)
	assert.False(t, cb.CanProceed())

	time.Sleep(60 * time.Millisecond)
	assert.True(t, cb.CanProceed(), "breaker half-opens after the reset timeout")

	cb.RecordFailure(500)
	cb.RecordSuccess()
	cb.RecordFailure(500)
	assert.True(t, cb.CanProceed(), "success resets the consecutive counter")
}
