// Package enrich wraps the Gemini generateContent API for property data
// estimation and narrative analysis. Responses are opaque to the core: the
// narrative text is stored verbatim, and the structured estimate is validated
// and reduced to an explicit Patch before it can touch a record.
package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"time"

	"cre-pipeline/internal/models"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// ErrAPIKeyMissing reports that no model API key is configured
var ErrAPIKeyMissing = errors.New("enrichment API key missing")

// Client calls the generateContent endpoint
type Client struct {
	baseURL         string
	apiKey          string
	generationModel string
	reasoningModel  string
	httpClient      *http.Client
	breaker         *CircuitBreaker
}

// ClientConfig configures the enrichment client
type ClientConfig struct {
	APIKey          string
	GenerationModel string
	ReasoningModel  string
	Timeout         time.Duration
	// BaseURL overrides the API endpoint (used in tests)
	BaseURL string
}

// NewClient creates an enrichment client
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL:         baseURL,
		apiKey:          cfg.APIKey,
		generationModel: cfg.GenerationModel,
		reasoningModel:  cfg.ReasoningModel,
		httpClient:      &http.Client{Timeout: timeout},
		breaker:         NewCircuitBreaker(2, 10*time.Minute),
	}
}

// generateContent request/response wire shapes (only the parts used)
type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	ResponseMimeType string `json:"responseMimeType,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func (c *Client) generate(ctx context.Context, model, prompt string, jsonResponse bool) (string, error) {
	if c.apiKey == "" {
		return "", ErrAPIKeyMissing
	}
	if !c.breaker.CanProceed() {
		return "", fmt.Errorf("enrichment temporarily halted")
	}

	reqBody := generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	}
	if jsonResponse {
		reqBody.GenerationConfig = &generationConfig{ResponseMimeType: "application/json"}
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.breaker.RecordFailure(0)
		return "", fmt.Errorf("enrichment request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.breaker.RecordFailure(0)
		return "", fmt.Errorf("enrichment response read failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		c.breaker.RecordFailure(resp.StatusCode)
		return "", fmt.Errorf("enrichment request returned %d", resp.StatusCode)
	}
	c.breaker.RecordSuccess()

	var parsed generateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("enrichment response parse failed: %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("enrichment response empty")
	}
	return parsed.Candidates[0].Content.Parts[0].Text, nil
}

// propertyEstimate is the structured shape requested from the model
type propertyEstimate struct {
	City                string  `json:"city"`
	Zip                 string  `json:"zip"`
	Sqft                float64 `json:"sqft"`
	Units               int     `json:"units"`
	YearBuilt           int     `json:"yearBuilt"`
	Description         string  `json:"description"`
	EstimatedMarketRent float64 `json:"estimatedMarketRent"`
	EstimatedValue      float64 `json:"estimatedValue"`
}

// EnrichProperty asks the model to estimate descriptive and financial fields
// for an address. Call failures degrade to an empty patch so draft creation is
// never blocked; only a missing API key is surfaced.
func (c *Client) EnrichProperty(ctx context.Context, address string) (Patch, error) {
	prompt := fmt.Sprintf(`I am a real estate investor looking at a property at: %s.
Act as a real estate data analyst.
Estimate the following details for this property based on typical characteristics for this location in Massachusetts.
Respond with a JSON object containing: city, zip, sqft, units, yearBuilt, description, estimatedMarketRent (annual gross rent), estimatedValue (market value).
Return JSON only.`, address)

	text, err := c.generate(ctx, c.generationModel, prompt, true)
	if err != nil {
		if errors.Is(err, ErrAPIKeyMissing) {
			return Patch{}, err
		}
		log.Printf("Enrich: property estimate failed, using empty patch: %v", err)
		return Patch{}, nil
	}

	var est propertyEstimate
	if err := json.Unmarshal([]byte(text), &est); err != nil {
		log.Printf("Enrich: model returned unparsable estimate, using empty patch: %v", err)
		return Patch{}, nil
	}

	return buildPatch(address, est), nil
}

// buildPatch converts a model estimate into a Patch with default financial
// placeholders where the model gave nothing usable
func buildPatch(address string, est propertyEstimate) Patch {
	value := est.EstimatedValue
	if !isUsable(value) {
		value = 1000000
	}
	rent := est.EstimatedMarketRent
	if !isUsable(rent) {
		rent = 100000
	}
	sqft := est.Sqft
	if !isUsable(sqft) {
		sqft = 5000
	}

	state := "MA"
	patch := Patch{
		Address: &address,
		State:   &state,
		Financials: FinancialsPatch{
			PurchasePrice:      floatPtr(value),
			GrossPotentialRent: floatPtr(rent),
			VacancyRate:        floatPtr(5),
			PropertyTax:        floatPtr(math.Round(value * 0.012)),
			Insurance:          floatPtr(math.Round(rent * 0.05)),
			Utilities:          floatPtr(math.Round(rent * 0.10)),
			RepairsMaintenance: floatPtr(math.Round(rent * 0.15)),
			ManagementFee:      floatPtr(5),
			CapitalReserves:    floatPtr(math.Round(sqft * 0.50)),
			ClosingCosts:       floatPtr(math.Round(value * 0.02)),
		},
	}
	if est.City != "" {
		patch.City = &est.City
	}
	if est.Zip != "" {
		patch.Zip = &est.Zip
	}
	if est.Description != "" {
		patch.Description = &est.Description
	}
	if isUsable(est.Sqft) {
		patch.Sqft = floatPtr(est.Sqft)
	}
	if est.Units > 0 {
		patch.Units = &est.Units
	}
	if est.YearBuilt > 0 {
		patch.YearBuilt = &est.YearBuilt
	}
	return patch
}

func isUsable(v float64) bool {
	return v > 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}

func floatPtr(v float64) *float64 {
	return &v
}

// GenerateValueAddPlan asks the reasoning model for value-unlock strategies.
// The returned markdown is opaque to the core.
func (c *Client) GenerateValueAddPlan(ctx context.Context, p models.Property) (string, error) {
	contextJSON, _ := json.Marshal(map[string]interface{}{
		"address":    p.Address,
		"type":       p.AssetClass,
		"sqft":       p.Sqft,
		"year":       p.YearBuilt,
		"financials": p.Financials,
	})

	prompt := fmt.Sprintf(`You are a world-class CRE underwriter. Analyze this property in Massachusetts.
Property Context: %s

Identify 3 distinct "Value Unlock" strategies (Strategic, Operational, Financial).
Focus on long-term hold and cash yield on unlevered cost.
Be specific to Massachusetts market trends (e.g., biotech demand, student housing, historic tax credits, ADU laws).

Format the output as Markdown.`, contextJSON)

	return c.generate(ctx, c.reasoningModel, prompt, false)
}

// AnalyzeManagementTrends asks the model for a market and operations briefing
// on an owned property. The returned text is opaque to the core.
func (c *Client) AnalyzeManagementTrends(ctx context.Context, p models.Property) (string, error) {
	prompt := fmt.Sprintf(`The user owns this property: %s (%s).
Act as a property manager and strategist.
Provide a brief update on:
1. Current market rent trends in this specific MA submarket.
2. Any new Tenant Laws in MA that might affect management.
3. One operational tip to reduce expense ratio.`, p.Address, p.AssetClass)

	return c.generate(ctx, c.generationModel, prompt, false)
}
