// Package parcels wraps the public MassGIS Level 3 parcel FeatureServer and
// maps its raw assessment records onto pipeline properties.
package parcels

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"cre-pipeline/internal/ratelimit"
)

// Attributes is the raw assessment record shape returned by the layer
type Attributes struct {
	SiteAddr  string  `json:"SITE_ADDR"`
	City      string  `json:"CITY"`
	Zip       string  `json:"ZIP"`
	UseCode   string  `json:"USE_CODE"`
	BldArea   float64 `json:"BLD_AREA"`
	ResArea   float64 `json:"RES_AREA"`
	Units     int     `json:"UNITS"`
	YearBuilt int     `json:"YEAR_BUILT"`
	TotalVal  float64 `json:"TOTAL_VAL"`
	Style     string  `json:"STYLE"`
	Zoning    string  `json:"ZONING"`
	LotSize   float64 `json:"LOT_SIZE"`
	Owner1    string  `json:"OWNER1"`
}

// Feature is one parcel hit with optional centroid geometry
type Feature struct {
	Attributes Attributes `json:"attributes"`
	Geometry   *Geometry  `json:"geometry,omitempty"`
}

// Geometry is a parcel centroid in the layer's spatial reference
type Geometry struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

const outFields = "SITE_ADDR,CITY,ZIP,USE_CODE,BLD_AREA,RES_AREA,UNITS,YEAR_BUILT,TOTAL_VAL,STYLE,ZONING,LOT_SIZE,OWNER1"

// ErrRateLimited reports that the outbound limiter refused the request
var ErrRateLimited = fmt.Errorf("parcel lookup rate limit exceeded")

// Client queries the parcel layer
type Client struct {
	layerURL   string
	httpClient *http.Client
	limiter    *ratelimit.Limiter
}

// NewClient creates a parcel lookup client. The limiter may be nil to disable
// outbound rate limiting.
func NewClient(layerURL string, timeout time.Duration, limiter *ratelimit.Limiter) *Client {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		layerURL:   layerURL,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    limiter,
	}
}

var unsafeQueryChars = regexp.MustCompile(`[^\w\s]`)

// SearchByAddress finds up to 10 parcels whose site address contains the query
func (c *Client) SearchByAddress(ctx context.Context, query string) ([]Feature, error) {
	safe := strings.ToUpper(unsafeQueryChars.ReplaceAllString(query, ""))
	where := fmt.Sprintf("SITE_ADDR LIKE '%%%s%%'", safe)
	return c.query(ctx, where, 10)
}

// QueryByCriteria finds up to 20 parcels in a city, optionally restricted to
// a set of use codes
func (c *Client) QueryByCriteria(ctx context.Context, city string, useCodes []string) ([]Feature, error) {
	where := fmt.Sprintf("CITY = '%s'", strings.ToUpper(city))
	if len(useCodes) > 0 {
		quoted := make([]string, len(useCodes))
		for i, code := range useCodes {
			quoted[i] = "'" + code + "'"
		}
		where += fmt.Sprintf(" AND USE_CODE IN (%s)", strings.Join(quoted, ","))
	}
	return c.query(ctx, where, 20)
}

// arcgisResponse is the layer's query envelope
type arcgisResponse struct {
	Features []Feature `json:"features"`
	Error    *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) query(ctx context.Context, where string, limit int) ([]Feature, error) {
	if c.limiter != nil && !c.limiter.Allow() {
		return nil, ErrRateLimited
	}

	params := url.Values{
		"f":                 {"json"},
		"where":             {where},
		"outFields":         {outFields},
		"returnGeometry":    {"false"},
		"resultRecordCount": {fmt.Sprintf("%d", limit)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.layerURL+"/query?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("parcel query failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parcel response read failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("parcel query returned %d", resp.StatusCode)
	}

	var parsed arcgisResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parcel response parse failed: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("parcel layer error %d: %s", parsed.Error.Code, parsed.Error.Message)
	}
	if parsed.Features == nil {
		return []Feature{}, nil
	}
	return parsed.Features, nil
}
