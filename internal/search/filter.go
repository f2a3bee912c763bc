package search

import (
	"fmt"
	"strings"

	"github.com/meilisearch/meilisearch-go"

	"cre-pipeline/internal/models"
)

type FilterParams struct {
	Query        string
	AssetClasses []string
	Statuses     []string
	City         string
	MinUnits     *int
	MaxUnits     *int
	MinSqft      *float64
	SortBy       string
	Limit        int64
}

// FilterSearch performs advanced search with filters
func (s *SearchClient) FilterSearch(params FilterParams) ([]models.Property, error) {
	var filters []string

	// Asset class filter
	if len(params.AssetClasses) > 0 {
		classFilters := make([]string, len(params.AssetClasses))
		for i, class := range params.AssetClasses {
			classFilters[i] = fmt.Sprintf("assetClass = '%s'", class)
		}
		filters = append(filters, fmt.Sprintf("(%s)", strings.Join(classFilters, " OR ")))
	}

	// Status filter
	if len(params.Statuses) > 0 {
		statusFilters := make([]string, len(params.Statuses))
		for i, status := range params.Statuses {
			statusFilters[i] = fmt.Sprintf("status = '%s'", status)
		}
		filters = append(filters, fmt.Sprintf("(%s)", strings.Join(statusFilters, " OR ")))
	}

	// City filter
	if params.City != "" {
		filters = append(filters, fmt.Sprintf("city = '%s'", params.City))
	}

	// Unit count range filter
	if params.MinUnits != nil {
		filters = append(filters, fmt.Sprintf("units >= %d", *params.MinUnits))
	}
	if params.MaxUnits != nil {
		filters = append(filters, fmt.Sprintf("units <= %d", *params.MaxUnits))
	}

	// Building size filter
	if params.MinSqft != nil {
		filters = append(filters, fmt.Sprintf("sqft >= %g", *params.MinSqft))
	}

	// Combine filters
	var filterStr string
	if len(filters) > 0 {
		filterStr = strings.Join(filters, " AND ")
	}

	// Determine sort order
	var sort []string
	if params.SortBy != "" {
		sort = []string{params.SortBy}
	}

	// Default limit
	if params.Limit == 0 {
		params.Limit = 20
	}

	searchReq := &meilisearch.SearchRequest{
		Limit: params.Limit,
	}

	if filterStr != "" {
		searchReq.Filter = filterStr
	}

	if len(sort) > 0 {
		searchReq.Sort = sort
	}

	searchRes, err := s.client.Index(s.index).Search(params.Query, searchReq)
	if err != nil {
		return nil, err
	}

	return parseHits(searchRes.Hits), nil
}
