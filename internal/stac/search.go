package stac

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
)

// SearchRequest represents a catalog search. Identifier search (IDs) is
// mutually exclusive with and takes precedence over every other filter.
type SearchRequest struct {
	// Collection scope (one or more collection ids)
	Collections []string `json:"collections,omitempty"`

	// Spatial filter: [minLon, minLat, maxLon, maxLat]
	BBox []float64 `json:"bbox,omitempty"`

	// Temporal filter: a single instant, or "start/end"
	Time string `json:"time,omitempty"`

	// Explicit scene identifiers
	IDs []string `json:"ids,omitempty"`

	// Attribute query (POST only): field -> operator -> value
	Query map[string]map[string]any `json:"query,omitempty"`

	// Pagination: 1-indexed page, page size
	Page  int `json:"page,omitempty"`
	Limit int `json:"limit,omitempty"`
}

// MultiCollection reports whether the request spans more than one collection.
func (req *SearchRequest) MultiCollection() bool {
	return len(req.Collections) > 1
}

// ParseSearchRequest parses a search request from GET query parameters.
func ParseSearchRequest(r *http.Request) (*SearchRequest, error) {
	query := r.URL.Query()
	req := &SearchRequest{Page: 1}

	// Parse bbox parameter (comma-joined floats)
	if bboxStr := query.Get("bbox"); bboxStr != "" {
		bbox, err := ParseBBox(bboxStr)
		if err != nil {
			return nil, err
		}
		req.BBox = bbox
	}

	if t := query.Get("time"); t != "" {
		req.Time = t
	}

	// Parse ids parameter (comma-separated list)
	if ids := query.Get("ids"); ids != "" {
		req.IDs = splitList(ids)
	}

	// Parse collections parameter (comma-separated list)
	if collections := query.Get("collections"); collections != "" {
		req.Collections = splitList(collections)
	}

	// Parse page parameter
	if pageStr := query.Get("page"); pageStr != "" {
		page, err := strconv.Atoi(pageStr)
		if err != nil {
			return nil, fmt.Errorf("invalid page parameter: %w", err)
		}
		req.Page = page
	}

	// Parse limit parameter
	if limitStr := query.Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			return nil, fmt.Errorf("invalid limit parameter: %w", err)
		}
		if limit < 0 {
			return nil, fmt.Errorf("limit must be non-negative, got %d", limit)
		}
		req.Limit = limit
	}

	return req, nil
}

// ParseSearchRequestBody parses a search request from a POST JSON body.
func ParseSearchRequestBody(body io.Reader) (*SearchRequest, error) {
	var req SearchRequest

	decoder := json.NewDecoder(body)
	if err := decoder.Decode(&req); err != nil {
		return nil, fmt.Errorf("failed to parse search request body: %w", err)
	}

	if len(req.BBox) > 0 && len(req.BBox) != 4 {
		return nil, fmt.Errorf("bbox must have 4 coordinates, got %d", len(req.BBox))
	}

	if req.Limit < 0 {
		return nil, fmt.Errorf("limit must be non-negative, got %d", req.Limit)
	}

	if req.Page == 0 {
		req.Page = 1
	}

	return &req, nil
}

// ParseBBox parses a comma-joined bbox string into 4 floats. The derived
// values depend only on the parsed floats, never on string formatting.
func ParseBBox(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return nil, fmt.Errorf("bbox must have 4 coordinates, got %d", len(parts))
	}

	bbox := make([]float64, len(parts))
	for i, part := range parts {
		val, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid bbox coordinate at position %d: %w", i, err)
		}
		bbox[i] = val
	}

	return bbox, nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
