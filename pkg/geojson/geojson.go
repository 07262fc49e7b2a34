// Package geojson provides GeoJSON geometry types and utilities.
package geojson

import (
	"encoding/json"
	"fmt"
	"math"
)

// Geometry represents a GeoJSON geometry object.
type Geometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// Polygon returns the coordinates as a Polygon [][][lon, lat].
// Returns error if geometry is not a Polygon.
func (g *Geometry) Polygon() ([][][]float64, error) {
	if g.Type != "Polygon" {
		return nil, fmt.Errorf("geometry is not a Polygon, got %s", g.Type)
	}
	var coords [][][]float64
	if err := json.Unmarshal(g.Coordinates, &coords); err != nil {
		return nil, fmt.Errorf("failed to unmarshal Polygon coordinates: %w", err)
	}
	return coords, nil
}

// NewPolygon creates a Polygon geometry from a single closed ring of
// [lon, lat] positions. The ring must repeat its first position last.
func NewPolygon(ring [][]float64) (*Geometry, error) {
	if len(ring) < 4 {
		return nil, fmt.Errorf("polygon ring must have at least 4 positions, got %d", len(ring))
	}

	first, last := ring[0], ring[len(ring)-1]
	if first[0] != last[0] || first[1] != last[1] {
		return nil, fmt.Errorf("polygon ring is not closed")
	}

	coordsJSON, err := json.Marshal([][][]float64{ring})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal polygon coordinates: %w", err)
	}

	return &Geometry{
		Type:        "Polygon",
		Coordinates: coordsJSON,
	}, nil
}

// BBox computes the bounding box of the geometry.
// Returns [west, south, east, north].
func (g *Geometry) BBox() ([]float64, error) {
	return ComputeBBox(g)
}

// ComputeBBox computes the bounding box of a Polygon geometry.
// Returns [west, south, east, north]. Scene footprints are the only
// geometries this catalog emits, so no other type is supported.
func ComputeBBox(g *Geometry) ([]float64, error) {
	if g == nil {
		return nil, fmt.Errorf("geometry is nil")
	}
	if g.Type != "Polygon" {
		return nil, fmt.Errorf("unsupported geometry type: %s", g.Type)
	}

	coords, err := g.Polygon()
	if err != nil {
		return nil, err
	}

	minLon, minLat := math.Inf(1), math.Inf(1)
	maxLon, maxLat := math.Inf(-1), math.Inf(-1)

	for _, ring := range coords {
		for _, point := range ring {
			if len(point) < 2 {
				continue
			}
			minLon = math.Min(minLon, point[0])
			maxLon = math.Max(maxLon, point[0])
			minLat = math.Min(minLat, point[1])
			maxLat = math.Max(maxLat, point[1])
		}
	}

	if math.IsInf(minLon, 0) || math.IsInf(minLat, 0) {
		return nil, fmt.Errorf("failed to compute bounding box: no valid coordinates found")
	}

	return []float64{minLon, minLat, maxLon, maxLat}, nil
}
