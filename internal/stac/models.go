// Package stac provides the STAC document types emitted by the catalog API,
// wrapping planetlabs/go-stac for shared types, plus search request parsing.
package stac

import (
	gostac "github.com/planetlabs/go-stac"

	"github.com/inpe-cdsr/stac-api/pkg/geojson"
)

// Re-export shared types from planetlabs/go-stac for convenience
type (
	Link     = gostac.Link
	Catalog  = gostac.Catalog
	Provider = gostac.Provider
)

// Extension identifiers carried in stac_extensions.
const (
	ExtensionEO      = "eo"
	ExtensionQuery   = "query"
	ExtensionContext = "context"
)

// Band describes one entry of an eo:bands list.
type Band struct {
	Name       string `json:"name"`
	CommonName string `json:"common_name"`
}

// Asset is one downloadable file attached to a Feature. EOBands holds
// indexes into the feature-level eo:bands list.
type Asset struct {
	Href    string `json:"href"`
	Type    string `json:"type,omitempty"`
	EOBands []int  `json:"eo:bands,omitempty"`
}

// Feature is one scene projected as a STAC Item (GeoJSON Feature).
type Feature struct {
	StacVersion    string            `json:"stac_version"`
	StacExtensions []string          `json:"stac_extensions"`
	Type           string            `json:"type"` // "Feature"
	ID             string            `json:"id"`
	Collection     string            `json:"collection"`
	Geometry       *geojson.Geometry `json:"geometry"`
	BBox           []float64         `json:"bbox"`
	Properties     map[string]any    `json:"properties"`
	Assets         map[string]Asset  `json:"assets"`
	Links          []*Link           `json:"links"`
}

// FeatureCollection is an ordered set of Features plus context metadata.
type FeatureCollection struct {
	StacVersion    string     `json:"stac_version"`
	StacExtensions []string   `json:"stac_extensions"`
	Type           string     `json:"type"` // "FeatureCollection"
	Features       []*Feature `json:"features"`
	Links          []*Link    `json:"links,omitempty"`
	Context        *Context   `json:"context,omitempty"`
}

// Context reports paging metadata (STAC context extension). Meta is null
// unless the search spanned multiple collections.
type Context struct {
	Page     int              `json:"page"`
	Limit    int              `json:"limit"`
	Matched  int              `json:"matched"`
	Returned int              `json:"returned"`
	Meta     []CollectionMeta `json:"meta"`
}

// CollectionMeta is the per-collection breakdown of a multi-collection search.
type CollectionMeta struct {
	Name    string      `json:"name"`
	Context PageContext `json:"context"`
}

// PageContext is the paging window of one collection within a breakdown.
type PageContext struct {
	Page     int `json:"page"`
	Limit    int `json:"limit"`
	Matched  int `json:"matched"`
	Returned int `json:"returned"`
}

// Extent describes a collection's spatial and temporal coverage.
// Temporal end is null while the collection is still receiving scenes.
type Extent struct {
	Spatial  []float64 `json:"spatial"`  // [minLon, minLat, maxLon, maxLat]
	Temporal []*string `json:"temporal"` // [start, end-or-null]
}

// CollectionProperties holds collection-level extension properties.
type CollectionProperties struct {
	EOBands []Band `json:"eo:bands"`
}

// CollectionDoc is one collection projected as a STAC Collection document.
type CollectionDoc struct {
	StacVersion    string               `json:"stac_version"`
	StacExtensions []string             `json:"stac_extensions"`
	ID             string               `json:"id"`
	Title          string               `json:"title"`
	Description    string               `json:"description"`
	License        *string              `json:"license"`
	Extent         Extent               `json:"extent"`
	Properties     CollectionProperties `json:"properties"`
	Links          []*Link              `json:"links"`
}

// CollectionsList is the response of the collection listing endpoint.
type CollectionsList struct {
	Collections []*CollectionDoc `json:"collections"`
}

// Conformance represents the conformance classes response.
type Conformance struct {
	ConformsTo []string `json:"conformsTo"`
}

// DefaultConformance returns the conformance classes for the catalog.
func DefaultConformance() []string {
	return []string{
		"http://www.opengis.net/spec/wfs-1/3.0/req/core",
		"http://www.opengis.net/spec/wfs-1/3.0/req/oas30",
		"http://www.opengis.net/spec/wfs-1/3.0/req/html",
		"http://www.opengis.net/spec/wfs-1/3.0/req/geojson",
	}
}

// NewFeatureCollection creates a FeatureCollection with the given features.
// A nil slice becomes an empty features array.
func NewFeatureCollection(features []*Feature, version string) *FeatureCollection {
	if features == nil {
		features = make([]*Feature, 0)
	}
	return &FeatureCollection{
		StacVersion:    version,
		StacExtensions: make([]string, 0),
		Type:           "FeatureCollection",
		Features:       features,
	}
}

// AddLink appends a link to the FeatureCollection.
func (fc *FeatureCollection) AddLink(rel, href, mediaType string) {
	fc.Links = append(fc.Links, &Link{
		Rel:  rel,
		Href: href,
		Type: mediaType,
	})
}

// NewCatalog creates a STAC Catalog for the /stac endpoint.
func NewCatalog(id, title, description, version string) *Catalog {
	return &gostac.Catalog{
		Version:     version,
		Id:          id,
		Title:       title,
		Description: description,
		Links:       make([]*gostac.Link, 0),
	}
}
