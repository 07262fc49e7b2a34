package translate

import (
	"fmt"

	"github.com/inpe-cdsr/stac-api/internal/stac"
	"github.com/inpe-cdsr/stac-api/internal/store"
)

// ProjectCollection converts a collection record into a STAC Collection
// document. The eo:bands list is the union of band names aggregated by the
// store across the collection's scenes. The temporal extent end stays null
// while the collection is open-ended.
func (p *Projector) ProjectCollection(rec *store.CollectionRecord) *stac.CollectionDoc {
	base := p.cfg.STAC.BaseURI

	start := FormatSTACTime(rec.StartDate)
	var end *string
	if rec.EndDate.Valid {
		s := FormatSTACTime(rec.EndDate.Time)
		end = &s
	}

	doc := &stac.CollectionDoc{
		StacVersion:    p.cfg.STAC.Version,
		StacExtensions: []string{stac.ExtensionEO},
		ID:             rec.ID,
		Title:          rec.ID,
		Description:    rec.Description,
		License:        nil,
		Extent: stac.Extent{
			Spatial:  []float64{rec.MinLon, rec.MinLat, rec.MaxLon, rec.MaxLat},
			Temporal: []*string{&start, end},
		},
		Properties: stac.CollectionProperties{
			EOBands: bandUnion(rec.Assets),
		},
	}

	doc.Links = append(doc.Links,
		&stac.Link{
			Rel:  "self",
			Href: fmt.Sprintf("%s/collections/%s", base, rec.ID),
			Type: "application/json",
		},
		&stac.Link{
			Rel:  "items",
			Href: fmt.Sprintf("%s/collections/%s/items", base, rec.ID),
			Type: "application/geo+json",
		},
		&stac.Link{
			Rel:  "parent",
			Href: base + "/collections",
			Type: "application/json",
		},
		&stac.Link{
			Rel:  "root",
			Href: base + "/stac",
			Type: "application/json",
		},
	)

	return doc
}

// bandUnion deduplicates band names preserving first-seen order.
func bandUnion(assets []store.SceneAsset) []stac.Band {
	seen := make(map[string]bool)
	bands := make([]stac.Band, 0, len(assets))

	for _, asset := range assets {
		if seen[asset.Band] {
			continue
		}
		seen[asset.Band] = true
		bands = append(bands, stac.Band{
			Name:       asset.Band,
			CommonName: asset.Band,
		})
	}

	return bands
}
