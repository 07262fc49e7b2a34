package translate

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/inpe-cdsr/stac-api/internal/stac"
	"github.com/inpe-cdsr/stac-api/internal/store"
	"github.com/inpe-cdsr/stac-api/pkg/geojson"
)

// Asset media types emitted by the projector.
const (
	mediaTypeGeoTIFF = "image/tiff; application=geotiff"
	mediaTypeXML     = "application/xml"
	mediaTypePNG     = "image/png"
)

// sidecarSuffix is appended to the band key for the metadata sidecar asset.
const sidecarSuffix = "_xml"

// FormatSTACTime formats a time as RFC3339 UTC, the single canonical form
// used in emitted documents regardless of stored precision.
func FormatSTACTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// ProjectScene converts a scene record into a STAC Feature. The footprint
// becomes a closed 5-point polygon ring (top-left, bottom-left, bottom-right,
// top-right, top-left) and the bbox is the per-axis min/max over the four
// corners.
func (p *Projector) ProjectScene(scene *store.Scene) (*stac.Feature, error) {
	if scene == nil {
		return nil, fmt.Errorf("scene is nil")
	}

	ring := [][]float64{
		{scene.TopLeft.Lon, scene.TopLeft.Lat},
		{scene.BottomLeft.Lon, scene.BottomLeft.Lat},
		{scene.BottomRight.Lon, scene.BottomRight.Lat},
		{scene.TopRight.Lon, scene.TopRight.Lat},
		{scene.TopLeft.Lon, scene.TopLeft.Lat},
	}

	geom, err := geojson.NewPolygon(ring)
	if err != nil {
		return nil, fmt.Errorf("scene %s: failed to build footprint: %w", scene.ID, err)
	}

	bbox, err := geojson.ComputeBBox(geom)
	if err != nil {
		return nil, fmt.Errorf("scene %s: failed to compute bbox: %w", scene.ID, err)
	}

	feature := &stac.Feature{
		StacVersion:    p.cfg.STAC.Version,
		StacExtensions: []string{stac.ExtensionEO},
		Type:           "Feature",
		ID:             scene.ID,
		Collection:     scene.Collection,
		Geometry:       geom,
		BBox:           bbox,
		Assets:         make(map[string]stac.Asset),
	}

	feature.Properties = map[string]any{
		"datetime":    FormatSTACTime(scene.Datetime),
		"path":        scene.Path,
		"row":         scene.Row,
		"satellite":   scene.Satellite,
		"sensor":      scene.Sensor,
		"cloud_cover": nullableFloat(scene.CloudCover.Float64, scene.CloudCover.Valid),
		"sync_loss":   nullableFloat(scene.SyncLoss.Float64, scene.SyncLoss.Valid),
		"eo:gsd":      -1,
	}

	bands := make([]stac.Band, 0, len(scene.Assets))
	for _, asset := range scene.Assets {
		bands = append(bands, stac.Band{
			Name:       asset.Band,
			CommonName: asset.Band,
		})

		feature.Assets[asset.Band] = stac.Asset{
			Href:    p.cfg.Assets.ImageryRoot + asset.Href,
			Type:    mediaTypeGeoTIFF,
			EOBands: []int{len(bands) - 1},
		}
		feature.Assets[asset.Band+sidecarSuffix] = stac.Asset{
			Href: p.cfg.Assets.ImageryRoot + sidecarHref(asset.Href),
			Type: mediaTypeXML,
		}
	}

	feature.Assets["thumbnail"] = stac.Asset{
		Href: p.cfg.Assets.ThumbnailRoot + scene.Thumbnail,
		Type: mediaTypePNG,
	}

	feature.Properties["eo:bands"] = bands

	p.addSceneLinks(feature)

	return feature, nil
}

// sidecarHref swaps a file reference's extension for the XML sidecar's.
func sidecarHref(href string) string {
	ext := path.Ext(href)
	return strings.TrimSuffix(href, ext) + ".xml"
}

func nullableFloat(v float64, valid bool) any {
	if !valid {
		return nil
	}
	return v
}

// addSceneLinks builds the feature's relations from its own identifiers and
// the configured base URI, independent of how the request arrived.
func (p *Projector) addSceneLinks(feature *stac.Feature) {
	base := p.cfg.STAC.BaseURI

	feature.Links = append(feature.Links,
		&stac.Link{
			Rel:  "self",
			Href: fmt.Sprintf("%s/collections/%s/items/%s", base, feature.Collection, feature.ID),
			Type: "application/geo+json",
		},
		&stac.Link{
			Rel:  "parent",
			Href: fmt.Sprintf("%s/collections/%s", base, feature.Collection),
			Type: "application/json",
		},
		&stac.Link{
			Rel:  "collection",
			Href: fmt.Sprintf("%s/collections/%s", base, feature.Collection),
			Type: "application/json",
		},
		&stac.Link{
			Rel:  "root",
			Href: base + "/stac",
			Type: "application/json",
		},
	)
}
