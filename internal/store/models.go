package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Corner is one footprint corner as a lon/lat pair.
type Corner struct {
	Lon float64
	Lat float64
}

// SceneAsset is one stored (band, file reference) pair of a scene.
type SceneAsset struct {
	Band string `json:"band"`
	Href string `json:"href"`
}

// Scene is one satellite imagery acquisition record from the catalog.
// The footprint is defined by its four corners and is not assumed to be
// an axis-aligned rectangle.
type Scene struct {
	ID         string
	Collection string
	Datetime   time.Time
	Path       int
	Row        int
	Satellite  string
	Sensor     string
	CloudCover sql.NullFloat64
	SyncLoss   sql.NullFloat64
	Deleted    bool
	Thumbnail  string

	TopLeft     Corner
	BottomLeft  Corner
	BottomRight Corner
	TopRight    Corner

	// Assets in declaration order, decoded from the stored JSON column.
	Assets []SceneAsset
}

// CollectionRecord is one collection row, joined with the aggregated asset
// band metadata of its member scenes.
type CollectionRecord struct {
	ID          string
	Description string
	MinLon      float64
	MinLat      float64
	MaxLon      float64
	MaxLat      float64
	StartDate   time.Time
	EndDate     sql.NullTime

	// Assets is the band union aggregated across the collection's scenes.
	Assets []SceneAsset
}

// CollectionCount is one entry of the per-collection count breakdown.
type CollectionCount struct {
	Collection string
	Matched    int
}

// SearchResult holds one page of scenes plus the pre-pagination counts
// derived from the same filter.
type SearchResult struct {
	Scenes        []Scene
	Matched       int
	PerCollection []CollectionCount
}

// decodeAssets decodes the stored assets JSON column. A missing or
// mismatched payload fails fast rather than producing a partial record.
func decodeAssets(raw []byte) ([]SceneAsset, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var assets []SceneAsset
	if err := json.Unmarshal(raw, &assets); err != nil {
		return nil, fmt.Errorf("failed to decode assets column: %w", err)
	}

	for i, a := range assets {
		if a.Band == "" || a.Href == "" {
			return nil, fmt.Errorf("asset %d is missing band or href", i)
		}
	}

	return assets, nil
}
