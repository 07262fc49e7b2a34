package translate

import (
	"database/sql"
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"github.com/inpe-cdsr/stac-api/internal/stac"
	"github.com/inpe-cdsr/stac-api/internal/store"
)

func testCollectionRecord() *store.CollectionRecord {
	return &store.CollectionRecord{
		ID:          "CBERS4_MUX_L2_DN",
		Description: "CBERS4 MUX level 2",
		MinLon:      -74.0,
		MinLat:      -34.0,
		MaxLon:      -34.0,
		MaxLat:      6.0,
		StartDate:   time.Date(2014, 12, 7, 0, 0, 0, 0, time.UTC),
		Assets: []store.SceneAsset{
			{Band: "red", Href: "/a/red.tif"},
			{Band: "nir", Href: "/a/nir.tif"},
			{Band: "red", Href: "/b/red.tif"},
		},
	}
}

func TestProjectCollection(t *testing.T) {
	p := testProjector()

	doc := p.ProjectCollection(testCollectionRecord())

	if doc.ID != "CBERS4_MUX_L2_DN" || doc.Title != doc.ID {
		t.Errorf("got id %q title %q", doc.ID, doc.Title)
	}
	if doc.License != nil {
		t.Errorf("got license %v, want null", doc.License)
	}

	wantSpatial := []float64{-74.0, -34.0, -34.0, 6.0}
	if !reflect.DeepEqual(doc.Extent.Spatial, wantSpatial) {
		t.Errorf("got spatial extent %v, want %v", doc.Extent.Spatial, wantSpatial)
	}

	if len(doc.Extent.Temporal) != 2 {
		t.Fatalf("got temporal extent %v, want [start, end]", doc.Extent.Temporal)
	}
	if doc.Extent.Temporal[0] == nil || *doc.Extent.Temporal[0] != "2014-12-07T00:00:00Z" {
		t.Errorf("got temporal start %v", doc.Extent.Temporal[0])
	}
	if doc.Extent.Temporal[1] != nil {
		t.Errorf("open-ended collection: got temporal end %q, want null", *doc.Extent.Temporal[1])
	}

	// Band names deduplicated, first-seen order preserved.
	wantBands := []stac.Band{
		{Name: "red", CommonName: "red"},
		{Name: "nir", CommonName: "nir"},
	}
	if !reflect.DeepEqual(doc.Properties.EOBands, wantBands) {
		t.Errorf("got bands %v, want %v", doc.Properties.EOBands, wantBands)
	}
}

func TestProjectCollectionClosedTemporalExtent(t *testing.T) {
	p := testProjector()

	rec := testCollectionRecord()
	rec.EndDate = sql.NullTime{
		Time:  time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		Valid: true,
	}

	doc := p.ProjectCollection(rec)

	if doc.Extent.Temporal[1] == nil || *doc.Extent.Temporal[1] != "2023-01-01T00:00:00Z" {
		t.Errorf("got temporal end %v, want the closing instant", doc.Extent.Temporal[1])
	}
}

func TestProjectCollectionTemporalEndMarshalsNull(t *testing.T) {
	p := testProjector()

	doc := p.ProjectCollection(testCollectionRecord())

	encoded, err := json.Marshal(doc.Extent)
	if err != nil {
		t.Fatalf("failed to marshal extent: %v", err)
	}

	var decoded struct {
		Temporal []*string `json:"temporal"`
	}
	if err := json.Unmarshal(encoded, &decoded); err != nil {
		t.Fatalf("failed to decode extent: %v", err)
	}
	if len(decoded.Temporal) != 2 || decoded.Temporal[1] != nil {
		t.Errorf("temporal end must survive the round trip as null: %s", encoded)
	}
}

func TestProjectCollectionLinks(t *testing.T) {
	p := testProjector()

	doc := p.ProjectCollection(testCollectionRecord())

	hrefs := make(map[string]string)
	for _, link := range doc.Links {
		hrefs[link.Rel] = link.Href
	}

	want := map[string]string{
		"self":   "http://cdsr.example/collections/CBERS4_MUX_L2_DN",
		"items":  "http://cdsr.example/collections/CBERS4_MUX_L2_DN/items",
		"parent": "http://cdsr.example/collections",
		"root":   "http://cdsr.example/stac",
	}
	if !reflect.DeepEqual(hrefs, want) {
		t.Errorf("got links %v, want %v", hrefs, want)
	}
}
