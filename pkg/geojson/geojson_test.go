package geojson

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestNewPolygon(t *testing.T) {
	ring := [][]float64{
		{-62.0, -8.0},
		{-62.1, -10.0},
		{-60.0, -10.1},
		{-59.9, -8.1},
		{-62.0, -8.0},
	}

	geom, err := NewPolygon(ring)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if geom.Type != "Polygon" {
		t.Errorf("got type %q", geom.Type)
	}

	decoded, err := geom.Polygon()
	if err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if !reflect.DeepEqual(decoded, [][][]float64{ring}) {
		t.Errorf("got %v, want the input ring", decoded)
	}
}

func TestNewPolygonRejectsOpenRing(t *testing.T) {
	_, err := NewPolygon([][]float64{
		{0, 0}, {1, 0}, {1, 1}, {0, 1},
	})
	if err == nil {
		t.Fatal("expected error for a ring that does not close")
	}
}

func TestNewPolygonRejectsShortRing(t *testing.T) {
	_, err := NewPolygon([][]float64{
		{0, 0}, {1, 1}, {0, 0},
	})
	if err == nil {
		t.Fatal("expected error for a 3-position ring")
	}
}

func TestPolygonOnNonPolygon(t *testing.T) {
	geom := &Geometry{Type: "Point", Coordinates: json.RawMessage(`[1.0, 2.0]`)}
	if _, err := geom.Polygon(); err == nil {
		t.Fatal("expected error for non-polygon geometry")
	}
}

func TestComputeBBox(t *testing.T) {
	tests := []struct {
		name    string
		geom    *Geometry
		want    []float64
		wantErr bool
	}{
		{
			name: "tilted polygon",
			geom: mustPolygon(t, [][]float64{
				{-62.2, -8.1},
				{-62.0, -10.2},
				{-60.1, -10.0},
				{-59.9, -8.3},
				{-62.2, -8.1},
			}),
			want: []float64{-62.2, -10.2, -59.9, -8.1},
		},
		{
			name:    "nil geometry",
			geom:    nil,
			wantErr: true,
		},
		{
			name:    "unsupported type",
			geom:    &Geometry{Type: "Point", Coordinates: json.RawMessage(`[-60.5, -8.25]`)},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeBBox(tt.geom)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGeometryRoundTrip(t *testing.T) {
	geom := mustPolygon(t, [][]float64{
		{0, 0}, {1, 0}, {1, 1}, {0, 0},
	})

	encoded, err := json.Marshal(geom)
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}

	var decoded Geometry
	if err := json.Unmarshal(encoded, &decoded); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	if decoded.Type != "Polygon" {
		t.Errorf("got type %q", decoded.Type)
	}

	a, err := geom.BBox()
	if err != nil {
		t.Fatalf("bbox of original: %v", err)
	}
	b, err := decoded.BBox()
	if err != nil {
		t.Fatalf("bbox of round-tripped: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Errorf("bbox changed across round trip: %v vs %v", a, b)
	}
}

func mustPolygon(t *testing.T, ring [][]float64) *Geometry {
	t.Helper()
	geom, err := NewPolygon(ring)
	if err != nil {
		t.Fatalf("failed to build polygon: %v", err)
	}
	return geom
}
